package models

import "time"

// UserRole соответствует ENUM user_role в БД.
type UserRole string

const (
	RoleAthlete UserRole = "ATHLETE"
	RoleAdmin   UserRole = "ADMIN"
)

// Константы выносливости, общие для журнала и пула наград.
const (
	InitialStamina = 10.0
	MaxStamina     = 20.0
	TournamentFee  = 2.0
)

type User struct {
	ID           int       `json:"id" db:"id"`
	Name         string    `json:"name" db:"name"`
	Email        string    `json:"email" db:"email"`
	PasswordHash string    `json:"-" db:"password_hash"`
	Role         UserRole  `json:"role" db:"role"`
	Stamina      float64   `json:"stamina" db:"stamina"`
	TotalPoints  int       `json:"total_points" db:"total_points"`
	AvatarKey    *string   `json:"-" db:"avatar_key"`
	AvatarURL    *string   `json:"avatar_url,omitempty" db:"-"`
	CreatedAt    time.Time `json:"created_at" db:"created_at"`
}

type Credentials struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}
