package models

import "time"

// Participant - запись о регистрации пользователя в турнире.
// GroupName заполняется только при старте турнира.
type Participant struct {
	ID           int       `json:"id" db:"id"`
	TournamentID int       `json:"tournament_id" db:"tournament_id"`
	UserID       int       `json:"user_id" db:"user_id"`
	GroupName    *string   `json:"group,omitempty" db:"group_name"`
	CreatedAt    time.Time `json:"created_at" db:"created_at"`

	User *User `json:"user,omitempty" db:"-"`
}
