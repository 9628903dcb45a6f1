package models

import "time"

// TournamentStatus соответствует ENUM tournament_status в БД.
type TournamentStatus string

const (
	TournamentOpen       TournamentStatus = "OPEN"
	TournamentInProgress TournamentStatus = "IN_PROGRESS"
	TournamentCompleted  TournamentStatus = "COMPLETED"
)

// Tournament представляет турнир. Status is monotonic:
// OPEN -> IN_PROGRESS -> COMPLETED, никаких обратных переходов.
type Tournament struct {
	ID          int              `json:"id" db:"id"`
	Title       string           `json:"title" db:"title"`
	Description *string          `json:"description,omitempty" db:"description"`
	StartDate   time.Time        `json:"start_date" db:"start_date"`
	EndDate     *time.Time       `json:"end_date,omitempty" db:"end_date"`
	MinPlayers  int              `json:"min_players" db:"min_players"`
	MaxPlayers  int              `json:"max_players" db:"max_players"`
	Location    *string          `json:"location,omitempty" db:"location"`
	Lat         *float64         `json:"lat,omitempty" db:"lat"`
	Lng         *float64         `json:"lng,omitempty" db:"lng"`
	Status      TournamentStatus `json:"status" db:"status"`
	LogoKey     *string          `json:"-" db:"logo_key"`
	LogoURL     *string          `json:"logo_url,omitempty" db:"-"`
	CreatedAt   time.Time        `json:"created_at" db:"created_at"`
	UpdatedAt   time.Time        `json:"updated_at" db:"updated_at"`

	// Опциональные связанные сущности (не мапятся напрямую)
	Participants []Participant `json:"participants,omitempty" db:"-"`
	Matches      []Match       `json:"matches,omitempty" db:"-"`
}
