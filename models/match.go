package models

import "time"

type MatchStatus string

const (
	MatchPending           MatchStatus = "PENDING"
	MatchWaitingForWitness MatchStatus = "WAITING_FOR_WITNESS"
	MatchCompleted         MatchStatus = "COMPLETED"
)

type VerificationStatus string

const (
	VerificationWaiting   VerificationStatus = "WAITING_FOR_WITNESS"
	VerificationConfirmed VerificationStatus = "CONFIRMED"
)

// Match представляет матч группового этапа.
// Инвариант: WinnerID всегда один из Player1ID/Player2ID;
// Status == COMPLETED тогда и только тогда, когда VerificationStatus == CONFIRMED.
type Match struct {
	ID                 int                 `json:"id" db:"id"`
	TournamentID       int                 `json:"tournament_id" db:"tournament_id"`
	Player1ID          int                 `json:"player1_id" db:"player1_id"`
	Player2ID          int                 `json:"player2_id" db:"player2_id"`
	RefereeID          *int                `json:"referee_id,omitempty" db:"referee_id"`
	WitnessID          *int                `json:"witness_id,omitempty" db:"witness_id"`
	Round              int                 `json:"round" db:"round"`
	Status             MatchStatus         `json:"status" db:"status"`
	VerificationStatus *VerificationStatus `json:"verification_status,omitempty" db:"verification_status"`
	Score              *string             `json:"score,omitempty" db:"score"`
	WinnerID           *int                `json:"winner_id,omitempty" db:"winner_id"`
	CreatedAt          time.Time           `json:"created_at" db:"created_at"`
}

// HasPlayer сообщает, играет ли userID в этом матче.
func (m *Match) HasPlayer(userID int) bool {
	return m.Player1ID == userID || m.Player2ID == userID
}
