package models

import "time"

type WitnessRequestStatus string

const (
	WitnessRequestPending  WitnessRequestStatus = "PENDING"
	WitnessRequestAccepted WitnessRequestStatus = "ACCEPTED"
	WitnessRequestRejected WitnessRequestStatus = "REJECTED"
)

// WitnessRequest - приглашение участнику подтвердить результат матча.
// Создаётся пачкой (до 5) при отправке результата; каждый запрос
// переходит из PENDING ровно один раз. ExpiresAt носит информационный
// характер, сервер не отклоняет просроченные запросы сам.
type WitnessRequest struct {
	ID        int                  `json:"id" db:"id"`
	MatchID   int                  `json:"match_id" db:"match_id"`
	UserID    int                  `json:"user_id" db:"user_id"`
	Status    WitnessRequestStatus `json:"status" db:"status"`
	ExpiresAt time.Time            `json:"expires_at" db:"expires_at"`
	CreatedAt time.Time            `json:"created_at" db:"created_at"`

	Match *Match `json:"match,omitempty" db:"-"`
}
