package models

import "time"

// StaminaLog - неизменяемая запись аудита. Amount подписан:
// списание отрицательное, начисление положительное.
type StaminaLog struct {
	ID        int       `json:"id" db:"id"`
	UserID    int       `json:"user_id" db:"user_id"`
	Amount    float64   `json:"amount" db:"amount"`
	Reason    string    `json:"reason" db:"reason"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}
