package models

import "time"

// Ключи системных настроек. Отсутствие ключа трактуется как значение
// по умолчанию, задаваемое вызывающей стороной.
const (
	ConfigRequireStaminaToJoin     = "require_stamina_to_join"
	ConfigRequireMatchVerification = "require_match_verification"
	ConfigLastRerankAt             = "last_rerank_at"
)

type SystemConfig struct {
	Key       string    `json:"key" db:"key"`
	Value     string    `json:"value" db:"value"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}
