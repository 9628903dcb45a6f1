package services

import "errors"

// Бизнес-ошибки сервисного слоя. Хендлеры мапят их на HTTP-статусы.
var (
	ErrInsufficientStamina = errors.New("insufficient stamina")

	ErrTournamentNotOpen   = errors.New("tournament is not open for registration")
	ErrTournamentNotActive = errors.New("tournament is not in progress")
	ErrAlreadyRegistered   = errors.New("user is already registered for this tournament")
	ErrNotRegistered       = errors.New("user is not registered for this tournament")
	ErrTooFewPlayers       = errors.New("not enough participants to start the tournament")
	ErrTournamentFull      = errors.New("tournament has reached max participants")

	ErrMatchAlreadyCompleted = errors.New("match is already completed")
	ErrNotMatchParticipant   = errors.New("user is not a player or referee of this match")
	ErrInvalidWinner         = errors.New("winner must be one of the match players")
	ErrInvalidScore          = errors.New("score must not be empty")

	ErrNotRequestOwner       = errors.New("witness request belongs to another user")
	ErrAlreadyResponded      = errors.New("witness request has already been responded to")
	ErrWitnessSlotTaken      = errors.New("another witness has already been assigned")
	ErrNotAssignedWitness    = errors.New("user is not the assigned witness of this match")
	ErrMatchNotAwaitingProof = errors.New("match is not waiting for witness confirmation")
	ErrInvalidWitnessAction  = errors.New("witness decision must be ACCEPT or REJECT")

	ErrAuthInvalidCredentials = errors.New("invalid email or password")
	ErrAuthEmailTaken         = errors.New("email is already registered")

	ErrForbiddenOperation = errors.New("operation is not permitted for this user")
	ErrValidationFailed   = errors.New("validation failed")
)
