package services

import (
	"errors"
	"fmt"

	"github.com/tichu-tools/pairs-server/models"
)

// Общие ошибки, используемые в разных сервисах и маппинге HTTP.
var (
	// Ресурс не найден (универсальная)
	ErrNotFound = errors.New("requested resource not found")

	// Ошибки валидации и бизнес-правил
	ErrValidationFailed       = errors.New("validation failed")
	ErrNotScheduled           = errors.New("pair combination is not scheduled for this board")
	ErrTournamentNameRequired = errors.New("tournament name is required")
	ErrInvalidPairCount       = errors.New("tournament must have at least 2 pairs")
	ErrInvalidBoardCount      = errors.New("tournament must have at least 1 board")
	ErrInvalidLockState       = errors.New("invalid lock state provided")
	ErrConfigFrozen           = errors.New("pair and board counts cannot change once results are recorded")
	ErrPasswordTooShort       = errors.New("password is too short")

	// Ошибки аутентификации и авторизации
	ErrAuthInvalidCredentials = errors.New("invalid email or password")
	ErrAuthEmailTaken         = errors.New("email is already taken")
	ErrForbiddenOperation     = errors.New("operation not allowed for the current user")
	ErrPairCodeInvalid        = errors.New("pair code is not valid for this tournament")

	// Ошибки, специфичные для сущностей
	ErrTournamentNotFound = errors.New("tournament not found")
	ErrPairNotFound       = errors.New("pair not found")
	ErrHandNotFound       = errors.New("hand result not found")
)

// ScoreForbiddenError is returned when lock-state admission rejects a write.
// It carries the tournament's lock state and the currently stored result (if
// any) so the caller can reconcile its view without another round trip.
type ScoreForbiddenError struct {
	LockState     models.LockState
	CurrentResult *models.HandResult
}

func (e *ScoreForbiddenError) Error() string {
	return fmt.Sprintf("score submission forbidden in lock state %q", e.LockState)
}

// Is lets errors.Is treat any ScoreForbiddenError as ErrForbiddenOperation.
func (e *ScoreForbiddenError) Is(target error) bool {
	return target == ErrForbiddenOperation
}
