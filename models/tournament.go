package models

import "time"

// LockState представляет режим блокировки записи результатов, соответствующий ENUM в БД.
type LockState string

const (
	// LockStateUnlocked: любая аутентифицированная пара может записывать и перезаписывать.
	LockStateUnlocked LockState = "unlocked"
	// LockStateLockable: пары могут записывать только ещё не записанные раздачи.
	LockStateLockable LockState = "lockable"
	// LockStateLocked: записывает только директор турнира.
	LockStateLocked LockState = "locked"
)

func (s LockState) IsValid() bool {
	switch s {
	case LockStateUnlocked, LockStateLockable, LockStateLocked:
		return true
	}
	return false
}

// Tournament представляет турнир.
type Tournament struct {
	ID                   int       `json:"id" db:"id"`
	Name                 string    `json:"name" db:"name"`
	OwnerID              int       `json:"owner_id" db:"owner_id"`
	NoPairs              int       `json:"no_pairs" db:"no_pairs"`
	NoBoards             int       `json:"no_boards" db:"no_boards"`
	AllowScoreOverwrites bool      `json:"allow_score_overwrites" db:"allow_score_overwrites"`
	LockState            LockState `json:"lock_state" db:"lock_state"`
	CreatedAt            time.Time `json:"created_at" db:"created_at"`

	// Опциональные связанные сущности (не мапятся напрямую)
	Pairs []Pair `json:"pairs,omitempty" db:"-"`
}

// IsOwner reports whether the given user is the tournament's director.
func (t *Tournament) IsOwner(userID int) bool {
	return t.OwnerID == userID
}
