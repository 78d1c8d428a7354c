package scoring

import "github.com/tichu-tools/pairs-server/models"

// Actor identifies who is attempting a write: the owning director, or a pair
// authenticated by its pair code.
type Actor struct {
	Director bool
	PairNo   int
}

// ChangedBy returns the attribution value recorded in the change log.
func (a Actor) ChangedBy() int {
	if a.Director {
		return models.ActorDirector
	}
	return a.PairNo
}

// Admit decides whether the actor may write the given hand, per the
// tournament's lock state and overwrite policy. existing is the current live
// result for the key, nil when the hand is unscored.
//
// The director is always admitted. A pair is only ever admitted to hands it
// plays in, and then iff the tournament is unlocked, or it is lockable and
// the hand is unscored, or it is lockable and overwrites are allowed. A
// locked tournament never admits a pair, scored or not.
func Admit(state models.LockState, allowOverwrites bool, actor Actor, key models.HandKey, existing *models.HandResult) bool {
	if actor.Director {
		return true
	}
	if actor.PairNo != key.NSPair && actor.PairNo != key.EWPair {
		return false
	}
	switch state {
	case models.LockStateUnlocked:
		return true
	case models.LockStateLockable:
		return existing == nil || allowOverwrites
	}
	return false
}
