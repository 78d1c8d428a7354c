package models

import (
	"fmt"
	"time"
)

// ActorDirector marks change-log entries written by the tournament director.
const ActorDirector = 0

// HandKey identifies a single playing of a board by two pairs. At most one
// live result exists per key.
type HandKey struct {
	BoardNo int `json:"board_no" db:"board_no"`
	NSPair  int `json:"ns_pair" db:"ns_pair"`
	EWPair  int `json:"ew_pair" db:"ew_pair"`
}

func (k HandKey) String() string {
	return fmt.Sprintf("board %d (NS %d vs EW %d)", k.BoardNo, k.NSPair, k.EWPair)
}

// HandResult представляет записанный результат одной раздачи.
type HandResult struct {
	ID           int        `json:"-" db:"id"`
	TournamentID int        `json:"-" db:"tournament_id"`
	Key          HandKey    `json:"key"`
	Calls        CallSet    `json:"calls,omitempty" db:"calls"`
	NSScore      ScoreValue `json:"ns_score" db:"ns_score"`
	EWScore      ScoreValue `json:"ew_score" db:"ew_score"`
	Notes        string     `json:"notes,omitempty" db:"notes"`
	SubmittedBy  int        `json:"submitted_by" db:"submitted_by"`
	UpdatedAt    time.Time  `json:"updated_at" db:"updated_at"`
}

// NetScore returns the result from the given perspective: own score minus the
// opponents' score. Only meaningful when neither side holds an AVG token.
func (h *HandResult) NetScore(seat SeatSide) int {
	if seat == SeatSideEW {
		return h.EWScore.Points - h.NSScore.Points
	}
	return h.NSScore.Points - h.EWScore.Points
}

// ScoreFor returns the ScoreValue recorded for the given side.
func (h *HandResult) ScoreFor(seat SeatSide) ScoreValue {
	if seat == SeatSideEW {
		return h.EWScore
	}
	return h.NSScore
}

// ChangeEntry is one immutable record in a hand's change log. A nil Change
// denotes a deletion. ChangedBy is a pair number, or ActorDirector for the
// owning director.
type ChangeEntry struct {
	Change       *HandResult `json:"change"`
	ChangedBy    int         `json:"changed_by"`
	TimestampSec int64       `json:"timestamp_sec"`
}
