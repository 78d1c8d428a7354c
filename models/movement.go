package models

// SeatSide is the side of the table a pair occupies for a round.
type SeatSide string

const (
	SeatSideNS SeatSide = "NS"
	SeatSideEW SeatSide = "EW"
)

func (s SeatSide) Other() SeatSide {
	if s == SeatSideNS {
		return SeatSideEW
	}
	return SeatSideNS
}

// Opponent identifies the pair faced in a round, with player names for
// display.
type Opponent struct {
	PairNo  int      `json:"pair_no"`
	Players []Player `json:"players,omitempty"`
}

// Position encodes the table and side a pair plays at during a round.
type Position struct {
	Table int      `json:"table"`
	Seat  SeatSide `json:"seat"`
}

// MovementRound is the per-pair view of one round: either a seated assignment
// with opponent, position and boards, or a sit-out. Hands carries the live
// result for each assigned board, keyed by board number; boards without a
// recorded result are absent.
type MovementRound struct {
	RoundNo    int                 `json:"round_no"`
	SitOut     bool                `json:"sit_out"`
	Position   Position            `json:"position"`
	Opponent   *Opponent           `json:"opponent,omitempty"`
	Boards     []int               `json:"boards,omitempty"`
	RelayTable bool                `json:"relay_table,omitempty"`
	Hands      map[int]*HandResult `json:"hands,omitempty"`
}

// PairMovement is a single pair's full schedule with embedded live results.
type PairMovement struct {
	PairNo int             `json:"pair_no"`
	Code   string          `json:"code,omitempty"`
	Rounds []MovementRound `json:"rounds"`
}

// HandStatus locates one scheduled hand for the per-round scored/unscored
// partition, sorted by (hand number, table number).
type HandStatus struct {
	HandNo  int     `json:"hand_no"`
	TableNo int     `json:"table_no"`
	Key     HandKey `json:"key"`
}

// RoundHandStatus partitions one round's scheduled hands by whether a live
// result exists.
type RoundHandStatus struct {
	RoundNo  int          `json:"round_no"`
	Scored   []HandStatus `json:"scored"`
	Unscored []HandStatus `json:"unscored"`
}
