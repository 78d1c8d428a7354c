package models

import "fmt"

// Seat identifies one of the four positions at a table.
type Seat string

const (
	SeatNorth Seat = "north"
	SeatEast  Seat = "east"
	SeatSouth Seat = "south"
	SeatWest  Seat = "west"
)

func (s Seat) IsValid() bool {
	switch s {
	case SeatNorth, SeatEast, SeatSouth, SeatWest:
		return true
	}
	return false
}

// Call is a per-seat Tichu declaration.
type Call string

const (
	CallNone       Call = ""
	CallTichu      Call = "T"
	CallGrandTichu Call = "GT"
)

func (c Call) IsValid() bool {
	switch c {
	case CallNone, CallTichu, CallGrandTichu:
		return true
	}
	return false
}

// CallSet maps seats to their declarations. Seats without a declaration may
// be omitted entirely. Calls are informational once scores are in: any bonus
// or penalty is already folded into the submitted raw scores.
type CallSet map[Seat]Call

// Validate rejects unknown seats and unknown call values.
func (cs CallSet) Validate() error {
	for seat, call := range cs {
		if !seat.IsValid() {
			return fmt.Errorf("unknown seat %q in call set", seat)
		}
		if !call.IsValid() {
			return fmt.Errorf("unknown call %q for seat %q", call, seat)
		}
	}
	return nil
}

// Clone returns an independent copy, dropping empty declarations.
func (cs CallSet) Clone() CallSet {
	if cs == nil {
		return nil
	}
	out := make(CallSet, len(cs))
	for seat, call := range cs {
		if call != CallNone {
			out[seat] = call
		}
	}
	return out
}
