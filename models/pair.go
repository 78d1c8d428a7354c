package models

// PairCodeLength is the length of the opaque token handed to a pair for
// non-director score access.
const PairCodeLength = 4

type Player struct {
	Name  string `json:"name"`
	Email string `json:"email,omitempty"`
}

// Pair представляет пару игроков в турнире.
//
// Code is a bearer credential: it stays stable while the tournament's pair
// count is unchanged and is reissued for every pair when the count changes.
type Pair struct {
	ID           int      `json:"id" db:"id"`
	TournamentID int      `json:"tournament_id" db:"tournament_id"`
	PairNo       int      `json:"pair_no" db:"pair_no"`
	Code         string   `json:"code,omitempty" db:"code"`
	Players      []Player `json:"players" db:"-"`
}
