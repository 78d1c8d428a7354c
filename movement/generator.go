package movement

import (
	"fmt"
	"sort"

	"github.com/tichu-tools/pairs-server/models"
)

// Seating is the per-round assignment variant for one pair: either Seated at
// a table against an opponent, or SitOut.
type Seating interface {
	isSeating()
}

type Seated struct {
	Opponent int
	Position models.Position
	Boards   []int
	Relay    bool
}

type SitOut struct{}

func (Seated) isSeating() {}
func (SitOut) isSeating() {}

// PairRound is one round of a single pair's schedule.
type PairRound struct {
	RoundNo int
	Seating Seating
}

// Table is one physical table in one round.
type Table struct {
	RoundNo int
	TableNo int
	NSPair  int
	EWPair  int
	Boards  []int
	Relay   bool
}

// ScheduledHand is one (board, pairs) combination the movement expects to be
// played.
type ScheduledHand struct {
	RoundNo int
	TableNo int
	Key     models.HandKey
}

// Movement is the full deterministic schedule for a tournament configuration.
// It is a pure function of (noPairs, noBoards): regenerating from the same
// inputs always yields the same schedule, so it never needs to be persisted.
type Movement struct {
	NoPairs        int
	NoBoards       int
	NoRounds       int
	BoardsPerRound int

	tables    []Table
	sitOuts   map[int][]int // roundNo -> sitting pair numbers
	scheduled map[models.HandKey]ScheduledHand
}

// Generate builds the movement for the given configuration.
//
// The schedule is a circle-method round robin. The number of rounds is the
// largest divisor of noBoards that fits a complete rotation (noPairs-1 rounds
// for even counts, noPairs for odd counts, where one pair sits out each
// round). Each round plays one contiguous board group shared by every table
// in the round; tables playing alongside another table are relay tables. A
// pair therefore plays every board group exactly once across the rounds it is
// seated, and no two pairs ever meet twice.
func Generate(noPairs, noBoards int) (*Movement, error) {
	if noPairs < 2 {
		return nil, fmt.Errorf("movement: at least 2 pairs required, got %d", noPairs)
	}
	if noBoards < 1 {
		return nil, fmt.Errorf("movement: at least 1 board required, got %d", noBoards)
	}

	maxRounds := noPairs - 1
	if noPairs%2 != 0 {
		maxRounds = noPairs
	}
	noRounds := largestDivisorAtMost(noBoards, maxRounds)
	boardsPerRound := noBoards / noRounds

	m := &Movement{
		NoPairs:        noPairs,
		NoBoards:       noBoards,
		NoRounds:       noRounds,
		BoardsPerRound: boardsPerRound,
		sitOuts:        make(map[int][]int),
		scheduled:      make(map[models.HandKey]ScheduledHand),
	}

	// Circle method over slots 0..slots-1. With an odd pair count the last
	// slot is a bye marker; the pair drawn against it sits out that round.
	slots := noPairs
	bye := -1
	if noPairs%2 != 0 {
		slots = noPairs + 1
		bye = slots - 1
	}

	for round := 1; round <= noRounds; round++ {
		k := round - 1
		boards := boardGroup(round, boardsPerRound)
		tablesPlaying := slots / 2
		if bye >= 0 {
			tablesPlaying--
		}

		tableNo := 0
		for j := 0; j < slots/2; j++ {
			a, b := circlePairing(slots, k, j)
			if a == bye || b == bye {
				sitting := slotToPair(a, b, bye)
				m.sitOuts[round] = append(m.sitOuts[round], sitting)
				continue
			}
			tableNo++

			// Alternate which element takes North/South so neither side of
			// the draw always sits the same way.
			ns, ew := a+1, b+1
			if (k+j)%2 != 0 {
				ns, ew = ew, ns
			}

			table := Table{
				RoundNo: round,
				TableNo: tableNo,
				NSPair:  ns,
				EWPair:  ew,
				Boards:  boards,
				Relay:   tablesPlaying > 1,
			}
			m.tables = append(m.tables, table)

			for _, boardNo := range boards {
				key := models.HandKey{BoardNo: boardNo, NSPair: ns, EWPair: ew}
				m.scheduled[key] = ScheduledHand{RoundNo: round, TableNo: tableNo, Key: key}
			}
		}
	}

	return m, nil
}

// circlePairing returns the slot indices meeting at match j of round k. Slot
// slots-1 is fixed; the rest rotate one step per round.
func circlePairing(slots, k, j int) (int, int) {
	n := slots - 1
	if j == 0 {
		return slots - 1, k % n
	}
	return (k + j) % n, (k - j + n) % n
}

func slotToPair(a, b, bye int) int {
	if a == bye {
		return b + 1
	}
	return a + 1
}

func boardGroup(round, boardsPerRound int) []int {
	boards := make([]int, boardsPerRound)
	for i := range boards {
		boards[i] = (round-1)*boardsPerRound + i + 1
	}
	return boards
}

func largestDivisorAtMost(n, limit int) int {
	if limit < 1 {
		return 1
	}
	for d := limit; d > 1; d-- {
		if n%d == 0 {
			return d
		}
	}
	return 1
}

// IsScheduled reports whether the exact (board, NS, EW) combination appears
// in the schedule. Orientation matters: a key with the sides swapped is not
// scheduled.
func (m *Movement) IsScheduled(key models.HandKey) bool {
	_, ok := m.scheduled[key]
	return ok
}

// Lookup returns the scheduled slot for a key.
func (m *Movement) Lookup(key models.HandKey) (ScheduledHand, bool) {
	h, ok := m.scheduled[key]
	return h, ok
}

// ForPair returns the given pair's schedule in round order.
func (m *Movement) ForPair(pairNo int) ([]PairRound, error) {
	if pairNo < 1 || pairNo > m.NoPairs {
		return nil, fmt.Errorf("movement: pair %d out of range 1..%d", pairNo, m.NoPairs)
	}

	rounds := make([]PairRound, m.NoRounds)
	for i := range rounds {
		rounds[i] = PairRound{RoundNo: i + 1, Seating: SitOut{}}
	}
	for _, table := range m.tables {
		var seat models.SeatSide
		var opponent int
		switch pairNo {
		case table.NSPair:
			seat, opponent = models.SeatSideNS, table.EWPair
		case table.EWPair:
			seat, opponent = models.SeatSideEW, table.NSPair
		default:
			continue
		}
		rounds[table.RoundNo-1].Seating = Seated{
			Opponent: opponent,
			Position: models.Position{Table: table.TableNo, Seat: seat},
			Boards:   table.Boards,
			Relay:    table.Relay,
		}
	}
	return rounds, nil
}

// Tables returns every table of every round, ordered by (round, table).
func (m *Movement) Tables() []Table {
	out := make([]Table, len(m.tables))
	copy(out, m.tables)
	return out
}

// SitOuts returns the pairs sitting out the given round.
func (m *Movement) SitOuts(roundNo int) []int {
	return m.sitOuts[roundNo]
}

// ScheduledHands returns every scheduled hand sorted by (hand number, table
// number), the order the per-round status partition is reported in.
func (m *Movement) ScheduledHands() []ScheduledHand {
	out := make([]ScheduledHand, 0, len(m.scheduled))
	for _, h := range m.scheduled {
		out = append(out, h)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Key.BoardNo != out[j].Key.BoardNo {
			return out[i].Key.BoardNo < out[j].Key.BoardNo
		}
		return out[i].TableNo < out[j].TableNo
	})
	return out
}
