package movement

import (
	"reflect"
	"testing"

	"github.com/tichu-tools/pairs-server/models"
)

func TestGenerateRejectsBadConfig(t *testing.T) {
	if _, err := Generate(1, 10); err == nil {
		t.Fatalf("expected error for a single pair")
	}
	if _, err := Generate(8, 0); err == nil {
		t.Fatalf("expected error for zero boards")
	}
}

func TestGenerateIsDeterministic(t *testing.T) {
	a, err := Generate(8, 10)
	if err != nil {
		t.Fatalf("Generate: %+v", err)
	}
	b, err := Generate(8, 10)
	if err != nil {
		t.Fatalf("Generate: %+v", err)
	}
	if !reflect.DeepEqual(a.Tables(), b.Tables()) {
		t.Fatalf("tables differ between identical configurations")
	}
	if !reflect.DeepEqual(a.ScheduledHands(), b.ScheduledHands()) {
		t.Fatalf("scheduled hands differ between identical configurations")
	}
}

func TestGenerateEightPairsTenBoards(t *testing.T) {
	m, err := Generate(8, 10)
	if err != nil {
		t.Fatalf("Generate: %+v", err)
	}

	if m.NoRounds != 5 {
		t.Fatalf("expected 5 rounds, got %d", m.NoRounds)
	}
	if m.BoardsPerRound != 2 {
		t.Fatalf("expected 2 boards per round, got %d", m.BoardsPerRound)
	}

	// Every pair plays every board exactly once.
	played := make(map[int]map[int]int) // pair -> board -> count
	for p := 1; p <= 8; p++ {
		played[p] = make(map[int]int)
	}
	for _, table := range m.Tables() {
		for _, boardNo := range table.Boards {
			played[table.NSPair][boardNo]++
			played[table.EWPair][boardNo]++
		}
	}
	for p := 1; p <= 8; p++ {
		for boardNo := 1; boardNo <= 10; boardNo++ {
			if played[p][boardNo] != 1 {
				t.Fatalf("pair %d plays board %d %d times, want 1", p, boardNo, played[p][boardNo])
			}
		}
	}
}

func TestGenerateNoRepeatMeetings(t *testing.T) {
	for _, cfg := range []struct{ pairs, boards int }{
		{4, 12}, {8, 10}, {7, 21}, {9, 16}, {12, 22},
	} {
		m, err := Generate(cfg.pairs, cfg.boards)
		if err != nil {
			t.Fatalf("Generate(%d, %d): %+v", cfg.pairs, cfg.boards, err)
		}

		type meeting struct{ low, high int }
		seen := make(map[meeting]bool)
		for _, table := range m.Tables() {
			if table.NSPair == table.EWPair {
				t.Fatalf("pair %d plays itself in round %d", table.NSPair, table.RoundNo)
			}
			low, high := table.NSPair, table.EWPair
			if low > high {
				low, high = high, low
			}
			key := meeting{low, high}
			if seen[key] {
				t.Fatalf("pairs %d and %d meet twice (%d pairs, %d boards)",
					low, high, cfg.pairs, cfg.boards)
			}
			seen[key] = true
		}
	}
}

func TestGenerateOddPairCountSitOuts(t *testing.T) {
	m, err := Generate(7, 21)
	if err != nil {
		t.Fatalf("Generate: %+v", err)
	}
	if m.NoRounds != 7 {
		t.Fatalf("expected 7 rounds, got %d", m.NoRounds)
	}

	sat := make(map[int]int)
	for round := 1; round <= m.NoRounds; round++ {
		outs := m.SitOuts(round)
		if len(outs) != 1 {
			t.Fatalf("round %d: expected exactly one sit-out, got %v", round, outs)
		}
		sat[outs[0]]++
	}
	// The sit-out rotates through every pair once over a full rotation.
	for p := 1; p <= 7; p++ {
		if sat[p] != 1 {
			t.Fatalf("pair %d sits out %d rounds, want 1", p, sat[p])
		}
	}
}

func TestGenerateBoardGroupsAreContiguousAndShared(t *testing.T) {
	m, err := Generate(8, 10)
	if err != nil {
		t.Fatalf("Generate: %+v", err)
	}

	for round := 1; round <= m.NoRounds; round++ {
		want := []int{(round-1)*2 + 1, (round-1)*2 + 2}
		count := 0
		for _, table := range m.Tables() {
			if table.RoundNo != round {
				continue
			}
			count++
			if !reflect.DeepEqual(table.Boards, want) {
				t.Fatalf("round %d table %d plays %v, want %v", round, table.TableNo, table.Boards, want)
			}
			if !table.Relay {
				t.Fatalf("round %d table %d shares boards but is not marked relay", round, table.TableNo)
			}
		}
		if count != 4 {
			t.Fatalf("round %d has %d tables, want 4", round, count)
		}
	}
}

func TestIsScheduledIsOrientationSensitive(t *testing.T) {
	m, err := Generate(8, 10)
	if err != nil {
		t.Fatalf("Generate: %+v", err)
	}

	hands := m.ScheduledHands()
	if len(hands) == 0 {
		t.Fatalf("no scheduled hands")
	}
	key := hands[0].Key
	if !m.IsScheduled(key) {
		t.Fatalf("scheduled key %v not reported as scheduled", key)
	}

	swapped := models.HandKey{BoardNo: key.BoardNo, NSPair: key.EWPair, EWPair: key.NSPair}
	if m.IsScheduled(swapped) {
		t.Fatalf("swapped key %v reported as scheduled", swapped)
	}
	if m.IsScheduled(models.HandKey{BoardNo: m.NoBoards + 1, NSPair: 1, EWPair: 2}) {
		t.Fatalf("out-of-range board reported as scheduled")
	}
}

func TestForPair(t *testing.T) {
	m, err := Generate(8, 10)
	if err != nil {
		t.Fatalf("Generate: %+v", err)
	}

	if _, err := m.ForPair(0); err == nil {
		t.Fatalf("expected error for pair 0")
	}
	if _, err := m.ForPair(9); err == nil {
		t.Fatalf("expected error for pair out of range")
	}

	rounds, err := m.ForPair(3)
	if err != nil {
		t.Fatalf("ForPair: %+v", err)
	}
	if len(rounds) != m.NoRounds {
		t.Fatalf("expected %d rounds, got %d", m.NoRounds, len(rounds))
	}
	for i, round := range rounds {
		if round.RoundNo != i+1 {
			t.Fatalf("round %d reported as %d", i+1, round.RoundNo)
		}
		seated, ok := round.Seating.(Seated)
		if !ok {
			t.Fatalf("pair 3 sits out round %d with an even pair count", round.RoundNo)
		}
		if seated.Opponent == 3 {
			t.Fatalf("pair 3 faces itself in round %d", round.RoundNo)
		}
		key := models.HandKey{BoardNo: seated.Boards[0], NSPair: 3, EWPair: seated.Opponent}
		if seated.Position.Seat == models.SeatSideEW {
			key = models.HandKey{BoardNo: seated.Boards[0], NSPair: seated.Opponent, EWPair: 3}
		}
		if !m.IsScheduled(key) {
			t.Fatalf("ForPair round %d disagrees with the schedule: %v", round.RoundNo, key)
		}
	}
}

func TestCachedReturnsSameMovement(t *testing.T) {
	a, err := Cached(8, 10)
	if err != nil {
		t.Fatalf("Cached: %+v", err)
	}
	b, err := Cached(8, 10)
	if err != nil {
		t.Fatalf("Cached: %+v", err)
	}
	if a != b {
		t.Fatalf("cache returned distinct movements for the same configuration")
	}
	if _, err := Cached(1, 10); err == nil {
		t.Fatalf("expected error for invalid cached configuration")
	}
}
