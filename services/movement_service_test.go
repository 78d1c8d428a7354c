package services

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/tichu-tools/pairs-server/models"
)

func TestGetMovementForPair(t *testing.T) {
	env := newScoreEnv(t, models.LockStateUnlocked, false)
	ctx := context.Background()

	pm, err := env.movementSvc.GetMovementForPair(ctx, env.tournament.ID, 3, Credential{PairCode: "CODE3"})
	if err != nil {
		t.Fatalf("GetMovementForPair: %+v", err)
	}
	if pm.PairNo != 3 {
		t.Fatalf("pair no = %d, want 3", pm.PairNo)
	}
	if pm.Code != "CODE3" {
		t.Fatalf("pair should see its own code, got %q", pm.Code)
	}
	if len(pm.Rounds) != 5 {
		t.Fatalf("pair 3 has %d rounds, want 5", len(pm.Rounds))
	}
	for _, round := range pm.Rounds {
		if round.SitOut {
			t.Fatalf("pair 3 sits out round %d with an even pair count", round.RoundNo)
		}
		if round.Opponent == nil || round.Opponent.PairNo == 3 {
			t.Fatalf("round %d opponent = %+v", round.RoundNo, round.Opponent)
		}
		if len(round.Boards) != 2 {
			t.Fatalf("round %d has %d boards, want 2", round.RoundNo, len(round.Boards))
		}
		if !round.RelayTable {
			t.Fatalf("round %d should be a relay table", round.RoundNo)
		}
		if len(round.Hands) != 0 {
			t.Fatalf("unscored tournament has embedded hands: %+v", round.Hands)
		}
	}

	// The director sees the same schedule but not the code on this endpoint.
	pm, err = env.movementSvc.GetMovementForPair(ctx, env.tournament.ID, 3, Credential{UserID: 1})
	if err != nil {
		t.Fatalf("director view: %+v", err)
	}
	if pm.Code != "" {
		t.Fatalf("director view leaked the pair code %q", pm.Code)
	}
}

func TestGetMovementForPairAuthorization(t *testing.T) {
	env := newScoreEnv(t, models.LockStateUnlocked, false)
	ctx := context.Background()

	// A pair may only view its own schedule.
	if _, err := env.movementSvc.GetMovementForPair(ctx, env.tournament.ID, 3,
		Credential{PairCode: "CODE4"}); !errors.Is(err, ErrForbiddenOperation) {
		t.Fatalf("foreign code: %+v", err)
	}
	if _, err := env.movementSvc.GetMovementForPair(ctx, env.tournament.ID, 3,
		Credential{PairCode: "NOPE"}); !errors.Is(err, ErrPairCodeInvalid) {
		t.Fatalf("invalid code: %+v", err)
	}
	if _, err := env.movementSvc.GetMovementForPair(ctx, env.tournament.ID, 3,
		Credential{UserID: 99}); !errors.Is(err, ErrForbiddenOperation) {
		t.Fatalf("non-owner director: %+v", err)
	}
	if _, err := env.movementSvc.GetMovementForPair(ctx, env.tournament.ID, 9,
		Credential{UserID: 1}); !errors.Is(err, ErrValidationFailed) {
		t.Fatalf("pair out of range: %+v", err)
	}
}

func TestGetMovementForPairEmbedsResults(t *testing.T) {
	env := newScoreEnv(t, models.LockStateUnlocked, false)
	ctx := context.Background()
	key := scheduledKeys(t, 1)[0]

	if _, err := env.scoreSvc.Submit(ctx, env.tournament.ID,
		submitInput(key, models.RawScore(75), models.RawScore(25)), Credential{UserID: 1}); err != nil {
		t.Fatalf("Submit: %+v", err)
	}

	for _, pairNo := range []int{key.NSPair, key.EWPair} {
		pm, err := env.movementSvc.GetMovementForPair(ctx, env.tournament.ID, pairNo,
			Credential{PairCode: fmt.Sprintf("CODE%d", pairNo)})
		if err != nil {
			t.Fatalf("GetMovementForPair(%d): %+v", pairNo, err)
		}
		round := pm.Rounds[0]
		h, ok := round.Hands[key.BoardNo]
		if !ok {
			t.Fatalf("pair %d round 1 missing result for board %d", pairNo, key.BoardNo)
		}
		if h.NSScore.Points != 75 {
			t.Fatalf("embedded result = %+v", h)
		}
		// The other board of the round stays unscored.
		if len(round.Hands) != 1 {
			t.Fatalf("round 1 hands = %+v", round.Hands)
		}
	}
}

func TestHandStatusPartition(t *testing.T) {
	env := newScoreEnv(t, models.LockStateUnlocked, false)
	ctx := context.Background()
	key := scheduledKeys(t, 1)[0]

	if _, err := env.scoreSvc.Submit(ctx, env.tournament.ID,
		submitInput(key, models.RawScore(50), models.RawScore(50)), Credential{UserID: 1}); err != nil {
		t.Fatalf("Submit: %+v", err)
	}

	rounds, err := env.movementSvc.HandStatus(ctx, env.tournament.ID)
	if err != nil {
		t.Fatalf("HandStatus: %+v", err)
	}
	if len(rounds) != 5 {
		t.Fatalf("got %d rounds, want 5", len(rounds))
	}

	first := rounds[0]
	if len(first.Scored) != 1 || first.Scored[0].Key != key {
		t.Fatalf("round 1 scored = %+v", first.Scored)
	}
	// Four tables play two boards each: eight scheduled hands per round.
	if len(first.Unscored) != 7 {
		t.Fatalf("round 1 unscored = %d, want 7", len(first.Unscored))
	}
	for i := 1; i < len(first.Unscored); i++ {
		a, b := first.Unscored[i-1], first.Unscored[i]
		if a.HandNo > b.HandNo || (a.HandNo == b.HandNo && a.TableNo > b.TableNo) {
			t.Fatalf("unscored not sorted by (hand, table): %+v before %+v", a, b)
		}
	}
	for _, later := range rounds[1:] {
		if len(later.Scored) != 0 || len(later.Unscored) != 8 {
			t.Fatalf("round %d partition scored=%d unscored=%d",
				later.RoundNo, len(later.Scored), len(later.Unscored))
		}
	}
}
