package services

import (
	"context"
	"io"
	"log/slog"
	"sync"

	"github.com/tichu-tools/pairs-server/models"
	"github.com/tichu-tools/pairs-server/repositories"
)

// passthroughTxRunner runs the transactional function directly. The in-memory
// repositories below ignore the executor.
type passthroughTxRunner struct{}

func (passthroughTxRunner) RunTx(ctx context.Context, fn func(exec repositories.SQLExecutor) error) error {
	return fn(nil)
}

type fakeTournamentRepo struct {
	mu          sync.Mutex
	tournaments map[int]*models.Tournament
	nextID      int
}

func newFakeTournamentRepo() *fakeTournamentRepo {
	return &fakeTournamentRepo{tournaments: make(map[int]*models.Tournament), nextID: 1}
}

func (r *fakeTournamentRepo) Create(ctx context.Context, t *models.Tournament) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	t.ID = r.nextID
	r.nextID++
	clone := *t
	r.tournaments[t.ID] = &clone
	return nil
}

func (r *fakeTournamentRepo) GetByID(ctx context.Context, exec repositories.SQLExecutor, id int) (*models.Tournament, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	t, ok := r.tournaments[id]
	if !ok {
		return nil, repositories.ErrTournamentNotFound
	}
	clone := *t
	return &clone, nil
}

// The fake has no transactions, so the locked reads are plain reads.
func (r *fakeTournamentRepo) GetForUpdate(ctx context.Context, exec repositories.SQLExecutor, id int) (*models.Tournament, error) {
	return r.GetByID(ctx, exec, id)
}

func (r *fakeTournamentRepo) GetForShare(ctx context.Context, exec repositories.SQLExecutor, id int) (*models.Tournament, error) {
	return r.GetByID(ctx, exec, id)
}

func (r *fakeTournamentRepo) ListByOwner(ctx context.Context, ownerID int) ([]models.Tournament, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []models.Tournament
	for _, t := range r.tournaments {
		if t.OwnerID == ownerID {
			out = append(out, *t)
		}
	}
	return out, nil
}

func (r *fakeTournamentRepo) Update(ctx context.Context, exec repositories.SQLExecutor, t *models.Tournament) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.tournaments[t.ID]; !ok {
		return repositories.ErrTournamentNotFound
	}
	clone := *t
	r.tournaments[t.ID] = &clone
	return nil
}

func (r *fakeTournamentRepo) UpdateLockState(ctx context.Context, id int, state models.LockState) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	t, ok := r.tournaments[id]
	if !ok {
		return repositories.ErrTournamentNotFound
	}
	t.LockState = state
	return nil
}

func (r *fakeTournamentRepo) Delete(ctx context.Context, id int) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.tournaments[id]; !ok {
		return repositories.ErrTournamentNotFound
	}
	delete(r.tournaments, id)
	return nil
}

type fakePairRepo struct {
	mu    sync.Mutex
	pairs map[int][]models.Pair // tournamentID -> roster
}

func newFakePairRepo() *fakePairRepo {
	return &fakePairRepo{pairs: make(map[int][]models.Pair)}
}

func (r *fakePairRepo) ReplaceAll(ctx context.Context, exec repositories.SQLExecutor, tournamentID int, pairs []models.Pair) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	roster := make([]models.Pair, len(pairs))
	copy(roster, pairs)
	r.pairs[tournamentID] = roster
	return nil
}

func (r *fakePairRepo) ListByTournament(ctx context.Context, tournamentID int) ([]models.Pair, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]models.Pair, len(r.pairs[tournamentID]))
	copy(out, r.pairs[tournamentID])
	return out, nil
}

func (r *fakePairRepo) GetByNo(ctx context.Context, tournamentID, pairNo int) (*models.Pair, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, p := range r.pairs[tournamentID] {
		if p.PairNo == pairNo {
			clone := p
			return &clone, nil
		}
	}
	return nil, repositories.ErrPairNotFound
}

func (r *fakePairRepo) GetByCode(ctx context.Context, tournamentID int, code string) (*models.Pair, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, p := range r.pairs[tournamentID] {
		if p.Code == code {
			clone := p
			return &clone, nil
		}
	}
	return nil, repositories.ErrPairCodeInvalid
}

func (r *fakePairRepo) UpdatePlayers(ctx context.Context, tournamentID, pairNo int, players []models.Player) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	roster := r.pairs[tournamentID]
	for i := range roster {
		if roster[i].PairNo == pairNo {
			roster[i].Players = players
			return nil
		}
	}
	return repositories.ErrPairNotFound
}

type fakeHandRepo struct {
	mu    sync.Mutex
	hands map[int]map[models.HandKey]*models.HandResult
}

func newFakeHandRepo() *fakeHandRepo {
	return &fakeHandRepo{hands: make(map[int]map[models.HandKey]*models.HandResult)}
}

func (r *fakeHandRepo) get(tournamentID int, key models.HandKey) (*models.HandResult, error) {
	h, ok := r.hands[tournamentID][key]
	if !ok {
		return nil, repositories.ErrHandNotFound
	}
	clone := *h
	return &clone, nil
}

func (r *fakeHandRepo) GetForUpdate(ctx context.Context, exec repositories.SQLExecutor, tournamentID int, key models.HandKey) (*models.HandResult, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.get(tournamentID, key)
}

func (r *fakeHandRepo) Get(ctx context.Context, tournamentID int, key models.HandKey) (*models.HandResult, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.get(tournamentID, key)
}

func (r *fakeHandRepo) Upsert(ctx context.Context, exec repositories.SQLExecutor, hand *models.HandResult) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.hands[hand.TournamentID] == nil {
		r.hands[hand.TournamentID] = make(map[models.HandKey]*models.HandResult)
	}
	clone := *hand
	r.hands[hand.TournamentID][hand.Key] = &clone
	return nil
}

func (r *fakeHandRepo) Delete(ctx context.Context, exec repositories.SQLExecutor, tournamentID int, key models.HandKey) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.hands[tournamentID][key]; !ok {
		return repositories.ErrHandNotFound
	}
	delete(r.hands[tournamentID], key)
	return nil
}

func (r *fakeHandRepo) ListByBoard(ctx context.Context, tournamentID, boardNo int) ([]*models.HandResult, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*models.HandResult
	for _, h := range r.hands[tournamentID] {
		if h.Key.BoardNo == boardNo {
			clone := *h
			out = append(out, &clone)
		}
	}
	return out, nil
}

func (r *fakeHandRepo) ListByTournament(ctx context.Context, tournamentID int) ([]*models.HandResult, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*models.HandResult
	for _, h := range r.hands[tournamentID] {
		clone := *h
		out = append(out, &clone)
	}
	return out, nil
}

func (r *fakeHandRepo) HasAny(ctx context.Context, exec repositories.SQLExecutor, tournamentID int) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.hands[tournamentID]) > 0, nil
}

type fakeChangeLogRepo struct {
	mu      sync.Mutex
	entries map[int]map[models.HandKey][]models.ChangeEntry
}

func newFakeChangeLogRepo() *fakeChangeLogRepo {
	return &fakeChangeLogRepo{entries: make(map[int]map[models.HandKey][]models.ChangeEntry)}
}

func (r *fakeChangeLogRepo) Append(ctx context.Context, exec repositories.SQLExecutor, tournamentID int, key models.HandKey, entry models.ChangeEntry) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.entries[tournamentID] == nil {
		r.entries[tournamentID] = make(map[models.HandKey][]models.ChangeEntry)
	}
	r.entries[tournamentID][key] = append(r.entries[tournamentID][key], entry)
	return nil
}

func (r *fakeChangeLogRepo) History(ctx context.Context, tournamentID int, key models.HandKey) ([]models.ChangeEntry, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	stored := r.entries[tournamentID][key]
	// Newest first, matching the SQL ordering.
	out := make([]models.ChangeEntry, 0, len(stored))
	for i := len(stored) - 1; i >= 0; i-- {
		out = append(out, stored[i])
	}
	return out, nil
}

type fakeHub struct {
	mu     sync.Mutex
	events []string
}

func (h *fakeHub) BroadcastToRoom(roomID string, message interface{}) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if m, ok := message.(map[string]interface{}); ok {
		if t, ok := m["type"].(string); ok {
			h.events = append(h.events, t)
			return
		}
	}
	h.events = append(h.events, "unknown")
}

func (h *fakeHub) eventTypes() []string {
	h.mu.Lock()
	defer h.mu.Unlock()
	out := make([]string, len(h.events))
	copy(out, h.events)
	return out
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}
