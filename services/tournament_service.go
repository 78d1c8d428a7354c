package services

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"log/slog"

	"github.com/tichu-tools/pairs-server/models"
	"github.com/tichu-tools/pairs-server/repositories"
)

type CreateTournamentInput struct {
	Name                 string `json:"name"`
	NoPairs              int    `json:"no_pairs"`
	NoBoards             int    `json:"no_boards"`
	AllowScoreOverwrites bool   `json:"allow_score_overwrites"`
}

type UpdateTournamentInput struct {
	Name                 *string `json:"name,omitempty"`
	NoPairs              *int    `json:"no_pairs,omitempty"`
	NoBoards             *int    `json:"no_boards,omitempty"`
	AllowScoreOverwrites *bool   `json:"allow_score_overwrites,omitempty"`
}

type TournamentService interface {
	CreateTournament(ctx context.Context, ownerID int, input CreateTournamentInput) (*models.Tournament, error)
	GetTournament(ctx context.Context, id int) (*models.Tournament, error)
	ListByOwner(ctx context.Context, ownerID int) ([]models.Tournament, error)
	// UpdateTournament applies the given changes. Pair and board counts are
	// frozen once any hand result exists; a pair-count change reissues every
	// pair code, invalidating the old ones.
	UpdateTournament(ctx context.Context, id, currentUserID int, input UpdateTournamentInput) (*models.Tournament, error)
	SetLockState(ctx context.Context, id, currentUserID int, state models.LockState) error
	UpdatePairPlayers(ctx context.Context, tournamentID, currentUserID, pairNo int, players []models.Player) error
	ListPairs(ctx context.Context, tournamentID, currentUserID int) ([]models.Pair, error)
	DeleteTournament(ctx context.Context, id, currentUserID int) error
}

type tournamentService struct {
	txRunner       TxRunner
	tournamentRepo repositories.TournamentRepository
	pairRepo       repositories.PairRepository
	handRepo       repositories.HandRepository
	logger         *slog.Logger
}

func NewTournamentService(
	txRunner TxRunner,
	tournamentRepo repositories.TournamentRepository,
	pairRepo repositories.PairRepository,
	handRepo repositories.HandRepository,
	logger *slog.Logger,
) TournamentService {
	return &tournamentService{
		txRunner:       txRunner,
		tournamentRepo: tournamentRepo,
		pairRepo:       pairRepo,
		handRepo:       handRepo,
		logger:         logger,
	}
}

func (s *tournamentService) CreateTournament(ctx context.Context, ownerID int, input CreateTournamentInput) (*models.Tournament, error) {
	if input.Name == "" {
		return nil, ErrTournamentNameRequired
	}
	if input.NoPairs < 2 {
		return nil, ErrInvalidPairCount
	}
	if input.NoBoards < 1 {
		return nil, ErrInvalidBoardCount
	}

	t := &models.Tournament{
		Name:                 input.Name,
		OwnerID:              ownerID,
		NoPairs:              input.NoPairs,
		NoBoards:             input.NoBoards,
		AllowScoreOverwrites: input.AllowScoreOverwrites,
		LockState:            models.LockStateUnlocked,
	}
	if err := s.tournamentRepo.Create(ctx, t); err != nil {
		return nil, err
	}

	pairs, err := newPairRoster(input.NoPairs)
	if err != nil {
		return nil, err
	}
	if err := s.pairRepo.ReplaceAll(ctx, nil, t.ID, pairs); err != nil {
		return nil, fmt.Errorf("failed to create pair roster: %w", err)
	}
	t.Pairs = pairs

	s.logger.Info("tournament created",
		slog.Int("tournament_id", t.ID),
		slog.Int("no_pairs", t.NoPairs),
		slog.Int("no_boards", t.NoBoards))
	return t, nil
}

func (s *tournamentService) GetTournament(ctx context.Context, id int) (*models.Tournament, error) {
	t, err := s.tournamentRepo.GetByID(ctx, nil, id)
	if err != nil {
		return nil, mapTournamentRepoError(err)
	}
	return t, nil
}

func (s *tournamentService) ListByOwner(ctx context.Context, ownerID int) ([]models.Tournament, error) {
	return s.tournamentRepo.ListByOwner(ctx, ownerID)
}

func (s *tournamentService) UpdateTournament(ctx context.Context, id, currentUserID int, input UpdateTournamentInput) (*models.Tournament, error) {
	var t *models.Tournament
	var pairCountChanged bool

	// The exclusive row lock serializes this update against in-flight
	// submissions, which hold the shared lock: a hand recorded before we get
	// the lock is visible to the frozen-config check, and none can land
	// between the check and the write.
	err := s.txRunner.RunTx(ctx, func(exec repositories.SQLExecutor) error {
		var err error
		t, err = s.tournamentRepo.GetForUpdate(ctx, exec, id)
		if err != nil {
			return mapTournamentRepoError(err)
		}
		if !t.IsOwner(currentUserID) {
			return ErrForbiddenOperation
		}

		pairCountChanged = input.NoPairs != nil && *input.NoPairs != t.NoPairs
		boardCountChanged := input.NoBoards != nil && *input.NoBoards != t.NoBoards
		if pairCountChanged || boardCountChanged {
			hasResults, err := s.handRepo.HasAny(ctx, exec, id)
			if err != nil {
				return err
			}
			if hasResults {
				return ErrConfigFrozen
			}
		}

		if input.Name != nil {
			if *input.Name == "" {
				return ErrTournamentNameRequired
			}
			t.Name = *input.Name
		}
		if input.NoPairs != nil {
			if *input.NoPairs < 2 {
				return ErrInvalidPairCount
			}
			t.NoPairs = *input.NoPairs
		}
		if input.NoBoards != nil {
			if *input.NoBoards < 1 {
				return ErrInvalidBoardCount
			}
			t.NoBoards = *input.NoBoards
		}
		if input.AllowScoreOverwrites != nil {
			t.AllowScoreOverwrites = *input.AllowScoreOverwrites
		}

		if err := s.tournamentRepo.Update(ctx, exec, t); err != nil {
			return mapTournamentRepoError(err)
		}
		// Changing the pair count invalidates every pairId token, so the
		// whole roster is rebuilt with fresh codes.
		if pairCountChanged {
			pairs, err := newPairRoster(t.NoPairs)
			if err != nil {
				return err
			}
			if err := s.pairRepo.ReplaceAll(ctx, exec, t.ID, pairs); err != nil {
				return fmt.Errorf("failed to rebuild pair roster: %w", err)
			}
			t.Pairs = pairs
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	if pairCountChanged {
		s.logger.Info("pair roster rebuilt after pair count change",
			slog.Int("tournament_id", t.ID), slog.Int("no_pairs", t.NoPairs))
	}
	return t, nil
}

func (s *tournamentService) SetLockState(ctx context.Context, id, currentUserID int, state models.LockState) error {
	if !state.IsValid() {
		return ErrInvalidLockState
	}
	if _, err := s.ownedTournament(ctx, id, currentUserID); err != nil {
		return err
	}
	return mapTournamentRepoError(s.tournamentRepo.UpdateLockState(ctx, id, state))
}

func (s *tournamentService) UpdatePairPlayers(ctx context.Context, tournamentID, currentUserID, pairNo int, players []models.Player) error {
	t, err := s.ownedTournament(ctx, tournamentID, currentUserID)
	if err != nil {
		return err
	}
	if pairNo < 1 || pairNo > t.NoPairs {
		return fmt.Errorf("%w: pair %d out of range 1..%d", ErrValidationFailed, pairNo, t.NoPairs)
	}
	if len(players) > 2 {
		return fmt.Errorf("%w: a pair has at most two players", ErrValidationFailed)
	}
	if err := s.pairRepo.UpdatePlayers(ctx, tournamentID, pairNo, players); err != nil {
		if errors.Is(err, repositories.ErrPairNotFound) {
			return ErrPairNotFound
		}
		return err
	}
	return nil
}

func (s *tournamentService) ListPairs(ctx context.Context, tournamentID, currentUserID int) ([]models.Pair, error) {
	if _, err := s.ownedTournament(ctx, tournamentID, currentUserID); err != nil {
		return nil, err
	}
	return s.pairRepo.ListByTournament(ctx, tournamentID)
}

func (s *tournamentService) DeleteTournament(ctx context.Context, id, currentUserID int) error {
	if _, err := s.ownedTournament(ctx, id, currentUserID); err != nil {
		return err
	}
	return mapTournamentRepoError(s.tournamentRepo.Delete(ctx, id))
}

func (s *tournamentService) ownedTournament(ctx context.Context, id, currentUserID int) (*models.Tournament, error) {
	t, err := s.tournamentRepo.GetByID(ctx, nil, id)
	if err != nil {
		return nil, mapTournamentRepoError(err)
	}
	if !t.IsOwner(currentUserID) {
		return nil, ErrForbiddenOperation
	}
	return t, nil
}

func mapTournamentRepoError(err error) error {
	if errors.Is(err, repositories.ErrTournamentNotFound) {
		return ErrTournamentNotFound
	}
	return err
}

func newPairRoster(noPairs int) ([]models.Pair, error) {
	pairs := make([]models.Pair, noPairs)
	seen := make(map[string]bool, noPairs)
	for i := range pairs {
		code, err := generatePairCode(seen)
		if err != nil {
			return nil, err
		}
		pairs[i] = models.Pair{PairNo: i + 1, Code: code, Players: []models.Player{}}
	}
	return pairs, nil
}

// generatePairCode issues a 4-character code unique within the roster being
// built. The alphabet omits characters that read ambiguously on paper score
// slips.
func generatePairCode(seen map[string]bool) (string, error) {
	const charset = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"
	buf := make([]byte, models.PairCodeLength)
	for attempt := 0; attempt < 100; attempt++ {
		if _, err := rand.Read(buf); err != nil {
			return "", fmt.Errorf("failed to generate pair code: %w", err)
		}
		code := make([]byte, len(buf))
		for i, b := range buf {
			code[i] = charset[int(b)%len(charset)]
		}
		if !seen[string(code)] {
			seen[string(code)] = true
			return string(code), nil
		}
	}
	return "", errors.New("failed to generate a unique pair code")
}
