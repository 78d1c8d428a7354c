package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"github.com/tichu-tools/pairs-server/models"
	"github.com/tichu-tools/pairs-server/movement"
	"github.com/tichu-tools/pairs-server/repositories"
	"github.com/tichu-tools/pairs-server/scoring"
	"golang.org/x/sync/errgroup"
)

// LiveBroadcaster pushes advisory events to connected clients, so mirrored
// schedule views can move hands between their scored and unscored buckets
// without polling.
type LiveBroadcaster interface {
	BroadcastToRoom(roomID string, message interface{})
}

const (
	eventHandScored  = "HAND_SCORED"
	eventHandDeleted = "HAND_DELETED"
)

// SubmitHandInput carries one hand submission. The score fields are pointers
// so an omitted field is distinguishable from a legitimate raw zero.
type SubmitHandInput struct {
	BoardNo int                `json:"board_no"`
	NSPair  int                `json:"ns_pair"`
	EWPair  int                `json:"ew_pair"`
	Calls   models.CallSet     `json:"calls"`
	NSScore *models.ScoreValue `json:"ns_score"`
	EWScore *models.ScoreValue `json:"ew_score"`
	Notes   string             `json:"notes"`
}

// PairHandDetail is one hand line of a pair's final-results breakdown.
type PairHandDetail struct {
	Key         models.HandKey    `json:"key"`
	Seat        models.SeatSide   `json:"seat"`
	OwnScore    models.ScoreValue `json:"own_score"`
	OppScore    models.ScoreValue `json:"opp_score"`
	MatchPoints float64           `json:"match_points"`
}

// PairSummary is one pair's total standing.
type PairSummary struct {
	PairNo      int              `json:"pair_no"`
	Players     []models.Player  `json:"players,omitempty"`
	MatchPoints float64          `json:"match_points"`
	RankingPts  float64          `json:"rps"`
	AveragePts  float64          `json:"aps"`
	Hands       []PairHandDetail `json:"hands"`
}

type FinalResults struct {
	TournamentID int           `json:"tournament_id"`
	Pairs        []PairSummary `json:"pairs"`
}

// ScoreService validates, stores and scores submitted hand results. Writes
// to one hand key are serialized through a row lock; the check of the
// current result, the admission decision, the replace and the audit append
// are one atomic step.
type ScoreService interface {
	Submit(ctx context.Context, tournamentID int, input SubmitHandInput, cred Credential) (*models.HandResult, error)
	Delete(ctx context.Context, tournamentID int, key models.HandKey, cred Credential) error
	// GetHandResults returns every live result on a board with match points
	// from the given perspective, sorted by match points descending.
	GetHandResults(ctx context.Context, tournamentID, boardNo int, perspective models.SeatSide) ([]scoring.HandScore, error)
	GetChangeLog(ctx context.Context, tournamentID int, key models.HandKey, cred Credential) ([]models.ChangeEntry, error)
	GetFinalResults(ctx context.Context, tournamentID int, cred Credential) (*FinalResults, error)
}

type scoreService struct {
	txRunner        TxRunner
	tournamentRepo  repositories.TournamentRepository
	pairRepo        repositories.PairRepository
	handRepo        repositories.HandRepository
	changeLogRepo   repositories.ChangeLogRepository
	movementService MovementService
	hub             LiveBroadcaster
	rankingPolicy   scoring.RankingPolicy
	logger          *slog.Logger

	now func() time.Time
}

func NewScoreService(
	txRunner TxRunner,
	tournamentRepo repositories.TournamentRepository,
	pairRepo repositories.PairRepository,
	handRepo repositories.HandRepository,
	changeLogRepo repositories.ChangeLogRepository,
	movementService MovementService,
	hub LiveBroadcaster,
	rankingPolicy scoring.RankingPolicy,
	logger *slog.Logger,
) ScoreService {
	if rankingPolicy == nil {
		rankingPolicy = scoring.DefaultRankingPolicy
	}
	return &scoreService{
		txRunner:        txRunner,
		tournamentRepo:  tournamentRepo,
		pairRepo:        pairRepo,
		handRepo:        handRepo,
		changeLogRepo:   changeLogRepo,
		movementService: movementService,
		hub:             hub,
		rankingPolicy:   rankingPolicy,
		logger:          logger,
		now:             time.Now,
	}
}

func (s *scoreService) Submit(ctx context.Context, tournamentID int, input SubmitHandInput, cred Credential) (*models.HandResult, error) {
	if input.NSScore == nil || input.EWScore == nil {
		return nil, fmt.Errorf("%w: ns_score and ew_score are required", ErrValidationFailed)
	}
	if err := input.Calls.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrValidationFailed, err)
	}

	actor, err := s.movementService.ResolveActor(ctx, tournamentID, cred)
	if err != nil {
		return nil, err
	}

	key := models.HandKey{BoardNo: input.BoardNo, NSPair: input.NSPair, EWPair: input.EWPair}
	hand := &models.HandResult{
		TournamentID: tournamentID,
		Key:          key,
		Calls:        input.Calls.Clone(),
		NSScore:      *input.NSScore,
		EWScore:      *input.EWScore,
		Notes:        input.Notes,
		SubmittedBy:  actor.ChangedBy(),
	}

	err = s.txRunner.RunTx(ctx, func(exec repositories.SQLExecutor) error {
		// The shared lock on the tournament row keeps hand writers concurrent
		// with each other but mutually exclusive with a configuration update,
		// and pins the lock state for the rest of the transaction.
		t, err := s.tournamentRepo.GetForShare(ctx, exec, tournamentID)
		if err != nil {
			return mapTournamentRepoError(err)
		}
		if err := validateHandKey(t, key); err != nil {
			return err
		}
		m, err := movement.Cached(t.NoPairs, t.NoBoards)
		if err != nil {
			return fmt.Errorf("%w: %v", ErrValidationFailed, err)
		}
		if !m.IsScheduled(key) {
			return fmt.Errorf("%w: %s", ErrNotScheduled, key)
		}

		existing, err := s.handRepo.GetForUpdate(ctx, exec, tournamentID, key)
		if err != nil && !errors.Is(err, repositories.ErrHandNotFound) {
			return err
		}

		if !scoring.Admit(t.LockState, t.AllowScoreOverwrites, actor, key, existing) {
			return &ScoreForbiddenError{LockState: t.LockState, CurrentResult: existing}
		}

		if err := s.handRepo.Upsert(ctx, exec, hand); err != nil {
			return err
		}
		return s.changeLogRepo.Append(ctx, exec, tournamentID, key, models.ChangeEntry{
			Change:       hand,
			ChangedBy:    actor.ChangedBy(),
			TimestampSec: s.now().Unix(),
		})
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("hand result recorded",
		slog.Int("tournament_id", tournamentID),
		slog.Int("board_no", key.BoardNo),
		slog.Int("changed_by", actor.ChangedBy()))
	s.broadcast(tournamentID, eventHandScored, key)
	return hand, nil
}

func (s *scoreService) Delete(ctx context.Context, tournamentID int, key models.HandKey, cred Credential) error {
	t, err := s.tournamentRepo.GetByID(ctx, nil, tournamentID)
	if err != nil {
		return mapTournamentRepoError(err)
	}
	if err := validateHandKey(t, key); err != nil {
		return err
	}

	actor, err := s.movementService.ResolveActor(ctx, tournamentID, cred)
	if err != nil {
		return err
	}
	// Deletion is never delegated: pairs cannot delete regardless of lock
	// state.
	if !actor.Director {
		return ErrForbiddenOperation
	}

	err = s.txRunner.RunTx(ctx, func(exec repositories.SQLExecutor) error {
		if _, err := s.handRepo.GetForUpdate(ctx, exec, tournamentID, key); err != nil {
			if errors.Is(err, repositories.ErrHandNotFound) {
				return ErrHandNotFound
			}
			return err
		}
		if err := s.handRepo.Delete(ctx, exec, tournamentID, key); err != nil {
			return err
		}
		return s.changeLogRepo.Append(ctx, exec, tournamentID, key, models.ChangeEntry{
			Change:       nil,
			ChangedBy:    actor.ChangedBy(),
			TimestampSec: s.now().Unix(),
		})
	})
	if err != nil {
		return err
	}

	s.logger.Info("hand result deleted",
		slog.Int("tournament_id", tournamentID),
		slog.Int("board_no", key.BoardNo))
	s.broadcast(tournamentID, eventHandDeleted, key)
	return nil
}

func (s *scoreService) GetHandResults(ctx context.Context, tournamentID, boardNo int, perspective models.SeatSide) ([]scoring.HandScore, error) {
	t, err := s.tournamentRepo.GetByID(ctx, nil, tournamentID)
	if err != nil {
		return nil, mapTournamentRepoError(err)
	}
	if boardNo < 1 || boardNo > t.NoBoards {
		return nil, fmt.Errorf("%w: board %d out of range 1..%d", ErrValidationFailed, boardNo, t.NoBoards)
	}

	hands, err := s.handRepo.ListByBoard(ctx, tournamentID, boardNo)
	if err != nil {
		return nil, err
	}
	scores := scoring.ScoreBoard(hands)
	scoring.SortByMatchPoints(scores, perspective)
	return scores, nil
}

func (s *scoreService) GetChangeLog(ctx context.Context, tournamentID int, key models.HandKey, cred Credential) ([]models.ChangeEntry, error) {
	t, err := s.tournamentRepo.GetByID(ctx, nil, tournamentID)
	if err != nil {
		return nil, mapTournamentRepoError(err)
	}
	if err := validateHandKey(t, key); err != nil {
		return nil, err
	}

	actor, err := s.movementService.ResolveActor(ctx, tournamentID, cred)
	if err != nil {
		return nil, err
	}
	if !actor.Director {
		return nil, ErrForbiddenOperation
	}
	return s.changeLogRepo.History(ctx, tournamentID, key)
}

func (s *scoreService) GetFinalResults(ctx context.Context, tournamentID int, cred Credential) (*FinalResults, error) {
	t, err := s.tournamentRepo.GetByID(ctx, nil, tournamentID)
	if err != nil {
		return nil, mapTournamentRepoError(err)
	}

	actor, err := s.movementService.ResolveActor(ctx, tournamentID, cred)
	if err != nil {
		return nil, err
	}
	if !actor.Director {
		return nil, ErrForbiddenOperation
	}

	// Boards are scored independently, so load and score them concurrently.
	scoresByBoard := make([][]scoring.HandScore, t.NoBoards)
	g, gCtx := errgroup.WithContext(ctx)
	for boardNo := 1; boardNo <= t.NoBoards; boardNo++ {
		boardNo := boardNo
		g.Go(func() error {
			hands, err := s.handRepo.ListByBoard(gCtx, tournamentID, boardNo)
			if err != nil {
				return err
			}
			scoresByBoard[boardNo-1] = scoring.ScoreBoard(hands)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	detail := make(map[int][]PairHandDetail)
	for _, scores := range scoresByBoard {
		for _, hs := range scores {
			r := hs.Result
			detail[r.Key.NSPair] = append(detail[r.Key.NSPair], PairHandDetail{
				Key:         r.Key,
				Seat:        models.SeatSideNS,
				OwnScore:    r.NSScore,
				OppScore:    r.EWScore,
				MatchPoints: hs.NSMatchPoints,
			})
			detail[r.Key.EWPair] = append(detail[r.Key.EWPair], PairHandDetail{
				Key:         r.Key,
				Seat:        models.SeatSideEW,
				OwnScore:    r.EWScore,
				OppScore:    r.NSScore,
				MatchPoints: hs.EWMatchPoints,
			})
		}
	}

	pairs, err := s.pairRepo.ListByTournament(ctx, tournamentID)
	if err != nil {
		return nil, err
	}
	playersByPair := make(map[int][]models.Player, len(pairs))
	for _, p := range pairs {
		playersByPair[p.PairNo] = p.Players
	}

	totals := make([]scoring.PairTotal, 0, t.NoPairs)
	for pairNo := 1; pairNo <= t.NoPairs; pairNo++ {
		total := scoring.PairTotal{PairNo: pairNo, HandsPlayed: len(detail[pairNo])}
		for _, d := range detail[pairNo] {
			total.MatchPoints += d.MatchPoints
		}
		totals = append(totals, total)
	}
	rps, aps := s.rankingPolicy(totals)

	results := &FinalResults{TournamentID: tournamentID}
	for _, total := range totals {
		hands := detail[total.PairNo]
		sort.Slice(hands, func(i, j int) bool {
			return hands[i].Key.BoardNo < hands[j].Key.BoardNo
		})
		results.Pairs = append(results.Pairs, PairSummary{
			PairNo:      total.PairNo,
			Players:     playersByPair[total.PairNo],
			MatchPoints: total.MatchPoints,
			RankingPts:  rps[total.PairNo],
			AveragePts:  aps[total.PairNo],
			Hands:       hands,
		})
	}
	sort.SliceStable(results.Pairs, func(i, j int) bool {
		if results.Pairs[i].RankingPts != results.Pairs[j].RankingPts {
			return results.Pairs[i].RankingPts > results.Pairs[j].RankingPts
		}
		return results.Pairs[i].PairNo < results.Pairs[j].PairNo
	})
	return results, nil
}

func (s *scoreService) broadcast(tournamentID int, eventType string, key models.HandKey) {
	if s.hub == nil {
		return
	}
	s.hub.BroadcastToRoom(fmt.Sprintf("tournament_%d", tournamentID), map[string]interface{}{
		"type":    eventType,
		"payload": key,
	})
}

func validateHandKey(t *models.Tournament, key models.HandKey) error {
	if key.BoardNo < 1 || key.BoardNo > t.NoBoards {
		return fmt.Errorf("%w: board %d out of range 1..%d", ErrValidationFailed, key.BoardNo, t.NoBoards)
	}
	if key.NSPair < 1 || key.NSPair > t.NoPairs {
		return fmt.Errorf("%w: NS pair %d out of range 1..%d", ErrValidationFailed, key.NSPair, t.NoPairs)
	}
	if key.EWPair < 1 || key.EWPair > t.NoPairs {
		return fmt.Errorf("%w: EW pair %d out of range 1..%d", ErrValidationFailed, key.EWPair, t.NoPairs)
	}
	if key.NSPair == key.EWPair {
		return fmt.Errorf("%w: a pair cannot play itself", ErrValidationFailed)
	}
	return nil
}
