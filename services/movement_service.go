package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/tichu-tools/pairs-server/models"
	"github.com/tichu-tools/pairs-server/movement"
	"github.com/tichu-tools/pairs-server/repositories"
	"github.com/tichu-tools/pairs-server/scoring"
	"golang.org/x/sync/singleflight"
)

// MovementService is the read side over the generated schedule: it joins the
// deterministic movement with the live hand results.
type MovementService interface {
	// GetMovement returns the tournament's full table schedule.
	GetMovement(ctx context.Context, tournamentID int) (*movement.Movement, error)
	// GetMovementForPair returns one pair's schedule with embedded results.
	// The credential must be the owning director's user ID or the pair's own
	// code.
	GetMovementForPair(ctx context.Context, tournamentID, pairNo int, cred Credential) (*models.PairMovement, error)
	// HandStatus partitions every scheduled hand per round into scored and
	// unscored, each sorted by (hand number, table number).
	HandStatus(ctx context.Context, tournamentID int) ([]models.RoundHandStatus, error)
	// ResolveActor maps a credential to a write actor for the tournament.
	ResolveActor(ctx context.Context, tournamentID int, cred Credential) (scoring.Actor, error)
}

// Credential is either a director session (UserID > 0) or a pair code.
type Credential struct {
	UserID   int
	PairCode string
}

func (c Credential) key() string {
	if c.UserID > 0 {
		return fmt.Sprintf("u%d", c.UserID)
	}
	return "p" + c.PairCode
}

type movementService struct {
	tournamentRepo repositories.TournamentRepository
	pairRepo       repositories.PairRepository
	handRepo       repositories.HandRepository

	// flight dedupes concurrent per-pair movement fetches for the same
	// (tournament, pair, credential); every waiter receives the one result.
	flight singleflight.Group
}

func NewMovementService(
	tournamentRepo repositories.TournamentRepository,
	pairRepo repositories.PairRepository,
	handRepo repositories.HandRepository,
) MovementService {
	return &movementService{
		tournamentRepo: tournamentRepo,
		pairRepo:       pairRepo,
		handRepo:       handRepo,
	}
}

func (s *movementService) GetMovement(ctx context.Context, tournamentID int) (*movement.Movement, error) {
	t, err := s.tournamentRepo.GetByID(ctx, nil, tournamentID)
	if err != nil {
		return nil, mapTournamentRepoError(err)
	}
	m, err := movement.Cached(t.NoPairs, t.NoBoards)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrValidationFailed, err)
	}
	return m, nil
}

func (s *movementService) GetMovementForPair(ctx context.Context, tournamentID, pairNo int, cred Credential) (*models.PairMovement, error) {
	flightKey := fmt.Sprintf("%d:%d:%s", tournamentID, pairNo, cred.key())
	v, err, _ := s.flight.Do(flightKey, func() (interface{}, error) {
		return s.buildPairMovement(ctx, tournamentID, pairNo, cred)
	})
	if err != nil {
		return nil, err
	}
	return v.(*models.PairMovement), nil
}

func (s *movementService) buildPairMovement(ctx context.Context, tournamentID, pairNo int, cred Credential) (*models.PairMovement, error) {
	t, err := s.tournamentRepo.GetByID(ctx, nil, tournamentID)
	if err != nil {
		return nil, mapTournamentRepoError(err)
	}
	if pairNo < 1 || pairNo > t.NoPairs {
		return nil, fmt.Errorf("%w: pair %d out of range 1..%d", ErrValidationFailed, pairNo, t.NoPairs)
	}

	actor, err := s.resolveActor(ctx, t, cred)
	if err != nil {
		return nil, err
	}
	if !actor.Director && actor.PairNo != pairNo {
		return nil, ErrForbiddenOperation
	}

	m, err := movement.Cached(t.NoPairs, t.NoBoards)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrValidationFailed, err)
	}
	rounds, err := m.ForPair(pairNo)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrValidationFailed, err)
	}

	pairs, err := s.pairRepo.ListByTournament(ctx, tournamentID)
	if err != nil {
		return nil, err
	}
	playersByPair := make(map[int][]models.Player, len(pairs))
	codeByPair := make(map[int]string, len(pairs))
	for _, p := range pairs {
		playersByPair[p.PairNo] = p.Players
		codeByPair[p.PairNo] = p.Code
	}

	hands, err := s.handRepo.ListByTournament(ctx, tournamentID)
	if err != nil {
		return nil, err
	}
	handsByKey := make(map[models.HandKey]*models.HandResult, len(hands))
	for _, h := range hands {
		handsByKey[h.Key] = h
	}

	pm := &models.PairMovement{PairNo: pairNo}
	if !actor.Director {
		// Directors see codes on the roster endpoint; pairs only ever see
		// their own.
		pm.Code = codeByPair[pairNo]
	}
	for _, round := range rounds {
		mr := models.MovementRound{RoundNo: round.RoundNo}
		switch seating := round.Seating.(type) {
		case movement.SitOut:
			mr.SitOut = true
		case movement.Seated:
			mr.Position = seating.Position
			mr.Opponent = &models.Opponent{
				PairNo:  seating.Opponent,
				Players: playersByPair[seating.Opponent],
			}
			mr.Boards = seating.Boards
			mr.RelayTable = seating.Relay
			mr.Hands = make(map[int]*models.HandResult)
			for _, boardNo := range seating.Boards {
				key := handKeyFor(boardNo, pairNo, seating)
				if h, ok := handsByKey[key]; ok {
					mr.Hands[boardNo] = h
				}
			}
		}
		pm.Rounds = append(pm.Rounds, mr)
	}
	return pm, nil
}

func handKeyFor(boardNo, pairNo int, seating movement.Seated) models.HandKey {
	if seating.Position.Seat == models.SeatSideNS {
		return models.HandKey{BoardNo: boardNo, NSPair: pairNo, EWPair: seating.Opponent}
	}
	return models.HandKey{BoardNo: boardNo, NSPair: seating.Opponent, EWPair: pairNo}
}

func (s *movementService) HandStatus(ctx context.Context, tournamentID int) ([]models.RoundHandStatus, error) {
	t, err := s.tournamentRepo.GetByID(ctx, nil, tournamentID)
	if err != nil {
		return nil, mapTournamentRepoError(err)
	}
	m, err := movement.Cached(t.NoPairs, t.NoBoards)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrValidationFailed, err)
	}

	hands, err := s.handRepo.ListByTournament(ctx, tournamentID)
	if err != nil {
		return nil, err
	}
	scored := make(map[models.HandKey]bool, len(hands))
	for _, h := range hands {
		scored[h.Key] = true
	}

	byRound := make([]models.RoundHandStatus, m.NoRounds)
	for i := range byRound {
		byRound[i] = models.RoundHandStatus{
			RoundNo:  i + 1,
			Scored:   []models.HandStatus{},
			Unscored: []models.HandStatus{},
		}
	}
	// ScheduledHands is already in (hand, table) order, so appending keeps
	// both partitions sorted.
	for _, h := range m.ScheduledHands() {
		status := models.HandStatus{HandNo: h.Key.BoardNo, TableNo: h.TableNo, Key: h.Key}
		r := &byRound[h.RoundNo-1]
		if scored[h.Key] {
			r.Scored = append(r.Scored, status)
		} else {
			r.Unscored = append(r.Unscored, status)
		}
	}
	return byRound, nil
}

func (s *movementService) ResolveActor(ctx context.Context, tournamentID int, cred Credential) (scoring.Actor, error) {
	t, err := s.tournamentRepo.GetByID(ctx, nil, tournamentID)
	if err != nil {
		return scoring.Actor{}, mapTournamentRepoError(err)
	}
	return s.resolveActor(ctx, t, cred)
}

func (s *movementService) resolveActor(ctx context.Context, t *models.Tournament, cred Credential) (scoring.Actor, error) {
	if cred.UserID > 0 {
		if !t.IsOwner(cred.UserID) {
			return scoring.Actor{}, ErrForbiddenOperation
		}
		return scoring.Actor{Director: true}, nil
	}
	if cred.PairCode == "" {
		return scoring.Actor{}, ErrForbiddenOperation
	}
	pair, err := s.pairRepo.GetByCode(ctx, t.ID, cred.PairCode)
	if err != nil {
		if errors.Is(err, repositories.ErrPairCodeInvalid) {
			return scoring.Actor{}, ErrPairCodeInvalid
		}
		return scoring.Actor{}, err
	}
	return scoring.Actor{PairNo: pair.PairNo}, nil
}
