package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"math/rand"
	"time"

	"github.com/tichu-tools/pairs-server/boards"
	"github.com/tichu-tools/pairs-server/repositories"
	"github.com/tichu-tools/pairs-server/storage"
)

// ArchiveService publishes tournament artifacts to object storage: the
// final-results snapshot and the pre-dealt board layouts. Rendering those
// artifacts into printable form is a client concern; the archive stores the
// raw JSON.
type ArchiveService interface {
	ArchiveFinalResults(ctx context.Context, tournamentID int, cred Credential) (string, error)
	// DealBoards deals every board of the tournament and archives the
	// layouts. Returns the deals and the public URL of the archive.
	DealBoards(ctx context.Context, tournamentID int, cred Credential) ([]boards.Deal, string, error)
}

type archiveService struct {
	tournamentRepo  repositories.TournamentRepository
	movementService MovementService
	scoreService    ScoreService
	uploader        storage.FileUploader
	logger          *slog.Logger
}

func NewArchiveService(
	tournamentRepo repositories.TournamentRepository,
	movementService MovementService,
	scoreService ScoreService,
	uploader storage.FileUploader,
	logger *slog.Logger,
) ArchiveService {
	return &archiveService{
		tournamentRepo:  tournamentRepo,
		movementService: movementService,
		scoreService:    scoreService,
		uploader:        uploader,
		logger:          logger,
	}
}

func (s *archiveService) ArchiveFinalResults(ctx context.Context, tournamentID int, cred Credential) (string, error) {
	results, err := s.scoreService.GetFinalResults(ctx, tournamentID, cred)
	if err != nil {
		return "", err
	}

	payload, err := json.Marshal(results)
	if err != nil {
		return "", fmt.Errorf("failed to marshal final results: %w", err)
	}

	key := fmt.Sprintf("tournaments/%d/final-results.json", tournamentID)
	uploaded, err := s.uploader.Upload(ctx, key, "application/json", bytes.NewReader(payload))
	if err != nil {
		return "", fmt.Errorf("failed to archive final results: %w", err)
	}

	s.logger.Info("final results archived",
		slog.Int("tournament_id", tournamentID),
		slog.String("key", uploaded.Key))
	return uploaded.Location, nil
}

func (s *archiveService) DealBoards(ctx context.Context, tournamentID int, cred Credential) ([]boards.Deal, string, error) {
	t, err := s.tournamentRepo.GetByID(ctx, nil, tournamentID)
	if err != nil {
		return nil, "", mapTournamentRepoError(err)
	}

	actor, err := s.movementService.ResolveActor(ctx, tournamentID, cred)
	if err != nil {
		return nil, "", err
	}
	if !actor.Director {
		return nil, "", ErrForbiddenOperation
	}

	rng := rand.New(rand.NewSource(time.Now().UnixNano()))
	deals := boards.GenerateDeals(t.NoBoards, rng)

	payload, err := json.Marshal(deals)
	if err != nil {
		return nil, "", fmt.Errorf("failed to marshal board deals: %w", err)
	}

	key := fmt.Sprintf("tournaments/%d/deals.json", tournamentID)
	uploaded, err := s.uploader.Upload(ctx, key, "application/json", bytes.NewReader(payload))
	if err != nil {
		return nil, "", fmt.Errorf("failed to archive board deals: %w", err)
	}

	s.logger.Info("board deals archived",
		slog.Int("tournament_id", tournamentID),
		slog.Int("no_boards", t.NoBoards),
		slog.String("key", uploaded.Key))
	return deals, uploaded.Location, nil
}
