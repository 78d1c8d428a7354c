package repositories

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/tichu-tools/pairs-server/models"
)

var ErrHandNotFound = errors.New("hand result not found")

// HandRepository stores the live result per (tournament, board, NS pair,
// EW pair) key. The change history lives in ChangeLogRepository; this table
// only ever holds the current state.
type HandRepository interface {
	// GetForUpdate reads the live result inside exec's transaction, taking a
	// row lock so concurrent writers to the same key serialize.
	GetForUpdate(ctx context.Context, exec SQLExecutor, tournamentID int, key models.HandKey) (*models.HandResult, error)
	Get(ctx context.Context, tournamentID int, key models.HandKey) (*models.HandResult, error)
	Upsert(ctx context.Context, exec SQLExecutor, hand *models.HandResult) error
	Delete(ctx context.Context, exec SQLExecutor, tournamentID int, key models.HandKey) error
	ListByBoard(ctx context.Context, tournamentID, boardNo int) ([]*models.HandResult, error)
	ListByTournament(ctx context.Context, tournamentID int) ([]*models.HandResult, error)
	HasAny(ctx context.Context, exec SQLExecutor, tournamentID int) (bool, error)
}

type postgresHandRepository struct {
	db *sql.DB
}

func NewPostgresHandRepository(db *sql.DB) HandRepository {
	return &postgresHandRepository{db: db}
}

func (r *postgresHandRepository) getExecutor(exec SQLExecutor) SQLExecutor {
	if exec != nil {
		return exec
	}
	return r.db
}

const handColumns = `id, tournament_id, board_no, ns_pair, ew_pair, calls, ns_score, ew_score, notes, submitted_by, updated_at`

func (r *postgresHandRepository) GetForUpdate(ctx context.Context, exec SQLExecutor, tournamentID int, key models.HandKey) (*models.HandResult, error) {
	query := `
		SELECT ` + handColumns + `
		FROM hands
		WHERE tournament_id = $1 AND board_no = $2 AND ns_pair = $3 AND ew_pair = $4
		FOR UPDATE`

	return scanHand(r.getExecutor(exec).QueryRowContext(ctx, query,
		tournamentID, key.BoardNo, key.NSPair, key.EWPair))
}

func (r *postgresHandRepository) Get(ctx context.Context, tournamentID int, key models.HandKey) (*models.HandResult, error) {
	query := `
		SELECT ` + handColumns + `
		FROM hands
		WHERE tournament_id = $1 AND board_no = $2 AND ns_pair = $3 AND ew_pair = $4`

	return scanHand(r.db.QueryRowContext(ctx, query,
		tournamentID, key.BoardNo, key.NSPair, key.EWPair))
}

func (r *postgresHandRepository) Upsert(ctx context.Context, exec SQLExecutor, hand *models.HandResult) error {
	callsJSON, err := json.Marshal(hand.Calls.Clone())
	if err != nil {
		return fmt.Errorf("failed to marshal calls: %w", err)
	}

	query := `
		INSERT INTO hands
			(tournament_id, board_no, ns_pair, ew_pair, calls, ns_score, ew_score, notes, submitted_by, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, NOW())
		ON CONFLICT (tournament_id, board_no, ns_pair, ew_pair) DO UPDATE
		SET calls = EXCLUDED.calls,
		    ns_score = EXCLUDED.ns_score,
		    ew_score = EXCLUDED.ew_score,
		    notes = EXCLUDED.notes,
		    submitted_by = EXCLUDED.submitted_by,
		    updated_at = NOW()
		RETURNING id, updated_at`

	err = r.getExecutor(exec).QueryRowContext(ctx, query,
		hand.TournamentID,
		hand.Key.BoardNo,
		hand.Key.NSPair,
		hand.Key.EWPair,
		callsJSON,
		hand.NSScore.String(),
		hand.EWScore.String(),
		hand.Notes,
		hand.SubmittedBy,
	).Scan(&hand.ID, &hand.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to upsert hand %s: %w", hand.Key, err)
	}
	return nil
}

func (r *postgresHandRepository) Delete(ctx context.Context, exec SQLExecutor, tournamentID int, key models.HandKey) error {
	result, err := r.getExecutor(exec).ExecContext(ctx, `
		DELETE FROM hands
		WHERE tournament_id = $1 AND board_no = $2 AND ns_pair = $3 AND ew_pair = $4`,
		tournamentID, key.BoardNo, key.NSPair, key.EWPair)
	if err != nil {
		return fmt.Errorf("failed to delete hand %s: %w", key, err)
	}
	return checkAffectedRows(result, ErrHandNotFound)
}

func (r *postgresHandRepository) ListByBoard(ctx context.Context, tournamentID, boardNo int) ([]*models.HandResult, error) {
	query := `
		SELECT ` + handColumns + `
		FROM hands
		WHERE tournament_id = $1 AND board_no = $2
		ORDER BY ns_pair ASC`

	return r.queryHands(ctx, query, tournamentID, boardNo)
}

func (r *postgresHandRepository) ListByTournament(ctx context.Context, tournamentID int) ([]*models.HandResult, error) {
	query := `
		SELECT ` + handColumns + `
		FROM hands
		WHERE tournament_id = $1
		ORDER BY board_no ASC, ns_pair ASC`

	return r.queryHands(ctx, query, tournamentID)
}

func (r *postgresHandRepository) HasAny(ctx context.Context, exec SQLExecutor, tournamentID int) (bool, error) {
	var exists bool
	err := r.getExecutor(exec).QueryRowContext(ctx,
		`SELECT EXISTS (SELECT 1 FROM hands WHERE tournament_id = $1)`, tournamentID,
	).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("failed to check hands for tournament %d: %w", tournamentID, err)
	}
	return exists, nil
}

func (r *postgresHandRepository) queryHands(ctx context.Context, query string, args ...interface{}) ([]*models.HandResult, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	hands := make([]*models.HandResult, 0)
	for rows.Next() {
		hand, scanErr := scanHandRow(rows.Scan)
		if scanErr != nil {
			return nil, scanErr
		}
		hands = append(hands, hand)
	}
	return hands, rows.Err()
}

func scanHand(row *sql.Row) (*models.HandResult, error) {
	hand, err := scanHandRow(row.Scan)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrHandNotFound
		}
		return nil, err
	}
	return hand, nil
}

func scanHandRow(scan func(...interface{}) error) (*models.HandResult, error) {
	hand := &models.HandResult{}
	var callsJSON []byte
	var nsScore, ewScore string

	err := scan(
		&hand.ID,
		&hand.TournamentID,
		&hand.Key.BoardNo,
		&hand.Key.NSPair,
		&hand.Key.EWPair,
		&callsJSON,
		&nsScore,
		&ewScore,
		&hand.Notes,
		&hand.SubmittedBy,
		&hand.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to scan hand: %w", err)
	}

	if len(callsJSON) > 0 {
		if err := json.Unmarshal(callsJSON, &hand.Calls); err != nil {
			return nil, fmt.Errorf("failed to unmarshal calls for hand %s: %w", hand.Key, err)
		}
	}
	if hand.NSScore, err = models.ParseScoreValue(nsScore); err != nil {
		return nil, fmt.Errorf("stored ns_score for hand %s: %w", hand.Key, err)
	}
	if hand.EWScore, err = models.ParseScoreValue(ewScore); err != nil {
		return nil, fmt.Errorf("stored ew_score for hand %s: %w", hand.Key, err)
	}
	return hand, nil
}
