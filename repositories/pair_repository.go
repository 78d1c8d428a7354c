package repositories

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/tichu-tools/pairs-server/models"
)

var (
	ErrPairNotFound    = errors.New("pair not found")
	ErrPairCodeInvalid = errors.New("pair code invalid")
)

type PairRepository interface {
	// ReplaceAll rewrites the full pair roster of a tournament, used both on
	// creation and when a pair-count change forces new codes.
	ReplaceAll(ctx context.Context, exec SQLExecutor, tournamentID int, pairs []models.Pair) error
	ListByTournament(ctx context.Context, tournamentID int) ([]models.Pair, error)
	GetByNo(ctx context.Context, tournamentID, pairNo int) (*models.Pair, error)
	GetByCode(ctx context.Context, tournamentID int, code string) (*models.Pair, error)
	UpdatePlayers(ctx context.Context, tournamentID, pairNo int, players []models.Player) error
}

type postgresPairRepository struct {
	db *sql.DB
}

func NewPostgresPairRepository(db *sql.DB) PairRepository {
	return &postgresPairRepository{db: db}
}

func (r *postgresPairRepository) getExecutor(exec SQLExecutor) SQLExecutor {
	if exec != nil {
		return exec
	}
	return r.db
}

// Players are stored as a JSON column: a pair holds at most two and they are
// only ever read back together.
func marshalPlayers(players []models.Player) ([]byte, error) {
	if players == nil {
		players = []models.Player{}
	}
	return json.Marshal(players)
}

func (r *postgresPairRepository) ReplaceAll(ctx context.Context, exec SQLExecutor, tournamentID int, pairs []models.Pair) error {
	executor := r.getExecutor(exec)

	if _, err := executor.ExecContext(ctx,
		`DELETE FROM pairs WHERE tournament_id = $1`, tournamentID); err != nil {
		return fmt.Errorf("failed to clear pairs for tournament %d: %w", tournamentID, err)
	}

	query := `
		INSERT INTO pairs (tournament_id, pair_no, code, players)
		VALUES ($1, $2, $3, $4)
		RETURNING id`
	for i := range pairs {
		playersJSON, err := marshalPlayers(pairs[i].Players)
		if err != nil {
			return fmt.Errorf("failed to marshal players for pair %d: %w", pairs[i].PairNo, err)
		}
		err = executor.QueryRowContext(ctx, query,
			tournamentID, pairs[i].PairNo, pairs[i].Code, playersJSON,
		).Scan(&pairs[i].ID)
		if err != nil {
			return fmt.Errorf("failed to insert pair %d: %w", pairs[i].PairNo, err)
		}
		pairs[i].TournamentID = tournamentID
	}
	return nil
}

func (r *postgresPairRepository) ListByTournament(ctx context.Context, tournamentID int) ([]models.Pair, error) {
	query := `
		SELECT id, tournament_id, pair_no, code, players
		FROM pairs
		WHERE tournament_id = $1
		ORDER BY pair_no ASC`

	rows, err := r.db.QueryContext(ctx, query, tournamentID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	pairs := make([]models.Pair, 0)
	for rows.Next() {
		pair, scanErr := scanPair(rows)
		if scanErr != nil {
			return nil, scanErr
		}
		pairs = append(pairs, *pair)
	}
	return pairs, rows.Err()
}

func (r *postgresPairRepository) GetByNo(ctx context.Context, tournamentID, pairNo int) (*models.Pair, error) {
	query := `
		SELECT id, tournament_id, pair_no, code, players
		FROM pairs
		WHERE tournament_id = $1 AND pair_no = $2`

	return r.queryPair(ctx, query, tournamentID, pairNo)
}

func (r *postgresPairRepository) GetByCode(ctx context.Context, tournamentID int, code string) (*models.Pair, error) {
	query := `
		SELECT id, tournament_id, pair_no, code, players
		FROM pairs
		WHERE tournament_id = $1 AND code = $2`

	pair, err := r.queryPair(ctx, query, tournamentID, code)
	if errors.Is(err, ErrPairNotFound) {
		return nil, ErrPairCodeInvalid
	}
	return pair, err
}

func (r *postgresPairRepository) UpdatePlayers(ctx context.Context, tournamentID, pairNo int, players []models.Player) error {
	playersJSON, err := marshalPlayers(players)
	if err != nil {
		return fmt.Errorf("failed to marshal players: %w", err)
	}
	result, err := r.db.ExecContext(ctx,
		`UPDATE pairs SET players = $1 WHERE tournament_id = $2 AND pair_no = $3`,
		playersJSON, tournamentID, pairNo)
	if err != nil {
		return fmt.Errorf("failed to update players for pair %d: %w", pairNo, err)
	}
	return checkAffectedRows(result, ErrPairNotFound)
}

func (r *postgresPairRepository) queryPair(ctx context.Context, query string, args ...interface{}) (*models.Pair, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	if !rows.Next() {
		if err := rows.Err(); err != nil {
			return nil, err
		}
		return nil, ErrPairNotFound
	}
	return scanPair(rows)
}

func scanPair(rows *sql.Rows) (*models.Pair, error) {
	pair := &models.Pair{}
	var playersJSON []byte
	if err := rows.Scan(&pair.ID, &pair.TournamentID, &pair.PairNo, &pair.Code, &playersJSON); err != nil {
		return nil, fmt.Errorf("failed to scan pair: %w", err)
	}
	if len(playersJSON) > 0 {
		if err := json.Unmarshal(playersJSON, &pair.Players); err != nil {
			return nil, fmt.Errorf("failed to unmarshal players for pair %d: %w", pair.PairNo, err)
		}
	}
	return pair, nil
}
