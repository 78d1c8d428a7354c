package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/lib/pq"
	"github.com/tichu-tools/pairs-server/models"
)

var (
	ErrTournamentNotFound     = errors.New("tournament not found")
	ErrTournamentOwnerInvalid = errors.New("tournament owner conflict or invalid")
)

type TournamentRepository interface {
	Create(ctx context.Context, t *models.Tournament) error
	GetByID(ctx context.Context, exec SQLExecutor, id int) (*models.Tournament, error)
	// GetForUpdate reads the tournament inside exec's transaction with an
	// exclusive row lock, serializing configuration changes against every
	// in-flight score submission.
	GetForUpdate(ctx context.Context, exec SQLExecutor, id int) (*models.Tournament, error)
	// GetForShare takes a shared row lock: submissions for different hands
	// proceed concurrently, but none can interleave with a configuration
	// update holding the exclusive lock.
	GetForShare(ctx context.Context, exec SQLExecutor, id int) (*models.Tournament, error)
	ListByOwner(ctx context.Context, ownerID int) ([]models.Tournament, error)
	Update(ctx context.Context, exec SQLExecutor, t *models.Tournament) error
	UpdateLockState(ctx context.Context, id int, state models.LockState) error
	Delete(ctx context.Context, id int) error
}

type postgresTournamentRepository struct {
	db *sql.DB
}

func NewPostgresTournamentRepository(db *sql.DB) TournamentRepository {
	return &postgresTournamentRepository{db: db}
}

func (r *postgresTournamentRepository) getExecutor(exec SQLExecutor) SQLExecutor {
	if exec != nil {
		return exec
	}
	return r.db
}

func (r *postgresTournamentRepository) Create(ctx context.Context, t *models.Tournament) error {
	query := `
		INSERT INTO tournaments (name, owner_id, no_pairs, no_boards, allow_score_overwrites, lock_state)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, created_at`

	err := r.db.QueryRowContext(ctx, query,
		t.Name,
		t.OwnerID,
		t.NoPairs,
		t.NoBoards,
		t.AllowScoreOverwrites,
		t.LockState,
	).Scan(&t.ID, &t.CreatedAt)

	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == "23503" && pqErr.Constraint == "tournaments_owner_id_fkey" {
			return ErrTournamentOwnerInvalid
		}
		return fmt.Errorf("failed to create tournament: %w", err)
	}
	return nil
}

func (r *postgresTournamentRepository) GetByID(ctx context.Context, exec SQLExecutor, id int) (*models.Tournament, error) {
	return r.getLocked(ctx, exec, id, "")
}

func (r *postgresTournamentRepository) GetForUpdate(ctx context.Context, exec SQLExecutor, id int) (*models.Tournament, error) {
	return r.getLocked(ctx, exec, id, " FOR UPDATE")
}

func (r *postgresTournamentRepository) GetForShare(ctx context.Context, exec SQLExecutor, id int) (*models.Tournament, error) {
	return r.getLocked(ctx, exec, id, " FOR SHARE")
}

func (r *postgresTournamentRepository) getLocked(ctx context.Context, exec SQLExecutor, id int, lockClause string) (*models.Tournament, error) {
	executor := r.getExecutor(exec)
	query := `
		SELECT id, name, owner_id, no_pairs, no_boards, allow_score_overwrites, lock_state, created_at
		FROM tournaments
		WHERE id = $1` + lockClause

	t := &models.Tournament{}
	err := executor.QueryRowContext(ctx, query, id).Scan(
		&t.ID,
		&t.Name,
		&t.OwnerID,
		&t.NoPairs,
		&t.NoBoards,
		&t.AllowScoreOverwrites,
		&t.LockState,
		&t.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrTournamentNotFound
		}
		return nil, fmt.Errorf("failed to scan tournament %d: %w", id, err)
	}
	return t, nil
}

func (r *postgresTournamentRepository) ListByOwner(ctx context.Context, ownerID int) ([]models.Tournament, error) {
	query := `
		SELECT id, name, owner_id, no_pairs, no_boards, allow_score_overwrites, lock_state, created_at
		FROM tournaments
		WHERE owner_id = $1
		ORDER BY created_at DESC`

	rows, err := r.db.QueryContext(ctx, query, ownerID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	tournaments := make([]models.Tournament, 0)
	for rows.Next() {
		var t models.Tournament
		if scanErr := rows.Scan(
			&t.ID, &t.Name, &t.OwnerID, &t.NoPairs, &t.NoBoards,
			&t.AllowScoreOverwrites, &t.LockState, &t.CreatedAt,
		); scanErr != nil {
			return nil, fmt.Errorf("failed to scan tournament row: %w", scanErr)
		}
		tournaments = append(tournaments, t)
	}
	return tournaments, rows.Err()
}

func (r *postgresTournamentRepository) Update(ctx context.Context, exec SQLExecutor, t *models.Tournament) error {
	executor := r.getExecutor(exec)
	query := `
		UPDATE tournaments
		SET name = $1, no_pairs = $2, no_boards = $3, allow_score_overwrites = $4, lock_state = $5
		WHERE id = $6`

	result, err := executor.ExecContext(ctx, query,
		t.Name, t.NoPairs, t.NoBoards, t.AllowScoreOverwrites, t.LockState, t.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update tournament %d: %w", t.ID, err)
	}
	return checkAffectedRows(result, ErrTournamentNotFound)
}

func (r *postgresTournamentRepository) UpdateLockState(ctx context.Context, id int, state models.LockState) error {
	result, err := r.db.ExecContext(ctx,
		`UPDATE tournaments SET lock_state = $1 WHERE id = $2`, state, id)
	if err != nil {
		return fmt.Errorf("failed to update lock state for tournament %d: %w", id, err)
	}
	return checkAffectedRows(result, ErrTournamentNotFound)
}

func (r *postgresTournamentRepository) Delete(ctx context.Context, id int) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM tournaments WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete tournament %d: %w", id, err)
	}
	return checkAffectedRows(result, ErrTournamentNotFound)
}
