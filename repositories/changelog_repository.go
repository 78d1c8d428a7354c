package repositories

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/tichu-tools/pairs-server/models"
)

// ChangeLogRepository is the append-only audit log of hand submissions and
// deletions. Entries are never updated or removed; a NULL change payload is a
// deletion event.
type ChangeLogRepository interface {
	Append(ctx context.Context, exec SQLExecutor, tournamentID int, key models.HandKey, entry models.ChangeEntry) error
	// History returns every entry for the key, newest first.
	History(ctx context.Context, tournamentID int, key models.HandKey) ([]models.ChangeEntry, error)
}

type postgresChangeLogRepository struct {
	db *sql.DB
}

func NewPostgresChangeLogRepository(db *sql.DB) ChangeLogRepository {
	return &postgresChangeLogRepository{db: db}
}

func (r *postgresChangeLogRepository) getExecutor(exec SQLExecutor) SQLExecutor {
	if exec != nil {
		return exec
	}
	return r.db
}

func (r *postgresChangeLogRepository) Append(ctx context.Context, exec SQLExecutor, tournamentID int, key models.HandKey, entry models.ChangeEntry) error {
	var changeJSON []byte
	if entry.Change != nil {
		var err error
		changeJSON, err = json.Marshal(entry.Change)
		if err != nil {
			return fmt.Errorf("failed to marshal change for hand %s: %w", key, err)
		}
	}

	_, err := r.getExecutor(exec).ExecContext(ctx, `
		INSERT INTO hand_changes (tournament_id, board_no, ns_pair, ew_pair, change, changed_by, changed_at_sec)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		tournamentID, key.BoardNo, key.NSPair, key.EWPair,
		changeJSON, entry.ChangedBy, entry.TimestampSec)
	if err != nil {
		return fmt.Errorf("failed to append change log entry for hand %s: %w", key, err)
	}
	return nil
}

func (r *postgresChangeLogRepository) History(ctx context.Context, tournamentID int, key models.HandKey) ([]models.ChangeEntry, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT change, changed_by, changed_at_sec
		FROM hand_changes
		WHERE tournament_id = $1 AND board_no = $2 AND ns_pair = $3 AND ew_pair = $4
		ORDER BY changed_at_sec DESC, id DESC`,
		tournamentID, key.BoardNo, key.NSPair, key.EWPair)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	entries := make([]models.ChangeEntry, 0)
	for rows.Next() {
		var entry models.ChangeEntry
		var changeJSON []byte
		if scanErr := rows.Scan(&changeJSON, &entry.ChangedBy, &entry.TimestampSec); scanErr != nil {
			return nil, fmt.Errorf("failed to scan change log entry: %w", scanErr)
		}
		if len(changeJSON) > 0 {
			entry.Change = &models.HandResult{}
			if err := json.Unmarshal(changeJSON, entry.Change); err != nil {
				return nil, fmt.Errorf("failed to unmarshal change log entry for hand %s: %w", key, err)
			}
		}
		entries = append(entries, entry)
	}
	return entries, rows.Err()
}
