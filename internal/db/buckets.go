package db

import (
	"database/sql"
	"encoding/json"
	"time"

	"github.com/hpungsan/shard/internal/errors"
	"github.com/hpungsan/shard/internal/project"
)

// blob is the persisted payload shape. Only history is required to
// round-trip; session fields like the current id are re-derived at load.
type blob struct {
	History []project.Project `json:"history"`
}

// SaveHistory writes the full history for a namespace as one atomic upsert.
// The payload always reflects the complete in-memory state.
func SaveHistory(db *sql.DB, namespace string, history []project.Project) error {
	payload, err := json.Marshal(blob{History: history})
	if err != nil {
		return errors.NewInternal(err)
	}

	query := `
		INSERT INTO buckets (namespace, payload, updated_at)
		VALUES (?, ?, ?)
		ON CONFLICT(namespace) DO UPDATE SET
			payload    = excluded.payload,
			updated_at = excluded.updated_at
	`
	if _, err := db.Exec(query, namespace, string(payload), time.Now().Unix()); err != nil {
		return errors.NewInternal(err)
	}
	return nil
}

// LoadHistory reads the history blob for a namespace. A missing bucket yields
// an empty history. A malformed payload yields an empty history together with
// a CORRUPT_STATE error the caller is expected to log, not propagate.
func LoadHistory(db *sql.DB, namespace string) ([]project.Project, error) {
	var payload string
	err := db.QueryRow(`SELECT payload FROM buckets WHERE namespace = ?`, namespace).Scan(&payload)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, errors.NewInternal(err)
	}

	var b blob
	if err := json.Unmarshal([]byte(payload), &b); err != nil {
		return nil, errors.NewCorruptState(namespace, err)
	}
	// A payload without a history property decodes to nil, which is already
	// the empty-history representation.
	return b.History, nil
}

// DeleteBucket removes a namespace's bucket entirely.
func DeleteBucket(db *sql.DB, namespace string) error {
	if _, err := db.Exec(`DELETE FROM buckets WHERE namespace = ?`, namespace); err != nil {
		return errors.NewInternal(err)
	}
	return nil
}
