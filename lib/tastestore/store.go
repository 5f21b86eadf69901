package tastestore

import (
	"context"
	"database/sql"
	"encoding/json"
	"time"

	"tastecard-backend/lib/taste"

	_ "github.com/tursodatabase/libsql-client-go/libsql"
	_ "modernc.org/sqlite"
)

// Schema creates the snapshot tables. Callers exec it once on startup;
// every statement is idempotent.
const Schema = `
CREATE TABLE IF NOT EXISTS taste_snapshot (
    id         INTEGER PRIMARY KEY AUTOINCREMENT,
    user       TEXT    NOT NULL,
    time       INTEGER NOT NULL,
    truncated  INTEGER NOT NULL,
    books      INTEGER NOT NULL,
    movies     INTEGER NOT NULL,
    music      INTEGER NOT NULL,
    payload    TEXT    NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_taste_snapshot_user_time
    ON taste_snapshot (user, time DESC);
`

type Store struct {
	db *sql.DB
}

func NewStore(database *sql.DB) Store {
	return Store{db: database}
}

// Push records the final form of one scrape run. The payload is the
// post-truncation input; the counts columns keep the pre-truncation
// item counts queryable without unpacking the payload.
func (s Store) Push(ctx context.Context, in taste.TasteInput, truncated bool, original taste.Counts) error {
	payload, err := json.Marshal(in)
	if err != nil {
		return err
	}

	truncatedInt := 0
	if truncated {
		truncatedInt = 1
	}
	_, err = s.db.ExecContext(ctx, `
INSERT INTO taste_snapshot (user, time, truncated, books, movies, music, payload)
VALUES (?, ?, ?, ?, ?, ?, ?)`,
		in.UserID,
		time.Now().Unix(),
		truncatedInt,
		original.Books,
		original.Movies,
		original.Music,
		string(payload),
	)
	return err
}

type Snapshot struct {
	Time      time.Time        `json:"time"`
	Truncated bool             `json:"truncated"`
	Original  taste.Counts     `json:"original_counts"`
	Input     taste.TasteInput `json:"input"`
}

// History returns up to `limit` snapshots for a user, newest first.
func (s Store) History(ctx context.Context, user string, limit int) ([]Snapshot, error) {
	if limit <= 0 {
		limit = 10
	}
	rows, err := s.db.QueryContext(ctx, `
SELECT time, truncated, books, movies, music, payload
FROM taste_snapshot
WHERE user = ?
ORDER BY time DESC, id DESC
LIMIT ?`, user, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Snapshot
	for rows.Next() {
		var (
			unix      int64
			truncated int
			counts    taste.Counts
			payload   string
		)
		err := rows.Scan(&unix, &truncated, &counts.Books, &counts.Movies, &counts.Music, &payload)
		if err != nil {
			return nil, err
		}

		var input taste.TasteInput
		err = json.Unmarshal([]byte(payload), &input)
		if err != nil {
			return nil, err
		}
		out = append(out, Snapshot{
			Time:      time.Unix(unix, 0),
			Truncated: truncated != 0,
			Original:  counts,
			Input:     input,
		})
	}
	return out, rows.Err()
}

// Latest returns the most recent snapshot, or sql.ErrNoRows.
func (s Store) Latest(ctx context.Context, user string) (Snapshot, error) {
	history, err := s.History(ctx, user, 1)
	if err != nil {
		return Snapshot{}, err
	}
	if len(history) == 0 {
		return Snapshot{}, sql.ErrNoRows
	}
	return history[0], nil
}
