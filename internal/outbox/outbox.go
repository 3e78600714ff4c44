// Package outbox implements the transactional-outbox delivery path. A user
// insert and its event row commit together; the relay publishes rows to the
// broker afterwards, so a broker outage delays the event instead of losing
// it.
package outbox

import (
	"context"
	"encoding/json"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Entry is one pending event row.
type Entry struct {
	ID        int64     `db:"id"`
	EventType string    `db:"event_type"`
	Payload   []byte    `db:"payload"`
	CreatedAt time.Time `db:"created_at"`
}

// Store reads and writes the identity_outbox table.
type Store struct {
	Pool *pgxpool.Pool
}

func NewStore(pool *pgxpool.Pool) *Store {
	return &Store{Pool: pool}
}

// InsertTx enlists an event in the caller's transaction. The row becomes
// visible to the relay only when that transaction commits.
func (s *Store) InsertTx(ctx context.Context, tx pgx.Tx, eventType string, payload any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	_, err = tx.Exec(
		ctx,
		`INSERT INTO identity_outbox (event_type, payload) VALUES ($1, $2)`,
		eventType, body,
	)
	return err
}

// Pending returns unpublished entries, oldest first.
func (s *Store) Pending(ctx context.Context, limit int) ([]Entry, error) {
	rows, err := s.Pool.Query(
		ctx,
		`SELECT id, event_type, payload, created_at
		 FROM identity_outbox
		 WHERE published_at IS NULL
		 ORDER BY id
		 LIMIT $1`,
		limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		var e Entry
		if err := rows.Scan(&e.ID, &e.EventType, &e.Payload, &e.CreatedAt); err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// MarkPublished stamps an entry as delivered.
func (s *Store) MarkPublished(ctx context.Context, id int64) error {
	_, err := s.Pool.Exec(
		ctx,
		`UPDATE identity_outbox SET published_at = NOW() WHERE id = $1`,
		id,
	)
	return err
}
