package backend

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/paglaumhub/reliefmap/internal/models"

	_ "modernc.org/sqlite"
)

// SQLite is a local implementation of the backend data service. Records are
// stored as JSON payloads keyed by (kind, id); every committed write is
// broadcast to that kind's subscribers, which is what gives sync channels
// their change stream.
type SQLite struct {
	db       *sql.DB
	requests *Broadcaster[models.HelpRequest]
	shelters *Broadcaster[models.Shelter]
	family   *Broadcaster[models.FamilyPost]
}

func OpenSQLite(path string) (*SQLite, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("error opening database: %w", err)
	}

	// One connection: SQLite allows a single writer, and :memory: databases
	// exist per connection.
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("error while pinging database: %w", err)
	}

	s := &SQLite{
		db:       db,
		requests: NewBroadcaster[models.HelpRequest](),
		shelters: NewBroadcaster[models.Shelter](),
		family:   NewBroadcaster[models.FamilyPost](),
	}
	if err := s.migrate(); err != nil {
		return nil, fmt.Errorf("error while migrating database: %w", err)
	}

	return s, nil
}

func (s *SQLite) migrate() error {
	schema := `
		CREATE TABLE IF NOT EXISTS records (
			kind TEXT NOT NULL,
			id TEXT NOT NULL,
			created_at DATETIME NOT NULL,
			payload BLOB NOT NULL,
			PRIMARY KEY (kind, id)
		);

		CREATE INDEX IF NOT EXISTS idx_records_kind_created_at ON records(kind, created_at);
  	`

	_, err := s.db.Exec(schema)
	return err
}

// Close drops all subscribers and closes the database.
func (s *SQLite) Close() error {
	s.requests.Close()
	s.shelters.Close()
	s.family.Close()
	return s.db.Close()
}

func (s *SQLite) Requests() Service[models.HelpRequest] {
	return &collection[models.HelpRequest]{db: s.db, kind: models.KindHelpRequest, bcast: s.requests}
}

func (s *SQLite) Shelters() Service[models.Shelter] {
	return &collection[models.Shelter]{db: s.db, kind: models.KindShelter, bcast: s.shelters}
}

func (s *SQLite) FamilyPosts() Service[models.FamilyPost] {
	return &collection[models.FamilyPost]{db: s.db, kind: models.KindFamilyPost, bcast: s.family}
}

// collection adapts one kind's rows to the Service contract.
type collection[T models.Entity[T]] struct {
	db    *sql.DB
	kind  models.Kind
	bcast *Broadcaster[T]
}

func (c *collection[T]) SelectAll(ctx context.Context) ([]T, error) {
	rows, err := c.db.QueryContext(ctx,
		`SELECT payload FROM records WHERE kind = ? ORDER BY created_at DESC`, string(c.kind))
	if err != nil {
		return nil, fmt.Errorf("error querying %s: %w", c.kind, err)
	}
	defer rows.Close()

	var out []T
	for rows.Next() {
		var payload []byte
		if err := rows.Scan(&payload); err != nil {
			return nil, fmt.Errorf("error scanning %s row: %w", c.kind, err)
		}
		var rec T
		if err := json.Unmarshal(payload, &rec); err != nil {
			return nil, fmt.Errorf("error decoding %s payload: %w", c.kind, err)
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

// Insert persists rec under a server-assigned id and returns the confirmed
// record. The client-side placeholder id, if any, is discarded.
func (c *collection[T]) Insert(ctx context.Context, rec T) (T, error) {
	var zero T

	confirmed := rec.WithID(uuid.NewString()).WithPending(false)
	if confirmed.CreatedTime().IsZero() {
		confirmed = confirmed.WithCreatedAt(time.Now().UTC())
	}

	payload, err := json.Marshal(confirmed)
	if err != nil {
		return zero, fmt.Errorf("error encoding %s payload: %w", c.kind, err)
	}

	_, err = c.db.ExecContext(ctx,
		`INSERT INTO records (kind, id, created_at, payload) VALUES (?, ?, ?, ?)`,
		string(c.kind), confirmed.EntityID(), confirmed.CreatedTime(), payload)
	if err != nil {
		return zero, fmt.Errorf("error inserting %s: %w", c.kind, err)
	}

	c.bcast.Broadcast(models.ChangeEvent[T]{Op: models.OpInsert, Record: confirmed})
	return confirmed, nil
}

// Update merges the mutable fields of rec into the stored record.
func (c *collection[T]) Update(ctx context.Context, id string, rec T) error {
	row := c.db.QueryRowContext(ctx,
		`SELECT payload FROM records WHERE kind = ? AND id = ?`, string(c.kind), id)

	var payload []byte
	if err := row.Scan(&payload); err != nil {
		if err == sql.ErrNoRows {
			return fmt.Errorf("%s %s: %w", c.kind, id, ErrNotFound)
		}
		return fmt.Errorf("error loading %s %s: %w", c.kind, id, err)
	}

	var cur T
	if err := json.Unmarshal(payload, &cur); err != nil {
		return fmt.Errorf("error decoding %s payload: %w", c.kind, err)
	}

	merged := cur.MergeMutable(rec)
	next, err := json.Marshal(merged)
	if err != nil {
		return fmt.Errorf("error encoding %s payload: %w", c.kind, err)
	}

	if _, err := c.db.ExecContext(ctx,
		`UPDATE records SET payload = ? WHERE kind = ? AND id = ?`,
		next, string(c.kind), id); err != nil {
		return fmt.Errorf("error updating %s %s: %w", c.kind, id, err)
	}

	c.bcast.Broadcast(models.ChangeEvent[T]{Op: models.OpUpdate, Record: merged})
	return nil
}

// Delete removes the record. Deleting an absent id is not an error; no event
// is broadcast for it.
func (c *collection[T]) Delete(ctx context.Context, id string) error {
	res, err := c.db.ExecContext(ctx,
		`DELETE FROM records WHERE kind = ? AND id = ?`, string(c.kind), id)
	if err != nil {
		return fmt.Errorf("error deleting %s %s: %w", c.kind, id, err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("error reading delete result: %w", err)
	}
	if affected == 0 {
		return nil
	}

	var tombstone T
	c.bcast.Broadcast(models.ChangeEvent[T]{Op: models.OpDelete, Record: tombstone.WithID(id)})
	return nil
}

func (c *collection[T]) Subscribe(ctx context.Context) (*Subscription[T], error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("subscribe %s: %w", c.kind, err)
	}

	id, ch := c.bcast.Subscribe()
	return NewSubscription(ch, func() { c.bcast.Unsubscribe(id) }), nil
}
