package sqldb

import (
	"context"
	"database/sql"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	"github.com/pkg/errors"
	_ "modernc.org/sqlite"

	"github.com/trezcool/kitabu/storage/docstore"
)

const schema = `CREATE TABLE IF NOT EXISTS documents (
	name       TEXT PRIMARY KEY,
	body       TEXT NOT NULL,
	updated_at TIMESTAMP NOT NULL
)`

var nowFunc = time.Now // mockable

// Backend keeps documents as rows of the documents table; a commit is one SQL transaction.
// Supported drivers: "postgres" (lib/pq) and "sqlite" (modernc.org/sqlite).
type Backend struct {
	db *sqlx.DB

	selectQuery string
	upsertQuery string
}

var _ docstore.Backend = (*Backend)(nil)

func NewBackend(ctx context.Context, driver, dsn string) (*Backend, error) {
	db, err := sqlx.Open(driver, dsn)
	if err != nil {
		return nil, errors.Wrap(err, "opening database")
	}
	if err = ping(ctx, db); err != nil {
		_ = db.Close()
		return nil, err
	}
	if driver == "sqlite" {
		db.SetMaxOpenConns(1) // sqlite allows a single writer
	}
	if _, err = db.ExecContext(ctx, schema); err != nil {
		_ = db.Close()
		return nil, errors.Wrap(err, "creating documents table")
	}

	return &Backend{
		db:          db,
		selectQuery: db.Rebind(`SELECT body FROM documents WHERE name = ?`),
		upsertQuery: db.Rebind(`INSERT INTO documents (name, body, updated_at) VALUES (?, ?, ?)
			ON CONFLICT (name) DO UPDATE SET body = excluded.body, updated_at = excluded.updated_at`),
	}, nil
}

// Open returns a docstore.Store backed by the SQL database at dsn.
func Open(ctx context.Context, driver, dsn string) (*docstore.Store, error) {
	b, err := NewBackend(ctx, driver, dsn)
	if err != nil {
		return nil, err
	}
	return docstore.New(b), nil
}

// ping waits for the database to be ready. Waits 100ms longer between each attempt.
func ping(ctx context.Context, db *sqlx.DB) error {
	var err error
	maxAttempts := 30
	for attempts := 1; attempts <= maxAttempts; attempts++ {
		err = db.PingContext(ctx)
		if err == nil {
			break
		}
		select {
		case <-ctx.Done():
			return errors.Wrap(ctx.Err(), "DB ping")
		case <-time.After(time.Duration(attempts) * 100 * time.Millisecond):
		}
	}

	if err != nil {
		return errors.Wrap(err, "DB ping timeout")
	}
	return nil
}

func (b *Backend) Read(ctx context.Context, doc string) ([]byte, error) {
	var body string
	if err := b.db.GetContext(ctx, &body, b.selectQuery, doc); err != nil {
		if err == sql.ErrNoRows {
			return nil, docstore.ErrNotExist
		}
		return nil, errors.Wrapf(err, "selecting %s", doc)
	}
	return []byte(body), nil
}

func (b *Backend) Commit(ctx context.Context, batch map[string][]byte) error {
	tx, err := b.db.BeginTxx(ctx, nil)
	if err != nil {
		return errors.Wrap(err, "beginning transaction")
	}
	now := nowFunc().UTC()
	for doc, raw := range batch {
		if _, err = tx.ExecContext(ctx, b.upsertQuery, doc, string(raw), now); err != nil {
			_ = tx.Rollback()
			return errors.Wrapf(err, "upserting %s", doc)
		}
	}
	return errors.Wrap(tx.Commit(), "committing transaction")
}

func (b *Backend) Close() error {
	return b.db.Close()
}
