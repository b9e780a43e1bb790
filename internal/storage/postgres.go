package storage

import (
	"context"
	"database/sql"
	"fmt"
	"strconv"

	"github.com/Rajdeepm07/expensechart/internal/core"

	_ "github.com/lib/pq"
)

// PostgresStore persists ledger state in PostgreSQL. Schema mirrors the
// SQLite layout.
type PostgresStore struct {
	db *sql.DB
}

func NewPostgresStore(dsn string) (*PostgresStore, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("open postgres database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	s := &PostgresStore{db: db}
	if err := s.ensureSchema(context.Background()); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

func (s *PostgresStore) ensureSchema(ctx context.Context) error {
	const schema = `
	CREATE TABLE IF NOT EXISTS ledger_meta (
		key   TEXT PRIMARY KEY,
		value TEXT NOT NULL
	);
	CREATE TABLE IF NOT EXISTS expenses (
		id           BIGINT PRIMARY KEY,
		title        TEXT    NOT NULL,
		amount_cents BIGINT  NOT NULL,
		created_at   BIGINT  NOT NULL,
		removed      BOOLEAN NOT NULL DEFAULT FALSE
	);`
	if _, err := s.db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("ensure schema: %w", err)
	}
	return nil
}

func (s *PostgresStore) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

func (s *PostgresStore) Load(ctx context.Context) (*State, error) {
	state := &State{}
	populated := false

	if owner, ok, err := s.meta(ctx, metaOwner); err != nil {
		return nil, err
	} else if ok {
		state.Owner = core.OwnerID(owner)
		populated = true
	}

	if raw, ok, err := s.meta(ctx, metaNextID); err != nil {
		return nil, err
	} else if ok {
		nextID, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("parse next_id %q: %w", raw, err)
		}
		state.NextID = nextID
		populated = true
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT id, title, amount_cents, created_at, removed FROM expenses ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("query expenses: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			e       core.Expense
			removed bool
		)
		if err := rows.Scan(&e.ID, &e.Title, &e.Amount.Cents, &e.CreatedAt, &removed); err != nil {
			return nil, fmt.Errorf("scan expense: %w", err)
		}
		state.Expenses = append(state.Expenses, StoredExpense{Expense: e, Removed: removed})
		populated = true
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate expenses: %w", err)
	}

	if !populated {
		return nil, nil
	}
	return state, nil
}

func (s *PostgresStore) InsertExpense(ctx context.Context, e core.Expense, nextID int64) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx,
		`INSERT INTO expenses (id, title, amount_cents, created_at, removed) VALUES ($1, $2, $3, $4, FALSE)`,
		e.ID, e.Title, e.Amount.Cents, e.CreatedAt); err != nil {
		return fmt.Errorf("insert expense: %w", err)
	}

	if _, err := tx.ExecContext(ctx,
		`INSERT INTO ledger_meta (key, value) VALUES ($1, $2)
		 ON CONFLICT (key) DO UPDATE SET value = EXCLUDED.value`,
		metaNextID, strconv.FormatInt(nextID, 10)); err != nil {
		return fmt.Errorf("set meta %s: %w", metaNextID, err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}
	return nil
}

func (s *PostgresStore) MarkRemoved(ctx context.Context, id int64) error {
	if _, err := s.db.ExecContext(ctx,
		`UPDATE expenses SET removed = TRUE WHERE id = $1`, id); err != nil {
		return fmt.Errorf("mark expense removed: %w", err)
	}
	return nil
}

func (s *PostgresStore) SaveOwner(ctx context.Context, owner core.OwnerID) error {
	if _, err := s.db.ExecContext(ctx,
		`INSERT INTO ledger_meta (key, value) VALUES ($1, $2)
		 ON CONFLICT (key) DO UPDATE SET value = EXCLUDED.value`,
		metaOwner, string(owner)); err != nil {
		return fmt.Errorf("set meta %s: %w", metaOwner, err)
	}
	return nil
}

func (s *PostgresStore) meta(ctx context.Context, key string) (string, bool, error) {
	var value string
	err := s.db.QueryRowContext(ctx,
		`SELECT value FROM ledger_meta WHERE key = $1`, key).Scan(&value)
	if err == sql.ErrNoRows {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("read meta %s: %w", key, err)
	}
	return value, true, nil
}

var _ StateStore = (*PostgresStore)(nil)
