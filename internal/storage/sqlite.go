package storage

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"

	"github.com/Rajdeepm07/expensechart/internal/core"

	_ "modernc.org/sqlite"
)

const (
	metaOwner  = "owner"
	metaNextID = "next_id"
)

type SQLiteStore struct {
	db *sql.DB
}

func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if err := runSQLiteMigrations(dbPath); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &SQLiteStore{db: db}, nil
}

func (s *SQLiteStore) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

func (s *SQLiteStore) Load(ctx context.Context) (*State, error) {
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
			removed int64
		)
		if err := rows.Scan(&e.ID, &e.Title, &e.Amount.Cents, &e.CreatedAt, &removed); err != nil {
			return nil, fmt.Errorf("scan expense: %w", err)
		}
		state.Expenses = append(state.Expenses, StoredExpense{Expense: e, Removed: removed != 0})
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

func (s *SQLiteStore) InsertExpense(ctx context.Context, e core.Expense, nextID int64) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx,
		`INSERT INTO expenses (id, title, amount_cents, created_at, removed) VALUES (?, ?, ?, ?, 0)`,
		e.ID, e.Title, e.Amount.Cents, e.CreatedAt); err != nil {
		return fmt.Errorf("insert expense: %w", err)
	}

	if err := setMeta(ctx, tx, metaNextID, strconv.FormatInt(nextID, 10)); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}

	slog.InfoContext(ctx, "Expense saved to SQLite",
		"id", e.ID,
		"title", e.Title,
		"amount_cents", e.Amount.Cents)

	return nil
}

func (s *SQLiteStore) MarkRemoved(ctx context.Context, id int64) error {
	if _, err := s.db.ExecContext(ctx,
		`UPDATE expenses SET removed = 1 WHERE id = ?`, id); err != nil {
		return fmt.Errorf("mark expense removed: %w", err)
	}

	slog.InfoContext(ctx, "Expense marked removed in SQLite", "id", id)
	return nil
}

func (s *SQLiteStore) SaveOwner(ctx context.Context, owner core.OwnerID) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	if err := setMeta(ctx, tx, metaOwner, string(owner)); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}
	return nil
}

func (s *SQLiteStore) meta(ctx context.Context, key string) (string, bool, error) {
	var value string
	err := s.db.QueryRowContext(ctx,
		`SELECT value FROM ledger_meta WHERE key = ?`, key).Scan(&value)
	if err == sql.ErrNoRows {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("read meta %s: %w", key, err)
	}
	return value, true, nil
}

func setMeta(ctx context.Context, tx *sql.Tx, key, value string) error {
	if _, err := tx.ExecContext(ctx,
		`INSERT INTO ledger_meta (key, value) VALUES (?, ?)
		 ON CONFLICT(key) DO UPDATE SET value = excluded.value`,
		key, value); err != nil {
		return fmt.Errorf("set meta %s: %w", key, err)
	}
	return nil
}

var _ StateStore = (*SQLiteStore)(nil)
