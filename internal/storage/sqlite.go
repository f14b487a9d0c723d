package storage

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"

	"ledgerd/internal/core"

	_ "modernc.org/sqlite"
)

// SQLiteStore persists the ledger in a local SQLite database.
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

	if err := RunMigrations(dbPath); err != nil {
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

func (s *SQLiteStore) Insert(ctx context.Context, tx core.Transaction) (core.Transaction, error) {
	res, err := s.db.ExecContext(ctx,
		`INSERT INTO transactions (kind, owner_id, title, amount_cents, category, description, date, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		tx.Kind.String(), tx.OwnerID, tx.Title, tx.Amount.Cents,
		tx.Category, tx.Description, tx.Date.Format("2006-01-02"), tx.CreatedAt)
	if err != nil {
		return core.Transaction{}, fmt.Errorf("insert transaction: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return core.Transaction{}, fmt.Errorf("last insert id: %w", err)
	}
	tx.ID = strconv.FormatInt(id, 10)

	slog.InfoContext(ctx, "Transaction saved to SQLite",
		"id", tx.ID,
		"kind", tx.Kind,
		"amount_cents", tx.Amount.Cents)
	return tx, nil
}

func (s *SQLiteStore) ListByOwner(ctx context.Context, kind core.Kind, ownerID string) ([]core.Transaction, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, owner_id, title, amount_cents, category, description, date, created_at
		 FROM transactions
		 WHERE kind = ? AND owner_id = ?
		 ORDER BY created_at DESC, id DESC`,
		kind.String(), ownerID)
	if err != nil {
		return nil, fmt.Errorf("list transactions: %w", err)
	}
	defer rows.Close()

	var out []core.Transaction
	for rows.Next() {
		var (
			id      int64
			tx      core.Transaction
			dateStr string
		)
		tx.Kind = kind
		if err := rows.Scan(&id, &tx.OwnerID, &tx.Title, &tx.Amount.Cents,
			&tx.Category, &tx.Description, &dateStr, &tx.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan transaction: %w", err)
		}
		tx.ID = strconv.FormatInt(id, 10)
		if d, err := core.ParseDate(dateStr); err == nil {
			tx.Date = d
		}
		out = append(out, tx)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate transactions: %w", err)
	}
	return out, nil
}

// DeleteOwned runs the ownership check and the removal as one conditional
// DELETE, so two racing deletes resolve to one success and one ErrNotFound.
func (s *SQLiteStore) DeleteOwned(ctx context.Context, kind core.Kind, id, ownerID string) error {
	numericID, err := strconv.ParseInt(id, 10, 64)
	if err != nil {
		return ErrNotFound
	}

	res, err := s.db.ExecContext(ctx,
		`DELETE FROM transactions WHERE id = ? AND kind = ? AND owner_id = ?`,
		numericID, kind.String(), ownerID)
	if err != nil {
		return fmt.Errorf("delete transaction: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if affected == 0 {
		return ErrNotFound
	}

	slog.InfoContext(ctx, "Transaction deleted from SQLite", "id", id, "kind", kind)
	return nil
}
