package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	_ "modernc.org/sqlite"

	"invpulse/pkg/contracts/domain"
)

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS uploads (
	id          TEXT PRIMARY KEY,
	owner_id    TEXT NOT NULL,
	filename    TEXT NOT NULL,
	status      TEXT NOT NULL,
	upload_date TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_uploads_owner ON uploads(owner_id);

CREATE TABLE IF NOT EXISTS products (
	id                TEXT PRIMARY KEY,
	owner_id          TEXT NOT NULL,
	product_id        TEXT NOT NULL,
	name              TEXT NOT NULL,
	opening_inventory INTEGER NOT NULL DEFAULT 0,
	created_at        TEXT NOT NULL,
	updated_at        TEXT NOT NULL,
	UNIQUE (owner_id, product_id)
);

CREATE TABLE IF NOT EXISTS procurement_data (
	product_row_id TEXT NOT NULL REFERENCES products(id) ON DELETE CASCADE,
	day            INTEGER NOT NULL,
	quantity       INTEGER NOT NULL,
	price          TEXT NOT NULL,
	amount         TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_procurement_product ON procurement_data(product_row_id);

CREATE TABLE IF NOT EXISTS sales_data (
	product_row_id TEXT NOT NULL REFERENCES products(id) ON DELETE CASCADE,
	day            INTEGER NOT NULL,
	quantity       INTEGER NOT NULL,
	price          TEXT NOT NULL,
	amount         TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_sales_product ON sales_data(product_row_id);
`

// SQLiteStore persists to a single SQLite file through database/sql
type SQLiteStore struct {
	db     *sql.DB
	logger *slog.Logger
}

// OpenSQLite opens (creating if needed) the database at path and applies the schema
func OpenSQLite(ctx context.Context, path string, logger *slog.Logger) (*SQLiteStore, error) {
	if path == "" {
		return nil, errors.New("sqlite: empty path")
	}
	if logger == nil {
		logger = slog.Default()
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite %s: %w", path, err)
	}
	// One writer keeps pragmas and transactions on the same connection
	db.SetMaxOpenConns(1)

	s := &SQLiteStore{db: db, logger: logger}
	if err := s.migrate(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}
	logger.Info("sqlite store ready", slog.String("path", path))
	return s, nil
}

func (s *SQLiteStore) migrate(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, `PRAGMA foreign_keys = ON`); err != nil {
		return fmt.Errorf("enable foreign keys: %w", err)
	}
	if _, err := s.db.ExecContext(ctx, sqliteSchema); err != nil {
		return fmt.Errorf("apply schema: %w", err)
	}
	return nil
}

func (s *SQLiteStore) CreateUpload(ctx context.Context, u domain.Upload) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO uploads (id, owner_id, filename, status, upload_date) VALUES (?, ?, ?, ?, ?)`,
		u.ID, u.OwnerID, u.Filename, string(u.Status), formatTime(u.UploadedAt))
	if err != nil {
		return fmt.Errorf("insert upload: %w", err)
	}
	return nil
}

func (s *SQLiteStore) UpdateUploadStatus(ctx context.Context, uploadID string, status domain.UploadStatus) error {
	res, err := s.db.ExecContext(ctx, `UPDATE uploads SET status = ? WHERE id = ?`, string(status), uploadID)
	if err != nil {
		return fmt.Errorf("update upload status: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return ErrUploadNotFound
	}
	return nil
}

func (s *SQLiteStore) ListUploads(ctx context.Context, ownerID string) ([]domain.Upload, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, owner_id, filename, status, upload_date FROM uploads
		 WHERE owner_id = ? ORDER BY upload_date DESC, id`, ownerID)
	if err != nil {
		return nil, fmt.Errorf("query uploads: %w", err)
	}
	defer rows.Close()

	out := make([]domain.Upload, 0)
	for rows.Next() {
		var (
			u        domain.Upload
			status   string
			uploaded string
		)
		if err := rows.Scan(&u.ID, &u.OwnerID, &u.Filename, &status, &uploaded); err != nil {
			return nil, fmt.Errorf("scan upload: %w", err)
		}
		u.Status = domain.UploadStatus(status)
		if u.UploadedAt, err = parseTime(uploaded); err != nil {
			return nil, err
		}
		out = append(out, u)
	}
	return out, rows.Err()
}

func (s *SQLiteStore) ReplaceProducts(ctx context.Context, ownerID string, records []domain.ProductRecord) (int, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("begin: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	now := formatTime(time.Now())
	for _, rec := range records {
		var rowID string
		err := tx.QueryRowContext(ctx,
			`INSERT INTO products (id, owner_id, product_id, name, opening_inventory, created_at, updated_at)
			 VALUES (?, ?, ?, ?, ?, ?, ?)
			 ON CONFLICT (owner_id, product_id) DO UPDATE SET
			   name = excluded.name,
			   opening_inventory = excluded.opening_inventory,
			   updated_at = excluded.updated_at
			 RETURNING id`,
			uuid.NewString(), ownerID, rec.ProductID, rec.Name, rec.OpeningInventory, now, now,
		).Scan(&rowID)
		if err != nil {
			return 0, fmt.Errorf("upsert product %s: %w", rec.ProductID, err)
		}

		if err := replaceDays(ctx, tx, "procurement_data", rowID, rec.ProcurementEntries); err != nil {
			return 0, err
		}
		if err := replaceDays(ctx, tx, "sales_data", rowID, rec.SalesEntries); err != nil {
			return 0, err
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit: %w", err)
	}
	s.logger.DebugContext(ctx, "products replaced",
		slog.String("owner_id", ownerID),
		slog.Int("count", len(records)))
	return len(records), nil
}

// replaceDays is only called with the two fixed table names above
func replaceDays(ctx context.Context, tx *sql.Tx, table, rowID string, entries []domain.DayEntry) error {
	if _, err := tx.ExecContext(ctx, `DELETE FROM `+table+` WHERE product_row_id = ?`, rowID); err != nil {
		return fmt.Errorf("clear %s: %w", table, err)
	}
	active := activeEntries(entries)
	if len(active) == 0 {
		return nil
	}

	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO `+table+` (product_row_id, day, quantity, price, amount) VALUES (?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("prepare %s: %w", table, err)
	}
	defer stmt.Close()

	for _, e := range active {
		if _, err := stmt.ExecContext(ctx, rowID, e.Day, e.Quantity, e.Price.String(), e.Amount.String()); err != nil {
			return fmt.Errorf("insert %s day %d: %w", table, e.Day, err)
		}
	}
	return nil
}

func (s *SQLiteStore) ListProducts(ctx context.Context, ownerID string) ([]domain.StoredProduct, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, owner_id, product_id, name, opening_inventory, created_at, updated_at
		 FROM products WHERE owner_id = ? ORDER BY product_id`, ownerID)
	if err != nil {
		return nil, fmt.Errorf("query products: %w", err)
	}

	out := make([]domain.StoredProduct, 0)
	for rows.Next() {
		var (
			p                domain.StoredProduct
			created, updated string
		)
		if err := rows.Scan(&p.ID, &p.OwnerID, &p.ProductID, &p.Name, &p.OpeningInventory, &created, &updated); err != nil {
			rows.Close()
			return nil, fmt.Errorf("scan product: %w", err)
		}
		if p.CreatedAt, err = parseTime(created); err != nil {
			rows.Close()
			return nil, err
		}
		if p.UpdatedAt, err = parseTime(updated); err != nil {
			rows.Close()
			return nil, err
		}
		out = append(out, p)
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return nil, err
	}
	// Single connection: the cursor must be released before the day queries
	rows.Close()

	for i := range out {
		if out[i].ProcurementData, err = s.loadDays(ctx, "procurement_data", out[i].ID); err != nil {
			return nil, err
		}
		if out[i].SalesData, err = s.loadDays(ctx, "sales_data", out[i].ID); err != nil {
			return nil, err
		}
	}
	return out, nil
}

func (s *SQLiteStore) loadDays(ctx context.Context, table, rowID string) ([]domain.DayEntry, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT day, quantity, price, amount FROM `+table+` WHERE product_row_id = ? ORDER BY day`, rowID)
	if err != nil {
		return nil, fmt.Errorf("query %s: %w", table, err)
	}
	defer rows.Close()

	out := make([]domain.DayEntry, 0)
	for rows.Next() {
		var (
			e             domain.DayEntry
			price, amount string
		)
		if err := rows.Scan(&e.Day, &e.Quantity, &price, &amount); err != nil {
			return nil, fmt.Errorf("scan %s: %w", table, err)
		}
		if e.Price, err = decimal.NewFromString(price); err != nil {
			return nil, fmt.Errorf("%s price: %w", table, err)
		}
		if e.Amount, err = decimal.NewFromString(amount); err != nil {
			return nil, fmt.Errorf("%s amount: %w", table, err)
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

func (s *SQLiteStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// timeLayout is fixed width so text ordering matches time ordering
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

func formatTime(t time.Time) string {
	return t.UTC().Format(timeLayout)
}

func parseTime(s string) (time.Time, error) {
	t, err := time.Parse(timeLayout, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("parse timestamp %q: %w", s, err)
	}
	return t, nil
}
