package store

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"invpulse/pkg/contracts/domain"
)

const postgresSchema = `
CREATE TABLE IF NOT EXISTS uploads (
	id          UUID PRIMARY KEY,
	owner_id    UUID NOT NULL,
	filename    TEXT NOT NULL,
	status      TEXT NOT NULL,
	upload_date TIMESTAMPTZ NOT NULL DEFAULT now()
);
CREATE INDEX IF NOT EXISTS idx_uploads_owner ON uploads(owner_id);

CREATE TABLE IF NOT EXISTS products (
	id                UUID PRIMARY KEY,
	owner_id          UUID NOT NULL,
	product_id        TEXT NOT NULL,
	name              TEXT NOT NULL,
	opening_inventory BIGINT NOT NULL DEFAULT 0,
	created_at        TIMESTAMPTZ NOT NULL DEFAULT now(),
	updated_at        TIMESTAMPTZ NOT NULL DEFAULT now(),
	UNIQUE (owner_id, product_id)
);

CREATE TABLE IF NOT EXISTS procurement_data (
	product_row_id UUID NOT NULL REFERENCES products(id) ON DELETE CASCADE,
	day            INTEGER NOT NULL,
	quantity       BIGINT NOT NULL,
	price          NUMERIC NOT NULL,
	amount         NUMERIC NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_procurement_product ON procurement_data(product_row_id);

CREATE TABLE IF NOT EXISTS sales_data (
	product_row_id UUID NOT NULL REFERENCES products(id) ON DELETE CASCADE,
	day            INTEGER NOT NULL,
	quantity       BIGINT NOT NULL,
	price          NUMERIC NOT NULL,
	amount         NUMERIC NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_sales_product ON sales_data(product_row_id);
`

var dayColumns = []string{"product_row_id", "day", "quantity", "price", "amount"}

// PostgresConfig holds pool settings for the PostgreSQL store
type PostgresConfig struct {
	DSN             string
	MaxConns        int32
	MinConns        int32
	MaxConnLifetime time.Duration
	MaxConnIdleTime time.Duration
	DialTimeout     time.Duration
}

// PostgresStore persists through a pgx connection pool. Day rows are
// bulk-loaded with COPY.
type PostgresStore struct {
	pool   *pgxpool.Pool
	logger *slog.Logger
}

// OpenPostgres creates the pool, verifies connectivity and applies the schema
func OpenPostgres(ctx context.Context, cfg PostgresConfig, logger *slog.Logger) (*PostgresStore, error) {
	if cfg.DSN == "" {
		return nil, errors.New("postgres: empty DSN")
	}
	if logger == nil {
		logger = slog.Default()
	}

	pc, err := pgxpool.ParseConfig(cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("parse postgres dsn: %w", err)
	}
	if cfg.MaxConns > 0 {
		pc.MaxConns = cfg.MaxConns
	}
	pc.MinConns = cfg.MinConns
	pc.MaxConnLifetime = cfg.MaxConnLifetime
	pc.MaxConnIdleTime = cfg.MaxConnIdleTime
	pc.ConnConfig.RuntimeParams["application_name"] = "invpulse"

	if cfg.DialTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, cfg.DialTimeout)
		defer cancel()
	}

	pool, err := pgxpool.NewWithConfig(ctx, pc)
	if err != nil {
		return nil, fmt.Errorf("connect postgres: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}
	if _, err := pool.Exec(ctx, postgresSchema); err != nil {
		pool.Close()
		return nil, fmt.Errorf("apply schema: %w", err)
	}

	logger.Info("postgres store ready",
		slog.String("host", pc.ConnConfig.Host),
		slog.String("database", pc.ConnConfig.Database))
	return &PostgresStore{pool: pool, logger: logger}, nil
}

func (s *PostgresStore) CreateUpload(ctx context.Context, u domain.Upload) error {
	_, err := s.pool.Exec(ctx,
		`INSERT INTO uploads (id, owner_id, filename, status, upload_date) VALUES ($1, $2, $3, $4, $5)`,
		u.ID, u.OwnerID, u.Filename, string(u.Status), u.UploadedAt)
	if err != nil {
		return fmt.Errorf("insert upload: %w", err)
	}
	return nil
}

func (s *PostgresStore) UpdateUploadStatus(ctx context.Context, uploadID string, status domain.UploadStatus) error {
	tag, err := s.pool.Exec(ctx, `UPDATE uploads SET status = $1 WHERE id = $2`, string(status), uploadID)
	if err != nil {
		return fmt.Errorf("update upload status: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrUploadNotFound
	}
	return nil
}

func (s *PostgresStore) ListUploads(ctx context.Context, ownerID string) ([]domain.Upload, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT id::text, owner_id::text, filename, status, upload_date
		 FROM uploads WHERE owner_id = $1 ORDER BY upload_date DESC, id`, ownerID)
	if err != nil {
		return nil, fmt.Errorf("query uploads: %w", err)
	}
	defer rows.Close()

	out := make([]domain.Upload, 0)
	for rows.Next() {
		var (
			u      domain.Upload
			status string
		)
		if err := rows.Scan(&u.ID, &u.OwnerID, &u.Filename, &status, &u.UploadedAt); err != nil {
			return nil, fmt.Errorf("scan upload: %w", err)
		}
		u.Status = domain.UploadStatus(status)
		out = append(out, u)
	}
	return out, rows.Err()
}

func (s *PostgresStore) ReplaceProducts(ctx context.Context, ownerID string, records []domain.ProductRecord) (int, error) {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return 0, fmt.Errorf("begin: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	var procurement, sales [][]any
	for _, rec := range records {
		var rowID string
		err := tx.QueryRow(ctx,
			`INSERT INTO products (id, owner_id, product_id, name, opening_inventory)
			 VALUES ($1, $2, $3, $4, $5)
			 ON CONFLICT (owner_id, product_id) DO UPDATE SET
			   name = EXCLUDED.name,
			   opening_inventory = EXCLUDED.opening_inventory,
			   updated_at = now()
			 RETURNING id::text`,
			uuid.NewString(), ownerID, rec.ProductID, rec.Name, rec.OpeningInventory,
		).Scan(&rowID)
		if err != nil {
			return 0, fmt.Errorf("upsert product %s: %w", rec.ProductID, err)
		}

		if _, err := tx.Exec(ctx, `DELETE FROM procurement_data WHERE product_row_id = $1`, rowID); err != nil {
			return 0, fmt.Errorf("clear procurement_data: %w", err)
		}
		if _, err := tx.Exec(ctx, `DELETE FROM sales_data WHERE product_row_id = $1`, rowID); err != nil {
			return 0, fmt.Errorf("clear sales_data: %w", err)
		}

		id, err := uuid.Parse(rowID)
		if err != nil {
			return 0, fmt.Errorf("product row id %q: %w", rowID, err)
		}
		if procurement, err = appendCopyRows(procurement, id, rec.ProcurementEntries); err != nil {
			return 0, err
		}
		if sales, err = appendCopyRows(sales, id, rec.SalesEntries); err != nil {
			return 0, err
		}
	}

	if len(procurement) > 0 {
		if _, err := tx.CopyFrom(ctx, pgx.Identifier{"procurement_data"}, dayColumns, pgx.CopyFromRows(procurement)); err != nil {
			return 0, fmt.Errorf("copy procurement_data: %w", err)
		}
	}
	if len(sales) > 0 {
		if _, err := tx.CopyFrom(ctx, pgx.Identifier{"sales_data"}, dayColumns, pgx.CopyFromRows(sales)); err != nil {
			return 0, fmt.Errorf("copy sales_data: %w", err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return 0, fmt.Errorf("commit: %w", err)
	}
	s.logger.DebugContext(ctx, "products replaced",
		slog.String("owner_id", ownerID),
		slog.Int("count", len(records)),
		slog.Int("procurement_rows", len(procurement)),
		slog.Int("sales_rows", len(sales)))
	return len(records), nil
}

// appendCopyRows converts entries to the binary COPY types. Money goes
// through its decimal string so no precision is lost.
func appendCopyRows(rows [][]any, rowID uuid.UUID, entries []domain.DayEntry) ([][]any, error) {
	for _, e := range activeEntries(entries) {
		price, err := toNumeric(e.Price)
		if err != nil {
			return nil, err
		}
		amount, err := toNumeric(e.Amount)
		if err != nil {
			return nil, err
		}
		rows = append(rows, []any{rowID, int32(e.Day), e.Quantity, price, amount})
	}
	return rows, nil
}

func toNumeric(d decimal.Decimal) (pgtype.Numeric, error) {
	var n pgtype.Numeric
	if err := n.Scan(d.String()); err != nil {
		return n, fmt.Errorf("encode numeric %s: %w", d, err)
	}
	return n, nil
}

func (s *PostgresStore) ListProducts(ctx context.Context, ownerID string) ([]domain.StoredProduct, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT id::text, owner_id::text, product_id, name, opening_inventory, created_at, updated_at
		 FROM products WHERE owner_id = $1 ORDER BY product_id`, ownerID)
	if err != nil {
		return nil, fmt.Errorf("query products: %w", err)
	}
	products, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (domain.StoredProduct, error) {
		var p domain.StoredProduct
		err := row.Scan(&p.ID, &p.OwnerID, &p.ProductID, &p.Name, &p.OpeningInventory, &p.CreatedAt, &p.UpdatedAt)
		return p, err
	})
	if err != nil {
		return nil, fmt.Errorf("scan products: %w", err)
	}

	index := make(map[string]int, len(products))
	for i := range products {
		index[products[i].ID] = i
		products[i].ProcurementData = make([]domain.DayEntry, 0)
		products[i].SalesData = make([]domain.DayEntry, 0)
	}

	for _, table := range []string{"procurement_data", "sales_data"} {
		err := s.eachDay(ctx, table, ownerID, func(rowID string, e domain.DayEntry) {
			i, ok := index[rowID]
			if !ok {
				return
			}
			if table == "procurement_data" {
				products[i].ProcurementData = append(products[i].ProcurementData, e)
			} else {
				products[i].SalesData = append(products[i].SalesData, e)
			}
		})
		if err != nil {
			return nil, err
		}
	}
	return products, nil
}

// eachDay streams one owner's day rows from a fixed table name
func (s *PostgresStore) eachDay(ctx context.Context, table, ownerID string, fn func(rowID string, e domain.DayEntry)) error {
	rows, err := s.pool.Query(ctx,
		`SELECT d.product_row_id::text, d.day, d.quantity, d.price::text, d.amount::text
		 FROM `+table+` d JOIN products p ON p.id = d.product_row_id
		 WHERE p.owner_id = $1 ORDER BY d.product_row_id, d.day`, ownerID)
	if err != nil {
		return fmt.Errorf("query %s: %w", table, err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			rowID         string
			day           int32
			e             domain.DayEntry
			price, amount string
		)
		if err := rows.Scan(&rowID, &day, &e.Quantity, &price, &amount); err != nil {
			return fmt.Errorf("scan %s: %w", table, err)
		}
		e.Day = int(day)
		if e.Price, err = decimal.NewFromString(price); err != nil {
			return fmt.Errorf("%s price: %w", table, err)
		}
		if e.Amount, err = decimal.NewFromString(amount); err != nil {
			return fmt.Errorf("%s amount: %w", table, err)
		}
		fn(rowID, e)
	}
	return rows.Err()
}

func (s *PostgresStore) Ping(ctx context.Context) error {
	return s.pool.Ping(ctx)
}

func (s *PostgresStore) Close() error {
	s.pool.Close()
	return nil
}
