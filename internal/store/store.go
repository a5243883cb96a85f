// Package store persists uploads and normalized products.
//
// Every driver implements the same replace semantics: a product is upserted
// by (owner, product ID), its previous day rows are discarded, and only day
// entries with a non-zero quantity or price are written back. One call to
// ReplaceProducts is atomic.
package store

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"invpulse/internal/config"
	"invpulse/pkg/contracts/domain"
)

// Driver names accepted by Open
const (
	DriverMemory   = "memory"
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

var (
	// ErrUploadNotFound is returned when a status update targets an unknown upload
	ErrUploadNotFound = errors.New("upload not found")
	// ErrUnknownDriver is returned by Open for an unsupported driver name
	ErrUnknownDriver = errors.New("unknown store driver")
)

// Store is the persistence sink for uploads and products
type Store interface {
	CreateUpload(ctx context.Context, upload domain.Upload) error
	UpdateUploadStatus(ctx context.Context, uploadID string, status domain.UploadStatus) error
	ListUploads(ctx context.Context, ownerID string) ([]domain.Upload, error)

	// ReplaceProducts upserts records for the owner and returns how many were written
	ReplaceProducts(ctx context.Context, ownerID string, records []domain.ProductRecord) (int, error)
	ListProducts(ctx context.Context, ownerID string) ([]domain.StoredProduct, error)

	Ping(ctx context.Context) error
	Close() error
}

// Open returns the store selected by cfg.Driver
func Open(ctx context.Context, cfg config.StoreConfig, logger *slog.Logger) (Store, error) {
	if logger == nil {
		logger = slog.Default()
	}
	logger = logger.With(slog.String("component", "store"), slog.String("driver", cfg.Driver))

	switch cfg.Driver {
	case DriverMemory, "":
		logger.Info("using in-memory store")
		return NewMemoryStore(), nil
	case DriverSQLite:
		return OpenSQLite(ctx, cfg.DSN, logger)
	case DriverPostgres:
		return OpenPostgres(ctx, PostgresConfig{
			DSN:             cfg.DSN,
			MaxConns:        cfg.MaxConns,
			MinConns:        cfg.MinConns,
			MaxConnLifetime: cfg.MaxConnLifetime,
			MaxConnIdleTime: cfg.MaxConnIdleTime,
			DialTimeout:     cfg.ConnectTimeout,
		}, logger)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownDriver, cfg.Driver)
	}
}

// activeEntries drops days that carry neither a quantity nor a price
func activeEntries(entries []domain.DayEntry) []domain.DayEntry {
	out := make([]domain.DayEntry, 0, len(entries))
	for _, e := range entries {
		if !e.IsZero() {
			out = append(out, e)
		}
	}
	return out
}
