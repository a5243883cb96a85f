// Package ingest feeds spreadsheets dropped into a watched directory through
// the upload service. Each file is moved to processed/ or failed/ once it has
// been handled, with the failure reason written next to failed files.
package ingest

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"invpulse/internal/files"
	"invpulse/internal/infrastructure"
	"invpulse/internal/services"
	"invpulse/internal/validation"
	"invpulse/pkg/contracts/domain"
)

const (
	ProcessedDir = "processed"
	FailedDir    = "failed"
)

// Uploader is the part of the upload service the ingester needs
type Uploader interface {
	Upload(ctx context.Context, req services.UploadRequest) (*domain.UploadResult, error)
}

// Config configures an Ingester
type Config struct {
	Dir         string
	OwnerID     uuid.UUID
	Debounce    time.Duration
	InitialScan bool
}

// Ingester watches a directory and uploads every spreadsheet that appears in it
type Ingester struct {
	cfg       Config
	uploader  Uploader
	validator *validation.FileValidator
	manager   *files.Manager
	discovery *files.Discovery
	logger    *slog.Logger
}

// New creates an Ingester. The directory and its archive subdirectories are
// created by Run.
func New(cfg Config, uploader Uploader, validator *validation.FileValidator, logger *slog.Logger) (*Ingester, error) {
	if cfg.Dir == "" {
		return nil, errors.New("ingest directory is required")
	}
	if cfg.OwnerID == uuid.Nil {
		return nil, services.ErrInvalidOwner
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Ingester{
		cfg:       cfg,
		uploader:  uploader,
		validator: validator,
		manager:   files.NewManager(cfg.Dir),
		discovery: files.NewDiscovery(cfg.Dir),
		logger:    infrastructure.WithComponent(logger, "ingest").With(slog.String("dir", cfg.Dir)),
	}, nil
}

// Run processes the backlog (when InitialScan is set) and then every new file
// until ctx is cancelled.
func (in *Ingester) Run(ctx context.Context) error {
	if err := in.validator.ValidateOutputDirectory(in.cfg.Dir); err != nil {
		return err
	}
	for _, dir := range []string{ProcessedDir, FailedDir} {
		if err := in.manager.EnsureDirectory(dir); err != nil {
			return err
		}
	}

	events, errs, err := StartWatcher(ctx, WatchConfig{
		Dir:      in.cfg.Dir,
		Accept:   in.validator.IsCandidate,
		Debounce: in.cfg.Debounce,
	}, in.logger)
	if err != nil {
		return fmt.Errorf("start watcher: %w", err)
	}

	in.logger.InfoContext(ctx, "watch folder ingestion started",
		slog.String("owner_id", in.cfg.OwnerID.String()),
		slog.Duration("debounce", in.cfg.Debounce))

	if in.cfg.InitialScan {
		backlog, err := in.discovery.FindFiles(".", in.validator.IsCandidate)
		if err != nil {
			return err
		}
		for _, f := range backlog {
			if ctx.Err() != nil {
				return nil
			}
			in.ProcessFile(ctx, f.Path)
		}
	}

	for {
		select {
		case <-ctx.Done():
			in.logger.Info("watch folder ingestion stopped")
			return nil
		case path, ok := <-events:
			if !ok {
				return nil
			}
			in.ProcessFile(ctx, path)
		case err, ok := <-errs:
			if ok && err != nil {
				in.logger.WarnContext(ctx, "watcher reported an error", slog.String("error", err.Error()))
			}
		}
	}
}

// ProcessFile uploads one file and archives it. It returns the upload result
// or the error that sent the file to failed/. Each file gets its own trace ID
// unless ctx already carries one.
func (in *Ingester) ProcessFile(ctx context.Context, path string) (*domain.UploadResult, error) {
	ctx = infrastructure.EnsureTraceID(ctx)
	logger := in.logger.With(slog.String("file", filepath.Base(path)))

	info, err := os.Stat(path)
	if err != nil {
		// Usually archived already by an earlier event for the same file.
		logger.DebugContext(ctx, "skipping file", slog.String("error", err.Error()))
		return nil, err
	}

	result, err := in.upload(ctx, path, info.Size())
	if err != nil {
		if ctx.Err() != nil {
			// Leave the file for the next run.
			return nil, err
		}
		dst, moveErr := in.manager.Archive(path, FailedDir)
		if moveErr != nil {
			logger.ErrorContext(ctx, "cannot move failed file", slog.String("error", moveErr.Error()))
			return nil, err
		}
		if werr := in.manager.WriteFile(dst+".error.txt", []byte(err.Error()+"\n")); werr != nil {
			logger.WarnContext(ctx, "cannot write failure note", slog.String("error", werr.Error()))
		}
		logger.WarnContext(ctx, "file rejected", slog.String("error", err.Error()), slog.String("moved_to", dst))
		return nil, err
	}

	dst, err := in.manager.Archive(path, ProcessedDir)
	if err != nil {
		logger.ErrorContext(ctx, "cannot move processed file", slog.String("error", err.Error()))
		return result, nil
	}
	logger.InfoContext(ctx, "file ingested",
		slog.String("upload_id", result.UploadID),
		slog.Int("products", result.ProductsProcessed),
		slog.String("moved_to", dst))
	return result, nil
}

func (in *Ingester) upload(ctx context.Context, path string, size int64) (*domain.UploadResult, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	return in.uploader.Upload(ctx, services.UploadRequest{
		OwnerID:  in.cfg.OwnerID,
		Filename: filepath.Base(path),
		Size:     size,
		Body:     f,
		Source:   services.SourceWatch,
	})
}
