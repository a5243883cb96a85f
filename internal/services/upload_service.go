package services

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"invpulse/internal/dataprocessing"
	apierrors "invpulse/internal/errors"
	"invpulse/internal/infrastructure"
	"invpulse/internal/store"
	"invpulse/internal/validation"
	"invpulse/pkg/contracts/domain"
	"invpulse/pkg/contracts/events"
)

// SuccessMessage is the message of every completed upload result
const SuccessMessage = "Excel file processed successfully"

// NoDataMessage is reported to listeners when every row lacked a product ID
const NoDataMessage = "File contains no processable product data"

// Upload sources, recorded on metrics and status events
const (
	SourceHTTP  = "http"
	SourceSheet = "sheet"
	SourceWatch = "watch"
)

// StatusPublisher receives every upload status transition
type StatusPublisher interface {
	PublishUploadStatus(ctx context.Context, status events.UploadStatus)
}

// UploadRequest is one spreadsheet submitted for processing
type UploadRequest struct {
	OwnerID  uuid.UUID
	Filename string
	// Size is the declared size in bytes, -1 when unknown
	Size   int64
	Body   io.Reader
	Source string
}

// UploadService turns uploaded spreadsheets into stored product records
type UploadService struct {
	store     store.Store
	files     *validation.FileValidator
	publisher StatusPublisher
	metrics   *infrastructure.BusinessMetrics
	tracer    trace.Tracer
	logger    *slog.Logger
	maxDays   int
	now       func() time.Time
}

// UploadOption configures an UploadService
type UploadOption func(*UploadService)

// WithPublisher sends status transitions to p
func WithPublisher(p StatusPublisher) UploadOption {
	return func(s *UploadService) { s.publisher = p }
}

// WithMetrics records upload outcomes on m
func WithMetrics(m *infrastructure.BusinessMetrics) UploadOption {
	return func(s *UploadService) { s.metrics = m }
}

// WithTracer overrides the global tracer
func WithTracer(t trace.Tracer) UploadOption {
	return func(s *UploadService) { s.tracer = t }
}

// WithMaxDays caps the number of day columns a sheet may declare
func WithMaxDays(n int) UploadOption {
	return func(s *UploadService) { s.maxDays = n }
}

// NewUploadService creates the service. st and files are required.
func NewUploadService(st store.Store, files *validation.FileValidator, logger *slog.Logger, opts ...UploadOption) *UploadService {
	if logger == nil {
		logger = slog.Default()
	}
	s := &UploadService{
		store:  st,
		files:  files,
		tracer: otel.Tracer(infrastructure.MeterName),
		logger: logger.With(slog.String("component", "upload_service")),
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Upload gates, decodes, validates, extracts and stores one spreadsheet.
// Decode failures return before any upload record is created.
func (s *UploadService) Upload(ctx context.Context, req UploadRequest) (*domain.UploadResult, error) {
	if req.OwnerID == uuid.Nil {
		return nil, ErrInvalidOwner
	}
	sheet, err := s.decode(ctx, req.Filename, req.Size, req.Body)
	if err != nil {
		return nil, err
	}
	source := req.Source
	if source == "" {
		source = SourceHTTP
	}
	return s.process(ctx, req.OwnerID, req.Filename, source, sheet)
}

// IngestSheet processes a sheet that was decoded elsewhere
func (s *UploadService) IngestSheet(ctx context.Context, ownerID uuid.UUID, name string, sheet *dataprocessing.Sheet) (*domain.UploadResult, error) {
	if ownerID == uuid.Nil {
		return nil, ErrInvalidOwner
	}
	if name == "" {
		name = "sheet.json"
	}
	return s.process(ctx, ownerID, name, SourceSheet, sheet)
}

// Validate decodes and validates without storing anything. Sheets over the
// day limit are refused before validation.
func (s *UploadService) Validate(ctx context.Context, filename string, size int64, body io.Reader) (*domain.ValidationReport, error) {
	sheet, err := s.decode(ctx, filename, size, body)
	if err != nil {
		return nil, err
	}
	if _, err := dataprocessing.CheckDayLimit(sheet.Headers, s.maxDays); err != nil {
		return nil, err
	}
	report := dataprocessing.ValidateFormat(sheet)
	return &report, nil
}

// ListProducts returns the owner's stored products with their day data
func (s *UploadService) ListProducts(ctx context.Context, ownerID uuid.UUID) ([]domain.StoredProduct, error) {
	products, err := s.store.ListProducts(ctx, ownerID.String())
	if err != nil {
		return nil, apierrors.NewStorageError("list products", err)
	}
	return products, nil
}

// ListUploads returns the owner's upload history, newest first
func (s *UploadService) ListUploads(ctx context.Context, ownerID uuid.UUID) ([]domain.Upload, error) {
	uploads, err := s.store.ListUploads(ctx, ownerID.String())
	if err != nil {
		return nil, apierrors.NewStorageError("list uploads", err)
	}
	return uploads, nil
}

func (s *UploadService) decode(ctx context.Context, filename string, size int64, body io.Reader) (*dataprocessing.Sheet, error) {
	if err := s.files.ValidateUpload(filename, size); err != nil {
		return nil, gateError(err)
	}

	data, err := s.readBody(body)
	if err != nil {
		return nil, err
	}

	sheet, err := dataprocessing.Decode(filename, bytes.NewReader(data))
	if err != nil {
		if errors.Is(err, dataprocessing.ErrUnsupportedFormat) {
			return nil, fmt.Errorf("%w: %w", ErrUnsupportedFile, err)
		}
		s.logger.WarnContext(ctx, "spreadsheet could not be decoded",
			slog.String("filename", filename),
			slog.String("error", err.Error()))
		return nil, err
	}
	return sheet, nil
}

// readBody enforces the size limit on bodies whose size was not declared
func (s *UploadService) readBody(body io.Reader) ([]byte, error) {
	limit := s.files.MaxBytes()
	if limit == 0 {
		data, err := io.ReadAll(body)
		if err != nil {
			return nil, fmt.Errorf("read upload: %w", err)
		}
		return data, nil
	}

	data, err := io.ReadAll(io.LimitReader(body, limit+1))
	if err != nil {
		return nil, fmt.Errorf("read upload: %w", err)
	}
	if int64(len(data)) > limit {
		return nil, fmt.Errorf("%w: body exceeds %d bytes", ErrFileTooLarge, limit)
	}
	return data, nil
}

func gateError(err error) error {
	switch {
	case errors.Is(err, validation.ErrFileTooLarge):
		return fmt.Errorf("%w: %w", ErrFileTooLarge, err)
	case errors.Is(err, validation.ErrUnsupportedExtension), errors.Is(err, validation.ErrTemporaryFile):
		return fmt.Errorf("%w: %w", ErrUnsupportedFile, err)
	default:
		return err
	}
}

// process runs steps three to eight: record, validate, extract, store, publish
func (s *UploadService) process(ctx context.Context, ownerID uuid.UUID, filename, source string, sheet *dataprocessing.Sheet) (*domain.UploadResult, error) {
	start := s.now()
	upload := domain.Upload{
		ID:         uuid.NewString(),
		OwnerID:    ownerID.String(),
		Filename:   filename,
		Status:     domain.UploadStatusProcessing,
		UploadedAt: start.UTC(),
	}

	ctx, span := s.tracer.Start(ctx, "upload.process", trace.WithAttributes(
		attribute.String("upload.id", upload.ID),
		attribute.String("upload.source", source),
		attribute.String("upload.filename", filename),
		attribute.Int("sheet.rows", sheet.Len()),
	))
	defer span.End()

	if s.metrics != nil {
		s.metrics.ActiveUploads.Add(ctx, 1)
		defer s.metrics.ActiveUploads.Add(ctx, -1)
	}

	logger := s.logger.With(
		slog.String("upload_id", upload.ID),
		slog.String("owner_id", upload.OwnerID),
		slog.String("source", source))

	if err := s.store.CreateUpload(ctx, upload); err != nil {
		span.SetStatus(codes.Error, "create upload record")
		return nil, apierrors.NewStorageError("create upload record", err)
	}
	s.publish(ctx, upload, source, 0, nil, nil)

	res, err := dataprocessing.Run(sheet, dataprocessing.WithMaxDays(s.maxDays))
	if err != nil {
		s.fail(ctx, logger, upload, source, start, err, []string{err.Error()}, res.Report.Warnings)
		return nil, err
	}

	report := res.Report
	span.SetAttributes(attribute.Int("sheet.max_days", report.MaxDays))

	if !report.IsValid {
		verr := &ValidationError{UploadID: upload.ID, Report: report}
		s.fail(ctx, logger, upload, source, start, verr, report.Errors, report.Warnings)
		return nil, verr
	}

	if len(res.Records) == 0 {
		s.fail(ctx, logger, upload, source, start, ErrNoProcessableData, []string{NoDataMessage}, report.Warnings)
		return nil, ErrNoProcessableData
	}

	stored, err := s.store.ReplaceProducts(ctx, upload.OwnerID, res.Records)
	if err != nil {
		serr := apierrors.NewStorageError("save products", err).WithContext("upload_id", upload.ID)
		s.fail(ctx, logger, upload, source, start, serr, []string{"Database error while saving products"}, report.Warnings)
		return nil, serr
	}

	upload.Status = domain.UploadStatusCompleted
	if err := s.store.UpdateUploadStatus(ctx, upload.ID, upload.Status); err != nil {
		logger.ErrorContext(ctx, "failed to mark upload completed", slog.String("error", err.Error()))
	}
	s.publish(ctx, upload, source, stored, nil, report.Warnings)

	duration := s.now().Sub(start)
	infrastructure.RecordUpload(ctx, s.metrics, source, string(upload.Status), stored, res.RowsSkipped, duration)
	span.SetAttributes(attribute.Int("upload.products", stored))

	logger.InfoContext(ctx, "upload completed",
		slog.String("filename", filename),
		slog.Int("products", stored),
		slog.Int("rows_skipped", res.RowsSkipped),
		slog.Int("max_days", report.MaxDays),
		slog.Duration("duration", duration))

	return &domain.UploadResult{
		Message:           SuccessMessage,
		UploadID:          upload.ID,
		ProductsProcessed: stored,
		Status:            upload.Status,
		ValidationInfo: domain.ValidationInfo{
			MaxDaysDetected: report.MaxDays,
			TotalRows:       report.TotalRows,
			RowsSkipped:     res.RowsSkipped,
			Warnings:        report.Warnings,
		},
	}, nil
}

// fail marks the upload failed. The status write ignores cancellation so a
// dropped client still leaves an accurate history.
func (s *UploadService) fail(ctx context.Context, logger *slog.Logger, upload domain.Upload, source string, start time.Time, cause error, errs, warnings []string) {
	infrastructure.RecordError(ctx, cause)

	upload.Status = domain.UploadStatusFailed
	if err := s.store.UpdateUploadStatus(context.WithoutCancel(ctx), upload.ID, upload.Status); err != nil {
		logger.ErrorContext(ctx, "failed to mark upload failed", slog.String("error", err.Error()))
	}
	s.publish(ctx, upload, source, 0, errs, warnings)
	infrastructure.RecordUpload(ctx, s.metrics, source, string(upload.Status), 0, 0, s.now().Sub(start))

	logger.WarnContext(ctx, "upload failed",
		slog.String("filename", upload.Filename),
		slog.String("error", cause.Error()))
}

func (s *UploadService) publish(ctx context.Context, upload domain.Upload, source string, products int, errs, warnings []string) {
	if s.publisher == nil {
		return
	}
	s.publisher.PublishUploadStatus(ctx, events.UploadStatus{
		UploadID:          upload.ID,
		OwnerID:           upload.OwnerID,
		Filename:          upload.Filename,
		Source:            source,
		Status:            string(upload.Status),
		Final:             upload.Status.IsTerminal(),
		ProductsProcessed: products,
		Errors:            errs,
		Warnings:          warnings,
		UpdatedAt:         s.now().UTC(),
	})
}
