package http

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/render"
	"github.com/google/uuid"

	"invpulse/internal/config"
	"invpulse/internal/dataprocessing"
	apierrors "invpulse/internal/errors"
	mw "invpulse/internal/middleware"
	"invpulse/internal/services"
)

const (
	// multipartOverhead covers boundaries and part headers around the file
	multipartOverhead = 1 << 20
	multipartMemory   = 8 << 20

	defaultHistoryLimit = 50
	maxHistoryLimit     = 500

	invalidFormatMessage = "Invalid Excel file format. Please check your file and try again."
	validationMessage    = "Excel file format validation failed"
	noDataMessage        = "No valid product data found in Excel file"
)

// UploadErrorResponse is the body returned when a sheet is structurally
// unusable. Clients show errors and warnings verbatim.
type UploadErrorResponse struct {
	Message  string   `json:"message"`
	Errors   []string `json:"errors"`
	Warnings []string `json:"warnings"`
}

// Render implements render.Renderer
func (e *UploadErrorResponse) Render(w http.ResponseWriter, r *http.Request) error {
	render.Status(r, http.StatusBadRequest)
	return nil
}

type sheetQuery struct {
	Name string `json:"name" validate:"omitempty,filename"`
}

// UploadHandler serves the spreadsheet upload API
type UploadHandler struct {
	service      UploadServiceInterface
	validator    *mw.Validator
	errorHandler *apierrors.ErrorHandler
	logger       *slog.Logger

	ownerHeader       string
	maxBytes          int64
	allowedExtensions []string
}

// UploadHandlerConfig carries the request limits enforced before the service is called
type UploadHandlerConfig struct {
	OwnerHeader       string
	MaxBytes          int64
	AllowedExtensions []string
}

// NewUploadHandler creates a new upload handler
func NewUploadHandler(service UploadServiceInterface, validator *mw.Validator, errorHandler *apierrors.ErrorHandler, cfg UploadHandlerConfig, logger *slog.Logger) *UploadHandler {
	if cfg.OwnerHeader == "" {
		cfg.OwnerHeader = "X-Owner-ID"
	}
	return &UploadHandler{
		service:           service,
		validator:         validator,
		errorHandler:      errorHandler,
		logger:            logger.With(slog.String("component", "upload_handler")),
		ownerHeader:       cfg.OwnerHeader,
		maxBytes:          cfg.MaxBytes,
		allowedExtensions: cfg.AllowedExtensions,
	}
}

// Routes returns the upload routes
func (h *UploadHandler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Use(render.SetContentType(render.ContentTypeJSON))

	r.Post("/validate", h.ValidateExcel)

	r.Group(func(r chi.Router) {
		r.Use(h.OwnerCtx)
		r.Post("/excel", h.UploadExcel)
		r.Post("/sheet", h.UploadSheet)
		r.Get("/products", h.ListProducts)
		r.Get("/history", h.ListUploads)
	})

	return r
}

type ownerKey struct{}

func withOwner(ctx context.Context, owner uuid.UUID) context.Context {
	return context.WithValue(ctx, ownerKey{}, owner)
}

// ownerFrom returns the owner stored by OwnerCtx
func ownerFrom(ctx context.Context) uuid.UUID {
	owner, _ := ctx.Value(ownerKey{}).(uuid.UUID)
	return owner
}

// OwnerCtx validates the owner header and stores the parsed ID in the context
func (h *UploadHandler) OwnerCtx(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		raw := strings.TrimSpace(r.Header.Get(h.ownerHeader))
		if err := h.validator.Var(h.ownerHeader, raw, "required,uuid"); err != nil {
			h.errorHandler.HandleError(w, r, err)
			return
		}
		owner, err := uuid.Parse(raw)
		if err != nil || owner == uuid.Nil {
			h.errorHandler.HandleError(w, r, apierrors.ErrValidation(h.ownerHeader, h.ownerHeader+" must be a valid UUID"))
			return
		}
		ctx := withOwner(r.Context(), owner)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// UploadExcel handles POST /api/upload/excel
func (h *UploadHandler) UploadExcel(w http.ResponseWriter, r *http.Request) {
	owner := ownerFrom(r.Context())

	file, name, size, err := h.formFile(w, r)
	if err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}
	defer file.Close()

	h.logger.InfoContext(r.Context(), "processing upload",
		slog.String("request_id", middleware.GetReqID(r.Context())),
		slog.String("owner_id", owner.String()),
		slog.String("filename", name),
		slog.Int64("size", size))

	result, err := h.service.Upload(r.Context(), services.UploadRequest{
		OwnerID:  owner,
		Filename: name,
		Size:     size,
		Body:     file,
		Source:   services.SourceHTTP,
	})
	if err != nil {
		h.uploadError(w, r, err)
		return
	}

	render.JSON(w, r, result)
}

// ValidateExcel handles POST /api/upload/validate. The report is returned
// with 200 even when the sheet is invalid.
func (h *UploadHandler) ValidateExcel(w http.ResponseWriter, r *http.Request) {
	file, name, size, err := h.formFile(w, r)
	if err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}
	defer file.Close()

	report, err := h.service.Validate(r.Context(), name, size, file)
	if err != nil {
		h.uploadError(w, r, err)
		return
	}

	render.JSON(w, r, report)
}

// UploadSheet handles POST /api/upload/sheet with a pre-decoded JSON table
func (h *UploadHandler) UploadSheet(w http.ResponseWriter, r *http.Request) {
	owner := ownerFrom(r.Context())

	q := sheetQuery{Name: r.URL.Query().Get("name")}
	if err := h.validator.Struct(q); err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}

	body := r.Body
	if h.maxBytes > 0 {
		body = http.MaxBytesReader(w, r.Body, h.maxBytes)
	}
	data, err := io.ReadAll(body)
	if err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}

	sheet, err := dataprocessing.SheetFromJSON(data)
	if err != nil {
		h.errorHandler.HandleError(w, r, apierrors.NewParsingError("Request body is not a valid sheet document", err))
		return
	}

	result, err := h.service.IngestSheet(r.Context(), owner, q.Name, sheet)
	if err != nil {
		h.uploadError(w, r, err)
		return
	}

	render.JSON(w, r, result)
}

// ListProducts handles GET /api/upload/products
func (h *UploadHandler) ListProducts(w http.ResponseWriter, r *http.Request) {
	products, err := h.service.ListProducts(r.Context(), ownerFrom(r.Context()))
	if err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}
	render.JSON(w, r, products)
}

// ListUploads handles GET /api/upload/history. ?limit caps the number of
// uploads returned, newest first.
func (h *UploadHandler) ListUploads(w http.ResponseWriter, r *http.Request) {
	limit, err := h.validator.QueryInt(r, "limit", 1, maxHistoryLimit, defaultHistoryLimit)
	if err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}

	uploads, err := h.service.ListUploads(r.Context(), ownerFrom(r.Context()))
	if err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}
	if len(uploads) > limit {
		uploads = uploads[:limit]
	}
	render.JSON(w, r, uploads)
}

// uploadPart is the "file" part of a multipart request. Close releases the
// part and any temporary files the multipart reader spilled to disk.
type uploadPart struct {
	multipart.File
	form *multipart.Form
}

func (p *uploadPart) Close() error {
	err := p.File.Close()
	if p.form != nil {
		_ = p.form.RemoveAll()
	}
	return err
}

// formFile reads the "file" part of a multipart request. The caller closes it.
func (h *UploadHandler) formFile(w http.ResponseWriter, r *http.Request) (io.ReadCloser, string, int64, error) {
	if h.maxBytes > 0 {
		r.Body = http.MaxBytesReader(w, r.Body, h.maxBytes+multipartOverhead)
	}
	if err := r.ParseMultipartForm(multipartMemory); err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			return nil, "", 0, h.tooLarge()
		}
		return nil, "", 0, apierrors.InvalidRequestWithError(err)
	}

	file, header, err := r.FormFile(config.UploadFormFile)
	if err != nil {
		return nil, "", 0, apierrors.ErrValidation("file", "file is required")
	}
	part := &uploadPart{File: file, form: r.MultipartForm}
	if err := h.validator.Var("file", header.Filename, "required,filename"); err != nil {
		part.Close()
		return nil, "", 0, err
	}
	return part, header.Filename, header.Size, nil
}

func (h *UploadHandler) tooLarge() *apierrors.APIError {
	err := *apierrors.ErrPayloadTooLarge
	err.Message = fmt.Sprintf("File exceeds the maximum upload size of %d bytes", h.maxBytes)
	return &err
}

// uploadError maps service errors onto the responses clients already handle
func (h *UploadHandler) uploadError(w http.ResponseWriter, r *http.Request, err error) {
	var verr *services.ValidationError
	var appErr *apierrors.AppError

	switch {
	case errors.As(err, &verr):
		_ = render.Render(w, r, &UploadErrorResponse{
			Message:  validationMessage,
			Errors:   verr.Report.Errors,
			Warnings: verr.Report.Warnings,
		})
	case errors.Is(err, services.ErrNoProcessableData):
		_ = render.Render(w, r, &UploadErrorResponse{
			Message:  noDataMessage,
			Errors:   []string{services.NoDataMessage},
			Warnings: []string{},
		})
	case errors.Is(err, services.ErrUnsupportedFile):
		h.errorHandler.HandleError(w, r, apierrors.NewAppError(apierrors.ErrTypeValidation,
			fmt.Sprintf("Only spreadsheet files (%s) are allowed", strings.Join(h.allowedExtensions, ", ")), err))
	case errors.Is(err, services.ErrFileTooLarge):
		h.errorHandler.HandleError(w, r, h.tooLarge())
	case errors.Is(err, services.ErrInvalidOwner):
		h.errorHandler.HandleError(w, r, apierrors.ErrValidation(h.ownerHeader, h.ownerHeader+" must be a valid UUID"))
	case errors.Is(err, dataprocessing.ErrInvalidSpreadsheet):
		h.errorHandler.HandleError(w, r, apierrors.NewParsingError(invalidFormatMessage, err))
	case errors.Is(err, dataprocessing.ErrTooManyDays):
		h.errorHandler.HandleError(w, r, apierrors.NewParsingError(err.Error(), err))
	case errors.As(err, &appErr):
		h.errorHandler.HandleError(w, r, appErr)
	default:
		h.logger.ErrorContext(r.Context(), "upload processing failed",
			slog.String("request_id", middleware.GetReqID(r.Context())),
			slog.String("error", err.Error()))
		h.errorHandler.HandleError(w, r, apierrors.New(http.StatusInternalServerError, "PROCESSING_FAILED",
			"Error processing Excel file: "+err.Error()))
	}
}
