package validation

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"strings"
)

var (
	// ErrUnsupportedExtension is returned for files outside the allowed extension list
	ErrUnsupportedExtension = errors.New("unsupported file extension")
	// ErrTemporaryFile is returned for Office lock files such as "~$stock.xlsx"
	ErrTemporaryFile = errors.New("temporary office file")
	// ErrFileTooLarge is returned when a file exceeds the configured size limit
	ErrFileTooLarge = errors.New("file too large")
)

// FileValidator gates spreadsheet files before they are decoded
type FileValidator struct {
	logger            *slog.Logger
	allowedExtensions []string
	maxBytes          int64
}

// NewFileValidator creates a validator. Extensions are compared case-insensitively
// and must include the leading dot. maxBytes <= 0 disables the size check.
func NewFileValidator(logger *slog.Logger, allowedExtensions []string, maxBytes int64) *FileValidator {
	if logger == nil {
		logger = slog.Default()
	}
	exts := make([]string, 0, len(allowedExtensions))
	for _, e := range allowedExtensions {
		exts = append(exts, strings.ToLower(e))
	}
	return &FileValidator{
		logger:            logger,
		allowedExtensions: exts,
		maxBytes:          maxBytes,
	}
}

// AllowedExtensions returns the accepted extensions in configuration order
func (v *FileValidator) AllowedExtensions() []string {
	return slices.Clone(v.allowedExtensions)
}

// MaxBytes returns the size limit, 0 when unlimited
func (v *FileValidator) MaxBytes() int64 {
	if v.maxBytes < 0 {
		return 0
	}
	return v.maxBytes
}

// ValidateName checks the extension and rejects Office temp files
func (v *FileValidator) ValidateName(name string) error {
	base := filepath.Base(name)
	if strings.HasPrefix(base, "~$") {
		v.logger.Debug("Skipping temporary spreadsheet file", slog.String("file", name))
		return fmt.Errorf("%w: %s", ErrTemporaryFile, base)
	}

	ext := strings.ToLower(filepath.Ext(base))
	if !slices.Contains(v.allowedExtensions, ext) {
		v.logger.Debug("Rejected file extension",
			slog.String("file", name),
			slog.String("extension", ext))
		return fmt.Errorf("%w: %q", ErrUnsupportedExtension, ext)
	}
	return nil
}

// ValidateUpload checks name and declared size. A negative size means unknown.
func (v *FileValidator) ValidateUpload(name string, size int64) error {
	if err := v.ValidateName(name); err != nil {
		return err
	}
	if v.maxBytes > 0 && size > v.maxBytes {
		v.logger.Warn("Upload exceeds size limit",
			slog.String("file", name),
			slog.Int64("size", size),
			slog.Int64("max_bytes", v.maxBytes))
		return fmt.Errorf("%w: %d bytes exceeds limit of %d", ErrFileTooLarge, size, v.maxBytes)
	}
	return nil
}

// IsCandidate reports whether a path would pass ValidateName, without logging
func (v *FileValidator) IsCandidate(path string) bool {
	base := filepath.Base(path)
	if strings.HasPrefix(base, "~$") || strings.HasPrefix(base, ".") {
		return false
	}
	return slices.Contains(v.allowedExtensions, strings.ToLower(filepath.Ext(base)))
}

// ValidateFile checks that a path is a readable regular file within the size limit
func (v *FileValidator) ValidateFile(path string) error {
	info, err := os.Stat(path)
	if os.IsNotExist(err) {
		v.logger.Error("File does not exist", slog.String("file", path))
		return fmt.Errorf("file %s does not exist", path)
	}
	if err != nil {
		return fmt.Errorf("failed to stat file %s: %w", path, err)
	}
	if info.IsDir() {
		return fmt.Errorf("%s is a directory, not a file", path)
	}
	if err := v.ValidateUpload(path, info.Size()); err != nil {
		return err
	}

	file, err := os.Open(path)
	if err != nil {
		v.logger.Error("File is not readable",
			slog.String("file", path),
			slog.String("error", err.Error()))
		return fmt.Errorf("file %s is not readable: %w", path, err)
	}
	file.Close()

	v.logger.Debug("File validated",
		slog.String("file", path),
		slog.Int64("size", info.Size()))
	return nil
}

// ValidateOutputDirectory ensures dir exists and is writable
func (v *FileValidator) ValidateOutputDirectory(dir string) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		v.logger.Error("Failed to create output directory",
			slog.String("directory", dir),
			slog.String("error", err.Error()))
		return fmt.Errorf("failed to create output directory %s: %w", dir, err)
	}

	probe, err := os.CreateTemp(dir, ".write_test")
	if err != nil {
		return fmt.Errorf("output directory %s is not writable: %w", dir, err)
	}
	name := probe.Name()
	probe.Close()
	os.Remove(name)
	return nil
}
