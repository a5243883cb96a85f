package exporter

import (
	"encoding/csv"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
)

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// CSVWriter provides CSV export functionality
type CSVWriter struct {
	baseDir string
}

// NewCSVWriter creates a new CSV writer. Relative paths are resolved against baseDir.
func NewCSVWriter(baseDir string) *CSVWriter {
	return &CSVWriter{baseDir: baseDir}
}

// WriteRows writes a header and rows to filePath, replacing any existing file
func (w *CSVWriter) WriteRows(filePath string, rows []DayRow) error {
	sw, err := w.CreateStreamWriter(filePath, Header)
	if err != nil {
		return err
	}
	for i, row := range rows {
		if err := sw.WriteRecord(row.record()); err != nil {
			sw.Close()
			return fmt.Errorf("failed to write record %d: %w", i, err)
		}
	}
	if err := sw.Close(); err != nil {
		return fmt.Errorf("failed to flush csv: %w", err)
	}

	slog.Debug("Wrote CSV export",
		slog.String("file_path", filePath),
		slog.Int("record_count", len(rows)))
	return nil
}

// StreamWriter provides streaming CSV writing for large datasets
type StreamWriter struct {
	closer io.Closer
	writer *csv.Writer
}

// NewStreamWriter writes the BOM and headers to out. Closing the stream
// closes out when it is an io.Closer.
func NewStreamWriter(out io.Writer, headers []string) (*StreamWriter, error) {
	// BOM for Excel compatibility
	if _, err := out.Write(utf8BOM); err != nil {
		return nil, fmt.Errorf("failed to write BOM: %w", err)
	}

	writer := csv.NewWriter(out)
	if len(headers) > 0 {
		if err := writer.Write(headers); err != nil {
			return nil, fmt.Errorf("failed to write headers: %w", err)
		}
	}

	sw := &StreamWriter{writer: writer}
	if c, ok := out.(io.Closer); ok {
		sw.closer = c
	}
	return sw, nil
}

// CreateStreamWriter creates filePath and returns a stream writer on it
func (w *CSVWriter) CreateStreamWriter(filePath string, headers []string) (*StreamWriter, error) {
	fullPath := w.resolvePath(filePath)

	if err := os.MkdirAll(filepath.Dir(fullPath), 0o755); err != nil {
		return nil, fmt.Errorf("failed to create directory: %w", err)
	}

	file, err := os.Create(fullPath)
	if err != nil {
		return nil, fmt.Errorf("failed to create file: %w", err)
	}

	sw, err := NewStreamWriter(file, headers)
	if err != nil {
		file.Close()
		return nil, err
	}
	return sw, nil
}

// WriteRecord writes a single record to the stream
func (s *StreamWriter) WriteRecord(record []string) error {
	return s.writer.Write(record)
}

// Close flushes and closes the stream writer
func (s *StreamWriter) Close() error {
	s.writer.Flush()
	err := s.writer.Error()
	if s.closer != nil {
		if cerr := s.closer.Close(); err == nil {
			err = cerr
		}
	}
	return err
}

func (w *CSVWriter) resolvePath(filePath string) string {
	if filepath.IsAbs(filePath) || w.baseDir == "" {
		return filePath
	}
	return filepath.Join(w.baseDir, filePath)
}
