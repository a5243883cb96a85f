package exporter

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/xitongsys/parquet-go-source/writerfile"
	"github.com/xitongsys/parquet-go/parquet"
	"github.com/xitongsys/parquet-go/writer"
)

// parquetRow is the on-disk schema. Money columns are DOUBLE so analytics
// engines can aggregate them without casts.
type parquetRow struct {
	ProductID string  `parquet:"name=product_id, type=BYTE_ARRAY, convertedtype=UTF8"`
	Name      string  `parquet:"name=name, type=BYTE_ARRAY, convertedtype=UTF8"`
	Kind      string  `parquet:"name=kind, type=BYTE_ARRAY, convertedtype=UTF8"`
	Day       int32   `parquet:"name=day, type=INT32"`
	Quantity  int64   `parquet:"name=quantity, type=INT64"`
	Price     float64 `parquet:"name=price, type=DOUBLE"`
	Amount    float64 `parquet:"name=amount, type=DOUBLE"`
}

// ParquetWriter provides Parquet export functionality
type ParquetWriter struct {
	baseDir string
}

// NewParquetWriter creates a new Parquet writer. Relative paths are resolved against baseDir.
func NewParquetWriter(baseDir string) *ParquetWriter {
	return &ParquetWriter{baseDir: baseDir}
}

// WriteRows writes rows to filePath, replacing any existing file
func (w *ParquetWriter) WriteRows(filePath string, rows []DayRow) error {
	fullPath := filePath
	if !filepath.IsAbs(filePath) && w.baseDir != "" {
		fullPath = filepath.Join(w.baseDir, filePath)
	}
	if err := os.MkdirAll(filepath.Dir(fullPath), 0o755); err != nil {
		return fmt.Errorf("failed to create directory: %w", err)
	}

	file, err := os.Create(fullPath)
	if err != nil {
		return fmt.Errorf("failed to create parquet file: %w", err)
	}
	if err := WriteParquet(file, rows); err != nil {
		file.Close()
		return err
	}
	return file.Close()
}

// WriteParquet encodes rows as a Parquet file onto out
func WriteParquet(out io.Writer, rows []DayRow) error {
	fw := writerfile.NewWriterFile(out)
	pw, err := writer.NewParquetWriter(fw, new(parquetRow), 1)
	if err != nil {
		return fmt.Errorf("parquet schema: %w", err)
	}
	pw.CompressionType = parquet.CompressionCodec_SNAPPY

	for _, row := range rows {
		pr := &parquetRow{
			ProductID: row.ProductID,
			Name:      row.Name,
			Kind:      row.Kind,
			Day:       int32(row.Day),
			Quantity:  row.Quantity,
			Price:     row.Price.InexactFloat64(),
			Amount:    row.Amount.InexactFloat64(),
		}
		if err := pw.Write(pr); err != nil {
			return fmt.Errorf("parquet write: %w", err)
		}
	}
	if err := pw.WriteStop(); err != nil {
		return fmt.Errorf("parquet finalize: %w", err)
	}
	return nil
}
