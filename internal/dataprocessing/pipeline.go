package dataprocessing

import (
	"errors"
	"fmt"
	"log/slog"

	"invpulse/pkg/contracts/domain"
)

// Result is the output of one pipeline run.
type Result struct {
	Report  domain.ValidationReport
	Records []domain.ProductRecord
	// RowsSkipped counts input rows that produced no record.
	RowsSkipped int
}

// ErrTooManyDays is returned by Run when the detected day count exceeds
// the limit set with WithMaxDays.
var ErrTooManyDays = errors.New("too many day columns")

type runOptions struct {
	maxDays int
}

// Option configures Run.
type Option func(*runOptions)

// WithMaxDays refuses to extract sheets declaring more than n days.
// Extraction cost grows with the day count, so hosts accepting untrusted
// files should set it. n <= 0 means no limit.
func WithMaxDays(n int) Option {
	return func(o *runOptions) { o.maxDays = n }
}

// CheckDayLimit returns the day count the headers declare, or ErrTooManyDays
// when it exceeds limit. It only scans headers, so hosts can refuse an
// oversized sheet before validation walks every day. limit <= 0 means no limit.
func CheckDayLimit(headers []string, limit int) (int, error) {
	days := DetectDayCount(headers)
	if limit > 0 && days > limit {
		return days, fmt.Errorf("%w: sheet declares %d days, limit is %d", ErrTooManyDays, days, limit)
	}
	return days, nil
}

// Run validates s and, if the report is valid, extracts its products.
// An invalid report is not an error: callers inspect Result.Report.IsValid.
// A sheet over the WithMaxDays limit is refused before validation; its
// Result only carries the detected day count.
func Run(s *Sheet, opts ...Option) (*Result, error) {
	var o runOptions
	for _, opt := range opts {
		opt(&o)
	}

	if days, err := CheckDayLimit(s.Headers, o.maxDays); err != nil {
		return &Result{Report: domain.ValidationReport{MaxDays: days}}, err
	}

	report := ValidateFormat(s)
	res := &Result{Report: report}
	if !report.IsValid {
		slog.Debug("sheet failed validation",
			slog.Int("rows", report.TotalRows),
			slog.Any("errors", report.Errors))
		return res, nil
	}
	records, err := ExtractProducts(s, report.MaxDays)
	if err != nil {
		return res, fmt.Errorf("extract products: %w", err)
	}
	res.Records = records
	res.RowsSkipped = s.Len() - len(records)

	slog.Debug("sheet normalized",
		slog.Int("rows", report.TotalRows),
		slog.Int("records", len(records)),
		slog.Int("max_days", report.MaxDays),
		slog.Int("rows_skipped", res.RowsSkipped))
	return res, nil
}
