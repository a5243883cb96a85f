// Command sheetcheck validates an inventory spreadsheet offline and
// optionally exports its normalized day rows.
//
//	sheetcheck [-format csv|parquet] [-out path] [-zero] [-max-days n] [-log-level l] <file>
//	sheetcheck -version
//
// The validation report is printed to stdout as JSON. The exit status is 0
// for a valid sheet, 2 for a sheet that fails validation and 1 for any other
// error.
package main

import (
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"invpulse/internal/config"
	"invpulse/internal/dataprocessing"
	"invpulse/internal/exporter"
	"invpulse/internal/infrastructure"
	"invpulse/internal/validation"
	"invpulse/pkg/contracts"
	"invpulse/pkg/contracts/domain"
)

const (
	exitOK      = 0
	exitError   = 1
	exitInvalid = 2
)

type output struct {
	File        string                  `json:"file"`
	Report      domain.ValidationReport `json:"report"`
	Products    int                     `json:"products"`
	RowsSkipped int                     `json:"rows_skipped"`
	Export      *exportSummary          `json:"export,omitempty"`
}

type exportSummary struct {
	Path   string `json:"path"`
	Format string `json:"format"`
	Rows   int    `json:"rows"`
}

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

func run(args []string, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("sheetcheck", flag.ContinueOnError)
	fs.SetOutput(stderr)
	format := fs.String("format", string(exporter.FormatCSV), "export format: csv | parquet")
	out := fs.String("out", "", "write normalized day rows to this path")
	includeZero := fs.Bool("zero", false, "include days without activity in the export")
	maxDays := fs.Int("max-days", config.Default().Upload.MaxDays, "refuse sheets declaring more days (0 = no limit)")
	level := fs.String("log-level", "warn", "debug | info | warn | error")
	showVersion := fs.Bool("version", false, "print version and exit")
	if err := fs.Parse(args); err != nil {
		return exitError
	}
	if *showVersion {
		fmt.Fprintln(stdout, contracts.GetFullVersionString("sheetcheck"))
		return exitOK
	}
	if fs.NArg() != 1 {
		fmt.Fprintln(stderr, "usage: sheetcheck [flags] <file>")
		fs.PrintDefaults()
		return exitError
	}
	path := fs.Arg(0)

	logger := infrastructure.NewLogger(config.LoggingConfig{Level: *level, Format: "text"}, stderr)
	slog.SetDefault(logger)

	exportFormat, err := exporter.ParseFormat(*format)
	if err != nil {
		logger.Error("Invalid flags", slog.String("error", err.Error()))
		return exitError
	}

	defaults := config.Default().Upload
	validator := validation.NewFileValidator(logger, defaults.AllowedExtensions, defaults.MaxBytes)
	if err := validator.ValidateFile(path); err != nil {
		logger.Error("Invalid input file", slog.String("error", err.Error()))
		return exitError
	}

	res, err := check(path, *maxDays)
	if err != nil {
		logger.Error("Failed to process spreadsheet",
			slog.String("file", path),
			slog.String("error", err.Error()))
		return exitError
	}

	o := output{
		File:        path,
		Report:      res.Report,
		Products:    len(res.Records),
		RowsSkipped: res.RowsSkipped,
	}

	if res.Report.IsValid && *out != "" {
		if err := validator.ValidateOutputDirectory(filepath.Dir(*out)); err != nil {
			logger.Error("Export failed", slog.String("error", err.Error()))
			return exitError
		}
		rows := exporter.Flatten(res.Records, *includeZero)
		if err := exporter.Export(*out, exportFormat, rows); err != nil {
			logger.Error("Export failed",
				slog.String("out", *out),
				slog.String("error", err.Error()))
			return exitError
		}
		o.Export = &exportSummary{Path: *out, Format: string(exportFormat), Rows: len(rows)}
		logger.Info("Export written",
			slog.String("out", *out),
			slog.String("format", string(exportFormat)),
			slog.Int("rows", len(rows)))
	}

	enc := json.NewEncoder(stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(o); err != nil {
		logger.Error("Failed to write report", slog.String("error", err.Error()))
		return exitError
	}

	if !res.Report.IsValid {
		return exitInvalid
	}
	return exitOK
}

func check(path string, maxDays int) (*dataprocessing.Result, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	sheet, err := dataprocessing.Decode(path, f)
	if err != nil {
		return nil, err
	}

	res, err := dataprocessing.Run(sheet, dataprocessing.WithMaxDays(maxDays))
	if err != nil {
		if errors.Is(err, dataprocessing.ErrTooManyDays) {
			return nil, fmt.Errorf("%w (raise -max-days to accept it)", err)
		}
		return nil, err
	}
	return res, nil
}
