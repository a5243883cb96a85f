package dataprocessing

import (
	"fmt"
	"strings"

	"invpulse/pkg/contracts/domain"
)

const (
	// LargeSheetRows is the row count above which a performance warning is raised.
	LargeSheetRows = 1000
	// UnusualDayCount is the day count above which the day headers are suspect.
	UnusualDayCount = 365
	// NoticeDayCount is the day count above which the detected range is reported.
	NoticeDayCount = 30

	missingDayPreview = 3
)

// ValidateFormat checks s for required identity columns, day columns for the
// detected day range, and basic sanity. Only missing identity columns and an
// empty sheet make the report invalid; everything else is a warning.
func ValidateFormat(s *Sheet) domain.ValidationReport {
	var errs, warnings []string

	var missingRequired []string
	for _, f := range requiredFields {
		if !anyPresent(s, f.aliases) {
			missingRequired = append(missingRequired, f.name)
		}
	}
	if len(missingRequired) > 0 {
		errs = append(errs, "Missing required columns: "+strings.Join(missingRequired, ", "))
	}

	maxDay := DetectDayCount(s.Headers)

	// Only the first few names are reported, so the full list is never built.
	var preview []string
	missingDays := 0
	for day := 1; day <= maxDay; day++ {
		for _, f := range dayFields {
			if anyPresent(s, f.Aliases(day)) {
				continue
			}
			missingDays++
			if len(preview) < missingDayPreview {
				preview = append(preview, f.DisplayName(day))
			}
		}
	}
	if missingDays > 0 {
		msg := "Some day-specific columns are missing: " + strings.Join(preview, ", ")
		if missingDays > missingDayPreview {
			msg += "..."
		}
		warnings = append(warnings, msg)
	}

	rows := s.Len()
	if s.Empty() {
		errs = append(errs, "Excel file contains no data rows")
	} else if rows < 1 {
		errs = append(errs, "Excel file must contain at least one product row")
	}

	if rows > LargeSheetRows {
		warnings = append(warnings, fmt.Sprintf("Large dataset detected (%d rows). Processing may take longer.", rows))
	}

	if maxDay > UnusualDayCount {
		warnings = append(warnings, fmt.Sprintf("Detected %d days - this seems unusually high. Please verify your column names.", maxDay))
	} else if maxDay > NoticeDayCount {
		warnings = append(warnings, fmt.Sprintf("Detected %d days of data.", maxDay))
	}

	columnsFound := 0
	if !s.Empty() {
		columnsFound = len(s.Headers)
	}

	return domain.ValidationReport{
		IsValid:         len(errs) == 0,
		Errors:          nonNil(errs),
		Warnings:        nonNil(warnings),
		MaxDays:         maxDay,
		TotalRows:       rows,
		ExpectedColumns: len(dayFields)*maxDay + len(requiredFields),
		ColumnsFound:    columnsFound,
	}
}

// nonNil keeps empty lists serializing as [] rather than null.
func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
