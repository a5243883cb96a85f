// Package dataprocessing turns uploaded inventory spreadsheets into
// normalized per-product, per-day records.
//
// # Architecture
//
// The package is organized into three stages that run in order:
//
// 1. Detector: DetectDayCount finds the highest "Day N" referenced by any header
// 2. Validator: ValidateFormat checks required and per-day columns and builds a report
// 3. Extractor: ExtractProducts coerces each row into a domain.ProductRecord
//
// Decoders (Decode, SheetFromJSON) sit in front of the stages and turn .xlsx,
// .xls, .csv or JSON input into a Sheet of tagged cells.
//
// # Usage
//
//	sheet, err := dataprocessing.Decode("inventory.xlsx", file)
//	if err != nil {
//	    return err
//	}
//	res, err := dataprocessing.Run(sheet)
//	if err != nil {
//	    return err
//	}
//	if !res.Report.IsValid {
//	    return fmt.Errorf("invalid sheet: %v", res.Report.Errors)
//	}
//
// # Header Conventions
//
// Each field accepts several historical header spellings, tried in a fixed
// order. Day fields are templated, for example "Sales Qty (Day 2)",
// "Sales Qty Day 2" and "salesQty_day2".
//
// # Error Handling
//
// Degradation is silent by contract:
//
//	- Rows without a product ID (blank or "nan") are dropped
//	- Quantities and prices that do not parse read as zero
//	- Missing day columns read as zero and only produce a warning
//
// Only missing identity columns, an empty sheet, and an opening inventory
// holding non-numeric text are reported.
//
// # Testing
//
// Stages are pure functions over a Sheet, so tests build sheets with
// NewSheet directly. Decoder tests build workbooks with excelize.
package dataprocessing
