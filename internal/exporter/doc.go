// Package exporter writes normalized product records as flat day rows, one
// row per product, activity kind and day, for spreadsheets and analytics
// tools.
//
// CSVWriter writes UTF-8 CSV with a BOM so Excel detects the encoding.
// ParquetWriter writes Snappy-compressed Parquet.
//
// Example usage:
//
//	rows := exporter.Flatten(records, false)
//	err := exporter.Export("out/stock.parquet", exporter.FormatParquet, rows)
package exporter
