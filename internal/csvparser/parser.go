// =============================================================================
// Load Export - CSV Snapshot Parser
// =============================================================================
//
// This module parses CSV dumps of the collection client's local cache. The
// header row carries raw field names exactly as the client wrote them, in
// whichever naming scheme that client version used. No renaming happens
// here; the normalizer resolves the names later.
//
// FEATURES:
//   - Configurable delimiter (comma, pipe, tab, semicolon)
//   - Configurable data start row, the row before it holds the headers
//   - Blank cells are omitted so they fall through to the next alias
//   - Fully blank rows are skipped
//
// =============================================================================

package csvparser

import (
	"bufio"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/ginjaninja78/loadexport/internal/config"
	"github.com/ginjaninja78/loadexport/internal/types"
)

// =============================================================================
// CSV DATA STRUCTURE
// =============================================================================

// CSVData represents a parsed snapshot.
type CSVData struct {
	// Headers contains the raw field names from the header row.
	Headers []string

	// Records contains one raw record per non-blank data row.
	Records []types.RawRecord

	// SourceFile is the path the data was read from, if any.
	SourceFile string
}

// =============================================================================
// PARSER FUNCTIONS
// =============================================================================

// Parse reads a CSV snapshot file.
//
// PARAMETERS:
//   - filePath: The path to the CSV file.
//   - settings: Delimiter and data start row.
//
// RETURNS:
//   - The parsed snapshot.
//   - An error if the file cannot be opened or parsed.
func Parse(filePath string, settings config.CSVSettings) (*CSVData, error) {
	file, err := os.Open(filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to open file: %w", err)
	}
	defer file.Close()

	data, err := ParseReader(bufio.NewReader(file), settings)
	if err != nil {
		return nil, err
	}
	data.SourceFile = filePath
	return data, nil
}

// ParseReader parses a CSV snapshot from r.
//
// An input with only a header row yields zero records and no error. An
// entirely empty input is an error.
func ParseReader(r io.Reader, settings config.CSVSettings) (*CSVData, error) {
	csvReader := csv.NewReader(r)
	configureReader(csvReader, settings)

	allRows, err := csvReader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("failed to read CSV: %w", err)
	}
	if len(allRows) == 0 {
		return nil, fmt.Errorf("CSV file is empty")
	}

	start := settings.DataStartRow
	if start < 2 {
		start = 2
	}
	if len(allRows) < start-1 {
		return nil, fmt.Errorf("file has fewer rows than data_start_row setting")
	}

	headers := cleanHeaders(allRows[start-2])

	var records []types.RawRecord
	for _, row := range allRows[start-1:] {
		if isRowEmpty(row) {
			continue
		}
		records = append(records, rowToRecord(headers, row))
	}

	return &CSVData{Headers: headers, Records: records}, nil
}

// configureReader configures the CSV reader based on the settings.
func configureReader(reader *csv.Reader, settings config.CSVSettings) {
	switch settings.Delimiter {
	case "\\t", "\t", "tab", "TAB":
		reader.Comma = '\t'
	case "|", "pipe", "PIPE":
		reader.Comma = '|'
	case ";", "semicolon":
		reader.Comma = ';'
	default:
		if len(settings.Delimiter) > 0 {
			reader.Comma = rune(settings.Delimiter[0])
		} else {
			reader.Comma = ','
		}
	}

	// Older client versions wrote fewer columns.
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true
	reader.TrimLeadingSpace = true
}

// cleanHeaders trims header names and strips a UTF-8 byte order mark.
func cleanHeaders(headers []string) []string {
	cleaned := make([]string, len(headers))
	for i, header := range headers {
		if i == 0 {
			header = strings.TrimPrefix(header, "\ufeff")
		}
		cleaned[i] = strings.TrimSpace(header)
	}
	return cleaned
}

// rowToRecord maps a row onto the headers. Cells beyond the header count,
// cells under a blank header and blank cells are dropped.
func rowToRecord(headers, row []string) types.RawRecord {
	rec := make(types.RawRecord, len(headers))
	for i, value := range row {
		if i >= len(headers) || headers[i] == "" {
			continue
		}
		value = strings.TrimSpace(value)
		if value == "" {
			continue
		}
		rec[headers[i]] = value
	}
	return rec
}

// isRowEmpty checks if a row contains only empty values.
func isRowEmpty(row []string) bool {
	for _, value := range row {
		if strings.TrimSpace(value) != "" {
			return false
		}
	}
	return true
}
