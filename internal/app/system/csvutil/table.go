// internal/app/system/csvutil/table.go
package csvutil

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/extrame/xls"
	"github.com/xuri/excelize/v2"
)

// Errors returned by the table readers.
var (
	ErrNoWorksheet    = errors.New("no worksheet found")
	ErrMultipleSheets = errors.New("multiple worksheets found; upload a file with a single sheet")
	ErrEmptyTable     = errors.New("file is empty")
	ErrTooManyRows    = fmt.Errorf("file has more than %d rows", MaxRows)
	ErrUnsupported    = errors.New("unsupported file type; use .csv, .xlsx or .xls")
)

// ReadTable reads an uploaded file into rows, header first. The format is
// chosen by the file extension. Files larger than maxBytes are rejected;
// maxBytes <= 0 means MaxUploadSize.
func ReadTable(r io.Reader, filename string, maxBytes int64) ([][]string, error) {
	if maxBytes <= 0 {
		maxBytes = MaxUploadSize
	}
	data, err := io.ReadAll(io.LimitReader(r, maxBytes+1))
	if err != nil {
		return nil, err
	}
	if int64(len(data)) > maxBytes {
		return nil, fmt.Errorf("file exceeds %d bytes", maxBytes)
	}

	var rows [][]string
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".csv", ".txt", "":
		rows, err = ReadCSV(bytes.NewReader(data))
	case ".xlsx":
		rows, err = readXLSX(data)
	case ".xls":
		rows, err = readXLS(data)
	default:
		return nil, ErrUnsupported
	}
	if err != nil {
		return nil, err
	}
	rows = trimBlankRows(rows)
	if len(rows) == 0 {
		return nil, ErrEmptyTable
	}
	if len(rows)-1 > MaxRows {
		return nil, ErrTooManyRows
	}
	return rows, nil
}

// ReadCSV parses CSV with ragged rows allowed and a leading UTF-8 BOM removed.
func ReadCSV(r io.Reader) ([][]string, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true
	reader.LazyQuotes = true

	rows, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("parse csv: %w", err)
	}
	if len(rows) > 0 && len(rows[0]) > 0 {
		rows[0][0] = strings.TrimPrefix(rows[0][0], "\ufeff")
	}
	return rows, nil
}

func readXLSX(data []byte) ([][]string, error) {
	file, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("open xlsx: %w", err)
	}
	defer func() { _ = file.Close() }()

	sheet := file.GetSheetName(0)
	if sheet == "" {
		return nil, ErrNoWorksheet
	}
	rows, err := file.GetRows(sheet)
	if err != nil {
		return nil, fmt.Errorf("read xlsx sheet %q: %w", sheet, err)
	}
	return rows, nil
}

func readXLS(data []byte) ([][]string, error) {
	wb, err := xls.OpenReader(bytes.NewReader(data), "utf-8")
	if err != nil {
		return nil, fmt.Errorf("open xls: %w", err)
	}
	switch n := wb.NumSheets(); {
	case n == 0:
		return nil, ErrNoWorksheet
	case n > 1:
		return nil, ErrMultipleSheets
	}
	return wb.ReadAllCells(MaxRows + 1), nil
}

// trimBlankRows drops rows whose cells are all blank.
func trimBlankRows(rows [][]string) [][]string {
	out := rows[:0]
	for _, row := range rows {
		for _, c := range row {
			if strings.TrimSpace(c) != "" {
				out = append(out, row)
				break
			}
		}
	}
	return out
}

// Objects converts a header-first table into header-keyed maps. Header
// names are trimmed; cells missing at the end of a row are "".
func Objects(rows [][]string) (headers []string, objs []map[string]string) {
	if len(rows) == 0 {
		return nil, nil
	}
	headers = make([]string, len(rows[0]))
	for i, h := range rows[0] {
		headers[i] = strings.TrimSpace(h)
	}
	objs = make([]map[string]string, 0, len(rows)-1)
	for _, row := range rows[1:] {
		m := make(map[string]string, len(headers))
		for i, h := range headers {
			if h == "" {
				continue
			}
			if i < len(row) {
				m[h] = strings.TrimSpace(row[i])
			} else {
				m[h] = ""
			}
		}
		objs = append(objs, m)
	}
	return headers, objs
}

// Pick returns the first non-blank value among keys in row, trimmed.
func Pick(row map[string]string, keys ...string) string {
	for _, k := range keys {
		if v := strings.TrimSpace(row[k]); v != "" {
			return v
		}
	}
	return ""
}
