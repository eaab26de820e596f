package report

import (
	"bytes"
	"encoding/csv"
	"errors"
	"strings"

	"Crediflexi/internal/config"

	"github.com/extrame/xls"
	"github.com/xuri/excelize/v2"
)

const maxXLSRows = 1 << 16

// FileFormat is the detected spreadsheet container format.
type FileFormat string

const (
	FormatXLSX    FileFormat = "xlsx"
	FormatXLS     FileFormat = "xls"
	FormatCSV     FileFormat = "csv"
	FormatUnknown FileFormat = ""
)

var (
	zipMagic = []byte{0x50, 0x4B, 0x03, 0x04}             // xlsx is a zip container
	oleMagic = []byte{0xD0, 0xCF, 0x11, 0xE0, 0xA1, 0xB1} // legacy BIFF compound file
)

// DetectFormat sniffs the container format from the leading bytes. The
// caller works on raw uploads, so extension hints are not available here.
func DetectFormat(data []byte) FileFormat {
	if bytes.HasPrefix(data, zipMagic) {
		return FormatXLSX
	}
	if bytes.HasPrefix(data, oleMagic) {
		return FormatXLS
	}
	// Heuristic: printable text with separators is treated as CSV.
	if len(data) > 0 && !bytes.ContainsRune(data[:min(len(data), 512)], 0x00) {
		return FormatCSV
	}
	return FormatUnknown
}

// ParseSpreadsheet parses uploaded file bytes into rows of cells. The
// first sheet is read for workbook formats.
func ParseSpreadsheet(data []byte) ([][]string, error) {
	if len(data) == 0 {
		return nil, errors.New(ErrEmptyFile)
	}
	if len(data) > config.MaxFileSize {
		return nil, errors.New(ErrFileTooLarge)
	}
	switch DetectFormat(data) {
	case FormatXLSX:
		return parseXLSX(data)
	case FormatXLS:
		return parseXLS(data)
	case FormatCSV:
		return parseCSV(data)
	}
	return nil, errors.New(ErrUnsupportedFileType)
}

func parseXLSX(data []byte) ([][]string, error) {
	f, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		return nil, err
	}
	defer f.Close()
	sheet := f.GetSheetName(0)
	rows, err := f.GetRows(sheet)
	if err != nil {
		return nil, err
	}
	return rows, nil
}

func parseXLS(data []byte) ([][]string, error) {
	wb, err := xls.OpenReader(bytes.NewReader(data), "utf-8")
	if err != nil {
		return nil, err
	}
	rows := wb.ReadAllCells(maxXLSRows)
	return rows, nil
}

func parseCSV(data []byte) ([][]string, error) {
	r := csv.NewReader(bytes.NewReader(data))
	r.FieldsPerRecord = -1
	r.LazyQuotes = true
	return r.ReadAll()
}

// padRows widens every row to the header width so downstream indexing
// never runs past a short row. Trailing cells the reader dropped come
// back as empty strings.
func padRows(rows [][]string, width int) {
	for i, row := range rows {
		for len(row) < width {
			row = append(row, "")
		}
		rows[i] = row
	}
}

// headerAndData splits parsed rows into the header row and data rows,
// normalizing embedded newlines in headers the way upstream exports
// produce them.
func headerAndData(rows [][]string) ([]string, [][]string, error) {
	if len(rows) < 2 {
		return nil, nil, errors.New(ErrEmptyFile)
	}
	headers := make([]string, len(rows[0]))
	for i, h := range rows[0] {
		headers[i] = strings.TrimSpace(strings.ReplaceAll(h, "\n", " "))
	}
	data := rows[1:]
	padRows(data, len(headers))
	return headers, data, nil
}
