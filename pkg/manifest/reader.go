// Package manifest turns raw carrier manifest files into uniform row
// tables. CSV and Excel inputs both come out as a header slice plus string
// rows so the extractors never touch file formats.
package manifest

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/huymai96/package-confirmation-app/pkg/models"
)

// ErrEmptyManifest is returned when a file parses but yields no header row.
var ErrEmptyManifest = errors.New("manifest has no header row")

// ErrNotAManifest is returned when a file fails the preamble sanity check,
// usually because the portal handed back an HTML error page instead of an
// export.
var ErrNotAManifest = errors.New("file does not look like a manifest export")

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// Table is one parsed manifest: the detected header row and every data row
// after it. Rows are ragged; extractors must bounds-check column access.
type Table struct {
	Headers []string
	Rows    [][]string
}

// HeaderRowOffset returns the zero-based row index of the header for a
// source kind. S&S exports carry a title banner on the first row.
func HeaderRowOffset(source models.SourceType) int {
	switch source {
	case models.SourceSS, models.SourceSSCombined:
		return 1
	}
	return 0
}

// ReadTable parses manifest content into a Table, picking the parser from
// the filename extension and dropping rows above the source's header offset.
func ReadTable(filename string, data []byte, source models.SourceType) (*Table, error) {
	var rows [][]string
	var err error

	switch strings.ToLower(filepath.Ext(filename)) {
	case ".xlsx", ".xlsm", ".xls":
		rows, err = readExcelRows(data)
	default:
		if source.Base() == models.SourceSanmar {
			if err := checkSanmarPreamble(data); err != nil {
				return nil, err
			}
		}
		rows, err = readCSVRows(data)
	}
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", filename, err)
	}

	offset := HeaderRowOffset(source)
	if len(rows) <= offset {
		return nil, ErrEmptyManifest
	}

	headers := rows[offset]
	for i, h := range headers {
		headers[i] = strings.TrimSpace(h)
	}

	return &Table{
		Headers: headers,
		Rows:    rows[offset+1:],
	}, nil
}

func readCSVRows(data []byte) ([][]string, error) {
	data = bytes.TrimPrefix(data, utf8BOM)

	reader := csv.NewReader(bytes.NewReader(data))
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true

	var rows [][]string
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}
		rows = append(rows, record)
	}
	return rows, nil
}

func readExcelRows(data []byte) ([][]string, error) {
	file, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		return nil, err
	}
	defer file.Close()

	sheets := file.GetSheetList()
	if len(sheets) == 0 {
		return nil, ErrEmptyManifest
	}

	return file.GetRows(sheets[0])
}

// checkSanmarPreamble rejects files that cannot be Sanmar CSV exports. Real
// exports open with a quoted cell or a "Deco" header; anything else is a
// portal error page saved with a .csv name.
func checkSanmarPreamble(data []byte) error {
	data = bytes.TrimPrefix(data, utf8BOM)
	trimmed := bytes.TrimLeft(data, " \t\r\n")
	if len(trimmed) == 0 {
		return ErrEmptyManifest
	}
	if trimmed[0] == '"' || bytes.HasPrefix(trimmed, []byte("Deco")) {
		return nil
	}
	return ErrNotAManifest
}
