package loader

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/spacesedan/pulseboard/internal/models"
)

const utf8BOM = "\ufeff"

// Table is a decoded delimited file: its lower-cased header and one record
// per non-empty row.
type Table struct {
	Headers []string
	Records []models.RawRecord
}

// Decode reads CSV from r into raw records keyed by lower-cased header.
func Decode(r io.Reader) ([]models.RawRecord, error) {
	table, err := DecodeTable(r)
	if err != nil {
		return nil, err
	}
	return table.Records, nil
}

// DecodeTable reads CSV with a header row. Short rows simply lack the
// trailing columns, cells beyond the header are ignored and rows made only
// of blank cells are skipped. An empty input yields an empty table.
func DecodeTable(r io.Reader) (Table, error) {
	reader := csv.NewReader(r)
	reader.LazyQuotes = true
	reader.FieldsPerRecord = -1
	reader.ReuseRecord = false

	header, err := reader.Read()
	if errors.Is(err, io.EOF) {
		return Table{Records: []models.RawRecord{}}, nil
	}
	if err != nil {
		return Table{}, fmt.Errorf("[Loader] failed to read header: %w", err)
	}

	headers := make([]string, len(header))
	for i, h := range header {
		if i == 0 {
			h = strings.TrimPrefix(h, utf8BOM)
		}
		headers[i] = strings.ToLower(strings.TrimSpace(h))
	}

	records := make([]models.RawRecord, 0)
	for {
		row, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return Table{}, fmt.Errorf("[Loader] failed to read row: %w", err)
		}
		if blankRow(row) {
			continue
		}

		record := make(models.RawRecord, len(headers))
		for i, h := range headers {
			if h == "" || i >= len(row) {
				continue
			}
			record[h] = row[i]
		}
		records = append(records, record)
	}

	return Table{Headers: headers, Records: records}, nil
}

func blankRow(row []string) bool {
	for _, cell := range row {
		if strings.TrimSpace(cell) != "" {
			return false
		}
	}
	return true
}
