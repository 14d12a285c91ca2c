package labeling

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"slices"
	"strings"

	"github.com/spacesedan/pulseboard/internal/engine"
	"github.com/spacesedan/pulseboard/internal/loader"
	"github.com/spacesedan/pulseboard/internal/models"
	"github.com/spacesedan/pulseboard/internal/sentiment"
)

var ErrMissingColumn = errors.New("mapped column not found")

// Opener opens a source file by path.
type Opener func(path string) (io.ReadCloser, error)

func OpenFile(path string) (io.ReadCloser, error) {
	return os.Open(path)
}

// Dataset is the combined output: ordered headers and one record per row.
type Dataset struct {
	Headers []string
	Rows    []models.RawRecord
}

// Combine reads every source in order, renames its mapped columns and
// drops the rest. Every row is tagged with its source name unless the
// mapping already supplies a source column.
func Combine(m Mapping, open Opener) (Dataset, error) {
	var ds Dataset
	ds.Rows = make([]models.RawRecord, 0)

	addHeader := func(h string) {
		if !slices.Contains(ds.Headers, h) {
			ds.Headers = append(ds.Headers, h)
		}
	}

	for _, src := range m.Sources {
		table, err := readSource(src.Path, open)
		if err != nil {
			return Dataset{}, err
		}

		for _, col := range src.Columns {
			if !slices.Contains(table.Headers, col.From) {
				return Dataset{}, fmt.Errorf("[Labeling] %s: %w: %q (have %s)",
					src.Path, ErrMissingColumn, col.From, strings.Join(table.Headers, ", "))
			}
			addHeader(col.To)
		}

		tagSource := src.Source != "" && !mapsTo(src.Columns, SOURCE_COLUMN)
		if tagSource {
			addHeader(SOURCE_COLUMN)
		}

		for _, rec := range table.Records {
			row := make(models.RawRecord, len(src.Columns)+1)
			for _, col := range src.Columns {
				row[col.To] = rec[col.From]
			}
			if tagSource {
				row[SOURCE_COLUMN] = src.Source
			}
			ds.Rows = append(ds.Rows, row)
		}

		slog.Info("[Labeling] Loaded source",
			slog.String("file", src.Path),
			slog.String("source", src.Source),
			slog.Int("rows", len(table.Records)))
	}

	return ds, nil
}

func readSource(path string, open Opener) (loader.Table, error) {
	rc, err := open(path)
	if err != nil {
		return loader.Table{}, fmt.Errorf("[Labeling] failed to open %s: %w", path, err)
	}
	defer rc.Close()

	table, err := loader.DecodeTable(rc)
	if err != nil {
		return loader.Table{}, fmt.Errorf("[Labeling] failed to decode %s: %w", path, err)
	}
	return table, nil
}

func mapsTo(columns ColumnMap, name string) bool {
	for _, col := range columns {
		if col.To == name {
			return true
		}
	}
	return false
}

// FillSentiment labels rows whose sentiment is blank or unrecognized using
// VADER on their text. Rows without text are left alone. It returns the
// number of rows labeled.
func (ds *Dataset) FillSentiment() int {
	labeled := 0
	for _, row := range ds.Rows {
		if isLabeled(row[SENTIMENT_COLUMN]) {
			continue
		}
		text := strings.TrimSpace(row[TEXT_COLUMN])
		if text == "" {
			continue
		}
		_, label := sentiment.AnalyzeWithVADER(text)
		row[SENTIMENT_COLUMN] = string(label)
		labeled++
	}

	if labeled > 0 && !slices.Contains(ds.Headers, SENTIMENT_COLUMN) {
		ds.Headers = append(ds.Headers, SENTIMENT_COLUMN)
	}
	return labeled
}

func isLabeled(raw string) bool {
	return engine.ParseSentiment(raw) != models.SentimentUnscored
}

// WriteCSV writes the dataset with a header row. Missing cells are empty.
func (ds Dataset) WriteCSV(w io.Writer) error {
	writer := csv.NewWriter(w)
	if err := writer.Write(ds.Headers); err != nil {
		return fmt.Errorf("[Labeling] failed to write header: %w", err)
	}

	line := make([]string, len(ds.Headers))
	for _, row := range ds.Rows {
		for i, h := range ds.Headers {
			line[i] = row[h]
		}
		if err := writer.Write(line); err != nil {
			return fmt.Errorf("[Labeling] failed to write row: %w", err)
		}
	}

	writer.Flush()
	return writer.Error()
}
