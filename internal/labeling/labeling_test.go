package labeling

import (
	"bytes"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/spacesedan/pulseboard/internal/loader"
	"github.com/spacesedan/pulseboard/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const mappingYAML = `
output: combined_data.csv
sources:
  - file: reddit_text.csv
    source: reddit
    columns:
      text: text
      upvotes: score
      url: url
      date: date
  - file: tmobile_reviews.csv
    source: t-mobile community
    columns:
      location: location
      review: text
      thanks: score
      date: date
`

const redditCSV = `title,date,upvotes,url,text
Dropped calls,2024-05-01 10:00:00,12,https://reddit.com/a,My calls keep dropping. Terrible!
Thanks,2024-05-02 11:00:00,3,https://reddit.com/b,I love the new plan
`

const tmobileCSV = `Review,Location,Thanks,Date,Sentiment
"Billing was wrong again",TX,4,2024-04-30,negative
"Store staff were great",NY,1,2024-04-29,
`

func memOpener(files map[string]string) Opener {
	return func(path string) (io.ReadCloser, error) {
		content, ok := files[path]
		if !ok {
			return nil, os.ErrNotExist
		}
		return io.NopCloser(strings.NewReader(content)), nil
	}
}

func TestParseMapping_KeepsColumnOrder(t *testing.T) {
	m, err := ParseMapping(strings.NewReader(mappingYAML))
	require.NoError(t, err)

	require.Len(t, m.Sources, 2)
	assert.Equal(t, "combined_data.csv", m.Output)
	assert.True(t, m.ShouldLabel())
	assert.Equal(t, ColumnMap{
		{From: "location", To: "location"},
		{From: "review", To: "text"},
		{From: "thanks", To: "score"},
		{From: "date", To: "date"},
	}, m.Sources[1].Columns)
}

func TestParseMapping_Invalid(t *testing.T) {
	_, err := ParseMapping(strings.NewReader("sources: []"))
	assert.Error(t, err)

	_, err = ParseMapping(strings.NewReader("sources:\n  - file: a.csv\n    columns: [text]\n"))
	assert.Error(t, err)

	_, err = ParseMapping(strings.NewReader("sources:\n  - source: reddit\n    columns: {text: text}\n"))
	assert.Error(t, err)
}

func TestParseMapping_LabelCanBeDisabled(t *testing.T) {
	m, err := ParseMapping(strings.NewReader("label: false\nsources:\n  - file: a.csv\n    columns: {text: text}\n"))
	require.NoError(t, err)
	assert.False(t, m.ShouldLabel())
}

func TestCombine(t *testing.T) {
	m, err := ParseMapping(strings.NewReader(mappingYAML))
	require.NoError(t, err)

	ds, err := Combine(m, memOpener(map[string]string{
		"reddit_text.csv":     redditCSV,
		"tmobile_reviews.csv": tmobileCSV,
	}))
	require.NoError(t, err)

	assert.Equal(t, []string{"text", "score", "url", "date", "source", "location"}, ds.Headers)
	require.Len(t, ds.Rows, 4)
	assert.Equal(t, "12", ds.Rows[0]["score"])
	assert.Equal(t, "reddit", ds.Rows[0]["source"])
	assert.Equal(t, "Billing was wrong again", ds.Rows[2]["text"])
	assert.Equal(t, "TX", ds.Rows[2]["location"])
	assert.Equal(t, "t-mobile community", ds.Rows[3]["source"])
	_, hasTitle := ds.Rows[0]["title"]
	assert.False(t, hasTitle)
}

func TestCombine_MissingColumn(t *testing.T) {
	m, err := ParseMapping(strings.NewReader(mappingYAML))
	require.NoError(t, err)

	_, err = Combine(m, memOpener(map[string]string{
		"reddit_text.csv":     "title,text\nx,y\n",
		"tmobile_reviews.csv": tmobileCSV,
	}))
	assert.ErrorIs(t, err, ErrMissingColumn)
}

func TestCombine_MissingFile(t *testing.T) {
	m, err := ParseMapping(strings.NewReader(mappingYAML))
	require.NoError(t, err)

	_, err = Combine(m, memOpener(map[string]string{}))
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestFillSentiment(t *testing.T) {
	m, err := ParseMapping(strings.NewReader(`
sources:
  - file: a.csv
    source: reddit
    columns: {text: text, sentiment: sentiment}
`))
	require.NoError(t, err)

	ds, err := Combine(m, memOpener(map[string]string{
		"a.csv": "text,sentiment\nI love this plan so much,\nWorst outage ever. Awful service.,\nfine,Neutral\n,\n",
	}))
	require.NoError(t, err)

	assert.Equal(t, 2, ds.FillSentiment())
	assert.Equal(t, "positive", ds.Rows[0]["sentiment"])
	assert.Equal(t, "negative", ds.Rows[1]["sentiment"])
	assert.Equal(t, "Neutral", ds.Rows[2]["sentiment"])
}

func TestFillSentiment_AddsHeader(t *testing.T) {
	ds := Dataset{
		Headers: []string{"text"},
		Rows:    []models.RawRecord{{"text": "I love it"}},
	}
	ds.FillSentiment()
	assert.Equal(t, []string{"text", "sentiment"}, ds.Headers)
}

func TestWriteCSV_RoundTripsThroughLoader(t *testing.T) {
	ds := Dataset{
		Headers: []string{"text", "score", "location"},
		Rows: []models.RawRecord{
			{"text": "has, comma", "score": "3"},
			{"text": "quoted \"word\"", "location": "TX"},
		},
	}

	var buf bytes.Buffer
	require.NoError(t, ds.WriteCSV(&buf))

	records, err := loader.Decode(&buf)
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, "has, comma", records[0]["text"])
	assert.Equal(t, "", records[0]["location"])
	assert.Equal(t, "quoted \"word\"", records[1]["text"])
	assert.Equal(t, "TX", records[1]["location"])
}

func TestLoadMapping_ResolvesRelativePaths(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "mapping.yaml")
	require.NoError(t, os.WriteFile(path, []byte(mappingYAML), 0o644))

	m, err := LoadMapping(path)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "reddit_text.csv"), m.Sources[0].Path)
	assert.Equal(t, filepath.Join(dir, "combined_data.csv"), m.Output)
}
