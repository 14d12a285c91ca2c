package engine

import (
	"testing"
	"time"

	"github.com/spacesedan/pulseboard/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildTrendSeries_FillsGaps(t *testing.T) {
	posts := []models.Post{
		datedPost("coverage", "2024-01-10"),
		datedPost("coverage", "2024-04-02"),
	}

	series := BuildTrendSeries(posts, []string{"coverage"})

	require.Len(t, series, 4)
	assert.Equal(t, "2024-01", series[0].Month)
	assert.Equal(t, "2024-02", series[1].Month)
	assert.Equal(t, "2024-03", series[2].Month)
	assert.Equal(t, "2024-04", series[3].Month)
	assert.Equal(t, 1, series[0].Counts["coverage"])
	assert.Equal(t, 0, series[1].Counts["coverage"])
	assert.Equal(t, 0, series[2].Counts["coverage"])
	assert.Equal(t, 1, series[3].Counts["coverage"])
}

func TestBuildTrendSeries_EveryTopicInEveryPoint(t *testing.T) {
	posts := []models.Post{
		datedPost("billing", "2023-12-01"),
		datedPost("speed", "2024-01-15"),
		datedPost("speed", "2024-01-16"),
	}

	series := BuildTrendSeries(posts, []string{"billing", "speed"})

	require.Len(t, series, 2)
	assert.Equal(t, map[string]int{"billing": 1, "speed": 0}, series[0].Counts)
	assert.Equal(t, map[string]int{"billing": 0, "speed": 2}, series[1].Counts)
}

func TestBuildTrendSeries_CrossesYearBoundary(t *testing.T) {
	posts := []models.Post{
		datedPost("x", "2023-11-30"),
		datedPost("x", "2024-02-01"),
	}

	series := BuildTrendSeries(posts, []string{"x"})

	require.Len(t, series, 4)
	assert.Equal(t, "2023-11", series[0].Month)
	assert.Equal(t, "2023-12", series[1].Month)
	assert.Equal(t, "2024-01", series[2].Month)
	assert.Equal(t, "2024-02", series[3].Month)
}

func TestBuildTrendSeries_SkipsUndatedAndUnselected(t *testing.T) {
	posts := []models.Post{
		post("x"),
		datedPost("other", "2020-01-01"),
		datedPost("x", "2024-06-01"),
	}

	series := BuildTrendSeries(posts, []string{"x"})

	require.Len(t, series, 1)
	assert.Equal(t, "2024-06", series[0].Month)
	assert.NotContains(t, series[0].Counts, "other")
}

func TestBuildTrendSeries_NoQualifyingPosts(t *testing.T) {
	assert.Empty(t, BuildTrendSeries(nil, []string{"x"}))
	assert.Empty(t, BuildTrendSeries([]models.Post{post("x")}, []string{"x"}))
	assert.Empty(t, BuildTrendSeries([]models.Post{datedPost("x", "2024-01-01")}, nil))
}

func TestBuildTrendSeries_FragmentDateDoesNotWidenRange(t *testing.T) {
	posts := NormalizeIn([]models.RawRecord{
		{"text": "a", "topic_name": "x", "date": "2024-03-05"},
		{"text": "b", "topic_name": "x", "date": "12:"},
	}, time.UTC)
	require.Len(t, posts, 2)

	series := BuildTrendSeries(posts, []string{"x"})

	require.Len(t, series, 1)
	assert.Equal(t, "2024-03", series[0].Month)
	assert.Equal(t, 1, series[0].Counts["x"])
}
