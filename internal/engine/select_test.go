package engine

import (
	"testing"

	"github.com/spacesedan/pulseboard/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSelectForTopic_MatchesTopicCaseInsensitively(t *testing.T) {
	posts := []models.Post{post("Coverage"), post("billing"), post("COVERAGE")}

	selected := SelectForTopic(posts, "coverage", SelectOptions{SortKey: SortLikes})

	assert.Len(t, selected, 2)
}

func TestSelectForTopic_NewestPutsUndatedLast(t *testing.T) {
	undated := post("x")
	undated.Text = "undated"
	older := datedPost("x", "2024-01-01")
	older.Text = "older"
	newer := datedPost("x", "2024-05-01")
	newer.Text = "newer"

	selected := SelectForTopic([]models.Post{undated, older, newer}, "x", SelectOptions{SortKey: SortNewest})

	assert.Equal(t, []string{"newer", "older", "undated"}, texts(selected))
}

func TestSelectForTopic_DefaultSortIsNewest(t *testing.T) {
	older := datedPost("x", "2023-01-01")
	older.Text = "older"
	newer := datedPost("x", "2024-01-01")
	newer.Text = "newer"

	selected := SelectForTopic([]models.Post{older, newer}, "x", SelectOptions{})

	assert.Equal(t, []string{"newer", "older"}, texts(selected))
}

func TestSelectForTopic_LikesDescendingAndStable(t *testing.T) {
	a := post("x")
	a.Text, a.Likes = "a", 3
	b := post("x")
	b.Text, b.Likes = "b", 10
	c := post("x")
	c.Text, c.Likes = "c", 3

	selected := SelectForTopic([]models.Post{a, b, c}, "x", SelectOptions{SortKey: SortLikes})

	assert.Equal(t, []string{"b", "a", "c"}, texts(selected))
}

func TestSelectForTopic_SentimentFlags(t *testing.T) {
	pos := withSentiment(post("x"), models.SentimentPositive)
	pos.Text = "pos"
	neg := withSentiment(post("x"), models.SentimentNegative)
	neg.Text = "neg"
	neu := withSentiment(post("x"), models.SentimentNeutral)
	neu.Text = "neu"
	unscored := post("x")
	unscored.Text = "unscored"
	posts := []models.Post{pos, neg, neu, unscored}

	cases := []struct {
		name   string
		filter *SentimentFilter
		want   []string
	}{
		{"no filter", nil, []string{"pos", "neg", "neu", "unscored"}},
		{"both off", &SentimentFilter{}, []string{"neu", "unscored"}},
		{"positive only", &SentimentFilter{Positive: true}, []string{"pos", "neu", "unscored"}},
		{"negative only", &SentimentFilter{Negative: true}, []string{"neg", "neu", "unscored"}},
		{"both on", &SentimentFilter{Positive: true, Negative: true}, []string{"pos", "neg", "neu", "unscored"}},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			selected := SelectForTopic(posts, "x", SelectOptions{Sentiment: tc.filter, SortKey: SortLikes})
			assert.Equal(t, tc.want, texts(selected))
		})
	}
}

func TestSelectForTopic_Region(t *testing.T) {
	tx := post("x")
	tx.Text, tx.Region = "tx", "TX"
	ny := post("x")
	ny.Text, ny.Region = "ny", "NY"
	none := post("x")
	none.Text = "none"

	selected := SelectForTopic([]models.Post{tx, ny, none}, "x", SelectOptions{Region: "tx", SortKey: SortLikes})

	assert.Equal(t, []string{"tx"}, texts(selected))
}

func TestSelectForTopic_DoesNotMutateInput(t *testing.T) {
	a := datedPost("x", "2023-01-01")
	a.Text = "a"
	b := datedPost("x", "2024-01-01")
	b.Text = "b"
	posts := []models.Post{a, b}

	selected := SelectForTopic(posts, "x", SelectOptions{SortKey: SortNewest})

	require.Equal(t, []string{"b", "a"}, texts(selected))
	assert.Equal(t, []string{"a", "b"}, texts(posts))
}

func TestSelectForTopic_UnknownSortKeepsInputOrder(t *testing.T) {
	a := datedPost("x", "2023-01-01")
	a.Text = "a"
	b := datedPost("x", "2024-01-01")
	b.Text = "b"

	selected := SelectForTopic([]models.Post{a, b}, "x", SelectOptions{SortKey: "oldest"})

	assert.Equal(t, []string{"a", "b"}, texts(selected))
}

func TestInferSource(t *testing.T) {
	assert.Equal(t, "reddit", InferSource("https://www.reddit.com/r/tmobile/comments/abc", "web"))
	assert.Equal(t, "reddit", InferSource("https://i.redd.it/x.png", "web"))
	assert.Equal(t, "twitter", InferSource("https://x.com/TMobile/status/1", "web"))
	assert.Equal(t, "t-mobile", InferSource("https://community.t-mobile.com/t5/x", "web"))
	assert.Equal(t, "web", InferSource("https://example.com", "web"))
	assert.Equal(t, "web", InferSource("", "web"))
	assert.Equal(t, "web", InferSource("not a url", "web"))
}
