package sentiment

import (
	"html"
	"regexp"
	"strings"

	"github.com/jonreiter/govader"
	"github.com/russross/blackfriday/v2"
	"github.com/spacesedan/pulseboard/internal/models"
)

const (
	POSITIVE_THRESHOLD = 0.20
	NEGATIVE_THRESHOLD = -0.20
)

var (
	analyzer    = govader.NewSentimentIntensityAnalyzer()
	linkPattern = regexp.MustCompile(`\[(.*?)\]\((https?:\/\/[^\s\)]+)\)`)
	urlPattern  = regexp.MustCompile(`https?://\S+|www\.\S+`)
	tagPattern  = regexp.MustCompile(`<[^>]*>`)
)

func RemoveLinks(input string) string {
	input = linkPattern.ReplaceAllString(input, "$1")
	return urlPattern.ReplaceAllString(input, "")
}

// ConvertMarkdownToText renders input and drops the markup, leaving the
// words VADER should score.
func ConvertMarkdownToText(input string) string {
	output := blackfriday.Run([]byte(RemoveLinks(input)), blackfriday.WithNoExtensions())
	plain := html.UnescapeString(tagPattern.ReplaceAllString(string(output), " "))
	return strings.Join(strings.Fields(plain), " ")
}

func AnalyzeWithVADER(text string) (float64, models.Sentiment) {
	plain := ConvertMarkdownToText(text)
	if plain == "" {
		return 0, models.SentimentNeutral
	}
	score := analyzer.PolarityScores(plain).Compound
	return score, LabelFor(score)
}

func LabelFor(compound float64) models.Sentiment {
	switch {
	case compound >= POSITIVE_THRESHOLD:
		return models.SentimentPositive
	case compound <= NEGATIVE_THRESHOLD:
		return models.SentimentNegative
	default:
		return models.SentimentNeutral
	}
}
