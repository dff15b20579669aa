package service

import (
	"regexp"
	"strings"

	"github.com/anufa/anufa-backend/internal/app/model"
	apperrors "github.com/anufa/anufa-backend/internal/errors"
)

const (
	maxAnalyzedTextLength = 2000
	recentOutcomeWindow   = 5
)

// Sentiment holds keyword sentiment scores normalized to sum to 1, or all
// zero when no keyword matched.
type Sentiment struct {
	Positive float64 `json:"positive"`
	Negative float64 `json:"negative"`
	Neutral  float64 `json:"neutral"`
}

type TextAnalysis struct {
	Sentiment       Sentiment          `json:"sentiment"`
	Intent          map[string]float64 `json:"intent"`
	PrimaryIntent   string             `json:"primary_intent"`
	Attributes      []string           `json:"mentioned_attributes"`
	Emotions        map[string]float64 `json:"emotions"`
	DominantEmotion string             `json:"dominant_emotion"`
}

type keywordGroup struct {
	name     string
	keywords []string
}

type patternGroup struct {
	name     string
	patterns []*regexp.Regexp
}

var (
	sentimentKeywords = []keywordGroup{
		{"positive", []string{"excellent", "amazing", "love", "perfect", "great", "fantastic", "wonderful"}},
		{"negative", []string{"terrible", "awful", "hate", "worst", "disappointing", "poor", "bad"}},
		{"neutral", []string{"okay", "fine", "average", "normal", "standard"}},
	}

	intentPatterns = []patternGroup{
		compilePatterns("purchase_intent", `buy`, `purchase`, `order`, `want to get`, `need`),
		compilePatterns("research_intent", `compare`, `review`, `features`, `specifications`, `details`),
		compilePatterns("support_intent", `help`, `problem`, `issue`, `support`, `return`, `refund`),
		compilePatterns("browsing_intent", `looking`, `browsing`, `exploring`, `searching`),
	}

	attributeKeywords = []keywordGroup{
		{"price", []string{"cheap", "expensive", "affordable", "cost", "price"}},
		{"quality", []string{"quality", "durable", "sturdy", "reliable"}},
		{"design", []string{"beautiful", "stylish", "elegant", "design", "aesthetic"}},
		{"functionality", []string{"functional", "useful", "practical", "features"}},
		{"brand", []string{"brand", "manufacturer", "company"}},
	}

	emotionKeywords = []keywordGroup{
		{"joy", []string{"happy", "excited", "thrilled", "delighted", "pleased"}},
		{"anger", []string{"angry", "frustrated", "annoyed", "upset", "furious"}},
		{"sadness", []string{"sad", "disappointed", "unhappy", "depressed", "down"}},
		{"fear", []string{"worried", "anxious", "concerned", "nervous", "scared"}},
		{"surprise", []string{"surprised", "amazed", "shocked", "astonished", "stunned"}},
		{"disgust", []string{"disgusted", "repulsed", "revolted", "appalled", "sickened"}},
	}
)

func compilePatterns(name string, exprs ...string) patternGroup {
	g := patternGroup{name: name}
	for _, expr := range exprs {
		g.patterns = append(g.patterns, regexp.MustCompile(expr))
	}
	return g
}

// TextAnalyzer scores free text with fixed keyword lists. It is stateless and
// safe for concurrent use.
type TextAnalyzer struct{}

func NewTextAnalyzer() *TextAnalyzer {
	return &TextAnalyzer{}
}

// Analyze scores text; history supplies recent interaction outcomes that
// shift the emotional read.
func (a *TextAnalyzer) Analyze(text string, history []model.Interaction) (*TextAnalysis, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, apperrors.NewValidation("text", "is required")
	}
	if len(text) > maxAnalyzedTextLength {
		return nil, apperrors.NewValidation("text", "must be at most 2000 characters")
	}

	lower := strings.ToLower(text)
	analysis := &TextAnalysis{
		Sentiment:  a.Sentiment(lower),
		Intent:     make(map[string]float64, len(intentPatterns)),
		Attributes: []string{},
	}

	for _, g := range intentPatterns {
		matches := 0
		for _, re := range g.patterns {
			matches += len(re.FindAllStringIndex(lower, -1))
		}
		analysis.Intent[g.name] = float64(matches) / float64(len(g.patterns))
	}
	analysis.PrimaryIntent = strongest(intentPatternNames(), analysis.Intent)

	for _, g := range attributeKeywords {
		if keywordHits(lower, g.keywords) > 0 {
			analysis.Attributes = append(analysis.Attributes, g.name)
		}
	}

	analysis.Emotions = emotions(lower, history)
	analysis.DominantEmotion = strongest(groupNames(emotionKeywords), analysis.Emotions)
	return analysis, nil
}

// Sentiment scores text that is already lower-cased.
func (a *TextAnalyzer) Sentiment(lower string) Sentiment {
	scores := make(map[string]float64, len(sentimentKeywords))
	for _, g := range sentimentKeywords {
		scores[g.name] = float64(keywordHits(lower, g.keywords)) / float64(len(g.keywords))
	}
	normalize(scores)
	return Sentiment{
		Positive: scores["positive"],
		Negative: scores["negative"],
		Neutral:  scores["neutral"],
	}
}

func emotions(lower string, history []model.Interaction) map[string]float64 {
	scores := make(map[string]float64, len(emotionKeywords))
	for _, g := range emotionKeywords {
		scores[g.name] = float64(keywordHits(lower, g.keywords)) / float64(len(g.keywords))
	}

	recent := history
	if len(recent) > recentOutcomeWindow {
		recent = recent[len(recent)-recentOutcomeWindow:]
	}
	negative := 0
	for _, in := range recent {
		if in.Outcome == "negative" {
			negative++
		}
	}
	if negative > 2 {
		scores["anger"] += 0.2
		scores["sadness"] += 0.1
	}

	normalize(scores)
	return scores
}

func keywordHits(lower string, keywords []string) int {
	hits := 0
	for _, k := range keywords {
		if strings.Contains(lower, k) {
			hits++
		}
	}
	return hits
}

func normalize(scores map[string]float64) {
	var total float64
	for _, v := range scores {
		total += v
	}
	if total == 0 {
		return
	}
	for k, v := range scores {
		scores[k] = v / total
	}
}

// strongest returns the first key in order holding the maximum score, or ""
// when every score is zero.
func strongest(order []string, scores map[string]float64) string {
	best, bestScore := "", 0.0
	for _, k := range order {
		if scores[k] > bestScore {
			best, bestScore = k, scores[k]
		}
	}
	return best
}

func groupNames(groups []keywordGroup) []string {
	names := make([]string, 0, len(groups))
	for _, g := range groups {
		names = append(names, g.name)
	}
	return names
}

func intentPatternNames() []string {
	names := make([]string, 0, len(intentPatterns))
	for _, g := range intentPatterns {
		names = append(names, g.name)
	}
	return names
}
