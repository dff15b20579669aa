package service

import (
	"testing"

	"github.com/anufa/anufa-backend/internal/app/model"
	apperrors "github.com/anufa/anufa-backend/internal/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTextAnalyzer_Sentiment(t *testing.T) {
	a := NewTextAnalyzer()

	s := a.Sentiment("this is great, i love it but shipping was bad")
	// positive 2/7, negative 1/7, normalized
	assert.InDelta(t, 2.0/3.0, s.Positive, 1e-9)
	assert.InDelta(t, 1.0/3.0, s.Negative, 1e-9)
	assert.Zero(t, s.Neutral)

	assert.Equal(t, Sentiment{}, a.Sentiment("no keywords here"))
}

func TestTextAnalyzer_Analyze(t *testing.T) {
	a := NewTextAnalyzer()

	analysis, err := a.Analyze("I need help, my order has a problem and I want a refund. Happy with the price though", nil)
	require.NoError(t, err)
	assert.Equal(t, "support_intent", analysis.PrimaryIntent)
	assert.InDelta(t, 3.0/6.0, analysis.Intent["support_intent"], 1e-9)
	assert.Equal(t, []string{"price"}, analysis.Attributes)
	assert.Equal(t, "joy", analysis.DominantEmotion)
}

func TestTextAnalyzer_RecentNegativeOutcomesRaiseAnger(t *testing.T) {
	a := NewTextAnalyzer()
	history := []model.Interaction{
		{Outcome: "negative"},
		{Outcome: "positive"},
		{Outcome: "negative"},
		{Outcome: "negative"},
		{Outcome: "negative"},
	}

	analysis, err := a.Analyze("where is my parcel", history)
	require.NoError(t, err)
	assert.Equal(t, "anger", analysis.DominantEmotion)
	assert.InDelta(t, 2.0/3.0, analysis.Emotions["anger"], 1e-9)
	assert.InDelta(t, 1.0/3.0, analysis.Emotions["sadness"], 1e-9)

	// only the last five interactions count
	older := make([]model.Interaction, 0, len(history)+3)
	older = append(older, history...)
	older = append(older, model.Interaction{Outcome: "positive"}, model.Interaction{Outcome: "positive"}, model.Interaction{Outcome: "positive"})
	analysis, err = a.Analyze("where is my parcel", older)
	require.NoError(t, err)
	assert.Empty(t, analysis.DominantEmotion)
}

func TestTextAnalyzer_RejectsEmptyText(t *testing.T) {
	_, err := NewTextAnalyzer().Analyze("   ", nil)
	v, ok := apperrors.AsValidation(err)
	require.True(t, ok)
	assert.Equal(t, "text", v.Field)
}
