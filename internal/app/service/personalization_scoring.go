package service

import (
	"math"
	"math/rand"
	"time"

	"github.com/anufa/anufa-backend/internal/app/model"
	"github.com/shopspring/decimal"
)

const (
	defaultProfileAge = 30
	preferenceStep    = 0.05
	baseLTV           = 100.0
	ltvPerInteraction = 5.0
)

var lifecycleMultipliers = map[model.LifecycleStage]float64{
	model.LifecycleNew:      1.0,
	model.LifecycleEngaged:  1.5,
	model.LifecycleLoyal:    2.0,
	model.LifecycleChampion: 3.0,
}

func profileAge(d model.Demographics) int {
	if d.Age <= 0 {
		return defaultProfileAge
	}
	return d.Age
}

// initialPreferences seeds category affinities from demographics.
func initialPreferences(d model.Demographics) map[string]float64 {
	prefs := map[string]float64{
		"electronics": 0.3,
		"clothing":    0.3,
		"books":       0.2,
		"home_garden": 0.2,
		"sports":      0.2,
	}

	age := profileAge(d)
	if age < 30 {
		prefs["electronics"] += 0.2
		prefs["sports"] += 0.1
	} else if age > 50 {
		prefs["home_garden"] += 0.2
		prefs["books"] += 0.1
	}

	switch d.Gender {
	case "female":
		prefs["clothing"] += 0.15
	case "male":
		prefs["electronics"] += 0.1
		prefs["sports"] += 0.1
	}
	return prefs
}

func uniform(rng *rand.Rand, lo, hi float64) float64 {
	return lo + rng.Float64()*(hi-lo)
}

func initialTraits(d model.Demographics, rng *rand.Rand) model.PersonalityTraits {
	t := model.PersonalityTraits{
		Openness:          uniform(rng, 0.3, 0.9),
		Conscientiousness: uniform(rng, 0.3, 0.9),
		Extraversion:      uniform(rng, 0.2, 0.8),
		Agreeableness:     uniform(rng, 0.4, 0.9),
		Neuroticism:       uniform(rng, 0.1, 0.6),
	}

	age := profileAge(d)
	if age > 50 {
		t.Conscientiousness += 0.1
		t.Openness -= 0.05
	} else if age < 25 {
		t.Openness += 0.1
		t.Neuroticism += 0.05
	}

	t.Openness = clamp01(t.Openness)
	t.Conscientiousness = clamp01(t.Conscientiousness)
	t.Extraversion = clamp01(t.Extraversion)
	t.Agreeableness = clamp01(t.Agreeableness)
	t.Neuroticism = clamp01(t.Neuroticism)
	return t
}

// lifecycleFor buckets the interaction count; bounds are exclusive.
func lifecycleFor(count int) model.LifecycleStage {
	switch {
	case count > 50:
		return model.LifecycleChampion
	case count > 20:
		return model.LifecycleLoyal
	case count > 5:
		return model.LifecycleEngaged
	}
	return model.LifecycleNew
}

// daysSince counts whole elapsed days, never negative.
func daysSince(then, now time.Time) int {
	if then.IsZero() || now.Before(then) {
		return 0
	}
	return int(now.Sub(then).Hours() / 24)
}

// churnRisk uses the time since the profile's previous update, so it must be
// evaluated before LastUpdated is moved forward.
func churnRisk(p *model.CustomerProfile, now time.Time) float64 {
	days := daysSince(p.LastUpdated, now)
	frequency := float64(p.InteractionCount()) / float64(max(1, days))

	base := math.Min(0.9, float64(days)/30.0)
	frequencyAdj := math.Min(0.3, frequency*0.1)
	sentimentAdj := p.SentimentScores.Negative * 0.2
	return clamp01(base - frequencyAdj + sentimentAdj)
}

func personalityMultiplier(t model.PersonalityTraits) float64 {
	return 0.5*t.Conscientiousness + 0.3*t.Openness + 0.2
}

func predictedLTV(p *model.CustomerProfile) float64 {
	stage, ok := lifecycleMultipliers[p.LifecycleStage]
	if !ok {
		stage = 1.0
	}
	ltv := (baseLTV + float64(p.InteractionCount())*ltvPerInteraction) * stage * personalityMultiplier(p.PersonalityTraits)
	return roundCents(decimal.NewFromFloat(math.Max(0, ltv))).InexactFloat64()
}

// evaluateMetrics refreshes the derived fields and stamps LastUpdated.
func evaluateMetrics(p *model.CustomerProfile, now time.Time) {
	p.LifecycleStage = lifecycleFor(p.InteractionCount())
	p.ChurnRisk = churnRisk(p, now)
	p.PredictedLTV = predictedLTV(p)
	p.LastUpdated = now
}

// nudgePreference raises a known category's affinity, capped at 1.
func nudgePreference(p *model.CustomerProfile, category string) {
	current, known := p.Preferences[category]
	if category == "" || !known {
		return
	}
	p.Preferences[category] = math.Min(1.0, current+preferenceStep)
}

// foldSentiment merges one message's sentiment into the running mean.
func foldSentiment(s *model.SentimentScores, m Sentiment) {
	n := float64(s.Samples)
	s.Positive = (s.Positive*n + m.Positive) / (n + 1)
	s.Negative = (s.Negative*n + m.Negative) / (n + 1)
	s.Neutral = (s.Neutral*n + m.Neutral) / (n + 1)
	s.Samples++
}
