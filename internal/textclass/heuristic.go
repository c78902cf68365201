package textclass

import (
	"math"
	"strings"
)

var fakeIndicators = []string{
	"shocking", "unbelievable", "you won't believe",
	"doctors hate", "secret", "conspiracy",
	"they don't want you to know", "banned",
	"miracle cure", "instant", "guaranteed",
}

var realIndicators = []string{
	"according to", "research shows", "study finds",
	"official", "government", "university",
	"professor", "scientist", "data shows",
}

// HeuristicClassify is the keyword-count fallback. It never fails. A tie
// (including no matches at all) is labelled REAL.
func HeuristicClassify(text string) Result {
	lower := strings.ToLower(text)
	fakeCount := countIndicators(lower, fakeIndicators)
	realCount := countIndicators(lower, realIndicators)

	if fakeCount > realCount {
		return Result{
			Label:      LabelFake,
			Confidence: math.Min(60+float64(fakeCount)*10, 85),
			Source:     SourceHeuristic,
		}
	}
	return Result{
		Label:      LabelReal,
		Confidence: math.Min(60+float64(realCount)*5, 80),
		Source:     SourceHeuristic,
	}
}

func countIndicators(text string, indicators []string) int {
	total := 0
	for _, phrase := range indicators {
		total += strings.Count(text, phrase)
	}
	return total
}
