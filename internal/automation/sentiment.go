package automation

import (
	"strings"

	"github.com/luminadesk/backend/internal/types"
)

var positiveWords = []string{
	"thanks", "thank", "great", "good", "excellent", "awesome", "love",
	"perfect", "happy", "pleased", "wonderful", "appreciate", "helpful",
}

var negativeWords = []string{
	"angry", "terrible", "awful", "bad", "broken", "hate", "horrible",
	"useless", "frustrated", "disappointed", "unacceptable", "worst",
	"refund", "cancel", "complaint", "slow", "crash", "error",
}

// AnalyzeSentiment classifies text by counting positive versus negative
// keyword hits. Ties (including no hits at all) are neutral. This is a
// deliberately simple heuristic used to tag tickets before rule
// evaluation, not an NLP model.
func AnalyzeSentiment(text string) types.Sentiment {
	lower := strings.ToLower(text)

	positive := 0
	for _, w := range positiveWords {
		positive += strings.Count(lower, w)
	}
	negative := 0
	for _, w := range negativeWords {
		negative += strings.Count(lower, w)
	}

	switch {
	case positive > negative:
		return types.SentimentPositive
	case negative > positive:
		return types.SentimentNegative
	default:
		return types.SentimentNeutral
	}
}
