package automation

import (
	"testing"

	"github.com/luminadesk/backend/internal/types"
)

func TestAnalyzeSentiment(t *testing.T) {
	tests := []struct {
		name string
		text string
		want types.Sentiment
	}{
		{"positive", "Thanks so much, the support was excellent and very helpful", types.SentimentPositive},
		{"negative", "This is terrible, the app keeps crashing and I want a refund", types.SentimentNegative},
		{"neutral no keywords", "I would like to change my billing address", types.SentimentNeutral},
		{"tie is neutral", "Great product, but the update is broken", types.SentimentNeutral},
		{"empty", "", types.SentimentNeutral},
		{"case insensitive", "TERRIBLE EXPERIENCE, VERY DISAPPOINTED", types.SentimentNegative},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := AnalyzeSentiment(tt.text); got != tt.want {
				t.Errorf("AnalyzeSentiment(%q) = %s, want %s", tt.text, got, tt.want)
			}
		})
	}
}
