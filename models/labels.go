package models

import (
	"errors"
	"fmt"
	"strings"
)

// ErrUnknownTopic is returned when a topic name is not one of the fixed topic labels.
var ErrUnknownTopic = errors.New("unknown topic")

// TopicLabel is one of the four topics the topic classifier can predict.
type TopicLabel string

const (
	TopicWorld    TopicLabel = "World"
	TopicSports   TopicLabel = "Sports"
	TopicBusiness TopicLabel = "Business"
	TopicSciTech  TopicLabel = "Sci/Tech"
)

// topicLabels is ordered by the topic model's class index.
var topicLabels = []TopicLabel{TopicWorld, TopicSports, TopicBusiness, TopicSciTech}

// AllTopics returns the fixed topic vocabulary in model index order.
func AllTopics() []TopicLabel {
	out := make([]TopicLabel, len(topicLabels))
	copy(out, topicLabels)
	return out
}

// TopicNames returns the topic vocabulary as plain strings.
func TopicNames() []string {
	names := make([]string, len(topicLabels))
	for i, t := range topicLabels {
		names[i] = string(t)
	}
	return names
}

// ParseTopic canonicalizes a user or model supplied topic name.
// Matching is case-insensitive and ignores surrounding whitespace.
func ParseTopic(name string) (TopicLabel, error) {
	candidate := strings.TrimSpace(name)
	for _, t := range topicLabels {
		if strings.EqualFold(candidate, string(t)) {
			return t, nil
		}
	}
	return "", fmt.Errorf("%w: %q (choose from: %s)", ErrUnknownTopic, name, strings.Join(TopicNames(), ", "))
}

// TopicByIndex maps a topic model class index to its label.
func TopicByIndex(i int) (TopicLabel, bool) {
	if i < 0 || i >= len(topicLabels) {
		return "", false
	}
	return topicLabels[i], true
}

// SentimentLabel is one of the three sentiments the sentiment classifier can predict.
type SentimentLabel string

const (
	SentimentNegative SentimentLabel = "Negative"
	SentimentNeutral  SentimentLabel = "Neutral"
	SentimentPositive SentimentLabel = "Positive"
)

// sentimentLabels is ordered by the sentiment model's class index.
var sentimentLabels = []SentimentLabel{SentimentNegative, SentimentNeutral, SentimentPositive}

// AllSentiments returns the sentiment vocabulary in model index order.
func AllSentiments() []SentimentLabel {
	out := make([]SentimentLabel, len(sentimentLabels))
	copy(out, sentimentLabels)
	return out
}

// ParseSentiment canonicalizes a sentiment name. The boolean is false for anything
// outside the closed set.
func ParseSentiment(name string) (SentimentLabel, bool) {
	candidate := strings.TrimSpace(name)
	for _, s := range sentimentLabels {
		if strings.EqualFold(candidate, string(s)) {
			return s, true
		}
	}
	return "", false
}

// SentimentByIndex maps a sentiment model class index to its label.
func SentimentByIndex(i int) (SentimentLabel, bool) {
	if i < 0 || i >= len(sentimentLabels) {
		return "", false
	}
	return sentimentLabels[i], true
}

// ClassificationResult is a single prediction. It is produced fresh per call and
// never cached.
type ClassificationResult struct {
	Label      string  `json:"label"`
	Confidence float64 `json:"confidence"`
}
