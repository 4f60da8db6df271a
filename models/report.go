package models

import "time"

// AnalysisReport summarizes the sentiment of a channel over an analysis window.
// It is computed per request and never persisted.
type AnalysisReport struct {
	ChannelID         string                     `json:"channel_id"`
	Window            time.Duration              `json:"window"`
	WindowText        string                     `json:"window_text"`
	Since             time.Time                  `json:"since"`
	Until             time.Time                  `json:"until"`
	TotalMessages     int                        `json:"total_messages"`
	Counts            map[SentimentLabel]int     `json:"counts"`
	Percentages       map[SentimentLabel]float64 `json:"percentages"`
	AverageConfidence float64                    `json:"average_confidence"`
}
