// Package analysis computes on-demand sentiment reports over a channel's
// recent history.
package analysis

import (
	"math"

	"discord-modbot/models"
)

// Aggregate folds classification results into a report. Results whose label
// is not a sentiment label are ignored. Each percentage is rounded to one
// decimal on its own, so the three need not add up to exactly 100.0. The
// average confidence is rounded to four decimals and is 0 for no results.
func Aggregate(results []models.ClassificationResult) models.AnalysisReport {
	report := models.AnalysisReport{
		Counts:      make(map[models.SentimentLabel]int, 3),
		Percentages: make(map[models.SentimentLabel]float64, 3),
	}
	for _, label := range models.AllSentiments() {
		report.Counts[label] = 0
		report.Percentages[label] = 0
	}

	var sum float64
	for _, r := range results {
		label, ok := models.ParseSentiment(r.Label)
		if !ok {
			continue
		}
		report.Counts[label]++
		report.TotalMessages++
		sum += r.Confidence
	}
	if report.TotalMessages == 0 {
		return report
	}

	total := float64(report.TotalMessages)
	for label, n := range report.Counts {
		report.Percentages[label] = round(float64(n)/total*100, 1)
	}
	report.AverageConfidence = round(sum/total, 4)
	return report
}

func round(v float64, places int) float64 {
	p := math.Pow(10, float64(places))
	return math.Round(v*p) / p
}
