package analysis

import (
	"context"
	"fmt"
	"strings"
	"time"

	"discord-modbot/duration"
	"discord-modbot/models"

	"go.uber.org/zap"
)

// HistorySource returns the messages posted in a channel since a point in time.
type HistorySource interface {
	FetchHistory(ctx context.Context, channelID string, since time.Time) ([]models.Message, error)
}

// SentimentBatcher classifies many texts at once. *classifier.Sentiment implements it.
type SentimentBatcher interface {
	ClassifyBatch(ctx context.Context, texts []string, limit int) ([]models.ClassificationResult, error)
}

// Options tune report generation.
type Options struct {
	Concurrency int
	// ExportPath, when set, receives a per-message CSV of every run.
	ExportPath string
}

// Engine produces sentiment reports for a channel and a time window.
type Engine struct {
	history   HistorySource
	sentiment SentimentBatcher
	opts      Options
	logger    *zap.Logger

	// Now is the report clock.
	Now func() time.Time
}

func NewEngine(history HistorySource, sentiment SentimentBatcher, opts Options, logger *zap.Logger) *Engine {
	if opts.Concurrency < 1 {
		opts.Concurrency = 1
	}
	return &Engine{
		history:   history,
		sentiment: sentiment,
		opts:      opts,
		logger:    logger,
		Now:       time.Now,
	}
}

// RunInput parses a user-supplied window (blank means the default) and runs
// the analysis. Bad input fails with duration.ErrInvalidFormat or
// duration.ErrOutOfRange before any history is fetched.
func (e *Engine) RunInput(ctx context.Context, channelID, input string) (models.AnalysisReport, error) {
	window, err := duration.Parse(input)
	if err != nil {
		return models.AnalysisReport{}, err
	}
	return e.Run(ctx, channelID, window)
}

// Run analyses the channel's messages of the last window. A single
// classification failure fails the whole run; no partial report is returned.
func (e *Engine) Run(ctx context.Context, channelID string, window time.Duration) (models.AnalysisReport, error) {
	if err := duration.Validate(window); err != nil {
		return models.AnalysisReport{}, err
	}

	span := duration.WindowEndingAt(e.Now(), window)
	msgs, err := e.history.FetchHistory(ctx, channelID, span.Start)
	if err != nil {
		return models.AnalysisReport{}, fmt.Errorf("failed to fetch history for channel %s: %w", channelID, err)
	}

	kept := msgs[:0:0]
	texts := make([]string, 0, len(msgs))
	for _, m := range msgs {
		if strings.TrimSpace(m.Content) == "" {
			continue
		}
		if !m.Timestamp.IsZero() && m.Timestamp.Before(span.Start) {
			continue
		}
		kept = append(kept, m)
		texts = append(texts, m.Content)
	}

	start := time.Now()
	results, err := e.sentiment.ClassifyBatch(ctx, texts, e.opts.Concurrency)
	if err != nil {
		return models.AnalysisReport{}, fmt.Errorf("analysis of channel %s aborted: %w", channelID, err)
	}

	report := Aggregate(results)
	report.ChannelID = channelID
	report.Window = window
	report.WindowText = duration.Render(window)
	report.Since = span.Start
	report.Until = span.End

	e.logger.Info("channel analysed",
		zap.String("channel_id", channelID),
		zap.String("window", report.WindowText),
		zap.Int("messages", report.TotalMessages),
		zap.Float64("avg_confidence", report.AverageConfidence),
		zap.Duration("took", time.Since(start)))

	if e.opts.ExportPath != "" {
		if err := WriteExport(e.opts.ExportPath, exportRows(kept, results)); err != nil {
			// The report stands without its CSV.
			e.logger.Warn("analysis export failed", zap.String("path", e.opts.ExportPath), zap.Error(err))
		}
	}
	return report, nil
}
