// Package scanner posts periodic sentiment reports for a fixed set of channels.
package scanner

import (
	"context"
	"time"

	"discord-modbot/duration"
	"discord-modbot/models"
	"discord-modbot/utils"

	"go.uber.org/zap"
)

// Runner produces a sentiment report. *analysis.Engine implements it.
type Runner interface {
	Run(ctx context.Context, channelID string, window time.Duration) (models.AnalysisReport, error)
}

// ErrorReporter surfaces failures to operators.
type ErrorReporter interface {
	Report(module, operation string, err error)
}

// Scanner walks the configured channels and posts one report into each.
type Scanner struct {
	runner   Runner
	sender   utils.EmbedSender
	reporter ErrorReporter
	channels []string
	window   time.Duration
	logger   *zap.Logger
}

// New creates a scanner over channels. A zero window uses duration.Default.
func New(runner Runner, sender utils.EmbedSender, reporter ErrorReporter, channels []string, window time.Duration, logger *zap.Logger) *Scanner {
	if window <= 0 {
		window = duration.Default
	}
	return &Scanner{
		runner:   runner,
		sender:   sender,
		reporter: reporter,
		channels: channels,
		window:   window,
		logger:   logger.Named("scanner"),
	}
}

// StartScanning runs one pass over every channel and returns how many reports
// were posted. A failing channel does not stop the pass. Channels with no
// messages in the window get no report.
func (s *Scanner) StartScanning(ctx context.Context) int {
	if len(s.channels) == 0 {
		return 0
	}
	s.logger.Info("starting the report sweep", zap.Int("channels", len(s.channels)), zap.Duration("window", s.window))

	posted := 0
	for _, channelID := range s.channels {
		if ctx.Err() != nil {
			s.logger.Warn("report sweep interrupted", zap.Error(ctx.Err()))
			break
		}
		if s.scanChannel(ctx, channelID) {
			posted++
		}
	}

	s.logger.Info("report sweep finished", zap.Int("posted", posted))
	return posted
}

func (s *Scanner) scanChannel(ctx context.Context, channelID string) bool {
	report, err := s.runner.Run(ctx, channelID, s.window)
	if err != nil {
		s.reporter.Report("scanner", "analyze", err)
		return false
	}
	if report.TotalMessages == 0 {
		s.logger.Debug("no messages in window, skipping report", zap.String("channel_id", channelID))
		return false
	}
	if _, err := s.sender.ChannelMessageSendEmbed(channelID, utils.ReportEmbed(report)); err != nil {
		s.reporter.Report("scanner", "post_report", err)
		return false
	}
	return true
}
