package utils

import (
	"fmt"
	"time"

	"github.com/bwmarrin/discordgo"
	"go.uber.org/zap"
)

const (
	ColorInfo  = 0x00ff00 // Green
	ColorWarn  = 0xffff00 // Yellow
	ColorError = 0xff0000 // Red
)

// NewLogger builds the process logger. level is a zap level name such as
// "debug" or "info".
func NewLogger(level string, development bool) (*zap.Logger, error) {
	cfg := zap.NewProductionConfig()
	if development {
		cfg = zap.NewDevelopmentConfig()
	}
	if level != "" {
		lvl, err := zap.ParseAtomicLevel(level)
		if err != nil {
			return nil, fmt.Errorf("invalid log level %q: %w", level, err)
		}
		cfg.Level = lvl
	}
	return cfg.Build()
}

// EmbedSender posts embeds to a channel. *discordgo.Session implements it.
type EmbedSender interface {
	ChannelMessageSendEmbed(channelID string, embed *discordgo.MessageEmbed, options ...discordgo.RequestOption) (*discordgo.Message, error)
}

// Reporter mirrors operational events to the admin channel as embeds. Every
// event is also written to the zap logger, which is the only sink when no
// admin channel is configured.
type Reporter struct {
	sender    EmbedSender
	channelID string
	logger    *zap.Logger
}

// NewReporter creates a reporter. sender may be nil.
func NewReporter(sender EmbedSender, channelID string, logger *zap.Logger) *Reporter {
	if channelID == "" {
		logger.Warn("bot.admin_channel_id is not set, admin channel reporting disabled")
	}
	return &Reporter{sender: sender, channelID: channelID, logger: logger}
}

// Log sends a log message to the admin channel.
func (r *Reporter) Log(level, module, operation, details string) {
	fields := []zap.Field{zap.String("module", module), zap.String("operation", operation), zap.String("details", details)}
	var color int
	switch level {
	case "WARN":
		color = ColorWarn
		r.logger.Warn("admin report", fields...)
	case "ERROR":
		color = ColorError
		r.logger.Error("admin report", fields...)
	default:
		color = ColorInfo
		r.logger.Info("admin report", fields...)
	}

	if r.sender == nil || r.channelID == "" {
		return
	}

	embed := &discordgo.MessageEmbed{
		Title:     fmt.Sprintf("Log Level: %s", level),
		Color:     color,
		Timestamp: time.Now().Format(time.RFC3339),
		Fields: []*discordgo.MessageEmbedField{
			{
				Name:   "Module",
				Value:  module,
				Inline: true,
			},
			{
				Name:   "Operation",
				Value:  operation,
				Inline: true,
			},
			{
				Name:  "Details",
				Value: truncate(details, 1024),
			},
		},
	}

	if _, err := r.sender.ChannelMessageSendEmbed(r.channelID, embed); err != nil {
		r.logger.Warn("failed to send report to admin channel", zap.Error(err))
	}
}

// Info logs an informational message.
func (r *Reporter) Info(module, operation, details string) {
	r.Log("INFO", module, operation, details)
}

// Warn logs a warning message.
func (r *Reporter) Warn(module, operation, details string) {
	r.Log("WARN", module, operation, details)
}

// Error logs an error message.
func (r *Reporter) Error(module, operation, details string) {
	r.Log("ERROR", module, operation, details)
}

// Report records a failure from one of the engines.
func (r *Reporter) Report(module, operation string, err error) {
	r.Error(module, operation, err.Error())
}

func truncate(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n-1]) + "…"
}
