package handlers

import (
	"context"

	"discord-modbot/bot"
	"discord-modbot/handlers/message"
	"discord-modbot/models"
	"discord-modbot/utils"

	"github.com/bwmarrin/discordgo"
	"go.uber.org/zap"
)

// PolicyStore is the channel policy surface commands operate on.
// *policy.Store implements it.
type PolicyStore interface {
	Set(ctx context.Context, channelID, topic string) (models.TopicLabel, error)
	Get(channelID string) (models.TopicLabel, bool)
	Clear(ctx context.Context, channelID string) (bool, error)
	List() []models.TopicLabel
}

// Analyzer runs sentiment reports. *analysis.Engine implements it.
type Analyzer interface {
	RunInput(ctx context.Context, channelID, window string) (models.AnalysisReport, error)
}

// ErrorReporter surfaces failures to operators. *utils.Reporter implements it.
type ErrorReporter interface {
	Report(module, operation string, err error)
}

// Handler routes Discord events to the commands and the moderation engine.
type Handler struct {
	Policies PolicyStore
	Analysis Analyzer
	Messages message.MessageHandler
	Auth     *utils.Auth
	Reporter ErrorReporter
	Prefix   string
	Logger   *zap.Logger
}

// Register all handlers to the bot.
func Register(b *bot.Bot, h *Handler) {
	b.Session.AddHandler(h.InteractionCreate)
	b.Session.AddHandler(h.MessageCreate)
	b.Session.AddHandler(h.MessageUpdate)
	b.Session.AddHandler(h.MessageDelete)
	b.Session.AddHandler(h.ChannelDelete)
	b.Session.AddHandler(h.ThreadDelete)

	b.Session.AddHandler(func(s *discordgo.Session, r *discordgo.Ready) {
		h.Logger.Info("logged in", zap.String("user", s.State.User.Username), zap.Int("guilds", len(r.Guilds)))
	})
}
