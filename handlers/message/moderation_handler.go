package message

import (
	"context"
	"slices"
	"time"

	"discord-modbot/bot"
	"discord-modbot/models"
	"discord-modbot/moderation"

	"github.com/bwmarrin/discordgo"
	"go.uber.org/zap"
)

// Moderator is the moderation surface driven by message events.
// *moderation.Engine implements it.
type Moderator interface {
	HandleMessage(ctx context.Context, msg models.Message) (moderation.Decision, error)
	HandleMessageRemoved(ctx context.Context, channelID, messageID string) bool
	HandleMessageEdited(ctx context.Context, msg models.Message) bool
}

// ModerationHandler feeds guild messages to the moderation engine.
type ModerationHandler struct {
	moderator Moderator
	exclude   []string
	timeout   time.Duration
	logger    *zap.Logger
}

// NewModerationHandler creates a handler. Messages in excluded channels are
// never moderated; timeout bounds the work done per event.
func NewModerationHandler(moderator Moderator, exclude []string, timeout time.Duration, logger *zap.Logger) *ModerationHandler {
	return &ModerationHandler{
		moderator: moderator,
		exclude:   exclude,
		timeout:   timeout,
		logger:    logger.Named("moderation_handler"),
	}
}

func (h *ModerationHandler) skip(m *discordgo.Message) bool {
	return m == nil || m.GuildID == "" || slices.Contains(h.exclude, m.ChannelID)
}

func (h *ModerationHandler) eventContext() (context.Context, context.CancelFunc) {
	if h.timeout <= 0 {
		return context.WithCancel(context.Background())
	}
	return context.WithTimeout(context.Background(), h.timeout)
}

// HandleCreate classifies a new message against its channel's policy.
func (h *ModerationHandler) HandleCreate(s *discordgo.Session, m *discordgo.MessageCreate) {
	if m.Message == nil || m.Author == nil || m.Author.Bot || h.skip(m.Message) {
		return
	}
	ctx, cancel := h.eventContext()
	defer cancel()

	decision, err := h.moderator.HandleMessage(ctx, bot.ToModel(m.Message))
	if err != nil {
		// The engine has already failed open; nothing is pending for this message.
		h.logger.Debug("message left unmoderated", zap.String("message_id", m.ID), zap.Error(err))
		return
	}
	if decision.Outcome != moderation.OutcomeAllowed {
		h.logger.Info("message flagged",
			zap.String("message_id", m.ID),
			zap.String("channel_id", m.ChannelID),
			zap.Stringer("outcome", decision.Outcome),
			zap.String("predicted", string(decision.PredictedTopic)),
			zap.String("allowed", string(decision.AllowedTopic)),
			zap.Float64("confidence", decision.Confidence),
		)
	}
}

// HandleUpdate lets an edit withdraw a pending deletion.
func (h *ModerationHandler) HandleUpdate(s *discordgo.Session, m *discordgo.MessageUpdate) {
	if m.Message == nil || (m.Author != nil && m.Author.Bot) || h.skip(m.Message) {
		return
	}
	ctx, cancel := h.eventContext()
	defer cancel()

	if h.moderator.HandleMessageEdited(ctx, bot.ToModel(m.Message)) {
		h.logger.Info("pending deletion withdrawn after edit", zap.String("message_id", m.ID))
	}
}

// HandleDelete cancels the pending deletion of a message removed by someone else.
func (h *ModerationHandler) HandleDelete(s *discordgo.Session, m *discordgo.MessageDelete) {
	if m.Message == nil {
		return
	}
	ctx, cancel := h.eventContext()
	defer cancel()

	if h.moderator.HandleMessageRemoved(ctx, m.ChannelID, m.ID) {
		h.logger.Debug("pending deletion cancelled, message already removed", zap.String("message_id", m.ID))
	}
}
