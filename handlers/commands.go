package handlers

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"discord-modbot/classifier"
	"discord-modbot/command"
	"discord-modbot/duration"
	"discord-modbot/models"
	"discord-modbot/utils"

	"github.com/bwmarrin/discordgo"
	"go.uber.org/zap"
)

// Response is a command reply, independent of how the command arrived.
type Response struct {
	Content   string
	Embed     *discordgo.MessageEmbed
	Ephemeral bool
}

// commandPermissions lists the level each command requires.
var commandPermissions = map[string]string{
	command.TopicSet:   utils.LevelAdmin,
	command.TopicClear: utils.LevelAdmin,
	command.TopicGet:   utils.LevelGuest,
	command.TopicList:  utils.LevelGuest,
	command.Analyze:    utils.LevelGuest,
}

func (h *Handler) allowed(name, userID string, roles []string, permissions int64) bool {
	level, ok := commandPermissions[name]
	if !ok {
		return false
	}
	return h.Auth.CheckPermission(userID, roles, permissions, level)
}

func topicChoices() string {
	return strings.Join(models.TopicNames(), ", ")
}

// Execute runs a command for a channel. arg is the command's single argument:
// the topic for topicset, the window for analyze.
func (h *Handler) Execute(ctx context.Context, name, channelID, arg string) Response {
	switch name {
	case command.TopicSet:
		return h.topicSet(ctx, channelID, arg)
	case command.TopicGet:
		return h.topicGet(channelID)
	case command.TopicList:
		return Response{Content: fmt.Sprintf("📌 Available topics: %s", topicChoices())}
	case command.TopicClear:
		return h.topicClear(ctx, channelID)
	case command.Analyze:
		return h.analyze(ctx, channelID, arg)
	default:
		return Response{Content: "🚫 Internal error: unknown command.", Ephemeral: true}
	}
}

func (h *Handler) topicSet(ctx context.Context, channelID, arg string) Response {
	if strings.TrimSpace(arg) == "" {
		return Response{Content: fmt.Sprintf("❌ Usage: `%stopicset <topic>`. Choose from: %s", h.Prefix, topicChoices()), Ephemeral: true}
	}
	topic, err := h.Policies.Set(ctx, channelID, arg)
	if errors.Is(err, models.ErrUnknownTopic) {
		return Response{Content: fmt.Sprintf("❌ Invalid topic. Choose from: %s", topicChoices()), Ephemeral: true}
	}
	if err != nil {
		h.Reporter.Report("commands", "topicset", err)
		return Response{Content: "❌ Could not save the topic, please try again later.", Ephemeral: true}
	}
	h.Logger.Info("channel topic set", zap.String("channel_id", channelID), zap.String("topic", string(topic)))
	return Response{Content: fmt.Sprintf("✅ Topic for this channel set to **%s**.", topic)}
}

func (h *Handler) topicGet(channelID string) Response {
	if topic, ok := h.Policies.Get(channelID); ok {
		return Response{Content: fmt.Sprintf("ℹ️ Current topic for this channel is **%s**.", topic)}
	}
	return Response{Content: fmt.Sprintf("ℹ️ No topic is set for this channel yet. Use `%stopicset <topic>` to set one.", h.Prefix)}
}

func (h *Handler) topicClear(ctx context.Context, channelID string) Response {
	existed, err := h.Policies.Clear(ctx, channelID)
	if err != nil {
		h.Reporter.Report("commands", "topicclear", err)
		return Response{Content: "❌ Could not clear the topic, please try again later.", Ephemeral: true}
	}
	if !existed {
		return Response{Content: "ℹ️ No topic is currently set for this channel."}
	}
	h.Logger.Info("channel topic cleared", zap.String("channel_id", channelID))
	return Response{Content: "🧹 Topic filter cleared for this channel. All messages are now allowed."}
}

func (h *Handler) analyze(ctx context.Context, channelID, window string) Response {
	report, err := h.Analysis.RunInput(ctx, channelID, window)
	switch {
	case err == nil:
		return Response{Embed: utils.ReportEmbed(report)}
	case errors.Is(err, duration.ErrInvalidFormat):
		return Response{Content: fmt.Sprintf("❌ I don't understand %q. Use a window like `30m`, `2h` or `1d`.", window), Ephemeral: true}
	case errors.Is(err, duration.ErrOutOfRange):
		return Response{Content: fmt.Sprintf("❌ The window must be between %s and %s.", duration.Render(duration.Min), duration.Render(duration.Max)), Ephemeral: true}
	case errors.Is(err, classifier.ErrUnavailable), errors.Is(err, classifier.ErrLabelOutOfRange):
		h.Reporter.Report("analysis", "analyze", err)
		return Response{Content: "⚠️ Sentiment analysis is unavailable right now, no report was produced."}
	default:
		h.Reporter.Report("analysis", "analyze", err)
		return Response{Content: "❌ Could not read this channel's history."}
	}
}
