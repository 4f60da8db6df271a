package handlers

import (
	"context"

	"discord-modbot/command"

	"github.com/bwmarrin/discordgo"
	"go.uber.org/zap"
)

// CommandDispatcher is the central handler for all application command interactions.
// It performs permission checks and then dispatches the interaction to the appropriate handler.
func (h *Handler) CommandDispatcher(s *discordgo.Session, i *discordgo.InteractionCreate) {
	data := i.ApplicationCommandData()

	var (
		userID      string
		roles       []string
		permissions int64
	)
	if i.Member != nil {
		userID, roles, permissions = i.Member.User.ID, i.Member.Roles, i.Member.Permissions
	} else if i.User != nil {
		userID = i.User.ID
	}

	if !h.allowed(data.Name, userID, roles, permissions) {
		h.respond(s, i, Response{Content: "🚫 You do not have permission to run this command.", Ephemeral: true})
		return
	}

	var arg string
	for _, opt := range data.Options {
		if opt.Name == "topic" || opt.Name == "window" {
			arg = opt.StringValue()
		}
	}

	if data.Name != command.Analyze {
		h.respond(s, i, h.Execute(context.Background(), data.Name, i.ChannelID, arg))
		return
	}

	// Analysis can outlast the interaction deadline, so acknowledge first.
	err := s.InteractionRespond(i.Interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseDeferredChannelMessageWithSource,
	})
	if err != nil {
		h.Logger.Warn("failed to defer interaction", zap.String("command", data.Name), zap.Error(err))
		return
	}
	go func() {
		resp := h.Execute(context.Background(), data.Name, i.ChannelID, arg)
		params := &discordgo.WebhookParams{Content: resp.Content}
		if resp.Embed != nil {
			params.Embeds = []*discordgo.MessageEmbed{resp.Embed}
		}
		if _, err := s.FollowupMessageCreate(i.Interaction, true, params); err != nil {
			h.Logger.Warn("failed to send analysis followup", zap.String("channel_id", i.ChannelID), zap.Error(err))
		}
	}()
}

func (h *Handler) respond(s *discordgo.Session, i *discordgo.InteractionCreate, resp Response) {
	data := &discordgo.InteractionResponseData{Content: resp.Content}
	if resp.Embed != nil {
		data.Embeds = []*discordgo.MessageEmbed{resp.Embed}
	}
	if resp.Ephemeral {
		data.Flags = discordgo.MessageFlagsEphemeral
	}
	err := s.InteractionRespond(i.Interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseChannelMessageWithSource,
		Data: data,
	})
	if err != nil {
		h.Logger.Warn("failed to respond to interaction", zap.Error(err))
	}
}
