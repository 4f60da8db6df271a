package handlers

import (
	"context"

	"github.com/bwmarrin/discordgo"
	"go.uber.org/zap"
)

// ChannelDelete drops the topic policy of a deleted channel.
func (h *Handler) ChannelDelete(s *discordgo.Session, c *discordgo.ChannelDelete) {
	if c.Channel == nil {
		return
	}
	h.dropPolicy(c.ID, c.GuildID)
}

// ThreadDelete handles the THREAD_DELETE event.
func (h *Handler) ThreadDelete(s *discordgo.Session, t *discordgo.ThreadDelete) {
	if t.Channel == nil {
		return
	}
	h.dropPolicy(t.ID, t.GuildID)
}

func (h *Handler) dropPolicy(channelID, guildID string) {
	existed, err := h.Policies.Clear(context.Background(), channelID)
	if err != nil {
		h.Reporter.Report("handlers", "channel_delete", err)
		return
	}
	if existed {
		h.Logger.Info("policy removed for deleted channel", zap.String("channel_id", channelID), zap.String("guild_id", guildID))
	}
}
