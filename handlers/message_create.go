package handlers

import (
	"context"
	"strings"

	"discord-modbot/command"

	"github.com/bwmarrin/discordgo"
	"go.uber.org/zap"
)

// ParseCommand splits a prefixed chat message into a command name and its
// argument. Aliases resolve to the command they stand for. ok is false when
// the message is not a known command.
func ParseCommand(content, prefix string) (name, arg string, ok bool) {
	content = strings.TrimSpace(content)
	if prefix == "" || !strings.HasPrefix(content, prefix) {
		return "", "", false
	}
	fields := strings.Fields(strings.TrimPrefix(content, prefix))
	if len(fields) == 0 {
		return "", "", false
	}
	name, ok = command.Resolve(strings.ToLower(fields[0]))
	if !ok {
		return "", "", false
	}
	return name, strings.Join(fields[1:], " "), true
}

// MessageCreate will be called every time a new message is created on any channel that the authenticated bot has access to.
func (h *Handler) MessageCreate(s *discordgo.Session, m *discordgo.MessageCreate) {
	if m.Author == nil || m.Author.Bot {
		return
	}
	// Ignore all messages created by the bot itself
	if s.State != nil && s.State.User != nil && m.Author.ID == s.State.User.ID {
		return
	}

	if name, arg, ok := ParseCommand(m.Content, h.Prefix); ok {
		h.prefixCommand(s, m, name, arg)
		return
	}
	// Anything else carrying the prefix is a mistyped command, not chat.
	if h.Prefix != "" && strings.HasPrefix(strings.TrimSpace(m.Content), h.Prefix) {
		return
	}

	if h.Messages != nil {
		h.Messages.HandleCreate(s, m)
	}
}

func (h *Handler) prefixCommand(s *discordgo.Session, m *discordgo.MessageCreate, name, arg string) {
	var roles []string
	if m.Member != nil {
		roles = m.Member.Roles
	}
	permissions, err := s.UserChannelPermissions(m.Author.ID, m.ChannelID)
	if err != nil {
		h.Logger.Debug("could not resolve channel permissions", zap.String("user_id", m.Author.ID), zap.Error(err))
	}
	if !h.allowed(name, m.Author.ID, roles, permissions) {
		h.send(s, m.ChannelID, Response{Content: "🚫 You do not have permission to run this command."})
		return
	}

	if name == command.Analyze {
		h.send(s, m.ChannelID, Response{Content: "🕒 Fetching messages..."})
	}
	h.send(s, m.ChannelID, h.Execute(context.Background(), name, m.ChannelID, arg))
}

func (h *Handler) send(s *discordgo.Session, channelID string, resp Response) {
	var err error
	switch {
	case resp.Embed != nil:
		_, err = s.ChannelMessageSendComplex(channelID, &discordgo.MessageSend{Content: resp.Content, Embeds: []*discordgo.MessageEmbed{resp.Embed}})
	case resp.Content != "":
		_, err = s.ChannelMessageSend(channelID, resp.Content)
	}
	if err != nil {
		h.Logger.Warn("failed to send command reply", zap.String("channel_id", channelID), zap.Error(err))
	}
}

// MessageUpdate forwards edits to the moderation pipeline.
func (h *Handler) MessageUpdate(s *discordgo.Session, m *discordgo.MessageUpdate) {
	if h.Messages != nil {
		h.Messages.HandleUpdate(s, m)
	}
}

// MessageDelete forwards deletions to the moderation pipeline.
func (h *Handler) MessageDelete(s *discordgo.Session, m *discordgo.MessageDelete) {
	if h.Messages != nil {
		h.Messages.HandleDelete(s, m)
	}
}
