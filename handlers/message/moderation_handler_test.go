package message

import (
	"context"
	"errors"
	"testing"

	"discord-modbot/models"
	"discord-modbot/moderation"

	"github.com/bwmarrin/discordgo"
	"go.uber.org/zap"
)

type fakeModerator struct {
	handled []models.Message
	edited  []models.Message
	removed []string
	err     error
}

func (m *fakeModerator) HandleMessage(ctx context.Context, msg models.Message) (moderation.Decision, error) {
	m.handled = append(m.handled, msg)
	if m.err != nil {
		return moderation.Decision{}, m.err
	}
	return moderation.Decision{Outcome: moderation.OutcomeScheduled}, nil
}

func (m *fakeModerator) HandleMessageRemoved(ctx context.Context, channelID, messageID string) bool {
	m.removed = append(m.removed, channelID+"/"+messageID)
	return true
}

func (m *fakeModerator) HandleMessageEdited(ctx context.Context, msg models.Message) bool {
	m.edited = append(m.edited, msg)
	return false
}

func guildMessage(id, channelID string, bot bool) *discordgo.Message {
	return &discordgo.Message{
		ID:        id,
		ChannelID: channelID,
		GuildID:   "g1",
		Content:   "stock prices fell sharply",
		Author:    &discordgo.User{ID: "u1", Username: "alice", Bot: bot},
	}
}

func TestHandleCreateForwardsGuildMessages(t *testing.T) {
	mod := &fakeModerator{}
	h := NewModerationHandler(mod, []string{"excluded"}, 0, zap.NewNop())

	h.HandleCreate(nil, &discordgo.MessageCreate{Message: guildMessage("1", "c1", false)})
	h.HandleCreate(nil, &discordgo.MessageCreate{Message: guildMessage("2", "c1", true)})
	h.HandleCreate(nil, &discordgo.MessageCreate{Message: guildMessage("3", "excluded", false)})

	dm := guildMessage("4", "dm", false)
	dm.GuildID = ""
	h.HandleCreate(nil, &discordgo.MessageCreate{Message: dm})

	if len(mod.handled) != 1 {
		t.Fatalf("handled %d messages, want 1", len(mod.handled))
	}
	got := mod.handled[0]
	if got.MessageID != "1" || got.AuthorID != "u1" || got.AuthorName != "alice" || got.Content != "stock prices fell sharply" {
		t.Errorf("converted message = %+v", got)
	}
	if got.Timestamp.IsZero() {
		t.Error("timestamp should fall back to the snowflake")
	}
}

func TestHandleCreateSurvivesEngineError(t *testing.T) {
	mod := &fakeModerator{err: errors.New("classifier unavailable")}
	h := NewModerationHandler(mod, nil, 0, zap.NewNop())

	h.HandleCreate(nil, &discordgo.MessageCreate{Message: guildMessage("1", "c1", false)})
	if len(mod.handled) != 1 {
		t.Errorf("handled %d messages, want 1", len(mod.handled))
	}
}

func TestHandleUpdateAndDelete(t *testing.T) {
	mod := &fakeModerator{}
	h := NewModerationHandler(mod, nil, 0, zap.NewNop())

	edit := guildMessage("1", "c1", false)
	edit.Author = nil // partial updates may omit the author
	h.HandleUpdate(nil, &discordgo.MessageUpdate{Message: edit})
	if len(mod.edited) != 1 {
		t.Errorf("edited %d messages, want 1", len(mod.edited))
	}

	h.HandleDelete(nil, &discordgo.MessageDelete{Message: &discordgo.Message{ID: "1", ChannelID: "c1"}})
	if len(mod.removed) != 1 || mod.removed[0] != "c1/1" {
		t.Errorf("removed = %v", mod.removed)
	}
}
