package bot

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"discord-modbot/models"

	"github.com/bwmarrin/discordgo"
)

// historyPageSize is the largest page Discord serves.
const historyPageSize = 100

// Platform carries out moderation actions and history reads over a Discord
// session.
type Platform struct {
	session *discordgo.Session
	prefix  string
}

func NewPlatform(session *discordgo.Session, prefix string) *Platform {
	return &Platform{session: session, prefix: prefix}
}

// SendReply replies to messageID and pings only its author.
func (p *Platform) SendReply(ctx context.Context, channelID, messageID, authorID, text string) (string, error) {
	msg, err := p.session.ChannelMessageSendComplex(channelID, &discordgo.MessageSend{
		Content: text,
		Reference: &discordgo.MessageReference{
			MessageID: messageID,
			ChannelID: channelID,
		},
		AllowedMentions: &discordgo.MessageAllowedMentions{Users: []string{authorID}},
	}, discordgo.WithContext(ctx))
	if err != nil {
		return "", translate(err)
	}
	return msg.ID, nil
}

func (p *Platform) DeleteMessage(ctx context.Context, channelID, messageID string) error {
	return translate(p.session.ChannelMessageDelete(channelID, messageID, discordgo.WithContext(ctx)))
}

func (p *Platform) EditMessage(ctx context.Context, channelID, messageID, text string) error {
	_, err := p.session.ChannelMessageEdit(channelID, messageID, text, discordgo.WithContext(ctx))
	return translate(err)
}

// FetchHistory returns the channel's messages posted since the given time,
// newest first. Bot messages and bot commands are left out.
func (p *Platform) FetchHistory(ctx context.Context, channelID string, since time.Time) ([]models.Message, error) {
	return collectHistory(ctx, since, p.prefix, func(beforeID string) ([]*discordgo.Message, error) {
		page, err := p.session.ChannelMessages(channelID, historyPageSize, beforeID, "", "", discordgo.WithContext(ctx))
		return page, translate(err)
	})
}

type pageFunc func(beforeID string) ([]*discordgo.Message, error)

// collectHistory walks pages backwards from the newest message until it
// passes since or the channel runs out.
func collectHistory(ctx context.Context, since time.Time, prefix string, fetch pageFunc) ([]models.Message, error) {
	var out []models.Message
	beforeID := ""
	for {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		page, err := fetch(beforeID)
		if err != nil {
			return nil, fmt.Errorf("failed to fetch messages: %w", err)
		}
		if len(page) == 0 {
			return out, nil
		}

		for _, m := range page {
			if m.Timestamp.Before(since) {
				return out, nil
			}
			if m.Author == nil || m.Author.Bot {
				continue
			}
			if prefix != "" && strings.HasPrefix(m.Content, prefix) {
				continue
			}
			out = append(out, ToModel(m))
		}

		if len(page) < historyPageSize {
			return out, nil
		}
		beforeID = page[len(page)-1].ID
	}
}

// ToModel converts a Discord message.
func ToModel(m *discordgo.Message) models.Message {
	msg := models.Message{
		MessageID: m.ID,
		ChannelID: m.ChannelID,
		GuildID:   m.GuildID,
		Content:   m.Content,
		Timestamp: m.Timestamp,
	}
	if m.Author != nil {
		msg.AuthorID = m.Author.ID
		msg.AuthorName = m.Author.Username
	}
	if msg.Timestamp.IsZero() && m.ID != "" {
		if ts, err := discordgo.SnowflakeTimestamp(m.ID); err == nil {
			msg.Timestamp = ts
		}
	}
	return msg
}

// translate maps Discord's "unknown message" rejection to models.ErrMessageNotFound.
func translate(err error) error {
	if err == nil {
		return nil
	}
	var restErr *discordgo.RESTError
	if errors.As(err, &restErr) {
		if restErr.Message != nil && restErr.Message.Code == discordgo.ErrCodeUnknownMessage {
			return fmt.Errorf("%w: %v", models.ErrMessageNotFound, err)
		}
		if restErr.Response != nil && restErr.Response.StatusCode == http.StatusNotFound {
			return fmt.Errorf("%w: %v", models.ErrMessageNotFound, err)
		}
	}
	return err
}
