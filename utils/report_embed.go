package utils

import (
	"fmt"

	"discord-modbot/duration"
	"discord-modbot/models"

	"github.com/bwmarrin/discordgo"
)

const ColorReport = 0x5865f2

var sentimentEmoji = map[models.SentimentLabel]string{
	models.SentimentPositive: "🟢",
	models.SentimentNeutral:  "⚪",
	models.SentimentNegative: "🔴",
}

// ReportEmbed renders a sentiment report for Discord.
func ReportEmbed(r models.AnalysisReport) *discordgo.MessageEmbed {
	embed := &discordgo.MessageEmbed{
		Title:       fmt.Sprintf("📊 Sentiment Analysis Summary (Last %s)", r.WindowText),
		Description: fmt.Sprintf("<#%s>", r.ChannelID),
		Color:       ColorReport,
		Footer: &discordgo.MessageEmbedFooter{
			Text: fmt.Sprintf("%s to %s UTC", duration.FormatTimestamp(r.Since), duration.FormatTimestamp(r.Until)),
		},
	}

	if r.TotalMessages == 0 {
		embed.Fields = []*discordgo.MessageEmbedField{{
			Name:  "No messages",
			Value: "Nothing was posted in this window.",
		}}
		return embed
	}

	// Positive first.
	for _, label := range []models.SentimentLabel{models.SentimentPositive, models.SentimentNeutral, models.SentimentNegative} {
		embed.Fields = append(embed.Fields, &discordgo.MessageEmbedField{
			Name:   fmt.Sprintf("%s %s", sentimentEmoji[label], label),
			Value:  fmt.Sprintf("%d (%.1f%%)", r.Counts[label], r.Percentages[label]),
			Inline: true,
		})
	}
	embed.Fields = append(embed.Fields,
		&discordgo.MessageEmbedField{Name: "📦 Total", Value: fmt.Sprint(r.TotalMessages)},
		&discordgo.MessageEmbedField{Name: "🎯 Avg Confidence", Value: fmt.Sprintf("%.2f%%", r.AverageConfidence*100)},
	)
	return embed
}
