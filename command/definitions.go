package command

import (
	"discord-modbot/models"

	"github.com/bwmarrin/discordgo"
)

// Command names.
const (
	TopicSet   = "topicset"
	TopicGet   = "topicget"
	TopicList  = "topiclist"
	TopicClear = "topicclear"
	Analyze    = "analyze"
)

// TopicSetCommand defines the structure for the /topicset command.
type TopicSetCommand struct{}

// Definition returns the application command definition.
func (c *TopicSetCommand) Definition() *discordgo.ApplicationCommand {
	choices := make([]*discordgo.ApplicationCommandOptionChoice, 0, len(models.AllTopics()))
	for _, topic := range models.AllTopics() {
		choices = append(choices, &discordgo.ApplicationCommandOptionChoice{
			Name:  string(topic),
			Value: string(topic),
		})
	}
	return &discordgo.ApplicationCommand{
		Name:        TopicSet,
		Description: "Restrict this channel to one topic",
		Options: []*discordgo.ApplicationCommandOption{
			{
				Name:        "topic",
				Description: "The only topic allowed in this channel",
				Type:        discordgo.ApplicationCommandOptionString,
				Required:    true,
				Choices:     choices,
			},
		},
	}
}

// TopicGetCommand defines the structure for the /topicget command.
type TopicGetCommand struct{}

func (c *TopicGetCommand) Definition() *discordgo.ApplicationCommand {
	return &discordgo.ApplicationCommand{
		Name:        TopicGet,
		Description: "Show the topic allowed in this channel",
	}
}

// TopicListCommand defines the structure for the /topiclist command.
type TopicListCommand struct{}

func (c *TopicListCommand) Definition() *discordgo.ApplicationCommand {
	return &discordgo.ApplicationCommand{
		Name:        TopicList,
		Description: "List the topics a channel can be restricted to",
	}
}

// TopicClearCommand defines the structure for the /topicclear command.
type TopicClearCommand struct{}

func (c *TopicClearCommand) Definition() *discordgo.ApplicationCommand {
	return &discordgo.ApplicationCommand{
		Name:        TopicClear,
		Description: "Remove the topic restriction from this channel",
	}
}

// AnalyzeCommand defines the structure for the /analyze command.
type AnalyzeCommand struct{}

func (c *AnalyzeCommand) Definition() *discordgo.ApplicationCommand {
	return &discordgo.ApplicationCommand{
		Name:        Analyze,
		Description: "Sentiment report for this channel's recent messages",
		Options: []*discordgo.ApplicationCommandOption{
			{
				Name:         "window",
				Description:  "How far back to look, e.g. 30m, 2h, 1d (default 24 hours)",
				Type:         discordgo.ApplicationCommandOptionString,
				Required:     false,
				Autocomplete: true,
			},
		},
	}
}
