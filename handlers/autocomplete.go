package handlers

import (
	"strings"

	"discord-modbot/command"
	"discord-modbot/duration"

	"github.com/bwmarrin/discordgo"
	"go.uber.org/zap"
)

var windowPresets = []string{"30m", "1h", "2h", "6h", "12h", "1d", "3d", "7d"}

// HandleAutocomplete handles all autocomplete interactions.
func (h *Handler) HandleAutocomplete(s *discordgo.Session, i *discordgo.InteractionCreate) {
	data := i.ApplicationCommandData()
	if data.Name != command.Analyze {
		return
	}
	for _, opt := range data.Options {
		if opt.Name == "window" && opt.Focused {
			err := s.InteractionRespond(i.Interaction, &discordgo.InteractionResponse{
				Type: discordgo.InteractionApplicationCommandAutocompleteResult,
				Data: &discordgo.InteractionResponseData{
					Choices: WindowSuggestions(opt.StringValue()),
				},
			})
			if err != nil {
				h.Logger.Debug("error responding to autocomplete interaction", zap.Error(err))
			}
		}
	}
}

// WindowSuggestions offers analysis windows for what the user has typed so
// far. A valid typed value is offered first, spelled out.
func WindowSuggestions(typed string) []*discordgo.ApplicationCommandOptionChoice {
	typed = strings.TrimSpace(typed)
	var choices []*discordgo.ApplicationCommandOptionChoice

	if typed != "" {
		if d, err := duration.Parse(typed); err == nil {
			choices = append(choices, &discordgo.ApplicationCommandOptionChoice{Name: duration.Render(d), Value: typed})
		}
	}
	for _, preset := range windowPresets {
		if preset == typed || !strings.HasPrefix(preset, typed) {
			continue
		}
		d, _ := duration.Parse(preset)
		choices = append(choices, &discordgo.ApplicationCommandOptionChoice{Name: duration.Render(d), Value: preset})
	}
	return choices
}
