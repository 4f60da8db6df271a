package command

import "github.com/bwmarrin/discordgo"

// Command is an interface for application commands.
type Command interface {
	Definition() *discordgo.ApplicationCommand
}

// AllCommands holds all the command instances.
var AllCommands = []Command{
	&TopicSetCommand{},
	&TopicGetCommand{},
	&TopicListCommand{},
	&TopicClearCommand{},
	&AnalyzeCommand{},
}

// Aliases maps alternative prefix command names to their command.
var Aliases = map[string]string{
	"export": Analyze,
}

// GetCommandDefinitions returns a slice of all command definitions.
func GetCommandDefinitions() []*discordgo.ApplicationCommand {
	defs := make([]*discordgo.ApplicationCommand, len(AllCommands))
	for i, cmd := range AllCommands {
		defs[i] = cmd.Definition()
	}
	return defs
}

// Resolve returns the command a prefix command name refers to.
func Resolve(name string) (string, bool) {
	if target, ok := Aliases[name]; ok {
		return target, true
	}
	for _, cmd := range AllCommands {
		if cmd.Definition().Name == name {
			return name, true
		}
	}
	return "", false
}
