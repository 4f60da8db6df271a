package bot

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"discord-modbot/models"

	"github.com/bwmarrin/discordgo"
	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

// Bot encapsulates the bot's state.
type Bot struct {
	Session  *discordgo.Session
	Commands map[string]*discordgo.ApplicationCommand
	Config   *models.Config
	Logger   *zap.Logger

	cron       *cron.Cron
	registered []*discordgo.ApplicationCommand
}

// NewBot creates and initializes a new Bot instance.
func NewBot(cfg *models.Config, logger *zap.Logger) (*Bot, error) {
	if cfg.Bot.Token == "" {
		return nil, fmt.Errorf("no bot token provided, set BOT_TOKEN or bot.token")
	}

	dg, err := discordgo.New("Bot " + cfg.Bot.Token)
	if err != nil {
		return nil, fmt.Errorf("error creating Discord session: %w", err)
	}

	dg.Identify.Intents = discordgo.IntentsGuildMessages | discordgo.IntentsGuilds | discordgo.IntentsMessageContent

	return &Bot{
		Session:  dg,
		Commands: make(map[string]*discordgo.ApplicationCommand),
		Config:   cfg,
		Logger:   logger,
		cron:     newCron(logger),
	}, nil
}

// RegisterCommands registers the provided command definitions.
func (b *Bot) RegisterCommands(commands []*discordgo.ApplicationCommand) {
	for _, cmd := range commands {
		b.Commands[cmd.Name] = cmd
	}
}

// Start opens the bot's session and registers handlers.
func (b *Bot) Start(registerHandlers func(*Bot)) error {
	registerHandlers(b)

	err := b.Session.Open()
	if err != nil {
		return fmt.Errorf("error opening connection: %w", err)
	}

	// An empty guild ID registers the commands globally.
	for _, cmd := range b.Commands {
		created, err := b.Session.ApplicationCommandCreate(b.Session.State.User.ID, b.Config.Bot.GuildID, cmd)
		if err != nil {
			b.Logger.Error("cannot create command", zap.String("command", cmd.Name), zap.Error(err))
			continue
		}
		b.registered = append(b.registered, created)
	}

	b.cron.Start()

	b.Logger.Info("bot is now running, press CTRL-C to exit",
		zap.Int("commands", len(b.registered)),
		zap.Int("cron_jobs", len(b.cron.Entries())))
	return nil
}

// Stop gracefully closes the bot's session.
func (b *Bot) Stop() {
	<-b.cron.Stop().Done()
	if b.Config.Bot.GuildID != "" && b.Session.State != nil && b.Session.State.User != nil {
		for _, cmd := range b.registered {
			if err := b.Session.ApplicationCommandDelete(b.Session.State.User.ID, b.Config.Bot.GuildID, cmd.ID); err != nil {
				b.Logger.Warn("cannot delete command", zap.String("command", cmd.Name), zap.Error(err))
			}
		}
	}
	if b.Session != nil {
		b.Session.Close()
	}
	b.Logger.Info("bot stopped gracefully")
}

// WaitForSignal blocks until SIGINT or SIGTERM.
func WaitForSignal() {
	sc := make(chan os.Signal, 1)
	signal.Notify(sc, syscall.SIGINT, syscall.SIGTERM, os.Interrupt)
	<-sc
}
