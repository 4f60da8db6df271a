package main

import (
	"context"
	"fmt"
	"os"

	"discord-modbot/analysis"
	"discord-modbot/bot"
	"discord-modbot/classifier"
	"discord-modbot/command"
	"discord-modbot/config"
	"discord-modbot/database"
	modgrpc "discord-modbot/grpc"
	"discord-modbot/handlers"
	"discord-modbot/handlers/message"
	"discord-modbot/models"
	"discord-modbot/moderation"
	"discord-modbot/modlog"
	"discord-modbot/policy"
	"discord-modbot/scanner"
	"discord-modbot/scheduler"
	"discord-modbot/utils"

	"go.uber.org/zap"
)

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "error loading config: %v\n", err)
		os.Exit(1)
	}

	logger, err := utils.NewLogger(cfg.Log.Level, cfg.Log.Development)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error creating logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	if err := run(cfg, logger); err != nil {
		logger.Fatal("bot exited with error", zap.Error(err))
	}
}

func run(cfg *models.Config, logger *zap.Logger) error {
	ctx := context.Background()

	var repo policy.Repository = policy.NewMemoryRepository()
	if cfg.Database.Path != "" {
		db, err := database.InitDB(cfg.Database.Path)
		if err != nil {
			return fmt.Errorf("error initializing database: %w", err)
		}
		defer db.Close()
		repo = database.NewPolicyDB(db, logger.Named("database"))
	} else {
		logger.Warn("no database path configured, channel policies will not survive a restart")
	}

	policies, err := policy.NewStore(ctx, repo)
	if err != nil {
		return err
	}
	if seeded, err := policies.Seed(ctx, cfg.Moderation.DefaultPolicies); err != nil {
		return fmt.Errorf("error applying default policies: %w", err)
	} else if seeded > 0 {
		logger.Info("default channel policies applied", zap.Int("channels", seeded))
	}

	auditLog, err := modlog.Open(cfg.ModLog.Path)
	if err != nil {
		return err
	}
	defer auditLog.Close()

	topicModel, sentimentModel, closeModels, err := newModels(cfg.Classifier, logger)
	if err != nil {
		return err
	}
	defer closeModels()

	b, err := bot.NewBot(cfg, logger.Named("bot"))
	if err != nil {
		return err
	}
	platform := bot.NewPlatform(b.Session, cfg.Bot.Prefix)
	reporter := utils.NewReporter(b.Session, cfg.Bot.AdminChannelID, logger.Named("reporter"))

	sched := scheduler.New(scheduler.SystemClock{}, logger.Named("scheduler"))
	defer sched.Stop()

	modEngine := moderation.NewEngine(
		policies,
		classifier.NewTopic(topicModel),
		platform,
		auditLog,
		reporter,
		sched,
		moderation.Options{
			GracePeriod:         cfg.Moderation.GracePeriod,
			ConfidenceThreshold: cfg.Moderation.ConfidenceThreshold,
			DeleteRetryDelay:    cfg.Moderation.DeleteRetryDelay,
			CancelOnEdit:        cfg.Moderation.CancelOnEdit,
			NotifyOutcome:       cfg.Moderation.NotifyOutcome,
		},
		logger.Named("moderation"),
	)

	analysisEngine := analysis.NewEngine(
		platform,
		classifier.NewSentiment(sentimentModel),
		analysis.Options{Concurrency: cfg.Analysis.Concurrency, ExportPath: cfg.Analysis.ExportPath},
		logger.Named("analysis"),
	)

	h := &handlers.Handler{
		Policies: policies,
		Analysis: analysisEngine,
		Messages: message.NewModerationHandler(modEngine, cfg.Moderation.ExcludeChannels, 2*cfg.Classifier.Timeout, logger),
		Auth:     utils.NewAuth(cfg.Commands.Auth),
		Reporter: reporter,
		Prefix:   cfg.Bot.Prefix,
		Logger:   logger.Named("handlers"),
	}

	if cfg.Analysis.ReportSchedule != "" {
		sweep := scanner.New(analysisEngine, b.Session, reporter, cfg.Analysis.ReportChannels, cfg.Analysis.DefaultWindow, logger)
		err := b.Schedule("sentiment-report", cfg.Analysis.ReportSchedule, func() {
			sweep.StartScanning(context.Background())
		})
		if err != nil {
			return err
		}
	}

	b.RegisterCommands(command.GetCommandDefinitions())
	if err := b.Start(func(b *bot.Bot) { handlers.Register(b, h) }); err != nil {
		return err
	}
	defer b.Stop()

	reporter.Info("main", "startup", fmt.Sprintf("moderating %d channels", len(policies.Policies())))
	bot.WaitForSignal()

	if pending := modEngine.Pending(); len(pending) > 0 {
		logger.Info("shutting down with deletions still pending", zap.Int("pending", len(pending)))
	}
	return nil
}

// newModels connects the topic and sentiment models over the configured transport.
func newModels(cfg models.ClassifierConfig, logger *zap.Logger) (topic, sentiment classifier.Classifier, closeFn func(), err error) {
	if cfg.Transport == "http" {
		topic = classifier.NewHTTPClient(cfg.HTTP.TopicEndpoint, cfg.HTTP.APIKey, cfg.Timeout)
		sentiment = classifier.NewHTTPClient(cfg.HTTP.SentimentEndpoint, cfg.HTTP.APIKey, cfg.Timeout)
		return topic, sentiment, func() {}, nil
	}

	topicClient, err := modgrpc.NewClassifierClient(cfg.Topic.Address, cfg.Topic.Method, cfg.Timeout, logger.Named("topic_model"))
	if err != nil {
		return nil, nil, nil, err
	}
	sentimentClient, err := modgrpc.NewClassifierClient(cfg.Sentiment.Address, cfg.Sentiment.Method, cfg.Timeout, logger.Named("sentiment_model"))
	if err != nil {
		topicClient.Close()
		return nil, nil, nil, err
	}
	closeFn = func() {
		topicClient.Close()
		sentimentClient.Close()
	}
	return topicClient, sentimentClient, closeFn, nil
}
