package config

import (
	"errors"
	"fmt"
	"reflect"
	"strings"
	"time"

	"discord-modbot/duration"
	"discord-modbot/models"

	"github.com/go-viper/mapstructure/v2"
	"github.com/joho/godotenv"
	"github.com/robfig/cron/v3"
	"github.com/spf13/viper"
)

// LoadConfig assembles the configuration from, in increasing precedence:
// built-in defaults, config.yaml in the working directory, and the
// environment (including a .env file). Environment keys use '_' for '.',
// so BOT_TOKEN sets bot.token.
func LoadConfig() (*models.Config, error) {
	// A missing .env file is normal outside development.
	_ = godotenv.Load()
	return Load(viper.New(), ".")
}

// Load reads config.yaml from dir into v and decodes the result.
func Load(v *viper.Viper, dir string) (*models.Config, error) {
	setDefaults(v)

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(dir)
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to parse config file: %w", err)
		}
	}

	var cfg models.Config
	if err := v.Unmarshal(&cfg, viper.DecodeHook(decodeHook())); err != nil {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}
	if err := Validate(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("bot.token", "")
	v.SetDefault("bot.prefix", "!")
	v.SetDefault("bot.admin_channel_id", "")
	v.SetDefault("bot.guild_id", "")

	v.SetDefault("database.path", "./data/modbot.db")
	v.SetDefault("modlog.path", "./data/filtered_messages.csv")

	v.SetDefault("log.level", "info")
	v.SetDefault("log.development", false)

	v.SetDefault("classifier.transport", "grpc")
	v.SetDefault("classifier.timeout", "15s")
	v.SetDefault("classifier.topic.address", "localhost:50051")
	v.SetDefault("classifier.topic.method", "")
	v.SetDefault("classifier.sentiment.address", "localhost:50052")
	v.SetDefault("classifier.sentiment.method", "")
	v.SetDefault("classifier.http.topic_endpoint", "")
	v.SetDefault("classifier.http.sentiment_endpoint", "")
	v.SetDefault("classifier.http.api_key", "")

	v.SetDefault("moderation.grace_period", "10s")
	v.SetDefault("moderation.confidence_threshold", 0.0)
	v.SetDefault("moderation.delete_retry_delay", "1s")
	v.SetDefault("moderation.cancel_on_edit", false)
	v.SetDefault("moderation.notify_outcome", true)
	v.SetDefault("moderation.exclude_channels", []string{})
	v.SetDefault("moderation.default_policies", map[string]string{})

	v.SetDefault("analysis.default_window", "24h")
	v.SetDefault("analysis.concurrency", 4)
	v.SetDefault("analysis.export_path", "")
	v.SetDefault("analysis.report_schedule", "")
	v.SetDefault("analysis.report_channels", []string{})

	v.SetDefault("commands.auth.developers", []string{})
	v.SetDefault("commands.auth.admin_roles", []string{})
}

func decodeHook() mapstructure.DecodeHookFunc {
	return mapstructure.ComposeDecodeHookFunc(
		mapstructure.StringToTimeDurationHookFunc(),
		mapstructure.StringToSliceHookFunc(","),
		stringToTopicHook,
	)
}

var topicType = reflect.TypeOf(models.TopicLabel(""))

// stringToTopicHook canonicalizes topic names and rejects unknown ones.
func stringToTopicHook(from, to reflect.Type, data any) (any, error) {
	if from.Kind() != reflect.String || to != topicType {
		return data, nil
	}
	topic, err := models.ParseTopic(data.(string))
	if err != nil {
		return nil, err
	}
	return topic, nil
}

// Validate checks values that decode cleanly but make no sense.
func Validate(cfg *models.Config) error {
	var errs []error

	if cfg.Bot.Prefix == "" {
		errs = append(errs, errors.New("bot.prefix must not be empty"))
	}
	switch cfg.Classifier.Transport {
	case "grpc", "http":
	default:
		errs = append(errs, fmt.Errorf("classifier.transport must be grpc or http, got %q", cfg.Classifier.Transport))
	}
	if cfg.Classifier.Timeout <= 0 {
		errs = append(errs, errors.New("classifier.timeout must be positive"))
	}
	if cfg.Moderation.GracePeriod <= 0 {
		errs = append(errs, errors.New("moderation.grace_period must be positive"))
	}
	if t := cfg.Moderation.ConfidenceThreshold; t < 0 || t > 1 {
		errs = append(errs, fmt.Errorf("moderation.confidence_threshold must be within [0,1], got %v", t))
	}
	if cfg.Moderation.DeleteRetryDelay < 0 || cfg.Moderation.DeleteRetryDelay > time.Minute {
		errs = append(errs, errors.New("moderation.delete_retry_delay must be between 0 and 1m"))
	}
	if err := duration.Validate(cfg.Analysis.DefaultWindow); err != nil {
		errs = append(errs, fmt.Errorf("analysis.default_window: %w", err))
	}
	if cfg.Analysis.Concurrency < 1 {
		errs = append(errs, errors.New("analysis.concurrency must be at least 1"))
	}
	if spec := cfg.Analysis.ReportSchedule; spec != "" {
		if _, err := cron.ParseStandard(spec); err != nil {
			errs = append(errs, fmt.Errorf("analysis.report_schedule: %w", err))
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("invalid configuration: %w", errors.Join(errs...))
	}
	return nil
}
