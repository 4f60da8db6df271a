package models

import "time"

// Config represents the full configuration tree assembled from config.yaml,
// the .env file and the environment.
type Config struct {
	Bot        BotConfig        `mapstructure:"bot"`
	Database   DatabaseConfig   `mapstructure:"database"`
	ModLog     ModLogConfig     `mapstructure:"modlog"`
	Log        LogConfig        `mapstructure:"log"`
	Classifier ClassifierConfig `mapstructure:"classifier"`
	Moderation ModerationConfig `mapstructure:"moderation"`
	Analysis   AnalysisConfig   `mapstructure:"analysis"`
	Commands   CommandsConfig   `mapstructure:"commands"`
}

// BotConfig holds the Discord connection settings.
type BotConfig struct {
	Token          string `mapstructure:"token"`
	Prefix         string `mapstructure:"prefix"`
	AdminChannelID string `mapstructure:"admin_channel_id"`
	GuildID        string `mapstructure:"guild_id"` // empty registers commands globally
}

type DatabaseConfig struct {
	Path string `mapstructure:"path"`
}

type ModLogConfig struct {
	Path string `mapstructure:"path"`
}

type LogConfig struct {
	Level       string `mapstructure:"level"`
	Development bool   `mapstructure:"development"`
}

// ClassifierConfig selects how the sentiment and topic models are reached.
type ClassifierConfig struct {
	Transport string               `mapstructure:"transport"` // grpc or http
	Timeout   time.Duration        `mapstructure:"timeout"`
	Topic     ModelEndpoint        `mapstructure:"topic"`
	Sentiment ModelEndpoint        `mapstructure:"sentiment"`
	HTTP      HTTPClassifierConfig `mapstructure:"http"`
}

// ModelEndpoint is the gRPC address and full method name of one model server.
type ModelEndpoint struct {
	Address string `mapstructure:"address"`
	Method  string `mapstructure:"method"`
}

type HTTPClassifierConfig struct {
	TopicEndpoint     string `mapstructure:"topic_endpoint"`
	SentimentEndpoint string `mapstructure:"sentiment_endpoint"`
	APIKey            string `mapstructure:"api_key"`
}

// ModerationConfig controls topic enforcement.
type ModerationConfig struct {
	GracePeriod         time.Duration         `mapstructure:"grace_period"`
	ConfidenceThreshold float64               `mapstructure:"confidence_threshold"`
	DeleteRetryDelay    time.Duration         `mapstructure:"delete_retry_delay"`
	CancelOnEdit        bool                  `mapstructure:"cancel_on_edit"`
	NotifyOutcome       bool                  `mapstructure:"notify_outcome"`
	ExcludeChannels     []string              `mapstructure:"exclude_channels"`
	DefaultPolicies     map[string]TopicLabel `mapstructure:"default_policies"` // channel ID -> topic
}

// AnalysisConfig controls on-demand and scheduled sentiment reports.
type AnalysisConfig struct {
	DefaultWindow  time.Duration `mapstructure:"default_window"`
	Concurrency    int           `mapstructure:"concurrency"`
	ExportPath     string        `mapstructure:"export_path"`
	ReportSchedule string        `mapstructure:"report_schedule"`
	ReportChannels []string      `mapstructure:"report_channels"`
}

// CommandsConfig represents the command permission settings.
type CommandsConfig struct {
	Auth AuthConfig `mapstructure:"auth"`
}

type AuthConfig struct {
	Developers  []string `mapstructure:"developers"`
	AdminsRoles []string `mapstructure:"admin_roles"`
}
