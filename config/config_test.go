package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"discord-modbot/duration"
	"discord-modbot/models"

	"github.com/spf13/viper"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(body), 0o644); err != nil {
		t.Fatal(err)
	}
	return dir
}

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load(viper.New(), t.TempDir())
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Bot.Prefix != "!" {
		t.Errorf("prefix = %q", cfg.Bot.Prefix)
	}
	if cfg.Moderation.GracePeriod != 10*time.Second || cfg.Moderation.DeleteRetryDelay != time.Second {
		t.Errorf("moderation = %+v", cfg.Moderation)
	}
	if !cfg.Moderation.NotifyOutcome || cfg.Moderation.CancelOnEdit {
		t.Errorf("moderation flags = %+v", cfg.Moderation)
	}
	if cfg.Analysis.DefaultWindow != duration.Default || cfg.Analysis.Concurrency != 4 {
		t.Errorf("analysis = %+v", cfg.Analysis)
	}
	if cfg.ModLog.Path != "./data/filtered_messages.csv" || cfg.Classifier.Transport != "grpc" {
		t.Errorf("paths/transport = %q %q", cfg.ModLog.Path, cfg.Classifier.Transport)
	}
}

func TestLoadFile(t *testing.T) {
	dir := writeConfig(t, `
bot:
  prefix: "?"
  admin_channel_id: "999"
moderation:
  grace_period: 30s
  confidence_threshold: 0.6
  default_policies:
    "111": sports
    "222": SCI/TECH
analysis:
  default_window: 2h
  report_schedule: "@daily"
  report_channels: ["111", "333"]
commands:
  auth:
    developers: ["42"]
    admin_roles: ["7"]
`)
	cfg, err := Load(viper.New(), dir)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Bot.Prefix != "?" || cfg.Bot.AdminChannelID != "999" {
		t.Errorf("bot = %+v", cfg.Bot)
	}
	if cfg.Moderation.GracePeriod != 30*time.Second || cfg.Moderation.ConfidenceThreshold != 0.6 {
		t.Errorf("moderation = %+v", cfg.Moderation)
	}
	want := map[string]models.TopicLabel{"111": models.TopicSports, "222": models.TopicSciTech}
	for ch, topic := range want {
		if cfg.Moderation.DefaultPolicies[ch] != topic {
			t.Errorf("default policy %s = %q, want %q", ch, cfg.Moderation.DefaultPolicies[ch], topic)
		}
	}
	if cfg.Analysis.DefaultWindow != 2*time.Hour || len(cfg.Analysis.ReportChannels) != 2 {
		t.Errorf("analysis = %+v", cfg.Analysis)
	}
	if len(cfg.Commands.Auth.Developers) != 1 || cfg.Commands.Auth.AdminsRoles[0] != "7" {
		t.Errorf("auth = %+v", cfg.Commands.Auth)
	}
}

func TestEnvironmentOverrides(t *testing.T) {
	t.Setenv("BOT_TOKEN", "secret")
	t.Setenv("MODERATION_GRACE_PERIOD", "15s")
	t.Setenv("ANALYSIS_REPORT_CHANNELS", "1,2,3")

	cfg, err := Load(viper.New(), t.TempDir())
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Bot.Token != "secret" {
		t.Errorf("token = %q", cfg.Bot.Token)
	}
	if cfg.Moderation.GracePeriod != 15*time.Second {
		t.Errorf("grace period = %v", cfg.Moderation.GracePeriod)
	}
	if strings.Join(cfg.Analysis.ReportChannels, ",") != "1,2,3" {
		t.Errorf("report channels = %v", cfg.Analysis.ReportChannels)
	}
}

func TestLoadRejectsUnknownTopic(t *testing.T) {
	dir := writeConfig(t, `
moderation:
  default_policies:
    "111": cooking
`)
	_, err := Load(viper.New(), dir)
	if err == nil || !strings.Contains(err.Error(), models.ErrUnknownTopic.Error()) {
		t.Errorf("err = %v, want unknown topic", err)
	}
}

func TestLoadRejectsBadValues(t *testing.T) {
	tests := []struct {
		name string
		body string
		want string
	}{
		{"window too short", "analysis:\n  default_window: 1m\n", "analysis.default_window"},
		{"threshold", "moderation:\n  confidence_threshold: 1.5\n", "confidence_threshold"},
		{"transport", "classifier:\n  transport: carrier-pigeon\n", "classifier.transport"},
		{"cron", "analysis:\n  report_schedule: \"every now and then\"\n", "report_schedule"},
		{"concurrency", "analysis:\n  concurrency: 0\n", "concurrency"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(viper.New(), writeConfig(t, tt.body))
			if err == nil || !strings.Contains(err.Error(), tt.want) {
				t.Errorf("err = %v, want mention of %q", err, tt.want)
			}
		})
	}
}

func TestLoadMalformedFile(t *testing.T) {
	if _, err := Load(viper.New(), writeConfig(t, "bot: [unclosed")); err == nil {
		t.Error("malformed YAML should fail")
	}
}
