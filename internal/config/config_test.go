package config

import (
	"os"
	"path/filepath"
	"testing"
)

func writeConfigFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoad_Defaults(t *testing.T) {
	path := writeConfigFile(t, `
telegram:
  token: tg-token
openai:
  api_key: oa-key
`)
	cfg, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.OpenAI.Model != "gpt-4o-mini" {
		t.Errorf("expected default model, got %q", cfg.OpenAI.Model)
	}
	if cfg.Persistence.Driver != "file" {
		t.Errorf("expected default driver file, got %q", cfg.Persistence.Driver)
	}
	if cfg.LongDialog.UpdateSummaryFraction != 0.6 {
		t.Errorf("expected default summary fraction, got %g", cfg.LongDialog.UpdateSummaryFraction)
	}
	if cfg.Sampling.Temperature != 0.7 || cfg.Sampling.MaxTokens != 1000 {
		t.Errorf("unexpected sampling defaults: %+v", cfg.Sampling)
	}
	if cfg.Telegram.APIBase() != "https://api.telegram.org/bottg-token" {
		t.Errorf("unexpected api base: %q", cfg.Telegram.APIBase())
	}
}

func TestLoad_FileOverrides(t *testing.T) {
	path := writeConfigFile(t, `
telegram:
  token: tg-token
openai:
  api_key: oa-key
  model: gpt-4
long_dialog:
  update_summary_fraction: 0.5
persistence:
  driver: memory
  metadata_minutes: 10
model_limits:
  my-model: 32000
`)
	cfg, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.OpenAI.Model != "gpt-4" {
		t.Errorf("expected gpt-4, got %q", cfg.OpenAI.Model)
	}
	if cfg.Persistence.Driver != "memory" {
		t.Errorf("expected memory driver, got %q", cfg.Persistence.Driver)
	}
	if cfg.Persistence.MetadataMinutes != 10 {
		t.Errorf("expected metadata_minutes 10, got %d", cfg.Persistence.MetadataMinutes)
	}
	if cfg.ModelLimits["my-model"] != 32000 {
		t.Errorf("expected model limit override, got %v", cfg.ModelLimits)
	}
}

func TestLoad_EnvOverride(t *testing.T) {
	t.Setenv("DIALOGKEEPER_TELEGRAM_TOKEN", "env-token")
	t.Setenv("DIALOGKEEPER_OPENAI_API_KEY", "env-key")
	t.Setenv("DIALOGKEEPER_OPENAI_MODEL", "gpt-3.5-turbo")

	cfg, err := Load("")
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Telegram.Token != "env-token" {
		t.Errorf("expected env token, got %q", cfg.Telegram.Token)
	}
	if cfg.OpenAI.Model != "gpt-3.5-turbo" {
		t.Errorf("expected env model, got %q", cfg.OpenAI.Model)
	}
}

func TestLoad_Validation(t *testing.T) {
	cases := []struct {
		name string
		yaml string
	}{
		{"missing token", "openai:\n  api_key: k\n"},
		{"missing api key", "telegram:\n  token: t\n"},
		{
			"bad fraction",
			"telegram:\n  token: t\nopenai:\n  api_key: k\nlong_dialog:\n  update_summary_fraction: 1.5\n",
		},
		{
			"bad driver",
			"telegram:\n  token: t\nopenai:\n  api_key: k\npersistence:\n  driver: postgres\n",
		},
		{
			"bad max tokens",
			"telegram:\n  token: t\nopenai:\n  api_key: k\nsampling:\n  max_tokens: 0\n",
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			path := writeConfigFile(t, tc.yaml)
			if _, err := Load(path); err == nil {
				t.Fatal("expected validation error")
			}
		})
	}
}
