package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"
)

// clearEnv はテストに影響する環境変数をすべて空にします
func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{
		"GITHUB_TOKEN", "PROJECT_OWNER", "PROJECT_NUMBER", "REPO",
		"CSV_PATH", "CSV_DELIMITER", "RATE_SLEEP",
	} {
		t.Setenv(key, "")
	}
}

func TestLoadConfigDefaults(t *testing.T) {
	clearEnv(t)

	cfg, err := LoadConfig("")
	if err != nil {
		t.Fatalf("LoadConfig() error = %v", err)
	}

	if cfg.CSVPath != "tasks.csv" {
		t.Errorf("CSVPath = %q, want %q", cfg.CSVPath, "tasks.csv")
	}
	if cfg.Delimiter != "," {
		t.Errorf("Delimiter = %q, want %q", cfg.Delimiter, ",")
	}
	if cfg.RateSleep != 250*time.Millisecond {
		t.Errorf("RateSleep = %v, want %v", cfg.RateSleep, 250*time.Millisecond)
	}
}

func TestLoadConfigFromEnv(t *testing.T) {
	clearEnv(t)
	t.Setenv("GITHUB_TOKEN", "token123")
	t.Setenv("PROJECT_OWNER", "my-org")
	t.Setenv("PROJECT_NUMBER", "7")
	t.Setenv("REPO", "my-org/my-repo")
	t.Setenv("RATE_SLEEP", "500ms")

	cfg, err := LoadConfig("")
	if err != nil {
		t.Fatalf("LoadConfig() error = %v", err)
	}

	if cfg.Token != "token123" {
		t.Errorf("Token = %q, want %q", cfg.Token, "token123")
	}
	if cfg.ProjectOwner != "my-org" {
		t.Errorf("ProjectOwner = %q, want %q", cfg.ProjectOwner, "my-org")
	}
	if cfg.ProjectNumber != 7 {
		t.Errorf("ProjectNumber = %d, want 7", cfg.ProjectNumber)
	}
	if cfg.RateSleep != 500*time.Millisecond {
		t.Errorf("RateSleep = %v, want 500ms", cfg.RateSleep)
	}
}

func TestLoadConfigInvalidEnv(t *testing.T) {
	tests := []struct {
		name  string
		key   string
		value string
	}{
		{name: "project number not a number", key: "PROJECT_NUMBER", value: "abc"},
		{name: "rate sleep not a duration", key: "RATE_SLEEP", value: "fast"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clearEnv(t)
			t.Setenv(tt.key, tt.value)

			_, err := LoadConfig("")
			if !errors.Is(err, ErrConfig) {
				t.Errorf("LoadConfig() error = %v, want ErrConfig", err)
			}
		})
	}
}

func TestLoadConfigYAMLFile(t *testing.T) {
	clearEnv(t)

	path := filepath.Join(t.TempDir(), "config.yml")
	yamlData := `
token: yamltoken
project_owner: yaml-org
project_number: 3
repo: yaml-org/yaml-repo
draft: true
delimiter: ";"
`
	if err := os.WriteFile(path, []byte(yamlData), 0o600); err != nil {
		t.Fatal(err)
	}

	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig() error = %v", err)
	}

	if cfg.Token != "yamltoken" {
		t.Errorf("Token = %q, want %q", cfg.Token, "yamltoken")
	}
	if cfg.ProjectNumber != 3 {
		t.Errorf("ProjectNumber = %d, want 3", cfg.ProjectNumber)
	}
	if !cfg.Draft {
		t.Error("Draft = false, want true")
	}
	if cfg.Delimiter != ";" {
		t.Errorf("Delimiter = %q, want %q", cfg.Delimiter, ";")
	}
}

func TestLoadConfigEnvOverridesYAML(t *testing.T) {
	clearEnv(t)
	t.Setenv("GITHUB_TOKEN", "envtoken")

	path := filepath.Join(t.TempDir(), "config.yml")
	if err := os.WriteFile(path, []byte("token: yamltoken\n"), 0o600); err != nil {
		t.Fatal(err)
	}

	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig() error = %v", err)
	}

	if cfg.Token != "envtoken" {
		t.Errorf("Token = %q, want %q (環境変数がYAMLより優先される)", cfg.Token, "envtoken")
	}
}

func TestLoadConfigMissingFile(t *testing.T) {
	clearEnv(t)

	_, err := LoadConfig(filepath.Join(t.TempDir(), "nonexistent.yml"))
	if !errors.Is(err, ErrConfig) {
		t.Errorf("LoadConfig() error = %v, want ErrConfig", err)
	}
}

func TestValidate(t *testing.T) {
	valid := Config{
		Token:         "t",
		ProjectOwner:  "owner",
		ProjectNumber: 1,
		Repo:          "owner/repo",
		Delimiter:     ",",
	}

	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{name: "issue mode valid", mutate: func(c *Config) {}, wantErr: false},
		{name: "draft mode without repo", mutate: func(c *Config) { c.Draft = true; c.Repo = "" }, wantErr: false},
		{name: "missing token", mutate: func(c *Config) { c.Token = "" }, wantErr: true},
		{name: "missing project owner", mutate: func(c *Config) { c.ProjectOwner = "" }, wantErr: true},
		{name: "missing project number", mutate: func(c *Config) { c.ProjectNumber = 0 }, wantErr: true},
		{name: "issue mode without repo", mutate: func(c *Config) { c.Repo = "" }, wantErr: true},
		{name: "repo without owner/name form", mutate: func(c *Config) { c.Repo = "justname" }, wantErr: true},
		{name: "multi-rune delimiter", mutate: func(c *Config) { c.Delimiter = ",," }, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid
			tt.mutate(&cfg)

			err := cfg.Validate()
			if tt.wantErr && !errors.Is(err, ErrConfig) {
				t.Errorf("Validate() error = %v, want ErrConfig", err)
			}
			if !tt.wantErr && err != nil {
				t.Errorf("Validate() error = %v, want nil", err)
			}
		})
	}
}

func TestDelimiterRune(t *testing.T) {
	cfg := Config{Delimiter: ";"}
	if got := cfg.DelimiterRune(); got != ';' {
		t.Errorf("DelimiterRune() = %q, want ';'", got)
	}

	cfg = Config{}
	if got := cfg.DelimiterRune(); got != ',' {
		t.Errorf("DelimiterRune() = %q, want ','", got)
	}
}
