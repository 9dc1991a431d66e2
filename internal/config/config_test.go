package config

import (
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestLoadOrCreateWritesDefaults(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "daylist", DefaultConfigFileName)

	cfg, err := LoadOrCreate(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if _, err := os.Stat(path); err != nil {
		t.Fatalf("config file not created: %v", err)
	}
	if cfg.Backend != "sqlite" || time.Duration(cfg.PollInterval) != time.Minute {
		t.Fatalf("unexpected defaults %+v", cfg)
	}
	if cfg.DBPath != filepath.Join(dir, "daylist", DefaultDBName) {
		t.Fatalf("db path = %q", cfg.DBPath)
	}

	data, _ := os.ReadFile(path)
	if !strings.Contains(string(data), "1m0s") {
		t.Fatalf("duration not written as a string:\n%s", data)
	}

	again, err := LoadOrCreate(path)
	if err != nil {
		t.Fatalf("reload: %v", err)
	}
	if again.Keys != cfg.Keys || again.PollInterval != cfg.PollInterval {
		t.Fatalf("reloaded config differs: %+v vs %+v", again, cfg)
	}
}

func TestLoadOverrides(t *testing.T) {
	path := filepath.Join(t.TempDir(), DefaultConfigFileName)
	content := `
backend = "redis"
redis_url = "redis://localhost:6379/0"
poll_interval = "30s"
speech_command = "espeak"

[keys]
add = "n"
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	cfg, err := LoadOrCreate(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Backend != "redis" || time.Duration(cfg.PollInterval) != 30*time.Second {
		t.Fatalf("overrides not applied: %+v", cfg)
	}
	if cfg.Keys.Add != "n" || cfg.Keys.Quit != "q" {
		t.Fatalf("keys = %+v, want add overridden and quit defaulted", cfg.Keys)
	}
	if cfg.SpeechCommand != "espeak" {
		t.Fatalf("speech command = %q", cfg.SpeechCommand)
	}
}

func TestValidate(t *testing.T) {
	cases := map[string]string{
		"unknown backend": `backend = "etcd"`,
		"redis no url":    `backend = "redis"`,
		"zero interval":   `poll_interval = "0s"`,
	}
	for name, content := range cases {
		t.Run(name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), DefaultConfigFileName)
			if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
				t.Fatal(err)
			}
			if _, err := LoadOrCreate(path); err == nil {
				t.Fatal("expected validation error")
			}
		})
	}
}

func TestResolveConfigPath(t *testing.T) {
	t.Setenv(EnvConfigPath, "/tmp/custom.toml")
	if got := ResolveConfigPath(); got != "/tmp/custom.toml" {
		t.Fatalf("got %q", got)
	}

	t.Setenv(EnvConfigPath, "")
	t.Setenv("XDG_CONFIG_HOME", "/xdg")
	if got := ResolveConfigPath(); got != filepath.Join("/xdg", AppName, DefaultConfigFileName) {
		t.Fatalf("got %q", got)
	}
}

func TestFirstLaunchDetectsCommands(t *testing.T) {
	orig := lookPath
	t.Cleanup(func() { lookPath = orig })

	onPath := map[string]bool{"spd-say": true, "afplay": true}
	lookPath = func(name string) (string, error) {
		if onPath[name] {
			return "/usr/bin/" + name, nil
		}
		return "", exec.ErrNotFound
	}

	path := filepath.Join(t.TempDir(), DefaultConfigFileName)
	cfg, err := LoadOrCreate(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.SpeechCommand != "spd-say" {
		t.Errorf("speech = %q, want spd-say", cfg.SpeechCommand)
	}
	if cfg.SoundCommand != "afplay /System/Library/Sounds/Glass.aiff" {
		t.Errorf("sound = %q", cfg.SoundCommand)
	}
	data, _ := os.ReadFile(path)
	if !strings.Contains(string(data), "spd-say") {
		t.Fatalf("detected command not written:\n%s", data)
	}

	// Nothing found leaves both empty; the bell still rings.
	onPath = map[string]bool{}
	cfg, err = LoadOrCreate(filepath.Join(t.TempDir(), DefaultConfigFileName))
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.SpeechCommand != "" || cfg.SoundCommand != "" {
		t.Fatalf("expected no commands, got %q / %q", cfg.SpeechCommand, cfg.SoundCommand)
	}
}
