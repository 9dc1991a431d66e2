package config

import (
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	toml "github.com/pelletier/go-toml/v2"
)

const (
	AppName               = "daylist"
	DefaultConfigFileName = "config.toml"
	DefaultDBName         = "daylist.db"
	DefaultLogName        = "daylist.log"

	// EnvConfigPath overrides the resolved config file location.
	EnvConfigPath = "DAYLIST_CONFIG"
)

// Command lines tried in order when the config file is first written.
var (
	speechCandidates = []string{"espeak", "spd-say", "say"}
	soundCandidates  = []string{
		"paplay /usr/share/sounds/freedesktop/stereo/complete.oga",
		"afplay /System/Library/Sounds/Glass.aiff",
	}
)

var lookPath = exec.LookPath

type Keymap struct {
	Quit      string `toml:"quit"`
	Add       string `toml:"add"`
	Up        string `toml:"up"`
	Down      string `toml:"down"`
	Toggle    string `toml:"toggle"`
	Delete    string `toml:"delete"`
	Confirm   string `toml:"confirm"`
	Cancel    string `toml:"cancel"`
	NextField string `toml:"next_field"`
}

type Config struct {
	Backend          string   `toml:"backend"`
	DBPath           string   `toml:"db_path"`
	RedisURL         string   `toml:"redis_url"`
	RedisPrefix      string   `toml:"redis_prefix"`
	PollInterval     Duration `toml:"poll_interval"`
	ReminderTemplate string   `toml:"reminder_template"`
	SpeechCommand    string   `toml:"speech_command"`
	SoundCommand     string   `toml:"sound_command"`
	Bell             bool     `toml:"bell"`
	LogFile          string   `toml:"log_file"`
	LogLevel         string   `toml:"log_level"`
	Keys             Keymap   `toml:"keys"`
}

// Duration is a time.Duration written as a Go duration string ("1m").
type Duration time.Duration

func (d Duration) MarshalText() ([]byte, error) {
	return []byte(time.Duration(d).String()), nil
}

func (d *Duration) UnmarshalText(b []byte) error {
	v, err := time.ParseDuration(string(b))
	if err != nil {
		return err
	}
	*d = Duration(v)
	return nil
}

// ResolveConfigPath returns $DAYLIST_CONFIG, else config.toml under
// $XDG_CONFIG_HOME/daylist or ~/.config/daylist.
func ResolveConfigPath() string {
	if p := os.Getenv(EnvConfigPath); p != "" {
		return p
	}
	return filepath.Join(DefaultDir(), DefaultConfigFileName)
}

func DefaultDir() string {
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, AppName)
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return AppName
	}
	return filepath.Join(home, ".config", AppName)
}

func LoadOrCreate(path string) (Config, error) {
	cfg := defaultConfig(filepath.Dir(path))
	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		cfg.SpeechCommand = detectCommand(speechCandidates)
		cfg.SoundCommand = detectCommand(soundCandidates)
		if err := write(path, cfg); err != nil {
			return cfg, err
		}
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, err
	}
	if err := toml.Unmarshal(data, &cfg); err != nil {
		return cfg, err
	}
	if cfg.DBPath == "" {
		cfg.DBPath = filepath.Join(filepath.Dir(path), DefaultDBName)
	}
	return cfg, cfg.Validate()
}

func (c Config) Validate() error {
	switch c.Backend {
	case "sqlite", "memory":
	case "redis":
		if c.RedisURL == "" {
			return errors.New("redis backend requires redis_url")
		}
	default:
		return fmt.Errorf("unknown backend %q", c.Backend)
	}
	if c.PollInterval <= 0 {
		return fmt.Errorf("poll_interval must be positive, got %s", time.Duration(c.PollInterval))
	}
	return nil
}

// detectCommand returns the first candidate whose program is on PATH, or ""
// when none is.
func detectCommand(candidates []string) string {
	for _, line := range candidates {
		fields := strings.Fields(line)
		if len(fields) == 0 {
			continue
		}
		if _, err := lookPath(fields[0]); err == nil {
			return line
		}
	}
	return ""
}

func write(path string, cfg Config) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	data, err := toml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}

func defaultConfig(dir string) Config {
	return Config{
		Backend:          "sqlite",
		DBPath:           filepath.Join(dir, DefaultDBName),
		RedisPrefix:      "daylist:",
		PollInterval:     Duration(time.Minute),
		ReminderTemplate: "It's {time}. Task: {text}",
		SpeechCommand:    "",
		SoundCommand:     "",
		Bell:             true,
		LogFile:          filepath.Join(dir, DefaultLogName),
		LogLevel:         "info",
		Keys: Keymap{
			Quit:      "q",
			Add:       "a",
			Up:        "k",
			Down:      "j",
			Toggle:    " ",
			Delete:    "d",
			Confirm:   "enter",
			Cancel:    "esc",
			NextField: "tab",
		},
	}
}
