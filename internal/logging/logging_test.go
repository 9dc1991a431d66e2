package logging

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	log "github.com/sirupsen/logrus"
)

func TestSetupWritesToFile(t *testing.T) {
	t.Setenv("DEBUG", "")
	path := filepath.Join(t.TempDir(), "logs", "daylist.log")
	l, closer, err := Setup(path, "warn")
	if err != nil {
		t.Fatalf("setup: %v", err)
	}
	if l.GetLevel() != log.WarnLevel {
		t.Fatalf("level = %v", l.GetLevel())
	}
	l.Info("hidden")
	l.WithField("task", "Standup").Warn("shown")
	if err := closer.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	out := string(data)
	if strings.Contains(out, "hidden") || !strings.Contains(out, "task=Standup") {
		t.Fatalf("unexpected log output:\n%s", out)
	}
}

func TestSetupDebugEnvAndBadLevel(t *testing.T) {
	t.Setenv("DEBUG", "")
	l, _, err := Setup("", "loud")
	if err != nil {
		t.Fatalf("setup: %v", err)
	}
	if l.GetLevel() != log.InfoLevel {
		t.Fatalf("bad level should fall back to info, got %v", l.GetLevel())
	}

	t.Setenv("DEBUG", "1")
	l, _, _ = Setup("", "error")
	if l.GetLevel() != log.DebugLevel {
		t.Fatalf("DEBUG=1 should force debug, got %v", l.GetLevel())
	}
}
