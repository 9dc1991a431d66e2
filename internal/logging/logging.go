// Package logging configures the logrus logger. The terminal belongs to the
// UI, so output goes to a file.
package logging

import (
	"io"
	"os"
	"path/filepath"
	"strconv"

	log "github.com/sirupsen/logrus"
)

// Setup returns a logger writing to path at the named level. DEBUG=1 in the
// environment forces debug level. An empty path discards output. The returned
// closer releases the log file.
func Setup(path, level string) (*log.Logger, io.Closer, error) {
	l := log.New()
	l.SetFormatter(&log.TextFormatter{FullTimestamp: true, DisableColors: true})

	lvl, err := log.ParseLevel(level)
	if err != nil {
		lvl = log.InfoLevel
	}
	if dbg, err := strconv.ParseBool(os.Getenv("DEBUG")); err == nil && dbg {
		lvl = log.DebugLevel
	}
	l.SetLevel(lvl)

	if path == "" {
		l.SetOutput(io.Discard)
		return l, io.NopCloser(nil), nil
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, nil, err
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, nil, err
	}
	l.SetOutput(f)
	return l, f, nil
}
