// Package logging builds the service's slog logger from configuration.
//
//	logger, err := logging.New(logging.Config{Level: "info", Format: "json"}, os.Stdout)
//	if err != nil {
//	    return err
//	}
//	logger.Info("order advanced", "order_id", id, "status", "picking")
package logging

import (
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"
)

// Config selects the minimum level (debug, info, warn, error) and the
// output format (json, text). Empty values mean info and json.
type Config struct {
	Level  string
	Format string
}

// New creates a logger writing to w.
func New(cfg Config, w io.Writer) (*slog.Logger, error) {
	level, err := ParseLevel(cfg.Level)
	if err != nil {
		return nil, err
	}

	opts := &slog.HandlerOptions{
		Level: level,
		ReplaceAttr: func(_ []string, a slog.Attr) slog.Attr {
			if a.Key == slog.TimeKey {
				return slog.String(slog.TimeKey, a.Value.Time().UTC().Format(time.RFC3339Nano))
			}
			return a
		},
	}

	switch strings.ToLower(strings.TrimSpace(cfg.Format)) {
	case "", "json":
		return slog.New(slog.NewJSONHandler(w, opts)), nil
	case "text":
		return slog.New(slog.NewTextHandler(w, opts)), nil
	default:
		return nil, fmt.Errorf("unknown log format %q (want json or text)", cfg.Format)
	}
}

// ParseLevel maps a level name to slog.Level.
func ParseLevel(s string) (slog.Level, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return slog.LevelDebug, nil
	case "", "info":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return slog.LevelInfo, fmt.Errorf("unknown log level %q", s)
	}
}
