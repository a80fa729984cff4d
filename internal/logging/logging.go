package logging

import (
	"io"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"sync/atomic"
)

const (
	EnvLevel = "CLEANSTAGE_LOG_LEVEL"
	EnvJSON  = "CLEANSTAGE_LOG_JSON"
)

type Options struct {
	Level  string
	JSON   bool
	Output io.Writer // default os.Stderr
}

var def atomic.Value

func init() {
	cfg := &slog.HandlerOptions{Level: slog.LevelInfo}
	h := slog.NewTextHandler(os.Stderr, cfg)
	def.Store(slog.New(h))
}

func Configure(opts Options) {
	out := opts.Output
	if out == nil {
		out = os.Stderr
	}
	cfg := &slog.HandlerOptions{Level: parseLevel(opts.Level)}
	var h slog.Handler
	if opts.JSON {
		h = slog.NewJSONHandler(out, cfg)
	} else {
		h = slog.NewTextHandler(out, cfg)
	}
	def.Store(slog.New(h))
}

func parseLevel(s string) slog.Level {
	s = strings.ToLower(strings.TrimSpace(s))
	switch s {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

func L() *slog.Logger {
	l, _ := def.Load().(*slog.Logger)
	return l
}

// FromEnv reads the log options from CLEANSTAGE_LOG_LEVEL and
// CLEANSTAGE_LOG_JSON. Callers may override fields before Configure.
func FromEnv() Options {
	json := false
	if b, err := strconv.ParseBool(strings.TrimSpace(os.Getenv(EnvJSON))); err == nil {
		json = b
	}
	return Options{Level: os.Getenv(EnvLevel), JSON: json}
}

func InitFromEnv() {
	Configure(FromEnv())
}
