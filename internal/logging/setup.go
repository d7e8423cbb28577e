package logging

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"
	"time"

	log "github.com/sirupsen/logrus"

	"go-genai-core/internal/config"
)

var (
	logMux        sync.Mutex
	logFileHandle *os.File
)

// Setup configures the global logrus logger using runtime configuration.
// It is idempotent and can be called multiple times; the most recent call wins.
func Setup(cfg *config.Config) error {
	logMux.Lock()
	defer logMux.Unlock()

	var formatter log.Formatter = &log.JSONFormatter{TimestampFormat: time.RFC3339Nano}
	if cfg != nil && cfg.Debug {
		formatter = &log.TextFormatter{
			FullTimestamp:   true,
			TimestampFormat: time.RFC3339Nano,
		}
	}
	log.SetFormatter(formatter)

	level := log.InfoLevel
	if cfg != nil && cfg.Debug {
		level = log.DebugLevel
	}
	log.SetLevel(level)

	var writers []io.Writer
	writers = append(writers, os.Stdout)

	if logFileHandle != nil {
		_ = logFileHandle.Close()
		logFileHandle = nil
	}

	if cfg != nil && cfg.LogFile != "" {
		if err := os.MkdirAll(filepath.Dir(cfg.LogFile), 0o755); err != nil {
			return fmt.Errorf("create log directory: %w", err)
		}
		file, err := os.OpenFile(cfg.LogFile, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
		if err != nil {
			return fmt.Errorf("open log file: %w", err)
		}
		logFileHandle = file
		writers = append(writers, file)
	}

	log.SetOutput(io.MultiWriter(writers...))
	log.StandardLogger().ReplaceHooks(make(log.LevelHooks))
	log.AddHook(authHook{auth: defaultAuthLabel(cfg)})
	return nil
}

func defaultAuthLabel(cfg *config.Config) string {
	if cfg == nil || cfg.DefaultAuth == "" {
		return "unknown"
	}
	return string(cfg.DefaultAuth)
}

// authHook stamps every log entry with the strategy a fresh Coordinator
// would use by default, so log lines are traceable to an auth strategy even
// when the emitting code has no opts.Auth in scope (e.g. config/auth setup
// itself, before any Coordinator exists).
type authHook struct {
	auth string
}

func (h authHook) Levels() []log.Level {
	return log.AllLevels
}

func (h authHook) Fire(entry *log.Entry) error {
	if _, ok := entry.Data["default_auth"]; !ok {
		entry.Data["default_auth"] = h.auth
	}
	return nil
}
