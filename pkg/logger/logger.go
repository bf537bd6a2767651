package logger

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
)

// Config describes how the application logger should behave.
type Config struct {
	Level       string
	Format      string
	OutputPaths []string
}

var (
	mu            sync.RWMutex
	defaultLogger *slog.Logger
	closers       []io.Closer
)

// Init configures the global logger. Calling it again replaces the previous
// configuration and closes any files it opened.
func Init(cfg Config) error {
	handler, opened, err := buildHandler(cfg)
	if err != nil {
		return err
	}

	mu.Lock()
	old := closers
	defaultLogger = slog.New(handler)
	closers = opened
	mu.Unlock()

	slog.SetDefault(defaultLogger)

	for _, c := range old {
		_ = c.Close()
	}
	return nil
}

func buildHandler(cfg Config) (slog.Handler, []io.Closer, error) {
	var opened []io.Closer
	writers := make([]io.Writer, 0, len(cfg.OutputPaths))
	if len(cfg.OutputPaths) == 0 {
		writers = append(writers, os.Stdout)
	}
	for _, out := range cfg.OutputPaths {
		w, c, err := openWriter(out)
		if err != nil {
			for _, o := range opened {
				_ = o.Close()
			}
			return nil, nil, err
		}
		if c != nil {
			opened = append(opened, c)
		}
		writers = append(writers, w)
	}

	var writer io.Writer = writers[0]
	if len(writers) > 1 {
		writer = io.MultiWriter(writers...)
	}

	opts := &slog.HandlerOptions{Level: ParseLevel(cfg.Level)}
	if strings.EqualFold(cfg.Format, "json") {
		return slog.NewJSONHandler(writer, opts), opened, nil
	}
	return slog.NewTextHandler(writer, opts), opened, nil
}

func openWriter(path string) (io.Writer, io.Closer, error) {
	switch strings.ToLower(path) {
	case "stdout", "":
		return os.Stdout, nil, nil
	case "stderr":
		return os.Stderr, nil, nil
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, nil, fmt.Errorf("create log directory: %w", err)
	}
	file, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, nil, fmt.Errorf("open log file %s: %w", path, err)
	}
	return file, file, nil
}

// ParseLevel maps a textual level to slog.Level. Unknown values mean info.
func ParseLevel(level string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(level)) {
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

// L returns the structured logger instance.
func L() *slog.Logger {
	mu.RLock()
	l := defaultLogger
	mu.RUnlock()
	if l != nil {
		return l
	}
	_ = Init(Config{})
	return L()
}

// Named returns a child logger tagged with the component name.
func Named(name string) *slog.Logger {
	return L().With(slog.String("component", name))
}

// Sync closes any log files opened by Init.
func Sync() error {
	mu.Lock()
	defer mu.Unlock()
	var err error
	for _, c := range closers {
		err = errors.Join(err, c.Close())
	}
	closers = nil
	return err
}
