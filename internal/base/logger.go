package base

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/fatih/color"
	"github.com/half-nothing/simple-wxguard/internal/interfaces/global"
)

var (
	debugTag = color.New(color.FgHiBlack).Sprint("DEBUG")
	infoTag  = color.New(color.FgGreen).Sprint("INFO ")
	warnTag  = color.New(color.FgYellow).Sprint("WARN ")
	errorTag = color.New(color.FgRed).Sprint("ERROR")
	fatalTag = color.New(color.FgHiRed, color.Bold).Sprint("FATAL")
)

// consoleHandler writes one colored line per record
type consoleHandler struct {
	level  *slog.LevelVar
	mu     *sync.Mutex
	writer io.Writer
	attrs  []slog.Attr
}

func (h *consoleHandler) Enabled(_ context.Context, level slog.Level) bool {
	return level >= h.level.Level()
}

func (h *consoleHandler) Handle(_ context.Context, record slog.Record) error {
	var tag string
	switch {
	case record.Level >= slog.LevelError+4:
		tag = fatalTag
	case record.Level >= slog.LevelError:
		tag = errorTag
	case record.Level >= slog.LevelWarn:
		tag = warnTag
	case record.Level >= slog.LevelInfo:
		tag = infoTag
	default:
		tag = debugTag
	}
	var sb strings.Builder
	sb.WriteString(record.Time.Format("2006-01-02 15:04:05.000"))
	sb.WriteString(" ")
	sb.WriteString(tag)
	sb.WriteString(" ")
	sb.WriteString(record.Message)
	appendAttr := func(attr slog.Attr) bool {
		sb.WriteString(" ")
		sb.WriteString(attr.Key)
		sb.WriteString("=")
		sb.WriteString(attr.Value.String())
		return true
	}
	for _, attr := range h.attrs {
		appendAttr(attr)
	}
	record.Attrs(appendAttr)
	sb.WriteString("\n")

	h.mu.Lock()
	defer h.mu.Unlock()
	_, err := io.WriteString(h.writer, sb.String())
	return err
}

func (h *consoleHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	merged := make([]slog.Attr, 0, len(h.attrs)+len(attrs))
	merged = append(merged, h.attrs...)
	merged = append(merged, attrs...)
	return &consoleHandler{level: h.level, mu: h.mu, writer: h.writer, attrs: merged}
}

func (h *consoleHandler) WithGroup(_ string) slog.Handler { return h }

// fanoutHandler sends every record to all handlers that accept it
type fanoutHandler []slog.Handler

func (f fanoutHandler) Enabled(ctx context.Context, level slog.Level) bool {
	for _, h := range f {
		if h.Enabled(ctx, level) {
			return true
		}
	}
	return false
}

func (f fanoutHandler) Handle(ctx context.Context, record slog.Record) error {
	for _, h := range f {
		if h.Enabled(ctx, record.Level) {
			if err := h.Handle(ctx, record.Clone()); err != nil {
				return err
			}
		}
	}
	return nil
}

func (f fanoutHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	handlers := make(fanoutHandler, len(f))
	for i, h := range f {
		handlers[i] = h.WithAttrs(attrs)
	}
	return handlers
}

func (f fanoutHandler) WithGroup(name string) slog.Handler {
	handlers := make(fanoutHandler, len(f))
	for i, h := range f {
		handlers[i] = h.WithGroup(name)
	}
	return handlers
}

const levelFatal = slog.LevelError + 4

type Logger struct {
	logger  *slog.Logger
	level   *slog.LevelVar
	logFile *os.File
}

func NewLogger() *Logger {
	level := &slog.LevelVar{}
	return &Logger{
		level:  level,
		logger: slog.New(&consoleHandler{level: level, mu: &sync.Mutex{}, writer: os.Stdout}),
	}
}

func (l *Logger) Init(debug bool) {
	if debug {
		l.level.Set(slog.LevelDebug)
	} else {
		l.level.Set(slog.LevelInfo)
	}

	console := &consoleHandler{level: l.level, mu: &sync.Mutex{}, writer: os.Stdout}
	handlers := fanoutHandler{console}

	if err := os.MkdirAll(global.LogDirectory, global.DefaultDirectoryPermission); err == nil {
		file, err := os.OpenFile(filepath.Join(global.LogDirectory, global.LogFileName), os.O_CREATE|os.O_WRONLY|os.O_APPEND, global.DefaultFilePermissions)
		if err == nil {
			l.logFile = file
			handlers = append(handlers, slog.NewJSONHandler(file, &slog.HandlerOptions{Level: l.level}))
		}
	}

	l.logger = slog.New(handlers)
	slog.SetDefault(l.logger)
}

func (l *Logger) ShutdownCallback() global.Callable {
	return global.CallableFunc(func(_ context.Context) error {
		if l.logFile == nil {
			return nil
		}
		if err := l.logFile.Sync(); err != nil {
			return err
		}
		return l.logFile.Close()
	})
}

func (l *Logger) Debug(msg string, v ...interface{}) { l.logger.Debug(msg, v...) }

func (l *Logger) DebugF(msg string, v ...interface{}) { l.logger.Debug(fmt.Sprintf(msg, v...)) }

func (l *Logger) Info(msg string, v ...interface{}) { l.logger.Info(msg, v...) }

func (l *Logger) InfoF(msg string, v ...interface{}) { l.logger.Info(fmt.Sprintf(msg, v...)) }

func (l *Logger) Warn(msg string, v ...interface{}) { l.logger.Warn(msg, v...) }

func (l *Logger) WarnF(msg string, v ...interface{}) { l.logger.Warn(fmt.Sprintf(msg, v...)) }

func (l *Logger) Error(msg string, v ...interface{}) { l.logger.Error(msg, v...) }

func (l *Logger) ErrorF(msg string, v ...interface{}) { l.logger.Error(fmt.Sprintf(msg, v...)) }

func (l *Logger) Fatal(msg string, v ...interface{}) {
	l.logger.Log(context.Background(), levelFatal, msg, v...)
}

func (l *Logger) FatalF(msg string, v ...interface{}) {
	l.logger.Log(context.Background(), levelFatal, fmt.Sprintf(msg, v...))
}
