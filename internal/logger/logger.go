package logger

import (
	"io"
	"os"
	"strings"
	"sync"
	"time"

	"booru/internal/domain"

	"github.com/rs/zerolog"
	"gopkg.in/natefinch/lumberjack.v2"
)

// Logger wraps a zerolog.Logger so the level can change while the program runs.
type Logger interface {
	Log() *zerolog.Event
	Fatal() *zerolog.Event
	Err(err error) *zerolog.Event
	Error() *zerolog.Event
	Warn() *zerolog.Event
	Info() *zerolog.Event
	Trace() *zerolog.Event
	Debug() *zerolog.Event
	With() zerolog.Context
	Zerolog() zerolog.Logger
	SetLogLevel(level string)
}

// DefaultLogger is safe for concurrent use; SetLogLevel may run while other
// goroutines log.
type DefaultLogger struct {
	m      sync.RWMutex
	log    zerolog.Logger
	level  zerolog.Level
	writer io.Writer
}

func New(cfg *domain.Config) Logger {
	l := &DefaultLogger{
		writer: zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: time.DateTime},
		level:  zerolog.DebugLevel,
	}

	zerolog.TimeFieldFormat = time.RFC3339

	if cfg.LogPath != "" {
		l.writer = &lumberjack.Logger{
			Filename:   cfg.LogPath,
			MaxSize:    cfg.LogMaxSize, // megabytes
			MaxBackups: cfg.LogMaxBackups,
		}
	}

	l.log = zerolog.New(l.writer).With().Timestamp().Logger()
	l.SetLogLevel(cfg.LogLevel)

	return l
}

// NewWriter logs json lines to w at level.
func NewWriter(w io.Writer, level string) Logger {
	l := &DefaultLogger{writer: w}
	l.log = zerolog.New(w).With().Timestamp().Logger()
	l.SetLogLevel(level)

	return l
}

// Nop discards everything. Used by tests and library callers that don't log.
func Nop() Logger {
	return &DefaultLogger{log: zerolog.Nop(), level: zerolog.Disabled, writer: io.Discard}
}

func (l *DefaultLogger) SetLogLevel(level string) {
	lvl, err := zerolog.ParseLevel(strings.ToLower(level))
	if err != nil || level == "" {
		lvl = zerolog.DebugLevel
	}

	l.m.Lock()
	defer l.m.Unlock()

	l.level = lvl
	l.log = l.log.Level(lvl)
}

func (l *DefaultLogger) current() *zerolog.Logger {
	l.m.RLock()
	defer l.m.RUnlock()

	log := l.log
	return &log
}

func (l *DefaultLogger) Log() *zerolog.Event {
	return l.current().Log()
}

func (l *DefaultLogger) Fatal() *zerolog.Event {
	return l.current().Fatal()
}

func (l *DefaultLogger) Err(err error) *zerolog.Event {
	return l.current().Err(err)
}

func (l *DefaultLogger) Error() *zerolog.Event {
	return l.current().Error()
}

func (l *DefaultLogger) Warn() *zerolog.Event {
	return l.current().Warn()
}

func (l *DefaultLogger) Info() *zerolog.Event {
	return l.current().Info()
}

func (l *DefaultLogger) Trace() *zerolog.Event {
	return l.current().Trace()
}

func (l *DefaultLogger) Debug() *zerolog.Event {
	return l.current().Debug()
}

func (l *DefaultLogger) With() zerolog.Context {
	return l.current().With()
}

func (l *DefaultLogger) Zerolog() zerolog.Logger {
	return *l.current()
}
