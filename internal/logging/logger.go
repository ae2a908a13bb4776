package logging

import (
	"context"
	"log/slog"
	"strconv"
	"strings"
	"sync/atomic"

	"github.com/capsela/capsela-util/internal/event"
)

// Logger is a log source. It renders each accepted message, attributes
// included, into a single line and emits it as an event.LogEvent to its
// watchers; it writes nothing itself. A Log is the usual watcher.
//
// Logger is safe for concurrent use. Loggers derived with With share the
// parent's watchers and level.
type Logger struct {
	name   string
	bus    *event.Bus
	level  *slog.LevelVar
	logger *slog.Logger
}

// NewLogger creates a Logger that accepts messages at level or more severe.
func NewLogger(name string, level Priority) *Logger {
	lv := new(slog.LevelVar)
	lv.Set(level.Level())
	bus := event.NewBus()
	return &Logger{
		name:   name,
		bus:    bus,
		level:  lv,
		logger: slog.New(&busHandler{name: name, bus: bus, level: lv}),
	}
}

// NopLogger returns a Logger that drops every message.
func NopLogger() *Logger {
	lv := new(slog.LevelVar)
	lv.Set(priorityLevels[Emergency] + 1)
	return &Logger{
		bus:    event.NewBus(),
		level:  lv,
		logger: slog.New(slog.DiscardHandler),
	}
}

var defaultLogger atomic.Pointer[Logger]

func init() {
	defaultLogger.Store(NewLogger("capsela", Info))
}

// Default returns the package-level Logger used by the library for
// diagnostics that are not errors.
func Default() *Logger {
	return defaultLogger.Load()
}

// SetDefault replaces the package-level Logger.
func SetDefault(l *Logger) {
	defaultLogger.Store(l)
}

// Name returns the logger's name.
func (l *Logger) Name() string {
	return l.name
}

// Slog returns the underlying slog.Logger. Records logged through it are
// emitted like any other message, with slog levels mapped to priorities.
func (l *Logger) Slog() *slog.Logger {
	return l.logger
}

// SetLevel changes the least severe priority the logger accepts.
func (l *Logger) SetLevel(p Priority) {
	l.level.Set(p.Level())
}

// Level returns the least severe priority the logger accepts.
func (l *Logger) Level() Priority {
	return PriorityFromLevel(l.level.Level())
}

// Enabled reports whether a message at p would be emitted.
func (l *Logger) Enabled(p Priority) bool {
	return l.logger.Enabled(context.Background(), p.Level())
}

// With returns a Logger that appends the given key-value pairs to every
// message.
func (l *Logger) With(args ...any) *Logger {
	if len(args) == 0 {
		return l
	}
	return &Logger{
		name:   l.name,
		bus:    l.bus,
		level:  l.level,
		logger: l.logger.With(args...),
	}
}

// On registers fn for every message the logger emits and returns an ID for
// Off.
func (l *Logger) On(fn func(event.LogEvent)) string {
	return l.bus.Subscribe(event.TypeLog, func(e event.Event) {
		if le, ok := e.(event.LogEvent); ok {
			fn(le)
		}
	})
}

// Off removes a handler registered with On.
func (l *Logger) Off(id string) bool {
	return l.bus.Unsubscribe(id)
}

// Log emits msg at priority p. Args are key-value pairs as for slog.
func (l *Logger) Log(p Priority, msg string, args ...any) {
	l.logger.Log(context.Background(), p.Level(), msg, args...)
}

func (l *Logger) Debug(msg string, args ...any)     { l.Log(Debug, msg, args...) }
func (l *Logger) Info(msg string, args ...any)      { l.Log(Info, msg, args...) }
func (l *Logger) Notice(msg string, args ...any)    { l.Log(Notice, msg, args...) }
func (l *Logger) Warn(msg string, args ...any)      { l.Log(Warning, msg, args...) }
func (l *Logger) Error(msg string, args ...any)     { l.Log(Error, msg, args...) }
func (l *Logger) Critical(msg string, args ...any)  { l.Log(Critical, msg, args...) }
func (l *Logger) Alert(msg string, args ...any)     { l.Log(Alert, msg, args...) }
func (l *Logger) Emergency(msg string, args ...any) { l.Log(Emergency, msg, args...) }

// busHandler is a slog.Handler that publishes each record as a LogEvent.
type busHandler struct {
	name   string
	bus    *event.Bus
	level  slog.Leveler
	attrs  string // pre-rendered attributes from WithAttrs
	prefix string // open groups, as "a.b."
}

func (h *busHandler) Enabled(_ context.Context, level slog.Level) bool {
	return level >= h.level.Level()
}

func (h *busHandler) Handle(_ context.Context, r slog.Record) error {
	var b strings.Builder
	b.WriteString(r.Message)
	b.WriteString(h.attrs)
	r.Attrs(func(a slog.Attr) bool {
		appendAttr(&b, h.prefix, a)
		return true
	})
	h.bus.Publish(event.NewLogEvent(int(PriorityFromLevel(r.Level)), b.String(), h.name, r.Time))
	return nil
}

func (h *busHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	if len(attrs) == 0 {
		return h
	}
	var b strings.Builder
	b.WriteString(h.attrs)
	for _, a := range attrs {
		appendAttr(&b, h.prefix, a)
	}
	h2 := *h
	h2.attrs = b.String()
	return &h2
}

func (h *busHandler) WithGroup(name string) slog.Handler {
	if name == "" {
		return h
	}
	h2 := *h
	h2.prefix = h.prefix + name + "."
	return &h2
}

// appendAttr renders a as " key=value", flattening groups into dotted keys.
func appendAttr(b *strings.Builder, prefix string, a slog.Attr) {
	a.Value = a.Value.Resolve()
	if a.Equal(slog.Attr{}) {
		return
	}
	if a.Value.Kind() == slog.KindGroup {
		p := prefix
		if a.Key != "" {
			p = prefix + a.Key + "."
		}
		for _, ga := range a.Value.Group() {
			appendAttr(b, p, ga)
		}
		return
	}
	b.WriteByte(' ')
	b.WriteString(prefix)
	b.WriteString(a.Key)
	b.WriteByte('=')
	b.WriteString(quoteIfNeeded(a.Value.String()))
}

func quoteIfNeeded(s string) string {
	if s == "" || strings.ContainsAny(s, " =\"\t\n") {
		return strconv.Quote(s)
	}
	return s
}
