package logging

import (
	"io"
	"os"
	"sync"
	"time"

	"github.com/capsela/capsela-util/internal/event"
)

// TimeLayout is the timestamp layout of a log line, in local time.
const TimeLayout = "2006-01-02 15:04:05"

// Log is a syslog-style sink. Lines of priority Warning and more severe go
// to the error writer, the rest to the output writer. It is safe for
// concurrent use.
type Log struct {
	mu  sync.Mutex
	out io.Writer
	err io.Writer
	now func() time.Time
}

// LogOption configures a Log.
type LogOption func(*Log)

// WithWriters sets the output and error writers (stdout and stderr by
// default). A nil writer leaves the default in place.
func WithWriters(out, errOut io.Writer) LogOption {
	return func(l *Log) {
		if out != nil {
			l.out = out
		}
		if errOut != nil {
			l.err = errOut
		}
	}
}

// WithClock sets the time source used to stamp lines.
func WithClock(now func() time.Time) LogOption {
	return func(l *Log) { l.now = now }
}

// NewLog creates a Log.
func NewLog(opts ...LogOption) *Log {
	l := &Log{
		out: os.Stdout,
		err: os.Stderr,
		now: time.Now,
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Log writes msg at priority p to the writer p belongs to.
func (l *Log) Log(p Priority, msg string) error {
	w := l.out
	if p.IsError() {
		w = l.err
	}
	return l.WriteEvent(p, msg, w)
}

// WriteEvent formats one line stamped with the current time and writes it
// to w.
func (l *Log) WriteEvent(p Priority, msg string, w io.Writer) error {
	line := FormatLine(l.now(), p, msg)
	l.mu.Lock()
	defer l.mu.Unlock()
	_, err := io.WriteString(w, line)
	return err
}

// Watch logs every message logger emits from now on. The returned ID
// stops watching when passed to logger.Off.
func (l *Log) Watch(logger *Logger) string {
	return logger.On(func(e event.LogEvent) {
		_ = l.Log(Priority(e.Priority), e.Message)
	})
}

// FormatLine renders a log line: "YYYY-MM-DD HH:MM:SS LEVEL: message\n".
func FormatLine(t time.Time, p Priority, msg string) string {
	return t.Format(TimeLayout) + " " + p.String() + ": " + msg + "\n"
}
