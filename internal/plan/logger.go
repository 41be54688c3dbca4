package plan

import (
	"fmt"
	"sync"
)

// BufferedLogger accumulates log lines for one plan and flushes them to a
// sink on completion. Batch runs give each plan its own buffer so worker
// goroutines never contend on a shared sink.
type BufferedLogger struct {
	mu    sync.Mutex
	name  string
	lines []string
}

// Sink receives flushed log lines.
type Sink interface {
	Printf(format string, args ...any)
}

// NewBufferedLogger creates a logger tagged with the plan name.
func NewBufferedLogger(name string) *BufferedLogger {
	return &BufferedLogger{name: name}
}

func (l *BufferedLogger) append(level, format string, args ...any) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.lines = append(l.lines, fmt.Sprintf("%s [%s] %s", level, l.name, fmt.Sprintf(format, args...)))
}

// Debugf implements calculation.Logger.
func (l *BufferedLogger) Debugf(format string, args ...any) { l.append("DEBUG", format, args...) }

// Infof implements calculation.Logger.
func (l *BufferedLogger) Infof(format string, args ...any) { l.append("INFO", format, args...) }

// Warnf implements calculation.Logger.
func (l *BufferedLogger) Warnf(format string, args ...any) { l.append("WARN", format, args...) }

// Errorf implements calculation.Logger.
func (l *BufferedLogger) Errorf(format string, args ...any) { l.append("ERROR", format, args...) }

// Lines returns a copy of the buffered lines.
func (l *BufferedLogger) Lines() []string {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]string(nil), l.lines...)
}

// Flush writes all buffered lines to the sink and clears the buffer.
func (l *BufferedLogger) Flush(sink Sink) {
	l.mu.Lock()
	lines := l.lines
	l.lines = nil
	l.mu.Unlock()
	if sink == nil {
		return
	}
	for _, line := range lines {
		sink.Printf("%s", line)
	}
}
