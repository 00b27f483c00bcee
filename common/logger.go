package common

import (
	"fmt"
	"io"
	"log"
	"os"
	"sync"
)

// Logger is the diagnostic sink shared by the engine packages.
// Implementations must be safe to call from the render thread at any time.
type Logger interface {
	// DebugEnabled reports whether Debugf output is emitted.
	DebugEnabled() bool

	// SetDebug toggles Debugf output.
	SetDebug(enabled bool)

	Debugf(format string, args ...any)
	Infof(format string, args ...any)
	Warnf(format string, args ...any)
	Errorf(format string, args ...any)
}

// DefaultLogger writes "[Tag] LEVEL: message" lines through the standard log package.
// Info and debug go to out, warnings and errors go to err.
type DefaultLogger struct {
	mu    sync.Mutex
	debug bool
	tag   string
	out   *log.Logger
	err   *log.Logger
}

var _ Logger = &DefaultLogger{}

// NewDefaultLogger creates a DefaultLogger writing to stdout/stderr.
//
// Parameters:
//   - tag: the bracketed prefix for every line (e.g. "Renderer")
//   - debug: whether Debugf output is enabled
//
// Returns:
//   - *DefaultLogger: the logger
func NewDefaultLogger(tag string, debug bool) *DefaultLogger {
	return NewWriterLogger(os.Stdout, os.Stderr, tag, debug)
}

// NewWriterLogger creates a DefaultLogger over arbitrary writers.
//
// Parameters:
//   - out: destination for debug and info lines
//   - errOut: destination for warning and error lines
//   - tag: the bracketed prefix for every line
//   - debug: whether Debugf output is enabled
//
// Returns:
//   - *DefaultLogger: the logger
func NewWriterLogger(out, errOut io.Writer, tag string, debug bool) *DefaultLogger {
	flags := log.LstdFlags | log.Lmicroseconds
	return &DefaultLogger{
		debug: debug,
		tag:   tag,
		out:   log.New(out, "", flags),
		err:   log.New(errOut, "", flags),
	}
}

func (l *DefaultLogger) DebugEnabled() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.debug
}

func (l *DefaultLogger) SetDebug(enabled bool) {
	l.mu.Lock()
	l.debug = enabled
	l.mu.Unlock()
}

func (l *DefaultLogger) format(level string, format string, args ...any) string {
	if l.tag != "" {
		return fmt.Sprintf("[%s] %s: %s", l.tag, level, fmt.Sprintf(format, args...))
	}
	return fmt.Sprintf("%s: %s", level, fmt.Sprintf(format, args...))
}

func (l *DefaultLogger) Debugf(format string, args ...any) {
	if !l.DebugEnabled() {
		return
	}
	l.out.Print(l.format("DEBUG", format, args...))
}

func (l *DefaultLogger) Infof(format string, args ...any) {
	l.out.Print(l.format("INFO", format, args...))
}

func (l *DefaultLogger) Warnf(format string, args ...any) {
	l.err.Print(l.format("WARN", format, args...))
}

func (l *DefaultLogger) Errorf(format string, args ...any) {
	l.err.Print(l.format("ERROR", format, args...))
}

type nopLogger struct{}

// NopLogger returns a Logger that discards everything.
func NopLogger() Logger { return nopLogger{} }

func (nopLogger) DebugEnabled() bool { return false }
func (nopLogger) SetDebug(bool) {}
func (nopLogger) Debugf(string, ...any) {}
func (nopLogger) Infof(string, ...any) {}
func (nopLogger) Warnf(string, ...any) {}
func (nopLogger) Errorf(string, ...any) {}
