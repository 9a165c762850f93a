// Package debuglog provides an optional leveled log for diagnosing plugin
// invocations. Output goes to the file named by VIKFLOW_DEBUG_LOG; stdout
// is reserved for the launcher protocol and must never receive log lines.
package debuglog

import (
	"fmt"
	"io"
	"os"
	"sync"
	"time"
)

// Level represents logging severity.
type Level int

const (
	// LevelDebug includes detailed debugging information.
	LevelDebug Level = iota
	// LevelInfo includes standard operational information.
	LevelInfo
	// LevelWarn includes warnings about potential issues.
	LevelWarn
	// LevelError includes only error messages.
	LevelError
)

// String returns the string representation of the log level.
func (l Level) String() string {
	switch l {
	case LevelDebug:
		return "DEBUG"
	case LevelInfo:
		return "INFO"
	case LevelWarn:
		return "WARN"
	case LevelError:
		return "ERROR"
	default:
		return "UNKNOWN"
	}
}

// EnvVar names the environment variable holding the log file path.
const EnvVar = "VIKFLOW_DEBUG_LOG"

// Logger writes leveled, timestamped lines to a file.
type Logger struct {
	mu     sync.Mutex
	writer io.Writer
	closer io.Closer
	level  Level
}

// FromEnv opens the logger configured by VIKFLOW_DEBUG_LOG. When the
// variable is unset or the file cannot be opened, a disabled logger is
// returned and logging calls become no-ops.
func FromEnv() *Logger {
	path := os.Getenv(EnvVar)
	if path == "" {
		return &Logger{}
	}

	file, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0600)
	if err != nil {
		return &Logger{}
	}
	return &Logger{writer: file, closer: file, level: LevelDebug}
}

// Disabled returns a logger that discards everything.
func Disabled() *Logger {
	return &Logger{}
}

// Close releases the underlying file, if any.
func (l *Logger) Close() {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.closer != nil {
		l.closer.Close()
		l.closer = nil
		l.writer = nil
	}
}

func (l *Logger) log(level Level, format string, args ...any) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.writer == nil || level < l.level {
		return
	}
	fmt.Fprintf(l.writer, "%s [%s] %s\n",
		time.Now().Format(time.RFC3339), level, fmt.Sprintf(format, args...))
}

// Debugf logs at debug level.
func (l *Logger) Debugf(format string, args ...any) { l.log(LevelDebug, format, args...) }

// Infof logs at info level.
func (l *Logger) Infof(format string, args ...any) { l.log(LevelInfo, format, args...) }

// Warnf logs at warn level.
func (l *Logger) Warnf(format string, args ...any) { l.log(LevelWarn, format, args...) }

// Errorf logs at error level.
func (l *Logger) Errorf(format string, args ...any) { l.log(LevelError, format, args...) }
