// Package logging writes RFC 5424 syslog lines using crewjam/rfc5424.
package logging

import (
	"fmt"
	"io"
	"os"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/crewjam/rfc5424"
)

// Logger is the logging surface used across netguard.
type Logger interface {
	Debug(message string, meta map[string]string)
	Info(message string, meta map[string]string)
	Warn(message string, meta map[string]string)
	Error(message string, meta map[string]string)
}

// Level is a minimum severity filter.
type Level int

const (
	LevelDebug Level = iota
	LevelInfo
	LevelWarn
	LevelError
)

func (l Level) String() string {
	switch l {
	case LevelDebug:
		return "debug"
	case LevelInfo:
		return "info"
	case LevelWarn:
		return "warn"
	case LevelError:
		return "error"
	}
	return "level(" + strconv.Itoa(int(l)) + ")"
}

// ParseLevel accepts debug, info, warn (or warning) and error.
func ParseLevel(s string) (Level, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return LevelDebug, nil
	case "", "info":
		return LevelInfo, nil
	case "warn", "warning":
		return LevelWarn, nil
	case "error":
		return LevelError, nil
	}
	return LevelInfo, fmt.Errorf("unknown log level %q", s)
}

func (l Level) severity() rfc5424.Priority {
	switch l {
	case LevelDebug:
		return rfc5424.Debug
	case LevelWarn:
		return rfc5424.Warning
	case LevelError:
		return rfc5424.Error
	default:
		return rfc5424.Info
	}
}

// RFC5424Logger writes one syslog message per line to an io.Writer.
type RFC5424Logger struct {
	appName   string
	hostname  string
	processID string
	facility  rfc5424.Priority
	min       Level

	mu  sync.Mutex
	w   io.Writer
	now func() time.Time
}

// New creates a logger for appName that drops messages below min.
// A nil writer means os.Stderr.
func New(appName string, w io.Writer, min Level) *RFC5424Logger {
	if w == nil {
		w = os.Stderr
	}
	return &RFC5424Logger{
		appName:   appName,
		hostname:  hostname(),
		processID: strconv.Itoa(os.Getpid()),
		facility:  rfc5424.User,
		min:       min,
		w:         w,
		now:       time.Now,
	}
}

func hostname() string {
	h, err := os.Hostname()
	if err != nil || h == "" {
		return "localhost"
	}
	return h
}

// Debug logs at debug severity.
func (l *RFC5424Logger) Debug(message string, meta map[string]string) {
	l.write(LevelDebug, message, meta)
}

// Info logs at informational severity.
func (l *RFC5424Logger) Info(message string, meta map[string]string) {
	l.write(LevelInfo, message, meta)
}

// Warn logs at warning severity.
func (l *RFC5424Logger) Warn(message string, meta map[string]string) {
	l.write(LevelWarn, message, meta)
}

// Error logs at error severity.
func (l *RFC5424Logger) Error(message string, meta map[string]string) {
	l.write(LevelError, message, meta)
}

func (l *RFC5424Logger) write(level Level, message string, meta map[string]string) {
	if level < l.min {
		return
	}

	msg := rfc5424.Message{
		Priority:  l.facility | level.severity(),
		Timestamp: l.now().UTC(),
		Hostname:  l.hostname,
		AppName:   l.appName,
		ProcessID: l.processID,
		MessageID: strings.ToUpper(level.String()),
		Message:   []byte(message),
	}
	// Sorted so that identical events produce identical lines.
	keys := make([]string, 0, len(meta))
	for k := range meta {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		msg.AddDatum("meta@1", k, meta[k])
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	if _, err := msg.WriteTo(l.w); err != nil {
		fmt.Fprintf(l.w, "<%d>1 %s %s %s %s - - %s\n",
			int(msg.Priority), msg.Timestamp.Format(time.RFC3339),
			l.hostname, l.appName, l.processID, message)
		return
	}
	io.WriteString(l.w, "\n")
}

type nop struct{}

func (nop) Debug(string, map[string]string) {}
func (nop) Info(string, map[string]string)  {}
func (nop) Warn(string, map[string]string)  {}
func (nop) Error(string, map[string]string) {}

// Nop returns a Logger that discards everything.
func Nop() Logger {
	return nop{}
}
