// Package logging provides leveled, colored logging for rfamscan.
//
// INFO and SUCCESS messages go to stdout; DEBUG, WARN and ERROR go to stderr,
// following Unix conventions so that `rfamscan ... > run.log` keeps errors on
// the terminal. SetOutput collapses both streams onto one writer, which is
// what --log-file and the tests use.
package logging

import (
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/log"
)

var (
	mu sync.Mutex

	// INFO/SUCCESS
	stdoutLogger = newLogger(os.Stdout, true)
	// WARN/ERROR/DEBUG
	stderrLogger = newLogger(os.Stderr, true)

	level      = log.InfoLevel
	timestamps = true
)

func newLogger(w io.Writer, withTime bool) *log.Logger {
	l := log.NewWithOptions(w, log.Options{
		ReportTimestamp: withTime,
		TimeFormat:      time.RFC3339,
	})
	l.SetStyles(levelStyles())
	l.SetLevel(level)
	return l
}

// levelStyles gives each level a distinct color that reads on light and
// dark terminals alike.
func levelStyles() *log.Styles {
	styles := log.DefaultStyles()

	styles.Levels[log.DebugLevel] = lipgloss.NewStyle().
		SetString("DEBUG").
		Foreground(lipgloss.Color("#7F6DFF"))
	styles.Levels[log.InfoLevel] = lipgloss.NewStyle().
		SetString("INFO").
		Foreground(lipgloss.Color("#42E7FF"))
	styles.Levels[log.WarnLevel] = lipgloss.NewStyle().
		SetString("WARN").
		Foreground(lipgloss.Color("#FFE763"))
	styles.Levels[log.ErrorLevel] = lipgloss.NewStyle().
		SetString("ERROR").
		Foreground(lipgloss.Color("#FF4473"))

	return styles
}

// Debug logs detailed information about planning and command construction.
func Debug(format string, v ...any) {
	errLog().Debug(fmt.Sprintf(format, v...))
}

// Info logs progress messages, one per dispatch.
func Info(format string, v ...any) {
	outLog().Info(fmt.Sprintf(format, v...))
}

// Warn logs problems that do not stop the batch.
func Warn(format string, v ...any) {
	errLog().Warn(fmt.Sprintf(format, v...))
}

// Error logs failed dispatches and fatal errors.
func Error(format string, v ...any) {
	errLog().Error(fmt.Sprintf(format, v...))
}

// Success logs at INFO level with a green SUCCESS label. It is filtered
// together with INFO.
func Success(format string, v ...any) {
	l := outLog()
	if l.GetLevel() > log.InfoLevel {
		return
	}

	styles := levelStyles()
	styles.Levels[log.InfoLevel] = lipgloss.NewStyle().
		SetString("SUCCESS").
		Foreground(lipgloss.Color("#60F281"))

	sl := l.With()
	sl.SetStyles(styles)
	sl.Info(fmt.Sprintf(format, v...))
}

func outLog() *log.Logger {
	mu.Lock()
	defer mu.Unlock()
	return stdoutLogger
}

func errLog() *log.Logger {
	mu.Lock()
	defer mu.Unlock()
	return stderrLogger
}

// ParseLevel maps DEBUG, INFO, WARN and ERROR (any case) to a level.
func ParseLevel(s string) (log.Level, error) {
	switch strings.ToUpper(s) {
	case "DEBUG":
		return log.DebugLevel, nil
	case "INFO", "":
		return log.InfoLevel, nil
	case "WARN", "WARNING":
		return log.WarnLevel, nil
	case "ERROR":
		return log.ErrorLevel, nil
	default:
		return log.InfoLevel, fmt.Errorf("unknown log level %q (want DEBUG, INFO, WARN or ERROR)", s)
	}
}

// SetLevel sets the minimum level for both streams. Unknown names fall back
// to INFO.
func SetLevel(s string) {
	lvl, _ := ParseLevel(s)

	mu.Lock()
	defer mu.Unlock()
	level = lvl
	stdoutLogger.SetLevel(lvl)
	stderrLogger.SetLevel(lvl)
}

// SetOutput sends every level to w. A nil writer restores the
// stdout/stderr split.
func SetOutput(w io.Writer) {
	mu.Lock()
	defer mu.Unlock()
	if w == nil {
		stdoutLogger = newLogger(os.Stdout, timestamps)
		stderrLogger = newLogger(os.Stderr, timestamps)
		return
	}
	stdoutLogger = newLogger(w, timestamps)
	stderrLogger = newLogger(w, timestamps)
}

// SetTimestamps toggles the RFC3339 timestamp prefix.
func SetTimestamps(on bool) {
	mu.Lock()
	defer mu.Unlock()
	timestamps = on
	stdoutLogger.SetReportTimestamp(on)
	stderrLogger.SetReportTimestamp(on)
}
