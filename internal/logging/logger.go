// Package logging provides the process-wide structured logger.
//
// All helpers are no-ops until Init or InitWriter is called, so library code
// and tests can log freely without setup. Callers pass key/value pairs, with
// "component" naming the package that logged.
package logging

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/charmbracelet/log"
)

// Version is reported at startup.
const Version = "0.3.0"

// KeepDays is how many daily log files Init leaves on disk.
const KeepDays = 7

var (
	// Logger is the global logger. Nil until Init or InitWriter.
	Logger *log.Logger

	logFile *os.File
)

// Init logs to dataDir/logs/hotspot-YYYY-MM-DD.log and prunes files beyond KeepDays.
func Init(dataDir string, level log.Level) error {
	dir := filepath.Join(dataDir, "logs")
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("create log directory: %w", err)
	}

	f, err := os.OpenFile(filepath.Join(dir, fileName(time.Now())), os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return fmt.Errorf("open log file: %w", err)
	}
	logFile = f
	InitWriter(f, level)

	if removed, err := prune(dir, KeepDays); err != nil {
		Warn("log pruning failed", "component", "logging", "error", err)
	} else if removed > 0 {
		Debug("pruned old logs", "component", "logging", "count", removed)
	}
	Info("hotspot started", "version", Version, "pid", os.Getpid())
	return nil
}

// InitWriter points the logger at w. The CLI uses stderr; tests use a buffer.
func InitWriter(w io.Writer, level log.Level) {
	Logger = log.NewWithOptions(w, log.Options{
		ReportTimestamp: true,
		TimeFormat:      time.RFC3339,
		Level:           level,
	})
}

// ParseLevel maps "debug", "info", "warn", "error" to a level. Anything else is info.
func ParseLevel(s string) log.Level {
	lvl, err := log.ParseLevel(strings.TrimSpace(s))
	if err != nil {
		return log.InfoLevel
	}
	return lvl
}

// Close writes a shutdown line and closes the log file.
func Close() {
	Info("hotspot shutting down")
	if logFile != nil {
		logFile.Close()
		logFile = nil
	}
}

func fileName(t time.Time) string {
	return "hotspot-" + t.Format("2006-01-02") + ".log"
}

// prune removes all but the newest keep hotspot-*.log files in dir.
// The date in the name sorts lexically.
func prune(dir string, keep int) (int, error) {
	matches, err := filepath.Glob(filepath.Join(dir, "hotspot-*.log"))
	if err != nil {
		return 0, err
	}
	if len(matches) <= keep {
		return 0, nil
	}
	sort.Strings(matches)
	removed := 0
	for _, path := range matches[:len(matches)-keep] {
		if err := os.Remove(path); err != nil {
			return removed, err
		}
		removed++
	}
	return removed, nil
}

func Info(msg string, keyvals ...any) {
	if Logger != nil {
		Logger.Info(msg, keyvals...)
	}
}

func Debug(msg string, keyvals ...any) {
	if Logger != nil {
		Logger.Debug(msg, keyvals...)
	}
}

func Warn(msg string, keyvals ...any) {
	if Logger != nil {
		Logger.Warn(msg, keyvals...)
	}
}

func Error(msg string, keyvals ...any) {
	if Logger != nil {
		Logger.Error(msg, keyvals...)
	}
}
