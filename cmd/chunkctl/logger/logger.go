// Package logger holds the slog logger shared by chunkctl commands.
//
// Logs go to one JSON file per day under the log directory, or as text to
// stderr when the directory is "-". Day files older than the retention period
// are pruned at startup.
package logger

import (
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// L is the global logger instance. It discards all output until Init enables it.
var L = slog.New(slog.NewTextHandler(io.Discard, nil))

// Stderr as LogDir sends text logs to standard error instead of a file.
const Stderr = "-"

// DefaultRetention is how long day files are kept when Options.Retention is zero.
const DefaultRetention = 14 * 24 * time.Hour

const (
	filePrefix = "chunkctl-"
	fileSuffix = ".log"
	dayLayout  = "2006-01-02"
)

// Options configures the logger initialization.
type Options struct {
	Enabled   bool          // If false, all logging is discarded
	LogDir    string        // Directory for day files, or Stderr. Default: ~/.chunkctl/logs
	Level     slog.Level    // Minimum log level. Default: LevelInfo
	Retention time.Duration // Age after which day files are removed. 0 = DefaultRetention, <0 keeps all
}

// Init configures L from opts. Call before the first command runs.
func Init(opts Options) error {
	switch {
	case !opts.Enabled:
		L = slog.New(slog.NewTextHandler(io.Discard, nil))
		return nil
	case opts.LogDir == Stderr:
		L = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: opts.Level}))
		return nil
	}

	dir, err := logDir(opts.LogDir)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}

	now := time.Now()
	if opts.Retention >= 0 {
		retention := opts.Retention
		if retention == 0 {
			retention = DefaultRetention
		}
		prune(dir, now.Add(-retention))
	}

	f, err := os.OpenFile(dayFile(dir, now), os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return err
	}
	L = slog.New(slog.NewJSONHandler(f, &slog.HandlerOptions{Level: opts.Level}))
	return nil
}

func logDir(dir string) (string, error) {
	if dir != "" {
		return dir, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".chunkctl", "logs"), nil
}

// dayFile names the log file for the day of t, e.g. chunkctl-2025-01-05.log.
func dayFile(dir string, t time.Time) string {
	return filepath.Join(dir, filePrefix+t.Format(dayLayout)+fileSuffix)
}

// prune removes day files dated before cutoff. Other files are left alone.
func prune(dir string, cutoff time.Time) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return
	}
	for _, entry := range entries {
		day, ok := strings.CutPrefix(entry.Name(), filePrefix)
		if !ok {
			continue
		}
		day, ok = strings.CutSuffix(day, fileSuffix)
		if !ok {
			continue
		}
		date, err := time.Parse(dayLayout, day)
		if err != nil {
			continue
		}
		if date.Before(cutoff) {
			_ = os.Remove(filepath.Join(dir, entry.Name()))
		}
	}
}
