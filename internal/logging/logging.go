// Package logging configures the logrus logger used across the service.
package logging

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	rotatelogs "github.com/lestrrat-go/file-rotatelogs"
	"github.com/sirupsen/logrus"

	"github.com/satpel-tasikmalaya/jembatan/pkg/types"
)

// FileName is the base name of rotated log files.
const FileName = "jembatan.log"

// Formatter writes "timestamp [LEVEL] message key=value ..." lines. Fields
// are sorted by key.
type Formatter struct {
	TimestampFormat string
	LevelDesc       []string
}

// NewFormatter returns the default formatter.
func NewFormatter() *Formatter {
	return &Formatter{
		TimestampFormat: "2006-01-02 15:04:05.000",
		LevelDesc:       []string{"PANIC", "FATAL", "ERROR", "WARN", "INFO", "DEBUG", "TRACE"},
	}
}

// Format implements logrus.Formatter.
func (f *Formatter) Format(entry *logrus.Entry) ([]byte, error) {
	var b strings.Builder
	b.WriteString(entry.Time.Format(f.TimestampFormat))
	b.WriteString(" [")
	b.WriteString(f.level(entry.Level))
	b.WriteString("] ")
	b.WriteString(entry.Message)

	keys := make([]string, 0, len(entry.Data))
	for k := range entry.Data {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		fmt.Fprintf(&b, " %s=%v", k, entry.Data[k])
	}
	b.WriteByte('\n')
	return []byte(b.String()), nil
}

func (f *Formatter) level(l logrus.Level) string {
	if int(l) < len(f.LevelDesc) {
		return f.LevelDesc[l]
	}
	return strings.ToUpper(l.String())
}

// New builds a logger from cfg. With an empty cfg.Dir it writes to
// stderr; otherwise to hourly rotated files in cfg.Dir, removed after
// cfg.MaxAgeDays. The returned closer releases the log file.
func New(cfg types.LogConfig) (*logrus.Logger, io.Closer, error) {
	level := logrus.InfoLevel
	if cfg.Level != "" {
		l, err := logrus.ParseLevel(cfg.Level)
		if err != nil {
			return nil, nil, fmt.Errorf("log level: %w", err)
		}
		level = l
	}

	logger := logrus.New()
	logger.SetFormatter(NewFormatter())
	logger.SetLevel(level)

	if cfg.Dir == "" {
		logger.SetOutput(os.Stderr)
		return logger, nopCloser{}, nil
	}

	rl, err := openRotation(cfg.Dir, cfg.MaxAgeDays)
	if err != nil {
		return nil, nil, err
	}
	logger.SetOutput(rl)
	return logger, rl, nil
}

func openRotation(dir string, maxAgeDays int) (*rotatelogs.RotateLogs, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create log dir: %w", err)
	}
	base := strings.TrimSuffix(FileName, filepath.Ext(FileName))
	opts := []rotatelogs.Option{
		rotatelogs.WithLinkName(filepath.Join(dir, FileName)),
		rotatelogs.WithRotationTime(time.Hour),
	}
	if maxAgeDays > 0 {
		opts = append(opts, rotatelogs.WithMaxAge(time.Duration(maxAgeDays)*24*time.Hour))
	}
	rl, err := rotatelogs.New(filepath.Join(dir, base+"-%Y-%m-%d-%H.log"), opts...)
	if err != nil {
		return nil, fmt.Errorf("open log rotation: %w", err)
	}
	return rl, nil
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }
