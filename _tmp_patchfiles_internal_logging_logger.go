// Package logging provides level-gated logging with an optional asynchronous
// mode that hands formatted lines off to a background writer goroutine,
// adapted from the teacher's internal/logging package and extended with the
// original's daily-rotating, line-capped file Logger (src/logger/logger.hpp).
package logging

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/behrlich/go-tinyweb/internal/blockqueue"
)

// LogLevel represents the available log levels.
type LogLevel int

const (
	LevelDebug LogLevel = iota
	LevelInfo
	LevelWarn
	LevelError
)

func (l LogLevel) title() string {
	switch l {
	case LevelDebug:
		return "[debug]"
	case LevelInfo:
		return "[info] "
	case LevelWarn:
		return "[warn] "
	case LevelError:
		return "[error]"
	default:
		return "[info] "
	}
}

// maxLinesPerFile caps the size of a single day's log file; once exceeded a
// new numbered segment is opened, matching the original's MAX_LINE = 50000.
const maxLinesPerFile = 50000

// Config holds logging configuration.
type Config struct {
	Level LogLevel
	// Dir is the directory log files are written into. Empty disables file
	// output; logs then go only to Output (or os.Stderr).
	Dir string
	// Suffix is appended to generated file names, e.g. ".log".
	Suffix string
	// QueueSize, when positive, enables asynchronous mode: Write enqueues a
	// formatted line onto a bounded blockqueue.Queue[string] drained by a
	// background goroutine instead of writing synchronously.
	QueueSize int
	// Output is used when Dir is empty, or in addition to the file when set.
	Output io.Writer
}

// DefaultConfig returns a sensible default configuration: synchronous,
// info-level, writing to stderr.
func DefaultConfig() *Config {
	return &Config{
		Level:  LevelInfo,
		Output: os.Stderr,
	}
}

// Logger writes level-gated, optionally asynchronous log lines, rotating to
// a new file at midnight or after maxLinesPerFile lines.
type Logger struct {
	mu     sync.Mutex
	level  LogLevel
	dir    string
	suffix string
	file   *os.File
	day    int
	lines  int
	out    io.Writer

	queue      *blockqueue.Queue[string]
	writerDone chan struct{}
}

var (
	defaultLogger *Logger
	defaultMu     sync.RWMutex
)

// New builds a Logger from cfg. A nil cfg is equivalent to DefaultConfig().
func New(cfg *Config) (*Logger, error) {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	l := &Logger{
		level:  cfg.Level,
		dir:    cfg.Dir,
		suffix: cfg.Suffix,
		out:    cfg.Output,
	}
	if l.suffix == "" {
		l.suffix = ".log"
	}
	if l.dir != "" {
		if err := os.MkdirAll(l.dir, 0o755); err != nil {
			return nil, fmt.Errorf("logging: create dir %q: %w", l.dir, err)
		}
		if err := l.rotate(time.Now()); err != nil {
			return nil, err
		}
	}
	if cfg.QueueSize > 0 {
		l.queue = blockqueue.New[string](cfg.QueueSize)
		l.writerDone = make(chan struct{})
		go l.asyncWrite()
	}
	return l, nil
}

// Default returns the process-wide default logger, creating a synchronous
// stderr logger on first use.
func Default() *Logger {
	defaultMu.RLock()
	if defaultLogger != nil {
		defer defaultMu.RUnlock()
		return defaultLogger
	}
	defaultMu.RUnlock()

	defaultMu.Lock()
	defer defaultMu.Unlock()
	if defaultLogger == nil {
		l, _ := New(nil)
		defaultLogger = l
	}
	return defaultLogger
}

// SetDefault installs l as the process-wide default logger.
func SetDefault(l *Logger) {
	defaultMu.Lock()
	defer defaultMu.Unlock()
	defaultLogger = l
}

func (l *Logger) fileName(t time.Time, segment int) string {
	base := t.Format("2006_01_02")
	if segment > 0 {
		return filepath.Join(l.dir, fmt.Sprintf("%s-%d%s", base, segment, l.suffix))
	}
	return filepath.Join(l.dir, base+l.suffix)
}

// rotate must be called with mu held, or before any goroutine can observe l.
func (l *Logger) rotate(t time.Time) error {
	if l.file != nil {
		l.file.Close()
	}
	name := l.fileName(t, 0)
	f, err := os.OpenFile(name, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("logging: open %q: %w", name, err)
	}
	l.file = f
	l.day = t.Day()
	l.lines = 0
	return nil
}

// rotateSegment opens a new numbered segment for the same day, used when
// maxLinesPerFile is exceeded without crossing midnight.
func (l *Logger) rotateSegment(t time.Time) error {
	if l.file != nil {
		l.file.Close()
	}
	name := l.fileName(t, l.lines/maxLinesPerFile)
	f, err := os.OpenFile(name, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("logging: open %q: %w", name, err)
	}
	l.file = f
	return nil
}

func (l *Logger) asyncWrite() {
	defer close(l.writerDone)
	for {
		line, ok := l.queue.PopFront()
		if !ok {
			return
		}
		l.writeLine(line)
	}
}

func (l *Logger) writeLine(line string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.file != nil {
		io.WriteString(l.file, line)
	}
	if l.out != nil {
		io.WriteString(l.out, line)
	}
}

func (l *Logger) log(level LogLevel, msg string) {
	if level < l.level {
		return
	}
	now := time.Now()

	l.mu.Lock()
	if l.dir != "" {
		if now.Day() != l.day {
			l.rotate(now)
		} else if l.lines > 0 && l.lines%maxLinesPerFile == 0 {
			l.rotateSegment(now)
		}
		l.lines++
	}
	l.mu.Unlock()

	line := fmt.Sprintf("%s %s %s\n", now.Format("2006-01-02 15:04:05.000000"), level.title(), msg)

	if l.queue != nil {
		if l.queue.PushBack(line) {
			return
		}
	}
	l.writeLine(line)
}

// Flush nudges an idle asynchronous writer to drain its backlog immediately,
// matching the original's Logger::Flush calling BlockDeque::flush.
func (l *Logger) Flush() {
	if l.queue != nil {
		l.queue.Flush()
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.file != nil {
		l.file.Sync()
	}
}

// Close stops the background writer (if any) after draining its backlog and
// closes the underlying file.
func (l *Logger) Close() error {
	if l.queue != nil {
		l.queue.Close()
		<-l.writerDone
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.file != nil {
		return l.file.Close()
	}
	return nil
}

func formatArgs(args []any) string {
	if len(args) == 0 {
		return ""
	}
	var result string
	for i := 0; i < len(args); i += 2 {
		if i+1 < len(args) {
			if result != "" {
				result += " "
			}
			result += fmt.Sprintf("%v=%v", args[i], args[i+1])
		}
	}
	if result != "" {
		return " " + result
	}
	return ""
}

func (l *Logger) Debug(msg string, args ...any) { l.log(LevelDebug, msg+formatArgs(args)) }
func (l *Logger) Info(msg string, args ...any)  { l.log(LevelInfo, msg+formatArgs(args)) }
func (l *Logger) Warn(msg string, args ...any)  { l.log(LevelWarn, msg+formatArgs(args)) }
func (l *Logger) Error(msg string, args ...any) { l.log(LevelError, msg+formatArgs(args)) }

func (l *Logger) Debugf(format string, args ...any) { l.log(LevelDebug, fmt.Sprintf(format, args...)) }
func (l *Logger) Infof(format string, args ...any)  { l.log(LevelInfo, fmt.Sprintf(format, args...)) }
func (l *Logger) Warnf(format string, args ...any)  { l.log(LevelWarn, fmt.Sprintf(format, args...)) }
func (l *Logger) Errorf(format string, args ...any) { l.log(LevelError, fmt.Sprintf(format, args...)) }

// Global convenience functions operating on Default().

func Debug(msg string, args ...any) { Default().Debug(msg, args...) }
func Info(msg string, args ...any)  { Default().Info(msg, args...) }
func Warn(msg string, args ...any)  { Default().Warn(msg, args...) }
func Error(msg string, args ...any) { Default().Error(msg, args...) }


