package logger

import (
	"io"
	"os"
	"sync"

	"github.com/charmbracelet/log"
)

type LogLevel int

const (
	DEBUG LogLevel = iota
	INFO
	WARN
	ERROR
	FATAL
)

func (l LogLevel) String() string {
	switch l {
	case DEBUG:
		return "DEBUG"
	case INFO:
		return "INFO"
	case WARN:
		return "WARN"
	case ERROR:
		return "ERROR"
	case FATAL:
		return "FATAL"
	default:
		return "UNKNOWN"
	}
}

func (l LogLevel) charmLevel() log.Level {
	switch l {
	case DEBUG:
		return log.DebugLevel
	case INFO:
		return log.InfoLevel
	case WARN:
		return log.WarnLevel
	case ERROR:
		return log.ErrorLevel
	default:
		return log.FatalLevel
	}
}

type MultiWriter struct {
	writers []io.Writer
}

func NewMultiWriter(writers ...io.Writer) *MultiWriter {
	return &MultiWriter{writers: writers}
}

func (mw *MultiWriter) Write(p []byte) (n int, err error) {
	for _, w := range mw.writers {
		if _, err := w.Write(p); err != nil {
			return 0, err
		}
	}
	return len(p), nil
}

func (mw *MultiWriter) Add(writer io.Writer) {
	mw.writers = append(mw.writers, writer)
}

type levelLogger struct {
	verbose bool
	mu      sync.RWMutex
	writer  io.Writer
	logger  *log.Logger
}

// Logs go to stderr: stdout is reserved for generated commands.
var globalLogger *levelLogger

func init() {
	globalLogger = &levelLogger{writer: os.Stderr}
	globalLogger.logger = newCharmLogger(os.Stderr)
}

func newCharmLogger(w io.Writer) *log.Logger {
	return log.NewWithOptions(w, log.Options{
		ReportTimestamp: true,
		TimeFormat:      "06-01-02 15:04:05",
		Prefix:          "dashc",
		Level:           log.InfoLevel,
	})
}

func SetVerbose(verbose bool) {
	globalLogger.mu.Lock()
	defer globalLogger.mu.Unlock()
	globalLogger.verbose = verbose
	if verbose {
		globalLogger.logger.SetLevel(log.DebugLevel)
	} else {
		globalLogger.logger.SetLevel(log.InfoLevel)
	}
}

func IsVerbose() bool {
	globalLogger.mu.RLock()
	defer globalLogger.mu.RUnlock()
	return globalLogger.verbose
}

// SetWriterForAll replaces the output of every level
func SetWriterForAll(writer io.Writer) {
	globalLogger.mu.Lock()
	defer globalLogger.mu.Unlock()
	globalLogger.writer = writer
	globalLogger.logger.SetOutput(writer)
}

// AddWriterForAll tees every level to an additional writer, e.g. a log file
func AddWriterForAll(writer io.Writer) {
	globalLogger.mu.Lock()
	defer globalLogger.mu.Unlock()

	if mw, ok := globalLogger.writer.(*MultiWriter); ok {
		mw.Add(writer)
		return
	}
	mw := NewMultiWriter(globalLogger.writer, writer)
	globalLogger.writer = mw
	globalLogger.logger.SetOutput(mw)
}

func (ll *levelLogger) log(level LogLevel, format string, args ...interface{}) {
	ll.mu.RLock()
	logger := ll.logger
	ll.mu.RUnlock()

	switch level {
	case DEBUG:
		logger.Debugf(format, args...)
	case INFO:
		logger.Infof(format, args...)
	case WARN:
		logger.Warnf(format, args...)
	case ERROR:
		logger.Errorf(format, args...)
	case FATAL:
		logger.Fatalf(format, args...)
	}
}

func Debug(format string, args ...interface{}) {
	globalLogger.log(DEBUG, format, args...)
}

func Info(format string, args ...interface{}) {
	globalLogger.log(INFO, format, args...)
}

func Warn(format string, args ...interface{}) {
	globalLogger.log(WARN, format, args...)
}

func Error(format string, args ...interface{}) {
	globalLogger.log(ERROR, format, args...)
}

func Fatal(format string, args ...interface{}) {
	globalLogger.log(FATAL, format, args...)
}

// Enabled reports whether messages at level would be written
func Enabled(level LogLevel) bool {
	globalLogger.mu.RLock()
	defer globalLogger.mu.RUnlock()
	return globalLogger.logger.GetLevel() <= level.charmLevel()
}

func GetLogFromLevel(level LogLevel) func(format string, args ...interface{}) {
	return func(format string, args ...interface{}) {
		globalLogger.log(level, format, args...)
	}
}
