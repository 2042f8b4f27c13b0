// Package logger is the console logger used by the threadio command. Library
// packages report through hooks and only log at Debug level.
package logger

import (
	"fmt"
	"io"
	"os"
	"sync"
	"time"

	"golang.org/x/term"
)

// Logger defines the logging methods.
type Logger interface {
	Info(format string, args ...any)
	Debug(format string, args ...any)
	Success(format string, args ...any)
	Warn(format string, args ...any)
	Error(format string, args ...any)
	SetOutput(out io.Writer)
	SetVerbose(enabled bool)
	SetQuiet(enabled bool)
	IsVerbose() bool
	IsQuiet() bool
}

// ConsoleLogger writes human readable lines. Everything goes to stderr by
// default because stdout may be carrying the data being copied.
type ConsoleLogger struct {
	output      io.Writer
	errOut      io.Writer
	color       bool
	verboseMode bool
	quietMode   bool
	mu          sync.Mutex
}

var (
	instance *ConsoleLogger
	once     sync.Once
)

// New creates a ConsoleLogger writing to out. Colors are used only when out
// is a terminal.
func New(out io.Writer) *ConsoleLogger {
	return &ConsoleLogger{
		output: out,
		errOut: out,
		color:  isTerminal(out),
	}
}

// GetLogger returns the singleton instance.
func GetLogger() Logger {
	once.Do(func() {
		instance = New(os.Stderr)
	})
	return instance
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}

// SetVerbose enables or disables verbose mode globally.
func SetVerbose(verbose bool) {
	GetLogger().SetVerbose(verbose)
}

func IsVerbose() bool {
	return GetLogger().IsVerbose()
}

func SetQuiet(quiet bool) {
	GetLogger().SetQuiet(quiet)
}

func IsQuiet() bool {
	return GetLogger().IsQuiet()
}

// Global helper functions for convenience
func Info(format string, args ...any)    { GetLogger().Info(format, args...) }
func Debug(format string, args ...any)   { GetLogger().Debug(format, args...) }
func Success(format string, args ...any) { GetLogger().Success(format, args...) }
func Warn(format string, args ...any)    { GetLogger().Warn(format, args...) }
func Error(format string, args ...any)   { GetLogger().Error(format, args...) }

// -------------------- Implementation --------------------

// SetOutput redirects every level, errors included, to out.
func (l *ConsoleLogger) SetOutput(out io.Writer) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.output = out
	l.errOut = out
	l.color = isTerminal(out)
}

func (l *ConsoleLogger) SetVerbose(enabled bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.verboseMode = enabled
}

func (l *ConsoleLogger) IsVerbose() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.verboseMode
}

func (l *ConsoleLogger) SetQuiet(enabled bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.quietMode = enabled
}

func (l *ConsoleLogger) IsQuiet() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.quietMode
}

func (l *ConsoleLogger) timestamp() string {
	return time.Now().Format("2006-01-02 15:04:05.000")
}

const (
	blueColor   = "\033[34m"
	greenColor  = "\033[32m"
	yellowColor = "\033[33m"
	redColor    = "\033[31m"
	grayColor   = "\033[90m"
	resetColor  = "\033[0m"
)

// level describes how one log level is rendered.
type level struct {
	icon  string
	plain string
	color string
	quiet bool // suppressed in quiet mode
	debug bool // only shown in verbose mode
	isErr bool
}

var (
	infoLevel    = level{icon: "ℹ️", plain: "INFO", color: blueColor, quiet: true}
	debugLevel   = level{icon: "🔍", plain: "DEBUG", color: grayColor, debug: true}
	successLevel = level{icon: "✓", plain: "SUCCESS", color: greenColor, quiet: true}
	warnLevel    = level{icon: "⚠", plain: "WARN", color: yellowColor, quiet: true}
	errorLevel   = level{icon: "✗", plain: "ERROR", color: redColor, isErr: true}
)

func (l *ConsoleLogger) log(lv level, format string, args ...any) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if lv.debug && !l.verboseMode {
		return
	}
	if lv.quiet && l.quietMode {
		return
	}

	out := l.output
	if lv.isErr {
		out = l.errOut
	}

	prefix := lv.plain
	if l.color {
		prefix = lv.icon
	}
	if lv.debug {
		prefix = fmt.Sprintf("[%s] %s", l.timestamp(), prefix)
	}

	msg := fmt.Sprintf(format, args...)
	if l.color {
		fmt.Fprintf(out, "%s%s %s%s\n", lv.color, prefix, msg, resetColor)
	} else {
		fmt.Fprintf(out, "%s %s\n", prefix, msg)
	}
}

func (l *ConsoleLogger) Info(format string, args ...any) {
	l.log(infoLevel, format, args...)
}

func (l *ConsoleLogger) Debug(format string, args ...any) {
	l.log(debugLevel, format, args...)
}

func (l *ConsoleLogger) Success(format string, args ...any) {
	l.log(successLevel, format, args...)
}

func (l *ConsoleLogger) Warn(format string, args ...any) {
	l.log(warnLevel, format, args...)
}

func (l *ConsoleLogger) Error(format string, args ...any) {
	l.log(errorLevel, format, args...)
}
