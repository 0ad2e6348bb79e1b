package logger

import (
	"fmt"
	"io"
	"os"
	"sync"

	"github.com/fatih/color"
)

// Logger writes leveled, color-tagged messages. The zero value logs
// warnings only, to os.Stderr.
type Logger struct {
	Verbose bool
	Debug   bool

	// Out receives info and debug lines, os.Stdout when nil.
	Out io.Writer
	// Err receives warnings and errors, os.Stderr when nil.
	Err io.Writer

	// Scope is printed after the level tag, for example the env name.
	Scope string
}

// Lines from concurrent watch runs share the terminal.
var writeMu sync.Mutex

// With returns a copy of l whose lines carry scope.
func (l Logger) With(scope string) Logger {
	if l.Scope != "" {
		scope = l.Scope + " " + scope
	}
	l.Scope = scope
	return l
}

func (l Logger) Infof(msg string, args ...any) {
	if l.Verbose || l.Debug {
		l.write(l.out(), color.GreenString("[info]"), msg, args)
	}
}

func (l Logger) Debugf(msg string, args ...any) {
	if l.Debug {
		l.write(l.out(), color.CyanString("[debug]"), msg, args)
	}
}

func (l Logger) Warnf(msg string, args ...any) {
	if l.Verbose || l.Debug {
		l.WarnfAlways(msg, args...)
	}
}

// WarnfAlways prints a warning regardless of verbosity.
func (l Logger) WarnfAlways(msg string, args ...any) {
	l.write(l.err(), color.YellowString("[warn]"), msg, args)
}

func (l Logger) Errorf(msg string, args ...any) {
	if l.Debug {
		l.write(l.err(), color.RedString("[error]"), msg, args)
	}
}

// ErrorfAndReturn logs the error in debug mode and returns it for the caller to propagate.
func (l Logger) ErrorfAndReturn(msg string, args ...any) error {
	l.Errorf(msg, args...)
	return fmt.Errorf(msg, args...)
}

func (l Logger) write(w io.Writer, tag, msg string, args []any) {
	line := fmt.Sprintf(msg, args...)
	if l.Scope != "" {
		line = "[" + l.Scope + "] " + line
	}

	writeMu.Lock()
	defer writeMu.Unlock()
	fmt.Fprintln(w, tag, line)
}

func (l Logger) out() io.Writer {
	if l.Out != nil {
		return l.Out
	}
	return os.Stdout
}

func (l Logger) err() io.Writer {
	if l.Err != nil {
		return l.Err
	}
	return os.Stderr
}
