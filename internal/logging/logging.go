package logger

import (
	"fmt"
	"io"
	"os"

	"github.com/fatih/color"
	"go.uber.org/atomic"
)

// Sink is anything keyward can log through.
type Sink interface {
	Infof(msg string, args ...any)
	Debugf(msg string, args ...any)
	Warnf(msg string, args ...any)
	Errorf(msg string, args ...any)
}

type Logger struct {
	Verbose bool
	Debug   bool

	// Out and Err default to os.Stdout and os.Stderr.
	Out io.Writer
	Err io.Writer
}

func (l Logger) Infof(msg string, args ...any) {
	if l.Verbose || l.Debug {
		fmt.Fprintf(l.stdout(), color.GreenString("[info] ")+msg+"\n", args...)
	}
}

func (l Logger) Debugf(msg string, args ...any) {
	if l.Debug {
		fmt.Fprintf(l.stdout(), color.CyanString("[debug] ")+msg+"\n", args...)
	}
}

func (l Logger) Warnf(msg string, args ...any) {
	if l.Verbose || l.Debug {
		fmt.Fprintf(l.stderr(), color.YellowString("[warn] ")+msg+"\n", args...)
	}
}

func (l Logger) Errorf(msg string, args ...any) {
	if l.Debug {
		fmt.Fprintf(l.stderr(), color.RedString("[error] ")+msg+"\n", args...)
	}
}

// WarnfAlways prints a warning regardless of verbosity.
func (l Logger) WarnfAlways(msg string, args ...any) {
	fmt.Fprintf(l.stderr(), color.YellowString("[warn] ")+msg+"\n", args...)
}

// ErrorfAndReturn logs at error level and returns the formatted error.
func (l Logger) ErrorfAndReturn(msg string, args ...any) error {
	l.Errorf(msg, args...)
	return fmt.Errorf(msg, args...)
}

func (l Logger) stdout() io.Writer {
	if l.Out != nil {
		return l.Out
	}
	return os.Stdout
}

func (l Logger) stderr() io.Writer {
	if l.Err != nil {
		return l.Err
	}
	return os.Stderr
}

// Nop discards everything.
type Nop struct{}

func (Nop) Infof(string, ...any)  {}
func (Nop) Debugf(string, ...any) {}
func (Nop) Warnf(string, ...any)  {}
func (Nop) Errorf(string, ...any) {}

type holder struct {
	sink Sink
}

var current = atomic.NewPointer(&holder{sink: Nop{}})

// SetLogger replaces the process-wide sink. A nil sink restores Nop.
// Operations already running keep whichever sink they loaded.
func SetLogger(s Sink) {
	if s == nil {
		s = Nop{}
	}
	current.Store(&holder{sink: s})
}

// L returns the process-wide sink.
func L() Sink {
	return current.Load().sink
}
