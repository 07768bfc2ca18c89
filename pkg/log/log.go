// Package log provides the logging interface used throughout the
// server. The default implementation writes levelled lines to an
// io.Writer, which keeps stdout free for transports that own it.
package log

import (
	"fmt"
	"io"
	"os"
)

type Logger interface {
	Infof(format string, args ...interface{})
	Errorf(format string, args ...interface{})
	Debugf(format string, args ...interface{})
	Fatal(str string)
}

type logger struct {
	w     io.Writer
	debug bool
}

// New returns a Logger writing to stderr.
func New() Logger {
	return &logger{w: os.Stderr}
}

// NewWithWriter returns a Logger writing to w. Debug lines are only
// emitted when debug is set.
func NewWithWriter(w io.Writer, debug bool) Logger {
	return &logger{w: w, debug: debug}
}

func (l *logger) Infof(format string, args ...interface{}) {
	fmt.Fprintf(l.w, "[INFO]\t"+format+"\n", args...)
}

func (l *logger) Errorf(format string, args ...interface{}) {
	fmt.Fprintf(l.w, "[ERROR]\t"+format+"\n", args...)
}

func (l *logger) Debugf(format string, args ...interface{}) {
	if !l.debug {
		return
	}
	fmt.Fprintf(l.w, "[DEBUG]\t"+format+"\n", args...)
}

func (l *logger) Fatal(str string) {
	fmt.Fprintf(l.w, "[FATAL]\t%s\n", str)
	os.Exit(1)
}
