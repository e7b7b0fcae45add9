// Package testlog adapts *testing.T to the logging.Logger interface used
// throughout meteorcore, so package tests can pass a real logger into the
// code under test instead of a no-op stub.
package testlog

import (
	"testing"

	"github.com/ausocean/utils/logging"
)

// Logger implements logging.Logger over *testing.T.
type Logger testing.T

// New returns a Logger wrapping t.
func New(t *testing.T) *Logger { return (*Logger)(t) }

func (l *Logger) Debug(msg string, args ...interface{})   { l.Log(logging.Debug, msg, args...) }
func (l *Logger) Info(msg string, args ...interface{})    { l.Log(logging.Info, msg, args...) }
func (l *Logger) Warning(msg string, args ...interface{}) { l.Log(logging.Warning, msg, args...) }
func (l *Logger) Error(msg string, args ...interface{})   { l.Log(logging.Error, msg, args...) }
func (l *Logger) Fatal(msg string, args ...interface{})   { l.Log(logging.Fatal, msg, args...) }
func (l *Logger) SetLevel(lvl int8)                       {}

func (l *Logger) Log(lvl int8, msg string, args ...interface{}) {
	var name string
	switch lvl {
	case logging.Debug:
		name = "debug"
	case logging.Info:
		name = "info"
	case logging.Warning:
		name = "warning"
	case logging.Error:
		name = "error"
	case logging.Fatal:
		name = "fatal"
	}
	msg = name + ": " + msg

	if len(args) == 0 {
		((*testing.T)(l)).Log(msg)
		return
	}

	msg += " ("
	for i := 0; i < len(args); i += 2 {
		msg += " %v:\"%v\""
	}
	msg += " )"

	if lvl == logging.Fatal {
		l.Fatalf(msg+"\n", args...)
		return
	}
	l.Logf(msg+"\n", args...)
}
