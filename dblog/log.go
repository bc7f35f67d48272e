// Package dblog provides the engine's structured logging, wrapping a
// package-level logrus.Logger the way _examples/zhukovaskychina-xmysql-server's
// logger package wraps a package-level logrus instance.
package dblog

import (
	"fmt"
	"os"

	"github.com/sirupsen/logrus"
)

// Logger is the engine-wide structured logger. Components log through
// this instance rather than constructing their own, so a single
// SetLevel/SetOutput call governs the whole engine.
var Logger = newDefault()

func newDefault() *logrus.Logger {
	l := logrus.New()
	l.SetOutput(os.Stderr)
	l.SetLevel(logrus.InfoLevel)
	l.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	return l
}

// SetLevel adjusts the engine's log verbosity, typically from
// config.Config at startup.
func SetLevel(level string) {
	lvl, err := logrus.ParseLevel(level)
	if err != nil {
		lvl = logrus.InfoLevel
	}
	Logger.SetLevel(lvl)
}

// WithPage returns a log entry pre-populated with a page id field.
func WithPage(pid fmt.Stringer) *logrus.Entry {
	return Logger.WithField("page", pid.String())
}

// WithTxn returns a log entry pre-populated with a transaction id field.
func WithTxn(tid uint64) *logrus.Entry {
	return Logger.WithField("txn", tid)
}
