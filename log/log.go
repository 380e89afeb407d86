// Package log wraps logrus behind a minimal leveled interface so the
// rest of the module never imports the logging library directly.
package log

import (
	"io"

	"github.com/sirupsen/logrus"
)

// Logger is the leveled printf-style interface used across wordvec.
type Logger interface {
	Debugf(format string, v ...interface{})
	Infof(format string, v ...interface{})
	Warnf(format string, v ...interface{})
	Errorf(format string, v ...interface{})
}

type logger struct {
	l *logrus.Logger
}

func (g *logger) Debugf(format string, v ...interface{}) { g.l.Debugf(format, v...) }
func (g *logger) Infof(format string, v ...interface{})  { g.l.Infof(format, v...) }
func (g *logger) Warnf(format string, v ...interface{})  { g.l.Warnf(format, v...) }
func (g *logger) Errorf(format string, v ...interface{}) { g.l.Errorf(format, v...) }

// New returns a Logger writing to out at the given logrus level.
func New(out io.Writer, level logrus.Level) Logger {
	l := logrus.New()
	l.SetOutput(out)
	l.SetLevel(level)
	l.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	return &logger{l: l}
}

var std = logrus.StandardLogger()

// SetLevel adjusts the package-level logger.
func SetLevel(level string) {
	lv, err := logrus.ParseLevel(level)
	if err != nil {
		lv = logrus.InfoLevel
	}
	std.SetLevel(lv)
}

// Package-level convenience functions, used for one-off messages such
// as backend initialization.

func Debugf(format string, v ...interface{}) { std.Debugf(format, v...) }
func Infof(format string, v ...interface{})  { std.Infof(format, v...) }
func Warnf(format string, v ...interface{})  { std.Warnf(format, v...) }
func Errorf(format string, v ...interface{}) { std.Errorf(format, v...) }
