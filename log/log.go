// Package log handles logging.
package log

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"

	"github.com/sirupsen/logrus"
)

// Logger is the standard logger interface.
type Logger interface {
	// SetOut sets the destination for normal output.
	SetOut(io.Writer)
	// SetErr sets the destination for error output.
	SetErr(io.Writer)
	// SetDebug turns debug mode on or off.
	SetDebug(bool)
	// Debug logs debug output.
	Debug(...any)
	// Debugf logs formatted debug output.
	Debugf(string, ...any)
	// Info logs normal priority messages.
	Info(...any)
	// Infof logs formatted normal priority messages.
	Infof(string, ...any)
	// Error logs error messages.
	Error(...any)
	// Errorf logs formatted error messages.
	Errorf(string, ...any)
}

// logger routes informational messages to one logrus instance and debug and
// error messages to another, so that normal output can be piped separately.
type logger struct {
	stdout *logrus.Logger
	stderr *logrus.Logger
}

var _ Logger = &logger{}

// New returns a new logger instance, writing to os.Stdout and os.Stderr.
func New() Logger {
	return &logger{
		stdout: newLogrus(os.Stdout, logrus.InfoLevel),
		stderr: newLogrus(os.Stderr, logrus.InfoLevel),
	}
}

func newLogrus(w io.Writer, level logrus.Level) *logrus.Logger {
	l := logrus.New()
	l.SetOutput(w)
	l.SetLevel(level)
	l.SetFormatter(plainFormatter{})
	return l
}

func (l *logger) SetOut(out io.Writer) { l.stdout.SetOutput(out) }
func (l *logger) SetErr(err io.Writer) { l.stderr.SetOutput(err) }

func (l *logger) SetDebug(debug bool) {
	level := logrus.InfoLevel
	if debug {
		level = logrus.DebugLevel
	}
	l.stderr.SetLevel(level)
}

func (l *logger) Debug(args ...any) { l.stderr.Debug(args...) }

func (l *logger) Debugf(format string, args ...any) { l.stderr.Debugf(format, args...) }

func (l *logger) Info(args ...any) { l.stdout.Info(args...) }

func (l *logger) Infof(format string, args ...any) { l.stdout.Infof(format, args...) }

func (l *logger) Error(args ...any) { l.stderr.Error(args...) }

func (l *logger) Errorf(format string, args ...any) { l.stderr.Errorf(format, args...) }

// plainFormatter writes the bare message, followed by any fields as
// key=value pairs. Debug lines are prefixed, so they stand out in mixed
// output.
type plainFormatter struct{}

var _ logrus.Formatter = plainFormatter{}

func (plainFormatter) Format(e *logrus.Entry) ([]byte, error) {
	buf := &bytes.Buffer{}
	if e.Level == logrus.DebugLevel {
		buf.WriteString("[debug] ")
	}
	buf.WriteString(strings.TrimSpace(e.Message))
	keys := make([]string, 0, len(e.Data))
	for k := range e.Data {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		fmt.Fprintf(buf, " %s=%v", k, e.Data[k])
	}
	buf.WriteByte('\n')
	return buf.Bytes(), nil
}

// FromLogrus adapts an existing logrus logger, such as one configured by an
// application, to the Logger interface. All levels go to l.
func FromLogrus(l *logrus.Logger) Logger {
	return &logger{stdout: l, stderr: l}
}
