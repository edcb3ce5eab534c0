// Package logging builds the process logger.
package logging

import (
    "io"
    "os"
    "strings"

    "github.com/sirupsen/logrus"
)

// New returns a logrus logger writing to stderr. level is any logrus level
// name (unknown names fall back to info); format "json" selects the JSON
// formatter, anything else the text one.
func New(level, format string) *logrus.Logger {
    return NewWithOutput(os.Stderr, level, format)
}

// NewWithOutput is New with an explicit writer.
func NewWithOutput(w io.Writer, level, format string) *logrus.Logger {
    l := logrus.New()
    l.SetOutput(w)
    lvl, err := logrus.ParseLevel(strings.TrimSpace(level))
    if err != nil { lvl = logrus.InfoLevel }
    l.SetLevel(lvl)
    if strings.EqualFold(strings.TrimSpace(format), "json") {
        l.SetFormatter(&logrus.JSONFormatter{})
    } else {
        l.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
    }
    return l
}

// Discard returns a logger that drops everything, for tests and quiet CLIs.
func Discard() *logrus.Logger {
    l := logrus.New()
    l.SetOutput(io.Discard)
    return l
}
