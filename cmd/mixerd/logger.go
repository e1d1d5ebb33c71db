// logger.go - Structured logging for the mixer daemon
//
// Uses zerolog with a console writer for operator output and an optional
// JSON file sink. Audit entries go to a separate append-only file so pool
// operations stay reconstructable after log rotation.
package main

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"
)

// Logger wraps the daemon's operational and audit loggers
type Logger struct {
	zerolog.Logger
	audit     zerolog.Logger
	logFile   *os.File
	auditFile *os.File
}

// NewLogger creates a new logger instance
func NewLogger(level, logFile, auditFile string) (*Logger, error) {
	logLevel, err := zerolog.ParseLevel(level)
	if err != nil {
		logLevel = zerolog.InfoLevel
	}

	console := zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: "15:04:05"}
	writers := []io.Writer{console}

	l := &Logger{}
	if logFile != "" {
		f, err := os.OpenFile(logFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0666)
		if err != nil {
			return nil, fmt.Errorf("failed to open log file: %w", err)
		}
		l.logFile = f
		writers = append(writers, f)
	}

	l.Logger = zerolog.New(zerolog.MultiLevelWriter(writers...)).
		Level(logLevel).
		With().Timestamp().Logger()

	if auditFile != "" {
		f, err := os.OpenFile(auditFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0666)
		if err != nil {
			l.Close()
			return nil, fmt.Errorf("failed to open audit file: %w", err)
		}
		l.auditFile = f
		l.audit = zerolog.New(f).With().Timestamp().Logger()
	} else {
		l.audit = zerolog.Nop()
	}

	return l, nil
}

// Audit writes an audit entry. Audit entries are always recorded regardless
// of the operational log level.
func (l *Logger) Audit(event string, fields map[string]interface{}) {
	e := l.audit.Log().Str("event", event).Time("at", time.Now())
	for k, v := range fields {
		e = e.Interface(k, v)
	}
	e.Send()
}

// Close releases the log file handles
func (l *Logger) Close() {
	if l.logFile != nil {
		l.logFile.Close()
	}
	if l.auditFile != nil {
		l.auditFile.Close()
	}
}
