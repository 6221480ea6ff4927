// Package rest provides logging hooks.
package rest

import (
	"io"
	"os"

	"github.com/rs/zerolog"
)

// Logger provides structured logging hooks.
type Logger interface {
	Info(msg string, fields map[string]any)
	Error(msg string, fields map[string]any)
}

// ZerologLogger logs structured events through zerolog.
type ZerologLogger struct {
	l zerolog.Logger
}

// NewZerologLogger constructs a ZerologLogger writing to w.
func NewZerologLogger(w io.Writer) *ZerologLogger {
	if w == nil {
		w = os.Stderr
	}
	return &ZerologLogger{l: zerolog.New(w).With().Timestamp().Logger()}
}

// Info logs an info message.
func (z *ZerologLogger) Info(msg string, fields map[string]any) {
	if z == nil {
		return
	}
	z.l.Info().Fields(fields).Msg(msg)
}

// Error logs an error message.
func (z *ZerologLogger) Error(msg string, fields map[string]any) {
	if z == nil {
		return
	}
	z.l.Error().Fields(fields).Msg(msg)
}
