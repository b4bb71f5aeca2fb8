// Package sl holds small helpers for log/slog attributes.
package sl

import (
	"io"
	"log/slog"
)

// Err returns an "error" attribute carrying err's text.
//
//	log.Error("failed to save trips", sl.Err(err))
func Err(err error) slog.Attr {
	return slog.Attr{
		Key:   "error",
		Value: slog.StringValue(err.Error()),
	}
}

// Discard returns a logger that drops every record.
func Discard() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}
