// GridSentry - Perimeter Surveillance and Patrol Dispatch Core
// Copyright 2026 GridSentry Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/gridsentry/gridsentry

package logging

import (
	"context"
	"log/slog"

	"github.com/rs/zerolog"
)

// zerologHandler adapts the global zerolog logger to the slog.Handler
// interface. The supervisor tree (suture/sutureslog) logs through slog;
// this adapter keeps all output flowing through the one configured logger.
type zerologHandler struct {
	attrs []slog.Attr
	group string
}

// NewSlogLogger returns a *slog.Logger backed by the global zerolog logger.
func NewSlogLogger() *slog.Logger {
	return slog.New(&zerologHandler{})
}

// Enabled reports whether the given slog level would be emitted by the
// underlying zerolog logger.
func (h *zerologHandler) Enabled(_ context.Context, level slog.Level) bool {
	return slogToZerologLevel(level) >= Logger().GetLevel()
}

// Handle converts an slog.Record into a zerolog event.
func (h *zerologHandler) Handle(ctx context.Context, record slog.Record) error {
	l := Ctx(ctx)

	var ev *zerolog.Event
	switch slogToZerologLevel(record.Level) {
	case zerolog.DebugLevel:
		ev = l.Debug()
	case zerolog.WarnLevel:
		ev = l.Warn()
	case zerolog.ErrorLevel:
		ev = l.Error()
	default:
		ev = l.Info()
	}

	for _, attr := range h.attrs {
		ev = appendAttr(ev, h.group, attr)
	}
	record.Attrs(func(attr slog.Attr) bool {
		ev = appendAttr(ev, h.group, attr)
		return true
	})

	ev.Msg(record.Message)
	return nil
}

// WithAttrs returns a handler that includes the given attributes on
// every record.
func (h *zerologHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	merged := make([]slog.Attr, 0, len(h.attrs)+len(attrs))
	merged = append(merged, h.attrs...)
	merged = append(merged, attrs...)
	return &zerologHandler{attrs: merged, group: h.group}
}

// WithGroup returns a handler that prefixes attribute keys with the
// group name.
func (h *zerologHandler) WithGroup(name string) slog.Handler {
	if name == "" {
		return h
	}
	prefix := name
	if h.group != "" {
		prefix = h.group + "." + name
	}
	return &zerologHandler{attrs: h.attrs, group: prefix}
}

func appendAttr(ev *zerolog.Event, group string, attr slog.Attr) *zerolog.Event {
	key := attr.Key
	if group != "" {
		key = group + "." + key
	}
	return ev.Interface(key, attr.Value.Any())
}

func slogToZerologLevel(level slog.Level) zerolog.Level {
	switch {
	case level < slog.LevelInfo:
		return zerolog.DebugLevel
	case level < slog.LevelWarn:
		return zerolog.InfoLevel
	case level < slog.LevelError:
		return zerolog.WarnLevel
	default:
		return zerolog.ErrorLevel
	}
}
