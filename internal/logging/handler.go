// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Gateward Contributors

// Package logging provides structured logging with OpenTelemetry trace context
// and redaction of credential-bearing command lines.
package logging

import (
	"context"
	"io"
	"log/slog"
	"os"

	"go.opentelemetry.io/otel/trace"
)

// CommandKey is the attribute key for player command lines. Values logged
// under it are scrubbed of credential arguments before they reach a sink.
const CommandKey = "command"

// gateHandler wraps a slog.Handler to add service identity and trace
// context, and to redact command-line attributes. Every logger in the
// process goes through it, so a login line can never leak its password into
// the logs no matter which package logged it.
type gateHandler struct {
	handler slog.Handler
	service string
	version string
}

// Handle scrubs command attributes and adds service and trace context to the
// log record.
func (h *gateHandler) Handle(ctx context.Context, r slog.Record) error {
	out := slog.NewRecord(r.Time, r.Level, r.Message, r.PC)
	r.Attrs(func(a slog.Attr) bool {
		out.AddAttrs(redactAttr(a))
		return true
	})

	out.AddAttrs(
		slog.String("service", h.service),
		slog.String("version", h.version),
	)

	spanCtx := trace.SpanContextFromContext(ctx)
	if spanCtx.HasTraceID() {
		out.AddAttrs(slog.String("trace_id", spanCtx.TraceID().String()))
	}
	if spanCtx.HasSpanID() {
		out.AddAttrs(slog.String("span_id", spanCtx.SpanID().String()))
	}

	//nolint:wrapcheck // Handler interface requires unwrapped error passthrough
	return h.handler.Handle(ctx, out)
}

func redactAttr(a slog.Attr) slog.Attr {
	if a.Key == CommandKey && a.Value.Kind() == slog.KindString {
		return slog.String(a.Key, RedactCommand(a.Value.String()))
	}
	return a
}

// Enabled returns true if the level is enabled.
func (h *gateHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return h.handler.Enabled(ctx, level)
}

// WithAttrs returns a new handler with the given attributes. Command
// attributes bound here are scrubbed the same way record attributes are.
func (h *gateHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	scrubbed := make([]slog.Attr, len(attrs))
	for i, a := range attrs {
		scrubbed[i] = redactAttr(a)
	}
	return &gateHandler{
		handler: h.handler.WithAttrs(scrubbed),
		service: h.service,
		version: h.version,
	}
}

// WithGroup returns a new handler with the given group.
func (h *gateHandler) WithGroup(name string) slog.Handler {
	return &gateHandler{
		handler: h.handler.WithGroup(name),
		service: h.service,
		version: h.version,
	}
}

// Setup creates a configured slog.Logger.
// format: "json" or "text" (defaults to "json" if empty)
// If w is nil, writes to os.Stderr.
func Setup(service, version, format string, w io.Writer) *slog.Logger {
	if w == nil {
		w = os.Stderr
	}

	var baseHandler slog.Handler
	opts := &slog.HandlerOptions{
		Level: slog.LevelDebug,
	}

	if format == "text" {
		baseHandler = slog.NewTextHandler(w, opts)
	} else {
		baseHandler = slog.NewJSONHandler(w, opts)
	}

	handler := &gateHandler{
		handler: baseHandler,
		service: service,
		version: version,
	}

	return slog.New(handler)
}

// SetDefault sets up and configures the default logger.
func SetDefault(service, version, format string) {
	logger := Setup(service, version, format, nil)
	slog.SetDefault(logger)
}
