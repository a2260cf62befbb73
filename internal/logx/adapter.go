package logx

import "log/slog"

// slogLogger backs the Logger interface with slog, the service's JSON
// log sink. Fields map one to one onto slog attributes.
type slogLogger struct {
	l *slog.Logger
}

// NewSlogAdapter wraps an *slog.Logger. Every component logs through
// the returned Logger; nothing takes *slog.Logger directly.
func NewSlogAdapter(l *slog.Logger) Logger {
	return &slogLogger{l: l}
}

func (s *slogLogger) Debug(msg string, fields ...Field) { s.l.Debug(msg, attrs(fields)...) }
func (s *slogLogger) Info(msg string, fields ...Field)  { s.l.Info(msg, attrs(fields)...) }
func (s *slogLogger) Warn(msg string, fields ...Field)  { s.l.Warn(msg, attrs(fields)...) }
func (s *slogLogger) Error(msg string, fields ...Field) { s.l.Error(msg, attrs(fields)...) }

// With binds fields to every entry the returned Logger emits. Handlers
// use it to carry request-scoped context like shipment ids.
func (s *slogLogger) With(fields ...Field) Logger {
	return &slogLogger{l: s.l.With(attrs(fields)...)}
}

// Sync exists for sinks that buffer; slog writes through.
func (s *slogLogger) Sync() error { return nil }

func attrs(fields []Field) []any {
	out := make([]any, 0, len(fields))
	for _, f := range fields {
		out = append(out, slog.Any(f.Key, f.Value))
	}
	return out
}
