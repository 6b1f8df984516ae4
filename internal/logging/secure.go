package logging

import "context"

// SecureLogger wraps a Logger and sanitizes every detail map before it is
// emitted. Logging is best-effort, not transactional: sanitization or sink
// panics are recovered and reported separately, never propagated to the
// caller's control flow.
type SecureLogger struct {
	base      Logger
	sanitizer *Sanitizer
}

// NewSecureLogger layers sanitization over base using the given sanitizer.
func NewSecureLogger(base Logger, sanitizer *Sanitizer) *SecureLogger {
	return &SecureLogger{base: base, sanitizer: sanitizer}
}

// Sanitizer exposes the underlying sanitizer for components that persist
// sanitized payloads themselves (the audit trail).
func (l *SecureLogger) Sanitizer() *Sanitizer { return l.sanitizer }

func (l *SecureLogger) Debug(ctx context.Context, msg string, data map[string]any) {
	l.emit(ctx, l.base.Debug, msg, data)
}

func (l *SecureLogger) Info(ctx context.Context, msg string, data map[string]any) {
	l.emit(ctx, l.base.Info, msg, data)
}

func (l *SecureLogger) Warn(ctx context.Context, msg string, data map[string]any) {
	l.emit(ctx, l.base.Warn, msg, data)
}

func (l *SecureLogger) Error(ctx context.Context, msg string, data map[string]any) {
	l.emit(ctx, l.base.Error, msg, data)
}

func (l *SecureLogger) emit(ctx context.Context, fn func(context.Context, string, ...any), msg string, data map[string]any) {
	defer func() {
		if r := recover(); r != nil {
			l.base.Error(ctx, "secure logger internal failure", "panic", r)
		}
	}()
	if data == nil {
		fn(ctx, msg)
		return
	}
	fn(ctx, msg, "data", l.sanitizer.Map(data))
}
