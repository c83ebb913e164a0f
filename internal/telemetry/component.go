package telemetry

import "context"

// componentLogger decorates a Logger so every call automatically carries
// the owning component's name as the leading key-value pair, instead of
// requiring every call site to repeat "component", name by hand.
type componentLogger struct {
	Logger
	component string
}

// WithComponent tags every message a Logger emits with component. Each
// gateway package wraps whatever Logger it's constructed with exactly
// once, at construction time, so its own call sites never need to name
// themselves.
func WithComponent(log Logger, component string) Logger {
	return &componentLogger{Logger: log, component: component}
}

func (c *componentLogger) Debug(ctx context.Context, msg string, keyvals ...any) {
	c.Logger.Debug(ctx, msg, c.tag(keyvals)...)
}

func (c *componentLogger) Info(ctx context.Context, msg string, keyvals ...any) {
	c.Logger.Info(ctx, msg, c.tag(keyvals)...)
}

func (c *componentLogger) Warn(ctx context.Context, msg string, keyvals ...any) {
	c.Logger.Warn(ctx, msg, c.tag(keyvals)...)
}

func (c *componentLogger) Error(ctx context.Context, msg string, keyvals ...any) {
	c.Logger.Error(ctx, msg, c.tag(keyvals)...)
}

func (c *componentLogger) tag(keyvals []any) []any {
	return append([]any{"component", c.component}, keyvals...)
}
