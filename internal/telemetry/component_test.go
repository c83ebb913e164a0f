package telemetry

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
)

type recordingLogger struct {
	lastMsg     string
	lastKeyvals []any
}

func (r *recordingLogger) Debug(_ context.Context, msg string, keyvals ...any) {
	r.lastMsg, r.lastKeyvals = msg, keyvals
}
func (r *recordingLogger) Info(_ context.Context, msg string, keyvals ...any) {
	r.lastMsg, r.lastKeyvals = msg, keyvals
}
func (r *recordingLogger) Warn(_ context.Context, msg string, keyvals ...any) {
	r.lastMsg, r.lastKeyvals = msg, keyvals
}
func (r *recordingLogger) Error(_ context.Context, msg string, keyvals ...any) {
	r.lastMsg, r.lastKeyvals = msg, keyvals
}

func TestWithComponentPrependsComponentKeyvalOnEveryLevel(t *testing.T) {
	base := &recordingLogger{}
	log := WithComponent(base, "discovery")

	log.Debug(context.Background(), "refreshed", "server", "web")
	assert.Equal(t, []any{"component", "discovery", "server", "web"}, base.lastKeyvals)

	log.Info(context.Background(), "ready")
	assert.Equal(t, []any{"component", "discovery"}, base.lastKeyvals)

	log.Warn(context.Background(), "slow")
	assert.Equal(t, []any{"component", "discovery"}, base.lastKeyvals)

	log.Error(context.Background(), "failed", "error", "boom")
	assert.Equal(t, []any{"component", "discovery", "error", "boom"}, base.lastKeyvals)
}

func TestWithComponentDoesNotMutateCallerSlice(t *testing.T) {
	base := &recordingLogger{}
	log := WithComponent(base, "pipeline")
	keyvals := []any{"stage", "extract"}

	log.Debug(context.Background(), "ran", keyvals...)
	assert.Equal(t, []any{"stage", "extract"}, keyvals)
}
