package logging

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/felixgeelhaar/benchup/internal/ports"
)

func newTestLogger(buf *bytes.Buffer, opts ...ConsoleLoggerOption) *ConsoleLogger {
	base := []ConsoleLoggerOption{WithOutput(buf), WithLevel(ports.LevelDebug), WithTimestamp(false)}
	return NewConsoleLogger(append(base, opts...)...)
}

func TestNopLogger(t *testing.T) {
	logger := NewNopLogger()
	ctx := context.Background()

	logger.Debug(ctx, "debug message")
	logger.Error(ctx, "error message")

	assert.Same(t, logger, logger.With(ports.F("key", "value")))
	assert.Equal(t, ports.LevelInfo, logger.Level())
	logger.SetLevel(ports.LevelDebug)
	assert.Equal(t, ports.LevelDebug, logger.Level())
}

func TestOrNop(t *testing.T) {
	assert.IsType(t, &NopLogger{}, OrNop(nil))

	console := NewConsoleLogger()
	assert.Same(t, console, OrNop(console))
}

func TestConsoleLogger_TextOutput(t *testing.T) {
	var buf bytes.Buffer
	logger := newTestLogger(&buf)

	logger.Info(context.Background(), "step finished",
		ports.F("step", "bench:cli"),
		ports.F("status", "completed"),
		ports.F("detail", "two words"))

	assert.Equal(t, `[INFO] step finished step=bench:cli status=completed detail="two words"`+"\n", buf.String())
}

func TestConsoleLogger_JSONOutput(t *testing.T) {
	var buf bytes.Buffer
	logger := newTestLogger(&buf, WithJSONFormat(true))

	logger.Warn(context.Background(), "retrying", ports.F("attempt", 2))

	var entry map[string]interface{}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "WARN", entry["level"])
	assert.Equal(t, "retrying", entry["msg"])
	assert.Equal(t, float64(2), entry["attempt"])
	assert.NotContains(t, entry, "time")
}

func TestConsoleLogger_LevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	logger := newTestLogger(&buf, WithLevel(ports.LevelWarn))
	ctx := context.Background()

	logger.Debug(ctx, "debug")
	logger.Info(ctx, "info")
	logger.Warn(ctx, "warn")
	logger.Error(ctx, "error")

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	assert.Equal(t, []string{"[WARN] warn", "[ERROR] error"}, lines)

	logger.SetLevel(ports.LevelDebug)
	logger.Debug(ctx, "now visible")
	assert.Contains(t, buf.String(), "now visible")
}

func TestConsoleLogger_WithDoesNotModifyOriginal(t *testing.T) {
	var buf bytes.Buffer
	logger := newTestLogger(&buf)
	child := logger.With(ports.F("run_id", "r1"))

	logger.Info(context.Background(), "parent")
	child.Info(context.Background(), "child")

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 2)
	assert.Equal(t, "[INFO] parent", lines[0])
	assert.Equal(t, "[INFO] child run_id=r1", lines[1])
}

func TestConsoleLogger_MasksSecrets(t *testing.T) {
	var buf bytes.Buffer
	logger := newTestLogger(&buf, WithSecrets("hunter2", ""))

	logger.Debug(context.Background(), "exec mysql --password=hunter2",
		ports.F("cmd", "bench new-site x --admin-password hunter2"),
		ports.F("admin_password", "anything"),
		ports.F("cause", errors.New("login failed for hunter2")))

	out := buf.String()
	assert.NotContains(t, out, "hunter2")
	assert.NotContains(t, out, "anything")
	assert.Contains(t, out, "--password=********")
	assert.Contains(t, out, "admin_password=********")
}

func TestRedactor(t *testing.T) {
	r := NewRedactor("", "s3cret", "s3cret-admin")

	assert.Equal(t, "bench new-site --admin-password ******** --db-root-password ********",
		r.Redact("bench new-site --admin-password s3cret-admin --db-root-password s3cret"))
	assert.Equal(t, "nothing to hide", r.Redact("nothing to hide"))
	assert.Equal(t, "x", NewRedactor().Redact("x"))

	extended := r.With("token")
	assert.Equal(t, "token", r.Redact("token"), "With does not modify the original")
	assert.Equal(t, "********", extended.Redact("token"))
}
