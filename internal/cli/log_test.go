package cli

import (
	"bytes"
	"context"
	"strings"
	"testing"
	"time"

	"github.com/charmbracelet/log"
)

func TestNewLoggerLevels(t *testing.T) {
	tests := []struct {
		name    string
		level   log.Level
		logFunc func(*log.Logger)
		wantLog bool
	}{
		{"info at info level", LogInfo, func(l *log.Logger) { l.Info("pass") }, true},
		{"debug at info level", LogInfo, func(l *log.Logger) { l.Debug("pass") }, false},
		{"debug at debug level", LogDebug, func(l *log.Logger) { l.Debug("pass") }, true},
		{"warn at info level", LogInfo, func(l *log.Logger) { l.Warn("pass") }, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			tt.logFunc(newLogger(&buf, tt.level))
			if got := buf.Len() > 0; got != tt.wantLog {
				t.Errorf("got log output = %v, want %v", got, tt.wantLog)
			}
		})
	}
}

func TestProgressDone(t *testing.T) {
	var buf bytes.Buffer
	prog := newProgress(newLogger(&buf, LogInfo))
	time.Sleep(5 * time.Millisecond)
	prog.done("Resolved 3 nodes")

	out := buf.String()
	if !strings.Contains(out, "Resolved 3 nodes (") {
		t.Errorf("progress output %q missing message and duration", out)
	}
	if !strings.Contains(out, "ms)") && !strings.Contains(out, "s)") {
		t.Errorf("progress output %q missing elapsed time", out)
	}
}

func TestLoggerFromContext(t *testing.T) {
	var buf bytes.Buffer
	custom := newLogger(&buf, LogInfo)

	if got := loggerFromContext(context.Background()); got != log.Default() {
		t.Error("loggerFromContext without a logger should return log.Default()")
	}

	ctx := withLogger(context.Background(), custom)
	got := loggerFromContext(ctx)
	if got != custom {
		t.Fatal("loggerFromContext did not return the attached logger")
	}
	got.Info("attached")
	if !strings.Contains(buf.String(), "attached") {
		t.Error("attached logger did not write to its buffer")
	}
}

func TestWithLoggerNilContext(t *testing.T) {
	custom := newLogger(&bytes.Buffer{}, LogInfo)
	ctx := withLogger(nil, custom)
	if ctx == nil {
		t.Fatal("withLogger(nil, ...) returned a nil context")
	}
	if loggerFromContext(ctx) != custom {
		t.Error("logger lost when attached to a nil context")
	}
}
