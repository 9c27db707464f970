package logger_test

import (
	"bytes"
	"context"
	"encoding/json"
	"testing"

	"github.com/diagnosis/eventdesk/pkg/logger"
)

func TestWithContextAddsRequestFields(t *testing.T) {
	var buf bytes.Buffer
	prev := logger.Default()
	logger.SetDefault(logger.New(&buf, "debug"))
	defer logger.SetDefault(prev)

	ctx := context.WithValue(context.Background(), logger.RequestIDKey, "req-1")
	ctx = context.WithValue(ctx, logger.ServiceKey, "events")
	ctx = logger.WithUserID(ctx, "user-9")

	logger.InfoContext(ctx, "registered", "event_id", "evt-1")

	var line map[string]any
	if err := json.Unmarshal(buf.Bytes(), &line); err != nil {
		t.Fatalf("log line is not JSON: %v (%s)", err, buf.String())
	}
	want := map[string]string{
		"msg":        "registered",
		"request_id": "req-1",
		"service":    "events",
		"user_id":    "user-9",
		"event_id":   "evt-1",
	}
	for k, v := range want {
		if line[k] != v {
			t.Fatalf("%s = %v, want %q", k, line[k], v)
		}
	}
	if got := logger.RequestID(ctx); got != "req-1" {
		t.Fatalf("RequestID = %q", got)
	}
}

func TestLevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	l := logger.New(&buf, "warn")
	l.Info("hidden")
	if buf.Len() != 0 {
		t.Fatalf("info written at warn level: %s", buf.String())
	}
	l.Warn("shown")
	if buf.Len() == 0 {
		t.Fatal("warn not written at warn level")
	}
}
