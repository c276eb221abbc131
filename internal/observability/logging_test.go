package observability

import (
	"bytes"
	"context"
	"log/slog"
	"strings"
	"testing"
)

func TestWithBucketID(t *testing.T) {
	ctx := context.Background()
	ctx = WithBucketID(ctx, "aw-watcher-window_host")

	lc := GetContext(ctx)
	if lc.BucketID != "aw-watcher-window_host" {
		t.Errorf("expected aw-watcher-window_host, got %s", lc.BucketID)
	}
}

func TestWithBackendAndOperation(t *testing.T) {
	ctx := context.Background()
	ctx = WithBackend(ctx, "postgres")
	ctx = WithOperation(ctx, "insert_many")

	lc := GetContext(ctx)
	if lc.Backend != "postgres" {
		t.Errorf("expected postgres, got %s", lc.Backend)
	}
	if lc.Operation != "insert_many" {
		t.Errorf("expected insert_many, got %s", lc.Operation)
	}
}

func TestContextValuesAccumulate(t *testing.T) {
	ctx := WithBucketID(context.Background(), "b1")
	ctx = WithBackend(ctx, "sqlite")

	lc := GetContext(ctx)
	if lc.BucketID != "b1" || lc.Backend != "sqlite" {
		t.Errorf("expected both values set, got %+v", lc)
	}
}

func TestInfoContextEmitsAttrs(t *testing.T) {
	var buf bytes.Buffer
	prev := slog.Default()
	slog.SetDefault(slog.New(slog.NewTextHandler(&buf, nil)))
	defer slog.SetDefault(prev)

	ctx := WithBucketID(context.Background(), "b1")
	InfoContext(ctx, "bucket deleted", slog.Int("events", 3))

	out := buf.String()
	if !strings.Contains(out, "bucket.id=b1") {
		t.Errorf("expected bucket.id attr, got %s", out)
	}
	if !strings.Contains(out, "events=3") {
		t.Errorf("expected events attr, got %s", out)
	}
}
