package tracing

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"strings"
	"testing"
)

func TestStageTree(t *testing.T) {
	ctx, root := StartSpan(context.Background(), "run", "run-7")

	if err := Stage(ctx, "scan", func(ctx context.Context) error {
		SpanFromContext(ctx).SetAttr("words", 4)
		return nil
	}); err != nil {
		t.Fatal(err)
	}
	boom := errors.New("broker down")
	if err := Stage(ctx, "export", func(context.Context) error { return boom }); !errors.Is(err, boom) {
		t.Fatalf("Stage returned %v", err)
	}
	root.End()

	if len(root.Children) != 2 {
		t.Fatalf("children = %d, want 2", len(root.Children))
	}
	scan, export := root.Children[0], root.Children[1]
	if scan.RunID != "run-7" || scan.Attrs["words"] != 4 {
		t.Errorf("scan span = %+v", scan)
	}
	if export.Attrs["error"] != "broker down" {
		t.Errorf("export span attrs = %v", export.Attrs)
	}

	var buf bytes.Buffer
	root.Log(slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug})))
	out := buf.String()
	if strings.Count(out, "msg=span") != 3 {
		t.Errorf("expected 3 span lines:\n%s", out)
	}
	if !strings.Contains(out, "span=export") || !strings.Contains(out, "depth=1") {
		t.Errorf("missing child span output:\n%s", out)
	}
}

func TestChildWithoutParent(t *testing.T) {
	_, span := StartChildSpan(context.Background(), "orphan")
	if span.RunID != "" || SpanFromContext(context.Background()) != nil {
		t.Errorf("orphan span should be detached: %+v", span)
	}
}
