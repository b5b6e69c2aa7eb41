package tracing

import (
	"bytes"
	"context"
	"log/slog"
	"strings"
	"testing"

	"github.com/krishnasharma4415/Mini-Search-Engine/pkg/logger"
)

func TestSpanTree(t *testing.T) {
	ctx := logger.WithRequestID(context.Background(), "req-1")
	ctx, root := Start(ctx, "search")
	_, child := Start(ctx, "tfidf")
	child.SetAttr("candidates", 3)
	child.End()
	root.End()

	if FromContext(ctx) != root {
		t.Fatal("root span not in context")
	}
	kids := root.Children()
	if len(kids) != 1 || kids[0].Name != "tfidf" || kids[0].TraceID != "req-1" {
		t.Fatalf("children = %+v", kids)
	}

	var buf bytes.Buffer
	l := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))
	root.Log(l)
	out := buf.String()
	if strings.Count(out, "msg=span") != 2 || !strings.Contains(out, "candidates=3") || !strings.Contains(out, "trace_id=req-1") {
		t.Errorf("log output:\n%s", out)
	}

	buf.Reset()
	root.Log(slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelInfo})))
	if buf.Len() != 0 {
		t.Errorf("span logged above debug level: %s", buf.String())
	}
}
