package logger

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
)

func TestNewWithWriter_LevelOverride(t *testing.T) {
	var buf bytes.Buffer
	l := NewWithWriter(&buf, "production", "warn")
	l.Info("hidden")
	l.Warn("shown")

	if bytes.Contains(buf.Bytes(), []byte("hidden")) {
		t.Fatalf("info should be filtered at warn level: %s", buf.String())
	}
	if !bytes.Contains(buf.Bytes(), []byte("shown")) {
		t.Fatalf("expected warn line: %s", buf.String())
	}
}

func TestFrom_FallsBackToDefault(t *testing.T) {
	if From(context.Background()) == nil {
		t.Fatalf("expected default logger")
	}
}

func TestMiddleware_PropagatesRequestID(t *testing.T) {
	gin.SetMode(gin.TestMode)

	var buf bytes.Buffer
	r := gin.New()
	r.Use(Middleware(NewWithWriter(&buf, "local", "")))
	r.GET("/x", func(c *gin.Context) {
		From(c.Request.Context()).Info("inside")
		c.Status(http.StatusNoContent)
	})

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/x", nil)
	req.Header.Set(headerRequestID, "rid-1")
	r.ServeHTTP(w, req)

	if got := w.Header().Get(headerRequestID); got != "rid-1" {
		t.Fatalf("expected request id echoed, got %q", got)
	}
	dec := json.NewDecoder(&buf)
	var lines int
	for dec.More() {
		var m map[string]any
		if err := dec.Decode(&m); err != nil {
			t.Fatalf("decode: %v", err)
		}
		if m["request_id"] != "rid-1" {
			t.Fatalf("expected request_id on every line, got %v", m)
		}
		lines++
	}
	if lines != 2 {
		t.Fatalf("expected 2 log lines, got %d", lines)
	}
}

func countLines(t *testing.T, buf *bytes.Buffer) []map[string]any {
	t.Helper()
	var out []map[string]any
	dec := json.NewDecoder(buf)
	for dec.More() {
		var m map[string]any
		if err := dec.Decode(&m); err != nil {
			t.Fatalf("decode: %v", err)
		}
		out = append(out, m)
	}
	return out
}

func TestMiddleware_QuietPathsOnlyLogFailures(t *testing.T) {
	gin.SetMode(gin.TestMode)

	var buf bytes.Buffer
	r := gin.New()
	r.Use(Middleware(NewWithWriter(&buf, "local", ""), "/healthz"))
	r.GET("/healthz", func(c *gin.Context) { c.Status(http.StatusOK) })
	r.GET("/broken", func(c *gin.Context) { c.Status(http.StatusInternalServerError) })

	r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/healthz", nil))
	if lines := countLines(t, &buf); len(lines) != 0 {
		t.Fatalf("expected quiet probe, got %v", lines)
	}

	r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/broken", nil))
	lines := countLines(t, &buf)
	if len(lines) != 1 || lines[0]["level"] != "ERROR" {
		t.Fatalf("expected one error line, got %v", lines)
	}
}

func TestEnrich_AddsAttributesToSummary(t *testing.T) {
	gin.SetMode(gin.TestMode)

	var buf bytes.Buffer
	r := gin.New()
	r.Use(Middleware(NewWithWriter(&buf, "local", "")))
	r.GET("/x", func(c *gin.Context) {
		Enrich(c, "subject", "ops-1")
		c.Status(http.StatusOK)
	})

	r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/x", nil))
	lines := countLines(t, &buf)
	if len(lines) != 1 || lines[0]["subject"] != "ops-1" {
		t.Fatalf("expected enriched summary line, got %v", lines)
	}
}
