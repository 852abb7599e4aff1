package httpx

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/jwebchajari/Savia/internal/platform/requestctx"
)

func TestWriteErrorIncludesTraceID(t *testing.T) {
	ctx := requestctx.WithTrace(context.Background(), requestctx.TraceInfo{TraceID: "trace-1"})
	rec := httptest.NewRecorder()

	WriteError(ctx, rec, NewError("cart_not_found", "cart\nnot found", http.StatusNotFound).WithDetails(map[string]any{"line": "p1@1u"}))

	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rec.Code)
	}
	var payload map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &payload); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if payload["error"] != "cart_not_found" || payload["message"] != "cart not found" {
		t.Fatalf("unexpected payload %v", payload)
	}
	if payload["trace_id"] != "trace-1" || payload["line"] != "p1@1u" {
		t.Fatalf("expected trace id and details, got %v", payload)
	}
	if _, ok := payload["request_id"]; ok {
		t.Fatalf("expected no request id without middleware")
	}
}

func TestDecodeJSON(t *testing.T) {
	var dst struct {
		Name string `json:"name"`
	}

	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"name":"Queso"}`))
	if err := DecodeJSON(req, 0, &dst); err != nil || dst.Name != "Queso" {
		t.Fatalf("expected decode success, got %v (%+v)", err, dst)
	}

	req = httptest.NewRequest(http.MethodPost, "/", strings.NewReader("  "))
	if err := DecodeJSON(req, 0, &dst); !errors.Is(err, ErrEmptyBody) {
		t.Fatalf("expected ErrEmptyBody, got %v", err)
	}

	req = httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"name":"0123456789"}`))
	if err := DecodeJSON(req, 8, &dst); !errors.Is(err, ErrBodyTooLarge) {
		t.Fatalf("expected ErrBodyTooLarge, got %v", err)
	}

	req = httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"nombre":"x"}`))
	if err := DecodeJSON(req, 0, &dst); err == nil {
		t.Fatalf("expected unknown field error")
	}

	req = httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"name":"a"}{"name":"b"}`))
	if err := DecodeJSON(req, 0, &dst); err == nil {
		t.Fatalf("expected trailing data error")
	}
}

func TestWriteDecodeError(t *testing.T) {
	rec := httptest.NewRecorder()
	WriteDecodeError(context.Background(), rec, ErrBodyTooLarge)
	if rec.Code != http.StatusRequestEntityTooLarge {
		t.Fatalf("expected 413, got %d", rec.Code)
	}
	rec = httptest.NewRecorder()
	WriteDecodeError(context.Background(), rec, ErrEmptyBody)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
}
