package observability

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/jwebchajari/Savia/internal/platform/requestctx"
)

func TestParseCloudTraceContext(t *testing.T) {
	sc, ok := parseCloudTraceContext("105445aa7843bc8bf206b12000100000/1;o=1")
	if !ok {
		t.Fatalf("expected header to parse")
	}
	if got := sc.TraceID().String(); got != "105445aa7843bc8bf206b12000100000" {
		t.Fatalf("unexpected trace id %s", got)
	}
	if got := sc.SpanID().String(); got != "0000000000000001" {
		t.Fatalf("unexpected span id %s", got)
	}
	if !sc.IsSampled() || !sc.IsRemote() {
		t.Fatalf("expected sampled remote span context")
	}

	for _, bad := range []string{"", "abc/1", "105445aa7843bc8bf206b12000100000/0", "105445aa7843bc8bf206b12000100000/xyz;o=1"} {
		if _, ok := parseCloudTraceContext(bad); ok {
			t.Fatalf("expected %q to be rejected", bad)
		}
	}
}

func TestTraceMiddlewareStoresTraceInfo(t *testing.T) {
	var info requestctx.TraceInfo
	handler := TraceMiddleware("savia-prod")(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		info, _ = requestctx.Trace(r.Context())
		w.WriteHeader(http.StatusNoContent)
	}))

	req := httptest.NewRequest(http.MethodGet, "/products", nil)
	req.Header.Set(cloudTraceHeader, "105445aa7843bc8bf206b12000100000/1;o=1")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if info.ProjectID != "savia-prod" {
		t.Fatalf("expected project id on trace info, got %+v", info)
	}
	// The global provider is a no-op, so the remote parent is propagated as-is.
	if info.TraceID != "105445aa7843bc8bf206b12000100000" {
		t.Fatalf("expected parent trace id, got %s", info.TraceID)
	}
	if got := rec.Header().Get(cloudTraceHeader); !strings.HasPrefix(got, "105445aa7843bc8bf206b12000100000/") {
		t.Fatalf("expected cloud trace header echo, got %q", got)
	}
}
