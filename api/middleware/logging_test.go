package middleware

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"

	"github.com/RogerEliel/evento-clique-digital-sub000/pkg/logger"
)

func TestLoggingNeverRecordsGalleryToken(t *testing.T) {
	var buf bytes.Buffer
	logg := logger.New(logger.Options{ServiceName: "test", Output: &buf})

	router := chi.NewRouter()
	router.Use(Logging(logg))
	router.Get("/gallery/{token}/photos", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	const token = "nYbkCekgfOFAXLiKpixBC4jZCVZpbsou"
	req := httptest.NewRequest(http.MethodGet, "/gallery/"+token+"/photos", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	out := buf.String()
	if strings.Contains(out, token) {
		t.Fatalf("log output leaked the gallery token: %s", out)
	}
	if !strings.Contains(out, "/gallery/{token}/photos") {
		t.Fatalf("expected the route pattern in log output, got %s", out)
	}
	if !strings.Contains(out, `"status":200`) {
		t.Fatalf("expected status field in log output, got %s", out)
	}
}

func TestLoggingKeepsUnmatchedPathsOutOfLogs(t *testing.T) {
	var buf bytes.Buffer
	logg := logger.New(logger.Options{ServiceName: "test", Output: &buf})

	router := chi.NewRouter()
	router.Use(Logging(logg))
	router.Get("/health/live", func(w http.ResponseWriter, r *http.Request) {})

	req := httptest.NewRequest(http.MethodGet, "/gallery/mistyped-token-value", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	out := buf.String()
	if strings.Contains(out, "mistyped-token-value") {
		t.Fatalf("unmatched path leaked into logs: %s", out)
	}
	if !strings.Contains(out, "unmatched") {
		t.Fatalf("expected unmatched marker in log output, got %s", out)
	}
}
