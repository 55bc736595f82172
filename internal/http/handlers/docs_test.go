package handlers

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"visualspec/internal/infra"
)

func TestAPIDocsEndpoints(t *testing.T) {
	app := NewApp(nil, infra.NopLogger())
	tests := []struct {
		name        string
		handler     http.HandlerFunc
		contentType string
		check       func(t *testing.T, body string)
	}{
		{
			name:        "spec",
			handler:     app.APISpec,
			contentType: "application/json",
			check: func(t *testing.T, body string) {
				var doc map[string]any
				if err := json.Unmarshal([]byte(body), &doc); err != nil {
					t.Fatalf("spec is not JSON: %v", err)
				}
				paths, _ := doc["paths"].(map[string]any)
				if _, ok := paths["/api/generate-preview"]; !ok {
					t.Fatalf("spec lacks /api/generate-preview: %v", paths)
				}
			},
		},
		{
			name:        "docs",
			handler:     app.APIDocs,
			contentType: "text/html",
			check: func(t *testing.T, body string) {
				if !strings.Contains(body, `spec-url="`+SpecPath+`"`) {
					t.Fatalf("docs page does not point at %s: %s", SpecPath, body)
				}
				if !strings.Contains(body, "<title>Visual Spec Proxy API 1.0.0</title>") {
					t.Fatalf("docs title not taken from spec info: %s", body)
				}
			},
		},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			tc.handler(rec, httptest.NewRequest(http.MethodGet, "/", nil))
			if rec.Code != http.StatusOK {
				t.Fatalf("status = %d", rec.Code)
			}
			if ct := rec.Header().Get("Content-Type"); !strings.HasPrefix(ct, tc.contentType) {
				t.Fatalf("content type = %q, want %s", ct, tc.contentType)
			}
			if rec.Header().Get("Cache-Control") == "" {
				t.Fatal("missing Cache-Control")
			}
			tc.check(t, rec.Body.String())
		})
	}
}
