package genai

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	sdk "google.golang.org/genai"

	"visualspec/internal/domain"
)

const imageResponse = `{"candidates":[{"content":{"role":"model","parts":[{"text":"here you go"},{"inlineData":{"mimeType":"image/png","data":"iVBORw0KGgo="}}]}}]}`

type fakeGemini struct {
	mu     sync.Mutex
	bodies map[string]string
	routes map[string]func(w http.ResponseWriter)
}

func newFakeGemini(t *testing.T, routes map[string]func(w http.ResponseWriter)) (*fakeGemini, *httptest.Server) {
	t.Helper()
	f := &fakeGemini{bodies: map[string]string{}, routes: routes}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		for model, handler := range f.routes {
			if strings.Contains(r.URL.Path, "/models/"+model+":generateContent") {
				f.mu.Lock()
				f.bodies[model] = string(body)
				f.mu.Unlock()
				w.Header().Set("Content-Type", "application/json")
				handler(w)
				return
			}
		}
		http.NotFound(w, r)
	}))
	t.Cleanup(srv.Close)
	return f, srv
}

func (f *fakeGemini) body(model string) string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.bodies[model]
}

func reply(status int, body string) func(w http.ResponseWriter) {
	return func(w http.ResponseWriter) {
		w.WriteHeader(status)
		_, _ = io.WriteString(w, body)
	}
}

func newTestClient(t *testing.T, srv *httptest.Server) *Client {
	t.Helper()
	client, err := NewClient(context.Background(), Options{
		APIKey:     "test-key",
		BaseURL:    srv.URL,
		HTTPClient: srv.Client(),
	})
	if err != nil {
		t.Fatalf("NewClient returned error: %v", err)
	}
	return client
}

func TestNewClientRequiresKey(t *testing.T) {
	if _, err := NewClient(context.Background(), Options{APIKey: "  "}); !errors.Is(err, domain.ErrMissingCredential) {
		t.Fatalf("expected ErrMissingCredential, got %v", err)
	}
}

func TestGeneratePreviewPrimarySucceeds(t *testing.T) {
	fake, srv := newFakeGemini(t, map[string]func(http.ResponseWriter){
		"gemini-3-pro-image-preview": reply(http.StatusOK, imageResponse),
		"gemini-2.5-flash-image":     reply(http.StatusInternalServerError, `{"error":{"code":500,"message":"should not be called"}}`),
	})
	client := newTestClient(t, srv)

	uri, err := client.GeneratePreview(context.Background(), domain.PreviewRequest{Prompt: "calm dashboard", AspectRatio: "16:9"})
	if err != nil {
		t.Fatalf("GeneratePreview returned error: %v", err)
	}
	if uri != "data:image/png;base64,iVBORw0KGgo=" {
		t.Fatalf("unexpected data uri %q", uri)
	}
	body := fake.body("gemini-3-pro-image-preview")
	if !strings.Contains(body, `"imageSize":"1K"`) || !strings.Contains(body, `"aspectRatio":"16:9"`) {
		t.Fatalf("primary request missing image config: %s", body)
	}
	if fake.body("gemini-2.5-flash-image") != "" {
		t.Fatal("secondary model should not be called")
	}
}

func TestGeneratePreviewFallsBackToSecondary(t *testing.T) {
	fake, srv := newFakeGemini(t, map[string]func(http.ResponseWriter){
		"gemini-3-pro-image-preview": reply(http.StatusInternalServerError, `{"error":{"code":500,"message":"overloaded","status":"INTERNAL"}}`),
		"gemini-2.5-flash-image":     reply(http.StatusOK, imageResponse),
	})
	client := newTestClient(t, srv)

	uri, err := client.GeneratePreview(context.Background(), domain.PreviewRequest{Prompt: "poster", AspectRatio: "2:3"})
	if err != nil {
		t.Fatalf("GeneratePreview returned error: %v", err)
	}
	if !strings.HasPrefix(uri, "data:image/png;base64,") {
		t.Fatalf("unexpected data uri %q", uri)
	}
	body := fake.body("gemini-2.5-flash-image")
	if strings.Contains(body, "imageSize") {
		t.Fatalf("secondary request must not carry imageSize: %s", body)
	}
	if !strings.Contains(body, `"aspectRatio":"2:3"`) {
		t.Fatalf("secondary request missing aspect ratio: %s", body)
	}
}

func TestGeneratePreviewPrimaryWithoutImageFallsBack(t *testing.T) {
	_, srv := newFakeGemini(t, map[string]func(http.ResponseWriter){
		"gemini-3-pro-image-preview": reply(http.StatusOK, `{"candidates":[{"content":{"parts":[{"text":"I cannot draw that"}]}}]}`),
		"gemini-2.5-flash-image":     reply(http.StatusOK, imageResponse),
	})
	client := newTestClient(t, srv)

	if _, err := client.GeneratePreview(context.Background(), domain.PreviewRequest{Prompt: "poster"}); err != nil {
		t.Fatalf("GeneratePreview returned error: %v", err)
	}
}

func TestGeneratePreviewBothTiersFail(t *testing.T) {
	tests := []struct {
		name        string
		primary     func(http.ResponseWriter)
		secondary   func(http.ResponseWriter)
		entitlement bool
		noImage     bool
	}{
		{
			name:        "permission denied on primary",
			primary:     reply(http.StatusForbidden, `{"error":{"code":403,"message":"The caller does not have permission","status":"PERMISSION_DENIED"}}`),
			secondary:   reply(http.StatusInternalServerError, `{"error":{"code":500,"message":"boom","status":"INTERNAL"}}`),
			entitlement: true,
		},
		{
			name:      "secondary returned no image",
			primary:   reply(http.StatusInternalServerError, `{"error":{"code":500,"message":"boom","status":"INTERNAL"}}`),
			secondary: reply(http.StatusOK, `{"candidates":[{"content":{"parts":[{"text":"no"}]}}]}`),
			noImage:   true,
		},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, srv := newFakeGemini(t, map[string]func(http.ResponseWriter){
				"gemini-3-pro-image-preview": tc.primary,
				"gemini-2.5-flash-image":     tc.secondary,
			})
			client := newTestClient(t, srv)

			_, err := client.GeneratePreview(context.Background(), domain.PreviewRequest{Prompt: "x", AspectRatio: "1:1"})
			var previewErr *PreviewError
			if !errors.As(err, &previewErr) {
				t.Fatalf("expected *PreviewError, got %T %v", err, err)
			}
			if previewErr.EntitlementDenied() != tc.entitlement {
				t.Fatalf("EntitlementDenied() = %v, want %v", previewErr.EntitlementDenied(), tc.entitlement)
			}
			var noImage *NoImageError
			if errors.As(previewErr.Secondary, &noImage) != tc.noImage {
				t.Fatalf("secondary no-image = %v, want %v (%v)", !tc.noImage, tc.noImage, previewErr.Secondary)
			}
		})
	}
}

func TestAnalyzeStyle(t *testing.T) {
	fake, srv := newFakeGemini(t, map[string]func(http.ResponseWriter){
		"gemini-3-flash-preview": reply(http.StatusOK, `{"candidates":[{"content":{"parts":[{"text":"{\"yaml_spec\":\"a: 1\"}"}]}}]}`),
	})
	client := newTestClient(t, srv)

	text, err := client.AnalyzeStyle(context.Background(), domain.AnalyzeRequest{
		Parts: []domain.Part{
			domain.InlinePart("image/png", []byte("png-bytes")),
			domain.TextPart("Analyze the attached visual assets (Moodboard)."),
		},
		SystemInstruction: "You are the Visual Spec Architect.",
		Medium:            domain.MediumSaaS,
	})
	if err != nil {
		t.Fatalf("AnalyzeStyle returned error: %v", err)
	}
	if text != `{"yaml_spec":"a: 1"}` {
		t.Fatalf("unexpected text %q", text)
	}

	body := fake.body("gemini-3-flash-preview")
	for _, want := range []string{
		`"responseMimeType":"application/json"`,
		`"temperature":0.4`,
		`You are the Visual Spec Architect.`,
		base64.StdEncoding.EncodeToString([]byte("png-bytes")),
	} {
		if !strings.Contains(body, want) {
			t.Fatalf("request body missing %s: %s", want, body)
		}
	}
}

func TestAnalyzeStyleEmptyResponse(t *testing.T) {
	_, srv := newFakeGemini(t, map[string]func(http.ResponseWriter){
		"gemini-3-flash-preview": reply(http.StatusOK, `{"candidates":[{"content":{"parts":[{"text":"  "}]}}]}`),
	})
	client := newTestClient(t, srv)

	_, err := client.AnalyzeStyle(context.Background(), domain.AnalyzeRequest{Parts: []domain.Part{domain.TextPart("x")}})
	if !errors.Is(err, domain.ErrEmptyResponse) {
		t.Fatalf("expected ErrEmptyResponse, got %v", err)
	}
}

func TestErrorClassifiers(t *testing.T) {
	if !IsInvalidKey(errors.New("Error 400, Message: API key not valid, Details: API_KEY_INVALID")) {
		t.Fatal("expected invalid key")
	}
	if !IsRateLimited(errors.New("Error 429, Message: Resource has been exhausted")) {
		t.Fatal("expected rate limit")
	}
	if IsInvalidKey(nil) || IsRateLimited(nil) {
		t.Fatal("nil must not classify")
	}
	pe := &PreviewError{Primary: errors.New("status PERMISSION_DENIED"), Secondary: errors.New("x")}
	if !pe.EntitlementDenied() {
		t.Fatal("expected entitlement denial from message text")
	}
	if !errors.Is(pe, pe.Secondary) {
		t.Fatal("PreviewError should unwrap to both causes")
	}
}

func TestErrorClassifiersReadWrappedAPIError(t *testing.T) {
	tests := []struct {
		name        string
		err         error
		wantCode    int
		rateLimited bool
		entitlement bool
	}{
		{
			name:        "quota",
			err:         fmt.Errorf("generate: %w", sdk.APIError{Code: 429, Status: "RESOURCE_EXHAUSTED"}),
			wantCode:    429,
			rateLimited: true,
		},
		{
			name:        "permission",
			err:         fmt.Errorf("generate: %w", sdk.APIError{Code: 403, Status: "PERMISSION_DENIED"}),
			wantCode:    403,
			entitlement: true,
		},
		{
			name:     "server",
			err:      fmt.Errorf("generate: %w", sdk.APIError{Code: 500, Status: "INTERNAL"}),
			wantCode: 500,
		},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			apiErr, ok := apiErrorOf(tc.err)
			if !ok || apiErr.Code != tc.wantCode {
				t.Fatalf("apiErrorOf = (%v, %v), want code %d", apiErr, ok, tc.wantCode)
			}
			if got := IsRateLimited(tc.err); got != tc.rateLimited {
				t.Fatalf("IsRateLimited = %v, want %v", got, tc.rateLimited)
			}
			pe := &PreviewError{Primary: tc.err, Secondary: errors.New("fallback failed")}
			if got := pe.EntitlementDenied(); got != tc.entitlement {
				t.Fatalf("EntitlementDenied = %v, want %v", got, tc.entitlement)
			}
		})
	}
	if _, ok := apiErrorOf(errors.New("plain")); ok {
		t.Fatal("plain error must not match an API error")
	}
}
