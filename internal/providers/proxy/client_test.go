package proxy

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"visualspec/internal/domain"
	"visualspec/internal/i18n"
)

type roundTripFunc func(*http.Request) (*http.Response, error)

func (f roundTripFunc) RoundTrip(r *http.Request) (*http.Response, error) {
	return f(r)
}

func TestKeyStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/key-status" || r.Method != http.MethodGet {
			t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
		}
		_, _ = io.WriteString(w, `{"hasServerKey":true}`)
	}))
	defer srv.Close()

	client := NewClient(Options{BaseURL: srv.URL + "/"})
	ok, err := client.KeyStatus(context.Background())
	if err != nil {
		t.Fatalf("KeyStatus returned error: %v", err)
	}
	if !ok {
		t.Fatal("expected hasServerKey=true")
	}
}

func TestAnalyzeStyleForwardsPayload(t *testing.T) {
	var got domain.AnalyzeRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/analyze" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if r.Header.Get("X-Locale") != "zh-TW" {
			t.Errorf("X-Locale = %q", r.Header.Get("X-Locale"))
		}
		if err := json.NewDecoder(r.Body).Decode(&got); err != nil {
			t.Errorf("decode: %v", err)
		}
		_, _ = io.WriteString(w, `{"text":"{\"yaml_spec\":\"x\"}"}`)
	}))
	defer srv.Close()

	client := NewClient(Options{BaseURL: srv.URL})
	text, err := client.AnalyzeStyle(context.Background(), domain.AnalyzeRequest{
		Parts:             []domain.Part{domain.InlinePart("image/png", []byte("abc")), domain.TextPart("go")},
		SystemInstruction: "sys",
		Medium:            domain.MediumPoster,
	})
	if err != nil {
		t.Fatalf("AnalyzeStyle returned error: %v", err)
	}
	if text != `{"yaml_spec":"x"}` {
		t.Fatalf("text = %q", text)
	}
	if len(got.Parts) != 2 || got.Parts[0].InlineData == nil || got.Parts[0].InlineData.MIMEType != "image/png" {
		t.Fatalf("parts not forwarded: %+v", got.Parts)
	}
	if got.SystemInstruction != "sys" || got.Medium != domain.MediumPoster {
		t.Fatalf("payload mismatch: %+v", got)
	}
}

func TestErrorMessages(t *testing.T) {
	tests := []struct {
		name    string
		status  int
		body    string
		call    func(*Client) error
		wantMsg string
	}{
		{
			name:    "server message wins",
			status:  http.StatusInternalServerError,
			body:    `{"error":"請求過於頻繁，請稍候再試"}`,
			call:    analyzeCall,
			wantMsg: "請求過於頻繁，請稍候再試",
		},
		{
			name:    "unparseable body",
			status:  http.StatusBadGateway,
			body:    `<html>bad gateway</html>`,
			call:    analyzeCall,
			wantMsg: "伺服器錯誤",
		},
		{
			name:    "analyze without message",
			status:  http.StatusInternalServerError,
			body:    `{}`,
			call:    analyzeCall,
			wantMsg: "分析失敗",
		},
		{
			name:    "preview without message",
			status:  http.StatusInternalServerError,
			body:    `{"error":""}`,
			call:    previewCall,
			wantMsg: "圖片生成失敗",
		},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			client := NewClient(Options{
				BaseURL: "http://proxy.test",
				HTTPClient: &http.Client{Transport: roundTripFunc(func(r *http.Request) (*http.Response, error) {
					return &http.Response{
						StatusCode: tc.status,
						Body:       io.NopCloser(strings.NewReader(tc.body)),
						Header:     http.Header{},
					}, nil
				})},
			})
			err := tc.call(client)
			var statusErr *StatusError
			if !errors.As(err, &statusErr) {
				t.Fatalf("expected *StatusError, got %T %v", err, err)
			}
			if statusErr.StatusCode != tc.status || statusErr.Message != tc.wantMsg {
				t.Fatalf("StatusError = %+v, want status %d message %q", statusErr, tc.status, tc.wantMsg)
			}
		})
	}
}

func TestEnglishFallbackMessages(t *testing.T) {
	client := NewClient(Options{
		BaseURL: "http://proxy.test",
		Locale:  i18n.English,
		HTTPClient: &http.Client{Transport: roundTripFunc(func(r *http.Request) (*http.Response, error) {
			return &http.Response{StatusCode: 500, Body: io.NopCloser(strings.NewReader("oops")), Header: http.Header{}}, nil
		})},
	})
	var statusErr *StatusError
	if err := analyzeCall(client); !errors.As(err, &statusErr) || statusErr.Message != "Server error" {
		t.Fatalf("unexpected error %v", err)
	}
}

func TestGeneratePreviewRequiresImage(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, `{"image":""}`)
	}))
	defer srv.Close()

	client := NewClient(Options{BaseURL: srv.URL})
	if _, err := client.GeneratePreview(context.Background(), domain.PreviewRequest{Prompt: "x"}); !errors.Is(err, domain.ErrNoImage) {
		t.Fatalf("expected ErrNoImage, got %v", err)
	}
}

func TestTransportFailure(t *testing.T) {
	client := NewClient(Options{
		BaseURL: "http://proxy.test",
		HTTPClient: &http.Client{Transport: roundTripFunc(func(r *http.Request) (*http.Response, error) {
			return nil, errors.New("connection refused")
		})},
	})
	_, err := client.KeyStatus(context.Background())
	if err == nil {
		t.Fatal("expected error")
	}
	var statusErr *StatusError
	if errors.As(err, &statusErr) {
		t.Fatal("transport failure must not look like a proxy answer")
	}
}

func analyzeCall(c *Client) error {
	_, err := c.AnalyzeStyle(context.Background(), domain.AnalyzeRequest{Parts: []domain.Part{domain.TextPart("x")}, SystemInstruction: "s"})
	return err
}

func previewCall(c *Client) error {
	_, err := c.GeneratePreview(context.Background(), domain.PreviewRequest{Prompt: "x"})
	return err
}
