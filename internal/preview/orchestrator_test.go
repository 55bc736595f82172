package preview

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"visualspec/internal/catalog"
	"visualspec/internal/domain"
	"visualspec/internal/i18n"
	"visualspec/internal/providers/genai"
	"visualspec/internal/providers/proxy"
)

type renderFunc func(ctx context.Context, req domain.PreviewRequest) (string, error)

type fakeBackend struct {
	render renderFunc

	mu       sync.Mutex
	requests []domain.PreviewRequest
}

func (f *fakeBackend) AnalyzeStyle(ctx context.Context, req domain.AnalyzeRequest) (string, error) {
	return "", errors.New("not used")
}

func (f *fakeBackend) GeneratePreview(ctx context.Context, req domain.PreviewRequest) (string, error) {
	f.mu.Lock()
	f.requests = append(f.requests, req)
	f.mu.Unlock()
	return f.render(ctx, req)
}

type fakeRouter struct {
	host domain.Backend
	user domain.Backend
}

func (r *fakeRouter) Backend(ctx context.Context, cred domain.Credential) (domain.Backend, error) {
	switch cred.Kind() {
	case domain.CredentialHostManaged:
		return r.host, nil
	case domain.CredentialUserProvided:
		return r.user, nil
	}
	return nil, domain.ErrMissingCredential
}

type recorder struct {
	mu    sync.Mutex
	calls map[int]domain.PreviewItem
	count int
}

func newRecorder() *recorder {
	return &recorder{calls: map[int]domain.PreviewItem{}}
}

func (r *recorder) record(index int, item domain.PreviewItem) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls[index] = item
	r.count++
}

func waitBatch(t *testing.T, b *Batch) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := b.Wait(ctx); err != nil {
		t.Fatalf("batch did not settle: %v", err)
	}
}

func okRender(ctx context.Context, req domain.PreviewRequest) (string, error) {
	return "data:image/png;base64," + req.AspectRatio, nil
}

func TestStartDeliversEveryVariantOnce(t *testing.T) {
	backend := &fakeBackend{render: okRender}
	o := New(Options{Router: &fakeRouter{host: backend}})
	rec := newRecorder()

	batch, err := o.Start(context.Background(), "calm dashboard", domain.MediumSaaS, domain.HostManaged(), rec.record)
	if err != nil {
		t.Fatalf("Start returned error: %v", err)
	}
	waitBatch(t, batch)

	variants := catalog.Default().Variants(domain.MediumSaaS)
	if rec.count != len(variants) || len(rec.calls) != len(variants) {
		t.Fatalf("expected %d callbacks on distinct indices, got count=%d distinct=%d", len(variants), rec.count, len(rec.calls))
	}
	items := o.Items()
	for i, item := range items {
		if item.Loading || item.Image == "" || item.Error != "" {
			t.Fatalf("item %d not settled successfully: %+v", i, item)
		}
		if item.Type != variants[i].Type {
			t.Fatalf("item %d type = %q, want %q", i, item.Type, variants[i].Type)
		}
	}

	want := map[string]bool{}
	for _, v := range variants {
		want[catalog.Default().AugmentPrompt(domain.MediumSaaS, v, "calm dashboard")] = true
	}
	for _, req := range backend.requests {
		if !want[req.Prompt] {
			t.Fatalf("unexpected prompt %q", req.Prompt)
		}
		if !strings.HasSuffix(req.Prompt, ":: calm dashboard") {
			t.Fatalf("prompt does not end with base prompt: %q", req.Prompt)
		}
	}
}

func TestSiblingFailureIsIsolated(t *testing.T) {
	variants := catalog.Default().Variants(domain.MediumPoster)
	failing := catalog.Default().AugmentPrompt(domain.MediumPoster, variants[1], "neon")
	backend := &fakeBackend{render: func(ctx context.Context, req domain.PreviewRequest) (string, error) {
		if req.Prompt == failing {
			return "", &genai.PreviewError{Primary: errors.New("500 internal"), Secondary: errors.New("quota exhausted")}
		}
		return okRender(ctx, req)
	}}
	o := New(Options{Router: &fakeRouter{user: backend}, Locale: i18n.TraditionalChinese})

	batch, err := o.Start(context.Background(), "neon", domain.MediumPoster, domain.UserProvided("k"), nil)
	if err != nil {
		t.Fatalf("Start returned error: %v", err)
	}
	waitBatch(t, batch)

	items := o.Items()
	for i, item := range items {
		if i == 1 {
			if item.Error != "圖片生成失敗。 quota exhausted" || item.Image != "" {
				t.Fatalf("failing item = %+v", item)
			}
			continue
		}
		if item.Image == "" || item.Error != "" {
			t.Fatalf("sibling %d affected by failure: %+v", i, item)
		}
	}
}

func TestDescribeFailures(t *testing.T) {
	o := New(Options{Locale: i18n.TraditionalChinese})
	tests := []struct {
		name string
		err  error
		want string
	}{
		{
			name: "entitlement hint",
			err:  &genai.PreviewError{Primary: errors.New("Error 403, PERMISSION_DENIED"), Secondary: errors.New("whatever")},
			want: "圖片生成失敗。 (API Key 可能不支援圖片生成模型)",
		},
		{
			name: "secondary returned no image",
			err:  &genai.PreviewError{Primary: errors.New("timeout"), Secondary: &genai.NoImageError{Model: "gemini-2.5-flash-image"}},
			want: "圖片生成失敗。 Flash 模型未回傳圖片。",
		},
		{
			name: "proxy message verbatim",
			err:  &proxy.StatusError{StatusCode: 500, Message: "圖片生成失敗：quota"},
			want: "圖片生成失敗：quota",
		},
		{
			name: "anything else",
			err:  errors.New("dial tcp"),
			want: "圖片生成失敗",
		},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := o.describe(tc.err); got != tc.want {
				t.Fatalf("describe = %q, want %q", got, tc.want)
			}
		})
	}
}

func TestStaleBatchIsDropped(t *testing.T) {
	release := make(chan struct{})
	var (
		ctxMu      sync.Mutex
		staleCtxOK = true
	)
	slow := &fakeBackend{render: func(ctx context.Context, req domain.PreviewRequest) (string, error) {
		<-release
		ctxMu.Lock()
		if ctx.Err() == nil {
			staleCtxOK = false
		}
		ctxMu.Unlock()
		return "data:image/png;base64,old", nil
	}}
	fast := &fakeBackend{render: okRender}
	o := New(Options{Router: &fakeRouter{host: slow, user: fast}})

	oldRec := newRecorder()
	oldBatch, err := o.Start(context.Background(), "old", domain.MediumSlides, domain.HostManaged(), oldRec.record)
	if err != nil {
		t.Fatalf("Start old returned error: %v", err)
	}
	newRec := newRecorder()
	newBatch, err := o.Start(context.Background(), "new", domain.MediumSlides, domain.UserProvided("k"), newRec.record)
	if err != nil {
		t.Fatalf("Start new returned error: %v", err)
	}
	if newBatch.ID <= oldBatch.ID {
		t.Fatalf("batch ids not monotonic: old=%d new=%d", oldBatch.ID, newBatch.ID)
	}
	waitBatch(t, newBatch)

	close(release)
	waitBatch(t, oldBatch)

	if oldRec.count != 0 {
		t.Fatalf("stale batch delivered %d callbacks", oldRec.count)
	}
	if newRec.count != newBatch.Size {
		t.Fatalf("live batch delivered %d callbacks, want %d", newRec.count, newBatch.Size)
	}
	for _, item := range o.Items() {
		if strings.HasSuffix(item.Image, "old") {
			t.Fatalf("stale image leaked into items: %+v", item)
		}
	}
	ctxMu.Lock()
	defer ctxMu.Unlock()
	if !staleCtxOK {
		t.Fatal("stale batch context was not cancelled")
	}
}

func TestResetDropsInFlightBatch(t *testing.T) {
	release := make(chan struct{})
	backend := &fakeBackend{render: func(ctx context.Context, req domain.PreviewRequest) (string, error) {
		<-release
		return "data:image/png;base64,late", nil
	}}
	o := New(Options{Router: &fakeRouter{host: backend}})
	rec := newRecorder()
	batch, err := o.Start(context.Background(), "p", domain.MediumSaaS, domain.HostManaged(), rec.record)
	if err != nil {
		t.Fatalf("Start returned error: %v", err)
	}
	o.Reset()
	close(release)
	waitBatch(t, batch)

	if rec.count != 0 {
		t.Fatalf("reset batch delivered %d callbacks", rec.count)
	}
	if len(o.Items()) != 0 {
		t.Fatalf("items not cleared: %+v", o.Items())
	}
}

func TestStartPreconditions(t *testing.T) {
	o := New(Options{Router: &fakeRouter{}})
	if _, err := o.Start(context.Background(), "p", domain.MediumSaaS, domain.NoCredential(), nil); !errors.Is(err, domain.ErrMissingCredential) {
		t.Fatalf("expected ErrMissingCredential, got %v", err)
	}
	if _, err := o.Start(context.Background(), "p", domain.Medium("Zine"), domain.HostManaged(), nil); !errors.Is(err, domain.ErrUnknownMedium) {
		t.Fatalf("expected ErrUnknownMedium, got %v", err)
	}
}

func variantCatalog(t *testing.T, counts map[domain.Medium]int) *catalog.Catalog {
	t.Helper()
	var b strings.Builder
	b.WriteString("base_instruction: describe the style\n")
	b.WriteString("analysis_prompt: analyze for {medium}\n")
	b.WriteString("media:\n")
	for _, m := range domain.Media() {
		n := counts[m]
		if n == 0 {
			n = 1
		}
		fmt.Fprintf(&b, "  %s:\n    schema: \"%s: {}\"\n    variants:\n", m, strings.ToLower(string(m)))
		for i := 0; i < n; i++ {
			fmt.Fprintf(&b, "      - type: v%d\n        label: Variant %d\n        prompt_prefix: layout %d\n        aspect_ratio: \"16:9\"\n", i, i, i)
		}
	}
	cat, err := catalog.Parse([]byte(b.String()))
	if err != nil {
		t.Fatalf("catalog.Parse: %v", err)
	}
	return cat
}

func TestStartHonorsCatalogVariantCount(t *testing.T) {
	cat := variantCatalog(t, map[domain.Medium]int{domain.MediumSlides: 1, domain.MediumSaaS: 6})
	tests := []struct {
		medium domain.Medium
		want   int
	}{
		{medium: domain.MediumSlides, want: 1},
		{medium: domain.MediumSaaS, want: 6},
	}
	for _, tc := range tests {
		t.Run(string(tc.medium), func(t *testing.T) {
			backend := &fakeBackend{render: okRender}
			o := New(Options{Router: &fakeRouter{host: backend}, Catalog: cat})
			rec := newRecorder()

			batch, err := o.Start(context.Background(), "grid", tc.medium, domain.HostManaged(), rec.record)
			if err != nil {
				t.Fatalf("Start returned error: %v", err)
			}
			waitBatch(t, batch)

			if batch.Size != tc.want {
				t.Fatalf("batch size = %d, want %d", batch.Size, tc.want)
			}
			if rec.count != batch.Size || len(rec.calls) != batch.Size {
				t.Fatalf("callbacks = %d on %d distinct indices, want %d", rec.count, len(rec.calls), batch.Size)
			}
			for i := 0; i < batch.Size; i++ {
				if _, ok := rec.calls[i]; !ok {
					t.Fatalf("no callback for index %d", i)
				}
			}
			if items := o.Items(); len(items) != tc.want {
				t.Fatalf("items = %d, want %d", len(items), tc.want)
			}
		})
	}
}
