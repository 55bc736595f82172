// Package preview fans a single image prompt out into one render per
// medium variant and collects the results as they arrive.
package preview

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/text/language"

	"visualspec/internal/catalog"
	"visualspec/internal/domain"
	"visualspec/internal/i18n"
	"visualspec/internal/providers/genai"
	"visualspec/internal/providers/proxy"
)

// BackendSelector picks the backend serving a credential.
type BackendSelector interface {
	Backend(ctx context.Context, cred domain.Credential) (domain.Backend, error)
}

// ItemFunc receives each settled item of a live batch. It runs on the
// batch aggregator goroutine and must not call Start or Reset.
type ItemFunc func(index int, item domain.PreviewItem)

type Options struct {
	Router  BackendSelector
	Catalog *catalog.Catalog
	Logger  *zerolog.Logger
	Locale  language.Tag
}

// Orchestrator runs at most one live batch. Starting a new batch makes the
// previous one stale: its context is cancelled and any completions that
// still arrive are discarded.
type Orchestrator struct {
	router  BackendSelector
	catalog *catalog.Catalog
	logger  zerolog.Logger
	locale  language.Tag

	// deliverMu serializes commits with batch turnover so a callback never
	// fires for a batch that has already been replaced. Lock order:
	// deliverMu, then mu.
	deliverMu sync.Mutex
	mu        sync.Mutex

	generation uint64
	cancel     context.CancelFunc
	items      []domain.PreviewItem
}

// Batch is a handle on one Start call.
type Batch struct {
	ID     uint64
	Medium domain.Medium
	Size   int
	done   chan struct{}
}

// Done is closed once every variant of the batch has settled.
func (b *Batch) Done() <-chan struct{} {
	return b.done
}

// Wait blocks until the batch settles or ctx ends.
func (b *Batch) Wait(ctx context.Context) error {
	select {
	case <-b.done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

type outcome struct {
	batch uint64
	index int
	image string
	err   error
}

func New(opts Options) *Orchestrator {
	logger := zerolog.Nop()
	if opts.Logger != nil {
		logger = *opts.Logger
	}
	cat := opts.Catalog
	if cat == nil {
		cat = catalog.Default()
	}
	locale := opts.Locale
	if locale == language.Und {
		locale = i18n.TraditionalChinese
	}
	return &Orchestrator{router: opts.Router, catalog: cat, logger: logger, locale: locale}
}

// Start launches one request per variant of medium. Items begin in the
// loading state; onItemDone is invoked exactly once per index while the
// batch stays current.
func (o *Orchestrator) Start(ctx context.Context, imagePrompt string, medium domain.Medium, cred domain.Credential, onItemDone ItemFunc) (*Batch, error) {
	if !medium.Valid() {
		return nil, fmt.Errorf("preview: %w: %q", domain.ErrUnknownMedium, medium)
	}
	variants := o.catalog.Variants(medium)
	if len(variants) == 0 {
		return nil, fmt.Errorf("preview: %s: %w", medium, domain.ErrNoVariants)
	}
	if cred.IsNone() || o.router == nil {
		return nil, domain.ErrMissingCredential
	}
	backend, err := o.router.Backend(ctx, cred)
	if err != nil {
		return nil, err
	}

	batchCtx, cancel := context.WithCancel(ctx)
	items := make([]domain.PreviewItem, len(variants))
	for i, v := range variants {
		items[i] = domain.PreviewItem{Type: v.Type, Label: v.Label, Loading: true}
	}

	o.deliverMu.Lock()
	o.mu.Lock()
	if o.cancel != nil {
		o.cancel()
	}
	o.generation++
	gen := o.generation
	o.cancel = cancel
	o.items = items
	o.mu.Unlock()
	o.deliverMu.Unlock()

	batch := &Batch{ID: gen, Medium: medium, Size: len(variants), done: make(chan struct{})}
	results := make(chan outcome, len(variants))
	for i, v := range variants {
		req := domain.PreviewRequest{
			Prompt:      o.catalog.AugmentPrompt(medium, v, imagePrompt),
			AspectRatio: v.AspectRatio,
		}
		go func(index int, req domain.PreviewRequest) {
			image, err := backend.GeneratePreview(batchCtx, req)
			results <- outcome{batch: gen, index: index, image: image, err: err}
		}(i, req)
	}

	o.logger.Debug().
		Uint64("batch", gen).
		Str("medium", string(medium)).
		Str("credential", cred.Kind().String()).
		Int("variants", len(variants)).
		Msg("preview: batch started")

	go o.aggregate(batch, cancel, results, onItemDone)
	return batch, nil
}

func (o *Orchestrator) aggregate(batch *Batch, cancel context.CancelFunc, results <-chan outcome, onItemDone ItemFunc) {
	started := time.Now()
	failed := 0
	for n := 0; n < batch.Size; n++ {
		out := <-results
		if out.err != nil {
			failed++
		}
		o.commit(out, onItemDone)
	}
	cancel()
	close(batch.done)
	o.logger.Debug().
		Uint64("batch", batch.ID).
		Int("failed", failed).
		Dur("elapsed", time.Since(started)).
		Msg("preview: batch settled")
}

func (o *Orchestrator) commit(out outcome, onItemDone ItemFunc) {
	o.deliverMu.Lock()
	defer o.deliverMu.Unlock()

	o.mu.Lock()
	if out.batch != o.generation || out.index >= len(o.items) {
		o.mu.Unlock()
		o.logger.Debug().Uint64("batch", out.batch).Int("index", out.index).Msg("preview: dropping stale result")
		return
	}
	item := o.items[out.index]
	item.Loading = false
	if out.err != nil {
		item.Error = o.describe(out.err)
		o.logger.Warn().Err(out.err).Uint64("batch", out.batch).Str("variant", item.Type).Msg("preview: variant failed")
	} else {
		item.Image = out.image
	}
	o.items[out.index] = item
	o.mu.Unlock()

	if onItemDone != nil {
		onItemDone(out.index, item)
	}
}

// Items returns a snapshot of the current batch.
func (o *Orchestrator) Items() []domain.PreviewItem {
	o.mu.Lock()
	defer o.mu.Unlock()
	out := make([]domain.PreviewItem, len(o.items))
	copy(out, o.items)
	return out
}

// Reset abandons the current batch and clears all items.
func (o *Orchestrator) Reset() {
	o.deliverMu.Lock()
	defer o.deliverMu.Unlock()
	o.mu.Lock()
	defer o.mu.Unlock()

	if o.cancel != nil {
		o.cancel()
		o.cancel = nil
	}
	o.generation++
	o.items = nil
}

// describe renders a failed variant for display.
func (o *Orchestrator) describe(err error) string {
	var previewErr *genai.PreviewError
	if errors.As(err, &previewErr) {
		msg := i18n.Text(o.locale, i18n.MsgPreviewFailedPrefix)
		if previewErr.EntitlementDenied() {
			return msg + i18n.Text(o.locale, i18n.MsgEntitlementHint)
		}
		return msg + " " + o.secondaryText(previewErr.Secondary)
	}
	var statusErr *proxy.StatusError
	switch {
	case errors.As(err, &statusErr):
		return statusErr.Message
	case errors.Is(err, domain.ErrMissingCredential):
		return i18n.Text(o.locale, i18n.MsgMissingKey)
	default:
		return i18n.Text(o.locale, i18n.MsgPreviewFailed)
	}
}

func (o *Orchestrator) secondaryText(err error) string {
	var noImage *genai.NoImageError
	if errors.As(err, &noImage) {
		return i18n.Text(o.locale, i18n.MsgSecondaryNoImage)
	}
	if err == nil {
		return ""
	}
	return err.Error()
}
