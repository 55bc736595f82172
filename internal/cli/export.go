package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"gopkg.in/yaml.v3"

	"visualspec/internal/domain"
	"visualspec/internal/storage"
	"visualspec/pkg/zip"
)

const (
	specFile     = "spec.yaml"
	analysisFile = "analysis.json"
	handoffFile  = "handoff.txt"
	archiveFile  = "visualspec.zip"
	previewDir   = "previews"
)

// exporter writes outputs under one directory and remembers them for the
// optional archive.
type exporter struct {
	store   *storage.FileStore
	print   *printer
	entries []zip.Entry
	now     time.Time
}

func newExporter(dir string, p *printer) (*exporter, error) {
	store, err := storage.NewFileStore(dir)
	if err != nil {
		return nil, err
	}
	return &exporter{store: store, print: p, now: time.Now()}, nil
}

func (e *exporter) dir() string {
	return e.store.BasePath()
}

func (e *exporter) count() int {
	return len(e.entries)
}

func (e *exporter) write(ctx context.Context, key string, data []byte) error {
	clean, err := e.store.Write(ctx, key, data)
	if err != nil {
		return fmt.Errorf("write %s: %w", key, err)
	}
	e.entries = append(e.entries, zip.Entry{Name: clean, Data: data, ModTime: e.now})
	return nil
}

func (e *exporter) writeText(ctx context.Context, key, text string) error {
	return e.write(ctx, key, []byte(text))
}

// writeResult stores the YAML specification and the full result as JSON.
// A specification that does not parse as YAML is still written.
func (e *exporter) writeResult(ctx context.Context, result *domain.AnalysisResult) error {
	var probe any
	if err := yaml.Unmarshal([]byte(result.YAMLSpec), &probe); err != nil {
		e.print.warn.Fprintf(e.print.out, "warning: %s is not valid YAML: %v\n", specFile, err)
	}
	if err := e.writeText(ctx, specFile, result.YAMLSpec); err != nil {
		return err
	}
	data, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		return fmt.Errorf("encode %s: %w", analysisFile, err)
	}
	return e.write(ctx, analysisFile, data)
}

// writePreviews saves every rendered variant as previews/<nn>-<type>.<ext>.
// Failed variants are skipped.
func (e *exporter) writePreviews(ctx context.Context, items []domain.PreviewItem) error {
	for i, item := range items {
		if item.Image == "" {
			continue
		}
		_, data, err := storage.DecodeDataURI(item.Image)
		if err != nil {
			e.print.warn.Fprintf(e.print.out, "warning: skip %s: %v\n", item.Label, err)
			continue
		}
		stem := fmt.Sprintf("%s/%02d-%s", previewDir, i+1, item.Type)
		key, err := e.store.WriteDataURI(ctx, stem, item.Image)
		if err != nil {
			return fmt.Errorf("write %s: %w", stem, err)
		}
		e.entries = append(e.entries, zip.Entry{Name: key, Data: data, ModTime: e.now})
	}
	return nil
}

func (e *exporter) writeArchive(ctx context.Context) error {
	data, err := zip.Archive(e.entries)
	if err != nil {
		return err
	}
	if _, err := e.store.Write(ctx, archiveFile, data); err != nil {
		return fmt.Errorf("write %s: %w", archiveFile, err)
	}
	return nil
}
