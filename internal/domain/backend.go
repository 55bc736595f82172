package domain

import "context"

// AnalyzeRequest is the provider-neutral analysis payload.
type AnalyzeRequest struct {
	Parts             []Part `json:"parts"`
	SystemInstruction string `json:"systemInstruction"`
	Medium            Medium `json:"medium"`
}

// PreviewRequest asks for a single rendered preview.
type PreviewRequest struct {
	Prompt      string `json:"prompt"`
	AspectRatio string `json:"aspectRatio"`
}

// Backend performs provider calls. The proxy client and the direct provider
// client both satisfy it so callers never branch on the credential variant.
type Backend interface {
	// AnalyzeStyle returns the raw model text for an analysis request.
	AnalyzeStyle(ctx context.Context, req AnalyzeRequest) (string, error)
	// GeneratePreview returns the rendered image as a data URI.
	GeneratePreview(ctx context.Context, req PreviewRequest) (string, error)
}
