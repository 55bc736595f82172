package domain

// PreviewVariant is one static layout configuration for a medium.
type PreviewVariant struct {
	Type         string
	Label        string
	PromptPrefix string
	AspectRatio  string
}

// PreviewItem is the per-variant cell of a preview batch.
type PreviewItem struct {
	Type    string `json:"type"`
	Label   string `json:"label"`
	Image   string `json:"image,omitempty"`
	Loading bool   `json:"loading"`
	Error   string `json:"error,omitempty"`
}

// Done reports whether the item has settled, successfully or not.
func (p PreviewItem) Done() bool {
	return !p.Loading
}
