package domain

import (
	"encoding/base64"
	"strings"
)

// AssetOrigin enumerates where a visual asset comes from.
type AssetOrigin string

const (
	AssetOriginFile AssetOrigin = "file"
	AssetOriginURL  AssetOrigin = "url"
)

// VisualAsset is a user-supplied reference image. File assets carry either a
// filesystem path or raw bytes; URL assets carry the remote location.
type VisualAsset struct {
	ID            string
	Origin        AssetOrigin
	Name          string
	Path          string
	Data          []byte
	URL           string
	ContentType   string
	PreviewHandle string
}

// Part is one element of a multimodal request payload. Exactly one of Text or
// InlineData is set. The JSON shape matches the provider wire format so parts
// can travel through the proxy unchanged.
type Part struct {
	Text       string      `json:"text,omitempty"`
	InlineData *InlineData `json:"inlineData,omitempty"`
}

// InlineData holds base64-encoded bytes tagged with a content type.
type InlineData struct {
	MIMEType string `json:"mimeType"`
	Data     string `json:"data"`
}

// TextPart builds a text-only part.
func TextPart(text string) Part {
	return Part{Text: text}
}

// InlinePart builds a part carrying raw bytes.
func InlinePart(mimeType string, data []byte) Part {
	return Part{InlineData: &InlineData{
		MIMEType: strings.TrimSpace(mimeType),
		Data:     base64.StdEncoding.EncodeToString(data),
	}}
}

// IsEmpty reports whether the part carries neither text nor data.
func (p Part) IsEmpty() bool {
	return p.Text == "" && (p.InlineData == nil || p.InlineData.Data == "")
}

// Bytes decodes the inline payload.
func (d *InlineData) Bytes() ([]byte, error) {
	if d == nil {
		return nil, nil
	}
	return base64.StdEncoding.DecodeString(d.Data)
}
