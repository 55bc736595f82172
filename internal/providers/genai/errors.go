package genai

import (
	"errors"
	"fmt"
	"strings"

	sdk "google.golang.org/genai"
)

// NoImageError reports a successful call whose response held no image.
type NoImageError struct {
	Model string
}

func (e *NoImageError) Error() string {
	return fmt.Sprintf("model %s returned no image", e.Model)
}

// PreviewError is returned when both image tiers fail.
type PreviewError struct {
	Primary   error
	Secondary error
}

func (e *PreviewError) Error() string {
	return fmt.Sprintf("image generation failed: primary: %v; secondary: %v", e.Primary, e.Secondary)
}

func (e *PreviewError) Unwrap() []error {
	return []error{e.Primary, e.Secondary}
}

// EntitlementDenied reports whether the primary tier was refused for
// permission reasons, which usually means the key lacks image model access.
func (e *PreviewError) EntitlementDenied() bool {
	if e == nil || e.Primary == nil {
		return false
	}
	if apiErr, ok := apiErrorOf(e.Primary); ok {
		if apiErr.Code == 403 || strings.Contains(apiErr.Status, "PERMISSION") {
			return true
		}
	}
	msg := e.Primary.Error()
	return strings.Contains(msg, "403") || strings.Contains(msg, "PERMISSION")
}

// IsInvalidKey reports whether err indicates a rejected API key.
func IsInvalidKey(err error) bool {
	return err != nil && strings.Contains(err.Error(), "API_KEY")
}

// IsRateLimited reports whether err indicates provider throttling.
func IsRateLimited(err error) bool {
	if err == nil {
		return false
	}
	if apiErr, ok := apiErrorOf(err); ok && apiErr.Code == 429 {
		return true
	}
	return strings.Contains(err.Error(), "429")
}

// apiErrorOf finds an SDK API error in the chain. The SDK returns APIError
// by value.
func apiErrorOf(err error) (*sdk.APIError, bool) {
	var apiErr sdk.APIError
	if errors.As(err, &apiErr) {
		return &apiErr, true
	}
	return nil, false
}
