package analysis

import (
	"encoding/json"
	"errors"
	"strings"

	"visualspec/internal/domain"
)

const (
	DefaultYAMLSpec         = "# 錯誤: AI 未能生成 YAML 欄位"
	DefaultStyleDescription = "無法取得摘要。"
	DefaultImagePrompt      = "Abstract geometric composition."
)

// Fields stay raw so a single mistyped value falls back to its default
// instead of rejecting the whole response.
type rawSummary struct {
	MoodKeywords     json.RawMessage `json:"mood_keywords"`
	PrimaryColors    json.RawMessage `json:"primary_colors"`
	StyleDescription json.RawMessage `json:"style_description"`
}

type rawResult struct {
	YAMLSpec    json.RawMessage `json:"yaml_spec"`
	Summary     json.RawMessage `json:"summary"`
	ImagePrompt json.RawMessage `json:"image_generation_prompt"`
	StyleGuide  json.RawMessage `json:"style_guide"`
}

// CleanJSON strips markdown code fences and anything outside the outermost
// braces of a model response.
func CleanJSON(raw string) string {
	text := trimCodeFence(raw)
	start := strings.Index(text, "{")
	end := strings.LastIndex(text, "}")
	if start >= 0 && end >= start {
		text = text[start : end+1]
	}
	return strings.TrimSpace(text)
}

func trimCodeFence(text string) string {
	trimmed := strings.TrimSpace(text)
	if !strings.HasPrefix(trimmed, "```") {
		return trimmed
	}
	trimmed = strings.TrimPrefix(trimmed, "```json")
	trimmed = strings.TrimPrefix(trimmed, "```JSON")
	trimmed = strings.TrimPrefix(trimmed, "```")
	trimmed = strings.TrimSpace(trimmed)
	if idx := strings.LastIndex(trimmed, "```"); idx >= 0 {
		trimmed = trimmed[:idx]
	}
	return strings.TrimSpace(trimmed)
}

// ParseResponse decodes model text into a result stamped with medium.
// Missing or mistyped fields are filled with placeholders so callers never
// see a partially empty result; text that is not a JSON object wraps
// domain.ErrInvalidOutput.
func ParseResponse(raw string, medium domain.Medium) (*domain.AnalysisResult, error) {
	cleaned := CleanJSON(raw)
	if cleaned == "" {
		return nil, domain.ErrInvalidOutput
	}
	var decoded rawResult
	if err := json.Unmarshal([]byte(cleaned), &decoded); err != nil {
		return nil, errors.Join(domain.ErrInvalidOutput, err)
	}
	return mapResult(decoded, medium), nil
}

func mapResult(in rawResult, medium domain.Medium) *domain.AnalysisResult {
	out := &domain.AnalysisResult{
		YAMLSpec:     field[string](in.YAMLSpec),
		ImagePrompt:  field[string](in.ImagePrompt),
		SourceMedium: medium,
		StyleGuide:   field[*domain.StyleGuide](in.StyleGuide),
	}
	if strings.TrimSpace(out.YAMLSpec) == "" {
		out.YAMLSpec = DefaultYAMLSpec
	}
	if strings.TrimSpace(out.ImagePrompt) == "" {
		out.ImagePrompt = DefaultImagePrompt
	}

	summary := field[rawSummary](in.Summary)
	out.Summary = domain.Summary{
		MoodKeywords:     nonNil(field[[]string](summary.MoodKeywords)),
		PrimaryColors:    nonNil(field[[]string](summary.PrimaryColors)),
		StyleDescription: field[string](summary.StyleDescription),
	}
	if strings.TrimSpace(out.Summary.StyleDescription) == "" {
		out.Summary.StyleDescription = DefaultStyleDescription
	}
	return out
}

// field decodes raw into T, yielding the zero value when raw is absent or
// has the wrong shape.
func field[T any](raw json.RawMessage) T {
	var v T
	if len(raw) == 0 {
		return v
	}
	if err := json.Unmarshal(raw, &v); err != nil {
		var zero T
		return zero
	}
	return v
}

func nonNil(values []string) []string {
	if values == nil {
		return []string{}
	}
	return values
}
