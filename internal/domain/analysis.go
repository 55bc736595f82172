package domain

// Summary is the short human-facing digest of an analysis.
type Summary struct {
	MoodKeywords     []string `json:"mood_keywords"`
	PrimaryColors    []string `json:"primary_colors"`
	StyleDescription string   `json:"style_description"`
}

// Typography describes the font pairing suggested by a style guide.
type Typography struct {
	Heading   string `json:"heading"`
	Body      string `json:"body"`
	Rationale string `json:"rationale"`
}

// StyleGuide is an optional structured digest some model responses include.
type StyleGuide struct {
	DesignCharacteristics []string   `json:"design_characteristics"`
	Typography            Typography `json:"typography"`
	LayoutLogic           []string   `json:"layout_logic"`
	Cautions              []string   `json:"cautions"`
}

// AnalysisResult is produced once per successful analysis and never mutated.
// SourceMedium records the medium the schema and prompt were generated for.
type AnalysisResult struct {
	YAMLSpec     string      `json:"yaml_spec"`
	Summary      Summary     `json:"summary"`
	ImagePrompt  string      `json:"image_generation_prompt"`
	SourceMedium Medium      `json:"source_medium"`
	StyleGuide   *StyleGuide `json:"style_guide,omitempty"`
}

// StaleFor reports whether the result was produced for a medium other than
// current, in which case it must not drive preview generation.
func (r *AnalysisResult) StaleFor(current Medium) bool {
	if r == nil {
		return false
	}
	return r.SourceMedium != current
}
