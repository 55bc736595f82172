// Package catalog holds the static per-medium configuration: system
// instructions, preview variants, handoff instructions and upload guidance.
package catalog

import (
	"bytes"
	_ "embed"
	"errors"
	"fmt"
	"os"
	"strings"
	"sync"
	"text/template"

	"gopkg.in/yaml.v3"

	"visualspec/internal/domain"
)

//go:embed catalog.yaml
var defaultCatalog []byte

// Catalog is immutable after Parse.
type Catalog struct {
	BaseInstruction string                         `yaml:"base_instruction"`
	AnalysisPrompt  string                         `yaml:"analysis_prompt"`
	Media           map[domain.Medium]MediumConfig `yaml:"media"`
}

// MediumConfig is the configuration of a single medium.
type MediumConfig struct {
	Description        string          `yaml:"description"`
	Schema             string          `yaml:"schema"`
	PreviewConstraints string          `yaml:"preview_constraints"`
	Variants           []VariantConfig `yaml:"variants"`
	Handoff            Handoff         `yaml:"handoff"`
	BestPractice       BestPractice    `yaml:"best_practice"`
}

type VariantConfig struct {
	Type         string `yaml:"type"`
	Label        string `yaml:"label"`
	PromptPrefix string `yaml:"prompt_prefix"`
	AspectRatio  string `yaml:"aspect_ratio"`
}

// Handoff is the instruction a user pastes into a downstream tool together
// with the generated YAML.
type Handoff struct {
	Label       string `yaml:"label"`
	Instruction string `yaml:"instruction"`
}

// BestPractice is upload guidance shown before analysis.
type BestPractice struct {
	Title       string   `yaml:"title"`
	GoldenRatio string   `yaml:"golden_ratio"`
	Recipe      []string `yaml:"recipe"`
	Donts       string   `yaml:"donts"`
}

var (
	defaultOnce sync.Once
	defaultCat  *Catalog
	defaultErr  error
)

// Default returns the embedded catalog. It panics if the embedded file is
// malformed, which is a build defect.
func Default() *Catalog {
	defaultOnce.Do(func() {
		defaultCat, defaultErr = Parse(defaultCatalog)
	})
	if defaultErr != nil {
		panic(fmt.Sprintf("catalog: embedded catalog invalid: %v", defaultErr))
	}
	return defaultCat
}

// Load reads a catalog override from path, or returns the embedded catalog
// when path is empty.
func Load(path string) (*Catalog, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return Default(), nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("catalog: read %s: %w", path, err)
	}
	return Parse(data)
}

// Parse decodes and validates a catalog document.
func Parse(data []byte) (*Catalog, error) {
	var c Catalog
	if err := yaml.Unmarshal(data, &c); err != nil {
		return nil, fmt.Errorf("catalog: decode: %w", err)
	}
	if err := c.validate(); err != nil {
		return nil, err
	}
	return &c, nil
}

func (c *Catalog) validate() error {
	if strings.TrimSpace(c.BaseInstruction) == "" {
		return errors.New("catalog: base_instruction is required")
	}
	if !strings.Contains(c.AnalysisPrompt, "{medium}") {
		return errors.New("catalog: analysis_prompt must reference {medium}")
	}
	for _, m := range domain.Media() {
		cfg, ok := c.Media[m]
		if !ok {
			return fmt.Errorf("catalog: medium %s missing", m)
		}
		if strings.TrimSpace(cfg.Schema) == "" {
			return fmt.Errorf("catalog: medium %s has no schema", m)
		}
		if len(cfg.Variants) == 0 {
			return fmt.Errorf("catalog: medium %s: %w", m, domain.ErrNoVariants)
		}
		for i, v := range cfg.Variants {
			if strings.TrimSpace(v.PromptPrefix) == "" || strings.TrimSpace(v.AspectRatio) == "" {
				return fmt.Errorf("catalog: medium %s variant %d needs prompt_prefix and aspect_ratio", m, i)
			}
		}
		if _, err := template.New(string(m)).Parse(cfg.Handoff.Instruction); err != nil {
			return fmt.Errorf("catalog: medium %s handoff: %w", m, err)
		}
	}
	return nil
}

// Medium returns the configuration for m.
func (c *Catalog) Medium(m domain.Medium) (MediumConfig, bool) {
	cfg, ok := c.Media[m]
	return cfg, ok
}

func (c *Catalog) mediumOrDefault(m domain.Medium) MediumConfig {
	if cfg, ok := c.Media[m]; ok {
		return cfg
	}
	return c.Media[domain.MediumSaaS]
}

// SystemInstruction is the shared preamble followed by the medium schema.
// Unknown media fall back to the SaaS schema.
func (c *Catalog) SystemInstruction(m domain.Medium) string {
	return c.BaseInstruction + "\n\n" + c.mediumOrDefault(m).Schema
}

// UserPrompt is the instruction text appended after the encoded assets.
func (c *Catalog) UserPrompt(m domain.Medium) string {
	return strings.TrimSpace(strings.ReplaceAll(c.AnalysisPrompt, "{medium}", string(m)))
}

// Variants returns a copy of the ordered preview variants for m.
func (c *Catalog) Variants(m domain.Medium) []domain.PreviewVariant {
	cfg, ok := c.Media[m]
	if !ok {
		return nil
	}
	out := make([]domain.PreviewVariant, 0, len(cfg.Variants))
	for _, v := range cfg.Variants {
		out = append(out, domain.PreviewVariant{
			Type:         v.Type,
			Label:        v.Label,
			PromptPrefix: strings.TrimSpace(v.PromptPrefix),
			AspectRatio:  strings.TrimSpace(v.AspectRatio),
		})
	}
	return out
}

// AugmentPrompt composes prefix, medium constraints and the base prompt.
func (c *Catalog) AugmentPrompt(m domain.Medium, v domain.PreviewVariant, base string) string {
	head := strings.TrimSpace(v.PromptPrefix)
	if constraints := strings.TrimSpace(c.mediumOrDefault(m).PreviewConstraints); constraints != "" {
		if head != "" {
			head += ", "
		}
		head += constraints
	}
	return head + " :: " + strings.TrimSpace(base)
}

// Bundle is a rendered handoff ready to copy into a downstream tool.
type Bundle struct {
	Label       string
	Instruction string
	Text        string
}

// RenderHandoff fills the medium handoff instruction from the analysis
// summary and appends the YAML specification.
func (c *Catalog) RenderHandoff(m domain.Medium, result *domain.AnalysisResult) (Bundle, error) {
	if result == nil {
		return Bundle{}, domain.ErrNoResult
	}
	cfg := c.mediumOrDefault(m)
	tmpl, err := template.New(string(m)).Parse(cfg.Handoff.Instruction)
	if err != nil {
		return Bundle{}, fmt.Errorf("catalog: parse handoff: %w", err)
	}
	var buf bytes.Buffer
	err = tmpl.Execute(&buf, struct {
		StyleDescription string
		MoodKeywords     string
	}{
		StyleDescription: result.Summary.StyleDescription,
		MoodKeywords:     strings.Join(result.Summary.MoodKeywords, ", "),
	})
	if err != nil {
		return Bundle{}, fmt.Errorf("catalog: render handoff: %w", err)
	}
	instruction := buf.String()
	return Bundle{
		Label:       cfg.Handoff.Label,
		Instruction: instruction,
		Text:        instruction + "\n\n[Attached Design Specification]\n" + result.YAMLSpec,
	}, nil
}
