package cli

import (
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"

	"visualspec/internal/domain"
)

type printer struct {
	out     io.Writer
	heading *color.Color
	ok      *color.Color
	warn    *color.Color
	fail    *color.Color
	dim     *color.Color
}

func newPrinter(out io.Writer, noColor bool) *printer {
	p := &printer{
		out:     out,
		heading: color.New(color.FgCyan, color.Bold),
		ok:      color.New(color.FgGreen),
		warn:    color.New(color.FgYellow),
		fail:    color.New(color.FgRed),
		dim:     color.New(color.FgHiBlack),
	}
	if noColor {
		for _, c := range []*color.Color{p.heading, p.ok, p.warn, p.fail, p.dim} {
			c.DisableColor()
		}
	}
	return p
}

func (p *printer) section(title string) {
	p.heading.Fprintln(p.out, title)
}

func (p *printer) line(format string, args ...any) {
	fmt.Fprintf(p.out, format+"\n", args...)
}

func (p *printer) summary(result *domain.AnalysisResult) {
	p.section("Style")
	p.line("  %s", result.Summary.StyleDescription)
	if len(result.Summary.MoodKeywords) > 0 {
		p.line("  mood:   %s", strings.Join(result.Summary.MoodKeywords, ", "))
	}
	if len(result.Summary.PrimaryColors) > 0 {
		p.line("  colors: %s", strings.Join(result.Summary.PrimaryColors, " "))
	}
	if guide := result.StyleGuide; guide != nil {
		if guide.Typography.Heading != "" || guide.Typography.Body != "" {
			p.line("  type:   %s / %s", guide.Typography.Heading, guide.Typography.Body)
		}
		for _, c := range guide.Cautions {
			p.warn.Fprintf(p.out, "  ! %s\n", c)
		}
	}
	p.dim.Fprintf(p.out, "  medium: %s\n", result.SourceMedium)
}

func (p *printer) previewItem(index int, item domain.PreviewItem) {
	if item.Error != "" {
		p.fail.Fprintf(p.out, "  [%d] %s: %s\n", index+1, item.Label, item.Error)
		return
	}
	p.ok.Fprintf(p.out, "  [%d] %s ready\n", index+1, item.Label)
}

// maskKey keeps the last four characters of a key visible.
func maskKey(key string) string {
	if len(key) <= 4 {
		return strings.Repeat("*", len(key))
	}
	return strings.Repeat("*", len(key)-4) + key[len(key)-4:]
}
