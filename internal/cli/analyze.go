package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"visualspec/internal/domain"
)

type analyzeFlags struct {
	medium  string
	out     string
	preview bool
	zip     bool
}

func newAnalyzeCmd(build buildFunc) *cobra.Command {
	flags := &analyzeFlags{}
	cmd := &cobra.Command{
		Use:   "analyze <image|url>...",
		Short: "Analyze reference images into a YAML style specification",
		Example: "  visualspec analyze moodboard.png https://example.com/ref.jpg --medium poster --preview\n" +
			"  visualspec analyze deck/*.png --out ./spec --zip",
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			medium, err := domain.ParseMedium(flags.medium)
			if err != nil {
				return err
			}
			rt, err := build(cmd)
			if err != nil {
				return err
			}
			ctx := cmd.Context()
			session := rt.session

			for _, arg := range args {
				var addErr error
				if isRemote(arg) {
					_, addErr = session.AddURL(arg)
				} else {
					_, addErr = session.AddFile(arg)
				}
				if addErr != nil {
					return fmt.Errorf("add %s: %w", arg, addErr)
				}
			}
			if err := session.SelectMedium(medium); err != nil {
				return err
			}

			rt.print.dim.Fprintf(rt.print.out, "analyzing %d asset(s) for %s...\n", len(args), medium)
			result, err := session.Analyze(ctx)
			if err != nil {
				return err
			}
			rt.print.summary(result)

			exp, err := newExporter(flags.out, rt.print)
			if err != nil {
				return err
			}
			if err := exp.writeResult(ctx, result); err != nil {
				return err
			}
			bundle, err := session.HandoffBundle()
			if err != nil {
				return err
			}
			if err := exp.writeText(ctx, handoffFile, bundle.Text); err != nil {
				return err
			}

			if flags.preview {
				rt.print.section("Previews")
				batch, err := session.GeneratePreviews(ctx, rt.print.previewItem)
				if err != nil {
					return err
				}
				if err := batch.Wait(ctx); err != nil {
					return err
				}
				if err := exp.writePreviews(ctx, session.PreviewItems()); err != nil {
					return err
				}
			}

			if flags.zip {
				if err := exp.writeArchive(ctx); err != nil {
					return err
				}
			}
			rt.print.ok.Fprintf(rt.print.out, "wrote %d file(s) to %s\n", exp.count(), exp.dir())
			return nil
		},
	}
	f := cmd.Flags()
	f.StringVarP(&flags.medium, "medium", "m", string(domain.MediumSlides), "target medium: Slides, SaaS or Poster")
	f.StringVarP(&flags.out, "out", "o", "visualspec-out", "output directory")
	f.BoolVar(&flags.preview, "preview", false, "render one preview per layout variant")
	f.BoolVar(&flags.zip, "zip", false, "also pack every output into "+archiveFile)
	return cmd
}

func isRemote(arg string) bool {
	lower := strings.ToLower(arg)
	return strings.HasPrefix(lower, "http://") || strings.HasPrefix(lower, "https://")
}
