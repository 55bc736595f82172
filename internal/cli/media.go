package cli

import (
	"github.com/spf13/cobra"

	"visualspec/internal/domain"
)

func newMediaCmd(build buildFunc) *cobra.Command {
	return &cobra.Command{
		Use:   "media",
		Short: "List target media with their preview layouts and upload guidance",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			rt, err := build(cmd)
			if err != nil {
				return err
			}
			for _, m := range domain.Media() {
				cfg, ok := rt.catalog.Medium(m)
				if !ok {
					continue
				}
				rt.print.section(m.String())
				if cfg.Description != "" {
					rt.print.line("  %s", cfg.Description)
				}
				for _, v := range rt.catalog.Variants(m) {
					rt.print.dim.Fprintf(rt.print.out, "  - %-10s %s (%s)\n", v.Type, v.Label, v.AspectRatio)
				}
				bp := cfg.BestPractice
				if bp.Title != "" {
					rt.print.line("  %s", bp.Title)
				}
				if bp.GoldenRatio != "" {
					rt.print.line("    %s", bp.GoldenRatio)
				}
				for _, step := range bp.Recipe {
					rt.print.line("    * %s", step)
				}
				if bp.Donts != "" {
					rt.print.warn.Fprintf(rt.print.out, "    %s\n", bp.Donts)
				}
			}
			return nil
		},
	}
}
