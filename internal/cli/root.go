// Package cli implements the visualspec command line workbench.
package cli

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"visualspec/internal/infra"
)

// Options wires the command tree to its environment. Zero values fall back
// to the process environment and standard streams.
type Options struct {
	Config     *infra.ClientConfig
	HTTPClient *http.Client
	Stdout     io.Writer
	Stderr     io.Writer
}

type globalFlags struct {
	server      string
	configDir   string
	locale      string
	catalogPath string
	noColor     bool
}

// NewRootCmd builds the visualspec command tree.
func NewRootCmd(opts Options) *cobra.Command {
	flags := &globalFlags{}
	root := &cobra.Command{
		Use:           "visualspec",
		Short:         "Turn reference images into a reusable visual style specification",
		Long:          "visualspec analyzes reference images with Gemini, produces a YAML design specification for a target medium and renders preview layouts from it.",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	if opts.Stdout != nil {
		root.SetOut(opts.Stdout)
	}
	if opts.Stderr != nil {
		root.SetErr(opts.Stderr)
	}

	pf := root.PersistentFlags()
	pf.StringVar(&flags.server, "server", "", "proxy server base URL (env VISUALSPEC_SERVER_URL)")
	pf.StringVar(&flags.configDir, "config-dir", "", "directory holding settings.yaml (env VISUALSPEC_CONFIG_DIR)")
	pf.StringVar(&flags.locale, "locale", "", "message locale, zh-TW or en (env VISUALSPEC_LOCALE)")
	pf.StringVar(&flags.catalogPath, "catalog", "", "override the built-in medium catalog with a YAML file (env VISUALSPEC_CATALOG)")
	pf.BoolVar(&flags.noColor, "no-color", false, "disable colored output")

	build := func(cmd *cobra.Command) (*runtime, error) {
		cfg := opts.Config
		if cfg == nil {
			loaded, err := infra.LoadClientConfig()
			if err != nil {
				return nil, err
			}
			cfg = loaded
		}
		merged := *cfg
		if v := strings.TrimSpace(flags.server); v != "" {
			merged.ServerURL = strings.TrimRight(v, "/")
		}
		if v := strings.TrimSpace(flags.configDir); v != "" {
			merged.ConfigDir = v
		}
		if v := strings.TrimSpace(flags.locale); v != "" {
			merged.Locale = v
		}
		return newRuntime(cmd.Context(), runtimeOptions{
			config:      &merged,
			httpClient:  opts.HTTPClient,
			catalogPath: flags.catalogPath,
			out:         cmd.OutOrStdout(),
			noColor:     flags.noColor,
		})
	}

	root.AddCommand(
		newKeyCmd(build),
		newMediaCmd(build),
		newAnalyzeCmd(build),
	)
	return root
}

// Execute runs the CLI against the process environment and returns the exit
// code.
func Execute(ctx context.Context) int {
	root := NewRootCmd(Options{})
	if err := root.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, newPrinter(os.Stderr, false).fail.Sprint("error: "+err.Error()))
		return 1
	}
	return 0
}

type buildFunc func(cmd *cobra.Command) (*runtime, error)
