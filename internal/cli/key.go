package cli

import (
	"errors"
	"strings"

	"github.com/spf13/cobra"

	"visualspec/internal/domain"
)

func newKeyCmd(build buildFunc) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "key",
		Short: "Manage the personal Gemini API key",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "set <api-key>",
		Short: "Store a personal key; it takes precedence over the proxy",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			rt, err := build(cmd)
			if err != nil {
				return err
			}
			if strings.TrimSpace(args[0]) == "" {
				return errors.New("key must not be blank")
			}
			rt.session.SetUserKey(args[0])
			if stored, _ := rt.keys.Load(); stored == "" {
				return errors.New("key could not be saved to " + rt.keys.Path())
			}
			rt.print.ok.Fprintf(rt.print.out, "saved key %s\n", maskKey(strings.TrimSpace(args[0])))
			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "clear",
		Short: "Remove the stored personal key",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			rt, err := build(cmd)
			if err != nil {
				return err
			}
			cred := rt.session.ClearUserKey()
			rt.print.line("key cleared, credential: %s", cred.Kind())
			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "status",
		Short: "Show which credential the next analysis will use",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			rt, err := build(cmd)
			if err != nil {
				return err
			}
			cred := rt.session.Credential(cmd.Context())
			switch cred.Kind() {
			case domain.CredentialHostManaged:
				rt.print.ok.Fprintf(rt.print.out, "%s via %s\n", cred.Kind(), rt.cfg.ServerURL)
			case domain.CredentialUserProvided:
				key, _ := cred.Key()
				rt.print.ok.Fprintf(rt.print.out, "%s %s\n", cred.Kind(), maskKey(key))
			default:
				rt.print.warn.Fprintf(rt.print.out, "%s: run `visualspec key set <api-key>`\n", cred.Kind())
			}
			return nil
		},
	})
	return cmd
}
