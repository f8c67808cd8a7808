package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/medportal/medassist/internal/config"
	"github.com/medportal/medassist/internal/pipe"
	"github.com/medportal/medassist/internal/ui"
)

func newCredentialsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "credentials",
		Short:   "Manage stored provider API keys",
		Aliases: []string{"creds"},
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "Show which providers have a key",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			for _, p := range config.DetectProviders() {
				status := ui.MutedStyle.Render("missing")
				if p.HasKey {
					status = ui.SuccessStyle.Render("set")
				}
				fmt.Fprintf(out, "  %s %s %s\n", ui.LabelStyle.Render(p.ID), status, ui.MutedStyle.Render(p.EnvVar))
			}
			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "set <provider> [api-key]",
		Short: "Store an API key, read from stdin when omitted",
		Args:  cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			var key string
			if len(args) == 2 {
				key = args[1]
			} else {
				data, err := pipe.ReadAll(cmd.InOrStdin())
				if err != nil {
					return err
				}
				key = data
			}
			key = strings.TrimSpace(key)
			if key == "" {
				return fmt.Errorf("empty API key")
			}
			if err := config.StoreCredential(args[0], key); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s stored key for %s\n", ui.SuccessStyle.Render(ui.IconSuccess), args[0])
			return nil
		},
	})

	return cmd
}
