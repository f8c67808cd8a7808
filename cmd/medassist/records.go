package main

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/medportal/medassist/internal/config"
	"github.com/medportal/medassist/internal/docstore"
)

func newRecordsCmd(cfgPath *string) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "records",
		Short:   "Read the local document store",
		Aliases: []string{"record"},
	}

	cmd.AddCommand(collectionsCmd(cfgPath))
	cmd.AddCommand(getRecordCmd(cfgPath))
	cmd.AddCommand(queryRecordsCmd(cfgPath))
	cmd.AddCommand(importRecordsCmd(cfgPath))

	return cmd
}

func withStore(cmd *cobra.Command, cfgPath *string, fn func(*docstore.Store) error) error {
	return withConfig(cfgPath, func(cfg config.Config) error {
		store, err := docstore.Open(cmd.Context(), cfg.DatabasePath)
		if err != nil {
			return err
		}
		defer store.Close()
		return fn(store)
	})
}

func collectionsCmd(cfgPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "collections",
		Short: "List collections",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withStore(cmd, cfgPath, func(store *docstore.Store) error {
				names, err := store.Collections(cmd.Context())
				if err != nil {
					return err
				}
				for _, name := range names {
					fmt.Fprintln(cmd.OutOrStdout(), name)
				}
				return nil
			})
		},
	}
}

func getRecordCmd(cfgPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "get <collection> <id>",
		Short: "Print one record",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withStore(cmd, cfgPath, func(store *docstore.Store) error {
				doc, err := store.Get(cmd.Context(), args[0], args[1])
				if err != nil {
					return err
				}
				return writeJSON(cmd.OutOrStdout(), doc)
			})
		},
	}
}

func queryRecordsCmd(cfgPath *string) *cobra.Command {
	var field, value string
	var limit int

	cmd := &cobra.Command{
		Use:   "query <collection>",
		Short: "List records, optionally where a field equals a value",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withStore(cmd, cfgPath, func(store *docstore.Store) error {
				docs, err := store.Query(cmd.Context(), args[0], docstore.Filter{Field: field, Value: value}, limit)
				if err != nil {
					return err
				}
				return writeJSON(cmd.OutOrStdout(), docs)
			})
		},
	}

	cmd.Flags().StringVar(&field, "field", "", "field to match, dotted for nested fields")
	cmd.Flags().StringVar(&value, "value", "", "value the field must equal")
	cmd.Flags().IntVar(&limit, "limit", docstore.DefaultLimit, "maximum records to return")

	return cmd
}

func importRecordsCmd(cfgPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "import <collection> <file|->",
		Short: "Load JSON fixtures into a collection",
		Long: `Load JSON fixtures into a collection for local development.

The file holds either an array of objects with an "id" field or an object
keyed by id. Existing records with the same id are replaced.`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			var r io.Reader = cmd.InOrStdin()
			if args[1] != "-" {
				f, err := os.Open(args[1])
				if err != nil {
					return err
				}
				defer f.Close()
				r = f
			}

			return withStore(cmd, cfgPath, func(store *docstore.Store) error {
				n, err := store.Import(cmd.Context(), args[0], r)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "imported %d records into %s\n", n, args[0])
				return nil
			})
		},
	}
}
