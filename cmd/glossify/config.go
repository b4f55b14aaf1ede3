package main

import (
	"fmt"
	"slices"

	"github.com/Nephrolytics-ai/glossify/pkg/settings"
	"github.com/spf13/cobra"
)

func newConfigCmd(opts *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Read and write stored settings",
	}

	var reveal bool
	cmd.PersistentFlags().BoolVar(&reveal, "reveal", false, "print secret values in full")

	cmd.AddCommand(
		&cobra.Command{
			Use:   "set <key> <value>",
			Short: "Store a setting in the settings file",
			Args:  cobra.ExactArgs(2),
			RunE: func(cmd *cobra.Command, args []string) error {
				if err := checkKey(args[0]); err != nil {
					return err
				}
				_, file, err := opts.openStore()
				if err != nil {
					return err
				}
				if err := file.Set(args[0], args[1]); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%s saved to %s\n", args[0], file.Path())
				return nil
			},
		},
		&cobra.Command{
			Use:   "get <key>",
			Short: "Print the effective value of a setting",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				if err := checkKey(args[0]); err != nil {
					return err
				}
				store, _, err := opts.openStore()
				if err != nil {
					return err
				}
				value, ok := store.Get(args[0])
				if !ok {
					return fmt.Errorf("%s is not set", args[0])
				}
				fmt.Fprintln(cmd.OutOrStdout(), display(args[0], value, reveal))
				return nil
			},
		},
		&cobra.Command{
			Use:   "list",
			Short: "Print every known setting",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				store, _, err := opts.openStore()
				if err != nil {
					return err
				}
				for _, key := range settings.KnownKeys {
					value, ok := store.Get(key)
					if !ok {
						fmt.Fprintf(cmd.OutOrStdout(), "%s=<unset>\n", key)
						continue
					}
					fmt.Fprintf(cmd.OutOrStdout(), "%s=%s\n", key, display(key, value, reveal))
				}
				return nil
			},
		},
	)
	return cmd
}

func checkKey(key string) error {
	if !slices.Contains(settings.KnownKeys, key) {
		return fmt.Errorf("unknown setting %q (known: %v)", key, settings.KnownKeys)
	}
	return nil
}

func display(key string, value string, reveal bool) string {
	if reveal || !settings.IsSecret(key) {
		return value
	}
	return settings.Mask(value)
}
