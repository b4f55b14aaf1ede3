package main

import (
	"encoding/json"
	"fmt"

	"github.com/Nephrolytics-ai/glossify/pkg/model"
	"github.com/spf13/cobra"
)

func newSchemaCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "schema",
		Short: "Print the JSON schema of the extension message contract",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			schema, err := model.ContractSchema()
			if err != nil {
				return err
			}
			bits, err := json.MarshalIndent(schema, "", "  ")
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), string(bits))
			return nil
		},
	}
}
