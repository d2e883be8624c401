package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/c360studio/repodeck/synth"
)

func schemaCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "schema",
		Short: "Print the JSON schema of the deck the model must return",
		RunE: func(cmd *cobra.Command, args []string) error {
			schema, err := synth.ResponseSchemaJSON()
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), string(schema))
			return nil
		},
	}
}
