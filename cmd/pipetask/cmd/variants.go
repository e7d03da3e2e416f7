package cmd

import (
	"encoding/json"
	"fmt"

	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"
)

type variantRow struct {
	TaskType    string `json:"task_type"`
	VariantName string `json:"variant_name"`
	Parallel    bool   `json:"parallel"`
	ParamSchema string `json:"param_schema,omitempty"`
}

func newVariantsCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "variants",
		Short: "List the built-in task variants",
		RunE: func(cmd *cobra.Command, args []string) error {
			registry, err := newRegistry()
			if err != nil {
				return err
			}
			rows := make([]variantRow, 0)
			for _, d := range registry.Descriptors() {
				rows = append(rows, variantRow{
					TaskType:    d.TypeName,
					VariantName: d.VariantName,
					Parallel:    d.Parallel,
					ParamSchema: d.ParamSchema,
				})
			}

			if opts.isJSONOutput() {
				output, err := json.MarshalIndent(rows, "", "  ")
				if err != nil {
					return fmt.Errorf("failed to marshal JSON: %w", err)
				}
				fmt.Fprintln(cmd.OutOrStdout(), string(output))
				return nil
			}

			table := tablewriter.NewWriter(cmd.OutOrStdout())
			table.Header("Type", "Variant", "Parallel", "Params Schema")
			for _, row := range rows {
				schema := "-"
				if row.ParamSchema != "" {
					schema = "yes"
				}
				table.Append(row.TaskType, row.VariantName, fmt.Sprintf("%t", row.Parallel), schema)
			}
			return table.Render()
		},
	}
}
