package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/coffersTech/nanosearch/internal/pkg/fieldparser"
)

func newFieldCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "field <clause>",
		Short: "split a field:value clause into its parts",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			res, err := fieldparser.Parse(args[0])
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "field:    %s\n", res.Field)
			fmt.Fprintf(out, "value:    %s\n", res.Value)
			fmt.Fprintf(out, "quote:    %s\n", res.Quote)
			if res.IsRange {
				fmt.Fprintf(out, "start:    %s\n", res.Start)
				fmt.Fprintf(out, "end:      %s\n", res.End)
			}
			return nil
		},
	}
}
