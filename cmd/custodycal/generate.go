package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func generateCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "generate",
		Short: "Build the schedule and write every configured output",
		RunE: func(cmd *cobra.Command, args []string) error {
			plan, err := a.pipe.Build()
			if err != nil {
				return err
			}
			written, err := a.pipe.Generate(cmd.Context(), plan)
			for _, path := range written {
				fmt.Fprintf(cmd.OutOrStdout(), "wrote %s\n", path)
			}
			if err != nil {
				return err
			}
			if n := len(plan.Warnings); n > 0 {
				fmt.Fprintf(cmd.OutOrStdout(), "%d input warning(s); see log\n", n)
			}
			return nil
		},
	}
}
