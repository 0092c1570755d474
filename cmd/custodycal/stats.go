package main

import (
	"fmt"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"custodycal/internal/render"
	"custodycal/internal/schedule"
)

func statsCmd(a *app) *cobra.Command {
	var from, to string
	cmd := &cobra.Command{
		Use:   "stats",
		Short: "Print custody and interaction percentages for a date range",
		RunE: func(cmd *cobra.Command, args []string) error {
			plan, err := a.pipe.Build()
			if err != nil {
				return err
			}
			start, end := plan.Start, plan.End
			if from != "" {
				if start, err = time.Parse(schedule.DateKey, from); err != nil {
					return fmt.Errorf("--from: %w", err)
				}
			}
			if to != "" {
				if end, err = time.Parse(schedule.DateKey, to); err != nil {
					return fmt.Errorf("--to: %w", err)
				}
			}
			if end.Before(start) {
				return fmt.Errorf("--to %s is before --from %s", end.Format(schedule.DateKey), start.Format(schedule.DateKey))
			}

			st := plan.AggregateDates(start, end)
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "%s to %s: %s slots, %s interaction slots\n",
				start.Format(schedule.DateKey), end.Format(schedule.DateKey),
				render.FormatCount(st.TotalSlots), render.FormatCount(st.TotalInteraction))

			tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "CUSTODIAN\tSLOTS\tSHARE\tINTERACTION\tINTERACTION SHARE")
			for _, c := range a.pipe.RenderOptions().ForPlan(plan).Custodians {
				fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n", c.Name,
					render.FormatCount(st.Custody[c.Name]), render.FormatPercent(st.Percent(c.Name)),
					render.FormatCount(st.Interaction[c.Name]), render.FormatPercent(st.InteractionPercent(c.Name)))
			}
			return tw.Flush()
		},
	}
	cmd.Flags().StringVar(&from, "from", "", "first day, YYYY-MM-DD (default start of schedule)")
	cmd.Flags().StringVar(&to, "to", "", "last day, YYYY-MM-DD (default end of schedule)")
	return cmd
}
