package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	appLog "custodycal/internal/log"
	"custodycal/internal/schedule"
)

func exportCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Write a single output",
	}
	cmd.AddCommand(exportICSCmd(a), exportAuditCmd(a), exportPNGCmd(a))
	return cmd
}

// outputFlag resolves -o against the output directory, falling back to
// the configured name.
func outputFlag(a *app, flag, configured, fallback string) string {
	name := flag
	if name == "" {
		name = configured
	}
	if name == "" {
		name = fallback
	}
	return a.cfg.OutputPath(name)
}

func exportICSCmd(a *app) *cobra.Command {
	var out string
	cmd := &cobra.Command{
		Use:   "ics",
		Short: "Write the iCalendar export of merged custody events",
		RunE: func(cmd *cobra.Command, args []string) error {
			plan, err := a.pipe.Build()
			if err != nil {
				return err
			}
			path := outputFlag(a, out, a.cfg.Outputs.ICS, "custody_schedule.ics")
			if err := a.pipe.WriteICS(plan, path); err != nil {
				if errors.Is(err, schedule.ErrNoEventsGenerated) {
					appLog.Warn("no events generated; nothing written", "file", path)
					return nil
				}
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "wrote %s\n", path)
			return nil
		},
	}
	cmd.Flags().StringVarP(&out, "output", "o", "", "output file (default from config)")
	return cmd
}

func exportAuditCmd(a *app) *cobra.Command {
	var out string
	cmd := &cobra.Command{
		Use:   "audit",
		Short: "Write the custody percentage audit CSV",
		RunE: func(cmd *cobra.Command, args []string) error {
			plan, err := a.pipe.Build()
			if err != nil {
				return err
			}
			path := outputFlag(a, out, a.cfg.Outputs.Audit, "custody_calculation_audit.csv")
			if err := a.pipe.WriteAudit(plan, path); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "wrote %s\n", path)
			return nil
		},
	}
	cmd.Flags().StringVarP(&out, "output", "o", "", "output file (default from config)")
	return cmd
}

func exportPNGCmd(a *app) *cobra.Command {
	var out, pageURL string
	cmd := &cobra.Command{
		Use:   "png",
		Short: "Capture the calendar page as a PNG with headless Chromium",
		Long: "Captures --url if given (e.g. a running serve instance); otherwise\n" +
			"writes the stylesheet and calendar page to the output directory and\n" +
			"captures that file.",
		RunE: func(cmd *cobra.Command, args []string) error {
			path := outputFlag(a, out, a.cfg.Outputs.PNG, "custody_calendar.png")
			if pageURL == "" {
				plan, err := a.pipe.Build()
				if err != nil {
					return err
				}
				if err := a.pipe.WriteCSS(plan, a.cfg.OutputPath(a.cfg.Outputs.CSS)); err != nil {
					return err
				}
				if err := a.pipe.WriteHTML(plan, a.cfg.OutputPath(a.cfg.Outputs.HTML)); err != nil {
					return err
				}
				if pageURL, err = a.pipe.HTMLFileURL(); err != nil {
					return err
				}
			}
			if err := a.pipe.WritePNG(cmd.Context(), pageURL, path); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "wrote %s\n", path)
			return nil
		},
	}
	cmd.Flags().StringVarP(&out, "output", "o", "", "output file (default from config)")
	cmd.Flags().StringVar(&pageURL, "url", "", "page to capture instead of the generated file")
	return cmd
}
