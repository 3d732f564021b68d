package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	health "github.com/fableford/uptime-health-go"
)

var (
	errUnhealthy = errors.New("service is unhealthy")
	errNotReady  = errors.New("service is not ready")
)

var (
	red   = color.New(color.FgHiRed, color.Bold).SprintFunc()
	green = color.New(color.FgHiGreen).SprintFunc()
)

func (a *app) checkCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "check",
		Short: "Evaluate health and readiness in-process and print the report",
		Long: `Evaluate health and readiness in-process and print the report.

Without --service the configured default name is evaluated. With --service the
given name is used as-is; a blank value reports the service as unhealthy.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			e := a.newEvaluator()

			var report health.Report
			if cmd.Flags().Changed("service") {
				name, _ := cmd.Flags().GetString("service")
				report = e.HealthStatusFor(name)
			} else {
				report = e.HealthStatus()
			}

			return writeCheck(cmd.OutOrStdout(), report, e.IsReady())
		},
	}

	cmd.Flags().StringP("service", "s", "", "service name to evaluate")

	return cmd
}

func writeCheck(w io.Writer, report health.Report, ready bool) error {
	data, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding report: %w", err)
	}

	fmt.Fprintf(w, "Health Status: %s\n", data)
	fmt.Fprintf(w, "Service Ready: %s\n", colorBool(ready))

	switch {
	case !report.Healthy():
		return errUnhealthy
	case !ready:
		return errNotReady
	}
	return nil
}

func colorBool(v bool) string {
	if v {
		return green("true")
	}
	return red("false")
}
