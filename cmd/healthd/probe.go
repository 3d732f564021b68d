package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	health "github.com/fableford/uptime-health-go"
)

var errNotAlive = errors.New("service is not alive")

func (a *app) probeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "probe",
		Short: "Query a running healthd instance; exits non-zero on failure",
		RunE: func(cmd *cobra.Command, args []string) error {
			url, _ := cmd.Flags().GetString("url")
			endpoint, _ := cmd.Flags().GetString("endpoint")
			timeout, _ := cmd.Flags().GetDuration("timeout")

			c, err := health.NewClient(url, health.WithTimeout(timeout))
			if err != nil {
				return err
			}

			ctx := cmd.Context()
			var (
				result any
				failed error
			)

			switch endpoint {
			case "health":
				var r *health.Report
				if cmd.Flags().Changed("service") {
					name, _ := cmd.Flags().GetString("service")
					r, err = c.GetServiceHealth(ctx, name)
				} else {
					r, err = c.GetHealth(ctx)
				}
				if err == nil && !r.Healthy() {
					failed = errUnhealthy
				}
				result = r
			case "live":
				var r *health.LivenessResponse
				r, err = c.GetLiveness(ctx)
				if err == nil && !r.Alive {
					failed = errNotAlive
				}
				result = r
			case "ready":
				var r *health.ReadinessResponse
				r, err = c.GetReadiness(ctx)
				if err == nil && !r.Ready {
					failed = errNotReady
				}
				result = r
			default:
				return fmt.Errorf("unknown endpoint %q: want health, live or ready", endpoint)
			}
			if err != nil {
				a.logger.Error("probe failed", "url", url, "endpoint", endpoint, "error", err)
				return err
			}

			data, err := json.MarshalIndent(result, "", "  ")
			if err != nil {
				return fmt.Errorf("encoding response: %w", err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), string(data))

			return failed
		},
	}

	cmd.Flags().StringP("url", "u", "http://localhost:8080", "base URL of the healthd instance")
	cmd.Flags().StringP("endpoint", "e", "ready", "endpoint to probe (health, live, ready)")
	cmd.Flags().StringP("service", "s", "", "service name passed to the health endpoint")
	cmd.Flags().Duration("timeout", 5*time.Second, "request timeout")

	return cmd
}
