package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate configuration",
	Long: `Load the configuration exactly as serve would and report problems
without starting the server.

Exit codes:
  0 - Config is valid
  1 - Config is invalid (error details printed to stderr)

Example:
  whoami validate -c whoami.yaml`,
	RunE: runValidate,
}

func init() {
	rootCmd.AddCommand(validateCmd)

	validateCmd.Flags().StringP("config", "c", "", "path to config file")
	validateCmd.Flags().String("listen", "", "listen address (overrides config)")
	validateCmd.Flags().String("metrics-listen", "", "Prometheus metrics listen address (overrides config)")
}

func runValidate(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Config is valid!\n")
	fmt.Fprintf(out, "  Listen:           %s\n", cfg.ListenAddr)
	if cfg.MetricsAddr != "" {
		fmt.Fprintf(out, "  Metrics:          %s\n", cfg.MetricsAddr)
	}
	fmt.Fprintf(out, "  Cache TTL:        %s\n", cfg.CacheTTL.Duration())
	fmt.Fprintf(out, "  Public IP source: %s\n", cfg.PublicIP.Source)
	if len(cfg.IsolationCommand) == 0 {
		fmt.Fprintf(out, "  Isolation check:  disabled\n")
	} else {
		fmt.Fprintf(out, "  Isolation check:  %s\n", strings.Join(cfg.IsolationCommand, " "))
	}
	fmt.Fprintf(out, "  Strict:           %t\n", cfg.Strict)
	return nil
}
