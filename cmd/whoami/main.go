// Package main is the entry point for the whoami diagnostic server.
//
// Usage:
//
//	whoami serve                      # listen on 0.0.0.0:8080
//	whoami serve -c whoami.yaml       # with a config file
//	whoami validate -c whoami.yaml    # check a config file
//	whoami version
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// Set at build time via ldflags, e.g. -X main.version=1.0.0
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

var rootCmd = &cobra.Command{
	Use:   "whoami",
	Short: "Diagnostic HTTP endpoint that reports what a request and its host look like",
	Long: `whoami answers every request with a snapshot of the request headers, the
process environment, the caller's address, the host's public addresses, its
isolation posture and host metrics, as HTML or JSON.

The process environment is disclosed verbatim. Do not expose this server
to untrusted networks.

Content negotiation:
  /?j, /j or Accept: application/json   JSON
  curl user agent                       JSON unless the path or query has "h"
  anything else                         HTML`,
	SilenceUsage: true,
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func main() {
	Execute()
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "whoami %s\n", version)
		fmt.Fprintf(out, "  commit: %s\n", commit)
		fmt.Fprintf(out, "  built:  %s\n", date)
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
