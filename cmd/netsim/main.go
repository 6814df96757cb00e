// Command netsim runs the discrete-event packet-network simulator
// against a topology file.
package main

import (
	"fmt"
	"os"

	"github.com/apex/log"
	"github.com/spf13/cobra"
)

func main() {
	if err := rootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "netsim:", err)
		os.Exit(1)
	}
}

// logLevelFlag is the --log-level value shared by every subcommand.
var logLevelFlag string

func rootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:           "netsim",
		Short:         "Discrete-event simulator of a packet-switched network",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	cmd.PersistentFlags().StringVarP(&logLevelFlag, "log-level", "l", "info",
		"log level: debug, info, warn, error")
	cmd.AddCommand(runCmd())
	cmd.AddCommand(validateCmd())
	return cmd
}

// applyLogLevel configures the package-level apex/log logger every
// component in this command logs through, from the --log-level flag.
func applyLogLevel() {
	level, err := log.ParseLevel(logLevelFlag)
	if err != nil {
		level = log.InfoLevel
	}
	log.SetLevel(level)
}
