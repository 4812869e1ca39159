// Package cmd provides the command-line interface for hwgc-soft.
package cmd

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/tebeka/atexit"
)

// rootCmd represents the base command when called without any subcommands.
var rootCmd = &cobra.Command{
	Use:   "hwgc-soft",
	Short: "hwgc-soft simulates distributed marking on a MAGC-DIMM near-memory-processing system.",
	Long: `hwgc-soft simulates distributed marking on a MAGC-DIMM ` +
		`near-memory-processing system: per-rank processors cooperatively ` +
		`trace a captured heap snapshot over a routed inter-DIMM network.`,
}

var dotenvPath string

func init() {
	rootCmd.PersistentFlags().StringVar(&dotenvPath, "dotenv", "",
		"load this .env file into the process environment before parsing CLI flags")
}

// Execute adds all child commands to the root command and runs it. Every
// exit path, success or failure, routes through atexit.Exit so hooks
// registered by components constructed along the way (e.g.
// gc.OpenStatsDB) always run.
func Execute() {
	if dotenvFlag := rootCmd.PersistentFlags().Lookup("dotenv"); dotenvFlag != nil {
		// Pre-scan os.Args so the .env file is loaded into the process
		// environment before cobra's own flag parsing. Only the separate
		// "--dotenv <path>" form is recognized here. Flags do not read
		// the environment; the one value taken from it is
		// HWGC_DRAMSIM3_CONFIG (see simulate.go).
		for i, arg := range os.Args {
			if arg == "--dotenv" && i+1 < len(os.Args) {
				dotenvPath = os.Args[i+1]
				break
			}
		}
	}
	if dotenvPath != "" {
		if err := godotenv.Load(dotenvPath); err != nil {
			fmt.Fprintf(os.Stderr, "hwgc-soft: loading --dotenv %s: %v\n", dotenvPath, err)
			atexit.Exit(1)
		}
	}

	if err := rootCmd.Execute(); err != nil {
		atexit.Exit(1)
	}
	atexit.Exit(0)
}
