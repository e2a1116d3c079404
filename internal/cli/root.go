// Package cli implements the assetscan command line.
package cli

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "assetscan",
	Short: "Discover recently used data files and catalog them",
	Long: `assetscan walks local volumes looking for data files (spreadsheets and CSV
exports by default) that were modified or accessed recently and carry no
sensitive markers. Every match is recorded in a relational catalog together
with the shape and leading rows of each spreadsheet sheet.

Each run appends one audit record with the host address and run duration.

Without a subcommand, assetscan runs a scan.`,
	SilenceUsage: true,
	RunE:         runScan,
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().String("config", ".", "Directory holding config.yaml and .env")
	rootCmd.PersistentFlags().BoolP("verbose", "v", false, "Enable verbose output")
	addScanFlags(rootCmd)
}

// getVerboseFlag safely retrieves the verbose flag value.
func getVerboseFlag(cmd *cobra.Command) bool {
	verbose, err := cmd.Flags().GetBool("verbose")
	if err != nil {
		fmt.Fprintf(os.Stderr, "Warning: Failed to get verbose flag: %v\n", err)
		return false
	}
	return verbose
}

func getConfigDir(cmd *cobra.Command) string {
	dir, err := cmd.Flags().GetString("config")
	if err != nil || dir == "" {
		return "."
	}
	return dir
}

// ExitCode maps an Execute error to the process exit code.
func ExitCode(err error) int {
	switch {
	case err == nil:
		return 0
	case errors.Is(err, ErrConfig):
		return 10
	default:
		return 2
	}
}
