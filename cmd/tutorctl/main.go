// tutorctl runs the tutor's reply engine and curriculum locally, without a
// server.
package main

import (
	"os"

	"github.com/spf13/cobra"
)

const version = "0.1.0"

var outputFormat string

func main() {
	if err := newRootCommand().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCommand() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "tutorctl",
		Short: "Tutorcito CLI - practice with the web development tutor offline",
		Long: `tutorctl talks to the same keyword tutor and curriculum the server uses.
Progress lives only for the duration of the command.`,
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: false,
	}

	rootCmd.PersistentFlags().StringVarP(&outputFormat, "output", "o", "text", "Output format: text, json")

	rootCmd.AddCommand(newChatCommand())
	rootCmd.AddCommand(newAskCommand())
	rootCmd.AddCommand(newDetailCommand())
	rootCmd.AddCommand(newDashboardCommand())
	return rootCmd
}
