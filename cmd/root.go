package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"kontocheck/internal/logger"
)

var version = "1.0.0"

var rootCmd = &cobra.Command{
	Use:   "kontocheck",
	Short: "Kontocheck - Analyse und Saldenprüfung deutscher Kontoauszüge",
	Long: `Kontocheck extracts structured data from German bank statements
(Kontoauszüge) using a local LLM and independently verifies the extraction:
amounts are re-parsed with exact decimal arithmetic, closing balances are
recomputed from the opening balance and all transactions, and consecutive
statements are checked for balance continuity.`,
	Version: version,
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Println("Kontocheck - use --help to see available commands.")
	},
}

func Execute() {
	log := logger.WithComponent("cmd")

	if err := rootCmd.Execute(); err != nil {
		log.Error().
			Err(err).
			Msg("Command execution failed")
		fmt.Fprintf(os.Stderr, "Error executing command: %v\n", err)
		os.Exit(1)
	}
}
