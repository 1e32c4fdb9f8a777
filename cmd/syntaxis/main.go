package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/syntaxis/syntaxis/am"
	"github.com/syntaxis/syntaxis/cmd/syntaxis/commands"
	"github.com/syntaxis/syntaxis/logger"
)

var rootCmd = &cobra.Command{
	Use:   "syntaxis",
	Short: "syntaxis - Greek sentence generation from grammatical templates",
	Long: `syntaxis - Generate grammatically consistent Greek sentences.

Templates describe a sentence as words plus the grammatical features they
must carry. Groups of words share features, later groups may borrow the
features of an earlier one, and wildcards pick a value at random.

Available commands:
  generate  - Generate sentences from a template
  parse     - Parse a template and show its structure
  lexicon   - Seed and inspect the word store
  templates - Manage saved templates
  am        - Manage syntaxis configuration ("I am")
  serve     - Start the HTTP API
  repl      - Interactive template shell

Examples:
  syntaxis lexicon seed --builtin
  syntaxis generate "(article noun)@{nom:masc:sg} (verb)@{present:active:ter:sg}"
  syntaxis generate "(article noun)@{acc:gender:number} (adjective)@$1" --times 5
  syntaxis parse "[noun:nom:masc:sg]" --format yaml`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		verbosity, _ := cmd.Flags().GetCount("verbose")
		jsonLogs, _ := cmd.Flags().GetBool("json-logs")
		if !cmd.Flags().Changed("json-logs") {
			if cfg, err := am.Load(); err == nil {
				jsonLogs = cfg.Log.JSON
			}
		}
		if err := logger.Initialize(jsonLogs, verbosity); err != nil {
			return fmt.Errorf("failed to initialize logger: %w", err)
		}
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().CountP("verbose", "v", "Increase output verbosity (repeat for more detail: -v, -vv, -vvv)")
	rootCmd.PersistentFlags().Bool("json-logs", false, "Emit logs as JSON on stderr")
	rootCmd.PersistentFlags().String("db", "", "Database path (overrides config)")

	rootCmd.AddCommand(commands.GenerateCmd)
	rootCmd.AddCommand(commands.ParseCmd)
	rootCmd.AddCommand(commands.LexiconCmd)
	rootCmd.AddCommand(commands.TemplatesCmd)
	rootCmd.AddCommand(commands.AmCmd)
	rootCmd.AddCommand(commands.ServeCmd)
	rootCmd.AddCommand(commands.ReplCmd)
	rootCmd.AddCommand(commands.VersionCmd)
}

func main() {
	err := rootCmd.Execute()
	logger.Cleanup()
	if err != nil {
		fmt.Fprintln(os.Stderr, commands.FormatError(err))
		os.Exit(1)
	}
}
