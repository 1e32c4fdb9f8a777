package commands

import (
	"fmt"
	"io"
	"os"
	"strconv"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"

	"github.com/syntaxis/syntaxis/errors"
	"github.com/syntaxis/syntaxis/lexicon"
	"github.com/syntaxis/syntaxis/logger"
)

// LexiconCmd manages the word store
var LexiconCmd = &cobra.Command{
	Use:     "lexicon",
	Aliases: []string{"lex"},
	Short:   "Seed and inspect the word store",
	Long: `Seed and inspect the lexicon the generator draws words from.

Seed files are YAML documents listing lexemes with their inflected forms:

  name: animals
  lexemes:
    - lemma: γάτα
      pos: noun
      translations: [cat]
      forms:
        - {form: γάτα, features: [nom, fem, sg]}

Examples:
  syntaxis lexicon seed --builtin     # Import the built-in articles and starter words
  syntaxis lexicon seed animals.yaml  # Import a seed file
  syntaxis lexicon stats              # Count words per part of speech`,
}

var lexiconSeedCmd = &cobra.Command{
	Use:   "seed [file]",
	Short: "Import a seed file or the built-in seeds",
	Long:  "Import lexemes from a YAML seed file. Without a file (or with --builtin) the embedded seeds are imported. Importing is idempotent.",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runLexiconSeed,
}

var lexiconStatsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show word counts per part of speech",
	RunE:  runLexiconStats,
}

var seedBuiltin bool

func init() {
	lexiconSeedCmd.Flags().BoolVar(&seedBuiltin, "builtin", false, "Import the built-in seeds")

	LexiconCmd.AddCommand(lexiconSeedCmd)
	LexiconCmd.AddCommand(lexiconStatsCmd)
}

func runLexiconSeed(cmd *cobra.Command, args []string) error {
	if seedBuiltin && len(args) > 0 {
		return errors.NewInvalidRequestError("pass either a seed file or --builtin, not both")
	}

	conn, err := openDatabase(cmd)
	if err != nil {
		return err
	}
	defer conn.Close()
	store := lexicon.NewStore(conn, logger.Logger)

	var res lexicon.ImportResult
	if len(args) == 0 {
		res, err = store.ImportBuiltin(cmd.Context())
	} else {
		res, err = importSeedFile(cmd, store, args[0])
	}
	if err != nil {
		return err
	}

	pterm.Success.Printf("Imported %d lexemes, %d forms, %d translations\n",
		res.Lexemes, res.Forms, res.Translations)
	return nil
}

func importSeedFile(cmd *cobra.Command, store *lexicon.Store, path string) (lexicon.ImportResult, error) {
	f, err := os.Open(path)
	if err != nil {
		return lexicon.ImportResult{}, errors.Wrapf(err, "failed to open seed file %s", path)
	}
	defer f.Close()

	seed, err := lexicon.LoadSeed(f)
	if err != nil {
		return lexicon.ImportResult{}, errors.Wrapf(err, "seed file %s", path)
	}
	return store.Import(cmd.Context(), seed)
}

func runLexiconStats(cmd *cobra.Command, args []string) error {
	conn, err := openDatabase(cmd)
	if err != nil {
		return err
	}
	defer conn.Close()

	stats, err := lexicon.NewStore(conn, logger.Logger).Stats(cmd.Context())
	if err != nil {
		return err
	}
	return renderStats(cmd.OutOrStdout(), stats)
}

func renderStats(w io.Writer, stats []lexicon.PartOfSpeechStats) error {
	if len(stats) == 0 {
		pterm.Info.Println("Lexicon is empty. Run 'syntaxis lexicon seed --builtin' to import the built-in words.")
		return nil
	}

	data := pterm.TableData{{"Part of speech", "Lexemes", "Forms"}}
	var lexemes, forms int
	for _, s := range stats {
		data = append(data, []string{s.PartOfSpeech, strconv.Itoa(s.Lexemes), strconv.Itoa(s.Forms)})
		lexemes += s.Lexemes
		forms += s.Forms
	}
	data = append(data, []string{"total", strconv.Itoa(lexemes), strconv.Itoa(forms)})

	table, err := pterm.DefaultTable.WithHasHeader().WithData(data).Srender()
	if err != nil {
		return errors.Wrap(err, "failed to render stats table")
	}
	fmt.Fprintln(w, table)
	return nil
}
