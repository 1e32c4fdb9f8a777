package commands

import (
	"database/sql"
	"fmt"
	"io"
	"strconv"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"

	"github.com/syntaxis/syntaxis/errors"
	"github.com/syntaxis/syntaxis/library"
	"github.com/syntaxis/syntaxis/logger"
)

// TemplatesCmd manages the saved template library
var TemplatesCmd = &cobra.Command{
	Use:     "templates",
	Aliases: []string{"tpl"},
	Short:   "Manage saved templates",
	Long: `Save templates that parse, list them, and generate from them by id.

Examples:
  syntaxis templates add "(article noun)@{nom:gender:sg} (adjective)@$1" -d "agreeing noun phrase"
  syntaxis templates ls
  syntaxis templates gen 1 --times 3
  syntaxis templates rm 1`,
}

var templatesAddCmd = &cobra.Command{
	Use:   "add <template>",
	Short: "Validate and save a template",
	Args:  cobra.ExactArgs(1),
	RunE:  runTemplatesAdd,
}

var templatesListCmd = &cobra.Command{
	Use:     "ls",
	Aliases: []string{"list"},
	Short:   "List saved templates, newest first",
	Args:    cobra.NoArgs,
	RunE:    runTemplatesList,
}

var templatesShowCmd = &cobra.Command{
	Use:   "show <id>",
	Short: "Show a saved template",
	Args:  cobra.ExactArgs(1),
	RunE:  runTemplatesShow,
}

var templatesRemoveCmd = &cobra.Command{
	Use:     "rm <id>",
	Aliases: []string{"delete"},
	Short:   "Delete a saved template",
	Args:    cobra.ExactArgs(1),
	RunE:    runTemplatesRemove,
}

var templatesGenerateCmd = &cobra.Command{
	Use:   "gen <id>",
	Short: "Generate sentences from a saved template",
	Args:  cobra.ExactArgs(1),
	RunE:  runTemplatesGenerate,
}

var (
	templateDescription string
	templateGenTimes    int
	templateGenFormat   string
)

func init() {
	templatesAddCmd.Flags().StringVarP(&templateDescription, "description", "d", "", "What the template exercises")
	templatesGenerateCmd.Flags().IntVarP(&templateGenTimes, "times", "n", 1, "Number of sentences to generate")
	templatesGenerateCmd.Flags().StringVar(&templateGenFormat, "format", "text", "Output format: text, json")

	TemplatesCmd.AddCommand(templatesAddCmd)
	TemplatesCmd.AddCommand(templatesListCmd)
	TemplatesCmd.AddCommand(templatesShowCmd)
	TemplatesCmd.AddCommand(templatesRemoveCmd)
	TemplatesCmd.AddCommand(templatesGenerateCmd)
}

func withLibrary(cmd *cobra.Command, fn func(*sql.DB, *library.Library) error) error {
	conn, err := openDatabase(cmd)
	if err != nil {
		return err
	}
	defer conn.Close()
	return fn(conn, library.New(conn, logger.Logger))
}

func parseTemplateID(arg string) (int64, error) {
	id, err := strconv.ParseInt(arg, 10, 64)
	if err != nil || id < 1 {
		return 0, errors.NewInvalidRequestError("invalid template id %q", arg)
	}
	return id, nil
}

func runTemplatesAdd(cmd *cobra.Command, args []string) error {
	return withLibrary(cmd, func(_ *sql.DB, lib *library.Library) error {
		entry, err := lib.Save(cmd.Context(), args[0], templateDescription)
		if err != nil {
			return err
		}
		pterm.Success.Printf("Saved template %d (%s)\n", entry.ID, entry.Notation)
		return nil
	})
}

func runTemplatesList(cmd *cobra.Command, args []string) error {
	return withLibrary(cmd, func(_ *sql.DB, lib *library.Library) error {
		entries, err := lib.List(cmd.Context())
		if err != nil {
			return err
		}
		return renderEntries(cmd.OutOrStdout(), entries)
	})
}

func renderEntries(w io.Writer, entries []library.Entry) error {
	if len(entries) == 0 {
		pterm.Info.Println("No saved templates. Add one with 'syntaxis templates add'.")
		return nil
	}
	data := pterm.TableData{{"ID", "Notation", "Template", "Description"}}
	for _, e := range entries {
		data = append(data, []string{
			strconv.FormatInt(e.ID, 10),
			e.Notation.String(),
			e.Template,
			e.Description,
		})
	}
	table, err := pterm.DefaultTable.WithHasHeader().WithData(data).Srender()
	if err != nil {
		return errors.Wrap(err, "failed to render template table")
	}
	fmt.Fprintln(w, table)
	return nil
}

func runTemplatesShow(cmd *cobra.Command, args []string) error {
	id, err := parseTemplateID(args[0])
	if err != nil {
		return err
	}
	return withLibrary(cmd, func(_ *sql.DB, lib *library.Library) error {
		entry, err := lib.Get(cmd.Context(), id)
		if err != nil {
			return err
		}
		tmpl, err := entry.Parse()
		if err != nil {
			return err
		}

		w := cmd.OutOrStdout()
		fmt.Fprintf(w, "ID:          %d\n", entry.ID)
		fmt.Fprintf(w, "Template:    %s\n", entry.Template)
		fmt.Fprintf(w, "Canonical:   %s\n", tmpl.String())
		fmt.Fprintf(w, "Notation:    %s\n", entry.Notation)
		fmt.Fprintf(w, "Groups:      %d (%d words)\n", len(tmpl.Groups), tmpl.TokenCount())
		if entry.Description != "" {
			fmt.Fprintf(w, "Description: %s\n", entry.Description)
		}
		fmt.Fprintf(w, "Created:     %s\n", entry.CreatedAt.Format("2006-01-02 15:04:05"))
		return nil
	})
}

func runTemplatesRemove(cmd *cobra.Command, args []string) error {
	id, err := parseTemplateID(args[0])
	if err != nil {
		return err
	}
	return withLibrary(cmd, func(_ *sql.DB, lib *library.Library) error {
		if err := lib.Delete(cmd.Context(), id); err != nil {
			return err
		}
		pterm.Success.Printf("Deleted template %d\n", id)
		return nil
	})
}

func runTemplatesGenerate(cmd *cobra.Command, args []string) error {
	id, err := parseTemplateID(args[0])
	if err != nil {
		return err
	}
	return withLibrary(cmd, func(conn *sql.DB, lib *library.Library) error {
		entry, err := lib.Get(cmd.Context(), id)
		if err != nil {
			return err
		}
		tmpl, err := entry.Parse()
		if err != nil {
			return err
		}

		store, err := openStore(cmd.Context(), conn)
		if err != nil {
			return err
		}
		gen, err := newGenerator(store, 0)
		if err != nil {
			return err
		}
		results, err := generateN(cmd.Context(), gen, tmpl, templateGenTimes)
		if err != nil {
			return err
		}
		return writeResults(cmd.OutOrStdout(), cmd.ErrOrStderr(), results, templateGenFormat)
	})
}
