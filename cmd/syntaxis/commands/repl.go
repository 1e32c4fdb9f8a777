package commands

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/kballard/go-shellquote"
	"github.com/pterm/pterm"
	"github.com/spf13/cobra"

	"github.com/syntaxis/syntaxis/errors"
	"github.com/syntaxis/syntaxis/generate"
	"github.com/syntaxis/syntaxis/library"
	"github.com/syntaxis/syntaxis/logger"
	"github.com/syntaxis/syntaxis/template"
)

// ReplCmd starts an interactive template shell
var ReplCmd = &cobra.Command{
	Use:   "repl",
	Short: "Interactive template shell",
	Long: `Type a template to generate a sentence from it. Lines starting with ':'
are commands; arguments may be quoted.

Commands:
  :parse <template>               Show the canonical form and resolved words
  :save "<template>" [description] Save a template to the library
  :ls                             List saved templates
  :gen <id> [times]               Generate from a saved template
  :help                           Show this help
  :quit                           Leave the shell`,
	Args: cobra.NoArgs,
	RunE: runRepl,
}

const replPrompt = "syntaxis> "

const replHelp = `Type a template to generate a sentence, e.g. (article noun)@{nom:gender:sg}
  :parse <template>                Show the canonical form and resolved words
  :save "<template>" [description] Save a template to the library
  :ls                              List saved templates
  :gen <id> [times]                Generate from a saved template
  :quit                            Leave the shell`

func runRepl(cmd *cobra.Command, args []string) error {
	conn, err := openDatabase(cmd)
	if err != nil {
		return err
	}
	defer conn.Close()

	store, err := openStore(cmd.Context(), conn)
	if err != nil {
		return err
	}
	gen, err := newGenerator(store, 0)
	if err != nil {
		return err
	}

	r := &repl{
		gen:    gen,
		lib:    library.New(conn, logger.Logger),
		out:    cmd.OutOrStdout(),
		errOut: cmd.ErrOrStderr(),
	}
	fmt.Fprintln(r.out, "syntaxis repl - :help for commands, :quit to leave")
	return r.run(cmd.Context(), cmd.InOrStdin())
}

// repl evaluates one line at a time. Errors are printed and the session
// continues; only reading input can end it with an error.
type repl struct {
	gen    *generate.Generator
	lib    *library.Library // nil disables :save, :ls and :gen
	out    io.Writer
	errOut io.Writer
}

func (r *repl) run(ctx context.Context, in io.Reader) error {
	scanner := bufio.NewScanner(in)
	for {
		fmt.Fprint(r.out, replPrompt)
		if !scanner.Scan() {
			fmt.Fprintln(r.out)
			return scanner.Err()
		}
		if quit := r.exec(ctx, scanner.Text()); quit {
			return nil
		}
	}
}

// exec evaluates line and reports whether the session should end.
func (r *repl) exec(ctx context.Context, line string) bool {
	line = strings.TrimSpace(line)
	if line == "" {
		return false
	}
	if !strings.HasPrefix(line, ":") {
		r.report(r.generate(ctx, line))
		return false
	}

	name, rest, _ := strings.Cut(line[1:], " ")
	rest = strings.TrimSpace(rest)
	switch name {
	case "q", "quit", "exit":
		return true
	case "h", "help":
		fmt.Fprintln(r.out, replHelp)
	case "parse":
		r.report(r.parse(rest))
	case "save":
		r.report(r.save(ctx, rest))
	case "ls", "list":
		r.report(r.list(ctx))
	case "gen":
		r.report(r.generateSaved(ctx, rest))
	default:
		r.report(errors.NewInvalidRequestError("unknown command :%s (try :help)", name))
	}
	return false
}

func (r *repl) report(err error) {
	if err != nil {
		fmt.Fprintln(r.errOut, FormatError(err))
	}
}

func (r *repl) generate(ctx context.Context, text string) error {
	tmpl, err := template.Parse(text)
	if err != nil {
		return err
	}
	return r.generateTemplate(ctx, tmpl, 1)
}

func (r *repl) generateTemplate(ctx context.Context, tmpl *template.Template, times int) error {
	results, err := generateN(ctx, r.gen, tmpl, times)
	if err != nil {
		return err
	}
	for _, res := range results {
		fmt.Fprintln(r.out, res.Sentence())
		if gloss := glossOf(res); gloss != "" {
			fmt.Fprintln(r.out, pterm.Gray("  "+gloss))
		}
		for _, w := range res.Warnings {
			fmt.Fprintln(r.errOut, pterm.Yellow("warning:"), w.String())
		}
	}
	return nil
}

// glossOf joins the first translation of every word; words without one
// keep their lemma.
func glossOf(res *generate.Result) string {
	parts := make([]string, 0, len(res.Words))
	translated := false
	for _, w := range res.Words {
		if len(w.Translations) > 0 {
			parts = append(parts, w.Translations[0])
			translated = true
			continue
		}
		parts = append(parts, w.Lemma)
	}
	if !translated {
		return ""
	}
	return strings.Join(parts, " ")
}

func (r *repl) parse(text string) error {
	out, err := parseTemplate(text, true)
	if err != nil {
		return err
	}
	fmt.Fprintf(r.out, "%s (%s)\n", out.Canonical, out.Notation)
	for _, tok := range out.Tokens {
		fmt.Fprintf(r.out, "  %d.%d %-12s %s\n", tok.Group, tok.Index+1, tok.PartOfSpeech, formatValues(tok.Features.Values()))
	}
	for _, w := range out.Warnings {
		fmt.Fprintln(r.errOut, pterm.Yellow("warning:"), w.String())
	}
	return nil
}

func (r *repl) save(ctx context.Context, rest string) error {
	if r.lib == nil {
		return errors.New("template library unavailable")
	}
	args, err := shellquote.Split(rest)
	if err != nil {
		return errors.NewInvalidRequestError("cannot split arguments: %v", err)
	}
	if len(args) == 0 || len(args) > 2 {
		return errors.NewInvalidRequestError(`usage: :save "<template>" [description]`)
	}
	description := ""
	if len(args) == 2 {
		description = args[1]
	}
	entry, err := r.lib.Save(ctx, args[0], description)
	if err != nil {
		return err
	}
	fmt.Fprintf(r.out, "saved as %d\n", entry.ID)
	return nil
}

func (r *repl) list(ctx context.Context) error {
	if r.lib == nil {
		return errors.New("template library unavailable")
	}
	entries, err := r.lib.List(ctx)
	if err != nil {
		return err
	}
	for _, e := range entries {
		fmt.Fprintf(r.out, "%4d  %s", e.ID, e.Template)
		if e.Description != "" {
			fmt.Fprintf(r.out, "  # %s", e.Description)
		}
		fmt.Fprintln(r.out)
	}
	return nil
}

func (r *repl) generateSaved(ctx context.Context, rest string) error {
	if r.lib == nil {
		return errors.New("template library unavailable")
	}
	args, err := shellquote.Split(rest)
	if err != nil {
		return errors.NewInvalidRequestError("cannot split arguments: %v", err)
	}
	if len(args) == 0 || len(args) > 2 {
		return errors.NewInvalidRequestError("usage: :gen <id> [times]")
	}
	id, err := parseTemplateID(args[0])
	if err != nil {
		return err
	}
	times := 1
	if len(args) == 2 {
		if times, err = strconv.Atoi(args[1]); err != nil {
			return errors.NewInvalidRequestError("invalid count %q", args[1])
		}
	}

	entry, err := r.lib.Get(ctx, id)
	if err != nil {
		return err
	}
	tmpl, err := entry.Parse()
	if err != nil {
		return err
	}
	return r.generateTemplate(ctx, tmpl, times)
}
