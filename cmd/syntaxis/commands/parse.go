package commands

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/syntaxis/syntaxis/errors"
	"github.com/syntaxis/syntaxis/grammar"
	"github.com/syntaxis/syntaxis/resolve"
	"github.com/syntaxis/syntaxis/template"
)

// ParseCmd parses a template and prints its structure
var ParseCmd = &cobra.Command{
	Use:   "parse <template>",
	Short: "Parse a template and show its structure",
	Long: `Parse a template, report errors with their position, and print the
parsed groups. The canonical field is the template rewritten in compact
notation.

With --resolve the features every word ends up with are printed as well.
Wildcards are rolled once for display.

Examples:
  syntaxis parse "(article noun{fem})@{nom:masc:sg}"
  syntaxis parse "[noun:nom:masc:sg] [adj:nom:masc:sg]" --format yaml
  syntaxis parse "(article noun)@{acc:gender:sg} (adjective)@$1" --resolve`,
	Args: cobra.ExactArgs(1),
	RunE: runParse,
}

var (
	parseFormat  string
	parseResolve bool
)

func init() {
	ParseCmd.Flags().StringVar(&parseFormat, "format", "json", "Output format: json, yaml")
	ParseCmd.Flags().BoolVar(&parseResolve, "resolve", false, "Also print resolved per-word features")
}

// parseOutput mirrors the /api/parse response.
type parseOutput struct {
	Canonical string                  `json:"canonical"`
	Notation  string                  `json:"notation"`
	Template  *template.Template      `json:"ast"`
	Tokens    []resolve.ResolvedToken `json:"tokens,omitempty"`
	Warnings  []resolve.Warning       `json:"warnings,omitempty"`
}

func runParse(cmd *cobra.Command, args []string) error {
	out, err := parseTemplate(args[0], parseResolve)
	if err != nil {
		return err
	}
	return writeParseOutput(cmd.OutOrStdout(), out, parseFormat)
}

func parseTemplate(text string, withResolve bool) (*parseOutput, error) {
	tmpl, err := template.Parse(text)
	if err != nil {
		return nil, err
	}
	out := &parseOutput{
		Canonical: tmpl.String(),
		Notation:  tmpl.Notation.String(),
		Template:  tmpl,
	}
	if withResolve {
		res, err := resolve.Resolve(tmpl, resolve.NewWildcardCache(nil))
		if err != nil {
			return nil, err
		}
		out.Tokens = res.Tokens
		out.Warnings = res.Warnings
	}
	return out, nil
}

// writeParseOutput prints out as JSON, or as YAML with the same field
// names by round-tripping through a generic value.
func writeParseOutput(w io.Writer, out *parseOutput, format string) error {
	data, err := json.MarshalIndent(out, "", "  ")
	if err != nil {
		return errors.Wrap(err, "failed to marshal parse result to JSON")
	}

	switch format {
	case "json":
		fmt.Fprintln(w, string(data))
	case "yaml":
		var generic any
		if err := json.Unmarshal(data, &generic); err != nil {
			return errors.Wrap(err, "failed to convert parse result")
		}
		y, err := yaml.Marshal(generic)
		if err != nil {
			return errors.Wrap(err, "failed to marshal parse result to YAML")
		}
		fmt.Fprint(w, string(y))
	default:
		return errors.NewInvalidRequestError("unsupported format: %s (supported: json, yaml)", format)
	}
	return nil
}

// formatValues renders resolved features in catalog order, e.g. {nom:masc:sg}.
func formatValues(values map[grammar.Category]string) string {
	parts := make([]string, 0, len(values))
	for _, cat := range grammar.Categories {
		if v, ok := values[cat]; ok {
			parts = append(parts, v)
		}
	}
	return "{" + strings.Join(parts, ":") + "}"
}
