package commands

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"

	"github.com/syntaxis/syntaxis/am"
	"github.com/syntaxis/syntaxis/errors"
)

// AmCmd represents the am (configuration) command
var AmCmd = &cobra.Command{
	Use:   "am",
	Short: "Manage syntaxis configuration",
	Long: `am - Manage syntaxis configuration ("I am")

Configuration sources (in order of precedence):
1. Environment variables (SYNTAXIS_* prefix, e.g. SYNTAXIS_GENERATION_MAX_ATTEMPTS)
2. Project config (syntaxis.toml, searched upwards from the working directory)
3. User config (~/.syntaxis/am.toml)
4. System config (/etc/syntaxis/config.toml)
5. Default values

Examples:
  syntaxis am show                    # Show current configuration
  syntaxis am show --format json      # Show configuration in JSON format
  syntaxis am get generation.max_attempts
  syntaxis am validate                # Validate current configuration
  syntaxis am where                   # Show which source set each value`,
}

var amShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show current configuration",
	RunE:  runAmShow,
}

var amGetCmd = &cobra.Command{
	Use:   "get <key>",
	Short: "Get a specific configuration value",
	Long:  "Get a specific configuration value using dot notation (e.g., database.path, server.port)",
	Args:  cobra.ExactArgs(1),
	RunE:  runAmGet,
}

var amValidateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate current configuration",
	RunE:  runAmValidate,
}

var amWhereCmd = &cobra.Command{
	Use:   "where",
	Short: "Show where configuration is loaded from",
	Long: `Show the configuration cascade, which files exist, and the source of
every effective setting.`,
	RunE: runAmWhere,
}

var configFormat string

func init() {
	amShowCmd.Flags().StringVar(&configFormat, "format", "toml", "Output format: "+strings.Join(am.Formats, ", "))

	AmCmd.AddCommand(amShowCmd)
	AmCmd.AddCommand(amGetCmd)
	AmCmd.AddCommand(amValidateCmd)
	AmCmd.AddCommand(amWhereCmd)
}

func runAmShow(cmd *cobra.Command, args []string) error {
	cfg, err := am.Load()
	if err != nil {
		return errors.Wrap(err, "failed to load config")
	}
	data, err := am.Marshal(cfg, configFormat)
	if err != nil {
		return err
	}

	w := cmd.OutOrStdout()
	if configFormat != "json" {
		fmt.Fprintln(w, "# syntaxis configuration")
	}
	fmt.Fprint(w, string(data))
	if configFormat == "json" {
		fmt.Fprintln(w)
	}
	return nil
}

func runAmGet(cmd *cobra.Command, args []string) error {
	key := args[0]
	if !am.IsSet(key) {
		return errors.WithHint(
			errors.NewNotFoundError("configuration key %q not found", key),
			"run 'syntaxis am where' to list every key")
	}
	fmt.Fprintln(cmd.OutOrStdout(), am.Get(key))
	return nil
}

func runAmValidate(cmd *cobra.Command, args []string) error {
	cfg, err := am.Load()
	if err != nil {
		return errors.Wrap(err, "failed to load config")
	}
	if err := cfg.Validate(); err != nil {
		return errors.Wrap(err, "configuration validation failed")
	}
	fmt.Fprintln(cmd.OutOrStdout(), "✓ Configuration is valid")
	return nil
}

func runAmWhere(cmd *cobra.Command, args []string) error {
	settings, err := am.Introspect()
	if err != nil {
		return errors.Wrap(err, "failed to inspect config")
	}
	return renderWhere(cmd.OutOrStdout(), am.ConfigPaths(), settings)
}

func renderWhere(w io.Writer, paths []am.ConfigPath, settings []am.SettingInfo) error {
	fmt.Fprintln(w, "Configuration cascade (later overrides earlier):")
	fmt.Fprintln(w, "  [DEFAULT]  Built-in defaults")
	for _, p := range paths {
		status := pterm.Gray("missing")
		if _, err := os.Stat(p.Path); err == nil {
			status = pterm.Green("found")
		}
		fmt.Fprintf(w, "  [%-7s]  %s (%s)\n", strings.ToUpper(string(p.Source)), p.Path, status)
	}
	fmt.Fprintf(w, "  [ENV]      %s_* environment variables\n\n", am.EnvPrefix)

	data := pterm.TableData{{"Key", "Value", "Source"}}
	for _, s := range settings {
		source := string(s.Source)
		if s.SourcePath != "" {
			source += " (" + s.SourcePath + ")"
		}
		data = append(data, []string{s.Key, fmt.Sprint(s.Value), source})
	}
	table, err := pterm.DefaultTable.WithHasHeader().WithData(data).Srender()
	if err != nil {
		return errors.Wrap(err, "failed to render settings table")
	}
	fmt.Fprintln(w, table)
	return nil
}
