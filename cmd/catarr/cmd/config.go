package cmd

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/jmylchreest/catarr/internal/config"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Configuration management commands",
	Long:  `Commands for managing catarr configuration.`,
}

var configDumpCmd = &cobra.Command{
	Use:   "dump",
	Short: "Dump the effective configuration",
	Long: `Dump the effective configuration values in YAML format.

Redirect this output to a file to create a configuration template:

  catarr config dump > config.yaml

Configuration can be set via:
  - Config file (.catarr.yaml in $HOME or the working directory, /etc/catarr)
  - Environment variables with the CATARR_ prefix and underscores for
    nesting (server.port -> CATARR_SERVER_PORT)
  - Command-line flags (for some options)`,
	RunE: runConfigDump,
}

func init() {
	rootCmd.AddCommand(configCmd)
	configCmd.AddCommand(configDumpCmd)
}

func runConfigDump(cmd *cobra.Command, args []string) error {
	v := viper.GetViper()
	if !v.IsSet("server.port") {
		config.SetDefaults(v)
	}

	settings := normalizeSettings(v.AllSettings())

	out, err := yaml.Marshal(settings)
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}

	fmt.Print(string(out))
	return nil
}

// normalizeSettings rewrites values that would otherwise serialize
// unreadably: durations become strings like "30s" instead of nanosecond
// integers.
func normalizeSettings(in map[string]any) map[string]any {
	out := make(map[string]any, len(in))
	for k, v := range in {
		switch val := v.(type) {
		case map[string]any:
			out[k] = normalizeSettings(val)
		case time.Duration:
			out[k] = val.String()
		default:
			out[k] = v
		}
	}
	return out
}
