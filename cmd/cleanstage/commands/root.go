// Package commands implements the cleanstage CLI.
package commands

import (
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"cleanstage/internal/config"
	"cleanstage/internal/logging"
	"cleanstage/internal/pipeline"
	"cleanstage/internal/spec"

	// store drivers
	_ "cleanstage/store/local"
	_ "cleanstage/store/remote"
)

var rootCmd = &cobra.Command{
	Use:   "cleanstage",
	Short: "Basic cleaning stage for versioned CSV artifacts",
	Long: `cleanstage fetches a raw listings artifact from a tracking store, drops
duplicate rows, rows outside a price range and rows outside the NYC
bounding box, parses last_review, and publishes the result as a new
artifact version.

Examples:
  # Clean the latest sample with prices between 10 and 350
  cleanstage run --input_artifact sample.csv:latest \
      --output_artifact clean_sample.csv --output_type clean_sample \
      --output_description "Data with outliers removed" \
      --min_price 10 --max_price 350

  # Share a store between machines
  cleanstage serve --config store.yml --port 7070`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRun: func(*cobra.Command, []string) {
		logging.InitFromEnv()
	},
}

func init() {
	flags := rootCmd.PersistentFlags()
	flags.String("config", "", "YAML config file")
	flags.String("log_level", "", "debug, info, warn or error (env CLEANSTAGE_LOG_LEVEL)")
	flags.Bool("log_json", false, "log as JSON (env CLEANSTAGE_LOG_JSON)")
}

// Execute runs the root command. Errors are logged before returning.
func Execute() error {
	err := rootCmd.Execute()
	if err != nil {
		logging.L().Error("cleanstage failed", "err", err)
	}
	return err
}

// load merges the config file, environment and every flag in keys that was
// set on the command line. keys maps flag names to config paths.
func load(cmd *cobra.Command, keys map[string]string) (spec.File, error) {
	overrides := map[string]any{}
	cmd.Flags().Visit(func(f *pflag.Flag) {
		if key, ok := keys[f.Name]; ok {
			overrides[key] = flagValue(cmd.Flags(), f)
		}
	})
	path, _ := cmd.Flags().GetString("config")
	cfg, err := config.Load(path, overrides)
	if err != nil {
		return cfg, pipeline.ConfigError(err)
	}
	configureLogging(cfg.Log)
	return cfg, nil
}

var logKeys = map[string]string{
	"log_level": "log.level",
	"log_json":  "log.json",
}

func flagValue(fs *pflag.FlagSet, f *pflag.Flag) any {
	switch f.Value.Type() {
	case "float64":
		v, _ := fs.GetFloat64(f.Name)
		return v
	case "int":
		v, _ := fs.GetInt(f.Name)
		return v
	case "bool":
		v, _ := fs.GetBool(f.Name)
		return v
	default:
		return f.Value.String()
	}
}

func configureLogging(l spec.Log) {
	opts := logging.FromEnv()
	if l.Level != "" {
		opts.Level = l.Level
	}
	opts.JSON = opts.JSON || l.JSON
	logging.Configure(opts)
}

func withKeys(sets ...map[string]string) map[string]string {
	out := map[string]string{}
	for _, s := range sets {
		for k, v := range s {
			out[k] = v
		}
	}
	return out
}
