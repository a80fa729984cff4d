package commands

import (
	"context"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"cleanstage/internal/config"
	"cleanstage/internal/logging"
	"cleanstage/internal/pipeline"
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Clean one artifact and publish the result",
	Long: `Fetch --input_artifact, apply the cleaning stages in order
(dedupe, price_range, geo_box, last_review) and publish the result as
--output_artifact.

Every flag may also be set in the config file under job: or through
CLEANSTAGE__JOB__<FLAG> environment variables. Flags win.`,
	Args: cobra.NoArgs,
	RunE: runClean,
}

var jobKeys = map[string]string{
	"input_artifact":     "job.input_artifact",
	"output_artifact":    "job.output_artifact",
	"output_type":        "job.output_type",
	"output_description": "job.output_description",
	"min_price":          "job.min_price",
	"max_price":          "job.max_price",
	"output_file":        "job.output_file",
	"workdir":            "job.workdir",
}

func init() {
	rootCmd.AddCommand(runCmd)

	flags := runCmd.Flags()
	flags.String("input_artifact", "", "source artifact reference, e.g. sample.csv:latest (required)")
	flags.String("output_artifact", "", "name of the produced artifact (required)")
	flags.String("output_type", "", "type tag of the produced artifact (required)")
	flags.String("output_description", "", "description of the produced artifact (required)")
	flags.Float64("min_price", 0, "lowest price kept, inclusive (required)")
	flags.Float64("max_price", 0, "highest price kept, inclusive (required)")
	flags.String("output_file", config.DefaultOutputFile, "file name written before publishing")
	flags.String("workdir", "", "directory for the output file (default: a temporary directory)")
}

func runClean(cmd *cobra.Command, _ []string) error {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	cfg, err := load(cmd, withKeys(jobKeys, logKeys))
	if err != nil {
		return err
	}
	if err := config.ValidateJob(cfg); err != nil {
		return pipeline.ConfigError(err)
	}

	runner, err := pipeline.Compile(cfg)
	if err != nil {
		return err
	}
	defer func() {
		if err := runner.Close(); err != nil {
			logging.L().Warn("close", "err", err)
		}
	}()

	res, err := runner.Run(ctx)
	if err != nil {
		return err
	}
	logging.L().Info("run complete", "run_id", res.RunID,
		"input", res.Input.Ref(), "output", res.Output.Ref(), "rows", res.Rows)
	return nil
}
