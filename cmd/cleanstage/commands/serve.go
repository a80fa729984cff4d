package commands

import (
	"context"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"cleanstage/internal/config"
	"cleanstage/internal/engine"
	"cleanstage/internal/pipeline"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Host the local artifact store over gRPC",
	Long: `Serve the store configured under store: (driver local) to remote
clients. Runs on other machines point store.driver at remote and
store.address at this server.`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

var serveKeys = map[string]string{
	"port":         "serve.port",
	"metrics_port": "serve.metrics_port",
}

func init() {
	rootCmd.AddCommand(serveCmd)

	flags := serveCmd.Flags()
	flags.Int("port", 7070, "gRPC listen port")
	flags.Int("metrics_port", 9100, "Prometheus /metrics port")
}

func runServe(cmd *cobra.Command, _ []string) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := load(cmd, withKeys(serveKeys, logKeys))
	if err != nil {
		return err
	}
	if err := config.ValidateServe(cfg); err != nil {
		return pipeline.ConfigError(err)
	}

	e, err := engine.Bootstrap(engine.Config{
		GRPCPort:    cfg.Serve.Port,
		MetricsPort: cfg.Serve.MetricsPort,
		Store:       cfg.Store,
	})
	if err != nil {
		return err
	}
	return e.Run(ctx)
}
