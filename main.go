// main.go
package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"
	"go-model-viewer/config"
	"go-model-viewer/logger"
	"go-model-viewer/viewer/tui"
	"go-model-viewer/websocket"
)

var version = "dev"

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "command error: %v\n", err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:           "go-model-viewer",
		Short:         "3D model viewer and model server",
		Long:          "go-model-viewer serves three.js JSON models over HTTP and WebSocket, and views them in the terminal.",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}

	cmd.AddCommand(newServeCmd())
	cmd.AddCommand(newViewCmd())
	cmd.AddCommand(newVersionCmd())
	return cmd
}

func newServeCmd() *cobra.Command {
	var listen, modelsDir string
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the model server",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(true)
			if err != nil {
				return err
			}
			if listen != "" {
				cfg.ListenAddr = listen
			}
			if modelsDir != "" {
				cfg.ModelsDir = modelsDir
			}

			if cfg.Env == "production" {
				gin.SetMode(gin.ReleaseMode)
			}

			var metrics websocket.MetricsPublisher = websocket.NoopMetrics{}
			if cfg.MetricsEnabled {
				cw, err := websocket.NewCloudWatchMetrics(cfg.AWSRegion, cfg.ServerAddr)
				if err != nil {
					return err
				}
				metrics = cw
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return NewServer(cfg, metrics).Run(ctx)
		},
	}
	cmd.Flags().StringVarP(&listen, "listen", "l", "", "address to listen on (overrides LISTEN_ADDR)")
	cmd.Flags().StringVarP(&modelsDir, "models", "m", "", "directory of model assets (overrides MODELS_DIR)")
	return cmd
}

func newViewCmd() *cobra.Command {
	var server, model string
	cmd := &cobra.Command{
		Use:   "view",
		Short: "Open the terminal viewer",
		RunE: func(cmd *cobra.Command, args []string) error {
			// the terminal belongs to the UI, so logs go to file only
			cfg, err := loadConfig(false)
			if err != nil {
				return err
			}
			if server != "" {
				cfg.ServerAddr = server
			}
			if model != "" {
				cfg.DefaultModel = model
			}
			return tui.Run(cfg)
		},
	}
	cmd.Flags().StringVarP(&server, "server", "s", "", "model server host:port (overrides VIEWER_SERVER)")
	cmd.Flags().StringVar(&model, "model", "", "model loaded at start (overrides DEFAULT_MODEL)")
	return cmd
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "go-model-viewer %s\n", version)
		},
	}
}

func loadConfig(logToStdout bool) (config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return cfg, err
	}
	if err := logger.InitLogger(logger.Options{Dir: cfg.LogDir, ToStdout: logToStdout}); err != nil {
		return cfg, fmt.Errorf("init logger: %w", err)
	}
	logger.SetLogLevel(cfg.Env)
	return cfg, nil
}

