package cmd

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/axisframe/axis/internal/config"
	"github.com/axisframe/axis/internal/logging"
	"github.com/axisframe/axis/internal/server"
)

var serveCmd = &cobra.Command{
	Use:     "serve",
	Aliases: []string{"s", "dev"},
	Short:   "Start the development server with hot reload",
	Long: `Start the development server. Component sources are transpiled on
request, import specifiers rewritten to servable URLs, and file changes
broadcast live reloads to connected tabs.

Examples:
  axis serve                 # serve on the configured port
  axis serve --port 4000     # override the port
  axis serve --mode prod     # production output rules`,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().IntP("port", "p", 3000, "Port to serve on")
	serveCmd.Flags().String("host", "localhost", "Host to bind to")
	serveCmd.Flags().Bool("open", false, "Open browser automatically")
	serveCmd.Flags().String("mode", "development", "Transpile mode (development, production)")

	viper.BindPFlag("server.port", serveCmd.Flags().Lookup("port"))
	viper.BindPFlag("server.host", serveCmd.Flags().Lookup("host"))
	viper.BindPFlag("server.open", serveCmd.Flags().Lookup("open"))
	viper.BindPFlag("transpile.mode", serveCmd.Flags().Lookup("mode"))
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	logger := newLogger()
	srv, err := server.New(cfg, logger)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	return srv.Start(ctx)
}

// newLogger builds the process logger from the persistent flags.
func newLogger() logging.Logger {
	format := "text"
	if viper.GetBool("log-json") {
		format = "json"
	}
	return logging.NewLogger(&logging.LoggerConfig{
		Level:  logging.ParseLevel(viper.GetString("log-level")),
		Format: format,
		Output: os.Stderr,
	})
}
