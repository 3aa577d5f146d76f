package cmd

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/rezonia/cfdi-processor/internal/server"
)

var (
	serverAddr   string
	serverDebug  bool
	serverStrict bool
	readTimeout  time.Duration
	writeTimeout time.Duration
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP API server",
	Long: `Start an HTTP API server for reading CFDI invoices.

The API provides endpoints for:
  - POST /api/v1/parse      - Parse a CFDI into its document tree
  - POST /api/v1/summary    - Summary view of a CFDI
  - POST /api/v1/validate   - Parse and validate (?strict=true)
  - POST /api/v1/info       - Format and stamp information
  - GET  /health            - Health check

Flags override the SERVER_* environment settings.

Examples:
  cfdi-processor serve
  cfdi-processor serve --address :9090 --debug`,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().StringVar(&serverAddr, "address", "", "Server listen address (env: SERVER_ADDRESS)")
	serveCmd.Flags().BoolVar(&serverDebug, "debug", false, "Enable debug mode (env: SERVER_DEBUG)")
	serveCmd.Flags().BoolVar(&serverStrict, "strict", false, "Treat every validation finding as an error")
	serveCmd.Flags().DurationVar(&readTimeout, "read-timeout", 0, "HTTP read timeout (env: SERVER_READ_TIMEOUT)")
	serveCmd.Flags().DurationVar(&writeTimeout, "write-timeout", 0, "HTTP write timeout (env: SERVER_WRITE_TIMEOUT)")
}

func runServe(cmd *cobra.Command, args []string) error {
	config := &server.Config{
		Address:      cfg.Server.Address,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		Debug:        cfg.Server.Debug,
		MaxBodyBytes: cfg.Server.MaxBodyBytes,
		ParseTimeout: cfg.ParseTimeout,
		Strict:       serverStrict,
	}
	if serverAddr != "" {
		config.Address = serverAddr
	}
	if cmd.Flags().Changed("debug") {
		config.Debug = serverDebug
	}
	if readTimeout > 0 {
		config.ReadTimeout = readTimeout
	}
	if writeTimeout > 0 {
		config.WriteTimeout = writeTimeout
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	srv := server.NewServer(config)
	if err := srv.Run(ctx); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	log.Info().Msg("server stopped")
	return nil
}
