package cmd

import (
	"fmt"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/rezonia/cfdi-processor/internal/config"
	"github.com/rezonia/cfdi-processor/internal/logger"
)

var (
	version = "1.0.0"

	// Global flags
	verbose      bool
	outputFormat string
	outputFile   string
	envFile      string

	cfg *config.Config
	log zerolog.Logger
)

var rootCmd = &cobra.Command{
	Use:   "cfdi-processor",
	Short: "Read Mexican CFDI 4.0 electronic invoices",
	Long: `CFDI Processor reads CFDI 4.0 XML invoices and turns them into
structured documents and flat summaries.

Examples:
  # Parse a single invoice
  cfdi-processor parse factura.xml

  # Summaries of a whole directory as a table
  cfdi-processor summary facturas/ -f table

  # Validate with every finding treated as an error
  cfdi-processor validate *.xml --strict

  # Start the HTTP API
  cfdi-processor serve --address :8080`,
	Version:           version,
	SilenceUsage:      true,
	PersistentPreRunE: initConfig,
}

func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose output")
	rootCmd.PersistentFlags().StringVarP(&outputFormat, "format", "f", "json", "Output format (json, yaml, table, csv)")
	rootCmd.PersistentFlags().StringVarP(&outputFile, "output", "o", "", "Output file (default: stdout)")
	rootCmd.PersistentFlags().StringVar(&envFile, "env-file", ".env", "Env file loaded before reading the environment")
}

func initConfig(cmd *cobra.Command, args []string) error {
	var err error
	cfg, err = config.Load(envFile)
	if err != nil {
		return err
	}

	logCfg := cfg.GetLoggerConfig()
	if verbose {
		logCfg.Level = "debug"
	}
	if err := logger.Setup(logCfg); err != nil {
		return fmt.Errorf("failed to set up logging: %w", err)
	}
	log = logger.WithComponent("cli")

	switch outputFormat {
	case "json", "yaml", "table", "csv":
		return nil
	default:
		return fmt.Errorf("unsupported output format: %s", outputFormat)
	}
}
