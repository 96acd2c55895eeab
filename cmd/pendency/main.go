// Command pendency queries the configured providers from the terminal.
//
//	pendency validate 111.444.777-35
//	pendency search 11.222.333/0001-81 --key serasa=abc --json
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	pendencyapp "github.com/pendencias/backend/internal/application/pendency"
	"github.com/pendencias/backend/internal/infrastructure/bureau"
	"github.com/pendencias/backend/internal/infrastructure/config"
	"github.com/pendencias/backend/internal/infrastructure/logger"
)

type options struct {
	configFile string
	logLevel   string
	log        *zap.Logger
}

func main() {
	if err := newRootCommand().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func newRootCommand() *cobra.Command {
	opts := &options{}

	root := &cobra.Command{
		Use:           "pendency",
		Short:         "Look up debts registered against a CPF or CNPJ",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			log, err := logger.New(&logger.Config{
				Level:      opts.logLevel,
				Format:     "console",
				Output:     "stderr",
				TimeFormat: "15:04:05",
			})
			if err != nil {
				return fmt.Errorf("failed to initialize logger: %w", err)
			}
			opts.log = log
			return nil
		},
		PersistentPostRun: func(cmd *cobra.Command, _ []string) {
			if opts.log != nil {
				logger.Sync(opts.log)
			}
		},
	}
	root.PersistentFlags().StringVar(&opts.configFile, "config", "", "config file (default: ./config.toml)")
	root.PersistentFlags().StringVar(&opts.logLevel, "log-level", "warn", "log level (debug, info, warn, error)")

	root.AddCommand(validateCommand(opts), searchCommand(opts))
	return root
}

// newService builds a search service from configuration. The CLI keeps
// no history and writes no audits.
func newService(opts *options) (*pendencyapp.SearchService, error) {
	cfg, err := config.LoadFile(opts.configFile)
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	settings, credentials := bureau.SettingsFromConfig(cfg.Bureau)
	providers, err := bureau.NewProviders(settings, bureau.WithLogger(opts.log))
	if err != nil {
		return nil, fmt.Errorf("failed to create providers: %w", err)
	}
	return pendencyapp.NewSearchService(providers, credentials, opts.log), nil
}
