package main

import (
	"fmt"
	"os"
	"runtime"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/vfg2006/snapchat-ads-extractor/internal/config"
	"github.com/vfg2006/snapchat-ads-extractor/internal/domain"
)

var version = "0.1.0"

func main() {
	// Inicializa configuração de logs
	configureLogger()

	if err := newRootCommand().Execute(); err != nil {
		logrus.WithError(err).Error("Execução finalizada com erro")
		os.Exit(domain.ExitCode(err))
	}
}

func newRootCommand() *cobra.Command {
	var dataDir string

	loadConfig := func() (*config.Config, error) {
		cfg, err := config.NewConfig()
		if err != nil {
			return nil, domain.NewConfigurationError("environment", "could not load configuration: %v", err)
		}
		if dataDir != "" {
			cfg.App.DataDir = dataDir
		}

		configureLogLevel(cfg.App.LogLevel)
		return cfg, nil
	}

	runCmd := &cobra.Command{
		Use:   "run",
		Short: "Extract Snapchat Ads data into the output tables",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			return runExtraction(cmd.Context(), cmd.OutOrStdout(), cfg)
		},
	}

	root := &cobra.Command{
		Use:   "extractor",
		Short: "Snapchat Ads batch extractor",
		Long: `Extracts organizations, ad accounts, campaigns, ad squads, ads, creatives and
time-series statistics from the Snapchat Marketing API into CSV tables.

The job is configured by <data-dir>/config.json. Without a sub-command the
configured action is executed.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE:          runCmd.RunE,
	}
	root.PersistentFlags().StringVar(&dataDir, "data-dir", "", "Data directory with config.json and out/tables (overrides DATA_DIR)")

	root.AddCommand(runCmd)

	root.AddCommand(&cobra.Command{
		Use:   "organizations",
		Short: "Print the organizations available to the authorized user as JSON",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			job, err := config.LoadJobConfig(cfg.JobConfigPath())
			if err != nil {
				return err
			}
			return listOrganizations(cmd.Context(), cmd.OutOrStdout(), cfg, job)
		},
	})

	root.AddCommand(&cobra.Command{
		Use:   "schedule",
		Short: "Run extractions on a cron schedule and serve the control API",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			return runScheduled(cmd.Context(), cfg)
		},
	})

	var (
		subject string
		role    string
		ttl     time.Duration
	)
	tokenCmd := &cobra.Command{
		Use:   "token",
		Short: "Issue a bearer token for the control API",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			return issueToken(cmd.OutOrStdout(), cfg, subject, role, ttl)
		},
	}
	tokenCmd.Flags().StringVar(&subject, "subject", "", "Token subject (required)")
	tokenCmd.Flags().StringVar(&role, "role", domain.RoleViewer, "Token role (operator, viewer)")
	tokenCmd.Flags().DurationVar(&ttl, "ttl", 24*time.Hour, "Token lifetime")
	_ = tokenCmd.MarkFlagRequired("subject")
	root.AddCommand(tokenCmd)

	root.AddCommand(&cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "extractor v%s\n", version)
			fmt.Fprintf(cmd.OutOrStdout(), "Go version: %s\n", runtime.Version())
			fmt.Fprintf(cmd.OutOrStdout(), "OS/Arch: %s/%s\n", runtime.GOOS, runtime.GOARCH)
		},
	})

	return root
}

// configureLogger configura o formato e comportamento dos logs
func configureLogger() {
	logrus.SetOutput(os.Stderr)
	logrus.SetFormatter(&logrus.TextFormatter{
		FullTimestamp:   true,
		TimestampFormat: time.RFC3339,
	})
}

// configureLogLevel define o nível de log com base na configuração
func configureLogLevel(level string) {
	logLevel, err := logrus.ParseLevel(level)
	if err != nil {
		logrus.Warnf("Nível de log inválido: %s, usando 'info'", level)
		logLevel = logrus.InfoLevel
	}
	logrus.SetLevel(logLevel)
	logrus.Debugf("Nível de log configurado para: %s", logLevel)
}
