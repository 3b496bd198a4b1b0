package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/pratik-mahalle/bizrec/internal/config"
	"github.com/pratik-mahalle/bizrec/internal/pkg/logger"
	"github.com/pratik-mahalle/bizrec/internal/services"
	"github.com/pratik-mahalle/bizrec/pkg/client"
)

var (
	cfgFile      string
	outputFormat string
	serverURL    string
	logLevel     string

	appCfg    *config.Config
	log       *logger.Logger
	apiClient *client.Client
	app       *services.Coordinators
)

var rootCmd = &cobra.Command{
	Use:   "bizrec",
	Short: "bizrec - console client for the business recommendation service",
	Long: `bizrec manages business entities and drives the recommendation service:
upload training data, train models, query item recommendations and inspect
ranking-quality metrics.`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		// Config commands work without a reachable service
		if cmd.Parent() != nil && cmd.Parent().Name() == "config" {
			return nil
		}
		return initClient()
	},
	SilenceUsage:  true,
	SilenceErrors: true,
}

func Execute() error {
	return rootCmd.Execute()
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default $HOME/.bizrec/config.yaml)")
	rootCmd.PersistentFlags().StringVarP(&outputFormat, "output", "o", "table", "output format: table, json, yaml")
	rootCmd.PersistentFlags().StringVar(&serverURL, "server", "", "server URL (overrides config)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "log level: debug, info, warn, error")

	_ = viper.BindPFlag("output", rootCmd.PersistentFlags().Lookup("output"))
	_ = viper.BindPFlag("server_url", rootCmd.PersistentFlags().Lookup("server"))
	_ = viper.BindPFlag("log.level", rootCmd.PersistentFlags().Lookup("log-level"))

	rootCmd.AddCommand(newConfigCmd())
	rootCmd.AddCommand(newBusinessCmd())
	rootCmd.AddCommand(newUploadCmd())
	rootCmd.AddCommand(newTrainCmd())
	rootCmd.AddCommand(newRecommendCmd())
	rootCmd.AddCommand(newMetricsCmd())
	rootCmd.AddCommand(newTUICmd())
}

func initConfig() {
	if err := config.Init(viper.GetViper(), cfgFile); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
	}
}

func initClient() error {
	cfg, err := config.Load(viper.GetViper())
	if err != nil {
		return err
	}
	appCfg = cfg

	log = logger.New(logger.Config{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
	})

	clientCfg := client.Config{
		BaseURL:          cfg.Service.BaseURL,
		Timeout:          cfg.Service.Timeout,
		MaxResponseBytes: cfg.Service.MaxResponseBytes,
	}
	if cfg.Breaker.Enabled {
		clientCfg.Breaker = &client.BreakerConfig{
			MaxFailures: cfg.Breaker.MaxFailures,
			OpenTimeout: cfg.Breaker.OpenTimeout,
			OnStateChange: func(from, to string) {
				log.WithFields(map[string]interface{}{
					"from": from,
					"to":   to,
				}).Warn("circuit breaker state changed")
			},
		}
	}

	apiClient = client.NewClient(clientCfg)
	app = services.NewCoordinators(services.NewRemote(apiClient), cfg.Service.PollInterval, log)

	log.With("server_url", apiClient.BaseURL()).Debug("client initialized")
	return nil
}

func getOutputFormat() string {
	if outputFormat != "" && outputFormat != "table" {
		return outputFormat
	}
	return viper.GetString("output")
}

// check turns a failed status into the command error
func check(st services.Status) error {
	if st.OK {
		return nil
	}
	if st.Err != nil {
		return fmt.Errorf("%s: %w", st.Message, st.Err)
	}
	return fmt.Errorf("%s", st.Message)
}
