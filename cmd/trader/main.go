package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/Ohimoiza1205/uchicago-quant-trading/api"
	"github.com/Ohimoiza1205/uchicago-quant-trading/internal/config"
	"github.com/Ohimoiza1205/uchicago-quant-trading/pkg/trader"
	"github.com/Ohimoiza1205/uchicago-quant-trading/pkg/xchange"
	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

var (
	cfgFile     string
	phoenixhood bool
	logger      *logrus.Logger
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "trader",
		Short: "Automated exchange trading agent",
		Long:  `A multi-strategy trading agent that maintains an exchange session and runs quoting, momentum, short-cover, and rebalancing rules`,
		Run:   runTrader,
	}

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is ./config.yaml)")
	rootCmd.PersistentFlags().BoolVar(&phoenixhood, "phoenixhood", false, "enable the Phoenixhood UI message drain and API server")

	if err := rootCmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}

func runTrader(cmd *cobra.Command, args []string) {
	// Initialize logger
	logger = logrus.New()
	logger.SetFormatter(&logrus.JSONFormatter{})

	// Load .env before configuration so credentials can live outside yaml
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		logger.WithError(err).Warn("Failed to load .env file")
	}

	// Load configuration
	cfg, err := config.Load(cfgFile)
	if err != nil {
		logger.WithError(err).Fatal("Failed to load configuration")
	}

	// Set log level and format
	level, err := logrus.ParseLevel(cfg.Logging.Level)
	if err != nil {
		logger.WithError(err).Error("Invalid log level, using INFO")
		level = logrus.InfoLevel
	}
	logger.SetLevel(level)
	if cfg.Logging.Format == "text" {
		logger.SetFormatter(&logrus.TextFormatter{})
	}

	// Create context cancelled on SIGINT/SIGTERM
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	// Initialize the exchange session
	auth, err := buildAuthenticator(cfg)
	if err != nil {
		logger.WithError(err).Fatal("Failed to configure session authentication")
	}

	client := xchange.NewClient(cfg.Exchange.Host, cfg.Exchange.Username, auth, logger)
	client.SetHandler(trader.NewHandlers(logger))

	// Create the trading agent
	agent := trader.New(client, cfg, logger)

	// Start API server alongside the Phoenixhood drain
	if phoenixhood {
		apiServer := api.NewServer(client, logger, fmt.Sprintf("%d", cfg.Server.Port))
		go func() {
			if err := apiServer.Start(); err != nil {
				logger.WithError(err).Fatal("Failed to start API server")
			}
		}()
	}

	logger.Info("Trading agent is running. Press Ctrl+C to stop.")

	// Start blocks in the connection supervisor until the context ends
	if err := agent.Start(ctx, phoenixhood); err != nil && ctx.Err() == nil {
		logger.WithError(err).Fatal("Trading agent stopped unexpectedly")
	}

	logger.Info("Trading agent stopped")
}

func buildAuthenticator(cfg *config.Config) (xchange.Authenticator, error) {
	switch xchange.AuthType(cfg.Exchange.AuthType) {
	case xchange.AuthTypeJWT:
		return xchange.NewJWTAuthenticator(cfg.Exchange.APIKeyName, cfg.Exchange.PrivateKeyPEM)
	case xchange.AuthTypePassword, "":
		return xchange.NewPasswordAuthenticator(cfg.Exchange.Password), nil
	default:
		return nil, fmt.Errorf("unknown auth type %q", cfg.Exchange.AuthType)
	}
}
