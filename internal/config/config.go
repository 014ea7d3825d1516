package config

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/Ohimoiza1205/uchicago-quant-trading/pkg/secrets"
	"github.com/sirupsen/logrus"
	"github.com/spf13/viper"
)

type Config struct {
	Server     ServerConfig     `mapstructure:"server"`
	Exchange   ExchangeConfig   `mapstructure:"exchange"`
	Trading    TradingConfig    `mapstructure:"trading"`
	Supervisor SupervisorConfig `mapstructure:"supervisor"`
	Monitor    MonitorConfig    `mapstructure:"monitor"`
	Logging    LoggingConfig    `mapstructure:"logging"`
	GCP        GCPConfig        `mapstructure:"gcp"`
}

type ServerConfig struct {
	Port int `mapstructure:"port"`
}

type ExchangeConfig struct {
	Host     string `mapstructure:"host"`
	Username string `mapstructure:"username"`
	Password string `mapstructure:"password"`

	// JWT authentication (alternative to the shared password)
	AuthType      string `mapstructure:"auth_type"` // "password" or "jwt"
	APIKeyName    string `mapstructure:"api_key_name"`
	PrivateKeyPEM string `mapstructure:"private_key_pem"`
}

type TradingConfig struct {
	Symbol             string        `mapstructure:"symbol"`
	CycleInterval      time.Duration `mapstructure:"cycle_interval"`
	PacingDelay        time.Duration `mapstructure:"pacing_delay"`
	MomentumSettle     time.Duration `mapstructure:"momentum_settle"`
	MinCash            int           `mapstructure:"min_cash"`
	MaxPosition        int           `mapstructure:"max_position"`
	QuoteQty           int           `mapstructure:"quote_qty"`
	SwapQty            int           `mapstructure:"swap_qty"`
	MomentumThreshold  int           `mapstructure:"momentum_threshold"`
	MomentumQty        int           `mapstructure:"momentum_qty"`
	CoverMargin        int           `mapstructure:"cover_margin"`
	CoverPollInterval  time.Duration `mapstructure:"cover_poll_interval"`
	RebalanceThreshold int           `mapstructure:"rebalance_threshold"`
	RebalanceQty       int           `mapstructure:"rebalance_qty"`
}

type SupervisorConfig struct {
	ReconnectDelay time.Duration `mapstructure:"reconnect_delay"`
	MaxAttempts    int           `mapstructure:"max_attempts"` // 0 = retry forever
}

type MonitorConfig struct {
	Interval time.Duration `mapstructure:"interval"`
}

type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

type GCPConfig struct {
	ProjectID   string              `mapstructure:"project_id"`
	UseSecrets  bool                `mapstructure:"use_secrets"`
	Credentials string              `mapstructure:"credentials"`
	SecretNames secrets.SecretNames `mapstructure:"secret_names"`
}

func Load(configPath string) (*Config, error) {
	v := viper.New()

	// Set defaults
	setDefaults(v)

	// Set config file
	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("./config")
		v.AddConfigPath("/etc/xchange-trader")
	}

	// Read environment variables
	v.SetEnvPrefix("TRADER")
	v.AutomaticEnv()

	// Read config file
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
		// Config file not found; use defaults and environment
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}

	// Override with environment variables if set
	overrideFromEnv(&config)

	// Load secrets from GCP if enabled
	if config.GCP.UseSecrets && config.GCP.ProjectID != "" {
		ctx := context.Background()
		logger := logrus.New()
		if err := loadSecretsFromGCP(ctx, &config, logger); err != nil {
			return nil, fmt.Errorf("error loading secrets from GCP: %w", err)
		}
	}

	if err := validate(&config); err != nil {
		return nil, err
	}

	return &config, nil
}

func setDefaults(v *viper.Viper) {
	// Server defaults
	v.SetDefault("server.port", 8080)

	// Exchange defaults
	v.SetDefault("exchange.host", "ws://localhost:3000/exchange")
	v.SetDefault("exchange.auth_type", "password")

	// Trading defaults, matching the live deployment
	v.SetDefault("trading.symbol", "APT")
	v.SetDefault("trading.cycle_interval", "5s")
	v.SetDefault("trading.pacing_delay", "500ms")
	v.SetDefault("trading.momentum_settle", "1s")
	v.SetDefault("trading.min_cash", 1000)
	v.SetDefault("trading.max_position", 1000)
	v.SetDefault("trading.quote_qty", 3)
	v.SetDefault("trading.swap_qty", 1)
	v.SetDefault("trading.momentum_threshold", 2)
	v.SetDefault("trading.momentum_qty", 5)
	v.SetDefault("trading.cover_margin", 10)
	v.SetDefault("trading.cover_poll_interval", "3s")
	v.SetDefault("trading.rebalance_threshold", 50)
	v.SetDefault("trading.rebalance_qty", 25)

	// Supervisor defaults: retry forever, five seconds apart
	v.SetDefault("supervisor.reconnect_delay", "5s")
	v.SetDefault("supervisor.max_attempts", 0)

	// Monitor defaults
	v.SetDefault("monitor.interval", "3s")

	// Logging defaults
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "json")

	// GCP defaults
	v.SetDefault("gcp.use_secrets", false)
	v.SetDefault("gcp.project_id", "")
	v.SetDefault("gcp.credentials", "")

	// Secret name defaults
	secretNames := secrets.DefaultSecretNames()
	v.SetDefault("gcp.secret_names.username", secretNames.Username)
	v.SetDefault("gcp.secret_names.password", secretNames.Password)
	v.SetDefault("gcp.secret_names.api_key_name", secretNames.APIKeyName)
	v.SetDefault("gcp.secret_names.private_key", secretNames.PrivateKey)
}

func overrideFromEnv(config *Config) {
	// Exchange credentials from environment
	if host := os.Getenv("XCHANGE_HOST"); host != "" {
		config.Exchange.Host = host
	}
	if username := os.Getenv("XCHANGE_USERNAME"); username != "" {
		config.Exchange.Username = username
	}
	if password := os.Getenv("XCHANGE_PASSWORD"); password != "" {
		config.Exchange.Password = password
	}
	if authType := os.Getenv("XCHANGE_AUTH_TYPE"); authType != "" {
		config.Exchange.AuthType = authType
	}
	if apiKeyName := os.Getenv("XCHANGE_API_KEY_NAME"); apiKeyName != "" {
		config.Exchange.APIKeyName = apiKeyName
	}
	if privateKey := os.Getenv("XCHANGE_PRIVATE_KEY"); privateKey != "" {
		config.Exchange.PrivateKeyPEM = privateKey
	}

	// GCP configuration from environment
	if projectID := os.Getenv("GCP_PROJECT_ID"); projectID != "" {
		config.GCP.ProjectID = projectID
	}
	if useSecrets := os.Getenv("GCP_USE_SECRETS"); useSecrets == "true" {
		config.GCP.UseSecrets = true
	}
}

func validate(config *Config) error {
	if config.Trading.Symbol == "" {
		return fmt.Errorf("trading.symbol must be set")
	}
	if config.Trading.CoverPollInterval <= 0 {
		return fmt.Errorf("trading.cover_poll_interval must be positive")
	}
	if config.Supervisor.ReconnectDelay <= 0 {
		return fmt.Errorf("supervisor.reconnect_delay must be positive")
	}
	if config.Monitor.Interval <= 0 {
		return fmt.Errorf("monitor.interval must be positive")
	}
	return nil
}

func loadSecretsFromGCP(ctx context.Context, config *Config, logger *logrus.Logger) error {
	secretManager, err := secrets.NewGCPSecretManager(ctx, config.GCP.ProjectID, config.GCP.Credentials, logger)
	if err != nil {
		return fmt.Errorf("failed to create secret manager: %w", err)
	}
	defer secretManager.Close()

	// Only load secrets if they're not already set
	if config.Exchange.Username == "" {
		config.Exchange.Username = secretManager.GetSecretWithDefault(ctx,
			config.GCP.SecretNames.Username, "")
	}
	if config.Exchange.Password == "" {
		config.Exchange.Password = secretManager.GetSecretWithDefault(ctx,
			config.GCP.SecretNames.Password, "")
	}
	if config.Exchange.APIKeyName == "" {
		config.Exchange.APIKeyName = secretManager.GetSecretWithDefault(ctx,
			config.GCP.SecretNames.APIKeyName, "")
	}
	if config.Exchange.PrivateKeyPEM == "" {
		config.Exchange.PrivateKeyPEM = secretManager.GetSecretWithDefault(ctx,
			config.GCP.SecretNames.PrivateKey, "")
	}

	logger.Info("Successfully loaded secrets from GCP Secret Manager")
	return nil
}
