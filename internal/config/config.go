package config

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"github.com/mr-tron/base58"
	"github.com/spf13/viper"
)

// Config represents the application configuration
type Config struct {
	// Service endpoints
	RPCUrl   string `mapstructure:"rpc_url"`
	FeedURL  string `mapstructure:"feed_url"`
	TradeURL string `mapstructure:"trade_url"`

	// Wallet settings: base58-encoded 64-byte secret key or a BIP39 mnemonic
	WalletSecret string `mapstructure:"wallet_secret"`

	// Trading settings
	Trading TradingConfig `mapstructure:"trading"`

	// Trigger settings
	Trigger TriggerConfig `mapstructure:"trigger"`

	// Status server settings
	Server ServerConfig `mapstructure:"server"`

	// Logging settings
	Logging LoggingConfig `mapstructure:"logging"`
}

// TradingConfig contains trade parameters sent to the trade-construction service
type TradingConfig struct {
	AmountSOL      float64 `mapstructure:"amount_sol"`
	Slippage       float64 `mapstructure:"slippage"`
	PriorityFee    float64 `mapstructure:"priority_fee"`
	Pool           string  `mapstructure:"pool"`
	RequestTimeout int     `mapstructure:"request_timeout_sec"`
}

// TriggerConfig contains the match criteria for new-token events.
// A token matches when its creator equals Creator, or when both Name and
// Symbol equal the configured pair. With Strict enabled, empty criteria are
// treated as disabled instead of participating in equality.
type TriggerConfig struct {
	Creator string `mapstructure:"creator"`
	Name    string `mapstructure:"name"`
	Symbol  string `mapstructure:"symbol"`
	Strict  bool   `mapstructure:"strict"`
}

// ServerConfig contains the status/metrics HTTP listener settings
type ServerConfig struct {
	Enabled    bool   `mapstructure:"enabled"`
	StatusAddr string `mapstructure:"status_addr"`
}

// LoggingConfig contains logging settings
type LoggingConfig struct {
	Level       string `mapstructure:"level"`
	Format      string `mapstructure:"format"`
	TradeLogDir string `mapstructure:"trade_log_dir"`
}

// Load reads configuration from environment variables (and an optional .env
// file), applies defaults and validates the result.
func Load(envPath string) (*Config, error) {
	if err := loadEnvFile(envPath); err != nil && envPath != "" {
		return nil, err
	}

	v := viper.New()
	setDefaults(v)

	v.AutomaticEnv()
	v.SetEnvPrefix("SNIPER")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	bindEnvVariables(v)

	config := &Config{}
	if err := v.Unmarshal(config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := Validate(config); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return config, nil
}

// loadEnvFile loads KEY=VALUE pairs from a .env file into the environment.
// Looks in the default locations when no path is given; missing defaults are
// not an error.
func loadEnvFile(envPath string) error {
	candidates := []string{envPath, ".env", "configs/.env"}
	if envPath == "" {
		candidates = candidates[1:]
	}

	var envFile string
	for _, file := range candidates {
		if _, err := os.Stat(file); err == nil {
			envFile = file
			break
		}
	}
	if envFile == "" {
		if envPath != "" {
			return fmt.Errorf(".env file not found: %s", envPath)
		}
		return nil
	}

	file, err := os.Open(envFile)
	if err != nil {
		return fmt.Errorf("failed to open .env file: %w", err)
	}
	defer file.Close()

	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		parts := strings.SplitN(line, "=", 2)
		if len(parts) != 2 {
			continue
		}
		key := strings.TrimSpace(parts[0])
		value := strings.TrimSpace(parts[1])
		if len(value) >= 2 {
			if (strings.HasPrefix(value, `"`) && strings.HasSuffix(value, `"`)) ||
				(strings.HasPrefix(value, "'") && strings.HasSuffix(value, "'")) {
				value = value[1 : len(value)-1]
			}
		}
		// Real environment wins over the file
		if _, exists := os.LookupEnv(key); !exists {
			_ = os.Setenv(key, value)
		}
	}

	if err := scanner.Err(); err != nil {
		return fmt.Errorf("error reading .env file: %w", err)
	}
	return nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("rpc_url", DefaultRPCUrl)
	v.SetDefault("feed_url", DefaultFeedURL)
	v.SetDefault("trade_url", DefaultTradeURL)
	v.SetDefault("wallet_secret", "")

	v.SetDefault("trading.amount_sol", 0.0)
	v.SetDefault("trading.slippage", DefaultSlippage)
	v.SetDefault("trading.priority_fee", DefaultPriorityFee)
	v.SetDefault("trading.pool", DefaultPool)
	v.SetDefault("trading.request_timeout_sec", DefaultTradeTimeoutSec)

	v.SetDefault("trigger.creator", "")
	v.SetDefault("trigger.name", "")
	v.SetDefault("trigger.symbol", "")
	v.SetDefault("trigger.strict", false)

	v.SetDefault("server.enabled", false)
	v.SetDefault("server.status_addr", ":8080")

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "text")
	v.SetDefault("logging.trade_log_dir", "trades")
}

// bindEnvVariables binds every key explicitly so Unmarshal sees env-only values
func bindEnvVariables(v *viper.Viper) {
	v.BindEnv("rpc_url", "SNIPER_RPC_URL")
	v.BindEnv("feed_url", "SNIPER_FEED_URL")
	v.BindEnv("trade_url", "SNIPER_TRADE_URL")
	v.BindEnv("wallet_secret", "SNIPER_WALLET_SECRET")

	v.BindEnv("trading.amount_sol", "SNIPER_TRADING_AMOUNT_SOL")
	v.BindEnv("trading.slippage", "SNIPER_TRADING_SLIPPAGE")
	v.BindEnv("trading.priority_fee", "SNIPER_TRADING_PRIORITY_FEE")
	v.BindEnv("trading.pool", "SNIPER_TRADING_POOL")
	v.BindEnv("trading.request_timeout_sec", "SNIPER_TRADING_REQUEST_TIMEOUT_SEC")

	v.BindEnv("trigger.creator", "SNIPER_TRIGGER_CREATOR")
	v.BindEnv("trigger.name", "SNIPER_TRIGGER_NAME")
	v.BindEnv("trigger.symbol", "SNIPER_TRIGGER_SYMBOL")
	v.BindEnv("trigger.strict", "SNIPER_TRIGGER_STRICT")

	v.BindEnv("server.enabled", "SNIPER_SERVER_ENABLED")
	v.BindEnv("server.status_addr", "SNIPER_SERVER_STATUS_ADDR")

	v.BindEnv("logging.level", "SNIPER_LOGGING_LEVEL")
	v.BindEnv("logging.format", "SNIPER_LOGGING_FORMAT")
	v.BindEnv("logging.trade_log_dir", "SNIPER_LOGGING_TRADE_LOG_DIR")
}

// Validate checks the configuration for values the bot cannot run with
func Validate(config *Config) error {
	if config.WalletSecret == "" {
		return fmt.Errorf("wallet_secret is required")
	}
	if config.Trading.AmountSOL <= 0 {
		return fmt.Errorf("trading.amount_sol must be positive, got %v", config.Trading.AmountSOL)
	}
	if config.Trading.Slippage <= 0 || config.Trading.Slippage > 100 {
		return fmt.Errorf("trading.slippage must be between 0 and 100, got %v", config.Trading.Slippage)
	}
	if config.Trading.PriorityFee < 0 {
		return fmt.Errorf("trading.priority_fee must be non-negative, got %v", config.Trading.PriorityFee)
	}
	if config.Trading.Pool != "pump" && config.Trading.Pool != "raydium" {
		return fmt.Errorf("trading.pool must be 'pump' or 'raydium', got %q", config.Trading.Pool)
	}

	if config.Trigger.Creator != "" {
		if err := validateAddress(config.Trigger.Creator); err != nil {
			return fmt.Errorf("trigger.creator: %w", err)
		}
	}

	return nil
}

// validateAddress checks that a string is a base58-encoded 32-byte public key
func validateAddress(address string) error {
	decoded, err := base58.Decode(address)
	if err != nil {
		return fmt.Errorf("invalid base58 address %q: %w", address, err)
	}
	if len(decoded) != 32 {
		return fmt.Errorf("address %q decodes to %d bytes, want 32", address, len(decoded))
	}
	return nil
}
