package config

import (
	"fmt"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

// Config holds all application configuration
type Config struct {
	Database   DatabaseConfig
	Server     ServerConfig
	App        AppConfig
	Engine     EngineConfig
	Solana     SolanaConfig
	Notify     NotifyConfig
	Polymarket PolymarketConfig
}

// DatabaseConfig holds database connection settings
type DatabaseConfig struct {
	Host     string
	Port     string
	User     string
	Password string
	DBName   string
}

// ServerConfig holds server settings
type ServerConfig struct {
	Port string
}

// AppConfig holds application-specific settings
type AppConfig struct {
	JWTSecret string
}

// EngineConfig holds validation engine settings. Amounts are lamports.
type EngineConfig struct {
	MinStake                 int64
	ValidationWindowHours    int
	FinalizerIntervalSeconds int
	ImporterIntervalMinutes  int
}

// SolanaConfig holds RPC and vault program settings
type SolanaConfig struct {
	RPCEndpoint    string
	VaultProgramID string
	TreasuryWallet string
	TokenMint      string
	ServerKey      string
}

// NotifyConfig holds settlement notification settings
type NotifyConfig struct {
	WebhookURL string
}

// PolymarketConfig holds Polymarket API settings
type PolymarketConfig struct {
	BaseURL    string
	APIKey     string
	Secret     string
	Passphrase string
}

// Load loads configuration from environment variables
func Load() (*Config, error) {
	// Try to load .env file (ignore error if it doesn't exist)
	_ = godotenv.Load()

	config := &Config{
		Database: DatabaseConfig{
			Host:     getEnv("DB_HOST", "localhost"),
			Port:     getEnv("DB_PORT", "5432"),
			User:     getEnv("DB_USER", "postgres"),
			Password: getEnv("DB_PASSWORD", ""),
			DBName:   getEnv("DB_NAME", "truth_market"),
		},
		Server: ServerConfig{
			Port: getEnv("SERVER_PORT", "8080"),
		},
		App: AppConfig{
			JWTSecret: getEnv("JWT_SECRET", ""),
		},
		Engine: EngineConfig{
			MinStake:                 getEnvInt64("MIN_ORACLE_STAKE", 1000000000),
			ValidationWindowHours:    getEnvInt("VALIDATION_WINDOW_HOURS", 24),
			FinalizerIntervalSeconds: getEnvInt("FINALIZER_INTERVAL_SECONDS", 30),
			ImporterIntervalMinutes:  getEnvInt("IMPORTER_INTERVAL_MINUTES", 15),
		},
		Solana: SolanaConfig{
			RPCEndpoint:    getEnv("SOLANA_RPC_ENDPOINT", "https://api.devnet.solana.com"),
			VaultProgramID: getEnv("VAULT_PROGRAM_ID", ""),
			TreasuryWallet: getEnv("TREASURY_WALLET", ""),
			TokenMint:      getEnv("TOKEN_MINT", ""),
			ServerKey:      getEnv("SERVER_WALLET_KEY", ""),
		},
		Notify: NotifyConfig{
			WebhookURL: getEnv("SETTLEMENT_WEBHOOK_URL", ""),
		},
		Polymarket: PolymarketConfig{
			BaseURL:    getEnv("POLYMARKET_BASE_URL", "https://clob.polymarket.com"),
			APIKey:     getEnv("POLYMARKET_API_KEY", ""),
			Secret:     getEnv("POLYMARKET_SECRET", ""),
			Passphrase: getEnv("POLYMARKET_PASSPHRASE", ""),
		},
	}

	// Validate required fields
	if config.App.JWTSecret == "" {
		return nil, fmt.Errorf("JWT_SECRET is required")
	}

	if config.Engine.MinStake <= 0 {
		return nil, fmt.Errorf("MIN_ORACLE_STAKE must be positive")
	}

	if config.Engine.ValidationWindowHours <= 0 {
		return nil, fmt.Errorf("VALIDATION_WINDOW_HOURS must be positive")
	}

	return config, nil
}

// GetDSN returns the PostgreSQL connection string
func (c *Config) GetDSN() string {
	return fmt.Sprintf(
		"host=%s port=%s user=%s password=%s dbname=%s sslmode=disable",
		c.Database.Host,
		c.Database.Port,
		c.Database.User,
		c.Database.Password,
		c.Database.DBName,
	)
}

// getEnv gets an environment variable with a fallback default value
func getEnv(key, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}

// getEnvInt gets an integer environment variable with a fallback default
func getEnvInt(key string, defaultValue int) int {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return defaultValue
	}
	return parsed
}

// getEnvInt64 gets an int64 environment variable with a fallback default
func getEnvInt64(key string, defaultValue int64) int64 {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	parsed, err := strconv.ParseInt(value, 10, 64)
	if err != nil {
		return defaultValue
	}
	return parsed
}
