// internal/config/config.go
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

type Config struct {
	Environment string
	Server      ServerConfig
	Database    DatabaseConfig
	JWT         JWTConfig
	Ledger      LedgerConfig
	Reconcile   ReconcileConfig
}

type ServerConfig struct {
	Port         string
	Host         string
	ReadTimeout  int
	WriteTimeout int
	IdleTimeout  int
}

type DatabaseConfig struct {
	Host         string
	Port         string
	User         string
	Password     string
	Database     string
	SSLMode      string
	MaxOpenConns int
	MaxIdleConns int
	MaxLifetime  int
	LogLevel     string
}

type JWTConfig struct {
	SecretKey  string
	SessionTTL int // in hours
}

type LedgerConfig struct {
	// Mode selects the gateway implementation: "evm" or "memory".
	Mode               string
	RPCURL             string
	ContractAddress    string
	ChainID            int64
	SignerKey          string
	TokenDecimals      int
	CallTimeoutSeconds int
}

type ReconcileConfig struct {
	// PollSpec is a six-field cron expression for the poll backstop.
	PollSpec            string
	ClaimTimeoutSeconds int
	FlagDBPath          string
}

func Load() (*Config, error) {
	// Load .env file if it exists
	godotenv.Load()

	config := &Config{
		Environment: getEnv("ENVIRONMENT", "development"),
		Server: ServerConfig{
			Port:         getEnv("SERVER_PORT", "8080"),
			Host:         getEnv("SERVER_HOST", "localhost"),
			ReadTimeout:  getEnvAsInt("SERVER_READ_TIMEOUT", 15),
			WriteTimeout: getEnvAsInt("SERVER_WRITE_TIMEOUT", 15),
			IdleTimeout:  getEnvAsInt("SERVER_IDLE_TIMEOUT", 60),
		},
		Database: DatabaseConfig{
			Host:         getEnv("DB_HOST", "localhost"),
			Port:         getEnv("DB_PORT", "5432"),
			User:         getEnv("DB_USER", "postgres"),
			Password:     getEnv("DB_PASSWORD", ""),
			Database:     getEnv("DB_NAME", "imi_royalty"),
			SSLMode:      getEnv("DB_SSL_MODE", "disable"),
			MaxOpenConns: getEnvAsInt("DB_MAX_OPEN_CONNS", 25),
			MaxIdleConns: getEnvAsInt("DB_MAX_IDLE_CONNS", 25),
			MaxLifetime:  getEnvAsInt("DB_MAX_LIFETIME", 300),
			LogLevel:     getEnv("DB_LOG_LEVEL", "silent"),
		},
		JWT: JWTConfig{
			SecretKey:  getEnv("JWT_SECRET", "your-secret-key-change-in-production"),
			SessionTTL: getEnvAsInt("JWT_SESSION_TTL", 24), // 24 hours
		},
		Ledger: LedgerConfig{
			Mode:               getEnv("LEDGER_MODE", "evm"),
			RPCURL:             getEnv("LEDGER_RPC_URL", ""),
			ContractAddress:    getEnv("LEDGER_CONTRACT_ADDRESS", ""),
			ChainID:            int64(getEnvAsInt("LEDGER_CHAIN_ID", 137)),
			SignerKey:          getEnv("LEDGER_SIGNER_KEY", ""),
			TokenDecimals:      getEnvAsInt("LEDGER_TOKEN_DECIMALS", 18),
			CallTimeoutSeconds: getEnvAsInt("LEDGER_CALL_TIMEOUT", 30),
		},
		Reconcile: ReconcileConfig{
			PollSpec:            getEnv("RECONCILE_POLL_SPEC", "*/5 * * * * *"),
			ClaimTimeoutSeconds: getEnvAsInt("RECONCILE_CLAIM_TIMEOUT", 45),
			FlagDBPath:          getEnv("RECONCILE_FLAG_DB", "./royalty_notify.db"),
		},
	}

	return config, config.Validate()
}

func (c *Config) Validate() error {
	if c.JWT.SecretKey == "your-secret-key-change-in-production" && c.Environment == "production" {
		return fmt.Errorf("JWT secret key must be changed in production")
	}

	if c.Ledger.Mode != "evm" && c.Ledger.Mode != "memory" {
		return fmt.Errorf("unknown ledger mode %q", c.Ledger.Mode)
	}

	if c.Ledger.Mode == "evm" {
		if c.Ledger.RPCURL == "" {
			return fmt.Errorf("ledger RPC URL is required in evm mode")
		}
		if c.Ledger.ContractAddress == "" {
			return fmt.Errorf("ledger contract address is required in evm mode")
		}
		if c.Ledger.SignerKey == "" {
			return fmt.Errorf("ledger signer key is required in evm mode")
		}
	}

	if c.Ledger.Mode == "memory" && c.Environment == "production" {
		return fmt.Errorf("memory ledger mode is not allowed in production")
	}

	return nil
}

// Helper functions
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolValue, err := strconv.ParseBool(strings.ToLower(value)); err == nil {
			return boolValue
		}
	}
	return defaultValue
}
