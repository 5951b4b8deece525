// Package config provides configuration management functionality.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/aristath/etfscope/internal/utils"
	"github.com/joho/godotenv"
)

// Config holds application configuration
type Config struct {
	DataDir     string // Directory of the per-symbol CSV files (always absolute)
	DBPath      string // ETF metadata database (defaults to <DataDir>/etfs.db)
	Port        int
	LogLevel    string
	LogFile     string // Optional file every log line is also written to
	DevMode     bool
	Workers     int      // Symbols processed concurrently
	CORSOrigins []string // Allowed origins for /api/*

	RefreshSchedule     string // Empty disables the scheduled refresh
	MaintenanceSchedule string // Empty disables database maintenance
	Backup              BackupConfig
}

// BackupConfig holds settings of the scheduled data directory backup
type BackupConfig struct {
	Schedule        string // Empty disables backups
	Bucket          string
	Endpoint        string
	Region          string
	AccessKeyID     string
	SecretAccessKey string
	RetentionDays   int // 0 keeps every backup
}

// Enabled reports whether backups are scheduled
func (b BackupConfig) Enabled() bool {
	return b.Schedule != ""
}

// Load reads configuration from environment variables, after a .env file if present
func Load() (*Config, error) {
	_ = godotenv.Load()

	dataDir, err := filepath.Abs(getEnv("ETF_DATA_DIR", "data"))
	if err != nil {
		return nil, fmt.Errorf("failed to resolve data directory path: %w", err)
	}
	if err := os.MkdirAll(dataDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}

	cfg := &Config{
		DataDir:             dataDir,
		DBPath:              getEnv("ETF_DB_PATH", filepath.Join(dataDir, "etfs.db")),
		Port:                getEnvAsInt("PORT", 5000),
		LogLevel:            getEnv("LOG_LEVEL", "info"),
		LogFile:             getEnv("LOG_FILE", ""),
		DevMode:             getEnvAsBool("DEV_MODE", false),
		Workers:             getEnvAsInt("WORKERS", 4),
		CORSOrigins:         getEnvAsList("CORS_ORIGINS", []string{"*"}),
		RefreshSchedule:     getEnv("REFRESH_SCHEDULE", ""),
		MaintenanceSchedule: getEnv("MAINTENANCE_SCHEDULE", "0 0 3 * * *"),
		Backup: BackupConfig{
			Schedule:        getEnv("BACKUP_SCHEDULE", ""),
			Bucket:          getEnv("BACKUP_BUCKET", ""),
			Endpoint:        getEnv("BACKUP_ENDPOINT", ""),
			Region:          getEnv("BACKUP_REGION", "auto"),
			AccessKeyID:     getEnv("BACKUP_ACCESS_KEY_ID", ""),
			SecretAccessKey: getEnv("BACKUP_SECRET_ACCESS_KEY", ""),
			RetentionDays:   getEnvAsInt("BACKUP_RETENTION_DAYS", 30),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks that the configuration is usable
func (c *Config) Validate() error {
	if c.Port <= 0 || c.Port > 65535 {
		return fmt.Errorf("invalid port %d", c.Port)
	}
	if c.Workers <= 0 {
		return fmt.Errorf("workers must be positive, got %d", c.Workers)
	}
	if c.Backup.Enabled() && c.Backup.Bucket == "" {
		return fmt.Errorf("BACKUP_BUCKET is required when BACKUP_SCHEDULE is set")
	}
	if c.Backup.RetentionDays < 0 {
		return fmt.Errorf("backup retention must not be negative, got %d", c.Backup.RetentionDays)
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
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolVal, err := strconv.ParseBool(value); err == nil {
			return boolVal
		}
	}
	return defaultValue
}

func getEnvAsList(key string, defaultValue []string) []string {
	if values := utils.ParseCSV(os.Getenv(key)); len(values) > 0 {
		return values
	}
	return defaultValue
}
