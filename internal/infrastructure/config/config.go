package config

import (
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds all configuration for the application
type Config struct {
	App     AppConfig     `mapstructure:"app"`
	Storage StorageConfig `mapstructure:"storage"`
	Backup  BackupConfig  `mapstructure:"backup"`
	Agenda  AgendaConfig  `mapstructure:"agenda"`
	Export  ExportConfig  `mapstructure:"export"`
	Metrics MetricsConfig `mapstructure:"metrics"`
	Logger  LoggerConfig  `mapstructure:"logger"`
}

// AppConfig holds application-specific configuration
type AppConfig struct {
	Name        string `mapstructure:"name"`
	Version     string `mapstructure:"version"`
	Environment string `mapstructure:"environment"`
	Debug       bool   `mapstructure:"debug"`
}

// StorageConfig holds settings for the two embedded storage backends
type StorageConfig struct {
	DataDir            string `mapstructure:"data_dir"`
	KVFile             string `mapstructure:"kv_file"`
	ObjectsFile        string `mapstructure:"objects_file"`
	MaxAttachmentBytes int64  `mapstructure:"max_attachment_bytes"`
	MaxRecordBytes     int64  `mapstructure:"max_record_bytes"`
}

// BackupConfig holds snapshot scheduling configuration
type BackupConfig struct {
	Enabled   bool          `mapstructure:"enabled"`
	Interval  time.Duration `mapstructure:"interval"`
	Retention int           `mapstructure:"retention"`
}

// AgendaConfig holds agenda behavior configuration
type AgendaConfig struct {
	UTCOffsetHours  int    `mapstructure:"utc_offset_hours"`
	DefaultCategory string `mapstructure:"default_category"`
}

// ExportConfig holds report export configuration
type ExportConfig struct {
	OutputDir string `mapstructure:"output_dir"`
}

// MetricsConfig holds the metrics endpoint configuration used by the
// daemon mode
type MetricsConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Addr    string `mapstructure:"addr"`
}

// LoggerConfig holds logging configuration
type LoggerConfig struct {
	Level    string `mapstructure:"level"`
	Format   string `mapstructure:"format"`
	Output   string `mapstructure:"output"`
	Filename string `mapstructure:"filename"`
}

// Load loads configuration from various sources
func Load() (*Config, error) {
	// Load .env file if it exists (ignore errors)
	_ = godotenv.Load()

	viper.AutomaticEnv()
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	setDefaults()
	bindEnvVars()

	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := validateConfig(&cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &cfg, nil
}

func setDefaults() {
	// App defaults
	viper.SetDefault("app.name", "AgendaDRTE")
	viper.SetDefault("app.version", "4.0.0")
	viper.SetDefault("app.environment", "production")
	viper.SetDefault("app.debug", false)

	// Storage defaults
	viper.SetDefault("storage.data_dir", ".agenda")
	viper.SetDefault("storage.kv_file", "agenda.kv.db")
	viper.SetDefault("storage.objects_file", "agenda.objects.db")
	viper.SetDefault("storage.max_attachment_bytes", 10*1024*1024) // the 50 MiB variant raises this
	viper.SetDefault("storage.max_record_bytes", 1024*1024)

	// Backup defaults
	viper.SetDefault("backup.enabled", true)
	viper.SetDefault("backup.interval", "5m")
	viper.SetDefault("backup.retention", 10)

	// Agenda defaults (department runs on Costa Rica time)
	viper.SetDefault("agenda.utc_offset_hours", -6)
	viper.SetDefault("agenda.default_category", "pntf")

	// Export defaults
	viper.SetDefault("export.output_dir", ".")

	// Metrics defaults
	viper.SetDefault("metrics.enabled", false)
	viper.SetDefault("metrics.addr", ":9091")

	// Logger defaults
	viper.SetDefault("logger.level", "info")
	viper.SetDefault("logger.format", "console")
	viper.SetDefault("logger.output", "stderr")
	viper.SetDefault("logger.filename", "")
}

func bindEnvVars() {
	// App
	viper.BindEnv("app.name", "APP_NAME")
	viper.BindEnv("app.version", "APP_VERSION")
	viper.BindEnv("app.environment", "APP_ENVIRONMENT")
	viper.BindEnv("app.debug", "APP_DEBUG")

	// Storage
	viper.BindEnv("storage.data_dir", "AGENDA_DATA_DIR")
	viper.BindEnv("storage.kv_file", "AGENDA_KV_FILE")
	viper.BindEnv("storage.objects_file", "AGENDA_OBJECTS_FILE")
	viper.BindEnv("storage.max_attachment_bytes", "AGENDA_MAX_ATTACHMENT_BYTES")
	viper.BindEnv("storage.max_record_bytes", "AGENDA_MAX_RECORD_BYTES")

	// Backup
	viper.BindEnv("backup.enabled", "AGENDA_BACKUP_ENABLED")
	viper.BindEnv("backup.interval", "AGENDA_BACKUP_INTERVAL")
	viper.BindEnv("backup.retention", "AGENDA_BACKUP_RETENTION")

	// Agenda
	viper.BindEnv("agenda.utc_offset_hours", "AGENDA_UTC_OFFSET_HOURS")
	viper.BindEnv("agenda.default_category", "AGENDA_DEFAULT_CATEGORY")

	// Export
	viper.BindEnv("export.output_dir", "AGENDA_EXPORT_DIR")

	// Metrics
	viper.BindEnv("metrics.enabled", "AGENDA_METRICS_ENABLED")
	viper.BindEnv("metrics.addr", "AGENDA_METRICS_ADDR")

	// Logger
	viper.BindEnv("logger.level", "LOG_LEVEL")
	viper.BindEnv("logger.format", "LOG_FORMAT")
	viper.BindEnv("logger.output", "LOG_OUTPUT")
	viper.BindEnv("logger.filename", "LOG_FILENAME")
}

func validateConfig(cfg *Config) error {
	if cfg.Storage.DataDir == "" {
		return fmt.Errorf("storage data directory is required")
	}

	if cfg.Storage.MaxAttachmentBytes <= 0 {
		return fmt.Errorf("max attachment size must be positive")
	}

	if cfg.Backup.Retention < 1 {
		return fmt.Errorf("backup retention must be at least 1")
	}

	if cfg.Backup.Interval < time.Second {
		return fmt.Errorf("backup interval must be at least one second")
	}

	if cfg.Agenda.UTCOffsetHours < -12 || cfg.Agenda.UTCOffsetHours > 14 {
		return fmt.Errorf("utc offset must be between -12 and +14 hours")
	}

	return nil
}

// KVPath returns the full path of the key-value store database file.
func (cfg *StorageConfig) KVPath() string {
	return filepath.Join(cfg.DataDir, cfg.KVFile)
}

// ObjectsPath returns the full path of the binary object store database file.
func (cfg *StorageConfig) ObjectsPath() string {
	return filepath.Join(cfg.DataDir, cfg.ObjectsFile)
}

// IsDevelopment returns true if the environment is development
func (cfg *AppConfig) IsDevelopment() bool {
	return cfg.Environment == "development"
}
