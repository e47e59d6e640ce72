package config

import (
	"fmt"
	"os"
	"time"

	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v2"
)

// Config represents the complete application configuration
type Config struct {
	Server   ServerConfig   `yaml:"server" envconfig:"SERVER"`
	Security SecurityConfig `yaml:"security" envconfig:"SECURITY"`
	Logging  LoggingConfig  `yaml:"logging" envconfig:"LOGGING"`
	Data     DataConfig     `yaml:"data" envconfig:"DATA"`
}

// ServerConfig contains HTTP server configuration
type ServerConfig struct {
	Port            int           `yaml:"port" envconfig:"PORT" default:"8080"`
	ReadTimeout     time.Duration `yaml:"read_timeout" envconfig:"READ_TIMEOUT" default:"15s"`
	WriteTimeout    time.Duration `yaml:"write_timeout" envconfig:"WRITE_TIMEOUT" default:"60s"`
	IdleTimeout     time.Duration `yaml:"idle_timeout" envconfig:"IDLE_TIMEOUT" default:"60s"`
	MaxHeaderBytes  int           `yaml:"max_header_bytes" envconfig:"MAX_HEADER_BYTES" default:"1048576"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout" envconfig:"SHUTDOWN_TIMEOUT" default:"30s"`
}

// SecurityConfig contains security-related configuration
type SecurityConfig struct {
	AllowedOrigins []string        `yaml:"allowed_origins" envconfig:"ALLOWED_ORIGINS" default:"http://localhost:8080"`
	EnableCORS     bool            `yaml:"enable_cors" envconfig:"ENABLE_CORS" default:"true"`
	RateLimit      RateLimitConfig `yaml:"rate_limit" envconfig:"RATE_LIMIT"`
}

// RateLimitConfig contains rate limiting configuration
type RateLimitConfig struct {
	Enabled bool    `yaml:"enabled" envconfig:"ENABLED" default:"true"`
	RPS     float64 `yaml:"rps" envconfig:"RPS" default:"100"`
	Burst   int     `yaml:"burst" envconfig:"BURST" default:"50"`
}

// LoggingConfig contains logging configuration
type LoggingConfig struct {
	Level    string `yaml:"level" envconfig:"LEVEL" default:"info"`
	Format   string `yaml:"format" envconfig:"FORMAT" default:"json"`
	Output   string `yaml:"output" envconfig:"OUTPUT" default:"both"`
	FilePath string `yaml:"file_path" envconfig:"FILE_PATH" default:"logs/app.log"`
}

// DataConfig describes the delivery dataset and dashboard defaults.
// The column set of the CSV is open; only the date and symbol columns
// are mandatory.
type DataConfig struct {
	CSVPath      string `yaml:"csv_path" envconfig:"CSV_PATH" default:"data/Merged_FO_Delivery_Data.csv"`
	DateColumn   string `yaml:"date_column" envconfig:"DATE_COLUMN" default:"Trade Date"`
	SymbolColumn string `yaml:"symbol_column" envconfig:"SYMBOL_COLUMN" default:"Ticker Symbol"`
	PageSize     int    `yaml:"page_size" envconfig:"PAGE_SIZE" default:"10"`

	// Chart link settings for the symbol column rewrite
	ChartBaseURL  string `yaml:"chart_base_url" envconfig:"CHART_BASE_URL" default:"https://www.tradingview.com/chart/"`
	ChartExchange string `yaml:"chart_exchange" envconfig:"CHART_EXCHANGE" default:"NSE"`

	// Columns shown by default, intersected with whatever the CSV provides
	DefaultColumns []string `yaml:"default_columns" envconfig:"DEFAULT_COLUMNS" default:"Trade Date,Ticker Symbol,Cum-OI,Roll Over %,OI Change %,CUMOI CE,CUMOI PE,Close,VWAP,Volume,AVO,CHG%,Change% 22D,TTQ%5,DQAVG%5,ACTION%5,Volume_AVG22,DELIV_QTY_AVG22,ACTION_AVG22,TTQ%22,DQAVG%22,ACTION%22"`

	// Numeric fields that are pre-selected for filtering and start in
	// positive-only mode
	DefaultNumericFilters []string `yaml:"default_numeric_filters" envconfig:"DEFAULT_NUMERIC_FILTERS" default:"CHG%,Change OI,Change in OI PE AVO"`
}

// Load loads configuration from environment variables and config file
func Load() (*Config, error) {
	var cfg Config

	// Load from environment variables first
	if err := envconfig.Process("FODASH", &cfg); err != nil {
		return nil, fmt.Errorf("failed to load config from env: %w", err)
	}

	// Load from config file if exists
	configFile := getConfigFilePath()
	if configFile != "" {
		fileConfig, err := loadFromFile(configFile)
		if err != nil {
			return nil, fmt.Errorf("failed to load config from file: %w", err)
		}
		cfg = mergeConfigs(*fileConfig, cfg)
	}

	// Validate configuration
	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return &cfg, nil
}

// loadFromFile loads configuration from YAML file
func loadFromFile(filePath string) (*Config, error) {
	data, err := os.ReadFile(filePath)
	if err != nil {
		return nil, err
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// mergeConfigs merges file config with env config (env takes precedence)
func mergeConfigs(fileConfig, envConfig Config) Config {
	if envConfig.Server.Port == 0 {
		envConfig.Server.Port = fileConfig.Server.Port
	}
	if envConfig.Server.ReadTimeout == 0 {
		envConfig.Server.ReadTimeout = fileConfig.Server.ReadTimeout
	}
	if envConfig.Server.WriteTimeout == 0 {
		envConfig.Server.WriteTimeout = fileConfig.Server.WriteTimeout
	}
	if envConfig.Data.CSVPath == "" {
		envConfig.Data.CSVPath = fileConfig.Data.CSVPath
	}
	if envConfig.Data.PageSize == 0 {
		envConfig.Data.PageSize = fileConfig.Data.PageSize
	}

	return envConfig
}

// validate validates the configuration
func (c *Config) validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server port: %d", c.Server.Port)
	}

	if c.Server.ReadTimeout <= 0 {
		return fmt.Errorf("server read timeout must be positive")
	}

	if c.Server.WriteTimeout <= 0 {
		return fmt.Errorf("server write timeout must be positive")
	}

	if c.Data.CSVPath == "" {
		return fmt.Errorf("data csv path must be set")
	}

	if c.Data.DateColumn == "" || c.Data.SymbolColumn == "" {
		return fmt.Errorf("date and symbol column names must be set")
	}

	if c.Data.PageSize <= 0 {
		return fmt.Errorf("page size must be positive: %d", c.Data.PageSize)
	}

	if c.Data.ChartBaseURL == "" {
		return fmt.Errorf("chart base url must be set")
	}

	if len(c.Security.AllowedOrigins) == 0 {
		return fmt.Errorf("at least one allowed origin must be specified")
	}

	if c.Logging.Format != "json" {
		c.Logging.Format = "json"
	}

	if c.Logging.FilePath == "" {
		c.Logging.FilePath = "logs/app.log"
	}

	return nil
}

// getConfigFilePath returns the path to the config file
func getConfigFilePath() string {
	locations := []string{
		"config.yaml",
		"configs/config.yaml",
	}

	for _, location := range locations {
		if _, err := os.Stat(location); err == nil {
			return location
		}
	}

	return "" // No config file found, use env vars only
}

// Default returns default configuration
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Port:            8080,
			ReadTimeout:     15 * time.Second,
			WriteTimeout:    60 * time.Second,
			IdleTimeout:     60 * time.Second,
			MaxHeaderBytes:  1 << 20, // 1MB
			ShutdownTimeout: 30 * time.Second,
		},
		Security: SecurityConfig{
			AllowedOrigins: []string{"http://localhost:8080"},
			EnableCORS:     true,
			RateLimit: RateLimitConfig{
				Enabled: true,
				RPS:     100,
				Burst:   50,
			},
		},
		Logging: LoggingConfig{
			Level:    "info",
			Format:   "json",
			Output:   "both",
			FilePath: "logs/app.log",
		},
		Data: DataConfig{
			CSVPath:       "data/Merged_FO_Delivery_Data.csv",
			DateColumn:    "Trade Date",
			SymbolColumn:  "Ticker Symbol",
			PageSize:      10,
			ChartBaseURL:  "https://www.tradingview.com/chart/",
			ChartExchange: "NSE",
			DefaultColumns: []string{
				"Trade Date", "Ticker Symbol", "Cum-OI", "Roll Over %", "OI Change %",
				"CUMOI CE", "CUMOI PE", "Close", "VWAP", "Volume", "AVO", "CHG%",
				"Change% 22D", "TTQ%5", "DQAVG%5", "ACTION%5", "Volume_AVG22",
				"DELIV_QTY_AVG22", "ACTION_AVG22", "TTQ%22", "DQAVG%22", "ACTION%22",
			},
			DefaultNumericFilters: []string{"CHG%", "Change OI", "Change in OI PE AVO"},
		},
	}
}
