package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v2"
)

// EnvPrefix namespaces every environment variable read by Load.
const EnvPrefix = "SALES"

// Config represents the complete application configuration
type Config struct {
	Server    ServerConfig    `yaml:"server" envconfig:"SERVER"`
	Security  SecurityConfig  `yaml:"security" envconfig:"SECURITY"`
	Logging   LoggingConfig   `yaml:"logging" envconfig:"LOGGING"`
	Paths     PathsConfig     `yaml:"paths" envconfig:"PATHS"`
	WebSocket WebSocketConfig `yaml:"websocket" envconfig:"WEBSOCKET"`
	Telemetry TelemetryConfig `yaml:"telemetry" envconfig:"TELEMETRY"`
	Dataset   DatasetConfig   `yaml:"dataset" envconfig:"DATASET"`
}

// ServerConfig contains HTTP server configuration
type ServerConfig struct {
	Port            int           `yaml:"port" envconfig:"PORT" default:"8080"`
	ReadTimeout     time.Duration `yaml:"read_timeout" envconfig:"READ_TIMEOUT" default:"15s"`
	WriteTimeout    time.Duration `yaml:"write_timeout" envconfig:"WRITE_TIMEOUT" default:"30s"`
	IdleTimeout     time.Duration `yaml:"idle_timeout" envconfig:"IDLE_TIMEOUT" default:"60s"`
	MaxHeaderBytes  int           `yaml:"max_header_bytes" envconfig:"MAX_HEADER_BYTES" default:"1048576"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout" envconfig:"SHUTDOWN_TIMEOUT" default:"30s"`
	RequestTimeout  time.Duration `yaml:"request_timeout" envconfig:"REQUEST_TIMEOUT" default:"20s"`
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
	Output   string `yaml:"output" envconfig:"OUTPUT" default:"console"`
	FilePath string `yaml:"file_path" envconfig:"FILE_PATH" default:"logs/app.log"`
}

// PathsConfig contains file system paths configuration. Relative
// directories are resolved against BaseDir, which defaults to the
// directory holding the executable.
type PathsConfig struct {
	BaseDir    string `yaml:"base_dir" envconfig:"BASE_DIR"`
	DataDir    string `yaml:"data_dir" envconfig:"DATA_DIR" default:"data"`
	ExportsDir string `yaml:"exports_dir" envconfig:"EXPORTS_DIR" default:"exports"`
	WebDir     string `yaml:"web_dir" envconfig:"WEB_DIR" default:"web"`
	LogsDir    string `yaml:"logs_dir" envconfig:"LOGS_DIR" default:"logs"`
}

// WebSocketConfig contains WebSocket configuration
type WebSocketConfig struct {
	ReadBufferSize  int           `yaml:"read_buffer_size" envconfig:"READ_BUFFER_SIZE" default:"1024"`
	WriteBufferSize int           `yaml:"write_buffer_size" envconfig:"WRITE_BUFFER_SIZE" default:"1024"`
	PingPeriod      time.Duration `yaml:"ping_period" envconfig:"PING_PERIOD" default:"54s"`
	PongWait        time.Duration `yaml:"pong_wait" envconfig:"PONG_WAIT" default:"60s"`
}

// TelemetryConfig controls tracing and metrics export
type TelemetryConfig struct {
	ServiceName   string  `yaml:"service_name" envconfig:"SERVICE_NAME" default:"salesdash"`
	TraceExporter string  `yaml:"trace_exporter" envconfig:"TRACE_EXPORTER" default:"none"`
	EnableMetrics bool    `yaml:"enable_metrics" envconfig:"ENABLE_METRICS" default:"true"`
	Environment   string  `yaml:"environment" envconfig:"ENVIRONMENT" default:"development"`
	SampleRatio   float64 `yaml:"sample_ratio" envconfig:"SAMPLE_RATIO" default:"1"`
}

// DatasetConfig describes the dataset and how the dashboard presents it
type DatasetConfig struct {
	SourceFiles   []string      `yaml:"source_files" envconfig:"SOURCE_FILES"`
	PricePolicy   string        `yaml:"price_policy" envconfig:"PRICE_POLICY" default:"numeric"`
	CacheSize     int           `yaml:"cache_size" envconfig:"CACHE_SIZE" default:"256"`
	Watch         bool          `yaml:"watch" envconfig:"WATCH" default:"false"`
	WatchDebounce time.Duration `yaml:"watch_debounce" envconfig:"WATCH_DEBOUNCE" default:"2s"`
	Title         string        `yaml:"title" envconfig:"TITLE" default:"Electronics Gadget Sales Dashboard"`
	Header        string        `yaml:"header" envconfig:"HEADER" default:"Electronics Gadget Sales Analysis"`
	Footer        string        `yaml:"footer" envconfig:"FOOTER" default:"Data Source: Blord Group Electronics Gadget Sales 2019"`
}

// Load reads configuration from the environment and, when present, a YAML
// file. Precedence from lowest to highest: built-in defaults, the file,
// explicitly set environment variables.
func Load() (*Config, error) {
	var cfg Config

	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("failed to load config from env: %w", err)
	}

	if configFile := getConfigFilePath(); configFile != "" {
		fileConfig, err := loadFromFile(configFile)
		if err != nil {
			return nil, fmt.Errorf("failed to load config from file: %w", err)
		}
		cfg = mergeConfigs(*fileConfig, cfg)
	}

	if len(cfg.Dataset.SourceFiles) == 0 {
		cfg.Dataset.SourceFiles = DefaultSourceFiles()
	}

	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return &cfg, nil
}

// yamlFile is a parsed YAML file. Switches records the settings whose
// zero value is meaningful, so a file can turn a default-on switch off.
type yamlFile struct {
	Config
	Switches fileSwitches
}

type fileSwitches struct {
	Security struct {
		EnableCORS *bool `yaml:"enable_cors"`
		RateLimit  struct {
			Enabled *bool `yaml:"enabled"`
		} `yaml:"rate_limit"`
	} `yaml:"security"`
	Telemetry struct {
		EnableMetrics *bool    `yaml:"enable_metrics"`
		SampleRatio   *float64 `yaml:"sample_ratio"`
	} `yaml:"telemetry"`
	Dataset struct {
		Watch *bool `yaml:"watch"`
	} `yaml:"dataset"`
}

// loadFromFile loads configuration from YAML file
func loadFromFile(filePath string) (*yamlFile, error) {
	data, err := os.ReadFile(filePath)
	if err != nil {
		return nil, err
	}
	return parseFile(data)
}

func parseFile(data []byte) (*yamlFile, error) {
	var fc yamlFile
	if err := yaml.Unmarshal(data, &fc.Config); err != nil {
		return nil, err
	}
	if err := yaml.Unmarshal(data, &fc.Switches); err != nil {
		return nil, err
	}
	return &fc, nil
}

// envSet reports whether the variable for key was set explicitly.
func envSet(key string) bool {
	_, ok := os.LookupEnv(EnvPrefix + "_" + key)
	return ok
}

// overlay copies a non-zero file value over dst unless the environment
// variable for key was set explicitly.
func overlay[T comparable](dst *T, file T, key string) {
	var zero T
	if file != zero && !envSet(key) {
		*dst = file
	}
}

// overlaySet copies a file value that was present in the file, even a zero
// one, unless the environment variable for key was set explicitly.
func overlaySet[T any](dst *T, file *T, key string) {
	if file != nil && !envSet(key) {
		*dst = *file
	}
}

// mergeConfigs merges file config with env config (explicit env takes precedence)
func mergeConfigs(file yamlFile, envConfig Config) Config {
	cfg := envConfig
	fileConfig, switches := file.Config, file.Switches

	overlay(&cfg.Server.Port, fileConfig.Server.Port, "SERVER_PORT")
	overlay(&cfg.Server.ReadTimeout, fileConfig.Server.ReadTimeout, "SERVER_READ_TIMEOUT")
	overlay(&cfg.Server.WriteTimeout, fileConfig.Server.WriteTimeout, "SERVER_WRITE_TIMEOUT")
	overlay(&cfg.Server.IdleTimeout, fileConfig.Server.IdleTimeout, "SERVER_IDLE_TIMEOUT")
	overlay(&cfg.Server.MaxHeaderBytes, fileConfig.Server.MaxHeaderBytes, "SERVER_MAX_HEADER_BYTES")
	overlay(&cfg.Server.ShutdownTimeout, fileConfig.Server.ShutdownTimeout, "SERVER_SHUTDOWN_TIMEOUT")
	overlay(&cfg.Server.RequestTimeout, fileConfig.Server.RequestTimeout, "SERVER_REQUEST_TIMEOUT")

	if len(fileConfig.Security.AllowedOrigins) > 0 && !envSet("SECURITY_ALLOWED_ORIGINS") {
		cfg.Security.AllowedOrigins = fileConfig.Security.AllowedOrigins
	}
	overlaySet(&cfg.Security.EnableCORS, switches.Security.EnableCORS, "SECURITY_ENABLE_CORS")
	overlaySet(&cfg.Security.RateLimit.Enabled, switches.Security.RateLimit.Enabled, "SECURITY_RATE_LIMIT_ENABLED")
	overlay(&cfg.Security.RateLimit.RPS, fileConfig.Security.RateLimit.RPS, "SECURITY_RATE_LIMIT_RPS")
	overlay(&cfg.Security.RateLimit.Burst, fileConfig.Security.RateLimit.Burst, "SECURITY_RATE_LIMIT_BURST")

	overlay(&cfg.Logging.Level, fileConfig.Logging.Level, "LOGGING_LEVEL")
	overlay(&cfg.Logging.Format, fileConfig.Logging.Format, "LOGGING_FORMAT")
	overlay(&cfg.Logging.Output, fileConfig.Logging.Output, "LOGGING_OUTPUT")
	overlay(&cfg.Logging.FilePath, fileConfig.Logging.FilePath, "LOGGING_FILE_PATH")

	overlay(&cfg.Paths.BaseDir, fileConfig.Paths.BaseDir, "PATHS_BASE_DIR")
	overlay(&cfg.Paths.DataDir, fileConfig.Paths.DataDir, "PATHS_DATA_DIR")
	overlay(&cfg.Paths.ExportsDir, fileConfig.Paths.ExportsDir, "PATHS_EXPORTS_DIR")
	overlay(&cfg.Paths.WebDir, fileConfig.Paths.WebDir, "PATHS_WEB_DIR")
	overlay(&cfg.Paths.LogsDir, fileConfig.Paths.LogsDir, "PATHS_LOGS_DIR")

	overlay(&cfg.WebSocket.ReadBufferSize, fileConfig.WebSocket.ReadBufferSize, "WEBSOCKET_READ_BUFFER_SIZE")
	overlay(&cfg.WebSocket.WriteBufferSize, fileConfig.WebSocket.WriteBufferSize, "WEBSOCKET_WRITE_BUFFER_SIZE")
	overlay(&cfg.WebSocket.PingPeriod, fileConfig.WebSocket.PingPeriod, "WEBSOCKET_PING_PERIOD")
	overlay(&cfg.WebSocket.PongWait, fileConfig.WebSocket.PongWait, "WEBSOCKET_PONG_WAIT")

	overlay(&cfg.Telemetry.ServiceName, fileConfig.Telemetry.ServiceName, "TELEMETRY_SERVICE_NAME")
	overlay(&cfg.Telemetry.TraceExporter, fileConfig.Telemetry.TraceExporter, "TELEMETRY_TRACE_EXPORTER")
	overlay(&cfg.Telemetry.Environment, fileConfig.Telemetry.Environment, "TELEMETRY_ENVIRONMENT")
	overlaySet(&cfg.Telemetry.EnableMetrics, switches.Telemetry.EnableMetrics, "TELEMETRY_ENABLE_METRICS")
	overlaySet(&cfg.Telemetry.SampleRatio, switches.Telemetry.SampleRatio, "TELEMETRY_SAMPLE_RATIO")

	if len(fileConfig.Dataset.SourceFiles) > 0 && !envSet("DATASET_SOURCE_FILES") {
		cfg.Dataset.SourceFiles = fileConfig.Dataset.SourceFiles
	}
	overlay(&cfg.Dataset.PricePolicy, fileConfig.Dataset.PricePolicy, "DATASET_PRICE_POLICY")
	overlay(&cfg.Dataset.CacheSize, fileConfig.Dataset.CacheSize, "DATASET_CACHE_SIZE")
	overlaySet(&cfg.Dataset.Watch, switches.Dataset.Watch, "DATASET_WATCH")
	overlay(&cfg.Dataset.WatchDebounce, fileConfig.Dataset.WatchDebounce, "DATASET_WATCH_DEBOUNCE")
	overlay(&cfg.Dataset.Title, fileConfig.Dataset.Title, "DATASET_TITLE")
	overlay(&cfg.Dataset.Header, fileConfig.Dataset.Header, "DATASET_HEADER")
	overlay(&cfg.Dataset.Footer, fileConfig.Dataset.Footer, "DATASET_FOOTER")

	return cfg
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

	if len(c.Security.AllowedOrigins) == 0 {
		return fmt.Errorf("at least one allowed origin must be specified")
	}

	switch c.Dataset.PricePolicy {
	case "numeric", "digits":
	default:
		return fmt.Errorf("invalid price policy %q: want numeric or digits", c.Dataset.PricePolicy)
	}

	if c.Dataset.CacheSize <= 0 {
		return fmt.Errorf("cache size must be positive: %d", c.Dataset.CacheSize)
	}

	switch c.Telemetry.TraceExporter {
	case "none", "stdout":
	default:
		return fmt.Errorf("invalid trace exporter %q: want none or stdout", c.Telemetry.TraceExporter)
	}
	if c.Telemetry.SampleRatio < 0 || c.Telemetry.SampleRatio > 1 {
		return fmt.Errorf("trace sample ratio must be within [0, 1]: %g", c.Telemetry.SampleRatio)
	}

	switch c.Logging.Format {
	case "json", "text":
	default:
		c.Logging.Format = DefaultLogFormat
	}

	switch c.Logging.Output {
	case "console", "file", "both":
	default:
		c.Logging.Output = "console"
	}

	if c.Logging.FilePath == "" {
		c.Logging.FilePath = filepath.Join(DefaultLogsDir, "app.log")
	}

	return nil
}

// getConfigFilePath returns the path to the config file, or "" if none exists
func getConfigFilePath() string {
	if explicit := os.Getenv(EnvPrefix + "_CONFIG_FILE"); explicit != "" {
		return explicit
	}

	locations := []string{
		"config.yaml",
		"configs/config.yaml",
		"../configs/config.yaml",
		"../../configs/config.yaml",
	}

	for _, location := range locations {
		if _, err := os.Stat(location); err == nil {
			return location
		}
	}

	return ""
}

// Default returns default configuration
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Port:            8080,
			ReadTimeout:     15 * time.Second,
			WriteTimeout:    30 * time.Second,
			IdleTimeout:     60 * time.Second,
			MaxHeaderBytes:  1 << 20, // 1MB
			ShutdownTimeout: 30 * time.Second,
			RequestTimeout:  20 * time.Second,
		},
		Security: SecurityConfig{
			AllowedOrigins: []string{"http://localhost:8080"},
			EnableCORS:     true,
			RateLimit: RateLimitConfig{
				Enabled: true,
				RPS:     DefaultRateLimit,
				Burst:   DefaultBurstSize,
			},
		},
		Logging: LoggingConfig{
			Level:    DefaultLogLevel,
			Format:   DefaultLogFormat,
			Output:   "console",
			FilePath: "logs/app.log",
		},
		Paths: PathsConfig{
			DataDir:    DefaultDataDir,
			ExportsDir: DefaultExportsDir,
			WebDir:     DefaultWebDir,
			LogsDir:    DefaultLogsDir,
		},
		WebSocket: WebSocketConfig{
			ReadBufferSize:  WebSocketReadBufferSize,
			WriteBufferSize: WebSocketWriteBufferSize,
			PingPeriod:      WebSocketPingPeriod,
			PongWait:        WebSocketPongWait,
		},
		Telemetry: TelemetryConfig{
			ServiceName:   "salesdash",
			TraceExporter: "none",
			EnableMetrics: true,
			Environment:   "development",
			SampleRatio:   1,
		},
		Dataset: DatasetConfig{
			SourceFiles:   DefaultSourceFiles(),
			PricePolicy:   "numeric",
			CacheSize:     DefaultCacheSize,
			WatchDebounce: DefaultWatchDebounce,
			Title:         DefaultTitle,
			Header:        DefaultHeader,
			Footer:        DefaultFooter,
		},
	}
}
