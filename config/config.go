package config

import (
	"fmt"
	"strings"
	"time"
)

// Config is the complete waybridge configuration.
//
// Priority: defaults -> YAML file -> environment variables.
type Config struct {
	// Bridge holds the line-protocol pipeline configuration.
	Bridge BridgeConfig `yaml:"bridge" env:"BRIDGE"`

	// Backend holds the automation backend endpoint configuration.
	Backend BackendConfig `yaml:"backend" env:"BACKEND"`

	// Audit holds the audit trail configuration.
	Audit AuditConfig `yaml:"audit" env:"AUDIT"`

	// Server holds the metrics/health listener configuration.
	Server ServerConfig `yaml:"server" env:"SERVER"`

	// Transport holds the optional websocket listener configuration.
	Transport TransportConfig `yaml:"transport" env:"TRANSPORT"`

	// Log holds the logging configuration.
	Log LogConfig `yaml:"log" env:"LOG"`

	// Telemetry holds the OpenTelemetry configuration.
	Telemetry TelemetryConfig `yaml:"telemetry" env:"TELEMETRY"`
}

// BridgeConfig configures the request pipeline.
type BridgeConfig struct {
	// MaxInFlight bounds the number of lines processed concurrently.
	// Output order is preserved regardless of this value.
	MaxInFlight int `yaml:"max_in_flight" env:"MAX_IN_FLIGHT"`
}

// BackendConfig configures the local automation backend.
type BackendConfig struct {
	// BaseURL is the fixed local endpoint the bridge forwards to.
	BaseURL string `yaml:"base_url" env:"BASE_URL"`

	// Timeout bounds a single forwarded call. No retry is attempted.
	Timeout time.Duration `yaml:"timeout" env:"TIMEOUT"`

	// APIKey is passed through to the backend for VLM calls. When empty,
	// the OPENROUTER_API_KEY environment variable and the mcp.json config
	// file are consulted, in that order.
	APIKey string `yaml:"api_key" env:"API_KEY"`
}

// AuditConfig configures the audit trail. The audit log is append-only and
// best-effort: a failing audit backend never blocks the output stream.
type AuditConfig struct {
	// Backends selects the enabled audit sinks: file, redis, database.
	Backends []string `yaml:"backends" env:"BACKENDS"`

	// QueueSize is the async queue capacity; entries beyond it are dropped.
	QueueSize int `yaml:"queue_size" env:"QUEUE_SIZE"`

	// Workers is the number of async writer goroutines.
	Workers int `yaml:"workers" env:"WORKERS"`

	File     FileAuditConfig     `yaml:"file" env:"FILE"`
	Redis    RedisAuditConfig    `yaml:"redis" env:"REDIS"`
	Database DatabaseAuditConfig `yaml:"database" env:"DATABASE"`
}

// FileAuditConfig configures the JSONL file audit sink.
type FileAuditConfig struct {
	// Directory holds the audit files, one JSONL file per day.
	Directory string `yaml:"directory" env:"DIRECTORY"`

	// MaxFileSize triggers rotation, in bytes.
	MaxFileSize int64 `yaml:"max_file_size" env:"MAX_FILE_SIZE"`
}

// RedisAuditConfig configures the redis list audit sink.
type RedisAuditConfig struct {
	Addr     string `yaml:"addr" env:"ADDR"`
	Password string `yaml:"password" env:"PASSWORD"`
	DB       int    `yaml:"db" env:"DB"`

	// Key is the list the entries are pushed to.
	Key string `yaml:"key" env:"KEY"`

	// MaxEntries caps the list length; older entries are trimmed.
	MaxEntries int64 `yaml:"max_entries" env:"MAX_ENTRIES"`
}

// DatabaseAuditConfig configures the relational audit sink.
type DatabaseAuditConfig struct {
	// Driver selects the dialect: sqlite, postgres, mysql.
	Driver string `yaml:"driver" env:"DRIVER"`

	// DSN is the driver-specific connection string.
	DSN string `yaml:"dsn" env:"DSN"`
}

// ServerConfig configures the metrics/health HTTP listener.
type ServerConfig struct {
	// MetricsAddr is the listen address for /metrics and /healthz.
	// Empty disables the listener.
	MetricsAddr string `yaml:"metrics_addr" env:"METRICS_ADDR"`

	ReadTimeout     time.Duration `yaml:"read_timeout" env:"READ_TIMEOUT"`
	WriteTimeout    time.Duration `yaml:"write_timeout" env:"WRITE_TIMEOUT"`
	IdleTimeout     time.Duration `yaml:"idle_timeout" env:"IDLE_TIMEOUT"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout" env:"SHUTDOWN_TIMEOUT"`
}

// TransportConfig configures the optional websocket line transport.
type TransportConfig struct {
	// WSAddr is the websocket listen address. Empty disables it; the
	// stdio session always runs.
	WSAddr string `yaml:"ws_addr" env:"WS_ADDR"`
}

// LogConfig configures zap logging.
//
// Stdout carries the protocol output stream, so logs default to stderr.
type LogConfig struct {
	// Level: debug, info, warn, error
	Level string `yaml:"level" env:"LEVEL"`
	// Format: json, console
	Format string `yaml:"format" env:"FORMAT"`
	// OutputPaths for zap; never include stdout when serving stdio.
	OutputPaths []string `yaml:"output_paths" env:"OUTPUT_PATHS"`
}

// TelemetryConfig configures the OpenTelemetry SDK.
type TelemetryConfig struct {
	Enabled      bool    `yaml:"enabled" env:"ENABLED"`
	OTLPEndpoint string  `yaml:"otlp_endpoint" env:"OTLP_ENDPOINT"`
	ServiceName  string  `yaml:"service_name" env:"SERVICE_NAME"`
	SampleRate   float64 `yaml:"sample_rate" env:"SAMPLE_RATE"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		Bridge: BridgeConfig{
			MaxInFlight: 8,
		},
		Backend: BackendConfig{
			BaseURL: "http://127.0.0.1:5000",
			Timeout: 30 * time.Second,
		},
		Audit: AuditConfig{
			Backends:  []string{"file"},
			QueueSize: 1024,
			Workers:   2,
			File: FileAuditConfig{
				Directory:   "./audit_logs",
				MaxFileSize: 100 * 1024 * 1024,
			},
			Redis: RedisAuditConfig{
				Addr:       "localhost:6379",
				Key:        "waybridge:audit",
				MaxEntries: 100000,
			},
			Database: DatabaseAuditConfig{
				Driver: "sqlite",
				DSN:    "waybridge_audit.db",
			},
		},
		Server: ServerConfig{
			MetricsAddr:     "",
			ReadTimeout:     15 * time.Second,
			WriteTimeout:    15 * time.Second,
			IdleTimeout:     60 * time.Second,
			ShutdownTimeout: 10 * time.Second,
		},
		Log: LogConfig{
			Level:       "info",
			Format:      "json",
			OutputPaths: []string{"stderr"},
		},
		Telemetry: TelemetryConfig{
			Enabled:      false,
			OTLPEndpoint: "localhost:4317",
			ServiceName:  "waybridge",
			SampleRate:   1.0,
		},
	}
}

// Validate checks the configuration for consistency.
func (c *Config) Validate() error {
	var errs []string

	if c.Bridge.MaxInFlight <= 0 {
		errs = append(errs, "bridge.max_in_flight must be positive")
	}
	if c.Backend.BaseURL == "" {
		errs = append(errs, "backend.base_url is required")
	}
	if c.Backend.Timeout <= 0 {
		errs = append(errs, "backend.timeout must be positive")
	}
	for _, b := range c.Audit.Backends {
		switch b {
		case "file", "redis", "database":
		default:
			errs = append(errs, fmt.Sprintf("unknown audit backend %q", b))
		}
	}
	switch c.Audit.Database.Driver {
	case "sqlite", "postgres", "mysql":
	default:
		errs = append(errs, fmt.Sprintf("unknown audit database driver %q", c.Audit.Database.Driver))
	}
	switch c.Log.Level {
	case "debug", "info", "warn", "error", "":
	default:
		errs = append(errs, fmt.Sprintf("unknown log level %q", c.Log.Level))
	}

	if len(errs) > 0 {
		return fmt.Errorf("invalid config: %s", strings.Join(errs, "; "))
	}
	return nil
}
