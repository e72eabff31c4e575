// =============================================================================
// Waybridge entry point
// =============================================================================
// Bridges a line-oriented tool protocol on stdio to the local desktop
// automation backend, with optional websocket and metrics listeners.
//
// Usage:
//
//	waybridge serve                       # serve the protocol on stdio
//	waybridge serve --config config.yaml  # with a config file
//	waybridge version                     # show version information
//	waybridge health                      # probe the automation backend
//	waybridge tools                       # list registered tools
// =============================================================================

package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/BaSui01/waybridge/backend"
	"github.com/BaSui01/waybridge/bridge"
	"github.com/BaSui01/waybridge/config"
)

var (
	Version   = "dev"
	BuildTime = "unknown"
	GitCommit = "unknown"
)

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	switch os.Args[1] {
	case "serve":
		runServe(os.Args[2:])
	case "version":
		printVersion()
	case "health":
		runHealthCheck(os.Args[2:])
	case "tools":
		runTools()
	case "help", "-h", "--help":
		printUsage()
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n", os.Args[1])
		printUsage()
		os.Exit(1)
	}
}

// =============================================================================
// health command
// =============================================================================

func runHealthCheck(args []string) {
	fs := flag.NewFlagSet("health", flag.ExitOnError)
	configPath := fs.String("config", "", "Path to config file")
	fs.Parse(args)

	loader := config.NewLoader()
	if *configPath != "" {
		loader = loader.WithConfigPath(*configPath)
	}
	cfg, err := loader.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}

	client := backend.NewClient(cfg.Backend, zap.NewNop())
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	status, err := client.HealthCheck(ctx)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Health check failed: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("OK (%s, %s)\n", cfg.Backend.BaseURL, status.Latency.Round(time.Millisecond))
}

// =============================================================================
// tools command
// =============================================================================

func runTools() {
	registry, err := bridge.NewRegistry(bridge.DefaultEntries(), zap.NewNop())
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to build registry: %v\n", err)
		os.Exit(1)
	}
	for _, e := range registry.List() {
		if e.Action == bridge.ActionForward {
			fmt.Printf("%-24s forward %s\n", e.Name, e.Path)
			continue
		}
		fmt.Printf("%-24s %s\n", e.Name, e.Action)
	}
}

// =============================================================================
// version and help
// =============================================================================

func printVersion() {
	fmt.Printf("Waybridge %s\n", Version)
	fmt.Printf("  Build Time: %s\n", BuildTime)
	fmt.Printf("  Git Commit: %s\n", GitCommit)
}

func printUsage() {
	fmt.Println(`Waybridge - desktop automation tool bridge

Usage:
  waybridge <command> [options]

Commands:
  serve     Serve the line protocol on stdio
  version   Show version information
  health    Probe the automation backend
  tools     List registered tools
  help      Show this help message

Options for 'serve' and 'health':
  --config <path>   Path to configuration file (YAML)

Examples:
  waybridge serve
  waybridge serve --config /etc/waybridge/config.yaml
  waybridge health
  waybridge tools`)
}

// =============================================================================
// logger initialization
// =============================================================================

// initLogger builds the zap logger. Stdout carries protocol output, so
// the logger never writes there.
func initLogger(cfg config.LogConfig) *zap.Logger {
	var level zapcore.Level
	switch cfg.Level {
	case "debug":
		level = zapcore.DebugLevel
	case "info":
		level = zapcore.InfoLevel
	case "warn":
		level = zapcore.WarnLevel
	case "error":
		level = zapcore.ErrorLevel
	default:
		level = zapcore.InfoLevel
	}

	var encoderConfig zapcore.EncoderConfig
	if cfg.Format == "console" {
		encoderConfig = zap.NewDevelopmentEncoderConfig()
		encoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	} else {
		encoderConfig = zap.NewProductionEncoderConfig()
		encoderConfig.TimeKey = "timestamp"
		encoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	}

	outputPaths := cfg.OutputPaths
	if len(outputPaths) == 0 {
		outputPaths = []string{"stderr"}
	}
	// The protocol stream must stay clean.
	filtered := outputPaths[:0]
	for _, p := range outputPaths {
		if p == "stdout" {
			continue
		}
		filtered = append(filtered, p)
	}
	if len(filtered) == 0 {
		filtered = []string{"stderr"}
	}

	zapConfig := zap.Config{
		Level:            zap.NewAtomicLevelAt(level),
		Development:      cfg.Format == "console",
		Encoding:         "json",
		EncoderConfig:    encoderConfig,
		OutputPaths:      filtered,
		ErrorOutputPaths: []string{"stderr"},
	}
	if cfg.Format == "console" {
		zapConfig.Encoding = "console"
	}

	logger, err := zapConfig.Build(
		zap.AddCaller(),
		zap.AddStacktrace(zapcore.ErrorLevel),
	)
	if err != nil {
		logger, _ = zap.NewProduction()
	}
	return logger
}
