package main

import (
	"fmt"
	"os"

	"github.com/rs/zerolog/log"

	"github.com/ironsheep/area-measure-mcp/internal/config"
	"github.com/ironsheep/area-measure-mcp/internal/logging"
	"github.com/ironsheep/area-measure-mcp/internal/ocr"
	"github.com/ironsheep/area-measure-mcp/internal/server"
)

// Version information - set by ldflags during build
var (
	Version   = "dev"
	BuildTime = "unknown"
	GitCommit = "unknown"
)

func main() {
	// Handle --version and -v flags
	if len(os.Args) > 1 {
		switch os.Args[1] {
		case "--version", "-v", "version":
			fmt.Printf("area-measure %s\n", Version)
			fmt.Printf("  Build time: %s\n", BuildTime)
			fmt.Printf("  Git commit: %s\n", GitCommit)
			fmt.Printf("  Tesseract:  %s\n", ocr.Version())
			return
		case "--help", "-h", "help":
			fmt.Println("area-measure - MCP server for measuring areas on images")
			fmt.Println()
			fmt.Println("Usage: area-measure [options]")
			fmt.Println()
			fmt.Println("Options:")
			fmt.Println("  --version, -v    Print version information")
			fmt.Println("  --help, -h       Print this help message")
			fmt.Println()
			fmt.Println("Environment variables:")
			fmt.Printf("  %s=/path/config.json    JSON configuration file\n", config.EnvConfigPath)
			fmt.Printf("  %s=debug             Log level (debug, info, warn, error)\n", config.EnvLogLevel)
			fmt.Println()
			fmt.Println("This server communicates via MCP protocol over stdin/stdout.")
			fmt.Println("Logs are written to stderr.")
			return
		}
	}

	cfg, cfgErr := config.FromEnv()

	// stdout is reserved for the MCP protocol
	logging.Setup(os.Stderr, cfg.LogLevel)
	if cfgErr != nil {
		log.Warn().Err(cfgErr).Str("path", os.Getenv(config.EnvConfigPath)).Msg("config not loaded, using defaults")
	}
	log.Debug().
		Str("version", Version).
		Str("build_time", BuildTime).
		Str("commit", GitCommit).
		Msg("area measure server starting")

	srv := server.New(cfg)
	if err := srv.Run(); err != nil {
		log.Fatal().Err(err).Msg("server error")
	}
}
