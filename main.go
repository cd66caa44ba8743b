package main

import (
	stdlog "log"

	"github.com/joho/godotenv"

	"kontocheck/cmd"
	"kontocheck/internal/config"
	"kontocheck/internal/logger"
)

func main() {
	if err := godotenv.Load(); err != nil {
		stdlog.Printf("Warning: Could not load .env file: %v", err)
	}

	cfg, err := config.Load()
	if err != nil {
		stdlog.Printf("Warning: Could not load configuration: %v", err)
		if err := logger.Setup(logger.DefaultConfig()); err != nil {
			stdlog.Fatalf("Failed to initialize logger: %v", err)
		}
	} else {
		if err := logger.Setup(cfg.GetLoggerConfig()); err != nil {
			stdlog.Fatalf("Failed to initialize logger: %v", err)
		}
	}

	cmd.Execute()
}
