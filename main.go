package main

import (
	"flag"
	"log/slog"

	"github.com/soocke/marker-pacer-go/app"
	"github.com/soocke/marker-pacer-go/config"
	"github.com/soocke/marker-pacer-go/ui/shell"
)

func main() {
	cfgPath := flag.String("config", "config.json", "path to the JSON config file")
	flag.Parse()

	cfg, err := config.Load(*cfgPath)

	// Set up logger
	logger := NewLogger(ParseLevel(cfg.LogLevel))
	if err != nil {
		logger.Warn("config load failed; using defaults", "path", *cfgPath, "error", err)
	}

	application := shell.NewApp("Marker Pacer", 900, 640, cfg, *cfgPath, app.EngineOptions{}, logger)
	application.Start()
}
