package main

import (
	"flag"
	"log"
	"path/filepath"
	"unix_companion/internal/app"
	"unix_companion/internal/config"
	"unix_companion/pkg/configwatcher"
	"unix_companion/pkg/logger"
)

func main() {
	configDir := flag.String("config", "configs", "directory containing config.yaml")
	flag.Parse()

	cfg, err := config.LoadConfig(*configDir)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	application := app.NewApp(cfg)
	defer logger.Log.Sync()

	go configwatcher.WatchConfig(filepath.Join(*configDir, "config.yaml"), application.OnConfigReload)

	application.Run()
}
