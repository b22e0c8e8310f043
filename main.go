package main

import (
	"log"

	"quizbot_backend/internal/app"
	"quizbot_backend/internal/config"
	"quizbot_backend/pkg/configwatcher"
	"quizbot_backend/pkg/logger"
)

func main() {
	cfg, err := config.LoadConfig("configs")
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	application := app.NewApp(cfg)
	defer logger.Log.Sync()

	// 配置文件热加载
	go configwatcher.WatchConfig("configs/config.yaml", application.OnConfigReload)

	application.Run()
}
