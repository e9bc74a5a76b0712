package main

import (
	"log"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/joho/godotenv"
	"github.com/minio/minio-go/v7"
	"github.com/redis/go-redis/v9"

	"github.com/dresesc/winter-references-bot/internal/bot"
	"github.com/dresesc/winter-references-bot/internal/config"
	"github.com/dresesc/winter-references-bot/internal/repository"
	"github.com/dresesc/winter-references-bot/internal/server"
	"github.com/dresesc/winter-references-bot/internal/service"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables")
	}

	cfg := config.Load()

	db, err := config.NewPostgresDB(cfg)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer db.Close()

	if err := repository.Migrate(db); err != nil {
		log.Fatalf("Failed to create schema: %v", err)
	}

	var redisClient *redis.Client
	if cfg.RedisURL != "" {
		redisClient, err = config.NewRedisClient(cfg)
		if err != nil {
			log.Printf("Warning: Failed to connect to Redis: %v (leaderboard will not be cached)", err)
			redisClient = nil
		} else {
			defer redisClient.Close()
		}
	}

	var minioClient *minio.Client
	if cfg.MinIOEndpoint != "" {
		minioClient, err = config.NewMinIOClient(cfg)
		if err != nil {
			log.Printf("Warning: Failed to connect to MinIO: %v (approved photos will not be archived)", err)
			minioClient = nil
		}
	}

	botAPI, err := tgbotapi.NewBotAPI(cfg.Token)
	if err != nil {
		log.Fatalf("Failed to connect to Telegram: %v", err)
	}

	repos := repository.NewRepositories(db, cfg.StoreTimeout)
	services := service.NewServices(repos, redisClient, minioClient, cfg)
	handler := bot.NewHandler(botAPI, services, repos, cfg)

	if cfg.WebhookBaseURL != "" {
		webhook, err := tgbotapi.NewWebhook(cfg.WebhookBaseURL + "/webhook/" + cfg.Token)
		if err != nil {
			log.Fatalf("Invalid webhook URL: %v", err)
		}
		if _, err := botAPI.Request(webhook); err != nil {
			log.Printf("Warning: Failed to register webhook: %v", err)
		}
	}

	app := server.New(cfg, handler)

	log.Printf("Bot listening for webhooks on port %s", cfg.Port)
	if err := app.Listen(":" + cfg.Port); err != nil {
		log.Fatalf("Failed to start server: %v", err)
	}
}
