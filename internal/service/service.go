package service

import (
	"github.com/minio/minio-go/v7"
	"github.com/redis/go-redis/v9"

	"github.com/dresesc/winter-references-bot/internal/config"
	"github.com/dresesc/winter-references-bot/internal/repository"
	"github.com/dresesc/winter-references-bot/internal/service/album"
	"github.com/dresesc/winter-references-bot/internal/service/archive"
	"github.com/dresesc/winter-references-bot/internal/service/report"
	"github.com/dresesc/winter-references-bot/internal/service/review"
	"github.com/dresesc/winter-references-bot/internal/service/submission"
)

type Services struct {
	Albums     *album.Buffer
	Submission submission.Service
	Review     review.Service
	Report     report.Service
	Archive    archive.Service
}

func NewServices(repos *repository.Repositories, redisClient *redis.Client, minioClient *minio.Client, cfg *config.Config) *Services {
	albums := album.NewBuffer(cfg.AlbumBufferTTL)
	reportService := report.NewService(repos.Reference, redisClient)

	return &Services{
		Albums:     albums,
		Submission: submission.NewService(repos.Reference, albums),
		Review:     review.NewService(repos.Reference, reportService, review.Granularity(cfg.ReviewGranularity)),
		Report:     reportService,
		Archive:    archive.NewService(minioClient, cfg.MinIOBucket),
	}
}
