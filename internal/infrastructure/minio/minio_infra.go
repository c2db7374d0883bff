package minio

import (
	"context"
	"fmt"
	"sync"

	"github.com/DRSN-tech/face-matcher/internal/cfg"
	"github.com/DRSN-tech/face-matcher/internal/domain"
	"github.com/DRSN-tech/face-matcher/internal/infrastructure"
	"github.com/DRSN-tech/face-matcher/internal/usecase"
	"github.com/DRSN-tech/face-matcher/pkg/e"
	"github.com/DRSN-tech/face-matcher/pkg/logger"
)

// MinioInfrastructure управляет загрузкой изображений из MinIO.
type MinioInfrastructure struct {
	minioRepo           usecase.ImageRepository
	logger              logger.Logger
	downloadImagesLimit int
	maxImageSize        int64
}

func NewMinioInfrastructure(minioRepo usecase.ImageRepository, cfg cfg.MinIOCfg, logger logger.Logger) *MinioInfrastructure {
	limit := cfg.DownloadImagesLimit
	if limit <= 0 {
		limit = 1
	}

	return &MinioInfrastructure{
		minioRepo:           minioRepo,
		logger:              logger,
		downloadImagesLimit: limit,
		maxImageSize:        cfg.MaxImageSize,
	}
}

// LoadImage скачивает одно изображение и проверяет его тип по содержимому.
func (m *MinioInfrastructure) LoadImage(ctx context.Context, key string) (*domain.Image, error) {
	const op = "MinioInfrastructure.LoadImage"

	data, err := m.minioRepo.Download(ctx, key, m.maxImageSize)
	if err != nil {
		return nil, e.Wrap(op, err)
	}

	mime, err := infrastructure.DetectImageMIME(data)
	if err != nil {
		return nil, e.Wrap(op, fmt.Errorf("invalid mime type %s for %s: %w", mime, key, err))
	}

	return domain.NewImage(key, data, mime), nil
}

// LoadImages скачивает изображения параллельно с ограничением одновременных операций.
// Ошибка одного изображения не прерывает остальные: результат возвращается для каждого ключа в исходном порядке.
func (m *MinioInfrastructure) LoadImages(ctx context.Context, keys []string) []usecase.LoadImageRes {
	res := make([]usecase.LoadImageRes, len(keys))
	sem := make(chan struct{}, m.downloadImagesLimit)

	var wg sync.WaitGroup
	for i, key := range keys {
		wg.Add(1)
		go func() {
			defer wg.Done()

			select {
			case sem <- struct{}{}:
			case <-ctx.Done():
				res[i] = usecase.NewLoadImageRes(key, nil, e.Wrap(key, ctx.Err()))
				return
			}
			defer func() { <-sem }()

			image, err := m.LoadImage(ctx, key)
			if err != nil {
				m.logger.Warnf("image %s not loaded: %v", key, err)
			}
			res[i] = usecase.NewLoadImageRes(key, image, err)
		}()
	}

	wg.Wait()
	return res
}
