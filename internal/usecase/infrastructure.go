package usecase

import (
	"context"

	"github.com/DRSN-tech/face-matcher/internal/domain"
)

// FaceExtractorInfra — внешний сервис детекции лиц и вычисления дескрипторов.
type FaceExtractorInfra interface {
	Extract(ctx context.Context, image []byte) ([]domain.DetectedFace, error)
}

type ImagesInfra interface {
	LoadImage(ctx context.Context, key string) (*domain.Image, error)
	LoadImages(ctx context.Context, keys []string) []LoadImageRes
}

type EventPublisher interface {
	PublishMatchComputed(ctx context.Context, event *MatchComputedEvent) error
}
