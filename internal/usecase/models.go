package usecase

import (
	"time"

	"github.com/DRSN-tech/face-matcher/internal/domain"
)

// REPOSITORIES

// StoredPersonDescriptors — дескрипторы персоны из хранилища.
// Computed == false означает, что дескрипторы ещё не вычислялись.
type StoredPersonDescriptors struct {
	Computed    bool
	Descriptors []domain.Embedding
}

// StoredPhotoDescriptors — дескрипторы лиц фото из хранилища.
type StoredPhotoDescriptors struct {
	Computed bool
	Faces    []domain.FaceDescriptor
}

// PersonDescriptorRecord — дескриптор, вычисленный по одному эталонному фото персоны.
type PersonDescriptorRecord struct {
	PersonImageID int64
	Vector        domain.Embedding
}

// INFRASTRUCTURE

// LoadImageRes — результат загрузки одного изображения из S3.
type LoadImageRes struct {
	Key   string
	Image *domain.Image
	Err   error
}

// MatchComputedEvent публикуется после каждого нового вычисления совпадений для фото.
type MatchComputedEvent struct {
	PhotoID    int64
	PersonIDs  []int64
	MatchCount int
	ComputedAt time.Time
}

// USECASE

// PersonDescriptorsRes — дескрипторы персоны.
// Complete == false, если часть извлечений не удалась и объект не был помечен обработанным.
type PersonDescriptorsRes struct {
	Descriptors []domain.Embedding
	Complete    bool
}

// PersonDetailsRes — персона каталога вместе с ключами её эталонных фото.
type PersonDetailsRes struct {
	Person    domain.Person
	ImageKeys []string
}

type PhotoDescriptorsRes struct {
	Faces    []domain.FaceDescriptor
	Complete bool
}

// Computation — результат вычисления совпадений; Cacheable == false запрещает запись в кэш.
type Computation struct {
	Matches   []domain.MatchResult
	Cacheable bool
}

// MAPPERS

func NewMatchComputedEvent(photoID int64, matches []domain.MatchResult, computedAt time.Time) *MatchComputedEvent {
	ids := make([]int64, 0, len(matches))
	for _, m := range matches {
		ids = append(ids, m.PersonID)
	}

	return &MatchComputedEvent{
		PhotoID:    photoID,
		PersonIDs:  ids,
		MatchCount: len(matches),
		ComputedAt: computedAt,
	}
}

func NewLoadImageRes(key string, image *domain.Image, err error) LoadImageRes {
	return LoadImageRes{Key: key, Image: image, Err: err}
}
