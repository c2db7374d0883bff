package usecase

import (
	"context"
	"time"

	"github.com/DRSN-tech/face-matcher/internal/domain"
)

type PersonRepository interface {
	ListPersons(ctx context.Context) ([]domain.Person, error)
	// GetPerson возвращает e.ErrPersonNotFound, если персоны не существует.
	GetPerson(ctx context.Context, personID int64) (*domain.Person, error)
	ListPersonImages(ctx context.Context, personID int64) ([]domain.PersonImage, error)
}

type PhotoRepository interface {
	// GetPhoto возвращает e.ErrPhotoNotFound, если фото не существует.
	GetPhoto(ctx context.Context, photoID int64) (*domain.Photo, error)
}

// DescriptorRepository хранит дескрипторы персон и фото.
// Save* атомарно помечают объект как обработанный и возвращают false,
// если другой писатель успел сделать это раньше (записи при этом не меняются).
type DescriptorRepository interface {
	GetPersonDescriptors(ctx context.Context, personID int64) (*StoredPersonDescriptors, error)
	SavePersonDescriptors(ctx context.Context, personID int64, records []PersonDescriptorRecord) (bool, error)
	GetPhotoDescriptors(ctx context.Context, photoID int64) (*StoredPhotoDescriptors, error)
	SavePhotoDescriptors(ctx context.Context, photoID int64, faces []domain.FaceDescriptor) (bool, error)
}

// CacheRepository — хранилище закэшированных результатов сопоставления.
// GetMatches возвращает nil, nil при промахе.
type CacheRepository interface {
	GetMatches(ctx context.Context, photoID int64) (*domain.CacheEntry, error)
	SetMatches(ctx context.Context, entry *domain.CacheEntry, ttl time.Duration) error
	DeleteMatches(ctx context.Context, photoID int64) error
}

type ImageRepository interface {
	// Download возвращает e.ErrImageNotFound для отсутствующего объекта и e.ErrImageTooLarge,
	// если объект больше maxSize.
	Download(ctx context.Context, key string, maxSize int64) ([]byte, error)
}
