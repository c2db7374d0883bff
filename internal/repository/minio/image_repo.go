package minio

import (
	"context"
	"errors"
	"io"

	"github.com/DRSN-tech/face-matcher/internal/cfg"
	"github.com/DRSN-tech/face-matcher/pkg/e"
	"github.com/jimlawless/whereami"
	"github.com/minio/minio-go/v7"
)

// ImageRepo реализует чтение изображений из MinIO.
type ImageRepo struct {
	mc  *minio.Client
	cfg *cfg.MinIOCfg
}

func NewImageRepo(mc *minio.Client, cfg *cfg.MinIOCfg) *ImageRepo {
	return &ImageRepo{
		mc:  mc,
		cfg: cfg,
	}
}

// Download читает объект целиком. Отсутствующий объект возвращает e.ErrImageNotFound,
// объект больше maxSize возвращает e.ErrImageTooLarge.
func (i *ImageRepo) Download(ctx context.Context, key string, maxSize int64) ([]byte, error) {
	obj, err := i.mc.GetObject(ctx, i.cfg.BucketName, key, minio.GetObjectOptions{})
	if err != nil {
		return nil, e.Wrap(whereami.WhereAmI(), mapMinioErr(err))
	}
	defer obj.Close()

	info, err := obj.Stat()
	if err != nil {
		return nil, e.Wrap(whereami.WhereAmI(), mapMinioErr(err))
	}

	if maxSize > 0 && info.Size > maxSize {
		return nil, e.Wrap(key, e.ErrImageTooLarge)
	}

	// Размер из Stat мог измениться между запросами
	limit := info.Size + 1
	if maxSize > 0 {
		limit = maxSize + 1
	}

	data, err := io.ReadAll(io.LimitReader(obj, limit))
	if err != nil {
		return nil, e.Wrap(whereami.WhereAmI(), mapMinioErr(err))
	}

	if maxSize > 0 && int64(len(data)) > maxSize {
		return nil, e.Wrap(key, e.ErrImageTooLarge)
	}

	return data, nil
}

func mapMinioErr(err error) error {
	var resp minio.ErrorResponse
	if errors.As(err, &resp) && (resp.Code == "NoSuchKey" || resp.Code == "NoSuchBucket") {
		return e.ErrImageNotFound
	}

	return err
}
