package pgdb

import (
	"context"
	"errors"

	"github.com/DRSN-tech/face-matcher/internal/domain"
	"github.com/DRSN-tech/face-matcher/internal/repository/pgdb/converter"
	"github.com/DRSN-tech/face-matcher/pkg/e"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jimlawless/whereami"
)

type PhotoRepo struct {
	pool *pgxpool.Pool
	conv converter.PhotoConverter
}

func NewPhotoRepo(pool *pgxpool.Pool, conv converter.PhotoConverter) *PhotoRepo {
	return &PhotoRepo{
		pool: pool,
		conv: conv,
	}
}

// GetPhoto возвращает фото события по id или e.ErrPhotoNotFound.
func (p *PhotoRepo) GetPhoto(ctx context.Context, photoID int64) (*domain.Photo, error) {
	query := `
		SELECT id, event_id, image_key, created_at
		FROM photos
		WHERE id = $1
	`

	var model converter.PhotoModel
	err := p.pool.QueryRow(ctx, query, photoID).Scan(&model.ID, &model.EventID, &model.ImageKey, &model.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, e.Wrap(whereami.WhereAmI(), e.ErrPhotoNotFound)
		}
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}

	return p.conv.ToEntity(&model), nil
}
