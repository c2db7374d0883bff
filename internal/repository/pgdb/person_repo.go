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

// PersonRepo реализует каталог зарегистрированных персон поверх PostgreSQL.
type PersonRepo struct {
	pool *pgxpool.Pool
	conv converter.PersonConverter
}

func NewPersonRepo(pool *pgxpool.Pool, conv converter.PersonConverter) *PersonRepo {
	return &PersonRepo{
		pool: pool,
		conv: conv,
	}
}

// ListPersons возвращает всех персон в порядке id.
func (p *PersonRepo) ListPersons(ctx context.Context) ([]domain.Person, error) {
	query := `
		SELECT id, name, created_at
		FROM persons
		ORDER BY id
	`

	rows, err := p.pool.Query(ctx, query)
	if err != nil {
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}
	defer rows.Close()

	models := make([]converter.PersonModel, 0)
	for rows.Next() {
		var model converter.PersonModel
		if err := rows.Scan(&model.ID, &model.Name, &model.CreatedAt); err != nil {
			return nil, e.Wrap(whereami.WhereAmI(), err)
		}

		models = append(models, model)
	}
	if err := rows.Err(); err != nil {
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}

	return p.conv.ToArrEntity(models), nil
}

// GetPerson возвращает персону по id или e.ErrPersonNotFound.
func (p *PersonRepo) GetPerson(ctx context.Context, personID int64) (*domain.Person, error) {
	query := `
		SELECT id, name, created_at
		FROM persons
		WHERE id = $1
	`

	var model converter.PersonModel
	err := p.pool.QueryRow(ctx, query, personID).Scan(&model.ID, &model.Name, &model.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, e.Wrap(whereami.WhereAmI(), e.ErrPersonNotFound)
		}
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}

	return p.conv.ToEntity(&model), nil
}

// ListPersonImages возвращает эталонные фото персоны.
func (p *PersonRepo) ListPersonImages(ctx context.Context, personID int64) ([]domain.PersonImage, error) {
	query := `
		SELECT id, person_id, image_key, created_at
		FROM person_images
		WHERE person_id = $1
		ORDER BY id
	`

	rows, err := p.pool.Query(ctx, query, personID)
	if err != nil {
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}
	defer rows.Close()

	result := make([]domain.PersonImage, 0)
	for rows.Next() {
		var model converter.PersonImageModel
		if err := rows.Scan(&model.ID, &model.PersonID, &model.ImageKey, &model.CreatedAt); err != nil {
			return nil, e.Wrap(whereami.WhereAmI(), err)
		}

		result = append(result, *p.conv.ToImageEntity(&model))
	}
	if err := rows.Err(); err != nil {
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}

	return result, nil
}
