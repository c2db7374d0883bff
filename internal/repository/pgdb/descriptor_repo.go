package pgdb

import (
	"context"
	"errors"

	"github.com/DRSN-tech/face-matcher/internal/domain"
	"github.com/DRSN-tech/face-matcher/internal/repository/pgdb/converter"
	"github.com/DRSN-tech/face-matcher/internal/usecase"
	"github.com/DRSN-tech/face-matcher/pkg/e"
	"github.com/DRSN-tech/face-matcher/pkg/tr"
	transaction "github.com/avito-tech/go-transaction-manager/drivers/pgxv5/v2"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jimlawless/whereami"
)

// DescriptorRepo хранит дескрипторы персон и фото.
// Строка в descriptor_units означает, что дескрипторы объекта вычислены и неизменяемы.
type DescriptorRepo struct {
	pool *pgxpool.Pool
	conv converter.DescriptorConverter
}

func NewDescriptorRepo(pool *pgxpool.Pool, conv converter.DescriptorConverter) *DescriptorRepo {
	return &DescriptorRepo{
		pool: pool,
		conv: conv,
	}
}

// GetPersonDescriptors возвращает сохранённые дескрипторы персоны.
func (d *DescriptorRepo) GetPersonDescriptors(ctx context.Context, personID int64) (*usecase.StoredPersonDescriptors, error) {
	computed, err := d.isComputed(ctx, domain.DescriptorUnit{Kind: domain.UnitPerson, ID: personID})
	if err != nil {
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}
	if !computed {
		return &usecase.StoredPersonDescriptors{}, nil
	}

	query := `
		SELECT id, person_id, person_image_id, descriptor
		FROM person_descriptors
		WHERE person_id = $1
		ORDER BY id
	`

	rows, err := d.pool.Query(ctx, query, personID)
	if err != nil {
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}
	defer rows.Close()

	descriptors := make([]domain.Embedding, 0)
	for rows.Next() {
		var model converter.PersonDescriptorModel
		if err := rows.Scan(&model.ID, &model.PersonID, &model.PersonImageID, &model.Descriptor); err != nil {
			return nil, e.Wrap(whereami.WhereAmI(), err)
		}

		descriptors = append(descriptors, d.conv.ToEmbedding(model.Descriptor))
	}
	if err := rows.Err(); err != nil {
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}

	return &usecase.StoredPersonDescriptors{Computed: true, Descriptors: descriptors}, nil
}

// GetPhotoDescriptors возвращает сохранённые дескрипторы лиц фото в порядке детекции.
func (d *DescriptorRepo) GetPhotoDescriptors(ctx context.Context, photoID int64) (*usecase.StoredPhotoDescriptors, error) {
	computed, err := d.isComputed(ctx, domain.DescriptorUnit{Kind: domain.UnitPhoto, ID: photoID})
	if err != nil {
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}
	if !computed {
		return &usecase.StoredPhotoDescriptors{}, nil
	}

	query := `
		SELECT id, photo_id, face_index, descriptor, box_x, box_y, box_width, box_height
		FROM photo_face_descriptors
		WHERE photo_id = $1
		ORDER BY face_index
	`

	rows, err := d.pool.Query(ctx, query, photoID)
	if err != nil {
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}
	defer rows.Close()

	faces := make([]domain.FaceDescriptor, 0)
	for rows.Next() {
		var model converter.PhotoFaceDescriptorModel
		if err := rows.Scan(
			&model.ID, &model.PhotoID, &model.FaceIndex, &model.Descriptor,
			&model.BoxX, &model.BoxY, &model.BoxWidth, &model.BoxHeight,
		); err != nil {
			return nil, e.Wrap(whereami.WhereAmI(), err)
		}

		faces = append(faces, d.conv.ToFaceDescriptor(&model))
	}
	if err := rows.Err(); err != nil {
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}

	return &usecase.StoredPhotoDescriptors{Computed: true, Faces: faces}, nil
}

// SavePersonDescriptors атомарно сохраняет дескрипторы персоны, если они ещё не сохранены.
func (d *DescriptorRepo) SavePersonDescriptors(ctx context.Context, personID int64, records []usecase.PersonDescriptorRecord) (bool, error) {
	models := d.conv.ToPersonDescriptorModels(personID, records)
	unit := domain.DescriptorUnit{Kind: domain.UnitPerson, ID: personID}

	return d.saveOnce(ctx, unit, len(models), func(ctx context.Context, tx pgx.Tx) error {
		query := `
			INSERT INTO person_descriptors (person_id, person_image_id, descriptor)
			VALUES ($1, $2, $3)
		`

		batch := &pgx.Batch{}
		for _, m := range models {
			batch.Queue(query, m.PersonID, m.PersonImageID, m.Descriptor)
		}

		return tx.SendBatch(ctx, batch).Close()
	})
}

// SavePhotoDescriptors атомарно сохраняет дескрипторы лиц фото, если они ещё не сохранены.
// Пустой список тоже сохраняется: фото без лиц повторно не обрабатывается.
func (d *DescriptorRepo) SavePhotoDescriptors(ctx context.Context, photoID int64, faces []domain.FaceDescriptor) (bool, error) {
	models := d.conv.ToPhotoFaceDescriptorModels(photoID, faces)
	unit := domain.DescriptorUnit{Kind: domain.UnitPhoto, ID: photoID}

	return d.saveOnce(ctx, unit, len(models), func(ctx context.Context, tx pgx.Tx) error {
		query := `
			INSERT INTO photo_face_descriptors (photo_id, face_index, descriptor, box_x, box_y, box_width, box_height)
			VALUES ($1, $2, $3, $4, $5, $6, $7)
		`

		batch := &pgx.Batch{}
		for _, m := range models {
			batch.Queue(query, m.PhotoID, m.FaceIndex, m.Descriptor, m.BoxX, m.BoxY, m.BoxWidth, m.BoxHeight)
		}

		return tx.SendBatch(ctx, batch).Close()
	})
}

// saveOnce в одной транзакции занимает объект в descriptor_units и вставляет записи.
// Если объект уже занят другим писателем, транзакция откатывается и возвращается false.
func (d *DescriptorRepo) saveOnce(ctx context.Context, unit domain.DescriptorUnit, count int, insert func(context.Context, pgx.Tx) error) (saved bool, err error) {
	ctx, tx, err := transaction.NewTransaction(ctx, pgx.TxOptions{}, d.pool)
	if err != nil {
		return false, e.Wrap(whereami.WhereAmI(), err)
	}
	// Если произошла ошибка или объект уже занят, транзакция откатывается
	defer func() {
		if (err != nil || !saved) && tx.IsActive() {
			_ = tx.Rollback(ctx)
		}
	}()

	pgxTx, ok := tx.Transaction().(pgx.Tx)
	if !ok {
		return false, e.Wrap(whereami.WhereAmI(), e.ErrTransactionNotFound)
	}
	ctx = tr.WithTx(ctx, pgxTx)

	claimed, err := d.claimUnit(ctx, unit, count)
	if err != nil {
		return false, e.Wrap(whereami.WhereAmI(), err)
	}
	if !claimed {
		return false, nil
	}

	if count > 0 {
		if err = insert(ctx, pgxTx); err != nil {
			return false, e.Wrap(whereami.WhereAmI(), err)
		}
	}

	if err = tx.Commit(ctx); err != nil {
		return false, e.Wrap(whereami.WhereAmI(), err)
	}

	return true, nil
}

// claimUnit вставляет отметку об обработке. Конкурентная вставка того же объекта
// блокируется до завершения первой транзакции и затем ничего не делает.
func (d *DescriptorRepo) claimUnit(ctx context.Context, unit domain.DescriptorUnit, count int) (bool, error) {
	tx, err := tr.TxFromCtx(ctx)
	if err != nil {
		return false, e.Wrap(whereami.WhereAmI(), err)
	}

	query := `
		INSERT INTO descriptor_units (unit_kind, unit_id, descriptor_count)
		VALUES ($1, $2, $3)
		ON CONFLICT (unit_kind, unit_id) DO NOTHING
		RETURNING unit_id
	`

	var id int64
	err = tx.QueryRow(ctx, query, string(unit.Kind), unit.ID, count).Scan(&id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return false, nil
		}
		return false, e.Wrap(whereami.WhereAmI(), err)
	}

	return true, nil
}

func (d *DescriptorRepo) isComputed(ctx context.Context, unit domain.DescriptorUnit) (bool, error) {
	query := `
		SELECT EXISTS (
			SELECT 1 FROM descriptor_units WHERE unit_kind = $1 AND unit_id = $2
		)
	`

	var exists bool
	if err := d.pool.QueryRow(ctx, query, string(unit.Kind), unit.ID).Scan(&exists); err != nil {
		return false, e.Wrap(whereami.WhereAmI(), err)
	}

	return exists, nil
}
