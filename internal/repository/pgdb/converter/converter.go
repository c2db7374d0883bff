package converter

import (
	"github.com/DRSN-tech/face-matcher/internal/domain"
	"github.com/DRSN-tech/face-matcher/internal/usecase"
	"github.com/pgvector/pgvector-go"
)

// PersonConverter преобразует персон и их эталонные фото между domain и моделями PostgreSQL.
type PersonConverter interface {
	ToEntity(model *PersonModel) *domain.Person
	ToArrEntity(models []PersonModel) []domain.Person
	ToImageEntity(model *PersonImageModel) *domain.PersonImage
}

type PhotoConverter interface {
	ToEntity(model *PhotoModel) *domain.Photo
}

// DescriptorConverter приводит векторы pgvector (float32) к domain.Embedding (float64) и обратно.
type DescriptorConverter interface {
	ToEmbedding(vec pgvector.Vector) domain.Embedding
	ToVector(emb domain.Embedding) pgvector.Vector
	ToFaceDescriptor(model *PhotoFaceDescriptorModel) domain.FaceDescriptor
	ToPersonDescriptorModels(personID int64, records []usecase.PersonDescriptorRecord) []PersonDescriptorModel
	ToPhotoFaceDescriptorModels(photoID int64, faces []domain.FaceDescriptor) []PhotoFaceDescriptorModel
}

type PersonConverterImpl struct{}

func NewPersonConverter() *PersonConverterImpl {
	return &PersonConverterImpl{}
}

func (PersonConverterImpl) ToEntity(model *PersonModel) *domain.Person {
	if model == nil {
		return nil
	}

	return domain.NewPerson(model.ID, model.Name)
}

func (c PersonConverterImpl) ToArrEntity(models []PersonModel) []domain.Person {
	res := make([]domain.Person, 0, len(models))
	for i := range models {
		res = append(res, *c.ToEntity(&models[i]))
	}

	return res
}

func (PersonConverterImpl) ToImageEntity(model *PersonImageModel) *domain.PersonImage {
	if model == nil {
		return nil
	}

	return &domain.PersonImage{
		ID:       model.ID,
		PersonID: model.PersonID,
		ImageKey: model.ImageKey,
	}
}

type PhotoConverterImpl struct{}

func NewPhotoConverter() *PhotoConverterImpl {
	return &PhotoConverterImpl{}
}

func (PhotoConverterImpl) ToEntity(model *PhotoModel) *domain.Photo {
	if model == nil {
		return nil
	}

	return &domain.Photo{
		ID:       model.ID,
		EventID:  model.EventID,
		ImageKey: model.ImageKey,
	}
}

type DescriptorConverterImpl struct{}

func NewDescriptorConverter() *DescriptorConverterImpl {
	return &DescriptorConverterImpl{}
}

func (DescriptorConverterImpl) ToEmbedding(vec pgvector.Vector) domain.Embedding {
	return domain.NewEmbedding(vec.Slice())
}

func (DescriptorConverterImpl) ToVector(emb domain.Embedding) pgvector.Vector {
	return pgvector.NewVector(emb.Float32())
}

func (c DescriptorConverterImpl) ToFaceDescriptor(model *PhotoFaceDescriptorModel) domain.FaceDescriptor {
	return domain.FaceDescriptor{
		Vector: c.ToEmbedding(model.Descriptor),
		Box: domain.Box{
			X:      model.BoxX,
			Y:      model.BoxY,
			Width:  model.BoxWidth,
			Height: model.BoxHeight,
		},
	}
}

func (c DescriptorConverterImpl) ToPersonDescriptorModels(personID int64, records []usecase.PersonDescriptorRecord) []PersonDescriptorModel {
	res := make([]PersonDescriptorModel, len(records))
	for i, r := range records {
		res[i] = PersonDescriptorModel{
			PersonID:      personID,
			PersonImageID: r.PersonImageID,
			Descriptor:    c.ToVector(r.Vector),
		}
	}

	return res
}

func (c DescriptorConverterImpl) ToPhotoFaceDescriptorModels(photoID int64, faces []domain.FaceDescriptor) []PhotoFaceDescriptorModel {
	res := make([]PhotoFaceDescriptorModel, len(faces))
	for i, f := range faces {
		res[i] = PhotoFaceDescriptorModel{
			PhotoID:    photoID,
			FaceIndex:  i,
			Descriptor: c.ToVector(f.Vector),
			BoxX:       f.Box.X,
			BoxY:       f.Box.Y,
			BoxWidth:   f.Box.Width,
			BoxHeight:  f.Box.Height,
		}
	}

	return res
}
