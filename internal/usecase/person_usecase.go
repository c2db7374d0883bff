package usecase

import (
	"context"

	"github.com/DRSN-tech/face-matcher/internal/domain"
	"github.com/DRSN-tech/face-matcher/pkg/e"
	"github.com/DRSN-tech/face-matcher/pkg/logger"
)

// PersonUseCase отдаёт каталог зарегистрированных персон только на чтение.
type PersonUseCase struct {
	personRepo PersonRepository
	logger     logger.Logger
}

func NewPersonUC(personRepo PersonRepository, logger logger.Logger) *PersonUseCase {
	return &PersonUseCase{personRepo: personRepo, logger: logger}
}

func (p *PersonUseCase) ListPersons(ctx context.Context) ([]domain.Person, error) {
	const op = "PersonUseCase.ListPersons"

	persons, err := p.personRepo.ListPersons(ctx)
	if err != nil {
		return nil, e.Wrap(op, err)
	}
	if persons == nil {
		persons = []domain.Person{}
	}

	return persons, nil
}

// GetPerson возвращает персону и ключи её эталонных фото.
// Для неизвестного id возвращается e.ErrPersonNotFound.
func (p *PersonUseCase) GetPerson(ctx context.Context, personID int64) (*PersonDetailsRes, error) {
	const op = "PersonUseCase.GetPerson"

	if personID <= 0 {
		return nil, e.Wrap(op, e.ErrInvalidPersonID)
	}

	person, err := p.personRepo.GetPerson(ctx, personID)
	if err != nil {
		return nil, e.Wrap(op, err)
	}

	images, err := p.personRepo.ListPersonImages(ctx, personID)
	if err != nil {
		return nil, e.Wrap(op, err)
	}

	keys := make([]string, len(images))
	for i, img := range images {
		keys[i] = img.ImageKey
	}

	return &PersonDetailsRes{Person: *person, ImageKeys: keys}, nil
}
