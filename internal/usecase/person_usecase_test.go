package usecase

import (
	"context"
	"testing"

	"github.com/DRSN-tech/face-matcher/internal/domain"
	"github.com/DRSN-tech/face-matcher/pkg/e"
	"github.com/DRSN-tech/face-matcher/pkg/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newPersonFixture() (*fakePersonRepo, *PersonUseCase) {
	repo := &fakePersonRepo{
		persons: []domain.Person{{ID: 1, Name: "Ann"}, {ID: 2, Name: "Bob"}},
		images: map[int64][]domain.PersonImage{
			1: {{ID: 11, PersonID: 1, ImageKey: "persons/ann-1.jpg"}, {ID: 12, PersonID: 1, ImageKey: "persons/ann-2.jpg"}},
		},
	}
	return repo, NewPersonUC(repo, logger.Nop{})
}

func TestListPersons(t *testing.T) {
	_, uc := newPersonFixture()

	persons, err := uc.ListPersons(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []domain.Person{{ID: 1, Name: "Ann"}, {ID: 2, Name: "Bob"}}, persons)
}

func TestListPersons_EmptyCatalog(t *testing.T) {
	uc := NewPersonUC(&fakePersonRepo{}, logger.Nop{})

	persons, err := uc.ListPersons(context.Background())
	require.NoError(t, err)
	assert.NotNil(t, persons)
	assert.Empty(t, persons)
}

func TestGetPerson(t *testing.T) {
	_, uc := newPersonFixture()

	res, err := uc.GetPerson(context.Background(), 1)
	require.NoError(t, err)
	assert.Equal(t, "Ann", res.Person.Name)
	assert.Equal(t, []string{"persons/ann-1.jpg", "persons/ann-2.jpg"}, res.ImageKeys)

	res, err = uc.GetPerson(context.Background(), 2)
	require.NoError(t, err)
	assert.Empty(t, res.ImageKeys)
}

func TestGetPerson_Errors(t *testing.T) {
	repo, uc := newPersonFixture()

	_, err := uc.GetPerson(context.Background(), 0)
	assert.ErrorIs(t, err, e.ErrInvalidPersonID)

	_, err = uc.GetPerson(context.Background(), 3)
	assert.ErrorIs(t, err, e.ErrPersonNotFound)

	repo.err = errStore
	_, err = uc.GetPerson(context.Background(), 1)
	assert.ErrorIs(t, err, errStore)
}
