package http

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"testing"

	"github.com/DRSN-tech/face-matcher/internal/domain"
	"github.com/DRSN-tech/face-matcher/internal/usecase"
	"github.com/DRSN-tech/face-matcher/pkg/e"
	"github.com/DRSN-tech/face-matcher/pkg/logger"
	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakePersonUC struct {
	persons map[int64]*usecase.PersonDetailsRes
	err     error
}

func (f *fakePersonUC) ListPersons(context.Context) ([]domain.Person, error) {
	if f.err != nil {
		return nil, f.err
	}
	res := []domain.Person{}
	for id := int64(1); id <= int64(len(f.persons)); id++ {
		if p, ok := f.persons[id]; ok {
			res = append(res, p.Person)
		}
	}
	return res, nil
}

func (f *fakePersonUC) GetPerson(_ context.Context, personID int64) (*usecase.PersonDetailsRes, error) {
	if f.err != nil {
		return nil, f.err
	}
	p, ok := f.persons[personID]
	if !ok {
		return nil, e.Wrap("PersonUseCase.GetPerson", e.ErrPersonNotFound)
	}
	return p, nil
}

func newPersonTestRouter(uc *fakePersonUC) http.Handler {
	mux := chi.NewRouter()
	NewRouter(mux, logger.Nop{}).Init(&fakeMatchUC{}, uc)
	return mux
}

func catalog() *fakePersonUC {
	return &fakePersonUC{persons: map[int64]*usecase.PersonDetailsRes{
		1: {Person: domain.Person{ID: 1, Name: "Ann"}, ImageKeys: []string{"persons/ann-1.jpg", "persons/ann-2.jpg"}},
		2: {Person: domain.Person{ID: 2, Name: "Bob"}, ImageKeys: []string{}},
	}}
}

func TestListPersons(t *testing.T) {
	rec := do(t, newPersonTestRouter(catalog()), http.MethodGet, "/api/v1/persons")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `[{"id":1,"name":"Ann"},{"id":2,"name":"Bob"}]`, rec.Body.String())
}

func TestListPersons_EmptyIsArray(t *testing.T) {
	rec := do(t, newPersonTestRouter(&fakePersonUC{}), http.MethodGet, "/api/v1/persons")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `[]`, rec.Body.String())
}

func TestGetPerson(t *testing.T) {
	h := newPersonTestRouter(catalog())

	rec := do(t, h, http.MethodGet, "/api/v1/persons/1")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"id":1,"name":"Ann","images":["persons/ann-1.jpg","persons/ann-2.jpg"]}`, rec.Body.String())

	rec = do(t, h, http.MethodGet, "/api/v1/persons/2")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"id":2,"name":"Bob","images":[]}`, rec.Body.String())
}

func TestGetPerson_NotFound(t *testing.T) {
	rec := do(t, newPersonTestRouter(catalog()), http.MethodGet, "/api/v1/persons/404")
	require.Equal(t, http.StatusNotFound, rec.Code)

	var body ErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, http.StatusNotFound, body.Code)
	assert.Equal(t, e.ErrPersonNotFound.Error(), body.Message)
}

func TestGetPerson_InvalidID(t *testing.T) {
	h := newPersonTestRouter(catalog())

	for _, path := range []string{"/api/v1/persons/abc", "/api/v1/persons/0", "/api/v1/persons/-1"} {
		t.Run(path, func(t *testing.T) {
			rec := do(t, h, http.MethodGet, path)
			require.Equal(t, http.StatusBadRequest, rec.Code)
			assert.Contains(t, rec.Body.String(), e.ErrInvalidPersonID.Error())
		})
	}
}

func TestPersons_StoreFailure(t *testing.T) {
	h := newPersonTestRouter(&fakePersonUC{err: errors.New("db down")})

	for _, path := range []string{"/api/v1/persons", "/api/v1/persons/1"} {
		rec := do(t, h, http.MethodGet, path)
		assert.Equal(t, http.StatusInternalServerError, rec.Code, path)
		assert.NotContains(t, rec.Body.String(), "db down")
	}
}
