package usecase

import (
	"context"

	"github.com/DRSN-tech/face-matcher/internal/domain"
)

type MatchUC interface {
	GetMatches(ctx context.Context, photoID int64) ([]domain.MatchResult, error)
	InvalidateMatches(ctx context.Context, photoID int64) error
}

type PersonUC interface {
	ListPersons(ctx context.Context) ([]domain.Person, error)
	GetPerson(ctx context.Context, personID int64) (*PersonDetailsRes, error)
}
