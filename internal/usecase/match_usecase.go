package usecase

import (
	"context"
	"errors"
	"sync/atomic"
	"time"

	"github.com/DRSN-tech/face-matcher/internal/domain"
	"github.com/DRSN-tech/face-matcher/internal/matching"
	"github.com/DRSN-tech/face-matcher/pkg/e"
	"github.com/DRSN-tech/face-matcher/pkg/logger"
	"golang.org/x/sync/errgroup"
)

// MatchUseCase находит зарегистрированных персон на фото события.
type MatchUseCase struct {
	photoRepo          PhotoRepository
	personRepo         PersonRepository
	store              *DescriptorStore
	cache              *ResultCache
	publisher          EventPublisher
	opts               matching.Options
	catalogConcurrency int
	now                Clock
	logger             logger.Logger
}

// NewMatchUC создаёт use case. publisher может быть nil, тогда события не публикуются.
func NewMatchUC(
	photoRepo PhotoRepository,
	personRepo PersonRepository,
	store *DescriptorStore,
	cache *ResultCache,
	publisher EventPublisher,
	opts matching.Options,
	catalogConcurrency int,
	logger logger.Logger,
) *MatchUseCase {
	if catalogConcurrency <= 0 {
		catalogConcurrency = 1
	}

	return &MatchUseCase{
		photoRepo:          photoRepo,
		personRepo:         personRepo,
		store:              store,
		cache:              cache,
		publisher:          publisher,
		opts:               opts,
		catalogConcurrency: catalogConcurrency,
		now:                time.Now,
		logger:             logger,
	}
}

// GetMatches возвращает персон, найденных на фото. Несуществующее фото или фото без лиц
// дают пустой список; ошибка возвращается только при сбое хранилища.
func (m *MatchUseCase) GetMatches(ctx context.Context, photoID int64) ([]domain.MatchResult, error) {
	const op = "MatchUseCase.GetMatches"

	if photoID <= 0 {
		return nil, e.Wrap(op, e.ErrInvalidPhotoID)
	}

	matches, err := m.cache.GetOrCompute(ctx, photoID, func(ctx context.Context) (*Computation, error) {
		return m.computeMatches(ctx, photoID)
	})
	if err != nil {
		return nil, e.Wrap(op, err)
	}

	return matches, nil
}

// InvalidateMatches сбрасывает закэшированный результат для фото.
func (m *MatchUseCase) InvalidateMatches(ctx context.Context, photoID int64) error {
	const op = "MatchUseCase.InvalidateMatches"

	if photoID <= 0 {
		return e.Wrap(op, e.ErrInvalidPhotoID)
	}

	if err := m.cache.Invalidate(ctx, photoID); err != nil {
		return e.Wrap(op, err)
	}

	return nil
}

func (m *MatchUseCase) computeMatches(ctx context.Context, photoID int64) (*Computation, error) {
	const op = "MatchUseCase.computeMatches"

	photo, err := m.photoRepo.GetPhoto(ctx, photoID)
	if err != nil {
		if errors.Is(err, e.ErrPhotoNotFound) {
			m.logger.Infof("photo %d not found, returning no matches", photoID)
			return &Computation{Matches: []domain.MatchResult{}, Cacheable: false}, nil
		}
		return nil, e.Wrap(op, err)
	}

	faces, err := m.store.PhotoFaceDescriptors(ctx, *photo)
	if err != nil {
		return nil, e.Wrap(op, err)
	}

	if len(faces.Faces) == 0 {
		return &Computation{Matches: []domain.MatchResult{}, Cacheable: faces.Complete}, nil
	}

	catalog, catalogComplete, err := m.loadCatalog(ctx)
	if err != nil {
		return nil, e.Wrap(op, err)
	}

	matches := matching.Match(faces.Faces, catalog, m.opts)
	for _, match := range matches {
		m.logger.Infof("photo %d: matched person %d (%s) at distance %.4f", photoID, match.PersonID, match.Name, match.Distance)
	}

	m.publishComputed(photoID, matches)

	return &Computation{Matches: matches, Cacheable: faces.Complete && catalogComplete}, nil
}

// loadCatalog параллельно собирает дескрипторы всех персон.
func (m *MatchUseCase) loadCatalog(ctx context.Context) ([]domain.CatalogEntry, bool, error) {
	const op = "MatchUseCase.loadCatalog"

	persons, err := m.personRepo.ListPersons(ctx)
	if err != nil {
		return nil, false, e.Wrap(op, err)
	}

	var (
		entries  = make([]domain.CatalogEntry, len(persons))
		complete atomic.Bool
	)
	complete.Store(true)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(m.catalogConcurrency)
	for i, person := range persons {
		g.Go(func() error {
			res, err := m.store.PersonDescriptors(gctx, person)
			if err != nil {
				return err
			}
			if !res.Complete {
				complete.Store(false)
			}

			entries[i] = domain.CatalogEntry{
				PersonID:    person.ID,
				Name:        person.Name,
				Descriptors: res.Descriptors,
			}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, false, e.Wrap(op, err)
	}

	return entries, complete.Load(), nil
}

// publishComputed отправляет событие в фоне, не задерживая ответ.
func (m *MatchUseCase) publishComputed(photoID int64, matches []domain.MatchResult) {
	if m.publisher == nil {
		return
	}

	event := NewMatchComputedEvent(photoID, matches, m.now())
	go func() {
		bgCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		if err := m.publisher.PublishMatchComputed(bgCtx, event); err != nil {
			m.logger.Warnf("failed to publish match event for photo %d: %v", photoID, e.Wrap("MatchUseCase.publishComputed", err))
		}
	}()
}
