package usecase

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"github.com/DRSN-tech/face-matcher/internal/domain"
	"github.com/DRSN-tech/face-matcher/pkg/e"
)

var errStore = errors.New("connection refused")

type fakeDescRepo struct {
	mu          sync.Mutex
	persons     map[int64]*StoredPersonDescriptors
	photos      map[int64]*StoredPhotoDescriptors
	getErr      error
	saveErr     error
	beforeSave  func()
	personSaves int
	photoSaves  int
}

func newFakeDescRepo() *fakeDescRepo {
	return &fakeDescRepo{
		persons: make(map[int64]*StoredPersonDescriptors),
		photos:  make(map[int64]*StoredPhotoDescriptors),
	}
}

func (r *fakeDescRepo) GetPersonDescriptors(_ context.Context, personID int64) (*StoredPersonDescriptors, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.getErr != nil {
		return nil, r.getErr
	}
	if s, ok := r.persons[personID]; ok {
		return &StoredPersonDescriptors{Computed: true, Descriptors: append([]domain.Embedding(nil), s.Descriptors...)}, nil
	}
	return &StoredPersonDescriptors{}, nil
}

func (r *fakeDescRepo) SavePersonDescriptors(_ context.Context, personID int64, records []PersonDescriptorRecord) (bool, error) {
	if r.beforeSave != nil {
		r.beforeSave()
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.saveErr != nil {
		return false, r.saveErr
	}
	if _, ok := r.persons[personID]; ok {
		return false, nil
	}
	vectors := make([]domain.Embedding, len(records))
	for i, rec := range records {
		vectors[i] = rec.Vector
	}
	r.persons[personID] = &StoredPersonDescriptors{Computed: true, Descriptors: vectors}
	r.personSaves++
	return true, nil
}

func (r *fakeDescRepo) GetPhotoDescriptors(_ context.Context, photoID int64) (*StoredPhotoDescriptors, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.getErr != nil {
		return nil, r.getErr
	}
	if s, ok := r.photos[photoID]; ok {
		return &StoredPhotoDescriptors{Computed: true, Faces: append([]domain.FaceDescriptor(nil), s.Faces...)}, nil
	}
	return &StoredPhotoDescriptors{}, nil
}

func (r *fakeDescRepo) SavePhotoDescriptors(_ context.Context, photoID int64, faces []domain.FaceDescriptor) (bool, error) {
	if r.beforeSave != nil {
		r.beforeSave()
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.saveErr != nil {
		return false, r.saveErr
	}
	if _, ok := r.photos[photoID]; ok {
		return false, nil
	}
	r.photos[photoID] = &StoredPhotoDescriptors{Computed: true, Faces: append([]domain.FaceDescriptor(nil), faces...)}
	r.photoSaves++
	return true, nil
}

type fakePersonRepo struct {
	persons []domain.Person
	images  map[int64][]domain.PersonImage
	err     error
}

func (r *fakePersonRepo) ListPersons(context.Context) ([]domain.Person, error) {
	if r.err != nil {
		return nil, r.err
	}
	return r.persons, nil
}

func (r *fakePersonRepo) GetPerson(_ context.Context, personID int64) (*domain.Person, error) {
	if r.err != nil {
		return nil, r.err
	}
	for _, p := range r.persons {
		if p.ID == personID {
			return &p, nil
		}
	}
	return nil, e.ErrPersonNotFound
}

func (r *fakePersonRepo) ListPersonImages(_ context.Context, personID int64) ([]domain.PersonImage, error) {
	if r.err != nil {
		return nil, r.err
	}
	return r.images[personID], nil
}

type fakePhotoRepo struct {
	photos map[int64]domain.Photo
	err    error
	calls  atomic.Int32
}

func (r *fakePhotoRepo) GetPhoto(_ context.Context, photoID int64) (*domain.Photo, error) {
	r.calls.Add(1)
	if r.err != nil {
		return nil, r.err
	}
	p, ok := r.photos[photoID]
	if !ok {
		return nil, e.ErrPhotoNotFound
	}
	return &p, nil
}

// fakeImages отдаёт в качестве содержимого сам ключ объекта.
type fakeImages struct {
	missing map[string]bool
	errs    map[string]error
}

func (f *fakeImages) LoadImage(_ context.Context, key string) (*domain.Image, error) {
	if f.missing[key] {
		return nil, e.Wrap(key, e.ErrImageNotFound)
	}
	if err, ok := f.errs[key]; ok {
		return nil, err
	}
	return domain.NewImage(key, []byte(key), "image/jpeg"), nil
}

func (f *fakeImages) LoadImages(ctx context.Context, keys []string) []LoadImageRes {
	res := make([]LoadImageRes, len(keys))
	for i, key := range keys {
		img, err := f.LoadImage(ctx, key)
		res[i] = NewLoadImageRes(key, img, err)
	}
	return res
}

// fakeExtractor сопоставляет содержимое изображения с заранее заданными лицами.
type fakeExtractor struct {
	faces map[string][]domain.DetectedFace
	fail  map[string]bool
	delay time.Duration
	calls atomic.Int32
}

func (f *fakeExtractor) Extract(ctx context.Context, image []byte) ([]domain.DetectedFace, error) {
	f.calls.Add(1)
	if f.delay > 0 {
		select {
		case <-time.After(f.delay):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if f.fail[string(image)] {
		return nil, e.ErrExtractionFailed
	}
	return f.faces[string(image)], nil
}

type fakeCacheRepo struct {
	mu      sync.Mutex
	entries map[int64]domain.CacheEntry
	getErr  error
	setErr  error
	sets    int
}

func newFakeCacheRepo() *fakeCacheRepo {
	return &fakeCacheRepo{entries: make(map[int64]domain.CacheEntry)}
}

func (c *fakeCacheRepo) GetMatches(_ context.Context, photoID int64) (*domain.CacheEntry, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.getErr != nil {
		return nil, c.getErr
	}
	entry, ok := c.entries[photoID]
	if !ok {
		return nil, nil
	}
	return &entry, nil
}

func (c *fakeCacheRepo) SetMatches(_ context.Context, entry *domain.CacheEntry, _ time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.setErr != nil {
		return c.setErr
	}
	c.entries[entry.PhotoID] = *entry
	c.sets++
	return nil
}

func (c *fakeCacheRepo) DeleteMatches(_ context.Context, photoID int64) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.entries, photoID)
	return nil
}

type fakePublisher struct {
	events chan *MatchComputedEvent
	err    error
}

func newFakePublisher() *fakePublisher {
	return &fakePublisher{events: make(chan *MatchComputedEvent, 16)}
}

func (p *fakePublisher) PublishMatchComputed(_ context.Context, event *MatchComputedEvent) error {
	p.events <- event
	return p.err
}

type manualClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *manualClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *manualClock) Set(t time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = t
}
