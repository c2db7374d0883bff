package usecase

import (
	"context"
	"errors"

	"github.com/DRSN-tech/face-matcher/internal/domain"
	"github.com/DRSN-tech/face-matcher/pkg/e"
	"github.com/DRSN-tech/face-matcher/pkg/logger"
	"golang.org/x/sync/singleflight"
)

// DescriptorStore лениво вычисляет и сохраняет дескрипторы персон и фото.
// Для каждого объекта дескрипторы вычисляются один раз: первая успешная запись
// побеждает и больше не перезаписывается.
type DescriptorStore struct {
	descRepo   DescriptorRepository
	personRepo PersonRepository
	images     ImagesInfra
	extractor  FaceExtractorInfra
	vectorSize int
	group      singleflight.Group
	logger     logger.Logger
}

func NewDescriptorStore(
	descRepo DescriptorRepository,
	personRepo PersonRepository,
	images ImagesInfra,
	extractor FaceExtractorInfra,
	vectorSize int,
	logger logger.Logger,
) *DescriptorStore {
	return &DescriptorStore{
		descRepo:   descRepo,
		personRepo: personRepo,
		images:     images,
		extractor:  extractor,
		vectorSize: vectorSize,
		logger:     logger,
	}
}

// PersonDescriptors возвращает дескрипторы персоны, при необходимости вычисляя их
// по всем эталонным фото. Ошибка возвращается только при сбое хранилища.
func (s *DescriptorStore) PersonDescriptors(ctx context.Context, person domain.Person) (*PersonDescriptorsRes, error) {
	const op = "DescriptorStore.PersonDescriptors"
	unit := domain.DescriptorUnit{Kind: domain.UnitPerson, ID: person.ID}

	stored, err := s.descRepo.GetPersonDescriptors(ctx, person.ID)
	if err != nil {
		return nil, e.Wrap(op, err)
	}
	if stored.Computed {
		return &PersonDescriptorsRes{Descriptors: s.validVectors(unit, stored.Descriptors), Complete: true}, nil
	}

	v, err, _ := s.group.Do(unit.String(), func() (any, error) {
		return s.computePerson(context.WithoutCancel(ctx), person)
	})
	if err != nil {
		return nil, e.Wrap(op, err)
	}

	return v.(*PersonDescriptorsRes), nil
}

// PhotoFaceDescriptors возвращает дескрипторы лиц на фото, при необходимости вычисляя их.
// Отсутствующее изображение сохраняется как фото без лиц. Сбой сервиса детекции
// даёт пустой результат с Complete == false, и фото будет обработано повторно.
func (s *DescriptorStore) PhotoFaceDescriptors(ctx context.Context, photo domain.Photo) (*PhotoDescriptorsRes, error) {
	const op = "DescriptorStore.PhotoFaceDescriptors"
	unit := domain.DescriptorUnit{Kind: domain.UnitPhoto, ID: photo.ID}

	stored, err := s.descRepo.GetPhotoDescriptors(ctx, photo.ID)
	if err != nil {
		return nil, e.Wrap(op, err)
	}
	if stored.Computed {
		return &PhotoDescriptorsRes{Faces: s.validFaces(unit, stored.Faces), Complete: true}, nil
	}

	v, err, _ := s.group.Do(unit.String(), func() (any, error) {
		return s.computePhoto(context.WithoutCancel(ctx), photo)
	})
	if err != nil {
		return nil, e.Wrap(op, err)
	}

	return v.(*PhotoDescriptorsRes), nil
}

func (s *DescriptorStore) computePhoto(ctx context.Context, photo domain.Photo) (*PhotoDescriptorsRes, error) {
	const op = "DescriptorStore.computePhoto"
	unit := domain.DescriptorUnit{Kind: domain.UnitPhoto, ID: photo.ID}

	// Пока мы ждали своей очереди, другой вызов мог уже всё сохранить.
	stored, err := s.descRepo.GetPhotoDescriptors(ctx, photo.ID)
	if err != nil {
		return nil, e.Wrap(op, err)
	}
	if stored.Computed {
		return &PhotoDescriptorsRes{Faces: s.validFaces(unit, stored.Faces), Complete: true}, nil
	}

	detected, err := s.extract(ctx, photo.ImageKey)
	switch {
	case imageUnavailable(err):
		// Отсутствующее или нечитаемое изображение равносильно фото без лиц
		s.logger.Warnf("image of %s (key %s) is unavailable, storing zero faces: %v", unit, photo.ImageKey, err)
		detected = nil
	case err != nil:
		s.logger.Warnf("extraction failed for %s (key %s): %v", unit, photo.ImageKey, e.Wrap(op, err))
		return &PhotoDescriptorsRes{Faces: []domain.FaceDescriptor{}, Complete: false}, nil
	}

	faces := make([]domain.FaceDescriptor, 0, len(detected))
	for _, f := range detected {
		if err := f.Vector.Validate(s.vectorSize); err != nil {
			s.logger.Warnf("dropping extracted face of %s: %v", unit, err)
			continue
		}
		faces = append(faces, domain.FaceDescriptor{Vector: f.Vector, Box: f.Box})
	}

	saved, err := s.descRepo.SavePhotoDescriptors(ctx, photo.ID, faces)
	if err != nil {
		return nil, e.Wrap(op, err)
	}

	if !saved {
		s.logger.Debugf("descriptors of %s were stored concurrently, using stored copy", unit)
		stored, err := s.descRepo.GetPhotoDescriptors(ctx, photo.ID)
		if err != nil {
			return nil, e.Wrap(op, err)
		}
		return &PhotoDescriptorsRes{Faces: s.validFaces(unit, stored.Faces), Complete: true}, nil
	}

	s.logger.Infof("computed %d face descriptor(s) for %s", len(faces), unit)
	return &PhotoDescriptorsRes{Faces: faces, Complete: true}, nil
}

func (s *DescriptorStore) computePerson(ctx context.Context, person domain.Person) (*PersonDescriptorsRes, error) {
	const op = "DescriptorStore.computePerson"
	unit := domain.DescriptorUnit{Kind: domain.UnitPerson, ID: person.ID}

	stored, err := s.descRepo.GetPersonDescriptors(ctx, person.ID)
	if err != nil {
		return nil, e.Wrap(op, err)
	}
	if stored.Computed {
		return &PersonDescriptorsRes{Descriptors: s.validVectors(unit, stored.Descriptors), Complete: true}, nil
	}

	personImages, err := s.personRepo.ListPersonImages(ctx, person.ID)
	if err != nil {
		return nil, e.Wrap(op, err)
	}

	// Без эталонных фото объект не помечается: фото могут добавить позже.
	if len(personImages) == 0 {
		return &PersonDescriptorsRes{Descriptors: []domain.Embedding{}, Complete: true}, nil
	}

	keys := make([]string, len(personImages))
	imageIDs := make(map[string]int64, len(personImages))
	for i, img := range personImages {
		keys[i] = img.ImageKey
		imageIDs[img.ImageKey] = img.ID
	}

	var (
		records   []PersonDescriptorRecord
		succeeded int
		failed    int
	)
	for _, loaded := range s.images.LoadImages(ctx, keys) {
		if imageUnavailable(loaded.Err) {
			succeeded++
			s.logger.Warnf("enrollment image %s of %s is unavailable, no faces taken from it: %v", loaded.Key, unit, loaded.Err)
			continue
		}
		if loaded.Err != nil {
			failed++
			s.logger.Warnf("failed to load enrollment image %s of %s: %v", loaded.Key, unit, loaded.Err)
			continue
		}

		detected, err := s.extractor.Extract(ctx, loaded.Image.Bytes)
		if err != nil {
			failed++
			s.logger.Warnf("extraction failed for enrollment image %s of %s: %v", loaded.Key, unit, err)
			continue
		}
		succeeded++

		for _, f := range detected {
			if err := f.Vector.Validate(s.vectorSize); err != nil {
				s.logger.Warnf("dropping extracted face of %s: %v", unit, err)
				continue
			}
			records = append(records, PersonDescriptorRecord{PersonImageID: imageIDs[loaded.Key], Vector: f.Vector})
		}
	}

	if succeeded == 0 {
		return &PersonDescriptorsRes{Descriptors: []domain.Embedding{}, Complete: false}, nil
	}

	saved, err := s.descRepo.SavePersonDescriptors(ctx, person.ID, records)
	if err != nil {
		return nil, e.Wrap(op, err)
	}

	if !saved {
		stored, err := s.descRepo.GetPersonDescriptors(ctx, person.ID)
		if err != nil {
			return nil, e.Wrap(op, err)
		}
		return &PersonDescriptorsRes{Descriptors: s.validVectors(unit, stored.Descriptors), Complete: true}, nil
	}

	vectors := make([]domain.Embedding, len(records))
	for i, r := range records {
		vectors[i] = r.Vector
	}

	if failed > 0 {
		s.logger.Warnf("%s: %d of %d enrollment image(s) failed and will not be retried", unit, failed, len(personImages))
	}
	s.logger.Infof("computed %d descriptor(s) for %s", len(vectors), unit)

	return &PersonDescriptorsRes{Descriptors: vectors, Complete: true}, nil
}

// extract загружает изображение и передаёт его сервису детекции.
func (s *DescriptorStore) extract(ctx context.Context, key string) ([]domain.DetectedFace, error) {
	img, err := s.images.LoadImage(ctx, key)
	if err != nil {
		return nil, err
	}

	return s.extractor.Extract(ctx, img.Bytes)
}

// imageUnavailable сообщает, что содержимое изображения не найдено или не может быть прочитано.
// В отличие от сбоя сервиса детекции, повтор такой ошибки ничего не изменит.
func imageUnavailable(err error) bool {
	return errors.Is(err, e.ErrImageNotFound) ||
		errors.Is(err, e.ErrImageTooLarge) ||
		errors.Is(err, e.ErrUnsupportedMediaType)
}

// validVectors отбрасывает повреждённые записи, не прерывая сопоставление.
func (s *DescriptorStore) validVectors(unit domain.DescriptorUnit, vectors []domain.Embedding) []domain.Embedding {
	res := make([]domain.Embedding, 0, len(vectors))
	for _, v := range vectors {
		if err := v.Validate(s.vectorSize); err != nil {
			s.logger.Warnf("skipping malformed stored descriptor of %s: %v", unit, err)
			continue
		}
		res = append(res, v)
	}

	return res
}

func (s *DescriptorStore) validFaces(unit domain.DescriptorUnit, faces []domain.FaceDescriptor) []domain.FaceDescriptor {
	res := make([]domain.FaceDescriptor, 0, len(faces))
	for _, f := range faces {
		if err := f.Vector.Validate(s.vectorSize); err != nil {
			s.logger.Warnf("skipping malformed stored descriptor of %s: %v", unit, err)
			continue
		}
		res = append(res, f)
	}

	return res
}
