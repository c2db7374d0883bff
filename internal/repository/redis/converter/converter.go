package converter

import "github.com/DRSN-tech/face-matcher/internal/domain"

// MatchEntryConverter преобразует domain.CacheEntry в модель Redis и обратно.
type MatchEntryConverter interface {
	ToRedisModel(entity *domain.CacheEntry) *MatchEntryRedisModel
	ToEntity(model *MatchEntryRedisModel) *domain.CacheEntry
}

type MatchEntryConverterImpl struct{}

func NewMatchEntryConverter() *MatchEntryConverterImpl {
	return &MatchEntryConverterImpl{}
}

func (MatchEntryConverterImpl) ToRedisModel(entity *domain.CacheEntry) *MatchEntryRedisModel {
	if entity == nil {
		return nil
	}

	matches := make([]MatchRedisModel, len(entity.Matches))
	for i, m := range entity.Matches {
		matches[i] = MatchRedisModel{
			PersonID: m.PersonID,
			Name:     m.Name,
			Distance: m.Distance,
			Box:      BoxRedisModel(m.Box),
		}
	}

	return &MatchEntryRedisModel{
		PhotoID:    entity.PhotoID,
		Matches:    matches,
		ComputedAt: entity.ComputedAt,
		ExpiresAt:  entity.ExpiresAt,
	}
}

func (MatchEntryConverterImpl) ToEntity(model *MatchEntryRedisModel) *domain.CacheEntry {
	if model == nil {
		return nil
	}

	matches := make([]domain.MatchResult, len(model.Matches))
	for i, m := range model.Matches {
		matches[i] = domain.MatchResult{
			PersonID: m.PersonID,
			Name:     m.Name,
			Distance: m.Distance,
			Box:      domain.Box(m.Box),
		}
	}

	return &domain.CacheEntry{
		PhotoID:    model.PhotoID,
		Matches:    matches,
		ComputedAt: model.ComputedAt,
		ExpiresAt:  model.ExpiresAt,
	}
}
