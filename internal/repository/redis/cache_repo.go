package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/DRSN-tech/face-matcher/internal/domain"
	"github.com/DRSN-tech/face-matcher/internal/repository/redis/converter"
	"github.com/DRSN-tech/face-matcher/pkg/clients"
	"github.com/DRSN-tech/face-matcher/pkg/e"
	"github.com/DRSN-tech/face-matcher/pkg/logger"
	"github.com/jimlawless/whereami"
	r "github.com/redis/go-redis/v9"
)

type CacheRepo struct {
	client *clients.RedisClient
	conv   converter.MatchEntryConverter
	logger logger.Logger
}

func NewCacheRepo(client *clients.RedisClient, conv converter.MatchEntryConverter, logger logger.Logger) *CacheRepo {
	return &CacheRepo{
		client: client,
		conv:   conv,
		logger: logger,
	}
}

// GetMatches возвращает закэшированный результат для фото или nil при промахе.
// Повреждённые записи удаляются и считаются промахом.
func (c *CacheRepo) GetMatches(ctx context.Context, photoID int64) (*domain.CacheEntry, error) {
	key := c.matchesKey(photoID)

	data, err := c.client.Client.Get(ctx, key).Bytes()
	if err != nil {
		if errors.Is(err, r.Nil) {
			return nil, nil // cache miss
		}
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}

	model, err := c.unmarshalEntry(data)
	if err != nil {
		c.logger.Warnf("Redis unmarshal failed for %s: %v", key, e.Wrap(whereami.WhereAmI(), err))
		c.drop(ctx, key)
		return nil, nil
	}

	if model.PhotoID != photoID {
		c.logger.Warnf("Cache ID mismatch: key_id: %d, model_id: %d", photoID, model.PhotoID)
		c.drop(ctx, key)
		return nil, nil
	}

	return c.conv.ToEntity(model), nil
}

// SetMatches сохраняет результат с TTL (SET ... EX).
func (c *CacheRepo) SetMatches(ctx context.Context, entry *domain.CacheEntry, ttl time.Duration) error {
	data, err := c.marshalEntry(c.conv.ToRedisModel(entry))
	if err != nil {
		return e.Wrap(whereami.WhereAmI(), err)
	}

	if err := c.client.Client.Set(ctx, c.matchesKey(entry.PhotoID), data, ttl).Err(); err != nil {
		return e.Wrap(whereami.WhereAmI(), err)
	}

	return nil
}

// DeleteMatches удаляет результат для фото.
func (c *CacheRepo) DeleteMatches(ctx context.Context, photoID int64) error {
	if err := c.client.Client.Del(ctx, c.matchesKey(photoID)).Err(); err != nil {
		return e.Wrap(whereami.WhereAmI(), err)
	}

	return nil
}

func (c *CacheRepo) drop(ctx context.Context, key string) {
	if err := c.client.Client.Del(ctx, key).Err(); err != nil {
		c.logger.Warnf("Redis del failed: %v", e.Wrap(whereami.WhereAmI(), err))
	}
}

func (c *CacheRepo) marshalEntry(model *converter.MatchEntryRedisModel) ([]byte, error) {
	return json.Marshal(model)
}

func (c *CacheRepo) unmarshalEntry(data []byte) (*converter.MatchEntryRedisModel, error) {
	var model converter.MatchEntryRedisModel
	if err := json.Unmarshal(data, &model); err != nil {
		return nil, err
	}

	return &model, nil
}

// matchesKey возвращает Redis-ключ результата для фото
func (c *CacheRepo) matchesKey(photoID int64) string {
	return fmt.Sprintf("face-matches:%d", photoID)
}
