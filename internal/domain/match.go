package domain

import "time"

// CatalogEntry — персона с её дескрипторами, участвует в сопоставлении.
type CatalogEntry struct {
	PersonID    int64
	Name        string
	Descriptors []Embedding
}

// MatchResult — персона, опознанная на фото.
type MatchResult struct {
	PersonID int64   `json:"personId"`
	Name     string  `json:"name"`
	Distance float64 `json:"distance"`
	Box      Box     `json:"box"`
}

// CacheEntry — закэшированный результат сопоставления для одного фото.
type CacheEntry struct {
	PhotoID    int64
	Matches    []MatchResult
	ComputedAt time.Time
	ExpiresAt  time.Time
}

// Expired сообщает, истёк ли срок жизни записи к моменту now.
func (c *CacheEntry) Expired(now time.Time) bool {
	return !now.Before(c.ExpiresAt)
}
