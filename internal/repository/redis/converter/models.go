package converter

import "time"

// MatchEntryRedisModel — закэшированный результат сопоставления для фото.
type MatchEntryRedisModel struct {
	PhotoID    int64             `json:"photo_id"`
	Matches    []MatchRedisModel `json:"matches"`
	ComputedAt time.Time         `json:"computed_at"`
	ExpiresAt  time.Time         `json:"expires_at"`
}

type MatchRedisModel struct {
	PersonID int64         `json:"person_id"`
	Name     string        `json:"name"`
	Distance float64       `json:"distance"`
	Box      BoxRedisModel `json:"box"`
}

type BoxRedisModel struct {
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}
