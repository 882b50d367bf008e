package lessons

import (
	"context"
	"encoding/json"
	"log"
	"time"

	"github.com/NicolasMarrai/healthmed/internal/pkg/cache"
)

const (
	cacheKeyLessons = "lessons:list"
	cacheExpiration = 5 * time.Minute
)

// ListLessons returns the lesson list, served from Redis when fresh. Cache
// failures fall through to a live CMS fetch; a successful fetch refreshes
// the cache best-effort.
func ListLessons(ctx context.Context, client *Client) ([]Lesson, error) {
	if cached, err := cache.Get(cacheKeyLessons); err == nil && cached != "" {
		var list []Lesson
		if err := json.Unmarshal([]byte(cached), &list); err == nil {
			return list, nil
		}
		// stale/corrupt entry, drop it and refetch
		_ = cache.Delete(cacheKeyLessons)
	}

	list, err := client.FetchLessons(ctx)
	if err != nil {
		return nil, err
	}

	if payload, err := json.Marshal(list); err == nil {
		if err := cache.Set(cacheKeyLessons, payload, cacheExpiration); err != nil {
			log.Printf("Warning: could not cache lesson list: %v", err)
		}
	}
	return list, nil
}

// InvalidateCache drops the cached lesson list, e.g. after a CMS publish.
func InvalidateCache() {
	_ = cache.Delete(cacheKeyLessons)
}
