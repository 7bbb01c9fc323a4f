package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/potatix/backend/internal/models"
)

// CoursePageCache stores rendered public course pages keyed by slug
type CoursePageCache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewCoursePageCache creates a course page cache with the given entry TTL
func NewCoursePageCache(client *redis.Client, ttl time.Duration) *CoursePageCache {
	return &CoursePageCache{client: client, ttl: ttl}
}

func pageKey(slug string) string {
	return "course:slug:" + slug
}

// GetPage returns the cached page for a slug, or nil on a cache miss
func (c *CoursePageCache) GetPage(ctx context.Context, slug string) (*models.PublicCourse, error) {
	val, err := c.client.Get(ctx, pageKey(slug)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to read cached page: %w", err)
	}

	var page models.PublicCourse
	if err := json.Unmarshal(val, &page); err != nil {
		return nil, fmt.Errorf("failed to decode cached page: %w", err)
	}

	return &page, nil
}

// SetPage stores the rendered page for a slug
func (c *CoursePageCache) SetPage(ctx context.Context, slug string, page *models.PublicCourse) error {
	data, err := json.Marshal(page)
	if err != nil {
		return fmt.Errorf("failed to encode page: %w", err)
	}

	if err := c.client.Set(ctx, pageKey(slug), data, c.ttl).Err(); err != nil {
		return fmt.Errorf("failed to store cached page: %w", err)
	}

	return nil
}

// Invalidate removes the cached page for a slug
func (c *CoursePageCache) Invalidate(ctx context.Context, slug string) error {
	if err := c.client.Del(ctx, pageKey(slug)).Err(); err != nil {
		return fmt.Errorf("failed to invalidate cached page: %w", err)
	}
	return nil
}
