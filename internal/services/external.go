package services

import (
	"context"
	"time"

	"github.com/potatix/backend/internal/models"
	"go.uber.org/zap"
)

// VideoHost is the external video hosting collaborator. Both operations are
// fallible and callers treat them as best-effort: a failure is logged and
// never blocks the primary database mutation.
type VideoHost interface {
	// ResolveAssetID resolves an opaque playback reference to the asset ID
	// it belongs to
	ResolveAssetID(ctx context.Context, ref string) (string, error)
	// DeleteAsset deletes an asset from the video host
	DeleteAsset(ctx context.Context, assetID string) error
}

// CoursePageCache caches the public course page keyed by course slug.
// GetPage returns (nil, nil) on a cache miss.
type CoursePageCache interface {
	GetPage(ctx context.Context, slug string) (*models.PublicCourse, error)
	SetPage(ctx context.Context, slug string, page *models.PublicCourse) error
	Invalidate(ctx context.Context, slug string) error
}

const invalidateTimeout = 5 * time.Second

// invalidateCoursePage drops the cached public page for a slug after a
// successful mutation. Fire-and-forget: runs in its own goroutine with a
// fresh context, failures are logged and never surface to the caller.
func invalidateCoursePage(cache CoursePageCache, logger *zap.Logger, slug string) {
	if slug == "" {
		return
	}
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), invalidateTimeout)
		defer cancel()
		if err := cache.Invalidate(ctx, slug); err != nil {
			logger.Warn("failed to invalidate course page cache",
				zap.String("slug", slug),
				zap.Error(err),
			)
		}
	}()
}

// cleanupVideoAsset resolves and deletes the external video asset behind a
// playback reference. Success and failure are logged per asset; the returned
// error lets callers report the outcome but must not abort their own mutation.
func cleanupVideoAsset(ctx context.Context, host VideoHost, logger *zap.Logger, ref string) error {
	assetID, err := host.ResolveAssetID(ctx, ref)
	if err != nil {
		logger.Warn("failed to resolve video asset",
			zap.String("video_ref", ref),
			zap.Error(err),
		)
		return err
	}

	if err := host.DeleteAsset(ctx, assetID); err != nil {
		logger.Warn("failed to delete video asset",
			zap.String("video_ref", ref),
			zap.String("asset_id", assetID),
			zap.Error(err),
		)
		return err
	}

	logger.Info("deleted video asset",
		zap.String("video_ref", ref),
		zap.String("asset_id", assetID),
	)
	return nil
}
