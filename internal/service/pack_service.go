package service

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/wavenote-dev/community-api/internal/dto"
	"github.com/wavenote-dev/community-api/internal/models"
	appErrors "github.com/wavenote-dev/community-api/pkg/errors"
)

type packStore interface {
	FetchCategories(ctx context.Context) ([]string, error)
	FetchByCategory(ctx context.Context, category string) ([]models.BeatmapPack, error)
}

// PackService serves the beatmap pack listing. Listings change rarely, so
// results are cached per category.
type PackService struct {
	repo     packStore
	cache    profileCache
	cacheTTL time.Duration
	logger   *zap.Logger
	metrics  *MetricsService
}

// NewPackService constructs the service.
func NewPackService(repo packStore, cache profileCache, cacheTTL time.Duration, logger *zap.Logger) *PackService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &PackService{repo: repo, cache: cache, cacheTTL: cacheTTL, logger: logger}
}

// UseMetrics attaches cache hit/miss instrumentation. Optional.
func (s *PackService) UseMetrics(metrics *MetricsService) {
	s.metrics = metrics
}

// Listing returns the categories plus the packs under the selected category.
// An empty category selects the first available one.
func (s *PackService) Listing(ctx context.Context, category string) (*dto.PackListing, error) {
	cacheKey := fmt.Sprintf("packs:%s", category)
	if s.cache != nil {
		var cached dto.PackListing
		start := time.Now()
		err := s.cache.Get(ctx, cacheKey, &cached)
		s.metrics.RecordCacheOperation(err == nil, time.Since(start))
		if err == nil {
			return &cached, nil
		}
	}

	categories, err := s.repo.FetchCategories(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load pack categories")
	}

	if category == "" && len(categories) > 0 {
		category = categories[0]
	}

	listing := &dto.PackListing{Categories: categories, Category: category}
	if category != "" {
		packs, err := s.repo.FetchByCategory(ctx, category)
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load packs")
		}
		for _, pack := range packs {
			listing.Packs = append(listing.Packs, dto.PackSummary{
				ID:           pack.ID,
				Name:         pack.Name,
				Creator:      pack.Creator,
				DownloadLink: pack.DownloadLink,
			})
		}
	}

	if s.cache != nil {
		if err := s.cache.Set(ctx, cacheKey, listing, s.cacheTTL); err != nil {
			s.logger.Warn("failed to cache pack listing", zap.String("category", category), zap.Error(err))
		}
	}

	return listing, nil
}
