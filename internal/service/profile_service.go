package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/wavenote-dev/community-api/internal/dto"
	"github.com/wavenote-dev/community-api/internal/models"
	appErrors "github.com/wavenote-dev/community-api/pkg/errors"
)

type profileUserStore interface {
	FindByID(ctx context.Context, id int) (*models.User, error)
}

type profileSetStore interface {
	FetchByCreator(ctx context.Context, creatorID int) ([]models.Beatmapset, error)
}

type profilePostStore interface {
	CountByUser(ctx context.Context, userID int) (int, error)
}

type profileNominationStore interface {
	FetchByUserAndServer(ctx context.Context, userID, server int) ([]models.Nomination, error)
}

type profileCache interface {
	Get(ctx context.Context, key string, dest interface{}) error
	Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error
}

// ProfileService assembles the public profile page data for a user.
type ProfileService struct {
	users       profileUserStore
	sets        profileSetStore
	posts       profilePostStore
	nominations profileNominationStore
	cache       profileCache
	cacheTTL    time.Duration
	logger      *zap.Logger
	metrics     *MetricsService
}

// NewProfileService constructs the service.
func NewProfileService(users profileUserStore, sets profileSetStore, posts profilePostStore, nominations profileNominationStore, cache profileCache, cacheTTL time.Duration, logger *zap.Logger) *ProfileService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ProfileService{
		users:       users,
		sets:        sets,
		posts:       posts,
		nominations: nominations,
		cache:       cache,
		cacheTTL:    cacheTTL,
		logger:      logger,
	}
}

// UseMetrics attaches cache hit/miss instrumentation. Optional.
func (s *ProfileService) UseMetrics(metrics *MetricsService) {
	s.metrics = metrics
}

func profileCacheKey(userID int) string {
	return fmt.Sprintf("profile:%d", userID)
}

// GetProfile returns the cached or freshly assembled profile of a user.
func (s *ProfileService) GetProfile(ctx context.Context, userID int) (*dto.UserProfile, error) {
	cacheKey := profileCacheKey(userID)
	if s.cache != nil {
		var cached dto.UserProfile
		start := time.Now()
		err := s.cache.Get(ctx, cacheKey, &cached)
		s.metrics.RecordCacheOperation(err == nil, time.Since(start))
		if err == nil {
			return &cached, nil
		}
	}

	user, err := s.users.FindByID(ctx, userID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "user not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load user")
	}
	if !user.Activated {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "user not found")
	}

	sets, err := s.sets.FetchByCreator(ctx, userID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load beatmapsets")
	}

	postCount, err := s.posts.CountByUser(ctx, userID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to count posts")
	}

	nominations := make(map[string][]models.Nomination, 2)
	for label, server := range map[string]int{
		"global": models.NominationServerGlobal,
		"local":  models.NominationServerLocal,
	} {
		list, err := s.nominations.FetchByUserAndServer(ctx, userID, server)
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load nominations")
		}
		nominations[label] = list
	}

	profile := &dto.UserProfile{
		User:        *user,
		PostCount:   postCount,
		Beatmapsets: groupByCategory(sets),
		Nominations: nominations,
	}

	if s.cache != nil {
		if err := s.cache.Set(ctx, cacheKey, profile, s.cacheTTL); err != nil {
			s.logger.Warn("failed to cache profile", zap.Int("user_id", userID), zap.Error(err))
		}
	}

	return profile, nil
}

func groupByCategory(sets []models.Beatmapset) map[string][]models.Beatmapset {
	grouped := map[string][]models.Beatmapset{}
	for _, set := range sets {
		var category string
		switch set.Status {
		case models.StatusRanked, models.StatusApproved:
			category = dto.ProfileCategoryRanked
		case models.StatusLoved:
			category = dto.ProfileCategoryLoved
		case models.StatusQualified:
			category = dto.ProfileCategoryQualified
		case models.StatusPending:
			category = dto.ProfileCategoryPending
		case models.StatusWIP:
			category = dto.ProfileCategoryWIP
		default:
			category = dto.ProfileCategoryGraveyarded
		}
		grouped[category] = append(grouped[category], set)
	}
	return grouped
}
