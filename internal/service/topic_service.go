package service

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"

	"github.com/wavenote-dev/community-api/internal/models"
	"github.com/wavenote-dev/community-api/pkg/config"
)

// Review-state labels shown on a set's discussion topic.
const (
	StatusTextAwaitingApproval = "Waiting for approval..."
	StatusTextNeedsModding     = "Needs modding"
	StatusTextCreatorResponse  = "Waiting for creator's response..."
	StatusTextFurtherModding   = "Waiting for further modding..."
)

type topicStore interface {
	UpdateForum(ctx context.Context, exec sqlx.ExtContext, topicID, forumID int) error
	UpdateIcon(ctx context.Context, exec sqlx.ExtContext, topicID int, iconID *int) error
	UpdateStatusText(ctx context.Context, exec sqlx.ExtContext, topicID int, text *string) error
}

type topicPostStore interface {
	UpdateForumByTopic(ctx context.Context, exec sqlx.ExtContext, topicID, forumID int) error
	FetchLastReviewerPost(ctx context.Context, exec sqlx.ExtContext, topicID int) (*models.Post, error)
	FetchLastByUser(ctx context.Context, exec sqlx.ExtContext, topicID, userID int) (*models.Post, error)
}

type topicNominationCounter interface {
	Count(ctx context.Context, exec sqlx.ExtContext, setID int) (int, error)
}

// TopicService keeps a set's discussion topic consistent with its review
// status: forum placement, icon and the derived status text. A set without a
// topic is a legal state; every operation is then a no-op.
type TopicService struct {
	topics      topicStore
	posts       topicPostStore
	nominations topicNominationCounter
	forums      config.ForumConfig
	icons       config.IconConfig
	logger      *zap.Logger
}

// NewTopicService constructs the service.
func NewTopicService(topics topicStore, posts topicPostStore, nominations topicNominationCounter, forums config.ForumConfig, icons config.IconConfig, logger *zap.Logger) *TopicService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &TopicService{
		topics:      topics,
		posts:       posts,
		nominations: nominations,
		forums:      forums,
		icons:       icons,
		logger:      logger,
	}
}

// ForumFor maps a target status to the forum the topic belongs in.
func (s *TopicService) ForumFor(status models.Status) int {
	switch {
	case status.Promoted():
		return s.forums.RankedID
	case status == models.StatusWIP:
		return s.forums.WIPID
	case status == models.StatusGraveyard:
		return s.forums.GraveyardID
	default:
		return s.forums.PendingID
	}
}

// Relocate moves the topic and all of its posts into the forum matching the
// target status. Posts carry a denormalized forum id that must stay in sync.
func (s *TopicService) Relocate(ctx context.Context, exec sqlx.ExtContext, set *models.Beatmapset, target models.Status) error {
	if set.TopicID == nil {
		return nil
	}
	forumID := s.ForumFor(target)
	if err := s.topics.UpdateForum(ctx, exec, *set.TopicID, forumID); err != nil {
		return err
	}
	if err := s.posts.UpdateForumByTopic(ctx, exec, *set.TopicID, forumID); err != nil {
		return err
	}
	return nil
}

// IconFor resolves the topic icon for a transition. A nil result clears the
// icon. A Pending target always clears it, even when demoting from a
// promoted state; the broken heart only marks demotions landing in WIP or
// the graveyard.
func (s *TopicService) IconFor(target, previous models.Status) *int {
	switch target {
	case models.StatusRanked, models.StatusQualified, models.StatusLoved:
		return &s.icons.HeartID
	case models.StatusApproved:
		return &s.icons.FlameID
	case models.StatusPending:
		return nil
	}
	if previous.Promoted() {
		// Demoted from a once-validated state.
		return &s.icons.BrokenHeartID
	}
	return nil
}

// UpdateIcon applies the icon mapping for the transition to the topic.
func (s *TopicService) UpdateIcon(ctx context.Context, exec sqlx.ExtContext, set *models.Beatmapset, target, previous models.Status) error {
	if set.TopicID == nil {
		return nil
	}
	return s.topics.UpdateIcon(ctx, exec, *set.TopicID, s.IconFor(target, previous))
}

// ApplyStatusText recomputes and writes the topic's review-state label.
func (s *TopicService) ApplyStatusText(ctx context.Context, exec sqlx.ExtContext, set *models.Beatmapset, target models.Status) error {
	if set.TopicID == nil {
		return nil
	}
	text, err := s.DeriveStatusText(ctx, exec, set, target)
	if err != nil {
		return fmt.Errorf("derive status text: %w", err)
	}
	return s.topics.UpdateStatusText(ctx, exec, *set.TopicID, text)
}

// DeriveStatusText computes the label for the set's topic. The five outcomes
// are mutually exclusive and evaluated in fixed priority order; the caller
// must have applied the authoritative status write first so that set.Status
// and the ledger reflect the transition.
func (s *TopicService) DeriveStatusText(ctx context.Context, exec sqlx.ExtContext, set *models.Beatmapset, target models.Status) (*string, error) {
	if set.Status.Promoted() || target == models.StatusGraveyard {
		return nil, nil
	}

	count, err := s.nominations.Count(ctx, exec, set.ID)
	if err != nil {
		return nil, err
	}
	if count > 0 {
		return statusText(StatusTextAwaitingApproval), nil
	}

	lastReviewerPost, err := s.posts.FetchLastReviewerPost(ctx, exec, *set.TopicID)
	if err != nil {
		return nil, err
	}
	if lastReviewerPost == nil {
		return statusText(StatusTextNeedsModding), nil
	}

	lastCreatorPost, err := s.posts.FetchLastByUser(ctx, exec, *set.TopicID, set.CreatorID)
	if err != nil {
		return nil, err
	}
	if lastCreatorPost == nil || lastReviewerPost.ID > lastCreatorPost.ID {
		return statusText(StatusTextCreatorResponse), nil
	}

	return statusText(StatusTextFurtherModding), nil
}

func statusText(label string) *string {
	return &label
}
