package service

import (
	"context"
	"testing"

	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wavenote-dev/community-api/internal/models"
	"github.com/wavenote-dev/community-api/pkg/config"
)

type stubTopicStore struct {
	forumID    *int
	iconID     *int
	iconSet    bool
	statusText *string
	textSet    bool
}

func (s *stubTopicStore) UpdateForum(ctx context.Context, exec sqlx.ExtContext, topicID, forumID int) error {
	s.forumID = &forumID
	return nil
}

func (s *stubTopicStore) UpdateIcon(ctx context.Context, exec sqlx.ExtContext, topicID int, iconID *int) error {
	s.iconID = iconID
	s.iconSet = true
	return nil
}

func (s *stubTopicStore) UpdateStatusText(ctx context.Context, exec sqlx.ExtContext, topicID int, text *string) error {
	s.statusText = text
	s.textSet = true
	return nil
}

type stubTopicPostStore struct {
	postsForumID *int
	reviewerPost *models.Post
	creatorPost  *models.Post
}

func (s *stubTopicPostStore) UpdateForumByTopic(ctx context.Context, exec sqlx.ExtContext, topicID, forumID int) error {
	s.postsForumID = &forumID
	return nil
}

func (s *stubTopicPostStore) FetchLastReviewerPost(ctx context.Context, exec sqlx.ExtContext, topicID int) (*models.Post, error) {
	return s.reviewerPost, nil
}

func (s *stubTopicPostStore) FetchLastByUser(ctx context.Context, exec sqlx.ExtContext, topicID, userID int) (*models.Post, error) {
	return s.creatorPost, nil
}

type stubNominationCounter struct {
	count int
}

func (s *stubNominationCounter) Count(ctx context.Context, exec sqlx.ExtContext, setID int) (int, error) {
	return s.count, nil
}

var testForums = config.ForumConfig{RankedID: 8, PendingID: 9, WIPID: 10, GraveyardID: 12}

var testIcons = config.IconConfig{HeartID: 1, BrokenHeartID: 2, FlameID: 5}

func newTestTopicService(topics *stubTopicStore, posts *stubTopicPostStore, counter *stubNominationCounter) *TopicService {
	return NewTopicService(topics, posts, counter, testForums, testIcons, nil)
}

func topicSet(topicID int) *models.Beatmapset {
	return &models.Beatmapset{ID: 100, CreatorID: 7, Artist: "Artist", Title: "Title", TopicID: &topicID}
}

func TestForumFor(t *testing.T) {
	svc := newTestTopicService(&stubTopicStore{}, &stubTopicPostStore{}, &stubNominationCounter{})

	tests := []struct {
		status models.Status
		want   int
	}{
		{models.StatusRanked, testForums.RankedID},
		{models.StatusApproved, testForums.RankedID},
		{models.StatusQualified, testForums.RankedID},
		{models.StatusLoved, testForums.RankedID},
		{models.StatusPending, testForums.PendingID},
		{models.StatusWIP, testForums.WIPID},
		{models.StatusGraveyard, testForums.GraveyardID},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, svc.ForumFor(tt.status), "status %s", tt.status)
	}
}

func TestRelocateMovesTopicAndPosts(t *testing.T) {
	topics := &stubTopicStore{}
	posts := &stubTopicPostStore{}
	svc := newTestTopicService(topics, posts, &stubNominationCounter{})

	err := svc.Relocate(context.Background(), nil, topicSet(55), models.StatusQualified)
	require.NoError(t, err)
	require.NotNil(t, topics.forumID)
	assert.Equal(t, testForums.RankedID, *topics.forumID)
	require.NotNil(t, posts.postsForumID)
	assert.Equal(t, testForums.RankedID, *posts.postsForumID)
}

func TestRelocateWithoutTopicIsNoop(t *testing.T) {
	topics := &stubTopicStore{}
	posts := &stubTopicPostStore{}
	svc := newTestTopicService(topics, posts, &stubNominationCounter{})

	set := &models.Beatmapset{ID: 100}
	require.NoError(t, svc.Relocate(context.Background(), nil, set, models.StatusRanked))
	assert.Nil(t, topics.forumID)
	assert.Nil(t, posts.postsForumID)
}

func TestIconFor(t *testing.T) {
	svc := newTestTopicService(&stubTopicStore{}, &stubTopicPostStore{}, &stubNominationCounter{})

	tests := []struct {
		name             string
		target, previous models.Status
		want             *int
	}{
		{"ranked gets heart", models.StatusRanked, models.StatusPending, &testIcons.HeartID},
		{"qualified gets heart", models.StatusQualified, models.StatusPending, &testIcons.HeartID},
		{"loved gets heart", models.StatusLoved, models.StatusPending, &testIcons.HeartID},
		{"approved gets flame", models.StatusApproved, models.StatusPending, &testIcons.FlameID},
		{"demotion to pending from qualified clears icon", models.StatusPending, models.StatusQualified, nil},
		{"demotion to pending from approved clears icon", models.StatusPending, models.StatusApproved, nil},
		{"demotion to wip from qualified gets broken heart", models.StatusWIP, models.StatusQualified, &testIcons.BrokenHeartID},
		{"demotion to graveyard from ranked gets broken heart", models.StatusGraveyard, models.StatusRanked, &testIcons.BrokenHeartID},
		{"pending from pending clears icon", models.StatusPending, models.StatusPending, nil},
		{"graveyard from wip clears icon", models.StatusGraveyard, models.StatusWIP, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := svc.IconFor(tt.target, tt.previous)
			if tt.want == nil {
				assert.Nil(t, got)
				return
			}
			require.NotNil(t, got)
			assert.Equal(t, *tt.want, *got)
		})
	}
}

func TestDeriveStatusText(t *testing.T) {
	tests := []struct {
		name         string
		setStatus    models.Status
		target       models.Status
		nominations  int
		reviewerPost *models.Post
		creatorPost  *models.Post
		want         *string
	}{
		{
			name:      "promoted set carries no label",
			setStatus: models.StatusQualified,
			target:    models.StatusQualified,
			want:      nil,
		},
		{
			name:      "graveyard target carries no label",
			setStatus: models.StatusGraveyard,
			target:    models.StatusGraveyard,
			want:      nil,
		},
		{
			name:        "nominated set awaits approval",
			setStatus:   models.StatusPending,
			target:      models.StatusPending,
			nominations: 1,
			want:        statusText(StatusTextAwaitingApproval),
		},
		{
			name:      "untouched set needs modding",
			setStatus: models.StatusPending,
			target:    models.StatusPending,
			want:      statusText(StatusTextNeedsModding),
		},
		{
			name:         "reviewer spoke last",
			setStatus:    models.StatusPending,
			target:       models.StatusPending,
			reviewerPost: &models.Post{ID: 20},
			creatorPost:  &models.Post{ID: 10},
			want:         statusText(StatusTextCreatorResponse),
		},
		{
			name:         "reviewer spoke and creator never replied",
			setStatus:    models.StatusPending,
			target:       models.StatusPending,
			reviewerPost: &models.Post{ID: 20},
			want:         statusText(StatusTextCreatorResponse),
		},
		{
			name:         "creator spoke last",
			setStatus:    models.StatusWIP,
			target:       models.StatusWIP,
			reviewerPost: &models.Post{ID: 20},
			creatorPost:  &models.Post{ID: 30},
			want:         statusText(StatusTextFurtherModding),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			posts := &stubTopicPostStore{reviewerPost: tt.reviewerPost, creatorPost: tt.creatorPost}
			svc := newTestTopicService(&stubTopicStore{}, posts, &stubNominationCounter{count: tt.nominations})

			set := topicSet(55)
			set.Status = tt.setStatus

			got, err := svc.DeriveStatusText(context.Background(), nil, set, tt.target)
			require.NoError(t, err)
			if tt.want == nil {
				assert.Nil(t, got)
				return
			}
			require.NotNil(t, got)
			assert.Equal(t, *tt.want, *got)
		})
	}
}
