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

type stubLedgerStore struct {
	count          int
	deleted        []int
	distinctActors *bool
}

func (s *stubLedgerStore) Count(ctx context.Context, exec sqlx.ExtContext, setID int, distinctActors bool) (int, error) {
	s.distinctActors = &distinctActors
	return s.count, nil
}

func (s *stubLedgerStore) DeleteBySet(ctx context.Context, exec sqlx.ExtContext, setID int) error {
	s.deleted = append(s.deleted, setID)
	return nil
}

func TestLedgerHasEnough(t *testing.T) {
	tests := []struct {
		name     string
		count    int
		required int
		want     bool
	}{
		{"below threshold", 1, 2, false},
		{"at threshold", 2, 2, true},
		{"above threshold", 3, 2, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := &stubLedgerStore{count: tt.count}
			ledger := NewNominationLedger(store, config.NominationConfig{RequiredDefault: tt.required}, nil)

			got, err := ledger.HasEnough(context.Background(), nil, &models.Beatmapset{ID: 1})
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestLedgerDistinctActorsFlagPassedThrough(t *testing.T) {
	store := &stubLedgerStore{count: 2}
	ledger := NewNominationLedger(store, config.NominationConfig{RequiredDefault: 2, DistinctActors: true}, nil)

	_, err := ledger.Count(context.Background(), nil, 1)
	require.NoError(t, err)
	require.NotNil(t, store.distinctActors)
	assert.True(t, *store.distinctActors)
}

func TestLedgerCustomPolicy(t *testing.T) {
	store := &stubLedgerStore{count: 2}
	policy := NominationPolicyFunc(func(set *models.Beatmapset) int { return 3 })
	ledger := NewNominationLedger(store, config.NominationConfig{RequiredDefault: 2}, policy)

	got, err := ledger.HasEnough(context.Background(), nil, &models.Beatmapset{ID: 1})
	require.NoError(t, err)
	assert.False(t, got)
	assert.Equal(t, 3, ledger.Required(&models.Beatmapset{ID: 1}))
}

func TestLedgerDefaultThresholdFallback(t *testing.T) {
	store := &stubLedgerStore{}
	ledger := NewNominationLedger(store, config.NominationConfig{}, nil)
	assert.Equal(t, 2, ledger.Required(&models.Beatmapset{ID: 1}))
}

func TestLedgerDeleteAll(t *testing.T) {
	store := &stubLedgerStore{}
	ledger := NewNominationLedger(store, config.NominationConfig{RequiredDefault: 2}, nil)

	require.NoError(t, ledger.DeleteAll(context.Background(), nil, 42))
	assert.Equal(t, []int{42}, store.deleted)
}
