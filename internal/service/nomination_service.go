package service

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/wavenote-dev/community-api/internal/models"
	"github.com/wavenote-dev/community-api/pkg/config"
)

type nominationLedgerStore interface {
	Count(ctx context.Context, exec sqlx.ExtContext, setID int, distinctActors bool) (int, error)
	DeleteBySet(ctx context.Context, exec sqlx.ExtContext, setID int) error
}

// NominationPolicy supplies the promotion threshold for a beatmapset. The
// eligibility rules behind the number live outside this service.
type NominationPolicy interface {
	RequiredNominations(set *models.Beatmapset) int
}

// NominationPolicyFunc allows using plain functions as policies.
type NominationPolicyFunc func(set *models.Beatmapset) int

// RequiredNominations implements NominationPolicy.
func (f NominationPolicyFunc) RequiredNominations(set *models.Beatmapset) int {
	return f(set)
}

// NominationLedger counts and purges nominations and answers threshold checks
// for Approved/Qualified promotions.
type NominationLedger struct {
	repo           nominationLedgerStore
	policy         NominationPolicy
	distinctActors bool
}

// NewNominationLedger constructs the ledger. With a nil policy the configured
// flat threshold applies to every set.
func NewNominationLedger(repo nominationLedgerStore, cfg config.NominationConfig, policy NominationPolicy) *NominationLedger {
	if policy == nil {
		required := cfg.RequiredDefault
		if required <= 0 {
			required = 2
		}
		policy = NominationPolicyFunc(func(*models.Beatmapset) int { return required })
	}
	return &NominationLedger{
		repo:           repo,
		policy:         policy,
		distinctActors: cfg.DistinctActors,
	}
}

// Count returns the unscoped nomination total for a set, the number threshold
// checks are made against.
func (l *NominationLedger) Count(ctx context.Context, exec sqlx.ExtContext, setID int) (int, error) {
	return l.repo.Count(ctx, exec, setID, l.distinctActors)
}

// Required returns the threshold the set must meet for Approved or Qualified.
func (l *NominationLedger) Required(set *models.Beatmapset) int {
	return l.policy.RequiredNominations(set)
}

// HasEnough reports whether the set's nomination count meets its threshold.
func (l *NominationLedger) HasEnough(ctx context.Context, exec sqlx.ExtContext, set *models.Beatmapset) (bool, error) {
	count, err := l.Count(ctx, exec, set.ID)
	if err != nil {
		return false, fmt.Errorf("ledger count: %w", err)
	}
	return count >= l.Required(set), nil
}

// DeleteAll purges the set's entire ledger.
func (l *NominationLedger) DeleteAll(ctx context.Context, exec sqlx.ExtContext, setID int) error {
	return l.repo.DeleteBySet(ctx, exec, setID)
}
