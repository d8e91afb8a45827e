package models

import (
	"time"

	"github.com/google/uuid"
)

// Subscription tiers. Admin is a tier rather than a role so that the
// earnings/analytics gates can be expressed as simple tier checks.
const (
	TierFree    = "free"
	TierBasic   = "basic"
	TierPremium = "premium"
	TierAdmin   = "admin"
)

// Profile is the per-user ledger row: subscription tier, token balance and
// cumulative usage counters. One row per auth identity.
type Profile struct {
	ID               uuid.UUID `db:"id" json:"id"`
	Email            string    `db:"email" json:"email"`
	SubscriptionTier string    `db:"subscription_tier" json:"subscription_tier"`
	IsCreator        bool      `db:"is_creator" json:"is_creator"`
	TokensRemaining  int       `db:"tokens_remaining" json:"tokens_remaining"`
	TokensUsedTotal  int       `db:"tokens_used_total" json:"tokens_used_total"`
	StoriesCreated   int       `db:"stories_created" json:"stories_created"`
	WordsGenerated   int       `db:"words_generated" json:"words_generated"`
	CreatedAt        time.Time `db:"created_at" json:"created_at"`
	UpdatedAt        time.Time `db:"updated_at" json:"updated_at"`
}

// HasPremiumAccess reports whether the profile may use premium-gated views.
func (p *Profile) HasPremiumAccess() bool {
	return p.SubscriptionTier == TierPremium || p.SubscriptionTier == TierAdmin
}

// IsAdmin reports whether the profile has the admin tier.
func (p *Profile) IsAdmin() bool {
	return p.SubscriptionTier == TierAdmin
}
