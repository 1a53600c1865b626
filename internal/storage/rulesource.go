package storage

import (
	"context"
	"sync"
	"time"

	"github.com/luminadesk/backend/internal/types"
	"github.com/rs/zerolog"
)

// ActiveRuleLister is an optional Store capability: listing only the
// active rules with the filtering pushed into the store, so inactive
// rules never cross the wire on the hot path.
type ActiveRuleLister interface {
	ListActiveRules(ctx context.Context) ([]types.AutomationRule, error)
}

// RuleSource adapts a Store to the rule engine's read-only rule
// contract. It caches the last successful read so a storage hiccup
// degrades to slightly stale rules instead of an empty rule set.
type RuleSource struct {
	store   Store
	logger  zerolog.Logger
	timeout time.Duration

	mu   sync.RWMutex
	last []types.AutomationRule
}

func NewRuleSource(store Store, logger zerolog.Logger) *RuleSource {
	return &RuleSource{
		store:   store,
		logger:  logger,
		timeout: 3 * time.Second,
	}
}

// Rules returns the current rule list, falling back to the last known
// good list when the store is unavailable.
func (r *RuleSource) Rules() []types.AutomationRule {
	ctx, cancel := context.WithTimeout(context.Background(), r.timeout)
	defer cancel()

	rules, err := r.list(ctx)
	if err != nil {
		r.logger.Warn().Err(err).Msg("rule listing failed, using last known rules")
		r.mu.RLock()
		defer r.mu.RUnlock()
		return r.last
	}

	r.mu.Lock()
	r.last = rules
	r.mu.Unlock()
	return rules
}

func (r *RuleSource) list(ctx context.Context) ([]types.AutomationRule, error) {
	if lister, ok := r.store.(ActiveRuleLister); ok {
		return lister.ListActiveRules(ctx)
	}
	return r.store.ListRules(ctx)
}

// SeedDefaults writes the given rules only when the store is empty
func SeedDefaults(ctx context.Context, store Store, rules []types.AutomationRule, logger zerolog.Logger) error {
	existing, err := store.ListRules(ctx)
	if err != nil {
		return err
	}
	if len(existing) > 0 {
		return nil
	}
	for _, rule := range rules {
		if err := store.SaveRule(ctx, rule); err != nil {
			return err
		}
	}
	logger.Info().Int("count", len(rules)).Msg("seeded default automation rules")
	return nil
}
