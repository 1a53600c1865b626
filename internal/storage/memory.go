package storage

import (
	"context"
	"sync"
	"time"

	"github.com/luminadesk/backend/internal/types"
)

// MemoryStore is an in-memory Store used when DynamoDB is disabled and
// in tests. Safe for concurrent use.
type MemoryStore struct {
	mu        sync.RWMutex
	rules     map[string]types.AutomationRule
	ruleOrder []string
	channels  map[string]types.ChannelConfig
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		rules:    make(map[string]types.AutomationRule),
		channels: make(map[string]types.ChannelConfig),
	}
}

func (s *MemoryStore) SaveRule(_ context.Context, rule types.AutomationRule) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.rules[rule.ID]; !exists {
		s.ruleOrder = append(s.ruleOrder, rule.ID)
	}
	s.rules[rule.ID] = rule
	return nil
}

// ListRules returns rules in insertion order, which is what makes
// priority ties deterministic downstream.
func (s *MemoryStore) ListRules(_ context.Context) ([]types.AutomationRule, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]types.AutomationRule, 0, len(s.ruleOrder))
	for _, id := range s.ruleOrder {
		out = append(out, s.rules[id])
	}
	return out, nil
}

func (s *MemoryStore) SetRuleActive(_ context.Context, id string, active bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	rule, ok := s.rules[id]
	if !ok {
		return ErrNotFound
	}
	rule.IsActive = active
	s.rules[id] = rule
	return nil
}

func (s *MemoryStore) SaveChannelConfig(_ context.Context, cfg types.ChannelConfig) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.channels[cfg.ID] = cfg
	return nil
}

func (s *MemoryStore) GetChannelConfig(_ context.Context, id string) (types.ChannelConfig, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	cfg, ok := s.channels[id]
	if !ok {
		return types.ChannelConfig{}, ErrNotFound
	}
	return cfg, nil
}

func (s *MemoryStore) ListChannelConfigs(_ context.Context) ([]types.ChannelConfig, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]types.ChannelConfig, 0, len(s.channels))
	for _, cfg := range s.channels {
		out = append(out, cfg)
	}
	return out, nil
}

func (s *MemoryStore) UpdateChannelStatus(_ context.Context, id string, status types.ChannelStatus, errorMessage string, lastErrorTime, lastSync *time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cfg, ok := s.channels[id]
	if !ok {
		return ErrNotFound
	}
	cfg.Status = status
	cfg.ErrorMessage = errorMessage
	cfg.LastErrorTime = lastErrorTime
	cfg.LastSync = lastSync
	s.channels[id] = cfg
	return nil
}
