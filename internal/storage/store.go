package storage

import (
	"context"
	"errors"
	"time"

	"github.com/luminadesk/backend/internal/types"
)

// ErrNotFound is returned when a rule or channel config does not exist
var ErrNotFound = errors.New("record not found")

// Store persists automation rules and channel configurations. Ticket
// and agent records belong to the CRUD layer and are not stored here.
type Store interface {
	SaveRule(ctx context.Context, rule types.AutomationRule) error
	ListRules(ctx context.Context) ([]types.AutomationRule, error)
	SetRuleActive(ctx context.Context, id string, active bool) error

	SaveChannelConfig(ctx context.Context, cfg types.ChannelConfig) error
	GetChannelConfig(ctx context.Context, id string) (types.ChannelConfig, error)
	ListChannelConfigs(ctx context.Context) ([]types.ChannelConfig, error)

	// UpdateChannelStatus writes the monitor-owned fields only. The
	// admin CRUD path writes credentials through SaveChannelConfig;
	// the two writers never touch the same fields.
	UpdateChannelStatus(ctx context.Context, id string, status types.ChannelStatus, errorMessage string, lastErrorTime, lastSync *time.Time) error
}
