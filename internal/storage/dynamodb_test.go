package storage

import (
	"testing"
	"time"

	"github.com/luminadesk/backend/internal/types"
)

func TestChannelItemLiftsMonitorFields(t *testing.T) {
	lastSync := time.Now().Add(-1 * time.Hour).UTC()
	cfg := types.ChannelConfig{
		ID:       "ch1",
		Name:     "Support inbox",
		Type:     types.ChannelEmail,
		IsActive: true,
		Status:   types.ChannelConnected,
		LastSync: &lastSync,
		Settings: types.ChannelSettings{Email: &types.EmailSettings{
			Outbound: types.MailServer{Server: "smtp.example.com", Port: 587, Username: "support", Password: "secret"},
		}},
	}

	item, err := channelItemFrom(cfg)
	if err != nil {
		t.Fatalf("channelItemFrom failed: %v", err)
	}
	if item.Status != string(types.ChannelConnected) || item.LastSync == nil {
		t.Fatalf("monitor fields not lifted into attributes: %+v", item)
	}

	// A status update touches only the lifted attributes, the way
	// UpdateChannelStatus writes them, and leaves the payload alone.
	errTime := time.Now().UTC()
	item.Status = string(types.ChannelError)
	item.ErrorMessage = "smtp handshake failed"
	item.LastErrorTime = &errTime
	item.LastSync = nil

	got, err := item.channelConfig()
	if err != nil {
		t.Fatalf("channelConfig failed: %v", err)
	}
	if got.Settings.Email == nil || got.Settings.Email.Outbound.Password != "secret" {
		t.Error("credential payload was lost across a status update")
	}
	if got.Name != "Support inbox" || !got.IsActive {
		t.Errorf("admin-owned fields changed: %+v", got)
	}
	if got.Status != types.ChannelError || got.ErrorMessage != "smtp handshake failed" {
		t.Errorf("lifted attributes are not authoritative: status=%s error=%q", got.Status, got.ErrorMessage)
	}
	if got.LastErrorTime == nil || !got.LastErrorTime.Equal(errTime) {
		t.Errorf("lastErrorTime not taken from the lifted attribute: %v", got.LastErrorTime)
	}
	if got.LastSync != nil {
		t.Errorf("cleared lastSync leaked back from the payload: %v", got.LastSync)
	}
}
