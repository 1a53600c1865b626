package statusfeed

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/luminadesk/backend/internal/types"
	"github.com/rs/zerolog"
)

func TestPublishChannelStatusEncodesEvent(t *testing.T) {
	hub := NewHub(zerolog.New(&bytes.Buffer{}))

	hub.PublishChannelStatus("ch1", types.ChannelEmail, types.ChannelConnected, "")

	select {
	case raw := <-hub.broadcast:
		var event StatusEvent
		if err := json.Unmarshal(raw, &event); err != nil {
			t.Fatalf("broadcast payload is not valid JSON: %v", err)
		}
		if event.Type != "channel_status" {
			t.Errorf("expected channel_status, got %s", event.Type)
		}
		if event.ChannelID != "ch1" || event.Status != types.ChannelConnected {
			t.Errorf("unexpected event: %+v", event)
		}
		if event.Timestamp.IsZero() {
			t.Error("timestamp not set")
		}
	default:
		t.Fatal("no event was broadcast")
	}
}

func TestPublishDispatchEncodesOutcome(t *testing.T) {
	hub := NewHub(zerolog.New(&bytes.Buffer{}))

	hub.PublishDispatch("sendgrid", "c@example.com", false)

	select {
	case raw := <-hub.broadcast:
		var event StatusEvent
		if err := json.Unmarshal(raw, &event); err != nil {
			t.Fatalf("broadcast payload is not valid JSON: %v", err)
		}
		if event.Type != "email_dispatch" || event.Provider != "sendgrid" {
			t.Errorf("unexpected event: %+v", event)
		}
		if event.Success == nil || *event.Success {
			t.Errorf("expected success=false, got %v", event.Success)
		}
	default:
		t.Fatal("no event was broadcast")
	}
}

func TestPublishNeverBlocks(t *testing.T) {
	hub := NewHub(zerolog.New(&bytes.Buffer{}))

	// Nothing drains the broadcast channel here; filling it past its
	// buffer must drop events instead of blocking the caller.
	for i := 0; i < 1000; i++ {
		hub.PublishDispatch("smtp", "c@example.com", true)
	}
}
