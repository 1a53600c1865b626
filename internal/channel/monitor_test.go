package channel

import (
	"bytes"
	"context"
	"errors"
	"net"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/luminadesk/backend/internal/metrics"
	"github.com/luminadesk/backend/internal/types"
	"github.com/rs/zerolog"
)

type statusWrite struct {
	id           string
	status       types.ChannelStatus
	errorMessage string
	lastSync     *time.Time
}

type recordingStore struct {
	mu     sync.Mutex
	writes []statusWrite
}

func (s *recordingStore) UpdateChannelStatus(_ context.Context, id string, status types.ChannelStatus, errorMessage string, _, lastSync *time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.writes = append(s.writes, statusWrite{id: id, status: status, errorMessage: errorMessage, lastSync: lastSync})
	return nil
}

func (s *recordingStore) snapshot() []statusWrite {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]statusWrite(nil), s.writes...)
}

func testMonitor(store StatusStore) (*Monitor, *metrics.Metrics) {
	m := metrics.New()
	logger := zerolog.New(&bytes.Buffer{})
	return NewMonitor(store, nil, time.Second, m, logger), m
}

func TestTestConnectionStaticSuccess(t *testing.T) {
	store := &recordingStore{}
	monitor, m := testMonitor(store)

	cfg := types.ChannelConfig{
		ID:       "ch-sms",
		Type:     types.ChannelSMS,
		IsActive: true,
		Settings: types.ChannelSettings{SMS: &types.SMSSettings{
			AccountSID: "sid", AuthToken: "token", PhoneNumber: "+15550100",
		}},
	}
	result := monitor.TestConnection(context.Background(), cfg)

	if !result.Success {
		t.Fatalf("expected success, got error %q", result.Error)
	}
	if m.ChannelTestsTotal != 1 || m.ChannelTestFailuresTotal != 0 {
		t.Errorf("unexpected metrics: tests=%d failures=%d", m.ChannelTestsTotal, m.ChannelTestFailuresTotal)
	}

	writes := store.snapshot()
	if len(writes) != 2 {
		t.Fatalf("expected connecting + final writes, got %d", len(writes))
	}
	if writes[0].status != types.ChannelConnecting {
		t.Errorf("first write should be connecting, got %s", writes[0].status)
	}
	if writes[1].status != types.ChannelConnected {
		t.Errorf("final write should be connected, got %s", writes[1].status)
	}
	if writes[1].lastSync == nil {
		t.Error("successful test should set lastSync")
	}
}

func TestTestConnectionEmptyConfigNeverPanics(t *testing.T) {
	monitor, _ := testMonitor(nil)

	for _, channelType := range []types.ChannelType{
		types.ChannelSMS, types.ChannelWhatsApp, types.ChannelTwitter,
		types.ChannelFacebook, types.ChannelEmail,
	} {
		t.Run(string(channelType), func(t *testing.T) {
			result := monitor.TestConnection(context.Background(), types.ChannelConfig{
				ID:   "ch-" + string(channelType),
				Type: channelType,
			})
			if result.Success {
				t.Error("empty config should not pass")
			}
			if result.Error == "" {
				t.Error("failure must carry an error message")
			}
		})
	}
}

func TestTestConnectionUnsupportedType(t *testing.T) {
	store := &recordingStore{}
	monitor, _ := testMonitor(store)

	result := monitor.TestConnection(context.Background(), types.ChannelConfig{
		ID:   "ch-x",
		Type: "carrier-pigeon",
	})

	if result.Success {
		t.Error("unsupported type should fail")
	}
	writes := store.snapshot()
	if len(writes) != 1 || writes[0].status != types.ChannelError {
		t.Errorf("expected one error write, got %v", writes)
	}
}

func TestTestConnectionFailureKeepsOldLastSync(t *testing.T) {
	store := &recordingStore{}
	monitor, m := testMonitor(store)

	oldSync := time.Now().Add(-3 * time.Hour)
	cfg := types.ChannelConfig{
		ID:       "ch-sms",
		Type:     types.ChannelSMS,
		IsActive: true,
		LastSync: &oldSync,
		Settings: types.ChannelSettings{SMS: &types.SMSSettings{}},
	}
	result := monitor.TestConnection(context.Background(), cfg)

	if result.Success {
		t.Fatal("expected failure")
	}
	if m.ChannelTestFailuresTotal != 1 {
		t.Errorf("expected 1 failure recorded, got %d", m.ChannelTestFailuresTotal)
	}

	writes := store.snapshot()
	final := writes[len(writes)-1]
	if final.status != types.ChannelError {
		t.Errorf("expected error status, got %s", final.status)
	}
	if final.lastSync == nil || !final.lastSync.Equal(oldSync) {
		t.Errorf("failed test must keep the previous lastSync, got %v", final.lastSync)
	}
}

type blockingTester struct {
	started chan struct{}
	release chan struct{}
}

func (tr blockingTester) Test(ctx context.Context, _ types.ChannelConfig) TestResult {
	tr.started <- struct{}{}
	select {
	case <-tr.release:
	case <-ctx.Done():
	}
	return TestResult{Success: true}
}

func TestTestConnectionSerializesPerChannel(t *testing.T) {
	store := &recordingStore{}
	monitor, _ := testMonitor(store)
	tester := blockingTester{started: make(chan struct{}, 2), release: make(chan struct{})}
	monitor.testers[types.ChannelSMS] = tester

	cfg := types.ChannelConfig{ID: "ch-sms", Type: types.ChannelSMS}

	var wg sync.WaitGroup
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			monitor.TestConnection(context.Background(), cfg)
		}()
	}

	// The first test holds the channel lock inside the tester. The
	// second must be parked before its connecting write.
	<-tester.started
	time.Sleep(20 * time.Millisecond)
	if writes := store.snapshot(); len(writes) != 1 {
		t.Fatalf("concurrent test wrote while another was in flight: %v", writes)
	}

	close(tester.release)
	wg.Wait()

	writes := store.snapshot()
	if len(writes) != 4 {
		t.Fatalf("expected 4 writes, got %d", len(writes))
	}
	want := []types.ChannelStatus{
		types.ChannelConnecting, types.ChannelConnected,
		types.ChannelConnecting, types.ChannelConnected,
	}
	for i, status := range want {
		if writes[i].status != status {
			t.Errorf("write %d: got %s, want %s (interleaved status writes)", i, writes[i].status, status)
		}
	}
}

type panickyTester struct{}

func (panickyTester) Test(context.Context, types.ChannelConfig) TestResult {
	panic("tester exploded")
}

func TestTestConnectionRecoverFromTesterPanic(t *testing.T) {
	monitor, _ := testMonitor(nil)
	monitor.testers[types.ChannelSMS] = panickyTester{}

	result := monitor.TestConnection(context.Background(), types.ChannelConfig{
		ID:   "ch-sms",
		Type: types.ChannelSMS,
	})

	if result.Success {
		t.Error("panicking tester should fail the test")
	}
	if result.Error == "" {
		t.Error("expected an error message after recovery")
	}
}

func TestClassifySMTPError(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want string
	}{
		{"auth code", errors.New("535 5.7.8 Username and Password not accepted"), "Authentication failed"},
		{"auth text", errors.New("smtp: authentication failed"), "Authentication failed"},
		{"timeout", &net.OpError{Op: "dial", Err: timeoutError{}}, "timed out"},
		{"refused", errors.New("dial tcp: connection refused"), "Could not connect"},
		{"no host", errors.New("lookup smtp.nope.example: no such host"), "Could not connect"},
		{"other", errors.New("550 mailbox unavailable"), "Connection test failed"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := classifySMTPError(tt.err, "smtp.example.com")
			if !strings.Contains(got, tt.want) {
				t.Errorf("classifySMTPError(%v) = %q, want substring %q", tt.err, got, tt.want)
			}
		})
	}
}

type timeoutError struct{}

func (timeoutError) Error() string   { return "i/o timeout" }
func (timeoutError) Timeout() bool   { return true }
func (timeoutError) Temporary() bool { return true }
