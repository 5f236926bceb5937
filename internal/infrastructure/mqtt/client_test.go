package mqtt

import (
	"context"
	"errors"
	"net"
	"sync"
	"testing"
	"time"

	"github.com/wehrfritz/equilibrium-core/internal/infrastructure/config"
)

// testConfig returns a valid MQTT configuration for testing.
// Broker-backed tests require a running Mosquitto at 127.0.0.1:1883.
func testConfig() config.MQTTConfig {
	return config.MQTTConfig{
		Broker: config.MQTTBrokerConfig{
			Host:     "127.0.0.1",
			Port:     1883,
			ClientID: "equilibrium-test",
			TLS:      false,
		},
		Auth: config.MQTTAuthConfig{
			Username: "",
			Password: "",
		},
		QoS: 1,
		Reconnect: config.MQTTReconnectConfig{
			InitialDelay: 1,
			MaxDelay:     5,
		},
	}
}

// requireBroker skips the test when no local broker is listening.
func requireBroker(t *testing.T) {
	t.Helper()
	conn, err := net.DialTimeout("tcp", "127.0.0.1:1883", 500*time.Millisecond)
	if err != nil {
		t.Skip("no MQTT broker on 127.0.0.1:1883")
	}
	conn.Close() //nolint:errcheck // Probe connection
}

// =============================================================================
// Connection Tests
// =============================================================================

func TestConnect(t *testing.T) {
	requireBroker(t)
	cfg := testConfig()

	client, err := Connect(cfg)
	if err != nil {
		t.Fatalf("Connect() error = %v", err)
	}
	defer client.Close() //nolint:errcheck // Test cleanup

	if !client.IsConnected() {
		t.Error("IsConnected() = false, want true")
	}
}

func TestClose(t *testing.T) {
	requireBroker(t)
	client, err := Connect(testConfig())
	if err != nil {
		t.Fatalf("Connect() error = %v", err)
	}

	if err := client.Close(); err != nil {
		t.Errorf("Close() error = %v", err)
	}

	if client.IsConnected() {
		t.Error("IsConnected() = true after Close()")
	}
}

func TestCloseNil(t *testing.T) {
	c := &Client{}
	if err := c.Close(); err != nil {
		t.Errorf("Close() on zero client error = %v", err)
	}
}

func TestHealthCheck(t *testing.T) {
	requireBroker(t)
	client, err := Connect(testConfig())
	if err != nil {
		t.Fatalf("Connect() error = %v", err)
	}
	defer client.Close() //nolint:errcheck // Test cleanup

	if err := client.HealthCheck(context.Background()); err != nil {
		t.Errorf("HealthCheck() error = %v", err)
	}
}

func TestHealthCheckCancelled(t *testing.T) {
	requireBroker(t)
	client, err := Connect(testConfig())
	if err != nil {
		t.Fatalf("Connect() error = %v", err)
	}
	defer client.Close() //nolint:errcheck // Test cleanup

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if err := client.HealthCheck(ctx); err == nil {
		t.Error("HealthCheck() with cancelled context expected error")
	}
}

// =============================================================================
// Publish Tests
// =============================================================================

func TestPublish(t *testing.T) {
	requireBroker(t)
	client, err := Connect(testConfig())
	if err != nil {
		t.Fatalf("Connect() error = %v", err)
	}
	defer client.Close() //nolint:errcheck // Test cleanup

	topic := Topics{}.Event("test")
	if err := client.Publish(topic, []byte(`{"test":true}`), 1, false); err != nil {
		t.Errorf("Publish() error = %v", err)
	}
}

func TestPublishEmptyTopic(t *testing.T) {
	c := &Client{}
	err := c.Publish("", []byte("x"), 1, false)
	if !errors.Is(err, ErrInvalidTopic) {
		t.Errorf("Publish() error = %v, want ErrInvalidTopic", err)
	}
}

func TestPublishInvalidQoS(t *testing.T) {
	c := &Client{}
	err := c.Publish("equilibrium/test", []byte("x"), 3, false)
	if !errors.Is(err, ErrInvalidQoS) {
		t.Errorf("Publish() error = %v, want ErrInvalidQoS", err)
	}
}

func TestSubscribeEmptyTopic(t *testing.T) {
	c := &Client{}
	err := c.Subscribe("", 1, func(string, []byte) error { return nil })
	if !errors.Is(err, ErrInvalidTopic) {
		t.Errorf("Subscribe() error = %v, want ErrInvalidTopic", err)
	}
}

func TestSubscribeNilHandler(t *testing.T) {
	c := &Client{}
	err := c.Subscribe("equilibrium/test", 1, nil)
	if !errors.Is(err, ErrSubscribeFailed) {
		t.Errorf("Subscribe() error = %v, want ErrSubscribeFailed", err)
	}
}

// =============================================================================
// Roundtrip Tests
// =============================================================================

func TestPublishSubscribeRoundtrip(t *testing.T) {
	requireBroker(t)

	cfg := testConfig()
	cfg.Broker.ClientID = "equilibrium-test-pub"
	pub, err := Connect(cfg)
	if err != nil {
		t.Fatalf("Connect(pub) error = %v", err)
	}
	defer pub.Close() //nolint:errcheck // Test cleanup

	cfg = testConfig()
	cfg.Broker.ClientID = "equilibrium-test-sub"
	sub, err := Connect(cfg)
	if err != nil {
		t.Fatalf("Connect(sub) error = %v", err)
	}
	defer sub.Close() //nolint:errcheck // Test cleanup

	topic := "equilibrium/test/roundtrip"
	received := make(chan []byte, 1)

	err = sub.Subscribe(topic, 1, func(_ string, payload []byte) error {
		received <- payload
		return nil
	})
	if err != nil {
		t.Fatalf("Subscribe() error = %v", err)
	}

	want := []byte(`{"button":"volume_up"}`)
	if err := pub.Publish(topic, want, 1, false); err != nil {
		t.Fatalf("Publish() error = %v", err)
	}

	select {
	case got := <-received:
		if string(got) != string(want) {
			t.Errorf("received %s, want %s", got, want)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for message")
	}
}

func TestWildcardSubscription(t *testing.T) {
	requireBroker(t)

	cfg := testConfig()
	cfg.Broker.ClientID = "equilibrium-test-wild"
	client, err := Connect(cfg)
	if err != nil {
		t.Fatalf("Connect() error = %v", err)
	}
	defer client.Close() //nolint:errcheck // Test cleanup

	var mu sync.Mutex
	var topics []string

	err = client.Subscribe(Topics{}.AllDeviceStates(), 1,
		func(topic string, _ []byte) error {
			mu.Lock()
			topics = append(topics, topic)
			mu.Unlock()
			return nil
		})
	if err != nil {
		t.Fatalf("Subscribe() error = %v", err)
	}

	published := []string{
		Topics{}.DeviceState("tv-living"),
		Topics{}.DeviceState("soundbar"),
	}
	for _, topic := range published {
		if err := client.Publish(topic, []byte(`{"power":"on"}`), 1, false); err != nil {
			t.Fatalf("Publish(%s) error = %v", topic, err)
		}
	}

	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		mu.Lock()
		n := len(topics)
		mu.Unlock()
		if n >= len(published) {
			return
		}
		time.Sleep(50 * time.Millisecond)
	}
	t.Fatalf("received %d matches, want %d", len(topics), len(published))
}

// =============================================================================
// Topic Builder Tests
// =============================================================================

func TestTopicBuilders(t *testing.T) {
	tests := []struct {
		name     string
		got      string
		expected string
	}{
		{
			name:     "device state",
			got:      Topics{}.DeviceState("tv-living"),
			expected: "equilibrium/device/tv-living/state",
		},
		{
			name:     "scene status",
			got:      Topics{}.SceneStatus("movie"),
			expected: "equilibrium/scene/movie/status",
		},
		{
			name:     "event",
			got:      Topics{}.Event("remote_button"),
			expected: "equilibrium/event/remote_button",
		},
		{
			name:     "pairing request",
			got:      Topics{}.PairingRequest(),
			expected: "equilibrium/pairing/request",
		},
		{
			name:     "scene activate command",
			got:      Topics{}.CommandSceneActivate(),
			expected: "equilibrium/command/scene/activate",
		},
		{
			name:     "scene deactivate command",
			got:      Topics{}.CommandSceneDeactivate(),
			expected: "equilibrium/command/scene/deactivate",
		},
		{
			name:     "ir send command",
			got:      Topics{}.CommandSendIR(),
			expected: "equilibrium/command/ir/send",
		},
		{
			name:     "ble key command",
			got:      Topics{}.CommandSendKey(),
			expected: "equilibrium/command/ble/key",
		},
		{
			name:     "pairing confirm command",
			got:      Topics{}.CommandPairingConfirm(),
			expected: "equilibrium/command/pairing/confirm",
		},
		{
			name:     "system status",
			got:      Topics{}.SystemStatus(),
			expected: "equilibrium/system/status",
		},
		{
			name:     "all commands pattern",
			got:      Topics{}.AllCommands(),
			expected: "equilibrium/command/#",
		},
		{
			name:     "all device states pattern",
			got:      Topics{}.AllDeviceStates(),
			expected: "equilibrium/device/+/state",
		},
		{
			name:     "all events pattern",
			got:      Topics{}.AllEvents(),
			expected: "equilibrium/event/+",
		},
		{
			name:     "all topics pattern",
			got:      Topics{}.AllTopics(),
			expected: "equilibrium/#",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.got != tt.expected {
				t.Errorf("got %q, want %q", tt.got, tt.expected)
			}
		})
	}
}

// =============================================================================
// State Tests (no broker required)
// =============================================================================

func TestSubscriptionCount_Empty(t *testing.T) {
	c := &Client{subscriptions: make(map[string]subscription)}
	if got := c.SubscriptionCount(); got != 0 {
		t.Errorf("SubscriptionCount() = %d, want 0", got)
	}
}

func TestHasSubscription_NotSubscribed(t *testing.T) {
	c := &Client{subscriptions: make(map[string]subscription)}
	if c.HasSubscription("equilibrium/test") {
		t.Error("HasSubscription() = true for unsubscribed topic")
	}
}
