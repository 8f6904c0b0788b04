package mqtt

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"strings"
	"sync"
	"testing"
	"time"

	pahomqtt "github.com/eclipse/paho.mqtt.golang"

	"github.com/nerrad567/gray-logic-dbaccess/internal/infrastructure/config"
)

func testConfig() config.MQTTConfig {
	return config.MQTTConfig{
		Enabled: true,
		Broker: config.MQTTBrokerConfig{
			Host:     "127.0.0.1",
			Port:     1883,
			ClientID: "dbaccess-test",
		},
		QoS:         1,
		TopicPrefix: "dbaccess-test",
	}
}

func TestBuildClientOptions(t *testing.T) {
	cfg := testConfig()
	cfg.Auth = config.MQTTAuthConfig{Username: "svc", Password: "secret"}

	opts := buildClientOptions(cfg)

	if len(opts.Servers) != 1 || opts.Servers[0].String() != "tcp://127.0.0.1:1883" {
		t.Errorf("Servers = %v, want tcp://127.0.0.1:1883", opts.Servers)
	}
	if opts.ClientID != "dbaccess-test" {
		t.Errorf("ClientID = %q", opts.ClientID)
	}
	if opts.Username != "svc" || opts.Password != "secret" {
		t.Errorf("credentials = %q/%q", opts.Username, opts.Password)
	}
	if !opts.CleanSession || !opts.AutoReconnect {
		t.Error("want clean session and auto reconnect")
	}
	if opts.TLSConfig != nil && opts.TLSConfig.MinVersion != 0 {
		t.Error("TLS configured without Broker.TLS")
	}
}

func TestBuildClientOptions_TLS(t *testing.T) {
	cfg := testConfig()
	cfg.Broker.TLS = true
	cfg.Broker.Port = 8883

	opts := buildClientOptions(cfg)

	if opts.Servers[0].Scheme != "ssl" {
		t.Errorf("scheme = %q, want ssl", opts.Servers[0].Scheme)
	}
	if opts.TLSConfig == nil || opts.TLSConfig.MinVersion != tlsMinVersion {
		t.Error("TLS config missing or below minimum version")
	}
	if opts.Username != "" {
		t.Errorf("Username = %q, want empty without credentials", opts.Username)
	}
}

func TestConfigureLWT(t *testing.T) {
	opts := pahomqtt.NewClientOptions()
	configureLWT(opts, NewTopics("ops"), "dbaccess-01")

	if !opts.WillEnabled || !opts.WillRetained || opts.WillQos != 1 {
		t.Errorf("will enabled=%v retained=%v qos=%d", opts.WillEnabled, opts.WillRetained, opts.WillQos)
	}
	if opts.WillTopic != "ops/status" {
		t.Errorf("WillTopic = %q", opts.WillTopic)
	}

	var payload map[string]string
	if err := json.Unmarshal(opts.WillPayload, &payload); err != nil {
		t.Fatalf("will payload not JSON: %v", err)
	}
	if payload["status"] != "offline" || payload["reason"] != "unexpected_disconnect" || payload["client_id"] != "dbaccess-01" {
		t.Errorf("will payload = %v", payload)
	}
}

func TestStatusPayload(t *testing.T) {
	ts := time.Date(2026, 1, 14, 9, 30, 0, 0, time.UTC)

	got := statusPayload("online", "c1", "", ts)
	want := `{"status":"online","client_id":"c1","timestamp":"2026-01-14T09:30:00Z"}`
	if got != want {
		t.Errorf("statusPayload() = %s, want %s", got, want)
	}
}

func TestPublish_Validation(t *testing.T) {
	c := &Client{cfg: testConfig(), topics: NewTopics("x")}

	tests := []struct {
		name    string
		topic   string
		payload []byte
		qos     byte
		want    error
	}{
		{name: "empty topic", topic: "", qos: 0, want: ErrInvalidTopic},
		{name: "bad qos", topic: "x/y", qos: 3, want: ErrInvalidQoS},
		{name: "oversized", topic: "x/y", payload: make([]byte, maxPayloadSize+1), want: ErrPublishFailed},
		{name: "not connected", topic: "x/y", payload: []byte("{}"), qos: 1, want: ErrNotConnected},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := c.Publish(tt.topic, tt.payload, tt.qos, false)
			if !errors.Is(err, tt.want) {
				t.Errorf("Publish() error = %v, want %v", err, tt.want)
			}
		})
	}

	if err := c.PublishEvent("", []byte("{}")); !errors.Is(err, ErrInvalidTopic) {
		t.Errorf("PublishEvent(\"\") error = %v, want ErrInvalidTopic", err)
	}
}

func TestConnect_Disabled(t *testing.T) {
	cfg := testConfig()
	cfg.Enabled = false

	if _, err := Connect(cfg); !errors.Is(err, ErrDisabled) {
		t.Errorf("Connect() error = %v, want ErrDisabled", err)
	}
}

func TestClient_NilSafe(t *testing.T) {
	var c *Client
	if c.IsConnected() {
		t.Error("nil client IsConnected() = true")
	}
	if err := c.Close(); err != nil {
		t.Errorf("nil client Close() error = %v", err)
	}
	if err := (&Client{}).HealthCheck(context.Background()); !errors.Is(err, ErrNotConnected) {
		t.Errorf("HealthCheck() error = %v, want ErrNotConnected", err)
	}
}

// connectOrSkip connects to a local broker or skips the test.
func connectOrSkip(t *testing.T, clientID string) *Client {
	t.Helper()
	if os.Getenv("RUN_INTEGRATION") == "" {
		t.Skip("RUN_INTEGRATION not set, skipping MQTT integration test")
	}
	cfg := testConfig()
	cfg.Broker.ClientID = clientID
	c, err := Connect(cfg)
	if err != nil {
		t.Skipf("MQTT broker not available: %v", err)
	}
	t.Cleanup(func() { c.Close() }) //nolint:errcheck // Test cleanup
	return c
}

func TestPublishEvent_RoundTrip(t *testing.T) {
	pub := connectOrSkip(t, "dbaccess-test-pub")

	sub := pahomqtt.NewClient(buildClientOptions(func() config.MQTTConfig {
		cfg := testConfig()
		cfg.Broker.ClientID = "dbaccess-test-sub"
		return cfg
	}()))
	if token := sub.Connect(); !token.WaitTimeout(defaultConnectTimeout) || token.Error() != nil {
		t.Skipf("subscriber could not connect: %v", token.Error())
	}
	defer sub.Disconnect(defaultDisconnectQuiesce)

	var (
		mu       sync.Mutex
		received []string
	)
	done := make(chan struct{}, 1)
	token := sub.Subscribe(pub.Topics().AllDBEvents(), 1, func(_ pahomqtt.Client, msg pahomqtt.Message) {
		mu.Lock()
		received = append(received, msg.Topic()+" "+string(msg.Payload()))
		mu.Unlock()
		select {
		case done <- struct{}{}:
		default:
		}
	})
	if !token.WaitTimeout(defaultPublishTimeout) || token.Error() != nil {
		t.Fatalf("Subscribe() error = %v", token.Error())
	}

	if err := pub.PublishEvent("reconnect", []byte(`{"attempt":1}`)); err != nil {
		t.Fatalf("PublishEvent() error = %v", err)
	}

	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("event not received")
	}

	mu.Lock()
	defer mu.Unlock()
	if len(received) == 0 || !strings.HasPrefix(received[0], "dbaccess-test/db/events/reconnect ") {
		t.Errorf("received = %v", received)
	}
}
