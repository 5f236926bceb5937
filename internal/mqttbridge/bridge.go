package mqttbridge

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/wehrfritz/equilibrium-core/internal/infrastructure/mqtt"
	"github.com/wehrfritz/equilibrium-core/internal/orchestrator"
	"github.com/wehrfritz/equilibrium-core/internal/queue"
)

// Logger defines the logging interface used by this package.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

type noopLogger struct{}

func (noopLogger) Debug(string, ...any) {}
func (noopLogger) Info(string, ...any)  {}
func (noopLogger) Warn(string, ...any)  {}
func (noopLogger) Error(string, ...any) {}

// Broker is the subset of the MQTT client the bridge needs.
type Broker interface {
	Publish(topic string, payload []byte, qos byte, retained bool) error
	Subscribe(topic string, qos byte, handler mqtt.MessageHandler) error
}

// Hub is the subset of the orchestrator the bridge drives.
type Hub interface {
	ActivateScene(ctx context.Context, name string) error
	DeactivateScene(ctx context.Context) error
	SendIR(ctx context.Context, deviceID, name string, repeat int) (*queue.Handle, error)
	SendBLEKey(key string, hold time.Duration) (*queue.Handle, error)
	ConfirmPairing(accept bool) error
}

// Bridge wires the orchestrator to an MQTT broker.
type Bridge struct {
	broker Broker
	hub    Hub
	qos    byte
	log    Logger
	topics mqtt.Topics

	// commandTimeout bounds how long an inbound MQTT command may run.
	commandTimeout time.Duration
}

// New creates a bridge. Call Start to subscribe to command topics.
func New(broker Broker, hub Hub, qos byte, log Logger) *Bridge {
	if log == nil {
		log = noopLogger{}
	}
	return &Bridge{
		broker:         broker,
		hub:            hub,
		qos:            qos,
		log:            log,
		commandTimeout: 30 * time.Second,
	}
}

// Start subscribes to the inbound command topics.
func (b *Bridge) Start() error {
	subs := map[string]mqtt.MessageHandler{
		b.topics.CommandSceneActivate():   b.handleSceneActivate,
		b.topics.CommandSceneDeactivate(): b.handleSceneDeactivate,
		b.topics.CommandSendIR():          b.handleSendIR,
		b.topics.CommandSendKey():         b.handleSendKey,
		b.topics.CommandPairingConfirm():  b.handlePairingConfirm,
	}
	for topic, handler := range subs {
		if err := b.broker.Subscribe(topic, b.qos, handler); err != nil {
			return fmt.Errorf("mqttbridge: subscribing %s: %w", topic, err)
		}
	}
	return nil
}

// Publish implements orchestrator.Sink.
func (b *Bridge) Publish(_ context.Context, ev orchestrator.Event) error {
	payload, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("mqttbridge: encoding event: %w", err)
	}

	topic := b.topics.Event(string(ev.Type))
	retained := false
	switch ev.Type {
	case orchestrator.EventDeviceState:
		topic = b.topics.DeviceState(ev.DeviceID)
		retained = true
	case orchestrator.EventScene:
		topic = b.topics.SceneStatus(ev.Scene)
		retained = true
	case orchestrator.EventPairing:
		topic = b.topics.PairingRequest()
	}

	return b.broker.Publish(topic, payload, b.qos, retained)
}

// --- inbound command handlers ---

type scenePayload struct {
	Scene string `json:"scene"`
}

type irPayload struct {
	DeviceID string `json:"device_id"`
	Name     string `json:"name"`
	Repeat   int    `json:"repeat"`
}

type keyPayload struct {
	Key    string `json:"key"`
	HoldMs int    `json:"hold_ms"`
}

type pairingPayload struct {
	Accept bool `json:"accept"`
}

func (b *Bridge) handleSceneActivate(_ string, payload []byte) error {
	var p scenePayload
	if err := json.Unmarshal(payload, &p); err != nil {
		return fmt.Errorf("mqttbridge: scene activate payload: %w", err)
	}
	if p.Scene == "" {
		return fmt.Errorf("mqttbridge: scene activate payload missing scene")
	}

	ctx, cancel := context.WithTimeout(context.Background(), b.commandTimeout)
	defer cancel()

	b.log.Info("scene activation via mqtt", "scene", p.Scene)
	return b.hub.ActivateScene(ctx, p.Scene)
}

func (b *Bridge) handleSceneDeactivate(_ string, _ []byte) error {
	ctx, cancel := context.WithTimeout(context.Background(), b.commandTimeout)
	defer cancel()

	b.log.Info("scene stop via mqtt")
	return b.hub.DeactivateScene(ctx)
}

func (b *Bridge) handleSendIR(_ string, payload []byte) error {
	var p irPayload
	if err := json.Unmarshal(payload, &p); err != nil {
		return fmt.Errorf("mqttbridge: ir send payload: %w", err)
	}
	if p.DeviceID == "" || p.Name == "" {
		return fmt.Errorf("mqttbridge: ir send payload needs device_id and name")
	}

	ctx, cancel := context.WithTimeout(context.Background(), b.commandTimeout)
	defer cancel()

	h, err := b.hub.SendIR(ctx, p.DeviceID, p.Name, p.Repeat)
	if err != nil {
		return err
	}
	return h.Wait(ctx)
}

func (b *Bridge) handleSendKey(_ string, payload []byte) error {
	var p keyPayload
	if err := json.Unmarshal(payload, &p); err != nil {
		return fmt.Errorf("mqttbridge: ble key payload: %w", err)
	}
	if p.Key == "" {
		return fmt.Errorf("mqttbridge: ble key payload needs key")
	}

	ctx, cancel := context.WithTimeout(context.Background(), b.commandTimeout)
	defer cancel()

	h, err := b.hub.SendBLEKey(p.Key, time.Duration(p.HoldMs)*time.Millisecond)
	if err != nil {
		return err
	}
	return h.Wait(ctx)
}

func (b *Bridge) handlePairingConfirm(_ string, payload []byte) error {
	var p pairingPayload
	if err := json.Unmarshal(payload, &p); err != nil {
		return fmt.Errorf("mqttbridge: pairing confirm payload: %w", err)
	}

	b.log.Info("pairing confirmation via mqtt", "accept", p.Accept)
	return b.hub.ConfirmPairing(p.Accept)
}
