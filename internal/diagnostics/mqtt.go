package diagnostics

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/nerrad567/gray-logic-dbaccess/internal/infrastructure/database"
)

// EventPublisher is the part of mqtt.Client used by MQTTRecorder.
type EventPublisher interface {
	PublishEvent(kind string, payload []byte) error
}

// MQTTRecorder publishes each event as JSON on <prefix>/db/events/<kind>.
type MQTTRecorder struct {
	pub EventPublisher
}

// NewMQTTRecorder returns a recorder publishing through pub.
func NewMQTTRecorder(pub EventPublisher) *MQTTRecorder {
	return &MQTTRecorder{pub: pub}
}

// Record publishes ev. Nil params are encoded as an empty array.
func (r *MQTTRecorder) Record(_ context.Context, ev database.Event) error {
	if ev.Params == nil {
		ev.Params = []any{}
	}
	payload, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("encoding %s event: %w", ev.Kind, err)
	}
	if err := r.pub.PublishEvent(string(ev.Kind), payload); err != nil {
		return fmt.Errorf("publishing %s event: %w", ev.Kind, err)
	}
	return nil
}
