package events

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
)

// Publisher is the slice of the MQTT client the sink needs.
type Publisher interface {
	Publish(topic string, qos byte, retained bool, payload []byte) error
}

// MQTTSink publishes each event as JSON to <prefix>/events/<type>.
type MQTTSink struct {
	client Publisher
	prefix string
	qos    byte
}

func NewMQTTSink(client Publisher, prefix string, qos byte) *MQTTSink {
	return &MQTTSink{client: client, prefix: strings.TrimSuffix(prefix, "/"), qos: qos}
}

func (s *MQTTSink) Name() string { return "mqtt" }

func (s *MQTTSink) Topic(t Type) string {
	return fmt.Sprintf("%s/events/%s", s.prefix, t)
}

func (s *MQTTSink) Publish(ctx context.Context, evt Event) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	payload, err := json.Marshal(evt)
	if err != nil {
		return fmt.Errorf("marshal %s: %w", evt.Type, err)
	}
	if err := s.client.Publish(s.Topic(evt.Type), s.qos, false, payload); err != nil {
		return fmt.Errorf("mqtt publish %s: %w", evt.Type, err)
	}
	return nil
}
