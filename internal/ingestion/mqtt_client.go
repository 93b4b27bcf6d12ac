package ingestion

import (
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"robot-dispatch/internal/logger"
	"robot-dispatch/internal/metrics"
	pkgmqtt "robot-dispatch/pkg/mqtt"

	"go.uber.org/zap"
)

// Subscriber is the part of the MQTT client ingestion needs.
type Subscriber interface {
	Subscribe(topic string, qos byte, handler pkgmqtt.MessageHandler) error
	Unsubscribe(topics ...string) error
}

// MQTTIngestionConfig describes where robots publish.
type MQTTIngestionConfig struct {
	TopicPrefix string
	QoS         byte
	// JWTSecret verifies the robot token carried in each payload.
	JWTSecret string
}

func (c *MQTTIngestionConfig) PhaseTopic() string {
	return strings.TrimSuffix(c.TopicPrefix, "/") + "/robots/+/phase"
}

func (c *MQTTIngestionConfig) StatusTopic() string {
	return strings.TrimSuffix(c.TopicPrefix, "/") + "/robots/+/status"
}

// MQTTIngestionClient decodes robot messages and hands them to the processor.
type MQTTIngestionClient struct {
	cfg       MQTTIngestionConfig
	client    Subscriber
	processor *Processor
	metrics   *metrics.DispatchMetrics
	log       *zap.Logger
	now       func() time.Time

	mu            sync.Mutex
	started       bool
	subscriptions []string
}

func NewMQTTIngestionClient(cfg MQTTIngestionConfig, client Subscriber, processor *Processor, m *metrics.DispatchMetrics) (*MQTTIngestionClient, error) {
	if client == nil {
		return nil, errors.New("mqtt client is required")
	}
	if processor == nil {
		return nil, errors.New("processor is required")
	}
	if cfg.TopicPrefix == "" {
		return nil, errors.New("mqtt topic prefix is not configured")
	}
	if cfg.JWTSecret == "" {
		return nil, errors.New("jwt secret is required to authenticate robot messages")
	}

	return &MQTTIngestionClient{
		cfg:       cfg,
		client:    client,
		processor: processor,
		metrics:   m,
		log:       logger.Named("ingestion"),
		now:       func() time.Time { return time.Now().UTC() },
	}, nil
}

// Start subscribes to the phase and status topics. The client must
// already be connected.
func (c *MQTTIngestionClient) Start() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.started {
		return nil
	}

	for _, topic := range []string{c.cfg.PhaseTopic(), c.cfg.StatusTopic()} {
		if err := c.client.Subscribe(topic, c.cfg.QoS, c.HandleMessage); err != nil {
			c.unsubscribe()
			return fmt.Errorf("subscribe failed for topic %s: %w", topic, err)
		}
		c.subscriptions = append(c.subscriptions, topic)
		c.log.Info("Listening for robot messages", zap.String("topic", topic))
	}

	c.started = true
	return nil
}

// Stop unsubscribes; the processor is stopped by its owner.
func (c *MQTTIngestionClient) Stop() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.started {
		return
	}
	c.unsubscribe()
	c.started = false
}

func (c *MQTTIngestionClient) unsubscribe() {
	if len(c.subscriptions) == 0 {
		return
	}
	if err := c.client.Unsubscribe(c.subscriptions...); err != nil {
		c.log.Warn("Failed to unsubscribe from MQTT topics", zap.Error(err))
	}
	c.subscriptions = nil
}

// HandleMessage decodes one message and queues it. Malformed messages and
// messages not signed by the topic's robot are counted and discarded.
func (c *MQTTIngestionClient) HandleMessage(topic string, payload []byte) {
	robotID, kind, err := ParseTopic(c.cfg.TopicPrefix, topic)
	if err != nil {
		c.reject("unknown", topic, err)
		return
	}

	token, err := parseToken(payload)
	if err == nil {
		err = AuthenticateRobot(token, c.cfg.JWTSecret, robotID)
	}
	if err != nil {
		c.reject(string(kind), topic, err)
		return
	}

	job := &Job{Kind: kind, RobotID: robotID, ReceivedAt: c.now()}
	switch kind {
	case KindPhase:
		msg, err := ParsePhaseMessage(payload, job.ReceivedAt)
		if err == nil {
			err = ValidatePhaseMessage(msg)
		}
		if err != nil {
			c.reject(string(kind), topic, err)
			return
		}
		job.Phase = msg
	case KindStatus:
		msg, err := ParseStatusMessage(payload)
		if err != nil {
			c.reject(string(kind), topic, err)
			return
		}
		job.Status = msg
	}

	c.processor.Submit(job)
}

func (c *MQTTIngestionClient) reject(kind, topic string, err error) {
	c.metrics.IncIngestion(kind, metrics.OutcomeFailure)
	c.log.Warn("Invalid robot message",
		zap.String("topic", topic),
		zap.Error(err),
	)
}
