package mqtt

import (
	"fmt"
	"sync"
	"time"

	"robot-dispatch/internal/logger"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"go.uber.org/zap"
)

type Config struct {
	Broker               string
	ClientID             string
	Username             string
	Password             string
	CleanSession         bool
	KeepAlive            int
	ConnectTimeout       int
	AutoReconnect        bool
	MaxReconnectInterval time.Duration
}

type subscription struct {
	qos     byte
	handler mqtt.MessageHandler
}

// Client wraps a paho client. Subscriptions are remembered and restored on
// every reconnect, since a clean session drops them broker side.
type Client struct {
	client mqtt.Client
	config *Config
	log    *zap.Logger

	mu   sync.Mutex
	subs map[string]subscription
}

type MessageHandler func(topic string, payload []byte)

func NewClient(config *Config) *Client {
	log := logger.Named("mqtt")

	opts := mqtt.NewClientOptions()
	opts.AddBroker(config.Broker)
	opts.SetClientID(config.ClientID)
	opts.SetUsername(config.Username)
	opts.SetPassword(config.Password)
	opts.SetCleanSession(config.CleanSession)
	opts.SetKeepAlive(time.Duration(config.KeepAlive) * time.Second)
	opts.SetConnectTimeout(time.Duration(config.ConnectTimeout) * time.Second)
	opts.SetAutoReconnect(config.AutoReconnect)
	if config.MaxReconnectInterval > 0 {
		opts.SetMaxReconnectInterval(config.MaxReconnectInterval)
	}

	c := &Client{
		config: config,
		log:    log,
		subs:   make(map[string]subscription),
	}

	opts.SetOnConnectHandler(func(pc mqtt.Client) {
		log.Info("MQTT client connected", zap.String("broker", config.Broker))
		c.resubscribe(pc)
	})
	opts.SetConnectionLostHandler(func(_ mqtt.Client, err error) {
		log.Warn("MQTT connection lost", zap.Error(err))
	})
	opts.SetReconnectingHandler(func(mqtt.Client, *mqtt.ClientOptions) {
		log.Info("Reconnecting to MQTT broker")
	})

	c.client = mqtt.NewClient(opts)
	return c
}

func (c *Client) resubscribe(pc mqtt.Client) {
	c.mu.Lock()
	defer c.mu.Unlock()

	for topic, sub := range c.subs {
		token := pc.Subscribe(topic, sub.qos, sub.handler)
		// the connect callback must not block on the network loop
		go func(topic string, token mqtt.Token) {
			if token.Wait() && token.Error() != nil {
				c.log.Error("Resubscribe failed", zap.String("topic", topic), zap.Error(token.Error()))
			}
		}(topic, token)
	}
}

// Connect establishes a connection to the MQTT broker
func (c *Client) Connect() error {
	c.log.Info("Connecting to MQTT broker", zap.String("broker", c.config.Broker))

	token := c.client.Connect()
	token.Wait()
	if err := token.Error(); err != nil {
		return fmt.Errorf("failed to connect to MQTT broker: %w", err)
	}
	return nil
}

// Subscribe subscribes to topic and keeps the subscription across reconnects.
func (c *Client) Subscribe(topic string, qos byte, handler MessageHandler) error {
	sub := subscription{qos: qos, handler: func(_ mqtt.Client, msg mqtt.Message) {
		handler(msg.Topic(), msg.Payload())
	}}

	token := c.client.Subscribe(topic, qos, sub.handler)
	token.Wait()
	if err := token.Error(); err != nil {
		return fmt.Errorf("failed to subscribe to topic %s: %w", topic, err)
	}

	c.mu.Lock()
	c.subs[topic] = sub
	c.mu.Unlock()

	c.log.Debug("Subscribed", zap.String("topic", topic), zap.Uint8("qos", qos))
	return nil
}

// Publish publishes a message to a topic
func (c *Client) Publish(topic string, qos byte, retained bool, payload []byte) error {
	token := c.client.Publish(topic, qos, retained, payload)
	token.Wait()
	return token.Error()
}

func (c *Client) Unsubscribe(topics ...string) error {
	c.mu.Lock()
	for _, topic := range topics {
		delete(c.subs, topic)
	}
	c.mu.Unlock()

	token := c.client.Unsubscribe(topics...)
	token.Wait()
	return token.Error()
}

func (c *Client) Disconnect() {
	c.client.Disconnect(250)
	c.log.Info("Disconnected from MQTT broker")
}

func (c *Client) IsConnected() bool {
	return c.client.IsConnected()
}
