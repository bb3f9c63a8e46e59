// Package mqtt publishes step records and receives parameter commands
// over an MQTT broker for external dashboards.
package mqtt

import (
	"encoding/json"
	"fmt"
	"time"

	paho "github.com/eclipse/paho.mqtt.golang"

	"github.com/kilianp07/solarbay/core/model"
	"github.com/kilianp07/solarbay/infra/logger"
)

// Config defines the connection parameters for the Paho MQTT client.
type Config struct {
	Enabled  bool   `json:"enabled"`
	Broker   string `json:"broker"`
	ClientID string `json:"client_id"`
	Username string `json:"username"`
	Password string `json:"password"`

	// StepTopic receives one JSON step record per tick.
	StepTopic string `json:"step_topic"`
	// CommandTopic receives JSON parameter maps applied between ticks.
	CommandTopic string `json:"command_topic"`

	QoS byte `json:"qos"`
}

// SetDefaults applies the default topics.
func (c *Config) SetDefaults() {
	if c.ClientID == "" {
		c.ClientID = "solarbay"
	}
	if c.StepTopic == "" {
		c.StepTopic = "solarbay/step"
	}
	if c.CommandTopic == "" {
		c.CommandTopic = "solarbay/params"
	}
}

// Validate checks mandatory fields when the client is enabled.
func (c Config) Validate() error {
	if c.Enabled && c.Broker == "" {
		return fmt.Errorf("mqtt: broker is required")
	}
	return nil
}

// Client wraps a connected Paho client.
type Client struct {
	cli paho.Client
	cfg Config
	log logger.Logger
}

// New connects to the broker.
func New(cfg Config) (*Client, error) {
	log := logger.New("mqtt-client")
	opts := paho.NewClientOptions().AddBroker(cfg.Broker).SetClientID(cfg.ClientID)
	opts.AutoReconnect = true
	if cfg.Username != "" {
		opts.SetUsername(cfg.Username)
		opts.SetPassword(cfg.Password)
	}
	opts.OnConnect = func(paho.Client) { log.Infof("MQTT connected to %s", cfg.Broker) }
	opts.OnConnectionLost = func(_ paho.Client, err error) { log.Errorf("connection lost: %v", err) }
	c := paho.NewClient(opts)
	if token := c.Connect(); token.Wait() && token.Error() != nil {
		return nil, token.Error()
	}
	return &Client{cli: c, cfg: cfg, log: log}, nil
}

// PublishStep publishes the step record as JSON on the step topic.
func (c *Client) PublishStep(rec model.StepResult) error {
	payload, err := json.Marshal(rec)
	if err != nil {
		return err
	}
	token := c.cli.Publish(c.cfg.StepTopic, c.cfg.QoS, false, payload)
	if !token.WaitTimeout(5 * time.Second) {
		return fmt.Errorf("mqtt: publish timeout on %s", c.cfg.StepTopic)
	}
	return token.Error()
}

// SubscribeCommands invokes handler with each parameter map received on
// the command topic. Malformed payloads are logged and dropped.
func (c *Client) SubscribeCommands(handler func(map[string]float64)) error {
	token := c.cli.Subscribe(c.cfg.CommandTopic, c.cfg.QoS, func(_ paho.Client, msg paho.Message) {
		params, err := ParseCommand(msg.Payload())
		if err != nil {
			c.log.Warnf("invalid command payload: %v", err)
			return
		}
		handler(params)
	})
	if !token.WaitTimeout(5 * time.Second) {
		return fmt.Errorf("mqtt: subscribe timeout on %s", c.cfg.CommandTopic)
	}
	return token.Error()
}

// Close disconnects from the broker.
func (c *Client) Close() {
	c.cli.Disconnect(250)
}
