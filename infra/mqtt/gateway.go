package mqtt

import (
	"context"
	"encoding/json"
	"fmt"

	paho "github.com/eclipse/paho.mqtt.golang"

	"github.com/openaid/respond/core/logger"
	"github.com/openaid/respond/core/notify"
)

// Config holds the broker connection settings for the alert gateway.
type Config struct {
	BrokerURL   string `json:"broker_url" koanf:"broker_url"`
	ClientID    string `json:"client_id" koanf:"client_id"`
	Username    string `json:"username" koanf:"username"`
	Password    string `json:"password" koanf:"password"`
	TopicPrefix string `json:"topic_prefix" koanf:"topic_prefix"`
	QoS         byte   `json:"qos" koanf:"qos"`
}

// SetDefaults fills unset fields.
func (c *Config) SetDefaults() {
	if c.ClientID == "" {
		c.ClientID = "respond-gateway"
	}
	if c.TopicPrefix == "" {
		c.TopicPrefix = "respond"
	}
	if c.QoS == 0 {
		c.QoS = 1
	}
}

// Validate checks required fields.
func (c Config) Validate() error {
	if c.BrokerURL == "" {
		return fmt.Errorf("mqtt: broker_url is required")
	}
	return nil
}

// alertPayload is the wire shape published on a responder's topic.
type alertPayload struct {
	Title string            `json:"title"`
	Body  string            `json:"body"`
	Data  map[string]string `json:"data,omitempty"`
}

// Gateway publishes one message per target responder. A broker refusal
// for one target does not abort the rest of the fan-out.
type Gateway struct {
	client Client
	prefix string
	qos    byte
	log    logger.Logger
}

// NewGateway connects to the broker described by cfg.
func NewGateway(cfg Config, log logger.Logger) (*Gateway, error) {
	cfg.SetDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	client, err := Connect(cfg.BrokerURL, cfg.ClientID, nil, func(opts *paho.ClientOptions) {
		if cfg.Username != "" {
			opts.SetUsername(cfg.Username)
			opts.SetPassword(cfg.Password)
		}
	})
	if err != nil {
		return nil, fmt.Errorf("mqtt: connect %s: %w", cfg.BrokerURL, err)
	}
	return &Gateway{client: client, prefix: cfg.TopicPrefix, qos: cfg.QoS, log: log}, nil
}

// NewGatewayWithClient wraps an already connected client; used by tests.
func NewGatewayWithClient(client Client, prefix string, qos byte, log logger.Logger) *Gateway {
	return &Gateway{client: client, prefix: prefix, qos: qos, log: log}
}

// Topic returns the alert topic of one responder.
func (g *Gateway) Topic(uid string) string {
	return fmt.Sprintf("%s/responders/%s/alerts", g.prefix, uid)
}

// Send publishes the alert to every target's topic and reports
// per-target results.
func (g *Gateway) Send(ctx context.Context, alert notify.Alert) (notify.Receipt, error) {
	payload, err := json.Marshal(alertPayload{Title: alert.Title, Body: alert.Body, Data: alert.Data})
	if err != nil {
		return notify.Receipt{}, fmt.Errorf("mqtt: encode alert: %w", err)
	}
	receipt := notify.Receipt{}
	for _, uid := range alert.TargetUIDs {
		if err := ctx.Err(); err != nil {
			return receipt, err
		}
		token := g.client.Publish(g.Topic(uid), g.qos, false, payload)
		token.Wait()
		if err := token.Error(); err != nil {
			receipt.Failure++
			if receipt.Errors == nil {
				receipt.Errors = make(map[string]string)
			}
			receipt.Errors[uid] = err.Error()
			g.log.Warnf("alert to %s not delivered: %v", uid, err)
			continue
		}
		receipt.Success++
	}
	return receipt, nil
}

// Close disconnects from the broker.
func (g *Gateway) Close() {
	if g.client.IsConnected() {
		g.client.Disconnect(250)
	}
}
