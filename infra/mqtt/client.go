// Package mqtt delivers incident alerts to responders over an MQTT
// broker. Each responder owns an alert topic; delivery is per-target
// and best-effort.
package mqtt

import (
	"crypto/tls"
	"time"

	paho "github.com/eclipse/paho.mqtt.golang"
)

// Client is the broker surface the gateway publishes through.
type Client interface {
	IsConnected() bool
	Disconnect(uint)
	Publish(topic string, qos byte, retained bool, payload interface{}) paho.Token
}

// Connect dials the broker with auto-reconnect enabled. tlsConfig and
// optsFunc may be nil.
func Connect(broker, clientID string, tlsConfig *tls.Config, optsFunc func(*paho.ClientOptions)) (Client, error) {
	opts := paho.NewClientOptions().
		AddBroker(broker).
		SetClientID(clientID).
		SetTLSConfig(tlsConfig).
		SetConnectTimeout(5 * time.Second).
		SetAutoReconnect(true)

	if optsFunc != nil {
		optsFunc(opts)
	}

	client := paho.NewClient(opts)
	token := client.Connect()
	if token.Wait() && token.Error() != nil {
		return nil, token.Error()
	}
	return client, nil
}
