package mqtt

import (
	"crypto/tls"
	"encoding/json"
	"fmt"
	"time"

	pahomqtt "github.com/eclipse/paho.mqtt.golang"

	"github.com/simplextech/udi-poly-inventory/internal/infrastructure/config"
)

const (
	defaultConnectTimeout = 10 * time.Second
	defaultPublishTimeout = 5 * time.Second

	// defaultDisconnectQuiesce is in milliseconds.
	defaultDisconnectQuiesce = 1000

	defaultKeepAlive = 60 * time.Second

	maxQoS = 2

	tlsMinVersion = tls.VersionTLS12
)

// buildClientOptions maps the MQTT config onto paho options.
//
// Reconnects back off from reconnect.initial_delay to reconnect.max_delay
// seconds. Sessions are clean; subscriptions are restored by the client.
func buildClientOptions(cfg config.MQTTConfig) *pahomqtt.ClientOptions {
	opts := pahomqtt.NewClientOptions()

	scheme := "tcp"
	if cfg.Broker.TLS {
		scheme = "ssl"
	}
	opts.AddBroker(fmt.Sprintf("%s://%s:%d", scheme, cfg.Broker.Host, cfg.Broker.Port))
	opts.SetClientID(cfg.Broker.ClientID)

	if cfg.Auth.Username != "" {
		opts.SetUsername(cfg.Auth.Username)
		opts.SetPassword(cfg.Auth.Password)
	}

	opts.SetCleanSession(true)

	opts.SetAutoReconnect(true)
	opts.SetConnectRetry(true)
	opts.SetConnectRetryInterval(time.Duration(cfg.Reconnect.InitialDelay) * time.Second)
	opts.SetMaxReconnectInterval(time.Duration(cfg.Reconnect.MaxDelay) * time.Second)

	opts.SetConnectTimeout(defaultConnectTimeout)
	opts.SetKeepAlive(defaultKeepAlive)

	if cfg.Broker.TLS {
		opts.SetTLSConfig(&tls.Config{MinVersion: tlsMinVersion})
	}

	return opts
}

// configureLWT leaves {"connected":false} on the connection topic if the
// process disappears without closing the client.
func configureLWT(opts *pahomqtt.ClientOptions, topics Topics, profile int) {
	opts.SetWill(topics.Connection(), string(connectionPayload(false, profile)), 1, true)
}

// connectionState is the payload of the connection topic.
type connectionState struct {
	Connected bool `json:"connected"`
	Node      int  `json:"node"`
}

func connectionPayload(connected bool, profile int) []byte {
	b, _ := json.Marshal(connectionState{Connected: connected, Node: profile}) //nolint:errcheck // Plain struct
	return b
}
