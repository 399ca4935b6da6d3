// Package mqtt provides the broker connection between this node server and
// the Polyglot host.
//
// This package manages:
//   - Connection to the Polyglot broker with auto-reconnect
//   - Retained connection state with a Last Will for crash detection
//   - Subscriptions that survive reconnects
//   - Publishing with QoS acknowledgement
//
// # Topics
//
// Polyglot v2 gives each node server an inbound topic keyed by its profile
// number and a single shared outbound topic:
//
//	Polyglot → udi/polyglot/ns/{profile}        → node server
//	node server → udi/polyglot/ns/polyglot      → Polyglot
//	udi/polyglot/connections/{profile}          (retained {"connected":...})
//
// Message encoding lives in package polyglot; this package only moves bytes.
//
// # Usage
//
//	client, err := mqtt.Connect(cfg.MQTT, cfg.Polyglot.ProfileNum)
//	if err != nil {
//	    return err
//	}
//	defer client.Close()
//
//	topics := mqtt.Topics{Profile: cfg.Polyglot.ProfileNum}
//	err = client.Subscribe(topics.Inbound(), byte(cfg.MQTT.QoS),
//	    func(topic string, payload []byte) error {
//	        return dispatch(payload)
//	    })
package mqtt
