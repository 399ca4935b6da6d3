package mqtt

import "fmt"

// Polyglot v2 topic roots.
const (
	// TopicPrefixNodeServer is where node servers and Polyglot exchange messages.
	TopicPrefixNodeServer = "udi/polyglot/ns"

	// TopicPrefixConnections holds retained connection state per participant.
	TopicPrefixConnections = "udi/polyglot/connections"

	// PolyglotID is the Polyglot host's own participant name.
	PolyglotID = "polyglot"
)

// Topics builds the topics used by one node server.
//
//	topics := mqtt.Topics{Profile: 3}
//	topics.Inbound()    // "udi/polyglot/ns/3"
//	topics.Outbound()   // "udi/polyglot/ns/polyglot"
//	topics.Connection() // "udi/polyglot/connections/3"
type Topics struct {
	Profile int
}

// Inbound is where Polyglot sends messages to this node server.
func (t Topics) Inbound() string {
	return fmt.Sprintf("%s/%d", TopicPrefixNodeServer, t.Profile)
}

// Outbound is where this node server sends messages to Polyglot.
// Every node server shares it; messages carry a "node" field.
func (Topics) Outbound() string {
	return TopicPrefixNodeServer + "/" + PolyglotID
}

// Connection holds this node server's retained connection state.
func (t Topics) Connection() string {
	return fmt.Sprintf("%s/%d", TopicPrefixConnections, t.Profile)
}

// PolyglotConnection holds the Polyglot host's own connection state.
func (Topics) PolyglotConnection() string {
	return TopicPrefixConnections + "/" + PolyglotID
}
