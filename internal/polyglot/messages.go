package polyglot

import (
	"encoding/json"
	"fmt"
	"strconv"
)

// Config is the node server configuration pushed by Polyglot.
type Config struct {
	// CustomParams are the user-editable key/value parameters.
	CustomParams map[string]string

	// Nodes lists the nodes Polyglot already knows for this node server.
	Nodes []NodeInfo
}

// HasNode reports whether Polyglot already lists address.
func (c Config) HasNode(address string) bool {
	for _, n := range c.Nodes {
		if n.Address == address {
			return true
		}
	}
	return false
}

// NodeInfo is a node as listed in a config message.
type NodeInfo struct {
	Address   string `json:"address"`
	Name      string `json:"name"`
	NodeDefID string `json:"node_def_id"`
	Primary   string `json:"primary"`
}

// Node describes a node to create with AddNode.
type Node struct {
	Address   string   `json:"address"`
	Name      string   `json:"name"`
	NodeDefID string   `json:"node_def_id"`
	Primary   string   `json:"primary"`
	Drivers   []Driver `json:"drivers"`
	Hint      string   `json:"hint,omitempty"`
}

// Driver is an initial driver value of a new node.
type Driver struct {
	Driver string `json:"driver"`
	Value  int    `json:"value"`
	UOM    int    `json:"uom"`
}

// hostState is the retained connection state Polyglot keeps for itself.
type hostState struct {
	Connected bool `json:"connected"`
}

// Inbound messages. Each carries exactly one meaningful key.
type inbound struct {
	Config    *configMessage  `json:"config"`
	Query     *addressMessage `json:"query"`
	Command   *commandMessage `json:"command"`
	ShortPoll json.RawMessage `json:"shortPoll"`
	LongPoll  json.RawMessage `json:"longPoll"`
	Stop      json.RawMessage `json:"stop"`
	Delete    json.RawMessage `json:"delete"`
}

type configMessage struct {
	CustomParams map[string]any `json:"customParams"`
	Nodes        []NodeInfo     `json:"nodes"`
}

type addressMessage struct {
	Address string `json:"address"`
}

type commandMessage struct {
	Address string `json:"address"`
	Cmd     string `json:"cmd"`
}

// toConfig normalises custom parameter values to strings; Polyglot sends
// whatever JSON type the user's input parsed as.
func (m *configMessage) toConfig() Config {
	cfg := Config{
		CustomParams: make(map[string]string, len(m.CustomParams)),
		Nodes:        m.Nodes,
	}
	for k, v := range m.CustomParams {
		switch val := v.(type) {
		case string:
			cfg.CustomParams[k] = val
		case float64:
			cfg.CustomParams[k] = strconv.FormatFloat(val, 'f', -1, 64)
		case bool:
			cfg.CustomParams[k] = strconv.FormatBool(val)
		case nil:
			cfg.CustomParams[k] = ""
		default:
			cfg.CustomParams[k] = fmt.Sprint(val)
		}
	}
	return cfg
}

// Outbound message bodies.
type statusBody struct {
	Address string `json:"address"`
	Driver  string `json:"driver"`
	Value   string `json:"value"`
	UOM     int    `json:"uom"`
}

type commandBody struct {
	Address string `json:"address"`
	Command string `json:"command"`
}

type noticeBody struct {
	Key   string `json:"key"`
	Value string `json:"value"`
}

type installProfileBody struct {
	Reboot bool `json:"reboot"`
}

type addNodeBody struct {
	Nodes []Node `json:"nodes"`
}

// encode builds an outbound message: {"node": profile, key: body}.
func encode(profile int, key string, body any) ([]byte, error) {
	raw, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("encoding %s: %w", key, err)
	}
	return json.Marshal(map[string]any{
		"node": profile,
		key:    json.RawMessage(raw),
	})
}
