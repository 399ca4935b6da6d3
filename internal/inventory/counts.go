package inventory

import (
	"time"

	"github.com/simplextech/udi-poly-inventory/internal/isy"
)

// Counts is the aggregated inventory of one discovery cycle.
//
// TotalNodes always equals InsteonNodes + ZWaveNodes + NodeServerNodes.
type Counts struct {
	TotalNodes       int
	Scenes           int
	InsteonNodes     int
	ZWaveNodes       int
	NodeServerNodes  int
	IntegerVariables int
	StateVariables   int
	Programs         int
}

// applyNodes copies node counts, deriving the total from the partition.
func (c *Counts) applyNodes(n isy.NodeCounts) {
	c.Scenes = n.Scenes
	c.InsteonNodes = n.Insteon
	c.ZWaveNodes = n.ZWave
	c.NodeServerNodes = n.NodeServer
	c.TotalNodes = n.Insteon + n.ZWave + n.NodeServer
}

// Fields returns the counts keyed by stable field names, for time series
// and history storage.
func (c Counts) Fields() map[string]int {
	return map[string]int{
		"total_nodes":       c.TotalNodes,
		"scenes":            c.Scenes,
		"insteon_nodes":     c.InsteonNodes,
		"zwave_nodes":       c.ZWaveNodes,
		"nodeserver_nodes":  c.NodeServerNodes,
		"integer_variables": c.IntegerVariables,
		"state_variables":   c.StateVariables,
		"programs":          c.Programs,
	}
}

// Cycle describes one completed discovery cycle.
type Cycle struct {
	ID        string
	Host      string
	StartedAt time.Time
	Duration  time.Duration
	Counts    Counts

	// Failures holds the error of every resource that contributed zeros.
	Failures map[isy.Endpoint]error
}

// Partial reports whether any resource failed during the cycle.
func (c Cycle) Partial() bool {
	return len(c.Failures) > 0
}
