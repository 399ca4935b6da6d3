package inventory

import (
	"errors"
	"fmt"
)

// Units of measure used by the controller node's drivers.
const (
	UOMBoolean = 2
	UOMRaw     = 56
)

// Slot is one driver of the controller node.
type Slot struct {
	Driver string
	UOM    int
	Name   string
}

// Driver slots of the controller node.
var (
	SlotAlive            = Slot{Driver: "GPV", UOM: UOMBoolean, Name: "Collector Alive"}
	SlotTotalNodes       = Slot{Driver: "ST", UOM: UOMRaw, Name: "Total Nodes"}
	SlotScenes           = Slot{Driver: "GV0", UOM: UOMRaw, Name: "Scenes"}
	SlotInsteonNodes     = Slot{Driver: "GV1", UOM: UOMRaw, Name: "Insteon Nodes"}
	SlotZWaveNodes       = Slot{Driver: "GV2", UOM: UOMRaw, Name: "Z-Wave Nodes"}
	SlotNodeServerNodes  = Slot{Driver: "GV3", UOM: UOMRaw, Name: "Node Server Nodes"}
	SlotIntegerVariables = Slot{Driver: "GV4", UOM: UOMRaw, Name: "Integer Variables"}
	SlotStateVariables   = Slot{Driver: "GV5", UOM: UOMRaw, Name: "State Variables"}
	SlotPrograms         = Slot{Driver: "GV6", UOM: UOMRaw, Name: "Programs"}
)

// Slots lists every driver in the order the node declares them.
var Slots = []Slot{
	SlotAlive,
	SlotTotalNodes,
	SlotScenes,
	SlotInsteonNodes,
	SlotZWaveNodes,
	SlotNodeServerNodes,
	SlotIntegerVariables,
	SlotStateVariables,
	SlotPrograms,
}

// DriverSink is where driver values are written.
// This is typically implemented by the Polyglot interface.
type DriverSink interface {
	SetDriver(address, driver string, value, uom int) error
}

// Reporter writes cycle counts to the controller node's driver slots.
type Reporter struct {
	sink    DriverSink
	address string
}

// NewReporter creates a reporter for the node at address.
func NewReporter(sink DriverSink, address string) *Reporter {
	return &Reporter{sink: sink, address: address}
}

// Publish writes every slot, whether or not its value changed, so the host
// never keeps a stale value after a count drops and recovers. The alive
// slot is always 1.
//
// All slots are attempted even if some writes fail.
//
// Returns:
//   - error: ErrPublishFailed joined with every failed write, or nil
func (r *Reporter) Publish(c Counts) error {
	values := []struct {
		slot  Slot
		value int
	}{
		{SlotTotalNodes, c.TotalNodes},
		{SlotAlive, 1},
		{SlotScenes, c.Scenes},
		{SlotInsteonNodes, c.InsteonNodes},
		{SlotZWaveNodes, c.ZWaveNodes},
		{SlotNodeServerNodes, c.NodeServerNodes},
		{SlotIntegerVariables, c.IntegerVariables},
		{SlotStateVariables, c.StateVariables},
		{SlotPrograms, c.Programs},
	}

	var errs []error
	for _, v := range values {
		if err := r.sink.SetDriver(r.address, v.slot.Driver, v.value, v.slot.UOM); err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", v.slot.Driver, err))
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("%w: %w", ErrPublishFailed, errors.Join(errs...))
	}
	return nil
}
