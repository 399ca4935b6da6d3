package controller

import (
	"context"
	"errors"
	"maps"
	"sync"

	"github.com/simplextech/udi-poly-inventory/internal/heartbeat"
	"github.com/simplextech/udi-poly-inventory/internal/inventory"
	"github.com/simplextech/udi-poly-inventory/internal/params"
	"github.com/simplextech/udi-poly-inventory/internal/polyglot"
)

// Commands accepted by the controller node.
const (
	CommandQuery         = "QUERY"
	CommandDiscover      = "DISCOVER"
	CommandUpdateProfile = "UPDATE_PROFILE"
)

// Host is the part of the Polyglot host the controller drives.
// Implemented by *polyglot.Interface.
type Host interface {
	AddNotice(key, text string) error
	RemoveNoticesAll() error
	SaveCustomParams(params map[string]string) error
	InstallProfile() error
	AddNode(node polyglot.Node) error
}

// Cycler runs one discovery cycle.
// Implemented by *inventory.Collector.
type Cycler interface {
	RunCycle(ctx context.Context, p params.Params) (inventory.Cycle, error)
}

// Logger is the logging the controller needs, including the runtime debug
// switch. Implemented by *logging.Logger.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
	SetDebug(enabled bool)
}

// NodeConfig identifies the controller node on the host.
type NodeConfig struct {
	Address   string
	Name      string
	NodeDefID string
}

// Options holds the dependencies of a Controller.
type Options struct {
	Host      Host
	Cycler    Cycler
	Heartbeat *heartbeat.Toggler
	Logger    Logger
	Node      NodeConfig

	// OnShutdown is called once when the host stops or deletes the node
	// server. Optional.
	OnShutdown func()
}

// Controller reacts to host lifecycle events: it validates parameters,
// triggers discovery cycles and drives the heartbeat.
//
// Every event is handled under one lock, so a config change never lands in
// the middle of a cycle.
//
// Thread Safety:
//   - All methods are safe for concurrent use from multiple goroutines.
type Controller struct {
	host      Host
	cycler    Cycler
	heartbeat *heartbeat.Toggler
	logger    Logger
	node      NodeConfig

	onShutdown   func()
	shutdownOnce sync.Once

	mu      sync.Mutex
	params  params.Params
	started bool
}

// New creates a controller. Params hold placeholder defaults until OnStart.
func New(opts Options) *Controller {
	return &Controller{
		host:       opts.Host,
		cycler:     opts.Cycler,
		heartbeat:  opts.Heartbeat,
		logger:     opts.Logger,
		node:       opts.Node,
		onShutdown: opts.OnShutdown,
		params:     params.Validate(nil).Params,
	}
}

// Params returns the parameters currently in force.
func (c *Controller) Params() params.Params {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.params
}

// Node returns the controller node definition with every driver zeroed
// except the alive slot.
func (c *Controller) Node() polyglot.Node {
	drivers := make([]polyglot.Driver, 0, len(inventory.Slots))
	for _, s := range inventory.Slots {
		d := polyglot.Driver{Driver: s.Driver, UOM: s.UOM}
		if s == inventory.SlotAlive {
			d.Value = 1
		}
		drivers = append(drivers, d)
	}
	return polyglot.Node{
		Address:   c.node.Address,
		Name:      c.node.Name,
		NodeDefID: c.node.NodeDefID,
		Primary:   c.node.Address,
		Drivers:   drivers,
	}
}

// OnStart handles the first configuration from the host.
//
// Parameters are validated and re-emitted in full, the controller node is
// created if the host does not know it yet, the heartbeat is started and a
// first cycle runs. Incomplete parameters raise a notice but do not stop
// the cycle: placeholders are used until the operator fixes them.
func (c *Controller) OnStart(ctx context.Context, cfg polyglot.Config) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.logger.Info("starting ISY inventory node server")

	if err := c.host.RemoveNoticesAll(); err != nil {
		c.logger.Warn("clearing notices failed", "error", err)
	}

	res := c.applyParams(cfg.CustomParams)
	c.saveParams(cfg.CustomParams, res.Params)
	if res.Notice != "" {
		if err := c.host.AddNotice(params.NoticeKey, res.Notice); err != nil {
			c.logger.Warn("adding notice failed", "error", err)
		}
	}

	if !cfg.HasNode(c.node.Address) {
		c.logger.Info("creating controller node", "address", c.node.Address)
		if err := c.host.AddNode(c.Node()); err != nil {
			c.logger.Error("creating controller node failed", "address", c.node.Address, "error", err)
		}
	}

	c.started = true

	c.heartbeat.Init(0)
	c.heartbeat.Tick()

	c.discover(ctx)
}

// OnConfigChanged handles a later configuration from the host.
//
// The host may deliver one edit several times; only the first delivery
// changes anything. Parameters are re-emitted only when the normalized set
// differs from what the host sent, so the echo of our own re-emission is a
// no-op.
func (c *Controller) OnConfigChanged(_ context.Context, cfg polyglot.Config) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.host.RemoveNoticesAll(); err != nil {
		c.logger.Warn("clearing notices failed", "error", err)
	}

	prev := c.params
	res := c.applyParams(cfg.CustomParams)
	if res.Params != prev {
		c.logger.Info("custom parameters changed", "params", res.Params.Redacted())
	}

	merged := mergeParams(cfg.CustomParams, res.Params)
	if !params.Equal(merged, cfg.CustomParams) {
		c.saveParams(cfg.CustomParams, res.Params)
	}

	if res.Notice != "" {
		if err := c.host.AddNotice(params.NoticeKey, res.Notice); err != nil {
			c.logger.Warn("adding notice failed", "error", err)
		}
	}
}

// OnShortInterval runs a discovery cycle.
func (c *Controller) OnShortInterval(ctx context.Context) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.started {
		c.logger.Debug("ignoring short poll before start")
		return
	}
	c.discover(ctx)
}

// OnLongInterval emits one heartbeat pulse.
func (c *Controller) OnLongInterval(_ context.Context) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.started {
		c.logger.Debug("ignoring long poll before start")
		return
	}
	c.heartbeat.Tick()
}

// OnQuery runs a discovery cycle, which republishes every driver.
func (c *Controller) OnQuery(ctx context.Context, address string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.logger.Debug("query received", "address", address)
	c.discover(ctx)
}

// OnDiscover runs a discovery cycle on operator request.
func (c *Controller) OnDiscover(ctx context.Context) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.discover(ctx)
}

// OnCommand routes a command sent to the controller node.
func (c *Controller) OnCommand(ctx context.Context, address, command string) {
	if address != c.node.Address {
		c.logger.Warn("command for unknown node", "address", address, "command", command)
		return
	}

	switch command {
	case CommandQuery:
		c.OnQuery(ctx, address)
	case CommandDiscover:
		c.OnDiscover(ctx)
	case CommandUpdateProfile:
		c.logger.Info("requesting profile install")
		if err := c.host.InstallProfile(); err != nil {
			c.logger.Error("profile install request failed", "error", err)
		}
	default:
		c.logger.Warn("unknown command", "address", address, "command", command)
	}
}

// OnStop handles the host stopping the node server.
func (c *Controller) OnStop(_ context.Context) {
	c.logger.Info("ISY inventory node server stopping")
	c.shutdown()
}

// OnDelete handles the host removing the node server.
func (c *Controller) OnDelete(_ context.Context) {
	c.logger.Info("ISY inventory node server deleted")
	c.shutdown()
}

func (c *Controller) shutdown() {
	c.shutdownOnce.Do(func() {
		if c.onShutdown != nil {
			c.onShutdown()
		}
	})
}

// applyParams validates raw, stores the result and applies the debug switch.
// Caller holds mu.
func (c *Controller) applyParams(raw map[string]string) params.Result {
	res := params.Validate(raw)
	c.params = res.Params
	c.logger.SetDebug(res.Params.Debug)

	if len(res.Missing) > 0 {
		c.logger.Warn("custom parameters missing, using defaults", "missing", res.Missing)
	}
	if !res.Complete {
		c.logger.Warn("ISY connection parameters incomplete", "params", res.Params.Redacted())
	}
	return res
}

// saveParams sends the normalized parameters back to the host, keeping any
// keys the host sent that are not ours.
func (c *Controller) saveParams(raw map[string]string, p params.Params) {
	if err := c.host.SaveCustomParams(mergeParams(raw, p)); err != nil {
		c.logger.Warn("saving custom parameters failed", "error", err)
	}
}

// discover runs one cycle. Caller holds mu.
func (c *Controller) discover(ctx context.Context) {
	cycle, err := c.cycler.RunCycle(ctx, c.params)
	switch {
	case errors.Is(err, inventory.ErrHostUnknown):
		// Already logged by the collector.
	case err != nil:
		c.logger.Error("discovery cycle failed", "error", err)
	default:
		c.logger.Debug("discovery cycle complete",
			"cycle_id", cycle.ID,
			"total_nodes", cycle.Counts.TotalNodes,
			"partial", cycle.Partial(),
		)
	}
}

func mergeParams(raw map[string]string, p params.Params) map[string]string {
	merged := make(map[string]string, len(raw)+5)
	maps.Copy(merged, raw)
	maps.Copy(merged, p.Normalized())
	return merged
}
