package inventory

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/sourcegraph/conc/pool"

	"github.com/simplextech/udi-poly-inventory/internal/isy"
	"github.com/simplextech/udi-poly-inventory/internal/params"
)

// maxInFlight bounds concurrent ISY requests within one cycle.
const maxInFlight = 4

// Fetcher retrieves raw REST documents from the ISY.
// Implemented by *isy.Client.
type Fetcher interface {
	Fetch(ctx context.Context, endpoint isy.Endpoint, conn isy.Connection) ([]byte, error)
}

// Publisher writes aggregated counts to the host.
// Implemented by *Reporter.
type Publisher interface {
	Publish(c Counts) error
}

// Recorder keeps a record of completed cycles (time series, history).
type Recorder interface {
	RecordCycle(ctx context.Context, cycle Cycle) error
}

// Logger interface for optional logging support.
// Compatible with logging.Logger and slog.Logger.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Error(msg string, args ...any)
}

// Collector runs discovery cycles: fetch, parse, classify, aggregate, publish.
//
// Cycles never overlap; a caller arriving while a cycle runs waits for it.
//
// Thread Safety:
//   - All methods are safe for concurrent use from multiple goroutines.
type Collector struct {
	fetcher   Fetcher
	publisher Publisher
	recorders []Recorder
	logger    Logger
	now       func() time.Time

	mu sync.Mutex
}

// CollectorOptions holds the dependencies of a Collector.
type CollectorOptions struct {
	Fetcher   Fetcher
	Publisher Publisher

	// Recorders are optional; each completed cycle is passed to all of them.
	Recorders []Recorder

	// Logger is optional.
	Logger Logger
}

// NewCollector creates a collector.
func NewCollector(opts CollectorOptions) *Collector {
	return &Collector{
		fetcher:   opts.Fetcher,
		publisher: opts.Publisher,
		recorders: opts.Recorders,
		logger:    opts.Logger,
		now:       time.Now,
	}
}

// resourceResult is the outcome of fetching and parsing one endpoint.
type resourceResult struct {
	endpoint isy.Endpoint
	nodes    isy.NodeCounts
	count    int
	err      error
}

// RunCycle performs one discovery cycle.
//
// The four resources are fetched concurrently and joined before anything is
// published. A resource that fails to fetch or parse contributes zeros and
// is recorded in Cycle.Failures; the other resources still report normally.
//
// Parameters:
//   - ctx: Context for cancellation
//   - p: Validated connection parameters
//
// Returns:
//   - Cycle: The completed cycle (zero value when skipped)
//   - error: ErrHostUnknown if no host is configured (nothing published),
//     ErrPublishFailed if the host rejected the driver writes
func (c *Collector) RunCycle(ctx context.Context, p params.Params) (Cycle, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if p.HostAddress == "" {
		c.logInfo("ISY IP is not configured, skipping discovery")
		return Cycle{}, ErrHostUnknown
	}

	conn := isy.Connection{
		Host:     p.HostAddress,
		Port:     p.Port,
		User:     p.User,
		Password: p.Password,
	}

	cycle := Cycle{
		ID:        uuid.NewString(),
		Host:      p.HostAddress,
		StartedAt: c.now(),
		Failures:  make(map[isy.Endpoint]error),
	}

	results := make([]resourceResult, len(isy.Endpoints))
	workers := pool.New().WithMaxGoroutines(maxInFlight)
	for i, endpoint := range isy.Endpoints {
		workers.Go(func() {
			results[i] = c.collect(ctx, endpoint, conn)
		})
	}
	workers.Wait()

	for _, r := range results {
		if r.err != nil {
			cycle.Failures[r.endpoint] = r.err
			c.logFailure(r)
			continue
		}
		switch r.endpoint {
		case isy.Nodes:
			cycle.Counts.applyNodes(r.nodes)
		case isy.IntegerVariables:
			cycle.Counts.IntegerVariables = r.count
		case isy.StateVariables:
			cycle.Counts.StateVariables = r.count
		case isy.Programs:
			cycle.Counts.Programs = r.count
		}
	}
	cycle.Duration = c.now().Sub(cycle.StartedAt)

	c.logCounts(cycle)

	publishErr := c.publisher.Publish(cycle.Counts)
	if publishErr != nil {
		c.logError("publishing inventory failed", "cycle_id", cycle.ID, "error", publishErr)
	}

	for _, rec := range c.recorders {
		if err := rec.RecordCycle(ctx, cycle); err != nil {
			c.logError("recording cycle failed", "cycle_id", cycle.ID, "error", err)
		}
	}

	return cycle, publishErr
}

// collect fetches and parses one endpoint.
func (c *Collector) collect(ctx context.Context, endpoint isy.Endpoint, conn isy.Connection) resourceResult {
	res := resourceResult{endpoint: endpoint}

	body, err := c.fetcher.Fetch(ctx, endpoint, conn)
	if err != nil {
		res.err = err
		return res
	}

	switch endpoint {
	case isy.Nodes:
		res.nodes, res.err = isy.CountNodes(body)
	case isy.IntegerVariables, isy.StateVariables:
		res.count, res.err = isy.CountSimple(body, isy.ElementVariable)
	case isy.Programs:
		res.count, res.err = isy.CountSimple(body, isy.ElementProgram)
	}
	return res
}

// logFailure logs a degraded resource with as much detail as the error has.
func (c *Collector) logFailure(r resourceResult) {
	var fe *isy.FetchError
	switch {
	case errors.As(r.err, &fe) && fe.Kind == isy.RemoteRejected:
		c.logError("ISY rejected request, reporting 0",
			"endpoint", r.endpoint.String(),
			"status", fe.Status,
			"body", string(fe.Body),
		)
	case errors.Is(r.err, isy.ErrBodyTooLarge):
		c.logError("ISY response too large, reporting 0",
			"endpoint", r.endpoint.String(),
			"error", r.err,
		)
	case errors.Is(r.err, isy.ErrMalformedXML):
		c.logError("ISY returned malformed XML, reporting 0",
			"endpoint", r.endpoint.String(),
			"error", r.err,
		)
	default:
		c.logError("ISY unreachable, reporting 0",
			"endpoint", r.endpoint.String(),
			"error", r.err,
		)
	}
}

func (c *Collector) logCounts(cycle Cycle) {
	if c.logger == nil {
		return
	}
	c.logger.Debug("inventory counts",
		"cycle_id", cycle.ID,
		"total_nodes", cycle.Counts.TotalNodes,
		"scenes", cycle.Counts.Scenes,
		"insteon", cycle.Counts.InsteonNodes,
		"zwave", cycle.Counts.ZWaveNodes,
		"nodeservers", cycle.Counts.NodeServerNodes,
		"integer_variables", cycle.Counts.IntegerVariables,
		"state_variables", cycle.Counts.StateVariables,
		"programs", cycle.Counts.Programs,
		"duration", cycle.Duration,
		"partial", cycle.Partial(),
	)
}

func (c *Collector) logInfo(msg string, args ...any) {
	if c.logger != nil {
		c.logger.Info(msg, args...)
	}
}

func (c *Collector) logError(msg string, args ...any) {
	if c.logger != nil {
		c.logger.Error(msg, args...)
	}
}
