package polyglot

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"sync/atomic"

	"github.com/sourcegraph/conc"
	"github.com/sourcegraph/conc/panics"

	"github.com/simplextech/udi-poly-inventory/internal/infrastructure/mqtt"
)

// queueSize is how many inbound messages may wait for the dispatcher.
const queueSize = 64

// Bus moves raw messages to and from the broker.
// Implemented by *mqtt.Client.
type Bus interface {
	Publish(topic string, payload []byte, qos byte, retained bool) error
	Subscribe(topic string, qos byte, handler mqtt.MessageHandler) error
}

// Handler receives Polyglot events. Calls are made one at a time from a
// single goroutine, in arrival order.
type Handler interface {
	// OnStart is called for the first config message.
	OnStart(ctx context.Context, cfg Config)
	// OnConfigChanged is called for every later config message. Polyglot
	// may send several for one user edit.
	OnConfigChanged(ctx context.Context, cfg Config)
	// OnShortInterval and OnLongInterval are the shortPoll and longPoll timers.
	OnShortInterval(ctx context.Context)
	OnLongInterval(ctx context.Context)
	OnQuery(ctx context.Context, address string)
	OnCommand(ctx context.Context, address, command string)
	OnStop(ctx context.Context)
	OnDelete(ctx context.Context)
}

// Logger interface for optional logging support.
type Logger interface {
	Debug(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

// Interface is this node server's side of the Polyglot v2 protocol.
//
// Outbound methods (SetDriver, ReportCommand, ...) may be called from any
// goroutine. Inbound messages are decoded and handed to a Handler.
type Interface struct {
	bus    Bus
	topics mqtt.Topics
	qos    byte
	logger Logger

	events chan []byte
	wg     conc.WaitGroup

	// configured is only touched by the dispatch goroutine.
	configured bool

	hostConnected atomic.Bool
}

// New creates an interface for node server profile.
func New(bus Bus, profile int, qos byte) *Interface {
	return &Interface{
		bus:    bus,
		topics: mqtt.Topics{Profile: profile},
		qos:    qos,
		events: make(chan []byte, queueSize),
	}
}

// SetLogger sets the logger. Call before Start.
func (p *Interface) SetLogger(logger Logger) {
	p.logger = logger
}

// Start subscribes to the inbound topic and dispatches messages to h until
// ctx is cancelled. Use Wait to block until dispatching has stopped.
//
// Messages are queued rather than handled on the broker's goroutine: a
// handler that publishes and waits for acknowledgement would otherwise
// stall the client it is waiting on.
func (p *Interface) Start(ctx context.Context, h Handler) error {
	hostTopic := p.topics.PolyglotConnection()
	if err := p.bus.Subscribe(hostTopic, p.qos, p.handleHostState); err != nil {
		return fmt.Errorf("subscribing to %s: %w", hostTopic, err)
	}

	inbound := p.topics.Inbound()
	err := p.bus.Subscribe(inbound, p.qos, func(_ string, payload []byte) error {
		msg := append([]byte(nil), payload...)
		select {
		case p.events <- msg:
			return nil
		case <-ctx.Done():
			return ctx.Err()
		}
	})
	if err != nil {
		return fmt.Errorf("subscribing to %s: %w", inbound, err)
	}

	p.wg.Go(func() {
		for {
			select {
			case <-ctx.Done():
				return
			case msg := <-p.events:
				p.handle(ctx, h, msg)
			}
		}
	})

	return nil
}

// HostConnected reports whether Polyglot last announced itself connected.
func (p *Interface) HostConnected() bool {
	return p.hostConnected.Load()
}

// handleHostState tracks Polyglot's retained connection state and logs
// transitions.
func (p *Interface) handleHostState(_ string, payload []byte) error {
	var state hostState
	if err := json.Unmarshal(payload, &state); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidMessage, err)
	}

	was := p.hostConnected.Swap(state.Connected)
	if was == state.Connected || p.logger == nil {
		return nil
	}
	if state.Connected {
		p.logger.Debug("Polyglot host connected")
	} else {
		p.logger.Warn("Polyglot host disconnected")
	}
	return nil
}

// Wait blocks until the dispatch loop started by Start has exited.
func (p *Interface) Wait() {
	p.wg.Wait()
}

// handle dispatches one message. A panicking handler is logged and the
// loop carries on with the next message.
func (p *Interface) handle(ctx context.Context, h Handler, msg []byte) {
	var err error
	var pc panics.Catcher
	pc.Try(func() {
		err = p.dispatch(ctx, h, msg)
	})

	if p.logger == nil {
		return
	}
	if r := pc.Recovered(); r != nil {
		p.logger.Error("Polyglot handler panic recovered",
			"panic", r.Value,
			"payload", string(msg),
			"stack", string(r.Stack),
		)
		return
	}
	if err != nil {
		p.logger.Warn("dropping inbound message", "error", err)
	}
}

// dispatch decodes one inbound message and calls the matching handler
// methods. Unknown keys are ignored.
func (p *Interface) dispatch(ctx context.Context, h Handler, payload []byte) error {
	var msg inbound
	if err := json.Unmarshal(payload, &msg); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidMessage, err)
	}

	handled := false
	if msg.Config != nil {
		handled = true
		cfg := msg.Config.toConfig()
		if !p.configured {
			p.configured = true
			h.OnStart(ctx, cfg)
		} else {
			h.OnConfigChanged(ctx, cfg)
		}
	}
	if msg.ShortPoll != nil {
		handled = true
		h.OnShortInterval(ctx)
	}
	if msg.LongPoll != nil {
		handled = true
		h.OnLongInterval(ctx)
	}
	if msg.Query != nil {
		handled = true
		h.OnQuery(ctx, msg.Query.Address)
	}
	if msg.Command != nil {
		handled = true
		h.OnCommand(ctx, msg.Command.Address, msg.Command.Cmd)
	}
	if msg.Stop != nil {
		handled = true
		h.OnStop(ctx)
	}
	if msg.Delete != nil {
		handled = true
		h.OnDelete(ctx)
	}

	if !handled && p.logger != nil {
		p.logger.Debug("ignoring Polyglot message", "payload", string(payload))
	}
	return nil
}

// SetDriver reports a driver value of a node.
func (p *Interface) SetDriver(address, driver string, value, uom int) error {
	return p.send("status", statusBody{
		Address: address,
		Driver:  driver,
		Value:   strconv.Itoa(value),
		UOM:     uom,
	})
}

// ReportCommand reports a command issued by a node, such as DON or DOF.
func (p *Interface) ReportCommand(address, command string) error {
	return p.send("command", commandBody{Address: address, Command: command})
}

// AddNotice shows a notice in the Polyglot UI under key.
func (p *Interface) AddNotice(key, text string) error {
	return p.send("addnotice", noticeBody{Key: key, Value: text})
}

// RemoveNoticesAll clears every notice of this node server.
func (p *Interface) RemoveNoticesAll() error {
	return p.send("removenoticesall", struct{}{})
}

// SaveCustomParams replaces the custom parameters shown in the Polyglot UI.
func (p *Interface) SaveCustomParams(params map[string]string) error {
	return p.send("customparams", params)
}

// InstallProfile asks Polyglot to reinstall the node server profile on the ISY.
func (p *Interface) InstallProfile() error {
	return p.send("installprofile", installProfileBody{Reboot: false})
}

// AddNode asks Polyglot to create node.
func (p *Interface) AddNode(node Node) error {
	return p.send("addnode", addNodeBody{Nodes: []Node{node}})
}

func (p *Interface) send(key string, body any) error {
	payload, err := encode(p.topics.Profile, key, body)
	if err != nil {
		return err
	}

	if err := p.bus.Publish(p.topics.Outbound(), payload, p.qos, false); err != nil {
		if errors.Is(err, mqtt.ErrNotConnected) {
			return fmt.Errorf("%w: sending %s", ErrNotConnected, key)
		}
		return fmt.Errorf("sending %s: %w", key, err)
	}

	if p.logger != nil {
		p.logger.Debug("sent Polyglot message", "key", key, "payload", string(payload))
	}
	return nil
}
