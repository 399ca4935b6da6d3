package polyglot

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"go.uber.org/goleak"

	"github.com/simplextech/udi-poly-inventory/internal/infrastructure/mqtt"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

type published struct {
	topic    string
	payload  []byte
	qos      byte
	retained bool
}

// fakeBus records publishes and keeps the subscribed handler so tests can
// inject inbound messages.
type fakeBus struct {
	mu         sync.Mutex
	published  []published
	publishErr error

	subTopic string
	handler  mqtt.MessageHandler
	subs     map[string]mqtt.MessageHandler
}

func (b *fakeBus) Publish(topic string, payload []byte, qos byte, retained bool) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.publishErr != nil {
		return b.publishErr
	}
	b.published = append(b.published, published{topic, payload, qos, retained})
	return nil
}

func (b *fakeBus) Subscribe(topic string, _ byte, handler mqtt.MessageHandler) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.subs == nil {
		b.subs = make(map[string]mqtt.MessageHandler)
	}
	b.subs[topic] = handler
	if strings.HasPrefix(topic, mqtt.TopicPrefixNodeServer+"/") {
		b.subTopic = topic
		b.handler = handler
	}
	return nil
}

func (b *fakeBus) last(t *testing.T) map[string]json.RawMessage {
	t.Helper()
	b.mu.Lock()
	defer b.mu.Unlock()
	if len(b.published) == 0 {
		t.Fatal("nothing published")
	}
	var msg map[string]json.RawMessage
	if err := json.Unmarshal(b.published[len(b.published)-1].payload, &msg); err != nil {
		t.Fatalf("published payload is not JSON: %v", err)
	}
	return msg
}

// recordingHandler records every event as a string.
type recordingHandler struct {
	mu      sync.Mutex
	events  []string
	configs []Config
	done    chan struct{}
	want    int
}

func newRecordingHandler(want int) *recordingHandler {
	return &recordingHandler{done: make(chan struct{}), want: want}
}

func (h *recordingHandler) record(e string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.events = append(h.events, e)
	if len(h.events) == h.want {
		close(h.done)
	}
}

func (h *recordingHandler) OnStart(_ context.Context, cfg Config) {
	h.mu.Lock()
	h.configs = append(h.configs, cfg)
	h.mu.Unlock()
	h.record("start")
}

func (h *recordingHandler) OnConfigChanged(_ context.Context, cfg Config) {
	h.mu.Lock()
	h.configs = append(h.configs, cfg)
	h.mu.Unlock()
	h.record("config")
}

func (h *recordingHandler) OnShortInterval(context.Context) { h.record("shortPoll") }
func (h *recordingHandler) OnLongInterval(context.Context)  { h.record("longPoll") }
func (h *recordingHandler) OnStop(context.Context)          { h.record("stop") }
func (h *recordingHandler) OnDelete(context.Context)        { h.record("delete") }

func (h *recordingHandler) OnQuery(_ context.Context, address string) {
	h.record("query:" + address)
}

func (h *recordingHandler) OnCommand(_ context.Context, address, cmd string) {
	h.record("command:" + address + ":" + cmd)
}

func TestDispatch(t *testing.T) {
	tests := []struct {
		name    string
		payload string
		want    []string
	}{
		{"short poll", `{"shortPoll":{}}`, []string{"shortPoll"}},
		{"long poll", `{"longPoll":{}}`, []string{"longPoll"}},
		{"query", `{"query":{"address":"controller"}}`, []string{"query:controller"}},
		{"command", `{"command":{"address":"controller","cmd":"DISCOVER"}}`, []string{"command:controller:DISCOVER"}},
		{"stop", `{"stop":{}}`, []string{"stop"}},
		{"delete", `{"delete":{}}`, []string{"delete"}},
		{"unknown key", `{"result":{"ok":true}}`, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := New(&fakeBus{}, 1, 1)
			h := newRecordingHandler(-1)

			if err := p.dispatch(context.Background(), h, []byte(tt.payload)); err != nil {
				t.Fatalf("dispatch() error = %v", err)
			}
			if len(h.events) != len(tt.want) {
				t.Fatalf("events = %v, want %v", h.events, tt.want)
			}
			for i := range tt.want {
				if h.events[i] != tt.want[i] {
					t.Errorf("events[%d] = %s, want %s", i, h.events[i], tt.want[i])
				}
			}
		})
	}
}

func TestDispatchConfigStartsOnce(t *testing.T) {
	p := New(&fakeBus{}, 1, 1)
	h := newRecordingHandler(-1)

	cfg := `{"config":{"customParams":{"user":"admin","isy_port":80,"debug_enable":true},"nodes":[{"address":"controller","name":"ISY Inventory"}]}}`
	for range 3 {
		if err := p.dispatch(context.Background(), h, []byte(cfg)); err != nil {
			t.Fatalf("dispatch() error = %v", err)
		}
	}

	want := []string{"start", "config", "config"}
	for i := range want {
		if h.events[i] != want[i] {
			t.Errorf("events[%d] = %s, want %s", i, h.events[i], want[i])
		}
	}

	got := h.configs[0]
	if got.CustomParams["user"] != "admin" {
		t.Errorf("user = %q, want admin", got.CustomParams["user"])
	}
	if got.CustomParams["isy_port"] != "80" {
		t.Errorf("isy_port = %q, want 80", got.CustomParams["isy_port"])
	}
	if got.CustomParams["debug_enable"] != "true" {
		t.Errorf("debug_enable = %q, want true", got.CustomParams["debug_enable"])
	}
	if !got.HasNode("controller") || got.HasNode("other") {
		t.Errorf("HasNode() wrong for nodes %+v", got.Nodes)
	}
}

func TestDispatchInvalid(t *testing.T) {
	p := New(&fakeBus{}, 1, 1)
	for _, payload := range []string{"", "not json", `[1,2]`, `{"query":"controller"}`} {
		if err := p.dispatch(context.Background(), newRecordingHandler(-1), []byte(payload)); !errors.Is(err, ErrInvalidMessage) {
			t.Errorf("dispatch(%q) error = %v, want ErrInvalidMessage", payload, err)
		}
	}
}

func TestOutboundMessages(t *testing.T) {
	tests := []struct {
		name string
		send func(p *Interface) error
		key  string
		body string
	}{
		{
			name: "SetDriver",
			send: func(p *Interface) error { return p.SetDriver("controller", "ST", 42, 56) },
			key:  "status",
			body: `{"address":"controller","driver":"ST","value":"42","uom":56}`,
		},
		{
			name: "ReportCommand",
			send: func(p *Interface) error { return p.ReportCommand("controller", "DON") },
			key:  "command",
			body: `{"address":"controller","command":"DON"}`,
		},
		{
			name: "AddNotice",
			send: func(p *Interface) error { return p.AddNotice("config", "Please configure") },
			key:  "addnotice",
			body: `{"key":"config","value":"Please configure"}`,
		},
		{
			name: "RemoveNoticesAll",
			send: func(p *Interface) error { return p.RemoveNoticesAll() },
			key:  "removenoticesall",
			body: `{}`,
		},
		{
			name: "SaveCustomParams",
			send: func(p *Interface) error { return p.SaveCustomParams(map[string]string{"isy_ip": "10.0.0.2"}) },
			key:  "customparams",
			body: `{"isy_ip":"10.0.0.2"}`,
		},
		{
			name: "InstallProfile",
			send: func(p *Interface) error { return p.InstallProfile() },
			key:  "installprofile",
			body: `{"reboot":false}`,
		},
		{
			name: "AddNode",
			send: func(p *Interface) error {
				return p.AddNode(Node{
					Address:   "controller",
					Name:      "ISY Inventory",
					NodeDefID: "controller",
					Primary:   "controller",
					Drivers:   []Driver{{Driver: "ST", Value: 0, UOM: 56}},
				})
			},
			key:  "addnode",
			body: `{"nodes":[{"address":"controller","name":"ISY Inventory","node_def_id":"controller","primary":"controller","drivers":[{"driver":"ST","value":0,"uom":56}]}]}`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			bus := &fakeBus{}
			p := New(bus, 5, 1)

			if err := tt.send(p); err != nil {
				t.Fatalf("%s() error = %v", tt.name, err)
			}

			if bus.published[0].topic != "udi/polyglot/ns/polyglot" {
				t.Errorf("topic = %q", bus.published[0].topic)
			}
			if bus.published[0].retained {
				t.Error("outbound messages should not be retained")
			}

			msg := bus.last(t)
			if string(msg["node"]) != "5" {
				t.Errorf("node = %s, want 5", msg["node"])
			}
			if string(msg[tt.key]) != tt.body {
				t.Errorf("%s = %s, want %s", tt.key, msg[tt.key], tt.body)
			}
			if len(msg) != 2 {
				t.Errorf("message has %d keys, want 2", len(msg))
			}
		})
	}
}

func TestSendNotConnected(t *testing.T) {
	p := New(&fakeBus{publishErr: mqtt.ErrNotConnected}, 1, 1)

	if err := p.SetDriver("controller", "ST", 1, 56); !errors.Is(err, ErrNotConnected) {
		t.Errorf("SetDriver() error = %v, want ErrNotConnected", err)
	}

	p = New(&fakeBus{publishErr: mqtt.ErrPublishFailed}, 1, 1)
	err := p.SetDriver("controller", "ST", 1, 56)
	if !errors.Is(err, mqtt.ErrPublishFailed) || errors.Is(err, ErrNotConnected) {
		t.Errorf("SetDriver() error = %v, want wrapped mqtt.ErrPublishFailed", err)
	}
}

func TestStartDispatchesInOrder(t *testing.T) {
	bus := &fakeBus{}
	p := New(bus, 2, 1)
	h := newRecordingHandler(3)

	ctx, cancel := context.WithCancel(context.Background())
	if err := p.Start(ctx, h); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	if bus.subTopic != "udi/polyglot/ns/2" {
		t.Errorf("subscribed to %q, want udi/polyglot/ns/2", bus.subTopic)
	}

	for _, msg := range []string{`{"config":{}}`, `{"shortPoll":{}}`, `{"longPoll":{}}`} {
		if err := bus.handler("udi/polyglot/ns/2", []byte(msg)); err != nil {
			t.Fatalf("handler() error = %v", err)
		}
	}

	select {
	case <-h.done:
	case <-time.After(5 * time.Second):
		t.Fatal("events not dispatched")
	}

	cancel()
	p.Wait()

	want := []string{"start", "shortPoll", "longPoll"}
	for i := range want {
		if h.events[i] != want[i] {
			t.Errorf("events[%d] = %s, want %s", i, h.events[i], want[i])
		}
	}
}

// panickingHandler panics on shortPoll and records everything else.
type panickingHandler struct {
	*recordingHandler
}

func (panickingHandler) OnShortInterval(context.Context) { panic("short poll failed") }

// captureLogger records warn and error messages.
type captureLogger struct {
	mu       sync.Mutex
	errors   []string
	stacks   []string
	warnings []string
}

func (l *captureLogger) Debug(string, ...any) {}

func (l *captureLogger) Warn(msg string, _ ...any) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.warnings = append(l.warnings, msg)
}

func (l *captureLogger) Error(msg string, args ...any) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.errors = append(l.errors, msg)
	for i := 0; i+1 < len(args); i += 2 {
		if args[i] == "stack" {
			s, _ := args[i+1].(string)
			l.stacks = append(l.stacks, s)
		}
	}
}

func TestStartSurvivesHandlerPanic(t *testing.T) {
	bus := &fakeBus{}
	p := New(bus, 2, 1)
	logger := &captureLogger{}
	p.SetLogger(logger)
	h := panickingHandler{newRecordingHandler(1)}

	ctx, cancel := context.WithCancel(context.Background())
	if err := p.Start(ctx, h); err != nil {
		t.Fatalf("Start() error = %v", err)
	}

	for _, msg := range []string{`{"shortPoll":{}}`, `{"longPoll":{}}`} {
		if err := bus.handler("udi/polyglot/ns/2", []byte(msg)); err != nil {
			t.Fatalf("handler() error = %v", err)
		}
	}

	select {
	case <-h.done:
	case <-time.After(5 * time.Second):
		t.Fatal("event after panic not dispatched")
	}

	cancel()
	p.Wait()

	if h.events[0] != "longPoll" {
		t.Errorf("events[0] = %s, want longPoll", h.events[0])
	}

	logger.mu.Lock()
	defer logger.mu.Unlock()
	if len(logger.errors) != 1 {
		t.Fatalf("logged %d errors, want 1", len(logger.errors))
	}
	if len(logger.stacks) != 1 || logger.stacks[0] == "" {
		t.Error("panic logged without a stack")
	}
}

func TestHostConnectionState(t *testing.T) {
	bus := &fakeBus{}
	p := New(bus, 2, 1)
	logger := &captureLogger{}
	p.SetLogger(logger)

	ctx, cancel := context.WithCancel(context.Background())
	defer func() {
		cancel()
		p.Wait()
	}()
	if err := p.Start(ctx, newRecordingHandler(-1)); err != nil {
		t.Fatalf("Start() error = %v", err)
	}

	handler, ok := bus.subs["udi/polyglot/connections/polyglot"]
	if !ok {
		t.Fatal("not subscribed to udi/polyglot/connections/polyglot")
	}

	steps := []struct {
		payload      string
		want         bool
		wantWarnings int
	}{
		{`{"connected":true}`, true, 0},
		{`{"connected":true}`, true, 0},
		{`{"connected":false}`, false, 1},
		{`{"connected":false}`, false, 1},
		{`{"connected":true}`, true, 1},
	}
	for i, step := range steps {
		if err := handler("udi/polyglot/connections/polyglot", []byte(step.payload)); err != nil {
			t.Fatalf("step %d: handler() error = %v", i, err)
		}
		if got := p.HostConnected(); got != step.want {
			t.Errorf("step %d: HostConnected() = %v, want %v", i, got, step.want)
		}
		logger.mu.Lock()
		warnings := len(logger.warnings)
		logger.mu.Unlock()
		if warnings != step.wantWarnings {
			t.Errorf("step %d: %d warnings logged, want %d", i, warnings, step.wantWarnings)
		}
	}

	if err := handler("udi/polyglot/connections/polyglot", []byte("not json")); !errors.Is(err, ErrInvalidMessage) {
		t.Errorf("handler() error = %v, want ErrInvalidMessage", err)
	}
}
