package game

import (
	"math/rand"
	"sync"
	"time"
)

var t0 = time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

// mockBroadcaster captures sent messages for testing
type mockBroadcaster struct {
	mu       sync.Mutex
	messages []interface{}
	frames   [][]byte
}

func (m *mockBroadcaster) SendJSON(msg interface{}) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.messages = append(m.messages, msg)
}

func (m *mockBroadcaster) SendBinary(data []byte) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.frames = append(m.frames, data)
}

// ofType returns the payloads of every message of type t.
func (m *mockBroadcaster) ofType(t EventType) []interface{} {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []interface{}
	for _, msg := range m.messages {
		if mm, ok := msg.(message); ok && mm.T == string(t) {
			out = append(out, mm.D)
		}
	}
	return out
}

type testEnv struct {
	world    *World
	reg      *Registry
	rng      *rand.Rand
	events   *EventQueue
	settings Settings
}

func newTestEnv() *testEnv {
	rng := rand.New(rand.NewSource(1))
	return &testEnv{
		world:    NewWorld(2000, 1500, NewClearMask(2000, 1500), rng),
		reg:      NewRegistry(),
		rng:      rng,
		events:   &EventQueue{},
		settings: DefaultSettings(),
	}
}

func (e *testEnv) addPlayer(nickname, color string, x, y float64) *Player {
	p := NewPlayer(e.reg.NextID("p"), nickname, color, x, y)
	e.reg.AddPlayer(p)
	return p
}

func (e *testEnv) addBot(color string, x, y float64) *Bot {
	b := NewBot(e.reg.NextID("b"), color, x, y)
	e.reg.AddBot(b)
	return b
}

func (e *testEnv) hostileAI() *HostileAI {
	return NewHostileAI(e.world, e.reg, e.rng, &e.settings, e.events)
}

func (e *testEnv) captureEngine() *CaptureEngine {
	return NewCaptureEngine(e.world, e.reg, e.rng, e.hostileAI(), e.events)
}

// eventsOf filters drained events by type.
func eventsOf(events []Event, t EventType) []Event {
	var out []Event
	for _, ev := range events {
		if ev.Type == t {
			out = append(out, ev)
		}
	}
	return out
}

// blockRect marks [x0,x1)×[y0,y1) as walls.
func blockRect(m *Mask, x0, y0, x1, y1 int) {
	for y := y0; y < y1; y++ {
		for x := x0; x < x1; x++ {
			m.blocked[y*m.Width+x] = true
		}
	}
}

const (
	red  = "#E6194B"
	blue = "#4363D8"
)
