package game

import (
	"encoding/json"
	"math/rand"
	"testing"
	"time"

	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// --- NetworkSession ---

type MockNetworkSession struct {
	mock.Mock
}

func (m *MockNetworkSession) Close(errCode string) {
	m.Called(errCode)
}

func (m *MockNetworkSession) Write(data []byte) error {
	args := m.Called(data)
	return args.Error(0)
}

func (m *MockNetworkSession) Read() ([]byte, error) {
	args := m.Called()
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]byte), args.Error(1)
}

func (m *MockNetworkSession) Ping() error {
	args := m.Called()
	return args.Error(0)
}

// --- UniqueIdGenerator ---

type MockUniqueIdGenerator struct {
	mock.Mock
}

func (m *MockUniqueIdGenerator) Generate() string {
	args := m.Called()
	return args.String(0)
}

func (m *MockUniqueIdGenerator) Dispose(id string) {
	m.Called(id)
}

// --- Lobby ---

type MockLobby struct {
	mock.Mock
}

func (m *MockLobby) RemoveRoom(roomId string) {
	m.Called(roomId)
}

func (m *MockLobby) NotifyJoined(connId, roomId string) {
	m.Called(connId, roomId)
}

func (m *MockLobby) NotifyLeft(connId string) {
	m.Called(connId)
}

func newLenientLobby() *MockLobby {
	l := &MockLobby{}
	l.On("RemoveRoom", mock.Anything).Return()
	l.On("NotifyJoined", mock.Anything, mock.Anything).Return()
	l.On("NotifyLeft", mock.Anything).Return()
	return l
}

// --- PeriodicTickerFactory (hand-driven) ---

type fakeTicker struct {
	ch       chan time.Time
	duration time.Duration
	stops    int
}

type fakeTickerFactory struct {
	created []*fakeTicker
}

func (f *fakeTickerFactory) Create(duration time.Duration) (<-chan time.Time, func()) {
	ft := &fakeTicker{ch: make(chan time.Time, 1), duration: duration}
	f.created = append(f.created, ft)
	return ft.ch, func() { ft.stops++ }
}

func (f *fakeTickerFactory) totalStops() int {
	n := 0
	for _, ft := range f.created {
		n += ft.stops
	}
	return n
}

// --- helpers ---

func newTestPlayer(t *testing.T, id, name string) *Player {
	t.Helper()
	return NewPlayer(id, name, &MockNetworkSession{})
}

// newTestRoom builds a room with a hand-driven clock whose handlers the
// tests call directly. GameLoop is never started.
func newTestRoom(t *testing.T, kind string, opts VariantOptions, host *Player) (*Room, *MockLobby, *fakeTickerFactory) {
	t.Helper()
	lob := newLenientLobby()
	tf := &fakeTickerFactory{}
	r, err := NewRoom(host, kind, opts, lob, tf)
	require.NoError(t, err)
	r.SetId("TESTRM")
	r.rng = rand.New(rand.NewSource(42))
	if f, ok := r.variant.(*football); ok {
		f.rng = r.rng
	}
	if s, ok := r.variant.(*sprint); ok {
		s.rng = r.rng
	}
	return r, lob, tf
}

func joinPlayer(t *testing.T, r *Room, p *Player) error {
	t.Helper()
	errChan := make(chan error, 1)
	r.handleJoinRequest(roomJoinRequest{player: p, errChan: errChan})
	return <-errChan
}

func joinSpectator(t *testing.T, r *Room, p *Player) error {
	t.Helper()
	errChan := make(chan error, 1)
	r.handleJoinRequest(roomJoinRequest{player: p, spectator: true, errChan: errChan})
	return <-errChan
}

// drainMessages empties a player's outbox and decodes every frame.
func drainMessages(t *testing.T, p *Player) []ServerMessage {
	t.Helper()
	var msgs []ServerMessage
	for {
		select {
		case data := <-p.outbox:
			var msg ServerMessage
			require.NoError(t, json.Unmarshal(data, &msg))
			msgs = append(msgs, msg)
		default:
			return msgs
		}
	}
}

func messageTypes(msgs []ServerMessage) []string {
	types := make([]string, 0, len(msgs))
	for _, m := range msgs {
		types = append(types, m.Type)
	}
	return types
}

func lastMessageOfType(msgs []ServerMessage, msgType string) (ServerMessage, bool) {
	for i := len(msgs) - 1; i >= 0; i-- {
		if msgs[i].Type == msgType {
			return msgs[i], true
		}
	}
	return ServerMessage{}, false
}
