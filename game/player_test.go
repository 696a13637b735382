package game

import (
	"encoding/json"
	"io"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func TestPlayer_TrimName(t *testing.T) {
	t.Parallel()
	assert.Equal(t, "naruto", trimName("naruto"))
	assert.Equal(t, "aaaaaaaaaaaaaaaaaaaa", trimName("aaaaaaaaaaaaaaaaaaaaaaaaaaaa"))
	assert.Len(t, []rune(trimName("ナルトうずまきナルトうずまきナルトうずまきナルト")), maxNameLength)
}

func TestPlayer_ReadPumpForwardsCommands(t *testing.T) {
	t.Parallel()
	session := &MockNetworkSession{}
	session.On("Read").Return([]byte(`{"type":"tap"}`), nil).Once()
	session.On("Read").Return([]byte(`not json at all`), nil).Once()
	session.On("Read").Return([]byte(`{"dx":1}`), nil).Once() // no type, dropped
	session.On("Read").Return([]byte(`{"type":"move","dx":0.5,"dy":-1}`), nil).Once()
	session.On("Read").Return(nil, io.EOF).Once()

	p := NewPlayer("p1", "naruto", session)
	r := &Room{
		inbox:    make(chan commandEnvelope, 8),
		removals: make(chan string, 1),
		closed:   make(chan struct{}),
	}
	p.attach(r)

	p.ReadPump()

	require.Len(t, r.inbox, 2)
	first := <-r.inbox
	assert.Equal(t, "tap", first.cmd.Type)
	assert.Same(t, p, first.from)

	second := <-r.inbox
	assert.Equal(t, "move", second.cmd.Type)
	assert.Equal(t, 0.5, second.cmd.Dx)
	assert.Equal(t, -1.0, second.cmd.Dy)

	// A dead socket asks the room for removal.
	assert.Equal(t, "p1", <-r.removals)
	session.AssertExpectations(t)
}

func TestPlayer_WritePumpWritesAndCloses(t *testing.T) {
	t.Parallel()
	session := &MockNetworkSession{}
	wrote := make(chan []byte, 1)
	closed := make(chan struct{})
	session.On("Write", mock.Anything).Run(func(args mock.Arguments) {
		wrote <- args.Get(0).([]byte)
	}).Return(nil)
	session.On("Close", "").Run(func(mock.Arguments) {
		close(closed)
	}).Return()

	p := NewPlayer("p1", "naruto", session)
	go p.WritePump()

	p.send(ServerMessage{Type: "lobby"})

	select {
	case data := <-wrote:
		var msg ServerMessage
		require.NoError(t, json.Unmarshal(data, &msg))
		assert.Equal(t, "lobby", msg.Type)
	case <-time.After(time.Second):
		t.Fatal("write pump never flushed the outbox")
	}

	p.release()
	select {
	case <-closed:
	case <-time.After(time.Second):
		t.Fatal("write pump never closed the socket")
	}
}

func TestPlayer_SendDropsWhenOutboxFull(t *testing.T) {
	t.Parallel()
	p := NewPlayer("p1", "naruto", &MockNetworkSession{})

	for i := 0; i < cap(p.outbox)+10; i++ {
		p.send(ServerMessage{Type: "tick"})
	}
	assert.Len(t, p.outbox, cap(p.outbox))
}

func TestPlayer_BotsHaveNoOutbox(t *testing.T) {
	t.Parallel()
	bot := NewBot("b1", "AI-1")

	bot.send(ServerMessage{Type: "tick"})
	bot.ping()
	// No socket, no pumps, no panic.
	assert.True(t, bot.isBot)
}

func TestPlayer_ActionLimiter(t *testing.T) {
	t.Parallel()
	p := NewPlayer("p1", "naruto", &MockNetworkSession{})
	now := time.Now()

	assert.True(t, p.allowAction(now))
	assert.False(t, p.allowAction(now.Add(10*time.Millisecond)))
	assert.True(t, p.allowAction(now.Add(actionInterval)))
}

func TestPlayer_ReleaseIsIdempotent(t *testing.T) {
	t.Parallel()
	p := NewPlayer("p1", "naruto", &MockNetworkSession{})
	p.release()
	p.release()

	select {
	case <-p.done:
	default:
		t.Fatal("done channel not closed")
	}
}
