package game

import (
	"encoding/json"
	"sync"
	"time"

	"eventease/shared/logger"

	"golang.org/x/time/rate"
)

// Minimum interval between two discrete actions from one player.
const actionInterval = 80 * time.Millisecond

const maxNameLength = 20

// Player is one seat in a room: either a live connection or a bot. Bots
// have no socket and no pumps; everything else about them is identical so
// the simulation never branches on who is driving the seat.
type Player struct {
	id     string
	name   string
	isHost bool
	isBot  bool

	// Seat assignment. Team/slot for the football variant, lane for the
	// sprint variant.
	team string
	slot int
	lane int

	// Sprint state.
	colOffset  float64
	alive      bool
	eliminated bool
	rank       int
	finishTime int

	// Football state.
	x, y, vx, vy   float64
	hasBall        bool
	sprinting      bool
	sprintUntil    time.Time
	intentUntil    time.Time
	stamina        float64
	goals          int
	tackles        int
	passes         int
	shots          int
	inputDx        float64
	inputDy        float64
	aiLastThink    time.Time

	actions *rate.Limiter

	socket       NetworkSession
	outbox       chan []byte
	pingChan     chan struct{}
	done         chan struct{}
	releaseOnce  sync.Once
	roomInbox    chan<- commandEnvelope
	roomRemovals chan<- string
	roomClosed   <-chan struct{}
}

func NewPlayer(id, name string, socket NetworkSession) *Player {
	return &Player{
		id:       id,
		name:     trimName(name),
		socket:   socket,
		outbox:   make(chan []byte, 256),
		pingChan: make(chan struct{}, 1),
		done:     make(chan struct{}),
		actions:  rate.NewLimiter(rate.Every(actionInterval), 1),
		alive:    true,
		stamina:  staminaMax,
	}
}

func NewBot(id, name string) *Player {
	return &Player{
		id:      id,
		name:    name,
		isBot:   true,
		done:    make(chan struct{}),
		alive:   true,
		stamina: staminaMax,
	}
}

func trimName(name string) string {
	runes := []rune(name)
	if len(runes) > maxNameLength {
		runes = runes[:maxNameLength]
	}
	return string(runes)
}

// attach points the player's pumps at its room. Called by the room actor
// before the join is acknowledged.
func (p *Player) attach(r *Room) {
	p.roomInbox = r.inbox
	p.roomRemovals = r.removals
	p.roomClosed = r.closed
}

// ReadPump forwards decoded frames into the room inbox until the socket
// dies, then asks the room to remove this player.
func (p *Player) ReadPump() {
	for {
		data, err := p.socket.Read()
		if err != nil {
			break
		}

		var cmd Command
		if err := json.Unmarshal(data, &cmd); err != nil {
			continue
		}
		if cmd.Type == "" {
			continue
		}

		select {
		case p.roomInbox <- commandEnvelope{cmd: cmd, from: p}:
		case <-p.done:
			return
		case <-p.roomClosed:
			return
		}
	}

	select {
	case p.roomRemovals <- p.id:
	case <-p.done:
	case <-p.roomClosed:
	}
}

func (p *Player) WritePump() {
	for {
		select {
		case data := <-p.outbox:
			if err := p.socket.Write(data); err != nil {
				return
			}
		case <-p.pingChan:
			if err := p.socket.Ping(); err != nil {
				return
			}
		case <-p.done:
			p.socket.Close("")
			return
		}
	}
}

// send queues a message for the write pump. Broadcasts are fire-and-forget:
// a slow consumer loses frames instead of stalling the room actor.
func (p *Player) send(msg ServerMessage) {
	if p.isBot || p.socket == nil {
		return
	}
	data, err := json.Marshal(msg)
	if err != nil {
		logger.Criticalf("[Player %s] failed to marshal %q message: %v", p.id, msg.Type, err)
		return
	}
	select {
	case p.outbox <- data:
	default:
		logger.Warningf("[Player %s] outbox full, dropping %q frame", p.id, msg.Type)
	}
}

func (p *Player) ping() {
	if p.isBot || p.socket == nil {
		return
	}
	select {
	case p.pingChan <- struct{}{}:
	default:
	}
}

func (p *Player) release() {
	p.releaseOnce.Do(func() {
		close(p.done)
	})
}

func (p *Player) allowAction(now time.Time) bool {
	return p.actions.AllowN(now, 1)
}
