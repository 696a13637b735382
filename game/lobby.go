package game

import (
	"context"
	"sync"
	"time"

	"eventease/shared/logger"
)

const pingInterval = 30 * time.Second

// lobby is the room registry. A single goroutine (LobbyActor) owns the maps;
// the exported methods are channel-backed proxies safe for any goroutine.
type lobby struct {
	rooms       map[string]*Room
	memberships map[string]string // connection id -> room id

	createReqs       chan createRoomRequest
	joinReqs         chan roomJoinRequest
	removeRoomChan   chan string
	joinedNotices    chan membership
	leftNotices      chan string
	whereIsReqs      chan whereIsRequest
	noticeReqs       chan noticeRequest

	idGenerator   UniqueIdGenerator
	tickerFactory PeriodicTickerFactory
	wg            *sync.WaitGroup
}

func NewLobby(idGenerator UniqueIdGenerator, tickerFactory PeriodicTickerFactory, wg *sync.WaitGroup) *lobby {
	return &lobby{
		rooms:          make(map[string]*Room),
		memberships:    make(map[string]string),
		createReqs:     make(chan createRoomRequest),
		joinReqs:       make(chan roomJoinRequest),
		removeRoomChan: make(chan string),
		joinedNotices:  make(chan membership, 256),
		leftNotices:    make(chan string, 256),
		whereIsReqs:    make(chan whereIsRequest),
		noticeReqs:     make(chan noticeRequest),
		idGenerator:    idGenerator,
		tickerFactory:  tickerFactory,
		wg:             wg,
	}
}

// LobbyActor owns the registry until the process exits. started is closed
// once the actor is accepting requests.
func (l *lobby) LobbyActor(started chan struct{}) {
	pings, stopPings := l.tickerFactory.Create(pingInterval)
	defer stopPings()

	close(started)
	logger.Infof("[Lobby] accepting rooms")

	for {
		select {
		case req := <-l.createReqs:
			l.handleCreate(req)
		case req := <-l.joinReqs:
			l.handleJoin(req)
		case roomId := <-l.removeRoomChan:
			l.handleRemove(roomId)
		case m := <-l.joinedNotices:
			l.memberships[m.connId] = m.roomId
		case connId := <-l.leftNotices:
			delete(l.memberships, connId)
		case req := <-l.whereIsReqs:
			req.respChan <- l.memberships[req.connId]
		case req := <-l.noticeReqs:
			l.handleNotice(req)
		case <-pings:
			for _, r := range l.rooms {
				r.RequestPing()
			}
		}
	}
}

func (l *lobby) handleCreate(req createRoomRequest) {
	room, err := NewRoom(req.player, req.variant, req.opts, l, l.tickerFactory)
	if err != nil {
		req.respChan <- createRoomResponse{err: err}
		return
	}

	roomId := l.idGenerator.Generate()
	room.SetId(roomId)
	l.rooms[roomId] = room
	l.memberships[req.player.id] = roomId

	l.wg.Add(1)
	go func() {
		defer l.wg.Done()
		room.GameLoop()
	}()

	logger.Infof("[Lobby] room %s created (%s)", roomId, req.variant)
	req.respChan <- createRoomResponse{roomId: roomId}
}

func (l *lobby) handleJoin(req roomJoinRequest) {
	room, found := l.rooms[req.roomId]
	if !found {
		req.errChan <- ErrRoomNotFound
		return
	}
	// The room answers the errChan itself; RequestJoin never blocks the
	// lobby because a dying room short-circuits via its closed channel.
	go room.RequestJoin(req)
}

func (l *lobby) handleRemove(roomId string) {
	if _, found := l.rooms[roomId]; !found {
		return
	}
	delete(l.rooms, roomId)
	l.idGenerator.Dispose(roomId)
	logger.Infof("[Lobby] room %s removed", roomId)
}

func (l *lobby) handleNotice(req noticeRequest) {
	room, found := l.rooms[req.roomId]
	if !found {
		req.errChan <- ErrRoomNotFound
		return
	}
	room.RequestNotice(req.message)
	req.errChan <- nil
}

// --- public surface (runs on caller goroutines) ---

// CreateRoom registers a new room with the given host and returns its code.
func (l *lobby) CreateRoom(ctx context.Context, host *Player, variant string, opts VariantOptions) (string, error) {
	respChan := make(chan createRoomResponse, 1)
	select {
	case l.createReqs <- createRoomRequest{player: host, variant: variant, opts: opts, respChan: respChan}:
	case <-ctx.Done():
		return "", ctx.Err()
	}
	resp := <-respChan
	return resp.roomId, resp.err
}

// JoinRoom adds the player (or spectator) to an existing room.
func (l *lobby) JoinRoom(ctx context.Context, roomId string, p *Player, spectator bool) error {
	errChan := make(chan error, 1)
	select {
	case l.joinReqs <- roomJoinRequest{roomId: roomId, player: p, spectator: spectator, errChan: errChan}:
	case <-ctx.Done():
		return ctx.Err()
	}
	select {
	case err := <-errChan:
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}

// FindRoomOf reports which room a connection currently sits in, or "".
func (l *lobby) FindRoomOf(ctx context.Context, connId string) (string, error) {
	respChan := make(chan string, 1)
	select {
	case l.whereIsReqs <- whereIsRequest{connId: connId, respChan: respChan}:
	case <-ctx.Done():
		return "", ctx.Err()
	}
	return <-respChan, nil
}

// InjectBroadcast pushes an out-of-band message into a room's broadcast
// stream. Used by the HTTP report endpoint.
func (l *lobby) InjectBroadcast(ctx context.Context, roomId string, msg ServerMessage) error {
	errChan := make(chan error, 1)
	select {
	case l.noticeReqs <- noticeRequest{roomId: roomId, message: msg, errChan: errChan}:
	case <-ctx.Done():
		return ctx.Err()
	}
	select {
	case err := <-errChan:
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}

// --- Lobby interface (called from room goroutines) ---

func (l *lobby) RemoveRoom(roomId string) {
	l.removeRoomChan <- roomId
}

func (l *lobby) NotifyJoined(connId, roomId string) {
	select {
	case l.joinedNotices <- membership{connId: connId, roomId: roomId}:
	default:
	}
}

func (l *lobby) NotifyLeft(connId string) {
	select {
	case l.leftNotices <- connId:
	default:
	}
}
