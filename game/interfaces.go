package game

import "time"

// NetworkSession is the transport a Player writes to and reads from. The
// production implementation wraps a gorilla websocket connection.
type NetworkSession interface {
	Close(errCode string)
	Write(data []byte) error
	Read() ([]byte, error)
	Ping() error
}

// Lobby is the slice of the registry a room actor is allowed to talk to.
// All three calls are fire-and-forget from the room's point of view.
type Lobby interface {
	RemoveRoom(roomId string)
	NotifyJoined(connId, roomId string)
	NotifyLeft(connId string)
}

type UniqueIdGenerator interface {
	Generate() string
	Dispose(id string)
}

// PeriodicTickerFactory hands out tick channels together with their stop
// function, so tests can drive time by hand.
type PeriodicTickerFactory interface {
	Create(duration time.Duration) (<-chan time.Time, func())
}
