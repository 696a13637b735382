package game

type RoomPhase int

const (
	PHASE_LOBBY RoomPhase = iota
	PHASE_COUNTDOWN
	PHASE_PLAYING
	PHASE_ROUND_OVER
	PHASE_INTERMISSION
	PHASE_FINISHED
)

var phaseNames = map[RoomPhase]string{
	PHASE_LOBBY:        "lobby",
	PHASE_COUNTDOWN:    "countdown",
	PHASE_PLAYING:      "playing",
	PHASE_ROUND_OVER:   "roundOver",
	PHASE_INTERMISSION: "intermission",
	PHASE_FINISHED:     "finished",
}

func (p RoomPhase) String() string {
	return phaseNames[p]
}

// Command is one decoded client frame. Unused fields stay at their zero
// value; each command type reads only the fields it acts on.
type Command struct {
	Type      string  `json:"type"`
	Dx        float64 `json:"dx"`
	Dy        float64 `json:"dy"`
	Kind      string  `json:"kind"`
	Direction string  `json:"direction"`
}

type commandEnvelope struct {
	cmd  Command
	from *Player
}

type ServerMessage struct {
	Type string `json:"type"`
	Data any    `json:"data,omitempty"`
}

type ErrorNotice struct {
	Reason string `json:"reason"`
}

type roomJoinRequest struct {
	roomId    string
	player    *Player
	spectator bool
	errChan   chan error
}

type createRoomResponse struct {
	roomId string
	err    error
}

type createRoomRequest struct {
	player   *Player
	variant  string
	opts     VariantOptions
	respChan chan createRoomResponse
}

type whereIsRequest struct {
	connId   string
	respChan chan string
}

type membership struct {
	connId string
	roomId string
}

type noticeRequest struct {
	roomId  string
	message ServerMessage
	errChan chan error
}
