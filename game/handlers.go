package game

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"eventease/shared/logger"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

type GameHandler struct {
	lobby *lobby
}

func NewGameHandler(l *lobby) GameHandler {
	return GameHandler{lobby: l}
}

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

// CreateGameHandler upgrades the connection and opens a fresh room with the
// caller as host. Validation happens before the upgrade so plain HTTP
// errors still reach the client.
func (h *GameHandler) CreateGameHandler(ctx *gin.Context) {
	name := strings.TrimSpace(ctx.Query("name"))
	variant := ctx.Query("variant")
	solo := ctx.Query("solo") == "true"

	if name == "" {
		ctx.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "name-required"})
		return
	}
	if !knownVariant(variant) {
		ctx.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": ErrUnknownVariant.Error()})
		return
	}

	conn, err := upgrader.Upgrade(ctx.Writer, ctx.Request, nil)
	if err != nil {
		logger.Warningf("[Handler] ws upgrade failed: %v", err)
		return
	}
	socketConn := NewWebsocketConnection(conn)

	player := NewPlayer(uuid.NewString(), name, &socketConn)

	reqCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	roomId, err := h.lobby.CreateRoom(reqCtx, player, variant, VariantOptions{Solo: solo})
	if err != nil {
		socketConn.Close(err.Error())
		return
	}

	player.send(ServerMessage{Type: "room_created", Data: map[string]any{
		"roomId": roomId, "playerId": player.id, "isHost": true,
	}})
	go player.WritePump()
	go player.ReadPump()
}

// JoinGameHandler puts the caller into an existing room, as a player or as
// a spectator (`spectate=true`).
func (h *GameHandler) JoinGameHandler(ctx *gin.Context) {
	name := strings.TrimSpace(ctx.Query("name"))
	roomId := strings.ToUpper(strings.TrimSpace(ctx.Param("roomid")))
	spectate := ctx.Query("spectate") == "true"

	if name == "" && !spectate {
		ctx.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "name-required"})
		return
	}
	if roomId == "" {
		ctx.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "room-required"})
		return
	}

	conn, err := upgrader.Upgrade(ctx.Writer, ctx.Request, nil)
	if err != nil {
		logger.Warningf("[Handler] ws upgrade failed: %v", err)
		return
	}
	socketConn := NewWebsocketConnection(conn)

	player := NewPlayer(uuid.NewString(), name, &socketConn)

	reqCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := h.lobby.JoinRoom(reqCtx, roomId, player, spectate); err != nil {
		socketConn.Close(err.Error())
		return
	}

	go player.WritePump()
	go player.ReadPump()
}

// ReportHandler injects a device report into a room's broadcast stream.
// Reports share no state with the game; they just ride the same fan-out.
func (h *GameHandler) ReportHandler(ctx *gin.Context) {
	roomId := strings.ToUpper(strings.TrimSpace(ctx.Param("roomid")))

	var body map[string]any
	if err := ctx.ShouldBindJSON(&body); err != nil {
		ctx.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "invalid-report"})
		return
	}
	if body == nil {
		body = map[string]any{}
	}
	body["reportId"] = uuid.NewString()

	reqCtx, cancel := context.WithTimeout(ctx.Request.Context(), 5*time.Second)
	defer cancel()
	err := h.lobby.InjectBroadcast(reqCtx, roomId, ServerMessage{Type: "device_report", Data: body})
	if errors.Is(err, ErrRoomNotFound) {
		ctx.AbortWithStatusJSON(http.StatusNotFound, gin.H{"error": ErrRoomNotFound.Error()})
		return
	}
	if err != nil {
		ctx.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "report-failed"})
		return
	}
	ctx.JSON(http.StatusOK, gin.H{"status": "delivered"})
}
