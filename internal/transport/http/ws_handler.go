package http

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/netziya/shell-server/internal/core"
	"github.com/netziya/shell-server/internal/proto"
)

// WSHandler upgrades HTTP connections and runs the per-connection
// session against the hub: join the room, sync the document, relay
// inbound frames, and clean up exactly once on disconnect.
type WSHandler struct {
	hub *core.Hub
	log *zerolog.Logger
}

// NewWSHandler builds a new WebSocket handler.
func NewWSHandler(hub *core.Hub, logger *zerolog.Logger) *WSHandler {
	return &WSHandler{hub: hub, log: logger}
}

// Handle serves GET /ws/:room.
func (h *WSHandler) Handle(c *gin.Context) {
	roomID := c.Param("room")
	if roomID == "" {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "room is required"})
		return
	}

	conn, err := websocket.Accept(c.Writer, c.Request, &websocket.AcceptOptions{
		InsecureSkipVerify: true,
	})
	if err != nil {
		h.log.Error().Err(err).Msg("ws accept error")
		return
	}
	defer conn.Close(websocket.StatusInternalError, "internal error")

	ctx, cancel := context.WithCancel(c.Request.Context())
	defer cancel()

	client := core.NewClient(uuid.NewString())
	room, _, users := h.hub.Join(roomID, client)
	h.log.Debug().Str("client_id", client.ID).Str("room", roomID).Int("users", users).Msg("client joined")

	// Runs once after both loops have exited, regardless of which
	// direction failed first.
	defer func() {
		remaining := h.hub.Leave(room, client)
		h.log.Debug().Str("client_id", client.ID).Str("room", roomID).Int("users", remaining).Msg("client left")
	}()

	// Join already queued the document snapshot on the client; every
	// member (joiner included) now gets the refreshed count. Both ride
	// the client's own queue so the write loop stays the only socket
	// writer.
	room.BroadcastPresence()

	errCh := make(chan error, 2)
	go func() {
		errCh <- h.readLoop(ctx, conn, room, client)
	}()
	go func() {
		errCh <- h.writeLoop(ctx, conn, client)
	}()

	err = <-errCh
	cancel() // stop the other goroutine
	<-errCh

	status := websocket.StatusNormalClosure
	reason := "closing"
	if err != nil && !errors.Is(err, context.Canceled) {
		if errors.Is(err, io.EOF) {
			err = nil
		}
		if s := websocket.CloseStatus(err); s != 0 {
			status = s
		}
		if status == websocket.StatusNormalClosure || status == websocket.StatusGoingAway {
			err = nil
		}
		if err != nil {
			if status == websocket.StatusNormalClosure {
				status = websocket.StatusInternalError
			}
			reason = err.Error()
			h.log.Warn().Err(err).Msg("ws connection closed with error")
		}
	}

	conn.Close(status, reason)
}

func (h *WSHandler) readLoop(ctx context.Context, conn *websocket.Conn, room *core.Room, client *core.Client) error {
	for {
		_, data, err := conn.Read(ctx)
		if err != nil {
			return err
		}

		var inbound proto.Inbound
		if err := json.Unmarshal(data, &inbound); err != nil {
			// Tolerated on purpose: a malformed frame never tears down
			// the connection.
			h.log.Debug().Err(err).Str("client_id", client.ID).Msg("ignoring malformed frame")
			continue
		}

		switch inbound.Type {
		case proto.TypeUpdate:
			room.ApplyUpdate(client, inbound.Code)
		case proto.TypeFile:
			room.BroadcastFile(core.EventFileAdded, inbound.Filename)
		case proto.TypeDelete:
			room.BroadcastFile(core.EventFileRemoved, inbound.Filename)
		default:
			// Unknown types are ignored so newer clients and older
			// servers can coexist.
		}
	}
}

func (h *WSHandler) writeLoop(ctx context.Context, conn *websocket.Conn, client *core.Client) error {
	for {
		select {
		case event, ok := <-client.Events:
			if !ok {
				return nil
			}
			outbound := outboundFromEvent(event)
			if outbound == nil {
				continue
			}
			if err := wsjson.Write(ctx, conn, outbound); err != nil {
				h.log.Error().Err(err).Str("client_id", client.ID).Msg("write ws event")
				return err
			}
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}
