package handlers

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"

	"listify_echo/internal/realtime"
	"listify_echo/internal/services"
)

const (
	frameChatSend = "chat.send"
	frameChatVote = "chat.vote"
)

// ChatHandler serves chat history and the realtime socket
type ChatHandler struct {
	chat     *services.ChatService
	users    *services.UserService
	hub      *realtime.Hub
	upgrader websocket.Upgrader
}

func NewChatHandler(chat *services.ChatService, users *services.UserService, hub *realtime.Hub) *ChatHandler {
	return &ChatHandler{
		chat:  chat,
		users: users,
		hub:   hub,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			// origins are enforced by the CORS middleware and the token
			CheckOrigin: func(*http.Request) bool { return true },
		},
	}
}

// History returns the messages of a group the caller belongs to
func (h *ChatHandler) History(c echo.Context) error {
	groupID, err := paramID(c, "groupId")
	if err != nil {
		return err
	}
	user, err := h.users.Get(c.Request().Context(), callerID(c))
	if err != nil {
		return err
	}
	if !user.InGroup(groupID) {
		return services.Forbidden("not a member of this group")
	}
	messages, err := h.chat.History(c.Request().Context(), groupID)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, messages)
}

// WebSocket subscribes the caller to the topic of their group
func (h *ChatHandler) WebSocket(c echo.Context) error {
	user, err := h.users.Get(c.Request().Context(), callerID(c))
	if err != nil {
		return err
	}
	if user.GroupID == nil {
		return services.Forbidden("join a group to use the chat")
	}

	conn, err := h.upgrader.Upgrade(c.Response(), c.Request(), nil)
	if err != nil {
		// the upgrader already wrote the response
		slog.Debug("websocket upgrade failed", "error", err)
		return nil
	}

	session := realtime.Session{UserID: user.ID, GroupID: *user.GroupID}
	h.hub.Serve(context.Background(), conn, session, h.handleFrame)
	return nil
}

// handleFrame applies a client frame. The sender and voter are always the
// authenticated user.
func (h *ChatHandler) handleFrame(ctx context.Context, s realtime.Session, f realtime.Frame) {
	var err error
	switch f.Type {
	case frameChatSend:
		var in services.SendMessageInput
		if err = json.Unmarshal(f.Data, &in); err != nil {
			break
		}
		in.SenderID = s.UserID
		if in.GroupID == 0 {
			in.GroupID = s.GroupID
		}
		_, err = h.chat.Send(ctx, in)
	case frameChatVote:
		var in services.VoteInput
		if err = json.Unmarshal(f.Data, &in); err != nil {
			break
		}
		in.UserID = &s.UserID
		_, err = h.chat.Vote(ctx, in)
	default:
		slog.Debug("unknown websocket frame", "type", f.Type, "user", s.UserID)
	}
	if err != nil {
		slog.Warn("websocket frame failed", "type", f.Type, "user", s.UserID, "error", err)
	}
}
