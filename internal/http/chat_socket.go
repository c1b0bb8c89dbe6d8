package httpapi

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"campusone-backend-go/internal/services"

	"github.com/gorilla/websocket"
)

// SocketEvent is the envelope for both directions of the chat socket.
// Client-to-server events: joinConversation, sendMessage. Server-to-client:
// receiveMessage.
type SocketEvent struct {
	Event          string `json:"event"`
	ConversationID string `json:"conversationId,omitempty"`
	Content        string `json:"content,omitempty"`
	Type           string `json:"type,omitempty"`
}

type chatClient struct {
	conn   *websocket.Conn
	userID string
	rooms  map[string]bool
}

type hubCommand struct {
	action         string // "add", "remove", "join", "broadcast"
	client         *chatClient
	conversationID string
	message        MessageDTO
}

// ChatHub fans persisted messages out to sockets subscribed to the message's
// conversation room. All state is owned by the Run goroutine; commands arrive
// over a buffered channel and are dropped, not queued, when it is full.
type ChatHub struct {
	clients map[*chatClient]bool
	ch      chan hubCommand
}

func NewChatHub() *ChatHub {
	return &ChatHub{
		clients: map[*chatClient]bool{},
		ch:      make(chan hubCommand, 64),
	}
}

func (h *ChatHub) Run(ctx context.Context) {
	for {
		select {
		case cmd := <-h.ch:
			switch cmd.action {
			case "add":
				h.clients[cmd.client] = true
			case "remove":
				delete(h.clients, cmd.client)
			case "join":
				cmd.client.rooms[cmd.conversationID] = true
			case "broadcast":
				for client := range h.clients {
					if !client.rooms[cmd.conversationID] {
						continue
					}
					if err := client.conn.WriteJSON(map[string]interface{}{
						"event":   "receiveMessage",
						"message": cmd.message,
					}); err != nil {
						continue
					}
					services.MessagesDelivered.Inc()
				}
			}
		case <-ctx.Done():
			return
		}
	}
}

// Broadcast delivers to currently connected room subscribers only; there is
// no queueing or retry for disconnected ones.
func (h *ChatHub) Broadcast(conversationID string, message MessageDTO) {
	select {
	case h.ch <- hubCommand{action: "broadcast", conversationID: conversationID, message: message}:
	default:
	}
}

func (h *ChatHub) add(client *chatClient) {
	h.ch <- hubCommand{action: "add", client: client}
}

func (h *ChatHub) remove(client *chatClient) {
	h.ch <- hubCommand{action: "remove", client: client}
}

func (h *ChatHub) join(client *chatClient, conversationID string) {
	h.ch <- hubCommand{action: "join", client: client, conversationID: conversationID}
}

// ChatSocket upgrades the connection after verifying the access token passed
// as a query parameter (browsers cannot set headers on websocket upgrades).
func (s *Server) ChatSocket(w http.ResponseWriter, r *http.Request) {
	raw := r.URL.Query().Get("token")
	if raw == "" {
		WriteError(w, http.StatusUnauthorized, "Authentication failed")
		return
	}
	token, claims, err := s.Tokens.ParseToken(raw)
	if err != nil || !token.Valid || claims["typ"] != "access" {
		WriteError(w, http.StatusUnauthorized, "Authentication failed")
		return
	}
	userID, _ := claims["sub"].(string)
	if userID == "" {
		WriteError(w, http.StatusUnauthorized, "Authentication failed")
		return
	}
	upgrader := websocket.Upgrader{
		CheckOrigin: func(r *http.Request) bool { return true },
	}
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}
	client := &chatClient{conn: conn, userID: userID, rooms: map[string]bool{}}
	s.ChatHub.add(client)
	defer func() {
		s.ChatHub.remove(client)
		_ = conn.Close()
	}()
	// client.rooms is owned by the hub goroutine; the reader keeps its own
	// copy of what it joined.
	joined := map[string]bool{}
	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			return
		}
		var event SocketEvent
		if err := json.Unmarshal(data, &event); err != nil {
			continue
		}
		switch event.Event {
		case "joinConversation":
			if services.IsParticipant(s.DB, event.ConversationID, userID) {
				joined[event.ConversationID] = true
				s.ChatHub.join(client, event.ConversationID)
			}
		case "sendMessage":
			content := strings.TrimSpace(event.Content)
			if content == "" || !joined[event.ConversationID] {
				continue
			}
			message, err := s.persistMessage(event.ConversationID, userID, content, event.Type)
			if err != nil {
				services.LogSideEffectFailure("socket_message", err)
				continue
			}
			s.ChatHub.Broadcast(event.ConversationID, message)
		}
	}
}
