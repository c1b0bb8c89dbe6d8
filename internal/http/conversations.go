package httpapi

import (
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"campusone-backend-go/internal/models"
	"campusone-backend-go/internal/services"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
)

type ConversationDTO struct {
	ID             string     `json:"id"`
	Type           string     `json:"type"`
	CourseID       *string    `json:"courseId,omitempty"`
	Name           string     `json:"name"`
	MemberLabel    string     `json:"memberLabel"`
	Participants   []string   `json:"participants"`
	LastActivityAt *time.Time `json:"lastActivityAt,omitempty"`
}

type MessageDTO struct {
	ID             string    `json:"id"`
	ConversationID string    `json:"conversationId"`
	SenderID       string    `json:"senderId"`
	SenderName     string    `json:"senderName,omitempty"`
	Content        string    `json:"content"`
	Type           string    `json:"type"`
	CreatedAt      time.Time `json:"createdAt"`
}

func (s *Server) conversationDTO(conv models.Conversation) ConversationDTO {
	participants := []string{}
	_ = s.DB.Select(&participants, `
SELECT user_id FROM conversation_participants WHERE conversation_id = $1 ORDER BY created_at
`, conv.ID)
	return ConversationDTO{
		ID:             conv.ID,
		Type:           conv.Type,
		CourseID:       conv.CourseID,
		Name:           conv.Name,
		MemberLabel:    conv.MemberLabel,
		Participants:   participants,
		LastActivityAt: conv.LastActivityAt,
	}
}

// ListConversations returns the conversations the caller participates in,
// most recently active first.
func (s *Server) ListConversations(w http.ResponseWriter, r *http.Request) {
	userID := CurrentUserID(r)
	conversations := []models.Conversation{}
	if err := s.DB.Select(&conversations, `
SELECT c.* FROM conversations c
JOIN conversation_participants p ON p.conversation_id = c.id
WHERE p.user_id = $1
ORDER BY c.last_activity_at DESC NULLS LAST, c.created_at DESC
`, userID); err != nil {
		WriteError(w, http.StatusInternalServerError, "Internal server error")
		return
	}
	items := make([]ConversationDTO, 0, len(conversations))
	for _, conv := range conversations {
		items = append(items, s.conversationDTO(conv))
	}
	WriteJSON(w, http.StatusOK, map[string][]ConversationDTO{"items": items})
}

type ConversationRequest struct {
	Type           string   `json:"type"`
	Name           string   `json:"name"`
	ParticipantIDs []string `json:"participantIds"`
}

func (s *Server) CreateConversation(w http.ResponseWriter, r *http.Request) {
	userID := CurrentUserID(r)
	var req ConversationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		WriteError(w, http.StatusBadRequest, "Invalid payload")
		return
	}
	convType := strings.ToUpper(strings.TrimSpace(req.Type))
	switch convType {
	case "PRIVATE", "GROUP", "ANNOUNCEMENT":
	case "":
		convType = "PRIVATE"
	default:
		WriteError(w, http.StatusBadRequest, "Type must be one of PRIVATE, GROUP, ANNOUNCEMENT")
		return
	}
	// The caller is always a participant of the conversation they create.
	participants := services.Dedup(append([]string{userID}, req.ParticipantIDs...))
	if len(participants) < 2 && convType == "PRIVATE" {
		WriteError(w, http.StatusBadRequest, "A private conversation needs another participant")
		return
	}
	convID := uuid.NewString()
	now := time.Now().UTC()
	if _, err := s.DB.Exec(`
INSERT INTO conversations (id, type, course_id, name, member_label, last_activity_at, created_at, updated_at)
VALUES ($1,$2,NULL,$3,$4,$5,$5,$5)
`, convID, convType, strings.TrimSpace(req.Name), services.MemberLabel(len(participants)), now); err != nil {
		WriteError(w, http.StatusInternalServerError, "Internal server error")
		return
	}
	for _, participant := range participants {
		if _, err := s.DB.Exec(`
INSERT INTO conversation_participants (id, conversation_id, user_id, created_at)
VALUES ($1,$2,$3,$4)
ON CONFLICT (conversation_id, user_id) DO NOTHING
`, uuid.NewString(), convID, participant, now); err != nil {
			WriteError(w, http.StatusInternalServerError, "Internal server error")
			return
		}
	}
	var conv models.Conversation
	if err := s.DB.Get(&conv, `SELECT * FROM conversations WHERE id = $1`, convID); err != nil {
		WriteError(w, http.StatusInternalServerError, "Internal server error")
		return
	}
	WriteJSON(w, http.StatusCreated, s.conversationDTO(conv))
}

func (s *Server) ListMessages(w http.ResponseWriter, r *http.Request) {
	conversationID := chi.URLParam(r, "conversationId")
	userID := CurrentUserID(r)
	if !services.IsParticipant(s.DB, conversationID, userID) {
		WriteError(w, http.StatusForbidden, "Not a participant of this conversation")
		return
	}
	rows := []struct {
		models.Message
		SenderName string `db:"sender_name"`
	}{}
	if err := s.DB.Select(&rows, `
SELECT m.*, u.name AS sender_name
FROM messages m
JOIN users u ON u.id = m.sender_id
WHERE m.conversation_id = $1
ORDER BY m.created_at ASC
`, conversationID); err != nil {
		WriteError(w, http.StatusInternalServerError, "Internal server error")
		return
	}
	items := make([]MessageDTO, 0, len(rows))
	for _, row := range rows {
		items = append(items, MessageDTO{
			ID:             row.ID,
			ConversationID: row.ConversationID,
			SenderID:       row.SenderID,
			SenderName:     row.SenderName,
			Content:        row.Content,
			Type:           row.Type,
			CreatedAt:      row.CreatedAt,
		})
	}
	WriteJSON(w, http.StatusOK, map[string][]MessageDTO{"items": items})
}

type MessageRequest struct {
	Content string `json:"content" validate:"required"`
	Type    string `json:"type"`
}

func (s *Server) PostMessage(w http.ResponseWriter, r *http.Request) {
	conversationID := chi.URLParam(r, "conversationId")
	userID := CurrentUserID(r)
	if !services.IsParticipant(s.DB, conversationID, userID) {
		WriteError(w, http.StatusForbidden, "Not a participant of this conversation")
		return
	}
	var req MessageRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		WriteError(w, http.StatusBadRequest, "Invalid payload")
		return
	}
	req.Content = strings.TrimSpace(req.Content)
	if err := s.validate.Struct(req); err != nil {
		WriteError(w, http.StatusBadRequest, "Content is required")
		return
	}
	message, err := s.persistMessage(conversationID, userID, req.Content, req.Type)
	if err != nil {
		WriteError(w, http.StatusInternalServerError, "Internal server error")
		return
	}
	// Live fan-out never fails the request.
	s.ChatHub.Broadcast(conversationID, message)
	WriteJSON(w, http.StatusCreated, message)
}

func (s *Server) persistMessage(conversationID, senderID, content, msgType string) (MessageDTO, error) {
	switch strings.ToUpper(strings.TrimSpace(msgType)) {
	case "FILE":
		msgType = "FILE"
	case "IMAGE":
		msgType = "IMAGE"
	default:
		msgType = "TEXT"
	}
	messageID := uuid.NewString()
	now := time.Now().UTC()
	if _, err := s.DB.Exec(`
INSERT INTO messages (id, conversation_id, sender_id, content, type, created_at)
VALUES ($1,$2,$3,$4,$5,$6)
`, messageID, conversationID, senderID, content, msgType, now); err != nil {
		return MessageDTO{}, err
	}
	services.TouchConversation(s.DB, conversationID)
	var senderName string
	_ = s.DB.Get(&senderName, `SELECT name FROM users WHERE id = $1`, senderID)
	return MessageDTO{
		ID:             messageID,
		ConversationID: conversationID,
		SenderID:       senderID,
		SenderName:     senderName,
		Content:        content,
		Type:           msgType,
		CreatedAt:      now,
	}, nil
}
