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

type AIConversationDTO struct {
	ID        string         `json:"id"`
	Title     string         `json:"title"`
	CreatedAt time.Time      `json:"createdAt"`
	UpdatedAt time.Time      `json:"updatedAt"`
	Messages  []AIMessageDTO `json:"messages,omitempty"`
}

type AIMessageDTO struct {
	ID        string    `json:"id"`
	Role      string    `json:"role"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"createdAt"`
}

func (s *Server) ListAIConversations(w http.ResponseWriter, r *http.Request) {
	userID := CurrentUserID(r)
	conversations := []models.AIConversation{}
	if err := s.DB.Select(&conversations, `
SELECT * FROM ai_conversations WHERE user_id = $1 ORDER BY updated_at DESC
`, userID); err != nil {
		WriteError(w, http.StatusInternalServerError, "Internal server error")
		return
	}
	items := make([]AIConversationDTO, 0, len(conversations))
	for _, conv := range conversations {
		items = append(items, AIConversationDTO{
			ID:        conv.ID,
			Title:     conv.Title,
			CreatedAt: conv.CreatedAt,
			UpdatedAt: conv.UpdatedAt,
		})
	}
	WriteJSON(w, http.StatusOK, map[string][]AIConversationDTO{"items": items})
}

type AIConversationRequest struct {
	Title string `json:"title"`
}

// CreateAIConversation snapshots the caller's course/attendance context at
// creation time; later turns reuse the snapshot instead of re-querying.
func (s *Server) CreateAIConversation(w http.ResponseWriter, r *http.Request) {
	userID := CurrentUserID(r)
	role := CurrentRole(r)
	var req AIConversationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		WriteError(w, http.StatusBadRequest, "Invalid payload")
		return
	}
	title := strings.TrimSpace(req.Title)
	if title == "" {
		title = "New conversation"
	}
	convID := uuid.NewString()
	now := time.Now().UTC()
	snapshot := services.BuildContextSnapshot(s.DB, userID, role)
	if _, err := s.DB.Exec(`
INSERT INTO ai_conversations (id, user_id, role, title, context_snapshot, created_at, updated_at)
VALUES ($1,$2,$3,$4,$5,$6,$6)
`, convID, userID, role, title, snapshot, now); err != nil {
		WriteError(w, http.StatusInternalServerError, "Internal server error")
		return
	}
	WriteJSON(w, http.StatusCreated, AIConversationDTO{ID: convID, Title: title, CreatedAt: now, UpdatedAt: now})
}

func (s *Server) ownedAIConversation(w http.ResponseWriter, r *http.Request) (models.AIConversation, bool) {
	conversationID := chi.URLParam(r, "conversationId")
	var conv models.AIConversation
	if err := s.DB.Get(&conv, `SELECT * FROM ai_conversations WHERE id = $1`, conversationID); err != nil {
		WriteError(w, http.StatusNotFound, "Conversation not found")
		return models.AIConversation{}, false
	}
	if conv.UserID != CurrentUserID(r) {
		WriteError(w, http.StatusForbidden, "Not your conversation")
		return models.AIConversation{}, false
	}
	return conv, true
}

func (s *Server) GetAIConversation(w http.ResponseWriter, r *http.Request) {
	conv, ok := s.ownedAIConversation(w, r)
	if !ok {
		return
	}
	messages := []models.AIMessage{}
	if err := s.DB.Select(&messages, `
SELECT * FROM ai_messages WHERE conversation_id = $1 ORDER BY created_at ASC
`, conv.ID); err != nil {
		WriteError(w, http.StatusInternalServerError, "Internal server error")
		return
	}
	dto := AIConversationDTO{
		ID:        conv.ID,
		Title:     conv.Title,
		CreatedAt: conv.CreatedAt,
		UpdatedAt: conv.UpdatedAt,
		Messages:  make([]AIMessageDTO, 0, len(messages)),
	}
	for _, message := range messages {
		dto.Messages = append(dto.Messages, AIMessageDTO{
			ID:        message.ID,
			Role:      message.Role,
			Content:   message.Content,
			CreatedAt: message.CreatedAt,
		})
	}
	WriteJSON(w, http.StatusOK, dto)
}

func (s *Server) DeleteAIConversation(w http.ResponseWriter, r *http.Request) {
	conv, ok := s.ownedAIConversation(w, r)
	if !ok {
		return
	}
	if _, err := s.DB.Exec(`DELETE FROM ai_messages WHERE conversation_id = $1`, conv.ID); err != nil {
		WriteError(w, http.StatusInternalServerError, "Internal server error")
		return
	}
	if _, err := s.DB.Exec(`DELETE FROM ai_conversations WHERE id = $1`, conv.ID); err != nil {
		WriteError(w, http.StatusInternalServerError, "Internal server error")
		return
	}
	WriteJSON(w, http.StatusOK, map[string]string{"deleted": conv.ID})
}

type AIMessageRequest struct {
	Content string `json:"content" validate:"required"`
}

// PostAIMessage appends the user turn, forwards the whole conversation to the
// completion endpoint behind a role-specific system prompt, and persists the
// assistant's reply.
func (s *Server) PostAIMessage(w http.ResponseWriter, r *http.Request) {
	conv, ok := s.ownedAIConversation(w, r)
	if !ok {
		return
	}
	var req AIMessageRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		WriteError(w, http.StatusBadRequest, "Invalid payload")
		return
	}
	req.Content = strings.TrimSpace(req.Content)
	if err := s.validate.Struct(req); err != nil {
		WriteError(w, http.StatusBadRequest, "Content is required")
		return
	}

	var userName string
	_ = s.DB.Get(&userName, `SELECT name FROM users WHERE id = $1`, conv.UserID)

	history := []models.AIMessage{}
	if err := s.DB.Select(&history, `
SELECT * FROM ai_messages WHERE conversation_id = $1 ORDER BY created_at ASC
`, conv.ID); err != nil {
		WriteError(w, http.StatusInternalServerError, "Internal server error")
		return
	}
	turns := make([]services.ChatMessage, 0, len(history)+2)
	turns = append(turns, services.ChatMessage{
		Role:    services.ChatRoleSystem,
		Content: services.BuildSystemPrompt(conv.Role, userName, conv.ContextSnapshot),
	})
	for _, message := range history {
		turns = append(turns, services.ChatMessage{Role: message.Role, Content: message.Content})
	}
	turns = append(turns, services.ChatMessage{Role: services.ChatRoleUser, Content: req.Content})

	now := time.Now().UTC()
	userMessageID := uuid.NewString()
	if _, err := s.DB.Exec(`
INSERT INTO ai_messages (id, conversation_id, role, content, created_at)
VALUES ($1,$2,$3,$4,$5)
`, userMessageID, conv.ID, services.ChatRoleUser, req.Content, now); err != nil {
		WriteError(w, http.StatusInternalServerError, "Internal server error")
		return
	}

	reply, err := s.AI.ChatCompletion(r.Context(), turns)
	if err != nil {
		WriteError(w, http.StatusInternalServerError, "Assistant is unavailable, try again later")
		return
	}

	replyID := uuid.NewString()
	replyAt := time.Now().UTC()
	if _, err := s.DB.Exec(`
INSERT INTO ai_messages (id, conversation_id, role, content, created_at)
VALUES ($1,$2,$3,$4,$5)
`, replyID, conv.ID, services.ChatRoleAssistant, reply, replyAt); err != nil {
		WriteError(w, http.StatusInternalServerError, "Internal server error")
		return
	}
	_, _ = s.DB.Exec(`UPDATE ai_conversations SET updated_at = $2 WHERE id = $1`, conv.ID, replyAt)

	WriteJSON(w, http.StatusCreated, map[string]AIMessageDTO{
		"userMessage":      {ID: userMessageID, Role: services.ChatRoleUser, Content: req.Content, CreatedAt: now},
		"assistantMessage": {ID: replyID, Role: services.ChatRoleAssistant, Content: reply, CreatedAt: replyAt},
	})
}
