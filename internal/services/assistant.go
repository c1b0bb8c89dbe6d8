package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"
)

const (
	ChatRoleSystem    = "system"
	ChatRoleUser      = "user"
	ChatRoleAssistant = "assistant"
)

type ChatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// AIClient calls an OpenAI-compatible chat-completions endpoint.
type AIClient struct {
	BaseURL    string
	APIKey     string
	Model      string
	HTTPClient *http.Client
}

func NewAIClient(baseURL, apiKey, model string) *AIClient {
	return &AIClient{
		BaseURL:    strings.TrimRight(baseURL, "/"),
		APIKey:     apiKey,
		Model:      model,
		HTTPClient: &http.Client{Timeout: 60 * time.Second},
	}
}

type chatCompletionRequest struct {
	Model    string        `json:"model"`
	Messages []ChatMessage `json:"messages"`
}

type chatCompletionResponse struct {
	Choices []struct {
		Message ChatMessage `json:"message"`
	} `json:"choices"`
	Error *struct {
		Message string `json:"message"`
	} `json:"error,omitempty"`
}

// ChatCompletion sends the turn history and returns the assistant reply text.
func (c *AIClient) ChatCompletion(ctx context.Context, messages []ChatMessage) (string, error) {
	if c.APIKey == "" {
		return "", fmt.Errorf("ai client: missing API key")
	}
	payload, err := json.Marshal(chatCompletionRequest{Model: c.Model, Messages: messages})
	if err != nil {
		return "", err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.BaseURL+"/chat/completions", bytes.NewReader(payload))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.APIKey)
	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("ai client: %w", err)
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return "", fmt.Errorf("ai client: %w", err)
	}
	var parsed chatCompletionResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return "", fmt.Errorf("ai client: decode response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		if parsed.Error != nil {
			return "", fmt.Errorf("ai client: %s (status %d)", parsed.Error.Message, resp.StatusCode)
		}
		return "", fmt.Errorf("ai client: status %d", resp.StatusCode)
	}
	if len(parsed.Choices) == 0 {
		return "", fmt.Errorf("ai client: empty completion")
	}
	return parsed.Choices[0].Message.Content, nil
}

// BuildSystemPrompt assembles the role-specific assistant instructions with
// the live context snapshot appended.
func BuildSystemPrompt(role, userName, contextSnapshot string) string {
	var b strings.Builder
	b.WriteString("You are the CampusOne assistant for a student-management system. ")
	switch strings.ToUpper(role) {
	case "TEACHER":
		b.WriteString("You are talking to a teacher. Help with course management, attendance review and timetable questions.")
	case "ADMIN":
		b.WriteString("You are talking to an administrator. Help with rosters, enrollment statistics and system usage.")
	default:
		b.WriteString("You are talking to a student. Help with their courses, schedule and attendance.")
	}
	if name := strings.TrimSpace(userName); name != "" {
		b.WriteString(" The user's name is " + name + ".")
	}
	if snapshot := strings.TrimSpace(contextSnapshot); snapshot != "" {
		b.WriteString("\n\nCurrent context:\n")
		b.WriteString(snapshot)
	}
	return b.String()
}

// BuildContextSnapshot summarizes the caller's live course and attendance data
// for the system prompt. Failures degrade to a partial snapshot.
func BuildContextSnapshot(db *sqlx.DB, userID, role string) string {
	var b strings.Builder
	switch strings.ToUpper(role) {
	case "TEACHER", "ADMIN":
		courses := []struct {
			Title           string `db:"title"`
			EnrollmentCount int    `db:"enrollment_count"`
		}{}
		_ = db.Select(&courses, `
SELECT c.title, c.enrollment_count
FROM courses c
JOIN users u ON u.id = $1
WHERE lower(c.instructor_name) = lower(u.name) OR u.role = 'ADMIN'
ORDER BY c.created_at
LIMIT 20
`, userID)
		for _, course := range courses {
			fmt.Fprintf(&b, "- Course %q with %d enrolled students\n", course.Title, course.EnrollmentCount)
		}
	default:
		courses := []struct {
			Title        string `db:"title"`
			ScheduleDays string `db:"schedule_days"`
			ScheduleTime string `db:"schedule_time"`
		}{}
		_ = db.Select(&courses, `
SELECT c.title, c.schedule_days, c.schedule_time
FROM courses c
JOIN course_members cm ON cm.course_id = c.id
WHERE cm.user_id = $1
ORDER BY cm.created_at
LIMIT 20
`, userID)
		for _, course := range courses {
			fmt.Fprintf(&b, "- Enrolled in %q (%s %s)\n", course.Title, course.ScheduleDays, course.ScheduleTime)
		}
		var studentID string
		if err := db.Get(&studentID, `
SELECT s.id FROM students s JOIN users u ON lower(u.email) = lower(s.email) WHERE u.id = $1
`, userID); err == nil {
			if rate := StudentAttendanceRate(db, studentID); rate >= 0 {
				fmt.Fprintf(&b, "- Overall attendance rate: %.0f%%\n", rate)
			}
		}
	}
	return strings.TrimSpace(b.String())
}
