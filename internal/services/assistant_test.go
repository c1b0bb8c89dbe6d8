package services

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildSystemPrompt(t *testing.T) {
	prompt := BuildSystemPrompt("STUDENT", "Lena", "- Enrolled in \"CS101\"")
	assert.Contains(t, prompt, "talking to a student")
	assert.Contains(t, prompt, "Lena")
	assert.Contains(t, prompt, "CS101")

	prompt = BuildSystemPrompt("TEACHER", "", "")
	assert.Contains(t, prompt, "talking to a teacher")
	assert.NotContains(t, prompt, "Current context")

	prompt = BuildSystemPrompt("ADMIN", "Sam", "")
	assert.Contains(t, prompt, "administrator")
}

func TestChatCompletion(t *testing.T) {
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))

		var payload struct {
			Model    string        `json:"model"`
			Messages []ChatMessage `json:"messages"`
		}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&payload))
		assert.Equal(t, "test-model", payload.Model)
		require.Len(t, payload.Messages, 2)
		assert.Equal(t, ChatRoleSystem, payload.Messages[0].Role)

		_ = json.NewEncoder(w).Encode(map[string]interface{}{
			"choices": []map[string]interface{}{
				{"message": map[string]string{"role": "assistant", "content": "Hello from the assistant"}},
			},
		})
	}))
	defer upstream.Close()

	client := NewAIClient(upstream.URL, "test-key", "test-model")
	reply, err := client.ChatCompletion(context.Background(), []ChatMessage{
		{Role: ChatRoleSystem, Content: "system prompt"},
		{Role: ChatRoleUser, Content: "hi"},
	})
	require.NoError(t, err)
	assert.Equal(t, "Hello from the assistant", reply)
}

func TestChatCompletionUpstreamError(t *testing.T) {
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "quota exceeded", http.StatusTooManyRequests)
	}))
	defer upstream.Close()

	client := NewAIClient(upstream.URL, "test-key", "test-model")
	_, err := client.ChatCompletion(context.Background(), []ChatMessage{
		{Role: ChatRoleUser, Content: "hi"},
	})
	assert.Error(t, err)
}

func TestChatCompletionEmptyChoices(t *testing.T) {
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]interface{}{"choices": []interface{}{}})
	}))
	defer upstream.Close()

	client := NewAIClient(upstream.URL, "test-key", "test-model")
	_, err := client.ChatCompletion(context.Background(), []ChatMessage{
		{Role: ChatRoleUser, Content: "hi"},
	})
	assert.Error(t, err)
}
