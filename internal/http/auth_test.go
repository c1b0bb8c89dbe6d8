package httpapi

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"campusone-backend-go/internal/services"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testTokens() services.TokenService {
	return services.TokenService{
		Secret:     []byte("test-secret"),
		Issuer:     "campusone",
		AccessTTL:  15 * time.Minute,
		RefreshTTL: 24 * time.Hour,
	}
}

func okHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		WriteJSON(w, http.StatusOK, map[string]string{
			"userId": CurrentUserID(r),
			"role":   CurrentRole(r),
		})
	})
}

func TestWithAuthMissingToken(t *testing.T) {
	handler := WithAuth(testTokens())(okHandler())
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/courses", nil))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestWithAuthMangledToken(t *testing.T) {
	handler := WithAuth(testTokens())(okHandler())
	req := httptest.NewRequest(http.MethodGet, "/api/courses", nil)
	req.Header.Set("Authorization", "Bearer not.a.token")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestWithAuthRejectsRefreshToken(t *testing.T) {
	tokens := testTokens()
	refresh, err := tokens.CreateRefreshToken("user-1")
	require.NoError(t, err)

	handler := WithAuth(tokens)(okHandler())
	req := httptest.NewRequest(http.MethodGet, "/api/courses", nil)
	req.Header.Set("Authorization", "Bearer "+refresh)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestWithAuthThreadsIdentity(t *testing.T) {
	tokens := testTokens()
	access, _, err := tokens.CreateAccessToken("user-1", "lena@example.com", "student")
	require.NoError(t, err)

	handler := WithAuth(tokens)(okHandler())
	req := httptest.NewRequest(http.MethodGet, "/api/courses", nil)
	req.Header.Set("Authorization", "Bearer "+access)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"userId":"user-1"`)
	// Role is uppercased on the way into the context.
	assert.Contains(t, rec.Body.String(), `"role":"STUDENT"`)
}

func TestRequireAnyRoleForbidsStudent(t *testing.T) {
	tokens := testTokens()
	access, _, err := tokens.CreateAccessToken("user-1", "lena@example.com", "STUDENT")
	require.NoError(t, err)

	mutated := false
	protected := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mutated = true
		WriteJSON(w, http.StatusOK, map[string]string{"ok": "yes"})
	})
	handler := WithAuth(tokens)(RequireAnyRole("TEACHER", "ADMIN")(protected))

	req := httptest.NewRequest(http.MethodPost, "/api/courses", nil)
	req.Header.Set("Authorization", "Bearer "+access)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.False(t, mutated)
}

func TestRequireAnyRoleAllowsTeacher(t *testing.T) {
	tokens := testTokens()
	access, _, err := tokens.CreateAccessToken("user-2", "amira@example.com", "TEACHER")
	require.NoError(t, err)

	handler := WithAuth(tokens)(RequireAnyRole("TEACHER", "ADMIN")(okHandler()))
	req := httptest.NewRequest(http.MethodPost, "/api/courses", nil)
	req.Header.Set("Authorization", "Bearer "+access)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestTokenBucketLimits(t *testing.T) {
	limiter := NewTokenBucket(3, 3)
	handler := limiter.Middleware(okHandler())

	for i := 0; i < 3; i++ {
		req := httptest.NewRequest(http.MethodPost, "/api/auth/login", nil)
		req.RemoteAddr = "10.0.0.1:1234"
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusOK, rec.Code)
	}

	req := httptest.NewRequest(http.MethodPost, "/api/auth/login", nil)
	req.RemoteAddr = "10.0.0.1:1234"
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)

	// A different client is unaffected.
	req = httptest.NewRequest(http.MethodPost, "/api/auth/login", nil)
	req.RemoteAddr = "10.0.0.2:1234"
	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
}
