package httpapi

import (
	"net/http"
	"net/http/httptest"
	"regexp"
	"strings"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mockServer(t *testing.T) (*Server, sqlmock.Sqlmock) {
	t.Helper()
	raw, mock, err := sqlmock.New()
	require.NoError(t, err)
	db := sqlx.NewDb(raw, "sqlmock")
	t.Cleanup(func() { _ = db.Close() })
	return &Server{DB: db, Tokens: testTokens()}, mock
}

func refreshRequest(t *testing.T, s *Server, userID string) *http.Request {
	t.Helper()
	refresh, err := s.Tokens.CreateRefreshToken(userID)
	require.NoError(t, err)
	body := `{"refreshToken":"` + refresh + `"}`
	return httptest.NewRequest(http.MethodPost, "/api/auth/refresh", strings.NewReader(body))
}

func TestRefreshRejectsSuspendedAccount(t *testing.T) {
	s, mock := mockServer(t)
	mock.ExpectQuery(regexp.QuoteMeta(`SELECT email, role, status FROM users WHERE id = $1`)).
		WithArgs("user-1").
		WillReturnRows(sqlmock.NewRows([]string{"email", "role", "status"}).
			AddRow("lena@example.com", "STUDENT", "SUSPENDED"))

	rec := httptest.NewRecorder()
	s.Refresh(rec, refreshRequest(t, s, "user-1"))

	assert.Equal(t, http.StatusForbidden, rec.Code)
	// No new token pair in the response body.
	assert.NotContains(t, rec.Body.String(), "accessToken")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRefreshIssuesNewPairForActiveAccount(t *testing.T) {
	s, mock := mockServer(t)
	mock.ExpectQuery(regexp.QuoteMeta(`SELECT email, role, status FROM users WHERE id = $1`)).
		WithArgs("user-1").
		WillReturnRows(sqlmock.NewRows([]string{"email", "role", "status"}).
			AddRow("lena@example.com", "STUDENT", "ACTIVE"))
	mock.ExpectQuery(regexp.QuoteMeta(`SELECT id, email, name, role, status, last_login_at, created_at FROM users WHERE id = $1`)).
		WithArgs("user-1").
		WillReturnRows(sqlmock.NewRows([]string{"id", "email", "name", "role", "status", "last_login_at", "created_at"}).
			AddRow("user-1", "lena@example.com", "Lena Fischer", "STUDENT", "ACTIVE", nil, time.Now().UTC()))

	rec := httptest.NewRecorder()
	s.Refresh(rec, refreshRequest(t, s, "user-1"))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "accessToken")
	assert.Contains(t, rec.Body.String(), "refreshToken")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRefreshRejectsAccessToken(t *testing.T) {
	s, _ := mockServer(t)
	access, _, err := s.Tokens.CreateAccessToken("user-1", "lena@example.com", "STUDENT")
	require.NoError(t, err)

	body := `{"refreshToken":"` + access + `"}`
	req := httptest.NewRequest(http.MethodPost, "/api/auth/refresh", strings.NewReader(body))
	rec := httptest.NewRecorder()
	s.Refresh(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}
