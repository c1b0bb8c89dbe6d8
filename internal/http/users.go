package httpapi

import (
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"
)

type UserDTO struct {
	ID          string     `json:"id"`
	Email       string     `json:"email"`
	Name        string     `json:"name"`
	Role        string     `json:"role"`
	Status      string     `json:"status"`
	LastLoginAt *time.Time `json:"lastLoginAt,omitempty"`
	CreatedAt   *time.Time `json:"createdAt,omitempty"`
}

func buildUserDTO(db *sqlx.DB, userID string) (*UserDTO, error) {
	row := struct {
		ID        string     `db:"id"`
		Email     string     `db:"email"`
		Name      string     `db:"name"`
		Role      string     `db:"role"`
		Status    string     `db:"status"`
		LastLogin *time.Time `db:"last_login_at"`
		CreatedAt time.Time  `db:"created_at"`
	}{}
	if err := db.Get(&row, `
SELECT id, email, name, role, status, last_login_at, created_at FROM users WHERE id = $1
`, userID); err != nil {
		return nil, err
	}
	return &UserDTO{
		ID:          row.ID,
		Email:       row.Email,
		Name:        row.Name,
		Role:        row.Role,
		Status:      row.Status,
		LastLoginAt: row.LastLogin,
		CreatedAt:   &row.CreatedAt,
	}, nil
}

func (s *Server) ListUsers(w http.ResponseWriter, r *http.Request) {
	role := strings.ToUpper(strings.TrimSpace(r.URL.Query().Get("role")))
	rows := []struct {
		ID        string     `db:"id"`
		Email     string     `db:"email"`
		Name      string     `db:"name"`
		Role      string     `db:"role"`
		Status    string     `db:"status"`
		LastLogin *time.Time `db:"last_login_at"`
		CreatedAt time.Time  `db:"created_at"`
	}{}
	query := `SELECT id, email, name, role, status, last_login_at, created_at FROM users`
	args := []interface{}{}
	if role != "" {
		query += ` WHERE role = $1`
		args = append(args, role)
	}
	query += ` ORDER BY created_at DESC`
	if err := s.DB.Select(&rows, query, args...); err != nil {
		WriteError(w, http.StatusInternalServerError, "Internal server error")
		return
	}
	items := make([]UserDTO, 0, len(rows))
	for _, row := range rows {
		createdAt := row.CreatedAt
		items = append(items, UserDTO{
			ID:          row.ID,
			Email:       row.Email,
			Name:        row.Name,
			Role:        row.Role,
			Status:      row.Status,
			LastLoginAt: row.LastLogin,
			CreatedAt:   &createdAt,
		})
	}
	WriteJSON(w, http.StatusOK, map[string][]UserDTO{"items": items})
}

func (s *Server) GetProfile(w http.ResponseWriter, r *http.Request) {
	userDTO, err := buildUserDTO(s.DB, CurrentUserID(r))
	if err != nil {
		WriteError(w, http.StatusNotFound, "User not found")
		return
	}
	WriteJSON(w, http.StatusOK, map[string]*UserDTO{"user": userDTO})
}

type ProfileUpdateRequest struct {
	Name *string `json:"name"`
}

func (s *Server) UpdateProfile(w http.ResponseWriter, r *http.Request) {
	userID := CurrentUserID(r)
	var req ProfileUpdateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		WriteError(w, http.StatusBadRequest, "Invalid payload")
		return
	}
	if req.Name != nil {
		name := strings.TrimSpace(*req.Name)
		if name == "" {
			WriteError(w, http.StatusBadRequest, "Name cannot be empty")
			return
		}
		if _, err := s.DB.Exec(`UPDATE users SET name = $1, updated_at = $2 WHERE id = $3`,
			name, time.Now().UTC(), userID); err != nil {
			WriteError(w, http.StatusInternalServerError, "Internal server error")
			return
		}
	}
	userDTO, err := buildUserDTO(s.DB, userID)
	if err != nil {
		WriteError(w, http.StatusInternalServerError, "Internal server error")
		return
	}
	WriteJSON(w, http.StatusOK, map[string]*UserDTO{"user": userDTO})
}

type PromoteAdminRequest struct {
	SetupCode string `json:"setupCode"`
}

// PromoteAdmin is the bootstrap path: any authenticated account holding the
// shared setup code becomes an admin. Not gated on an existing admin role.
func (s *Server) PromoteAdmin(w http.ResponseWriter, r *http.Request) {
	userID := CurrentUserID(r)
	var req PromoteAdminRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		WriteError(w, http.StatusBadRequest, "Invalid payload")
		return
	}
	if s.Config.AdminSetupCode == "" || req.SetupCode != s.Config.AdminSetupCode {
		WriteError(w, http.StatusForbidden, "Invalid setup code")
		return
	}
	if _, err := s.DB.Exec(`UPDATE users SET role = 'ADMIN', updated_at = $1 WHERE id = $2`,
		time.Now().UTC(), userID); err != nil {
		WriteError(w, http.StatusInternalServerError, "Internal server error")
		return
	}
	WriteJSON(w, http.StatusOK, map[string]string{"userId": userID, "role": "ADMIN"})
}
