package httpapi

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"campusone-backend-go/internal/models"
	"campusone-backend-go/internal/services"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
)

type StudentRequest struct {
	RollNumber string `json:"rollNumber" validate:"required"`
	Name       string `json:"name" validate:"required"`
	Email      string `json:"email" validate:"required,email"`
	Program    string `json:"program"`
	Year       int    `json:"year"`
	Status     string `json:"status"`
}

type StudentDTO struct {
	ID                string   `json:"id"`
	RollNumber        string   `json:"rollNumber"`
	Name              string   `json:"name"`
	Email             string   `json:"email"`
	UserID            *string  `json:"userId,omitempty"`
	Program           string   `json:"program"`
	Year              int      `json:"year"`
	Status            string   `json:"status"`
	EnrolledCourseIDs []string `json:"enrolledCourseIds"`
	CreatedAt         string   `json:"createdAt"`
}

func buildStudentDTO(s *Server, student models.Student) StudentDTO {
	courseIDs, err := services.StudentCourseIDs(s.DB, student.ID)
	if err != nil {
		courseIDs = []string{}
	}
	return StudentDTO{
		ID:                student.ID,
		RollNumber:        student.RollNumber,
		Name:              student.Name,
		Email:             student.Email,
		UserID:            student.UserID,
		Program:           student.Program,
		Year:              student.Year,
		Status:            student.Status,
		EnrolledCourseIDs: courseIDs,
		CreatedAt:         student.CreatedAt.Format(time.RFC3339),
	}
}

func (s *Server) ListStudents(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	clauses := []string{}
	args := []interface{}{}
	next := func(value interface{}) string {
		args = append(args, value)
		return fmt.Sprintf("$%d", len(args))
	}
	if search := strings.TrimSpace(q.Get("search")); search != "" {
		p := next("%" + strings.ToLower(search) + "%")
		clauses = append(clauses, `(lower(name) LIKE `+p+` OR lower(email) LIKE `+p+` OR lower(roll_number) LIKE `+p+`)`)
	}
	if course := strings.TrimSpace(q.Get("course")); course != "" {
		p := next(course)
		clauses = append(clauses, `id IN (SELECT student_id FROM student_courses WHERE course_id = `+p+`)`)
	}
	if year := strings.TrimSpace(q.Get("year")); year != "" {
		if n, err := strconv.Atoi(year); err == nil {
			clauses = append(clauses, `year = `+next(n))
		}
	}
	if status := strings.TrimSpace(q.Get("status")); status != "" {
		clauses = append(clauses, `status = `+next(strings.ToUpper(status)))
	}
	query := `SELECT * FROM students`
	if len(clauses) > 0 {
		query += ` WHERE ` + strings.Join(clauses, " AND ")
	}
	query += ` ORDER BY roll_number ASC`
	students := []models.Student{}
	if err := s.DB.Select(&students, query, args...); err != nil {
		WriteError(w, http.StatusInternalServerError, "Internal server error")
		return
	}
	items := make([]StudentDTO, 0, len(students))
	for _, student := range students {
		items = append(items, buildStudentDTO(s, student))
	}
	WriteJSON(w, http.StatusOK, map[string][]StudentDTO{"items": items})
}

func (s *Server) GetStudent(w http.ResponseWriter, r *http.Request) {
	studentID := chi.URLParam(r, "studentId")
	var student models.Student
	if err := s.DB.Get(&student, `SELECT * FROM students WHERE id = $1`, studentID); err != nil {
		WriteError(w, http.StatusNotFound, "Student not found")
		return
	}
	WriteJSON(w, http.StatusOK, buildStudentDTO(s, student))
}

func (s *Server) CreateStudent(w http.ResponseWriter, r *http.Request) {
	var req StudentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		WriteError(w, http.StatusBadRequest, "Invalid payload")
		return
	}
	req.RollNumber = strings.TrimSpace(req.RollNumber)
	req.Name = strings.TrimSpace(req.Name)
	req.Email = strings.ToLower(strings.TrimSpace(req.Email))
	if err := s.validate.Struct(req); err != nil {
		WriteError(w, http.StatusBadRequest, "Roll number, name and email are required")
		return
	}
	year := req.Year
	if year < 1 || year > 4 {
		year = 1
	}
	studentID := uuid.NewString()
	now := time.Now().UTC()
	// Link to an existing account when one shares the student's email.
	var userID *string
	var accountID string
	if err := s.DB.Get(&accountID, `SELECT id FROM users WHERE lower(email) = $1`, req.Email); err == nil {
		userID = &accountID
	}
	_, err := s.DB.Exec(`
INSERT INTO students (id, roll_number, name, email, user_id, program, year, status, created_at, updated_at)
VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$9)
`, studentID, req.RollNumber, req.Name, req.Email, userID,
		strings.TrimSpace(req.Program), year, normalizeStudentStatus(req.Status), now)
	if err != nil {
		if services.IsUniqueViolation(err) {
			WriteError(w, http.StatusBadRequest, "Roll number or email already exists")
			return
		}
		WriteError(w, http.StatusInternalServerError, "Internal server error")
		return
	}
	var student models.Student
	if err := s.DB.Get(&student, `SELECT * FROM students WHERE id = $1`, studentID); err != nil {
		WriteError(w, http.StatusInternalServerError, "Internal server error")
		return
	}
	WriteJSON(w, http.StatusCreated, buildStudentDTO(s, student))
}

func (s *Server) UpdateStudent(w http.ResponseWriter, r *http.Request) {
	studentID := chi.URLParam(r, "studentId")
	var req StudentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		WriteError(w, http.StatusBadRequest, "Invalid payload")
		return
	}
	req.RollNumber = strings.TrimSpace(req.RollNumber)
	req.Name = strings.TrimSpace(req.Name)
	req.Email = strings.ToLower(strings.TrimSpace(req.Email))
	if err := s.validate.Struct(req); err != nil {
		WriteError(w, http.StatusBadRequest, "Roll number, name and email are required")
		return
	}
	year := req.Year
	if year < 1 || year > 4 {
		year = 1
	}
	res, err := s.DB.Exec(`
UPDATE students SET roll_number = $1, name = $2, email = $3, program = $4, year = $5, status = $6, updated_at = $7
WHERE id = $8
`, req.RollNumber, req.Name, req.Email, strings.TrimSpace(req.Program), year,
		normalizeStudentStatus(req.Status), time.Now().UTC(), studentID)
	if err != nil {
		if services.IsUniqueViolation(err) {
			WriteError(w, http.StatusBadRequest, "Roll number or email already exists")
			return
		}
		WriteError(w, http.StatusInternalServerError, "Internal server error")
		return
	}
	if affected, _ := res.RowsAffected(); affected == 0 {
		WriteError(w, http.StatusNotFound, "Student not found")
		return
	}
	var student models.Student
	if err := s.DB.Get(&student, `SELECT * FROM students WHERE id = $1`, studentID); err != nil {
		WriteError(w, http.StatusInternalServerError, "Internal server error")
		return
	}
	WriteJSON(w, http.StatusOK, buildStudentDTO(s, student))
}

// DeleteStudent hard-deletes the roster row. Attendance history and course
// membership rows created through the student's account survive.
func (s *Server) DeleteStudent(w http.ResponseWriter, r *http.Request) {
	studentID := chi.URLParam(r, "studentId")
	res, err := s.DB.Exec(`DELETE FROM students WHERE id = $1`, studentID)
	if err != nil {
		WriteError(w, http.StatusInternalServerError, "Internal server error")
		return
	}
	if affected, _ := res.RowsAffected(); affected == 0 {
		WriteError(w, http.StatusNotFound, "Student not found")
		return
	}
	WriteJSON(w, http.StatusOK, map[string]string{"deleted": studentID})
}

type EnrollmentsRequest struct {
	CourseIDs []string `json:"courseIds"`
}

func (s *Server) SetStudentEnrollments(w http.ResponseWriter, r *http.Request) {
	studentID := chi.URLParam(r, "studentId")
	var req EnrollmentsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		WriteError(w, http.StatusBadRequest, "Invalid payload")
		return
	}
	var exists bool
	if err := s.DB.Get(&exists, `SELECT EXISTS(SELECT 1 FROM students WHERE id = $1)`, studentID); err != nil || !exists {
		WriteError(w, http.StatusNotFound, "Student not found")
		return
	}
	if err := services.SetStudentCourses(s.DB, studentID, services.Dedup(req.CourseIDs)); err != nil {
		WriteServiceError(w, err)
		return
	}
	courseIDs, err := services.StudentCourseIDs(s.DB, studentID)
	if err != nil {
		WriteError(w, http.StatusInternalServerError, "Internal server error")
		return
	}
	WriteJSON(w, http.StatusOK, map[string]interface{}{
		"studentId": studentID,
		"courseIds": courseIDs,
	})
}

func normalizeStudentStatus(status string) string {
	switch strings.ToUpper(strings.TrimSpace(status)) {
	case "GRADUATED":
		return "GRADUATED"
	case "DROPPED":
		return "DROPPED"
	case "SUSPENDED":
		return "SUSPENDED"
	default:
		return "ACTIVE"
	}
}
