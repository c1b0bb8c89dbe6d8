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

type CourseRequest struct {
	Code         string `json:"code" validate:"required"`
	Title        string `json:"title" validate:"required"`
	Description  string `json:"description"`
	Instructor   string `json:"instructor"`
	ScheduleDays string `json:"scheduleDays"`
	ScheduleTime string `json:"scheduleTime"`
	Capacity     int    `json:"capacity"`
	Status       string `json:"status"`
}

type CourseDTO struct {
	ID                 string   `json:"id"`
	Code               string   `json:"code"`
	Title              string   `json:"title"`
	Description        string   `json:"description"`
	Instructor         string   `json:"instructor"`
	ScheduleDays       string   `json:"scheduleDays"`
	ScheduleTime       string   `json:"scheduleTime"`
	Capacity           int      `json:"capacity"`
	Status             string   `json:"status"`
	EnrollmentCount    int      `json:"enrollmentCount"`
	EnrolledStudentIDs []string `json:"enrolledStudentIds"`
	CreatedAt          string   `json:"createdAt"`
}

func buildCourseDTO(s *Server, course models.Course) CourseDTO {
	members, err := services.CourseMemberIDs(s.DB, course.ID)
	if err != nil {
		members = []string{}
	}
	return CourseDTO{
		ID:                 course.ID,
		Code:               course.Code,
		Title:              course.Title,
		Description:        course.Description,
		Instructor:         course.InstructorName,
		ScheduleDays:       course.ScheduleDays,
		ScheduleTime:       course.ScheduleTime,
		Capacity:           course.Capacity,
		Status:             course.Status,
		EnrollmentCount:    course.EnrollmentCount,
		EnrolledStudentIDs: members,
		CreatedAt:          course.CreatedAt.Format(time.RFC3339),
	}
}

func (s *Server) ListCourses(w http.ResponseWriter, r *http.Request) {
	status := strings.TrimSpace(r.URL.Query().Get("status"))
	search := strings.TrimSpace(r.URL.Query().Get("search"))
	query := `SELECT * FROM courses`
	clauses := []string{}
	args := []interface{}{}
	if status != "" {
		args = append(args, strings.ToUpper(status))
		clauses = append(clauses, `status = $1`)
	}
	if search != "" {
		args = append(args, "%"+strings.ToLower(search)+"%")
		placeholder := "$1"
		if len(args) == 2 {
			placeholder = "$2"
		}
		clauses = append(clauses, `(lower(code) LIKE `+placeholder+` OR lower(title) LIKE `+placeholder+`)`)
	}
	if len(clauses) > 0 {
		query += ` WHERE ` + strings.Join(clauses, " AND ")
	}
	query += ` ORDER BY code ASC`
	courses := []models.Course{}
	if err := s.DB.Select(&courses, query, args...); err != nil {
		WriteError(w, http.StatusInternalServerError, "Internal server error")
		return
	}
	items := make([]CourseDTO, 0, len(courses))
	for _, course := range courses {
		items = append(items, buildCourseDTO(s, course))
	}
	WriteJSON(w, http.StatusOK, map[string][]CourseDTO{"items": items})
}

func (s *Server) GetCourse(w http.ResponseWriter, r *http.Request) {
	courseID := chi.URLParam(r, "courseId")
	var course models.Course
	if err := s.DB.Get(&course, `SELECT * FROM courses WHERE id = $1`, courseID); err != nil {
		WriteError(w, http.StatusNotFound, "Course not found")
		return
	}
	WriteJSON(w, http.StatusOK, buildCourseDTO(s, course))
}

func (s *Server) CreateCourse(w http.ResponseWriter, r *http.Request) {
	var req CourseRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		WriteError(w, http.StatusBadRequest, "Invalid payload")
		return
	}
	req.Code = strings.TrimSpace(req.Code)
	req.Title = strings.TrimSpace(req.Title)
	if err := s.validate.Struct(req); err != nil {
		WriteError(w, http.StatusBadRequest, "Code and title are required")
		return
	}
	status := normalizeCourseStatus(req.Status)
	if req.Capacity <= 0 {
		req.Capacity = 30
	}
	courseID := uuid.NewString()
	now := time.Now().UTC()
	_, err := s.DB.Exec(`
INSERT INTO courses (id, code, title, description, instructor_name, schedule_days, schedule_time,
                     capacity, status, enrollment_count, created_at, updated_at)
VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,0,$10,$10)
`, courseID, req.Code, req.Title, req.Description, strings.TrimSpace(req.Instructor),
		req.ScheduleDays, req.ScheduleTime, req.Capacity, status, now)
	if err != nil {
		if services.IsUniqueViolation(err) {
			WriteError(w, http.StatusBadRequest, "Course code already exists")
			return
		}
		WriteError(w, http.StatusInternalServerError, "Internal server error")
		return
	}
	var course models.Course
	if err := s.DB.Get(&course, `SELECT * FROM courses WHERE id = $1`, courseID); err != nil {
		WriteError(w, http.StatusInternalServerError, "Internal server error")
		return
	}
	WriteJSON(w, http.StatusCreated, buildCourseDTO(s, course))
}

func (s *Server) UpdateCourse(w http.ResponseWriter, r *http.Request) {
	courseID := chi.URLParam(r, "courseId")
	var req CourseRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		WriteError(w, http.StatusBadRequest, "Invalid payload")
		return
	}
	req.Code = strings.TrimSpace(req.Code)
	req.Title = strings.TrimSpace(req.Title)
	if err := s.validate.Struct(req); err != nil {
		WriteError(w, http.StatusBadRequest, "Code and title are required")
		return
	}
	res, err := s.DB.Exec(`
UPDATE courses SET code = $1, title = $2, description = $3, instructor_name = $4,
       schedule_days = $5, schedule_time = $6, capacity = $7, status = $8, updated_at = $9
WHERE id = $10
`, req.Code, req.Title, req.Description, strings.TrimSpace(req.Instructor),
		req.ScheduleDays, req.ScheduleTime, req.Capacity, normalizeCourseStatus(req.Status),
		time.Now().UTC(), courseID)
	if err != nil {
		WriteError(w, http.StatusInternalServerError, "Internal server error")
		return
	}
	if affected, _ := res.RowsAffected(); affected == 0 {
		WriteError(w, http.StatusNotFound, "Course not found")
		return
	}
	// The instructor may have changed; rebuild the discussion group roster.
	if _, err := services.SyncCourseGroup(s.DB, courseID); err != nil {
		services.LogSideEffectFailure("group_sync", err)
	}
	var course models.Course
	if err := s.DB.Get(&course, `SELECT * FROM courses WHERE id = $1`, courseID); err != nil {
		WriteError(w, http.StatusInternalServerError, "Internal server error")
		return
	}
	WriteJSON(w, http.StatusOK, buildCourseDTO(s, course))
}

// DeleteCourse removes the course row only. Attendance records, timetable
// entries and the discussion group are left behind on purpose.
func (s *Server) DeleteCourse(w http.ResponseWriter, r *http.Request) {
	courseID := chi.URLParam(r, "courseId")
	res, err := s.DB.Exec(`DELETE FROM courses WHERE id = $1`, courseID)
	if err != nil {
		WriteError(w, http.StatusInternalServerError, "Internal server error")
		return
	}
	if affected, _ := res.RowsAffected(); affected == 0 {
		WriteError(w, http.StatusNotFound, "Course not found")
		return
	}
	WriteJSON(w, http.StatusOK, map[string]string{"deleted": courseID})
}

func (s *Server) EnrollCourse(w http.ResponseWriter, r *http.Request) {
	courseID := chi.URLParam(r, "courseId")
	accountID := s.enrollmentTarget(r)
	if err := services.Enroll(s.DB, accountID, courseID); err != nil {
		WriteServiceError(w, err)
		return
	}
	count, err := services.RecountEnrollment(s.DB, courseID)
	if err != nil {
		WriteError(w, http.StatusInternalServerError, "Internal server error")
		return
	}
	WriteJSON(w, http.StatusOK, map[string]interface{}{
		"courseId":        courseID,
		"userId":          accountID,
		"enrollmentCount": count,
	})
}

func (s *Server) UnenrollCourse(w http.ResponseWriter, r *http.Request) {
	courseID := chi.URLParam(r, "courseId")
	accountID := s.enrollmentTarget(r)
	if err := services.Unenroll(s.DB, accountID, courseID); err != nil {
		WriteServiceError(w, err)
		return
	}
	count, err := services.RecountEnrollment(s.DB, courseID)
	if err != nil {
		WriteError(w, http.StatusInternalServerError, "Internal server error")
		return
	}
	WriteJSON(w, http.StatusOK, map[string]interface{}{
		"courseId":        courseID,
		"userId":          accountID,
		"enrollmentCount": count,
	})
}

// enrollmentTarget lets teachers and admins enroll on behalf of another
// account via an optional body field. Students always act on themselves.
func (s *Server) enrollmentTarget(r *http.Request) string {
	accountID := CurrentUserID(r)
	role := CurrentRole(r)
	if role != "TEACHER" && role != "ADMIN" {
		return accountID
	}
	var body struct {
		UserID string `json:"userId"`
	}
	_ = json.NewDecoder(r.Body).Decode(&body)
	if strings.TrimSpace(body.UserID) != "" {
		return body.UserID
	}
	return accountID
}

func normalizeCourseStatus(status string) string {
	switch strings.ToUpper(strings.TrimSpace(status)) {
	case "INACTIVE":
		return "INACTIVE"
	case "COMPLETED":
		return "COMPLETED"
	default:
		return "ACTIVE"
	}
}
