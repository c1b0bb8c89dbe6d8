package httpapi

import (
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"campusone-backend-go/internal/models"
	"campusone-backend-go/internal/services"

	"github.com/go-chi/chi/v5"
)

type AttendanceRequest struct {
	StudentID string `json:"studentId" validate:"required"`
	CourseID  string `json:"courseId" validate:"required"`
	Date      string `json:"date" validate:"required"`
	Status    string `json:"status" validate:"required"`
	Note      string `json:"note"`
}

type AttendanceDTO struct {
	ID         string  `json:"id"`
	StudentID  string  `json:"studentId"`
	CourseID   string  `json:"courseId"`
	Date       string  `json:"date"`
	Status     string  `json:"status"`
	Note       string  `json:"note"`
	RecordedBy *string `json:"recordedBy,omitempty"`
}

func attendanceDTO(record models.AttendanceRecord) AttendanceDTO {
	return AttendanceDTO{
		ID:         record.ID,
		StudentID:  record.StudentID,
		CourseID:   record.CourseID,
		Date:       record.Date.Format("2006-01-02"),
		Status:     record.Status,
		Note:       record.Note,
		RecordedBy: record.RecordedBy,
	}
}

func attendanceItems(records []models.AttendanceRecord) []AttendanceDTO {
	items := make([]AttendanceDTO, 0, len(records))
	for _, record := range records {
		items = append(items, attendanceDTO(record))
	}
	return items
}

func normalizeAttendanceStatus(status string) (string, bool) {
	switch strings.ToUpper(strings.TrimSpace(status)) {
	case services.AttendancePresent:
		return services.AttendancePresent, true
	case services.AttendanceAbsent:
		return services.AttendanceAbsent, true
	case services.AttendanceLate:
		return services.AttendanceLate, true
	case services.AttendanceExcused:
		return services.AttendanceExcused, true
	default:
		return "", false
	}
}

func (s *Server) ListAttendance(w http.ResponseWriter, r *http.Request) {
	date := strings.TrimSpace(r.URL.Query().Get("date"))
	records := []models.AttendanceRecord{}
	var err error
	if date != "" {
		parsed, parseErr := time.Parse("2006-01-02", date)
		if parseErr != nil {
			WriteError(w, http.StatusBadRequest, "Invalid date, expected YYYY-MM-DD")
			return
		}
		err = s.DB.Select(&records, `SELECT * FROM attendance WHERE date = $1::date ORDER BY created_at DESC`,
			parsed.Format("2006-01-02"))
	} else {
		err = s.DB.Select(&records, `SELECT * FROM attendance ORDER BY date DESC, created_at DESC LIMIT 200`)
	}
	if err != nil {
		WriteError(w, http.StatusInternalServerError, "Internal server error")
		return
	}
	WriteJSON(w, http.StatusOK, map[string][]AttendanceDTO{"items": attendanceItems(records)})
}

func (s *Server) CreateAttendance(w http.ResponseWriter, r *http.Request) {
	var req AttendanceRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		WriteError(w, http.StatusBadRequest, "Invalid payload")
		return
	}
	if err := s.validate.Struct(req); err != nil {
		WriteError(w, http.StatusBadRequest, "Student, course, date and status are required")
		return
	}
	status, ok := normalizeAttendanceStatus(req.Status)
	if !ok {
		WriteError(w, http.StatusBadRequest, "Status must be one of PRESENT, ABSENT, LATE, EXCUSED")
		return
	}
	date, err := time.Parse("2006-01-02", strings.TrimSpace(req.Date))
	if err != nil {
		WriteError(w, http.StatusBadRequest, "Invalid date, expected YYYY-MM-DD")
		return
	}
	recordedBy := CurrentUserID(r)
	recordID, err := services.RecordAttendance(s.DB, req.StudentID, req.CourseID, date, status, req.Note, &recordedBy)
	if err != nil {
		WriteServiceError(w, err)
		return
	}
	var record models.AttendanceRecord
	if err := s.DB.Get(&record, `SELECT * FROM attendance WHERE id = $1`, recordID); err != nil {
		WriteError(w, http.StatusInternalServerError, "Internal server error")
		return
	}
	WriteJSON(w, http.StatusCreated, attendanceDTO(record))
}

func (s *Server) AttendanceByStudent(w http.ResponseWriter, r *http.Request) {
	studentID := chi.URLParam(r, "studentId")
	records := []models.AttendanceRecord{}
	if err := s.DB.Select(&records, `
SELECT * FROM attendance WHERE student_id = $1 ORDER BY date DESC
`, studentID); err != nil {
		WriteError(w, http.StatusInternalServerError, "Internal server error")
		return
	}
	WriteJSON(w, http.StatusOK, map[string]interface{}{
		"items":          attendanceItems(records),
		"attendanceRate": services.StudentAttendanceRate(s.DB, studentID),
	})
}

func (s *Server) AttendanceByCourse(w http.ResponseWriter, r *http.Request) {
	courseID := chi.URLParam(r, "courseId")
	records := []models.AttendanceRecord{}
	if err := s.DB.Select(&records, `
SELECT * FROM attendance WHERE course_id = $1 ORDER BY date DESC
`, courseID); err != nil {
		WriteError(w, http.StatusInternalServerError, "Internal server error")
		return
	}
	summary, err := services.CourseAttendanceSummary(s.DB, courseID)
	if err != nil {
		WriteError(w, http.StatusInternalServerError, "Internal server error")
		return
	}
	WriteJSON(w, http.StatusOK, map[string]interface{}{
		"items":   attendanceItems(records),
		"summary": summary,
	})
}

type AttendanceUpdateRequest struct {
	Status string `json:"status" validate:"required"`
	Note   string `json:"note"`
}

// UpdateAttendance changes status and note only. The (student, course, date)
// key is immutable; correcting it means delete and re-create.
func (s *Server) UpdateAttendance(w http.ResponseWriter, r *http.Request) {
	attendanceID := chi.URLParam(r, "attendanceId")
	var req AttendanceUpdateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		WriteError(w, http.StatusBadRequest, "Invalid payload")
		return
	}
	status, ok := normalizeAttendanceStatus(req.Status)
	if !ok {
		WriteError(w, http.StatusBadRequest, "Status must be one of PRESENT, ABSENT, LATE, EXCUSED")
		return
	}
	res, err := s.DB.Exec(`
UPDATE attendance SET status = $1, note = $2, updated_at = $3 WHERE id = $4
`, status, req.Note, time.Now().UTC(), attendanceID)
	if err != nil {
		WriteError(w, http.StatusInternalServerError, "Internal server error")
		return
	}
	if affected, _ := res.RowsAffected(); affected == 0 {
		WriteError(w, http.StatusNotFound, "Attendance record not found")
		return
	}
	var record models.AttendanceRecord
	if err := s.DB.Get(&record, `SELECT * FROM attendance WHERE id = $1`, attendanceID); err != nil {
		WriteError(w, http.StatusInternalServerError, "Internal server error")
		return
	}
	WriteJSON(w, http.StatusOK, attendanceDTO(record))
}

func (s *Server) DeleteAttendance(w http.ResponseWriter, r *http.Request) {
	attendanceID := chi.URLParam(r, "attendanceId")
	res, err := s.DB.Exec(`DELETE FROM attendance WHERE id = $1`, attendanceID)
	if err != nil {
		WriteError(w, http.StatusInternalServerError, "Internal server error")
		return
	}
	if affected, _ := res.RowsAffected(); affected == 0 {
		WriteError(w, http.StatusNotFound, "Attendance record not found")
		return
	}
	WriteJSON(w, http.StatusOK, map[string]string{"deleted": attendanceID})
}
