package httpapi

import (
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"campusone-backend-go/internal/models"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
)

var weekDays = map[string]bool{
	"MONDAY": true, "TUESDAY": true, "WEDNESDAY": true, "THURSDAY": true,
	"FRIDAY": true, "SATURDAY": true, "SUNDAY": true,
}

type TimetableRequest struct {
	CourseID  string `json:"courseId" validate:"required"`
	DayOfWeek string `json:"dayOfWeek" validate:"required"`
	StartTime string `json:"startTime" validate:"required"`
	EndTime   string `json:"endTime" validate:"required"`
	Room      string `json:"room"`
	Semester  string `json:"semester"`
}

type TimetableDTO struct {
	ID            string  `json:"id"`
	CourseID      string  `json:"courseId"`
	InstructorID  *string `json:"instructorId,omitempty"`
	DayOfWeek     string  `json:"dayOfWeek"`
	StartTime     string  `json:"startTime"`
	EndTime       string  `json:"endTime"`
	Room          string  `json:"room"`
	Semester      string  `json:"semester"`
	EnrolledCount int     `json:"enrolledCount"`
	Conflict      bool    `json:"conflict"`
}

func timetableDTO(entry models.TimetableEntry) TimetableDTO {
	return TimetableDTO{
		ID:            entry.ID,
		CourseID:      entry.CourseID,
		InstructorID:  entry.InstructorID,
		DayOfWeek:     entry.DayOfWeek,
		StartTime:     entry.StartTime,
		EndTime:       entry.EndTime,
		Room:          entry.Room,
		Semester:      entry.Semester,
		EnrolledCount: entry.EnrolledCount,
		Conflict:      entry.Conflict,
	}
}

func timetableItems(entries []models.TimetableEntry) []TimetableDTO {
	items := make([]TimetableDTO, 0, len(entries))
	for _, entry := range entries {
		items = append(items, timetableDTO(entry))
	}
	return items
}

func (s *Server) ListTimetable(w http.ResponseWriter, r *http.Request) {
	semester := strings.TrimSpace(r.URL.Query().Get("semester"))
	entries := []models.TimetableEntry{}
	var err error
	if semester != "" {
		err = s.DB.Select(&entries, `
SELECT * FROM timetable_entries WHERE semester = $1 ORDER BY day_of_week, start_time
`, semester)
	} else {
		err = s.DB.Select(&entries, `SELECT * FROM timetable_entries ORDER BY day_of_week, start_time`)
	}
	if err != nil {
		WriteError(w, http.StatusInternalServerError, "Internal server error")
		return
	}
	WriteJSON(w, http.StatusOK, map[string][]TimetableDTO{"items": timetableItems(entries)})
}

func (s *Server) CreateTimetableEntry(w http.ResponseWriter, r *http.Request) {
	var req TimetableRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		WriteError(w, http.StatusBadRequest, "Invalid payload")
		return
	}
	if err := s.validate.Struct(req); err != nil {
		WriteError(w, http.StatusBadRequest, "Course, day, start time and end time are required")
		return
	}
	day := strings.ToUpper(strings.TrimSpace(req.DayOfWeek))
	if !weekDays[day] {
		WriteError(w, http.StatusBadRequest, "Invalid day of week")
		return
	}
	course := struct {
		InstructorName  string `db:"instructor_name"`
		EnrollmentCount int    `db:"enrollment_count"`
	}{}
	if err := s.DB.Get(&course, `
SELECT instructor_name, enrollment_count FROM courses WHERE id = $1
`, req.CourseID); err != nil {
		WriteError(w, http.StatusNotFound, "Course not found")
		return
	}
	var instructorID *string
	if err := s.DB.Get(&instructorID, `
SELECT id FROM users WHERE role IN ('TEACHER','ADMIN') AND lower(name) = $1 LIMIT 1
`, strings.ToLower(strings.TrimSpace(course.InstructorName))); err != nil {
		instructorID = nil
	}
	entryID := uuid.NewString()
	now := time.Now().UTC()
	// enrolled_count is a snapshot at creation time, not kept in sync.
	_, err := s.DB.Exec(`
INSERT INTO timetable_entries (id, course_id, instructor_id, day_of_week, start_time, end_time,
                               room, semester, enrolled_count, conflict, created_at, updated_at)
VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,FALSE,$10,$10)
`, entryID, req.CourseID, instructorID, day, strings.TrimSpace(req.StartTime), strings.TrimSpace(req.EndTime),
		strings.TrimSpace(req.Room), strings.TrimSpace(req.Semester), course.EnrollmentCount, now)
	if err != nil {
		WriteError(w, http.StatusInternalServerError, "Internal server error")
		return
	}
	var entry models.TimetableEntry
	if err := s.DB.Get(&entry, `SELECT * FROM timetable_entries WHERE id = $1`, entryID); err != nil {
		WriteError(w, http.StatusInternalServerError, "Internal server error")
		return
	}
	WriteJSON(w, http.StatusCreated, timetableDTO(entry))
}

func (s *Server) TimetableByCourse(w http.ResponseWriter, r *http.Request) {
	courseID := chi.URLParam(r, "courseId")
	entries := []models.TimetableEntry{}
	if err := s.DB.Select(&entries, `
SELECT * FROM timetable_entries WHERE course_id = $1 ORDER BY day_of_week, start_time
`, courseID); err != nil {
		WriteError(w, http.StatusInternalServerError, "Internal server error")
		return
	}
	WriteJSON(w, http.StatusOK, map[string][]TimetableDTO{"items": timetableItems(entries)})
}

func (s *Server) TimetableByDay(w http.ResponseWriter, r *http.Request) {
	day := strings.ToUpper(strings.TrimSpace(chi.URLParam(r, "day")))
	if !weekDays[day] {
		WriteError(w, http.StatusBadRequest, "Invalid day of week")
		return
	}
	entries := []models.TimetableEntry{}
	if err := s.DB.Select(&entries, `
SELECT * FROM timetable_entries WHERE day_of_week = $1 ORDER BY start_time
`, day); err != nil {
		WriteError(w, http.StatusInternalServerError, "Internal server error")
		return
	}
	WriteJSON(w, http.StatusOK, map[string][]TimetableDTO{"items": timetableItems(entries)})
}

func (s *Server) UpdateTimetableEntry(w http.ResponseWriter, r *http.Request) {
	entryID := chi.URLParam(r, "entryId")
	var req TimetableRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		WriteError(w, http.StatusBadRequest, "Invalid payload")
		return
	}
	if err := s.validate.Struct(req); err != nil {
		WriteError(w, http.StatusBadRequest, "Course, day, start time and end time are required")
		return
	}
	day := strings.ToUpper(strings.TrimSpace(req.DayOfWeek))
	if !weekDays[day] {
		WriteError(w, http.StatusBadRequest, "Invalid day of week")
		return
	}
	res, err := s.DB.Exec(`
UPDATE timetable_entries SET course_id = $1, day_of_week = $2, start_time = $3, end_time = $4,
       room = $5, semester = $6, updated_at = $7
WHERE id = $8
`, req.CourseID, day, strings.TrimSpace(req.StartTime), strings.TrimSpace(req.EndTime),
		strings.TrimSpace(req.Room), strings.TrimSpace(req.Semester), time.Now().UTC(), entryID)
	if err != nil {
		WriteError(w, http.StatusInternalServerError, "Internal server error")
		return
	}
	if affected, _ := res.RowsAffected(); affected == 0 {
		WriteError(w, http.StatusNotFound, "Timetable entry not found")
		return
	}
	var entry models.TimetableEntry
	if err := s.DB.Get(&entry, `SELECT * FROM timetable_entries WHERE id = $1`, entryID); err != nil {
		WriteError(w, http.StatusInternalServerError, "Internal server error")
		return
	}
	WriteJSON(w, http.StatusOK, timetableDTO(entry))
}

func (s *Server) DeleteTimetableEntry(w http.ResponseWriter, r *http.Request) {
	entryID := chi.URLParam(r, "entryId")
	res, err := s.DB.Exec(`DELETE FROM timetable_entries WHERE id = $1`, entryID)
	if err != nil {
		WriteError(w, http.StatusInternalServerError, "Internal server error")
		return
	}
	if affected, _ := res.RowsAffected(); affected == 0 {
		WriteError(w, http.StatusNotFound, "Timetable entry not found")
		return
	}
	WriteJSON(w, http.StatusOK, map[string]string{"deleted": entryID})
}
