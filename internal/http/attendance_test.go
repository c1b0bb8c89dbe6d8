package httpapi

import (
	"net/http"
	"net/http/httptest"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
)

func TestListAttendanceFiltersByCalendarDate(t *testing.T) {
	s, mock := mockServer(t)
	now := time.Now().UTC()
	day := time.Date(2024, time.January, 10, 0, 0, 0, 0, time.UTC)
	mock.ExpectQuery(regexp.QuoteMeta(`SELECT * FROM attendance WHERE date = $1::date ORDER BY created_at DESC`)).
		WithArgs("2024-01-10").
		WillReturnRows(sqlmock.NewRows([]string{
			"id", "student_id", "course_id", "date", "status", "note", "recorded_by", "created_at", "updated_at",
		}).AddRow("att-1", "stu-1", "crs-1", day, "PRESENT", "", nil, now, now))

	req := httptest.NewRequest(http.MethodGet, "/api/attendance?date=2024-01-10", nil)
	rec := httptest.NewRecorder()
	s.ListAttendance(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"date":"2024-01-10"`)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestListAttendanceRejectsMalformedDate(t *testing.T) {
	s, mock := mockServer(t)

	req := httptest.NewRequest(http.MethodGet, "/api/attendance?date=10/01/2024", nil)
	rec := httptest.NewRecorder()
	s.ListAttendance(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.NoError(t, mock.ExpectationsWereMet())
}
