package services

import (
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mockDB(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock) {
	t.Helper()
	raw, mock, err := sqlmock.New()
	require.NoError(t, err)
	db := sqlx.NewDb(raw, "sqlmock")
	t.Cleanup(func() { _ = db.Close() })
	return db, mock
}

func TestRecordAttendanceDuplicateDateIsConflict(t *testing.T) {
	db, mock := mockDB(t)
	mock.ExpectExec(regexp.QuoteMeta(`INSERT INTO attendance`)).
		WillReturnError(&pgconn.PgError{Code: "23505", ConstraintName: "uq_attendance_student_course_date"})

	date := time.Date(2024, 1, 10, 0, 0, 0, 0, time.UTC)
	_, err := RecordAttendance(db, "student-1", "course-1", date, AttendanceAbsent, "", nil)

	serr, ok := err.(ServiceError)
	require.True(t, ok)
	assert.Equal(t, 409, serr.Status)
	assert.Equal(t, "Attendance already recorded for this student, course and date", serr.Message)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRecordAttendanceFirstWriteSucceeds(t *testing.T) {
	db, mock := mockDB(t)
	mock.ExpectExec(regexp.QuoteMeta(`INSERT INTO attendance`)).
		WillReturnResult(sqlmock.NewResult(0, 1))

	date := time.Date(2024, 1, 10, 0, 0, 0, 0, time.UTC)
	id, err := RecordAttendance(db, "student-1", "course-1", date, AttendancePresent, "", nil)

	require.NoError(t, err)
	assert.NotEmpty(t, id)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestEnrollTwiceIsConflict(t *testing.T) {
	db, mock := mockDB(t)
	mock.ExpectQuery(regexp.QuoteMeta(`SELECT EXISTS(SELECT 1 FROM courses WHERE id = $1)`)).
		WithArgs("course-1").
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(true))
	mock.ExpectQuery(regexp.QuoteMeta(`SELECT EXISTS(SELECT 1 FROM course_members WHERE course_id = $1 AND user_id = $2)`)).
		WithArgs("course-1", "user-1").
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(true))

	err := Enroll(db, "user-1", "course-1")

	serr, ok := err.(ServiceError)
	require.True(t, ok)
	assert.Equal(t, 409, serr.Status)
	assert.Equal(t, "Already enrolled", serr.Message)
	// The member list is never written on the second attempt.
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestEnrollMissingCourseIsNotFound(t *testing.T) {
	db, mock := mockDB(t)
	mock.ExpectQuery(regexp.QuoteMeta(`SELECT EXISTS(SELECT 1 FROM courses WHERE id = $1)`)).
		WithArgs("missing").
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(false))

	err := Enroll(db, "user-1", "missing")

	serr, ok := err.(ServiceError)
	require.True(t, ok)
	assert.Equal(t, 404, serr.Status)
	assert.NoError(t, mock.ExpectationsWereMet())
}
