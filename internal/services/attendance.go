package services

import (
	"math/rand"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
)

const (
	AttendancePresent = "PRESENT"
	AttendanceAbsent  = "ABSENT"
	AttendanceLate    = "LATE"
	AttendanceExcused = "EXCUSED"
)

// BackfillStatusPool weights Present four to one against each other status.
var BackfillStatusPool = []string{
	AttendancePresent, AttendancePresent, AttendancePresent, AttendancePresent,
	AttendanceAbsent, AttendanceLate, AttendanceExcused,
}

// BackfillOffsets are the nine day offsets, inside a trailing 30-day window,
// on which demo records are generated.
var BackfillOffsets = []int{2, 4, 7, 9, 12, 16, 20, 24, 28}

// BackfillNote returns the fixed note attached to generated Late/Excused records.
func BackfillNote(status string) string {
	switch status {
	case AttendanceLate:
		return "Arrived 10 minutes late"
	case AttendanceExcused:
		return "Absence excused by parent note"
	default:
		return ""
	}
}

// PickBackfillStatus draws from the weighted pool.
func PickBackfillStatus(rng *rand.Rand) string {
	return BackfillStatusPool[rng.Intn(len(BackfillStatusPool))]
}

// RecordAttendance inserts one record; the unique (student, course, date) key
// rejects a second record for the same triple, leaving the first unmodified.
func RecordAttendance(db *sqlx.DB, studentID, courseID string, date time.Time, status, note string, recordedBy *string) (string, error) {
	now := time.Now().UTC()
	id := uuid.NewString()
	_, err := db.Exec(`
INSERT INTO attendance (id, student_id, course_id, date, status, note, recorded_by, created_at, updated_at)
VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$8)
`, id, studentID, courseID, date, status, note, recordedBy, now)
	if err != nil {
		if IsUniqueViolation(err) {
			return "", ErrConflict("Attendance already recorded for this student, course and date")
		}
		return "", WrapError(err, "record attendance")
	}
	return id, nil
}

// BackfillAttendance generates demo history for every (student, course) pair
// in student_courses. Duplicate-key failures are counted, not retried.
func BackfillAttendance(db *sqlx.DB, rng *rand.Rand) (created, duplicates int, err error) {
	pairs := []struct {
		StudentID string `db:"student_id"`
		CourseID  string `db:"course_id"`
	}{}
	if err := db.Select(&pairs, `SELECT student_id, course_id FROM student_courses`); err != nil {
		return 0, 0, err
	}
	today := time.Now().UTC().Truncate(24 * time.Hour)
	for _, pair := range pairs {
		for _, offset := range BackfillOffsets {
			status := PickBackfillStatus(rng)
			date := today.AddDate(0, 0, -offset)
			_, err := RecordAttendance(db, pair.StudentID, pair.CourseID, date, status, BackfillNote(status), nil)
			if err != nil {
				if serr, ok := err.(ServiceError); ok && serr.Status == 409 {
					duplicates++
					continue
				}
				return created, duplicates, err
			}
			created++
		}
	}
	return created, duplicates, nil
}

// CourseAttendanceSummary aggregates per-status counts for a course; used by
// the AI assistant context builder.
func CourseAttendanceSummary(db *sqlx.DB, courseID string) (map[string]int, error) {
	rows := []struct {
		Status string `db:"status"`
		Total  int    `db:"total"`
	}{}
	if err := db.Select(&rows, `
SELECT status, count(*) AS total FROM attendance WHERE course_id = $1 GROUP BY status
`, courseID); err != nil {
		return nil, err
	}
	summary := map[string]int{}
	for _, row := range rows {
		summary[row.Status] = row.Total
	}
	return summary, nil
}

// StudentAttendanceRate returns the Present percentage over all of a student's
// records, or -1 when there are none.
func StudentAttendanceRate(db *sqlx.DB, studentID string) float64 {
	row := struct {
		Total   int `db:"total"`
		Present int `db:"present"`
	}{}
	if err := db.Get(&row, `
SELECT count(*) AS total, count(*) FILTER (WHERE status = 'PRESENT') AS present
FROM attendance WHERE student_id = $1
`, studentID); err != nil || row.Total == 0 {
		return -1
	}
	return float64(row.Present) * 100 / float64(row.Total)
}
