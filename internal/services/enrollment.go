package services

import (
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
)

// AddToSet returns the list with id appended, or the list unchanged and false
// when id is already present.
func AddToSet(list []string, id string) ([]string, bool) {
	for _, existing := range list {
		if existing == id {
			return list, false
		}
	}
	return append(list, id), true
}

// RemoveFromSet filters id out of the list; absent ids are not an error.
func RemoveFromSet(list []string, id string) ([]string, bool) {
	filtered := make([]string, 0, len(list))
	removed := false
	for _, existing := range list {
		if existing == id {
			removed = true
			continue
		}
		filtered = append(filtered, existing)
	}
	return filtered, removed
}

// Dedup keeps the first occurrence of each id, preserving order.
func Dedup(list []string) []string {
	seen := make(map[string]bool, len(list))
	out := make([]string, 0, len(list))
	for _, id := range list {
		if seen[id] {
			continue
		}
		seen[id] = true
		out = append(out, id)
	}
	return out
}

// CourseMemberIDs lists the account identifiers enrolled in a course.
func CourseMemberIDs(db *sqlx.DB, courseID string) ([]string, error) {
	ids := []string{}
	err := db.Select(&ids, `SELECT user_id FROM course_members WHERE course_id = $1 ORDER BY created_at`, courseID)
	return ids, err
}

// RecountEnrollment is the only place enrollment_count is written; it mirrors
// the current course_members row count.
func RecountEnrollment(db *sqlx.DB, courseID string) (int, error) {
	var count int
	if err := db.Get(&count, `SELECT count(*) FROM course_members WHERE course_id = $1`, courseID); err != nil {
		return 0, err
	}
	_, err := db.Exec(`UPDATE courses SET enrollment_count = $2, updated_at = $3 WHERE id = $1`,
		courseID, count, time.Now().UTC())
	return count, err
}

// Enroll adds the account to the course member list, recounts, mirrors the
// enrollment onto the student record and adds the account to the course
// discussion group. Course-side mutation happens first; the student-side
// update is skipped silently when no student record matches the account's
// email; the group update is best-effort and can never fail the request.
func Enroll(db *sqlx.DB, accountID, courseID string) error {
	var courseExists bool
	if err := db.Get(&courseExists, `SELECT EXISTS(SELECT 1 FROM courses WHERE id = $1)`, courseID); err != nil {
		return WrapError(err, "enroll")
	}
	if !courseExists {
		return ErrNotFound("Course not found")
	}
	var already bool
	if err := db.Get(&already, `SELECT EXISTS(SELECT 1 FROM course_members WHERE course_id = $1 AND user_id = $2)`,
		courseID, accountID); err != nil {
		return WrapError(err, "enroll")
	}
	if already {
		return ErrConflict("Already enrolled")
	}
	now := time.Now().UTC()
	if _, err := db.Exec(`INSERT INTO course_members (id, course_id, user_id, created_at) VALUES ($1,$2,$3,$4)`,
		uuid.NewString(), courseID, accountID, now); err != nil {
		if IsUniqueViolation(err) {
			return ErrConflict("Already enrolled")
		}
		return WrapError(err, "enroll")
	}
	if _, err := RecountEnrollment(db, courseID); err != nil {
		return WrapError(err, "enroll recount")
	}
	if studentID := studentIDForAccount(db, accountID); studentID != "" {
		_, _ = db.Exec(`
INSERT INTO student_courses (id, student_id, course_id, created_at)
VALUES ($1,$2,$3,$4)
ON CONFLICT (student_id, course_id) DO NOTHING
`, uuid.NewString(), studentID, courseID, now)
	}
	if err := AddGroupParticipant(db, courseID, accountID); err != nil {
		LogSideEffectFailure("group_sync", err)
	}
	return nil
}

// Unenroll removes the account from the member list and the student record;
// removing an absent member is not an error.
func Unenroll(db *sqlx.DB, accountID, courseID string) error {
	var courseExists bool
	if err := db.Get(&courseExists, `SELECT EXISTS(SELECT 1 FROM courses WHERE id = $1)`, courseID); err != nil {
		return WrapError(err, "unenroll")
	}
	if !courseExists {
		return ErrNotFound("Course not found")
	}
	if _, err := db.Exec(`DELETE FROM course_members WHERE course_id = $1 AND user_id = $2`, courseID, accountID); err != nil {
		return WrapError(err, "unenroll")
	}
	if _, err := RecountEnrollment(db, courseID); err != nil {
		return WrapError(err, "unenroll recount")
	}
	if studentID := studentIDForAccount(db, accountID); studentID != "" {
		_, _ = db.Exec(`DELETE FROM student_courses WHERE student_id = $1 AND course_id = $2`, studentID, courseID)
	}
	if err := RemoveGroupParticipant(db, courseID, accountID); err != nil {
		LogSideEffectFailure("group_sync", err)
	}
	return nil
}

// studentIDForAccount resolves the student record through the account's email,
// not the account identifier itself. A mismatch between the two means the
// student-side lists are silently left untouched.
func studentIDForAccount(db *sqlx.DB, accountID string) string {
	var email string
	if err := db.Get(&email, `SELECT email FROM users WHERE id = $1`, accountID); err != nil {
		return ""
	}
	var studentID string
	if err := db.Get(&studentID, `SELECT id FROM students WHERE lower(email) = lower($1)`, email); err != nil {
		return ""
	}
	return studentID
}

// StudentCourseIDs is the computed accessor behind both of the student DTO's
// course lists.
func StudentCourseIDs(db *sqlx.DB, studentID string) ([]string, error) {
	ids := []string{}
	err := db.Select(&ids, `SELECT course_id FROM student_courses WHERE student_id = $1 ORDER BY created_at`, studentID)
	return ids, err
}

// SetStudentCourses replaces a student's enrollment list wholesale, keeping the
// course-side member lists and counts in step for every added or removed course.
func SetStudentCourses(db *sqlx.DB, studentID string, courseIDs []string) error {
	student := struct {
		UserID *string `db:"user_id"`
	}{}
	if err := db.Get(&student, `SELECT user_id FROM students WHERE id = $1`, studentID); err != nil {
		return ErrNotFound("Student not found")
	}
	current, err := StudentCourseIDs(db, studentID)
	if err != nil {
		return WrapError(err, "set enrollments")
	}
	desired := Dedup(courseIDs)
	if student.UserID == nil {
		// No linked account: only the student-side list can be maintained.
		return replaceStudentCourses(db, studentID, desired)
	}
	currentSet := make(map[string]bool, len(current))
	for _, id := range current {
		currentSet[id] = true
	}
	desiredSet := make(map[string]bool, len(desired))
	for _, id := range desired {
		desiredSet[id] = true
	}
	for _, id := range desired {
		if !currentSet[id] {
			if err := Enroll(db, *student.UserID, id); err != nil {
				if serr, ok := err.(ServiceError); ok && serr.Status == 409 {
					continue
				}
				return err
			}
		}
	}
	for _, id := range current {
		if !desiredSet[id] {
			if err := Unenroll(db, *student.UserID, id); err != nil {
				return err
			}
		}
	}
	return nil
}

func replaceStudentCourses(db *sqlx.DB, studentID string, courseIDs []string) error {
	if _, err := db.Exec(`DELETE FROM student_courses WHERE student_id = $1`, studentID); err != nil {
		return WrapError(err, "set enrollments")
	}
	now := time.Now().UTC()
	for _, courseID := range courseIDs {
		if _, err := db.Exec(`INSERT INTO student_courses (id, student_id, course_id, created_at) VALUES ($1,$2,$3,$4)`,
			uuid.NewString(), studentID, courseID, now); err != nil {
			return WrapError(err, "set enrollments")
		}
	}
	return nil
}
