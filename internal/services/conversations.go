package services

import (
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
)

// GroupName builds the display name of a course discussion group from the
// course code, falling back to the title.
func GroupName(code, title string) string {
	base := strings.TrimSpace(code)
	if base == "" {
		base = strings.TrimSpace(title)
	}
	return base + " - Class Group"
}

// MemberLabel renders the human-readable member-count string stored on a group.
func MemberLabel(count int) string {
	if count == 1 {
		return "1 member"
	}
	return strconv.Itoa(count) + " members"
}

// MergeParticipants unions the optional instructor with the member list,
// deduplicated, instructor first.
func MergeParticipants(instructorID *string, members []string) []string {
	combined := make([]string, 0, len(members)+1)
	if instructorID != nil && *instructorID != "" {
		combined = append(combined, *instructorID)
	}
	combined = append(combined, members...)
	return Dedup(combined)
}

// ResolveInstructor matches a course's free-text instructor field against
// account names and emails. First match wins; no match yields nil.
func ResolveInstructor(db *sqlx.DB, instructorName string) *string {
	name := strings.ToLower(strings.TrimSpace(instructorName))
	if name == "" {
		return nil
	}
	var id string
	err := db.Get(&id, `
SELECT id FROM users
WHERE role IN ('TEACHER','ADMIN')
  AND (lower(name) = $1 OR lower(email) = $1 OR lower(name) LIKE $2 || ' %' OR lower(name) LIKE '% ' || $2)
ORDER BY created_at
LIMIT 1
`, name, escapeLike(name))
	if err != nil {
		return nil
	}
	return &id
}

// escapeLike neutralizes LIKE metacharacters so free-text instructor values
// match literally.
func escapeLike(value string) string {
	return strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(value)
}

func courseConversationID(db *sqlx.DB, courseID string) string {
	var id string
	if err := db.Get(&id, `SELECT id FROM conversations WHERE course_id = $1 AND type = 'COURSE'`, courseID); err != nil {
		return ""
	}
	return id
}

// SyncCourseGroup recomputes the course's discussion group so its participant
// set equals {resolved instructor} ∪ {enrolled account identifiers}. A missing
// group is created; an existing one has its participants fully replaced, not
// merged. An empty computed set creates or updates nothing and returns "".
func SyncCourseGroup(db *sqlx.DB, courseID string) (string, error) {
	course := struct {
		Code           string `db:"code"`
		Title          string `db:"title"`
		InstructorName string `db:"instructor_name"`
	}{}
	if err := db.Get(&course, `SELECT code, title, instructor_name FROM courses WHERE id = $1`, courseID); err != nil {
		return "", ErrNotFound("Course not found")
	}
	members, err := CourseMemberIDs(db, courseID)
	if err != nil {
		return "", WrapError(err, "sync course group")
	}
	participants := MergeParticipants(ResolveInstructor(db, course.InstructorName), members)
	if len(participants) == 0 {
		return "", nil
	}
	now := time.Now().UTC()
	convID := courseConversationID(db, courseID)
	if convID == "" {
		convID = uuid.NewString()
		if _, err := db.Exec(`
INSERT INTO conversations (id, type, course_id, name, member_label, last_activity_at, created_at, updated_at)
VALUES ($1,'COURSE',$2,$3,$4,$5,$5,$5)
`, convID, courseID, GroupName(course.Code, course.Title), MemberLabel(len(participants)), now); err != nil {
			return "", WrapError(err, "sync course group")
		}
	} else {
		if _, err := db.Exec(`
UPDATE conversations SET name = $2, member_label = $3, updated_at = $4 WHERE id = $1
`, convID, GroupName(course.Code, course.Title), MemberLabel(len(participants)), now); err != nil {
			return "", WrapError(err, "sync course group")
		}
		if _, err := db.Exec(`DELETE FROM conversation_participants WHERE conversation_id = $1`, convID); err != nil {
			return "", WrapError(err, "sync course group")
		}
	}
	for _, userID := range participants {
		if _, err := db.Exec(`
INSERT INTO conversation_participants (id, conversation_id, user_id, created_at)
VALUES ($1,$2,$3,$4)
ON CONFLICT (conversation_id, user_id) DO NOTHING
`, uuid.NewString(), convID, userID, now); err != nil {
			return "", WrapError(err, "sync course group")
		}
	}
	return convID, nil
}

// AddGroupParticipant is the cheap single-member path: it does not re-resolve
// the instructor or re-fetch the course. The group is created through a full
// sync when it does not exist yet.
func AddGroupParticipant(db *sqlx.DB, courseID, userID string) error {
	convID := courseConversationID(db, courseID)
	if convID == "" {
		_, err := SyncCourseGroup(db, courseID)
		return err
	}
	var present bool
	if err := db.Get(&present, `
SELECT EXISTS(SELECT 1 FROM conversation_participants WHERE conversation_id = $1 AND user_id = $2)
`, convID, userID); err != nil {
		return err
	}
	if !present {
		if _, err := db.Exec(`
INSERT INTO conversation_participants (id, conversation_id, user_id, created_at)
VALUES ($1,$2,$3,$4)
`, uuid.NewString(), convID, userID, time.Now().UTC()); err != nil {
			return err
		}
	}
	return refreshMemberLabel(db, convID)
}

// RemoveGroupParticipant filters the account out of the participant set;
// removing an absent participant is not an error.
func RemoveGroupParticipant(db *sqlx.DB, courseID, userID string) error {
	convID := courseConversationID(db, courseID)
	if convID == "" {
		return nil
	}
	if _, err := db.Exec(`DELETE FROM conversation_participants WHERE conversation_id = $1 AND user_id = $2`, convID, userID); err != nil {
		return err
	}
	return refreshMemberLabel(db, convID)
}

func refreshMemberLabel(db *sqlx.DB, conversationID string) error {
	var count int
	if err := db.Get(&count, `SELECT count(*) FROM conversation_participants WHERE conversation_id = $1`, conversationID); err != nil {
		return err
	}
	_, err := db.Exec(`UPDATE conversations SET member_label = $2, updated_at = $3 WHERE id = $1`,
		conversationID, MemberLabel(count), time.Now().UTC())
	return err
}

// TouchConversation bumps last_activity_at after a message is persisted.
func TouchConversation(db *sqlx.DB, conversationID string) {
	_, _ = db.Exec(`UPDATE conversations SET last_activity_at = $2, updated_at = $2 WHERE id = $1`,
		conversationID, time.Now().UTC())
}

// IsParticipant reports conversation membership for the account.
func IsParticipant(db *sqlx.DB, conversationID, userID string) bool {
	var exists bool
	_ = db.Get(&exists, `SELECT EXISTS(SELECT 1 FROM conversation_participants WHERE conversation_id = $1 AND user_id = $2)`,
		conversationID, userID)
	return exists
}

// SyncAllCourseGroups re-derives every course's discussion group; used by the
// repair utility.
func SyncAllCourseGroups(db *sqlx.DB) (synced int, err error) {
	ids := []string{}
	if err := db.Select(&ids, `SELECT id FROM courses ORDER BY created_at`); err != nil {
		return 0, err
	}
	for _, id := range ids {
		if _, err := SyncCourseGroup(db, id); err != nil {
			return synced, err
		}
		synced++
	}
	return synced, nil
}
