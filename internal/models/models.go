package models

import "time"

type User struct {
	ID           string     `db:"id"`
	Email        string     `db:"email"`
	PasswordHash string     `db:"password_hash"`
	Name         string     `db:"name"`
	Role         string     `db:"role"`
	Status       string     `db:"status"`
	LastLoginAt  *time.Time `db:"last_login_at"`
	LastSeenAt   *time.Time `db:"last_seen_at"`
	CreatedAt    time.Time  `db:"created_at"`
	UpdatedAt    time.Time  `db:"updated_at"`
}

type Student struct {
	ID         string    `db:"id"`
	RollNumber string    `db:"roll_number"`
	Name       string    `db:"name"`
	Email      string    `db:"email"`
	UserID     *string   `db:"user_id"`
	Program    string    `db:"program"`
	Year       int       `db:"year"`
	Status     string    `db:"status"`
	CreatedAt  time.Time `db:"created_at"`
	UpdatedAt  time.Time `db:"updated_at"`
}

type Course struct {
	ID              string    `db:"id"`
	Code            string    `db:"code"`
	Title           string    `db:"title"`
	Description     string    `db:"description"`
	InstructorName  string    `db:"instructor_name"`
	ScheduleDays    string    `db:"schedule_days"`
	ScheduleTime    string    `db:"schedule_time"`
	Capacity        int       `db:"capacity"`
	Status          string    `db:"status"`
	EnrollmentCount int       `db:"enrollment_count"`
	CreatedAt       time.Time `db:"created_at"`
	UpdatedAt       time.Time `db:"updated_at"`
}

type CourseMember struct {
	ID        string    `db:"id"`
	CourseID  string    `db:"course_id"`
	UserID    string    `db:"user_id"`
	CreatedAt time.Time `db:"created_at"`
}

type AttendanceRecord struct {
	ID         string    `db:"id"`
	StudentID  string    `db:"student_id"`
	CourseID   string    `db:"course_id"`
	Date       time.Time `db:"date"`
	Status     string    `db:"status"`
	Note       string    `db:"note"`
	RecordedBy *string   `db:"recorded_by"`
	CreatedAt  time.Time `db:"created_at"`
	UpdatedAt  time.Time `db:"updated_at"`
}

type Conversation struct {
	ID             string     `db:"id"`
	Type           string     `db:"type"`
	CourseID       *string    `db:"course_id"`
	Name           string     `db:"name"`
	MemberLabel    string     `db:"member_label"`
	LastActivityAt *time.Time `db:"last_activity_at"`
	CreatedAt      time.Time  `db:"created_at"`
	UpdatedAt      time.Time  `db:"updated_at"`
}

type Message struct {
	ID             string    `db:"id"`
	ConversationID string    `db:"conversation_id"`
	SenderID       string    `db:"sender_id"`
	Content        string    `db:"content"`
	Type           string    `db:"type"`
	CreatedAt      time.Time `db:"created_at"`
}

type TimetableEntry struct {
	ID            string    `db:"id"`
	CourseID      string    `db:"course_id"`
	InstructorID  *string   `db:"instructor_id"`
	DayOfWeek     string    `db:"day_of_week"`
	StartTime     string    `db:"start_time"`
	EndTime       string    `db:"end_time"`
	Room          string    `db:"room"`
	Semester      string    `db:"semester"`
	EnrolledCount int       `db:"enrolled_count"`
	// Defined in the schema but never computed anywhere; stays false.
	Conflict  bool      `db:"conflict"`
	CreatedAt time.Time `db:"created_at"`
	UpdatedAt time.Time `db:"updated_at"`
}

type AIConversation struct {
	ID              string    `db:"id"`
	UserID          string    `db:"user_id"`
	Role            string    `db:"role"`
	Title           string    `db:"title"`
	ContextSnapshot string    `db:"context_snapshot"`
	CreatedAt       time.Time `db:"created_at"`
	UpdatedAt       time.Time `db:"updated_at"`
}

type AIMessage struct {
	ID             string    `db:"id"`
	ConversationID string    `db:"conversation_id"`
	Role           string    `db:"role"`
	Content        string    `db:"content"`
	CreatedAt      time.Time `db:"created_at"`
}

type ServerMetricSample struct {
	ID                string    `db:"id"`
	CapturedAt        time.Time `db:"captured_at"`
	HeapUsedBytes     int64     `db:"heap_used_bytes"`
	HeapMaxBytes      int64     `db:"heap_max_bytes"`
	SystemMemoryTotal int64     `db:"system_memory_total_bytes"`
	SystemMemoryUsed  int64     `db:"system_memory_used_bytes"`
	DiskTotalBytes    int64     `db:"disk_total_bytes"`
	DiskUsedBytes     int64     `db:"disk_used_bytes"`
	ProcessCpuLoad    float64   `db:"process_cpu_load"`
	SystemCpuLoad     float64   `db:"system_cpu_load"`
}
