package main

import (
	"flag"
	"fmt"
	"log"
	"math/rand"
	"os"
	"strings"
	"time"

	"campusone-backend-go/internal/config"
	"campusone-backend-go/internal/db"
	"campusone-backend-go/internal/migrations"
	"campusone-backend-go/internal/services"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/joho/godotenv"
)

func main() {
	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "usage: seed <demo|attendance|sync-conversations>\n")
		flag.PrintDefaults()
	}
	flag.Parse()
	command := flag.Arg(0)
	if command == "" {
		flag.Usage()
		os.Exit(2)
	}

	_ = godotenv.Load()
	cfg := config.Load()
	database, err := db.Open(cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("db: %v", err)
	}
	if err := migrations.Apply(database, "migrations"); err != nil {
		log.Fatalf("migrations: %v", err)
	}

	switch command {
	case "demo":
		if err := seedDemo(database, cfg); err != nil {
			log.Fatalf("demo seed: %v", err)
		}
	case "attendance":
		rng := rand.New(rand.NewSource(time.Now().UnixNano()))
		created, duplicates, err := services.BackfillAttendance(database, rng)
		if err != nil {
			log.Fatalf("attendance backfill: %v", err)
		}
		log.Printf("attendance backfill: %d created, %d duplicates skipped", created, duplicates)
	case "sync-conversations":
		synced, err := services.SyncAllCourseGroups(database)
		if err != nil {
			log.Fatalf("conversation sync: %v (after %d courses)", err, synced)
		}
		log.Printf("conversation sync: %d courses", synced)
	default:
		flag.Usage()
		os.Exit(2)
	}
}

type demoUser struct {
	email string
	name  string
	role  string
}

type demoCourse struct {
	code         string
	title        string
	description  string
	instructor   string
	scheduleDays string
	scheduleTime string
	capacity     int
}

var demoUsers = []demoUser{
	{"amira.hassan@campusone.test", "Amira Hassan", "TEACHER"},
	{"david.okafor@campusone.test", "David Okafor", "TEACHER"},
	{"lena.fischer@campusone.test", "Lena Fischer", "STUDENT"},
	{"marco.silva@campusone.test", "Marco Silva", "STUDENT"},
	{"priya.nair@campusone.test", "Priya Nair", "STUDENT"},
	{"tomas.novak@campusone.test", "Tomas Novak", "STUDENT"},
}

var demoCourses = []demoCourse{
	{"CS101", "Introduction to Programming", "Variables, control flow, functions.", "Amira Hassan", "Mon,Wed", "09:00-10:30", 40},
	{"CS205", "Data Structures", "Lists, trees, hash tables.", "Amira Hassan", "Tue,Thu", "11:00-12:30", 35},
	{"MA110", "Calculus I", "Limits, derivatives, integrals.", "David Okafor", "Mon,Fri", "14:00-15:30", 50},
	{"PH120", "Mechanics", "Kinematics and Newtonian dynamics.", "David Okafor", "Wed,Fri", "10:00-11:30", 30},
}

// seedDemo is idempotent: existing rows are matched by email or code and
// reused rather than duplicated.
func seedDemo(database *sqlx.DB, cfg config.Config) error {
	tokens := services.TokenService{Secret: []byte(cfg.JWTSecret), Issuer: cfg.JWTIssuer}
	now := time.Now().UTC()

	userIDs := map[string]string{}
	for _, user := range demoUsers {
		var id string
		if err := database.Get(&id, `SELECT id FROM users WHERE lower(email) = $1`, user.email); err == nil {
			userIDs[user.email] = id
			continue
		}
		hash, err := tokens.HashPassword("campusone-demo")
		if err != nil {
			return err
		}
		id = uuid.NewString()
		if _, err := database.Exec(`
INSERT INTO users (id, email, password_hash, name, role, status, created_at, updated_at)
VALUES ($1,$2,$3,$4,$5,'ACTIVE',$6,$6)
`, id, user.email, hash, user.name, user.role, now); err != nil {
			return err
		}
		userIDs[user.email] = id
		if user.role == "STUDENT" {
			roll := "R-" + strings.ToUpper(id[:8])
			if _, err := database.Exec(`
INSERT INTO students (id, roll_number, name, email, user_id, program, year, status, created_at, updated_at)
VALUES ($1,$2,$3,$4,$5,'Computer Science',1,'ACTIVE',$6,$6)
ON CONFLICT (email) DO UPDATE SET user_id = EXCLUDED.user_id
`, uuid.NewString(), roll, user.name, user.email, id, now); err != nil {
				return err
			}
		}
	}

	courseIDs := []string{}
	for _, course := range demoCourses {
		var id string
		if err := database.Get(&id, `SELECT id FROM courses WHERE code = $1`, course.code); err == nil {
			courseIDs = append(courseIDs, id)
			continue
		}
		id = uuid.NewString()
		if _, err := database.Exec(`
INSERT INTO courses (id, code, title, description, instructor_name, schedule_days, schedule_time,
                     capacity, status, enrollment_count, created_at, updated_at)
VALUES ($1,$2,$3,$4,$5,$6,$7,$8,'ACTIVE',0,$9,$9)
`, id, course.code, course.title, course.description, course.instructor,
			course.scheduleDays, course.scheduleTime, course.capacity, now); err != nil {
			return err
		}
		courseIDs = append(courseIDs, id)
	}

	// Every demo student joins the first two courses, alternating thirds.
	students := []string{}
	for _, user := range demoUsers {
		if user.role == "STUDENT" {
			students = append(students, userIDs[user.email])
		}
	}
	for i, accountID := range students {
		wanted := []string{courseIDs[0], courseIDs[1], courseIDs[2+(i%2)]}
		for _, courseID := range wanted {
			err := services.Enroll(database, accountID, courseID)
			if err != nil && !isConflict(err) {
				return err
			}
		}
	}

	for _, course := range demoCourses {
		entryDay := strings.ToUpper(strings.SplitN(course.scheduleDays, ",", 2)[0])
		entryDay = expandDay(entryDay)
		timeParts := strings.SplitN(course.scheduleTime, "-", 2)
		var courseID string
		if err := database.Get(&courseID, `SELECT id FROM courses WHERE code = $1`, course.code); err != nil {
			return err
		}
		var exists bool
		_ = database.Get(&exists, `SELECT EXISTS(SELECT 1 FROM timetable_entries WHERE course_id = $1)`, courseID)
		if exists {
			continue
		}
		instructorID := services.ResolveInstructor(database, course.instructor)
		var count int
		_ = database.Get(&count, `SELECT enrollment_count FROM courses WHERE id = $1`, courseID)
		if _, err := database.Exec(`
INSERT INTO timetable_entries (id, course_id, instructor_id, day_of_week, start_time, end_time,
                               room, semester, enrolled_count, conflict, created_at, updated_at)
VALUES ($1,$2,$3,$4,$5,$6,$7,'2026-FALL',$8,FALSE,$9,$9)
`, uuid.NewString(), courseID, instructorID, entryDay, timeParts[0], timeParts[len(timeParts)-1],
			"B-104", count, now); err != nil {
			return err
		}
	}

	log.Printf("demo seed: %d users, %d courses", len(demoUsers), len(demoCourses))
	return nil
}

func isConflict(err error) bool {
	serviceErr, ok := err.(services.ServiceError)
	return ok && serviceErr.Status == 409
}

func expandDay(short string) string {
	switch short {
	case "MON":
		return "MONDAY"
	case "TUE":
		return "TUESDAY"
	case "WED":
		return "WEDNESDAY"
	case "THU":
		return "THURSDAY"
	case "FRI":
		return "FRIDAY"
	case "SAT":
		return "SATURDAY"
	default:
		return "SUNDAY"
	}
}
