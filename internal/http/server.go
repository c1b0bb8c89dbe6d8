package httpapi

import (
	"net/http"
	"time"

	"campusone-backend-go/internal/config"
	"campusone-backend-go/internal/services"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
	"github.com/go-playground/validator/v10"
	"github.com/jmoiron/sqlx"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type Server struct {
	DB       *sqlx.DB
	Config   config.Config
	Tokens   services.TokenService
	ChatHub  *ChatHub
	AI       *services.AIClient
	validate *validator.Validate
}

func NewServer(db *sqlx.DB, cfg config.Config, hub *ChatHub) *Server {
	tokens := services.TokenService{
		Secret:     []byte(cfg.JWTSecret),
		Issuer:     cfg.JWTIssuer,
		AccessTTL:  time.Duration(cfg.AccessTTLSeconds) * time.Second,
		RefreshTTL: time.Duration(cfg.RefreshTTLSeconds) * time.Second,
	}
	return &Server{
		DB:       db,
		Config:   cfg,
		Tokens:   tokens,
		ChatHub:  hub,
		AI:       services.NewAIClient(cfg.AIBaseURL, cfg.AIAPIKey, cfg.AIModel),
		validate: validator.New(),
	}
}

func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(RequestLogger)
	if len(s.Config.CorsOrigins) > 0 {
		r.Use(cors.Handler(cors.Options{
			AllowedOrigins:   s.Config.CorsOrigins,
			AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
			AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
			AllowCredentials: false,
			MaxAge:           300,
		}))
	}

	authLimiter := NewTokenBucket(20, 20)
	teacherOnly := RequireAnyRole("TEACHER", "ADMIN")

	r.Route("/api", func(api chi.Router) {
		api.Get("/health", s.Health)

		api.Group(func(auth chi.Router) {
			auth.Use(authLimiter.Middleware)
			auth.Post("/auth/register", s.Register)
			auth.Post("/auth/login", s.Login)
			auth.Post("/auth/refresh", s.Refresh)
		})

		api.Route("/courses", func(courses chi.Router) {
			courses.Use(WithAuth(s.Tokens))
			courses.Get("/", s.ListCourses)
			courses.With(teacherOnly).Post("/", s.CreateCourse)
			courses.Get("/{courseId}", s.GetCourse)
			courses.With(teacherOnly).Put("/{courseId}", s.UpdateCourse)
			courses.With(teacherOnly).Delete("/{courseId}", s.DeleteCourse)
			courses.Post("/{courseId}/enroll", s.EnrollCourse)
			courses.Post("/{courseId}/unenroll", s.UnenrollCourse)
		})

		api.Route("/students", func(students chi.Router) {
			students.Use(WithAuth(s.Tokens))
			students.Get("/", s.ListStudents)
			students.With(teacherOnly).Post("/", s.CreateStudent)
			students.Get("/{studentId}", s.GetStudent)
			students.With(teacherOnly).Put("/{studentId}", s.UpdateStudent)
			students.With(teacherOnly).Delete("/{studentId}", s.DeleteStudent)
			students.With(teacherOnly).Put("/{studentId}/enrollments", s.SetStudentEnrollments)
		})

		api.Route("/attendance", func(attendance chi.Router) {
			attendance.Use(WithAuth(s.Tokens))
			attendance.Get("/", s.ListAttendance)
			attendance.With(teacherOnly).Post("/", s.CreateAttendance)
			attendance.Get("/student/{studentId}", s.AttendanceByStudent)
			attendance.Get("/course/{courseId}", s.AttendanceByCourse)
			attendance.With(teacherOnly).Put("/{attendanceId}", s.UpdateAttendance)
			attendance.With(teacherOnly).Delete("/{attendanceId}", s.DeleteAttendance)
		})

		api.Route("/timetable", func(timetable chi.Router) {
			timetable.Use(WithAuth(s.Tokens))
			timetable.Get("/", s.ListTimetable)
			timetable.With(teacherOnly).Post("/", s.CreateTimetableEntry)
			timetable.Get("/course/{courseId}", s.TimetableByCourse)
			timetable.Get("/day/{day}", s.TimetableByDay)
			timetable.With(teacherOnly).Put("/{entryId}", s.UpdateTimetableEntry)
			timetable.With(teacherOnly).Delete("/{entryId}", s.DeleteTimetableEntry)
		})

		api.Route("/conversations", func(conversations chi.Router) {
			conversations.Use(WithAuth(s.Tokens))
			conversations.Get("/", s.ListConversations)
			conversations.Post("/", s.CreateConversation)
			conversations.Get("/{conversationId}/messages", s.ListMessages)
			conversations.Post("/{conversationId}/messages", s.PostMessage)
		})

		api.Route("/users", func(users chi.Router) {
			users.Use(WithAuth(s.Tokens))
			users.With(teacherOnly).Get("/", s.ListUsers)
			users.Get("/profile", s.GetProfile)
			users.Put("/profile", s.UpdateProfile)
			users.Post("/promote-admin", s.PromoteAdmin)
		})

		api.Route("/ai", func(ai chi.Router) {
			ai.Use(WithAuth(s.Tokens))
			ai.Get("/conversations", s.ListAIConversations)
			ai.Post("/conversations", s.CreateAIConversation)
			ai.Get("/conversations/{conversationId}", s.GetAIConversation)
			ai.Delete("/conversations/{conversationId}", s.DeleteAIConversation)
			ai.Post("/conversations/{conversationId}/messages", s.PostAIMessage)
		})

		api.With(WithAuth(s.Tokens), RequireRole("ADMIN")).Get("/admin/metrics/history", s.MetricsHistory)
	})

	r.Handle("/metrics", promhttp.Handler())
	r.Get("/ws/chat", s.ChatSocket)
	return r
}
