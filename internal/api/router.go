package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/jwtauth/v5"

	"normal_oj/internal/api/handler"
	"normal_oj/internal/api/middleware"
	"normal_oj/internal/app/service"
	"normal_oj/internal/common/security"
	"normal_oj/internal/domain/model"
)

func NewRouter(
	authService *service.AuthService,
	userService *service.UserService,
	courseService *service.CourseService,
	problemService *service.ProblemService,
	submissionService *service.SubmissionService,
) http.Handler {
	r := chi.NewRouter()

	r.Use(chiMiddleware.RequestID)
	r.Use(chiMiddleware.RealIP)
	r.Use(chiMiddleware.Logger)
	r.Use(chiMiddleware.Recoverer)
	r.Use(chiMiddleware.Timeout(60 * time.Second))
	r.Use(jwtauth.Verifier(security.TokenAuth))

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("OK"))
	})

	authHandler := handler.NewAuthHandler(authService, userService)
	userHandler := handler.NewUserHandler(userService)
	courseHandler := handler.NewCourseHandler(courseService)
	problemHandler := handler.NewProblemHandler(problemService)
	submissionHandler := handler.NewSubmissionHandler(submissionService)

	authenticated := middleware.Authenticator(authService)
	optionalAuth := middleware.OptionalAuthenticator(authService)

	r.Route("/api", func(api chi.Router) {
		api.Route("/auth", func(auth chi.Router) {
			authHandler.RegisterPublicRoutes(auth)
			auth.Group(func(protected chi.Router) {
				protected.Use(authenticated)
				authHandler.RegisterProtectedRoutes(protected)
			})
		})

		api.Route("/user", func(user chi.Router) {
			user.Use(authenticated)
			userHandler.RegisterRoutes(user)
		})

		api.Route("/courses", func(courses chi.Router) {
			courses.Use(authenticated)
			courseHandler.RegisterRoutes(courses)
		})

		api.Route("/problems", func(problems chi.Router) {
			// the read side stays reachable without a session; hidden
			// problems are filtered inside the service
			problems.Group(func(public chi.Router) {
				public.Use(optionalAuth)
				problemHandler.RegisterPublicRoutes(public)
			})
			problems.Group(func(protected chi.Router) {
				protected.Use(authenticated)
				problemHandler.RegisterProtectedRoutes(protected)
			})
		})

		api.Route("/submissions", func(subs chi.Router) {
			subs.Group(func(user chi.Router) {
				user.Use(authenticated)
				submissionHandler.RegisterRoutes(user)
			})
			subs.Group(func(grader chi.Router) {
				grader.Use(authenticated)
				grader.Use(middleware.RequireRole(model.RoleAdmin))
				submissionHandler.RegisterResultRoutes(grader)
			})
		})
	})

	return r
}
