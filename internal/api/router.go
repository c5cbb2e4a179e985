package api

import (
	"net/http"
	"time"

	"blog_api/internal/api/handler"
	"blog_api/internal/api/middleware"
	"blog_api/internal/app/service"
	"blog_api/internal/common/security"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/jwtauth/v5"
)

type Services struct {
	Auth     *service.AuthService
	Users    *service.UserService
	Posts    *service.PostService
	Comments *service.CommentService
}

func NewRouter(tokens *security.TokenIssuer, services Services, metrics *middleware.Metrics) http.Handler {
	r := chi.NewRouter()

	// Base Middlewares
	r.Use(chiMiddleware.RequestID)
	r.Use(chiMiddleware.RealIP)
	r.Use(chiMiddleware.Logger)
	r.Use(chiMiddleware.Recoverer)
	r.Use(chiMiddleware.Timeout(60 * time.Second))
	r.Use(metrics.Middleware)

	// Finds "Authorization: Bearer T" and leaves the verified token (or the
	// verification error) in the context for Authenticator.
	r.Use(jwtauth.Verifier(tokens.Auth()))

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("OK"))
	})
	r.Method(http.MethodGet, "/metrics", metrics.Handler())

	r.Route("/auth", handler.NewAuthHandler(services.Auth).RegisterRoutes)
	r.Route("/users", handler.NewUserHandler(services.Users).RegisterRoutes)
	r.Route("/posts", handler.NewPostHandler(services.Posts).RegisterRoutes)
	r.Route("/comments", handler.NewCommentHandler(services.Comments).RegisterRoutes)

	return r
}
