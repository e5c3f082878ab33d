package routes

import (
	"net/http"

	"sessionauth/internal/handlers"
	"sessionauth/internal/middleware"

	"github.com/gorilla/mux"
	httpSwagger "github.com/swaggo/http-swagger"
)

type Deps struct {
	BasePath      string
	Auth          *handlers.AuthHandler
	Health        *handlers.HealthHandler
	Authenticator middleware.Authenticator
	RateLimiter   *middleware.RateLimiter
	BodyLimit     int64
	Observer      middleware.HTTPObserver
	Metrics       http.Handler
}

func InitRoutes(router *mux.Router, d Deps) {
	router.Use(middleware.RequestID)
	router.Use(middleware.Recoverer)
	router.Use(middleware.Logging(d.Observer))
	router.Use(middleware.SecurityHeaders)

	router.HandleFunc("/healthz", d.Health.Health).Methods(http.MethodGet)
	if d.Metrics != nil {
		router.Handle("/metrics", d.Metrics).Methods(http.MethodGet)
	}
	router.PathPrefix("/swagger/").Handler(httpSwagger.WrapHandler)

	api := router.PathPrefix(d.BasePath).Subrouter()
	api.Use(middleware.BodyLimit(d.BodyLimit))
	if d.RateLimiter != nil {
		api.Use(d.RateLimiter.Middleware)
	}

	// --- Публичные маршруты ---
	api.HandleFunc("/signup", d.Auth.Signup).Methods(http.MethodPost)
	api.HandleFunc("/signin", d.Auth.Signin).Methods(http.MethodPost)
	api.HandleFunc("/forgotPassword", d.Auth.ForgotPassword).Methods(http.MethodPost)
	api.HandleFunc("/resetPassword/{resetToken}", d.Auth.ResetPassword).Methods(http.MethodPatch)

	// --- Защищённые сессией ---
	protected := api.PathPrefix("").Subrouter()
	protected.Use(middleware.Protect(d.Authenticator))

	protected.HandleFunc("/signout", d.Auth.Signout).Methods(http.MethodPatch)
	protected.HandleFunc("/updatePassword", d.Auth.UpdatePassword).Methods(http.MethodPatch)
	protected.HandleFunc("/me", d.Auth.Me).Methods(http.MethodGet)
}
