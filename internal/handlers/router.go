package handlers

import (
	"net/http"

	"github.com/compreg/compreg/internal/middleware"
	"github.com/compreg/compreg/internal/models"
	"github.com/gorilla/mux"
	"github.com/sirupsen/logrus"
)

type RouterConfig struct {
	AuthHandlers    *AuthHandlers
	CompanyHandlers *CompanyHandlers
	AuthMiddleware  *middleware.AuthMiddleware
	// RateLimiter guards the anonymous auth endpoints. Nil disables it.
	RateLimiter    *middleware.RateLimiter
	HTTPObserver   middleware.HTTPObserver
	MetricsHandler http.Handler
	Logger         *logrus.Logger
}

func NewRouter(cfg RouterConfig) *mux.Router {
	router := mux.NewRouter()

	router.Use(middleware.NewRecoveryMiddleware(cfg.Logger))
	router.Use(middleware.NewLoggingMiddleware(cfg.Logger))
	if cfg.HTTPObserver != nil {
		router.Use(middleware.NewMetricsMiddleware(cfg.HTTPObserver))
	}

	router.NotFoundHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		respondWithError(w, http.StatusNotFound, "NOT_FOUND", "Route not found")
	})

	router.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		respondWithJSON(w, http.StatusOK, Response{Success: true, Message: "Server is running"})
	}).Methods(http.MethodGet)

	if cfg.MetricsHandler != nil {
		router.Handle("/metrics", cfg.MetricsHandler).Methods(http.MethodGet)
	}

	api := router.PathPrefix("/api/v1").Subrouter()
	requireVerification := cfg.AuthMiddleware.RequireScope(models.ScopeVerification, models.ScopeAccess)
	requireAccess := cfg.AuthMiddleware.RequireScope(models.ScopeAccess)

	public := api.PathPrefix("/auth").Subrouter()
	if cfg.RateLimiter != nil {
		public.Use(cfg.RateLimiter.Middleware)
	}
	public.HandleFunc("/register", cfg.AuthHandlers.Register).Methods(http.MethodPost)
	public.HandleFunc("/login", cfg.AuthHandlers.Login).Methods(http.MethodPost)
	public.HandleFunc("/forgot-password", cfg.AuthHandlers.ForgotPassword).Methods(http.MethodPost)
	public.HandleFunc("/reset-password", cfg.AuthHandlers.ResetPassword).Methods(http.MethodPost)
	public.HandleFunc("/verify-reset-token", cfg.AuthHandlers.VerifyResetToken).Methods(http.MethodPost)

	verification := api.PathPrefix("/auth").Subrouter()
	verification.Use(requireVerification)
	verification.HandleFunc("/verify-mobile", cfg.AuthHandlers.VerifyMobile).Methods(http.MethodPost)
	verification.HandleFunc("/resend-otp", cfg.AuthHandlers.ResendOTP).Methods(http.MethodPost)

	account := api.PathPrefix("/auth").Subrouter()
	account.Use(requireAccess)
	account.HandleFunc("/profile", cfg.AuthHandlers.Profile).Methods(http.MethodGet)

	company := api.PathPrefix("/company").Subrouter()
	company.Use(requireAccess)
	company.HandleFunc("/create", cfg.CompanyHandlers.Create).Methods(http.MethodPost)
	company.HandleFunc("/profile", cfg.CompanyHandlers.Profile).Methods(http.MethodGet)
	company.HandleFunc("/update", cfg.CompanyHandlers.Update).Methods(http.MethodPut)
	company.HandleFunc("/completion-percentage", cfg.CompanyHandlers.Completion).Methods(http.MethodGet)
	company.HandleFunc("/upload-logo", cfg.CompanyHandlers.UploadLogo).Methods(http.MethodPost)
	company.HandleFunc("/upload-banner", cfg.CompanyHandlers.UploadBanner).Methods(http.MethodPost)

	return router
}
