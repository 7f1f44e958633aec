package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/compreg/compreg/internal/service"
	"github.com/sirupsen/logrus"
)

type Response struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
	Data    any    `json:"data,omitempty"`
}

type ErrorResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	Code    string `json:"code"`
	Field   string `json:"field,omitempty"`
}

func respondWithJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(payload)
}

func respondWithData(w http.ResponseWriter, status int, message string, data any) {
	respondWithJSON(w, status, Response{
		Success: true,
		Message: message,
		Data:    data,
	})
}

func respondWithError(w http.ResponseWriter, status int, code, message string) {
	respondWithJSON(w, status, ErrorResponse{
		Success: false,
		Message: message,
		Code:    code,
	})
}

// decodeJSON reads a JSON body into dst, rejecting bodies over 1 MB.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, 1<<20)
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		respondWithError(w, http.StatusBadRequest, "INVALID_REQUEST", "Invalid request body")
		return false
	}
	return true
}

// respondWithServiceError maps service errors onto HTTP statuses. Anything
// unrecognised is logged and reported as a generic 500.
func respondWithServiceError(w http.ResponseWriter, logger *logrus.Logger, err error, notFound, fallback string) {
	var verr *service.ValidationError
	switch {
	case errors.As(err, &verr):
		respondWithJSON(w, http.StatusBadRequest, ErrorResponse{
			Success: false,
			Message: verr.Error(),
			Code:    "VALIDATION_FAILED",
			Field:   verr.Field,
		})
	case errors.Is(err, service.ErrEmailTaken):
		respondWithError(w, http.StatusBadRequest, "EMAIL_TAKEN", "User already exists with this email")
	case errors.Is(err, service.ErrMobileTaken):
		respondWithError(w, http.StatusBadRequest, "MOBILE_TAKEN", "User already exists with this mobile number")
	case errors.Is(err, service.ErrConflict):
		respondWithError(w, http.StatusBadRequest, "CONFLICT", "User already exists")
	case errors.Is(err, service.ErrInvalidCredentials):
		respondWithError(w, http.StatusUnauthorized, "INVALID_CREDENTIALS", "Invalid email or password")
	case errors.Is(err, service.ErrInvalidCode):
		respondWithError(w, http.StatusBadRequest, "INVALID_OTP", "Invalid or expired verification code")
	case errors.Is(err, service.ErrTooManyAttempts):
		respondWithError(w, http.StatusTooManyRequests, "TOO_MANY_ATTEMPTS", "Too many attempts. Request a new code and try again later.")
	case errors.Is(err, service.ErrAlreadyVerified):
		respondWithError(w, http.StatusBadRequest, "ALREADY_VERIFIED", "Mobile number is already verified")
	case errors.Is(err, service.ErrInvalidOrExpiredToken):
		respondWithError(w, http.StatusBadRequest, "INVALID_RESET_TOKEN", "Invalid or expired reset token")
	case errors.Is(err, service.ErrCompanyExists):
		respondWithError(w, http.StatusBadRequest, "COMPANY_EXISTS", "Company already registered for this user")
	case errors.Is(err, service.ErrNotFound):
		respondWithError(w, http.StatusNotFound, "NOT_FOUND", notFound)
	case errors.Is(err, service.ErrUploadsDisabled):
		respondWithError(w, http.StatusServiceUnavailable, "UPLOADS_DISABLED", "Image uploads are not configured")
	case errors.Is(err, service.ErrDeliveryFailed):
		logger.WithError(err).Error("Notification delivery failed")
		respondWithError(w, http.StatusInternalServerError, "DELIVERY_FAILED", "Failed to send email")
	default:
		logger.WithError(err).Error(fallback)
		respondWithError(w, http.StatusInternalServerError, "INTERNAL_ERROR", fallback)
	}
}
