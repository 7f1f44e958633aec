package handlers

import (
	"context"
	"errors"
	"io"
	"net/http"

	"github.com/compreg/compreg/internal/media"
	"github.com/compreg/compreg/internal/middleware"
	"github.com/compreg/compreg/internal/models"
	"github.com/compreg/compreg/internal/service"
	"github.com/sirupsen/logrus"
)

// multipartOverhead leaves room for form boundaries and headers on top of
// the image itself.
const multipartOverhead = 1 << 20

type CompanyHandlers struct {
	companyService *service.CompanyService
	logger         *logrus.Logger
}

func NewCompanyHandlers(companyService *service.CompanyService, logger *logrus.Logger) *CompanyHandlers {
	return &CompanyHandlers{
		companyService: companyService,
		logger:         logger,
	}
}

type CompletionResponse struct {
	CompletionPercentage int `json:"completion_percentage"`
}

func (h *CompanyHandlers) fail(w http.ResponseWriter, err error, fallback string) {
	respondWithServiceError(w, h.logger, err, "Company profile not found", fallback)
}

func (h *CompanyHandlers) Create(w http.ResponseWriter, r *http.Request) {
	var req models.CompanyInput
	if !decodeJSON(w, r, &req) {
		return
	}

	company, err := h.companyService.Create(r.Context(), middleware.UserIDFromContext(r.Context()), req)
	if err != nil {
		h.fail(w, err, "Failed to register company")
		return
	}

	respondWithData(w, http.StatusCreated, "Company registered successfully", company)
}

func (h *CompanyHandlers) Profile(w http.ResponseWriter, r *http.Request) {
	company, err := h.companyService.Get(r.Context(), middleware.UserIDFromContext(r.Context()))
	if err != nil {
		h.fail(w, err, "Failed to get company profile")
		return
	}

	respondWithData(w, http.StatusOK, "", company)
}

func (h *CompanyHandlers) Update(w http.ResponseWriter, r *http.Request) {
	var req models.CompanyUpdate
	if !decodeJSON(w, r, &req) {
		return
	}

	company, err := h.companyService.Update(r.Context(), middleware.UserIDFromContext(r.Context()), req)
	if err != nil {
		h.fail(w, err, "Failed to update company profile")
		return
	}

	respondWithData(w, http.StatusOK, "Company profile updated successfully", company)
}

func (h *CompanyHandlers) Completion(w http.ResponseWriter, r *http.Request) {
	pct, err := h.companyService.Completion(r.Context(), middleware.UserIDFromContext(r.Context()))
	if err != nil {
		h.fail(w, err, "Failed to compute profile completion")
		return
	}

	respondWithData(w, http.StatusOK, "", CompletionResponse{CompletionPercentage: pct})
}

func (h *CompanyHandlers) UploadLogo(w http.ResponseWriter, r *http.Request) {
	h.upload(w, r, service.ImageLogo, h.companyService.UploadLogo)
}

func (h *CompanyHandlers) UploadBanner(w http.ResponseWriter, r *http.Request) {
	h.upload(w, r, service.ImageBanner, h.companyService.UploadBanner)
}

type uploadFunc func(ctx context.Context, ownerID string, body io.Reader, size int64, contentType string) (*models.Company, error)

// upload reads the multipart file named field and hands it to store.
func (h *CompanyHandlers) upload(w http.ResponseWriter, r *http.Request, field string, store uploadFunc) {
	const limit = media.MaxImageSize + multipartOverhead
	if r.ContentLength > limit {
		respondWithError(w, http.StatusRequestEntityTooLarge, "FILE_TOO_LARGE", media.ErrTooLarge.Error())
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, limit)
	if err := r.ParseMultipartForm(multipartOverhead); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			respondWithError(w, http.StatusRequestEntityTooLarge, "FILE_TOO_LARGE", media.ErrTooLarge.Error())
			return
		}
		respondWithError(w, http.StatusBadRequest, "INVALID_REQUEST", "Expected a multipart form")
		return
	}
	defer r.MultipartForm.RemoveAll()

	file, header, err := r.FormFile(field)
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "NO_FILE", "No file uploaded in field "+field)
		return
	}
	defer file.Close()

	contentType, err := media.Sniff(file)
	if err != nil {
		h.logger.WithError(err).WithField("field", field).Warn("Failed to sniff upload")
		respondWithError(w, http.StatusBadRequest, "INVALID_REQUEST", "Could not read uploaded file")
		return
	}

	company, err := store(r.Context(), middleware.UserIDFromContext(r.Context()), file, header.Size, contentType)
	if err != nil {
		h.fail(w, err, "Failed to upload "+field)
		return
	}

	respondWithData(w, http.StatusOK, "Image uploaded successfully", company)
}
