package handlers

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/potatix/backend/internal/models"
)

// PublicCourseService is the interface that wraps the public course page lookup.
type PublicCourseService interface {
	// Method GetPublicCourse retrieves the public page of a published course by slug.
	//
	// Draft courses and unknown slugs both yield a not found error. Lessons that
	// are not publicly visible have their video reference stripped.
	GetPublicCourse(ctx context.Context, slug string) (*models.PublicCourse, error)
}

// PublicHandler handles unauthenticated course page requests
type PublicHandler struct {
	BaseHandler
	service PublicCourseService
}

// NewPublicHandler creates a new public course handler
func NewPublicHandler(svc PublicCourseService, logger *zap.Logger) *PublicHandler {
	return &PublicHandler{
		service:     svc,
		BaseHandler: BaseHandler{logger: logger},
	}
}

// RegisterRoutes registers the public routes
func (h *PublicHandler) RegisterRoutes(r chi.Router) {
	r.Get("/courses/slug/{slug}", h.GetBySlug)
}

// GetBySlug handles GET /api/v1/courses/slug/{slug}
// @Summary Get public course page
// @Description Get the public page of a published course by its slug
// @Tags public
// @Produce json
// @Param slug path string true "Course slug"
// @Success 200 {object} models.PublicCourse
// @Failure 404 {object} map[string]string
// @Failure 500 {object} map[string]string
// @Router /api/v1/courses/slug/{slug} [get]
func (h *PublicHandler) GetBySlug(w http.ResponseWriter, r *http.Request) {
	slug := chi.URLParam(r, "slug")
	if slug == "" {
		h.respondError(w, http.StatusBadRequest, "slug parameter is required")
		return
	}

	page, err := h.service.GetPublicCourse(r.Context(), slug)
	if err != nil {
		h.respondServiceError(w, err)
		return
	}

	h.respondJSON(w, http.StatusOK, page)
}
