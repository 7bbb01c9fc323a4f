package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/potatix/backend/internal/auth/middleware"
	"github.com/potatix/backend/internal/models"
)

// CoursesService is the interface that wraps methods for course business logic.
type CoursesService interface {
	// Method CreateCourse creates a new draft course owned by ownerID and returns its ID.
	//
	// The request title is required and the optional slug must be unique across all courses.
	CreateCourse(ctx context.Context, ownerID int, req *models.CreateCourseRequest) (int, error)
	// Method GetCourse retrieves a single course by ID.
	//
	// Only the owner may read the course; other users receive an authorization error.
	GetCourse(ctx context.Context, courseID, userID int) (*models.Course, error)
	// Method GetCourses retrieves all courses owned by ownerID together with their module counts.
	GetCourses(ctx context.Context, ownerID int) ([]models.CourseListItem, error)
	// Method UpdateCourse applies a partial update to a course owned by userID.
	//
	// At least one field must be present in the request. A nil slug leaves the
	// slug unchanged, an empty slug clears it.
	UpdateCourse(ctx context.Context, courseID, userID int, req *models.UpdateCourseRequest) error
	// Method DeleteCourse removes a course with all its modules and lessons.
	//
	// Video assets referenced by the deleted lessons are removed from the external
	// host on a best effort basis before the rows are deleted.
	DeleteCourse(ctx context.Context, courseID, userID int) error
}

// CoursesHandler handles HTTP requests for course management
type CoursesHandler struct {
	BaseHandler
	service CoursesService
}

// NewCoursesHandler creates a new course handler
func NewCoursesHandler(svc CoursesService, logger *zap.Logger) *CoursesHandler {
	return &CoursesHandler{
		service:     svc,
		BaseHandler: BaseHandler{logger: logger},
	}
}

// RegisterRoutes registers all course handler routes
func (h *CoursesHandler) RegisterRoutes(r chi.Router) {
	r.Route("/courses", func(r chi.Router) {
		r.Post("/", h.Create)
		r.Get("/", h.List)
		r.Get("/{id}", h.Get)
		r.Patch("/{id}", h.Update)
		r.Delete("/{id}", h.Delete)
	})
}

// Create handles POST /api/v1/courses
// @Summary Create course
// @Description Create a new draft course owned by the authenticated user
// @Tags courses
// @Accept json
// @Produce json
// @Param request body models.CreateCourseRequest true "Course data"
// @Success 201 {object} map[string]int
// @Failure 400 {object} map[string]string
// @Failure 401 {object} map[string]string
// @Router /api/v1/courses [post]
func (h *CoursesHandler) Create(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserID(r.Context())
	if !ok {
		h.respondError(w, http.StatusUnauthorized, "authentication required")
		return
	}

	var req models.CreateCourseRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	id, err := h.service.CreateCourse(r.Context(), userID, &req)
	if err != nil {
		h.respondServiceError(w, err)
		return
	}

	h.respondJSON(w, http.StatusCreated, map[string]int{"id": id})
}

// List handles GET /api/v1/courses
// @Summary List courses
// @Description List all courses owned by the authenticated user with module counts
// @Tags courses
// @Produce json
// @Success 200 {array} models.CourseListItem
// @Failure 401 {object} map[string]string
// @Failure 500 {object} map[string]string
// @Router /api/v1/courses [get]
func (h *CoursesHandler) List(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserID(r.Context())
	if !ok {
		h.respondError(w, http.StatusUnauthorized, "authentication required")
		return
	}

	courses, err := h.service.GetCourses(r.Context(), userID)
	if err != nil {
		h.respondServiceError(w, err)
		return
	}

	h.respondJSON(w, http.StatusOK, courses)
}

// Get handles GET /api/v1/courses/{id}
// @Summary Get course
// @Description Get a single course owned by the authenticated user
// @Tags courses
// @Produce json
// @Param id path int true "Course ID"
// @Success 200 {object} models.Course
// @Failure 401 {object} map[string]string
// @Failure 403 {object} map[string]string
// @Failure 404 {object} map[string]string
// @Router /api/v1/courses/{id} [get]
func (h *CoursesHandler) Get(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserID(r.Context())
	if !ok {
		h.respondError(w, http.StatusUnauthorized, "authentication required")
		return
	}

	courseID, err := h.pathID(r, "id")
	if err != nil {
		h.respondError(w, http.StatusBadRequest, "invalid id parameter")
		return
	}

	course, err := h.service.GetCourse(r.Context(), courseID, userID)
	if err != nil {
		h.respondServiceError(w, err)
		return
	}

	h.respondJSON(w, http.StatusOK, course)
}

// Update handles PATCH /api/v1/courses/{id}
// @Summary Update course
// @Description Partially update a course owned by the authenticated user
// @Tags courses
// @Accept json
// @Produce json
// @Param id path int true "Course ID"
// @Param request body models.UpdateCourseRequest true "Fields to update"
// @Success 204
// @Failure 400 {object} map[string]string
// @Failure 401 {object} map[string]string
// @Failure 403 {object} map[string]string
// @Failure 404 {object} map[string]string
// @Router /api/v1/courses/{id} [patch]
func (h *CoursesHandler) Update(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserID(r.Context())
	if !ok {
		h.respondError(w, http.StatusUnauthorized, "authentication required")
		return
	}

	courseID, err := h.pathID(r, "id")
	if err != nil {
		h.respondError(w, http.StatusBadRequest, "invalid id parameter")
		return
	}

	var req models.UpdateCourseRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if err := h.service.UpdateCourse(r.Context(), courseID, userID, &req); err != nil {
		h.respondServiceError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// Delete handles DELETE /api/v1/courses/{id}
// @Summary Delete course
// @Description Delete a course with all its modules and lessons
// @Tags courses
// @Produce json
// @Param id path int true "Course ID"
// @Success 204
// @Failure 401 {object} map[string]string
// @Failure 403 {object} map[string]string
// @Failure 404 {object} map[string]string
// @Router /api/v1/courses/{id} [delete]
func (h *CoursesHandler) Delete(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserID(r.Context())
	if !ok {
		h.respondError(w, http.StatusUnauthorized, "authentication required")
		return
	}

	courseID, err := h.pathID(r, "id")
	if err != nil {
		h.respondError(w, http.StatusBadRequest, "invalid id parameter")
		return
	}

	if err := h.service.DeleteCourse(r.Context(), courseID, userID); err != nil {
		h.respondServiceError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// pathID parses an integer URL parameter
func (h *BaseHandler) pathID(r *http.Request, name string) (int, error) {
	return strconv.Atoi(chi.URLParam(r, name))
}
