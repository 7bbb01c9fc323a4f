package handlers

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/potatix/backend/internal/auth/middleware"
	"github.com/potatix/backend/internal/models"
)

// ContentService is the interface that wraps methods for module and lesson business logic.
type ContentService interface {
	// Method CreateModule creates a module inside a course owned by userID and returns its ID.
	//
	// Without an explicit order the module is appended after the current last one.
	// An explicit order that collides with an existing module shifts the following
	// modules down by one.
	CreateModule(ctx context.Context, userID, courseID int, req *models.CreateModuleRequest) (int, error)
	// Method GetModules lists the modules of a course in display order with lesson counts.
	GetModules(ctx context.Context, userID, courseID int) ([]models.ModuleListItem, error)
	// Method UpdateModule applies a partial update to a module of a course owned by userID.
	UpdateModule(ctx context.Context, userID, courseID, moduleID int, req *models.UpdateModuleRequest) error
	// Method DeleteModule removes a module together with all its lessons.
	//
	// Video assets referenced by the deleted lessons are removed from the external
	// host on a best effort basis.
	DeleteModule(ctx context.Context, userID, courseID, moduleID int) error
	// Method ReorderModules rewrites the display order of all modules in a course.
	//
	// The submitted IDs must be an exact permutation of the course's module IDs.
	ReorderModules(ctx context.Context, userID, courseID int, moduleIDs []int) error
	// Method ReorderLessons rewrites the display order of all lessons in one module.
	//
	// The submitted IDs must be an exact permutation of the module's lesson IDs.
	ReorderLessons(ctx context.Context, userID, courseID, moduleID int, lessonIDs []int) error
	// Method ReorderCourseLessons redistributes lessons across modules of one course.
	//
	// The union of submitted lesson IDs must be an exact permutation of the lessons
	// currently held by the named modules. Applied atomically.
	ReorderCourseLessons(ctx context.Context, userID, courseID int, groups []models.ModuleLessonOrder) error
	// Method CreateLesson creates a lesson appended to the end of its module and returns its ID.
	CreateLesson(ctx context.Context, userID int, req *models.CreateLessonRequest) (int, error)
	// Method GetLessons lists the lessons of a module in display order.
	GetLessons(ctx context.Context, userID, courseID, moduleID int) ([]models.Lesson, error)
	// Method GetLesson retrieves a single lesson by ID.
	GetLesson(ctx context.Context, userID, lessonID int) (*models.Lesson, error)
	// Method UpdateLesson applies a partial update to a lesson.
	//
	// Moving a lesson to another module is only allowed within the same course and
	// appends it after that module's last lesson. Replacing the video reference
	// removes the previous asset from the external host on a best effort basis.
	UpdateLesson(ctx context.Context, userID, lessonID int, req *models.UpdateLessonRequest) error
	// Method DeleteLesson removes a lesson and reports what happened to its video asset.
	DeleteLesson(ctx context.Context, userID, lessonID int) (*models.DeleteLessonResponse, error)
}

// ContentHandler handles HTTP requests for modules and lessons
type ContentHandler struct {
	BaseHandler
	service ContentService
}

// NewContentHandler creates a new content handler
func NewContentHandler(svc ContentService, logger *zap.Logger) *ContentHandler {
	return &ContentHandler{
		service:     svc,
		BaseHandler: BaseHandler{logger: logger},
	}
}

// RegisterRoutes registers all module and lesson routes
func (h *ContentHandler) RegisterRoutes(r chi.Router) {
	r.Route("/courses/{id}/modules", func(r chi.Router) {
		r.Post("/", h.CreateModule)
		r.Get("/", h.ListModules)
		r.Put("/reorder", h.ReorderModules)
		r.Patch("/{moduleID}", h.UpdateModule)
		r.Delete("/{moduleID}", h.DeleteModule)
		r.Get("/{moduleID}/lessons", h.ListLessons)
		r.Put("/{moduleID}/lessons/reorder", h.ReorderLessons)
	})
	r.Put("/courses/{id}/lessons/reorder", h.ReorderCourseLessons)
	r.Route("/lessons", func(r chi.Router) {
		r.Post("/", h.CreateLesson)
		r.Get("/{id}", h.GetLesson)
		r.Patch("/{id}", h.UpdateLesson)
		r.Delete("/{id}", h.DeleteLesson)
	})
}

// CreateModule handles POST /api/v1/courses/{id}/modules
// @Summary Create module
// @Description Create a module inside a course owned by the authenticated user
// @Tags modules
// @Accept json
// @Produce json
// @Param id path int true "Course ID"
// @Param request body models.CreateModuleRequest true "Module data"
// @Success 201 {object} map[string]int
// @Failure 400 {object} map[string]string
// @Failure 403 {object} map[string]string
// @Failure 404 {object} map[string]string
// @Router /api/v1/courses/{id}/modules [post]
func (h *ContentHandler) CreateModule(w http.ResponseWriter, r *http.Request) {
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

	var req models.CreateModuleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	id, err := h.service.CreateModule(r.Context(), userID, courseID, &req)
	if err != nil {
		h.respondServiceError(w, err)
		return
	}

	h.respondJSON(w, http.StatusCreated, map[string]int{"id": id})
}

// ListModules handles GET /api/v1/courses/{id}/modules
// @Summary List modules
// @Description List modules of a course in display order with lesson counts
// @Tags modules
// @Produce json
// @Param id path int true "Course ID"
// @Success 200 {array} models.ModuleListItem
// @Failure 403 {object} map[string]string
// @Failure 404 {object} map[string]string
// @Router /api/v1/courses/{id}/modules [get]
func (h *ContentHandler) ListModules(w http.ResponseWriter, r *http.Request) {
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

	modules, err := h.service.GetModules(r.Context(), userID, courseID)
	if err != nil {
		h.respondServiceError(w, err)
		return
	}

	h.respondJSON(w, http.StatusOK, modules)
}

// UpdateModule handles PATCH /api/v1/courses/{id}/modules/{moduleID}
// @Summary Update module
// @Description Partially update a module
// @Tags modules
// @Accept json
// @Produce json
// @Param id path int true "Course ID"
// @Param moduleID path int true "Module ID"
// @Param request body models.UpdateModuleRequest true "Fields to update"
// @Success 204
// @Failure 400 {object} map[string]string
// @Failure 403 {object} map[string]string
// @Failure 404 {object} map[string]string
// @Router /api/v1/courses/{id}/modules/{moduleID} [patch]
func (h *ContentHandler) UpdateModule(w http.ResponseWriter, r *http.Request) {
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

	moduleID, err := h.pathID(r, "moduleID")
	if err != nil {
		h.respondError(w, http.StatusBadRequest, "invalid moduleID parameter")
		return
	}

	var req models.UpdateModuleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if err := h.service.UpdateModule(r.Context(), userID, courseID, moduleID, &req); err != nil {
		h.respondServiceError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// DeleteModule handles DELETE /api/v1/courses/{id}/modules/{moduleID}
// @Summary Delete module
// @Description Delete a module together with all its lessons
// @Tags modules
// @Produce json
// @Param id path int true "Course ID"
// @Param moduleID path int true "Module ID"
// @Success 204
// @Failure 403 {object} map[string]string
// @Failure 404 {object} map[string]string
// @Router /api/v1/courses/{id}/modules/{moduleID} [delete]
func (h *ContentHandler) DeleteModule(w http.ResponseWriter, r *http.Request) {
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

	moduleID, err := h.pathID(r, "moduleID")
	if err != nil {
		h.respondError(w, http.StatusBadRequest, "invalid moduleID parameter")
		return
	}

	if err := h.service.DeleteModule(r.Context(), userID, courseID, moduleID); err != nil {
		h.respondServiceError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// ReorderModules handles PUT /api/v1/courses/{id}/modules/reorder
// @Summary Reorder modules
// @Description Rewrite the display order of all modules in a course
// @Tags modules
// @Accept json
// @Produce json
// @Param id path int true "Course ID"
// @Param request body models.ReorderModulesRequest true "Complete ordered list of module IDs"
// @Success 204
// @Failure 400 {object} map[string]string
// @Failure 403 {object} map[string]string
// @Failure 404 {object} map[string]string
// @Router /api/v1/courses/{id}/modules/reorder [put]
func (h *ContentHandler) ReorderModules(w http.ResponseWriter, r *http.Request) {
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

	var req models.ReorderModulesRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if err := h.service.ReorderModules(r.Context(), userID, courseID, req.ModuleIDs); err != nil {
		h.respondServiceError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// ReorderLessons handles PUT /api/v1/courses/{id}/modules/{moduleID}/lessons/reorder
// @Summary Reorder lessons in a module
// @Description Rewrite the display order of all lessons in one module
// @Tags lessons
// @Accept json
// @Produce json
// @Param id path int true "Course ID"
// @Param moduleID path int true "Module ID"
// @Param request body models.ReorderLessonsRequest true "Complete ordered list of lesson IDs"
// @Success 204
// @Failure 400 {object} map[string]string
// @Failure 403 {object} map[string]string
// @Failure 404 {object} map[string]string
// @Router /api/v1/courses/{id}/modules/{moduleID}/lessons/reorder [put]
func (h *ContentHandler) ReorderLessons(w http.ResponseWriter, r *http.Request) {
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

	moduleID, err := h.pathID(r, "moduleID")
	if err != nil {
		h.respondError(w, http.StatusBadRequest, "invalid moduleID parameter")
		return
	}

	var req models.ReorderLessonsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if err := h.service.ReorderLessons(r.Context(), userID, courseID, moduleID, req.LessonIDs); err != nil {
		h.respondServiceError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// ReorderCourseLessons handles PUT /api/v1/courses/{id}/lessons/reorder
// @Summary Reorder lessons across modules
// @Description Redistribute lessons across modules of one course in a single atomic operation
// @Tags lessons
// @Accept json
// @Produce json
// @Param id path int true "Course ID"
// @Param request body models.CrossModuleReorderRequest true "Target lesson ordering per module"
// @Success 204
// @Failure 400 {object} map[string]string
// @Failure 403 {object} map[string]string
// @Failure 404 {object} map[string]string
// @Router /api/v1/courses/{id}/lessons/reorder [put]
func (h *ContentHandler) ReorderCourseLessons(w http.ResponseWriter, r *http.Request) {
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

	var req models.CrossModuleReorderRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if err := h.service.ReorderCourseLessons(r.Context(), userID, courseID, req.Modules); err != nil {
		h.respondServiceError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// ListLessons handles GET /api/v1/courses/{id}/modules/{moduleID}/lessons
// @Summary List lessons
// @Description List lessons of a module in display order
// @Tags lessons
// @Produce json
// @Param id path int true "Course ID"
// @Param moduleID path int true "Module ID"
// @Success 200 {array} models.Lesson
// @Failure 403 {object} map[string]string
// @Failure 404 {object} map[string]string
// @Router /api/v1/courses/{id}/modules/{moduleID}/lessons [get]
func (h *ContentHandler) ListLessons(w http.ResponseWriter, r *http.Request) {
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

	moduleID, err := h.pathID(r, "moduleID")
	if err != nil {
		h.respondError(w, http.StatusBadRequest, "invalid moduleID parameter")
		return
	}

	lessons, err := h.service.GetLessons(r.Context(), userID, courseID, moduleID)
	if err != nil {
		h.respondServiceError(w, err)
		return
	}

	h.respondJSON(w, http.StatusOK, lessons)
}

// CreateLesson handles POST /api/v1/lessons
// @Summary Create lesson
// @Description Create a lesson appended to the end of its module
// @Tags lessons
// @Accept json
// @Produce json
// @Param request body models.CreateLessonRequest true "Lesson data"
// @Success 201 {object} map[string]int
// @Failure 400 {object} map[string]string
// @Failure 403 {object} map[string]string
// @Failure 404 {object} map[string]string
// @Router /api/v1/lessons [post]
func (h *ContentHandler) CreateLesson(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserID(r.Context())
	if !ok {
		h.respondError(w, http.StatusUnauthorized, "authentication required")
		return
	}

	var req models.CreateLessonRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	id, err := h.service.CreateLesson(r.Context(), userID, &req)
	if err != nil {
		h.respondServiceError(w, err)
		return
	}

	h.respondJSON(w, http.StatusCreated, map[string]int{"id": id})
}

// GetLesson handles GET /api/v1/lessons/{id}
// @Summary Get lesson
// @Description Get a single lesson by ID
// @Tags lessons
// @Produce json
// @Param id path int true "Lesson ID"
// @Success 200 {object} models.Lesson
// @Failure 403 {object} map[string]string
// @Failure 404 {object} map[string]string
// @Router /api/v1/lessons/{id} [get]
func (h *ContentHandler) GetLesson(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserID(r.Context())
	if !ok {
		h.respondError(w, http.StatusUnauthorized, "authentication required")
		return
	}

	lessonID, err := h.pathID(r, "id")
	if err != nil {
		h.respondError(w, http.StatusBadRequest, "invalid id parameter")
		return
	}

	lesson, err := h.service.GetLesson(r.Context(), userID, lessonID)
	if err != nil {
		h.respondServiceError(w, err)
		return
	}

	h.respondJSON(w, http.StatusOK, lesson)
}

// UpdateLesson handles PATCH /api/v1/lessons/{id}
// @Summary Update lesson
// @Description Partially update a lesson, optionally moving it to another module of the same course
// @Tags lessons
// @Accept json
// @Produce json
// @Param id path int true "Lesson ID"
// @Param request body models.UpdateLessonRequest true "Fields to update"
// @Success 204
// @Failure 400 {object} map[string]string
// @Failure 403 {object} map[string]string
// @Failure 404 {object} map[string]string
// @Router /api/v1/lessons/{id} [patch]
func (h *ContentHandler) UpdateLesson(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserID(r.Context())
	if !ok {
		h.respondError(w, http.StatusUnauthorized, "authentication required")
		return
	}

	lessonID, err := h.pathID(r, "id")
	if err != nil {
		h.respondError(w, http.StatusBadRequest, "invalid id parameter")
		return
	}

	var req models.UpdateLessonRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if err := h.service.UpdateLesson(r.Context(), userID, lessonID, &req); err != nil {
		h.respondServiceError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// DeleteLesson handles DELETE /api/v1/lessons/{id}
// @Summary Delete lesson
// @Description Delete a lesson and report the outcome of the video asset removal
// @Tags lessons
// @Produce json
// @Param id path int true "Lesson ID"
// @Success 200 {object} models.DeleteLessonResponse
// @Failure 403 {object} map[string]string
// @Failure 404 {object} map[string]string
// @Router /api/v1/lessons/{id} [delete]
func (h *ContentHandler) DeleteLesson(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserID(r.Context())
	if !ok {
		h.respondError(w, http.StatusUnauthorized, "authentication required")
		return
	}

	lessonID, err := h.pathID(r, "id")
	if err != nil {
		h.respondError(w, http.StatusBadRequest, "invalid id parameter")
		return
	}

	result, err := h.service.DeleteLesson(r.Context(), userID, lessonID)
	if err != nil {
		h.respondServiceError(w, err)
		return
	}

	h.respondJSON(w, http.StatusOK, result)
}
