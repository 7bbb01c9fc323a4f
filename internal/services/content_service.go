package services

import (
	"context"
	"fmt"

	"github.com/potatix/backend/internal/models"
	"go.uber.org/zap"
)

// ModuleRepository defines methods for module data access
type ModuleRepository interface {
	// GetByID retrieves a module by ID
	GetByID(ctx context.Context, id int) (*models.Module, error)
	// GetWithLessonCounts retrieves all modules of a course with lesson counts
	GetWithLessonCounts(ctx context.Context, courseID int) ([]models.ModuleListItem, error)
	// GetIDsByCourseID retrieves the IDs of all modules in a course
	GetIDsByCourseID(ctx context.Context, courseID int) ([]int, error)
	// NextOrder returns the order for a module appended at the end of a course
	NextOrder(ctx context.Context, courseID int) (int, error)
	// Create creates a new module
	Create(ctx context.Context, module *models.Module) error
	// CreateAt creates a module at an explicit order, shifting colliding
	// siblings down one position, atomically
	CreateAt(ctx context.Context, module *models.Module) error
	// Update updates a module
	Update(ctx context.Context, module *models.Module) error
	// Reorder rewrites module orders to match the submitted ID sequence, atomically
	Reorder(ctx context.Context, courseID int, orderedIDs []int) error
	// DeleteWithLessons deletes a module and its lessons atomically
	DeleteWithLessons(ctx context.Context, id int) error
}

// LessonRepository defines methods for lesson data access
type LessonRepository interface {
	// GetByID retrieves a lesson by ID
	GetByID(ctx context.Context, id int) (*models.Lesson, error)
	// GetByModuleID retrieves all lessons of a module, sorted by order
	GetByModuleID(ctx context.Context, moduleID int) ([]models.Lesson, error)
	// GetIDsByModuleID retrieves the IDs of all lessons in a module
	GetIDsByModuleID(ctx context.Context, moduleID int) ([]int, error)
	// NextOrder returns the order for a lesson appended at the end of a module
	NextOrder(ctx context.Context, moduleID int) (int, error)
	// Create creates a new lesson
	Create(ctx context.Context, lesson *models.Lesson) error
	// CreateAt creates a lesson at an explicit order, shifting colliding
	// siblings down one position, atomically
	CreateAt(ctx context.Context, lesson *models.Lesson) error
	// Update writes the mutable fields of a lesson
	Update(ctx context.Context, lesson *models.Lesson) error
	// Delete deletes a lesson by ID
	Delete(ctx context.Context, id int) error
	// Reorder rewrites lesson orders within a module to match the submitted
	// ID sequence, atomically
	Reorder(ctx context.Context, moduleID int, orderedIDs []int) error
	// ReorderAcrossModules rewrites module assignment and order for lessons
	// across several modules of one course, atomically
	ReorderAcrossModules(ctx context.Context, courseID int, groups []models.ModuleLessonOrder) error
}

type contentService struct {
	courseRepo courseGetter
	moduleRepo ModuleRepository
	lessonRepo LessonRepository
	videoHost  VideoHost
	cache      CoursePageCache
	logger     *zap.Logger
}

// NewContentService creates a new content service covering modules, lessons,
// reordering and cascade deletes
func NewContentService(
	courseRepo courseGetter,
	moduleRepo ModuleRepository,
	lessonRepo LessonRepository,
	videoHost VideoHost,
	cache CoursePageCache,
	logger *zap.Logger,
) *contentService {
	return &contentService{
		courseRepo: courseRepo,
		moduleRepo: moduleRepo,
		lessonRepo: lessonRepo,
		videoHost:  videoHost,
		cache:      cache,
		logger:     logger,
	}
}

// CreateModule creates a new module in a course. Without an explicit order
// the module is appended at the end; an explicit order that is already taken
// shifts the modules behind it down one position first.
func (s *contentService) CreateModule(ctx context.Context, userID, courseID int, req *models.CreateModuleRequest) (int, error) {
	course, err := authorizeCourse(ctx, s.courseRepo, courseID, userID)
	if err != nil {
		return 0, err
	}

	if req.Title == "" {
		return 0, fmt.Errorf("%w: title is required", models.ErrValidation)
	}

	module := &models.Module{
		CourseID:    courseID,
		Title:       req.Title,
		Description: req.Description,
	}

	if req.Order == nil {
		module.Order, err = s.moduleRepo.NextOrder(ctx, courseID)
		if err != nil {
			return 0, err
		}
		if err := s.moduleRepo.Create(ctx, module); err != nil {
			return 0, err
		}
	} else {
		if *req.Order < 0 {
			return 0, fmt.Errorf("%w: order must not be negative", models.ErrValidation)
		}
		module.Order = *req.Order
		if err := s.moduleRepo.CreateAt(ctx, module); err != nil {
			return 0, err
		}
	}

	invalidateCoursePage(s.cache, s.logger, course.Slug)
	return module.ID, nil
}

// GetModules retrieves the modules of a course with lesson counts
func (s *contentService) GetModules(ctx context.Context, userID, courseID int) ([]models.ModuleListItem, error) {
	if _, err := authorizeCourse(ctx, s.courseRepo, courseID, userID); err != nil {
		return nil, err
	}

	return s.moduleRepo.GetWithLessonCounts(ctx, courseID)
}

// UpdateModule updates a module (partial update)
func (s *contentService) UpdateModule(ctx context.Context, userID, courseID, moduleID int, req *models.UpdateModuleRequest) error {
	course, err := authorizeCourse(ctx, s.courseRepo, courseID, userID)
	if err != nil {
		return err
	}

	module, err := s.moduleInCourse(ctx, moduleID, courseID)
	if err != nil {
		return err
	}

	if req.Title == "" && req.Description == "" {
		return fmt.Errorf("%w: at least one field must be provided", models.ErrValidation)
	}

	update := &models.Module{
		ID:          module.ID,
		Title:       req.Title,
		Description: req.Description,
	}
	if err := s.moduleRepo.Update(ctx, update); err != nil {
		return err
	}

	invalidateCoursePage(s.cache, s.logger, course.Slug)
	return nil
}

// DeleteModule deletes a module and all its lessons. For every lesson with
// an attached video the external asset is deleted best-effort before the
// rows go; the row deletion itself is atomic.
func (s *contentService) DeleteModule(ctx context.Context, userID, courseID, moduleID int) error {
	course, err := authorizeCourse(ctx, s.courseRepo, courseID, userID)
	if err != nil {
		return err
	}

	if _, err := s.moduleInCourse(ctx, moduleID, courseID); err != nil {
		return err
	}

	lessons, err := s.lessonRepo.GetByModuleID(ctx, moduleID)
	if err != nil {
		return err
	}

	for _, lesson := range lessons {
		if lesson.VideoRef == "" {
			continue
		}
		// Best effort: the asset lives outside our transactional control.
		cleanupVideoAsset(ctx, s.videoHost, s.logger, lesson.VideoRef)
	}

	if err := s.moduleRepo.DeleteWithLessons(ctx, moduleID); err != nil {
		return err
	}

	invalidateCoursePage(s.cache, s.logger, course.Slug)
	return nil
}

// ReorderModules rewrites the ordering of a course's modules to the submitted
// sequence. The submitted IDs must be exactly the course's module set; any
// mismatch fails the whole operation without touching a row. Concurrent
// conflicting reorders resolve last-write-wins at the transaction level.
func (s *contentService) ReorderModules(ctx context.Context, userID, courseID int, moduleIDs []int) error {
	course, err := authorizeCourse(ctx, s.courseRepo, courseID, userID)
	if err != nil {
		return err
	}

	existing, err := s.moduleRepo.GetIDsByCourseID(ctx, courseID)
	if err != nil {
		return err
	}
	if err := validateReorderSet(moduleIDs, existing); err != nil {
		return err
	}

	if err := s.moduleRepo.Reorder(ctx, courseID, moduleIDs); err != nil {
		return err
	}

	invalidateCoursePage(s.cache, s.logger, course.Slug)
	return nil
}

// ReorderLessons rewrites the ordering of one module's lessons to the
// submitted sequence, with the same exact-permutation contract as module
// reordering.
func (s *contentService) ReorderLessons(ctx context.Context, userID, courseID, moduleID int, lessonIDs []int) error {
	course, err := authorizeCourse(ctx, s.courseRepo, courseID, userID)
	if err != nil {
		return err
	}

	if _, err := s.moduleInCourse(ctx, moduleID, courseID); err != nil {
		return err
	}

	existing, err := s.lessonRepo.GetIDsByModuleID(ctx, moduleID)
	if err != nil {
		return err
	}
	if err := validateReorderSet(lessonIDs, existing); err != nil {
		return err
	}

	if err := s.lessonRepo.Reorder(ctx, moduleID, lessonIDs); err != nil {
		return err
	}

	invalidateCoursePage(s.cache, s.logger, course.Slug)
	return nil
}

// ReorderCourseLessons rewrites lesson ordering across several modules of one
// course in a single all-or-nothing operation. Lessons may move between the
// named modules. Every named module must belong to the course, and the union
// of submitted lesson IDs must be exactly the union of lessons currently in
// those modules.
func (s *contentService) ReorderCourseLessons(ctx context.Context, userID, courseID int, groups []models.ModuleLessonOrder) error {
	course, err := authorizeCourse(ctx, s.courseRepo, courseID, userID)
	if err != nil {
		return err
	}

	if len(groups) == 0 {
		return fmt.Errorf("%w: no modules supplied", models.ErrValidation)
	}

	var submitted []int
	var existing []int
	seenModules := make(map[int]bool, len(groups))
	for _, group := range groups {
		if seenModules[group.ModuleID] {
			return fmt.Errorf("%w: module %d listed twice", models.ErrValidation, group.ModuleID)
		}
		seenModules[group.ModuleID] = true

		if _, err := s.moduleInCourse(ctx, group.ModuleID, courseID); err != nil {
			return err
		}

		ids, err := s.lessonRepo.GetIDsByModuleID(ctx, group.ModuleID)
		if err != nil {
			return err
		}
		existing = append(existing, ids...)
		submitted = append(submitted, group.LessonIDs...)
	}

	if err := validateReorderSet(submitted, existing); err != nil {
		return err
	}

	if err := s.lessonRepo.ReorderAcrossModules(ctx, courseID, groups); err != nil {
		return err
	}

	invalidateCoursePage(s.cache, s.logger, course.Slug)
	return nil
}

// CreateLesson creates a new lesson in a module. The owning course is
// resolved from the module, never taken from the client. A lesson with no
// video attached is a valid draft.
func (s *contentService) CreateLesson(ctx context.Context, userID int, req *models.CreateLessonRequest) (int, error) {
	module, err := s.moduleRepo.GetByID(ctx, req.ModuleID)
	if err != nil {
		return 0, err
	}

	course, err := authorizeCourse(ctx, s.courseRepo, module.CourseID, userID)
	if err != nil {
		return 0, err
	}

	if req.Title == "" {
		return 0, fmt.Errorf("%w: title is required", models.ErrValidation)
	}
	visibility := req.Visibility
	if visibility == "" {
		visibility = models.LessonVisibilityEnrolled
	}
	if !visibility.IsValid() {
		return 0, fmt.Errorf("%w: invalid visibility '%s'", models.ErrValidation, req.Visibility)
	}

	lesson := &models.Lesson{
		ModuleID:    module.ID,
		CourseID:    module.CourseID,
		Title:       req.Title,
		Description: req.Description,
		VideoRef:    req.VideoRef,
		Visibility:  visibility,
	}

	if req.Order == nil {
		lesson.Order, err = s.lessonRepo.NextOrder(ctx, module.ID)
		if err != nil {
			return 0, err
		}
		if err := s.lessonRepo.Create(ctx, lesson); err != nil {
			return 0, err
		}
	} else {
		if *req.Order < 0 {
			return 0, fmt.Errorf("%w: order must not be negative", models.ErrValidation)
		}
		lesson.Order = *req.Order
		if err := s.lessonRepo.CreateAt(ctx, lesson); err != nil {
			return 0, err
		}
	}

	invalidateCoursePage(s.cache, s.logger, course.Slug)
	return lesson.ID, nil
}

// GetLessons retrieves the lessons of a module, sorted by order
func (s *contentService) GetLessons(ctx context.Context, userID, courseID, moduleID int) ([]models.Lesson, error) {
	if _, err := authorizeCourse(ctx, s.courseRepo, courseID, userID); err != nil {
		return nil, err
	}

	if _, err := s.moduleInCourse(ctx, moduleID, courseID); err != nil {
		return nil, err
	}

	return s.lessonRepo.GetByModuleID(ctx, moduleID)
}

// GetLesson retrieves a single lesson for the course owner
func (s *contentService) GetLesson(ctx context.Context, userID, lessonID int) (*models.Lesson, error) {
	lesson, err := s.lessonRepo.GetByID(ctx, lessonID)
	if err != nil {
		return nil, err
	}

	if _, err := authorizeCourse(ctx, s.courseRepo, lesson.CourseID, userID); err != nil {
		return nil, err
	}

	return lesson, nil
}

// UpdateLesson updates a lesson (partial update). Clearing or replacing the
// video reference triggers best-effort deletion of the previous external
// asset. A lesson may move to another module of the same course; it is
// appended at the target module's tail. Cross-course moves are rejected.
func (s *contentService) UpdateLesson(ctx context.Context, userID, lessonID int, req *models.UpdateLessonRequest) error {
	lesson, err := s.lessonRepo.GetByID(ctx, lessonID)
	if err != nil {
		return err
	}

	course, err := authorizeCourse(ctx, s.courseRepo, lesson.CourseID, userID)
	if err != nil {
		return err
	}

	if req.Title == "" && req.Description == "" && req.Visibility == "" && req.VideoRef == nil && req.ModuleID == nil {
		return fmt.Errorf("%w: at least one field must be provided", models.ErrValidation)
	}
	if req.Visibility != "" && !req.Visibility.IsValid() {
		return fmt.Errorf("%w: invalid visibility '%s'", models.ErrValidation, req.Visibility)
	}

	if req.ModuleID != nil && *req.ModuleID != lesson.ModuleID {
		target, err := s.moduleRepo.GetByID(ctx, *req.ModuleID)
		if err != nil {
			return err
		}
		if target.CourseID != lesson.CourseID {
			return fmt.Errorf("%w: cannot move a lesson to a module of another course", models.ErrValidation)
		}
		order, err := s.lessonRepo.NextOrder(ctx, target.ID)
		if err != nil {
			return err
		}
		lesson.ModuleID = target.ID
		lesson.Order = order
	}

	if req.VideoRef != nil && *req.VideoRef != lesson.VideoRef {
		if lesson.VideoRef != "" {
			// Best effort; the row update proceeds regardless.
			cleanupVideoAsset(ctx, s.videoHost, s.logger, lesson.VideoRef)
		}
		lesson.VideoRef = *req.VideoRef
	}

	if req.Title != "" {
		lesson.Title = req.Title
	}
	if req.Description != "" {
		lesson.Description = req.Description
	}
	if req.Visibility != "" {
		lesson.Visibility = req.Visibility
	}

	if err := s.lessonRepo.Update(ctx, lesson); err != nil {
		return err
	}

	invalidateCoursePage(s.cache, s.logger, course.Slug)
	return nil
}

// DeleteLesson deletes a lesson, cleaning up its external video asset first.
// The returned response reports the asset outcome three-valued: deleted,
// failed, or not applicable when no video was attached.
func (s *contentService) DeleteLesson(ctx context.Context, userID, lessonID int) (*models.DeleteLessonResponse, error) {
	lesson, err := s.lessonRepo.GetByID(ctx, lessonID)
	if err != nil {
		return nil, err
	}

	course, err := authorizeCourse(ctx, s.courseRepo, lesson.CourseID, userID)
	if err != nil {
		return nil, err
	}

	outcome := models.VideoAssetNotApplicable
	if lesson.VideoRef != "" {
		if err := cleanupVideoAsset(ctx, s.videoHost, s.logger, lesson.VideoRef); err != nil {
			outcome = models.VideoAssetFailed
		} else {
			outcome = models.VideoAssetDeleted
		}
	}

	if err := s.lessonRepo.Delete(ctx, lessonID); err != nil {
		return nil, err
	}

	invalidateCoursePage(s.cache, s.logger, course.Slug)

	return &models.DeleteLessonResponse{
		VideoDeleted: outcome == models.VideoAssetDeleted,
		VideoAsset:   outcome,
	}, nil
}

// moduleInCourse loads a module and confirms it belongs to the given course.
// A module that exists but hangs off another course fails the whole request.
func (s *contentService) moduleInCourse(ctx context.Context, moduleID, courseID int) (*models.Module, error) {
	module, err := s.moduleRepo.GetByID(ctx, moduleID)
	if err != nil {
		return nil, err
	}
	if module.CourseID != courseID {
		return nil, fmt.Errorf("%w: module %d does not belong to course %d", models.ErrValidation, moduleID, courseID)
	}
	return module, nil
}

// validateReorderSet checks that the submitted IDs are exactly the existing
// sibling set: no omissions, no foreign IDs, no duplicates, not empty.
func validateReorderSet(submitted, existing []int) error {
	if len(submitted) == 0 {
		return fmt.Errorf("%w: no ids supplied", models.ErrValidation)
	}

	seen := make(map[int]bool, len(submitted))
	for _, id := range submitted {
		if seen[id] {
			return fmt.Errorf("%w: id %d listed twice", models.ErrValidation, id)
		}
		seen[id] = true
	}

	if len(submitted) != len(existing) {
		return fmt.Errorf("%w: expected %d ids, got %d", models.ErrValidation, len(existing), len(submitted))
	}
	for _, id := range existing {
		if !seen[id] {
			return fmt.Errorf("%w: id %d missing from submitted set", models.ErrValidation, id)
		}
	}

	return nil
}
