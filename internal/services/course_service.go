package services

import (
	"context"
	"fmt"

	"github.com/potatix/backend/internal/models"
	"go.uber.org/zap"
)

// CourseRepository defines methods for course data access
type CourseRepository interface {
	// GetByID retrieves a course by ID
	GetByID(ctx context.Context, id int) (*models.Course, error)
	// GetBySlug retrieves a course by its public slug
	GetBySlug(ctx context.Context, slug string) (*models.Course, error)
	// GetByOwnerID retrieves all courses of an owner with module counts
	GetByOwnerID(ctx context.Context, ownerID int) ([]models.CourseListItem, error)
	// ExistsBySlug checks if a course with the given slug exists
	ExistsBySlug(ctx context.Context, slug string) (bool, error)
	// Create creates a new course
	Create(ctx context.Context, course *models.Course) error
	// Update writes the mutable fields of a course
	Update(ctx context.Context, course *models.Course) error
	// DeleteCascade deletes a course with its modules and lessons atomically
	DeleteCascade(ctx context.Context, id int) error
}

// CourseModuleRepository is the slice of the module repository the course
// service needs for the public page
type CourseModuleRepository interface {
	GetByCourseID(ctx context.Context, courseID int) ([]models.Module, error)
}

// CourseLessonRepository is the slice of the lesson repository the course
// service needs for the public page and cascade asset cleanup
type CourseLessonRepository interface {
	GetByCourseID(ctx context.Context, courseID int) ([]models.Lesson, error)
}

type courseService struct {
	courseRepo CourseRepository
	moduleRepo CourseModuleRepository
	lessonRepo CourseLessonRepository
	videoHost  VideoHost
	cache      CoursePageCache
	logger     *zap.Logger
}

// NewCourseService creates a new course service
func NewCourseService(
	courseRepo CourseRepository,
	moduleRepo CourseModuleRepository,
	lessonRepo CourseLessonRepository,
	videoHost VideoHost,
	cache CoursePageCache,
	logger *zap.Logger,
) *courseService {
	return &courseService{
		courseRepo: courseRepo,
		moduleRepo: moduleRepo,
		lessonRepo: lessonRepo,
		videoHost:  videoHost,
		cache:      cache,
		logger:     logger,
	}
}

// CreateCourse creates a new course owned by the authenticated user.
// New courses start as drafts.
func (s *courseService) CreateCourse(ctx context.Context, ownerID int, req *models.CreateCourseRequest) (int, error) {
	if req.Title == "" {
		return 0, fmt.Errorf("%w: title is required", models.ErrValidation)
	}
	if req.Price < 0 {
		return 0, fmt.Errorf("%w: price must not be negative", models.ErrValidation)
	}
	if req.Slug != "" {
		exists, err := s.courseRepo.ExistsBySlug(ctx, req.Slug)
		if err != nil {
			return 0, err
		}
		if exists {
			return 0, fmt.Errorf("%w: slug '%s' is already in use", models.ErrValidation, req.Slug)
		}
	}

	course := &models.Course{
		OwnerID: ownerID,
		Title:   req.Title,
		Price:   req.Price,
		Status:  models.CourseStatusDraft,
		Slug:    req.Slug,
	}

	if err := s.courseRepo.Create(ctx, course); err != nil {
		return 0, err
	}

	return course.ID, nil
}

// GetCourse retrieves a single course for its owner
func (s *courseService) GetCourse(ctx context.Context, courseID, userID int) (*models.Course, error) {
	return authorizeCourse(ctx, s.courseRepo, courseID, userID)
}

// GetCourses retrieves all courses of the authenticated user
func (s *courseService) GetCourses(ctx context.Context, ownerID int) ([]models.CourseListItem, error) {
	return s.courseRepo.GetByOwnerID(ctx, ownerID)
}

// UpdateCourse updates a course (partial update). Changing or clearing the
// slug also invalidates the cached public page under the old slug.
func (s *courseService) UpdateCourse(ctx context.Context, courseID, userID int, req *models.UpdateCourseRequest) error {
	course, err := authorizeCourse(ctx, s.courseRepo, courseID, userID)
	if err != nil {
		return err
	}

	if req.Title == "" && req.Price == nil && req.Status == "" && req.Slug == nil {
		return fmt.Errorf("%w: at least one field must be provided", models.ErrValidation)
	}
	if req.Price != nil && *req.Price < 0 {
		return fmt.Errorf("%w: price must not be negative", models.ErrValidation)
	}
	if req.Status != "" && !req.Status.IsValid() {
		return fmt.Errorf("%w: invalid status '%s'", models.ErrValidation, req.Status)
	}
	if req.Slug != nil && *req.Slug != "" && *req.Slug != course.Slug {
		exists, err := s.courseRepo.ExistsBySlug(ctx, *req.Slug)
		if err != nil {
			return err
		}
		if exists {
			return fmt.Errorf("%w: slug '%s' is already in use", models.ErrValidation, *req.Slug)
		}
	}

	oldSlug := course.Slug
	if req.Title != "" {
		course.Title = req.Title
	}
	if req.Price != nil {
		course.Price = *req.Price
	}
	if req.Status != "" {
		course.Status = req.Status
	}
	if req.Slug != nil {
		course.Slug = *req.Slug
	}

	if err := s.courseRepo.Update(ctx, course); err != nil {
		return err
	}

	invalidateCoursePage(s.cache, s.logger, oldSlug)
	if course.Slug != oldSlug {
		invalidateCoursePage(s.cache, s.logger, course.Slug)
	}

	return nil
}

// DeleteCourse deletes a course with all its modules and lessons. External
// video assets of the lessons are deleted best-effort first; individual
// failures are logged but never abort the delete.
func (s *courseService) DeleteCourse(ctx context.Context, courseID, userID int) error {
	course, err := authorizeCourse(ctx, s.courseRepo, courseID, userID)
	if err != nil {
		return err
	}

	lessons, err := s.lessonRepo.GetByCourseID(ctx, courseID)
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

	if err := s.courseRepo.DeleteCascade(ctx, courseID); err != nil {
		return err
	}

	invalidateCoursePage(s.cache, s.logger, course.Slug)
	return nil
}

// GetPublicCourse serves the public course page by slug, from the cache when
// possible. Only published courses are visible; lessons restricted to
// enrolled students keep their metadata but lose their video reference.
func (s *courseService) GetPublicCourse(ctx context.Context, slug string) (*models.PublicCourse, error) {
	page, err := s.cache.GetPage(ctx, slug)
	if err != nil {
		s.logger.Warn("course page cache read failed", zap.String("slug", slug), zap.Error(err))
	}
	if page != nil {
		return page, nil
	}

	course, err := s.courseRepo.GetBySlug(ctx, slug)
	if err != nil {
		return nil, err
	}
	if course.Status != models.CourseStatusPublished {
		return nil, models.ErrNotFound
	}

	modules, err := s.moduleRepo.GetByCourseID(ctx, course.ID)
	if err != nil {
		return nil, err
	}
	lessons, err := s.lessonRepo.GetByCourseID(ctx, course.ID)
	if err != nil {
		return nil, err
	}

	page = buildPublicCourse(course, modules, lessons)

	if err := s.cache.SetPage(ctx, slug, page); err != nil {
		s.logger.Warn("course page cache write failed", zap.String("slug", slug), zap.Error(err))
	}

	return page, nil
}

// buildPublicCourse assembles the slug-keyed read model from entity rows
func buildPublicCourse(course *models.Course, modules []models.Module, lessons []models.Lesson) *models.PublicCourse {
	lessonsByModule := make(map[int][]models.PublicLesson, len(modules))
	for _, lesson := range lessons {
		item := models.PublicLesson{
			ID:          lesson.ID,
			Title:       lesson.Title,
			Description: lesson.Description,
			Visibility:  lesson.Visibility,
			Order:       lesson.Order,
		}
		if lesson.Visibility == models.LessonVisibilityPublic {
			item.VideoRef = lesson.VideoRef
		}
		lessonsByModule[lesson.ModuleID] = append(lessonsByModule[lesson.ModuleID], item)
	}

	page := &models.PublicCourse{
		ID:      course.ID,
		Title:   course.Title,
		Price:   course.Price,
		Slug:    course.Slug,
		Modules: make([]models.PublicModule, 0, len(modules)),
	}
	for _, module := range modules {
		page.Modules = append(page.Modules, models.PublicModule{
			ID:          module.ID,
			Title:       module.Title,
			Description: module.Description,
			Order:       module.Order,
			Lessons:     lessonsByModule[module.ID],
		})
	}

	return page
}
