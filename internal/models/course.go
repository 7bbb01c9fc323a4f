package models

// CourseStatus represents the publication status of a course
type CourseStatus string

const (
	CourseStatusDraft     CourseStatus = "draft"
	CourseStatusPublished CourseStatus = "published"
)

// IsValid reports whether the status is one of the known values
func (s CourseStatus) IsValid() bool {
	return s == CourseStatusDraft || s == CourseStatusPublished
}

// Course represents a sellable video course
type Course struct {
	ID      int          `json:"id"`
	OwnerID int          `json:"ownerId"`
	Title   string       `json:"title"`
	Price   float64      `json:"price"`
	Status  CourseStatus `json:"status"`
	Slug    string       `json:"slug,omitempty"`
}

// CourseListItem represents a course in list responses
type CourseListItem struct {
	ID          int          `json:"id"`
	Title       string       `json:"title"`
	Price       float64      `json:"price"`
	Status      CourseStatus `json:"status"`
	Slug        string       `json:"slug,omitempty"`
	ModuleCount int          `json:"moduleCount"`
}

// CreateCourseRequest represents a request to create a course
type CreateCourseRequest struct {
	Title string  `json:"title"`
	Price float64 `json:"price"`
	Slug  string  `json:"slug,omitempty"`
}

// UpdateCourseRequest represents a request to update a course (partial update)
type UpdateCourseRequest struct {
	Title  string       `json:"title,omitempty"`
	Price  *float64     `json:"price,omitempty"`
	Status CourseStatus `json:"status,omitempty"`
	// Slug distinguishes "leave unchanged" (nil) from "clear" (empty string)
	Slug *string `json:"slug,omitempty"`
}

// PublicCourse is the slug-keyed read model served to unauthenticated visitors
type PublicCourse struct {
	ID      int            `json:"id"`
	Title   string         `json:"title"`
	Price   float64        `json:"price"`
	Slug    string         `json:"slug"`
	Modules []PublicModule `json:"modules"`
}

// PublicModule is a module as seen on the public course page
type PublicModule struct {
	ID          int            `json:"id"`
	Title       string         `json:"title"`
	Description string         `json:"description,omitempty"`
	Order       int            `json:"order"`
	Lessons     []PublicLesson `json:"lessons"`
}

// PublicLesson is a lesson as seen on the public course page.
// VideoRef is only populated for lessons with public visibility.
type PublicLesson struct {
	ID          int              `json:"id"`
	Title       string           `json:"title"`
	Description string           `json:"description,omitempty"`
	Visibility  LessonVisibility `json:"visibility"`
	VideoRef    string           `json:"videoRef,omitempty"`
	Order       int              `json:"order"`
}
