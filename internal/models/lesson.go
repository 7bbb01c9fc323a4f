package models

// LessonVisibility controls who may watch a lesson
type LessonVisibility string

const (
	LessonVisibilityPublic   LessonVisibility = "public"
	LessonVisibilityEnrolled LessonVisibility = "enrolled"
)

// IsValid reports whether the visibility is one of the known values
func (v LessonVisibility) IsValid() bool {
	return v == LessonVisibilityPublic || v == LessonVisibilityEnrolled
}

// Lesson represents a leaf content unit belonging to exactly one module.
// CourseID is denormalized from the owning module for query efficiency and
// must always match the module's course.
type Lesson struct {
	ID          int              `json:"id"`
	ModuleID    int              `json:"moduleId"`
	CourseID    int              `json:"courseId"`
	Title       string           `json:"title"`
	Description string           `json:"description,omitempty"`
	VideoRef    string           `json:"videoRef,omitempty"`
	Visibility  LessonVisibility `json:"visibility"`
	Order       int              `json:"order"`
}

// CreateLessonRequest represents a request to create a lesson
type CreateLessonRequest struct {
	ModuleID    int              `json:"moduleId"`
	Title       string           `json:"title"`
	Description string           `json:"description,omitempty"`
	VideoRef    string           `json:"videoRef,omitempty"`
	Visibility  LessonVisibility `json:"visibility,omitempty"`
	// Order is optional; omitted appends the lesson at the end of the module
	Order *int `json:"order,omitempty"`
}

// UpdateLessonRequest represents a request to update a lesson (partial update)
type UpdateLessonRequest struct {
	Title       string           `json:"title,omitempty"`
	Description string           `json:"description,omitempty"`
	Visibility  LessonVisibility `json:"visibility,omitempty"`
	// VideoRef distinguishes "leave unchanged" (nil) from "detach video" (empty string)
	VideoRef *string `json:"videoRef,omitempty"`
	// ModuleID moves the lesson to another module of the same course
	ModuleID *int `json:"moduleId,omitempty"`
}

// VideoAssetOutcome reports what happened to a lesson's external video asset
// during a delete. Three-valued on purpose: "no video attached" is not a
// failure.
type VideoAssetOutcome string

const (
	VideoAssetDeleted       VideoAssetOutcome = "deleted"
	VideoAssetFailed        VideoAssetOutcome = "failed"
	VideoAssetNotApplicable VideoAssetOutcome = "not_applicable"
)

// DeleteLessonResponse is the response body for a lesson delete
type DeleteLessonResponse struct {
	VideoDeleted bool              `json:"videoDeleted"`
	VideoAsset   VideoAssetOutcome `json:"videoAsset"`
}
