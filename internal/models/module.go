package models

// Module represents an ordered grouping of lessons within a course
type Module struct {
	ID          int    `json:"id"`
	CourseID    int    `json:"courseId"`
	Title       string `json:"title"`
	Description string `json:"description,omitempty"`
	Order       int    `json:"order"`
}

// ModuleListItem represents a module with its lesson count in list responses
type ModuleListItem struct {
	Module
	LessonCount int `json:"lessonCount"`
}

// CreateModuleRequest represents a request to create a module
type CreateModuleRequest struct {
	Title       string `json:"title"`
	Description string `json:"description,omitempty"`
	// Order is optional; omitted appends the module at the end of the course
	Order *int `json:"order,omitempty"`
}

// UpdateModuleRequest represents a request to update a module (partial update)
type UpdateModuleRequest struct {
	Title       string `json:"title,omitempty"`
	Description string `json:"description,omitempty"`
}

// ReorderModulesRequest carries the full target ordering of a course's modules
type ReorderModulesRequest struct {
	ModuleIDs []int `json:"moduleIds"`
}

// ReorderLessonsRequest carries the full target ordering of a module's lessons
type ReorderLessonsRequest struct {
	LessonIDs []int `json:"lessonIds"`
}

// ModuleLessonOrder names one module and the ordered lessons it should hold
type ModuleLessonOrder struct {
	ModuleID  int   `json:"moduleId"`
	LessonIDs []int `json:"lessonIds"`
}

// CrossModuleReorderRequest reorders lessons across several modules of one
// course in a single all-or-nothing operation
type CrossModuleReorderRequest struct {
	Modules []ModuleLessonOrder `json:"modules"`
}
