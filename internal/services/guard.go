package services

import (
	"context"

	"github.com/potatix/backend/internal/models"
)

// courseGetter is the slice of the course repository the ownership guard needs
type courseGetter interface {
	GetByID(ctx context.Context, id int) (*models.Course, error)
}

// authorizeCourse resolves a course and confirms the actor owns it. Every
// mutation on a module or lesson goes through this before touching anything;
// client-supplied course IDs are never trusted on their own. Read-only, no
// side effects.
//
// Returns models.ErrNotFound if the course does not exist and
// models.ErrForbidden if it belongs to someone else.
func authorizeCourse(ctx context.Context, repo courseGetter, courseID, userID int) (*models.Course, error) {
	course, err := repo.GetByID(ctx, courseID)
	if err != nil {
		return nil, err
	}

	if course.OwnerID != userID {
		return nil, models.ErrForbidden
	}

	return course, nil
}
