package repositories

import (
	"context"
	"errors"
	"regexp"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/potatix/backend/internal/models"
)

// setupCourseRepository creates a course repository with a mock database
func setupCourseRepository(t *testing.T) (*courseRepository, sqlmock.Sqlmock, func()) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)

	repo := NewCourseRepository(db)

	cleanup := func() {
		db.Close()
	}

	return repo, mock, cleanup
}

const selectCourseByIDQuery = `SELECT id, owner_id, title, price, status, COALESCE\(slug, ''\) FROM courses WHERE id = \? LIMIT 1`

func TestCourseRepository_GetByID(t *testing.T) {
	tests := []struct {
		name          string
		id            int
		setupMock     func(sqlmock.Sqlmock)
		expectedError error
		expectedSlug  string
	}{
		{
			name: "success",
			id:   1,
			setupMock: func(mock sqlmock.Sqlmock) {
				rows := sqlmock.NewRows([]string{"id", "owner_id", "title", "price", "status", "slug"}).
					AddRow(1, 10, "Go from scratch", 49.99, "published", "go-from-scratch")
				mock.ExpectQuery(selectCourseByIDQuery).
					WithArgs(1).
					WillReturnRows(rows)
			},
			expectedSlug: "go-from-scratch",
		},
		{
			name: "not found",
			id:   999,
			setupMock: func(mock sqlmock.Sqlmock) {
				mock.ExpectQuery(selectCourseByIDQuery).
					WithArgs(999).
					WillReturnRows(sqlmock.NewRows([]string{"id", "owner_id", "title", "price", "status", "slug"}))
			},
			expectedError: models.ErrNotFound,
		},
		{
			name: "database error",
			id:   1,
			setupMock: func(mock sqlmock.Sqlmock) {
				mock.ExpectQuery(selectCourseByIDQuery).
					WithArgs(1).
					WillReturnError(errors.New("database error"))
			},
			expectedError: errors.New("database error"),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo, mock, cleanup := setupCourseRepository(t)
			defer cleanup()

			tt.setupMock(mock)

			course, err := repo.GetByID(context.Background(), tt.id)

			if tt.expectedError != nil {
				assert.Error(t, err)
				assert.Nil(t, course)
				if errors.Is(tt.expectedError, models.ErrNotFound) {
					assert.ErrorIs(t, err, models.ErrNotFound)
				}
			} else {
				assert.NoError(t, err)
				require.NotNil(t, course)
				assert.Equal(t, tt.id, course.ID)
				assert.Equal(t, tt.expectedSlug, course.Slug)
			}

			assert.NoError(t, mock.ExpectationsWereMet())
		})
	}
}

func TestCourseRepository_GetBySlug(t *testing.T) {
	repo, mock, cleanup := setupCourseRepository(t)
	defer cleanup()

	rows := sqlmock.NewRows([]string{"id", "owner_id", "title", "price", "status", "slug"}).
		AddRow(3, 10, "Go from scratch", 49.99, "published", "go-from-scratch")
	mock.ExpectQuery(`SELECT id, owner_id, title, price, status, COALESCE\(slug, ''\) FROM courses WHERE slug = \? LIMIT 1`).
		WithArgs("go-from-scratch").
		WillReturnRows(rows)

	course, err := repo.GetBySlug(context.Background(), "go-from-scratch")

	assert.NoError(t, err)
	require.NotNil(t, course)
	assert.Equal(t, 3, course.ID)
	assert.Equal(t, models.CourseStatusPublished, course.Status)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCourseRepository_GetByOwnerID(t *testing.T) {
	tests := []struct {
		name          string
		ownerID       int
		setupMock     func(sqlmock.Sqlmock)
		expectedError bool
		expectedCount int
	}{
		{
			name:    "success with module counts",
			ownerID: 10,
			setupMock: func(mock sqlmock.Sqlmock) {
				rows := sqlmock.NewRows([]string{"id", "title", "price", "status", "slug", "module_count"}).
					AddRow(1, "Go from scratch", 49.99, "published", "go-from-scratch", 5).
					AddRow(2, "Advanced Go", 99.99, "draft", "", 0)
				mock.ExpectQuery(`SELECT c.id, c.title, c.price, c.status, COALESCE\(c.slug, ''\), COUNT\(m.id\)`).
					WithArgs(10).
					WillReturnRows(rows)
			},
			expectedCount: 2,
		},
		{
			name:    "empty result",
			ownerID: 11,
			setupMock: func(mock sqlmock.Sqlmock) {
				mock.ExpectQuery(`SELECT c.id, c.title, c.price, c.status, COALESCE\(c.slug, ''\), COUNT\(m.id\)`).
					WithArgs(11).
					WillReturnRows(sqlmock.NewRows([]string{"id", "title", "price", "status", "slug", "module_count"}))
			},
			expectedCount: 0,
		},
		{
			name:    "database error",
			ownerID: 10,
			setupMock: func(mock sqlmock.Sqlmock) {
				mock.ExpectQuery(`SELECT c.id, c.title, c.price, c.status, COALESCE\(c.slug, ''\), COUNT\(m.id\)`).
					WithArgs(10).
					WillReturnError(errors.New("database error"))
			},
			expectedError: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo, mock, cleanup := setupCourseRepository(t)
			defer cleanup()

			tt.setupMock(mock)

			courses, err := repo.GetByOwnerID(context.Background(), tt.ownerID)

			if tt.expectedError {
				assert.Error(t, err)
				assert.Nil(t, courses)
			} else {
				assert.NoError(t, err)
				assert.Len(t, courses, tt.expectedCount)
				if tt.expectedCount > 0 {
					assert.Equal(t, 5, courses[0].ModuleCount)
				}
			}

			assert.NoError(t, mock.ExpectationsWereMet())
		})
	}
}

func TestCourseRepository_ExistsBySlug(t *testing.T) {
	repo, mock, cleanup := setupCourseRepository(t)
	defer cleanup()

	mock.ExpectQuery(regexp.QuoteMeta(`SELECT EXISTS(SELECT 1 FROM courses WHERE slug = ?)`)).
		WithArgs("taken-slug").
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(true))

	exists, err := repo.ExistsBySlug(context.Background(), "taken-slug")

	assert.NoError(t, err)
	assert.True(t, exists)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCourseRepository_Create(t *testing.T) {
	repo, mock, cleanup := setupCourseRepository(t)
	defer cleanup()

	mock.ExpectExec(`INSERT INTO courses \(owner_id, title, price, status, slug\)`).
		WithArgs(10, "Go from scratch", 49.99, models.CourseStatusDraft, "go-from-scratch").
		WillReturnResult(sqlmock.NewResult(7, 1))

	course := &models.Course{
		OwnerID: 10,
		Title:   "Go from scratch",
		Price:   49.99,
		Status:  models.CourseStatusDraft,
		Slug:    "go-from-scratch",
	}

	err := repo.Create(context.Background(), course)

	assert.NoError(t, err)
	assert.Equal(t, 7, course.ID)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCourseRepository_Update(t *testing.T) {
	tests := []struct {
		name          string
		setupMock     func(sqlmock.Sqlmock)
		expectedError error
	}{
		{
			name: "success",
			setupMock: func(mock sqlmock.Sqlmock) {
				mock.ExpectExec(`UPDATE courses SET title = \?, price = \?, status = \?, slug = \? WHERE id = \?`).
					WithArgs("Renamed", 59.99, models.CourseStatusPublished, "renamed", 1).
					WillReturnResult(sqlmock.NewResult(0, 1))
			},
		},
		{
			name: "not found",
			setupMock: func(mock sqlmock.Sqlmock) {
				mock.ExpectExec(`UPDATE courses SET title = \?, price = \?, status = \?, slug = \? WHERE id = \?`).
					WithArgs("Renamed", 59.99, models.CourseStatusPublished, "renamed", 1).
					WillReturnResult(sqlmock.NewResult(0, 0))
			},
			expectedError: models.ErrNotFound,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo, mock, cleanup := setupCourseRepository(t)
			defer cleanup()

			tt.setupMock(mock)

			course := &models.Course{
				ID:     1,
				Title:  "Renamed",
				Price:  59.99,
				Status: models.CourseStatusPublished,
				Slug:   "renamed",
			}

			err := repo.Update(context.Background(), course)

			if tt.expectedError != nil {
				assert.ErrorIs(t, err, tt.expectedError)
			} else {
				assert.NoError(t, err)
			}

			assert.NoError(t, mock.ExpectationsWereMet())
		})
	}
}

func TestCourseRepository_DeleteCascade(t *testing.T) {
	tests := []struct {
		name          string
		setupMock     func(sqlmock.Sqlmock)
		expectedError error
	}{
		{
			name: "success deletes lessons then modules then course",
			setupMock: func(mock sqlmock.Sqlmock) {
				mock.ExpectBegin()
				mock.ExpectExec(`DELETE FROM lessons WHERE course_id = \?`).
					WithArgs(1).
					WillReturnResult(sqlmock.NewResult(0, 4))
				mock.ExpectExec(`DELETE FROM modules WHERE course_id = \?`).
					WithArgs(1).
					WillReturnResult(sqlmock.NewResult(0, 2))
				mock.ExpectExec(`DELETE FROM courses WHERE id = \?`).
					WithArgs(1).
					WillReturnResult(sqlmock.NewResult(0, 1))
				mock.ExpectCommit()
			},
		},
		{
			name: "course not found rolls back",
			setupMock: func(mock sqlmock.Sqlmock) {
				mock.ExpectBegin()
				mock.ExpectExec(`DELETE FROM lessons WHERE course_id = \?`).
					WithArgs(1).
					WillReturnResult(sqlmock.NewResult(0, 0))
				mock.ExpectExec(`DELETE FROM modules WHERE course_id = \?`).
					WithArgs(1).
					WillReturnResult(sqlmock.NewResult(0, 0))
				mock.ExpectExec(`DELETE FROM courses WHERE id = \?`).
					WithArgs(1).
					WillReturnResult(sqlmock.NewResult(0, 0))
				mock.ExpectRollback()
			},
			expectedError: models.ErrNotFound,
		},
		{
			name: "lesson delete failure rolls back",
			setupMock: func(mock sqlmock.Sqlmock) {
				mock.ExpectBegin()
				mock.ExpectExec(`DELETE FROM lessons WHERE course_id = \?`).
					WithArgs(1).
					WillReturnError(errors.New("database error"))
				mock.ExpectRollback()
			},
			expectedError: errors.New("database error"),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo, mock, cleanup := setupCourseRepository(t)
			defer cleanup()

			tt.setupMock(mock)

			err := repo.DeleteCascade(context.Background(), 1)

			if tt.expectedError != nil {
				assert.Error(t, err)
				if errors.Is(tt.expectedError, models.ErrNotFound) {
					assert.ErrorIs(t, err, models.ErrNotFound)
				}
			} else {
				assert.NoError(t, err)
			}

			assert.NoError(t, mock.ExpectationsWereMet())
		})
	}
}
