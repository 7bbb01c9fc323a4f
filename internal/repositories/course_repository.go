package repositories

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/potatix/backend/internal/models"
)

type courseRepository struct {
	db *sql.DB
}

// NewCourseRepository creates a new course repository
func NewCourseRepository(db *sql.DB) *courseRepository {
	return &courseRepository{
		db: db,
	}
}

// GetByID retrieves a course by its ID
func (r *courseRepository) GetByID(ctx context.Context, id int) (*models.Course, error) {
	query := `
		SELECT id, owner_id, title, price, status, COALESCE(slug, '')
		FROM courses
		WHERE id = ?
		LIMIT 1
	`

	var course models.Course
	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&course.ID,
		&course.OwnerID,
		&course.Title,
		&course.Price,
		&course.Status,
		&course.Slug,
	)

	if err == sql.ErrNoRows {
		return nil, models.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get course by id: %w", err)
	}

	return &course, nil
}

// GetBySlug retrieves a course by its public slug
func (r *courseRepository) GetBySlug(ctx context.Context, slug string) (*models.Course, error) {
	query := `
		SELECT id, owner_id, title, price, status, COALESCE(slug, '')
		FROM courses
		WHERE slug = ?
		LIMIT 1
	`

	var course models.Course
	err := r.db.QueryRowContext(ctx, query, slug).Scan(
		&course.ID,
		&course.OwnerID,
		&course.Title,
		&course.Price,
		&course.Status,
		&course.Slug,
	)

	if err == sql.ErrNoRows {
		return nil, models.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get course by slug: %w", err)
	}

	return &course, nil
}

// GetByOwnerID retrieves all courses of an owner with their module counts
func (r *courseRepository) GetByOwnerID(ctx context.Context, ownerID int) ([]models.CourseListItem, error) {
	query := `
		SELECT c.id, c.title, c.price, c.status, COALESCE(c.slug, ''), COUNT(m.id)
		FROM courses c
		LEFT JOIN modules m ON m.course_id = c.id
		WHERE c.owner_id = ?
		GROUP BY c.id
		ORDER BY c.id
	`

	rows, err := r.db.QueryContext(ctx, query, ownerID)
	if err != nil {
		return nil, fmt.Errorf("failed to query courses: %w", err)
	}
	defer rows.Close()

	var courses []models.CourseListItem
	for rows.Next() {
		var course models.CourseListItem
		err := rows.Scan(
			&course.ID,
			&course.Title,
			&course.Price,
			&course.Status,
			&course.Slug,
			&course.ModuleCount,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan course: %w", err)
		}
		courses = append(courses, course)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating rows: %w", err)
	}

	return courses, nil
}

// ExistsBySlug checks if a course with the given slug exists
func (r *courseRepository) ExistsBySlug(ctx context.Context, slug string) (bool, error) {
	query := `SELECT EXISTS(SELECT 1 FROM courses WHERE slug = ?)`

	var exists bool
	err := r.db.QueryRowContext(ctx, query, slug).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("failed to check course slug existence: %w", err)
	}

	return exists, nil
}

// Create creates a new course
func (r *courseRepository) Create(ctx context.Context, course *models.Course) error {
	query := `
		INSERT INTO courses (owner_id, title, price, status, slug)
		VALUES (?, ?, ?, ?, ?)
	`

	result, err := r.db.ExecContext(ctx, query,
		course.OwnerID,
		course.Title,
		course.Price,
		course.Status,
		nullableString(course.Slug),
	)
	if err != nil {
		return fmt.Errorf("failed to create course: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get last insert id: %w", err)
	}

	course.ID = int(id)
	return nil
}

// Update writes the mutable fields of a course. The caller is expected to
// have loaded the row and applied its changes.
func (r *courseRepository) Update(ctx context.Context, course *models.Course) error {
	query := `
		UPDATE courses
		SET title = ?, price = ?, status = ?, slug = ?
		WHERE id = ?
	`

	result, err := r.db.ExecContext(ctx, query,
		course.Title,
		course.Price,
		course.Status,
		nullableString(course.Slug),
		course.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update course: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}

	if rowsAffected == 0 {
		return models.ErrNotFound
	}

	return nil
}

// DeleteCascade deletes a course together with its modules and lessons in a
// single transaction. External video assets are not touched here; the service
// layer cleans them up before calling this.
func (r *courseRepository) DeleteCascade(ctx context.Context, id int) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM lessons WHERE course_id = ?`, id); err != nil {
		return fmt.Errorf("failed to delete course lessons: %w", err)
	}

	if _, err := tx.ExecContext(ctx, `DELETE FROM modules WHERE course_id = ?`, id); err != nil {
		return fmt.Errorf("failed to delete course modules: %w", err)
	}

	result, err := tx.ExecContext(ctx, `DELETE FROM courses WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete course: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return models.ErrNotFound
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	return nil
}

// nullableString maps an empty string to SQL NULL
func nullableString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
