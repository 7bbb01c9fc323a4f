package repositories

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/potatix/backend/internal/models"
)

type moduleRepository struct {
	db *sql.DB
}

// NewModuleRepository creates a new module repository
func NewModuleRepository(db *sql.DB) *moduleRepository {
	return &moduleRepository{
		db: db,
	}
}

// GetByID retrieves a module by its ID
func (r *moduleRepository) GetByID(ctx context.Context, id int) (*models.Module, error) {
	query := `
		SELECT id, course_id, title, COALESCE(description, ''), ` + "`order`" + `
		FROM modules
		WHERE id = ?
		LIMIT 1
	`

	var module models.Module
	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&module.ID,
		&module.CourseID,
		&module.Title,
		&module.Description,
		&module.Order,
	)

	if err == sql.ErrNoRows {
		return nil, models.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get module by id: %w", err)
	}

	return &module, nil
}

// GetByCourseID retrieves all modules of a course, sorted by order
func (r *moduleRepository) GetByCourseID(ctx context.Context, courseID int) ([]models.Module, error) {
	query := `
		SELECT id, course_id, title, COALESCE(description, ''), ` + "`order`" + `
		FROM modules
		WHERE course_id = ?
		ORDER BY ` + "`order`" + `
	`

	rows, err := r.db.QueryContext(ctx, query, courseID)
	if err != nil {
		return nil, fmt.Errorf("failed to query modules: %w", err)
	}
	defer rows.Close()

	var modules []models.Module
	for rows.Next() {
		var module models.Module
		err := rows.Scan(
			&module.ID,
			&module.CourseID,
			&module.Title,
			&module.Description,
			&module.Order,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan module: %w", err)
		}
		modules = append(modules, module)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating rows: %w", err)
	}

	return modules, nil
}

// GetWithLessonCounts retrieves all modules of a course with their lesson
// counts, sorted by order
func (r *moduleRepository) GetWithLessonCounts(ctx context.Context, courseID int) ([]models.ModuleListItem, error) {
	query := `
		SELECT m.id, m.course_id, m.title, COALESCE(m.description, ''), m.` + "`order`" + `, COUNT(l.id)
		FROM modules m
		LEFT JOIN lessons l ON l.module_id = m.id
		WHERE m.course_id = ?
		GROUP BY m.id
		ORDER BY m.` + "`order`" + `
	`

	rows, err := r.db.QueryContext(ctx, query, courseID)
	if err != nil {
		return nil, fmt.Errorf("failed to query modules: %w", err)
	}
	defer rows.Close()

	var modules []models.ModuleListItem
	for rows.Next() {
		var module models.ModuleListItem
		err := rows.Scan(
			&module.ID,
			&module.CourseID,
			&module.Title,
			&module.Description,
			&module.Order,
			&module.LessonCount,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan module: %w", err)
		}
		modules = append(modules, module)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating rows: %w", err)
	}

	return modules, nil
}

// GetIDsByCourseID retrieves the IDs of all modules in a course
func (r *moduleRepository) GetIDsByCourseID(ctx context.Context, courseID int) ([]int, error) {
	query := `SELECT id FROM modules WHERE course_id = ? ORDER BY ` + "`order`"

	rows, err := r.db.QueryContext(ctx, query, courseID)
	if err != nil {
		return nil, fmt.Errorf("failed to query module ids: %w", err)
	}
	defer rows.Close()

	var ids []int
	for rows.Next() {
		var id int
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan module id: %w", err)
		}
		ids = append(ids, id)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating rows: %w", err)
	}

	return ids, nil
}

// NextOrder returns the order value a module appended to the course should get
func (r *moduleRepository) NextOrder(ctx context.Context, courseID int) (int, error) {
	query := `SELECT COALESCE(MAX(` + "`order`" + `) + 1, 0) FROM modules WHERE course_id = ?`

	var next int
	err := r.db.QueryRowContext(ctx, query, courseID).Scan(&next)
	if err != nil {
		return 0, fmt.Errorf("failed to get next module order: %w", err)
	}

	return next, nil
}

// CreateAt inserts a module at an explicit order in one transaction. The
// slot check runs FOR UPDATE so two concurrent inserts at the same order
// serialize instead of racing into the unique (course_id, order) index;
// a taken slot shifts the modules behind it one position down first, in
// descending order to keep the index satisfied mid-statement.
func (r *moduleRepository) CreateAt(ctx context.Context, module *models.Module) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	var taken int
	slotQuery := `SELECT COUNT(*) FROM modules WHERE course_id = ? AND ` + "`order`" + ` = ? FOR UPDATE`
	if err := tx.QueryRowContext(ctx, slotQuery, module.CourseID, module.Order).Scan(&taken); err != nil {
		return fmt.Errorf("failed to check module order slot: %w", err)
	}

	if taken > 0 {
		shiftQuery := `
			UPDATE modules
			SET ` + "`order`" + ` = ` + "`order`" + ` + 1
			WHERE course_id = ? AND ` + "`order`" + ` >= ?
			ORDER BY ` + "`order`" + ` DESC
		`
		if _, err := tx.ExecContext(ctx, shiftQuery, module.CourseID, module.Order); err != nil {
			return fmt.Errorf("failed to shift module orders: %w", err)
		}
	}

	insertQuery := `
		INSERT INTO modules (course_id, title, description, ` + "`order`" + `)
		VALUES (?, ?, ?, ?)
	`
	result, err := tx.ExecContext(ctx, insertQuery,
		module.CourseID,
		module.Title,
		nullableString(module.Description),
		module.Order,
	)
	if err != nil {
		return fmt.Errorf("failed to create module: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get last insert id: %w", err)
	}
	module.ID = int(id)

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	return nil
}

// Create creates a new module
func (r *moduleRepository) Create(ctx context.Context, module *models.Module) error {
	query := `
		INSERT INTO modules (course_id, title, description, ` + "`order`" + `)
		VALUES (?, ?, ?, ?)
	`

	result, err := r.db.ExecContext(ctx, query,
		module.CourseID,
		module.Title,
		nullableString(module.Description),
		module.Order,
	)
	if err != nil {
		return fmt.Errorf("failed to create module: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get last insert id: %w", err)
	}

	module.ID = int(id)
	return nil
}

// Update updates a module (partial update)
func (r *moduleRepository) Update(ctx context.Context, module *models.Module) error {
	var setParts []string
	var args []any

	if module.Title != "" {
		setParts = append(setParts, "title = ?")
		args = append(args, module.Title)
	}
	if module.Description != "" {
		setParts = append(setParts, "description = ?")
		args = append(args, module.Description)
	}

	if len(setParts) == 0 {
		return fmt.Errorf("%w: no fields to update", models.ErrValidation)
	}

	query := fmt.Sprintf(`
		UPDATE modules
		SET %s
		WHERE id = ?
	`, strings.Join(setParts, ", "))

	args = append(args, module.ID)

	result, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("failed to update module: %w", err)
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

// Reorder rewrites the order of the course's modules to match the submitted
// ID sequence (order = index). The rewrite runs in one transaction: a second
// writer never observes a half-applied ordering. Orders are first shifted
// past the current maximum so the unique (course_id, order) index holds at
// every intermediate step.
func (r *moduleRepository) Reorder(ctx context.Context, courseID int, orderedIDs []int) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	var offset int
	offsetQuery := `SELECT COALESCE(MAX(` + "`order`" + `) + 1, 0) FROM modules WHERE course_id = ?`
	if err := tx.QueryRowContext(ctx, offsetQuery, courseID).Scan(&offset); err != nil {
		return fmt.Errorf("failed to get module order offset: %w", err)
	}

	shiftQuery := `UPDATE modules SET ` + "`order`" + ` = ` + "`order`" + ` + ? WHERE course_id = ?`
	if _, err := tx.ExecContext(ctx, shiftQuery, offset, courseID); err != nil {
		return fmt.Errorf("failed to shift module orders: %w", err)
	}

	assignQuery := `UPDATE modules SET ` + "`order`" + ` = ? WHERE id = ? AND course_id = ?`
	for index, id := range orderedIDs {
		result, err := tx.ExecContext(ctx, assignQuery, index, id, courseID)
		if err != nil {
			return fmt.Errorf("failed to set order for module %d: %w", id, err)
		}
		rowsAffected, err := result.RowsAffected()
		if err != nil {
			return fmt.Errorf("failed to get rows affected: %w", err)
		}
		if rowsAffected == 0 {
			return fmt.Errorf("%w: module %d not found in course", models.ErrValidation, id)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	return nil
}

// DeleteWithLessons deletes a module and its lessons atomically. Lessons go
// first to satisfy the referential constraint.
func (r *moduleRepository) DeleteWithLessons(ctx context.Context, id int) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM lessons WHERE module_id = ?`, id); err != nil {
		return fmt.Errorf("failed to delete module lessons: %w", err)
	}

	result, err := tx.ExecContext(ctx, `DELETE FROM modules WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete module: %w", err)
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
