package repositories

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/potatix/backend/internal/models"
)

type lessonRepository struct {
	db *sql.DB
}

// NewLessonRepository creates a new lesson repository
func NewLessonRepository(db *sql.DB) *lessonRepository {
	return &lessonRepository{
		db: db,
	}
}

const lessonColumns = "id, module_id, course_id, title, COALESCE(description, ''), COALESCE(video_ref, ''), visibility, `order`"

func scanLesson(row interface{ Scan(...any) error }, lesson *models.Lesson) error {
	return row.Scan(
		&lesson.ID,
		&lesson.ModuleID,
		&lesson.CourseID,
		&lesson.Title,
		&lesson.Description,
		&lesson.VideoRef,
		&lesson.Visibility,
		&lesson.Order,
	)
}

// GetByID retrieves a lesson by its ID
func (r *lessonRepository) GetByID(ctx context.Context, id int) (*models.Lesson, error) {
	query := `
		SELECT ` + lessonColumns + `
		FROM lessons
		WHERE id = ?
		LIMIT 1
	`

	var lesson models.Lesson
	err := scanLesson(r.db.QueryRowContext(ctx, query, id), &lesson)

	if err == sql.ErrNoRows {
		return nil, models.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get lesson by id: %w", err)
	}

	return &lesson, nil
}

// GetByModuleID retrieves all lessons of a module, sorted by order
func (r *lessonRepository) GetByModuleID(ctx context.Context, moduleID int) ([]models.Lesson, error) {
	query := `
		SELECT ` + lessonColumns + `
		FROM lessons
		WHERE module_id = ?
		ORDER BY ` + "`order`" + `
	`

	return r.queryLessons(ctx, query, moduleID)
}

// GetByCourseID retrieves all lessons of a course across its modules
func (r *lessonRepository) GetByCourseID(ctx context.Context, courseID int) ([]models.Lesson, error) {
	query := `
		SELECT ` + lessonColumns + `
		FROM lessons
		WHERE course_id = ?
		ORDER BY module_id, ` + "`order`" + `
	`

	return r.queryLessons(ctx, query, courseID)
}

func (r *lessonRepository) queryLessons(ctx context.Context, query string, arg int) ([]models.Lesson, error) {
	rows, err := r.db.QueryContext(ctx, query, arg)
	if err != nil {
		return nil, fmt.Errorf("failed to query lessons: %w", err)
	}
	defer rows.Close()

	var lessons []models.Lesson
	for rows.Next() {
		var lesson models.Lesson
		if err := scanLesson(rows, &lesson); err != nil {
			return nil, fmt.Errorf("failed to scan lesson: %w", err)
		}
		lessons = append(lessons, lesson)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating rows: %w", err)
	}

	return lessons, nil
}

// GetIDsByModuleID retrieves the IDs of all lessons in a module
func (r *lessonRepository) GetIDsByModuleID(ctx context.Context, moduleID int) ([]int, error) {
	query := `SELECT id FROM lessons WHERE module_id = ? ORDER BY ` + "`order`"

	rows, err := r.db.QueryContext(ctx, query, moduleID)
	if err != nil {
		return nil, fmt.Errorf("failed to query lesson ids: %w", err)
	}
	defer rows.Close()

	var ids []int
	for rows.Next() {
		var id int
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan lesson id: %w", err)
		}
		ids = append(ids, id)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating rows: %w", err)
	}

	return ids, nil
}

// NextOrder returns the order value a lesson appended to the module should get
func (r *lessonRepository) NextOrder(ctx context.Context, moduleID int) (int, error) {
	query := `SELECT COALESCE(MAX(` + "`order`" + `) + 1, 0) FROM lessons WHERE module_id = ?`

	var next int
	err := r.db.QueryRowContext(ctx, query, moduleID).Scan(&next)
	if err != nil {
		return 0, fmt.Errorf("failed to get next lesson order: %w", err)
	}

	return next, nil
}

// CreateAt inserts a lesson at an explicit order in one transaction. The
// slot check runs FOR UPDATE so two concurrent inserts at the same order
// serialize instead of racing into the unique (module_id, order) index;
// a taken slot shifts the lessons behind it one position down first, in
// descending order to keep the index satisfied mid-statement.
func (r *lessonRepository) CreateAt(ctx context.Context, lesson *models.Lesson) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	var taken int
	slotQuery := `SELECT COUNT(*) FROM lessons WHERE module_id = ? AND ` + "`order`" + ` = ? FOR UPDATE`
	if err := tx.QueryRowContext(ctx, slotQuery, lesson.ModuleID, lesson.Order).Scan(&taken); err != nil {
		return fmt.Errorf("failed to check lesson order slot: %w", err)
	}

	if taken > 0 {
		shiftQuery := `
			UPDATE lessons
			SET ` + "`order`" + ` = ` + "`order`" + ` + 1
			WHERE module_id = ? AND ` + "`order`" + ` >= ?
			ORDER BY ` + "`order`" + ` DESC
		`
		if _, err := tx.ExecContext(ctx, shiftQuery, lesson.ModuleID, lesson.Order); err != nil {
			return fmt.Errorf("failed to shift lesson orders: %w", err)
		}
	}

	insertQuery := `
		INSERT INTO lessons (module_id, course_id, title, description, video_ref, visibility, ` + "`order`" + `)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`
	result, err := tx.ExecContext(ctx, insertQuery,
		lesson.ModuleID,
		lesson.CourseID,
		lesson.Title,
		nullableString(lesson.Description),
		nullableString(lesson.VideoRef),
		lesson.Visibility,
		lesson.Order,
	)
	if err != nil {
		return fmt.Errorf("failed to create lesson: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get last insert id: %w", err)
	}
	lesson.ID = int(id)

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	return nil
}

// Create creates a new lesson
func (r *lessonRepository) Create(ctx context.Context, lesson *models.Lesson) error {
	query := `
		INSERT INTO lessons (module_id, course_id, title, description, video_ref, visibility, ` + "`order`" + `)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`

	result, err := r.db.ExecContext(ctx, query,
		lesson.ModuleID,
		lesson.CourseID,
		lesson.Title,
		nullableString(lesson.Description),
		nullableString(lesson.VideoRef),
		lesson.Visibility,
		lesson.Order,
	)
	if err != nil {
		return fmt.Errorf("failed to create lesson: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get last insert id: %w", err)
	}

	lesson.ID = int(id)
	return nil
}

// Update writes the mutable fields of a lesson. The caller is expected to
// have loaded the row and applied its changes, so clearing video_ref is an
// ordinary write rather than a special case.
func (r *lessonRepository) Update(ctx context.Context, lesson *models.Lesson) error {
	query := `
		UPDATE lessons
		SET module_id = ?, course_id = ?, title = ?, description = ?, video_ref = ?, visibility = ?, ` + "`order`" + ` = ?
		WHERE id = ?
	`

	result, err := r.db.ExecContext(ctx, query,
		lesson.ModuleID,
		lesson.CourseID,
		lesson.Title,
		nullableString(lesson.Description),
		nullableString(lesson.VideoRef),
		lesson.Visibility,
		lesson.Order,
		lesson.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update lesson: %w", err)
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

// Delete deletes a lesson by ID
func (r *lessonRepository) Delete(ctx context.Context, id int) error {
	query := `DELETE FROM lessons WHERE id = ?`

	result, err := r.db.ExecContext(ctx, query, id)
	if err != nil {
		return fmt.Errorf("failed to delete lesson: %w", err)
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

// Reorder rewrites the order of the module's lessons to match the submitted
// ID sequence (order = index), in one transaction. Orders are shifted past
// the current maximum first so the unique (module_id, order) index holds at
// every intermediate step.
func (r *lessonRepository) Reorder(ctx context.Context, moduleID int, orderedIDs []int) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	var offset int
	offsetQuery := `SELECT COALESCE(MAX(` + "`order`" + `) + 1, 0) FROM lessons WHERE module_id = ?`
	if err := tx.QueryRowContext(ctx, offsetQuery, moduleID).Scan(&offset); err != nil {
		return fmt.Errorf("failed to get lesson order offset: %w", err)
	}

	shiftQuery := `UPDATE lessons SET ` + "`order`" + ` = ` + "`order`" + ` + ? WHERE module_id = ?`
	if _, err := tx.ExecContext(ctx, shiftQuery, offset, moduleID); err != nil {
		return fmt.Errorf("failed to shift lesson orders: %w", err)
	}

	assignQuery := `UPDATE lessons SET ` + "`order`" + ` = ? WHERE id = ? AND module_id = ?`
	for index, id := range orderedIDs {
		result, err := tx.ExecContext(ctx, assignQuery, index, id, moduleID)
		if err != nil {
			return fmt.Errorf("failed to set order for lesson %d: %w", id, err)
		}
		rowsAffected, err := result.RowsAffected()
		if err != nil {
			return fmt.Errorf("failed to get rows affected: %w", err)
		}
		if rowsAffected == 0 {
			return fmt.Errorf("%w: lesson %d not found in module", models.ErrValidation, id)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	return nil
}

// ReorderAcrossModules rewrites module assignment and order for lessons of
// several modules of one course in a single transaction. Lessons may move
// between the submitted modules; course_id never changes, and lessons of
// modules not named in groups are never touched. The shift phase moves only
// the named modules' orders, by MAX(order) + COUNT(*) + 1: strictly above
// every shifted order and every final index, so no assignment collides with
// a not-yet-rewritten row even when lessons consolidate into one module.
func (r *lessonRepository) ReorderAcrossModules(ctx context.Context, courseID int, groups []models.ModuleLessonOrder) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	placeholders := make([]string, len(groups))
	moduleArgs := make([]any, len(groups))
	for i, group := range groups {
		placeholders[i] = "?"
		moduleArgs[i] = group.ModuleID
	}
	moduleSet := strings.Join(placeholders, ", ")

	var offset int
	offsetQuery := `SELECT COALESCE(MAX(` + "`order`" + `) + COUNT(*) + 1, 0) FROM lessons WHERE module_id IN (` + moduleSet + `)`
	if err := tx.QueryRowContext(ctx, offsetQuery, moduleArgs...).Scan(&offset); err != nil {
		return fmt.Errorf("failed to get lesson order offset: %w", err)
	}

	shiftQuery := `UPDATE lessons SET ` + "`order`" + ` = ` + "`order`" + ` + ? WHERE module_id IN (` + moduleSet + `)`
	if _, err := tx.ExecContext(ctx, shiftQuery, append([]any{offset}, moduleArgs...)...); err != nil {
		return fmt.Errorf("failed to shift lesson orders: %w", err)
	}

	assignQuery := `UPDATE lessons SET module_id = ?, ` + "`order`" + ` = ? WHERE id = ? AND course_id = ?`
	for _, group := range groups {
		for index, id := range group.LessonIDs {
			result, err := tx.ExecContext(ctx, assignQuery, group.ModuleID, index, id, courseID)
			if err != nil {
				return fmt.Errorf("failed to set order for lesson %d: %w", id, err)
			}
			rowsAffected, err := result.RowsAffected()
			if err != nil {
				return fmt.Errorf("failed to get rows affected: %w", err)
			}
			if rowsAffected == 0 {
				return fmt.Errorf("%w: lesson %d not found in course", models.ErrValidation, id)
			}
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	return nil
}
