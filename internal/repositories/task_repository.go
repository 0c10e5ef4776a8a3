package repositories

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/lib/pq"

	"taskrewarder/internal/models"
)

type TaskRepository interface {
	Store(ctx context.Context, task *models.Task) error
	FindByID(ctx context.Context, id int64) (*models.Task, error)
	FindAll(ctx context.Context, filter models.TaskFilter) ([]models.Task, error)
	FindAvailable(ctx context.Context, difficulties []models.Difficulty, now time.Time) ([]models.Task, error)
	Delete(ctx context.Context, id int64) error

	// Compare-and-set transitions. Both return false when the task was not in
	// the expected status, so exactly one of two racing callers wins.
	AssignIfOpen(ctx context.Context, id, volunteerID int64, now time.Time) (bool, error)
	CompleteIfInProgress(ctx context.Context, id int64, now time.Time) (bool, error)
}

type taskRepository struct {
	db *sql.DB
}

func NewTaskRepository(db *sql.DB) TaskRepository {
	return &taskRepository{db: db}
}

const taskColumns = `id, title, description, difficulty, token_reward, status,
       created_by, assigned_to, deadline, completed_at, verified_at, created_at, updated_at`

func scanTask(row interface{ Scan(...any) error }, t *models.Task) error {
	return row.Scan(
		&t.ID, &t.Title, &t.Description, &t.Difficulty, &t.TokenReward, &t.Status,
		&t.CreatedBy, &t.AssignedTo, &t.Deadline, &t.CompletedAt, &t.VerifiedAt,
		&t.CreatedAt, &t.UpdatedAt,
	)
}

func (r *taskRepository) Store(ctx context.Context, task *models.Task) error {
	query := `
		INSERT INTO tasks (
			title, description, difficulty, token_reward, status,
			created_by, assigned_to, deadline, created_at, updated_at
		)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10)
		RETURNING id, created_at, updated_at`
	return r.db.QueryRowContext(ctx, query,
		task.Title, task.Description, task.Difficulty, task.TokenReward, task.Status,
		task.CreatedBy, task.AssignedTo, task.Deadline, task.CreatedAt, task.UpdatedAt,
	).Scan(&task.ID, &task.CreatedAt, &task.UpdatedAt)
}

func (r *taskRepository) FindByID(ctx context.Context, id int64) (*models.Task, error) {
	query := `SELECT ` + taskColumns + ` FROM tasks WHERE id = $1`
	task := &models.Task{}
	err := scanTask(r.db.QueryRowContext(ctx, query, id), task)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}
	return task, nil
}

func (r *taskRepository) FindAll(ctx context.Context, filter models.TaskFilter) ([]models.Task, error) {
	baseQuery := `SELECT ` + taskColumns + ` FROM tasks`

	conditions := []string{}
	args := []interface{}{}
	argID := 1

	if filter.Status != nil {
		conditions = append(conditions, fmt.Sprintf("status = $%d", argID))
		args = append(args, *filter.Status)
		argID++
	}
	if filter.Difficulty != nil {
		conditions = append(conditions, fmt.Sprintf("difficulty = $%d", argID))
		args = append(args, *filter.Difficulty)
		argID++
	}
	if len(filter.Difficulties) > 0 {
		diffs := make([]string, 0, len(filter.Difficulties))
		for _, d := range filter.Difficulties {
			diffs = append(diffs, string(d))
		}
		conditions = append(conditions, fmt.Sprintf("difficulty = ANY($%d)", argID))
		args = append(args, pq.Array(diffs))
		argID++
	}
	if filter.CreatedBy != nil {
		conditions = append(conditions, fmt.Sprintf("created_by = $%d", argID))
		args = append(args, *filter.CreatedBy)
		argID++
	}
	if filter.AssignedTo != nil {
		conditions = append(conditions, fmt.Sprintf("assigned_to = $%d", argID))
		args = append(args, *filter.AssignedTo)
		argID++
	}

	if len(conditions) > 0 {
		baseQuery += " WHERE " + strings.Join(conditions, " AND ")
	}
	baseQuery += " ORDER BY created_at DESC"

	rows, err := r.db.QueryContext(ctx, baseQuery, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var tasks []models.Task
	for rows.Next() {
		var t models.Task
		if err := scanTask(rows, &t); err != nil {
			return nil, err
		}
		tasks = append(tasks, t)
	}
	return tasks, rows.Err()
}

func (r *taskRepository) FindAvailable(ctx context.Context, difficulties []models.Difficulty, now time.Time) ([]models.Task, error) {
	diffs := make([]string, 0, len(difficulties))
	for _, d := range difficulties {
		diffs = append(diffs, string(d))
	}
	query := `SELECT ` + taskColumns + ` FROM tasks
		WHERE status = $1 AND difficulty = ANY($2) AND deadline > $3
		ORDER BY created_at DESC`
	rows, err := r.db.QueryContext(ctx, query, models.StatusOpen, pq.Array(diffs), now)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var tasks []models.Task
	for rows.Next() {
		var t models.Task
		if err := scanTask(rows, &t); err != nil {
			return nil, err
		}
		tasks = append(tasks, t)
	}
	return tasks, rows.Err()
}

func (r *taskRepository) Delete(ctx context.Context, id int64) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM tasks WHERE id = $1`, id)
	return err
}

func (r *taskRepository) AssignIfOpen(ctx context.Context, id, volunteerID int64, now time.Time) (bool, error) {
	res, err := r.db.ExecContext(ctx,
		`UPDATE tasks SET status=$1, assigned_to=$2, updated_at=$3 WHERE id=$4 AND status=$5`,
		models.StatusInProgress, volunteerID, now, id, models.StatusOpen)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n == 1, nil
}

func (r *taskRepository) CompleteIfInProgress(ctx context.Context, id int64, now time.Time) (bool, error) {
	res, err := r.db.ExecContext(ctx,
		`UPDATE tasks SET status=$1, completed_at=$2, updated_at=$2 WHERE id=$3 AND status=$4`,
		models.StatusCompleted, now, id, models.StatusInProgress)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n == 1, nil
}
