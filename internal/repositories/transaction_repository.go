package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"taskrewarder/internal/authz"
	"taskrewarder/internal/models"
)

// ErrConflict is returned when a compare-and-set transition finds the row in
// an unexpected status (e.g. the task was verified by a concurrent call).
var ErrConflict = errors.New("status conflict")

type TransactionRepository interface {
	// AwardVerified applies the verify transition and the volunteer-side award
	// as a single SQL transaction: task completed->verified, ledger insert,
	// token/count/level update on the volunteer row. Either all of it lands or
	// none of it does.
	AwardVerified(ctx context.Context, task *models.Task, verifiedAt time.Time) (*models.AwardResult, error)
	ListByUser(ctx context.Context, userID int64, limit int) ([]models.Transaction, error)
}

type transactionRepository struct {
	db *sql.DB
}

func NewTransactionRepository(db *sql.DB) TransactionRepository {
	return &transactionRepository{db: db}
}

func (r *transactionRepository) AwardVerified(ctx context.Context, task *models.Task, verifiedAt time.Time) (*models.AwardResult, error) {
	if task.AssignedTo == nil {
		return nil, fmt.Errorf("task %d has no assignee", task.ID)
	}
	volunteerID := *task.AssignedTo

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx,
		`UPDATE tasks SET status=$1, verified_at=$2, updated_at=$2 WHERE id=$3 AND status=$4`,
		models.StatusVerified, verifiedAt, task.ID, models.StatusCompleted)
	if err != nil {
		return nil, err
	}
	if n, err := res.RowsAffected(); err != nil {
		return nil, err
	} else if n == 0 {
		return nil, ErrConflict
	}

	volunteer := &models.User{}
	err = scanUser(tx.QueryRowContext(ctx,
		`SELECT `+userColumns+` FROM users WHERE id=$1 FOR UPDATE`, volunteerID), volunteer)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, fmt.Errorf("volunteer %d: %w", volunteerID, sql.ErrNoRows)
		}
		return nil, err
	}

	oldLevel := volunteer.Level
	newCount := volunteer.TasksCompleted + 1
	newLevel := authz.LevelForCount(newCount)

	var txID int64
	err = tx.QueryRowContext(ctx,
		`INSERT INTO transactions (user_id, task_id, tokens_earned, transaction_type, description, timestamp)
		 VALUES ($1,$2,$3,$4,$5,$6) RETURNING id`,
		volunteerID, task.ID, task.TokenReward, models.TxEarned,
		fmt.Sprintf("Reward for task %q", task.Title), verifiedAt,
	).Scan(&txID)
	if err != nil {
		return nil, err
	}

	_, err = tx.ExecContext(ctx,
		`UPDATE users SET total_tokens = total_tokens + $1, tasks_completed = $2, level = $3, updated_at = $4
		 WHERE id = $5`,
		task.TokenReward, newCount, newLevel, verifiedAt, volunteerID)
	if err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, err
	}

	volunteer.TotalTokens += task.TokenReward
	volunteer.TasksCompleted = newCount
	volunteer.Level = newLevel
	volunteer.UpdatedAt = verifiedAt

	return &models.AwardResult{
		Volunteer:     volunteer,
		TransactionID: txID,
		Amount:        task.TokenReward,
		OldLevel:      oldLevel,
		NewLevel:      newLevel,
	}, nil
}

func (r *transactionRepository) ListByUser(ctx context.Context, userID int64, limit int) ([]models.Transaction, error) {
	const q = `SELECT id, user_id, task_id, tokens_earned, transaction_type, description, timestamp
		FROM transactions WHERE user_id = $1 ORDER BY timestamp DESC LIMIT $2`
	rows, err := r.db.QueryContext(ctx, q, userID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []models.Transaction
	for rows.Next() {
		var t models.Transaction
		var desc sql.NullString
		if err := rows.Scan(&t.ID, &t.UserID, &t.TaskID, &t.TokensEarned, &t.Type, &desc, &t.Timestamp); err != nil {
			return nil, err
		}
		t.Description = desc.String
		out = append(out, t)
	}
	return out, rows.Err()
}
