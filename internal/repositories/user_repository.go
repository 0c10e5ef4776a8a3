package repositories

import (
	"context"
	"database/sql"

	"taskrewarder/internal/models"
)

type UserRepository interface {
	Create(ctx context.Context, user *models.User) error
	GetByID(ctx context.Context, id int64) (*models.User, error)
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	UpdateTelegramLink(ctx context.Context, userID, chatID int64, enable bool) error
	GetTelegramSettings(ctx context.Context, userID int64) (chatID int64, notify bool, err error)
}

type userRepository struct {
	db *sql.DB
}

func NewUserRepository(db *sql.DB) UserRepository {
	return &userRepository{db: db}
}

const userColumns = `id, username, email, password_hash, role, level,
       total_tokens, tasks_completed, telegram_chat_id, notify_telegram, created_at, updated_at`

func scanUser(row interface{ Scan(...any) error }, u *models.User) error {
	return row.Scan(
		&u.ID, &u.Username, &u.Email, &u.PasswordHash, &u.Role, &u.Level,
		&u.TotalTokens, &u.TasksCompleted, &u.TelegramChatID, &u.NotifyTelegram,
		&u.CreatedAt, &u.UpdatedAt,
	)
}

func (r *userRepository) Create(ctx context.Context, user *models.User) error {
	const q = `
		INSERT INTO users (
			username, email, password_hash, role, level,
			total_tokens, tasks_completed, telegram_chat_id, notify_telegram,
			created_at, updated_at
		)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,NOW(),NOW())
		RETURNING id, created_at, updated_at`
	return r.db.QueryRowContext(ctx, q,
		user.Username, user.Email, user.PasswordHash, user.Role, user.Level,
		user.TotalTokens, user.TasksCompleted, user.TelegramChatID, user.NotifyTelegram,
	).Scan(&user.ID, &user.CreatedAt, &user.UpdatedAt)
}

func (r *userRepository) GetByID(ctx context.Context, id int64) (*models.User, error) {
	const q = `SELECT ` + userColumns + ` FROM users WHERE id = $1`
	user := &models.User{}
	err := scanUser(r.db.QueryRowContext(ctx, q, id), user)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}
	return user, nil
}

func (r *userRepository) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	const q = `SELECT ` + userColumns + ` FROM users WHERE LOWER(email) = LOWER($1)`
	user := &models.User{}
	err := scanUser(r.db.QueryRowContext(ctx, q, email), user)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}
	return user, nil
}

func (r *userRepository) UpdateTelegramLink(ctx context.Context, userID, chatID int64, enable bool) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE users SET telegram_chat_id=$1, notify_telegram=$2, updated_at=NOW() WHERE id=$3`,
		chatID, enable, userID)
	return err
}

func (r *userRepository) GetTelegramSettings(ctx context.Context, userID int64) (int64, bool, error) {
	var chatID int64
	var notify bool
	err := r.db.QueryRowContext(ctx,
		`SELECT telegram_chat_id, notify_telegram FROM users WHERE id=$1`, userID,
	).Scan(&chatID, &notify)
	if err != nil {
		if err == sql.ErrNoRows {
			return 0, false, nil
		}
		return 0, false, err
	}
	return chatID, notify, nil
}
