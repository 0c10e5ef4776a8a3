package models

import "time"

// Role separates the two actor kinds: organizers post and verify tasks,
// volunteers take and complete them.
type Role string

const (
	RoleOrganizer Role = "organizer"
	RoleVolunteer Role = "volunteer"
)

func ValidRole(r Role) bool {
	return r == RoleOrganizer || r == RoleVolunteer
}

// Level is the volunteer tier, derived solely from the verified-task count.
type Level string

const (
	LevelBeginner     Level = "beginner"
	LevelIntermediate Level = "intermediate"
	LevelAdvanced     Level = "advanced"
)

type User struct {
	ID           int64  `json:"id"`
	Username     string `json:"username"`
	Email        string `json:"email"`
	PasswordHash string `json:"-"`
	Role         Role   `json:"role"`
	Level        Level  `json:"level"`

	// TotalTokens is the authoritative balance; the transactions table is an
	// audit trail, not the source of truth.
	TotalTokens    int `json:"totalTokens"`
	TasksCompleted int `json:"tasksCompleted"`

	// Telegram notification settings (optional link).
	TelegramChatID int64 `json:"-"`
	NotifyTelegram bool  `json:"-"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}
