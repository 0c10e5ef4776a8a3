package models

import "time"

// TaskStatus defines the possible statuses for a task. The lifecycle is
// linear: open -> in_progress -> completed -> verified.
type TaskStatus string

const (
	StatusOpen       TaskStatus = "open"
	StatusInProgress TaskStatus = "in_progress"
	StatusCompleted  TaskStatus = "completed"
	StatusVerified   TaskStatus = "verified"
)

// Difficulty is the task tier. It fixes the token reward and the minimum
// volunteer level required to take the task.
type Difficulty string

const (
	DifficultyEasy         Difficulty = "easy"
	DifficultyIntermediate Difficulty = "intermediate"
	DifficultyDifficult    Difficulty = "difficult"
)

// RewardFor returns the fixed token reward for a difficulty. The map is part
// of the stored-data contract: easy=10, intermediate=25, difficult=50.
func RewardFor(d Difficulty) int {
	switch d {
	case DifficultyEasy:
		return 10
	case DifficultyIntermediate:
		return 25
	case DifficultyDifficult:
		return 50
	}
	return 0
}

func ValidDifficulty(d Difficulty) bool {
	switch d {
	case DifficultyEasy, DifficultyIntermediate, DifficultyDifficult:
		return true
	}
	return false
}

// Task represents a volunteer task posted by an organizer.
type Task struct {
	ID          int64      `json:"id"`
	Title       string     `json:"title"`
	Description string     `json:"description"`
	Difficulty  Difficulty `json:"difficulty"`
	TokenReward int        `json:"tokenReward"`
	Status      TaskStatus `json:"status"`
	CreatedBy   int64      `json:"createdBy"`
	AssignedTo  *int64     `json:"assignedTo"`
	Deadline    time.Time  `json:"deadline"`
	CompletedAt *time.Time `json:"completedAt,omitempty"`
	VerifiedAt  *time.Time `json:"verifiedAt,omitempty"`
	CreatedAt   time.Time  `json:"createdAt"`
	UpdatedAt   time.Time  `json:"updatedAt"`
}

// TaskFilter defines the available parameters for filtering task lists.
type TaskFilter struct {
	Status       *TaskStatus
	Difficulty   *Difficulty
	Difficulties []Difficulty // level restriction, applied on top of Difficulty
	CreatedBy    *int64
	AssignedTo   *int64
}
