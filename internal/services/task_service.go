package services

import (
	"context"
	"strings"
	"time"
	"unicode/utf8"

	"taskrewarder/internal/authz"
	"taskrewarder/internal/models"
	"taskrewarder/internal/repositories"
)

const (
	maxTitleLen       = 100
	maxDescriptionLen = 1000
)

// CreateTaskInput carries the caller-controlled fields of a new task. The
// token reward is never caller input; it is derived from the difficulty.
type CreateTaskInput struct {
	Title       string
	Description string
	Difficulty  models.Difficulty
	Deadline    time.Time
}

// TaskService owns the task lifecycle state machine. Every operation
// validates its preconditions before touching storage, so a failed call
// leaves prior state unchanged.
type TaskService interface {
	Create(ctx context.Context, actor *models.User, in CreateTaskInput) (*models.Task, error)
	GetByID(ctx context.Context, id int64) (*models.Task, error)
	List(ctx context.Context, actor *models.User, filter models.TaskFilter) ([]models.Task, error)
	ListAvailable(ctx context.Context, actor *models.User) ([]models.Task, error)
	Assign(ctx context.Context, actor *models.User, id int64) (*models.Task, error)
	Complete(ctx context.Context, actor *models.User, id int64) (*models.Task, error)
	Verify(ctx context.Context, actor *models.User, id int64) (*models.Task, *models.AwardResult, error)
	Delete(ctx context.Context, actor *models.User, id int64) error
}

type taskService struct {
	repo    repositories.TaskRepository
	rewards RewardService
}

// NewTaskService creates a new instance of TaskService.
func NewTaskService(repo repositories.TaskRepository, rewards RewardService) TaskService {
	return &taskService{repo: repo, rewards: rewards}
}

func (s *taskService) Create(ctx context.Context, actor *models.User, in CreateTaskInput) (*models.Task, error) {
	if !authz.IsOrganizer(actor.Role) {
		return nil, &AuthorizationError{Reason: "only organizers can create tasks"}
	}

	title := strings.TrimSpace(in.Title)
	if title == "" {
		return nil, &ValidationError{Field: "title", Reason: "is required"}
	}
	if utf8.RuneCountInString(title) > maxTitleLen {
		return nil, &ValidationError{Field: "title", Reason: "cannot exceed 100 characters"}
	}
	description := strings.TrimSpace(in.Description)
	if description == "" {
		return nil, &ValidationError{Field: "description", Reason: "is required"}
	}
	if utf8.RuneCountInString(description) > maxDescriptionLen {
		return nil, &ValidationError{Field: "description", Reason: "cannot exceed 1000 characters"}
	}
	if !models.ValidDifficulty(in.Difficulty) {
		return nil, &ValidationError{Field: "difficulty", Reason: "must be easy, intermediate or difficult"}
	}
	now := time.Now()
	if !in.Deadline.After(now) {
		return nil, &DeadlineError{Deadline: in.Deadline}
	}

	task := &models.Task{
		Title:       title,
		Description: description,
		Difficulty:  in.Difficulty,
		TokenReward: models.RewardFor(in.Difficulty),
		Status:      models.StatusOpen,
		CreatedBy:   actor.ID,
		Deadline:    in.Deadline,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := s.repo.Store(ctx, task); err != nil {
		return nil, err
	}
	return task, nil
}

func (s *taskService) GetByID(ctx context.Context, id int64) (*models.Task, error) {
	task, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if task == nil {
		return nil, &NotFoundError{Kind: "task", ID: id}
	}
	return task, nil
}

func (s *taskService) List(ctx context.Context, actor *models.User, filter models.TaskFilter) ([]models.Task, error) {
	// Volunteers only ever see difficulties their level permits.
	if authz.IsVolunteer(actor.Role) {
		filter.Difficulties = authz.AllowedDifficulties(actor.Level)
	}
	return s.repo.FindAll(ctx, filter)
}

func (s *taskService) ListAvailable(ctx context.Context, actor *models.User) ([]models.Task, error) {
	return s.repo.FindAvailable(ctx, authz.AllowedDifficulties(actor.Level), time.Now())
}

func (s *taskService) Assign(ctx context.Context, actor *models.User, id int64) (*models.Task, error) {
	if !authz.IsVolunteer(actor.Role) {
		return nil, &AuthorizationError{Reason: "only volunteers can take tasks"}
	}
	task, err := s.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if task.Status != models.StatusOpen {
		return nil, &StateError{Status: task.Status, Op: "assign"}
	}
	now := time.Now()
	if !task.Deadline.After(now) {
		return nil, &DeadlineError{Deadline: task.Deadline}
	}
	if !authz.LevelAllows(actor.Level, task.Difficulty) {
		return nil, &AuthorizationError{
			Reason: "level " + string(actor.Level) + " does not permit " + string(task.Difficulty) + " tasks",
		}
	}

	// CAS so exactly one of two racing volunteers wins the task.
	ok, err := s.repo.AssignIfOpen(ctx, id, actor.ID, now)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, &StateError{Status: models.StatusInProgress, Op: "assign"}
	}
	return s.GetByID(ctx, id)
}

func (s *taskService) Complete(ctx context.Context, actor *models.User, id int64) (*models.Task, error) {
	task, err := s.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	// Ownership check comes first: a non-assignee is rejected with an
	// authorization error regardless of the task's status.
	if task.AssignedTo == nil || *task.AssignedTo != actor.ID {
		return nil, &AuthorizationError{Reason: "you are not assigned to this task"}
	}
	if task.Status != models.StatusInProgress {
		return nil, &StateError{Status: task.Status, Op: "complete"}
	}

	ok, err := s.repo.CompleteIfInProgress(ctx, id, time.Now())
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, &StateError{Status: task.Status, Op: "complete"}
	}
	return s.GetByID(ctx, id)
}

func (s *taskService) Verify(ctx context.Context, actor *models.User, id int64) (*models.Task, *models.AwardResult, error) {
	if !authz.IsOrganizer(actor.Role) {
		return nil, nil, &AuthorizationError{Reason: "only organizers can verify tasks"}
	}
	task, err := s.GetByID(ctx, id)
	if err != nil {
		return nil, nil, err
	}
	if !canTransition(task.Status, models.StatusVerified) {
		return nil, nil, &StateError{Status: task.Status, Op: "verify"}
	}

	// The reward ledger applies the verified transition and the award as one
	// atomic unit; if the volunteer update cannot land, the task stays
	// completed.
	result, err := s.rewards.AwardForTask(ctx, task)
	if err != nil {
		return nil, nil, err
	}
	verified, err := s.GetByID(ctx, id)
	if err != nil {
		return nil, nil, err
	}
	return verified, result, nil
}

func (s *taskService) Delete(ctx context.Context, actor *models.User, id int64) error {
	if !authz.IsOrganizer(actor.Role) {
		return &AuthorizationError{Reason: "only organizers can delete tasks"}
	}
	task, err := s.GetByID(ctx, id)
	if err != nil {
		return err
	}
	// Deletion is unconditional for organizers, any status, no ledger effect.
	return s.repo.Delete(ctx, task.ID)
}
