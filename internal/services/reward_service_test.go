package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"taskrewarder/internal/authz"
	"taskrewarder/internal/models"
	"taskrewarder/internal/pdf"
	"taskrewarder/internal/repositories"
)

type fakeTxRepo struct {
	users     map[int64]*models.User
	rows      []models.Transaction
	conflict  bool
	lastLimit int
}

func (f *fakeTxRepo) AwardVerified(_ context.Context, task *models.Task, verifiedAt time.Time) (*models.AwardResult, error) {
	if f.conflict {
		return nil, repositories.ErrConflict
	}
	u := f.users[*task.AssignedTo]
	old := u.Level
	u.TasksCompleted++
	u.TotalTokens += task.TokenReward
	u.Level = authz.LevelForCount(u.TasksCompleted)
	taskID := task.ID
	f.rows = append(f.rows, models.Transaction{
		ID: int64(len(f.rows) + 1), UserID: u.ID, TaskID: &taskID,
		TokensEarned: task.TokenReward, Type: models.TxEarned, Timestamp: verifiedAt,
	})
	return &models.AwardResult{
		Volunteer: u, TransactionID: int64(len(f.rows)), Amount: task.TokenReward,
		OldLevel: old, NewLevel: u.Level,
	}, nil
}

func (f *fakeTxRepo) ListByUser(_ context.Context, userID int64, limit int) ([]models.Transaction, error) {
	f.lastLimit = limit
	var out []models.Transaction
	for _, r := range f.rows {
		if r.UserID == userID {
			out = append(out, r)
		}
	}
	return out, nil
}

type fakeUserRepo struct {
	users map[int64]*models.User
}

func (f *fakeUserRepo) Create(_ context.Context, u *models.User) error {
	f.users[u.ID] = u
	return nil
}

func (f *fakeUserRepo) GetByID(_ context.Context, id int64) (*models.User, error) {
	return f.users[id], nil
}

func (f *fakeUserRepo) GetByEmail(_ context.Context, email string) (*models.User, error) {
	for _, u := range f.users {
		if u.Email == email {
			return u, nil
		}
	}
	return nil, nil
}

func (f *fakeUserRepo) UpdateTelegramLink(_ context.Context, userID, chatID int64, enable bool) error {
	if u, ok := f.users[userID]; ok {
		u.TelegramChatID = chatID
		u.NotifyTelegram = enable
	}
	return nil
}

func (f *fakeUserRepo) GetTelegramSettings(_ context.Context, userID int64) (int64, bool, error) {
	u, ok := f.users[userID]
	if !ok {
		return 0, false, nil
	}
	return u.TelegramChatID, u.NotifyTelegram, nil
}

type fakeStatementGen struct {
	last pdf.StatementData
}

func (f *fakeStatementGen) GenerateStatement(data pdf.StatementData) (string, error) {
	f.last = data
	return "/tmp/statement.pdf", nil
}

func assignedTask(id, volunteerID int64, reward int) *models.Task {
	return &models.Task{
		ID: id, Title: "Food bank volunteer", Difficulty: models.DifficultyEasy,
		TokenReward: reward, Status: models.StatusCompleted, AssignedTo: &volunteerID,
	}
}

func TestAwardForTaskSignalsLevelUp(t *testing.T) {
	vol := &models.User{ID: 1, Level: models.LevelBeginner, TasksCompleted: 2}
	txRepo := &fakeTxRepo{users: map[int64]*models.User{1: vol}}
	users := &fakeUserRepo{users: map[int64]*models.User{1: vol}}
	s := NewRewardService(txRepo, users, &fakeStatementGen{})

	// third verified task crosses the intermediate threshold
	result, err := s.AwardForTask(context.Background(), assignedTask(7, 1, 10))
	if err != nil {
		t.Fatalf("award: %v", err)
	}
	if !result.LeveledUp() {
		t.Fatal("expected a level-up signal at 3 completed tasks")
	}
	if result.NewLevel != models.LevelIntermediate {
		t.Errorf("new level = %q, want intermediate", result.NewLevel)
	}
	if result.Amount != 10 {
		t.Errorf("amount = %d, want 10", result.Amount)
	}
}

func TestAwardForTaskConflictIsStateError(t *testing.T) {
	txRepo := &fakeTxRepo{conflict: true}
	s := NewRewardService(txRepo, &fakeUserRepo{users: map[int64]*models.User{}}, &fakeStatementGen{})

	_, err := s.AwardForTask(context.Background(), assignedTask(7, 1, 10))
	var se *StateError
	if !errors.As(err, &se) {
		t.Fatalf("got %v, want StateError", err)
	}
}

func TestBalanceReadsStoredCounter(t *testing.T) {
	vol := &models.User{ID: 1, TotalTokens: 85}
	s := NewRewardService(&fakeTxRepo{}, &fakeUserRepo{users: map[int64]*models.User{1: vol}}, &fakeStatementGen{})

	balance, err := s.Balance(context.Background(), 1)
	if err != nil {
		t.Fatalf("balance: %v", err)
	}
	if balance != 85 {
		t.Errorf("balance = %d, want 85", balance)
	}

	_, err = s.Balance(context.Background(), 99)
	var nf *NotFoundError
	if !errors.As(err, &nf) {
		t.Fatalf("got %v, want NotFoundError", err)
	}
}

func TestHistoryDefaultLimit(t *testing.T) {
	txRepo := &fakeTxRepo{}
	s := NewRewardService(txRepo, &fakeUserRepo{users: map[int64]*models.User{}}, &fakeStatementGen{})

	if _, err := s.History(context.Background(), 1, 0); err != nil {
		t.Fatalf("history: %v", err)
	}
	if txRepo.lastLimit != defaultHistoryLimit {
		t.Errorf("limit = %d, want %d", txRepo.lastLimit, defaultHistoryLimit)
	}
}

func TestStatementCarriesHistory(t *testing.T) {
	vol := &models.User{ID: 1, Username: "ada", Level: models.LevelIntermediate, TotalTokens: 45, TasksCompleted: 3}
	taskID := int64(4)
	txRepo := &fakeTxRepo{rows: []models.Transaction{
		{ID: 1, UserID: 1, TaskID: &taskID, TokensEarned: 25, Type: models.TxEarned, Timestamp: time.Now()},
	}}
	gen := &fakeStatementGen{}
	s := NewRewardService(txRepo, &fakeUserRepo{users: map[int64]*models.User{1: vol}}, gen)

	path, err := s.Statement(context.Background(), vol)
	if err != nil {
		t.Fatalf("statement: %v", err)
	}
	if path == "" {
		t.Fatal("empty statement path")
	}
	if gen.last.Username != "ada" || gen.last.TotalTokens != 45 || len(gen.last.Lines) != 1 {
		t.Errorf("statement data = %+v", gen.last)
	}
	if gen.last.Lines[0].Amount != 25 {
		t.Errorf("line amount = %d, want 25", gen.last.Lines[0].Amount)
	}
}
