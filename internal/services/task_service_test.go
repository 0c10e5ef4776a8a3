package services

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"taskrewarder/internal/authz"
	"taskrewarder/internal/models"
)

// --- in-memory fakes ---

type fakeTaskRepo struct {
	mu    sync.Mutex
	seq   int64
	tasks map[int64]*models.Task
}

func newFakeTaskRepo() *fakeTaskRepo {
	return &fakeTaskRepo{tasks: map[int64]*models.Task{}}
}

func (r *fakeTaskRepo) Store(_ context.Context, task *models.Task) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.seq++
	task.ID = r.seq
	cp := *task
	r.tasks[task.ID] = &cp
	return nil
}

func (r *fakeTaskRepo) FindByID(_ context.Context, id int64) (*models.Task, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	t, ok := r.tasks[id]
	if !ok {
		return nil, nil
	}
	cp := *t
	return &cp, nil
}

func (r *fakeTaskRepo) FindAll(_ context.Context, filter models.TaskFilter) ([]models.Task, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []models.Task
	for _, t := range r.tasks {
		if filter.Status != nil && t.Status != *filter.Status {
			continue
		}
		if filter.Difficulty != nil && t.Difficulty != *filter.Difficulty {
			continue
		}
		if len(filter.Difficulties) > 0 && !difficultyIn(t.Difficulty, filter.Difficulties) {
			continue
		}
		out = append(out, *t)
	}
	return out, nil
}

func (r *fakeTaskRepo) FindAvailable(_ context.Context, difficulties []models.Difficulty, now time.Time) ([]models.Task, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []models.Task
	for _, t := range r.tasks {
		if t.Status == models.StatusOpen && difficultyIn(t.Difficulty, difficulties) && t.Deadline.After(now) {
			out = append(out, *t)
		}
	}
	return out, nil
}

func (r *fakeTaskRepo) Delete(_ context.Context, id int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.tasks, id)
	return nil
}

func (r *fakeTaskRepo) AssignIfOpen(_ context.Context, id, volunteerID int64, now time.Time) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	t, ok := r.tasks[id]
	if !ok || t.Status != models.StatusOpen {
		return false, nil
	}
	t.Status = models.StatusInProgress
	t.AssignedTo = &volunteerID
	t.UpdatedAt = now
	return true, nil
}

func (r *fakeTaskRepo) CompleteIfInProgress(_ context.Context, id int64, now time.Time) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	t, ok := r.tasks[id]
	if !ok || t.Status != models.StatusInProgress {
		return false, nil
	}
	t.Status = models.StatusCompleted
	t.CompletedAt = &now
	t.UpdatedAt = now
	return true, nil
}

func difficultyIn(d models.Difficulty, set []models.Difficulty) bool {
	for _, s := range set {
		if s == d {
			return true
		}
	}
	return false
}

// fakeRewards mirrors the production ledger semantics: the verified CAS and
// the volunteer update happen as one unit.
type fakeRewards struct {
	mu      sync.Mutex
	repo    *fakeTaskRepo
	users   map[int64]*models.User
	history map[int64][]models.Transaction
	seq     int64
}

func newFakeRewards(repo *fakeTaskRepo, users ...*models.User) *fakeRewards {
	f := &fakeRewards{repo: repo, users: map[int64]*models.User{}, history: map[int64][]models.Transaction{}}
	for _, u := range users {
		f.users[u.ID] = u
	}
	return f
}

func (f *fakeRewards) AwardForTask(_ context.Context, task *models.Task) (*models.AwardResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.repo.mu.Lock()
	stored := f.repo.tasks[task.ID]
	if stored == nil || stored.Status != models.StatusCompleted {
		f.repo.mu.Unlock()
		return nil, &StateError{Status: models.StatusVerified, Op: "verify"}
	}
	now := time.Now()
	stored.Status = models.StatusVerified
	stored.VerifiedAt = &now
	f.repo.mu.Unlock()

	u := f.users[*task.AssignedTo]
	oldLevel := u.Level
	u.TasksCompleted++
	u.TotalTokens += task.TokenReward
	u.Level = authz.LevelForCount(u.TasksCompleted)

	f.seq++
	taskID := task.ID
	f.history[u.ID] = append(f.history[u.ID], models.Transaction{
		ID: f.seq, UserID: u.ID, TaskID: &taskID,
		TokensEarned: task.TokenReward, Type: models.TxEarned, Timestamp: now,
	})

	return &models.AwardResult{
		Volunteer: u, TransactionID: f.seq, Amount: task.TokenReward,
		OldLevel: oldLevel, NewLevel: u.Level,
	}, nil
}

func (f *fakeRewards) Balance(_ context.Context, volunteerID int64) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	u, ok := f.users[volunteerID]
	if !ok {
		return 0, &NotFoundError{Kind: "volunteer", ID: volunteerID}
	}
	return u.TotalTokens, nil
}

func (f *fakeRewards) History(_ context.Context, volunteerID int64, _ int) ([]models.Transaction, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.history[volunteerID], nil
}

func (f *fakeRewards) Statement(_ context.Context, _ *models.User) (string, error) {
	return "", nil
}

// --- helpers ---

func organizer() *models.User {
	return &models.User{ID: 100, Username: "org", Role: models.RoleOrganizer, Level: models.LevelAdvanced}
}

func volunteer(id int64, level models.Level) *models.User {
	return &models.User{ID: id, Username: "vol", Role: models.RoleVolunteer, Level: level}
}

func futureDeadline() time.Time {
	return time.Now().Add(7 * 24 * time.Hour)
}

func newService(t *testing.T, vols ...*models.User) (TaskService, *fakeTaskRepo, *fakeRewards) {
	t.Helper()
	repo := newFakeTaskRepo()
	rewards := newFakeRewards(repo, vols...)
	return NewTaskService(repo, rewards), repo, rewards
}

func mustCreate(t *testing.T, s TaskService, d models.Difficulty) *models.Task {
	t.Helper()
	task, err := s.Create(context.Background(), organizer(), CreateTaskInput{
		Title:       "Clean up local park",
		Description: "Pick up litter and organize recycling.",
		Difficulty:  d,
		Deadline:    futureDeadline(),
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	return task
}

// --- tests ---

func TestCreateRewardByDifficulty(t *testing.T) {
	s, _, _ := newService(t)
	cases := map[models.Difficulty]int{
		models.DifficultyEasy:         10,
		models.DifficultyIntermediate: 25,
		models.DifficultyDifficult:    50,
	}
	for d, want := range cases {
		task := mustCreate(t, s, d)
		if task.TokenReward != want {
			t.Errorf("difficulty %q: reward = %d, want %d", d, task.TokenReward, want)
		}
		if task.Status != models.StatusOpen {
			t.Errorf("new task status = %q, want open", task.Status)
		}
		if task.AssignedTo != nil {
			t.Errorf("new task should have no assignee")
		}
	}
}

func TestCreateValidation(t *testing.T) {
	s, _, _ := newService(t)
	ctx := context.Background()
	long := func(n int) string {
		b := make([]byte, n)
		for i := range b {
			b[i] = 'x'
		}
		return string(b)
	}

	cases := []struct {
		name string
		in   CreateTaskInput
		want any
	}{
		{"empty title", CreateTaskInput{Description: "d", Difficulty: models.DifficultyEasy, Deadline: futureDeadline()}, &ValidationError{}},
		{"long title", CreateTaskInput{Title: long(101), Description: "d", Difficulty: models.DifficultyEasy, Deadline: futureDeadline()}, &ValidationError{}},
		{"empty description", CreateTaskInput{Title: "t", Difficulty: models.DifficultyEasy, Deadline: futureDeadline()}, &ValidationError{}},
		{"long description", CreateTaskInput{Title: "t", Description: long(1001), Difficulty: models.DifficultyEasy, Deadline: futureDeadline()}, &ValidationError{}},
		{"bad difficulty", CreateTaskInput{Title: "t", Description: "d", Difficulty: "extreme", Deadline: futureDeadline()}, &ValidationError{}},
		{"past deadline", CreateTaskInput{Title: "t", Description: "d", Difficulty: models.DifficultyEasy, Deadline: time.Now().Add(-time.Hour)}, &DeadlineError{}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := s.Create(ctx, organizer(), tc.in)
			if err == nil {
				t.Fatal("expected error")
			}
			switch tc.want.(type) {
			case *ValidationError:
				var ve *ValidationError
				if !errors.As(err, &ve) {
					t.Fatalf("got %T (%v), want ValidationError", err, err)
				}
			case *DeadlineError:
				var de *DeadlineError
				if !errors.As(err, &de) {
					t.Fatalf("got %T (%v), want DeadlineError", err, err)
				}
			}
		})
	}
}

func TestCreateRequiresOrganizer(t *testing.T) {
	s, _, _ := newService(t)
	_, err := s.Create(context.Background(), volunteer(1, models.LevelAdvanced), CreateTaskInput{
		Title: "t", Description: "d", Difficulty: models.DifficultyEasy, Deadline: futureDeadline(),
	})
	var ae *AuthorizationError
	if !errors.As(err, &ae) {
		t.Fatalf("got %v, want AuthorizationError", err)
	}
}

func TestAssignLevelGate(t *testing.T) {
	vol := volunteer(1, models.LevelBeginner)
	s, repo, _ := newService(t, vol)
	task := mustCreate(t, s, models.DifficultyDifficult)

	_, err := s.Assign(context.Background(), vol, task.ID)
	var ae *AuthorizationError
	if !errors.As(err, &ae) {
		t.Fatalf("got %v, want AuthorizationError", err)
	}
	// the task must be untouched
	stored, _ := repo.FindByID(context.Background(), task.ID)
	if stored.Status != models.StatusOpen || stored.AssignedTo != nil {
		t.Fatalf("task mutated on denied assign: %+v", stored)
	}
}

func TestAssignNonOpenTask(t *testing.T) {
	vol := volunteer(1, models.LevelBeginner)
	other := volunteer(2, models.LevelBeginner)
	s, _, _ := newService(t, vol, other)
	task := mustCreate(t, s, models.DifficultyEasy)

	if _, err := s.Assign(context.Background(), vol, task.ID); err != nil {
		t.Fatalf("first assign: %v", err)
	}
	_, err := s.Assign(context.Background(), other, task.ID)
	var se *StateError
	if !errors.As(err, &se) {
		t.Fatalf("got %v, want StateError", err)
	}
}

func TestAssignPastDeadline(t *testing.T) {
	vol := volunteer(1, models.LevelBeginner)
	s, repo, _ := newService(t, vol)
	task := mustCreate(t, s, models.DifficultyEasy)

	// age the stored deadline past now
	repo.mu.Lock()
	repo.tasks[task.ID].Deadline = time.Now().Add(-time.Minute)
	repo.mu.Unlock()

	_, err := s.Assign(context.Background(), vol, task.ID)
	var de *DeadlineError
	if !errors.As(err, &de) {
		t.Fatalf("got %v, want DeadlineError", err)
	}
}

func TestConcurrentAssignExactlyOneWins(t *testing.T) {
	a := volunteer(1, models.LevelBeginner)
	b := volunteer(2, models.LevelBeginner)
	s, _, _ := newService(t, a, b)
	task := mustCreate(t, s, models.DifficultyEasy)

	errs := make(chan error, 2)
	var wg sync.WaitGroup
	for _, v := range []*models.User{a, b} {
		wg.Add(1)
		go func(v *models.User) {
			defer wg.Done()
			_, err := s.Assign(context.Background(), v, task.ID)
			errs <- err
		}(v)
	}
	wg.Wait()
	close(errs)

	var okCount, stateCount int
	for err := range errs {
		if err == nil {
			okCount++
			continue
		}
		var se *StateError
		if errors.As(err, &se) {
			stateCount++
		} else {
			t.Fatalf("unexpected error kind: %v", err)
		}
	}
	if okCount != 1 || stateCount != 1 {
		t.Fatalf("got %d winners and %d state errors, want exactly 1 and 1", okCount, stateCount)
	}
}

func TestCompleteOnlyByAssignee(t *testing.T) {
	vol := volunteer(1, models.LevelBeginner)
	other := volunteer(2, models.LevelBeginner)
	s, _, _ := newService(t, vol, other)
	task := mustCreate(t, s, models.DifficultyEasy)

	if _, err := s.Assign(context.Background(), vol, task.ID); err != nil {
		t.Fatalf("assign: %v", err)
	}

	_, err := s.Complete(context.Background(), other, task.ID)
	var ae *AuthorizationError
	if !errors.As(err, &ae) {
		t.Fatalf("got %v, want AuthorizationError", err)
	}

	done, err := s.Complete(context.Background(), vol, task.ID)
	if err != nil {
		t.Fatalf("complete by assignee: %v", err)
	}
	if done.Status != models.StatusCompleted || done.CompletedAt == nil {
		t.Fatalf("completed task = %+v", done)
	}
}

func TestVerifyLifecycleAwardsTokens(t *testing.T) {
	vol := volunteer(1, models.LevelBeginner)
	s, _, rewards := newService(t, vol)
	ctx := context.Background()
	task := mustCreate(t, s, models.DifficultyEasy)

	if _, err := s.Assign(ctx, vol, task.ID); err != nil {
		t.Fatalf("assign: %v", err)
	}
	if _, err := s.Complete(ctx, vol, task.ID); err != nil {
		t.Fatalf("complete: %v", err)
	}

	verified, award, err := s.Verify(ctx, organizer(), task.ID)
	if err != nil {
		t.Fatalf("verify: %v", err)
	}
	if verified.Status != models.StatusVerified || verified.VerifiedAt == nil {
		t.Fatalf("verified task = %+v", verified)
	}
	if award.Amount != 10 {
		t.Errorf("award amount = %d, want 10", award.Amount)
	}

	balance, _ := rewards.Balance(ctx, vol.ID)
	if balance != 10 {
		t.Errorf("balance = %d, want 10", balance)
	}
	history, _ := rewards.History(ctx, vol.ID, 50)
	if len(history) != 1 || *history[0].TaskID != task.ID {
		t.Errorf("history = %+v, want one entry for task %d", history, task.ID)
	}
	if vol.Level != models.LevelBeginner {
		t.Errorf("level changed to %q after a single completion", vol.Level)
	}
}

func TestVerifyRequiresOrganizerAndCompletedStatus(t *testing.T) {
	vol := volunteer(1, models.LevelBeginner)
	s, _, _ := newService(t, vol)
	ctx := context.Background()
	task := mustCreate(t, s, models.DifficultyEasy)

	if _, _, err := s.Verify(ctx, vol, task.ID); err == nil {
		t.Fatal("volunteer verify should fail")
	} else {
		var ae *AuthorizationError
		if !errors.As(err, &ae) {
			t.Fatalf("got %v, want AuthorizationError", err)
		}
	}

	_, _, err := s.Verify(ctx, organizer(), task.ID)
	var se *StateError
	if !errors.As(err, &se) {
		t.Fatalf("verify open task: got %v, want StateError", err)
	}
}

func TestVerifyTwiceAwardsOnce(t *testing.T) {
	vol := volunteer(1, models.LevelBeginner)
	s, _, rewards := newService(t, vol)
	ctx := context.Background()
	task := mustCreate(t, s, models.DifficultyIntermediate)

	// beginner cannot take intermediate; promote the volunteer first
	vol.Level = models.LevelIntermediate

	if _, err := s.Assign(ctx, vol, task.ID); err != nil {
		t.Fatalf("assign: %v", err)
	}
	if _, err := s.Complete(ctx, vol, task.ID); err != nil {
		t.Fatalf("complete: %v", err)
	}
	if _, _, err := s.Verify(ctx, organizer(), task.ID); err != nil {
		t.Fatalf("first verify: %v", err)
	}

	_, _, err := s.Verify(ctx, organizer(), task.ID)
	var se *StateError
	if !errors.As(err, &se) {
		t.Fatalf("second verify: got %v, want StateError", err)
	}

	balance, _ := rewards.Balance(ctx, vol.ID)
	if balance != 25 {
		t.Errorf("balance = %d after double verify, want 25", balance)
	}
}

func TestDeleteAnyStatus(t *testing.T) {
	vol := volunteer(1, models.LevelBeginner)
	s, repo, _ := newService(t, vol)
	ctx := context.Background()
	task := mustCreate(t, s, models.DifficultyEasy)

	if _, err := s.Assign(ctx, vol, task.ID); err != nil {
		t.Fatalf("assign: %v", err)
	}
	if err := s.Delete(ctx, vol, task.ID); err == nil {
		t.Fatal("volunteer delete should fail")
	}
	if err := s.Delete(ctx, organizer(), task.ID); err != nil {
		t.Fatalf("organizer delete: %v", err)
	}
	if got, _ := repo.FindByID(ctx, task.ID); got != nil {
		t.Fatal("task still present after delete")
	}
	if err := s.Delete(ctx, organizer(), task.ID); err == nil {
		t.Fatal("delete of missing task should report not found")
	}
}

func TestListAvailableFiltersByLevelAndDeadline(t *testing.T) {
	vol := volunteer(1, models.LevelIntermediate)
	s, repo, _ := newService(t, vol)
	ctx := context.Background()

	easy := mustCreate(t, s, models.DifficultyEasy)
	mid := mustCreate(t, s, models.DifficultyIntermediate)
	mustCreate(t, s, models.DifficultyDifficult)
	expiredTask := mustCreate(t, s, models.DifficultyEasy)

	repo.mu.Lock()
	repo.tasks[expiredTask.ID].Deadline = time.Now().Add(-time.Hour)
	repo.mu.Unlock()

	tasks, err := s.ListAvailable(ctx, vol)
	if err != nil {
		t.Fatalf("list available: %v", err)
	}
	got := map[int64]bool{}
	for _, task := range tasks {
		got[task.ID] = true
	}
	if len(got) != 2 || !got[easy.ID] || !got[mid.ID] {
		t.Fatalf("available = %v, want exactly {%d, %d}", got, easy.ID, mid.ID)
	}
}
