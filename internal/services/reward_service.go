package services

import (
	"context"
	"errors"
	"time"

	"taskrewarder/internal/models"
	"taskrewarder/internal/pdf"
	"taskrewarder/internal/repositories"
)

const defaultHistoryLimit = 50

// RewardService owns the volunteer side of verification: balance, the
// append-only earned-token history and the level recalculation that rides
// along with every award.
type RewardService interface {
	AwardForTask(ctx context.Context, task *models.Task) (*models.AwardResult, error)
	Balance(ctx context.Context, volunteerID int64) (int, error)
	History(ctx context.Context, volunteerID int64, limit int) ([]models.Transaction, error)
	Statement(ctx context.Context, volunteer *models.User) (string, error)
}

type rewardService struct {
	transactions repositories.TransactionRepository
	users        repositories.UserRepository
	statements   pdf.Generator
}

func NewRewardService(transactions repositories.TransactionRepository, users repositories.UserRepository, statements pdf.Generator) RewardService {
	return &rewardService{
		transactions: transactions,
		users:        users,
		statements:   statements,
	}
}

func (s *rewardService) AwardForTask(ctx context.Context, task *models.Task) (*models.AwardResult, error) {
	result, err := s.transactions.AwardVerified(ctx, task, time.Now())
	if err != nil {
		if errors.Is(err, repositories.ErrConflict) {
			// Another verify won the race; the first award stands.
			return nil, &StateError{Status: models.StatusVerified, Op: "verify"}
		}
		return nil, err
	}
	return result, nil
}

// Balance reads the stored counter; it is the authoritative representation,
// the ledger rows are an audit trail.
func (s *rewardService) Balance(ctx context.Context, volunteerID int64) (int, error) {
	user, err := s.users.GetByID(ctx, volunteerID)
	if err != nil {
		return 0, err
	}
	if user == nil {
		return 0, &NotFoundError{Kind: "volunteer", ID: volunteerID}
	}
	return user.TotalTokens, nil
}

func (s *rewardService) History(ctx context.Context, volunteerID int64, limit int) ([]models.Transaction, error) {
	if limit <= 0 {
		limit = defaultHistoryLimit
	}
	return s.transactions.ListByUser(ctx, volunteerID, limit)
}

// Statement renders the volunteer's balance and earned-token history as a
// PDF and returns the file path.
func (s *rewardService) Statement(ctx context.Context, volunteer *models.User) (string, error) {
	history, err := s.History(ctx, volunteer.ID, defaultHistoryLimit)
	if err != nil {
		return "", err
	}
	lines := make([]pdf.StatementLine, 0, len(history))
	for _, tx := range history {
		lines = append(lines, pdf.StatementLine{
			When:        tx.Timestamp,
			Description: tx.Description,
			Amount:      tx.TokensEarned,
		})
	}
	return s.statements.GenerateStatement(pdf.StatementData{
		Username:       volunteer.Username,
		Level:          string(volunteer.Level),
		TotalTokens:    volunteer.TotalTokens,
		TasksCompleted: volunteer.TasksCompleted,
		Lines:          lines,
		CreatedAt:      time.Now(),
	})
}
