package models

import "time"

// TransactionType is the ledger entry kind. Only "earned" entries are
// produced today; "redeemed" is reserved so stored data stays readable once a
// spending path exists.
type TransactionType string

const (
	TxEarned   TransactionType = "earned"
	TxRedeemed TransactionType = "redeemed"
)

// Transaction is an immutable ledger record of tokens credited to a
// volunteer. Rows are append-only; the ordered "earned" history is also the
// volunteer's completed-task sequence.
type Transaction struct {
	ID           int64           `json:"id"`
	UserID       int64           `json:"userId"`
	TaskID       *int64          `json:"taskId"`
	TokensEarned int             `json:"tokensEarned"`
	Type         TransactionType `json:"transactionType"`
	Description  string          `json:"description,omitempty"`
	Timestamp    time.Time       `json:"timestamp"`
}

// AwardResult reports the volunteer-side effect of a verification.
type AwardResult struct {
	Volunteer     *User
	TransactionID int64
	Amount        int
	OldLevel      Level
	NewLevel      Level
}

// LeveledUp reports whether the award crossed a level threshold. Callers use
// it to send the advisory level-up notification.
func (r *AwardResult) LeveledUp() bool {
	return r.OldLevel != r.NewLevel
}
