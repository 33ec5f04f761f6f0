// internal/storage/storage.go
package storage

import (
	"context"

	"smartmoney/internal/domain"
)

type UserStorage interface {
	// CreateUser persists the user together with its default account in one
	// unit. Returns domain.ErrEmailTaken on a duplicate email.
	CreateUser(ctx context.Context, user domain.User, account domain.Account) (*domain.User, error)
	UserByEmail(ctx context.Context, email string) (*domain.User, error)
	UserByID(ctx context.Context, id int64) (*domain.User, error)
}

// LedgerStorage is the write path for the balance invariant:
// account.balance must equal the running sum of its transactions' signed
// amounts, updated in the same unit of work as every insert.
type LedgerStorage interface {
	// AddTransaction applies one draft to the user's primary account.
	// Returns domain.ErrNotFound if the user or the account is missing.
	AddTransaction(ctx context.Context, userID int64, draft domain.TransactionDraft) (*domain.Account, error)

	// SyncTransactions applies a generated batch as one unit, creating the
	// user's account on demand (institution/accountType, opening balance 0)
	// when none exists. Returns domain.ErrNotFound for an unknown user;
	// in that case nothing is written.
	SyncTransactions(ctx context.Context, userID int64, institution, accountType string, drafts []domain.TransactionDraft) (*domain.Account, error)

	TotalBalance(ctx context.Context, userID int64) (float64, error)
	// RecentTransactions orders by date descending, insertion order
	// breaking ties.
	RecentTransactions(ctx context.Context, userID int64, limit int) ([]domain.Transaction, error)
}

type ProfileStorage interface {
	Subscriptions(ctx context.Context, userID int64) ([]domain.Subscription, error)
	Achievements(ctx context.Context, userID int64) ([]domain.Achievement, error)
	CreateSubscription(ctx context.Context, sub domain.Subscription) error
	CreateAchievement(ctx context.Context, ach domain.Achievement) error
}
