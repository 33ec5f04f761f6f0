// internal/storage/postgres/postgres.go
package postgres

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"smartmoney/internal/domain"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/sethvargo/go-retry"
)

type Storage struct {
	db *pgxpool.Pool
}

func NewStorage(db *pgxpool.Pool) *Storage {
	return &Storage{db: db}
}

const uniqueViolation = "23505"

// Serialization failures and deadlocks from overlapping ledger writes are
// retried; everything else is surfaced as-is.
func isRetryable(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "40001" || pgErr.Code == "40P01"
	}
	return false
}

func (s *Storage) withRetry(ctx context.Context, fn func(ctx context.Context) error) error {
	backoff := retry.WithMaxRetries(3, retry.NewFibonacci(10*time.Millisecond))
	return retry.Do(ctx, backoff, func(ctx context.Context) error {
		err := fn(ctx)
		if isRetryable(err) {
			return retry.RetryableError(err)
		}
		return err
	})
}

// === UserStorage ===

func (s *Storage) CreateUser(ctx context.Context, user domain.User, account domain.Account) (*domain.User, error) {
	tx, err := s.db.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	created := user
	err = tx.QueryRow(ctx, `
		INSERT INTO users (email, password_hash, full_name, currency_pref)
		VALUES ($1, $2, $3, $4)
		RETURNING id, created_at
	`, user.Email, user.PasswordHash, user.FullName, user.CurrencyPref).Scan(&created.ID, &created.CreatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return nil, domain.ErrEmailTaken
		}
		return nil, fmt.Errorf("insert user: %w", err)
	}

	_, err = tx.Exec(ctx, `
		INSERT INTO accounts (user_id, institution_name, account_type, balance, is_connected)
		VALUES ($1, $2, $3, $4, $5)
	`, created.ID, account.InstitutionName, account.AccountType, account.Balance, account.IsConnected)
	if err != nil {
		return nil, fmt.Errorf("insert default account: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit tx: %w", err)
	}

	slog.Debug("user created", "user_id", created.ID, "email", created.Email)
	return &created, nil
}

func (s *Storage) UserByEmail(ctx context.Context, email string) (*domain.User, error) {
	return s.scanUser(s.db.QueryRow(ctx, `
		SELECT id, email, password_hash, full_name, currency_pref, created_at
		FROM users WHERE email = $1
	`, email))
}

func (s *Storage) UserByID(ctx context.Context, id int64) (*domain.User, error) {
	return s.scanUser(s.db.QueryRow(ctx, `
		SELECT id, email, password_hash, full_name, currency_pref, created_at
		FROM users WHERE id = $1
	`, id))
}

func (s *Storage) scanUser(row pgx.Row) (*domain.User, error) {
	var u domain.User
	err := row.Scan(&u.ID, &u.Email, &u.PasswordHash, &u.FullName, &u.CurrencyPref, &u.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("scan user: %w", err)
	}
	return &u, nil
}

// === LedgerStorage ===

// lockPrimaryAccount selects the user's first account FOR UPDATE so two
// concurrent balance updates cannot drop an increment.
func lockPrimaryAccount(ctx context.Context, tx pgx.Tx, userID int64) (*domain.Account, error) {
	var acc domain.Account
	err := tx.QueryRow(ctx, `
		SELECT id, user_id, institution_name, account_type, balance, is_connected
		FROM accounts
		WHERE user_id = $1
		ORDER BY id
		LIMIT 1
		FOR UPDATE
	`, userID).Scan(&acc.ID, &acc.UserID, &acc.InstitutionName, &acc.AccountType, &acc.Balance, &acc.IsConnected)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("lock account: %w", err)
	}
	return &acc, nil
}

func insertTransaction(ctx context.Context, tx pgx.Tx, userID, accountID int64, d domain.TransactionDraft) error {
	_, err := tx.Exec(ctx, `
		INSERT INTO transactions (user_id, account_id, amount, category, merchant_name, description, date)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`, userID, accountID, d.Amount, d.Category, d.MerchantName, d.Description, d.Date)
	if err != nil {
		return fmt.Errorf("insert transaction: %w", err)
	}
	return nil
}

func (s *Storage) AddTransaction(ctx context.Context, userID int64, draft domain.TransactionDraft) (*domain.Account, error) {
	var result *domain.Account
	err := s.withRetry(ctx, func(ctx context.Context) error {
		tx, err := s.db.Begin(ctx)
		if err != nil {
			return fmt.Errorf("begin tx: %w", err)
		}
		defer tx.Rollback(ctx)

		acc, err := lockPrimaryAccount(ctx, tx, userID)
		if err != nil {
			return err
		}

		if err := insertTransaction(ctx, tx, userID, acc.ID, draft); err != nil {
			return err
		}

		err = tx.QueryRow(ctx, `
			UPDATE accounts SET balance = balance + $1 WHERE id = $2
			RETURNING balance
		`, draft.Amount, acc.ID).Scan(&acc.Balance)
		if err != nil {
			return fmt.Errorf("update balance: %w", err)
		}

		if err := tx.Commit(ctx); err != nil {
			return fmt.Errorf("commit tx: %w", err)
		}
		result = acc
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

func (s *Storage) SyncTransactions(ctx context.Context, userID int64, institution, accountType string, drafts []domain.TransactionDraft) (*domain.Account, error) {
	var result *domain.Account
	err := s.withRetry(ctx, func(ctx context.Context) error {
		tx, err := s.db.Begin(ctx)
		if err != nil {
			return fmt.Errorf("begin tx: %w", err)
		}
		defer tx.Rollback(ctx)

		// Serializes syncs per user so two racing syncs against an
		// account-less user cannot both take the creation path.
		if _, err := tx.Exec(ctx, `SELECT pg_advisory_xact_lock($1)`, userID); err != nil {
			return fmt.Errorf("acquire sync lock: %w", err)
		}

		var exists bool
		if err := tx.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM users WHERE id = $1)`, userID).Scan(&exists); err != nil {
			return fmt.Errorf("check user: %w", err)
		}
		if !exists {
			return domain.ErrNotFound
		}

		acc, err := lockPrimaryAccount(ctx, tx, userID)
		if errors.Is(err, domain.ErrNotFound) {
			acc = &domain.Account{UserID: userID, InstitutionName: institution, AccountType: accountType}
			err = tx.QueryRow(ctx, `
				INSERT INTO accounts (user_id, institution_name, account_type, balance)
				VALUES ($1, $2, $3, 0)
				RETURNING id
			`, userID, institution, accountType).Scan(&acc.ID)
			if err != nil {
				return fmt.Errorf("create account: %w", err)
			}
		} else if err != nil {
			return err
		}

		var delta float64
		for _, d := range drafts {
			if err := insertTransaction(ctx, tx, userID, acc.ID, d); err != nil {
				return err
			}
			delta += d.Amount
		}

		err = tx.QueryRow(ctx, `
			UPDATE accounts SET balance = balance + $1 WHERE id = $2
			RETURNING balance
		`, delta, acc.ID).Scan(&acc.Balance)
		if err != nil {
			return fmt.Errorf("update balance: %w", err)
		}

		if err := tx.Commit(ctx); err != nil {
			return fmt.Errorf("commit tx: %w", err)
		}
		result = acc
		return nil
	})
	if err != nil {
		return nil, err
	}
	slog.Debug("sync batch committed", "user_id", userID, "count", len(drafts), "balance", result.Balance)
	return result, nil
}

func (s *Storage) TotalBalance(ctx context.Context, userID int64) (float64, error) {
	var total float64
	err := s.db.QueryRow(ctx, `
		SELECT COALESCE(SUM(balance), 0) FROM accounts WHERE user_id = $1
	`, userID).Scan(&total)
	if err != nil {
		return 0, fmt.Errorf("total balance: %w", err)
	}
	return total, nil
}

func (s *Storage) RecentTransactions(ctx context.Context, userID int64, limit int) ([]domain.Transaction, error) {
	rows, err := s.db.Query(ctx, `
		SELECT id, user_id, account_id, amount, category, merchant_name, COALESCE(description, ''), date, is_recurring
		FROM transactions
		WHERE user_id = $1
		ORDER BY date DESC, id DESC
		LIMIT $2
	`, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("query transactions: %w", err)
	}
	defer rows.Close()

	var txs []domain.Transaction
	for rows.Next() {
		var t domain.Transaction
		if err := rows.Scan(&t.ID, &t.UserID, &t.AccountID, &t.Amount, &t.Category, &t.MerchantName, &t.Description, &t.Date, &t.IsRecurring); err != nil {
			return nil, fmt.Errorf("scan transaction: %w", err)
		}
		txs = append(txs, t)
	}
	return txs, rows.Err()
}

// === ProfileStorage ===

func (s *Storage) Subscriptions(ctx context.Context, userID int64) ([]domain.Subscription, error) {
	rows, err := s.db.Query(ctx, `
		SELECT id, user_id, name, price, due_date, cycle, logo_text, color
		FROM subscriptions
		WHERE user_id = $1
		ORDER BY id
	`, userID)
	if err != nil {
		return nil, fmt.Errorf("query subscriptions: %w", err)
	}
	defer rows.Close()

	var subs []domain.Subscription
	for rows.Next() {
		var sub domain.Subscription
		if err := rows.Scan(&sub.ID, &sub.UserID, &sub.Name, &sub.Price, &sub.DueDate, &sub.Cycle, &sub.LogoText, &sub.Color); err != nil {
			return nil, fmt.Errorf("scan subscription: %w", err)
		}
		subs = append(subs, sub)
	}
	return subs, rows.Err()
}

func (s *Storage) Achievements(ctx context.Context, userID int64) ([]domain.Achievement, error) {
	rows, err := s.db.Query(ctx, `
		SELECT id, user_id, title, description, progress, completed, icon_type, color_class
		FROM achievements
		WHERE user_id = $1
		ORDER BY id
	`, userID)
	if err != nil {
		return nil, fmt.Errorf("query achievements: %w", err)
	}
	defer rows.Close()

	var achs []domain.Achievement
	for rows.Next() {
		var a domain.Achievement
		if err := rows.Scan(&a.ID, &a.UserID, &a.Title, &a.Description, &a.Progress, &a.Completed, &a.IconType, &a.ColorClass); err != nil {
			return nil, fmt.Errorf("scan achievement: %w", err)
		}
		achs = append(achs, a)
	}
	return achs, rows.Err()
}

func (s *Storage) CreateSubscription(ctx context.Context, sub domain.Subscription) error {
	_, err := s.db.Exec(ctx, `
		INSERT INTO subscriptions (user_id, name, price, due_date, cycle, logo_text, color)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`, sub.UserID, sub.Name, sub.Price, sub.DueDate, sub.Cycle, sub.LogoText, sub.Color)
	if err != nil {
		return fmt.Errorf("insert subscription: %w", err)
	}
	return nil
}

func (s *Storage) CreateAchievement(ctx context.Context, ach domain.Achievement) error {
	_, err := s.db.Exec(ctx, `
		INSERT INTO achievements (user_id, title, description, progress, completed, icon_type, color_class)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`, ach.UserID, ach.Title, ach.Description, ach.Progress, ach.Completed, ach.IconType, ach.ColorClass)
	if err != nil {
		return fmt.Errorf("insert achievement: %w", err)
	}
	return nil
}
