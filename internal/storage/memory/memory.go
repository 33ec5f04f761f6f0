// internal/storage/memory/memory.go
//
// In-memory implementation of the storage interfaces. Backs unit tests and
// local development without Postgres. A single mutex makes every method a
// unit of work, mirroring the per-request transactions of the postgres
// implementation.
package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"smartmoney/internal/domain"
)

type Storage struct {
	mu sync.Mutex

	users         map[int64]*domain.User
	accounts      map[int64]*domain.Account
	transactions  []domain.Transaction
	subscriptions []domain.Subscription
	achievements  []domain.Achievement

	nextUserID    int64
	nextAccountID int64
	nextTxID      int64
	nextRecordID  int64

	// syncHook, when set, runs after each staged draft during
	// SyncTransactions. Fault injection point for crash-consistency tests:
	// an error from it must leave the store untouched.
	syncHook func(applied int) error
}

func NewStorage() *Storage {
	return &Storage{
		users:    make(map[int64]*domain.User),
		accounts: make(map[int64]*domain.Account),
	}
}

// SetSyncHook installs a fault-injection hook for tests.
func (s *Storage) SetSyncHook(hook func(applied int) error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.syncHook = hook
}

// === UserStorage ===

func (s *Storage) CreateUser(ctx context.Context, user domain.User, account domain.Account) (*domain.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, u := range s.users {
		if u.Email == user.Email {
			return nil, domain.ErrEmailTaken
		}
	}

	s.nextUserID++
	created := user
	created.ID = s.nextUserID
	if created.CreatedAt.IsZero() {
		created.CreatedAt = time.Now().UTC()
	}
	s.users[created.ID] = &created

	s.nextAccountID++
	acc := account
	acc.ID = s.nextAccountID
	acc.UserID = created.ID
	s.accounts[acc.ID] = &acc

	out := created
	return &out, nil
}

func (s *Storage) UserByEmail(ctx context.Context, email string) (*domain.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, u := range s.users {
		if u.Email == email {
			out := *u
			return &out, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (s *Storage) UserByID(ctx context.Context, id int64) (*domain.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	out := *u
	return &out, nil
}

// === LedgerStorage ===

// primaryAccount returns the user's first account by id. Caller holds the lock.
func (s *Storage) primaryAccount(userID int64) *domain.Account {
	var found *domain.Account
	for _, acc := range s.accounts {
		if acc.UserID != userID {
			continue
		}
		if found == nil || acc.ID < found.ID {
			found = acc
		}
	}
	return found
}

func (s *Storage) AddTransaction(ctx context.Context, userID int64, draft domain.TransactionDraft) (*domain.Account, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.users[userID]; !ok {
		return nil, domain.ErrNotFound
	}
	acc := s.primaryAccount(userID)
	if acc == nil {
		return nil, domain.ErrNotFound
	}

	s.nextTxID++
	s.transactions = append(s.transactions, domain.Transaction{
		ID:           s.nextTxID,
		UserID:       userID,
		AccountID:    acc.ID,
		Amount:       draft.Amount,
		Category:     draft.Category,
		MerchantName: draft.MerchantName,
		Description:  draft.Description,
		Date:         draft.Date,
	})
	acc.Balance += draft.Amount

	out := *acc
	return &out, nil
}

func (s *Storage) SyncTransactions(ctx context.Context, userID int64, institution, accountType string, drafts []domain.TransactionDraft) (*domain.Account, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.users[userID]; !ok {
		return nil, domain.ErrNotFound
	}

	acc := s.primaryAccount(userID)
	createAccount := acc == nil
	if createAccount {
		acc = &domain.Account{
			ID:              s.nextAccountID + 1,
			UserID:          userID,
			InstitutionName: institution,
			AccountType:     accountType,
		}
	}

	// Stage everything first; nothing is visible until the batch survives
	// the hook. Either all drafts land together with the balance update,
	// or none do.
	staged := make([]domain.Transaction, 0, len(drafts))
	var delta float64
	for i, d := range drafts {
		staged = append(staged, domain.Transaction{
			ID:           s.nextTxID + int64(i) + 1,
			UserID:       userID,
			AccountID:    acc.ID,
			Amount:       d.Amount,
			Category:     d.Category,
			MerchantName: d.MerchantName,
			Description:  d.Description,
			Date:         d.Date,
		})
		delta += d.Amount
		if s.syncHook != nil {
			if err := s.syncHook(i + 1); err != nil {
				return nil, err
			}
		}
	}

	if createAccount {
		s.nextAccountID++
		s.accounts[acc.ID] = acc
	}
	s.transactions = append(s.transactions, staged...)
	s.nextTxID += int64(len(staged))
	acc.Balance += delta

	out := *acc
	return &out, nil
}

func (s *Storage) TotalBalance(ctx context.Context, userID int64) (float64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var total float64
	for _, acc := range s.accounts {
		if acc.UserID == userID {
			total += acc.Balance
		}
	}
	return total, nil
}

func (s *Storage) RecentTransactions(ctx context.Context, userID int64, limit int) ([]domain.Transaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var txs []domain.Transaction
	for _, t := range s.transactions {
		if t.UserID == userID {
			txs = append(txs, t)
		}
	}
	// Date descending, insertion order (id) breaking ties.
	sort.SliceStable(txs, func(i, j int) bool {
		if !txs[i].Date.Equal(txs[j].Date) {
			return txs[i].Date.After(txs[j].Date)
		}
		return txs[i].ID > txs[j].ID
	})
	if limit > 0 && len(txs) > limit {
		txs = txs[:limit]
	}
	return txs, nil
}

// === ProfileStorage ===

func (s *Storage) Subscriptions(ctx context.Context, userID int64) ([]domain.Subscription, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var subs []domain.Subscription
	for _, sub := range s.subscriptions {
		if sub.UserID == userID {
			subs = append(subs, sub)
		}
	}
	return subs, nil
}

func (s *Storage) Achievements(ctx context.Context, userID int64) ([]domain.Achievement, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var achs []domain.Achievement
	for _, a := range s.achievements {
		if a.UserID == userID {
			achs = append(achs, a)
		}
	}
	return achs, nil
}

func (s *Storage) CreateSubscription(ctx context.Context, sub domain.Subscription) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextRecordID++
	sub.ID = s.nextRecordID
	s.subscriptions = append(s.subscriptions, sub)
	return nil
}

func (s *Storage) CreateAchievement(ctx context.Context, ach domain.Achievement) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextRecordID++
	ach.ID = s.nextRecordID
	s.achievements = append(s.achievements, ach)
	return nil
}

// AddUser inserts a user without any account, as syncs against pre-account
// users need. Test fixture only; the real registration path always pairs a
// user with its default account.
func (s *Storage) AddUser(user domain.User) int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextUserID++
	user.ID = s.nextUserID
	if user.CreatedAt.IsZero() {
		user.CreatedAt = time.Now().UTC()
	}
	s.users[user.ID] = &user
	return user.ID
}

// TransactionCount reports how many transactions exist for the user.
// Test helper.
func (s *Storage) TransactionCount(userID int64) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, t := range s.transactions {
		if t.UserID == userID {
			n++
		}
	}
	return n
}

// AccountCount reports how many accounts exist for the user. Test helper.
func (s *Storage) AccountCount(userID int64) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, acc := range s.accounts {
		if acc.UserID == userID {
			n++
		}
	}
	return n
}
