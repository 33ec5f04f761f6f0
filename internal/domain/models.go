// internal/domain/models.go
package domain

import "time"

type User struct {
	ID           int64     `json:"id"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	FullName     string    `json:"full_name"`
	CurrencyPref string    `json:"currency_pref"`
	CreatedAt    time.Time `json:"created_at"`
}

// Account belongs to exactly one user. Balance is maintained incrementally:
// every transaction insert adds its signed amount in the same store tx.
type Account struct {
	ID              int64   `json:"id"`
	UserID          int64   `json:"-"`
	InstitutionName string  `json:"institution_name"`
	AccountType     string  `json:"account_type"`
	Balance         float64 `json:"balance"`
	IsConnected     bool    `json:"is_connected"`
}

// Transaction is immutable once created. Positive amount = income,
// negative = expense.
type Transaction struct {
	ID           int64     `json:"id"`
	UserID       int64     `json:"-"`
	AccountID    int64     `json:"account_id"`
	Amount       float64   `json:"amount"`
	Category     string    `json:"category"`
	MerchantName string    `json:"merchant_name"`
	Description  string    `json:"description,omitempty"`
	Date         time.Time `json:"date"`
	IsRecurring  bool      `json:"is_recurring"`
}

// TransactionDraft is a transaction that has not been attached to an
// account yet. Category and merchant are opaque strings here: the ledger
// does not validate them.
type TransactionDraft struct {
	Amount       float64
	Category     string
	MerchantName string
	Description  string
	Date         time.Time
}

type Subscription struct {
	ID       int64   `json:"id"`
	UserID   int64   `json:"-"`
	Name     string  `json:"name"`
	Price    float64 `json:"price"`
	DueDate  string  `json:"due_date"`
	Cycle    string  `json:"cycle"`
	LogoText string  `json:"logo_text"`
	Color    string  `json:"color"`
}

type Achievement struct {
	ID          int64   `json:"id"`
	UserID      int64   `json:"-"`
	Title       string  `json:"title"`
	Description string  `json:"description"`
	Progress    float64 `json:"progress"`
	Completed   bool    `json:"completed"`
	IconType    string  `json:"icon_type"`
	ColorClass  string  `json:"color_class"`
}

// Receipt is the structured result of scanning a receipt image.
type Receipt struct {
	MerchantName string  `json:"merchant_name"`
	TotalAmount  float64 `json:"total_amount"`
	Date         string  `json:"date"`
	Category     string  `json:"category"`
}
