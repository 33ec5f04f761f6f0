// internal/handler/ledger.go
package handler

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"smartmoney/internal/banksim"
	"smartmoney/internal/domain"

	"github.com/gin-gonic/gin"
)

const recentFeedLimit = 5

type LedgerHandler struct {
	store CombinedStorage
	sim   *banksim.Simulator
}

func NewLedgerHandler(store CombinedStorage, sim *banksim.Simulator) *LedgerHandler {
	return &LedgerHandler{store: store, sim: sim}
}

type TransactionRequest struct {
	Amount       float64   `json:"amount"`
	Category     string    `json:"category"`
	MerchantName string    `json:"merchant_name"`
	Date         time.Time `json:"date"`
}

// AddTransaction records a manual transaction against the user's primary
// account. Amount, category and merchant are accepted as-is; the only
// checks are that the user and an account exist.
func (h *LedgerHandler) AddTransaction(c *gin.Context) {
	userID, err := userIDParam(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid user_id"})
		return
	}

	var req TransactionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid JSON"})
		return
	}

	if _, err := h.store.UserByID(context.Background(), userID); err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "User not found"})
			return
		}
		slog.Error("AddTransaction user lookup failed", "error", err, "user_id", userID)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal error"})
		return
	}

	date := req.Date
	if date.IsZero() {
		date = time.Now().UTC()
	}

	account, err := h.store.AddTransaction(context.Background(), userID, domain.TransactionDraft{
		Amount:       req.Amount,
		Category:     req.Category,
		MerchantName: req.MerchantName,
		Date:         date,
	})
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "No accounts found"})
			return
		}
		slog.Error("AddTransaction failed", "error", err, "user_id", userID)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to add transaction"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message":     "Transaction added",
		"new_balance": account.Balance,
	})
}

// BankSync fabricates a batch of bank activity and applies it as one unit.
// The user's account is created on demand; repeat calls keep producing new
// activity on purpose.
func (h *LedgerHandler) BankSync(c *gin.Context) {
	userID, err := userIDParam(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid user_id"})
		return
	}

	if _, err := h.store.UserByID(context.Background(), userID); err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "User not found"})
			return
		}
		slog.Error("BankSync user lookup failed", "error", err, "user_id", userID)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal error"})
		return
	}

	drafts := h.sim.Generate()
	account, err := h.store.SyncTransactions(context.Background(), userID,
		banksim.DefaultInstitution, banksim.DefaultAccountType, drafts)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "User not found"})
			return
		}
		slog.Error("BankSync failed", "error", err, "user_id", userID)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Sync failed"})
		return
	}

	slog.Info("Bank sync completed", "user_id", userID, "count", len(drafts), "balance", account.Balance)
	c.JSON(http.StatusOK, gin.H{
		"message":      fmt.Sprintf("Successfully synced %d new transactions from %s.", len(drafts), account.InstitutionName),
		"new_balance":  account.Balance,
		"synced_count": len(drafts),
	})
}

// Dashboard aggregates the total balance and the five most recent
// transactions.
func (h *LedgerHandler) Dashboard(c *gin.Context) {
	userID, err := userIDParam(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid user_id"})
		return
	}

	user, err := h.store.UserByID(context.Background(), userID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "User not found"})
			return
		}
		slog.Error("Dashboard user lookup failed", "error", err, "user_id", userID)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal error"})
		return
	}

	total, err := h.store.TotalBalance(context.Background(), userID)
	if err != nil {
		slog.Error("Dashboard balance failed", "error", err, "user_id", userID)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal error"})
		return
	}

	recent, err := h.store.RecentTransactions(context.Background(), userID, recentFeedLimit)
	if err != nil {
		slog.Error("Dashboard transactions failed", "error", err, "user_id", userID)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal error"})
		return
	}

	feed := make([]gin.H, 0, len(recent))
	for _, tx := range recent {
		txType := "expense"
		if tx.Amount > 0 {
			txType = "income"
		}
		feed = append(feed, gin.H{
			"id":       tx.ID,
			"title":    tx.MerchantName,
			"amount":   tx.Amount,
			"date":     tx.Date.Format("2006-01-02"),
			"type":     txType,
			"category": tx.Category,
		})
	}

	c.JSON(http.StatusOK, gin.H{
		"user":                user.FullName,
		"total_balance":       total,
		"currency":            user.CurrencyPref,
		"recent_transactions": feed,
	})
}

func (h *LedgerHandler) Subscriptions(c *gin.Context) {
	userID, err := userIDParam(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid user_id"})
		return
	}

	subs, err := h.store.Subscriptions(context.Background(), userID)
	if err != nil {
		slog.Error("Subscriptions failed", "error", err, "user_id", userID)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal error"})
		return
	}
	if subs == nil {
		subs = []domain.Subscription{}
	}
	c.JSON(http.StatusOK, subs)
}

func (h *LedgerHandler) Achievements(c *gin.Context) {
	userID, err := userIDParam(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid user_id"})
		return
	}

	achs, err := h.store.Achievements(context.Background(), userID)
	if err != nil {
		slog.Error("Achievements failed", "error", err, "user_id", userID)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal error"})
		return
	}
	if achs == nil {
		achs = []domain.Achievement{}
	}
	c.JSON(http.StatusOK, achs)
}
