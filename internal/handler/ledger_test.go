// internal/handler/ledger_test.go
package handler_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math/rand"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"smartmoney/internal/auth"
	"smartmoney/internal/banksim"
	"smartmoney/internal/config"
	"smartmoney/internal/domain"
	"smartmoney/internal/handler"
	"smartmoney/internal/middleware"
	"smartmoney/internal/storage/memory"

	"github.com/gin-gonic/gin"
)

// stubGateway satisfies handler.Gateway without talking to any model.
type stubGateway struct {
	reply   string
	receipt *domain.Receipt
	err     error
}

func (g *stubGateway) Chat(ctx context.Context, prompt string) (string, error) {
	return g.reply, g.err
}

func (g *stubGateway) ScanReceipt(ctx context.Context, img []byte, mimeType string) (*domain.Receipt, error) {
	return g.receipt, g.err
}

func newTestRouter(store *memory.Storage, gw handler.Gateway) *gin.Engine {
	gin.SetMode(gin.TestMode)

	cfg := config.Config{JWTSecret: "test-secret", JWTExpiresIn: time.Hour}
	tokens := auth.NewTokenService(cfg)
	authMw := middleware.NewAuthMiddleware(tokens)
	sim := banksim.New(rand.New(rand.NewSource(1)))

	authHandler := handler.NewAuthHandler(store, tokens)
	ledgerHandler := handler.NewLedgerHandler(store, sim)
	assistantHandler := handler.NewAssistantHandler(store, gw)

	router := gin.New()
	router.POST("/auth/register", authHandler.Register)
	router.POST("/auth/login", authHandler.Login)
	router.GET("/profile", authMw.RequireAuth(), authHandler.Profile)
	router.GET("/dashboard/:user_id", ledgerHandler.Dashboard)
	router.GET("/subscriptions/:user_id", ledgerHandler.Subscriptions)
	router.GET("/achievements/:user_id", ledgerHandler.Achievements)
	router.POST("/transactions/:user_id", ledgerHandler.AddTransaction)
	router.POST("/bank/sync/:user_id", ledgerHandler.BankSync)
	router.POST("/chat/:user_id", assistantHandler.Chat)
	return router
}

func doJSON(t *testing.T, router *gin.Engine, method, path string, body any) (*httptest.ResponseRecorder, map[string]any) {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatal(err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	resp := map[string]any{}
	if len(w.Body.Bytes()) > 0 && w.Body.Bytes()[0] == '{' {
		if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
			t.Fatalf("unmarshal %q: %v", w.Body.String(), err)
		}
	}
	return w, resp
}

func register(t *testing.T, router *gin.Engine, email string) int64 {
	t.Helper()
	w, resp := doJSON(t, router, http.MethodPost, "/auth/register", gin.H{
		"email": email, "password": "secret", "full_name": "Test User",
	})
	if w.Code != http.StatusOK {
		t.Fatalf("register status=%d body=%s", w.Code, w.Body.String())
	}
	return int64(resp["user_id"].(float64))
}

func TestRegisterTransactionDashboardFlow(t *testing.T) {
	store := memory.NewStorage()
	router := newTestRouter(store, nil)

	userID := register(t, router, "flow@example.com")

	w, resp := doJSON(t, router, http.MethodPost, fmt.Sprintf("/transactions/%d", userID), gin.H{
		"amount": -15000.0, "category": "Shopping", "merchant_name": "Jumia Nigeria",
	})
	if w.Code != http.StatusOK {
		t.Fatalf("add transaction status=%d body=%s", w.Code, w.Body.String())
	}
	if got := resp["new_balance"].(float64); got != -15000 {
		t.Fatalf("new_balance=%.2f want=-15000.00", got)
	}
	if n := store.TransactionCount(userID); n != 1 {
		t.Fatalf("transactions=%d want=1", n)
	}

	w, resp = doJSON(t, router, http.MethodGet, fmt.Sprintf("/dashboard/%d", userID), nil)
	if w.Code != http.StatusOK {
		t.Fatalf("dashboard status=%d", w.Code)
	}
	if got := resp["total_balance"].(float64); got != -15000 {
		t.Fatalf("total_balance=%.2f want=-15000.00", got)
	}
	feed := resp["recent_transactions"].([]any)
	if len(feed) != 1 {
		t.Fatalf("feed len=%d want=1", len(feed))
	}
	first := feed[0].(map[string]any)
	if first["title"] != "Jumia Nigeria" || first["type"] != "expense" {
		t.Fatalf("unexpected feed entry: %+v", first)
	}
}

func TestRegisterDuplicateEmail(t *testing.T) {
	store := memory.NewStorage()
	router := newTestRouter(store, nil)

	register(t, router, "dup@example.com")
	w, _ := doJSON(t, router, http.MethodPost, "/auth/register", gin.H{
		"email": "dup@example.com", "password": "secret", "full_name": "Other",
	})
	if w.Code != http.StatusConflict {
		t.Fatalf("status=%d want=409", w.Code)
	}
}

func TestAddTransactionUnknownUser(t *testing.T) {
	router := newTestRouter(memory.NewStorage(), nil)
	w, _ := doJSON(t, router, http.MethodPost, "/transactions/99", gin.H{"amount": -1.0})
	if w.Code != http.StatusNotFound {
		t.Fatalf("status=%d want=404", w.Code)
	}
}

func TestBankSyncUnknownUser(t *testing.T) {
	store := memory.NewStorage()
	router := newTestRouter(store, nil)

	w, _ := doJSON(t, router, http.MethodPost, "/bank/sync/99", nil)
	if w.Code != http.StatusNotFound {
		t.Fatalf("status=%d want=404", w.Code)
	}
	if n := store.TransactionCount(99); n != 0 {
		t.Fatalf("transactions=%d want=0", n)
	}
	if n := store.AccountCount(99); n != 0 {
		t.Fatalf("accounts=%d want=0", n)
	}
}

func TestBankSyncLazyAccountAndBalance(t *testing.T) {
	store := memory.NewStorage()
	router := newTestRouter(store, nil)
	userID := store.AddUser(domain.User{Email: "bare@example.com", FullName: "Bare"})

	w, resp := doJSON(t, router, http.MethodPost, fmt.Sprintf("/bank/sync/%d", userID), nil)
	if w.Code != http.StatusOK {
		t.Fatalf("sync status=%d body=%s", w.Code, w.Body.String())
	}

	count := int(resp["synced_count"].(float64))
	if count < 3 || count > 6 {
		t.Fatalf("synced_count=%d outside [3,6]", count)
	}
	if n := store.TransactionCount(userID); n != count {
		t.Fatalf("transactions=%d want=%d", n, count)
	}
	if n := store.AccountCount(userID); n != 1 {
		t.Fatalf("accounts=%d want=1", n)
	}

	// The fresh account opened at 0, so the reported balance is exactly
	// the sum of the generated amounts.
	txs, err := store.RecentTransactions(context.Background(), userID, 100)
	if err != nil {
		t.Fatal(err)
	}
	var sum float64
	for _, tx := range txs {
		sum += tx.Amount
	}
	if got := resp["new_balance"].(float64); got != sum {
		t.Fatalf("new_balance=%.2f want=%.2f", got, sum)
	}

	// Second sync reuses the account.
	w, _ = doJSON(t, router, http.MethodPost, fmt.Sprintf("/bank/sync/%d", userID), nil)
	if w.Code != http.StatusOK {
		t.Fatalf("second sync status=%d", w.Code)
	}
	if n := store.AccountCount(userID); n != 1 {
		t.Fatalf("accounts after second sync=%d want=1", n)
	}
}

func TestLoginErrors(t *testing.T) {
	store := memory.NewStorage()
	router := newTestRouter(store, nil)
	register(t, router, "login@example.com")

	w, _ := doJSON(t, router, http.MethodPost, "/auth/login", gin.H{
		"email": "nobody@example.com", "password": "secret",
	})
	if w.Code != http.StatusNotFound {
		t.Fatalf("unknown email status=%d want=404", w.Code)
	}

	w, _ = doJSON(t, router, http.MethodPost, "/auth/login", gin.H{
		"email": "login@example.com", "password": "wrong",
	})
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("bad password status=%d want=401", w.Code)
	}

	w, _ = doJSON(t, router, http.MethodPost, "/auth/login", gin.H{
		"email": "login@example.com", "password": "secret",
	})
	if w.Code != http.StatusOK {
		t.Fatalf("login status=%d want=200", w.Code)
	}
}

func TestProfileRequiresToken(t *testing.T) {
	store := memory.NewStorage()
	router := newTestRouter(store, nil)
	register(t, router, "profile@example.com")

	w, _ := doJSON(t, router, http.MethodGet, "/profile", nil)
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("no token status=%d want=401", w.Code)
	}

	_, resp := doJSON(t, router, http.MethodPost, "/auth/login", gin.H{
		"email": "profile@example.com", "password": "secret",
	})
	token := resp["token"].(string)

	req := httptest.NewRequest(http.MethodGet, "/profile", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	w2 := httptest.NewRecorder()
	router.ServeHTTP(w2, req)
	if w2.Code != http.StatusOK {
		t.Fatalf("with token status=%d body=%s", w2.Code, w2.Body.String())
	}
}

// Gateway failures degrade into a valid payload; ledger state is never
// touched by the chat path.
func TestChatDegradesOnGatewayFailure(t *testing.T) {
	store := memory.NewStorage()
	router := newTestRouter(store, &stubGateway{err: errors.New("quota exceeded")})
	userID := register(t, router, "chat@example.com")

	w, resp := doJSON(t, router, http.MethodPost, fmt.Sprintf("/chat/%d", userID), gin.H{
		"message": "how am I doing?",
	})
	if w.Code != http.StatusOK {
		t.Fatalf("status=%d want=200", w.Code)
	}
	if resp["response"] != "⚠️ Error: quota exceeded" {
		t.Fatalf("unexpected response: %v", resp["response"])
	}
	if n := store.TransactionCount(userID); n != 0 {
		t.Fatalf("chat wrote %d transactions", n)
	}
}

func TestChatUnknownUser(t *testing.T) {
	router := newTestRouter(memory.NewStorage(), &stubGateway{reply: "hi"})
	w, resp := doJSON(t, router, http.MethodPost, "/chat/404", gin.H{"message": "hello"})
	if w.Code != http.StatusOK {
		t.Fatalf("status=%d want=200", w.Code)
	}
	if resp["response"] != "I can't find your user profile!" {
		t.Fatalf("unexpected response: %v", resp["response"])
	}
}

func TestChatSuccess(t *testing.T) {
	store := memory.NewStorage()
	router := newTestRouter(store, &stubGateway{reply: "You spent a lot on food."})
	userID := register(t, router, "chatok@example.com")

	w, resp := doJSON(t, router, http.MethodPost, fmt.Sprintf("/chat/%d", userID), gin.H{
		"message": "summarize my spending",
	})
	if w.Code != http.StatusOK {
		t.Fatalf("status=%d want=200", w.Code)
	}
	if resp["response"] != "You spent a lot on food." {
		t.Fatalf("unexpected response: %v", resp["response"])
	}
}
