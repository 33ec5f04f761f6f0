// internal/handler/assistant.go
package handler

import (
	"context"
	"io"
	"log/slog"
	"net/http"

	"smartmoney/internal/assistant"
	"smartmoney/internal/domain"

	"github.com/gin-gonic/gin"
)

const chatHistoryLimit = 20

// Gateway is the external generative-AI surface. A nil gateway means the
// assistant is not configured; either way its failures degrade into a
// valid payload and never touch ledger state.
type Gateway interface {
	Chat(ctx context.Context, prompt string) (string, error)
	ScanReceipt(ctx context.Context, img []byte, mimeType string) (*domain.Receipt, error)
}

type AssistantHandler struct {
	store   CombinedStorage
	gateway Gateway
}

func NewAssistantHandler(store CombinedStorage, gateway Gateway) *AssistantHandler {
	return &AssistantHandler{store: store, gateway: gateway}
}

type ChatRequest struct {
	Message string `json:"message"`
}

func (h *AssistantHandler) Chat(c *gin.Context) {
	userID, err := userIDParam(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid user_id"})
		return
	}

	var req ChatRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid JSON"})
		return
	}

	user, err := h.store.UserByID(context.Background(), userID)
	if err != nil {
		c.JSON(http.StatusOK, gin.H{"response": "I can't find your user profile!"})
		return
	}

	if h.gateway == nil {
		c.JSON(http.StatusOK, gin.H{"response": "⚠️ Assistant is not configured."})
		return
	}

	total, err := h.store.TotalBalance(context.Background(), userID)
	if err != nil {
		slog.Error("Chat balance lookup failed", "error", err, "user_id", userID)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal error"})
		return
	}
	recent, err := h.store.RecentTransactions(context.Background(), userID, chatHistoryLimit)
	if err != nil {
		slog.Error("Chat transactions lookup failed", "error", err, "user_id", userID)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal error"})
		return
	}

	prompt := assistant.BuildChatPrompt(user, total, recent, req.Message)
	answer, err := h.gateway.Chat(c.Request.Context(), prompt)
	if err != nil {
		slog.Warn("Assistant call failed", "error", err, "user_id", userID)
		c.JSON(http.StatusOK, gin.H{"response": "⚠️ Error: " + err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"response": answer})
}

func (h *AssistantHandler) ScanReceipt(c *gin.Context) {
	fileHeader, err := c.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "file required"})
		return
	}

	file, err := fileHeader.Open()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "cannot read file"})
		return
	}
	defer file.Close()

	img, err := io.ReadAll(file)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "cannot read file"})
		return
	}

	if h.gateway == nil {
		c.JSON(http.StatusOK, gin.H{"error": "Assistant is not configured."})
		return
	}

	mimeType := fileHeader.Header.Get("Content-Type")
	if mimeType == "" {
		mimeType = http.DetectContentType(img)
	}

	receipt, err := h.gateway.ScanReceipt(c.Request.Context(), img, mimeType)
	if err != nil {
		slog.Warn("Receipt scan failed", "error", err)
		c.JSON(http.StatusOK, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, receipt)
}
