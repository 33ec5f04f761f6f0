// internal/assistant/prompt.go
package assistant

import (
	"fmt"
	"strings"

	"smartmoney/internal/domain"
)

// BuildChatPrompt packs the user's ledger snapshot and question into a
// single instruction for the model.
func BuildChatPrompt(user *domain.User, totalBalance float64, recent []domain.Transaction, message string) string {
	history := "No recent transactions."
	if len(recent) > 0 {
		lines := make([]string, 0, len(recent))
		for _, tx := range recent {
			lines = append(lines, fmt.Sprintf("- %s: %s (%s) - ₦%.2f",
				tx.Date.Format("2006-01-02"), tx.MerchantName, tx.Category, tx.Amount))
		}
		history = strings.Join(lines, "\n")
	}

	return fmt.Sprintf(
		"You are SmartMoney assistant for %s. Balance: ₦%.2f. Transactions: %s. User asks: '%s'",
		user.FullName, totalBalance, history, message)
}

// StripMarkdown downgrades the model's emphasis markers for plain-text
// clients: bold removed, bullets normalized to dashes.
func StripMarkdown(s string) string {
	s = strings.ReplaceAll(s, "**", "")
	return strings.ReplaceAll(s, "*", "-")
}

// StripFences removes a surrounding ```json / ``` code fence, which the
// model adds despite being told not to.
func StripFences(s string) string {
	s = strings.TrimSpace(s)
	s = strings.TrimPrefix(s, "```json")
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimSuffix(s, "```")
	return strings.TrimSpace(s)
}
