// internal/assistant/prompt_test.go
package assistant

import (
	"strings"
	"testing"
	"time"

	"smartmoney/internal/domain"
)

func TestBuildChatPromptWithHistory(t *testing.T) {
	user := &domain.User{FullName: "Demo User"}
	recent := []domain.Transaction{
		{
			MerchantName: "Jumia Nigeria",
			Category:     "Shopping",
			Amount:       -15000,
			Date:         time.Date(2025, 10, 18, 9, 30, 0, 0, time.UTC),
		},
	}

	prompt := BuildChatPrompt(user, 435000, recent, "how much did I spend?")

	for _, want := range []string{
		"SmartMoney assistant for Demo User",
		"Balance: ₦435000.00",
		"- 2025-10-18: Jumia Nigeria (Shopping) - ₦-15000.00",
		"User asks: 'how much did I spend?'",
	} {
		if !strings.Contains(prompt, want) {
			t.Errorf("prompt missing %q:\n%s", want, prompt)
		}
	}
}

func TestBuildChatPromptEmptyHistory(t *testing.T) {
	prompt := BuildChatPrompt(&domain.User{FullName: "Demo User"}, 0, nil, "hi")
	if !strings.Contains(prompt, "No recent transactions.") {
		t.Fatalf("prompt missing empty-history marker:\n%s", prompt)
	}
}

func TestStripMarkdown(t *testing.T) {
	got := StripMarkdown("**Spending**\n* Food\n* Transport")
	want := "Spending\n- Food\n- Transport"
	if got != want {
		t.Fatalf("got %q want %q", got, want)
	}
}

func TestStripFences(t *testing.T) {
	cases := []struct{ in, want string }{
		{"```json\n{\"a\":1}\n```", `{"a":1}`},
		{"```\n{\"a\":1}\n```", `{"a":1}`},
		{`{"a":1}`, `{"a":1}`},
		{"  {\"a\":1}  ", `{"a":1}`},
	}
	for _, c := range cases {
		if got := StripFences(c.in); got != c.want {
			t.Errorf("StripFences(%q)=%q want %q", c.in, got, c.want)
		}
	}
}

func TestParseReceipt(t *testing.T) {
	receipt, err := ParseReceipt("```json\n{\"merchant_name\":\"Chicken Republic\",\"total_amount\":3500,\"date\":\"2025-10-18\",\"category\":\"Food\"}\n```")
	if err != nil {
		t.Fatal(err)
	}
	if receipt.MerchantName != "Chicken Republic" || receipt.TotalAmount != 3500 || receipt.Category != "Food" {
		t.Fatalf("unexpected receipt: %+v", receipt)
	}

	if _, err := ParseReceipt("sorry, I could not read that"); err == nil {
		t.Fatal("want error for non-JSON answer")
	}
}
