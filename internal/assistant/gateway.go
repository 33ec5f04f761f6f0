// internal/assistant/gateway.go
package assistant

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"image"
	_ "image/jpeg"
	_ "image/png"

	"smartmoney/internal/domain"

	"google.golang.org/genai"
)

const receiptPrompt = "Extract receipt data as raw JSON keys: merchant_name, total_amount, date, category. No markdown."

// Gateway forwards ledger context and user questions to Gemini. It is
// read-only with respect to the ledger: a failed call never touches stored
// state, callers degrade the response instead.
type Gateway struct {
	client *genai.Client
	model  string
	sem    chan struct{} // limit concurrent model calls
}

func New(ctx context.Context, apiKey, model string) (*Gateway, error) {
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("init gemini client: %w", err)
	}
	return &Gateway{
		client: client,
		model:  model,
		sem:    make(chan struct{}, 3),
	}, nil
}

// Chat sends the prepared prompt and returns the model's answer with
// markdown emphasis stripped.
func (g *Gateway) Chat(ctx context.Context, prompt string) (string, error) {
	g.sem <- struct{}{}
	defer func() { <-g.sem }()

	resp, err := g.client.Models.GenerateContent(ctx, g.model, genai.Text(prompt), nil)
	if err != nil {
		return "", fmt.Errorf("generate content: %w", err)
	}
	text := resp.Text()
	if text == "" {
		return "", fmt.Errorf("empty response from %s", g.model)
	}
	return StripMarkdown(text), nil
}

// ScanReceipt runs the vision model over a receipt image and parses the
// JSON it returns. The image is decoded first so obviously broken uploads
// fail before spending a model call.
func (g *Gateway) ScanReceipt(ctx context.Context, img []byte, mimeType string) (*domain.Receipt, error) {
	if _, _, err := image.Decode(bytes.NewReader(img)); err != nil {
		return nil, fmt.Errorf("decode image: %w", err)
	}

	g.sem <- struct{}{}
	defer func() { <-g.sem }()

	contents := []*genai.Content{{
		Parts: []*genai.Part{
			{Text: receiptPrompt},
			{InlineData: &genai.Blob{MIMEType: mimeType, Data: img}},
		},
	}}
	resp, err := g.client.Models.GenerateContent(ctx, g.model, contents, nil)
	if err != nil {
		return nil, fmt.Errorf("generate content: %w", err)
	}

	return ParseReceipt(resp.Text())
}

// ParseReceipt strips code fences and unmarshals the model's JSON answer.
func ParseReceipt(text string) (*domain.Receipt, error) {
	var receipt domain.Receipt
	if err := json.Unmarshal([]byte(StripFences(text)), &receipt); err != nil {
		return nil, fmt.Errorf("parse receipt json: %w", err)
	}
	return &receipt, nil
}
