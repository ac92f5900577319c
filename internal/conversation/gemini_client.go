package conversation

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"

	"github.com/tsumiki/yoyakubot/pkg/logging"
)

const (
	defaultModelID  = "gemini-1.5-pro-latest"
	maxOutputTokens = 1024
)

// GeminiExtractor implements Extractor using Google's Gemini API for both
// text normalization and photo analysis.
type GeminiExtractor struct {
	client  *genai.Client
	modelID string
	logger  *logging.Logger
}

// NewGeminiExtractor creates a new Gemini-backed extractor.
func NewGeminiExtractor(ctx context.Context, apiKey, modelID string, logger *logging.Logger) (*GeminiExtractor, error) {
	if strings.TrimSpace(apiKey) == "" {
		return nil, errors.New("conversation: gemini api key is required")
	}
	if strings.TrimSpace(modelID) == "" {
		modelID = defaultModelID
	}
	if logger == nil {
		logger = logging.Default()
	}

	client, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("conversation: failed to create gemini client: %w", err)
	}

	return &GeminiExtractor{
		client:  client,
		modelID: modelID,
		logger:  logger,
	}, nil
}

// ExtractStoreName asks the model for just the store name in the text.
func (g *GeminiExtractor) ExtractStoreName(ctx context.Context, text string) string {
	prompt := "次の文から店舗名だけを返してください。説明は不要です。\n" + text
	out, err := g.generate(ctx, prompt, nil)
	if err != nil || out == "" {
		if err != nil {
			g.logger.Warn("store name extraction failed, using raw input", "error", err)
		}
		return strings.TrimSpace(text)
	}
	return out
}

// ExtractSeatCounts normalizes a seating description, merging it with the
// previously captured value when the user sends a correction.
func (g *GeminiExtractor) ExtractSeatCounts(ctx context.Context, text, previous string) string {
	var sb strings.Builder
	sb.WriteString("次の文から座席数の情報を「1人席:3、2人席:2」の形式で簡潔に返してください。説明は不要です。\n")
	if strings.TrimSpace(previous) != "" {
		sb.WriteString("前回の座席情報: ")
		sb.WriteString(previous)
		sb.WriteString("\n訂正があれば反映してください。\n")
	}
	sb.WriteString(text)

	out, err := g.generate(ctx, sb.String(), nil)
	if err != nil || out == "" {
		if err != nil {
			g.logger.Warn("seat count extraction failed, using raw input", "error", err)
		}
		return strings.TrimSpace(text)
	}
	return out
}

// ExtractTimeSlots reads the time-slot column off a blank template photo.
func (g *GeminiExtractor) ExtractTimeSlots(ctx context.Context, image []byte) []string {
	prompt := "画像は飲食店の予約表（記入前）です。" +
		"時間帯の欄に印刷されている時刻を上から順に JSON 配列で返してください。" +
		`形式: ["18:00","18:30"] 説明は不要です。`
	out, err := g.generate(ctx, prompt, image)
	if err != nil {
		g.logger.Warn("time slot extraction failed", "error", err)
		return nil
	}
	return decodeStringArray(out)
}

// ExtractReservationRows reads reservation entries off a filled sheet photo.
func (g *GeminiExtractor) ExtractReservationRows(ctx context.Context, image []byte) []ReservationRow {
	prompt := "画像は飲食店の紙予約表です。記入済みの予約行を JSON 配列で返してください。" +
		`形式: [{"month":1,"day":15,"time":"18:00","name":"田中","size":2,"note":""}] 説明は不要です。`
	out, err := g.generate(ctx, prompt, image)
	if err != nil {
		g.logger.Warn("reservation row extraction failed", "error", err)
		return nil
	}
	return decodeReservationRows(out)
}

// Close releases resources held by the Gemini client.
func (g *GeminiExtractor) Close() error {
	if g.client != nil {
		return g.client.Close()
	}
	return nil
}

func (g *GeminiExtractor) generate(ctx context.Context, prompt string, image []byte) (string, error) {
	model := g.client.GenerativeModel(g.modelID)
	model.SetMaxOutputTokens(maxOutputTokens)

	parts := make([]genai.Part, 0, 2)
	if len(image) > 0 {
		parts = append(parts, genai.ImageData("jpeg", image))
	}
	parts = append(parts, genai.Text(prompt))

	resp, err := model.GenerateContent(ctx, parts...)
	if err != nil {
		return "", fmt.Errorf("conversation: gemini generation failed: %w", err)
	}

	if len(resp.Candidates) == 0 {
		return "", errors.New("conversation: gemini returned no candidates")
	}
	candidate := resp.Candidates[0]
	if candidate.Content == nil || len(candidate.Content.Parts) == 0 {
		return "", errors.New("conversation: gemini returned empty content")
	}

	var sb strings.Builder
	for _, part := range candidate.Content.Parts {
		if text, ok := part.(genai.Text); ok {
			sb.WriteString(string(text))
		}
	}
	return strings.TrimSpace(sb.String()), nil
}
