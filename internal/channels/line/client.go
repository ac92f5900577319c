package line

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

const (
	defaultAPIBase     = "https://api.line.me"
	defaultDataAPIBase = "https://api-data.line.me"
	defaultHTTPTimeout = 15 * time.Second
)

// Client sends messages and downloads media via the LINE Messaging API.
type Client struct {
	channelAccessToken string
	apiBase            string
	dataAPIBase        string
	httpClient         *http.Client
}

// NewClient creates a new Messaging API client.
func NewClient(channelAccessToken string) *Client {
	return &Client{
		channelAccessToken: channelAccessToken,
		apiBase:            defaultAPIBase,
		dataAPIBase:        defaultDataAPIBase,
		httpClient:         &http.Client{Timeout: defaultHTTPTimeout},
	}
}

// SetAPIBase overrides the Messaging API base URL (useful for testing).
func (c *Client) SetAPIBase(base string) {
	if base != "" {
		c.apiBase = base
	}
}

// SetDataAPIBase overrides the content API base URL (useful for testing).
func (c *Client) SetDataAPIBase(base string) {
	if base != "" {
		c.dataAPIBase = base
	}
}

// ReplyText answers a specific inbound event using its reply token.
func (c *Client) ReplyText(ctx context.Context, replyToken, text string) error {
	req := replyRequest{
		ReplyToken: replyToken,
		Messages:   []textMessage{{Type: "text", Text: text}},
	}
	return c.post(ctx, "/v2/bot/message/reply", req)
}

// PushText sends an unsolicited text message to a user.
func (c *Client) PushText(ctx context.Context, userID, text string) error {
	req := pushRequest{
		To:       userID,
		Messages: []textMessage{{Type: "text", Text: text}},
	}
	return c.post(ctx, "/v2/bot/message/push", req)
}

// DownloadContent fetches the binary content of a media message.
func (c *Client) DownloadContent(ctx context.Context, messageID string) ([]byte, error) {
	url := fmt.Sprintf("%s/v2/bot/message/%s/content", c.dataAPIBase, messageID)
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("line: create content request: %w", err)
	}
	httpReq.Header.Set("Authorization", "Bearer "+c.channelAccessToken)

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("line: download content: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return nil, fmt.Errorf("line: content status %d: %s", resp.StatusCode, string(body))
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("line: read content: %w", err)
	}
	return data, nil
}

func (c *Client) post(ctx context.Context, path string, payload any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("line: marshal request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.apiBase+path, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("line: create request: %w", err)
	}
	httpReq.Header.Set("Authorization", "Bearer "+c.channelAccessToken)
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return fmt.Errorf("line: send message: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		var apiErr apiError
		if json.Unmarshal(respBody, &apiErr) == nil && apiErr.Message != "" {
			return fmt.Errorf("line: API error %d: %s", resp.StatusCode, apiErr.Message)
		}
		return fmt.Errorf("line: unexpected status %d: %s", resp.StatusCode, string(respBody))
	}

	return nil
}
