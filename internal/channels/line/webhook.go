package line

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"io"
	"net/http"
)

// WebhookHandler handles LINE webhook deliveries and health checks.
type WebhookHandler struct {
	channelSecret string
	onMessage     func(msg ParsedInboundMessage)
}

// NewWebhookHandler creates a new webhook handler. onMessage is called for
// every parsed inbound message in a delivery, in order. channelSecret may be
// empty, in which case signature verification is skipped.
func NewWebhookHandler(channelSecret string, onMessage func(ParsedInboundMessage)) *WebhookHandler {
	return &WebhookHandler{
		channelSecret: channelSecret,
		onMessage:     onMessage,
	}
}

// HandleHealth answers the platform's GET/HEAD availability probes.
func (h *WebhookHandler) HandleHealth(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	if r.Method != http.MethodHead {
		w.Write([]byte("OK"))
	}
}

// HandleInbound handles POST webhook deliveries. The platform enforces a
// short reply-latency budget, so dispatch must never block the response.
func (h *WebhookHandler) HandleInbound(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(r.Body)
	if err != nil {
		http.Error(w, "Bad Request", http.StatusBadRequest)
		return
	}

	if h.channelSecret != "" {
		signature := r.Header.Get("X-Line-Signature")
		if !VerifySignature(h.channelSecret, body, signature) {
			http.Error(w, "Unauthorized", http.StatusUnauthorized)
			return
		}
	}

	var req WebhookRequest
	if err := json.Unmarshal(body, &req); err != nil {
		http.Error(w, "Bad Request", http.StatusBadRequest)
		return
	}

	if len(req.Events) == 0 {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("No events"))
		return
	}

	w.WriteHeader(http.StatusOK)
	w.Write([]byte("OK"))

	for _, msg := range ParseWebhookRequest(req) {
		if h.onMessage != nil {
			h.onMessage(msg)
		}
	}
}

// ParseWebhookRequest extracts inbound messages from a webhook delivery.
// Non-message events and unsupported message types are dropped.
func ParseWebhookRequest(req WebhookRequest) []ParsedInboundMessage {
	var messages []ParsedInboundMessage

	for _, ev := range req.Events {
		if ev.Type != "message" || ev.Message == nil {
			continue
		}
		if ev.Source.UserID == "" {
			continue
		}

		switch ev.Message.Type {
		case "text", "image":
		default:
			continue
		}

		messages = append(messages, ParsedInboundMessage{
			UserID:      ev.Source.UserID,
			ReplyToken:  ev.ReplyToken,
			MessageType: ev.Message.Type,
			Text:        ev.Message.Text,
			MessageID:   ev.Message.ID,
		})
	}

	return messages
}

// VerifySignature verifies the X-Line-Signature header, which carries a
// base64-encoded HMAC-SHA256 of the raw request body.
func VerifySignature(channelSecret string, body []byte, signature string) bool {
	if channelSecret == "" || signature == "" {
		return false
	}

	decoded, err := base64.StdEncoding.DecodeString(signature)
	if err != nil {
		return false
	}

	mac := hmac.New(sha256.New, []byte(channelSecret))
	mac.Write(body)
	return hmac.Equal(mac.Sum(nil), decoded)
}
