package line

// WebhookRequest is the top-level structure received from the LINE platform.
type WebhookRequest struct {
	Destination string  `json:"destination"`
	Events      []Event `json:"events"`
}

// Event represents a single webhook event.
type Event struct {
	Type       string   `json:"type"`
	ReplyToken string   `json:"replyToken"`
	Timestamp  int64    `json:"timestamp"`
	Source     Source   `json:"source"`
	Message    *Message `json:"message,omitempty"`
}

// Source identifies who generated the event.
type Source struct {
	Type    string `json:"type"`
	UserID  string `json:"userId"`
	GroupID string `json:"groupId,omitempty"`
}

// Message contains the inbound message content.
type Message struct {
	ID   string `json:"id"`
	Type string `json:"type"`
	Text string `json:"text,omitempty"`
}

// ParsedInboundMessage is a normalized inbound message handed to the dispatcher.
type ParsedInboundMessage struct {
	UserID      string
	ReplyToken  string
	MessageType string
	Text        string
	MessageID   string
}

// replyRequest is the payload for the reply endpoint.
type replyRequest struct {
	ReplyToken string        `json:"replyToken"`
	Messages   []textMessage `json:"messages"`
}

// pushRequest is the payload for the push endpoint.
type pushRequest struct {
	To       string        `json:"to"`
	Messages []textMessage `json:"messages"`
}

type textMessage struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

type apiError struct {
	Message string `json:"message"`
}
