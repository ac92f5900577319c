package router

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/tsumiki/yoyakubot/internal/channels/line"
	"github.com/tsumiki/yoyakubot/pkg/logging"
)

func newTestRouter(t *testing.T) (http.Handler, *[]line.ParsedInboundMessage, *sync.Mutex) {
	t.Helper()

	var mu sync.Mutex
	var dispatched []line.ParsedInboundMessage
	webhook := line.NewWebhookHandler("", func(msg line.ParsedInboundMessage) {
		mu.Lock()
		dispatched = append(dispatched, msg)
		mu.Unlock()
	})

	handler := New(&Config{
		Logger:         logging.NewWithWriter(io.Discard, "error"),
		WebhookHandler: webhook,
		MetricsHandler: http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			w.Write([]byte("# metrics"))
		}),
	})
	return handler, &dispatched, &mu
}

func TestRootHealthProbe(t *testing.T) {
	handler, _, _ := newTestRouter(t)

	for _, method := range []string{http.MethodGet, http.MethodHead} {
		req := httptest.NewRequest(method, "/", nil)
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		if rec.Code != http.StatusOK {
			t.Errorf("%s / = %d, want 200", method, rec.Code)
		}
	}
}

func TestWebhookPostDispatches(t *testing.T) {
	handler, dispatched, mu := newTestRouter(t)

	body := `{"events":[{"type":"message","replyToken":"rt1","source":{"type":"user","userId":"U1"},"message":{"id":"m1","type":"text","text":"こんにちは"}}]}`
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(body))
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	mu.Lock()
	defer mu.Unlock()
	if len(*dispatched) != 1 || (*dispatched)[0].Text != "こんにちは" {
		t.Errorf("dispatched = %v", *dispatched)
	}
}

func TestHealthEndpoint(t *testing.T) {
	handler, _, _ := newTestRouter(t)

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	if rec.Code != http.StatusOK || rec.Body.String() != "OK" {
		t.Errorf("health = %d %q", rec.Code, rec.Body.String())
	}
}

func TestMetricsEndpoint(t *testing.T) {
	handler, _, _ := newTestRouter(t)

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), "# metrics") {
		t.Errorf("metrics = %d %q", rec.Code, rec.Body.String())
	}
}
