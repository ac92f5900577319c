package line

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestReplyText(t *testing.T) {
	var received replyRequest
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v2/bot/message/reply" {
			t.Errorf("unexpected path: %s", r.URL.Path)
		}
		if r.Header.Get("Authorization") != "Bearer test_token" {
			t.Errorf("unexpected auth header: %s", r.Header.Get("Authorization"))
		}
		if err := json.NewDecoder(r.Body).Decode(&received); err != nil {
			t.Fatal(err)
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{}`))
	}))
	defer server.Close()

	client := NewClient("test_token")
	client.SetAPIBase(server.URL)

	if err := client.ReplyText(context.Background(), "reply_token_1", "こんにちは"); err != nil {
		t.Fatal(err)
	}
	if received.ReplyToken != "reply_token_1" {
		t.Errorf("reply token = %s, want reply_token_1", received.ReplyToken)
	}
	if len(received.Messages) != 1 || received.Messages[0].Text != "こんにちは" {
		t.Errorf("unexpected messages: %+v", received.Messages)
	}
	if received.Messages[0].Type != "text" {
		t.Errorf("message type = %s, want text", received.Messages[0].Type)
	}
}

func TestPushText(t *testing.T) {
	var received pushRequest
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v2/bot/message/push" {
			t.Errorf("unexpected path: %s", r.URL.Path)
		}
		json.NewDecoder(r.Body).Decode(&received)
		w.Write([]byte(`{}`))
	}))
	defer server.Close()

	client := NewClient("token")
	client.SetAPIBase(server.URL)

	if err := client.PushText(context.Background(), "U123", "案内メッセージ"); err != nil {
		t.Fatal(err)
	}
	if received.To != "U123" {
		t.Errorf("to = %s, want U123", received.To)
	}
}

func TestReplyTextAPIError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		w.Write([]byte(`{"message":"Invalid reply token"}`))
	}))
	defer server.Close()

	client := NewClient("token")
	client.SetAPIBase(server.URL)

	err := client.ReplyText(context.Background(), "expired", "text")
	if err == nil {
		t.Fatal("expected error for 400 response")
	}
}

func TestDownloadContent(t *testing.T) {
	payload := []byte{0xFF, 0xD8, 0xFF, 0xE0, 0x01, 0x02}
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v2/bot/message/msg_001/content" {
			t.Errorf("unexpected path: %s", r.URL.Path)
		}
		if r.Header.Get("Authorization") != "Bearer token" {
			t.Errorf("unexpected auth header: %s", r.Header.Get("Authorization"))
		}
		w.Header().Set("Content-Type", "image/jpeg")
		w.Write(payload)
	}))
	defer server.Close()

	client := NewClient("token")
	client.SetDataAPIBase(server.URL)

	data, err := client.DownloadContent(context.Background(), "msg_001")
	if err != nil {
		t.Fatal(err)
	}
	if string(data) != string(payload) {
		t.Errorf("downloaded %d bytes, want %d", len(data), len(payload))
	}
}

func TestDownloadContentNotFound(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		w.Write([]byte(`{"message":"Not found"}`))
	}))
	defer server.Close()

	client := NewClient("token")
	client.SetDataAPIBase(server.URL)

	if _, err := client.DownloadContent(context.Background(), "missing"); err == nil {
		t.Fatal("expected error for 404 response")
	}
}
