package telegram

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

func TestGetUpdates_ParsesMessages(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/getUpdates" {
			http.NotFound(w, r)
			return
		}
		_, _ = io.WriteString(w, `{"ok":true,"result":[{"update_id":11,"message":{"chat":{"id":123},"text":"hello","date":1700000000}},{"update_id":12}]}`)
	}))
	defer srv.Close()

	c := NewClient(srv.URL, 2*time.Second)
	updates, err := c.GetUpdates(0, 0)
	if err != nil {
		t.Fatalf("GetUpdates failed: %v", err)
	}
	if len(updates) != 1 || updates[0].Message == nil || updates[0].Message.Text == nil {
		t.Fatalf("unexpected updates: %#v", updates)
	}
	if *updates[0].Message.Text != "hello" {
		t.Fatalf("unexpected message text: %q", *updates[0].Message.Text)
	}
	if updates[0].Message.Chat.ID != 123 {
		t.Fatalf("unexpected chat id: %d", updates[0].Message.Chat.ID)
	}
}

func TestGetUpdates_NotOKReturnsEmpty(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, `{"ok":false}`)
	}))
	defer srv.Close()

	c := NewClient(srv.URL, 2*time.Second)
	updates, err := c.GetUpdates(0, 0)
	if err != nil {
		t.Fatalf("GetUpdates failed: %v", err)
	}
	if len(updates) != 0 {
		t.Fatalf("expected no updates, got: %#v", updates)
	}
}

func TestSendMessage_TruncatesLongText(t *testing.T) {
	var gotBody string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/sendMessage" {
			http.NotFound(w, r)
			return
		}
		body, _ := io.ReadAll(r.Body)
		gotBody = string(body)
		_, _ = io.WriteString(w, `{"ok":true,"result":{}}`)
	}))
	defer srv.Close()

	c := NewClient(srv.URL, 2*time.Second)
	long := strings.Repeat("x", 5000)
	if err := c.SendMessage(123, long); err != nil {
		t.Fatalf("SendMessage failed: %v", err)
	}
	if !strings.Contains(gotBody, `"chat_id":123`) {
		t.Fatalf("expected chat_id in payload, got: %s", gotBody)
	}
	if strings.Count(gotBody, "x") != 3900 {
		t.Fatalf("expected text truncated to 3900 chars, got %d", strings.Count(gotBody, "x"))
	}
}

func TestSendMessage_EscapesText(t *testing.T) {
	var gotBody string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		gotBody = string(body)
		_, _ = io.WriteString(w, `{"ok":true,"result":{}}`)
	}))
	defer srv.Close()

	c := NewClient(srv.URL, 2*time.Second)
	if err := c.SendMessage(7, "line1\nwith \"quotes\""); err != nil {
		t.Fatalf("SendMessage failed: %v", err)
	}
	if !strings.Contains(gotBody, `\n`) || !strings.Contains(gotBody, `\"quotes\"`) {
		t.Fatalf("expected escaped payload, got: %s", gotBody)
	}
}
