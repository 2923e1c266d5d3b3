package http

import (
	"encoding/json"
	"io"
	"net/http"
	"strings"
	"testing"
)

func postMessage(t *testing.T, ts *testServer, body string) (int, string) {
	t.Helper()

	resp, err := ts.Client().Post(ts.URL+"/messaging/addMessage", "application/json", strings.NewReader(body))
	if err != nil {
		t.Fatalf("add message request failed: %v", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("read body: %v", err)
	}
	return resp.StatusCode, string(data)
}

func getMessages(t *testing.T, ts *testServer) []map[string]string {
	t.Helper()

	resp, err := ts.Client().Get(ts.URL + "/messaging/getMessages")
	if err != nil {
		t.Fatalf("get messages request failed: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("unexpected status: %d", resp.StatusCode)
	}
	var out []map[string]string
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		t.Fatalf("decode messages: %v", err)
	}
	return out
}

func TestAddMessageReturnsPersistedMessage(t *testing.T) {
	ts := startTestServer(t, serverOpts{})

	status, body := postMessage(t, ts, `{"messageToAdd":{"text":"Hello","author":"User1","timestamp":"2024-06-04"}}`)
	if status != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", status, body)
	}

	var msg map[string]string
	if err := json.Unmarshal([]byte(body), &msg); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if msg["id"] == "" {
		t.Fatalf("expected id in response: %s", body)
	}
	if msg["text"] != "Hello" || msg["author"] != "User1" || msg["timestamp"] != "2024-06-04T00:00:00.000Z" {
		t.Fatalf("unexpected message: %v", msg)
	}
}

func TestAddMessageMissingEnvelope(t *testing.T) {
	ts := startTestServer(t, serverOpts{})

	for _, body := range []string{`{}`, `not json`, `{"messageToAdd":"x"}`, `{"messageToAdd":{"text":"Hello","author":"User1"}}`} {
		status, text := postMessage(t, ts, body)
		if status != http.StatusBadRequest || text != "Invalid request" {
			t.Fatalf("body %s: expected 400 Invalid request, got %d %q", body, status, text)
		}
	}

	if got := getMessages(t, ts); len(got) != 0 {
		t.Fatalf("expected no stored messages, got %d", len(got))
	}
}

func TestAddMessageEmptyText(t *testing.T) {
	ts := startTestServer(t, serverOpts{})

	status, text := postMessage(t, ts, `{"messageToAdd":{"text":"","author":"User1","timestamp":"2024-06-04"}}`)
	if status != http.StatusBadRequest || text != "Invalid message" {
		t.Fatalf("expected 400 Invalid message, got %d %q", status, text)
	}

	if got := getMessages(t, ts); len(got) != 0 {
		t.Fatalf("expected no stored messages, got %d", len(got))
	}
}

func TestAddMessageStoreFailure(t *testing.T) {
	ts := startTestServer(t, serverOpts{messageStore: failingMessageStore{}})

	status, text := postMessage(t, ts, `{"messageToAdd":{"text":"Hello","author":"User1","timestamp":"2024-06-04T10:00:00Z"}}`)
	if status != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", status)
	}
	if text != "Error when saving message: database error" {
		t.Fatalf("unexpected body: %q", text)
	}
}

func TestGetMessagesSortedByTimestamp(t *testing.T) {
	ts := startTestServer(t, serverOpts{})

	for _, body := range []string{
		`{"messageToAdd":{"text":"Hi","author":"User2","timestamp":"2024-06-05"}}`,
		`{"messageToAdd":{"text":"Hello","author":"User1","timestamp":"2024-06-04"}}`,
	} {
		if status, text := postMessage(t, ts, body); status != http.StatusOK {
			t.Fatalf("add message: %d %s", status, text)
		}
	}

	got := getMessages(t, ts)
	if len(got) != 2 {
		t.Fatalf("expected 2 messages, got %d", len(got))
	}
	if got[0]["text"] != "Hello" || got[0]["timestamp"] != "2024-06-04T00:00:00.000Z" {
		t.Fatalf("unexpected first message: %v", got[0])
	}
	if got[1]["text"] != "Hi" || got[1]["timestamp"] != "2024-06-05T00:00:00.000Z" {
		t.Fatalf("unexpected second message: %v", got[1])
	}
}

func TestGetMessagesEmptyOnStoreFailure(t *testing.T) {
	ts := startTestServer(t, serverOpts{messageStore: failingMessageStore{}})

	resp, err := ts.Client().Get(ts.URL + "/messaging/getMessages")
	if err != nil {
		t.Fatalf("get messages request failed: %v", err)
	}
	defer resp.Body.Close()

	data, _ := io.ReadAll(resp.Body)
	if resp.StatusCode != http.StatusOK || strings.TrimSpace(string(data)) != "[]" {
		t.Fatalf("expected 200 [], got %d %q", resp.StatusCode, data)
	}
}

func TestRateLimitRejectsBurst(t *testing.T) {
	ts := startTestServer(t, serverOpts{rateLimit: 2})

	codes := make([]int, 0, 3)
	for i := 0; i < 3; i++ {
		resp, err := ts.Client().Get(ts.URL + "/messaging/getMessages")
		if err != nil {
			t.Fatalf("request %d failed: %v", i, err)
		}
		resp.Body.Close()
		codes = append(codes, resp.StatusCode)
	}

	if codes[0] != http.StatusOK || codes[1] != http.StatusOK || codes[2] != http.StatusTooManyRequests {
		t.Fatalf("unexpected status codes: %v", codes)
	}
}
