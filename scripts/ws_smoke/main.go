package main

import (
	"bytes"
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"

	"github.com/vovakirdan/chatline-server/internal/proto"
)

func main() {
	base := flag.String("base", "http://localhost:8080", "server base URL")
	author := flag.String("author", "tester", "message author")
	text := flag.String("text", "hello from smoke test", "message text to send")
	timeout := flag.Duration("timeout", 5*time.Second, "total timeout for the run")
	flag.Parse()

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	wsURL := strings.Replace(*base, "http", "ws", 1) + "/ws"
	conn, _, err := websocket.Dial(ctx, wsURL, nil)
	if err != nil {
		log.Fatalf("dial: %v", err)
	}
	defer conn.Close(websocket.StatusNormalClosure, "bye")

	// Give the server a moment to register the subscriber.
	time.Sleep(100 * time.Millisecond)

	body, _ := json.Marshal(map[string]any{
		"messageToAdd": map[string]any{
			"text":      *text,
			"author":    *author,
			"timestamp": time.Now().UTC().Format(time.RFC3339Nano),
		},
	})
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, *base+"/messaging/addMessage", bytes.NewReader(body))
	if err != nil {
		log.Fatalf("build request: %v", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		log.Fatalf("add message: %v", err)
	}
	respBody, _ := io.ReadAll(resp.Body)
	resp.Body.Close()
	fmt.Printf("addMessage: status=%d body=%s\n", resp.StatusCode, respBody)
	if resp.StatusCode != http.StatusOK {
		log.Fatalf("unexpected status %d", resp.StatusCode)
	}

	var outbound struct {
		Type  string                   `json:"type"`
		Event string                   `json:"event"`
		Data  proto.EventMessageUpdate `json:"data"`
	}
	if err := wsjson.Read(ctx, conn, &outbound); err != nil {
		log.Fatalf("read: %v", err)
	}

	fmt.Printf("Received outbound: type=%s event=%s\n", outbound.Type, outbound.Event)
	m := outbound.Data.Msg
	fmt.Printf("Message: id=%s author=%s text=%q timestamp=%s\n", m.ID, m.Author, m.Text, m.Timestamp)
}
