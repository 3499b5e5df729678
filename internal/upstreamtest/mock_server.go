// Package upstreamtest provides an in-process fake of the upstream
// conversational search service for tests. It speaks the two endpoints
// the gateway uses: conversation create, answering with the JSON
// envelope, and chat, answering with a stream of "data:<json>" event
// lines. Requests are captured for inspection, including whether the
// signed envelope verifies.
package upstreamtest

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"

	"mercator-hq/ganymede/pkg/upstream"
)

const (
	createPath = "/ai-search/conversationApi/v1/create"
	chatPath   = "/ai-search/chatApi/v1/chat"
)

// Event is one scripted stream event, serialized as a data line.
type Event struct {
	Content     string `json:"content"`
	ContentType string `json:"content_type"`
}

// Text returns an answer-body event.
func Text(content string) Event {
	return Event{Content: content, ContentType: "text"}
}

// Thinking returns a reasoning-trace event.
func Thinking(content string) Event {
	return Event{Content: content, ContentType: "thinking"}
}

// Card returns a reference-card event carrying a raw JSON payload.
func Card(payload string) Event {
	return Event{Content: payload, ContentType: "card"}
}

// CreateCapture records what the backend saw on the last create call.
type CreateCapture struct {
	DeviceID string
	Model    string
	Options  []string

	// Signed is true when the sign header verified against the body.
	Signed bool
}

// ChatCapture records what the backend saw on the last chat call.
type ChatCapture struct {
	DeviceID       string
	ConversationID string
	Model          string
	UserAction     string
	Question       string

	// Signed is true when the sign header verified against the body.
	Signed bool
}

// Backend is the fake service. Point an upstream client at URL(), script
// responses with the setters, and inspect what arrived with the capture
// accessors. Safe for concurrent use.
type Backend struct {
	server *httptest.Server

	mu           sync.Mutex
	createStatus int
	createReject bool
	chatStatus   int
	events       []Event
	dropAfter    int
	createCount  int
	chatCount    int
	lastCreate   CreateCapture
	lastChat     ChatCapture
}

// New starts a fake backend. Callers must Close it.
func New() *Backend {
	b := &Backend{}

	mux := http.NewServeMux()
	mux.HandleFunc(createPath, b.handleCreate)
	mux.HandleFunc(chatPath, b.handleChat)
	b.server = httptest.NewServer(mux)

	return b
}

// URL returns the backend's base URL.
func (b *Backend) URL() string {
	return b.server.URL
}

// Close shuts the backend down.
func (b *Backend) Close() {
	b.server.Close()
}

// SetEvents scripts the events every chat call streams back.
func (b *Backend) SetEvents(events ...Event) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.events = events
}

// FailCreate makes create calls answer with the given status code.
func (b *Backend) FailCreate(status int) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.createStatus = status
}

// RejectCreate makes create calls answer 200 with success=false, the
// upstream's soft-rejection form.
func (b *Backend) RejectCreate() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.createReject = true
}

// FailChat makes chat calls answer with the given status code.
func (b *Backend) FailChat(status int) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.chatStatus = status
}

// DropAfter makes chat calls cut the connection after n events, so the
// client sees a mid-stream read failure instead of a clean end.
func (b *Backend) DropAfter(n int) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.dropAfter = n
}

// CreateCount returns how many create calls arrived.
func (b *Backend) CreateCount() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.createCount
}

// ChatCount returns how many chat calls arrived.
func (b *Backend) ChatCount() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.chatCount
}

// LastCreate returns the capture of the most recent create call.
func (b *Backend) LastCreate() CreateCapture {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.lastCreate
}

// LastChat returns the capture of the most recent chat call.
func (b *Backend) LastChat() ChatCapture {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.lastChat
}

func (b *Backend) handleCreate(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(r.Body)
	if err != nil {
		http.Error(w, "read failed", http.StatusInternalServerError)
		return
	}

	var payload struct {
		MetaData struct {
			ChatModelConfig struct {
				Model   string   `json:"model"`
				Options []string `json:"options"`
			} `json:"chatModelConfig"`
		} `json:"metaData"`
	}
	_ = json.Unmarshal(body, &payload)

	b.mu.Lock()
	b.createCount++
	count := b.createCount
	b.lastCreate = CreateCapture{
		DeviceID: r.Header.Get("deviceId"),
		Model:    payload.MetaData.ChatModelConfig.Model,
		Options:  payload.MetaData.ChatModelConfig.Options,
		Signed:   signedEnvelope(r, body),
	}
	status := b.createStatus
	reject := b.createReject
	b.mu.Unlock()

	if status != 0 {
		http.Error(w, "create unavailable", status)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	if reject {
		fmt.Fprint(w, `{"success":false}`)
		return
	}
	fmt.Fprintf(w, `{"success":true,"data":{"conversationId":"conv-%04d"}}`, count)
}

func (b *Backend) handleChat(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(r.Body)
	if err != nil {
		http.Error(w, "read failed", http.StatusInternalServerError)
		return
	}

	var payload struct {
		Model          string `json:"model"`
		UserAction     string `json:"userAction"`
		ConversationID string `json:"conversationId"`
		Question       string `json:"question"`
	}
	_ = json.Unmarshal(body, &payload)

	b.mu.Lock()
	b.chatCount++
	b.lastChat = ChatCapture{
		DeviceID:       r.Header.Get("deviceId"),
		ConversationID: payload.ConversationID,
		Model:          payload.Model,
		UserAction:     payload.UserAction,
		Question:       payload.Question,
		Signed:         signedEnvelope(r, body),
	}
	status := b.chatStatus
	events := b.events
	dropAfter := b.dropAfter
	b.mu.Unlock()

	if status != 0 {
		http.Error(w, "chat unavailable", status)
		return
	}

	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "streaming not supported", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")

	for i, ev := range events {
		if dropAfter > 0 && i == dropAfter {
			// Cut the connection without a terminal chunk so the client
			// sees a read error rather than a clean EOF.
			if hj, ok := w.(http.Hijacker); ok {
				if conn, _, err := hj.Hijack(); err == nil {
					conn.Close()
				}
			}
			return
		}

		data, err := json.Marshal(ev)
		if err != nil {
			continue
		}
		fmt.Fprintf(w, "data:%s\n\n", data)
		flusher.Flush()
	}
}

// signedEnvelope verifies the sign header against the request body the
// way the real backend would.
func signedEnvelope(r *http.Request, body []byte) bool {
	timestamp := r.Header.Get("timestamp")
	nonce := r.Header.Get("nonce")
	sign := r.Header.Get("sign")
	if timestamp == "" || nonce == "" || sign == "" {
		return false
	}
	return upstream.Sign(timestamp, body, nonce) == sign
}
