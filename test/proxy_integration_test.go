//go:build integration

package test

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"mercator-hq/ganymede/internal/upstreamtest"
	"mercator-hq/ganymede/pkg/catalog"
	"mercator-hq/ganymede/pkg/config"
	"mercator-hq/ganymede/pkg/journal"
	"mercator-hq/ganymede/pkg/proxy/types"
	"mercator-hq/ganymede/pkg/server"
	"mercator-hq/ganymede/pkg/telemetry/metrics"
	"mercator-hq/ganymede/pkg/upstream"
)

const testAPIKey = "sk-integration-test"

// TestGatewayIntegration runs the full request path: HTTP surface,
// middleware chain, translation, upstream exchange, journal, and
// metrics, against an in-process fake backend.
func TestGatewayIntegration(t *testing.T) {
	backend := upstreamtest.New()
	defer backend.Close()
	backend.SetEvents(
		upstreamtest.Thinking("Considering."),
		upstreamtest.Text("Hello"),
		upstreamtest.Text(" from the gateway."),
	)

	cfg := config.DefaultConfig()
	config.ApplyDefaults(cfg)
	cfg.Auth.APIKey = testAPIKey
	cfg.Upstream.BaseURL = backend.URL()
	cfg.Upstream.Timeout = 10 * time.Second
	cfg.Journal.Enabled = true
	cfg.Journal.Path = filepath.Join(t.TempDir(), "journal.db")

	store, err := journal.NewSQLiteStore(cfg.Journal)
	if err != nil {
		t.Fatalf("opening journal storage: %v", err)
	}
	defer store.Close()

	collector := metrics.NewCollector(&cfg.Telemetry.Metrics, nil)
	recorder := journal.NewRecorder(store, cfg.Journal, collector)

	agents := upstream.NewUserAgentCache(cfg.UserAgent.Randomize, cfg.UserAgent.CacheSize)
	client := upstream.NewClient(upstream.Config{
		BaseURL: cfg.Upstream.BaseURL,
		Timeout: cfg.Upstream.Timeout,
	}, agents)
	defer client.Close()

	cat := catalog.MustNew(cfg.Translate.DefaultModel)
	srv := server.NewServer(cfg, client, cat, collector, recorder)

	testServer := httptest.NewServer(srv.Handler())
	defer testServer.Close()

	t.Run("aggregate chat completion", func(t *testing.T) {
		resp := postChatCompletion(t, testServer.URL, map[string]any{
			"model": "deepseek-v3",
			"messages": []map[string]string{
				{"role": "user", "content": "Say hello"},
			},
		})
		defer resp.Body.Close()

		if resp.StatusCode != http.StatusOK {
			t.Fatalf("status = %d, want 200", resp.StatusCode)
		}

		var chatResp types.ChatCompletionResponse
		if err := json.NewDecoder(resp.Body).Decode(&chatResp); err != nil {
			t.Fatalf("decoding response: %v", err)
		}

		if chatResp.Object != "chat.completion" {
			t.Errorf("object = %q, want chat.completion", chatResp.Object)
		}
		if len(chatResp.Choices) != 1 {
			t.Fatalf("choices = %d, want 1", len(chatResp.Choices))
		}
		content := chatResp.Choices[0].Message.Content
		if !strings.Contains(content, "<think>Considering.</think>") {
			t.Errorf("content missing thinking span: %q", content)
		}
		if !strings.Contains(content, "Hello from the gateway.") {
			t.Errorf("content missing answer body: %q", content)
		}
	})

	t.Run("streaming chat completion", func(t *testing.T) {
		resp := postChatCompletion(t, testServer.URL, map[string]any{
			"model":  "deepseek-v3",
			"stream": true,
			"messages": []map[string]string{
				{"role": "user", "content": "Say hello"},
			},
		})
		defer resp.Body.Close()

		if resp.StatusCode != http.StatusOK {
			t.Fatalf("status = %d, want 200", resp.StatusCode)
		}
		if ct := resp.Header.Get("Content-Type"); !strings.HasPrefix(ct, "text/event-stream") {
			t.Errorf("Content-Type = %q, want text/event-stream", ct)
		}
		if resp.Header.Get("X-Request-ID") == "" {
			t.Error("response missing X-Request-ID header")
		}

		var sawDone bool
		var content strings.Builder
		scanner := bufio.NewScanner(resp.Body)
		for scanner.Scan() {
			line := scanner.Text()
			payload, ok := strings.CutPrefix(line, "data: ")
			if !ok {
				continue
			}
			if payload == "[DONE]" {
				sawDone = true
				continue
			}

			var chunk types.ChatCompletionStreamChunk
			if err := json.Unmarshal([]byte(payload), &chunk); err != nil {
				t.Fatalf("invalid chunk %q: %v", payload, err)
			}
			if len(chunk.Choices) == 1 {
				content.WriteString(chunk.Choices[0].Delta.Content)
			}
		}
		if err := scanner.Err(); err != nil {
			t.Fatalf("reading stream: %v", err)
		}

		if !sawDone {
			t.Error("stream did not end with [DONE]")
		}
		if !strings.Contains(content.String(), "Hello from the gateway.") {
			t.Errorf("streamed content = %q", content.String())
		}
	})

	t.Run("invalid request", func(t *testing.T) {
		resp := postChatCompletion(t, testServer.URL, map[string]any{
			"messages": []map[string]string{
				{"role": "user", "content": "Hello"},
			},
		})
		defer resp.Body.Close()

		if resp.StatusCode != http.StatusBadRequest {
			t.Fatalf("status = %d, want 400", resp.StatusCode)
		}

		var errResp types.ErrorResponse
		if err := json.NewDecoder(resp.Body).Decode(&errResp); err != nil {
			t.Fatalf("decoding error response: %v", err)
		}
		if errResp.Error.Type != types.ErrorTypeInvalidRequest {
			t.Errorf("error type = %q, want %q", errResp.Error.Type, types.ErrorTypeInvalidRequest)
		}
	})

	t.Run("missing credentials", func(t *testing.T) {
		body, _ := json.Marshal(map[string]any{
			"model":    "deepseek-v3",
			"messages": []map[string]string{{"role": "user", "content": "hi"}},
		})
		resp, err := http.Post(testServer.URL+"/v1/chat/completions", "application/json", bytes.NewReader(body))
		if err != nil {
			t.Fatalf("sending request: %v", err)
		}
		defer resp.Body.Close()

		if resp.StatusCode != http.StatusUnauthorized {
			t.Errorf("status = %d, want 401", resp.StatusCode)
		}
	})

	t.Run("health and readiness", func(t *testing.T) {
		for _, path := range []string{"/health", "/ready"} {
			resp, err := http.Get(testServer.URL + path)
			if err != nil {
				t.Fatalf("GET %s: %v", path, err)
			}
			resp.Body.Close()
			if resp.StatusCode != http.StatusOK {
				t.Errorf("GET %s status = %d, want 200", path, resp.StatusCode)
			}
		}
	})

	t.Run("model list", func(t *testing.T) {
		req, _ := http.NewRequest(http.MethodGet, testServer.URL+"/v1/models", nil)
		req.Header.Set("Authorization", "Bearer "+testAPIKey)
		resp, err := http.DefaultClient.Do(req)
		if err != nil {
			t.Fatalf("GET /v1/models: %v", err)
		}
		defer resp.Body.Close()

		var list types.ModelList
		if err := json.NewDecoder(resp.Body).Decode(&list); err != nil {
			t.Fatalf("decoding model list: %v", err)
		}
		if list.Object != "list" || len(list.Data) == 0 {
			t.Errorf("model list = %q with %d entries", list.Object, len(list.Data))
		}
	})

	t.Run("metrics scrape", func(t *testing.T) {
		resp, err := http.Get(testServer.URL + cfg.Telemetry.Metrics.Path)
		if err != nil {
			t.Fatalf("GET %s: %v", cfg.Telemetry.Metrics.Path, err)
		}
		defer resp.Body.Close()

		if resp.StatusCode != http.StatusOK {
			t.Fatalf("status = %d, want 200", resp.StatusCode)
		}
		body, err := io.ReadAll(resp.Body)
		if err != nil {
			t.Fatalf("reading metrics: %v", err)
		}
		for _, family := range []string{
			"ganymede_requests_total",
			"ganymede_upstream_requests_total",
			"ganymede_upstream_healthy",
		} {
			if !bytes.Contains(body, []byte(family)) {
				t.Errorf("metrics output missing %s", family)
			}
		}
	})

	t.Run("journal persistence", func(t *testing.T) {
		// Close flushes the async queue so every record is visible.
		if err := recorder.Close(); err != nil {
			t.Fatalf("closing recorder: %v", err)
		}

		records, err := store.Query(context.Background(), &journal.Query{Status: journal.StatusSuccess})
		if err != nil {
			t.Fatalf("querying journal: %v", err)
		}
		if len(records) < 2 {
			t.Fatalf("journal has %d success records, want at least 2", len(records))
		}

		modes := make(map[string]bool)
		for _, record := range records {
			if record.Model != "deepseek-v3" {
				t.Errorf("record model = %q, want deepseek-v3", record.Model)
			}
			if record.RequestID == "" {
				t.Error("record missing request ID")
			}
			if record.AnswerChars == 0 {
				t.Error("record has zero answer chars")
			}
			modes[record.Mode] = true
		}
		if !modes[journal.ModeStream] || !modes[journal.ModeAggregate] {
			t.Errorf("journal modes = %v, want both stream and aggregate", modes)
		}
	})
}

func postChatCompletion(t *testing.T, baseURL string, payload map[string]any) *http.Response {
	t.Helper()

	body, err := json.Marshal(payload)
	if err != nil {
		t.Fatalf("marshaling request: %v", err)
	}

	req, err := http.NewRequest(http.MethodPost, baseURL+"/v1/chat/completions", bytes.NewReader(body))
	if err != nil {
		t.Fatalf("creating request: %v", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+testAPIKey)

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("sending request: %v", err)
	}
	return resp
}
