package upstream

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"sync"
	"time"
)

const (
	// DefaultBaseURL is the production upstream endpoint.
	DefaultBaseURL = "https://ai-api.dangbei.net"

	createPath = "/ai-search/conversationApi/v1/create"
	chatPath   = "/ai-search/chatApi/v1/chat"

	originHeader  = "https://ai.dangbei.com"
	refererHeader = "https://ai.dangbei.com/"

	botCode = "AI_SEARCH"

	// createTimestampSkew is subtracted from the wall clock when signing
	// conversation create calls, matching the upstream web client's
	// behavior. Chat calls use the current time.
	createTimestampSkew = 20 * time.Second

	// unhealthyThreshold is the consecutive-failure count after which the
	// client reports not-ready.
	unhealthyThreshold = 3
)

// Config holds the upstream client settings.
type Config struct {
	// BaseURL is the upstream origin (DefaultBaseURL when empty)
	BaseURL string

	// Timeout bounds a whole upstream exchange including the time spent
	// reading the event stream
	Timeout time.Duration

	// MaxIdleConns is the connection pool size
	MaxIdleConns int

	// MaxIdleConnsPerHost is the per-host connection pool size
	MaxIdleConnsPerHost int

	// IdleConnTimeout is how long idle connections are kept
	IdleConnTimeout time.Duration
}

// Health is a snapshot of the client's request-outcome tracking.
type Health struct {
	// Healthy is false after unhealthyThreshold consecutive failures
	Healthy bool

	// LastCheck is when the last outcome was recorded
	LastCheck time.Time

	// ConsecutiveFailures counts failures since the last success
	ConsecutiveFailures int

	// LastError is the most recent failure (nil after a success)
	LastError error

	// LastSuccess is when the last successful call completed
	LastSuccess time.Time

	// TotalRequests counts all upstream calls
	TotalRequests uint64

	// FailedRequests counts failed upstream calls
	FailedRequests uint64
}

// Client talks to the upstream conversational search API. It is safe for
// concurrent use.
type Client struct {
	config Config
	client *http.Client
	agents *UserAgentCache

	healthMu sync.RWMutex
	health   Health
}

// NewClient creates an upstream client with a pooled HTTP/2-capable
// transport. The agents cache supplies the User-Agent presented for each
// device identity.
func NewClient(cfg Config, agents *UserAgentCache) *Client {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = 20 * time.Minute
	}
	if cfg.MaxIdleConns == 0 {
		cfg.MaxIdleConns = 100
	}
	if cfg.MaxIdleConnsPerHost == 0 {
		cfg.MaxIdleConnsPerHost = 10
	}
	if cfg.IdleConnTimeout == 0 {
		cfg.IdleConnTimeout = 90 * time.Second
	}

	transport := &http.Transport{
		MaxIdleConns:        cfg.MaxIdleConns,
		MaxIdleConnsPerHost: cfg.MaxIdleConnsPerHost,
		IdleConnTimeout:     cfg.IdleConnTimeout,
		ForceAttemptHTTP2:   true,
	}

	return &Client{
		config: cfg,
		client: &http.Client{
			Transport: transport,
			Timeout:   cfg.Timeout,
		},
		agents: agents,
		health: Health{
			Healthy:     true,
			LastCheck:   time.Now(),
			LastSuccess: time.Now(),
		},
	}
}

// BaseURL returns the configured upstream origin.
func (c *Client) BaseURL() string {
	return c.config.BaseURL
}

// Healthy reports whether the client is below the consecutive-failure
// threshold.
func (c *Client) Healthy() bool {
	c.healthMu.RLock()
	defer c.healthMu.RUnlock()
	return c.health.Healthy
}

// Health returns a snapshot of the outcome tracking.
func (c *Client) Health() Health {
	c.healthMu.RLock()
	defer c.healthMu.RUnlock()
	return c.health
}

// trackOutcome records one upstream call result and updates the health
// state. Three consecutive failures mark the client unhealthy until the
// next success.
func (c *Client) trackOutcome(success bool, err error) {
	c.healthMu.Lock()
	defer c.healthMu.Unlock()

	c.health.LastCheck = time.Now()
	c.health.TotalRequests++

	if success {
		c.health.Healthy = true
		c.health.ConsecutiveFailures = 0
		c.health.LastError = nil
		c.health.LastSuccess = time.Now()
		return
	}

	c.health.FailedRequests++
	c.health.ConsecutiveFailures++
	c.health.LastError = err

	if c.health.ConsecutiveFailures >= unhealthyThreshold && c.health.Healthy {
		c.health.Healthy = false
		slog.Warn("upstream marked unhealthy",
			"consecutive_failures", c.health.ConsecutiveFailures,
			"error", err,
		)
	}
}

// CreateConversation opens a new upstream conversation for the given device
// identity and backend model, returning the conversation ID. Every failure
// path returns a *SessionError.
func (c *Client) CreateConversation(ctx context.Context, deviceID, model string, options []string) (string, error) {
	if options == nil {
		options = []string{}
	}

	payload := createRequest{
		MetaData: createMetaData{
			WriteCode: "",
			ChatModelConfig: chatModelConfig{
				Model:   model,
				Options: options,
			},
		},
		IsAnonymous: false,
	}

	body, err := marshalBody(payload)
	if err != nil {
		return "", &SessionError{Message: "failed to encode payload", Cause: err}
	}

	timestamp := strconv.FormatInt(time.Now().Add(-createTimestampSkew).Unix(), 10)
	nonce := NanoID(21)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.config.BaseURL+createPath, bytes.NewReader(body))
	if err != nil {
		return "", &SessionError{Message: "failed to build request", Cause: err}
	}

	c.setEnvelopeHeaders(req, deviceID, timestamp, nonce, Sign(timestamp, body, nonce))
	req.Header.Set("appType", "6")
	req.Header.Set("client-ver", "1.0.1")
	req.Header.Set("lang", "zh")
	req.Header.Set("token", "")

	resp, err := c.client.Do(req)
	if err != nil {
		c.trackOutcome(false, err)
		return "", &SessionError{Message: "request failed", Cause: err}
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		c.trackOutcome(false, err)
		return "", &SessionError{Message: "failed to read response", Cause: err}
	}

	if resp.StatusCode != http.StatusOK {
		serr := &SessionError{StatusCode: resp.StatusCode, Message: "unexpected status"}
		c.trackOutcome(false, serr)
		return "", serr
	}

	var created createResponse
	if err := json.Unmarshal(respBody, &created); err != nil {
		perr := &ParseError{RawResponse: string(respBody), Cause: err}
		c.trackOutcome(false, perr)
		return "", &SessionError{Message: "malformed response", Cause: perr}
	}

	if !created.Success || created.Data.ConversationID == "" {
		serr := &SessionError{Message: "upstream rejected conversation create"}
		c.trackOutcome(false, serr)
		slog.Warn("conversation create rejected", "response", truncateForLog(string(respBody), 512))
		return "", serr
	}

	c.trackOutcome(true, nil)
	slog.Debug("conversation created",
		"conversation_id", created.Data.ConversationID,
		"model", model,
	)
	return created.Data.ConversationID, nil
}

// StreamChat posts a question into an existing conversation and returns the
// event stream. The caller must Close the returned stream. A non-200
// response yields a *StatusError carrying the upstream status code.
func (c *Client) StreamChat(ctx context.Context, params ChatParams) (*ChatStream, error) {
	payload := chatRequest{
		Role:           "user",
		Stream:         true,
		BotCode:        botCode,
		UserAction:     params.UserAction,
		Model:          params.Model,
		ConversationID: params.ConversationID,
		Question:       params.Question,
		AnonymousKey:   "",
		ChatOption: chatOption{
			WriteCode:       nil,
			SearchKnowledge: false,
		},
		Files:   []string{},
		Status:  "local",
		AgentID: "",
	}

	body, err := marshalBody(payload)
	if err != nil {
		return nil, &StreamError{Message: "failed to encode payload", Cause: err}
	}

	timestamp := strconv.FormatInt(time.Now().Unix(), 10)
	nonce := NanoID(21)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.config.BaseURL+chatPath, bytes.NewReader(body))
	if err != nil {
		return nil, &StreamError{Message: "failed to build request", Cause: err}
	}

	c.setEnvelopeHeaders(req, params.DeviceID, timestamp, nonce, Sign(timestamp, body, nonce))

	resp, err := c.client.Do(req)
	if err != nil {
		c.trackOutcome(false, err)
		return nil, &StreamError{Message: "request failed", Cause: err}
	}

	if resp.StatusCode != http.StatusOK {
		resp.Body.Close()
		serr := &StatusError{Endpoint: chatPath, StatusCode: resp.StatusCode}
		c.trackOutcome(false, serr)
		return nil, serr
	}

	c.trackOutcome(true, nil)
	return newChatStream(resp.Body), nil
}

// setEnvelopeHeaders applies the signed-envelope headers common to every
// upstream call.
func (c *Client) setEnvelopeHeaders(req *http.Request, deviceID, timestamp, nonce, sign string) {
	req.Header.Set("Origin", originHeader)
	req.Header.Set("Referer", refererHeader)
	req.Header.Set("User-Agent", c.agents.For(deviceID))
	req.Header.Set("deviceId", deviceID)
	req.Header.Set("nonce", nonce)
	req.Header.Set("sign", sign)
	req.Header.Set("timestamp", timestamp)
	req.Header.Set("Content-Type", "application/json")
}

// Close releases pooled connections.
func (c *Client) Close() error {
	c.client.CloseIdleConnections()
	slog.Debug("upstream client closed")
	return nil
}

// truncateForLog caps a string destined for a log field.
func truncateForLog(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max] + "..."
}
