package handlers

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"mercator-hq/ganymede/pkg/catalog"
	"mercator-hq/ganymede/pkg/config"
	"mercator-hq/ganymede/pkg/journal"
	"mercator-hq/ganymede/pkg/proxy"
	"mercator-hq/ganymede/pkg/proxy/types"
	"mercator-hq/ganymede/pkg/telemetry/logging"
	"mercator-hq/ganymede/pkg/telemetry/metrics"
	"mercator-hq/ganymede/pkg/translate"
	"mercator-hq/ganymede/pkg/upstream"
)

// Upstream endpoint labels used in metrics.
const (
	endpointCreate = "create"
	endpointChat   = "chat"
)

// Error classifications recorded in the journal.
const (
	errTypeValidation    = "validation"
	errTypeSessionCreate = "session_create"
	errTypeUpstream      = "upstream"
	errTypeStreamRead    = "stream_read"
	errTypeDisconnect    = "client_disconnect"
	errTypeTimeout       = "timeout"
)

// ChatHandler serves POST /v1/chat/completions. Each request becomes one
// upstream exchange: the handler resolves the requested model against the
// catalog, flattens the message history into a single question, creates a
// conversation under a fresh device identity, and re-emits the upstream
// event stream in OpenAI form, either as server-sent events or as one
// aggregated JSON response.
type ChatHandler struct {
	client    UpstreamClient
	catalog   *catalog.Catalog
	translate config.TranslateConfig
	metrics   *metrics.Collector
	journal   *journal.Recorder
}

// NewChatHandler creates a chat completion handler. A nil collector
// disables metrics; a nil recorder disables journaling.
func NewChatHandler(client UpstreamClient, cat *catalog.Catalog, translateCfg config.TranslateConfig, collector *metrics.Collector, recorder *journal.Recorder) *ChatHandler {
	if collector == nil {
		collector = metrics.NewCollector(&config.MetricsConfig{}, nil)
	}

	return &ChatHandler{
		client:    client,
		catalog:   cat,
		translate: translateCfg,
		metrics:   collector,
		journal:   recorder,
	}
}

// completion carries the per-request state shared by both response modes.
type completion struct {
	params     upstream.ChatParams
	model      string // public model ID echoed in responses
	deferCards bool
	id         string
	created    int64
}

// ServeHTTP implements http.Handler.
func (h *ChatHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := logging.GetRequestID(ctx)
	start := time.Now()

	if r.Method != http.MethodPost {
		errResp := types.NewInvalidRequestError(
			fmt.Sprintf("Method %s not allowed. Use POST instead.", r.Method),
			"method",
			types.CodeMethodNotAllowed,
		)
		if err := proxy.WriteJSONResponse(w, http.StatusMethodNotAllowed, errResp); err != nil {
			slog.ErrorContext(ctx, "failed to write error response", "error", err)
		}
		return
	}

	rec := &journal.Record{RequestID: requestID}

	chatReq, err := proxy.ParseChatCompletionRequest(r)
	if err != nil {
		slog.WarnContext(ctx, "rejected chat completion request",
			"request_id", requestID,
			"error", err,
		)

		errResp := proxy.HandleError(err)
		if werr := proxy.WriteErrorResponse(w, errResp); werr != nil {
			slog.ErrorContext(ctx, "failed to write error response", "error", werr)
		}

		rec.Status = journal.StatusRejected
		rec.ErrorType = errTypeValidation
		h.finish(rec, start)
		return
	}

	rec.Model = chatReq.Model
	rec.Mode = journal.ModeAggregate
	if chatReq.Stream {
		rec.Mode = journal.ModeStream
	}

	entry := h.catalog.Resolve(chatReq.Model)
	rec.BackendModel = entry.BackendModel

	if entry.ID != chatReq.Model {
		slog.DebugContext(ctx, "unknown model, using default",
			"request_id", requestID,
			"requested", chatReq.Model,
			"resolved", entry.ID,
		)
	}

	slog.InfoContext(ctx, "processing chat completion request",
		"request_id", requestID,
		"model", chatReq.Model,
		"backend_model", entry.BackendModel,
		"mode", rec.Mode,
		"messages", len(chatReq.Messages),
	)

	history := make([]translate.Message, 0, len(chatReq.Messages))
	for _, msg := range chatReq.Messages {
		history = append(history, translate.Message{Role: msg.Role, Content: msg.Content})
	}
	history = translate.Truncate(history, h.translate.MaxContextChars)
	question := translate.Flatten(history)
	rec.QuestionChars = utf8.RuneCountInString(question)

	slog.DebugContext(ctx, "flattened question",
		"request_id", requestID,
		"question_chars", rec.QuestionChars,
		"question", truncateForLog(question, 200),
	)

	deviceID := upstream.NewDeviceID()

	createStart := time.Now()
	conversationID, err := h.client.CreateConversation(ctx, deviceID, entry.BackendModel, entry.Actions)
	h.metrics.RecordUpstreamRequest(endpointCreate, upstreamStatusLabel(err), time.Since(createStart))
	h.metrics.SetUpstreamHealthy(h.client.Healthy())
	if err != nil {
		slog.ErrorContext(ctx, "failed to create upstream conversation",
			"request_id", requestID,
			"model", chatReq.Model,
			"error", err,
		)

		errResp := proxy.HandleError(err)
		if werr := proxy.WriteErrorResponse(w, errResp); werr != nil {
			slog.ErrorContext(ctx, "failed to write error response", "error", werr)
		}

		rec.Status = journal.StatusError
		rec.ErrorType = errTypeSessionCreate
		h.finish(rec, start)
		return
	}
	rec.ConversationID = conversationID

	comp := &completion{
		params: upstream.ChatParams{
			DeviceID:       deviceID,
			ConversationID: conversationID,
			Model:          entry.BackendModel,
			UserAction:     entry.UserAction(),
			Question:       question,
		},
		model:      entry.ID,
		deferCards: entry.DeferCards,
		id:         proxy.NewResponseID(),
		created:    time.Now().Unix(),
	}

	if chatReq.Stream {
		h.streamCompletion(w, r, comp, rec, start)
		return
	}
	h.aggregateCompletion(w, r, comp, rec, start)
}

// streamCompletion drives the SSE response mode. The role chunk goes out
// before the upstream chat call so clients see the stream open right
// away; once SSE bytes are on the wire, failures are delivered in-band
// as a readable message followed by a clean stop.
func (h *ChatHandler) streamCompletion(w http.ResponseWriter, r *http.Request, comp *completion, rec *journal.Record, start time.Time) {
	ctx := r.Context()
	requestID := logging.GetRequestID(ctx)

	proxy.SetSSEHeaders(w)
	if flusher, ok := w.(http.Flusher); ok {
		flusher.Flush()
	}

	if err := proxy.WriteSSEChunk(w, proxy.NewRoleChunk(comp.id, comp.created, comp.model)); err != nil {
		slog.WarnContext(ctx, "client went away before streaming began",
			"request_id", requestID,
			"error", err,
		)
		rec.Status = journal.StatusError
		rec.ErrorType = errTypeDisconnect
		h.finish(rec, start)
		return
	}

	chatStart := time.Now()
	stream, err := h.client.StreamChat(ctx, comp.params)
	h.metrics.RecordUpstreamRequest(endpointChat, upstreamStatusLabel(err), time.Since(chatStart))
	h.metrics.SetUpstreamHealthy(h.client.Healthy())
	if err != nil {
		slog.ErrorContext(ctx, "upstream chat request failed",
			"request_id", requestID,
			"model", comp.model,
			"conversation_id", comp.params.ConversationID,
			"error", err,
		)

		errResp := proxy.HandleError(err)
		h.writeStreamFailure(ctx, w, comp, errResp.Error.Message)

		rec.Status = journal.StatusError
		rec.ErrorType = errTypeUpstream
		h.finish(rec, start)
		return
	}
	defer stream.Close()

	var answerChars int
	emit := func(frag translate.Fragment) error {
		if frag.Stop {
			return proxy.WriteSSEChunk(w, proxy.NewStopChunk(comp.id, comp.created, comp.model))
		}
		answerChars += utf8.RuneCountInString(frag.Content)
		return proxy.WriteSSEChunk(w, proxy.NewContentChunk(comp.id, comp.created, comp.model, frag.Content))
	}

	pumpErr := pumpStream(ctx, stream, comp.deferCards, emit)
	rec.AnswerChars = answerChars

	var streamErr *upstream.StreamError
	switch {
	case pumpErr == nil:
		if err := proxy.WriteSSEDone(w); err != nil {
			slog.ErrorContext(ctx, "failed to write done marker", "request_id", requestID, "error", err)
		}
		rec.Status = journal.StatusSuccess

	case errors.As(pumpErr, &streamErr):
		// The segmenter already closed the message, so the client got a
		// well-formed answer cut short at the failure point.
		slog.ErrorContext(ctx, "upstream stream failed mid-answer",
			"request_id", requestID,
			"conversation_id", comp.params.ConversationID,
			"error", pumpErr,
		)
		if err := proxy.WriteSSEDone(w); err != nil {
			slog.ErrorContext(ctx, "failed to write done marker", "request_id", requestID, "error", err)
		}
		rec.Status = journal.StatusError
		rec.ErrorType = errTypeStreamRead

	default:
		slog.WarnContext(ctx, "stream ended before completion",
			"request_id", requestID,
			"answer_chars", rec.AnswerChars,
			"error", pumpErr,
		)
		rec.Status = journal.StatusError
		rec.ErrorType = disconnectType(pumpErr)
	}

	h.finish(rec, start)

	slog.InfoContext(ctx, "chat completion finished",
		"request_id", requestID,
		"model", comp.model,
		"mode", rec.Mode,
		"status", rec.Status,
		"answer_chars", rec.AnswerChars,
		"latency_ms", rec.DurationMS,
	)
}

// aggregateCompletion drives the single-JSON response mode. The upstream
// is still consumed as a stream; fragments accumulate into one assistant
// message identical to what streaming mode would have concatenated.
func (h *ChatHandler) aggregateCompletion(w http.ResponseWriter, r *http.Request, comp *completion, rec *journal.Record, start time.Time) {
	ctx := r.Context()
	requestID := logging.GetRequestID(ctx)

	chatStart := time.Now()
	stream, err := h.client.StreamChat(ctx, comp.params)
	h.metrics.RecordUpstreamRequest(endpointChat, upstreamStatusLabel(err), time.Since(chatStart))
	h.metrics.SetUpstreamHealthy(h.client.Healthy())
	if err != nil {
		slog.ErrorContext(ctx, "upstream chat request failed",
			"request_id", requestID,
			"model", comp.model,
			"conversation_id", comp.params.ConversationID,
			"error", err,
		)

		errResp := proxy.HandleError(err)
		if werr := proxy.WriteErrorResponse(w, errResp); werr != nil {
			slog.ErrorContext(ctx, "failed to write error response", "error", werr)
		}

		rec.Status = journal.StatusError
		rec.ErrorType = errTypeUpstream
		h.finish(rec, start)
		return
	}
	defer stream.Close()

	var answer strings.Builder
	emit := func(frag translate.Fragment) error {
		if !frag.Stop {
			answer.WriteString(frag.Content)
		}
		return nil
	}

	pumpErr := pumpStream(ctx, stream, comp.deferCards, emit)

	var streamErr *upstream.StreamError
	switch {
	case pumpErr == nil:
		rec.Status = journal.StatusSuccess

	case errors.As(pumpErr, &streamErr):
		// Deliver what arrived. The segmenter closed the message, so the
		// partial answer is well formed and matches what streaming mode
		// would have sent.
		slog.ErrorContext(ctx, "upstream stream failed mid-answer",
			"request_id", requestID,
			"conversation_id", comp.params.ConversationID,
			"error", pumpErr,
		)
		rec.Status = journal.StatusError
		rec.ErrorType = errTypeStreamRead

	default:
		slog.WarnContext(ctx, "request ended before completion",
			"request_id", requestID,
			"error", pumpErr,
		)
		rec.Status = journal.StatusError
		rec.ErrorType = disconnectType(pumpErr)
		rec.AnswerChars = utf8.RuneCountInString(answer.String())
		h.finish(rec, start)
		return
	}

	content := answer.String()
	rec.AnswerChars = utf8.RuneCountInString(content)

	slog.DebugContext(ctx, "aggregated answer",
		"request_id", requestID,
		"answer_chars", rec.AnswerChars,
		"answer", truncateForLog(content, 200),
	)

	resp := proxy.NewChatCompletionResponse(comp.id, comp.created, comp.model, content)
	if err := proxy.WriteJSONResponse(w, http.StatusOK, resp); err != nil {
		slog.ErrorContext(ctx, "failed to write response",
			"request_id", requestID,
			"error", err,
		)
	}

	h.finish(rec, start)

	slog.InfoContext(ctx, "chat completion finished",
		"request_id", requestID,
		"model", comp.model,
		"mode", rec.Mode,
		"status", rec.Status,
		"answer_chars", rec.AnswerChars,
		"latency_ms", rec.DurationMS,
	)
}

// writeStreamFailure delivers a failure to a client already holding an
// open event stream: one content chunk carrying the message, a stop
// chunk, and the terminal marker, so strict clients still see a complete
// response envelope.
func (h *ChatHandler) writeStreamFailure(ctx context.Context, w http.ResponseWriter, comp *completion, message string) {
	if err := proxy.WriteSSEChunk(w, proxy.NewContentChunk(comp.id, comp.created, comp.model, message)); err != nil {
		slog.ErrorContext(ctx, "failed to write error chunk", "error", err)
		return
	}
	if err := proxy.WriteSSEChunk(w, proxy.NewStopChunk(comp.id, comp.created, comp.model)); err != nil {
		slog.ErrorContext(ctx, "failed to write stop chunk", "error", err)
		return
	}
	if err := proxy.WriteSSEDone(w); err != nil {
		slog.ErrorContext(ctx, "failed to write done marker", "error", err)
	}
}

// pumpStream drains the upstream stream through a segmenter, handing each
// normalized fragment to emit. A mid-stream read failure still flushes
// the segmenter so the consumer receives a well-formed tail; the read
// error is returned after the flush. Context cancellation and emit
// failures return immediately.
func pumpStream(ctx context.Context, stream *upstream.ChatStream, deferCards bool, emit func(translate.Fragment) error) error {
	seg := translate.NewSegmenter(deferCards)
	var readErr error

loop:
	for {
		ev, err := stream.Next(ctx)
		switch {
		case err == nil:
		case errors.Is(err, io.EOF):
			break loop
		case ctx.Err() != nil:
			return ctx.Err()
		default:
			readErr = err
			break loop
		}

		for _, frag := range seg.Feed(translate.Event{Type: ev.ContentType, Content: ev.Content}) {
			if err := emit(frag); err != nil {
				return err
			}
		}
	}

	for _, frag := range seg.Finish() {
		if err := emit(frag); err != nil {
			return err
		}
	}

	return readErr
}

// finish stamps the record with the total duration, updates request
// metrics, and enqueues the journal entry. Each request passes through
// here exactly once.
func (h *ChatHandler) finish(rec *journal.Record, start time.Time) {
	elapsed := time.Since(start)
	rec.DurationMS = elapsed.Milliseconds()
	h.metrics.RecordRequest(rec.Model, rec.Mode, rec.Status, elapsed)
	if h.journal != nil {
		h.journal.Record(rec)
	}
}

// disconnectType classifies a pump failure that was not an upstream read
// error: a request deadline or the client going away.
func disconnectType(err error) string {
	if errors.Is(err, context.DeadlineExceeded) {
		return errTypeTimeout
	}
	return errTypeDisconnect
}

// upstreamStatusLabel renders an upstream call result as a metrics label:
// the HTTP status code when one was received, "error" otherwise.
func upstreamStatusLabel(err error) string {
	if err == nil {
		return "200"
	}

	var sessionErr *upstream.SessionError
	if errors.As(err, &sessionErr) && sessionErr.StatusCode != 0 {
		return strconv.Itoa(sessionErr.StatusCode)
	}

	var statusErr *upstream.StatusError
	if errors.As(err, &statusErr) && statusErr.StatusCode != 0 {
		return strconv.Itoa(statusErr.StatusCode)
	}

	return "error"
}

// truncateForLog caps a string destined for a log field.
func truncateForLog(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max] + "..."
}
