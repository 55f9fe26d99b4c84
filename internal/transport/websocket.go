// Package transport exposes the orchestration engine over a websocket.
package transport

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"slices"
	"sync"
	"time"

	"github.com/ashureev/insurance-a2a/internal/convlog"
	"github.com/ashureev/insurance-a2a/internal/domain"
	"github.com/ashureev/insurance-a2a/internal/negotiation"
	"github.com/coder/websocket"
	"github.com/google/uuid"
	"golang.org/x/time/rate"
)

// Sessions creates and destroys per-connection session state.
type Sessions interface {
	CreateSession(sessionID string) context.Context
	DestroySession(sessionID string)
}

// Engine is the orchestration surface driven by inbound events.
type Engine interface {
	HandleUserMessage(ctx context.Context, sessionID string, out negotiation.Emitter, text string) error
	AcceptOffer(ctx context.Context, sessionID string, out negotiation.Emitter, negotiationID string) error
	RejectOffer(ctx context.Context, sessionID string, out negotiation.Emitter, negotiationID, feedback string) error
	CompletePayment(ctx context.Context, sessionID string, out negotiation.Emitter, conf domain.PaymentConfirmation) error
}

// Options configure the websocket handler.
type Options struct {
	AllowedOrigins    []string // empty or "*" allows any origin
	IsDev             bool
	RateLimitMessages int
	RateLimitWindow   time.Duration
	QueueSize         int
	WriteTimeout      time.Duration
	Renderer          *Renderer
	ConversationLog   convlog.Logger
	Connections       *Connections
	NewID             func() string
	Logger            *slog.Logger
}

// Handler serves the /ws endpoint. Each connection is one session.
type Handler struct {
	sessions Sessions
	engine   Engine
	opts     Options
	logger   *slog.Logger
}

// NewHandler creates a websocket handler.
func NewHandler(sessions Sessions, engine Engine, opts Options) *Handler {
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	if opts.NewID == nil {
		opts.NewID = uuid.NewString
	}
	if opts.ConversationLog == nil {
		opts.ConversationLog = convlog.Nop{}
	}
	if opts.Connections == nil {
		opts.Connections = NewConnections()
	}
	if opts.WriteTimeout <= 0 {
		opts.WriteTimeout = 10 * time.Second
	}
	return &Handler{
		sessions: sessions,
		engine:   engine,
		opts:     opts,
		logger:   opts.Logger.With("component", "transport"),
	}
}

// ServeHTTP implements http.Handler for the websocket upgrade.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if !h.checkOrigin(r) {
		http.Error(w, "origin not allowed", http.StatusForbidden)
		return
	}

	ws, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		OriginPatterns: []string{"*"},
	})
	if err != nil {
		h.logger.Error("Failed to accept WebSocket", "error", err, "ip", r.RemoteAddr)
		return
	}
	sessionID := h.opts.NewID()
	logger := h.logger.With("session_id", sessionID)
	logger.Info("User connected", "ip", r.RemoteAddr)
	defer func() {
		if closeErr := ws.Close(websocket.StatusNormalClosure, "session ended"); closeErr != nil {
			logger.Debug("Failed to close websocket", "error", closeErr)
		}
	}()

	defer h.opts.ConversationLog.End(sessionID)
	h.sessions.CreateSession(sessionID)
	defer h.sessions.DestroySession(sessionID)
	h.opts.Connections.Register(sessionID, ws)
	defer h.opts.Connections.Unregister(sessionID, ws)

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()

	c := &client{
		sessionID: sessionID,
		remoteIP:  r.RemoteAddr,
		ws:        ws,
		renderer:  h.opts.Renderer,
		log:       h.opts.ConversationLog,
		timeout:   h.opts.WriteTimeout,
		logger:    logger,
	}
	a := newActor(sessionID, h.opts.QueueSize, logger)

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		a.run(ctx, func(string) { c.emitError(ctx, msgInternal) })
	}()

	h.readLoop(ctx, c, a, h.limiter())

	cancel()
	wg.Wait()
	logger.Info("User disconnected")
}

func (h *Handler) limiter() *rate.Limiter {
	if h.opts.RateLimitMessages <= 0 || h.opts.RateLimitWindow <= 0 {
		return rate.NewLimiter(rate.Inf, 0)
	}
	every := h.opts.RateLimitWindow / time.Duration(h.opts.RateLimitMessages)
	return rate.NewLimiter(rate.Every(every), h.opts.RateLimitMessages)
}

func (h *Handler) checkOrigin(r *http.Request) bool {
	if h.opts.IsDev {
		return true
	}
	origin := r.Header.Get("Origin")
	if origin == "" || len(h.opts.AllowedOrigins) == 0 || slices.Contains(h.opts.AllowedOrigins, "*") {
		return true
	}
	if slices.Contains(h.opts.AllowedOrigins, origin) {
		return true
	}
	h.logger.Warn("WebSocket origin rejected", "origin", origin, "allowed", h.opts.AllowedOrigins)
	return false
}

func (h *Handler) readLoop(ctx context.Context, c *client, a *actor, limiter *rate.Limiter) {
	for {
		_, message, err := c.ws.Read(ctx)
		if err != nil {
			if websocket.CloseStatus(err) != -1 || ctx.Err() != nil {
				c.logger.Debug("WebSocket closed by client")
			} else {
				c.logger.Warn("WebSocket read error", "error", err)
			}
			return
		}

		var env envelope
		if err := json.Unmarshal(message, &env); err != nil {
			c.logger.Debug("Malformed frame", "error", err)
			c.emitError(ctx, msgMalformed)
			continue
		}
		if err := h.dispatch(ctx, c, a, limiter, env); err != nil {
			c.logger.Debug("Inbound event rejected", "event", env.Event, "error", err)
			c.emitError(ctx, msgMalformed)
		}
	}
}

// dispatch maps one inbound event to an engine call on the session actor.
func (h *Handler) dispatch(ctx context.Context, c *client, a *actor, limiter *rate.Limiter, env envelope) error {
	var fn func(ctx context.Context) error
	switch env.Event {
	case EventPing:
		return c.write(ctx, EventPong, nil)

	case EventUserMessage:
		msg, err := decode[userMessage](env.Data)
		if err != nil {
			return err
		}
		if !limiter.Allow() {
			c.logger.Info("User message rate limited")
			c.emitError(ctx, msgRateLimited)
			return nil
		}
		text := msg.text()
		if text == "" {
			return nil
		}
		c.record(convlog.Event{Direction: convlog.Inbound, EventType: env.Event, ContentRaw: text})
		fn = func(ctx context.Context) error { return h.engine.HandleUserMessage(ctx, c.sessionID, c, text) }

	case EventAcceptOffer:
		act, err := decode[offerAction](env.Data)
		if err != nil {
			return err
		}
		c.record(convlog.Event{Direction: convlog.Inbound, EventType: env.Event, Meta: map[string]any{"negotiation_id": act.NegotiationID}})
		fn = func(ctx context.Context) error { return h.engine.AcceptOffer(ctx, c.sessionID, c, act.NegotiationID) }

	case EventRejectOffer:
		act, err := decode[offerAction](env.Data)
		if err != nil {
			return err
		}
		c.record(convlog.Event{Direction: convlog.Inbound, EventType: env.Event, ContentRaw: act.Feedback, Meta: map[string]any{"negotiation_id": act.NegotiationID}})
		fn = func(ctx context.Context) error {
			return h.engine.RejectOffer(ctx, c.sessionID, c, act.NegotiationID, act.Feedback)
		}

	case EventPaymentCompleted:
		conf, err := decode[domain.PaymentConfirmation](env.Data)
		if err != nil {
			return err
		}
		c.record(convlog.Event{Direction: convlog.Inbound, EventType: env.Event, Meta: map[string]any{"payment_id": conf.PaymentID, "status": conf.Status}})
		fn = func(ctx context.Context) error { return h.engine.CompletePayment(ctx, c.sessionID, c, conf) }

	default:
		c.logger.Debug("Unknown event", "event", env.Event)
		c.emitError(ctx, msgUnknownEvent)
		return nil
	}

	if err := a.submit(env.Event, fn); err != nil {
		c.logger.Warn("Inbound event dropped", "event", env.Event, "error", err)
		c.emitError(ctx, msgBusy)
	}
	return nil
}

// client is one connection's outbound side. It implements
// negotiation.Emitter.
type client struct {
	sessionID string
	remoteIP  string
	ws        *websocket.Conn
	renderer  *Renderer
	log       convlog.Logger
	timeout   time.Duration
	logger    *slog.Logger
	mu        sync.Mutex
}

// Emit writes an engine event, rendering bot message markdown first.
func (c *client) Emit(ctx context.Context, ev negotiation.Event) error {
	data := ev.Data
	rec := convlog.Event{Direction: convlog.Outbound, EventType: ev.Name}
	switch v := data.(type) {
	case negotiation.BotMessage:
		v.HTML = c.renderer.HTML(v.Message)
		data = v
		rec.Agent = v.Bot
		rec.ContentRaw = v.Message
		if v.NegotiationID != "" {
			rec.Meta = map[string]any{"negotiation_id": v.NegotiationID}
		}
	case negotiation.ProgressUpdate:
		rec.ContentRaw = v.Message
		rec.Meta = map[string]any{"negotiation_id": v.NegotiationID, "step": v.Step}
	case negotiation.ErrorNotice:
		rec.ContentRaw = v.Message
	}
	c.record(rec)
	return c.write(ctx, ev.Name, data)
}

func (c *client) emitError(ctx context.Context, msg string) {
	if err := c.Emit(ctx, negotiation.Event{Name: negotiation.EventError, Data: negotiation.ErrorNotice{Message: msg}}); err != nil {
		c.logger.Debug("Failed to send error event", "error", err)
	}
}

func (c *client) write(ctx context.Context, event string, data any) error {
	payload, err := json.Marshal(outbound{Event: event, Data: data})
	if err != nil {
		return fmt.Errorf("marshal %s: %w", event, err)
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	wctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()
	return c.ws.Write(wctx, websocket.MessageText, payload)
}

func (c *client) record(ev convlog.Event) {
	ev.SessionID = c.sessionID
	ev.ConnectionIP = c.remoteIP
	c.log.Log(ev)
}
