package chatbot

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"sync"
	"time"

	"LoopChat/internal/backend"
	"LoopChat/internal/cache"
	"LoopChat/internal/config"
	"LoopChat/internal/llm"
	"LoopChat/internal/session"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
)

// Deps are the initialized services a ChatBot runs on. Store may be nil,
// in which case transcripts are not persisted.
type Deps struct {
	Logger *slog.Logger
	Tracer trace.Tracer
	Meter  metric.Meter
	Store  *session.Store
}

// ChatBot represents the interactive application
type ChatBot struct {
	config  config.Config
	logger  *slog.Logger
	tracer  trace.Tracer
	store   *session.Store
	cache   cache.Cache
	backend backend.Backend
	session *session.Session
	raw     bool
	mu      sync.Mutex

	sent      metric.Int64Counter
	cacheHits metric.Int64Counter
	duration  metric.Float64Histogram
}

// NewChatBot creates a new ChatBot instance
func NewChatBot(ctx context.Context, cfg config.Config, deps Deps) (*ChatBot, error) {
	sent, err := deps.Meter.Int64Counter(
		"loopchat.messages.sent",
		metric.WithDescription("Messages sent to the backend"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create counter: %w", err)
	}
	cacheHits, err := deps.Meter.Int64Counter(
		"loopchat.cache.hits",
		metric.WithDescription("Replies served from the cache"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create counter: %w", err)
	}
	duration, err := deps.Meter.Float64Histogram(
		"loopchat.send.duration",
		metric.WithDescription("Backend send duration in milliseconds"),
		metric.WithUnit("ms"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create histogram: %w", err)
	}

	cb := &ChatBot{
		config:    cfg,
		logger:    deps.Logger,
		tracer:    deps.Tracer,
		store:     deps.Store,
		sent:      sent,
		cacheHits: cacheHits,
		duration:  duration,
	}

	cb.session = cb.openSession(ctx, cfg.SessionID)

	b, err := cb.newBackend(cb.session.Provider, cb.session.Model)
	if err != nil {
		return nil, err
	}
	cb.backend = b

	if cfg.Debug {
		cb.logger.Debug("debug mode enabled")
	}

	return cb, nil
}

// openSession resumes id from the store when possible, otherwise starts fresh
func (cb *ChatBot) openSession(ctx context.Context, id string) *session.Session {
	if id != "" && cb.store != nil {
		sess, err := cb.store.Load(ctx, id)
		if err == nil {
			cb.logger.Info("loaded existing session", "session_id", sess.ID, "message_count", len(sess.Messages))
			return sess
		}
		if !errors.Is(err, session.ErrNotFound) {
			cb.logger.Warn("failed to load session, creating new one", "session_id", id, "error", err)
		}
	}

	sess := session.New(id, cb.config.Provider, cb.config.Model, cb.config.SystemMessage)
	cb.logger.Info("created new session", "session_id", sess.ID, "provider", sess.Provider, "model", sess.Model)
	return sess
}

func (cb *ChatBot) newBackend(provider, model string) (backend.Backend, error) {
	return backend.New(provider, model, cb.config.APIKey, cb.session.ID, cb.session.SystemMessage)
}

// Session returns the active session
func (cb *ChatBot) Session() *session.Session {
	cb.mu.Lock()
	defer cb.mu.Unlock()
	return cb.session
}

// SendMessage sends one user turn to the active backend and records both
// turns in the transcript.
func (cb *ChatBot) SendMessage(ctx context.Context, text string) (string, error) {
	cb.mu.Lock()
	sess := cb.session
	b := cb.backend
	sess.Append(session.RoleUser, text)
	cacheKey := cache.GenerateCacheKey(sess.Provider, sess.Model, sess.SystemMessage, text)
	attrs := []attribute.KeyValue{
		attribute.String("session.id", sess.ID),
		attribute.String("llm.provider", sess.Provider),
		attribute.String("llm.model", sess.Model),
	}
	cb.mu.Unlock()

	ctx, span := cb.tracer.Start(ctx, "llm.send_message", trace.WithAttributes(attrs...))
	defer span.End()

	if cached, ok := cb.cache.Load(cacheKey); ok {
		span.SetAttributes(attribute.Bool("cache.hit", true))
		cb.cacheHits.Add(ctx, 1, metric.WithAttributes(attrs...))
		cb.logger.Debug("cache hit", "key", cacheKey[:16])
		cb.finishTurn(ctx, sess, cached.Response)
		return cached.Response, nil
	}
	span.SetAttributes(attribute.Bool("cache.hit", false))

	start := time.Now()
	response, err := b.Send(ctx, text)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return "", fmt.Errorf("failed to send message via %s: %w", b.Name(), err)
	}
	cb.duration.Record(ctx, float64(time.Since(start).Microseconds())/1000, metric.WithAttributes(attrs...))
	cb.sent.Add(ctx, 1, metric.WithAttributes(attrs...))

	cb.cache.Store(cacheKey, response)
	cb.finishTurn(ctx, sess, response)

	return response, nil
}

func (cb *ChatBot) finishTurn(ctx context.Context, sess *session.Session, response string) {
	cb.mu.Lock()
	sess.Append(session.RoleAssistant, response)
	cb.mu.Unlock()

	if err := cb.saveSession(ctx, sess); err != nil {
		cb.logger.Error("failed to save session", "session_id", sess.ID, "error", err)
	}
}

func (cb *ChatBot) saveSession(ctx context.Context, sess *session.Session) error {
	if cb.store == nil {
		return nil
	}
	cb.mu.Lock()
	defer cb.mu.Unlock()

	if err := cb.store.Save(ctx, sess); err != nil {
		return err
	}
	cb.logger.Info("session saved", "session_id", sess.ID, "message_count", len(sess.Messages))
	return nil
}

// handleCommand handles slash commands. It reports whether the loop should stop.
func (cb *ChatBot) handleCommand(ctx context.Context, cmd string, out io.Writer) (bool, error) {
	parts := strings.Fields(cmd)
	if len(parts) == 0 {
		return false, nil
	}

	switch parts[0] {
	case "/quit", "/exit":
		return true, nil

	case "/new-session":
		if err := cb.saveSession(ctx, cb.Session()); err != nil {
			cb.logger.Error("failed to save current session", "error", err)
		}
		cb.mu.Lock()
		prev := cb.session
		cb.session = session.New("", prev.Provider, prev.Model, prev.SystemMessage)
		cb.mu.Unlock()

		b, err := cb.newBackend(prev.Provider, prev.Model)
		if err != nil {
			return false, err
		}
		cb.mu.Lock()
		cb.backend = b
		id := cb.session.ID
		cb.mu.Unlock()
		cb.logger.Info("created new session", "session_id", id)
		fmt.Fprintln(out, "Started new session:", id)
		return false, nil

	case "/switch":
		if len(parts) < 2 {
			return false, fmt.Errorf("usage: /switch <provider> [model] (%s)", strings.Join(backend.KnownProviders(), "|"))
		}
		provider := parts[1]
		model := cb.Session().Model
		if len(parts) > 2 {
			model = parts[2]
		}
		b, err := cb.newBackend(provider, model)
		if err != nil {
			return false, err
		}
		cb.mu.Lock()
		cb.backend = b
		cb.session.Provider = provider
		cb.session.Model = model
		cb.mu.Unlock()
		cb.logger.Info("switched backend", "provider", provider, "model", model)
		fmt.Fprintf(out, "Switched to %s\n", b.Name())
		return false, nil

	case "/sessions":
		if cb.store == nil {
			return false, errors.New("session storage is disabled")
		}
		list, err := cb.store.List(ctx)
		if err != nil {
			return false, err
		}
		if len(list) == 0 {
			fmt.Fprintln(out, "No saved sessions")
		}
		for _, s := range list {
			fmt.Fprintf(out, "  %s  %s/%s  %d messages  %s\n",
				s.ID, s.Provider, s.Model, s.MessageCount, s.StartTime.Format(time.RFC3339))
		}
		return false, nil

	case "/raw":
		cb.mu.Lock()
		cb.raw = !cb.raw
		raw := cb.raw
		cb.mu.Unlock()
		fmt.Fprintf(out, "Raw output: %v\n", raw)
		return false, nil

	case "/help":
		fmt.Fprintln(out, "Available commands:")
		fmt.Fprintln(out, "  /quit, /exit               - Exit")
		fmt.Fprintln(out, "  /new-session               - Start a new session")
		fmt.Fprintln(out, "  /switch <provider> [model] - Switch provider ("+strings.Join(backend.KnownProviders(), "|")+")")
		fmt.Fprintln(out, "  /sessions                  - List saved sessions")
		fmt.Fprintln(out, "  /raw                       - Toggle raw JSON output")
		fmt.Fprintln(out, "  /help                      - Show this help message")
		return false, nil

	default:
		return false, fmt.Errorf("unknown command: %s", parts[0])
	}
}

// Run reads lines from in until EOF or /quit, writing replies to out.
func (cb *ChatBot) Run(ctx context.Context, in io.Reader, out io.Writer) error {
	sess := cb.Session()
	fmt.Fprintln(out, "=== LoopChat ===")
	fmt.Fprintf(out, "Session: %s\n", sess.ID)
	fmt.Fprintf(out, "Backend: %s/%s\n", sess.Provider, sess.Model)
	fmt.Fprintln(out, "Describe the loop you want. Type /help for commands, /quit to exit")
	fmt.Fprintln(out)

	scanner := bufio.NewScanner(in)
	for {
		fmt.Fprint(out, "You: ")
		if !scanner.Scan() {
			break
		}

		input := strings.TrimSpace(scanner.Text())
		if input == "" {
			continue
		}

		if strings.HasPrefix(input, "/") {
			shouldQuit, err := cb.handleCommand(ctx, input, out)
			if err != nil {
				fmt.Fprintf(out, "Error: %v\n", err)
				cb.logger.Error("command error", "command", input, "error", err)
			}
			if shouldQuit {
				break
			}
			continue
		}

		response, err := cb.SendMessage(ctx, input)
		if err != nil {
			fmt.Fprintf(out, "Error: %v\n", err)
			cb.logger.Error("failed to send message", "error", err)
			continue
		}

		cb.mu.Lock()
		raw := cb.raw
		cb.mu.Unlock()
		fmt.Fprintf(out, "Bot: %s\n\n", renderReply(response, raw))
	}
	if err := scanner.Err(); err != nil {
		cb.logger.Error("failed to read input", "error", err)
	}

	if err := cb.saveSession(ctx, cb.Session()); err != nil {
		cb.logger.Error("failed to save session on exit", "error", err)
		return err
	}

	fmt.Fprintln(out, "Goodbye!")
	return nil
}

// renderReply formats a loop payload for the terminal. Replies that do not
// decode as a loop are shown as-is.
func renderReply(text string, raw bool) string {
	if raw {
		return text
	}
	loop, err := llm.ParseLoop(text)
	if err != nil {
		return text
	}

	var b strings.Builder
	fmt.Fprintf(&b, "%s (%s, resets %s)\n", loop.Name, loop.Color, loop.ResetRule)
	if loop.Description != "" {
		fmt.Fprintf(&b, "%s\n", loop.Description)
	}
	for i, task := range loop.Tasks {
		fmt.Fprintf(&b, "  %d. [%s] %s\n", i+1, task.Type, task.Description)
	}
	return strings.TrimRight(b.String(), "\n")
}
