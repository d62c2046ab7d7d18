package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
	"github.com/gorilla/websocket"

	"github.com/ent0n29/remindbot/internal/config"
	"github.com/ent0n29/remindbot/internal/observability"
	"github.com/ent0n29/remindbot/internal/session"
	"github.com/ent0n29/remindbot/internal/tasks"
)

// ChatBot consumes normalized user input.
type ChatBot interface {
	HandleText(ctx context.Context, userID, text string) error
	HandleCallback(ctx context.Context, userID, messageID, data string) error
}

// TaskLister reads a user's active tasks.
type TaskLister interface {
	List(userID string) []tasks.Task
}

// JobReader reports on pending reminder jobs.
type JobReader interface {
	Pending() int
	FireAt(id string) (time.Time, bool)
}

// SessionReader looks up a user's dialog session.
type SessionReader interface {
	Get(userID string) (*session.Session, error)
}

type Deps struct {
	Bot      ChatBot
	Tasks    TaskLister
	Jobs     JobReader
	Sessions SessionReader
	Hub      *Hub
	Metrics  *observability.Metrics
}

type Server struct {
	cfg      config.Config
	bot      ChatBot
	tasks    TaskLister
	jobs     JobReader
	sessions SessionReader
	hub      *Hub
	metrics  *observability.Metrics
	upgrader websocket.Upgrader
}

func New(cfg config.Config, deps Deps) *Server {
	return &Server{
		cfg:      cfg,
		bot:      deps.Bot,
		tasks:    deps.Tasks,
		jobs:     deps.Jobs,
		sessions: deps.Sessions,
		hub:      deps.Hub,
		metrics:  deps.Metrics,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  4096,
			WriteBufferSize: 4096,
			CheckOrigin: func(r *http.Request) bool {
				// Browsers may only connect from the serving origin unless explicitly opened up.
				if cfg.AllowAnyOrigin {
					return true
				}
				origin := strings.TrimSpace(r.Header.Get("Origin"))
				if origin == "" {
					// Non-browser clients often omit Origin. Allow them.
					return true
				}
				u, err := url.Parse(origin)
				if err != nil {
					return false
				}
				if u.Scheme != "http" && u.Scheme != "https" {
					return false
				}
				return strings.EqualFold(u.Host, r.Host)
			},
		},
	}
}

func (s *Server) Router() http.Handler {
	r := chi.NewRouter()

	r.Get("/healthz", s.handleHealth)
	r.Get("/readyz", s.handleReady)
	r.Get("/metrics", func(w http.ResponseWriter, r *http.Request) {
		observability.MetricsHandler().ServeHTTP(w, r)
	})

	r.Route("/v1", func(r chi.Router) {
		r.Use(cors.Handler(cors.Options{
			AllowedOrigins: s.corsOrigins(),
			AllowedMethods: []string{"GET", "POST", "OPTIONS"},
			AllowedHeaders: []string{"Accept", "Content-Type"},
			MaxAge:         300,
		}))
		r.Get("/chat/ws", s.handleChatWS)
		r.Post("/chat/messages", s.handlePostMessage)
		r.Get("/chat/outbox", s.handleOutbox)
		r.Get("/users/{id}/tasks", s.handleListUserTasks)
		r.Get("/users/{id}/session", s.handleGetSession)
		r.Get("/perf/latency", s.handlePerfLatency)
	})

	return r
}

func (s *Server) corsOrigins() []string {
	if s.cfg.AllowAnyOrigin {
		return []string{"*"}
	}
	return s.cfg.CORSOrigins
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	respondJSON(w, http.StatusOK, map[string]any{
		"status": "ok",
	})
}

func (s *Server) handleReady(w http.ResponseWriter, _ *http.Request) {
	if s.bot == nil || s.hub == nil {
		respondError(w, http.StatusServiceUnavailable, "not_ready", "bot is not configured")
		return
	}
	body := map[string]any{
		"status":     "ready",
		"utc_offset": s.cfg.UTCOffset,
	}
	if s.jobs != nil {
		body["pending_jobs"] = s.jobs.Pending()
	}
	respondJSON(w, http.StatusOK, body)
}

type errorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}

var errEmptyBody = errors.New("empty body")

func decodeJSON(r *http.Request, out any) error {
	if r.Body == nil {
		return errEmptyBody
	}
	defer r.Body.Close()
	dec := json.NewDecoder(r.Body)
	if err := dec.Decode(out); err != nil {
		if strings.Contains(strings.ToLower(err.Error()), "eof") {
			return errEmptyBody
		}
		return err
	}
	return nil
}

func respondJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func respondError(w http.ResponseWriter, status int, code, message string) {
	respondJSON(w, status, errorResponse{Error: message, Code: code})
}
