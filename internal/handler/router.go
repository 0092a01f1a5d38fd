package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/ggoncalves17/Digital-Twin-AI-ChatBot/internal/handler/ask"
	authHandler "github.com/ggoncalves17/Digital-Twin-AI-ChatBot/internal/handler/auth"
	"github.com/ggoncalves17/Digital-Twin-AI-ChatBot/internal/handler/chat"
	"github.com/ggoncalves17/Digital-Twin-AI-ChatBot/internal/handler/persona"
	"github.com/ggoncalves17/Digital-Twin-AI-ChatBot/internal/handler/stream"
	"github.com/ggoncalves17/Digital-Twin-AI-ChatBot/internal/logger"
	middlewarePkg "github.com/ggoncalves17/Digital-Twin-AI-ChatBot/internal/middleware"
	personaModel "github.com/ggoncalves17/Digital-Twin-AI-ChatBot/internal/model/persona"
	"github.com/ggoncalves17/Digital-Twin-AI-ChatBot/internal/service/agent"
	"github.com/ggoncalves17/Digital-Twin-AI-ChatBot/internal/service/ai"
	"github.com/ggoncalves17/Digital-Twin-AI-ChatBot/internal/service/analytics"
	authService "github.com/ggoncalves17/Digital-Twin-AI-ChatBot/internal/service/auth"
	chatService "github.com/ggoncalves17/Digital-Twin-AI-ChatBot/internal/service/chat"
	"github.com/ggoncalves17/Digital-Twin-AI-ChatBot/internal/service/supervisor"
	"github.com/ggoncalves17/Digital-Twin-AI-ChatBot/pkg/utils"
)

// Deps are the services the HTTP surface is built on. Agent, Supervisor and
// Chat may be nil when no chat model is configured; their routes then answer 503.
type Deps struct {
	Personas   personaModel.Store
	Briefings  *ai.Service
	Agent      *agent.Agent
	Supervisor *supervisor.Supervisor
	Chat       *chatService.Service
	Auth       *authService.Service
	Analytics  analytics.Sink
	Log        *logger.Logger
}

// NewRouter wires HTTP routes to core services.
func NewRouter(d Deps) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middlewarePkg.CORS)

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		utils.RespondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	r.Handle("/metrics", promhttp.Handler())

	requireAuth := middlewarePkg.NewAuth(d.Auth, d.Log).RequireAuth

	r.Route("/api", func(api chi.Router) {
		persona.New(d.Personas, d.Analytics, d.Log).RegisterRoutes(api)
		authHandler.New(d.Auth, d.Log).RegisterRoutes(api, requireAuth)

		if d.Agent == nil || d.Supervisor == nil || d.Chat == nil {
			unavailable := func(w http.ResponseWriter, _ *http.Request) {
				utils.RespondError(w, http.StatusServiceUnavailable, "chat model not configured")
			}
			api.HandleFunc("/ask", unavailable)
			api.HandleFunc("/qa", unavailable)
			api.HandleFunc("/chats", unavailable)
			api.HandleFunc("/chats/*", unavailable)
			api.HandleFunc("/users/{userID}/chats/{personaID}", unavailable)
			api.HandleFunc("/stream/*", unavailable)
			api.HandleFunc("/ws/*", unavailable)
			return
		}

		ask.New(d.Supervisor, d.Briefings, d.Agent, d.Analytics, d.Log).RegisterRoutes(api)
		api.Group(func(protected chi.Router) {
			protected.Use(requireAuth)
			chat.New(d.Chat, d.Log).RegisterRoutes(protected)
			stream.New(d.Chat, d.Log).RegisterRoutes(protected)
		})
	})

	return r
}
