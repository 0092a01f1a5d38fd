package auth

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/ggoncalves17/Digital-Twin-AI-ChatBot/internal/logger"
	"github.com/ggoncalves17/Digital-Twin-AI-ChatBot/internal/model/user"
	authService "github.com/ggoncalves17/Digital-Twin-AI-ChatBot/internal/service/auth"
	"github.com/ggoncalves17/Digital-Twin-AI-ChatBot/pkg/utils"
)

// Service is the subset of the auth service used by the handler.
type Service interface {
	Register(ctx context.Context, reg authService.Registration) (user.User, error)
	Login(ctx context.Context, email, password string) (authService.Token, error)
}

// Handler serves registration, login and the current user's profile.
type Handler struct {
	svc Service
	log *logger.Logger
}

func New(svc Service, log *logger.Logger) *Handler {
	return &Handler{svc: svc, log: logger.OrNop(log).With("handler", "auth")}
}

// RegisterRoutes mounts the public endpoints and /auth/me behind requireAuth.
func (h *Handler) RegisterRoutes(r chi.Router, requireAuth func(http.Handler) http.Handler) {
	r.Post("/auth/register", h.handleRegister)
	r.Post("/auth/login", h.handleLogin)
	r.With(requireAuth).Get("/auth/me", h.handleMe)
}

func (h *Handler) handleRegister(w http.ResponseWriter, r *http.Request) {
	var reg authService.Registration
	if err := utils.DecodeJSON(r, &reg); err != nil {
		utils.RespondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	u, err := h.svc.Register(r.Context(), reg)
	switch {
	case errors.Is(err, user.ErrValidation):
		utils.RespondError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, user.ErrEmailTaken):
		utils.RespondError(w, http.StatusConflict, "email already registered")
	case err != nil:
		h.log.Error("register failed", "error", err)
		utils.RespondError(w, http.StatusInternalServerError, "internal error")
	default:
		utils.RespondJSON(w, http.StatusCreated, u)
	}
}

// handleLogin accepts JSON {email, password} or an OAuth2 password form
// (username, password).
func (h *Handler) handleLogin(w http.ResponseWriter, r *http.Request) {
	var creds struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if strings.HasPrefix(r.Header.Get("Content-Type"), "application/x-www-form-urlencoded") {
		if err := r.ParseForm(); err != nil {
			utils.RespondError(w, http.StatusBadRequest, "invalid form")
			return
		}
		creds.Email, creds.Password = r.PostForm.Get("username"), r.PostForm.Get("password")
	} else if err := utils.DecodeJSON(r, &creds); err != nil {
		utils.RespondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	tok, err := h.svc.Login(r.Context(), creds.Email, creds.Password)
	if errors.Is(err, authService.ErrInvalidCredentials) {
		w.Header().Set("WWW-Authenticate", "Bearer")
		utils.RespondError(w, http.StatusUnauthorized, err.Error())
		return
	}
	if err != nil {
		h.log.Error("login failed", "error", err)
		utils.RespondError(w, http.StatusInternalServerError, "internal error")
		return
	}
	utils.RespondJSON(w, http.StatusOK, tok)
}

func (h *Handler) handleMe(w http.ResponseWriter, r *http.Request) {
	u, ok := authService.UserFrom(r.Context())
	if !ok {
		utils.RespondError(w, http.StatusUnauthorized, "not authenticated")
		return
	}
	utils.RespondJSON(w, http.StatusOK, u)
}
