package api

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/aoyagi/manabi/internal/apperr"
	"github.com/aoyagi/manabi/internal/chatservice"
	"github.com/aoyagi/manabi/internal/index"
	"github.com/aoyagi/manabi/internal/logservice"
	"github.com/aoyagi/manabi/internal/models"
	"github.com/aoyagi/manabi/internal/portfolio"
	"github.com/aoyagi/manabi/internal/profileservice"
)

// Handler holds API route handlers.
type Handler struct {
	logs     *logservice.Service
	chat     *chatservice.Service
	profiles *profileservice.Service
	idx      index.LogIndex
}

// NewHandler creates a new Handler.
func NewHandler(logs *logservice.Service, chat *chatservice.Service, profiles *profileservice.Service, idx index.LogIndex) *Handler {
	return &Handler{logs: logs, chat: chat, profiles: profiles, idx: idx}
}

// logID extracts and parses the {id} URL parameter.
func logID(r *http.Request) (uuid.UUID, error) {
	return uuid.Parse(chi.URLParam(r, "id"))
}

func decodeBody(w http.ResponseWriter, r *http.Request, v any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, 1<<20)
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("invalid JSON body"))
		return false
	}
	return true
}

type validator interface {
	Validate() error
}

func validBody(w http.ResponseWriter, r *http.Request, v validator) bool {
	if !decodeBody(w, r, v) {
		return false
	}
	if err := v.Validate(); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody(err.Error()))
		return false
	}
	return true
}

// ListLogs handles GET /api/logs. Logs are returned newest first.
func (h *Handler) ListLogs(w http.ResponseWriter, _ *http.Request) {
	logs := h.logs.Logs()
	writeJSON(w, http.StatusOK, map[string]any{
		"logs":  logs,
		"total": len(logs),
	})
}

// CreateLog handles POST /api/logs.
func (h *Handler) CreateLog(w http.ResponseWriter, r *http.Request) {
	var req CreateLogRequest
	if !validBody(w, r, &req) {
		return
	}
	created, err := h.logs.Create(r.Context(), req.Title, req.Description, req.Category, req.IsPublic)
	if err != nil {
		slog.Error("create log failed", slog.String("error", err.Error()))
		writeJSON(w, http.StatusInternalServerError, errorBody("internal error"))
		return
	}
	writeJSON(w, http.StatusCreated, created)
}

// GetLog handles GET /api/logs/{id}.
func (h *Handler) GetLog(w http.ResponseWriter, r *http.Request) {
	id, err := logID(r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("invalid log id"))
		return
	}
	log, err := h.logs.Get(r.Context(), id)
	if err != nil {
		if errors.Is(err, apperr.ErrNotFound) {
			writeJSON(w, http.StatusNotFound, errorBody("not found"))
		} else {
			slog.Error("get log failed", slog.String("id", id.String()), slog.String("error", err.Error()))
			writeJSON(w, http.StatusInternalServerError, errorBody("internal error"))
		}
		return
	}
	writeJSON(w, http.StatusOK, log)
}

// UpdateLog handles PUT /api/logs/{id}. The stored record's id and
// created_at survive whatever the client sends.
func (h *Handler) UpdateLog(w http.ResponseWriter, r *http.Request) {
	id, err := logID(r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("invalid log id"))
		return
	}
	var req UpdateLogRequest
	if !validBody(w, r, &req) {
		return
	}

	current, err := h.logs.Get(r.Context(), id)
	if err != nil {
		if errors.Is(err, apperr.ErrNotFound) {
			writeJSON(w, http.StatusNotFound, errorBody("not found"))
		} else {
			slog.Error("update log failed", slog.String("id", id.String()), slog.String("error", err.Error()))
			writeJSON(w, http.StatusInternalServerError, errorBody("internal error"))
		}
		return
	}

	current.Title = req.Title
	current.Description = req.Description
	current.Category = req.Category
	current.IsPublic = req.IsPublic

	updated, err := h.logs.Update(r.Context(), current)
	if err != nil {
		if errors.Is(err, apperr.ErrNotFound) {
			writeJSON(w, http.StatusNotFound, errorBody("not found"))
		} else {
			slog.Error("update log failed", slog.String("id", id.String()), slog.String("error", err.Error()))
			writeJSON(w, http.StatusInternalServerError, errorBody("internal error"))
		}
		return
	}
	writeJSON(w, http.StatusOK, updated)
}

// DeleteLog handles DELETE /api/logs/{id}. Deleting an absent id is
// not an error; the end state is the same.
func (h *Handler) DeleteLog(w http.ResponseWriter, r *http.Request) {
	id, err := logID(r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("invalid log id"))
		return
	}
	if err := h.logs.Delete(r.Context(), id); err != nil {
		slog.Error("delete log failed", slog.String("id", id.String()), slog.String("error", err.Error()))
		writeJSON(w, http.StatusInternalServerError, errorBody("internal error"))
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ToggleVisibility handles POST /api/logs/{id}/visibility.
func (h *Handler) ToggleVisibility(w http.ResponseWriter, r *http.Request) {
	h.mutateLog(w, r, func(ctx context.Context, id uuid.UUID) (models.LearningLog, error) {
		return h.logs.TogglePublic(ctx, id)
	})
}

// AddSkill handles POST /api/logs/{id}/skills.
func (h *Handler) AddSkill(w http.ResponseWriter, r *http.Request) {
	var req AddSkillRequest
	if !validBody(w, r, &req) {
		return
	}
	h.mutateLog(w, r, func(ctx context.Context, id uuid.UUID) (models.LearningLog, error) {
		return h.logs.AddSkill(ctx, id, req.Name, req.Level)
	})
}

// RemoveSkill handles DELETE /api/logs/{id}/skills/{skillID}.
func (h *Handler) RemoveSkill(w http.ResponseWriter, r *http.Request) {
	skillID, err := uuid.Parse(chi.URLParam(r, "skillID"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("invalid skill id"))
		return
	}
	h.mutateLog(w, r, func(ctx context.Context, id uuid.UUID) (models.LearningLog, error) {
		return h.logs.RemoveSkill(ctx, id, skillID)
	})
}

// AddReflection handles POST /api/logs/{id}/reflections.
func (h *Handler) AddReflection(w http.ResponseWriter, r *http.Request) {
	var req AddReflectionRequest
	if !validBody(w, r, &req) {
		return
	}
	h.mutateLog(w, r, func(ctx context.Context, id uuid.UUID) (models.LearningLog, error) {
		return h.logs.AddReflection(ctx, id, req.Content, req.Type)
	})
}

// RemoveReflection handles DELETE /api/logs/{id}/reflections/{reflectionID}.
func (h *Handler) RemoveReflection(w http.ResponseWriter, r *http.Request) {
	reflectionID, err := uuid.Parse(chi.URLParam(r, "reflectionID"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("invalid reflection id"))
		return
	}
	h.mutateLog(w, r, func(ctx context.Context, id uuid.UUID) (models.LearningLog, error) {
		return h.logs.RemoveReflection(ctx, id, reflectionID)
	})
}

func (h *Handler) mutateLog(w http.ResponseWriter, r *http.Request, fn func(context.Context, uuid.UUID) (models.LearningLog, error)) {
	id, err := logID(r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("invalid log id"))
		return
	}
	log, err := fn(r.Context(), id)
	if err != nil {
		if errors.Is(err, apperr.ErrNotFound) {
			writeJSON(w, http.StatusNotFound, errorBody("not found"))
		} else {
			slog.Error("mutate log failed", slog.String("id", id.String()), slog.String("error", err.Error()))
			writeJSON(w, http.StatusInternalServerError, errorBody("internal error"))
		}
		return
	}
	writeJSON(w, http.StatusOK, log)
}

// Search handles GET /api/search.
func (h *Handler) Search(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query().Get("q")
	if q == "" {
		writeJSON(w, http.StatusBadRequest, errorBody("query parameter 'q' is required"))
		return
	}
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	results, err := h.idx.Search(q, limit)
	if err != nil {
		slog.Error("search failed", slog.String("query", q), slog.String("error", err.Error()))
		writeJSON(w, http.StatusInternalServerError, errorBody("internal error"))
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"results": results,
	})
}

// Portfolio handles GET /api/portfolio.
func (h *Handler) Portfolio(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, portfolio.Build(h.logs.Logs(), time.Now()))
}

// ChatHistory handles GET /api/chat/history.
func (h *Handler) ChatHistory(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"messages": h.chat.Messages(),
	})
}

// SendMessage handles POST /api/chat/messages. A whitespace-only body
// is accepted and does nothing. When reply generation fails the
// persisted fallback turn is still returned to the client.
func (h *Handler) SendMessage(w http.ResponseWriter, r *http.Request) {
	var req SendMessageRequest
	if !decodeBody(w, r, &req) {
		return
	}
	msg, err := h.chat.SendMessage(r.Context(), req.Content)
	if err != nil {
		slog.Error("chat reply failed", slog.String("error", err.Error()))
	}
	if msg.ID == uuid.Nil {
		w.WriteHeader(http.StatusNoContent)
		return
	}
	writeJSON(w, http.StatusCreated, msg)
}

// ClearChat handles DELETE /api/chat/history.
func (h *Handler) ClearChat(w http.ResponseWriter, r *http.Request) {
	h.chat.ClearHistory(r.Context())
	w.WriteHeader(http.StatusNoContent)
}

// GetProfile handles GET /api/profile. The profile is created with
// defaults on first access.
func (h *Handler) GetProfile(w http.ResponseWriter, r *http.Request) {
	profile, err := h.profiles.Load(r.Context())
	if err != nil {
		slog.Error("load profile failed", slog.String("error", err.Error()))
		writeJSON(w, http.StatusInternalServerError, errorBody("internal error"))
		return
	}
	writeJSON(w, http.StatusOK, profile)
}

// UpdateProfile handles PUT /api/profile.
func (h *Handler) UpdateProfile(w http.ResponseWriter, r *http.Request) {
	var req UpdateProfileRequest
	if !validBody(w, r, &req) {
		return
	}
	profile, err := h.profiles.UpdateName(r.Context(), req.Name)
	if err != nil {
		slog.Error("update profile failed", slog.String("error", err.Error()))
		writeJSON(w, http.StatusInternalServerError, errorBody("internal error"))
		return
	}
	writeJSON(w, http.StatusOK, profile)
}

// UpdateSettings handles PUT /api/profile/settings.
func (h *Handler) UpdateSettings(w http.ResponseWriter, r *http.Request) {
	var req UpdateSettingsRequest
	if !validBody(w, r, &req) {
		return
	}
	profile, err := h.profiles.UpdateSettings(r.Context(), models.UserSettings{
		NotificationsEnabled: req.NotificationsEnabled,
		Theme:                req.Theme,
		AutoSaveEnabled:      req.AutoSaveEnabled,
	})
	if err != nil {
		slog.Error("update settings failed", slog.String("error", err.Error()))
		writeJSON(w, http.StatusInternalServerError, errorBody("internal error"))
		return
	}
	writeJSON(w, http.StatusOK, profile)
}
