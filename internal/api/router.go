package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/aoyagi/manabi/internal/authgw"
	"github.com/aoyagi/manabi/internal/chatservice"
	"github.com/aoyagi/manabi/internal/index"
	"github.com/aoyagi/manabi/internal/logservice"
	"github.com/aoyagi/manabi/internal/profileservice"
)

// Deps bundles the collaborators the router needs.
type Deps struct {
	Logs     *logservice.Service
	Chat     *chatservice.Service
	Profiles *profileservice.Service
	Index    index.LogIndex
	Auth     *authgw.Client

	// SSE, if non-nil, is mounted at GET /events inside the auth group.
	SSE http.Handler

	// DataDir is used to resolve the avatars directory.
	DataDir string

	AuthEnabled bool
	Token       string
}

// NewRouter creates a chi router with all API routes mounted.
func NewRouter(d Deps) chi.Router {
	h := NewHandler(d.Logs, d.Chat, d.Profiles, d.Index)
	avh := NewAvatarHandler(d.DataDir, d.Profiles)

	r := chi.NewRouter()
	r.Use(AuthMiddleware(d.AuthEnabled, d.Token))

	// Learning logs CRUD plus visibility, skills, reflections.
	r.Get("/logs", h.ListLogs)
	r.Post("/logs", h.CreateLog)
	r.Get("/logs/{id}", h.GetLog)
	r.Put("/logs/{id}", h.UpdateLog)
	r.Delete("/logs/{id}", h.DeleteLog)
	r.Post("/logs/{id}/visibility", h.ToggleVisibility)
	r.Post("/logs/{id}/skills", h.AddSkill)
	r.Delete("/logs/{id}/skills/{skillID}", h.RemoveSkill)
	r.Post("/logs/{id}/reflections", h.AddReflection)
	r.Delete("/logs/{id}/reflections/{reflectionID}", h.RemoveReflection)

	// Search over the derived index.
	r.Get("/search", h.Search)

	// Portfolio snapshot.
	r.Get("/portfolio", h.Portfolio)

	// Assistant chat.
	r.Get("/chat/history", h.ChatHistory)
	r.Post("/chat/messages", h.SendMessage)
	r.Delete("/chat/history", h.ClearChat)

	// Profile and settings.
	r.Get("/profile", h.GetProfile)
	r.Put("/profile", h.UpdateProfile)
	r.Put("/profile/settings", h.UpdateSettings)

	// Avatar upload (auth-protected).
	r.Post("/avatar", avh.Upload)

	// Identity provider passthrough.
	if d.Auth != nil {
		ah := NewAuthHandler(d.Auth)
		r.Post("/auth/signup", ah.SignUp)
		r.Post("/auth/signin", ah.SignIn)
		r.Post("/auth/signout", ah.SignOut)
		r.Post("/auth/reset-password", ah.ResetPassword)
		r.Post("/auth/session", ah.RestoreSession)
	}

	// SSE endpoint (protected by same auth middleware).
	if d.SSE != nil {
		r.Get("/events", d.SSE.ServeHTTP)
	}

	return r
}
