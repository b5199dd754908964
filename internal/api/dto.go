package api

import (
	"errors"

	validation "github.com/go-ozzo/ozzo-validation/v4"

	"github.com/aoyagi/manabi/internal/models"
)

// Request bodies are validated here at the API boundary. The domain
// services accept whatever they are handed, so empty titles rejected by
// the HTTP surface can still be written by other frontends.

// CreateLogRequest is the request body for creating a learning log.
type CreateLogRequest struct {
	Title       string          `json:"title"`
	Description string          `json:"description"`
	Category    models.Category `json:"category"`
	IsPublic    bool            `json:"is_public"`
}

// Validate validates the request body.
func (r CreateLogRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Title, validation.Required),
		validation.Field(&r.Description, validation.Required),
		validation.Field(&r.Category, validation.Required, validation.By(categoryRule)),
	)
}

// UpdateLogRequest is the request body for updating a learning log.
// Only the user-editable fields are accepted; id and created_at come
// from the stored record.
type UpdateLogRequest struct {
	Title       string          `json:"title"`
	Description string          `json:"description"`
	Category    models.Category `json:"category"`
	IsPublic    bool            `json:"is_public"`
}

// Validate validates the request body.
func (r UpdateLogRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Title, validation.Required),
		validation.Field(&r.Description, validation.Required),
		validation.Field(&r.Category, validation.Required, validation.By(categoryRule)),
	)
}

// AddSkillRequest is the request body for attaching a skill to a log.
// An empty level defaults to beginner in the domain layer.
type AddSkillRequest struct {
	Name  string            `json:"name"`
	Level models.SkillLevel `json:"level"`
}

// Validate validates the request body.
func (r AddSkillRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Name, validation.Required),
		validation.Field(&r.Level, validation.By(skillLevelRule)),
	)
}

// AddReflectionRequest is the request body for attaching a reflection.
type AddReflectionRequest struct {
	Content string                `json:"content"`
	Type    models.ReflectionType `json:"type"`
}

// Validate validates the request body.
func (r AddReflectionRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Content, validation.Required),
		validation.Field(&r.Type, validation.Required, validation.By(reflectionTypeRule)),
	)
}

// SendMessageRequest is the request body for a chat turn. Content is
// deliberately not required: whitespace-only input is a silent no-op.
type SendMessageRequest struct {
	Content string `json:"content"`
}

// UpdateProfileRequest is the request body for renaming the profile.
type UpdateProfileRequest struct {
	Name string `json:"name"`
}

// Validate validates the request body.
func (r UpdateProfileRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Name, validation.Required),
	)
}

// UpdateSettingsRequest is the request body for replacing the settings.
type UpdateSettingsRequest struct {
	NotificationsEnabled bool         `json:"notifications_enabled"`
	Theme                models.Theme `json:"theme"`
	AutoSaveEnabled      bool         `json:"auto_save_enabled"`
}

// Validate validates the request body.
func (r UpdateSettingsRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Theme, validation.Required, validation.By(themeRule)),
	)
}

// SignUpRequest is the request body for account registration.
type SignUpRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	Name     string `json:"name"`
}

// Validate validates the request body.
func (r SignUpRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Email, validation.Required),
		validation.Field(&r.Password, validation.Required),
	)
}

// SignInRequest is the request body for signing in.
type SignInRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Validate validates the request body.
func (r SignInRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Email, validation.Required),
		validation.Field(&r.Password, validation.Required),
	)
}

// ResetPasswordRequest is the request body for a password-reset mail.
type ResetPasswordRequest struct {
	Email string `json:"email"`
}

// Validate validates the request body.
func (r ResetPasswordRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Email, validation.Required),
	)
}

// RestoreSessionRequest is the request body for restoring a session
// from a stored refresh token.
type RestoreSessionRequest struct {
	RefreshToken string `json:"refresh_token"`
}

func categoryRule(v interface{}) error {
	if c, ok := v.(models.Category); !ok || !c.Valid() {
		return errors.New("unknown category")
	}
	return nil
}

func skillLevelRule(v interface{}) error {
	l, ok := v.(models.SkillLevel)
	if !ok {
		return errors.New("unknown skill level")
	}
	// Empty defaults to beginner downstream.
	if l != "" && !l.Valid() {
		return errors.New("unknown skill level")
	}
	return nil
}

func reflectionTypeRule(v interface{}) error {
	if t, ok := v.(models.ReflectionType); !ok || !t.Valid() {
		return errors.New("unknown reflection type")
	}
	return nil
}

func themeRule(v interface{}) error {
	if t, ok := v.(models.Theme); !ok || !t.Valid() {
		return errors.New("unknown theme")
	}
	return nil
}
