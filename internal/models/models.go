// Package models defines the domain types for Manabi.
package models

import (
	"time"

	"github.com/google/uuid"
)

// Category classifies a learning log. Wire values are the original
// app's Japanese labels so existing data files keep loading.
type Category string

// Categories in declared order. Portfolio breakdowns follow this order.
const (
	CategoryProgramming Category = "プログラミング"
	CategoryDesign      Category = "デザイン"
	CategoryBusiness    Category = "ビジネス"
	CategoryLanguage    Category = "語学"
	CategoryCreative    Category = "クリエイティブ"
	CategoryOther       Category = "その他"
)

// AllCategories returns every category in declared order.
func AllCategories() []Category {
	return []Category{
		CategoryProgramming,
		CategoryDesign,
		CategoryBusiness,
		CategoryLanguage,
		CategoryCreative,
		CategoryOther,
	}
}

// Valid reports whether c is one of the declared categories.
func (c Category) Valid() bool {
	for _, v := range AllCategories() {
		if c == v {
			return true
		}
	}
	return false
}

// SkillLevel grades a skill.
type SkillLevel string

const (
	LevelBeginner     SkillLevel = "初級"
	LevelIntermediate SkillLevel = "中級"
	LevelAdvanced     SkillLevel = "上級"
	LevelExpert       SkillLevel = "エキスパート"
)

// Valid reports whether l is a declared skill level.
func (l SkillLevel) Valid() bool {
	switch l {
	case LevelBeginner, LevelIntermediate, LevelAdvanced, LevelExpert:
		return true
	}
	return false
}

// ReflectionType classifies a reflection entry.
type ReflectionType string

const (
	ReflectionLearning  ReflectionType = "学んだこと"
	ReflectionChallenge ReflectionType = "課題"
	ReflectionNextStep  ReflectionType = "次のステップ"
	ReflectionInsight   ReflectionType = "気づき"
)

// Valid reports whether t is a declared reflection type.
func (t ReflectionType) Valid() bool {
	switch t {
	case ReflectionLearning, ReflectionChallenge, ReflectionNextStep, ReflectionInsight:
		return true
	}
	return false
}

// Skill is owned exclusively by its parent LearningLog.
type Skill struct {
	ID    uuid.UUID  `json:"id"`
	Name  string     `json:"name"`
	Level SkillLevel `json:"level"`
}

// NewSkill creates a skill with a fresh id. An empty level defaults to beginner.
func NewSkill(name string, level SkillLevel) Skill {
	if level == "" {
		level = LevelBeginner
	}
	return Skill{ID: uuid.New(), Name: name, Level: level}
}

// Reflection is owned exclusively by its parent LearningLog.
type Reflection struct {
	ID        uuid.UUID      `json:"id"`
	Content   string         `json:"content"`
	CreatedAt time.Time      `json:"created_at"`
	Type      ReflectionType `json:"type"`
}

// NewReflection creates a reflection stamped with the current time.
func NewReflection(content string, typ ReflectionType) Reflection {
	return Reflection{ID: uuid.New(), Content: content, CreatedAt: time.Now(), Type: typ}
}

// LearningLog is a user-authored record of a discrete learning activity.
// ID and CreatedAt are immutable after creation; Skills and Reflections
// preserve insertion order across persistence round-trips.
type LearningLog struct {
	ID          uuid.UUID    `json:"id"`
	Title       string       `json:"title"`
	Description string       `json:"description"`
	Category    Category     `json:"category"`
	CreatedAt   time.Time    `json:"created_at"`
	UpdatedAt   time.Time    `json:"updated_at"`
	Skills      []Skill      `json:"skills"`
	Reflections []Reflection `json:"reflections"`
	IsPublic    bool         `json:"is_public"`
}

// NewLearningLog creates a log with a fresh id, current timestamps, and
// empty skill and reflection lists.
func NewLearningLog(title, description string, category Category, isPublic bool) LearningLog {
	now := time.Now()
	return LearningLog{
		ID:          uuid.New(),
		Title:       title,
		Description: description,
		Category:    category,
		CreatedAt:   now,
		UpdatedAt:   now,
		Skills:      []Skill{},
		Reflections: []Reflection{},
		IsPublic:    isPublic,
	}
}

// Theme selects the UI color scheme.
type Theme string

const (
	ThemeSystem Theme = "system"
	ThemeLight  Theme = "light"
	ThemeDark   Theme = "dark"
)

// Valid reports whether t is a declared theme.
func (t Theme) Valid() bool {
	switch t {
	case ThemeSystem, ThemeLight, ThemeDark:
		return true
	}
	return false
}

// UserSettings is an embedded value on UserProfile with no identity of its own.
type UserSettings struct {
	NotificationsEnabled bool  `json:"notifications_enabled"`
	Theme                Theme `json:"theme"`
	AutoSaveEnabled      bool  `json:"auto_save_enabled"`
}

// DefaultSettings returns the settings applied to a fresh profile.
func DefaultSettings() UserSettings {
	return UserSettings{
		NotificationsEnabled: true,
		Theme:                ThemeSystem,
		AutoSaveEnabled:      true,
	}
}

// DefaultProfileName is the placeholder shown before the user picks a name.
const DefaultProfileName = "ユーザー"

// UserProfile is the per-installation singleton account record.
type UserProfile struct {
	ID        uuid.UUID    `json:"id"`
	Name      string       `json:"name"`
	Email     string       `json:"email,omitempty"`
	AvatarURL string       `json:"avatar_url,omitempty"`
	CreatedAt time.Time    `json:"created_at"`
	Settings  UserSettings `json:"settings"`
}

// NewUserProfile creates a profile with default settings.
func NewUserProfile(name string) UserProfile {
	if name == "" {
		name = DefaultProfileName
	}
	return UserProfile{
		ID:        uuid.New(),
		Name:      name,
		CreatedAt: time.Now(),
		Settings:  DefaultSettings(),
	}
}

// ChatMessage is one turn in the assistant conversation. Immutable once
// created; history is append-only.
type ChatMessage struct {
	ID        uuid.UUID `json:"id"`
	Content   string    `json:"content"`
	IsUser    bool      `json:"is_user"`
	Timestamp time.Time `json:"timestamp"`
}

// NewChatMessage creates a message stamped with the current time.
func NewChatMessage(content string, isUser bool) ChatMessage {
	return ChatMessage{ID: uuid.New(), Content: content, IsUser: isUser, Timestamp: time.Now()}
}
