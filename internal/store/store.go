// Package store persists the record collections as JSON files in the
// data directory: one independent file per collection, no cross-file
// transaction. Every save rewrites the full serialized collection.
package store

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/aoyagi/manabi/internal/apperr"
	"github.com/aoyagi/manabi/internal/models"
)

// Collection file names inside the data directory.
const (
	LogsFile    = "learning_logs.json"
	ProfileFile = "user_profile.json"
	ChatFile    = "chat_history.json"
)

// Provider is the interface over the persisted record collections.
type Provider interface {
	// LoadLogs returns the learning-log collection, empty if the file is absent.
	LoadLogs() ([]models.LearningLog, error)
	// SaveLogs overwrites the learning-log collection.
	SaveLogs(logs []models.LearningLog) error
	// LoadProfile returns the singleton profile, or nil on a fresh install.
	LoadProfile() (*models.UserProfile, error)
	// SaveProfile overwrites the singleton profile.
	SaveProfile(p models.UserProfile) error
	// LoadChatHistory returns the chat history, empty if the file is absent.
	LoadChatHistory() ([]models.ChatMessage, error)
	// SaveChatHistory overwrites the chat history.
	SaveChatHistory(msgs []models.ChatMessage) error
	// DeleteChatHistory removes the chat history file. Absence is not an error.
	DeleteChatHistory() error
	// LogsPath returns the absolute path of the learning-log file.
	LogsPath() string
}

// Files implements Provider backed by the local file system.
type Files struct {
	root string // absolute path to the data directory
}

// NewFiles creates a Files provider rooted at the given directory,
// creating it if needed. Directory creation is idempotent.
func NewFiles(root string) (*Files, error) {
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("store: resolve root: %w", err)
	}
	if err := os.MkdirAll(abs, 0o755); err != nil {
		return nil, fmt.Errorf("store: create data dir: %w", err)
	}
	return &Files{root: abs}, nil
}

// LoadLogs implements Provider.
func (f *Files) LoadLogs() ([]models.LearningLog, error) {
	return loadCollection[models.LearningLog](f.path(LogsFile))
}

// SaveLogs implements Provider.
func (f *Files) SaveLogs(logs []models.LearningLog) error {
	return f.write(LogsFile, logs)
}

// LoadProfile implements Provider.
func (f *Files) LoadProfile() (*models.UserProfile, error) {
	data, err := os.ReadFile(f.path(ProfileFile))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("store: read %s: %w", ProfileFile, err)
	}
	var p models.UserProfile
	if err := json.Unmarshal(data, &p); err != nil {
		return nil, fmt.Errorf("store: decode %s: %w: %w", ProfileFile, apperr.ErrDecode, err)
	}
	return &p, nil
}

// SaveProfile implements Provider.
func (f *Files) SaveProfile(p models.UserProfile) error {
	return f.write(ProfileFile, p)
}

// LoadChatHistory implements Provider.
func (f *Files) LoadChatHistory() ([]models.ChatMessage, error) {
	return loadCollection[models.ChatMessage](f.path(ChatFile))
}

// SaveChatHistory implements Provider.
func (f *Files) SaveChatHistory(msgs []models.ChatMessage) error {
	return f.write(ChatFile, msgs)
}

// DeleteChatHistory implements Provider.
func (f *Files) DeleteChatHistory() error {
	if err := os.Remove(f.path(ChatFile)); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("store: delete %s: %w", ChatFile, err)
	}
	return nil
}

// LogsPath implements Provider.
func (f *Files) LogsPath() string {
	return f.path(LogsFile)
}

func (f *Files) path(name string) string {
	return filepath.Join(f.root, name)
}

// loadCollection reads an ordered JSON array from path. An absent file
// yields an empty list; an unparsable file wraps apperr.ErrDecode.
func loadCollection[T any](path string) ([]T, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return []T{}, nil
		}
		return nil, fmt.Errorf("store: read %s: %w", filepath.Base(path), err)
	}
	var out []T
	if err := json.Unmarshal(data, &out); err != nil {
		return nil, fmt.Errorf("store: decode %s: %w: %w", filepath.Base(path), apperr.ErrDecode, err)
	}
	if out == nil {
		out = []T{}
	}
	return out, nil
}

// write serializes v pretty-printed and atomically replaces the target
// file: tmp file → fsync → rename. A crash mid-save leaves the previous
// file intact; list order is preserved exactly.
func (f *Files) write(name string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("store: encode %s: %w", name, err)
	}

	tmp, err := os.CreateTemp(f.root, ".manabi-tmp-*")
	if err != nil {
		return fmt.Errorf("store: create temp: %w", err)
	}
	tmpName := tmp.Name()

	// Clean up on any failure path.
	success := false
	defer func() {
		if !success {
			_ = tmp.Close()
			_ = os.Remove(tmpName)
		}
	}()

	if _, err := tmp.Write(data); err != nil {
		return fmt.Errorf("store: write temp: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		return fmt.Errorf("store: fsync: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("store: close temp: %w", err)
	}
	if err := os.Rename(tmpName, f.path(name)); err != nil {
		return fmt.Errorf("store: rename: %w", err)
	}
	success = true
	return nil
}
