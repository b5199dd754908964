// Package logservice orchestrates the learning-log collection, keeping an
// in-memory snapshot synchronized with the persisted store. Every mutation
// is a full read-modify-write of the collection file; a mutex serializes
// operations within the process, but nothing guards against a concurrent
// external writer of the same file (last writer wins).
package logservice

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/aoyagi/manabi/internal/apperr"
	"github.com/aoyagi/manabi/internal/models"
	"github.com/aoyagi/manabi/internal/store"
)

// Change kinds reported to the OnChange callback.
const (
	ChangeCreated = "created"
	ChangeUpdated = "updated"
	ChangeDeleted = "deleted"
)

// ChangeFunc is called after each successful mutation.
type ChangeFunc func(kind string, log models.LearningLog)

// Service coordinates load/create/update/delete operations on learning logs.
type Service struct {
	mu       sync.Mutex
	store    store.Provider
	logs     []models.LearningLog
	onChange ChangeFunc
}

// NewService creates a new log service. onChange may be nil.
func NewService(st store.Provider, onChange ChangeFunc) *Service {
	return &Service{store: st, onChange: onChange}
}

// LoadAll reads the full collection from the store, sorts it descending by
// creation time (stable, so equal timestamps keep file order), and replaces
// the in-memory snapshot. On error the snapshot is left untouched, which is
// the empty list on a first-ever load.
func (s *Service) LoadAll(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	logs, err := s.store.LoadLogs()
	if err != nil {
		return fmt.Errorf("logservice: load: %w", err)
	}
	sort.SliceStable(logs, func(i, j int) bool {
		return logs[i].CreatedAt.After(logs[j].CreatedAt)
	})
	s.logs = logs
	return nil
}

// Create constructs a new log with a fresh id and current timestamps,
// persists it by read-append-write, and inserts it at the head of the
// snapshot. Newest-first order holds by construction, so no re-sort.
// Input validation (non-empty title/description) belongs to the caller.
func (s *Service) Create(_ context.Context, title, description string, category models.Category, isPublic bool) (models.LearningLog, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	log := models.NewLearningLog(title, description, category, isPublic)

	persisted, err := s.store.LoadLogs()
	if err != nil {
		return models.LearningLog{}, fmt.Errorf("logservice: create: %w", err)
	}
	persisted = append(persisted, log)
	if err := s.store.SaveLogs(persisted); err != nil {
		return models.LearningLog{}, fmt.Errorf("logservice: create: %w", err)
	}

	s.logs = append([]models.LearningLog{log}, s.logs...)
	s.notify(ChangeCreated, log)
	return log, nil
}

// Delete removes each id with its own read-filter-write cycle (not
// batched). A failed id is reported but does not stop the rest; every
// requested id is dropped from the snapshot regardless.
func (s *Service) Delete(_ context.Context, ids ...uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	var errs []error
	for _, id := range ids {
		if err := s.deletePersisted(id); err != nil {
			errs = append(errs, err)
		}
	}

	kept := s.logs[:0:0]
	for _, l := range s.logs {
		remove := false
		for _, id := range ids {
			if l.ID == id {
				remove = true
				break
			}
		}
		if remove {
			s.notify(ChangeDeleted, l)
		} else {
			kept = append(kept, l)
		}
	}
	s.logs = kept
	return errors.Join(errs...)
}

func (s *Service) deletePersisted(id uuid.UUID) error {
	persisted, err := s.store.LoadLogs()
	if err != nil {
		return fmt.Errorf("logservice: delete %s: %w", id, err)
	}
	kept := persisted[:0:0]
	for _, l := range persisted {
		if l.ID != id {
			kept = append(kept, l)
		}
	}
	if err := s.store.SaveLogs(kept); err != nil {
		return fmt.Errorf("logservice: delete %s: %w", id, err)
	}
	return nil
}

// Update replaces the persisted record matching log's id and stamps
// UpdatedAt. An unknown id leaves the file untouched and returns
// apperr.ErrNotFound instead of silently discarding the write.
func (s *Service) Update(ctx context.Context, log models.LearningLog) (models.LearningLog, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.updateLocked(ctx, log)
}

func (s *Service) updateLocked(_ context.Context, log models.LearningLog) (models.LearningLog, error) {
	persisted, err := s.store.LoadLogs()
	if err != nil {
		return models.LearningLog{}, fmt.Errorf("logservice: update %s: %w", log.ID, err)
	}

	idx := -1
	for i, l := range persisted {
		if l.ID == log.ID {
			idx = i
			break
		}
	}
	if idx < 0 {
		return models.LearningLog{}, fmt.Errorf("logservice: update %s: %w", log.ID, apperr.ErrNotFound)
	}

	log.CreatedAt = persisted[idx].CreatedAt // immutable
	log.UpdatedAt = time.Now()
	persisted[idx] = log
	if err := s.store.SaveLogs(persisted); err != nil {
		return models.LearningLog{}, fmt.Errorf("logservice: update %s: %w", log.ID, err)
	}

	for i, l := range s.logs {
		if l.ID == log.ID {
			s.logs[i] = log
			break
		}
	}
	s.notify(ChangeUpdated, log)
	return log, nil
}

// TogglePublic flips the visibility of the log with the given id.
func (s *Service) TogglePublic(ctx context.Context, id uuid.UUID) (models.LearningLog, error) {
	return s.mutate(ctx, id, func(l *models.LearningLog) error {
		l.IsPublic = !l.IsPublic
		return nil
	})
}

// AddSkill appends a new skill to the log. An empty level defaults to beginner.
func (s *Service) AddSkill(ctx context.Context, id uuid.UUID, name string, level models.SkillLevel) (models.LearningLog, error) {
	return s.mutate(ctx, id, func(l *models.LearningLog) error {
		skills := make([]models.Skill, len(l.Skills), len(l.Skills)+1)
		copy(skills, l.Skills)
		l.Skills = append(skills, models.NewSkill(name, level))
		return nil
	})
}

// AddReflection appends a new reflection to the log.
func (s *Service) AddReflection(ctx context.Context, id uuid.UUID, content string, typ models.ReflectionType) (models.LearningLog, error) {
	return s.mutate(ctx, id, func(l *models.LearningLog) error {
		refs := make([]models.Reflection, len(l.Reflections), len(l.Reflections)+1)
		copy(refs, l.Reflections)
		l.Reflections = append(refs, models.NewReflection(content, typ))
		return nil
	})
}

// RemoveSkill removes the skill with the given id from the log.
func (s *Service) RemoveSkill(ctx context.Context, id, skillID uuid.UUID) (models.LearningLog, error) {
	return s.mutate(ctx, id, func(l *models.LearningLog) error {
		kept := make([]models.Skill, 0, len(l.Skills))
		for _, sk := range l.Skills {
			if sk.ID != skillID {
				kept = append(kept, sk)
			}
		}
		if len(kept) == len(l.Skills) {
			return fmt.Errorf("logservice: skill %s: %w", skillID, apperr.ErrNotFound)
		}
		l.Skills = kept
		return nil
	})
}

// RemoveReflection removes the reflection with the given id from the log.
func (s *Service) RemoveReflection(ctx context.Context, id, reflectionID uuid.UUID) (models.LearningLog, error) {
	return s.mutate(ctx, id, func(l *models.LearningLog) error {
		kept := make([]models.Reflection, 0, len(l.Reflections))
		for _, r := range l.Reflections {
			if r.ID != reflectionID {
				kept = append(kept, r)
			}
		}
		if len(kept) == len(l.Reflections) {
			return fmt.Errorf("logservice: reflection %s: %w", reflectionID, apperr.ErrNotFound)
		}
		l.Reflections = kept
		return nil
	})
}

// mutate copies the current record, applies fn to the copy, and delegates
// to update. Each call is one full collection rewrite.
func (s *Service) mutate(ctx context.Context, id uuid.UUID, fn func(*models.LearningLog) error) (models.LearningLog, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	cur, ok := s.findLocked(id)
	if !ok {
		return models.LearningLog{}, fmt.Errorf("logservice: log %s: %w", id, apperr.ErrNotFound)
	}
	if err := fn(&cur); err != nil {
		return models.LearningLog{}, err
	}
	return s.updateLocked(ctx, cur)
}

// Get returns the snapshot record with the given id.
func (s *Service) Get(_ context.Context, id uuid.UUID) (models.LearningLog, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	l, ok := s.findLocked(id)
	if !ok {
		return models.LearningLog{}, fmt.Errorf("logservice: log %s: %w", id, apperr.ErrNotFound)
	}
	return l, nil
}

// Logs returns a copy of the in-memory snapshot, newest first.
func (s *Service) Logs() []models.LearningLog {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]models.LearningLog, len(s.logs))
	copy(out, s.logs)
	return out
}

func (s *Service) findLocked(id uuid.UUID) (models.LearningLog, bool) {
	for _, l := range s.logs {
		if l.ID == id {
			return l, true
		}
	}
	return models.LearningLog{}, false
}

func (s *Service) notify(kind string, log models.LearningLog) {
	if s.onChange != nil {
		s.onChange(kind, log)
	}
}
