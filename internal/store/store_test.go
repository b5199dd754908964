package store

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/aoyagi/manabi/internal/apperr"
	"github.com/aoyagi/manabi/internal/models"
)

func testStore(t *testing.T) *Files {
	t.Helper()
	f, err := NewFiles(t.TempDir())
	if err != nil {
		t.Fatalf("NewFiles: %v", err)
	}
	return f
}

func TestLoadLogsAbsentFile(t *testing.T) {
	f := testStore(t)
	logs, err := f.LoadLogs()
	if err != nil {
		t.Fatalf("LoadLogs: %v", err)
	}
	if len(logs) != 0 {
		t.Errorf("len = %d, want 0", len(logs))
	}
}

func TestSaveLoadLogsRoundTrip(t *testing.T) {
	f := testStore(t)

	log := models.NewLearningLog("Go入門", "goroutineとchannelを学んだ", models.CategoryProgramming, true)
	log.Skills = append(log.Skills, models.NewSkill("Go", models.LevelBeginner))
	log.Skills = append(log.Skills, models.NewSkill("並行処理", models.LevelIntermediate))
	log.Reflections = append(log.Reflections, models.NewReflection("selectの使い方が腑に落ちた", models.ReflectionInsight))

	if err := f.SaveLogs([]models.LearningLog{log}); err != nil {
		t.Fatalf("SaveLogs: %v", err)
	}

	loaded, err := f.LoadLogs()
	if err != nil {
		t.Fatalf("LoadLogs: %v", err)
	}
	if len(loaded) != 1 {
		t.Fatalf("len = %d, want 1", len(loaded))
	}
	got := loaded[0]
	if got.ID != log.ID {
		t.Errorf("id = %v, want %v", got.ID, log.ID)
	}
	if got.Title != log.Title || got.Description != log.Description {
		t.Errorf("title/description mismatch: %+v", got)
	}
	if got.Category != models.CategoryProgramming {
		t.Errorf("category = %q", got.Category)
	}
	if !got.CreatedAt.Equal(log.CreatedAt) {
		t.Errorf("created_at = %v, want %v", got.CreatedAt, log.CreatedAt)
	}
	if !got.IsPublic {
		t.Error("is_public lost")
	}
	// Insertion order of nested lists survives the round trip.
	if len(got.Skills) != 2 || got.Skills[0].Name != "Go" || got.Skills[1].Name != "並行処理" {
		t.Errorf("skills order lost: %+v", got.Skills)
	}
	if got.Skills[1].Level != models.LevelIntermediate {
		t.Errorf("skill level = %q", got.Skills[1].Level)
	}
	if len(got.Reflections) != 1 || got.Reflections[0].Type != models.ReflectionInsight {
		t.Errorf("reflections lost: %+v", got.Reflections)
	}
}

func TestSaveAfterLoadIsByteIdentical(t *testing.T) {
	f := testStore(t)

	logs := []models.LearningLog{
		models.NewLearningLog("b", "second", models.CategoryDesign, false),
		models.NewLearningLog("a", "first", models.CategoryOther, true),
	}
	if err := f.SaveLogs(logs); err != nil {
		t.Fatalf("SaveLogs: %v", err)
	}
	before, err := os.ReadFile(f.LogsPath())
	if err != nil {
		t.Fatal(err)
	}

	loaded, err := f.LoadLogs()
	if err != nil {
		t.Fatalf("LoadLogs: %v", err)
	}
	if err := f.SaveLogs(loaded); err != nil {
		t.Fatalf("SaveLogs after load: %v", err)
	}
	after, err := os.ReadFile(f.LogsPath())
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(before, after) {
		t.Error("save(load()) changed the file bytes")
	}
}

func TestLoadLogsCorruptFile(t *testing.T) {
	f := testStore(t)
	if err := os.WriteFile(f.LogsPath(), []byte("{not json"), 0o644); err != nil {
		t.Fatal(err)
	}
	_, err := f.LoadLogs()
	if !errors.Is(err, apperr.ErrDecode) {
		t.Errorf("err = %v, want ErrDecode", err)
	}
}

func TestProfileNilOnFreshInstall(t *testing.T) {
	f := testStore(t)
	p, err := f.LoadProfile()
	if err != nil {
		t.Fatalf("LoadProfile: %v", err)
	}
	if p != nil {
		t.Errorf("profile = %+v, want nil", p)
	}
}

func TestProfileRoundTrip(t *testing.T) {
	f := testStore(t)
	p := models.NewUserProfile("")
	p.Email = "yuki@example.com"

	if err := f.SaveProfile(p); err != nil {
		t.Fatalf("SaveProfile: %v", err)
	}
	got, err := f.LoadProfile()
	if err != nil {
		t.Fatalf("LoadProfile: %v", err)
	}
	if got == nil {
		t.Fatal("profile is nil")
	}
	if got.Name != models.DefaultProfileName {
		t.Errorf("name = %q", got.Name)
	}
	if got.Email != "yuki@example.com" {
		t.Errorf("email = %q", got.Email)
	}
	if !got.Settings.NotificationsEnabled || got.Settings.Theme != models.ThemeSystem || !got.Settings.AutoSaveEnabled {
		t.Errorf("settings defaults lost: %+v", got.Settings)
	}
}

func TestDeleteChatHistory(t *testing.T) {
	f := testStore(t)

	// Deleting an absent file is not an error.
	if err := f.DeleteChatHistory(); err != nil {
		t.Fatalf("delete absent: %v", err)
	}

	msgs := []models.ChatMessage{models.NewChatMessage("こんにちは", true)}
	if err := f.SaveChatHistory(msgs); err != nil {
		t.Fatalf("SaveChatHistory: %v", err)
	}
	if err := f.DeleteChatHistory(); err != nil {
		t.Fatalf("DeleteChatHistory: %v", err)
	}
	if _, err := os.Stat(filepath.Join(filepath.Dir(f.LogsPath()), ChatFile)); !errors.Is(err, os.ErrNotExist) {
		t.Error("chat file still exists")
	}

	history, err := f.LoadChatHistory()
	if err != nil {
		t.Fatalf("LoadChatHistory: %v", err)
	}
	if len(history) != 0 {
		t.Errorf("history len = %d, want 0", len(history))
	}
}
