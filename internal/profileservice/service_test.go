package profileservice

import (
	"context"
	"testing"

	"github.com/aoyagi/manabi/internal/models"
	"github.com/aoyagi/manabi/internal/store"
)

func testProfile(t *testing.T) (*Service, *store.Files) {
	t.Helper()
	st, err := store.NewFiles(t.TempDir())
	if err != nil {
		t.Fatalf("NewFiles: %v", err)
	}
	return NewService(st), st
}

func TestLoadCreatesDefaultLazily(t *testing.T) {
	svc, st := testProfile(t)
	ctx := context.Background()

	p, err := svc.Load(ctx)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if p.Name != models.DefaultProfileName {
		t.Errorf("name = %q", p.Name)
	}
	if !p.Settings.NotificationsEnabled || p.Settings.Theme != models.ThemeSystem || !p.Settings.AutoSaveEnabled {
		t.Errorf("settings = %+v", p.Settings)
	}

	// The default must be persisted, not just held in memory.
	persisted, err := st.LoadProfile()
	if err != nil {
		t.Fatal(err)
	}
	if persisted == nil || persisted.ID != p.ID {
		t.Error("default profile not persisted")
	}

	// Second load returns the same singleton.
	again, err := svc.Load(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if again.ID != p.ID {
		t.Error("singleton identity changed across loads")
	}
}

func TestUpdateNamePersists(t *testing.T) {
	svc, st := testProfile(t)
	ctx := context.Background()

	updated, err := svc.UpdateName(ctx, "ゆき")
	if err != nil {
		t.Fatalf("UpdateName: %v", err)
	}
	if updated.Name != "ゆき" {
		t.Errorf("name = %q", updated.Name)
	}

	persisted, _ := st.LoadProfile()
	if persisted.Name != "ゆき" {
		t.Error("name not persisted")
	}
	if persisted.ID != updated.ID {
		t.Error("update changed the profile id")
	}
}

func TestUpdateSettings(t *testing.T) {
	svc, st := testProfile(t)
	ctx := context.Background()

	want := models.UserSettings{NotificationsEnabled: false, Theme: models.ThemeDark, AutoSaveEnabled: false}
	updated, err := svc.UpdateSettings(ctx, want)
	if err != nil {
		t.Fatalf("UpdateSettings: %v", err)
	}
	if updated.Settings != want {
		t.Errorf("settings = %+v", updated.Settings)
	}
	persisted, _ := st.LoadProfile()
	if persisted.Settings != want {
		t.Error("settings not persisted")
	}
}
