package profile_test

import (
	"path/filepath"
	"testing"

	"github.com/mcplens/inspector/internal/profile"
)

func TestStore_CreateAndGet(t *testing.T) {
	dir := t.TempDir()
	s := profile.NewStore(filepath.Join(dir, "auth.json"))

	p, err := s.Create("Alice", profile.ColorBlue, "Bearer abc", map[string]string{"X-Team": "infra"})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if p.ID == "" {
		t.Fatal("expected a generated id")
	}

	got, ok := s.Get(p.ID)
	if !ok {
		t.Fatal("expected profile to exist")
	}
	if got.DisplayName != "Alice" || got.ColorTag != profile.ColorBlue {
		t.Errorf("unexpected profile: %+v", got)
	}
}

func TestStore_InvalidColorTag(t *testing.T) {
	s := profile.NewStore(filepath.Join(t.TempDir(), "auth.json"))
	if _, err := s.Create("Bob", profile.ColorTag("mauve"), "", nil); err == nil {
		t.Fatal("expected error for invalid colorTag")
	}
}

func TestStore_SaveThenReload_PreservesProfilesAndActive(t *testing.T) {
	path := filepath.Join(t.TempDir(), "auth.json")
	s := profile.NewStore(path)

	p1, _ := s.Create("Alice", profile.ColorBlue, "", nil)
	p2, _ := s.Create("Bob", profile.ColorRed, "", nil)
	if err := s.SetActive(p2.ID); err != nil {
		t.Fatalf("SetActive: %v", err)
	}

	reloaded := profile.NewStore(path)
	if err := reloaded.Load(); err != nil {
		t.Fatalf("Load: %v", err)
	}

	list := reloaded.List()
	if len(list) != 2 {
		t.Fatalf("expected 2 profiles, got %d", len(list))
	}
	active, ok := reloaded.ActiveProfile()
	if !ok || active.ID != p2.ID {
		t.Fatalf("expected active profile %q, got %+v (ok=%v)", p2.ID, active, ok)
	}
	if _, ok := reloaded.Get(p1.ID); !ok {
		t.Fatalf("expected profile %q to survive reload", p1.ID)
	}
}

func TestStore_Load_MissingFileIsFreshStart(t *testing.T) {
	s := profile.NewStore(filepath.Join(t.TempDir(), "does-not-exist.json"))
	if err := s.Load(); err != nil {
		t.Fatalf("Load of missing file should not error, got %v", err)
	}
	if len(s.List()) != 0 {
		t.Fatalf("expected empty store, got %d profiles", len(s.List()))
	}
}

func TestStore_DeleteClearsActive(t *testing.T) {
	s := profile.NewStore(filepath.Join(t.TempDir(), "auth.json"))
	p, _ := s.Create("Alice", profile.ColorGreen, "", nil)
	if err := s.SetActive(p.ID); err != nil {
		t.Fatalf("SetActive: %v", err)
	}
	if err := s.Delete(p.ID); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if _, ok := s.ActiveProfile(); ok {
		t.Fatal("expected active profile to be cleared after delete")
	}
}
