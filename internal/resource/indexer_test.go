package resource_test

import (
	"encoding/json"
	"path/filepath"
	"testing"

	"github.com/mcplens/inspector/internal/resource"
)

// ── helpers ──

func decode(t *testing.T, raw string) any {
	t.Helper()
	var v any
	if err := json.Unmarshal([]byte(raw), &v); err != nil {
		t.Fatalf("decode fixture: %v", err)
	}
	return v
}

// ── S1: identifier extraction from a nested, enveloped response ──

func TestIndexer_IndexResponse_ExtractsNestedIdentifiers(t *testing.T) {
	idx := resource.NewIndexer(filepath.Join(t.TempDir(), "resources.json"))

	envelope := decode(t, `{
		"content": [
			{"type": "text", "text": "{\"results\":[{\"id\":\"a1b2c3d4-0000-4000-8000-000000000000\",\"title\":\"hello\"}]}"}
		]
	}`)

	added, err := idx.IndexResponse("user-1", "search", envelope)
	if err != nil {
		t.Fatalf("IndexResponse: %v", err)
	}
	if len(added) != 1 {
		t.Fatalf("got %d new entries, want 1: %+v", len(added), added)
	}

	e := added[0]
	if e.ID != "a1b2c3d4-0000-4000-8000-000000000000" {
		t.Errorf("ID = %q", e.ID)
	}
	if e.Type != resource.TypeUUID {
		t.Errorf("Type = %q, want uuid", e.Type)
	}
	if e.FieldPath != "results[0].id" {
		t.Errorf("FieldPath = %q, want results[0].id", e.FieldPath)
	}
	if e.ParentContext["title"] != "hello" {
		t.Errorf("ParentContext = %+v, want title=hello", e.ParentContext)
	}
	if _, excluded := e.ParentContext["id"]; excluded {
		t.Errorf("ParentContext must exclude the focal field: %+v", e.ParentContext)
	}
	if e.DiscoveredByTool != "search" || e.DiscoveredFromUser != "user-1" {
		t.Errorf("attribution wrong: %+v", e)
	}
}

// ── S2: dedup across repeated calls, same id + same user ──

func TestIndexer_IndexResponse_DedupsAcrossCalls(t *testing.T) {
	idx := resource.NewIndexer(filepath.Join(t.TempDir(), "resources.json"))

	resp := decode(t, `{"id": "PROJ-123", "name": "thing"}`)

	first, err := idx.IndexResponse("user-1", "fetch", resp)
	if err != nil {
		t.Fatalf("first IndexResponse: %v", err)
	}
	if len(first) != 1 {
		t.Fatalf("first call: got %d new entries, want 1", len(first))
	}

	second, err := idx.IndexResponse("user-1", "fetch", resp)
	if err != nil {
		t.Fatalf("second IndexResponse: %v", err)
	}
	if len(second) != 0 {
		t.Fatalf("second call: got %d new entries, want 0 (dup)", len(second))
	}

	if len(idx.All()) != 1 {
		t.Fatalf("All() = %d entries, want 1", len(idx.All()))
	}

	// Same id, different user: not a duplicate.
	third, err := idx.IndexResponse("user-2", "fetch", resp)
	if err != nil {
		t.Fatalf("third IndexResponse: %v", err)
	}
	if len(third) != 1 {
		t.Fatalf("third call (different user): got %d new entries, want 1", len(third))
	}
}

// ── boundary: string length and numeric thresholds (spec.md §8.3) ──

func TestIndexer_IndexResponse_LongStringNeverIndexed(t *testing.T) {
	idx := resource.NewIndexer(filepath.Join(t.TempDir(), "resources.json"))

	long := make([]byte, 501)
	for i := range long {
		long[i] = 'a'
	}
	resp := map[string]any{"id": string(long)}

	added, err := idx.IndexResponse("user-1", "fetch", resp)
	if err != nil {
		t.Fatalf("IndexResponse: %v", err)
	}
	if len(added) != 0 {
		t.Fatalf("got %d entries, want 0 (501-char string)", len(added))
	}
}

func TestIndexer_IndexResponse_SmallNumericNotIndexed(t *testing.T) {
	idx := resource.NewIndexer(filepath.Join(t.TempDir(), "resources.json"))

	resp := map[string]any{"accountId": float64(100)}
	added, err := idx.IndexResponse("user-1", "fetch", resp)
	if err != nil {
		t.Fatalf("IndexResponse: %v", err)
	}
	if len(added) != 0 {
		t.Fatalf("got %d entries, want 0 (numeric <= 100)", len(added))
	}
}

func TestIndexer_IndexResponse_UUIDIndexedUnderNonIDLikeField(t *testing.T) {
	idx := resource.NewIndexer(filepath.Join(t.TempDir(), "resources.json"))

	resp := map[string]any{"reference": "a1b2c3d4-0000-4000-8000-000000000000"}
	added, err := idx.IndexResponse("user-1", "fetch", resp)
	if err != nil {
		t.Fatalf("IndexResponse: %v", err)
	}
	if len(added) != 1 {
		t.Fatalf("got %d entries, want 1 (UUID is a strong pattern)", len(added))
	}
}

func TestIndexer_IndexResponse_PlainSlugUnderNonIDLikeFieldIgnored(t *testing.T) {
	idx := resource.NewIndexer(filepath.Join(t.TempDir(), "resources.json"))

	resp := map[string]any{"description": "some-slug-value"}
	added, err := idx.IndexResponse("user-1", "fetch", resp)
	if err != nil {
		t.Fatalf("IndexResponse: %v", err)
	}
	if len(added) != 0 {
		t.Fatalf("got %d entries, want 0 (slug isn't a strong pattern)", len(added))
	}
}

// ── Load: persistence round-trip and dedup-set reconstruction ──

func TestIndexer_Load_ReconstructsDedupSet(t *testing.T) {
	path := filepath.Join(t.TempDir(), "resources.json")

	idx := resource.NewIndexer(path)
	resp := decode(t, `{"id": "PROJ-1"}`)
	if _, err := idx.IndexResponse("user-1", "fetch", resp); err != nil {
		t.Fatalf("IndexResponse: %v", err)
	}

	reloaded := resource.NewIndexer(path)
	if err := reloaded.Load(); err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(reloaded.All()) != 1 {
		t.Fatalf("All() after reload = %d, want 1", len(reloaded.All()))
	}

	added, err := reloaded.IndexResponse("user-1", "fetch", resp)
	if err != nil {
		t.Fatalf("IndexResponse after reload: %v", err)
	}
	if len(added) != 0 {
		t.Fatalf("expected dedup to survive reload, got %d new entries", len(added))
	}
}

func TestIndexer_Load_MissingFileIsFreshStart(t *testing.T) {
	idx := resource.NewIndexer(filepath.Join(t.TempDir(), "does-not-exist.json"))
	if err := idx.Load(); err != nil {
		t.Fatalf("Load on missing file: %v", err)
	}
	if len(idx.All()) != 0 {
		t.Fatalf("All() = %d, want 0", len(idx.All()))
	}
}
