// Package resource implements the Resource Indexer (spec.md §4.1): a
// persistent, deduplicating extractor that mines identifiers from arbitrary
// nested tool responses and attributes them to the acting user profile.
package resource

import (
	"encoding/json"
	"fmt"
	"log"
	"os"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/mcplens/inspector/internal/atomicfile"
)

// ProfileResolver looks up display metadata for a user id, for attaching
// UserDisplayName/UserColorTag to new entries. A nil resolver (or one that
// returns ok=false) leaves those fields empty.
type ProfileResolver func(userID string) (displayName, colorTag string, ok bool)

// fileShape mirrors resources.json (spec.md §6.1).
type fileShape struct {
	Resources []Entry `json:"resources"`
}

// Indexer is a process-wide singleton (spec.md §3.7): its lifecycle is the
// process lifetime, persisting to resources.json on every insertion.
type Indexer struct {
	mu             sync.Mutex
	path           string
	entries        []Entry
	seen           map[string]struct{} // "<id>::<user>"
	resolveProfile ProfileResolver
}

// NewIndexer creates an Indexer backed by path (typically
// ${HOME}/.mcp-inspector/resources.json). Load populates it from disk.
func NewIndexer(path string) *Indexer {
	return &Indexer{
		path: path,
		seen: make(map[string]struct{}),
	}
}

// SetProfileResolver registers a callback used to populate display metadata
// on newly indexed entries. Not safe to call concurrently with IndexResponse.
func (idx *Indexer) SetProfileResolver(fn ProfileResolver) {
	idx.resolveProfile = fn
}

// Load reads the backing file, rebuilding the dedup set from its contents.
// A missing file is a fresh start; a corrupt file is logged and treated as
// empty — the existing file is left untouched until the next insertion.
func (idx *Indexer) Load() error {
	data, err := os.ReadFile(idx.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		log.Printf("[Index] read %q: %v; starting empty", idx.path, err)
		return nil
	}

	var shape fileShape
	if err := json.Unmarshal(data, &shape); err != nil {
		log.Printf("[Index] parse %q: %v; starting empty", idx.path, err)
		return nil
	}

	idx.mu.Lock()
	defer idx.mu.Unlock()
	idx.entries = shape.Resources
	idx.seen = make(map[string]struct{}, len(shape.Resources))
	for _, e := range shape.Resources {
		idx.seen[dedupKey(e.ID, e.DiscoveredFromUser)] = struct{}{}
	}
	return nil
}

// IndexResponse extracts candidate identifiers from response, filters
// duplicates per (id, user), persists the updated set, and returns only the
// newly added entries (spec.md §4.1).
//
// userID may be empty, in which case entries are attributed to
// resource.AnonymousUser.
func (idx *Indexer) IndexResponse(userID, toolName string, response any) ([]Entry, error) {
	user := userID
	if user == "" {
		user = AnonymousUser
	}

	unwrapped := UnwrapEnvelope(response)
	candidates := extractIdentifiers(unwrapped)

	idx.mu.Lock()
	defer idx.mu.Unlock()

	var added []Entry
	for _, c := range candidates {
		key := dedupKey(c.Value, user)
		if _, dup := idx.seen[key]; dup {
			continue
		}
		entry := Entry{
			EntryID:            uuid.NewString(),
			ID:                 c.Value,
			Type:               c.Type,
			FieldName:          c.FieldName,
			FieldPath:          c.FieldPath,
			ParentContext:      c.ParentContext,
			DiscoveredByTool:   toolName,
			DiscoveredFromUser: user,
			Timestamp:          time.Now().UnixMilli(),
		}
		if idx.resolveProfile != nil {
			if dn, ct, ok := idx.resolveProfile(user); ok {
				entry.UserDisplayName = dn
				entry.UserColorTag = ct
			}
		}
		idx.seen[key] = struct{}{}
		idx.entries = append(idx.entries, entry)
		added = append(added, entry)
	}

	if len(added) == 0 {
		return nil, nil
	}
	if err := idx.persistLocked(); err != nil {
		return added, fmt.Errorf("resource: persist: %w", err)
	}
	return added, nil
}

// All returns a copy of every indexed entry.
func (idx *Indexer) All() []Entry {
	idx.mu.Lock()
	defer idx.mu.Unlock()
	out := make([]Entry, len(idx.entries))
	copy(out, idx.entries)
	return out
}

func dedupKey(id, user string) string {
	return id + "::" + user
}

func (idx *Indexer) persistLocked() error {
	data, err := json.MarshalIndent(fileShape{Resources: idx.entries}, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal: %w", err)
	}
	return atomicfile.Write(idx.path, data)
}
