// Package profile manages persisted operator identities ("user profiles")
// used to attribute discovered resources and to inject credential headers
// into proxied requests.
package profile

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

// ColorTag is a closed set of display colors for a profile.
type ColorTag string

const (
	ColorBlue   ColorTag = "blue"
	ColorRed    ColorTag = "red"
	ColorGreen  ColorTag = "green"
	ColorPurple ColorTag = "purple"
	ColorOrange ColorTag = "orange"
	ColorYellow ColorTag = "yellow"
)

func validColorTag(c ColorTag) bool {
	switch c {
	case ColorBlue, ColorRed, ColorGreen, ColorPurple, ColorOrange, ColorYellow:
		return true
	default:
		return false
	}
}

// Profile is a persisted operator identity.
type Profile struct {
	ID          string            `json:"id"`
	DisplayName string            `json:"displayName"`
	ColorTag    ColorTag          `json:"colorTag"`
	Auth        string            `json:"auth,omitempty"`
	Headers     map[string]string `json:"headers,omitempty"`
	CreatedAt   int64             `json:"createdAt"`
	UpdatedAt   int64             `json:"updatedAt"`
}

// fileShape mirrors the top-level structure of auth.json (spec.md §6.1).
type fileShape struct {
	Profiles        []*Profile `json:"profiles"`
	ActiveProfileID *string    `json:"activeProfileId"`
}

// Store is a thread-safe, file-persisted registry of profiles.
// It is a process-wide singleton (spec.md §3.7 "Ownership"): its lifecycle
// is the process lifetime, not any single orchestrator run.
type Store struct {
	mu       sync.Mutex
	path     string
	profiles map[string]*Profile // by id
	order    []string            // insertion order, for stable List()
	active   *string
}

// NewStore creates a Store backed by path (typically
// ${HOME}/.mcp-inspector/auth.json). Load must be called to populate it from
// disk; a fresh Store starts empty.
func NewStore(path string) *Store {
	return &Store{
		path:     path,
		profiles: make(map[string]*Profile),
	}
}

// Load reads the backing file. A missing file is a fresh start (not an
// error); a malformed file is logged and treated as empty — the existing
// file is left untouched until the next successful write.
func (s *Store) Load() error {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		log.Printf("[Profile] read %q: %v; starting empty", s.path, err)
		return nil
	}

	var shape fileShape
	if err := json.Unmarshal(data, &shape); err != nil {
		// Corrupt file: logged, treated as empty. The existing file is left
		// untouched until the next successful write (spec.md §4.1).
		log.Printf("[Profile] parse %q: %v; starting empty", s.path, err)
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.profiles = make(map[string]*Profile, len(shape.Profiles))
	s.order = s.order[:0]
	for _, p := range shape.Profiles {
		s.profiles[p.ID] = p
		s.order = append(s.order, p.ID)
	}
	s.active = shape.ActiveProfileID
	return nil
}

// Create adds a new profile with a fresh UUIDv4 id and returns it.
func (s *Store) Create(displayName string, color ColorTag, auth string, headers map[string]string) (*Profile, error) {
	if !validColorTag(color) {
		return nil, fmt.Errorf("profile: invalid colorTag %q", color)
	}
	now := time.Now().UnixMilli()
	p := &Profile{
		ID:          uuid.NewString(),
		DisplayName: displayName,
		ColorTag:    color,
		Auth:        auth,
		Headers:     headers,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	s.mu.Lock()
	s.profiles[p.ID] = p
	s.order = append(s.order, p.ID)
	s.mu.Unlock()

	if err := s.persist(); err != nil {
		return nil, err
	}
	return p, nil
}

// Update mutates an existing profile's mutable fields. Fields left at their
// zero value (empty string / nil map) are left unchanged.
func (s *Store) Update(id string, displayName string, color ColorTag, auth string, headers map[string]string) (*Profile, error) {
	s.mu.Lock()
	p, ok := s.profiles[id]
	if !ok {
		s.mu.Unlock()
		return nil, fmt.Errorf("profile: %q not found", id)
	}
	if color != "" && !validColorTag(color) {
		s.mu.Unlock()
		return nil, fmt.Errorf("profile: invalid colorTag %q", color)
	}
	if displayName != "" {
		p.DisplayName = displayName
	}
	if color != "" {
		p.ColorTag = color
	}
	if auth != "" {
		p.Auth = auth
	}
	if headers != nil {
		p.Headers = headers
	}
	p.UpdatedAt = time.Now().UnixMilli()
	cp := *p
	s.mu.Unlock()

	if err := s.persist(); err != nil {
		return nil, err
	}
	return &cp, nil
}

// Delete removes a profile. Clears ActiveProfileID if it pointed at id.
func (s *Store) Delete(id string) error {
	s.mu.Lock()
	if _, ok := s.profiles[id]; !ok {
		s.mu.Unlock()
		return fmt.Errorf("profile: %q not found", id)
	}
	delete(s.profiles, id)
	for i, existing := range s.order {
		if existing == id {
			s.order = append(s.order[:i], s.order[i+1:]...)
			break
		}
	}
	if s.active != nil && *s.active == id {
		s.active = nil
	}
	s.mu.Unlock()

	return s.persist()
}

// SetActive sets the active profile id. Passing "" clears it.
func (s *Store) SetActive(id string) error {
	s.mu.Lock()
	if id == "" {
		s.active = nil
	} else {
		if _, ok := s.profiles[id]; !ok {
			s.mu.Unlock()
			return fmt.Errorf("profile: %q not found", id)
		}
		idCopy := id
		s.active = &idCopy
	}
	s.mu.Unlock()
	return s.persist()
}

// Get returns a copy of the profile with the given id, or false.
func (s *Store) Get(id string) (Profile, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.profiles[id]
	if !ok {
		return Profile{}, false
	}
	return *p, true
}

// ActiveProfile returns the currently active profile, if any is set and
// still exists.
func (s *Store) ActiveProfile() (Profile, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.active == nil {
		return Profile{}, false
	}
	p, ok := s.profiles[*s.active]
	if !ok {
		return Profile{}, false
	}
	return *p, true
}

// List returns copies of all profiles in creation order.
func (s *Store) List() []Profile {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Profile, 0, len(s.order))
	for _, id := range s.order {
		out = append(out, *s.profiles[id])
	}
	return out
}

// persist atomically rewrites the backing file: write to a temp file in the
// same directory, then rename over the target. Never truncates in place
// (spec.md §9: "this is not done in the source and is an open improvement").
func (s *Store) persist() error {
	s.mu.Lock()
	shape := fileShape{
		Profiles:        make([]*Profile, 0, len(s.order)),
		ActiveProfileID: s.active,
	}
	for _, id := range s.order {
		cp := *s.profiles[id]
		shape.Profiles = append(shape.Profiles, &cp)
	}
	s.mu.Unlock()

	data, err := json.MarshalIndent(shape, "", "  ")
	if err != nil {
		return fmt.Errorf("profile: marshal: %w", err)
	}
	return atomicfile.Write(s.path, data)
}
