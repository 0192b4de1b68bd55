package resource

// Type classifies an extracted identifier's shape (spec.md §3.4).
type Type string

const (
	TypeUUID    Type = "uuid"
	TypeNumeric Type = "numeric"
	TypePath    Type = "path"
	TypeSlug    Type = "slug"
	TypeUnknown Type = "unknown"
)

// Entry is a single indexed resource (spec.md §3.4).
type Entry struct {
	EntryID            string         `json:"entryId"`
	ID                 string         `json:"id"`
	Type               Type           `json:"type"`
	FieldName          string         `json:"fieldName"`
	FieldPath          string         `json:"fieldPath"`
	ParentContext      map[string]any `json:"parentContext,omitempty"`
	DiscoveredByTool   string         `json:"discoveredByTool"`
	DiscoveredFromUser string         `json:"discoveredFromUser"`
	UserDisplayName    string         `json:"userDisplayName,omitempty"`
	UserColorTag       string         `json:"userColorTag,omitempty"`
	Timestamp          int64          `json:"timestamp"`
}

// AnonymousUser is the DiscoveredFromUser value used when no profile is
// active (spec.md §3.4).
const AnonymousUser = "anonymous"
