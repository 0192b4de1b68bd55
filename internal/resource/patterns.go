package resource

import (
	"regexp"
	"strings"
)

// Regexes implementing the type-detection order of spec.md §4.1. Order
// matters: the first match wins.
var (
	reUUIDv4        = regexp.MustCompile(`(?i)^[0-9a-f]{8}-[0-9a-f]{4}-[1-5][0-9a-f]{3}-[89ab][0-9a-f]{3}-[0-9a-f]{12}$`)
	reAtlassianARI  = regexp.MustCompile(`^ari:cloud:[a-z]+::[a-z0-9-]+/[a-z0-9-]+$`)
	reAtlassianKey  = regexp.MustCompile(`^[A-Z]+-[0-9]+$`)
	reNumericString = regexp.MustCompile(`^[0-9]{3,}$`)
	rePathString    = regexp.MustCompile(`^/[\w\-/]+$`)
	reSlugString    = regexp.MustCompile(`(?i)^[a-z0-9]+[-_][a-z0-9]+[-_a-z0-9]*$`)
)

// idLikeFieldNames is the closed set of exact field-name matches from
// spec.md §4.1. Matching is case-insensitive, and a field name also
// qualifies if it *ends with* one of these names (e.g. "jiraIssueId").
var idLikeFieldNames = []string{
	"id", "uuid", "key", "resourceid", "objectid", "entityid", "userid",
	"accountid", "projectid", "issueid", "pageid", "spaceid", "ari",
	"cloudid", "siteid", "workspaceid", "boardid", "ticketid", "documentid",
	"fileid", "folderid", "groupid", "teamid", "channelid", "conversationid",
	"messageid", "attachmentid", "commentid", "self",
}

// isIDLikeField reports whether fieldName is ID-like per spec.md §4.1.
func isIDLikeField(fieldName string) bool {
	if fieldName == "" {
		return false
	}
	lower := strings.ToLower(fieldName)
	for _, candidate := range idLikeFieldNames {
		if lower == candidate || strings.HasSuffix(lower, candidate) {
			return true
		}
	}
	return false
}

// detectType runs the ordered pattern match of spec.md §4.1. Empty or
// >500-char strings never match (first condition below).
func detectType(value string) (Type, bool) {
	if value == "" || len(value) > 500 {
		return "", false
	}
	switch {
	case reUUIDv4.MatchString(value):
		return TypeUUID, true
	case reAtlassianARI.MatchString(value):
		return TypePath, true
	case reAtlassianKey.MatchString(value):
		return TypeSlug, true
	case reNumericString.MatchString(value):
		return TypeNumeric, true
	case rePathString.MatchString(value):
		return TypePath, true
	case reSlugString.MatchString(value):
		return TypeSlug, true
	default:
		return "", false
	}
}

// isStrongPattern reports whether value matches one of the two "strong"
// patterns that justify indexing a string even under a non-ID-like field
// name (spec.md §4.1: UUID or Atlassian key).
func isStrongPattern(value string) bool {
	return reUUIDv4.MatchString(value) || reAtlassianKey.MatchString(value)
}
