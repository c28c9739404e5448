package domain

import "strings"

// statusAliases maps legacy and alternate spellings still sent by older
// clients to canonical statuses.
var statusAliases = map[string]Status{
	"PENDING":      StatusNew,
	"UNDER-REVIEW": StatusUnderReview,
	"IN-PROGRESS":  StatusInProgress,
}

var canonical = map[Status]bool{
	StatusNew:         true,
	StatusUnderReview: true,
	StatusInProgress:  true,
	StatusEscalated:   true,
	StatusResolved:    true,
	StatusClosed:      true,
}

// ParseStatus normalizes a status string: trimmed and upper-cased input
// matching a canonical status is returned as-is, legacy aliases map to
// their canonical value, and anything else yields ok=false. Callers
// treat an unrecognized value as "no change", never as an error.
func ParseStatus(s string) (Status, bool) {
	normalized := Status(strings.ToUpper(strings.TrimSpace(s)))
	if canonical[normalized] {
		return normalized, true
	}
	if alias, ok := statusAliases[string(normalized)]; ok {
		return alias, true
	}
	return "", false
}
