package contacts

import "strings"

// AllowList restricts which correspondents the bot replies to. Entries are
// phone numbers (with or without the leading +) or Apple ID emails. An empty
// list means open mode: reply to everyone.
type AllowList struct {
	entries map[string]struct{}
	raw     []string
}

// NewAllowList builds an allow-list from raw identifiers. Blank entries are
// ignored.
func NewAllowList(ids []string) AllowList {
	entries := make(map[string]struct{})
	var raw []string
	for _, id := range ids {
		if strings.TrimSpace(id) == "" {
			continue
		}
		entries[normalize(id)] = struct{}{}
		raw = append(raw, strings.TrimSpace(id))
	}
	return AllowList{entries: entries, raw: raw}
}

// Open reports whether the list is empty, i.e. every sender is allowed.
func (a AllowList) Open() bool {
	return len(a.entries) == 0
}

// Allowed reports whether sender may receive automated replies. Matching
// normalizes both sides, so "+14155551234" and "14155551234" are equivalent.
// An empty sender is never allowed against a non-empty list.
func (a AllowList) Allowed(sender string) bool {
	if a.Open() {
		return true
	}
	if strings.TrimSpace(sender) == "" {
		return false
	}
	_, ok := a.entries[normalize(sender)]
	return ok
}

// Entries returns the configured identifiers as given (trimmed), for logging.
func (a AllowList) Entries() []string {
	return a.raw
}

// normalize trims whitespace, case-folds, and strips a single leading "+".
func normalize(id string) string {
	id = strings.ToLower(strings.TrimSpace(id))
	return strings.TrimPrefix(id, "+")
}
