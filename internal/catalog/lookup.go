package catalog

import "strings"

// Lookup resolves an identifier against records. Matching is tried in order:
// exact id, exact canonical slug, case-insensitive id, then case-insensitive
// display-name substring. The first record matching the earliest rule wins.
func Lookup(records []ModelRecord, identifier string) (ModelRecord, error) {
	if identifier == "" {
		return ModelRecord{}, &NotFoundError{Identifier: identifier}
	}
	if r, ok := MatchIdentifier(records, identifier); ok {
		return r, nil
	}
	needle := strings.ToLower(identifier)
	for _, r := range records {
		if strings.Contains(strings.ToLower(r.DisplayName), needle) {
			return r, nil
		}
	}
	return ModelRecord{}, &NotFoundError{Identifier: identifier}
}

// MatchIdentifier reports the first record whose id or canonical slug equals
// identifier, falling back to a case-insensitive id match. Display names are
// not considered.
func MatchIdentifier(records []ModelRecord, identifier string) (ModelRecord, bool) {
	if identifier == "" {
		return ModelRecord{}, false
	}
	for _, r := range records {
		if r.ID == identifier {
			return r, true
		}
	}
	for _, r := range records {
		if r.CanonicalSlug != "" && r.CanonicalSlug == identifier {
			return r, true
		}
	}
	for _, r := range records {
		if strings.EqualFold(r.ID, identifier) {
			return r, true
		}
	}
	return ModelRecord{}, false
}
