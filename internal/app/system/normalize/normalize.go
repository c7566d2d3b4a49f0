// internal/app/system/normalize/normalize.go

// Package normalize canonicalizes user-supplied identifiers before they are
// compared or stored.
package normalize

import "strings"

// Email returns the trimmed, lowercased form used as the user identity.
func Email(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// Name trims surrounding space and collapses inner runs of whitespace.
// Case is preserved.
func Name(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// Handle normalizes a username recipient: trimmed and without a leading "@".
func Handle(s string) string {
	s = strings.TrimSpace(s)
	return strings.TrimPrefix(s, "@")
}

// IsEmail reports whether s looks like an address rather than a handle.
func IsEmail(s string) bool {
	return strings.Contains(s, "@") && !strings.HasPrefix(s, "@")
}

// QueryParam trims a query string value.
func QueryParam(s string) string {
	return strings.TrimSpace(s)
}

// Recipients splits, trims and de-duplicates a recipient list, keeping order.
// Email-looking entries are lowercased.
func Recipients(in []string) []string {
	seen := make(map[string]struct{}, len(in))
	out := make([]string, 0, len(in))
	for _, raw := range in {
		for _, part := range strings.Split(raw, ",") {
			r := strings.TrimSpace(part)
			if r == "" {
				continue
			}
			if IsEmail(r) {
				r = Email(r)
			}
			if _, dup := seen[r]; dup {
				continue
			}
			seen[r] = struct{}{}
			out = append(out, r)
		}
	}
	return out
}
