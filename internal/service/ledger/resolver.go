package ledger

import (
	"regexp"
	"strings"
)

var sharingPathPattern = regexp.MustCompile(`/d/([^/?#\s]+)`)

// ResolveHandle normalizes a raw ledger handle (bare ID or sharing URL) to its canonical ID.
// It never fails: input without a /d/<id> segment is returned trimmed.
func ResolveHandle(raw string) string {
	trimmed := strings.TrimSpace(raw)
	if m := sharingPathPattern.FindStringSubmatch(trimmed); len(m) == 2 {
		return m[1]
	}
	return trimmed
}
