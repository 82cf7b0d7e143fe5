// Package match locates external research-information-system records for an
// item via DOI or direct identifier lookup, and deduplicates matches that
// resolve to the same external record.
package match

import (
	"fmt"
	"regexp"
	"strings"
)

// doiPrefixRe strips URL and scheme prefixes from DOI-style identifiers.
var doiPrefixRe = regexp.MustCompile(`(?i)^(?:https?://(?:dx\.)?doi\.org/|doi:)`)

// CleanResult holds cleaned identifiers plus diagnostics about what cleaning
// did. Notes are informational, never fatal.
type CleanResult struct {
	IDs   []string
	Notes []string
}

// CleanIdentifiers trims surrounding whitespace, strips DOI URL prefixes and
// removes duplicates while preserving first-seen order.
func CleanIdentifiers(raw []string) CleanResult {
	var res CleanResult
	seen := make(map[string]bool)
	for _, id := range raw {
		id = strings.TrimSpace(id)
		id = doiPrefixRe.ReplaceAllString(id, "")
		if id == "" {
			continue
		}
		if seen[id] {
			res.Notes = append(res.Notes, fmt.Sprintf("duplicate identifier %q removed", id))
			continue
		}
		seen[id] = true
		res.IDs = append(res.IDs, id)
	}
	if len(res.IDs) > 1 {
		res.Notes = append(res.Notes, fmt.Sprintf("%d identifiers present", len(res.IDs)))
	}
	return res
}
