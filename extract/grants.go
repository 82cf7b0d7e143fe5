package extract

import (
	"fmt"
	"regexp"
	"strings"
)

// GrantPURLPrefix is the permanent URL prefix for grant identifiers.
const GrantPURLPrefix = "http://purl.org/au-research/grants/"

// Grant is one (funder, grant number) pair with its permanent URL.
type Grant struct {
	Funder string
	Number string
	URL    string
}

// GrantResult carries the merged, deduplicated grant list plus any
// validation warnings. Warnings never block the export.
type GrantResult struct {
	Grants   []Grant
	Warnings []string
}

// GrantExtractor validates grant references against a funder allow-list.
type GrantExtractor struct {
	funders map[string]bool
}

// NewGrantExtractor builds an extractor for the given funder allow-list.
// Funder comparison is canonicalized to upper case.
func NewGrantExtractor(funders []string) *GrantExtractor {
	m := make(map[string]bool, len(funders))
	for _, f := range funders {
		m[strings.ToUpper(f)] = true
	}
	return &GrantExtractor{funders: m}
}

var (
	grantURLRe  = regexp.MustCompile(`(?i)purl\.org/au-research/grants/([^/\s]+)/([^/\s]+)`)
	grantRefRe  = regexp.MustCompile(`^([^/]+)/(.+)$`)
	notFoundRe  = regexp.MustCompile(`(?i)not[\s_-]*found`)
	grantKeyFmt = "%s/%s"
)

type grantCandidate struct {
	funder string
	number string
}

// Extract derives grants from the two sources that should agree: grant URLs
// embedded in the relation field and funder/number pairs in the grantnumber
// field. Each source is processed independently; the merged output preserves
// first-seen order and holds each pair at most once. A final warning flags
// any disagreement between the two sources.
func (e *GrantExtractor) Extract(relations, grantNumbers []string) GrantResult {
	var res GrantResult

	fromRelation := e.collect("relation", relationCandidates(relations), &res.Warnings)
	fromNumbers := e.collect("grantnumber", numberCandidates(grantNumbers), &res.Warnings)

	seen := make(map[string]bool)
	for _, src := range [][]grantCandidate{fromRelation, fromNumbers} {
		for _, c := range src {
			key := fmt.Sprintf(grantKeyFmt, c.funder, c.number)
			if seen[key] {
				continue
			}
			seen[key] = true
			res.Grants = append(res.Grants, Grant{
				Funder: c.funder,
				Number: c.number,
				URL:    GrantPURLPrefix + c.funder + "/" + c.number,
			})
		}
	}

	if len(fromRelation) > 0 && len(fromNumbers) > 0 && !sameCandidates(fromRelation, fromNumbers) {
		res.Warnings = append(res.Warnings,
			"grant references in relation and grantnumber fields disagree")
	}
	return res
}

func relationCandidates(relations []string) []grantCandidate {
	var out []grantCandidate
	for _, v := range relations {
		for _, m := range grantURLRe.FindAllStringSubmatch(v, -1) {
			// sentence punctuation after the URL is not part of the number
			number := strings.TrimRight(m[2], ".,;:)")
			out = append(out, grantCandidate{funder: m[1], number: number})
		}
	}
	return out
}

func numberCandidates(grantNumbers []string) []grantCandidate {
	var out []grantCandidate
	for _, v := range grantNumbers {
		v = strings.TrimSpace(v)
		if v == "" {
			continue
		}
		m := grantRefRe.FindStringSubmatch(v)
		if m == nil {
			// keep a malformed reference as a candidate with no funder so
			// collect can warn about it
			out = append(out, grantCandidate{number: v})
			continue
		}
		out = append(out, grantCandidate{funder: m[1], number: m[2]})
	}
	return out
}

// collect canonicalizes, validates and de-duplicates candidates from one
// source, appending warnings as it goes.
func (e *GrantExtractor) collect(source string, candidates []grantCandidate, warnings *[]string) []grantCandidate {
	var out []grantCandidate
	seen := make(map[string]bool)
	for _, c := range candidates {
		c.funder = strings.ToUpper(strings.TrimSpace(c.funder))
		c.number = strings.ToUpper(strings.TrimSpace(c.number))
		if c.funder == "" {
			*warnings = append(*warnings,
				fmt.Sprintf("malformed grant reference %q in %s field", c.number, source))
			continue
		}
		if !e.funders[c.funder] {
			*warnings = append(*warnings,
				fmt.Sprintf("unexpected funder %q in %s field", c.funder, source))
			continue
		}
		if c.number == "" || notFoundRe.MatchString(c.number) {
			*warnings = append(*warnings,
				fmt.Sprintf("malformed grant number %q in %s field", c.number, source))
			continue
		}
		key := fmt.Sprintf(grantKeyFmt, c.funder, c.number)
		if seen[key] {
			*warnings = append(*warnings,
				fmt.Sprintf("duplicate grant reference %s in %s field", key, source))
			continue
		}
		seen[key] = true
		out = append(out, c)
	}
	return out
}

// sameCandidates compares the validated sets from both sources, ignoring
// order and multiplicity.
func sameCandidates(a, b []grantCandidate) bool {
	as := make(map[string]bool)
	bs := make(map[string]bool)
	for _, c := range a {
		as[fmt.Sprintf(grantKeyFmt, c.funder, c.number)] = true
	}
	for _, c := range b {
		bs[fmt.Sprintf(grantKeyFmt, c.funder, c.number)] = true
	}
	if len(as) != len(bs) {
		return false
	}
	for k := range as {
		if !bs[k] {
			return false
		}
	}
	return true
}
