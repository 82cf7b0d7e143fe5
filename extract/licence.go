// Package extract derives licence, publisher and grant information from
// free-text bibliographic metadata fields.
package extract

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/grantj-re3/dspace-exportitems/policy"
)

// Licence is a canonical licence code.
type Licence string

const (
	LicenceCCBYNCND    Licence = "CC-BY-NC-ND"
	LicenceCCBYNCSA    Licence = "CC-BY-NC-SA"
	LicenceCCBYNC      Licence = "CC-BY-NC"
	LicenceCCBYND      Licence = "CC-BY-ND"
	LicenceCCBYSA      Licence = "CC-BY-SA"
	LicenceCC0         Licence = "CC0"
	LicenceCCBY        Licence = "CC-BY"
	LicenceInCopyright Licence = "In Copyright"
)

// LicenceResult is the outcome of scanning free-text fields for a licence.
// An empty Code means no rule matched.
type LicenceResult struct {
	Code Licence
	Rule string // which rule matched, e.g. "cc_by_nc_nd/abbr"
}

type licenceRule struct {
	key  string
	code Licence
	abbr *regexp.Regexp
	url  *regexp.Regexp
}

// sep matches token separators inside a licence abbreviation. Metadata text
// carries these with spaces, hyphens, underscores and even line breaks.
const sep = `[\s_-]*`

// bound keeps an abbreviation match from being a substring of a longer
// alphabetic word.
const lbound = `(?:^|[^a-z])`
const rbound = `(?:$|[^a-z])`

func abbrPattern(tokens ...string) *regexp.Regexp {
	return regexp.MustCompile(`(?i)` + lbound + strings.Join(tokens, sep) + rbound)
}

// urlPattern matches a creativecommons.org licence path, tolerating
// whitespace and newlines around the path separators.
func urlPattern(slug string) *regexp.Regexp {
	parts := strings.Split(slug, "-")
	return regexp.MustCompile(`(?i)creativecommons\s*\.\s*org\s*/\s*licen[cs]es\s*/\s*` +
		strings.Join(parts, `\s*-\s*`) + `\s*/`)
}

// licenceRules is an ordered, first-match-wins rule list. The two-restriction
// forms must come before their single-restriction parents, and the plain
// attribution form last, otherwise a restrictive licence would be
// mis-classified as its permissive base licence. Do not reorder.
var licenceRules = []licenceRule{
	{"cc_by_nc_nd", LicenceCCBYNCND, abbrPattern("cc", "by", "nc", "nd"), urlPattern("by-nc-nd")},
	{"cc_by_nc_sa", LicenceCCBYNCSA, abbrPattern("cc", "by", "nc", "sa"), urlPattern("by-nc-sa")},
	{"cc_by_nc", LicenceCCBYNC, abbrPattern("cc", "by", "nc"), urlPattern("by-nc")},
	{"cc_by_nd", LicenceCCBYND, abbrPattern("cc", "by", "nd"), urlPattern("by-nd")},
	{"cc_by_sa", LicenceCCBYSA, abbrPattern("cc", "by", "sa"), urlPattern("by-sa")},
	{"cc0", LicenceCC0,
		regexp.MustCompile(`(?i)` + lbound + `cc` + sep + `(?:0|zero)` + `(?:$|[^a-z0-9])`),
		regexp.MustCompile(`(?i)creativecommons\s*\.\s*org\s*/\s*publicdomain\s*/\s*zero\s*/`)},
	{"cc_by", LicenceCCBY, abbrPattern("cc", "by"), urlPattern("by")},
}

// ExtractLicence scans the description and rights values, in order, against
// the ordered licence rule list. The first rule to match any candidate text
// wins, across both the abbreviation and the URL pattern of each rule.
func ExtractLicence(descriptions, rights []string) LicenceResult {
	candidates := make([]string, 0, len(descriptions)+len(rights))
	candidates = append(candidates, descriptions...)
	candidates = append(candidates, rights...)
	for _, text := range candidates {
		for _, rule := range licenceRules {
			if rule.abbr.MatchString(text) {
				return LicenceResult{Code: rule.code, Rule: rule.key + "/abbr"}
			}
			if rule.url.MatchString(text) {
				return LicenceResult{Code: rule.code, Rule: rule.key + "/url"}
			}
		}
	}
	return LicenceResult{}
}

// expectedAuthorityLabels is the closed set of values we expect to see in the
// licence authority field.
var expectedAuthorityLabels = map[string]bool{
	string(LicenceCCBYNCND):    true,
	string(LicenceCCBYNCSA):    true,
	string(LicenceCCBYNC):      true,
	string(LicenceCCBYND):      true,
	string(LicenceCCBYSA):      true,
	string(LicenceCC0):         true,
	string(LicenceCCBY):        true,
	string(LicenceInCopyright): true,
}

// ExtractLicenceAuthority returns the first non-empty value of the explicit
// licence authority field. A value outside the expected label set is warned
// about but still returned: the authority field is trusted over heuristic
// extraction when present.
func ExtractLicenceAuthority(licences []string) (string, []string) {
	for _, v := range licences {
		v = strings.TrimSpace(v)
		if v == "" {
			continue
		}
		var warnings []string
		if !expectedAuthorityLabels[v] {
			warnings = append(warnings, fmt.Sprintf("unexpected licence authority value %q", v))
		}
		return v, warnings
	}
	return "", nil
}

// FallbackLicence decides a per-bitstream licence when the item-level licence
// is unknown. An author version from a publisher that was not flagged as the
// restricted publisher is assumed to be in copyright; otherwise no licence
// can be determined.
func FallbackLicence(item Licence, version policy.DocVersion, publisher PublisherFlag) Licence {
	if item != "" {
		return item
	}
	if version == policy.DocVersionAuthor && publisher == PublisherNone {
		return LicenceInCopyright
	}
	return ""
}
