package extract

import (
	"fmt"
	"testing"

	"github.com/grantj-re3/dspace-exportitems/policy"
)

func TestExtractLicence(t *testing.T) {
	testCases := []struct {
		text string
		want Licence
	}{
		{"Available under a CC BY-NC-ND licence", LicenceCCBYNCND},
		{"CCBY-NC-ND", LicenceCCBYNCND},
		{"cc\nby nc nd", LicenceCCBYNCND},
		{"CC BY-NC-SA 4.0", LicenceCCBYNCSA},
		{"CC BY-NC", LicenceCCBYNC},
		{"CCBY NC", LicenceCCBYNC},
		{"CC-BY-ND", LicenceCCBYND},
		{"cc by sa", LicenceCCBYSA},
		{"CC0 1.0 Universal", LicenceCC0},
		{"CC Zero waiver applies", LicenceCC0},
		{"Licensed under CC BY 4.0", LicenceCCBY},
		{"http://creativecommons.org/licenses/by-nc-nd/4.0/", LicenceCCBYNCND},
		{"https://creativecommons.org/licences/by/3.0/au/", LicenceCCBY},
		{"creativecommons .org / licenses / by - nc /4.0/", LicenceCCBYNC},
		{"https://creativecommons.org/publicdomain/zero/1.0/", LicenceCC0},
		{"All rights reserved", ""},
		{"occupancy by number", ""}, // no substring matches inside words
		{"", ""},
	}
	for _, tc := range testCases {
		t.Run(tc.text, func(t *testing.T) {
			got := ExtractLicence([]string{tc.text}, nil)
			if got.Code != tc.want {
				t.Errorf("want %q, got %q (rule %s)", tc.want, got.Code, got.Rule)
			}
		})
	}
}

// Rule order is a correctness requirement: a text mentioning both a
// restrictive variant and the bare attribution form must resolve to the
// restrictive variant.
func TestExtractLicenceMostSpecificWins(t *testing.T) {
	got := ExtractLicence(
		[]string{"Distributed as CC-BY-NC; earlier drafts were CC-BY."}, nil)
	if got.Code != LicenceCCBYNC {
		t.Fatalf("want %s, got %s (rule %s)", LicenceCCBYNC, got.Code, got.Rule)
	}
}

func TestExtractLicenceDescriptionBeforeRights(t *testing.T) {
	got := ExtractLicence([]string{"CC BY-ND"}, []string{"CC BY"})
	if got.Code != LicenceCCBYND {
		t.Errorf("description values must be scanned first, got %s", got.Code)
	}
}

func TestExtractLicenceWhitespaceVariants(t *testing.T) {
	variants := []string{"CC BY-NC-ND", "CCBY-NC-ND", "cc\nby nc nd", "CC_BY_NC_ND"}
	for _, v := range variants {
		if got := ExtractLicence(nil, []string{v}); got.Code != LicenceCCBYNCND {
			t.Errorf("ExtractLicence(%q): want %s, got %s", v, LicenceCCBYNCND, got.Code)
		}
	}
}

func TestExtractLicenceAuthority(t *testing.T) {
	testCases := []struct {
		values   []string
		want     string
		warnings int
	}{
		{[]string{"CC-BY-NC"}, "CC-BY-NC", 0},
		{[]string{"In Copyright"}, "In Copyright", 0},
		{[]string{"Something odd"}, "Something odd", 1},
		{[]string{"", "CC0"}, "CC0", 0},
		{nil, "", 0},
	}
	for i, tc := range testCases {
		t.Run(fmt.Sprintf("case %d", i), func(t *testing.T) {
			got, warnings := ExtractLicenceAuthority(tc.values)
			if got != tc.want {
				t.Errorf("want %q, got %q", tc.want, got)
			}
			if len(warnings) != tc.warnings {
				t.Errorf("want %d warnings, got %v", tc.warnings, warnings)
			}
		})
	}
}

func TestFallbackLicence(t *testing.T) {
	testCases := []struct {
		item      Licence
		version   policy.DocVersion
		publisher PublisherFlag
		want      Licence
	}{
		{LicenceCCBY, policy.DocVersionUnknown, PublisherConfirmed, LicenceCCBY},
		{"", policy.DocVersionAuthor, PublisherNone, LicenceInCopyright},
		{"", policy.DocVersionAuthor, PublisherConfirmed, ""},
		{"", policy.DocVersionAuthor, PublisherMaybe, ""},
		{"", policy.DocVersionPublisher, PublisherNone, ""},
		{"", policy.DocVersionUnknown, PublisherNone, ""},
	}
	for _, tc := range testCases {
		got := FallbackLicence(tc.item, tc.version, tc.publisher)
		if got != tc.want {
			t.Errorf("FallbackLicence(%q, %s, %q): want %q, got %q",
				tc.item, tc.version, tc.publisher, tc.want, got)
		}
	}
}

func TestDetectRestrictedPublisher(t *testing.T) {
	d, err := NewPublisherDetector(`(?i)\belsevier\b`)
	if err != nil {
		t.Fatal(err)
	}
	testCases := []struct {
		name         string
		publishers   []string
		descriptions []string
		rights       []string
		want         PublisherFlag
	}{
		{"publisher field", []string{"Elsevier BV"}, nil, nil, PublisherConfirmed},
		{"description only", []string{"Springer"}, []string{"published by Elsevier"}, nil, PublisherMaybe},
		{"rights only", nil, nil, []string{"(c) ELSEVIER"}, PublisherMaybe},
		{"no mention", []string{"Wiley"}, []string{"text"}, []string{"text"}, PublisherNone},
		{"substring does not count", []string{"Nonelsevierish Press"}, nil, nil, PublisherNone},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			got := d.Detect(tc.publishers, tc.descriptions, tc.rights)
			if got != tc.want {
				t.Errorf("want %q, got %q", tc.want, got)
			}
		})
	}
}
