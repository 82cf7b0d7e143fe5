package match

import (
	"fmt"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestCleanIdentifiers(t *testing.T) {
	testCases := []struct {
		name  string
		raw   []string
		want  []string
		notes int
	}{
		{"trim and strip url", []string{" https://doi.org/10.1234/abc "}, []string{"10.1234/abc"}, 0},
		{"dx prefix", []string{"http://dx.doi.org/10.1234/abc"}, []string{"10.1234/abc"}, 0},
		{"doi scheme", []string{"doi:10.1234/abc"}, []string{"10.1234/abc"}, 0},
		{"dedup", []string{"10.1/a", "https://doi.org/10.1/a"}, []string{"10.1/a"}, 1},
		{"multiple ids", []string{"10.1/a", "10.2/b"}, []string{"10.1/a", "10.2/b"}, 1},
		{"empty dropped", []string{"", "  "}, nil, 0},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			got := CleanIdentifiers(tc.raw)
			if diff := cmp.Diff(tc.want, got.IDs); diff != "" {
				t.Errorf("ids mismatch (-want +got):\n%s", diff)
			}
			if len(got.Notes) != tc.notes {
				t.Errorf("want %d notes, got %v", tc.notes, got.Notes)
			}
		})
	}
}

// fakeResolver serves canned external records in tests.
type fakeResolver map[string]*ExternalRecord

func (f fakeResolver) Lookup(id string) (*ExternalRecord, error) {
	rec, ok := f[id]
	if !ok {
		return nil, fmt.Errorf("lookup %s: no such record", id)
	}
	return rec, nil
}

func TestDirectMatcherDedupPrefersDeclaredExternalID(t *testing.T) {
	// Two local identifiers resolve to records sharing one UUID. Only the
	// second equals its record's declared external id, so it must survive.
	resolver := fakeResolver{
		"2006000001": {UUID: "9e107d9d-5c69-4b1c-8f66-1a2b3c4d5e6f", ExternalID: "2006000002", PureID: 11},
		"2006000002": {UUID: "9e107d9d-5c69-4b1c-8f66-1a2b3c4d5e6f", ExternalID: "2006000002", PureID: 11},
	}
	m := &DirectMatcher{
		Known: map[string]bool{"2006000001": true, "2006000002": true},
		Store: resolver,
	}
	res, err := m.Match([]string{"2006000001", "2006000002"})
	if err != nil {
		t.Fatal(err)
	}
	if len(res.Matches) != 1 {
		t.Fatalf("want one surviving match, got %d", len(res.Matches))
	}
	if res.Matches[0].ExternalID != "2006000002" {
		t.Errorf("want declared external id to survive, got %s", res.Matches[0].ExternalID)
	}
	if !res.Unique {
		t.Error("want unique flag set")
	}
	if len(res.Discarded) != 1 || !strings.Contains(res.Discarded[0], "2006000001") {
		t.Errorf("want discard diagnostic for 2006000001, got %v", res.Discarded)
	}
}

func TestDedupKeepsFirstWhenNoDeclaredIDMatches(t *testing.T) {
	resolver := fakeResolver{
		"A": {UUID: "1b4e28ba-2fa1-11d2-883f-0016d3cca427", ExternalID: "Z"},
		"B": {UUID: "1b4e28ba-2fa1-11d2-883f-0016d3cca427", ExternalID: "Z"},
	}
	m := &DirectMatcher{Known: map[string]bool{"A": true, "B": true}, Store: resolver}
	res, err := m.Match([]string{"A", "B"})
	if err != nil {
		t.Fatal(err)
	}
	if len(res.Matches) != 1 || res.Matches[0].ExternalID != "A" {
		t.Errorf("want first candidate kept, got %+v", res.Matches)
	}
}

func TestDOIMatcherMergesLocalIDs(t *testing.T) {
	// Two DOIs map to the same external identifier; they merge into one
	// match before any UUID dedup.
	resolver := fakeResolver{
		"2006000009": {UUID: "6fa459ea-ee8a-3ca4-894e-db77e160355e", ExternalID: "2006000009"},
	}
	m := &DOIMatcher{
		Table: map[string]string{
			"10.1/a": "2006000009",
			"10.2/b": "2006000009",
		},
		Store: resolver,
	}
	res, err := m.Match([]string{"10.1/a", "10.2/b"})
	if err != nil {
		t.Fatal(err)
	}
	if len(res.Matches) != 1 {
		t.Fatalf("want one match, got %d", len(res.Matches))
	}
	if diff := cmp.Diff([]string{"10.1/a", "10.2/b"}, res.Matches[0].LocalIDs); diff != "" {
		t.Errorf("local ids mismatch (-want +got):\n%s", diff)
	}
}

func TestDOIMatcherUnknownDOI(t *testing.T) {
	m := &DOIMatcher{Table: map[string]string{}, Store: fakeResolver{}}
	res, err := m.Match([]string{"10.9/none"})
	if err != nil {
		t.Fatal(err)
	}
	if len(res.Matches) != 0 || res.Unique {
		t.Errorf("want no matches, got %+v", res)
	}
}

func TestSelect(t *testing.T) {
	if _, err := Select("doi", nil, nil, fakeResolver{}); err != nil {
		t.Errorf("doi strategy: %v", err)
	}
	if _, err := Select("direct", nil, nil, fakeResolver{}); err != nil {
		t.Errorf("direct strategy: %v", err)
	}
	if _, err := Select("fuzzy", nil, nil, fakeResolver{}); err == nil {
		t.Error("want error for unknown strategy")
	}
}

func TestFileStorePath(t *testing.T) {
	s := &FileStore{Dir: "/data/lookup", PrefixWidth: 4, FilePrefix: "rm", Ext: ".xml"}
	if got := s.Path("2006000001"); got != "/data/lookup/2006/rm2006000001.xml" {
		t.Errorf("unexpected path: %s", got)
	}
	if got := s.Path("20"); got != "/data/lookup/20/rm20.xml" {
		t.Errorf("short id path: %s", got)
	}
}
