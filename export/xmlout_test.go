package export

import (
	"encoding/xml"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/klauspost/compress/zstd"

	"github.com/grantj-re3/dspace-exportitems/dcxml"
	"github.com/grantj-re3/dspace-exportitems/match"
	"github.com/grantj-re3/dspace-exportitems/policy"
	"github.com/grantj-re3/dspace-exportitems/store"
)

func testResult() *Result {
	lift := policy.NewDate(2031, time.June, 1)
	return &Result{
		Row: &store.ItemRow{ItemID: 1234, Handle: "2328/100", InArchive: true, Discoverable: true},
		URL: "https://hdl.handle.net/2328/100",
		ItemPolicies: []policy.ItemPolicy{
			{ResourceID: 1234, PolicyID: 88, Action: policy.ActionRead, StartDate: &lift},
		},
		ItemEmbargoes: []policy.EmbargoStatus{{HasEmbargo: true, LiftDate: &lift}},
		Fields:        &dcxml.Fields{},
		PackageXML:    []byte(`<?xml version="1.0"?><mets><amdSec/></mets>`),
		Match: &match.Result{
			Strategy: "direct",
			Unique:   true,
			Matches: []match.Match{{
				ExternalID: "2006000001",
				Record:     &match.ExternalRecord{UUID: "9e107d9d-5c69-4b1c-8f66-1a2b3c4d5e6f", ExternalID: "2006000001", PureID: 4711},
				LocalIDs:   []string{"2006000001"},
			}},
		},
		Keep: true,
	}
}

func TestWriteRecord(t *testing.T) {
	path := filepath.Join(t.TempDir(), "kept", "2328_100.xml")
	if err := WriteRecord(testResult(), path, false); err != nil {
		t.Fatal(err)
	}
	b, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	s := string(b)
	// the package declaration must not survive grafting
	if strings.Count(s, "<?xml") != 1 {
		t.Errorf("want exactly one xml declaration:\n%s", s)
	}
	for _, want := range []string{
		`handle="2328/100"`,
		`classification="kept"`,
		`has_embargo="true"`,
		`lift_date="2031-06-01"`,
		`<amdSec/>`,
		`uuid="9e107d9d-5c69-4b1c-8f66-1a2b3c4d5e6f"`,
	} {
		if !strings.Contains(s, want) {
			t.Errorf("record missing %s:\n%s", want, s)
		}
	}
	// grafted output must still be well-formed
	var anything struct{}
	if err := xml.Unmarshal(b, &anything); err != nil {
		t.Errorf("record not well-formed: %v", err)
	}
}

func TestWriteRecordCompressed(t *testing.T) {
	path := filepath.Join(t.TempDir(), "kept", "2328_100.xml.zst")
	if err := WriteRecord(testResult(), path, true); err != nil {
		t.Fatal(err)
	}
	f, err := os.Open(path)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	dec, err := zstd.NewReader(f)
	if err != nil {
		t.Fatal(err)
	}
	defer dec.Close()
	var rec struct {
		Handle string `xml:"handle,attr"`
	}
	if err := xml.NewDecoder(dec).Decode(&rec); err != nil {
		t.Fatal(err)
	}
	if rec.Handle != "2328/100" {
		t.Errorf("unexpected handle: %s", rec.Handle)
	}
}

func TestRecordPath(t *testing.T) {
	if got := recordPath("/out", "kept", "2328/100", false); got != "/out/kept/2328_100.xml" {
		t.Errorf("unexpected path: %s", got)
	}
	if got := recordPath("/out", "omitted", "2328/100", true); got != "/out/omitted/2328_100.xml.zst" {
		t.Errorf("unexpected path: %s", got)
	}
}
