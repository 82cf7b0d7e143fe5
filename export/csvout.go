package export

import (
	"encoding/csv"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/grantj-re3/dspace-exportitems/extract"
)

// Header is the fixed CSV column order of the review reports.
var Header = []string{
	"item_id",
	"item_url",
	"bitstreams",
	"bitstreams_deleted",
	"bitstream_name",
	"bitstream_doc_version",
	"bitstream_licence",
	"bitstream_deleted",
	"item_licence",
	"restricted_publisher",
	"grant_warnings",
	"grant_refs",
	"grant_urls",
	"id_notes",
	"match_strategy",
	"match_unique",
	"matched_ids",
	"dc_publisher",
	"dc_grantnumber",
	"dc_relation",
	"dc_rights",
	"dc_description",
	"dc_title",
}

// Rows renders one item into CSV rows: one per undeleted bitstream, or a
// single row with empty bitstream cells when there are none. Item-level
// cells are identical on every row of an item.
func Rows(res *Result, join string) [][]string {
	var matchedIDs []string
	var strategy string
	var unique bool
	if res.Match != nil {
		strategy = res.Match.Strategy
		unique = res.Match.Unique
		for _, m := range res.Match.Matches {
			matchedIDs = append(matchedIDs, m.ExternalID)
		}
	}
	var grantRefs, grantURLs []string
	for _, g := range res.Grants.Grants {
		grantRefs = append(grantRefs, g.Funder+"/"+g.Number)
		grantURLs = append(grantURLs, g.URL)
	}

	item := []string{
		strconv.Itoa(res.Row.ItemID),
		res.URL,
		strconv.Itoa(len(res.Bitstreams)),
		strconv.Itoa(res.DeletedBitstreams()),
	}
	tail := []string{
		string(res.ItemLicence()),
		string(res.Publisher),
		strings.Join(res.Grants.Warnings, join),
		strings.Join(grantRefs, join),
		strings.Join(grantURLs, join),
		strings.Join(res.Clean.Notes, join),
		strategy,
		strconv.FormatBool(unique),
		strings.Join(matchedIDs, join),
		strings.Join(res.Fields.Publisher, join),
		strings.Join(res.Fields.GrantNumber, join),
		strings.Join(res.Fields.Relation, join),
		strings.Join(res.Fields.Rights, join),
		strings.Join(res.Fields.Description, join),
		strings.Join(res.Fields.Title, join),
	}

	row := func(name, version, licence, deleted string) []string {
		out := make([]string, 0, len(Header))
		out = append(out, item...)
		out = append(out, name, version, licence, deleted)
		return append(out, tail...)
	}

	var rows [][]string
	for _, b := range res.Bitstreams {
		if b.Deleted {
			continue
		}
		licence := extract.FallbackLicence(res.ItemLicence(), b.DocVersion, res.Publisher)
		rows = append(rows, row(b.Name, string(b.DocVersion), string(licence), "false"))
	}
	if len(rows) == 0 {
		rows = append(rows, row("", "", "", ""))
	}
	return rows
}

// csvFile is a CSV report open for the duration of the batch.
type csvFile struct {
	f *os.File
	w *csv.Writer
}

func newCSVFile(path string) (*csvFile, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, err
	}
	f, err := os.Create(path)
	if err != nil {
		return nil, err
	}
	w := csv.NewWriter(f)
	if err := w.Write(Header); err != nil {
		f.Close()
		return nil, err
	}
	return &csvFile{f: f, w: w}, nil
}

func (c *csvFile) WriteRows(rows [][]string) error {
	for _, row := range rows {
		if err := c.w.Write(row); err != nil {
			return err
		}
	}
	c.w.Flush()
	return c.w.Error()
}

func (c *csvFile) Close() error {
	c.w.Flush()
	if err := c.w.Error(); err != nil {
		c.f.Close()
		return err
	}
	return c.f.Close()
}
