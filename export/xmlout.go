package export

import (
	"encoding/xml"
	"io"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/klauspost/compress/zstd"

	"github.com/grantj-re3/dspace-exportitems/atomicfile"
	"github.com/grantj-re3/dspace-exportitems/policy"
)

type xmlEmbargo struct {
	ResourceID int    `xml:"resource_id,attr"`
	PolicyID   int    `xml:"policy_id,attr"`
	ActionID   int    `xml:"action_id,attr"`
	StartDate  string `xml:"start_date,attr,omitempty"`
	HasEmbargo bool   `xml:"has_embargo,attr"`
	LiftDate   string `xml:"lift_date,attr,omitempty"`
}

type xmlBitstream struct {
	xmlEmbargo
	Name       string `xml:"name,attr"`
	SequenceID int    `xml:"sequence_id,attr"`
	SizeBytes  int64  `xml:"size_bytes,attr"`
	Deleted    bool   `xml:"deleted,attr"`
	DocVersion string `xml:"doc_version,attr"`
	MimeType   string `xml:"mime_type,attr,omitempty"`
	AssetPath  string `xml:"asset_path,attr,omitempty"`
	AssetURL   string `xml:"asset_url,attr,omitempty"`
}

type xmlBundle struct {
	Title string `xml:"title,attr"`
	xmlEmbargo
	Bitstreams []xmlBitstream `xml:"bitstream"`
}

type xmlMatch struct {
	ExternalID string   `xml:"external_id,attr"`
	UUID       string   `xml:"uuid,attr"`
	PureID     int64    `xml:"pure_id,attr"`
	LocalIDs   []string `xml:"local_id"`
}

type xmlMatches struct {
	Strategy string     `xml:"strategy,attr"`
	Total    int        `xml:"total,attr"`
	Unique   bool       `xml:"unique,attr"`
	Matches  []xmlMatch `xml:"match"`
}

type xmlPackage struct {
	Inner []byte `xml:",innerxml"`
}

type xmlRecord struct {
	XMLName        xml.Name     `xml:"item"`
	ID             int          `xml:"id,attr"`
	Handle         string       `xml:"handle,attr"`
	URL            string       `xml:"url,attr"`
	InArchive      bool         `xml:"in_archive,attr"`
	Withdrawn      bool         `xml:"withdrawn,attr"`
	Discoverable   bool         `xml:"discoverable,attr"`
	Classification string       `xml:"classification,attr"`
	OmitReason     string       `xml:"omit_reason,attr,omitempty"`
	Embargoes      []xmlEmbargo `xml:"embargo"`
	Bundle         *xmlBundle   `xml:"bundle"`
	Matches        xmlMatches   `xml:"matches"`
	Package        xmlPackage   `xml:"package"`
}

func embargoXML(p policy.ItemPolicy, s policy.EmbargoStatus) xmlEmbargo {
	e := xmlEmbargo{
		ResourceID: p.ResourceID,
		PolicyID:   p.PolicyID,
		ActionID:   int(p.Action),
		HasEmbargo: s.HasEmbargo,
	}
	if p.StartDate != nil {
		e.StartDate = p.StartDate.String()
	}
	if s.LiftDate != nil {
		e.LiftDate = s.LiftDate.String()
	}
	return e
}

// xmlDeclRe strips the declaration from the package document so it can be
// grafted into the record as a subtree.
var xmlDeclRe = regexp.MustCompile(`(?s)^\s*<\?xml[^?]*\?>\s*`)

func buildRecord(res *Result) *xmlRecord {
	rec := &xmlRecord{
		ID:           res.Row.ItemID,
		Handle:       res.Row.Handle,
		URL:          res.URL,
		InArchive:    res.Row.InArchive,
		Withdrawn:    res.Row.Withdrawn,
		Discoverable: res.Row.Discoverable,
		OmitReason:   res.OmitReason,
		Package:      xmlPackage{Inner: xmlDeclRe.ReplaceAll(res.PackageXML, nil)},
	}
	if res.Keep {
		rec.Classification = "kept"
	} else {
		rec.Classification = "omitted"
	}
	for i, p := range res.ItemPolicies {
		rec.Embargoes = append(rec.Embargoes, embargoXML(p, res.ItemEmbargoes[i]))
	}
	if res.Bundle != nil {
		b := &xmlBundle{
			Title:      res.Bundle.Title,
			xmlEmbargo: embargoXML(res.Bundle.ItemPolicy, res.BundleEmbargo),
		}
		for i, bs := range res.Bitstreams {
			b.Bitstreams = append(b.Bitstreams, xmlBitstream{
				xmlEmbargo: embargoXML(bs.ItemPolicy, res.BitstreamEmbargoes[i]),
				Name:       bs.Name,
				SequenceID: bs.SequenceID,
				SizeBytes:  bs.SizeBytes,
				Deleted:    bs.Deleted,
				DocVersion: string(bs.DocVersion),
				MimeType:   bs.MimeType,
				AssetPath:  bs.AssetPath,
				AssetURL:   bs.AssetURL,
			})
		}
		rec.Bundle = b
	}
	if res.Match != nil {
		rec.Matches.Strategy = res.Match.Strategy
		rec.Matches.Total = len(res.Match.Matches)
		rec.Matches.Unique = res.Match.Unique
		for _, m := range res.Match.Matches {
			rec.Matches.Matches = append(rec.Matches.Matches, xmlMatch{
				ExternalID: m.ExternalID,
				UUID:       m.Record.UUID,
				PureID:     m.Record.PureID,
				LocalIDs:   m.LocalIDs,
			})
		}
	}
	return rec
}

// recordPath derives the enriched record location from the item handle,
// slashes replaced with underscores.
func recordPath(outDir, subdir, handle string, compress bool) string {
	name := strings.ReplaceAll(handle, "/", "_") + ".xml"
	if compress {
		name += ".zst"
	}
	return filepath.Join(outDir, subdir, name)
}

// WriteRecord marshals the enriched record and writes it atomically,
// optionally zstd-compressed.
func WriteRecord(res *Result, path string, compress bool) error {
	b, err := xml.MarshalIndent(buildRecord(res), "", "  ")
	if err != nil {
		return err
	}
	f, err := atomicfile.New(path)
	if err != nil {
		return err
	}
	var w io.Writer = f
	var enc *zstd.Encoder
	if compress {
		if enc, err = zstd.NewWriter(f); err != nil {
			f.Abort()
			return err
		}
		w = enc
	}
	if _, err := w.Write(append([]byte(xml.Header), b...)); err != nil {
		f.Abort()
		return err
	}
	if enc != nil {
		if err := enc.Close(); err != nil {
			f.Abort()
			return err
		}
	}
	return f.Close()
}
