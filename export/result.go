package export

import (
	"github.com/grantj-re3/dspace-exportitems/dcxml"
	"github.com/grantj-re3/dspace-exportitems/extract"
	"github.com/grantj-re3/dspace-exportitems/match"
	"github.com/grantj-re3/dspace-exportitems/policy"
	"github.com/grantj-re3/dspace-exportitems/store"
)

// Result is the assembled outcome of one item's pipeline run. It feeds both
// the enriched XML record and the CSV rows.
type Result struct {
	Row *store.ItemRow
	URL string

	ItemPolicies  []policy.ItemPolicy
	ItemEmbargoes []policy.EmbargoStatus

	// Bundle is the ORIGINAL bundle's policy, when the item has one.
	Bundle        *policy.BundlePolicy
	BundleEmbargo policy.EmbargoStatus

	Bitstreams         []policy.BitstreamPolicy
	BitstreamEmbargoes []policy.EmbargoStatus

	Fields     *dcxml.Fields
	PackageXML []byte

	Licence   extract.LicenceResult
	Authority string
	Publisher extract.PublisherFlag
	Grants    extract.GrantResult

	Clean match.CleanResult
	Match *match.Result

	Keep       bool
	OmitReason string

	// Warnings not already carried by a sub-result (authority field,
	// handle verification).
	Warnings []string
}

// ItemLicence is the item-level licence: the authority field when present,
// otherwise the heuristically extracted code.
func (r *Result) ItemLicence() extract.Licence {
	if r.Authority != "" {
		return extract.Licence(r.Authority)
	}
	return r.Licence.Code
}

// DeletedBitstreams counts bitstreams flagged as deleted.
func (r *Result) DeletedBitstreams() int {
	var n int
	for _, b := range r.Bitstreams {
		if b.Deleted {
			n++
		}
	}
	return n
}

// WarningCount totals all diagnostics attached to the item.
func (r *Result) WarningCount() int {
	n := len(r.Warnings) + len(r.Grants.Warnings) + len(r.Clean.Notes)
	if r.Match != nil {
		n += len(r.Match.Discarded)
	}
	return n
}
