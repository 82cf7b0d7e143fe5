// Package export drives the per-item enrichment pipeline: fetch row, decode
// policies, evaluate embargoes, fetch and parse the external package, derive
// licence/publisher/grant information, match identifiers, classify, emit.
package export

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/grantj-re3/dspace-exportitems/config"
	"github.com/grantj-re3/dspace-exportitems/dcxml"
	"github.com/grantj-re3/dspace-exportitems/extract"
	"github.com/grantj-re3/dspace-exportitems/handle"
	"github.com/grantj-re3/dspace-exportitems/match"
	"github.com/grantj-re3/dspace-exportitems/policy"
	"github.com/grantj-re3/dspace-exportitems/store"
)

// ItemSource fetches the export row for one item.
type ItemSource interface {
	ItemByID(ctx context.Context, id int) (*store.ItemRow, error)
}

// PackageFetcher produces the per-item XML package and returns its path.
type PackageFetcher interface {
	Fetch(handle string) (string, error)
}

// Exporter processes items one at a time, in input order. All lookup tables
// are loaded before the batch and read-only afterwards; the reference date is
// fixed once so a run spanning midnight stays self-consistent.
type Exporter struct {
	Config     *config.Config
	Items      ItemSource
	Packages   PackageFetcher
	Matcher    match.Matcher
	Decoder    *policy.Decoder
	Publisher  *extract.PublisherDetector
	Grants     *extract.GrantExtractor
	Handles    *handle.Checker // nil unless handle verification is requested
	Exclusions map[string]bool
	RefDate    policy.Date
}

// New wires an Exporter from configuration and its collaborators.
func New(cfg *config.Config, items ItemSource, packages PackageFetcher, matcher match.Matcher) (*Exporter, error) {
	detector, err := extract.NewPublisherDetector(cfg.RestrictedPublisher)
	if err != nil {
		return nil, fmt.Errorf("restricted publisher pattern: %w", err)
	}
	return &Exporter{
		Config:   cfg,
		Items:    items,
		Packages: packages,
		Matcher:  matcher,
		Decoder: &policy.Decoder{
			ValueSep:      cfg.ValueSep,
			SubSep:        cfg.SubSep,
			AssetStore:    cfg.AssetStore,
			AssetStoreURL: cfg.AssetStoreURL,
		},
		Publisher:  detector,
		Grants:     extract.NewGrantExtractor(cfg.Funders),
		Exclusions: make(map[string]bool),
		RefDate:    policy.Today(),
	}, nil
}

// ProcessItem runs the full pipeline for a single item. Any error aborts
// only this item; the caller logs it and moves on.
func (e *Exporter) ProcessItem(ctx context.Context, id int) (*Result, error) {
	row, err := e.Items.ItemByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if row.Handle == "" {
		return nil, fmt.Errorf("item %d: no handle, cannot derive output path", id)
	}
	res := &Result{Row: row, URL: e.Config.HandleBaseURL + "/" + row.Handle}

	if res.ItemPolicies, err = e.Decoder.DecodeItemPolicies(row.ItemPolicies); err != nil {
		return nil, fmt.Errorf("item %d: %w", id, err)
	}
	bundles, err := e.Decoder.DecodeBundlePolicies(row.BundlePolicies)
	if err != nil {
		return nil, fmt.Errorf("item %d: %w", id, err)
	}
	if res.Bitstreams, err = e.Decoder.DecodeBitstreamPolicies(row.BitstreamPolicies); err != nil {
		return nil, fmt.Errorf("item %d: %w", id, err)
	}

	for _, p := range res.ItemPolicies {
		res.ItemEmbargoes = append(res.ItemEmbargoes, policy.EvaluateEmbargo(p.StartDate, e.RefDate))
	}
	if len(bundles) > 0 {
		res.Bundle = &bundles[0]
		res.BundleEmbargo = policy.EvaluateEmbargo(res.Bundle.StartDate, e.RefDate)
	}
	for _, b := range res.Bitstreams {
		res.BitstreamEmbargoes = append(res.BitstreamEmbargoes, policy.EvaluateEmbargo(b.StartDate, e.RefDate))
	}

	pkgPath, err := e.Packages.Fetch(row.Handle)
	if err != nil {
		return nil, fmt.Errorf("item %d: %w", id, err)
	}
	if res.PackageXML, err = os.ReadFile(pkgPath); err != nil {
		return nil, fmt.Errorf("item %d: read package: %w", id, err)
	}
	if res.Fields, err = dcxml.Parse(bytes.NewReader(res.PackageXML)); err != nil {
		return nil, fmt.Errorf("item %d: %w", id, err)
	}

	res.Licence = extract.ExtractLicence(res.Fields.Description, res.Fields.Rights)
	var authWarnings []string
	res.Authority, authWarnings = extract.ExtractLicenceAuthority(res.Fields.Licence)
	res.Warnings = append(res.Warnings, authWarnings...)
	res.Publisher = e.Publisher.Detect(res.Fields.Publisher, res.Fields.Description, res.Fields.Rights)
	res.Grants = e.Grants.Extract(res.Fields.Relation, res.Fields.GrantNumber)

	res.Clean = match.CleanIdentifiers(e.localIdentifiers(res.Fields))
	if res.Match, err = e.Matcher.Match(res.Clean.IDs); err != nil {
		return nil, fmt.Errorf("item %d: %w", id, err)
	}

	e.classify(res)
	return res, nil
}

// localIdentifiers picks the identifier field matching the configured
// strategy: DOIs for doi lookup, RMIDs for direct matching.
func (e *Exporter) localIdentifiers(fields *dcxml.Fields) []string {
	if e.Matcher.Name() == "doi" {
		return fields.DOI
	}
	return fields.RMID
}

// classify marks an item kept or omitted. Items on the exclusion list or
// with an archival-status flag differing from its required value are omitted;
// both still produce output, just under the omitted tree.
func (e *Exporter) classify(res *Result) {
	row := res.Row
	if e.Exclusions[row.Handle] || e.Exclusions[strconv.Itoa(row.ItemID)] {
		res.OmitReason = "on exclusion list"
		return
	}
	keep := e.Config.Keep
	switch {
	case keep.InArchive != nil && row.InArchive != *keep.InArchive:
		res.OmitReason = fmt.Sprintf("in_archive=%v", row.InArchive)
	case keep.Withdrawn != nil && row.Withdrawn != *keep.Withdrawn:
		res.OmitReason = fmt.Sprintf("withdrawn=%v", row.Withdrawn)
	case keep.Discoverable != nil && row.Discoverable != *keep.Discoverable:
		res.OmitReason = fmt.Sprintf("discoverable=%v", row.Discoverable)
	default:
		res.Keep = true
	}
}

// Run processes the id list sequentially and writes all outputs. A failed
// item is logged and counted; the batch continues with the next item.
func (e *Exporter) Run(ctx context.Context, ids []int) (*Summary, error) {
	summary := &Summary{
		ReferenceDate: e.RefDate.String(),
		Started:       time.Now(),
	}
	kept, err := newCSVFile(filepath.Join(e.Config.OutputDir, "kept.csv"))
	if err != nil {
		return nil, err
	}
	defer kept.Close()
	omitted, err := newCSVFile(filepath.Join(e.Config.OutputDir, "omitted.csv"))
	if err != nil {
		return nil, err
	}
	defer omitted.Close()

	for _, id := range ids {
		itemLog := log.WithField("item", id)
		res, err := e.ProcessItem(ctx, id)
		if err != nil {
			itemLog.WithError(err).Error("item failed, continuing batch")
			summary.record(ItemOutcome{ItemID: id, Status: StatusFailed, Error: err.Error()})
			continue
		}
		itemLog = itemLog.WithField("handle", res.Row.Handle)

		if e.Handles != nil {
			if err := e.Handles.Verify(res.Row.Handle); err != nil {
				res.Warnings = append(res.Warnings, err.Error())
				itemLog.WithError(err).Warn("handle did not resolve")
			}
		}

		if err := e.emit(res, kept, omitted); err != nil {
			itemLog.WithError(err).Error("emit failed, continuing batch")
			summary.record(ItemOutcome{ItemID: id, Handle: res.Row.Handle, Status: StatusFailed, Error: err.Error()})
			continue
		}

		outcome := ItemOutcome{
			ItemID:   id,
			Handle:   res.Row.Handle,
			Warnings: res.WarningCount(),
		}
		if res.Keep {
			outcome.Status = StatusKept
			itemLog.WithField("warnings", outcome.Warnings).Info("item exported")
		} else {
			outcome.Status = StatusOmitted
			outcome.Reason = res.OmitReason
			itemLog.WithField("reason", res.OmitReason).Info("item omitted")
		}
		summary.record(outcome)
	}

	summary.Finished = time.Now()
	if err := summary.Write(filepath.Join(e.Config.OutputDir, "summary.json")); err != nil {
		return summary, err
	}
	return summary, nil
}

// emit writes the enriched record and the CSV rows for one item.
func (e *Exporter) emit(res *Result, kept, omitted *csvFile) error {
	subdir := "omitted"
	w := omitted
	if res.Keep {
		subdir = "kept"
		w = kept
	}
	path := recordPath(e.Config.OutputDir, subdir, res.Row.Handle, e.Config.Compress)
	if err := WriteRecord(res, path, e.Config.Compress); err != nil {
		return err
	}
	return w.WriteRows(Rows(res, e.Config.CSVJoin))
}
