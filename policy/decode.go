// Package policy decodes the packed access-policy strings returned by the
// repository database and evaluates their embargo dates.
//
// Each packed string is a multi-value list: entries separated by a value
// separator, subfields within an entry separated by a subfield separator.
// The subfield layout is positional with a fixed arity per entity type.
package policy

import (
	"fmt"
	"path"
	"strconv"
	"strings"
)

// Action is a resource policy action id.
type Action int

// Action ids we accept on read policies. Anything else on an exported item
// means our assumptions about the access control model no longer hold, so
// decoding fails hard for that item.
const (
	ActionRead          Action = 0
	ActionWithdrawnRead Action = 12
)

// DummyID is the sentinel used by the export query for NULL ids.
const DummyID = -1

const (
	itemArity      = 4
	bundleArity    = 5
	bitstreamArity = 11
)

// DocVersion classifies a bitstream by the manuscript version its file
// description suggests.
type DocVersion string

const (
	DocVersionAuthor    DocVersion = "author"
	DocVersionPublisher DocVersion = "publisher"
	DocVersionUnknown   DocVersion = "unknown"
)

// ClassifyDocVersion derives a coarse document version from a free-text file
// description.
func ClassifyDocVersion(description string) DocVersion {
	s := strings.ToLower(description)
	switch {
	case strings.Contains(s, "author"):
		return DocVersionAuthor
	case strings.Contains(s, "publish"):
		return DocVersionPublisher
	default:
		return DocVersionUnknown
	}
}

// ActionError reports a policy action id outside the allowed set. It aborts
// processing of the owning item.
type ActionError struct {
	Entity     string
	ResourceID int
	Action     Action
}

func (e *ActionError) Error() string {
	return fmt.Sprintf("action id %d not allowed for %s policy on resource %d",
		e.Action, e.Entity, e.ResourceID)
}

// ItemPolicy is one decoded item-level read policy.
type ItemPolicy struct {
	ResourceID int
	PolicyID   int
	Action     Action
	StartDate  *Date
}

// BundlePolicy is one decoded bundle-level read policy.
type BundlePolicy struct {
	ItemPolicy
	Title string
}

// BitstreamPolicy is one decoded bitstream-level read policy plus the
// bitstream attributes carried alongside it.
type BitstreamPolicy struct {
	ItemPolicy
	Deleted     bool
	SequenceID  int
	SizeBytes   int64
	InternalID  string
	Name        string
	Description string
	MimeType    string

	// Derived, not part of the packed format.
	AssetPath  string
	AssetURL   string
	DocVersion DocVersion
}

// Decoder splits packed policy strings into typed records.
type Decoder struct {
	ValueSep      string // between policy entries
	SubSep        string // between subfields of one entry
	AssetStore    string // asset store root for bitstream file paths
	AssetStoreURL string // public mirror of the asset store, optional
}

func (d *Decoder) split(packed, entity string, arity int) ([][]string, error) {
	if strings.TrimSpace(packed) == "" {
		return nil, nil
	}
	var out [][]string
	for _, entry := range strings.Split(packed, d.ValueSep) {
		fields := strings.Split(entry, d.SubSep)
		if len(fields) != arity {
			return nil, fmt.Errorf("malformed %s policy entry: want %d subfields, got %d", entity, arity, len(fields))
		}
		out = append(out, fields)
	}
	return out, nil
}

func decodeCommon(fields []string, entity string) (ItemPolicy, error) {
	var p ItemPolicy
	var err error
	if p.ResourceID, err = atoiSentinel(fields[0]); err != nil {
		return p, fmt.Errorf("%s policy resource id: %w", entity, err)
	}
	if p.PolicyID, err = atoiSentinel(fields[1]); err != nil {
		return p, fmt.Errorf("%s policy id: %w", entity, err)
	}
	action, err := atoiSentinel(fields[2])
	if err != nil {
		return p, fmt.Errorf("%s policy action id: %w", entity, err)
	}
	p.Action = Action(action)
	if p.Action != ActionRead && p.Action != ActionWithdrawnRead {
		return p, &ActionError{Entity: entity, ResourceID: p.ResourceID, Action: p.Action}
	}
	if p.StartDate, err = ParseDate(fields[3]); err != nil {
		return p, fmt.Errorf("%s policy start date: %w", entity, err)
	}
	return p, nil
}

// atoiSentinel parses an integer subfield. The export query substitutes the
// dummy sentinel for NULL, so an empty subfield is also mapped to it.
func atoiSentinel(s string) (int, error) {
	if s == "" {
		return DummyID, nil
	}
	return strconv.Atoi(s)
}

// DecodeItemPolicies decodes the packed item-level policy string.
func (d *Decoder) DecodeItemPolicies(packed string) ([]ItemPolicy, error) {
	entries, err := d.split(packed, "item", itemArity)
	if err != nil {
		return nil, err
	}
	var out []ItemPolicy
	for _, fields := range entries {
		p, err := decodeCommon(fields, "item")
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, nil
}

// DecodeBundlePolicies decodes the packed bundle-level policy string. Items
// without an ORIGINAL bundle yield a nil slice.
func (d *Decoder) DecodeBundlePolicies(packed string) ([]BundlePolicy, error) {
	entries, err := d.split(packed, "bundle", bundleArity)
	if err != nil {
		return nil, err
	}
	var out []BundlePolicy
	for _, fields := range entries {
		common, err := decodeCommon(fields, "bundle")
		if err != nil {
			return nil, err
		}
		out = append(out, BundlePolicy{ItemPolicy: common, Title: fields[4]})
	}
	return out, nil
}

// DecodeBitstreamPolicies decodes the packed bitstream-level policy string
// and derives the asset store location and document version for each
// bitstream. Deleted bitstreams, and bitstreams whose internal storage id is
// gone from the database, carry no asset location.
func (d *Decoder) DecodeBitstreamPolicies(packed string) ([]BitstreamPolicy, error) {
	entries, err := d.split(packed, "bitstream", bitstreamArity)
	if err != nil {
		return nil, err
	}
	var out []BitstreamPolicy
	for _, fields := range entries {
		common, err := decodeCommon(fields, "bitstream")
		if err != nil {
			return nil, err
		}
		p := BitstreamPolicy{
			ItemPolicy:  common,
			Deleted:     fields[4] == "t" || fields[4] == "true",
			InternalID:  fields[7],
			Name:        fields[8],
			Description: fields[9],
			MimeType:    fields[10],
		}
		if p.SequenceID, err = atoiSentinel(fields[5]); err != nil {
			return nil, fmt.Errorf("bitstream sequence id: %w", err)
		}
		if fields[6] != "" {
			if p.SizeBytes, err = strconv.ParseInt(fields[6], 10, 64); err != nil {
				return nil, fmt.Errorf("bitstream size: %w", err)
			}
		}
		if !p.Deleted && p.InternalID != "" {
			if p.AssetPath, err = d.assetPath(p.InternalID); err != nil {
				return nil, err
			}
			if d.AssetStoreURL != "" {
				p.AssetURL = d.assetURL(p.InternalID)
			}
		}
		p.DocVersion = ClassifyDocVersion(p.Description)
		out = append(out, p)
	}
	return out, nil
}

// assetPath maps a bitstream internal storage id to its on-disk location:
// the first six digits become three nested two-character directories under
// the asset store root.
func (d *Decoder) assetPath(internalID string) (string, error) {
	if len(internalID) < 6 {
		return "", fmt.Errorf("internal id %q too short for asset path", internalID)
	}
	return path.Join(d.AssetStore, internalID[0:2], internalID[2:4], internalID[4:6], internalID), nil
}

// assetURL mirrors assetPath on the public asset store URL. Callers must have
// validated the internal id via assetPath first.
func (d *Decoder) assetURL(internalID string) string {
	return strings.TrimSuffix(d.AssetStoreURL, "/") + "/" +
		strings.Join([]string{internalID[0:2], internalID[2:4], internalID[4:6], internalID}, "/")
}

// Encode functions below re-pack decoded records. They exist so the packed
// format has an explicit inverse; the exporter itself only decodes.

func (d *Decoder) encodeCommon(p ItemPolicy) []string {
	start := ""
	if p.StartDate != nil {
		start = p.StartDate.String()
	}
	return []string{
		strconv.Itoa(p.ResourceID),
		strconv.Itoa(p.PolicyID),
		strconv.Itoa(int(p.Action)),
		start,
	}
}

// EncodeItemPolicies re-packs item policies into the packed wire form.
func (d *Decoder) EncodeItemPolicies(ps []ItemPolicy) string {
	var entries []string
	for _, p := range ps {
		entries = append(entries, strings.Join(d.encodeCommon(p), d.SubSep))
	}
	return strings.Join(entries, d.ValueSep)
}

// EncodeBundlePolicies re-packs bundle policies into the packed wire form.
func (d *Decoder) EncodeBundlePolicies(ps []BundlePolicy) string {
	var entries []string
	for _, p := range ps {
		fields := append(d.encodeCommon(p.ItemPolicy), p.Title)
		entries = append(entries, strings.Join(fields, d.SubSep))
	}
	return strings.Join(entries, d.ValueSep)
}

// EncodeBitstreamPolicies re-packs bitstream policies into the packed wire
// form. Derived attributes (asset path, document version) are not part of the
// format and are dropped.
func (d *Decoder) EncodeBitstreamPolicies(ps []BitstreamPolicy) string {
	var entries []string
	for _, p := range ps {
		deleted := "f"
		if p.Deleted {
			deleted = "t"
		}
		fields := append(d.encodeCommon(p.ItemPolicy),
			deleted,
			strconv.Itoa(p.SequenceID),
			strconv.FormatInt(p.SizeBytes, 10),
			p.InternalID,
			p.Name,
			p.Description,
			p.MimeType,
		)
		entries = append(entries, strings.Join(fields, d.SubSep))
	}
	return strings.Join(entries, d.ValueSep)
}
