// Package config holds the run configuration for the export tools. All
// values are fixed before the batch starts; nothing here changes mid-run.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/adrg/xdg"
	"gopkg.in/yaml.v3"
)

// KeepCriteria lists the archival-status flag values an item must carry to be
// classified as kept. A nil field means the flag is not checked.
type KeepCriteria struct {
	InArchive    *bool `yaml:"in_archive"`
	Withdrawn    *bool `yaml:"withdrawn"`
	Discoverable *bool `yaml:"discoverable"`
}

// Lookup describes the on-disk layout of the per-identifier external lookup
// files.
type Lookup struct {
	Dir         string `yaml:"dir"`
	PrefixWidth int    `yaml:"prefix_width"`
	FilePrefix  string `yaml:"file_prefix"`
	Ext         string `yaml:"ext"`
}

// Packager describes the external packaging tool.
type Packager struct {
	// Tool is the executable name, checked with LookPath before the run.
	Tool string `yaml:"tool"`
	// Template is the command template; {id} and {output} are substituted.
	Template string `yaml:"template"`
}

// Config is the full configuration surface of one export run.
type Config struct {
	// Database is the connection string for the repository database.
	Database string `yaml:"database"`
	// OutputDir receives the kept/ and omitted/ record trees and CSVs.
	OutputDir string `yaml:"output_dir"`
	// CacheDir holds fetched external packages between runs.
	CacheDir string `yaml:"cache_dir"`

	// ValueSep separates entries in packed policy strings, SubSep separates
	// subfields within one entry.
	ValueSep string `yaml:"value_sep"`
	SubSep   string `yaml:"sub_sep"`
	// CSVJoin joins multi-value field dumps into one CSV cell.
	CSVJoin string `yaml:"csv_join"`

	AssetStore    string `yaml:"asset_store"`
	AssetStoreURL string `yaml:"asset_store_url"`
	HandleBaseURL string `yaml:"handle_base_url"`

	// MatchStrategy selects identifier matching: "direct" or "doi".
	MatchStrategy string `yaml:"match_strategy"`
	DOITable      string `yaml:"doi_table"`
	KnownIDs      string `yaml:"known_ids"`
	Lookup        Lookup `yaml:"lookup"`

	Funders             []string `yaml:"funders"`
	RestrictedPublisher string   `yaml:"restricted_publisher"`

	Exclusions string       `yaml:"exclusions"`
	Keep       KeepCriteria `yaml:"keep"`
	Packager   Packager     `yaml:"packager"`

	// Force re-runs the packaging tool even when a cached package exists.
	Force bool `yaml:"force"`
	// Compress writes enriched records as .xml.zst instead of .xml.
	Compress bool `yaml:"compress"`
}

func boolPtr(b bool) *bool { return &b }

// Default returns the configuration with all defaults applied.
func Default() *Config {
	return &Config{
		OutputDir:     "export",
		CacheDir:      filepath.Join(xdg.CacheHome, "exportitems", "packages"),
		ValueSep:      "||",
		SubSep:        "^",
		CSVJoin:       "|",
		AssetStore:    "/var/dspace/assetstore",
		HandleBaseURL: "https://hdl.handle.net",
		MatchStrategy: "direct",
		Lookup: Lookup{
			PrefixWidth: 4,
			FilePrefix:  "rm",
			Ext:         ".xml",
		},
		Funders:             []string{"ARC", "NHMRC"},
		RestrictedPublisher: `(?i)\belsevier\b`,
		Keep: KeepCriteria{
			InArchive:    boolPtr(true),
			Withdrawn:    boolPtr(false),
			Discoverable: boolPtr(true),
		},
		Packager: Packager{
			Tool:     "dspace-packager",
			Template: "dspace-packager -t AIP -i {id} -o {output}",
		},
	}
}

// Load reads a YAML config file over the defaults.
func Load(path string) (*Config, error) {
	cfg := Default()
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	if err := yaml.Unmarshal(b, cfg); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks the parts of the configuration that would otherwise fail
// deep inside the batch.
func (c *Config) Validate() error {
	switch c.MatchStrategy {
	case "direct", "doi":
	default:
		return fmt.Errorf("unknown match strategy %q", c.MatchStrategy)
	}
	if c.MatchStrategy == "doi" && c.DOITable == "" {
		return fmt.Errorf("doi match strategy needs a doi_table")
	}
	if c.MatchStrategy == "direct" && c.KnownIDs == "" {
		return fmt.Errorf("direct match strategy needs a known_ids file")
	}
	if c.ValueSep == "" || c.SubSep == "" {
		return fmt.Errorf("value_sep and sub_sep must not be empty")
	}
	if c.Database == "" {
		return fmt.Errorf("database connection string missing")
	}
	return nil
}
