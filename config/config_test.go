package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadOverDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	doc := `
database: postgres://dspace@localhost/dspace?sslmode=disable
output_dir: /tmp/export
match_strategy: doi
doi_table: /data/doi-to-rmid.csv
funders: [ARC]
keep:
  withdrawn: false
`
	if err := os.WriteFile(path, []byte(doc), 0o644); err != nil {
		t.Fatal(err)
	}
	cfg, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.MatchStrategy != "doi" || cfg.DOITable != "/data/doi-to-rmid.csv" {
		t.Errorf("strategy not loaded: %+v", cfg)
	}
	// defaults survive
	if cfg.ValueSep != "||" || cfg.SubSep != "^" {
		t.Errorf("delimiter defaults lost: %q %q", cfg.ValueSep, cfg.SubSep)
	}
	if cfg.Lookup.PrefixWidth != 4 || cfg.Lookup.FilePrefix != "rm" {
		t.Errorf("lookup defaults lost: %+v", cfg.Lookup)
	}
	if len(cfg.Funders) != 1 || cfg.Funders[0] != "ARC" {
		t.Errorf("funders not overridden: %v", cfg.Funders)
	}
	if cfg.Keep.Withdrawn == nil || *cfg.Keep.Withdrawn {
		t.Errorf("keep criteria not loaded: %+v", cfg.Keep)
	}
}

func TestValidate(t *testing.T) {
	cfg := Default()
	cfg.Database = "postgres://x"
	cfg.KnownIDs = "/data/rmids.txt"
	if err := cfg.Validate(); err != nil {
		t.Errorf("valid config rejected: %v", err)
	}

	bad := Default()
	bad.Database = "postgres://x"
	bad.MatchStrategy = "fuzzy"
	if err := bad.Validate(); err == nil {
		t.Error("want error for unknown strategy")
	}

	noTable := Default()
	noTable.Database = "postgres://x"
	noTable.MatchStrategy = "doi"
	if err := noTable.Validate(); err == nil {
		t.Error("want error for doi strategy without table")
	}
}
