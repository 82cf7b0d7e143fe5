// CLI to export enriched per-item metadata records from a DSpace repository,
// plus CSV review reports for a downstream research information system.
//
// $ exportitems -c exportitems.yaml 1234 1235 1236
package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"os"
	"strconv"
	"strings"

	log "github.com/sirupsen/logrus"

	exportitems "github.com/grantj-re3/dspace-exportitems"
	"github.com/grantj-re3/dspace-exportitems/config"
	"github.com/grantj-re3/dspace-exportitems/export"
	"github.com/grantj-re3/dspace-exportitems/handle"
	"github.com/grantj-re3/dspace-exportitems/match"
	"github.com/grantj-re3/dspace-exportitems/packager"
	"github.com/grantj-re3/dspace-exportitems/store"
)

var (
	configPath    = flag.String("c", "exportitems.yaml", "path to configuration file")
	outputDir     = flag.String("o", "", "output directory (overrides config)")
	idFile        = flag.String("i", "", "file with item ids, one per line")
	force         = flag.Bool("f", false, "re-run the packaging tool even when a cached package exists")
	verifyHandles = flag.Bool("H", false, "verify that item handles resolve (advisory)")
	showVersion   = flag.Bool("version", false, "show version")
)

var help = `exportitems writes one enriched XML record per repository item 📦

Per item: decode access policies, evaluate embargoes, fetch the external
package, derive licence/publisher/grant info, match identifiers against the
research information system, then emit the record plus CSV review rows.

Examples:

    $ exportitems -c exportitems.yaml 1234 1235
    $ exportitems -c exportitems.yaml -i itemids.txt -H

Usage:

`

func main() {
	flag.Usage = func() {
		fmt.Fprint(os.Stderr, help)
		flag.PrintDefaults()
	}
	flag.Parse()
	if *showVersion {
		fmt.Println(exportitems.Version)
		os.Exit(0)
	}
	ids, err := itemIDs(*idFile, flag.Args())
	if err != nil {
		log.Fatal(err)
	}
	if len(ids) == 0 {
		log.Fatal("no item ids given, use -i or arguments")
	}
	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatal(err)
	}
	if *outputDir != "" {
		cfg.OutputDir = *outputDir
	}
	if *force {
		cfg.Force = true
	}

	s, err := store.Open(cfg.Database)
	if err != nil {
		log.Fatal(err)
	}
	defer s.Close()

	fetcher := &packager.Fetcher{
		Tool:     cfg.Packager.Tool,
		Template: cfg.Packager.Template,
		CacheDir: cfg.CacheDir,
		Force:    cfg.Force,
	}
	if err := fetcher.CheckTool(); err != nil {
		log.Fatal(err)
	}

	matcher, err := setupMatcher(cfg)
	if err != nil {
		log.Fatal(err)
	}

	exporter, err := export.New(cfg, s, fetcher, matcher)
	if err != nil {
		log.Fatal(err)
	}
	if cfg.Exclusions != "" {
		if exporter.Exclusions, err = match.LoadIDSet(cfg.Exclusions); err != nil {
			log.Fatalf("exclusion list: %v", err)
		}
	}
	if *verifyHandles {
		exporter.Handles = handle.NewChecker(cfg.HandleBaseURL)
	}

	log.WithFields(log.Fields{
		"items":     len(ids),
		"strategy":  matcher.Name(),
		"reference": exporter.RefDate.String(),
	}).Info("starting export batch")

	summary, err := exporter.Run(context.Background(), ids)
	if err != nil {
		log.Fatal(err)
	}
	log.WithFields(log.Fields{
		"kept":    summary.Kept,
		"omitted": summary.Omitted,
		"failed":  summary.Failed,
	}).Info("export batch done")
	if summary.Failed > 0 {
		os.Exit(1)
	}
}

func setupMatcher(cfg *config.Config) (match.Matcher, error) {
	fileStore := &match.FileStore{
		Dir:         cfg.Lookup.Dir,
		PrefixWidth: cfg.Lookup.PrefixWidth,
		FilePrefix:  cfg.Lookup.FilePrefix,
		Ext:         cfg.Lookup.Ext,
	}
	switch cfg.MatchStrategy {
	case "doi":
		table, err := match.LoadDOITable(cfg.DOITable)
		if err != nil {
			return nil, err
		}
		return match.Select("doi", table, nil, fileStore)
	default:
		known, err := match.LoadIDSet(cfg.KnownIDs)
		if err != nil {
			return nil, fmt.Errorf("known ids: %w", err)
		}
		return match.Select("direct", nil, known, fileStore)
	}
}

func itemIDs(path string, args []string) ([]int, error) {
	var raw []string
	if path != "" {
		f, err := os.Open(path)
		if err != nil {
			return nil, err
		}
		defer f.Close()
		scanner := bufio.NewScanner(f)
		for scanner.Scan() {
			raw = append(raw, scanner.Text())
		}
		if err := scanner.Err(); err != nil {
			return nil, err
		}
	}
	raw = append(raw, args...)
	var ids []int
	for _, s := range raw {
		s = strings.TrimSpace(s)
		if s == "" || strings.HasPrefix(s, "#") {
			continue
		}
		id, err := strconv.Atoi(s)
		if err != nil {
			return nil, fmt.Errorf("bad item id %q", s)
		}
		ids = append(ids, id)
	}
	return ids, nil
}
