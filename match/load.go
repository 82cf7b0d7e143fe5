package match

import (
	"bufio"
	"encoding/csv"
	"fmt"
	"os"
	"strings"
)

// LoadDOITable reads a two-column CSV mapping DOIs to external identifiers.
// Lines starting with # are skipped. The table is loaded once before the
// batch and treated as read-only afterwards.
func LoadDOITable(path string) (map[string]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("doi table: %w", err)
	}
	defer f.Close()
	r := csv.NewReader(f)
	r.FieldsPerRecord = 2
	r.Comment = '#'
	records, err := r.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("doi table %s: %w", path, err)
	}
	table := make(map[string]string, len(records))
	for _, rec := range records {
		doi := strings.TrimSpace(rec[0])
		ext := strings.TrimSpace(rec[1])
		if doi == "" || ext == "" {
			continue
		}
		table[doi] = ext
	}
	return table, nil
}

// LoadIDSet reads a set of identifiers, one per line, # comments and blank
// lines ignored. Used for the direct-match known-id set and the exclusion
// list.
func LoadIDSet(path string) (map[string]bool, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	set := make(map[string]bool)
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		set[line] = true
	}
	return set, scanner.Err()
}
