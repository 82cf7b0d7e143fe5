package match

import (
	"encoding/xml"
	"fmt"
	"os"
	"path/filepath"

	"github.com/google/uuid"
)

// ExternalRecord is one record in the external research-information system,
// as read from its per-identifier lookup file.
type ExternalRecord struct {
	UUID       string   `xml:"uuid"`
	ExternalID string   `xml:"external-id"`
	PureID     int64    `xml:"pure-id"`
	DOI        string   `xml:"doi"`
	AuxIDs     []string `xml:"aux-id"`
}

// FileStore resolves external records from one XML file per identifier. The
// directory is a fixed-width prefix of the identifier, the filename a
// configured prefix plus the identifier plus a configured extension.
type FileStore struct {
	Dir         string
	PrefixWidth int
	FilePrefix  string
	Ext         string
}

// Path returns the lookup file path for an identifier.
func (s *FileStore) Path(id string) string {
	prefix := id
	if len(id) > s.PrefixWidth {
		prefix = id[:s.PrefixWidth]
	}
	return filepath.Join(s.Dir, prefix, s.FilePrefix+id+s.Ext)
}

// Lookup reads and validates the external record for an identifier.
func (s *FileStore) Lookup(id string) (*ExternalRecord, error) {
	b, err := os.ReadFile(s.Path(id))
	if err != nil {
		return nil, fmt.Errorf("lookup %s: %w", id, err)
	}
	var rec ExternalRecord
	if err := xml.Unmarshal(b, &rec); err != nil {
		return nil, fmt.Errorf("lookup %s: %w", id, err)
	}
	if _, err := uuid.Parse(rec.UUID); err != nil {
		return nil, fmt.Errorf("lookup %s: bad uuid %q: %w", id, rec.UUID, err)
	}
	return &rec, nil
}
