// Package store reads item rows from the repository database. One query per
// item returns the handle, archival-status flags and the three packed policy
// strings; everything else comes from the external package.
package store

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
)

// ItemRow is the single row the export query returns per item.
type ItemRow struct {
	ItemID            int    `db:"item_id"`
	Handle            string `db:"handle"`
	InArchive         bool   `db:"in_archive"`
	Withdrawn         bool   `db:"withdrawn"`
	Discoverable      bool   `db:"discoverable"`
	ItemPolicies      string `db:"item_policies"`
	BundlePolicies    string `db:"bundle_policies"`
	BitstreamPolicies string `db:"bitstream_policies"`
}

// itemQuery aggregates the read policies of the item, its ORIGINAL bundle and
// that bundle's bitstreams into packed strings. NULL ids are replaced with
// the -1 sentinel so decoding stays total.
const itemQuery = `
WITH item_pol AS (
  SELECT rp.dspace_object_id,
         string_agg(
           COALESCE(i2.item_id::text, '-1') || '^' ||
           COALESCE(rp.policy_id::text, '-1') || '^' ||
           COALESCE(rp.action_id::text, '-1') || '^' ||
           COALESCE(to_char(rp.start_date, 'YYYY-MM-DD'), ''),
           '||' ORDER BY rp.policy_id)
           AS packed
  FROM resourcepolicy rp
  JOIN item_id_map i2 ON i2.uuid = rp.dspace_object_id
  GROUP BY rp.dspace_object_id
),
bundle_pol AS (
  SELECT b.item_id,
         string_agg(
           COALESCE(b.bundle_id::text, '-1') || '^' ||
           COALESCE(rp.policy_id::text, '-1') || '^' ||
           COALESCE(rp.action_id::text, '-1') || '^' ||
           COALESCE(to_char(rp.start_date, 'YYYY-MM-DD'), '') || '^' ||
           b.name,
           '||' ORDER BY rp.policy_id)
           AS packed
  FROM bundle_view b
  JOIN resourcepolicy rp ON rp.dspace_object_id = b.uuid
  WHERE b.name = 'ORIGINAL'
  GROUP BY b.item_id
),
bitstream_pol AS (
  SELECT bs.item_id,
         string_agg(
           COALESCE(bs.bitstream_id::text, '-1') || '^' ||
           COALESCE(rp.policy_id::text, '-1') || '^' ||
           COALESCE(rp.action_id::text, '-1') || '^' ||
           COALESCE(to_char(rp.start_date, 'YYYY-MM-DD'), '') || '^' ||
           CASE WHEN bs.deleted THEN 't' ELSE 'f' END || '^' ||
           COALESCE(bs.sequence_id::text, '-1') || '^' ||
           COALESCE(bs.size_bytes::text, '0') || '^' ||
           COALESCE(bs.internal_id, '') || '^' ||
           COALESCE(bs.name, '') || '^' ||
           COALESCE(bs.description, '') || '^' ||
           COALESCE(bs.mimetype, ''),
           '||' ORDER BY bs.sequence_id)
           AS packed
  FROM bitstream_view bs
  JOIN resourcepolicy rp ON rp.dspace_object_id = bs.uuid
  GROUP BY bs.item_id
)
SELECT i.item_id,
       h.handle,
       i.in_archive,
       i.withdrawn,
       i.discoverable,
       COALESCE(ip.packed, '') AS item_policies,
       COALESCE(bp.packed, '') AS bundle_policies,
       COALESCE(sp.packed, '') AS bitstream_policies
FROM item_view i
JOIN handle h ON h.resource_id = i.uuid
LEFT JOIN item_pol ip ON ip.dspace_object_id = i.uuid
LEFT JOIN bundle_pol bp ON bp.item_id = i.item_id
LEFT JOIN bitstream_pol sp ON sp.item_id = i.item_id
WHERE i.item_id = $1`

// Store wraps the repository database connection.
type Store struct {
	db *sqlx.DB
}

// Open connects to the repository database.
func Open(dsn string) (*Store, error) {
	db, err := sqlx.Connect("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("connect repository db: %w", err)
	}
	return &Store{db: db}, nil
}

// NewStore wraps an existing connection, mainly for tests.
func NewStore(db *sqlx.DB) *Store {
	return &Store{db: db}
}

// Close releases the connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// ItemByID fetches the export row for one item. Anything other than exactly
// one row is an error for that item.
func (s *Store) ItemByID(ctx context.Context, id int) (*ItemRow, error) {
	var rows []ItemRow
	if err := s.db.SelectContext(ctx, &rows, itemQuery, id); err != nil {
		return nil, fmt.Errorf("item %d: %w", id, err)
	}
	if len(rows) != 1 {
		return nil, fmt.Errorf("item %d: want exactly one row, got %d", id, len(rows))
	}
	return &rows[0], nil
}
