// Package exportitems exports enriched metadata records for archival
// repository items into per-item XML files plus CSV review reports.
package exportitems

// Version of the exportitems tools.
const Version = "0.3.1"
