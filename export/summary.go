package export

import (
	"time"

	"github.com/segmentio/encoding/json"

	"github.com/grantj-re3/dspace-exportitems/atomicfile"
)

const (
	StatusKept    = "kept"
	StatusOmitted = "omitted"
	StatusFailed  = "failed"
)

// ItemOutcome is the per-item line in the run summary.
type ItemOutcome struct {
	ItemID   int    `json:"item_id"`
	Handle   string `json:"handle,omitempty"`
	Status   string `json:"status"`
	Reason   string `json:"reason,omitempty"`
	Warnings int    `json:"warnings"`
	Error    string `json:"error,omitempty"`
}

// Summary describes a whole batch run.
type Summary struct {
	ReferenceDate string        `json:"reference_date"`
	Started       time.Time     `json:"started"`
	Finished      time.Time     `json:"finished"`
	Kept          int           `json:"kept"`
	Omitted       int           `json:"omitted"`
	Failed        int           `json:"failed"`
	Items         []ItemOutcome `json:"items"`
}

func (s *Summary) record(o ItemOutcome) {
	switch o.Status {
	case StatusKept:
		s.Kept++
	case StatusOmitted:
		s.Omitted++
	case StatusFailed:
		s.Failed++
	}
	s.Items = append(s.Items, o)
}

// Write stores the summary as indented JSON.
func (s *Summary) Write(path string) error {
	f, err := atomicfile.New(path)
	if err != nil {
		return err
	}
	enc := json.NewEncoder(f)
	enc.SetIndent("", "  ")
	if err := enc.Encode(s); err != nil {
		f.Abort()
		return err
	}
	return f.Close()
}
