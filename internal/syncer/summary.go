package syncer

import (
	"errors"
	"time"
)

// OutcomeStatus is the result class of one candidate.
type OutcomeStatus string

const (
	OutcomeProcessed OutcomeStatus = "processed"
	OutcomeSkipped   OutcomeStatus = "skipped"
	OutcomeFailed    OutcomeStatus = "failed"
)

// Outcome is what happened to a single candidate during a run.
type Outcome struct {
	InvoiceID    string
	Status       OutcomeStatus
	ShipmentID   string
	TrackingCode string
	SkipReason   string
	Err          error
}

// Detail is the per-candidate record reported in a Summary.
// Skipped candidates produce no detail.
type Detail struct {
	InvoiceID  string        `json:"invoice_id"`
	Status     OutcomeStatus `json:"status"`
	ShipmentID string        `json:"shipment_id,omitempty"`
	Tracking   string        `json:"tracking,omitempty"`
	Stage      Stage         `json:"stage,omitempty"`
	Error      string        `json:"error,omitempty"`
}

// Summary is the report of one run.
type Summary struct {
	RunID      string    `json:"run_id"`
	StartedAt  time.Time `json:"started_at"`
	FinishedAt time.Time `json:"finished_at"`
	DurationMS int64     `json:"duration_ms"`
	Processed  int       `json:"processed"`
	Skipped    int       `json:"skipped"`
	Errors     int       `json:"errors"`
	Details    []Detail  `json:"details"`

	// Error is set when the run was aborted before any candidate was handled.
	Error string `json:"error,omitempty"`
}

// Summarize folds candidate outcomes into counts and details, preserving
// outcome order.
func Summarize(outcomes []Outcome) Summary {
	s := Summary{Details: []Detail{}}
	for _, o := range outcomes {
		switch o.Status {
		case OutcomeProcessed:
			s.Processed++
			s.Details = append(s.Details, Detail{
				InvoiceID:  o.InvoiceID,
				Status:     OutcomeProcessed,
				ShipmentID: o.ShipmentID,
				Tracking:   o.TrackingCode,
			})
		case OutcomeSkipped:
			s.Skipped++
		case OutcomeFailed:
			s.Errors++
			d := Detail{
				InvoiceID:  o.InvoiceID,
				Status:     OutcomeFailed,
				ShipmentID: o.ShipmentID,
			}
			var stageErr *StageError
			if errors.As(o.Err, &stageErr) {
				d.Stage = stageErr.Stage
				d.Error = stageErr.Err.Error()
			} else if o.Err != nil {
				d.Error = o.Err.Error()
			}
			s.Details = append(s.Details, d)
		}
	}
	return s
}
