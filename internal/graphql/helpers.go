package graphql

import (
	"time"

	"github.com/tournevent/invoicebridge/internal/syncer"
)

func summaryToGraphQL(s *syncer.Summary) map[string]any {
	if s == nil {
		return nil
	}
	details := make([]any, 0, len(s.Details))
	for _, d := range s.Details {
		details = append(details, detailToGraphQL(d))
	}
	return map[string]any{
		"runId":      s.RunID,
		"startedAt":  s.StartedAt.Format(time.RFC3339Nano),
		"finishedAt": s.FinishedAt.Format(time.RFC3339Nano),
		"durationMs": s.DurationMS,
		"processed":  s.Processed,
		"skipped":    s.Skipped,
		"errors":     s.Errors,
		"error":      optional(s.Error),
		"details":    details,
	}
}

func detailToGraphQL(d syncer.Detail) map[string]any {
	return map[string]any{
		"invoiceId":  d.InvoiceID,
		"status":     string(d.Status),
		"shipmentId": optional(d.ShipmentID),
		"tracking":   optional(d.Tracking),
		"stage":      optional(string(d.Stage)),
		"error":      optional(d.Error),
	}
}

// optional maps the empty string to GraphQL null.
func optional(s string) any {
	if s == "" {
		return nil
	}
	return s
}
