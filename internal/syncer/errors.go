package syncer

import (
	"errors"
	"fmt"
)

var (
	// ErrNormalization is returned when a raw invoice has no usable identifier.
	ErrNormalization = errors.New("normalization failed")

	// ErrInvalidDeclaredValue is returned when an invoice total cannot be declared.
	ErrInvalidDeclaredValue = errors.New("invalid declared value")

	// ErrRunInProgress is returned when a run is triggered while another is active.
	ErrRunInProgress = errors.New("sync run already in progress")

	// ErrRunAborted is returned when authentication or listing fails.
	ErrRunAborted = errors.New("sync run aborted")
)

// Stage names the step of a run in which a failure occurred.
type Stage string

const (
	StageAuthenticating Stage = "authenticating"
	StageListing        Stage = "listing"
	StageFetching       Stage = "fetching"
	StageNormalizing    Stage = "normalizing"
	StageBuilding       Stage = "building"
	StageCreating       Stage = "creating"
	StageWritingBack    Stage = "writing_back"
)

// StageError attributes a failure to a stage and, for per-candidate
// stages, to an invoice.
type StageError struct {
	Stage     Stage
	InvoiceID string
	Err       error
}

func (e *StageError) Error() string {
	if e.InvoiceID == "" {
		return fmt.Sprintf("%s: %v", e.Stage, e.Err)
	}
	return fmt.Sprintf("%s %s: %v", e.Stage, e.InvoiceID, e.Err)
}

func (e *StageError) Unwrap() error {
	return e.Err
}
