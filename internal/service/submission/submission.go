package submission

import (
	"time"

	"github.com/mamadbah2/remitos/internal/domain/models"
)

// State is a step of the per-submission state machine.
type State string

const (
	StateCaptured         State = "captured"
	StateExtracted        State = "extracted"
	StateExtractionFailed State = "extraction_failed"
	StateConfirmed        State = "confirmed"
	StateUploading        State = "uploading"
	StateUploaded         State = "uploaded"
	StateAppending        State = "appending"
	StateAppended         State = "appended"
	StateFailed           State = "failed"
)

// Terminal reports whether no further transition can leave the state.
func (s State) Terminal() bool {
	return s == StateAppended || s == StateFailed
}

// Submission carries everything one receipt accumulates on its way to the ledger.
// It is owned by a single request and never shared.
type Submission struct {
	ID           string
	DriverID     string
	DriverPhone  string
	LedgerHandle string

	Image       []byte
	ContentType string
	CapturedAt  time.Time

	Record   models.ReceiptRecord
	Row      models.LedgerRow
	State    State
	History  []State
	Warnings []string
	Failure  error
}

// Confirmation holds the driver-reviewed fields. Date is an ISO calendar date; empty
// means the capture day.
type Confirmation struct {
	RemitoNumber     string
	Date             string
	Destination      string
	DestinationOther string
	LedgerHandle     string
	ImageURL         string
}

func (s *Submission) transition(to State) {
	s.State = to
	s.History = append(s.History, to)
}

func (s *Submission) fail(err error) error {
	s.Failure = err
	s.transition(StateFailed)
	return err
}

func (s *Submission) warn(message string) {
	s.Warnings = append(s.Warnings, message)
}

// Reached reports whether the submission ever passed through the state.
func (s *Submission) Reached(state State) bool {
	for _, st := range s.History {
		if st == state {
			return true
		}
	}
	return false
}
