// Package flow is the per-user conversation that collects bill metadata,
// accepts the PDF and files it into remote storage.
//
// Nothing here knows about Telegram: events come in as Event values and
// answers go out through a Replier.
package flow

import "github.com/m3rciful/billbot/internal/bills"

// State is the conversation step a user is in.
type State string

const (
	StateNone                          State = ""
	StateAwaitingYear                  State = "awaiting_year"
	StateAwaitingManualYear            State = "awaiting_manual_year"
	StateAwaitingMonth                 State = "awaiting_month"
	StateAwaitingCompany               State = "awaiting_company"
	StateAwaitingDocumentType          State = "awaiting_document_type"
	StateAwaitingFile                  State = "awaiting_file"
	StateAwaitingOverwriteConfirmation State = "awaiting_overwrite_confirmation"
)

func (s State) String() string {
	if s == StateNone {
		return "none"
	}
	return string(s)
}

// PendingUpload holds a file waiting for the user to approve replacing the
// object already stored at Path.
type PendingUpload struct {
	Path string
	Data []byte
}

// Session is one user's conversation. Pending is set only in
// StateAwaitingOverwriteConfirmation; path and bytes travel together.
type Session struct {
	State    State
	Metadata bills.Metadata
	Pending  *PendingUpload
}

// newSession starts a fresh flow with empty metadata.
func newSession() Session {
	return Session{State: StateAwaitingYear}
}

// advance moves to next and drops any pending upload, which only belongs to
// the overwrite confirmation step.
func (s Session) advance(next State) Session {
	s.State = next
	if next != StateAwaitingOverwriteConfirmation {
		s.Pending = nil
	}
	return s
}

// park holds data for overwrite confirmation.
func (s Session) park(path string, data []byte) Session {
	s.State = StateAwaitingOverwriteConfirmation
	s.Pending = &PendingUpload{Path: path, Data: data}
	return s
}
