package flow

import (
	"context"

	"github.com/m3rciful/billbot/internal/bills"
	"github.com/m3rciful/billbot/internal/journal"
)

// EventKind tags an inbound event.
type EventKind int

const (
	EventCommand EventKind = iota + 1
	EventText
	EventFile
	EventCallback
)

func (k EventKind) String() string {
	switch k {
	case EventCommand:
		return "command"
	case EventText:
		return "text"
	case EventFile:
		return "file"
	case EventCallback:
		return "callback"
	default:
		return "unknown"
	}
}

// Command tokens understood by the flow, without the leading slash.
const (
	CommandStart   = "start"
	CommandUpload  = "upload"
	CommandCancel  = "cancel"
	CommandHelp    = "help"
	CommandHistory = "history"
)

// File is an attached document. Fetch downloads its bytes and is only
// called once the file passed validation.
type File struct {
	Name  string
	Size  int64
	Fetch func(ctx context.Context) ([]byte, error)
}

// Event is one inbound update for a user.
type Event struct {
	UserID int64
	Kind   EventKind
	// Command is set for EventCommand, lowercased and without the slash.
	Command string
	// Text is set for EventText.
	Text string
	// File is set for EventFile.
	File *File
	// Callback is the raw button payload for EventCallback.
	Callback string
}

// ReplyKind classifies an outbound answer. Rendering text for each kind is
// up to the transport.
type ReplyKind string

const (
	ReplyWelcome          ReplyKind = "welcome"
	ReplyHelp             ReplyKind = "help"
	ReplyUnknownCommand   ReplyKind = "unknown_command"
	ReplyAskYear          ReplyKind = "ask_year"
	ReplyAskManualYear    ReplyKind = "ask_manual_year"
	ReplyAskMonth         ReplyKind = "ask_month"
	ReplyAskCompany       ReplyKind = "ask_company"
	ReplyAskDocumentType  ReplyKind = "ask_document_type"
	ReplyAskFile          ReplyKind = "ask_file"
	ReplyInvalidYear      ReplyKind = "invalid_year"
	ReplyNotPDF           ReplyKind = "not_pdf"
	ReplyGuidance         ReplyKind = "guidance"
	ReplyStartFirst       ReplyKind = "start_first"
	ReplyCancelled        ReplyKind = "cancelled"
	ReplyUploading        ReplyKind = "uploading"
	ReplyOverwriting      ReplyKind = "overwriting"
	ReplyUploaded         ReplyKind = "uploaded"
	ReplyOverwritten      ReplyKind = "overwritten"
	ReplyConfirmOverwrite ReplyKind = "confirm_overwrite"
	ReplyFailed           ReplyKind = "failed"
	ReplyHistory          ReplyKind = "history"
	ReplyHistoryDisabled  ReplyKind = "history_disabled"
	ReplyHistoryFailed    ReplyKind = "history_failed"
)

// Choice is one interactive button.
type Choice struct {
	Label string
	Data  string
}

// Reply is an answer to the user.
type Reply struct {
	Kind ReplyKind
	// Edit asks the transport to replace the message this event is anchored
	// to (the pressed keyboard or the progress message) instead of sending
	// a new one.
	Edit bool
	// Choices are keyboard rows.
	Choices [][]Choice

	Metadata bills.Metadata
	Path     string
	FileName string
	Reason   string
	History  []journal.Entry
}

// Replier delivers replies for the event being handled.
type Replier interface {
	Reply(ctx context.Context, r Reply) error
}
