package flow

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/m3rciful/billbot/core/logger"
	"github.com/m3rciful/billbot/core/telegram/state"
	"github.com/m3rciful/billbot/internal/bills"
	"github.com/m3rciful/billbot/internal/journal"
)

// MachineConfig wires a Machine.
type MachineConfig struct {
	Sessions *state.Store[Session]
	Uploader *Uploader
	// History serves /history. Nil disables the command.
	History      journal.Recorder
	HistoryLimit int
	// Now is the clock used for preset years.
	Now func() time.Time
}

// Machine drives every user through the metadata prompts and hands the
// file to the Uploader. Events for one user are handled one at a time.
type Machine struct {
	sessions     *state.Store[Session]
	uploader     *Uploader
	history      journal.Recorder
	historyLimit int
	now          func() time.Time
}

// NewMachine constructs a Machine from cfg.
func NewMachine(cfg MachineConfig) *Machine {
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	if cfg.HistoryLimit <= 0 {
		cfg.HistoryLimit = 5
	}
	return &Machine{
		sessions:     cfg.Sessions,
		uploader:     cfg.Uploader,
		history:      cfg.History,
		historyLimit: cfg.HistoryLimit,
		now:          cfg.Now,
	}
}

// Handle applies ev to the user's session and emits replies through r.
// The returned error only reports reply delivery problems.
func (m *Machine) Handle(ctx context.Context, ev Event, r Replier) error {
	unlock := m.sessions.Lock(ev.UserID)
	defer unlock()

	ctx = logger.WithUser(ctx, ev.UserID)
	switch ev.Kind {
	case EventCommand:
		return m.onCommand(ctx, ev, r)
	case EventText:
		return m.onText(ctx, ev, r)
	case EventFile:
		return m.onFile(ctx, ev, r)
	case EventCallback:
		return m.onCallback(ctx, ev, r)
	}
	return fmt.Errorf("unsupported event kind %s", ev.Kind)
}

func (m *Machine) onCommand(ctx context.Context, ev Event, r Replier) error {
	switch ev.Command {
	case CommandStart:
		return r.Reply(ctx, Reply{Kind: ReplyWelcome})
	case CommandHelp:
		return r.Reply(ctx, Reply{Kind: ReplyHelp})
	case CommandUpload:
		prev, _ := m.sessions.Get(ev.UserID)
		m.commit(ctx, ev.UserID, prev.State, newSession())
		return r.Reply(ctx, Reply{Kind: ReplyAskYear, Choices: yearChoices(m.now().Year())})
	case CommandCancel:
		m.cancel(ctx, ev.UserID, "command")
		return r.Reply(ctx, Reply{Kind: ReplyCancelled})
	case CommandHistory:
		return m.onHistory(ctx, ev.UserID, r)
	}
	return r.Reply(ctx, Reply{Kind: ReplyUnknownCommand})
}

func (m *Machine) onHistory(ctx context.Context, userID int64, r Replier) error {
	if m.history == nil {
		return r.Reply(ctx, Reply{Kind: ReplyHistoryDisabled})
	}
	entries, err := m.history.Recent(ctx, userID, m.historyLimit)
	if err != nil {
		logger.Warn(ctx, "journal", "journal.recent", slog.String("status", "fail"), logger.Err(err))
		return r.Reply(ctx, Reply{Kind: ReplyHistoryFailed})
	}
	return r.Reply(ctx, Reply{Kind: ReplyHistory, History: entries})
}

func (m *Machine) onText(ctx context.Context, ev Event, r Replier) error {
	sess, ok := m.sessions.Get(ev.UserID)
	if !ok || sess.State != StateAwaitingManualYear {
		return r.Reply(ctx, Reply{Kind: ReplyGuidance})
	}
	year, err := bills.ParseYear(ev.Text)
	if err != nil {
		logger.Debug(ctx, "flow", "flow.validation",
			slog.String("status", "skip"),
			slog.String("state", sess.State.String()),
			logger.Err(err),
		)
		return r.Reply(ctx, Reply{Kind: ReplyInvalidYear, Reason: err.Error()})
	}
	sess.Metadata.Year = year
	m.commit(ctx, ev.UserID, sess.State, sess.advance(StateAwaitingMonth))
	return r.Reply(ctx, Reply{Kind: ReplyAskMonth, Metadata: sess.Metadata, Choices: monthChoices()})
}

func (m *Machine) onFile(ctx context.Context, ev Event, r Replier) error {
	sess, ok := m.sessions.Get(ev.UserID)
	if !ok || sess.State != StateAwaitingFile || ev.File == nil {
		return r.Reply(ctx, Reply{Kind: ReplyStartFirst})
	}
	if !bills.IsPDF(ev.File.Name) {
		return r.Reply(ctx, Reply{Kind: ReplyNotPDF, FileName: ev.File.Name})
	}

	m.progress(ctx, r, Reply{Kind: ReplyUploading, Metadata: sess.Metadata})
	data, err := ev.File.Fetch(ctx)
	if err != nil {
		m.sessions.Remove(ev.UserID)
		logger.Warn(ctx, "flow", "file.fetch",
			slog.String("status", "fail"),
			slog.Int64("bytes", ev.File.Size),
			logger.Err(err),
		)
		return r.Reply(ctx, Reply{Kind: ReplyFailed, Edit: true, Reason: fmt.Sprintf("could not download the file: %v", err)})
	}

	out := m.uploader.Submit(ctx, ev.UserID, sess, data)
	return r.Reply(ctx, outcomeReply(sess.Metadata, out))
}

func (m *Machine) onCallback(ctx context.Context, ev Event, r Replier) error {
	sess, ok := m.sessions.Get(ev.UserID)
	if !ok {
		logger.Debug(ctx, "flow", "callback.ignored", slog.String("status", "skip"), slog.String("state", StateNone.String()))
		return nil
	}
	cb, err := ParseCallback(ev.Callback)
	if err != nil {
		logger.Debug(ctx, "flow", "callback.ignored", slog.String("status", "skip"), logger.Err(err))
		return nil
	}

	if cb.Kind == CallbackCancel {
		m.cancel(ctx, ev.UserID, cb.Reason)
		return r.Reply(ctx, Reply{Kind: ReplyCancelled, Edit: true})
	}
	if want := expectedState(cb.Kind); sess.State != want {
		logger.Debug(ctx, "flow", "callback.ignored",
			slog.String("status", "skip"),
			slog.String("state", sess.State.String()),
			slog.String("expected", want.String()),
		)
		return nil
	}

	switch cb.Kind {
	case CallbackYear:
		sess.Metadata.Year = cb.Year
		m.commit(ctx, ev.UserID, sess.State, sess.advance(StateAwaitingMonth))
		return r.Reply(ctx, Reply{Kind: ReplyAskMonth, Edit: true, Metadata: sess.Metadata, Choices: monthChoices()})
	case CallbackManualYear:
		m.commit(ctx, ev.UserID, sess.State, sess.advance(StateAwaitingManualYear))
		return r.Reply(ctx, Reply{Kind: ReplyAskManualYear, Edit: true})
	case CallbackMonth:
		sess.Metadata.Month = cb.Month
		m.commit(ctx, ev.UserID, sess.State, sess.advance(StateAwaitingCompany))
		return r.Reply(ctx, Reply{Kind: ReplyAskCompany, Edit: true, Metadata: sess.Metadata, Choices: companyChoices()})
	case CallbackCompany:
		sess.Metadata.Company = cb.Company
		m.commit(ctx, ev.UserID, sess.State, sess.advance(StateAwaitingDocumentType))
		return r.Reply(ctx, Reply{Kind: ReplyAskDocumentType, Edit: true, Metadata: sess.Metadata, Choices: documentTypeChoices()})
	case CallbackDocumentType:
		sess.Metadata.DocumentType = cb.DocumentType
		m.commit(ctx, ev.UserID, sess.State, sess.advance(StateAwaitingFile))
		return r.Reply(ctx, Reply{Kind: ReplyAskFile, Edit: true, Metadata: sess.Metadata, Choices: cancelUploadChoices()})
	case CallbackOverwrite:
		m.progress(ctx, r, Reply{Kind: ReplyOverwriting, Edit: true})
		out := m.uploader.Overwrite(ctx, ev.UserID, sess)
		return r.Reply(ctx, outcomeReply(sess.Metadata, out))
	}
	return nil
}

// expectedState is the only state in which a selection of kind k applies.
func expectedState(k CallbackKind) State {
	switch k {
	case CallbackYear, CallbackManualYear:
		return StateAwaitingYear
	case CallbackMonth:
		return StateAwaitingMonth
	case CallbackCompany:
		return StateAwaitingCompany
	case CallbackDocumentType:
		return StateAwaitingDocumentType
	case CallbackOverwrite:
		return StateAwaitingOverwriteConfirmation
	}
	return StateNone
}

// progress shows an interim message. Failing to show it must not stop the
// upload; the final reply falls back to a fresh message.
func (m *Machine) progress(ctx context.Context, r Replier, reply Reply) {
	if err := r.Reply(ctx, reply); err != nil {
		logger.Warn(ctx, "flow", "reply.progress", slog.String("status", "fail"), logger.Err(err))
	}
}

func (m *Machine) commit(ctx context.Context, userID int64, from State, next Session) {
	m.sessions.Set(userID, next)
	logger.Debug(ctx, "flow", "flow.transition",
		slog.String("status", "ok"),
		slog.String("from_state", from.String()),
		slog.String("to_state", next.State.String()),
	)
}

func (m *Machine) cancel(ctx context.Context, userID int64, reason string) {
	prev, had := m.sessions.Get(userID)
	m.sessions.Remove(userID)
	logger.Info(ctx, "flow", "flow.cancel",
		slog.String("status", "cancelled"),
		slog.String("from_state", prev.State.String()),
		slog.Bool("had_session", had),
		slog.String("cause", reason),
	)
}

func outcomeReply(meta bills.Metadata, out Outcome) Reply {
	reply := Reply{Edit: true, Metadata: meta, Path: out.Path, FileName: meta.DocumentType.FileName()}
	switch out.Kind {
	case OutcomeUploaded:
		reply.Kind = ReplyUploaded
	case OutcomeOverwritten:
		reply.Kind = ReplyOverwritten
	case OutcomeNeedsConfirmation:
		reply.Kind = ReplyConfirmOverwrite
		reply.Choices = overwriteChoices()
	default:
		reply.Kind = ReplyFailed
		reply.Reason = out.Reason
	}
	return reply
}
