package flow

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/m3rciful/billbot/core/logger"
	"github.com/m3rciful/billbot/core/telegram/state"
	"github.com/m3rciful/billbot/internal/bills"
	"github.com/m3rciful/billbot/internal/journal"
	"github.com/m3rciful/billbot/internal/storage"
)

// OutcomeKind is the result class of an upload attempt.
type OutcomeKind string

const (
	OutcomeUploaded          OutcomeKind = "uploaded"
	OutcomeOverwritten       OutcomeKind = "overwritten"
	OutcomeNeedsConfirmation OutcomeKind = "needs_confirmation"
	OutcomeFailed            OutcomeKind = "fail"
)

// Outcome reports what happened to a submitted file.
type Outcome struct {
	Kind OutcomeKind
	// Path is the object path written or found occupied.
	Path string
	// Reason is a human-readable failure message for OutcomeFailed.
	Reason string
}

// Uploader files documents into storage and keeps the user's session in
// step with the result. It never returns storage errors; they become
// OutcomeFailed.
type Uploader struct {
	sessions *state.Store[Session]
	storage  storage.Client
	journal  journal.Recorder
	root     string
}

// NewUploader wires the orchestrator. A nil recorder disables journaling.
func NewUploader(sessions *state.Store[Session], client storage.Client, rec journal.Recorder, root string) *Uploader {
	if rec == nil {
		rec = journal.Nop{}
	}
	return &Uploader{sessions: sessions, storage: client, journal: rec, root: root}
}

// Destination returns the folder and full object path for meta.
func (u *Uploader) Destination(meta bills.Metadata) (folder, path string) {
	folder = bills.FolderPath(u.root, meta)
	return folder, bills.ObjectPath(folder, meta.DocumentType.FileName())
}

// Submit files data for the session's metadata. An occupied destination
// parks the bytes in the session for overwrite confirmation; every other
// result removes the session.
func (u *Uploader) Submit(ctx context.Context, userID int64, sess Session, data []byte) Outcome {
	folder, path := u.Destination(sess.Metadata)
	start := time.Now()

	if u.storage.Exists(ctx, path) {
		return u.park(ctx, userID, sess, path, data)
	}

	err := u.write(ctx, folder, path, data, false)
	if errors.Is(err, storage.ErrAlreadyExists) {
		// Someone else wrote the object between the probe and the write.
		return u.park(ctx, userID, sess, path, data)
	}
	u.sessions.Remove(userID)

	if err != nil {
		return u.finish(ctx, userID, sess.Metadata, Outcome{Kind: OutcomeFailed, Path: path, Reason: err.Error()}, len(data), start)
	}
	return u.finish(ctx, userID, sess.Metadata, Outcome{Kind: OutcomeUploaded, Path: path}, len(data), start)
}

// Overwrite replaces the object with the session's pending bytes. The
// session is removed whatever the result.
func (u *Uploader) Overwrite(ctx context.Context, userID int64, sess Session) Outcome {
	defer u.sessions.Remove(userID)
	start := time.Now()

	if sess.Pending == nil {
		return u.finish(ctx, userID, sess.Metadata, Outcome{Kind: OutcomeFailed, Reason: "no file is waiting for confirmation"}, 0, start)
	}
	pending := *sess.Pending
	folder, _ := u.Destination(sess.Metadata)

	err := u.storage.EnsureFolder(ctx, folder)
	if err == nil {
		err = u.storage.Delete(ctx, pending.Path)
	}
	if err == nil {
		err = u.storage.Upload(ctx, pending.Path, pending.Data, true)
	}
	if err != nil {
		err = fmt.Errorf("overwrite %s: %w", pending.Path, err)
		return u.finish(ctx, userID, sess.Metadata, Outcome{Kind: OutcomeFailed, Path: pending.Path, Reason: err.Error()}, len(pending.Data), start)
	}
	return u.finish(ctx, userID, sess.Metadata, Outcome{Kind: OutcomeOverwritten, Path: pending.Path}, len(pending.Data), start)
}

func (u *Uploader) write(ctx context.Context, folder, path string, data []byte, overwrite bool) error {
	if err := u.storage.EnsureFolder(ctx, folder); err != nil {
		return err
	}
	return u.storage.Upload(ctx, path, data, overwrite)
}

func (u *Uploader) park(ctx context.Context, userID int64, sess Session, path string, data []byte) Outcome {
	u.sessions.Set(userID, sess.park(path, data))
	logger.Info(ctx, "flow", "upload.collision",
		slog.String("status", "ok"),
		slog.String("outcome", string(OutcomeNeedsConfirmation)),
		slog.String("backend", u.storage.Name()),
		slog.String("path", path),
	)
	return Outcome{Kind: OutcomeNeedsConfirmation, Path: path}
}

// finish logs and journals a terminal outcome.
func (u *Uploader) finish(ctx context.Context, userID int64, meta bills.Metadata, out Outcome, size int, start time.Time) Outcome {
	entry := journal.NewEntry(userID, meta, out.Path, string(out.Kind))
	entry.Reason = out.Reason
	entry.Bytes = int64(size)

	level := slog.LevelInfo
	if out.Kind == OutcomeFailed {
		level = slog.LevelWarn
	}
	logger.LogEvent(ctx, logger.Component("flow"), level, "upload.done",
		slog.String("status", statusOf(out)),
		slog.String("outcome", string(out.Kind)),
		slog.String("attempt_id", entry.AttemptID.String()),
		slog.String("backend", u.storage.Name()),
		slog.String("path", out.Path),
		slog.Int("bytes", size),
		slog.String("err", out.Reason),
		slog.Duration("took", logger.Took(start)),
	)

	if err := u.journal.Record(ctx, entry); err != nil {
		logger.Warn(ctx, "journal", "journal.record",
			slog.String("status", "fail"),
			slog.String("attempt_id", entry.AttemptID.String()),
			logger.Err(err),
		)
	}
	return out
}

func statusOf(out Outcome) string {
	if out.Kind == OutcomeFailed {
		return "fail"
	}
	return "ok"
}
