package flow

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/m3rciful/billbot/core/telegram/state"
	"github.com/m3rciful/billbot/internal/journal"
	"github.com/m3rciful/billbot/internal/storage"
)

const testRoot = "Bills"

// recordingStorage wraps the memory backend and remembers every call.
type recordingStorage struct {
	*storage.Memory

	mu          sync.Mutex
	calls       []string
	failEnsure  error
	failUpload  error
	blindExists bool
}

func (s *recordingStorage) record(call string) {
	s.mu.Lock()
	s.calls = append(s.calls, call)
	s.mu.Unlock()
}

func (s *recordingStorage) Calls() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.calls...)
}

func (s *recordingStorage) Reset() {
	s.mu.Lock()
	s.calls = nil
	s.mu.Unlock()
}

func (s *recordingStorage) EnsureFolder(ctx context.Context, path string) error {
	s.record("ensure " + path)
	if s.failEnsure != nil {
		return s.failEnsure
	}
	return s.Memory.EnsureFolder(ctx, path)
}

func (s *recordingStorage) Exists(ctx context.Context, path string) bool {
	s.record("exists " + path)
	if s.blindExists {
		return false
	}
	return s.Memory.Exists(ctx, path)
}

func (s *recordingStorage) Upload(ctx context.Context, path string, data []byte, overwrite bool) error {
	if overwrite {
		s.record("upload! " + path)
	} else {
		s.record("upload " + path)
	}
	if s.failUpload != nil {
		return s.failUpload
	}
	return s.Memory.Upload(ctx, path, data, overwrite)
}

func (s *recordingStorage) Delete(ctx context.Context, path string) error {
	s.record("delete " + path)
	return s.Memory.Delete(ctx, path)
}

// memJournal is an in-memory journal.Recorder.
type memJournal struct {
	mu      sync.Mutex
	entries []journal.Entry
	err     error
}

func (j *memJournal) Record(_ context.Context, e journal.Entry) error {
	j.mu.Lock()
	defer j.mu.Unlock()
	if j.err != nil {
		return j.err
	}
	j.entries = append(j.entries, e)
	return nil
}

func (j *memJournal) Recent(_ context.Context, userID int64, limit int) ([]journal.Entry, error) {
	j.mu.Lock()
	defer j.mu.Unlock()
	if j.err != nil {
		return nil, j.err
	}
	var out []journal.Entry
	for i := len(j.entries) - 1; i >= 0 && len(out) < limit; i-- {
		if j.entries[i].UserID == userID {
			out = append(out, j.entries[i])
		}
	}
	return out, nil
}

func (j *memJournal) Close() error { return nil }

func (j *memJournal) Outcomes() []string {
	j.mu.Lock()
	defer j.mu.Unlock()
	var out []string
	for _, e := range j.entries {
		out = append(out, e.Outcome)
	}
	return out
}

// recordingReplier collects replies per test.
type recordingReplier struct {
	mu      sync.Mutex
	replies []Reply
	err     error
}

func (r *recordingReplier) Reply(_ context.Context, reply Reply) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.replies = append(r.replies, reply)
	return r.err
}

func (r *recordingReplier) Kinds() []ReplyKind {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []ReplyKind
	for _, reply := range r.replies {
		out = append(out, reply.Kind)
	}
	return out
}

func (r *recordingReplier) Last() Reply {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.replies) == 0 {
		return Reply{}
	}
	return r.replies[len(r.replies)-1]
}

func (r *recordingReplier) Reset() {
	r.mu.Lock()
	r.replies = nil
	r.mu.Unlock()
}

type harness struct {
	t        *testing.T
	sessions *state.Store[Session]
	storage  *recordingStorage
	journal  *memJournal
	replier  *recordingReplier
	machine  *Machine
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	h := &harness{
		t:        t,
		sessions: state.NewStore[Session](),
		storage:  &recordingStorage{Memory: storage.NewMemory()},
		journal:  &memJournal{},
		replier:  &recordingReplier{},
	}
	h.machine = NewMachine(MachineConfig{
		Sessions:     h.sessions,
		Uploader:     NewUploader(h.sessions, h.storage, h.journal, testRoot),
		History:      h.journal,
		HistoryLimit: 5,
		Now:          func() time.Time { return time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC) },
	})
	return h
}

func (h *harness) handle(ev Event) {
	h.t.Helper()
	require.NoError(h.t, h.machine.Handle(context.Background(), ev, h.replier))
}

func (h *harness) command(uid int64, cmd string) {
	h.t.Helper()
	h.handle(Event{UserID: uid, Kind: EventCommand, Command: cmd})
}

func (h *harness) callback(uid int64, data string) {
	h.t.Helper()
	h.handle(Event{UserID: uid, Kind: EventCallback, Callback: data})
}

func (h *harness) text(uid int64, text string) {
	h.t.Helper()
	h.handle(Event{UserID: uid, Kind: EventText, Text: text})
}

func (h *harness) file(uid int64, name string, data []byte) {
	h.t.Helper()
	h.handle(Event{UserID: uid, Kind: EventFile, File: &File{
		Name:  name,
		Size:  int64(len(data)),
		Fetch: func(context.Context) ([]byte, error) { return data, nil },
	}})
}

func (h *harness) brokenFile(uid int64, name string) {
	h.t.Helper()
	h.handle(Event{UserID: uid, Kind: EventFile, File: &File{
		Name:  name,
		Fetch: func(context.Context) ([]byte, error) { return nil, errors.New("telegram: file is too big") },
	}})
}

// toAwaitingFile walks uid through the prompts for 2024/March/PowerCo/Invoice.
func (h *harness) toAwaitingFile(uid int64) {
	h.t.Helper()
	h.command(uid, CommandUpload)
	h.callback(uid, "year_2024")
	h.callback(uid, "month_3")
	h.callback(uid, "company_PowerCo")
	h.callback(uid, "doctype_Invoice")
}

func (h *harness) session(uid int64) (Session, bool) {
	return h.sessions.Get(uid)
}

// assertPendingInvariant checks that pending bytes and path travel together
// and only in the confirmation state.
func (h *harness) assertPendingInvariant(uid int64) {
	h.t.Helper()
	sess, ok := h.session(uid)
	if !ok {
		return
	}
	if sess.State == StateAwaitingOverwriteConfirmation {
		require.NotNil(h.t, sess.Pending)
		require.NotEmpty(h.t, sess.Pending.Path)
		require.NotNil(h.t, sess.Pending.Data)
		return
	}
	require.Nil(h.t, sess.Pending, "state %s must not carry a pending upload", sess.State)
}
