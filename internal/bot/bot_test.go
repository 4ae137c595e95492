package bot

import (
	"bytes"
	"context"
	"errors"
	"io"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	tg "github.com/m3rciful/billbot/core/telegram"
	"github.com/m3rciful/billbot/core/telegram/state"
	"github.com/m3rciful/billbot/internal/flow"
	"github.com/m3rciful/billbot/internal/journal"
	"github.com/m3rciful/billbot/internal/storage"

	tele "gopkg.in/telebot.v4"
)

type outgoing struct {
	id     int
	text   string
	markup *tele.ReplyMarkup
}

// fakeAPI stands in for the Bot API: it numbers sent messages and keeps
// every send and edit.
type fakeAPI struct {
	nextID  int
	sent    []outgoing
	edits   []outgoing
	editErr error
	files   map[string][]byte
}

func newFakeAPI() *fakeAPI {
	return &fakeAPI{nextID: 100, files: map[string][]byte{}}
}

func markupOf(opts []interface{}) *tele.ReplyMarkup {
	for _, o := range opts {
		if so, ok := o.(*tele.SendOptions); ok && so != nil {
			return so.ReplyMarkup
		}
	}
	return nil
}

func (f *fakeAPI) Send(_ tele.Recipient, what interface{}, opts ...interface{}) (*tele.Message, error) {
	f.nextID++
	f.sent = append(f.sent, outgoing{id: f.nextID, text: what.(string), markup: markupOf(opts)})
	return &tele.Message{ID: f.nextID}, nil
}

func (f *fakeAPI) Edit(msg tele.Editable, what interface{}, opts ...interface{}) (*tele.Message, error) {
	if f.editErr != nil {
		return nil, f.editErr
	}
	m := msg.(*tele.Message)
	f.edits = append(f.edits, outgoing{id: m.ID, text: what.(string), markup: markupOf(opts)})
	return m, nil
}

func (f *fakeAPI) File(file *tele.File) (io.ReadCloser, error) {
	data, ok := f.files[file.FileID]
	if !ok {
		return nil, errors.New("file not found")
	}
	return io.NopCloser(bytes.NewReader(data)), nil
}

func (f *fakeAPI) lastSent() outgoing { return f.sent[len(f.sent)-1] }
func (f *fakeAPI) lastEdit() outgoing { return f.edits[len(f.edits)-1] }

type fakeContext struct {
	tele.Context
	update tele.Update
	store  map[string]any
}

func (c *fakeContext) Update() tele.Update      { return c.update }
func (c *fakeContext) Callback() *tele.Callback { return c.update.Callback }
func (c *fakeContext) Get(key string) any       { return c.store[key] }
func (c *fakeContext) Set(key string, val any)  { c.store[key] = val }
func (c *fakeContext) Chat() *tele.Chat         { return nil }

func (c *fakeContext) Message() *tele.Message {
	if c.update.Callback != nil {
		return c.update.Callback.Message
	}
	return c.update.Message
}

func (c *fakeContext) Sender() *tele.User {
	if c.update.Callback != nil {
		return c.update.Callback.Sender
	}
	return c.update.Message.Sender
}

func (c *fakeContext) Recipient() tele.Recipient { return c.Sender() }

func (c *fakeContext) Text() string {
	if c.update.Message != nil {
		return c.update.Message.Text
	}
	return ""
}

type fixture struct {
	t        *testing.T
	api      *fakeAPI
	storage  *storage.Memory
	handlers *Handlers
	userID   int64
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	sessions := state.NewStore[flow.Session]()
	mem := storage.NewMemory()
	machine := flow.NewMachine(flow.MachineConfig{
		Sessions: sessions,
		Uploader: flow.NewUploader(sessions, mem, journal.Nop{}, "Bills"),
		Now:      func() time.Time { return time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC) },
	})
	fake := newFakeAPI()
	h := New(machine)
	h.apiFor = func(tele.Context) api { return fake }
	return &fixture{t: t, api: fake, storage: mem, handlers: h, userID: 42}
}

func (f *fixture) user() *tele.User { return &tele.User{ID: f.userID} }

func (f *fixture) message(m *tele.Message) *fakeContext {
	m.Sender = f.user()
	return &fakeContext{update: tele.Update{ID: 1, Message: m}, store: map[string]any{}}
}

func (f *fixture) press(data string, on int) {
	f.t.Helper()
	c := &fakeContext{
		update: tele.Update{ID: 2, Callback: &tele.Callback{
			Sender:  f.user(),
			Data:    data,
			Message: &tele.Message{ID: on},
		}},
		store: map[string]any{},
	}
	require.NoError(f.t, f.handlers.onCallback(c))
}

func (f *fixture) command(name string) {
	f.t.Helper()
	require.NoError(f.t, f.handlers.command(name)(f.message(&tele.Message{Text: "/" + name})))
}

func (f *fixture) document(name, fileID string, data []byte) {
	f.t.Helper()
	f.api.files[fileID] = data
	doc := &tele.Document{File: tele.File{FileID: fileID, FileSize: int64(len(data))}, FileName: name}
	require.NoError(f.t, f.handlers.onDocument(f.message(&tele.Message{Document: doc})))
}

func (f *fixture) selectInvoice() int {
	f.t.Helper()
	f.command(flow.CommandUpload)
	menu := f.api.lastSent()
	require.NotNil(f.t, menu.markup)
	assert.Equal(f.t, "year_2023", menu.markup.InlineKeyboard[0][0].Data)

	f.press("year_2024", menu.id)
	f.press("month_3", menu.id)
	f.press("company_City_Water", menu.id)
	f.press("doctype_Invoice", menu.id)
	return menu.id
}

func TestUploadConversationEditsInPlace(t *testing.T) {
	f := newFixture(t)
	menu := f.selectInvoice()

	require.Len(t, f.api.sent, 1)
	require.Len(t, f.api.edits, 4)
	for _, e := range f.api.edits {
		assert.Equal(t, menu, e.id)
	}
	askFile := f.api.lastEdit()
	assert.Contains(t, askFile.text, "Company: *City Water*")
	assert.Contains(t, askFile.text, "send the PDF")
	require.NotNil(t, askFile.markup)
	assert.Equal(t, flow.CancelUpload, askFile.markup.InlineKeyboard[0][0].Data)

	f.document("march.PDF", "file-1", []byte("%PDF-1.4"))

	progress := f.api.lastSent()
	assert.Equal(t, "⏳ Uploading...", progress.text)
	done := f.api.lastEdit()
	assert.Equal(t, progress.id, done.id)
	assert.Equal(t, "✅ Uploaded *Invoice.pdf* to `Bills/2024/March/City Water/Invoice.pdf`", done.text)
	assert.Nil(t, done.markup)

	data, ok := f.storage.Object("Bills/2024/March/City_Water/Invoice.pdf")
	require.True(t, ok)
	assert.Equal(t, []byte("%PDF-1.4"), data)
}

func TestOverwriteConfirmationFlow(t *testing.T) {
	f := newFixture(t)
	f.selectInvoice()
	f.document("a.pdf", "file-1", []byte("first"))

	f.selectInvoice()
	f.document("b.pdf", "file-2", []byte("second"))

	confirm := f.api.lastEdit()
	assert.Contains(t, confirm.text, "already exists")
	require.NotNil(t, confirm.markup)
	require.Len(t, confirm.markup.InlineKeyboard, 2)
	assert.Equal(t, flow.OverwriteYes, confirm.markup.InlineKeyboard[0][0].Data)

	f.press(flow.OverwriteYes, confirm.id)
	assert.Contains(t, f.api.lastEdit().text, "✅ Replaced *Invoice.pdf*")
	data, _ := f.storage.Object("Bills/2024/March/City_Water/Invoice.pdf")
	assert.Equal(t, []byte("second"), data)
}

func TestEditFailureFallsBackToSend(t *testing.T) {
	f := newFixture(t)
	f.command(flow.CommandUpload)
	f.api.editErr = errors.New("message to edit not found")

	f.press("year_2024", f.api.lastSent().id)
	assert.Len(t, f.api.sent, 2)
	assert.Contains(t, f.api.lastSent().text, "Select the month")
}

func TestRejectedFileAndUnknownCommand(t *testing.T) {
	f := newFixture(t)
	f.selectInvoice()
	f.document("scan.jpg", "file-1", []byte("jpg"))
	assert.Contains(t, f.api.lastSent().text, "Only PDF files are accepted, got `scan.jpg`")
	assert.Zero(t, f.storage.Folders())

	c := f.message(&tele.Message{Text: "/dance@billbot"})
	require.NoError(t, f.handlers.onUnknownCommand(c))
	assert.Contains(t, f.api.lastSent().text, "Unknown command")
}

func TestDownloadLimits(t *testing.T) {
	api := newFakeAPI()
	api.files["big"] = make([]byte, 10)

	_, err := download(api, &tele.File{FileID: "big"}, MaxFileSize+1)
	assert.Error(t, err)

	data, err := download(api, &tele.File{FileID: "big"}, 10)
	require.NoError(t, err)
	assert.Len(t, data, 10)

	_, err = download(api, &tele.File{FileID: "missing"}, 1)
	assert.Error(t, err)
}

func TestRegisterRoutes(t *testing.T) {
	reg := tg.NewRegistry()
	routes, err := New(nil).Routes(reg)
	require.NoError(t, err)
	// five commands, one callback route, text and document
	assert.Len(t, routes, 8)

	visible := reg.ListCommands(true)
	assert.Len(t, visible, 4)
	for _, prefix := range flow.CallbackPrefixes {
		key, _, ok := reg.MatchCallback(prefix + "x")
		assert.True(t, ok, prefix)
		assert.Equal(t, prefix, key)
	}
}

func TestCommandName(t *testing.T) {
	assert.Equal(t, "dance", commandName("/dance@billbot now"))
	assert.Equal(t, "upload", commandName(" /UPLOAD "))
}

type stubConversation struct{ events []flow.Event }

func (s *stubConversation) Handle(_ context.Context, ev flow.Event, _ flow.Replier) error {
	s.events = append(s.events, ev)
	return nil
}

func TestTextEventCarriesUser(t *testing.T) {
	conv := &stubConversation{}
	h := New(conv)
	h.apiFor = func(tele.Context) api { return newFakeAPI() }
	c := &fakeContext{
		update: tele.Update{Message: &tele.Message{Sender: &tele.User{ID: 9}, Text: "2031"}},
		store:  map[string]any{},
	}
	require.NoError(t, h.onText(c))
	require.Len(t, conv.events, 1)
	assert.Equal(t, flow.Event{UserID: 9, Kind: flow.EventText, Text: "2031"}, conv.events[0])
}
