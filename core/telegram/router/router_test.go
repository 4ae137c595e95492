package router

import (
	"errors"
	"testing"

	tg "github.com/m3rciful/billbot/core/telegram"
	"github.com/m3rciful/billbot/core/telegram/commands"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	tele "gopkg.in/telebot.v4"
)

type fakeContext struct {
	tele.Context
	update    tele.Update
	store     map[string]any
	responded int
}

func newFake(upd tele.Update) *fakeContext {
	return &fakeContext{update: upd, store: map[string]any{}}
}

func textUpdate(text string) tele.Update {
	return tele.Update{ID: 5, Message: &tele.Message{
		Sender: &tele.User{ID: 1},
		Chat:   &tele.Chat{ID: 1},
		Text:   text,
	}}
}

func callbackUpdate(data string) tele.Update {
	return tele.Update{ID: 6, Callback: &tele.Callback{Sender: &tele.User{ID: 1}, Data: data}}
}

func (f *fakeContext) Update() tele.Update      { return f.update }
func (f *fakeContext) Callback() *tele.Callback { return f.update.Callback }
func (f *fakeContext) Get(key string) any       { return f.store[key] }
func (f *fakeContext) Set(key string, val any)  { f.store[key] = val }
func (f *fakeContext) Respond(...*tele.CallbackResponse) error {
	f.responded++
	return nil
}

func (f *fakeContext) Sender() *tele.User {
	if f.update.Callback != nil {
		return f.update.Callback.Sender
	}
	return f.update.Message.Sender
}

func (f *fakeContext) Chat() *tele.Chat {
	if f.update.Message != nil {
		return f.update.Message.Chat
	}
	return nil
}

func (f *fakeContext) Text() string {
	if f.update.Message != nil {
		return f.update.Message.Text
	}
	return ""
}

func recorder(name string, log *[]string) tele.HandlerFunc {
	return func(tele.Context) error {
		*log = append(*log, name)
		return nil
	}
}

func TestCallbackRouteDispatchesByPrefix(t *testing.T) {
	var calls []string
	reg := tg.NewRegistry()
	require.NoError(t, reg.RegisterCallback("year_", recorder("year", &calls)))
	require.NoError(t, reg.RegisterCallback("cancel_", recorder("cancel", &calls)))
	reg.SetCallbackNotFound(recorder("unknown", &calls))

	route := CallbackRoute(reg)
	assert.Equal(t, tele.OnCallback, route.Endpoint)

	for _, data := range []string{"year_2024", "cancel_upload", "bogus"} {
		c := newFake(callbackUpdate(data))
		require.NoError(t, route.Handler(c))
		assert.Equal(t, 1, c.responded, data)
	}
	assert.Equal(t, []string{"year", "cancel", "unknown"}, calls)
}

func TestTextRoutes(t *testing.T) {
	var calls []string
	reg := tg.NewRegistry()
	require.NoError(t, reg.RegisterCommand("/upload", commands.Command{
		Handler:     recorder("upload", &calls),
		Description: "Upload",
		Aliases:     []string{"new"},
	}))

	routes := TextRoutes(reg, TextOptions{
		Text:           recorder("text", &calls),
		Document:       recorder("document", &calls),
		UnknownCommand: recorder("unknown", &calls),
	})
	require.Len(t, routes, 2)
	text, doc := routes[0], routes[1]
	assert.Equal(t, tele.OnText, text.Endpoint)
	assert.Equal(t, tele.OnDocument, doc.Endpoint)

	require.NoError(t, text.Handler(newFake(textUpdate("/new"))))
	require.NoError(t, text.Handler(newFake(textUpdate("/dance"))))
	require.NoError(t, text.Handler(newFake(textUpdate("2024"))))
	require.NoError(t, doc.Handler(newFake(textUpdate(""))))
	assert.Equal(t, []string{"upload", "unknown", "text", "document"}, calls)
}

func TestTextRoutesWithoutHandlersSkip(t *testing.T) {
	routes := TextRoutes(nil, TextOptions{})
	assert.NoError(t, routes[0].Handler(newFake(textUpdate("hello"))))
	assert.NoError(t, routes[1].Handler(newFake(textUpdate(""))))
}

func TestCommandRoutesWrapHandlers(t *testing.T) {
	var calls []string
	reg := tg.NewRegistry()
	require.NoError(t, reg.RegisterCommand("/help", commands.Command{Handler: recorder("help", &calls), Description: "Help"}))

	routes := CommandRoutes(reg)
	require.Len(t, routes, 1)
	assert.Equal(t, "/help", routes[0].Endpoint)
	require.NoError(t, routes[0].Handler(newFake(textUpdate("/help"))))
	assert.Equal(t, []string{"help"}, calls)
}

type codedError struct{}

func (codedError) Error() string { return "coded" }
func (codedError) Code() string  { return "quota exceeded" }

type plainError struct{}

func (*plainError) Error() string { return "plain" }

func TestDeriveErrorCode(t *testing.T) {
	assert.Equal(t, "QUOTA_EXCEEDED", deriveErrorCode(codedError{}))
	assert.Equal(t, "PLAINERROR", deriveErrorCode(&plainError{}))
	assert.Equal(t, "", deriveErrorCode(nil))
	assert.NotEmpty(t, deriveErrorCode(errors.New("x")))
}

func TestNormalizeHandlerName(t *testing.T) {
	assert.Equal(t, "upload", normalizeHandlerName("/upload"))
	assert.Equal(t, "year", normalizeHandlerName("year_"))
	assert.Equal(t, "unknown", normalizeHandlerName(" "))
}
