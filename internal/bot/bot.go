// Package bot adapts Telegram updates to the upload conversation and renders
// its replies back into the chat.
package bot

import (
	"context"
	"fmt"
	"io"
	"strings"

	tg "github.com/m3rciful/billbot/core/telegram"
	"github.com/m3rciful/billbot/core/telegram/commands"
	tghelpers "github.com/m3rciful/billbot/core/telegram/helpers"
	"github.com/m3rciful/billbot/core/telegram/router"
	"github.com/m3rciful/billbot/internal/flow"

	tele "gopkg.in/telebot.v4"
)

// MaxFileSize is the largest document the Bot API lets bots download.
const MaxFileSize = 20 << 20

// api is what the handlers need from the bot: sending, editing and
// downloading files.
type api interface {
	messenger
	File(file *tele.File) (io.ReadCloser, error)
}

// Conversation handles one flow event at a time per user.
type Conversation interface {
	Handle(ctx context.Context, ev flow.Event, r flow.Replier) error
}

// Handlers converts updates into flow events.
type Handlers struct {
	conv Conversation
	// apiFor resolves the Bot API for an update; tests replace it.
	apiFor func(c tele.Context) api
}

// New returns handlers that feed conv.
func New(conv Conversation) *Handlers {
	return &Handlers{
		conv:   conv,
		apiFor: func(c tele.Context) api { return c.Bot() },
	}
}

var commandList = []struct {
	name        string
	description string
	hidden      bool
}{
	{flow.CommandStart, "Welcome message", true},
	{flow.CommandUpload, "Upload a bill", false},
	{flow.CommandCancel, "Cancel the current upload", false},
	{flow.CommandHistory, "Show recent uploads", false},
	{flow.CommandHelp, "How to use the bot", false},
}

// Register adds the commands and callback prefixes to reg.
func (h *Handlers) Register(reg *tg.Registry) error {
	for _, cmd := range commandList {
		err := reg.RegisterCommand("/"+cmd.name, commands.Command{
			Handler:     h.command(cmd.name),
			Description: cmd.description,
			Hidden:      cmd.hidden,
		})
		if err != nil {
			return err
		}
	}
	for _, prefix := range flow.CallbackPrefixes {
		if err := reg.RegisterCallback(prefix, h.onCallback); err != nil {
			return err
		}
	}
	return nil
}

// Routes registers everything on reg and returns the bot routes.
func (h *Handlers) Routes(reg *tg.Registry) ([]tg.Route, error) {
	if err := h.Register(reg); err != nil {
		return nil, err
	}
	routes := router.CommandRoutes(reg)
	routes = append(routes, router.CallbackRoute(reg))
	routes = append(routes, router.TextRoutes(reg, router.TextOptions{
		Text:           h.onText,
		Document:       h.onDocument,
		UnknownCommand: h.onUnknownCommand,
	})...)
	return routes, nil
}

func (h *Handlers) command(name string) tele.HandlerFunc {
	return func(c tele.Context) error {
		return h.dispatch(c, flow.Event{Kind: flow.EventCommand, Command: name}, nil)
	}
}

func (h *Handlers) onUnknownCommand(c tele.Context) error {
	return h.dispatch(c, flow.Event{Kind: flow.EventCommand, Command: commandName(c.Text())}, nil)
}

func (h *Handlers) onText(c tele.Context) error {
	return h.dispatch(c, flow.Event{Kind: flow.EventText, Text: c.Text()}, nil)
}

func (h *Handlers) onDocument(c tele.Context) error {
	msg := c.Message()
	if msg == nil || msg.Document == nil {
		return nil
	}
	doc := msg.Document
	bot := h.apiFor(c)
	file := &flow.File{
		Name: doc.FileName,
		Size: doc.FileSize,
		Fetch: func(context.Context) ([]byte, error) {
			return download(bot, &doc.File, doc.FileSize)
		},
	}
	return h.dispatch(c, flow.Event{Kind: flow.EventFile, File: file}, nil)
}

func (h *Handlers) onCallback(c tele.Context) error {
	cb := c.Callback()
	if cb == nil {
		return nil
	}
	return h.dispatch(c, flow.Event{Kind: flow.EventCallback, Callback: cb.Data}, cb.Message)
}

func (h *Handlers) dispatch(c tele.Context, ev flow.Event, anchor *tele.Message) error {
	user := c.Sender()
	if user == nil {
		return nil
	}
	ev.UserID = user.ID
	ctx := tghelpers.BuildContext(c)
	r := newChatReplier(h.apiFor(c), c.Recipient(), anchor, c)
	return h.conv.Handle(ctx, ev, r)
}

func download(bot api, f *tele.File, size int64) ([]byte, error) {
	if size > MaxFileSize {
		return nil, fmt.Errorf("file is %d MB, the limit is %d MB", size>>20, MaxFileSize>>20)
	}
	rc, err := bot.File(f)
	if err != nil {
		return nil, err
	}
	defer rc.Close()
	data, err := io.ReadAll(io.LimitReader(rc, MaxFileSize+1))
	if err != nil {
		return nil, err
	}
	if len(data) > MaxFileSize {
		return nil, fmt.Errorf("file exceeds %d MB", MaxFileSize>>20)
	}
	return data, nil
}

// commandName extracts "upload" from "/upload@billbot now".
func commandName(text string) string {
	name, _, _ := strings.Cut(strings.TrimSpace(text), " ")
	name, _, _ = strings.Cut(name, "@")
	return strings.ToLower(strings.TrimPrefix(name, "/"))
}
