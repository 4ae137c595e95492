package bot

import (
	"context"
	"errors"
	"log/slog"

	"github.com/m3rciful/billbot/core/logger"
	tghelpers "github.com/m3rciful/billbot/core/telegram/helpers"
	"github.com/m3rciful/billbot/core/telegram/middleware"
	"github.com/m3rciful/billbot/internal/flow"

	tele "gopkg.in/telebot.v4"
)

// messenger is the slice of the Bot API a chat replier needs. *tele.Bot
// satisfies it.
type messenger interface {
	Send(to tele.Recipient, what interface{}, opts ...interface{}) (*tele.Message, error)
	Edit(msg tele.Editable, what interface{}, opts ...interface{}) (*tele.Message, error)
}

// chatReplier delivers flow replies into one chat. It remembers the message
// the conversation is anchored to, either the pressed keyboard or the last
// message it sent, so replies marked Edit replace it in place.
type chatReplier struct {
	api    messenger
	to     tele.Recipient
	anchor *tele.Message
	// c receives reply counters for the handler summary; may be nil.
	c tele.Context
}

func newChatReplier(api messenger, to tele.Recipient, anchor *tele.Message, c tele.Context) *chatReplier {
	return &chatReplier{api: api, to: to, anchor: anchor, c: c}
}

func (r *chatReplier) Reply(ctx context.Context, reply flow.Reply) error {
	text := Render(reply)
	markup := Markup(reply)
	opts := tghelpers.MarkdownOptions(markup)

	if reply.Edit && r.anchor != nil {
		msg, err := r.api.Edit(r.anchor, text, opts)
		switch {
		case err == nil:
			if msg != nil {
				r.anchor = msg
			}
			r.count(markup != nil)
			return nil
		case errors.Is(err, tele.ErrSameMessageContent):
			return nil
		}
		logger.Warn(ctx, "tg", "reply.edit",
			slog.String("status", "fail"),
			slog.String("kind", string(reply.Kind)),
			logger.Err(err),
		)
	}

	msg, err := r.api.Send(r.to, text, opts)
	if err != nil {
		return err
	}
	r.anchor = msg
	r.count(markup != nil)
	return nil
}

func (r *chatReplier) count(keyboard bool) {
	if r.c != nil {
		middleware.CountReply(r.c, keyboard)
	}
}
