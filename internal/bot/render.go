package bot

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/m3rciful/billbot/core/telegram/format"
	"github.com/m3rciful/billbot/core/telegram/keyboard"
	"github.com/m3rciful/billbot/internal/bills"
	"github.com/m3rciful/billbot/internal/flow"
	"github.com/m3rciful/billbot/internal/journal"

	tele "gopkg.in/telebot.v4"
)

const helpText = `*Bill upload bot*

/upload - file a new bill: pick year, month, company and type, then send the PDF
/cancel - abort the current upload
/history - your latest uploads
/help - this message

Files are stored as ` + "`<year>/<month>/<company>/Invoice.pdf`" + ` or ` + "`Receipt.pdf`" + `.`

// Render turns a reply into Markdown text.
func Render(r flow.Reply) string {
	switch r.Kind {
	case flow.ReplyWelcome:
		return "👋 Hi! I file utility bills into cloud storage.\nSend /upload to start or /help for details."
	case flow.ReplyHelp:
		return helpText
	case flow.ReplyUnknownCommand:
		return "Unknown command. Send /help to see what I can do."
	case flow.ReplyAskYear:
		return "📅 Select the year:"
	case flow.ReplyAskManualYear:
		return fmt.Sprintf("⌨️ Type the year (%d to %d):", bills.MinYear, bills.MaxYear)
	case flow.ReplyAskMonth:
		return withSummary(r.Metadata, "📆 Select the month:")
	case flow.ReplyAskCompany:
		return withSummary(r.Metadata, "🏢 Select the company:")
	case flow.ReplyAskDocumentType:
		return withSummary(r.Metadata, "📄 Select the document type:")
	case flow.ReplyAskFile:
		return withSummary(r.Metadata, "📎 Now send the PDF file.")
	case flow.ReplyInvalidYear:
		return fmt.Sprintf("❌ %s. Enter a year between %d and %d.", format.EscapeMarkdown(capitalize(r.Reason)), bills.MinYear, bills.MaxYear)
	case flow.ReplyNotPDF:
		return fmt.Sprintf("❌ Only PDF files are accepted, got %s. Please send a .pdf file.", format.Code(r.FileName))
	case flow.ReplyGuidance:
		return "Send /upload to start filing a bill."
	case flow.ReplyStartFirst:
		return "Start with /upload and choose the bill details before sending a file."
	case flow.ReplyCancelled:
		return "🚫 Upload cancelled."
	case flow.ReplyUploading:
		return "⏳ Uploading..."
	case flow.ReplyOverwriting:
		return "⏳ Replacing the existing file..."
	case flow.ReplyUploaded:
		return fmt.Sprintf("✅ Uploaded %s to %s", format.Bold(r.FileName), format.Code(bills.DisplayPath(r.Path)))
	case flow.ReplyOverwritten:
		return fmt.Sprintf("✅ Replaced %s at %s", format.Bold(r.FileName), format.Code(bills.DisplayPath(r.Path)))
	case flow.ReplyConfirmOverwrite:
		return fmt.Sprintf("⚠️ %s already exists. Overwrite it?", format.Code(bills.DisplayPath(r.Path)))
	case flow.ReplyFailed:
		return fmt.Sprintf("❌ Upload failed: %s\nSend /upload to try again.", format.EscapeMarkdown(r.Reason))
	case flow.ReplyHistory:
		return renderHistory(r.History)
	case flow.ReplyHistoryDisabled:
		return "Upload history is not enabled on this bot."
	case flow.ReplyHistoryFailed:
		return "❌ Upload history is unavailable right now."
	}
	return "Something went wrong. Send /upload to start over."
}

// Markup builds the inline keyboard for a reply, or nil when it has none.
func Markup(r flow.Reply) *tele.ReplyMarkup {
	if len(r.Choices) == 0 {
		return nil
	}
	rows := make([][]keyboard.InlineBtn, len(r.Choices))
	for i, row := range r.Choices {
		rows[i] = make([]keyboard.InlineBtn, len(row))
		for j, c := range row {
			rows[i][j] = keyboard.InlineBtn{Text: c.Label, Data: c.Data}
		}
	}
	return keyboard.InlineButtonsRows(rows...)
}

func withSummary(m bills.Metadata, prompt string) string {
	var b strings.Builder
	if m.Year != 0 {
		b.WriteString("Year: " + format.Bold(strconv.Itoa(m.Year)) + "\n")
	}
	if m.Month.Valid() {
		b.WriteString("Month: " + format.Bold(m.Month.String()) + "\n")
	}
	if m.Company != "" {
		b.WriteString("Company: " + format.Bold(m.Company.DisplayName()) + "\n")
	}
	if m.DocumentType != "" {
		b.WriteString("Type: " + format.Bold(string(m.DocumentType)) + "\n")
	}
	if b.Len() > 0 {
		b.WriteString("\n")
	}
	b.WriteString(prompt)
	return b.String()
}

func renderHistory(entries []journal.Entry) string {
	if len(entries) == 0 {
		return "No uploads recorded yet."
	}
	var b strings.Builder
	b.WriteString("🗂 *Recent uploads*\n")
	for i, e := range entries {
		fmt.Fprintf(&b, "\n%d. %s %s %s", i+1,
			e.CreatedAt.Local().Format("2006-01-02 15:04"),
			outcomeIcon(e.Outcome),
			format.Code(bills.DisplayPath(e.Path)),
		)
	}
	return b.String()
}

func outcomeIcon(outcome string) string {
	switch outcome {
	case journal.OutcomeUploaded:
		return "✅"
	case journal.OutcomeOverwritten:
		return "♻️"
	default:
		return "❌"
	}
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}
