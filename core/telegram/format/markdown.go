package format

import "strings"

var markdownV1 = strings.NewReplacer(
	`\`, `\\`,
	"_", `\_`,
	"*", `\*`,
	"`", "\\`",
	"[", `\[`,
)

// EscapeMarkdown escapes characters that Telegram's legacy Markdown treats
// as entity markers so user facing values render literally.
func EscapeMarkdown(text string) string {
	return markdownV1.Replace(text)
}

// Code wraps text in an inline code entity. Backticks inside text are
// dropped because legacy Markdown cannot escape them within code.
func Code(text string) string {
	return "`" + strings.ReplaceAll(text, "`", "") + "`"
}

// Bold wraps escaped text in a bold entity.
func Bold(text string) string {
	return "*" + EscapeMarkdown(text) + "*"
}
