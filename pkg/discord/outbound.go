// Copyright 2024-2026 Aiku AI

package discord

import "strings"

var markdownEscaper = strings.NewReplacer(
	`\`, `\\`,
	"*", `\*`,
	"_", `\_`,
	"~", `\~`,
	"`", "\\`",
	"|", `\|`,
	">", `\>`,
)

// EscapeMarkdown escapes Discord markdown control characters in
// game-originated text so player input renders literally.
func EscapeMarkdown(text string) string {
	return markdownEscaper.Replace(text)
}

// SanitizeMentions neutralizes mass mentions in outbound content by
// inserting a zero-width space after the @, so relayed game chat can
// never ping @everyone or @here.
func SanitizeMentions(text string) string {
	text = strings.ReplaceAll(text, "@everyone", "@​everyone")
	return strings.ReplaceAll(text, "@here", "@​here")
}
