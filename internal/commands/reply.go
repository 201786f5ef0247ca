package commands

import (
	"fmt"
	"strings"

	"server-tempo/internal/command"
)

const (
	EmojiSuccess   = "☑️"
	EmojiError     = "❌"
	EmojiWait      = "⏳"
	EmojiInfo      = "ℹ️"
	EmojiSeparator = "•"
)

// Cancelled is appended to replies that abort a command.
const Cancelled = " - this command has been cancelled"

// Succeed replies publicly with "☑️ @user, <message>".
func Succeed(ctx *command.Context, format string, args ...any) error {
	return ctx.Reply(&command.Response{Content: Line(ctx, EmojiSuccess, format, args...)})
}

// Fail replies ephemerally with "❌ @user, <message>".
func Fail(ctx *command.Context, format string, args ...any) error {
	return ctx.Reply(&command.Response{Content: Line(ctx, EmojiError, format, args...), Ephemeral: true})
}

// Line formats a reply addressed to the invoking user.
func Line(ctx *command.Context, emoji, format string, args ...any) string {
	return fmt.Sprintf("%s %s, %s", emoji, ctx.Mention(), fmt.Sprintf(format, args...))
}

// Truncate shortens s to n runes, marking the cut with "...".
func Truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	if n <= 3 {
		return string(r[:n])
	}
	return string(r[:n-3]) + "..."
}

// TitleCase turns "music-dj" into "Music Dj".
func TitleCase(s string) string {
	words := strings.Fields(strings.ReplaceAll(s, "-", " "))
	for i, w := range words {
		r := []rune(w)
		words[i] = strings.ToUpper(string(r[0])) + string(r[1:])
	}
	return strings.Join(words, " ")
}

// Mentions renders ids with a mention prefix such as "<#" or "<@&".
func Mentions(prefix string, ids []string) string {
	out := make([]string, len(ids))
	for i, id := range ids {
		out[i] = prefix + id + ">"
	}
	return strings.Join(out, ", ")
}
