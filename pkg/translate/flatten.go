package translate

import (
	"regexp"
	"strings"
	"unicode"
)

// thinkSpanPattern matches a complete think span, non-greedy, across
// newlines. Assistant turns fed back by clients carry these spans from
// earlier responses; they must not reach the upstream question.
var thinkSpanPattern = regexp.MustCompile(`(?s)<think>.*?</think>`)

// Flatten folds an ordered message list into the single free-text question
// string the upstream chat payload expects.
//
// Each message has its think spans stripped and surrounding whitespace
// trimmed. Messages left empty by that are skipped entirely; surviving
// messages become one "Role: content" line with the role capitalized.
// Lines are joined with a newline, in original message order.
func Flatten(messages []Message) string {
	lines := make([]string, 0, len(messages))
	for _, m := range messages {
		content := strings.TrimSpace(thinkSpanPattern.ReplaceAllString(m.Content, ""))
		if content == "" {
			continue
		}
		lines = append(lines, capitalizeRole(m.Role)+": "+content)
	}
	return strings.Join(lines, "\n")
}

// capitalizeRole upper-cases the first rune and lower-cases the rest, e.g.
// "user" -> "User".
func capitalizeRole(role string) string {
	if role == "" {
		return role
	}
	r := []rune(strings.ToLower(role))
	r[0] = unicode.ToUpper(r[0])
	return string(r)
}
