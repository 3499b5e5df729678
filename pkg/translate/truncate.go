package translate

import "unicode/utf8"

// Truncate bounds the total character count of a conversation while keeping
// the most recent turns. Characters are counted as runes, summed over
// message content only.
//
// Messages whose role is neither user nor assistant (system prompts) are
// always kept in full. The remaining budget is filled with user/assistant
// turns walking from the newest backward; the walk stops at the first turn
// that no longer fits, so the retained turns are a contiguous trailing
// suffix of the conversation. If the preserved messages alone exceed the
// budget, only those are returned.
//
// The result lists preserved messages first, then the retained turns, each
// group in original order. Truncate is a pure function; the input slice is
// never modified.
func Truncate(messages []Message, maxChars int) []Message {
	total := 0
	for _, m := range messages {
		total += utf8.RuneCountInString(m.Content)
	}
	if total <= maxChars {
		return messages
	}

	var preserved []Message
	var turns []Message
	preservedChars := 0
	for _, m := range messages {
		if m.Role == RoleUser || m.Role == RoleAssistant {
			turns = append(turns, m)
		} else {
			preserved = append(preserved, m)
			preservedChars += utf8.RuneCountInString(m.Content)
		}
	}

	available := maxChars - preservedChars
	if available <= 0 {
		return preserved
	}

	// Walk newest to oldest, stopping at the first turn that does not fit.
	kept := 0
	used := 0
	for i := len(turns) - 1; i >= 0; i-- {
		n := utf8.RuneCountInString(turns[i].Content)
		if used+n > available {
			break
		}
		used += n
		kept++
	}

	out := make([]Message, 0, len(preserved)+kept)
	out = append(out, preserved...)
	out = append(out, turns[len(turns)-kept:]...)
	return out
}
