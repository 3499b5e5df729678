package translate

import "regexp"

// detailsPattern matches an upstream details wrapper, non-greedy, across
// newlines. The upstream embeds collapsible UI blocks in stream content;
// they are stripped before any other handling.
var detailsPattern = regexp.MustCompile(`(?s)<details>.*?</details>`)

// Segmenter is the per-request state machine that orders upstream events
// into the fragment sequence of one assistant message.
//
// The machine has two states, answer text (the default) and thinking. State
// changes are driven purely by the content type of each event; crossing
// into or out of the thinking state inserts the synthetic ThinkOpen /
// ThinkClose marker fragments, so every reasoning span in the output is
// properly delimited no matter how the upstream interleaves content.
//
// Card events are rendered to markdown on arrival. Models flagged as
// card-deferring hold the latest render back (last write wins) and append
// it after the answer body during Finish; all other models emit the render
// inline, in arrival order.
//
// A Segmenter is request-local and not safe for concurrent use.
type Segmenter struct {
	deferCards bool
	thinking   bool
	pending    string
	hasPending bool
	finished   bool
}

// NewSegmenter returns a fresh segmenter. deferCards selects the deferred
// card behavior of the deepseek-r1 model family.
func NewSegmenter(deferCards bool) *Segmenter {
	return &Segmenter{deferCards: deferCards}
}

// Feed advances the machine with one upstream event and returns the
// fragments it produces, in emission order. Events with empty content
// (after details stripping) and events of unknown type produce nothing and
// cause no transition.
func (s *Segmenter) Feed(ev Event) []Fragment {
	if s.finished {
		return nil
	}

	content := detailsPattern.ReplaceAllString(ev.Content, "")
	if content == "" {
		return nil
	}

	switch ev.Type {
	case ContentThinking:
		var frags []Fragment
		if !s.thinking {
			s.thinking = true
			frags = append(frags, Fragment{Content: ThinkOpen})
		}
		return append(frags, Fragment{Content: content})

	case ContentText:
		var frags []Fragment
		if s.thinking {
			s.thinking = false
			frags = append(frags, Fragment{Content: ThinkClose})
		}
		return append(frags, Fragment{Content: content})

	case ContentCard:
		rendered := RenderCard(content)
		if s.deferCards {
			s.pending = rendered
			s.hasPending = true
			return nil
		}
		return []Fragment{{Content: rendered + "\n\n"}}

	default:
		return nil
	}
}

// Finish closes the message: it balances an open thinking span, flushes a
// deferred card, and appends the terminal stop fragment. It runs exactly
// once; later calls return nil. Finish must be called however the upstream
// stream ended, so truncated streams still yield a well-formed message.
func (s *Segmenter) Finish() []Fragment {
	if s.finished {
		return nil
	}
	s.finished = true

	var frags []Fragment
	if s.thinking {
		s.thinking = false
		frags = append(frags, Fragment{Content: ThinkClose})
	}
	if s.hasPending {
		frags = append(frags, Fragment{Content: s.pending + "\n\n"})
		s.hasPending = false
	}
	return append(frags, Fragment{Stop: true})
}
