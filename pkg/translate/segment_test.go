package translate

import (
	"reflect"
	"strings"
	"testing"
)

// runSegmenter feeds all events and finishes, returning every fragment in
// emission order.
func runSegmenter(deferCards bool, events []Event) []Fragment {
	seg := NewSegmenter(deferCards)
	var out []Fragment
	for _, ev := range events {
		out = append(out, seg.Feed(ev)...)
	}
	out = append(out, seg.Finish()...)
	return out
}

func contents(fragments []Fragment) []string {
	var out []string
	for _, f := range fragments {
		if !f.Stop {
			out = append(out, f.Content)
		}
	}
	return out
}

func TestSegmenterThinkingThenText(t *testing.T) {
	events := []Event{
		{Type: ContentThinking, Content: "a"},
		{Type: ContentThinking, Content: "b"},
		{Type: ContentText, Content: "c"},
	}

	got := runSegmenter(false, events)
	want := []string{"<think>", "a", "b", "</think>", "c"}
	if !reflect.DeepEqual(contents(got), want) {
		t.Errorf("contents = %v, want %v", contents(got), want)
	}
	if !got[len(got)-1].Stop {
		t.Error("last fragment is not the stop fragment")
	}
}

func TestSegmenterTextOnly(t *testing.T) {
	events := []Event{
		{Type: ContentText, Content: "hello"},
		{Type: ContentText, Content: " world"},
	}

	got := runSegmenter(false, events)
	want := []string{"hello", " world"}
	if !reflect.DeepEqual(contents(got), want) {
		t.Errorf("contents = %v, want %v", contents(got), want)
	}
}

func TestSegmenterThinkingClosedAtFinish(t *testing.T) {
	events := []Event{
		{Type: ContentThinking, Content: "unfinished"},
	}

	got := runSegmenter(false, events)
	want := []string{"<think>", "unfinished", "</think>"}
	if !reflect.DeepEqual(contents(got), want) {
		t.Errorf("contents = %v, want %v", contents(got), want)
	}
}

func TestSegmenterThinkingReopens(t *testing.T) {
	events := []Event{
		{Type: ContentThinking, Content: "t1"},
		{Type: ContentText, Content: "x"},
		{Type: ContentThinking, Content: "t2"},
		{Type: ContentText, Content: "y"},
	}

	got := runSegmenter(false, events)
	want := []string{"<think>", "t1", "</think>", "x", "<think>", "t2", "</think>", "y"}
	if !reflect.DeepEqual(contents(got), want) {
		t.Errorf("contents = %v, want %v", contents(got), want)
	}
}

func TestSegmenterCardInline(t *testing.T) {
	card := `{"cardType":"DB-CARD-2","cardInfo":{"cardItems":[{"type":"2002","content":"[{\"idIndex\":1,\"name\":\"A\",\"url\":\"https://a.test\",\"siteName\":\"SA\"}]"}]}}`
	events := []Event{
		{Type: ContentText, Content: "before"},
		{Type: ContentCard, Content: card},
		{Type: ContentText, Content: "after"},
	}

	got := contents(runSegmenter(false, events))
	if len(got) != 3 {
		t.Fatalf("got %d content fragments, want 3: %v", len(got), got)
	}
	if got[0] != "before" || got[2] != "after" {
		t.Errorf("text fragments out of place: %v", got)
	}
	if !strings.Contains(got[1], "| 1 | [A](https://a.test) | SA |") {
		t.Errorf("card fragment missing table row: %q", got[1])
	}
	if !strings.HasSuffix(got[1], "\n\n") {
		t.Errorf("inline card fragment must end with blank line: %q", got[1])
	}
}

func TestSegmenterCardDeferred(t *testing.T) {
	card := `{"cardType":"DB-CARD-2","cardInfo":{"cardItems":[{"type":"2002","content":"[]"}]}}`

	seg := NewSegmenter(true)
	if frags := seg.Feed(Event{Type: ContentCard, Content: card}); len(frags) != 0 {
		t.Fatalf("deferred card emitted %d fragments mid-stream: %v", len(frags), frags)
	}
	if frags := seg.Feed(Event{Type: ContentText, Content: "answer"}); len(frags) != 1 || frags[0].Content != "answer" {
		t.Fatalf("text after deferred card = %v, want [answer]", frags)
	}

	final := seg.Finish()
	if len(final) != 2 {
		t.Fatalf("Finish() returned %d fragments, want 2: %v", len(final), final)
	}
	if want := UnparseableCardMessage + "\n\n"; final[0].Content != want {
		t.Errorf("flushed card = %q, want %q", final[0].Content, want)
	}
	if !final[1].Stop {
		t.Error("Finish() did not end with the stop fragment")
	}
}

func TestSegmenterDeferredCardLastWriteWins(t *testing.T) {
	first := `{"cardType":"DB-CARD-2","cardInfo":{"cardItems":[{"type":"2002","content":"[{\"idIndex\":1,\"name\":\"Old\",\"url\":\"https://old.test\",\"siteName\":\"SO\"}]"}]}}`
	second := `{"cardType":"DB-CARD-2","cardInfo":{"cardItems":[{"type":"2002","content":"[{\"idIndex\":2,\"name\":\"New\",\"url\":\"https://new.test\",\"siteName\":\"SN\"}]"}]}}`

	got := contents(runSegmenter(true, []Event{
		{Type: ContentCard, Content: first},
		{Type: ContentCard, Content: second},
	}))
	if len(got) != 1 {
		t.Fatalf("got %d content fragments, want 1: %v", len(got), got)
	}
	if strings.Contains(got[0], "Old") || !strings.Contains(got[0], "New") {
		t.Errorf("flush did not keep the most recent card: %q", got[0])
	}
}

func TestSegmenterDeferredCardAfterThinking(t *testing.T) {
	card := `{"cardType":"DB-CARD-2","cardInfo":{"cardItems":[{"type":"2002","content":"[]"}]}}`
	events := []Event{
		{Type: ContentThinking, Content: "t"},
		{Type: ContentCard, Content: card},
	}

	got := contents(runSegmenter(true, events))
	want := []string{"<think>", "t", "</think>", UnparseableCardMessage + "\n\n"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("contents = %v, want %v (think must close before card flush)", got, want)
	}
}

func TestSegmenterDetailsStripped(t *testing.T) {
	tests := []struct {
		name   string
		events []Event
		want   []string
	}{
		{
			name:   "details block removed from text",
			events: []Event{{Type: ContentText, Content: "<details>hidden</details>visible"}},
			want:   []string{"visible"},
		},
		{
			name:   "details block spanning lines removed",
			events: []Event{{Type: ContentText, Content: "a<details>line1\nline2</details>b"}},
			want:   []string{"ab"},
		},
		{
			name:   "pure details event emits nothing",
			events: []Event{{Type: ContentThinking, Content: "<details>only</details>"}},
			want:   nil,
		},
		{
			name: "pure details event does not open think block",
			events: []Event{
				{Type: ContentThinking, Content: "<details>x</details>"},
				{Type: ContentText, Content: "plain"},
			},
			want: []string{"plain"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := contents(runSegmenter(false, tt.events))
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("contents = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestSegmenterIgnoresEmptyAndUnknown(t *testing.T) {
	events := []Event{
		{Type: ContentText, Content: ""},
		{Type: ContentThinking, Content: ""},
		{Type: "audio", Content: "ignored"},
		{Type: ContentText, Content: "kept"},
	}

	got := contents(runSegmenter(false, events))
	want := []string{"kept"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("contents = %v, want %v", got, want)
	}
}

func TestSegmenterStopExactlyOnceAndLast(t *testing.T) {
	events := []Event{
		{Type: ContentThinking, Content: "t"},
		{Type: ContentText, Content: "x"},
		{Type: ContentCard, Content: "bad"},
	}

	for _, deferCards := range []bool{false, true} {
		got := runSegmenter(deferCards, events)
		stops := 0
		for i, f := range got {
			if f.Stop {
				stops++
				if i != len(got)-1 {
					t.Errorf("defer=%v: stop fragment at index %d of %d", deferCards, i, len(got))
				}
			}
		}
		if stops != 1 {
			t.Errorf("defer=%v: %d stop fragments, want exactly 1", deferCards, stops)
		}
	}
}

func TestSegmenterBalancedThinkMarkers(t *testing.T) {
	sequences := [][]Event{
		{{Type: ContentThinking, Content: "a"}},
		{{Type: ContentThinking, Content: "a"}, {Type: ContentText, Content: "b"}},
		{{Type: ContentText, Content: "a"}, {Type: ContentThinking, Content: "b"}},
		{
			{Type: ContentThinking, Content: "a"},
			{Type: ContentText, Content: "b"},
			{Type: ContentThinking, Content: "c"},
		},
	}

	for i, events := range sequences {
		depth := 0
		for _, f := range runSegmenter(false, events) {
			switch f.Content {
			case ThinkOpen:
				depth++
				if depth > 1 {
					t.Errorf("sequence %d: nested %s", i, ThinkOpen)
				}
			case ThinkClose:
				depth--
				if depth < 0 {
					t.Errorf("sequence %d: unmatched %s", i, ThinkClose)
				}
			}
		}
		if depth != 0 {
			t.Errorf("sequence %d: unbalanced think markers, depth %d after finish", i, depth)
		}
	}
}

func TestSegmenterFinishIdempotent(t *testing.T) {
	seg := NewSegmenter(true)
	seg.Feed(Event{Type: ContentThinking, Content: "t"})
	seg.Feed(Event{Type: ContentCard, Content: "bad"})

	first := seg.Finish()
	if len(first) == 0 || !first[len(first)-1].Stop {
		t.Fatalf("first Finish() = %v, want fragments ending in stop", first)
	}
	if second := seg.Finish(); second != nil {
		t.Errorf("second Finish() = %v, want nil", second)
	}
	if after := seg.Feed(Event{Type: ContentText, Content: "late"}); after != nil {
		t.Errorf("Feed after Finish = %v, want nil", after)
	}
}
