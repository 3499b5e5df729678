package translate

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
)

// Fallback strings for card payloads that cannot be rendered as a source
// table. Kept in the upstream's language: they are answer content, shown to
// the caller inline with the (Chinese) search results they replace.
const (
	// UnparseableCardMessage replaces cards that fail to parse or contain no
	// source rows.
	UnparseableCardMessage = "无法解析的新闻内容"

	// UnsupportedCardMessage replaces cards of a type the gateway does not
	// render.
	UnsupportedCardMessage = "不支持的 card 类型"
)

// sourceTableHeader opens the markdown table of cited sources.
const sourceTableHeader = "\n\n| 序号 | 网站URL | 来源 |\n| ---- | ---- | ---- |"

// Card shape recognized by the renderer: the search-sources card.
const (
	cardTypeSearch     = "DB-CARD-2"
	cardItemTypeSource = "2002"
)

// cardOutcome classifies a card parse attempt. Every outcome maps to a
// deterministic rendering; parse problems never propagate as errors.
type cardOutcome int

const (
	// cardRecognized: valid JSON of the recognized search-sources shape.
	cardRecognized cardOutcome = iota

	// cardUnrecognized: valid JSON, but a cardType the gateway cannot render.
	cardUnrecognized

	// cardInvalid: not valid JSON, or a nested source list failed to decode.
	cardInvalid
)

// cardPayload is the outer card envelope.
type cardPayload struct {
	CardType string   `json:"cardType"`
	CardInfo cardInfo `json:"cardInfo"`
}

type cardInfo struct {
	CardItems []cardItem `json:"cardItems"`
}

type cardItem struct {
	Type string `json:"type"`

	// Content is itself a JSON document, serialized as a string.
	Content string `json:"content"`
}

// cardSource is one cited source record inside a search-sources item.
type cardSource struct {
	IDIndex  flexString `json:"idIndex"`
	Name     string     `json:"name"`
	URL      string     `json:"url"`
	SiteName string     `json:"siteName"`
}

// flexString decodes JSON values that arrive as either a string or a
// number. Upstream card payloads are inconsistent about idIndex.
type flexString string

func (f *flexString) UnmarshalJSON(b []byte) error {
	if len(b) > 0 && b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*f = flexString(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(b, &n); err != nil {
		return err
	}
	*f = flexString(n.String())
	return nil
}

// RenderCard turns a raw card payload into markdown. It always returns a
// string: recognized search-sources cards become a markdown table of cited
// sources, anything else becomes one of the fixed fallback strings.
func RenderCard(raw string) string {
	outcome, rows := parseCard(raw)
	switch outcome {
	case cardRecognized:
		if len(rows) == 0 {
			return UnparseableCardMessage
		}
		return sourceTableHeader + "\n" + strings.Join(rows, "\n")
	case cardUnrecognized:
		return UnsupportedCardMessage
	default:
		slog.Warn("unparseable card payload", "content", truncateForLog(raw, 200))
		return UnparseableCardMessage
	}
}

// parseCard decodes a raw card payload and pre-renders its table rows.
// Any decode failure, outer or nested, yields cardInvalid.
func parseCard(raw string) (cardOutcome, []string) {
	var payload cardPayload
	if err := json.Unmarshal([]byte(raw), &payload); err != nil {
		return cardInvalid, nil
	}
	if payload.CardType != cardTypeSearch {
		return cardUnrecognized, nil
	}

	var rows []string
	for _, item := range payload.CardInfo.CardItems {
		if item.Type != cardItemTypeSource {
			continue
		}
		var sources []cardSource
		content := item.Content
		if content == "" {
			content = "[]"
		}
		if err := json.Unmarshal([]byte(content), &sources); err != nil {
			return cardInvalid, nil
		}
		for _, s := range sources {
			rows = append(rows, fmt.Sprintf("| %s | [%s](%s) | %s |", s.IDIndex, s.Name, s.URL, s.SiteName))
		}
	}
	return cardRecognized, rows
}

// truncateForLog bounds logged payload excerpts.
func truncateForLog(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max] + "..."
}
