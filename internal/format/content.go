package format

import (
	"encoding/json"
	"sort"
	"strings"
	"unicode/utf8"

	"blocknotes/internal/domain"
)

// TextContent is the stored content of a text block.
type TextContent struct {
	Text    string              `json:"text"`
	Formats []domain.TextFormat `json:"formats"`
}

// ParseTextContent decodes stored text block content. Anything that is not
// the JSON form is taken as plain text; invalid ranges are dropped.
func ParseTextContent(raw string) TextContent {
	if !strings.HasPrefix(strings.TrimSpace(raw), "{") {
		return PlainText(raw)
	}
	var c TextContent
	if err := json.Unmarshal([]byte(raw), &c); err != nil {
		return PlainText(raw)
	}
	c.Formats = clamp(c.Formats, c.Len())
	return c.dropNUL()
}

// PlainText wraps unformatted text as content.
func PlainText(text string) TextContent {
	return TextContent{Text: text}.dropNUL()
}

// dropNUL removes NUL characters, which markup cannot carry, and shifts
// the ranges to match. Ranges left empty are dropped.
func (c TextContent) dropNUL() TextContent {
	if !strings.ContainsRune(c.Text, 0) {
		return c
	}
	runes := []rune(c.Text)
	pos := make([]int, len(runes)+1)
	kept := make([]rune, 0, len(runes))
	for i, r := range runes {
		pos[i] = len(kept)
		if r != 0 {
			kept = append(kept, r)
		}
	}
	pos[len(runes)] = len(kept)

	out := TextContent{Text: string(kept)}
	for _, f := range c.Formats {
		s := pos[max(0, min(f.StartOffset, len(runes)))]
		e := pos[max(0, min(f.EndOffset, len(runes)))]
		if s >= e {
			continue
		}
		f.StartOffset, f.EndOffset = s, e
		out.Formats = append(out.Formats, f)
	}
	return out
}

// Marshal encodes c for storage.
func (c TextContent) Marshal() string {
	if c.Formats == nil {
		c.Formats = []domain.TextFormat{}
	}
	data, _ := json.Marshal(c)
	return string(data)
}

// Len is the text length in code points.
func (c TextContent) Len() int { return utf8.RuneCountInString(c.Text) }

// HTML renders c for an editable surface.
func (c TextContent) HTML() string { return Reconstruct(c.Text, c.Formats) }

// Slice returns the part of c covering [start, end) with its ranges clipped
// and shifted to the new origin.
func (c TextContent) Slice(start, end int) TextContent {
	runes := []rune(c.Text)
	start = max(0, min(start, len(runes)))
	end = max(start, min(end, len(runes)))
	out := TextContent{Text: string(runes[start:end])}
	for _, f := range c.Formats {
		s, e := max(f.StartOffset, start), min(f.EndOffset, end)
		if s >= e {
			continue
		}
		f.StartOffset, f.EndOffset = s-start, e-start
		out.Formats = append(out.Formats, f)
	}
	return out
}

// ApplyStyle styles [start, end). A range covering exactly that span is
// updated in place instead of stacking a second one; otherwise a new range
// is added, leaving text outside the span untouched. It reports the range
// that now carries the style.
func (c TextContent) ApplyStyle(start, end int, s domain.Style) (TextContent, domain.TextFormat) {
	formats := append([]domain.TextFormat(nil), c.Formats...)
	for i, f := range formats {
		if f.StartOffset == start && f.EndOffset == end {
			formats[i] = f.WithStyle(f.Style().Merge(s))
			c.Formats = formats
			return c, formats[i]
		}
	}
	f := domain.TextFormat{StartOffset: start, EndOffset: end}.WithStyle(s)
	formats = append(formats, f)
	sort.SliceStable(formats, func(i, j int) bool { return formats[i].StartOffset < formats[j].StartOffset })
	c.Formats = formats
	return c, f
}
