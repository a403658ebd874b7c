// Package format converts between the stored representation of a text block
// (plain text plus offset-addressed style ranges) and the markup shown on an
// editable surface.
package format

import (
	"sort"
	"strings"

	"blocknotes/internal/domain"
)

type tag struct {
	open  string
	close string
}

type boundary struct {
	opens  []string
	closes []string
}

var textEscaper = strings.NewReplacer(
	"&", "&amp;",
	"<", "&lt;",
	">", "&gt;",
	`"`, "&quot;",
	"\n", "<br>",
	"\r", "&#13;",
)

var attrEscaper = strings.NewReplacer(
	"&", "&amp;",
	"<", "&lt;",
	">", "&gt;",
	`"`, "&quot;",
)

// Escape escapes the four XML-significant characters, turns newlines into
// line breaks and writes carriage returns as character references so the
// parser does not fold them into newlines.
func Escape(s string) string {
	return textEscaper.Replace(s)
}

// Reconstruct renders text with its format ranges as inline markup.
//
// Tags are collected per offset. At a shared offset every closing tag is
// written before any opening tag; closing tags are ordered reverse
// alphabetically and opening tags alphabetically. The ordering is
// deterministic but not nesting-aware, so overlapping ranges can produce
// misnested markup that an HTML parser has to repair.
func Reconstruct(text string, formats []domain.TextFormat) string {
	if len(formats) == 0 {
		return Escape(text)
	}
	runes := []rune(text)

	bounds := make(map[int]*boundary)
	at := func(off int) *boundary {
		b, ok := bounds[off]
		if !ok {
			b = &boundary{}
			bounds[off] = b
		}
		return b
	}
	for _, f := range formats {
		if !f.Valid(len(runes)) {
			continue
		}
		for _, t := range tagsFor(f.Style()) {
			at(f.StartOffset).opens = append(at(f.StartOffset).opens, t.open)
			at(f.EndOffset).closes = append(at(f.EndOffset).closes, t.close)
		}
	}
	if len(bounds) == 0 {
		return Escape(text)
	}

	offsets := make([]int, 0, len(bounds))
	for off := range bounds {
		offsets = append(offsets, off)
	}
	sort.Ints(offsets)

	var sb strings.Builder
	prev := 0
	for _, off := range offsets {
		sb.WriteString(Escape(string(runes[prev:off])))
		b := bounds[off]
		sort.Sort(sort.Reverse(sort.StringSlice(b.closes)))
		sort.Strings(b.opens)
		for _, c := range b.closes {
			sb.WriteString(c)
		}
		for _, o := range b.opens {
			sb.WriteString(o)
		}
		prev = off
	}
	sb.WriteString(Escape(string(runes[prev:])))
	return sb.String()
}

func tagsFor(s domain.Style) []tag {
	var tags []tag
	if s.Bold {
		tags = append(tags, tag{"<b>", "</b>"})
	}
	if s.Italic {
		tags = append(tags, tag{"<i>", "</i>"})
	}
	if s.Underline {
		tags = append(tags, tag{"<u>", "</u>"})
	}
	if s.Strikethrough {
		tags = append(tags, tag{"<s>", "</s>"})
	}
	if s.Font != "" || s.Size != "" {
		var open strings.Builder
		open.WriteString("<font")
		if s.Font != "" {
			open.WriteString(` face="` + attrEscaper.Replace(s.Font) + `"`)
		}
		if s.Size != "" {
			open.WriteString(` style="font-size: ` + attrEscaper.Replace(s.Size) + `"`)
		}
		open.WriteString(">")
		tags = append(tags, tag{open.String(), "</font>"})
	}
	if s.Link != "" {
		tags = append(tags, tag{`<a href="` + attrEscaper.Replace(s.Link) + `">`, "</a>"})
	}
	return tags
}
