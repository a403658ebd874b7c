package format

import (
	"bytes"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/yuin/goldmark"

	"blocknotes/internal/domain"
)

var md = goldmark.New()

// FromMarkdown converts markdown into text block content. Emphasis, strong,
// links and headings survive as format ranges; everything else becomes text.
func FromMarkdown(src string) (TextContent, error) {
	var buf bytes.Buffer
	if err := md.Convert([]byte(src), &buf); err != nil {
		return TextContent{}, fmt.Errorf("convert markdown: %w", err)
	}
	text, formats, err := ExtractHTML(buf.String())
	if err != nil {
		return TextContent{}, err
	}
	text = strings.TrimRight(text, "\n")
	return TextContent{Text: text, Formats: clamp(formats, utf8.RuneCountInString(text))}, nil
}

func clamp(formats []domain.TextFormat, textLen int) []domain.TextFormat {
	out := formats[:0]
	for _, f := range formats {
		if f.EndOffset > textLen {
			f.EndOffset = textLen
		}
		if f.Valid(textLen) {
			out = append(out, f)
		}
	}
	return out
}
