package render

import (
	"encoding/json"
	"slices"
	"strings"

	"github.com/alecthomas/chroma/v2"
	"github.com/alecthomas/chroma/v2/lexers"

	"blocknotes/internal/domain"
)

const DefaultLanguage = "plaintext"

// Languages is the fixed set offered by the code block language selector.
var Languages = []string{
	"plaintext", "javascript", "typescript", "python", "go", "java",
	"c", "cpp", "csharp", "html", "css", "sql", "json", "bash",
}

func KnownLanguage(lang string) bool { return slices.Contains(Languages, lang) }

// CodeContent is the stored content of a code block.
type CodeContent struct {
	Language string `json:"language"`
	Content  string `json:"content"`
}

// ParseCodeContent decodes stored code block content. It never fails:
// anything that is not the JSON form is shown as plain text, and an unknown
// language falls back to DefaultLanguage.
func ParseCodeContent(raw string) CodeContent {
	var c CodeContent
	if !strings.HasPrefix(strings.TrimSpace(raw), "{") || json.Unmarshal([]byte(raw), &c) != nil {
		return CodeContent{Language: DefaultLanguage, Content: raw}
	}
	if !KnownLanguage(c.Language) {
		c.Language = DefaultLanguage
	}
	return c
}

func (c CodeContent) Marshal() string {
	data, _ := json.Marshal(c)
	return string(data)
}

type codeRenderer struct{}

func codeOf(b domain.Block) CodeContent {
	c := ParseCodeContent(b.Content)
	if c.Language == DefaultLanguage && KnownLanguage(b.Language) {
		c.Language = b.Language
	}
	return c
}

func (codeRenderer) Render(b domain.Block) Node {
	c := codeOf(b)
	id := b.ID.String()

	options := make([]Node, 0, len(Languages))
	for _, lang := range Languages {
		attrs := map[string]string{"value": lang}
		if lang == c.Language {
			attrs["selected"] = "selected"
		}
		options = append(options, El("option", attrs, Txt(lang)))
	}
	selector := El("select", map[string]string{
		"class":         "code-language",
		"data-block-id": id,
		"data-input":    "language",
	}, options...)

	surface := El("pre", map[string]string{
		"class":           "block-code-surface",
		"contenteditable": "true",
		"spellcheck":      "false",
		"data-block-id":   id,
		"data-input":      "code",
	}, El("code", map[string]string{"class": "language-" + c.Language}, Highlight(c.Language, c.Content)...))

	return El("div", map[string]string{"class": "block-code"}, selector, surface)
}

func (codeRenderer) Input(b domain.Block, ev InputEvent) (string, error) {
	c := codeOf(b)
	if ev.Language != "" {
		c.Language = ev.Language
		if !KnownLanguage(c.Language) {
			c.Language = DefaultLanguage
		}
	} else {
		c.Content = ev.Text
	}
	return c.Marshal(), nil
}

// Highlight splits code into token spans classed with chroma's short
// token names.
func Highlight(lang, code string) []Node {
	if code == "" {
		return nil
	}
	lexer := lexers.Get(lang)
	if lexer == nil {
		lexer = lexers.Fallback
	}
	lexer = chroma.Coalesce(lexer)
	it, err := lexer.Tokenise(nil, code)
	if err != nil {
		return []Node{Txt(code)}
	}
	var nodes []Node
	for _, tok := range it.Tokens() {
		if cls := chroma.StandardTypes[tok.Type]; cls != "" {
			nodes = append(nodes, El("span", map[string]string{"class": cls}, Txt(tok.Value)))
			continue
		}
		nodes = append(nodes, Txt(tok.Value))
	}
	return nodes
}
