package render

import (
	"errors"
	"fmt"

	"blocknotes/internal/domain"
	"blocknotes/internal/format"
)

// ErrNotEditable is returned for input on blocks that cannot be edited in place.
var ErrNotEditable = errors.New("block is not editable in place")

// InputEvent is what the presentation layer reports when a block surface changes.
type InputEvent struct {
	Markup   string `json:"markup,omitempty"`   // inner markup of a text surface
	Text     string `json:"text,omitempty"`     // text of a code surface
	Language string `json:"language,omitempty"` // value of a code language selector
}

// Renderer draws one block type and turns its surface input back into
// stored content.
type Renderer interface {
	Render(b domain.Block) Node
	Input(b domain.Block, ev InputEvent) (string, error)
}

var renderers = map[domain.BlockType]Renderer{
	domain.BlockTypeText:  textRenderer{},
	domain.BlockTypeCode:  codeRenderer{},
	domain.BlockTypeImage: imageRenderer{},
}

// For returns the renderer of a block type.
func For(t domain.BlockType) (Renderer, error) {
	r, ok := renderers[t]
	if !ok {
		return nil, fmt.Errorf("unknown block type %q", t)
	}
	return r, nil
}

// Block renders b inside the container every block shares: a keyed wrapper
// with a drag/insert handle.
func Block(b domain.Block) Node {
	id := b.ID.String()
	var body Node
	if r, err := For(b.Type); err == nil {
		body = r.Render(b)
	} else {
		body = El("div", map[string]string{"class": "block-unknown"}, Txt(err.Error()))
	}
	return Node{
		Tag: "div",
		Key: id,
		Attrs: map[string]string{
			"class":           "block block-" + string(b.Type),
			"data-block-id":   id,
			"data-block-type": string(b.Type),
		},
		Children: []Node{
			El("span", map[string]string{
				"class":         "block-handle",
				"data-action":   "insert",
				"data-block-id": id,
				"draggable":     "true",
			}, Txt("⋮⋮")),
			body,
		},
	}
}

// Blocks renders a whole block sequence.
func Blocks(blocks []domain.Block) Node {
	children := make([]Node, 0, len(blocks))
	for _, b := range blocks {
		children = append(children, Block(b))
	}
	return Node{Tag: "div", Attrs: map[string]string{"class": "blocks"}, Children: children}
}

// ── text ───────────────────────────────────────────────────

type textRenderer struct{}

func (textRenderer) Render(b domain.Block) Node {
	c := format.ParseTextContent(b.Content)
	return Node{
		Tag: "div",
		Attrs: map[string]string{
			"class":            "block-text",
			"contenteditable":  "true",
			"data-block-id":    b.ID.String(),
			"data-input":       "text",
			"data-placeholder": "Введите текст...",
		},
		Markup: c.HTML(),
	}
}

func (textRenderer) Input(_ domain.Block, ev InputEvent) (string, error) {
	text, formats, err := format.ExtractHTML(ev.Markup)
	if err != nil {
		return "", err
	}
	return format.TextContent{Text: text, Formats: formats}.Marshal(), nil
}

// ── image ──────────────────────────────────────────────────

type imageRenderer struct{}

func (imageRenderer) Render(b domain.Block) Node {
	return El("img", map[string]string{
		"class": "block-image",
		"src":   b.Content,
		"alt":   "",
	})
}

func (imageRenderer) Input(domain.Block, InputEvent) (string, error) {
	return "", ErrNotEditable
}
