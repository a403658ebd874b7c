package editor

import (
	"context"
	"strings"

	"blocknotes/internal/domain"
	"blocknotes/internal/format"
	"blocknotes/internal/render"
)

// textSelection validates sel against a text block and returns its parsed
// content with the selection clamped to it.
func (m *Manager) textSelection(sel Selection) (format.TextContent, Selection, error) {
	b, ok := m.Block(sel.Block)
	if !ok {
		return format.TextContent{}, sel, ErrNoBlock
	}
	if b.Type != domain.BlockTypeText {
		return format.TextContent{}, sel, ErrNotTextBlock
	}
	c := format.ParseTextContent(b.Content)
	sel.Start = max(0, min(sel.Start, c.Len()))
	sel.End = max(0, min(sel.End, c.Len()))
	if sel.Start > sel.End {
		sel.Start, sel.End = sel.End, sel.Start
	}
	if sel.Start == sel.End {
		return c, sel, ErrEmptySelection
	}
	return c, sel, nil
}

// ApplyFormat styles the selected text. A selection covering exactly one
// styled range updates that range instead of nesting another. The
// selection is restored after the redraw.
func (m *Manager) ApplyFormat(sel Selection, style domain.Style) error {
	c, sel, err := m.textSelection(sel)
	if err != nil {
		return err
	}
	next, _ := c.ApplyStyle(sel.Start, sel.End, style)
	m.UpdateBlockContent(sel.Block, next.Marshal())
	m.Render()
	if m.surface != nil {
		m.surface.Select(sel)
	}
	return nil
}

// SplitIntoCode turns the selected part of a text block into a code block,
// replacing the original with up to three blocks: the text before, the
// code, and the text after. Empty fragments are dropped. Focus moves to
// the code block, whose id is returned.
func (m *Manager) SplitIntoCode(ctx context.Context, sel Selection) (domain.BlockID, error) {
	c, sel, err := m.textSelection(sel)
	if err != nil {
		return domain.BlockID{}, err
	}

	var parts []*entry
	if before := c.Slice(0, sel.Start); strings.TrimSpace(before.Text) != "" {
		b := emptyBlock(domain.BlockTypeText)
		b.Content = before.Marshal()
		parts = append(parts, newEntry(b))
	}
	code := emptyBlock(domain.BlockTypeCode)
	code.Content = render.CodeContent{Language: render.DefaultLanguage, Content: c.Slice(sel.Start, sel.End).Text}.Marshal()
	codeEntry := newEntry(code)
	parts = append(parts, codeEntry)
	if after := c.Slice(sel.End, c.Len()); strings.TrimSpace(after.Text) != "" {
		b := emptyBlock(domain.BlockTypeText)
		b.Content = after.Marshal()
		parts = append(parts, newEntry(b))
	}

	m.mu.Lock()
	i, orig := m.find(sel.Block)
	if orig == nil {
		m.mu.Unlock()
		return domain.BlockID{}, ErrNoBlock
	}
	orig.deleted = true
	m.entries = append(m.entries[:i], m.entries[i+1:]...)
	m.insertAt(i, parts...)
	m.mu.Unlock()

	m.debounce.Cancel(orig.key)
	m.Render()
	if m.surface != nil {
		m.surface.Focus(code.ID)
	}

	// The fragments replace the original on the backend: create them in
	// order, then drop the original.
	for _, p := range parts {
		if err := m.saveEntry(ctx, p.key); err != nil {
			return m.currentID(codeEntry), err
		}
	}
	if sid, ok := sel.Block.ServerID(); ok {
		if err := m.api.DeleteBlock(ctx, domain.ServerID(sid)); err != nil {
			m.status(StatusError)
			return m.currentID(codeEntry), err
		}
	}
	return m.currentID(codeEntry), nil
}

func (m *Manager) currentID(e *entry) domain.BlockID {
	m.mu.Lock()
	defer m.mu.Unlock()
	return e.block.ID
}
