package app

// ─────────────────────────────────────────────────────────────
// Editor Handlers. Block ids arrive as the strings the render
// descriptions carry.
// ─────────────────────────────────────────────────────────────

import (
	"errors"
	"fmt"
	"log"

	"blocknotes/internal/domain"
	"blocknotes/internal/editor"
	"blocknotes/internal/render"
)

var errNoEditor = errors.New("no note is open")

// SelectionInput is a text selection reported by the frontend.
type SelectionInput struct {
	BlockID string `json:"blockId"`
	Start   int    `json:"start"`
	End     int    `json:"end"`
}

func (in SelectionInput) selection() (editor.Selection, error) {
	id, err := domain.ParseBlockID(in.BlockID)
	if err != nil {
		return editor.Selection{}, err
	}
	return editor.Selection{Block: id, Start: in.Start, End: in.End}, nil
}

func (a *App) openEditor() (*editor.Manager, error) {
	m := a.pages.Editor()
	if m == nil {
		return nil, errNoEditor
	}
	return m, nil
}

// parseOptionalID parses a block id; the empty string is the zero id.
func parseOptionalID(s string) (domain.BlockID, error) {
	if s == "" {
		return domain.BlockID{}, nil
	}
	return domain.ParseBlockID(s)
}

// ── Blocks ─────────────────────────────────────────────────

// HandleInput stores what the user typed into a block surface.
func (a *App) HandleInput(blockID string, ev render.InputEvent) error {
	m, err := a.openEditor()
	if err != nil {
		return err
	}
	id, err := domain.ParseBlockID(blockID)
	if err != nil {
		return err
	}
	return m.HandleInput(id, ev)
}

// FocusChanged records which block has focus ("" when none).
func (a *App) FocusChanged(blockID string) error {
	id, err := parseOptionalID(blockID)
	if err != nil {
		return err
	}
	a.surface.setFocused(id)
	return nil
}

// AddBlock inserts a block after afterID and returns the new id, or ""
// when the image picker was cancelled.
func (a *App) AddBlock(afterID, blockType string) (string, error) {
	m, err := a.openEditor()
	if err != nil {
		return "", err
	}
	after, err := parseOptionalID(afterID)
	if err != nil {
		return "", err
	}
	id, err := m.AddNewBlock(a.ctx, after, domain.BlockType(blockType))
	if err != nil {
		log.Printf("[app] add %s block: %v", blockType, err)
		return "", err
	}
	if id.IsZero() {
		return "", nil
	}
	return id.String(), nil
}

func (a *App) DeleteBlock(blockID string) error {
	m, err := a.openEditor()
	if err != nil {
		return err
	}
	id, err := domain.ParseBlockID(blockID)
	if err != nil {
		return err
	}
	return m.DeleteBlock(a.ctx, id)
}

// MoveBlock moves a block in front of beforeID, or to the end when
// beforeID is "".
func (a *App) MoveBlock(blockID, beforeID string) error {
	m, err := a.openEditor()
	if err != nil {
		return err
	}
	id, err := domain.ParseBlockID(blockID)
	if err != nil {
		return err
	}
	before, err := parseOptionalID(beforeID)
	if err != nil {
		return err
	}
	return m.MoveBlock(a.ctx, id, before)
}

// ── Formatting ─────────────────────────────────────────────

func (a *App) ApplyFormat(sel SelectionInput, style domain.Style) error {
	m, err := a.openEditor()
	if err != nil {
		return err
	}
	s, err := sel.selection()
	if err != nil {
		return err
	}
	return m.ApplyFormat(s, style)
}

// SplitIntoCode turns the selection into a code block and returns its id.
func (a *App) SplitIntoCode(sel SelectionInput) (string, error) {
	m, err := a.openEditor()
	if err != nil {
		return "", err
	}
	s, err := sel.selection()
	if err != nil {
		return "", err
	}
	id, err := m.SplitIntoCode(a.ctx, s)
	if err != nil {
		return "", fmt.Errorf("split into code: %w", err)
	}
	return id.String(), nil
}

// ── Note ───────────────────────────────────────────────────

func (a *App) SaveTitle(title string) error {
	m, err := a.openEditor()
	if err != nil {
		return err
	}
	return m.SaveTitle(a.ctx, title)
}

func (a *App) ToggleFavorite() (bool, error) {
	m, err := a.openEditor()
	if err != nil {
		return false, err
	}
	return m.ToggleFavorite(a.ctx)
}

// SaveStatus returns the last save status shown next to the editor.
func (a *App) SaveStatus() string {
	return a.surface.lastStatus()
}
