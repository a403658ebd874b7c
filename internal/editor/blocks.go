package editor

import (
	"context"
	"fmt"
	"log"

	"blocknotes/internal/domain"
	"blocknotes/internal/render"
)

// ── Content & saving ────────────────────────────────────────

// UpdateBlockContent applies content in memory right away and schedules a
// debounced save for that block. It reports false if the block is gone.
func (m *Manager) UpdateBlockContent(id domain.BlockID, content string) bool {
	return m.update(id, content, "")
}

func (m *Manager) update(id domain.BlockID, content, language string) bool {
	m.mu.Lock()
	_, e := m.find(id)
	if e == nil {
		m.mu.Unlock()
		return false
	}
	e.block.Content = content
	if language != "" {
		e.block.Language = language
	}
	key := e.key
	m.mu.Unlock()

	m.debounce.Debounce(key, func() {
		ctx, cancel := ctxForSave()
		defer cancel()
		m.saveEntry(ctx, key)
	})
	return true
}

// SaveBlock persists one block now. A block that no longer exists is a
// no-op.
func (m *Manager) SaveBlock(ctx context.Context, id domain.BlockID) error {
	m.mu.Lock()
	_, e := m.find(id)
	m.mu.Unlock()
	if e == nil {
		return nil
	}
	m.debounce.Cancel(e.key)
	return m.saveEntry(ctx, e.key)
}

// Flush runs every pending save immediately.
func (m *Manager) Flush(ctx context.Context) error {
	var firstErr error
	for _, key := range m.debounce.Drain() {
		if err := m.saveEntry(ctx, key); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

func (m *Manager) saveEntry(ctx context.Context, key string) error {
	m.mu.Lock()
	e := m.byKey(key)
	m.mu.Unlock()
	if e == nil {
		return nil
	}

	e.saveMu.Lock()
	defer e.saveMu.Unlock()

	m.status(StatusSaving)
	if err := m.persist(ctx, e); err != nil {
		log.Printf("[editor] save block: %v", err)
		m.status(StatusError)
		return err
	}
	m.status(StatusSaved)
	return nil
}

// persist creates a local block or updates a persisted one. Callers hold
// e.saveMu, never m.mu.
func (m *Manager) persist(ctx context.Context, e *entry) error {
	m.mu.Lock()
	if e.deleted {
		m.mu.Unlock()
		return nil
	}
	b := e.block
	m.mu.Unlock()

	if b.ID.IsLocal() {
		noteID, err := m.EnsureNoteExists(ctx)
		if err != nil {
			return err
		}

		m.mu.Lock()
		if e.deleted {
			m.mu.Unlock()
			return nil
		}
		b = e.block
		before := m.nextPersisted(e)
		m.mu.Unlock()

		rb, err := m.api.CreateBlock(ctx, noteID, domain.BlockDraft{
			Type:          b.Type,
			Content:       b.Content,
			Language:      b.Language,
			BeforeBlockID: before,
		})
		if err != nil {
			return fmt.Errorf("create block: %w", err)
		}
		newID := domain.PersistedID(string(rb.ID))

		m.mu.Lock()
		if e.deleted {
			// Removed while the request was in flight; don't leave an orphan.
			m.mu.Unlock()
			if err := m.api.DeleteBlock(ctx, rb.ID); err != nil {
				return fmt.Errorf("delete orphaned block: %w", err)
			}
			return nil
		}
		oldID := e.block.ID
		e.block.ID = newID
		current := e.block
		m.mu.Unlock()

		if m.surface != nil {
			m.surface.Rekey(oldID, newID)
		}
		if current.Content == b.Content && current.Language == b.Language {
			return nil
		}
		b = current
	}

	sid, _ := b.ID.ServerID()
	if _, err := m.api.UpdateBlock(ctx, domain.ServerID(sid), b.Content, b.Language); err != nil {
		return fmt.Errorf("update block %s: %w", sid, err)
	}
	return nil
}

// ── Structure ───────────────────────────────────────────────

// AddNewBlock inserts a block after afterID (or at the end when afterID is
// unknown) and returns its id. Image blocks go through the picker and are
// only added when a file was chosen; the zero id means nothing was added.
func (m *Manager) AddNewBlock(ctx context.Context, afterID domain.BlockID, t domain.BlockType) (domain.BlockID, error) {
	var b domain.Block
	switch t {
	case domain.BlockTypeText, domain.BlockTypeCode:
		b = emptyBlock(t)
	case domain.BlockTypeImage:
		if m.picker == nil {
			return domain.BlockID{}, ErrNoImagePicker
		}
		file, err := m.picker.PickImage(ctx)
		if err != nil {
			return domain.BlockID{}, fmt.Errorf("pick image: %w", err)
		}
		if file == nil {
			return domain.BlockID{}, nil
		}
		defer file.Data.Close()
		url, err := m.api.UploadFile(ctx, file.Name, file.Data)
		if err != nil {
			m.status(StatusError)
			return domain.BlockID{}, fmt.Errorf("upload %s: %w", file.Name, err)
		}
		b = emptyBlock(t)
		b.Content = url
	default:
		return domain.BlockID{}, fmt.Errorf("%w: %q", ErrUnsupportedType, t)
	}

	e := newEntry(b)
	m.mu.Lock()
	i, _ := m.find(afterID)
	if i < 0 {
		i = len(m.entries) - 1
	}
	m.insertAt(i+1, e)
	m.mu.Unlock()

	m.Render()
	if m.surface != nil {
		m.surface.Focus(b.ID)
	}

	if t == domain.BlockTypeImage {
		// Nothing else will edit an image block, so persist it now.
		if err := m.saveEntry(ctx, e.key); err != nil {
			return b.ID, err
		}
		m.mu.Lock()
		id := e.block.ID
		m.mu.Unlock()
		return id, nil
	}
	return b.ID, nil
}

// DeleteBlock removes a block, cancels its pending save and deletes it on
// the backend if it was persisted. The note keeps at least one block.
func (m *Manager) DeleteBlock(ctx context.Context, id domain.BlockID) error {
	m.mu.Lock()
	i, e := m.find(id)
	if e == nil {
		m.mu.Unlock()
		return nil
	}
	e.deleted = true
	m.entries = append(m.entries[:i], m.entries[i+1:]...)
	if len(m.entries) == 0 {
		m.entries = append(m.entries, newEntry(emptyBlock(domain.BlockTypeText)))
	}
	m.mu.Unlock()

	m.debounce.Cancel(e.key)
	m.Render()

	if sid, ok := id.ServerID(); ok {
		if err := m.api.DeleteBlock(ctx, domain.ServerID(sid)); err != nil {
			m.status(StatusError)
			return fmt.Errorf("delete block %s: %w", sid, err)
		}
	}
	return nil
}

// MoveBlock moves id in front of beforeID; the zero beforeID moves it to
// the end.
func (m *Manager) MoveBlock(ctx context.Context, id, beforeID domain.BlockID) error {
	if id == beforeID {
		return nil
	}
	m.mu.Lock()
	i, e := m.find(id)
	if e == nil {
		m.mu.Unlock()
		return ErrNoBlock
	}
	m.entries = append(m.entries[:i], m.entries[i+1:]...)
	j, _ := m.find(beforeID)
	if j < 0 {
		j = len(m.entries)
	}
	m.insertAt(j, e)
	before := m.nextPersisted(e)
	m.mu.Unlock()

	m.Render()

	sid, ok := id.ServerID()
	if !ok {
		// Placed correctly when it is first created.
		return nil
	}
	if err := m.api.MoveBlock(ctx, domain.ServerID(sid), before); err != nil {
		m.status(StatusError)
		return fmt.Errorf("move block %s: %w", sid, err)
	}
	return nil
}

// ── Rendering & input ───────────────────────────────────────

// Render redraws every block, keeping focus on the block that had it.
func (m *Manager) Render() {
	if m.surface == nil {
		return
	}
	focused, hasFocus := m.surface.FocusedBlock()
	blocks := m.Blocks()
	m.surface.Render(render.Blocks(blocks))
	if !hasFocus {
		return
	}
	for _, b := range blocks {
		if b.ID == focused {
			m.surface.Focus(focused)
			return
		}
	}
}

// HandleInput serializes an input event from the presentation layer
// through the block's renderer and stores the result.
func (m *Manager) HandleInput(id domain.BlockID, ev render.InputEvent) error {
	b, ok := m.Block(id)
	if !ok {
		return nil
	}
	r, err := render.For(b.Type)
	if err != nil {
		return err
	}
	content, err := r.Input(b, ev)
	if err != nil {
		return err
	}
	language := ""
	if b.Type == domain.BlockTypeCode {
		language = render.ParseCodeContent(content).Language
	}
	m.update(id, content, language)
	return nil
}
