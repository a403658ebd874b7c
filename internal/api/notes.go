package api

import (
	"context"
	"fmt"
	"net/http"
	"net/url"

	"blocknotes/internal/domain"
)

func notePath(id domain.ServerID) string {
	return "/api/notes/" + url.PathEscape(string(id))
}

func blockPath(id domain.ServerID) string {
	return "/api/blocks/" + url.PathEscape(string(id))
}

// ── Notes ───────────────────────────────────────────────────

func (c *Client) ListNotes(ctx context.Context) ([]domain.Note, error) {
	var notes []domain.Note
	if err := c.do(ctx, http.MethodGet, "/api/notes", nil, &notes); err != nil {
		return nil, err
	}
	return notes, nil
}

func (c *Client) CreateNote(ctx context.Context, title string) (domain.Note, error) {
	var n domain.Note
	err := c.do(ctx, http.MethodPost, "/api/notes", map[string]string{"title": title}, &n)
	return n, err
}

func (c *Client) GetNote(ctx context.Context, id domain.ServerID) (domain.Note, error) {
	var n domain.Note
	err := c.do(ctx, http.MethodGet, notePath(id), nil, &n)
	return n, err
}

func (c *Client) UpdateNote(ctx context.Context, id domain.ServerID, title string) (domain.Note, error) {
	var n domain.Note
	err := c.do(ctx, http.MethodPut, notePath(id), map[string]string{"title": title}, &n)
	return n, err
}

func (c *Client) DeleteNote(ctx context.Context, id domain.ServerID) error {
	return c.do(ctx, http.MethodDelete, notePath(id), nil, nil)
}

// GetNoteState loads a note together with its ordered blocks.
func (c *Client) GetNoteState(ctx context.Context, id domain.ServerID) (domain.NoteState, error) {
	note, err := c.GetNote(ctx, id)
	if err != nil {
		return domain.NoteState{}, fmt.Errorf("get note: %w", err)
	}
	blocks, err := c.ListBlocks(ctx, id)
	if err != nil {
		return domain.NoteState{}, fmt.Errorf("list blocks: %w", err)
	}
	return domain.NoteState{Note: note, Blocks: blocks}, nil
}

// SetFavorite marks or unmarks a note as favorite.
func (c *Client) SetFavorite(ctx context.Context, id domain.ServerID, favorite bool) error {
	method := http.MethodPost
	if !favorite {
		method = http.MethodDelete
	}
	return c.do(ctx, method, notePath(id)+"/favorite", nil, nil)
}

// ── Blocks ──────────────────────────────────────────────────

func (c *Client) ListBlocks(ctx context.Context, noteID domain.ServerID) ([]domain.RemoteBlock, error) {
	var blocks []domain.RemoteBlock
	if err := c.do(ctx, http.MethodGet, notePath(noteID)+"/blocks", nil, &blocks); err != nil {
		return nil, err
	}
	return blocks, nil
}

func (c *Client) CreateBlock(ctx context.Context, noteID domain.ServerID, draft domain.BlockDraft) (domain.RemoteBlock, error) {
	var b domain.RemoteBlock
	err := c.do(ctx, http.MethodPost, notePath(noteID)+"/blocks", draft, &b)
	return b, err
}

func (c *Client) UpdateBlock(ctx context.Context, id domain.ServerID, content, language string) (domain.RemoteBlock, error) {
	in := map[string]string{"content": content}
	if language != "" {
		in["language"] = language
	}
	var b domain.RemoteBlock
	err := c.do(ctx, http.MethodPatch, blockPath(id), in, &b)
	return b, err
}

// MoveBlock places the block before another; nil moves it to the end.
func (c *Client) MoveBlock(ctx context.Context, id domain.ServerID, before *domain.ServerID) error {
	in := map[string]*domain.ServerID{"before_block_id": before}
	return c.do(ctx, http.MethodPut, blockPath(id)+"/position", in, nil)
}

func (c *Client) DeleteBlock(ctx context.Context, id domain.ServerID) error {
	return c.do(ctx, http.MethodDelete, blockPath(id), nil, nil)
}
