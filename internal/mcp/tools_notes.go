package mcpserver

import (
	"context"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"

	"blocknotes/internal/editor"
)

func (s *Server) registerNoteTools() {
	// ── list_notes ─────────────────────────────────────
	s.mcp.AddTool(mcp.NewTool("list_notes",
		mcp.WithDescription("List the user's notes"),
		mcp.WithBoolean("favoritesOnly", mcp.Description("Only return favorite notes")),
	), s.handleListNotes)

	// ── get_note ───────────────────────────────────────
	s.mcp.AddTool(mcp.NewTool("get_note",
		mcp.WithDescription("Read a note with all of its blocks in order"),
		mcp.WithString("noteId", mcp.Description("Note ID"), mcp.Required()),
		mcp.WithBoolean("markdown", mcp.Description("Return the note as markdown instead of JSON")),
	), s.handleGetNote)

	// ── create_note ────────────────────────────────────
	s.mcp.AddTool(mcp.NewTool("create_note",
		mcp.WithDescription("Create an empty note"),
		mcp.WithString("title", mcp.Description("Title (optional)")),
	), s.handleCreateNote)

	// ── rename_note ────────────────────────────────────
	s.mcp.AddTool(mcp.NewTool("rename_note",
		mcp.WithDescription("Change the title of a note"),
		mcp.WithString("noteId", mcp.Description("Note ID"), mcp.Required()),
		mcp.WithString("title", mcp.Description("New title"), mcp.Required()),
	), s.handleRenameNote)

	// ── set_favorite ───────────────────────────────────
	s.mcp.AddTool(mcp.NewTool("set_favorite",
		mcp.WithDescription("Mark or unmark a note as favorite"),
		mcp.WithString("noteId", mcp.Description("Note ID"), mcp.Required()),
		mcp.WithBoolean("favorite", mcp.Description("Favorite flag"), mcp.Required()),
	), s.handleSetFavorite)

	// ── delete_note (destructive) ──────────────────────
	s.mcp.AddTool(mcp.NewTool("delete_note",
		mcp.WithDescription("🛑 DESTRUCTIVE: Delete a note and all of its blocks. Requires user approval."),
		mcp.WithString("noteId", mcp.Description("Note ID"), mcp.Required()),
		mcp.WithToolAnnotation(mcp.ToolAnnotation{DestructiveHint: boolPtr(true)}),
	), s.handleDeleteNote)
}

// ── Handlers ───────────────────────────────────────────────

func (s *Server) handleListNotes(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	notes, err := s.api.ListNotes(ctx)
	if err != nil {
		return nil, fmt.Errorf("list notes: %w", err)
	}
	favoritesOnly := req.GetBool("favoritesOnly", false)
	summaries := make([]noteSummary, 0, len(notes))
	for _, n := range notes {
		if favoritesOnly && !n.Favorite {
			continue
		}
		summaries = append(summaries, summarizeNote(n))
	}
	return jsonResult(summaries)
}

func (s *Server) handleGetNote(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	noteID, err := requireID(req, "noteId")
	if err != nil {
		return nil, err
	}
	state, err := s.api.GetNoteState(ctx, noteID)
	if err != nil {
		return nil, fmt.Errorf("get note: %w", err)
	}
	if req.GetBool("markdown", false) {
		return textResult(noteMarkdown(state)), nil
	}

	blocks := make([]blockSummary, len(state.Blocks))
	for i, b := range state.Blocks {
		blocks[i] = summarizeBlock(b)
	}
	return jsonResult(struct {
		noteSummary
		Blocks []blockSummary `json:"blocks"`
	}{summarizeNote(state.Note), blocks})
}

func (s *Server) handleCreateNote(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	title := req.GetString("title", "")
	if title == "" {
		title = editor.DefaultTitle
	}
	note, err := s.api.CreateNote(ctx, title)
	if err != nil {
		return nil, fmt.Errorf("create note: %w", err)
	}
	s.emitNotesChanged(ctx, note.ID)
	return jsonResult(summarizeNote(note))
}

func (s *Server) handleRenameNote(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	noteID, err := requireID(req, "noteId")
	if err != nil {
		return nil, err
	}
	title := req.GetString("title", "")
	if title == "" {
		return nil, fmt.Errorf("title is required")
	}
	note, err := s.api.UpdateNote(ctx, noteID, title)
	if err != nil {
		return nil, fmt.Errorf("rename note: %w", err)
	}
	s.emitNotesChanged(ctx, note.ID)
	return jsonResult(summarizeNote(note))
}

func (s *Server) handleSetFavorite(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	noteID, err := requireID(req, "noteId")
	if err != nil {
		return nil, err
	}
	favorite := req.GetBool("favorite", true)
	if err := s.api.SetFavorite(ctx, noteID, favorite); err != nil {
		return nil, fmt.Errorf("set favorite: %w", err)
	}
	s.emitNotesChanged(ctx, noteID)
	return textResult(fmt.Sprintf("Note %s favorite=%t", noteID, favorite)), nil
}

func (s *Server) handleDeleteNote(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	noteID, err := requireID(req, "noteId")
	if err != nil {
		return nil, err
	}
	note, err := s.api.GetNoteState(ctx, noteID)
	if err != nil {
		return nil, fmt.Errorf("get note: %w", err)
	}

	meta := fmt.Sprintf(`{"noteId":%q}`, noteID)
	desc := fmt.Sprintf("Delete note %q (%d blocks)", note.Note.Title, len(note.Blocks))
	if err := s.approval.Request(ctx, "delete_note", desc, meta); err != nil {
		return textResult("Action rejected by user"), nil
	}

	if err := s.api.DeleteNote(ctx, noteID); err != nil {
		return nil, fmt.Errorf("delete note: %w", err)
	}
	s.emitNotesChanged(ctx, noteID)
	return textResult(fmt.Sprintf("Note %s deleted", noteID)), nil
}
