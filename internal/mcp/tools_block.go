package mcpserver

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/mark3labs/mcp-go/mcp"

	"blocknotes/internal/domain"
)

func (s *Server) registerBlockTools() {
	// ── add_block ──────────────────────────────────────
	s.mcp.AddTool(mcp.NewTool("add_block",
		mcp.WithDescription("Add a text or code block to a note. Text is parsed as markdown unless plain=true."),
		mcp.WithString("noteId", mcp.Description("Note ID"), mcp.Required()),
		mcp.WithString("type", mcp.Description("Block type: text or code"), mcp.Required()),
		mcp.WithString("content", mcp.Description("Block text or source code"), mcp.Required()),
		mcp.WithString("language", mcp.Description("Language of a code block (optional, defaults to plaintext)")),
		mcp.WithString("beforeBlockId", mcp.Description("Insert before this block (optional, appends if omitted)")),
		mcp.WithBoolean("plain", mcp.Description("Store text as-is without markdown parsing")),
	), s.handleAddBlock)

	// ── add_image ──────────────────────────────────────
	s.mcp.AddTool(mcp.NewTool("add_image",
		mcp.WithDescription("Upload a local image file and add it to a note as an image block"),
		mcp.WithString("noteId", mcp.Description("Note ID"), mcp.Required()),
		mcp.WithString("path", mcp.Description("Absolute path of the image file"), mcp.Required()),
		mcp.WithString("beforeBlockId", mcp.Description("Insert before this block (optional, appends if omitted)")),
	), s.handleAddImage)

	// ── update_block ───────────────────────────────────
	s.mcp.AddTool(mcp.NewTool("update_block",
		mcp.WithDescription("Replace the content of a text or code block"),
		mcp.WithString("noteId", mcp.Description("Note ID the block belongs to"), mcp.Required()),
		mcp.WithString("blockId", mcp.Description("Block ID"), mcp.Required()),
		mcp.WithString("content", mcp.Description("New text or source code"), mcp.Required()),
		mcp.WithString("language", mcp.Description("New language of a code block (optional, keeps current)")),
		mcp.WithBoolean("plain", mcp.Description("Store text as-is without markdown parsing")),
	), s.handleUpdateBlock)

	// ── move_block ─────────────────────────────────────
	s.mcp.AddTool(mcp.NewTool("move_block",
		mcp.WithDescription("Move a block before another block, or to the end of the note"),
		mcp.WithString("noteId", mcp.Description("Note ID the block belongs to"), mcp.Required()),
		mcp.WithString("blockId", mcp.Description("Block ID"), mcp.Required()),
		mcp.WithString("beforeBlockId", mcp.Description("Target block (optional, moves to the end if omitted)")),
	), s.handleMoveBlock)

	// ── delete_block (destructive) ─────────────────────
	s.mcp.AddTool(mcp.NewTool("delete_block",
		mcp.WithDescription("🛑 DESTRUCTIVE: Delete a block. Requires user approval."),
		mcp.WithString("noteId", mcp.Description("Note ID the block belongs to"), mcp.Required()),
		mcp.WithString("blockId", mcp.Description("Block ID to delete"), mcp.Required()),
		mcp.WithToolAnnotation(mcp.ToolAnnotation{DestructiveHint: boolPtr(true)}),
	), s.handleDeleteBlock)
}

// ── Handlers ───────────────────────────────────────────────

func (s *Server) handleAddBlock(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	noteID, err := requireID(req, "noteId")
	if err != nil {
		return nil, err
	}
	typ := domain.BlockType(req.GetString("type", ""))
	if typ != domain.BlockTypeText && typ != domain.BlockTypeCode {
		return nil, fmt.Errorf("type must be text or code, got %q", typ)
	}
	content, language, err := blockContent(typ, req.GetString("content", ""), req.GetString("language", ""), !req.GetBool("plain", false))
	if err != nil {
		return nil, err
	}

	created, err := s.api.CreateBlock(ctx, noteID, domain.BlockDraft{
		Type:          typ,
		Content:       content,
		Language:      language,
		BeforeBlockID: optionalID(req, "beforeBlockId"),
	})
	if err != nil {
		return nil, fmt.Errorf("create block: %w", err)
	}
	s.emitNotesChanged(ctx, noteID)
	return jsonResult(summarizeBlock(created))
}

func (s *Server) handleAddImage(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	noteID, err := requireID(req, "noteId")
	if err != nil {
		return nil, err
	}
	path := req.GetString("path", "")
	if path == "" {
		return nil, fmt.Errorf("path is required")
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open image: %w", err)
	}
	defer f.Close()

	url, err := s.api.UploadFile(ctx, filepath.Base(path), f)
	if err != nil {
		return nil, fmt.Errorf("upload image: %w", err)
	}
	created, err := s.api.CreateBlock(ctx, noteID, domain.BlockDraft{
		Type:          domain.BlockTypeImage,
		Content:       url,
		BeforeBlockID: optionalID(req, "beforeBlockId"),
	})
	if err != nil {
		return nil, fmt.Errorf("create block: %w", err)
	}
	s.emitNotesChanged(ctx, noteID)
	return jsonResult(summarizeBlock(created))
}

func (s *Server) handleUpdateBlock(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	noteID, block, err := s.blockForTool(ctx, req)
	if err != nil {
		return nil, err
	}
	if block.Type == domain.BlockTypeImage {
		return nil, fmt.Errorf("image blocks cannot be edited, add a new image instead")
	}

	language := req.GetString("language", "")
	if language == "" {
		language = summarizeBlock(block).Language
	}
	content, language, err := blockContent(block.Type, req.GetString("content", ""), language, !req.GetBool("plain", false))
	if err != nil {
		return nil, err
	}
	updated, err := s.api.UpdateBlock(ctx, block.ID, content, language)
	if err != nil {
		return nil, fmt.Errorf("update block: %w", err)
	}
	s.emitNotesChanged(ctx, noteID)
	return jsonResult(summarizeBlock(updated))
}

func (s *Server) handleMoveBlock(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	noteID, block, err := s.blockForTool(ctx, req)
	if err != nil {
		return nil, err
	}
	before := optionalID(req, "beforeBlockId")
	if before != nil && *before == block.ID {
		return textResult("Block is already in place"), nil
	}
	if err := s.api.MoveBlock(ctx, block.ID, before); err != nil {
		return nil, fmt.Errorf("move block: %w", err)
	}
	s.emitNotesChanged(ctx, noteID)
	return textResult(fmt.Sprintf("Block %s moved", block.ID)), nil
}

func (s *Server) handleDeleteBlock(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	noteID, block, err := s.blockForTool(ctx, req)
	if err != nil {
		return nil, err
	}

	meta := fmt.Sprintf(`{"noteId":%q,"blockIds":[%q]}`, noteID, block.ID)
	if err := s.approval.Request(ctx, "delete_block",
		fmt.Sprintf("Delete %s block %s", block.Type, block.ID), meta); err != nil {
		return textResult("Action rejected by user"), nil
	}

	if err := s.api.DeleteBlock(ctx, block.ID); err != nil {
		return nil, fmt.Errorf("delete block: %w", err)
	}
	s.emitNotesChanged(ctx, noteID)
	return textResult(fmt.Sprintf("Block %s deleted", block.ID)), nil
}

// blockForTool finds the block named by the noteId/blockId arguments.
func (s *Server) blockForTool(ctx context.Context, req mcp.CallToolRequest) (domain.ServerID, domain.RemoteBlock, error) {
	noteID, err := requireID(req, "noteId")
	if err != nil {
		return "", domain.RemoteBlock{}, err
	}
	blockID, err := requireID(req, "blockId")
	if err != nil {
		return "", domain.RemoteBlock{}, err
	}
	blocks, err := s.api.ListBlocks(ctx, noteID)
	if err != nil {
		return "", domain.RemoteBlock{}, fmt.Errorf("list blocks: %w", err)
	}
	for _, b := range blocks {
		if b.ID == blockID {
			return noteID, b, nil
		}
	}
	return "", domain.RemoteBlock{}, fmt.Errorf("block %s not found in note %s", blockID, noteID)
}
