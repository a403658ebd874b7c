package mcpserver

import (
	"context"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
)

func (s *Server) registerPrompts() {
	s.mcp.AddPrompt(mcp.NewPrompt("write_note",
		mcp.WithPromptDescription("Draft a new note on a topic using text and code blocks"),
		mcp.WithArgument("topic",
			mcp.ArgumentDescription("What the note is about"),
			mcp.RequiredArgument(),
		),
	), s.handleWriteNotePrompt)

	s.mcp.AddPrompt(mcp.NewPrompt("summarize_note",
		mcp.WithPromptDescription("Summarize an existing note and append the summary as a text block"),
		mcp.WithArgument("noteId",
			mcp.ArgumentDescription("ID of the note to summarize"),
			mcp.RequiredArgument(),
		),
	), s.handleSummarizeNotePrompt)

	s.mcp.AddPrompt(mcp.NewPrompt("extract_code",
		mcp.WithPromptDescription("Move code snippets found in text blocks into dedicated code blocks"),
		mcp.WithArgument("noteId",
			mcp.ArgumentDescription("ID of the note to tidy up"),
			mcp.RequiredArgument(),
		),
	), s.handleExtractCodePrompt)
}

func userPrompt(description, text string) *mcp.GetPromptResult {
	return &mcp.GetPromptResult{
		Description: description,
		Messages: []mcp.PromptMessage{
			{
				Role:    mcp.RoleUser,
				Content: mcp.TextContent{Type: "text", Text: text},
			},
		},
	}
}

func (s *Server) handleWriteNotePrompt(ctx context.Context, req mcp.GetPromptRequest) (*mcp.GetPromptResult, error) {
	topic := req.Params.Arguments["topic"]
	return userPrompt(fmt.Sprintf("Write a note about: %s", topic), fmt.Sprintf(`Write a note about "%s". Follow these steps:

1. Use create_note with a short descriptive title
2. Add the explanation as text blocks with add_block (type "text", markdown allowed: **bold**, *italic*, [links](url))
3. Put every code sample in its own add_block call with type "code" and the right language
4. Keep one idea per block so the note is easy to reorder later

Finish by reading the note back with get_note (markdown=true) and fixing anything out of order with move_block.`, topic)), nil
}

func (s *Server) handleSummarizeNotePrompt(ctx context.Context, req mcp.GetPromptRequest) (*mcp.GetPromptResult, error) {
	noteID := req.Params.Arguments["noteId"]
	return userPrompt(fmt.Sprintf("Summarize note %s", noteID), fmt.Sprintf(`Summarize note %s:

1. Read it with get_note (markdown=true)
2. Write a summary of at most five sentences
3. Add it as the first block with add_block (type "text", beforeBlockId set to the current first block)

Do not change or delete any existing block.`, noteID)), nil
}

func (s *Server) handleExtractCodePrompt(ctx context.Context, req mcp.GetPromptRequest) (*mcp.GetPromptResult, error) {
	noteID := req.Params.Arguments["noteId"]
	return userPrompt(fmt.Sprintf("Extract code in note %s", noteID), fmt.Sprintf(`Tidy up note %s:

1. Read it with get_note
2. For every text block that contains source code, add a code block with that code right after it (add_block with beforeBlockId of the following block)
3. Update the text block with update_block so it keeps only the prose
4. If a text block held nothing but code, delete it with delete_block (the user will be asked to approve)`, noteID)), nil
}
