package mcpserver

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"blocknotes/internal/domain"
)

// NotesAPI is the part of the backend client the MCP tools drive.
type NotesAPI interface {
	ListNotes(ctx context.Context) ([]domain.Note, error)
	CreateNote(ctx context.Context, title string) (domain.Note, error)
	UpdateNote(ctx context.Context, id domain.ServerID, title string) (domain.Note, error)
	DeleteNote(ctx context.Context, id domain.ServerID) error
	GetNoteState(ctx context.Context, id domain.ServerID) (domain.NoteState, error)
	SetFavorite(ctx context.Context, id domain.ServerID, favorite bool) error
	ListBlocks(ctx context.Context, noteID domain.ServerID) ([]domain.RemoteBlock, error)
	CreateBlock(ctx context.Context, noteID domain.ServerID, draft domain.BlockDraft) (domain.RemoteBlock, error)
	UpdateBlock(ctx context.Context, id domain.ServerID, content, language string) (domain.RemoteBlock, error)
	MoveBlock(ctx context.Context, id domain.ServerID, before *domain.ServerID) error
	DeleteBlock(ctx context.Context, id domain.ServerID) error
	UploadFile(ctx context.Context, filename string, r io.Reader) (string, error)
}

// Server is the MCP server for blocknotes.
// It exposes the user's notes to AI agents as tools, resources and prompts.
type Server struct {
	mcp      *server.MCPServer
	api      NotesAPI
	emitter  EventEmitter
	approval *ApprovalQueue
}

// Deps holds everything the server needs from the app layer.
type Deps struct {
	API       NotesAPI
	Emitter   EventEmitter
	Approvals ApprovalBackend // When set, approvals go through the shared database (standalone mode)
}

// New creates and configures a new MCP server with all tools and resources.
func New(deps Deps) *Server {
	approval := NewApprovalQueue(deps.Emitter)
	if deps.Approvals != nil {
		approval.SetBackend(deps.Approvals)
	}
	s := &Server{
		api:      deps.API,
		emitter:  deps.Emitter,
		approval: approval,
	}

	s.mcp = server.NewMCPServer(
		"blocknotes-mcp",
		"1.0.0",
		server.WithToolCapabilities(true),
		server.WithResourceCapabilities(true, false),
		server.WithPromptCapabilities(true),
	)

	s.registerNoteTools()
	s.registerBlockTools()
	s.registerResources()
	s.registerPrompts()

	return s
}

// ServeStdio starts the MCP server on stdin/stdout.
func (s *Server) ServeStdio() error {
	log.Println("[MCP] Starting stdio server...")
	return server.ServeStdio(s.mcp)
}

// Approve forwards a user approval to the approval queue.
func (s *Server) Approve(actionID string) {
	s.approval.Approve(actionID)
}

// Reject forwards a user rejection to the approval queue.
func (s *Server) Reject(actionID string) {
	s.approval.Reject(actionID)
}

// ── Helpers ────────────────────────────────────────────────

// emitNotesChanged notifies the frontend that a note was changed by an agent.
func (s *Server) emitNotesChanged(ctx context.Context, noteID domain.ServerID) {
	s.emitter.Emit(ctx, EventNotesChanged, map[string]string{"noteId": string(noteID)})
}

// textResult creates a simple text tool result.
func textResult(text string) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		Content: []mcp.Content{
			mcp.TextContent{Type: "text", Text: text},
		},
	}
}

// jsonResult serializes v to JSON and wraps it in a text tool result.
func jsonResult(v any) (*mcp.CallToolResult, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshal result: %w", err)
	}
	return textResult(string(data)), nil
}

func boolPtr(v bool) *bool { return &v }

// requireID reads a required id argument.
func requireID(req mcp.CallToolRequest, key string) (domain.ServerID, error) {
	id := req.GetString(key, "")
	if id == "" {
		return "", fmt.Errorf("%s is required", key)
	}
	return domain.ServerID(id), nil
}

// optionalID reads an id argument that may be omitted.
func optionalID(req mcp.CallToolRequest, key string) *domain.ServerID {
	id := req.GetString(key, "")
	if id == "" {
		return nil
	}
	sid := domain.ServerID(id)
	return &sid
}
