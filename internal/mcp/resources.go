package mcpserver

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"

	"blocknotes/internal/domain"
)

func (s *Server) registerResources() {
	// ── notes://notes ──────────────────────────────────
	s.mcp.AddResource(mcp.NewResource(
		"notes://notes",
		"All Notes",
		mcp.WithMIMEType("application/json"),
	), s.handleNotesResource)

	// ── notes://note/{noteId} ──────────────────────────
	s.mcp.AddResourceTemplate(
		mcp.NewResourceTemplate(
			"notes://note/{noteId}",
			"Note as Markdown",
			mcp.WithTemplateMIMEType("text/markdown"),
		),
		s.handleNoteResource,
	)
}

func (s *Server) handleNotesResource(ctx context.Context, req mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	notes, err := s.api.ListNotes(ctx)
	if err != nil {
		return nil, err
	}
	summaries := make([]noteSummary, len(notes))
	for i, n := range notes {
		summaries[i] = summarizeNote(n)
	}

	data, _ := json.MarshalIndent(summaries, "", "  ")
	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      "notes://notes",
			MIMEType: "application/json",
			Text:     string(data),
		},
	}, nil
}

func (s *Server) handleNoteResource(ctx context.Context, req mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	uri := req.Params.URI
	noteID := noteIDFromURI(uri)
	if noteID == "" {
		return nil, fmt.Errorf("could not extract noteId from URI: %s", uri)
	}

	state, err := s.api.GetNoteState(ctx, noteID)
	if err != nil {
		return nil, err
	}
	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      uri,
			MIMEType: "text/markdown",
			Text:     noteMarkdown(state),
		},
	}, nil
}

// noteIDFromURI extracts the note id from "notes://note/{id}".
func noteIDFromURI(uri string) domain.ServerID {
	id, ok := strings.CutPrefix(uri, "notes://note/")
	if !ok || id == "" || strings.Contains(id, "/") {
		return ""
	}
	return domain.ServerID(id)
}
