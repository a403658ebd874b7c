package mcpserver

import (
	"strings"

	"blocknotes/internal/domain"
	"blocknotes/internal/format"
	"blocknotes/internal/render"
)

type noteSummary struct {
	ID       domain.ServerID `json:"id"`
	Title    string          `json:"title"`
	Favorite bool            `json:"favorite"`
}

func summarizeNote(n domain.Note) noteSummary {
	return noteSummary{ID: n.ID, Title: n.Title, Favorite: n.Favorite}
}

type blockSummary struct {
	ID       domain.ServerID  `json:"id"`
	Type     domain.BlockType `json:"type"`
	Language string           `json:"language,omitempty"`
	Text     string           `json:"text"`
}

// summarizeBlock decodes stored content into what an agent reads: plain
// text for text blocks, source for code blocks, the URL for images.
func summarizeBlock(b domain.RemoteBlock) blockSummary {
	sum := blockSummary{ID: b.ID, Type: b.Type}
	switch b.Type {
	case domain.BlockTypeText:
		sum.Text = format.ParseTextContent(b.Content).Text
	case domain.BlockTypeCode:
		c := render.ParseCodeContent(b.Content)
		sum.Language = c.Language
		sum.Text = c.Content
	default:
		sum.Text = b.Content
	}
	return sum
}

// noteMarkdown renders a whole note as markdown.
func noteMarkdown(state domain.NoteState) string {
	var sb strings.Builder
	sb.WriteString("# " + state.Note.Title + "\n")
	for _, b := range state.Blocks {
		sum := summarizeBlock(b)
		sb.WriteString("\n")
		switch b.Type {
		case domain.BlockTypeCode:
			sb.WriteString("```" + sum.Language + "\n" + sum.Text + "\n```\n")
		case domain.BlockTypeImage:
			sb.WriteString("![](" + sum.Text + ")\n")
		default:
			sb.WriteString(sum.Text + "\n")
		}
	}
	return sb.String()
}

// blockContent encodes agent input as stored block content. For code
// blocks it also returns the language actually stored.
func blockContent(typ domain.BlockType, text, language string, markdown bool) (string, string, error) {
	switch typ {
	case domain.BlockTypeText:
		if !markdown {
			return format.PlainText(text).Marshal(), "", nil
		}
		c, err := format.FromMarkdown(text)
		if err != nil {
			return "", "", err
		}
		return c.Marshal(), "", nil
	case domain.BlockTypeCode:
		if !render.KnownLanguage(language) {
			language = render.DefaultLanguage
		}
		return render.CodeContent{Language: language, Content: text}.Marshal(), language, nil
	default:
		return text, "", nil
	}
}
