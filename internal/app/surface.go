package app

import (
	"context"
	"sync"

	"blocknotes/internal/domain"
	"blocknotes/internal/editor"
	"blocknotes/internal/render"
	"blocknotes/internal/service"
)

// surface is the webview as the editor and the pages see it. Drawing is
// done by emitting render descriptions; the frontend reports focus back
// through App.FocusChanged.
type surface struct {
	ctx     context.Context
	emitter service.EventEmitter

	mu      sync.Mutex
	focused domain.BlockID
	status  string
}

func newSurface(ctx context.Context, emitter service.EventEmitter) *surface {
	return &surface{ctx: ctx, emitter: emitter}
}

type renderPayload struct {
	Node render.Node `json:"node"`
	HTML string      `json:"html"`
}

func payload(n render.Node) renderPayload {
	return renderPayload{Node: n, HTML: render.HTML(n)}
}

// Show replaces the whole page.
func (s *surface) Show(page render.Node) {
	s.mu.Lock()
	s.focused = domain.BlockID{}
	s.mu.Unlock()
	s.emitter.Emit(s.ctx, service.EventPage, payload(page))
}

// Render replaces the block list of the open editor.
func (s *surface) Render(root render.Node) {
	s.emitter.Emit(s.ctx, service.EventRender, payload(root))
}

func (s *surface) Focus(id domain.BlockID) {
	s.setFocused(id)
	s.emitter.Emit(s.ctx, service.EventFocus, map[string]string{"blockId": id.String()})
}

func (s *surface) FocusedBlock() (domain.BlockID, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.focused, !s.focused.IsZero()
}

func (s *surface) Select(sel editor.Selection) {
	s.emitter.Emit(s.ctx, service.EventSelect, map[string]any{
		"blockId": sel.Block.String(),
		"start":   sel.Start,
		"end":     sel.End,
	})
}

func (s *surface) Status(msg string) {
	s.mu.Lock()
	s.status = msg
	s.mu.Unlock()
	s.emitter.Emit(s.ctx, service.EventStatus, msg)
}

func (s *surface) Rekey(from, to domain.BlockID) {
	s.mu.Lock()
	if s.focused == from {
		s.focused = to
	}
	s.mu.Unlock()
	s.emitter.Emit(s.ctx, service.EventRekey, map[string]string{"from": from.String(), "to": to.String()})
}

// setFocused records focus reported by the frontend.
func (s *surface) setFocused(id domain.BlockID) {
	s.mu.Lock()
	s.focused = id
	s.mu.Unlock()
}

func (s *surface) lastStatus() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.status
}
