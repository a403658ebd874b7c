package app

import (
	"context"
	"log"
	"sync"
	"time"

	mcpserver "blocknotes/internal/mcp"
	"blocknotes/internal/service"
	"blocknotes/internal/storage"
)

// approvalSource is where the standalone MCP process leaves its approvals.
type approvalSource interface {
	Pending() ([]storage.Approval, error)
	Resolve(id string, approved bool) error
}

// approvalWatcher polls the database for approvals requested by the
// standalone MCP process and shows each one to the user exactly once.
type approvalWatcher struct {
	ctx     context.Context
	source  approvalSource
	emitter service.EventEmitter
	every   time.Duration

	mu      sync.Mutex
	emitted map[string]bool
	stopCh  chan struct{}
}

func newApprovalWatcher(ctx context.Context, source approvalSource, emitter service.EventEmitter) *approvalWatcher {
	return &approvalWatcher{
		ctx:     ctx,
		source:  source,
		emitter: emitter,
		every:   2 * time.Second,
		emitted: map[string]bool{},
	}
}

// Start begins the polling loop. Should be called once on app startup.
func (w *approvalWatcher) Start() {
	w.stopCh = make(chan struct{})
	go w.pollLoop()
}

// Stop terminates the polling loop.
func (w *approvalWatcher) Stop() {
	if w.stopCh != nil {
		close(w.stopCh)
	}
}

func (w *approvalWatcher) pollLoop() {
	ticker := time.NewTicker(w.every)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			w.check()
		case <-w.stopCh:
			return
		case <-w.ctx.Done():
			return
		}
	}
}

func (w *approvalWatcher) check() {
	pending, err := w.source.Pending()
	if err != nil {
		log.Printf("[approvals] list pending: %v", err)
		return
	}

	w.mu.Lock()
	defer w.mu.Unlock()

	live := make(map[string]bool, len(pending))
	for _, p := range pending {
		live[p.ID] = true
		if w.emitted[p.ID] {
			continue
		}
		w.emitted[p.ID] = true
		w.emitter.Emit(w.ctx, mcpserver.EventApprovalRequired, mcpserver.PendingAction{
			ID:          p.ID,
			Tool:        p.Tool,
			Description: p.Description,
			CreatedAt:   p.CreatedAt.UTC().Format(time.RFC3339),
			Metadata:    p.Metadata,
		})
	}
	// Resolved, timed out or cancelled by the MCP process.
	for id := range w.emitted {
		if !live[id] {
			delete(w.emitted, id)
			w.emitter.Emit(w.ctx, mcpserver.EventApprovalDismissed, map[string]string{"id": id})
		}
	}
}

// ApproveMCPAction lets a pending MCP action run.
func (a *App) ApproveMCPAction(id string) error {
	return a.approvals.Resolve(id, true)
}

// RejectMCPAction refuses a pending MCP action.
func (a *App) RejectMCPAction(id string) error {
	return a.approvals.Resolve(id, false)
}
