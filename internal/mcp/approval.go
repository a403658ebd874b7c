package mcpserver

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"blocknotes/internal/storage"
)

// EventEmitter allows the server to notify the frontend.
type EventEmitter interface {
	Emit(ctx context.Context, event string, data any)
}

const (
	EventApprovalRequired  = "mcp:approval-required"
	EventApprovalDismissed = "mcp:approval-dismissed"
	EventNotesChanged      = "mcp:notes-changed"
)

// PendingAction is a destructive operation awaiting user approval.
type PendingAction struct {
	ID          string `json:"id"`
	Tool        string `json:"tool"`
	Description string `json:"description"`
	CreatedAt   string `json:"createdAt"`
	Metadata    string `json:"metadata"` // JSON with extra context (e.g. note and block ids)
}

// ApprovalBackend persists approvals so another process can resolve them.
type ApprovalBackend interface {
	Create(a storage.Approval) error
	Status(id string) (string, error)
	Delete(id string) error
}

// ApprovalQueue gates destructive MCP tool calls behind the user.
// In-process it waits on a channel resolved by Approve/Reject; with a
// backend set (standalone MCP) it writes the request to the shared
// database and polls until the desktop app records a decision.
type ApprovalQueue struct {
	mu      sync.Mutex
	pending map[string]chan bool
	emitter EventEmitter
	timeout time.Duration
	poll    time.Duration
	backend ApprovalBackend
}

func NewApprovalQueue(emitter EventEmitter) *ApprovalQueue {
	return &ApprovalQueue{
		pending: make(map[string]chan bool),
		emitter: emitter,
		timeout: 120 * time.Second,
		poll:    500 * time.Millisecond,
	}
}

// SetBackend enables database-backed approvals.
func (q *ApprovalQueue) SetBackend(b ApprovalBackend) {
	q.backend = b
}

// Request blocks until the action is approved, rejected or times out.
// A rejection or timeout is reported as an error.
func (q *ApprovalQueue) Request(ctx context.Context, tool, description, metadata string) error {
	id := uuid.New().String()
	if metadata == "" {
		metadata = "{}"
	}
	if q.backend != nil {
		return q.requestViaBackend(ctx, id, tool, description, metadata)
	}
	return q.requestViaChannel(ctx, id, tool, description, metadata)
}

func (q *ApprovalQueue) requestViaBackend(ctx context.Context, id, tool, description, metadata string) error {
	err := q.backend.Create(storage.Approval{ID: id, Tool: tool, Description: description, Metadata: metadata})
	if err != nil {
		return err
	}
	defer q.backend.Delete(id)

	deadline := time.NewTimer(q.timeout)
	defer deadline.Stop()
	ticker := time.NewTicker(q.poll)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			status, err := q.backend.Status(id)
			if err != nil {
				continue
			}
			switch status {
			case storage.ApprovalApproved:
				return nil
			case storage.ApprovalRejected:
				return fmt.Errorf("action rejected by user: %s", tool)
			}
		case <-deadline.C:
			return fmt.Errorf("action timed out after %s: %s", q.timeout, tool)
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

func (q *ApprovalQueue) requestViaChannel(ctx context.Context, id, tool, description, metadata string) error {
	ch := make(chan bool, 1)

	q.mu.Lock()
	q.pending[id] = ch
	q.mu.Unlock()
	defer q.cleanup(id)

	q.emitter.Emit(ctx, EventApprovalRequired, PendingAction{
		ID:          id,
		Tool:        tool,
		Description: description,
		CreatedAt:   time.Now().UTC().Format(time.RFC3339),
		Metadata:    metadata,
	})

	select {
	case approved := <-ch:
		if !approved {
			return fmt.Errorf("action rejected by user: %s", tool)
		}
		return nil
	case <-time.After(q.timeout):
		q.emitter.Emit(ctx, EventApprovalDismissed, map[string]string{"id": id})
		return fmt.Errorf("action timed out after %s: %s", q.timeout, tool)
	case <-ctx.Done():
		q.emitter.Emit(context.WithoutCancel(ctx), EventApprovalDismissed, map[string]string{"id": id})
		return ctx.Err()
	}
}

// Approve resolves an in-process request.
func (q *ApprovalQueue) Approve(actionID string) { q.resolve(actionID, true) }

// Reject resolves an in-process request.
func (q *ApprovalQueue) Reject(actionID string) { q.resolve(actionID, false) }

func (q *ApprovalQueue) resolve(actionID string, approved bool) {
	q.mu.Lock()
	ch, ok := q.pending[actionID]
	q.mu.Unlock()
	if !ok {
		return
	}
	select {
	case ch <- approved:
	default:
	}
}

func (q *ApprovalQueue) cleanup(id string) {
	q.mu.Lock()
	delete(q.pending, id)
	q.mu.Unlock()
}
