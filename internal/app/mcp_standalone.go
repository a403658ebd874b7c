package app

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"blocknotes/internal/api"
	"blocknotes/internal/config"
	mcpserver "blocknotes/internal/mcp"
	"blocknotes/internal/secret"
	"blocknotes/internal/session"
	"blocknotes/internal/storage"
)

// noopEmitter is a no-op EventEmitter used in MCP-only mode (no Wails frontend).
type noopEmitter struct{}

func (noopEmitter) Emit(_ context.Context, _ string, _ any) {}

// ServeMCP runs the app as a standalone MCP server on stdin/stdout with no GUI.
// It reuses the desktop app's session, so the user must have logged in there.
func ServeMCP() {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	cfg, err := config.Load("")
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	db, err := storage.New(cfg.DBPath())
	if err != nil {
		log.Fatalf("Failed to open database: %v", err)
	}
	defer db.Close()

	sess := session.New(storage.NewLocalStore(db), secret.Default(cfg.SecretsDir()))
	if err := sess.Init(cfg.API.BaseURL); err != nil {
		log.Fatalf("Failed to restore session: %v", err)
	}
	if !sess.IsAuthenticated() {
		log.Println("[MCP] No logged-in user; tools will fail until you log in from the app")
	}
	watcher, err := session.Watch(sess, db.Path(), func(authenticated bool) {
		log.Printf("[MCP] Session changed (authenticated=%v)", authenticated)
	})
	if err != nil {
		log.Printf("[MCP] Session watcher unavailable: %v", err)
	} else {
		defer watcher.Close()
	}

	client := api.New(cfg.API.BaseURL, sess)
	if _, err := client.Me(ctx); err != nil {
		log.Printf("[MCP] Session check failed: %v", err)
	}

	mcpSrv := mcpserver.New(mcpserver.Deps{
		API:       client,
		Emitter:   noopEmitter{},
		Approvals: storage.NewApprovalStore(db), // Enable SQLite-based approval IPC
	})

	log.Println("[MCP] Starting standalone stdio server...")
	if err := mcpSrv.ServeStdio(); err != nil {
		log.Fatalf("MCP server error: %v", err)
	}
}
