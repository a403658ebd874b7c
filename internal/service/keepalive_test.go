package service_test

import (
	"bytes"
	"context"
	"log"
	"net/http"
	"path/filepath"
	"sync"
	"strings"
	"sync/atomic"
	"testing"

	"blocknotes/internal/api"
	"blocknotes/internal/domain"
	"blocknotes/internal/service"
	"blocknotes/internal/storage"
)

type stubChecker struct {
	user    domain.User
	err     error
	gate    chan struct{}
	entered chan struct{}
	calls   atomic.Int32
}

func (c *stubChecker) Me(ctx context.Context) (domain.User, error) {
	c.calls.Add(1)
	if c.entered != nil {
		c.entered <- struct{}{}
	}
	if c.gate != nil {
		<-c.gate
	}
	return c.user, c.err
}

type stubSession struct {
	mu      sync.Mutex
	user    *domain.User
	cleared int
}

func (s *stubSession) IsAuthenticated() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.user != nil
}

func (s *stubSession) SetUser(u domain.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.user = &u
	return nil
}

func (s *stubSession) Clear() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.user = nil
	s.cleared++
	return nil
}

func TestKeepAlive_ExpiredSessionIsCleared(t *testing.T) {
	sess := &stubSession{user: &domain.User{ID: "1"}}
	emitter := &service.MockEmitter{}
	checker := &stubChecker{err: &api.APIError{Status: http.StatusUnauthorized}}
	ka := service.NewKeepAliveService(checker, sess, emitter, "@every 1h")

	var logs bytes.Buffer
	defer log.SetOutput(log.Writer())
	log.SetOutput(&logs)

	ka.Ping(context.Background())

	if !strings.Contains(logs.String(), "[keepalive] session expired") {
		t.Fatalf("log = %q", logs.String())
	}
	if sess.IsAuthenticated() || sess.cleared != 1 {
		t.Fatalf("session not cleared: %+v", sess)
	}
	if len(emitter.Named(service.EventSessionExpired)) != 1 {
		t.Fatalf("events = %+v", emitter.Events)
	}

	// Nothing to keep alive once logged out.
	ka.Ping(context.Background())
	if sess.cleared != 1 {
		t.Fatal("pinged without a session")
	}
}

func TestKeepAlive_RefreshesUser(t *testing.T) {
	sess := &stubSession{user: &domain.User{ID: "1", Username: "old"}}
	checker := &stubChecker{user: domain.User{ID: "1", Username: "new"}}
	ka := service.NewKeepAliveService(checker, sess, &service.MockEmitter{}, "@every 1h")

	ka.Ping(context.Background())
	if sess.user.Username != "new" {
		t.Fatalf("user = %+v", sess.user)
	}
}

func TestKeepAlive_SkipsOverlappingPing(t *testing.T) {
	sess := &stubSession{user: &domain.User{ID: "1"}}
	checker := &stubChecker{gate: make(chan struct{}), entered: make(chan struct{}, 1)}
	ka := service.NewKeepAliveService(checker, sess, &service.MockEmitter{}, "@every 1h")

	done := make(chan struct{})
	go func() {
		ka.Ping(context.Background())
		close(done)
	}()
	<-checker.entered

	// The first ping is still waiting on the backend.
	ka.Ping(context.Background())
	close(checker.gate)
	<-done

	if n := checker.calls.Load(); n != 1 {
		t.Fatalf("Me called %d times, want 1", n)
	}
}

func TestKeepAlive_StartRejectsBadSpec(t *testing.T) {
	ka := service.NewKeepAliveService(&stubChecker{}, &stubSession{}, &service.MockEmitter{}, "not a cron spec")
	if err := ka.Start(context.Background()); err == nil {
		t.Fatal("expected error for invalid spec")
	}
	ok := service.NewKeepAliveService(&stubChecker{}, &stubSession{}, &service.MockEmitter{}, "@every 1h")
	if err := ok.Start(context.Background()); err != nil {
		t.Fatal(err)
	}
	ok.Stop(context.Background())
}

func TestWindowSettings_RoundTrip(t *testing.T) {
	db, err := storage.New(filepath.Join(t.TempDir(), "state.db"))
	if err != nil {
		t.Fatal(err)
	}
	defer db.Close()
	ws := service.NewWindowSettingsService(db)

	if got := ws.LoadWindowSize(); got != service.DefaultWindowSize {
		t.Fatalf("default = %+v", got)
	}
	if err := ws.SaveWindowSize(1400, 900); err != nil {
		t.Fatal(err)
	}
	ws.SaveWindowSize(10, 10)
	if got := ws.LoadWindowSize(); got != (service.WindowSize{Width: 1400, Height: 900}) {
		t.Fatalf("loaded = %+v", got)
	}
}
