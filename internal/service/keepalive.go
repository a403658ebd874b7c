package service

import (
	"context"
	"log"
	"net/http"
	"time"

	"github.com/robfig/cron/v3"

	"blocknotes/internal/api"
	"blocknotes/internal/domain"
)

// ─────────────────────────────────────────────────────────────
// Session keep-alive
// ─────────────────────────────────────────────────────────────

// AuthChecker asks the backend who the session belongs to.
type AuthChecker interface {
	Me(ctx context.Context) (domain.User, error)
}

// SessionState is the part of the session the keep-alive refreshes.
type SessionState interface {
	IsAuthenticated() bool
	SetUser(u domain.User) error
	Clear() error
}

const keepAliveJob = "keepalive"

// KeepAliveService pings the backend on a cron schedule so the session
// cookie stays fresh, and clears the local session once the backend
// stops recognising it.
type KeepAliveService struct {
	checker AuthChecker
	session SessionState
	emitter EventEmitter
	spec    string
	timeout time.Duration

	guard runningJobsGuard
	sched *cron.Cron
}

// NewKeepAliveService creates the service. spec is a cron expression such
// as "@every 5m".
func NewKeepAliveService(checker AuthChecker, session SessionState, emitter EventEmitter, spec string) *KeepAliveService {
	return &KeepAliveService{
		checker: checker,
		session: session,
		emitter: emitter,
		spec:    spec,
		timeout: 15 * time.Second,
	}
}

// Start schedules the ping. Calling Start twice restarts the schedule.
func (s *KeepAliveService) Start(ctx context.Context) error {
	s.Stop(ctx)
	c := cron.New()
	if _, err := c.AddFunc(s.spec, func() { s.Ping(ctx) }); err != nil {
		return err
	}
	c.Start()
	s.sched = c
	log.Printf("[keepalive] scheduled %q", s.spec)
	return nil
}

// Stop cancels the schedule and waits for a running ping to finish.
func (s *KeepAliveService) Stop(ctx context.Context) {
	if s.sched != nil {
		<-s.sched.Stop().Done()
		s.sched = nil
	}
	s.guard.WaitAll(ctx)
}

// Ping checks the session once. Overlapping pings are skipped.
func (s *KeepAliveService) Ping(ctx context.Context) {
	if !s.session.IsAuthenticated() {
		return
	}
	if !s.guard.TryLock(keepAliveJob) {
		return
	}
	defer s.guard.Unlock(keepAliveJob)

	pingCtx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	user, err := s.checker.Me(pingCtx)
	switch {
	case api.IsStatus(err, http.StatusUnauthorized):
		log.Printf("[keepalive] session expired")
		if err := s.session.Clear(); err != nil {
			log.Printf("[keepalive] clear session: %v", err)
		}
		s.emitter.Emit(ctx, EventSessionExpired, nil)
	case err != nil:
		log.Printf("[keepalive] ping failed: %v", err)
	default:
		if err := s.session.SetUser(user); err != nil {
			log.Printf("[keepalive] refresh user: %v", err)
		}
	}
}
