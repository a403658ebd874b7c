// Package router maps paths to page handlers. Navigation is explicit: the
// caller asks for a path, the router resolves it, runs the handler and
// publishes an Event to subscribers. Nothing polls.
package router

import (
	"context"
	"errors"
	"fmt"
	"path"
	"strings"
	"sync"
)

const maxRedirects = 8

var (
	ErrNotFound     = errors.New("no route")
	ErrRedirectLoop = errors.New("too many redirects")
	ErrInvalidPath  = errors.New("invalid path")
)

// Params holds the values of :name segments.
type Params map[string]string

type Request struct {
	Path   string
	Params Params
}

// Handler renders the page for a request. Returning Redirect(path) sends
// the router on to another path. Handlers must not call Navigate on the
// same router; they run while it dispatches.
type Handler func(ctx context.Context, req Request) error

type redirect struct{ to string }

func (r *redirect) Error() string { return "redirect to " + r.to }

// Redirect returns an error that makes Navigate continue at to.
func Redirect(to string) error { return &redirect{to: to} }

type EventKind string

const (
	Navigated EventKind = "navigated"
	Replaced  EventKind = "replaced"
)

type Event struct {
	Kind EventKind `json:"kind"`
	Path string    `json:"path"`
}

// Guard inspects a path before dispatch and returns a different path to go
// to instead, or "" to allow it.
type Guard func(path string) string

type route struct {
	pattern  string
	segments []string
	static   int
	handler  Handler
}

type Router struct {
	dispatch sync.Mutex

	mu       sync.RWMutex
	routes   []route
	fallback string
	guard    Guard
	current  string
	subs     map[int]func(Event)
	nextSub  int
}

func New() *Router {
	return &Router{subs: make(map[int]func(Event))}
}

// ── Configuration ───────────────────────────────────────────

// Handle registers h for pattern, e.g. "/note/:id". When several patterns
// match, the one with more static segments wins.
func (r *Router) Handle(pattern string, h Handler) {
	segs := split(pattern)
	static := 0
	for _, s := range segs {
		if !strings.HasPrefix(s, ":") {
			static++
		}
	}
	r.mu.Lock()
	r.routes = append(r.routes, route{pattern: pattern, segments: segs, static: static, handler: h})
	r.mu.Unlock()
}

// Fallback sets where unknown paths are sent.
func (r *Router) Fallback(to string) {
	r.mu.Lock()
	r.fallback = to
	r.mu.Unlock()
}

func (r *Router) SetGuard(g Guard) {
	r.mu.Lock()
	r.guard = g
	r.mu.Unlock()
}

// Subscribe registers fn for every navigation event and returns a function
// that removes it.
func (r *Router) Subscribe(fn func(Event)) func() {
	r.mu.Lock()
	id := r.nextSub
	r.nextSub++
	r.subs[id] = fn
	r.mu.Unlock()
	return func() {
		r.mu.Lock()
		delete(r.subs, id)
		r.mu.Unlock()
	}
}

// ── Navigation ──────────────────────────────────────────────

func (r *Router) Current() string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.current
}

// Navigate resolves p, follows guard and handler redirects and runs the
// final handler. Calls are serialized.
func (r *Router) Navigate(ctx context.Context, p string) error {
	final, err := r.resolve(ctx, p)
	if final != "" {
		r.publish(Event{Kind: Navigated, Path: final})
	}
	return err
}

// Replace changes the current path without running a handler, like
// history.replaceState.
func (r *Router) Replace(p string) {
	p = clean(p)
	r.mu.Lock()
	r.current = p
	r.mu.Unlock()
	r.publish(Event{Kind: Replaced, Path: p})
}

func (r *Router) resolve(ctx context.Context, p string) (string, error) {
	r.dispatch.Lock()
	defer r.dispatch.Unlock()

	if p == "" {
		return "", ErrInvalidPath
	}
	p = clean(p)
	for hops := 0; hops < maxRedirects; hops++ {
		r.mu.RLock()
		guard, fallback := r.guard, r.fallback
		r.mu.RUnlock()

		if guard != nil {
			if to := guard(p); to != "" && clean(to) != p {
				p = clean(to)
				continue
			}
		}

		rt, params, ok := r.match(p)
		if !ok {
			if fallback != "" && clean(fallback) != p {
				p = clean(fallback)
				continue
			}
			return "", fmt.Errorf("%w: %s", ErrNotFound, p)
		}

		err := rt.handler(ctx, Request{Path: p, Params: params})
		var rd *redirect
		if errors.As(err, &rd) {
			p = clean(rd.to)
			continue
		}

		r.mu.Lock()
		r.current = p
		r.mu.Unlock()
		return p, err
	}
	return "", fmt.Errorf("%w: last %s", ErrRedirectLoop, p)
}

func (r *Router) match(p string) (route, Params, bool) {
	segs := split(p)
	r.mu.RLock()
	defer r.mu.RUnlock()

	var best *route
	var bestParams Params
	for i := range r.routes {
		rt := &r.routes[i]
		params, ok := matchSegments(rt.segments, segs)
		if !ok {
			continue
		}
		if best == nil || rt.static > best.static {
			best, bestParams = rt, params
		}
	}
	if best == nil {
		return route{}, nil, false
	}
	return *best, bestParams, true
}

func matchSegments(pattern, segs []string) (Params, bool) {
	if len(pattern) != len(segs) {
		return nil, false
	}
	params := Params{}
	for i, ps := range pattern {
		if name, ok := strings.CutPrefix(ps, ":"); ok {
			if segs[i] == "" {
				return nil, false
			}
			params[name] = segs[i]
			continue
		}
		if ps != segs[i] {
			return nil, false
		}
	}
	return params, true
}

func (r *Router) publish(ev Event) {
	r.mu.RLock()
	subs := make([]func(Event), 0, len(r.subs))
	for _, fn := range r.subs {
		subs = append(subs, fn)
	}
	r.mu.RUnlock()
	for _, fn := range subs {
		fn(ev)
	}
}

// clean drops the query and fragment and normalizes slashes.
func clean(p string) string {
	if i := strings.IndexAny(p, "?#"); i >= 0 {
		p = p[:i]
	}
	if !strings.HasPrefix(p, "/") {
		p = "/" + p
	}
	return path.Clean(p)
}

func split(p string) []string {
	p = strings.Trim(clean(p), "/")
	if p == "" {
		return nil
	}
	return strings.Split(p, "/")
}
