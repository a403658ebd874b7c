package router_test

import (
	"context"
	"errors"
	"testing"

	"blocknotes/internal/router"
)

func TestNavigate_StaticBeatsParam(t *testing.T) {
	r := router.New()
	var hit string
	var id string
	r.Handle("/note/:id", func(_ context.Context, req router.Request) error {
		hit, id = "note", req.Params["id"]
		return nil
	})
	r.Handle("/note/new", func(context.Context, router.Request) error {
		hit = "new"
		return nil
	})

	if err := r.Navigate(context.Background(), "/note/new"); err != nil || hit != "new" {
		t.Fatalf("hit = %q, err = %v", hit, err)
	}
	if err := r.Navigate(context.Background(), "/note/42?x=1"); err != nil || hit != "note" || id != "42" {
		t.Fatalf("hit = %q id = %q err = %v", hit, id, err)
	}
	if r.Current() != "/note/42" {
		t.Fatalf("current = %q", r.Current())
	}
}

func TestNavigate_RedirectsAndFallback(t *testing.T) {
	r := router.New()
	var rendered []string
	page := func(name string) router.Handler {
		return func(context.Context, router.Request) error {
			rendered = append(rendered, name)
			return nil
		}
	}
	r.Handle("/notes", page("notes"))
	r.Handle("/login", page("login"))
	r.Handle("/", func(context.Context, router.Request) error { return router.Redirect("/notes") })
	r.Fallback("/notes")

	var events []router.Event
	r.Subscribe(func(ev router.Event) { events = append(events, ev) })

	r.Navigate(context.Background(), "/")
	r.Navigate(context.Background(), "/does/not/exist")

	if len(rendered) != 2 || rendered[0] != "notes" || rendered[1] != "notes" {
		t.Fatalf("rendered = %v", rendered)
	}
	if len(events) != 2 || events[0] != (router.Event{Kind: router.Navigated, Path: "/notes"}) {
		t.Fatalf("events = %v", events)
	}
}

func TestNavigate_Guard(t *testing.T) {
	r := router.New()
	var rendered string
	for _, p := range []string{"/login", "/notes"} {
		p := p
		r.Handle(p, func(context.Context, router.Request) error { rendered = p; return nil })
	}
	authed := false
	r.SetGuard(func(p string) string {
		if !authed && p != "/login" {
			return "/login"
		}
		return ""
	})

	r.Navigate(context.Background(), "/notes")
	if rendered != "/login" {
		t.Fatalf("unauthenticated user reached %q", rendered)
	}
	authed = true
	r.Navigate(context.Background(), "/notes")
	if rendered != "/notes" {
		t.Fatalf("rendered = %q", rendered)
	}
}

func TestNavigate_Errors(t *testing.T) {
	r := router.New()
	if err := r.Navigate(context.Background(), "/nowhere"); !errors.Is(err, router.ErrNotFound) {
		t.Fatalf("err = %v", err)
	}

	r.Handle("/a", func(context.Context, router.Request) error { return router.Redirect("/b") })
	r.Handle("/b", func(context.Context, router.Request) error { return router.Redirect("/a") })
	if err := r.Navigate(context.Background(), "/a"); !errors.Is(err, router.ErrRedirectLoop) {
		t.Fatalf("err = %v", err)
	}

	boom := errors.New("boom")
	r.Handle("/c", func(context.Context, router.Request) error { return boom })
	if err := r.Navigate(context.Background(), "/c"); !errors.Is(err, boom) {
		t.Fatalf("err = %v", err)
	}
}

func TestReplace_DoesNotRender(t *testing.T) {
	r := router.New()
	renders := 0
	r.Handle("/note/:id", func(context.Context, router.Request) error { renders++; return nil })

	var got []router.Event
	unsubscribe := r.Subscribe(func(ev router.Event) { got = append(got, ev) })
	r.Replace("/note/7")

	if renders != 0 || r.Current() != "/note/7" {
		t.Fatalf("renders = %d current = %q", renders, r.Current())
	}
	if len(got) != 1 || got[0].Kind != router.Replaced {
		t.Fatalf("events = %v", got)
	}

	unsubscribe()
	r.Replace("/note/8")
	if len(got) != 1 {
		t.Fatal("unsubscribed listener still called")
	}
}
