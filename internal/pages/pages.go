// Package pages wires the router to page views and holds the actions the
// presentation layer triggers (form submits, buttons).
package pages

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"sync"
	"time"

	"blocknotes/internal/api"
	"blocknotes/internal/domain"
	"blocknotes/internal/editor"
	"blocknotes/internal/render"
	"blocknotes/internal/router"
)

// User-facing messages for failed actions.
const (
	MsgBadCredentials = "Неверное имя пользователя или пароль"
	MsgUsernameTaken  = "Имя пользователя уже занято"
	MsgRequestFailed  = "Не удалось выполнить запрос"
	MsgTicketSent     = "Обращение отправлено"
)

// View displays a whole page.
type View interface {
	Show(page render.Node)
}

type Config struct {
	API       *api.Client
	Router    *router.Router
	View      View
	Surface   editor.Surface
	Picker    editor.ImagePicker
	SaveDelay time.Duration
}

// Pages owns the page currently on screen.
type Pages struct {
	api       *api.Client
	router    *router.Router
	view      View
	surface   editor.Surface
	picker    editor.ImagePicker
	saveDelay time.Duration

	mu     sync.Mutex
	editor *editor.Manager
}

func New(cfg Config) *Pages {
	return &Pages{
		api:       cfg.API,
		router:    cfg.Router,
		view:      cfg.View,
		surface:   cfg.Surface,
		picker:    cfg.Picker,
		saveDelay: cfg.SaveDelay,
	}
}

// RegisterRoutes installs every route, the auth guard and the fallback.
func (p *Pages) RegisterRoutes() {
	r := p.router
	r.Handle("/", func(context.Context, router.Request) error { return router.Redirect("/notes") })
	r.Handle("/login", p.showLogin)
	r.Handle("/register", p.showRegister)
	r.Handle("/notes", p.showNotes)
	r.Handle("/note/new", p.showNewNote)
	r.Handle("/note/:id", p.showNote)
	r.Handle("/support", p.showSupport)
	r.Fallback("/notes")
	r.SetGuard(p.guard)
}

func (p *Pages) guard(path string) string {
	public := path == "/login" || path == "/register"
	authed := p.api.Session().IsAuthenticated()
	switch {
	case !authed && !public:
		return "/login"
	case authed && public:
		return "/notes"
	}
	return ""
}

// Editor returns the manager of the note being edited, if any.
func (p *Pages) Editor() *editor.Manager {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.editor
}

// closeEditor flushes and drops the current editor when leaving a note.
func (p *Pages) closeEditor(ctx context.Context) {
	p.mu.Lock()
	m := p.editor
	p.editor = nil
	p.mu.Unlock()
	if m == nil {
		return
	}
	if err := m.Flush(ctx); err != nil {
		log.Printf("[pages] flush editor: %v", err)
	}
	m.Close()
}

func (p *Pages) user() *domain.User {
	return p.api.Session().User()
}

// ── Auth ────────────────────────────────────────────────────

func (p *Pages) showLogin(ctx context.Context, _ router.Request) error {
	p.closeEditor(ctx)
	p.view.Show(LoginView(LoginForm{}, nil, ""))
	return nil
}

func (p *Pages) showRegister(ctx context.Context, _ router.Request) error {
	p.closeEditor(ctx)
	p.view.Show(RegisterView(RegisterForm{}, nil, ""))
	return nil
}

// Login validates the form, signs in and opens the notes list. Field
// problems are shown inline and returned as FieldErrors.
func (p *Pages) Login(ctx context.Context, f LoginForm) error {
	if fe := f.Validate(); len(fe) > 0 {
		p.view.Show(LoginView(f, fe, ""))
		return fe
	}
	if _, err := p.api.Login(ctx, f.Username, f.Password); err != nil {
		msg := MsgRequestFailed
		if api.IsStatus(err, http.StatusUnauthorized) {
			msg = MsgBadCredentials
		}
		p.view.Show(LoginView(f, nil, msg))
		return err
	}
	return p.router.Navigate(ctx, "/notes")
}

func (p *Pages) Register(ctx context.Context, f RegisterForm) error {
	if fe := f.Validate(); len(fe) > 0 {
		p.view.Show(RegisterView(f, fe, ""))
		return fe
	}
	if _, err := p.api.Register(ctx, f.Username, f.Email, f.Password); err != nil {
		if api.IsStatus(err, http.StatusConflict) {
			fe := FieldErrors{"username": MsgUsernameTaken}
			p.view.Show(RegisterView(f, fe, ""))
			return fe
		}
		p.view.Show(RegisterView(f, nil, MsgRequestFailed))
		return err
	}
	return p.router.Navigate(ctx, "/notes")
}

func (p *Pages) Logout(ctx context.Context) error {
	p.closeEditor(ctx)
	err := p.api.Logout(ctx)
	if navErr := p.router.Navigate(ctx, "/login"); navErr != nil {
		return navErr
	}
	return err
}

// ── Notes ───────────────────────────────────────────────────

func (p *Pages) showNotes(ctx context.Context, _ router.Request) error {
	p.closeEditor(ctx)
	notes, err := p.api.ListNotes(ctx)
	if err != nil {
		if api.IsStatus(err, http.StatusUnauthorized) {
			p.api.Session().Clear()
			return router.Redirect("/login")
		}
		return fmt.Errorf("list notes: %w", err)
	}
	p.view.Show(NotesView(p.user(), notes))
	return nil
}

func (p *Pages) refreshNotes(ctx context.Context) error {
	if p.router.Current() != "/notes" {
		return nil
	}
	return p.router.Navigate(ctx, "/notes")
}

func (p *Pages) DeleteNote(ctx context.Context, id domain.ServerID) error {
	if err := p.api.DeleteNote(ctx, id); err != nil {
		return fmt.Errorf("delete note: %w", err)
	}
	return p.refreshNotes(ctx)
}

func (p *Pages) SetFavorite(ctx context.Context, id domain.ServerID, favorite bool) error {
	if err := p.api.SetFavorite(ctx, id, favorite); err != nil {
		return fmt.Errorf("set favorite: %w", err)
	}
	return p.refreshNotes(ctx)
}

// ── Editor ──────────────────────────────────────────────────

func (p *Pages) openEditor(ctx context.Context, state domain.NoteState) {
	p.closeEditor(ctx)
	m := editor.New(p.api, p.surface, editor.Options{
		SaveDelay: p.saveDelay,
		Picker:    p.picker,
		Address:   p.router,
	})
	m.Load(state)

	p.mu.Lock()
	p.editor = m
	p.mu.Unlock()

	p.view.Show(EditorView(p.user(), state.Note.Title, state.Note.Favorite, m.Blocks()))
}

func (p *Pages) showNewNote(ctx context.Context, _ router.Request) error {
	p.openEditor(ctx, domain.NoteState{})
	return nil
}

func (p *Pages) showNote(ctx context.Context, req router.Request) error {
	id := domain.ServerID(req.Params["id"])
	if m := p.Editor(); m != nil {
		// The editor already promoted /note/new to this id.
		if current, ok := m.NoteID(); ok && current == id {
			return nil
		}
	}
	state, err := p.api.GetNoteState(ctx, id)
	if err != nil {
		var apiErr *api.APIError
		if errors.As(err, &apiErr) && (apiErr.Status == http.StatusNotFound || apiErr.Status == http.StatusForbidden) {
			return router.Redirect("/notes")
		}
		return fmt.Errorf("open note %s: %w", id, err)
	}
	p.openEditor(ctx, state)
	return nil
}

// ── Support ─────────────────────────────────────────────────

func (p *Pages) showSupport(ctx context.Context, _ router.Request) error {
	p.closeEditor(ctx)
	return p.renderSupport(ctx, TicketForm{}, nil, "")
}

func (p *Pages) renderSupport(ctx context.Context, f TicketForm, fe FieldErrors, notice string) error {
	tickets, err := p.api.ListTickets(ctx)
	if err != nil {
		return fmt.Errorf("list tickets: %w", err)
	}
	p.view.Show(SupportView(p.user(), tickets, f, fe, notice))
	return nil
}

// SubmitTicket validates and sends a support request, then redraws the
// ticket list.
func (p *Pages) SubmitTicket(ctx context.Context, f TicketForm) error {
	if fe := f.Validate(); len(fe) > 0 {
		if err := p.renderSupport(ctx, f, fe, ""); err != nil {
			return err
		}
		return fe
	}
	if _, err := p.api.CreateTicket(ctx, f.Subject, f.Message); err != nil {
		p.renderSupport(ctx, f, nil, MsgRequestFailed)
		return fmt.Errorf("create ticket: %w", err)
	}
	return p.renderSupport(ctx, TicketForm{}, nil, MsgTicketSent)
}
