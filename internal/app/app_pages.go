package app

// ─────────────────────────────────────────────────────────────
// Page Handlers are thin delegates to the router and pages
// ─────────────────────────────────────────────────────────────

import (
	"blocknotes/internal/domain"
	"blocknotes/internal/pages"
)

// ── Navigation ─────────────────────────────────────────────

// Navigate shows the page for path. The frontend calls it on load and on
// every link click.
func (a *App) Navigate(path string) error {
	return a.router.Navigate(a.ctx, path)
}

func (a *App) CurrentPath() string {
	return a.router.Current()
}

func (a *App) CurrentUser() *domain.User {
	return a.session.User()
}

// ── Auth ───────────────────────────────────────────────────

func (a *App) Login(form pages.LoginForm) error {
	return a.pages.Login(a.ctx, form)
}

func (a *App) Register(form pages.RegisterForm) error {
	return a.pages.Register(a.ctx, form)
}

func (a *App) Logout() error {
	return a.pages.Logout(a.ctx)
}

// ── Notes list ─────────────────────────────────────────────

func (a *App) DeleteNote(id string) error {
	return a.pages.DeleteNote(a.ctx, domain.ServerID(id))
}

func (a *App) SetFavorite(id string, favorite bool) error {
	return a.pages.SetFavorite(a.ctx, domain.ServerID(id), favorite)
}

// ── Support ────────────────────────────────────────────────

func (a *App) SubmitTicket(form pages.TicketForm) error {
	return a.pages.SubmitTicket(a.ctx, form)
}
