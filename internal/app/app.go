package app

import (
	"context"

	wailsRuntime "github.com/wailsapp/wails/v2/pkg/runtime"

	"blocknotes/internal/api"
	"blocknotes/internal/config"
	"blocknotes/internal/pages"
	"blocknotes/internal/router"
	"blocknotes/internal/secret"
	"blocknotes/internal/service"
	"blocknotes/internal/session"
	"blocknotes/internal/storage"
)

// App is the main Wails application struct.
// All exported methods are available as Wails bindings.
type App struct {
	ctx context.Context
	cfg *config.Config

	db        *storage.DB
	session   *session.Session
	api       *api.Client
	router    *router.Router
	pages     *pages.Pages
	surface   *surface
	window    *service.WindowSettingsService
	approvals *storage.ApprovalStore

	keepalive       *service.KeepAliveService
	sessionWatcher  *session.Watcher
	approvalWatcher *approvalWatcher
	unsubscribe     func()
}

// New creates a new App.
func New() *App {
	return &App{}
}

// wailsEmitter sends events to the webview.
type wailsEmitter struct{}

func (wailsEmitter) Emit(ctx context.Context, event string, data any) {
	wailsRuntime.EventsEmit(ctx, event, data)
}

// Startup is called when the app starts.
func (a *App) Startup(ctx context.Context) {
	a.ctx = ctx

	cfg, err := config.Load("")
	if err != nil {
		wailsRuntime.LogFatalf(ctx, "Failed to load config: %v", err)
		return
	}
	a.cfg = cfg

	db, err := storage.New(cfg.DBPath())
	if err != nil {
		wailsRuntime.LogFatalf(ctx, "Failed to open database: %v", err)
		return
	}
	a.db = db
	a.approvals = storage.NewApprovalStore(db)

	a.session = session.New(storage.NewLocalStore(db), secret.Default(cfg.SecretsDir()))
	if err := a.session.Init(cfg.API.BaseURL); err != nil {
		wailsRuntime.LogErrorf(ctx, "Failed to restore session: %v", err)
	}
	a.api = api.New(cfg.API.BaseURL, a.session)

	emitter := wailsEmitter{}
	a.router = router.New()
	a.surface = newSurface(ctx, emitter)
	a.pages = pages.New(pages.Config{
		API:       a.api,
		Router:    a.router,
		View:      a.surface,
		Surface:   a.surface,
		Picker:    &imagePicker{ctx: ctx},
		SaveDelay: cfg.Editor.SaveDelay,
	})
	a.pages.RegisterRoutes()
	a.unsubscribe = a.router.Subscribe(func(ev router.Event) {
		emitter.Emit(ctx, service.EventRouteChanged, ev)
	})

	a.window = service.NewWindowSettingsService(db)
	size := a.window.LoadWindowSize()
	wailsRuntime.WindowSetSize(ctx, size.Width, size.Height)

	a.keepalive = service.NewKeepAliveService(a.api, a.session, sessionEmitter{a}, cfg.Session.KeepAlive)
	if err := a.keepalive.Start(ctx); err != nil {
		wailsRuntime.LogErrorf(ctx, "Failed to schedule keepalive: %v", err)
	}

	// Another process (the MCP server) shares the database: pick up its
	// logins/logouts and its approval requests.
	a.sessionWatcher, err = session.Watch(a.session, db.Path(), func(authenticated bool) {
		emitter.Emit(ctx, service.EventSessionChanged, map[string]bool{"authenticated": authenticated})
		if !authenticated {
			a.sessionLost()
		}
	})
	if err != nil {
		wailsRuntime.LogErrorf(ctx, "Failed to watch session: %v", err)
	}
	a.approvalWatcher = newApprovalWatcher(ctx, a.approvals, emitter)
	a.approvalWatcher.Start()
}

// Shutdown is called when the app is closing.
func (a *App) Shutdown(ctx context.Context) {
	if a.pages != nil {
		if m := a.pages.Editor(); m != nil {
			if err := m.Flush(ctx); err != nil {
				wailsRuntime.LogErrorf(ctx, "Failed to flush editor: %v", err)
			}
			m.Close()
		}
	}
	if a.approvalWatcher != nil {
		a.approvalWatcher.Stop()
	}
	if a.sessionWatcher != nil {
		a.sessionWatcher.Close()
	}
	if a.keepalive != nil {
		a.keepalive.Stop(ctx)
	}
	if a.unsubscribe != nil {
		a.unsubscribe()
	}
	if a.window != nil {
		w, h := wailsRuntime.WindowGetSize(ctx)
		if err := a.window.SaveWindowSize(w, h); err != nil {
			wailsRuntime.LogErrorf(ctx, "Failed to save window size: %v", err)
		}
	}
	if a.db != nil {
		a.db.Close()
	}
}

// sessionLost sends the user back to the login page after the session
// ended outside of an explicit logout.
func (a *App) sessionLost() {
	if err := a.router.Navigate(a.ctx, "/login"); err != nil {
		wailsRuntime.LogErrorf(a.ctx, "Failed to show login: %v", err)
	}
}

// sessionEmitter forwards keepalive events and reacts to an expired session.
type sessionEmitter struct{ app *App }

func (e sessionEmitter) Emit(ctx context.Context, event string, data any) {
	wailsRuntime.EventsEmit(ctx, event, data)
	if event == service.EventSessionExpired {
		go e.app.sessionLost()
	}
}
