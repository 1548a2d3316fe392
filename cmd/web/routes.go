package main

import (
	"context"
	"net/http"

	"github.com/AdamBeresnev/kickabout/internal/httputil"
	"github.com/AdamBeresnev/kickabout/internal/middleware"
	"github.com/AdamBeresnev/kickabout/views"
	"github.com/alexedwards/scs/v2"
	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/markbates/goth/gothic"
)

func newRouter(app *application, sessionManager *scs.SessionManager) http.Handler {
	r := chi.NewRouter()

	r.Use(chimiddleware.Logger)
	r.Use(chimiddleware.Recoverer)
	r.Use(sessionManager.LoadAndSave)

	// Serve static files
	fileServer := http.FileServer(http.Dir("./static"))
	r.Handle("/static/*", http.StripPrefix("/static/", fileServer))

	r.Group(func(r chi.Router) {
		r.Use(middleware.RequireAuth(sessionManager, app.userStore))

		r.Get("/", app.index)

		r.Post("/teams", app.createTeam)
		r.Get("/teams/{id}", app.getTeam)
		r.Post("/teams/{id}/players", app.addPlayers)
		r.Delete("/teams/{id}/players/{playerID}", app.removePlayer)

		r.Post("/fixtures", app.createFixture)
		r.Route("/fixtures/{id}", func(r chi.Router) {
			r.Get("/", app.getFixture)
			r.Delete("/", app.deleteFixture)
			r.Post("/setup", app.setupFixture)
			r.Post("/start", app.startFixture)
			r.Post("/end", app.endFixture)
			r.Get("/clock", app.clockState)
			r.Get("/clock/ws", app.clockFeed)
		})

		r.Route("/matches/{id}", func(r chi.Router) {
			r.With(app.limiter.Handler).Post("/events", app.submitEvents)
			r.Post("/evaluate", app.evaluateMatch)
			r.Post("/rotate", app.rotateTeams)
		})
	})

	r.Get("/auth/{provider}", func(w http.ResponseWriter, r *http.Request) {
		provider := chi.URLParam(r, "provider")
		r = r.WithContext(context.WithValue(r.Context(), "provider", provider))

		gothic.BeginAuthHandler(w, r)
	})

	r.Get("/auth/{provider}/callback", func(w http.ResponseWriter, r *http.Request) {
		provider := chi.URLParam(r, "provider")
		r = r.WithContext(context.WithValue(r.Context(), "provider", provider))

		gothUser, err := gothic.CompleteUserAuth(w, r)
		if err != nil {
			httputil.BadRequest(w, "Authentication failure", err)
			return
		}

		user, err := app.users.FindOrCreateUserByProvider(r.Context(), gothUser)
		if err != nil {
			httputil.InternalServerError(w, "Failed to find or create user", err)
			return
		}

		sessionManager.Put(r.Context(), "userID", user.ID.String())

		http.Redirect(w, r, "/", http.StatusFound)
	})

	r.Get("/login", func(w http.ResponseWriter, r *http.Request) {
		views.Render(w, r, views.LoginPage())
	})

	r.Post("/auth/guest", func(w http.ResponseWriter, r *http.Request) {
		user, err := app.users.EnsureGuestUser(r.Context())
		if err != nil {
			httputil.InternalServerError(w, "Failed to login as guest", err)
			return
		}

		sessionManager.Put(r.Context(), "userID", user.ID.String())
		http.Redirect(w, r, "/", http.StatusFound)
	})

	r.Post("/logout", func(w http.ResponseWriter, r *http.Request) {
		sessionManager.Destroy(r.Context())
		if r.Header.Get("HX-Request") != "" {
			w.Header().Set("HX-Redirect", "/login")
			w.WriteHeader(http.StatusOK)
			return
		}
		http.Redirect(w, r, "/login", http.StatusFound)
	})

	return r
}
