package main

import (
	"time"

	"github.com/AdamBeresnev/kickabout/internal/clock"
	"github.com/AdamBeresnev/kickabout/internal/config"
	"github.com/AdamBeresnev/kickabout/internal/middleware"
	"github.com/AdamBeresnev/kickabout/internal/notify"
	"github.com/AdamBeresnev/kickabout/internal/service"
	"github.com/AdamBeresnev/kickabout/internal/store"
	"github.com/jmoiron/sqlx"
)

type application struct {
	cfg       config.App
	fixtures  *service.FixtureService
	teams     *service.TeamService
	users     *service.UserService
	userStore *store.UserStore
	clocks    *store.ClockStore
	hub       *clock.Hub
	limiter   *middleware.SubmitLimiter

	// clockInterval is the wall time of one clock second.
	clockInterval time.Duration
}

func newApplication(cfg config.App, db *sqlx.DB, publisher notify.Publisher) *application {
	fixtureStore := store.NewFixtureStore(db)
	teamStore := store.NewTeamStore(db)
	userStore := store.NewUserStore(db)
	clocks := store.NewClockStore(db)
	hub := clock.NewHub()

	return &application{
		cfg: cfg,
		fixtures: service.NewFixtureService(db, fixtureStore, clocks, teamStore,
			service.WithPublisher(publisher),
			service.WithRules(service.Rules{GoalThreshold: cfg.GoalThreshold}),
			service.WithClockHub(hub),
		),
		teams:     service.NewTeamService(db, teamStore),
		users:     service.NewUserService(db, userStore),
		userStore: userStore,
		clocks:    clocks,
		hub:       hub,
		limiter:   middleware.NewSubmitLimiter(cfg.SubmitRate, cfg.SubmitBurst),

		clockInterval: time.Second,
	}
}
