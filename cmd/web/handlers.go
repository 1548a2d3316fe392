package main

import (
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/AdamBeresnev/kickabout/internal/clock"
	"github.com/AdamBeresnev/kickabout/internal/fixture"
	"github.com/AdamBeresnev/kickabout/internal/highlight"
	"github.com/AdamBeresnev/kickabout/internal/httputil"
	"github.com/AdamBeresnev/kickabout/internal/service"
	"github.com/AdamBeresnev/kickabout/views"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
)

type createTeamRequest struct {
	Name    string   `json:"name"`
	Color   string   `json:"color"`
	Players []string `json:"players"`
}

type addPlayersRequest struct {
	Players []string `json:"players"`
}

type createFixtureRequest struct {
	Title       string    `json:"title"`
	ScheduledAt time.Time `json:"scheduled_at"`
}

type setupRequest struct {
	HomeTeamID    uuid.UUID `json:"home_team_id"`
	AwayTeamID    uuid.UUID `json:"away_team_id"`
	WaitingTeamID uuid.UUID `json:"waiting_team_id"`
}

type eventRequest struct {
	TeamRoleID        uuid.UUID  `json:"team_role_id"`
	Type              string     `json:"type"`
	PlayerID          *uuid.UUID `json:"player_id,omitempty"`
	SecondaryPlayerID *uuid.UUID `json:"secondary_player_id,omitempty"`
	ClipURL           string     `json:"clip_url,omitempty"`
}

type submitRequest struct {
	Events []eventRequest `json:"events"`
}

type submitResponse struct {
	*service.SubmitResult
	Rotation *service.RotateResult `json:"rotation,omitempty"`
}

type rotateRequest struct {
	WinningRoleID uuid.UUID `json:"winning_role_id"`
	LosingRoleID  uuid.UUID `json:"losing_role_id"`
}

type clockResponse struct {
	State   clock.State `json:"state"`
	Display string      `json:"display"`
	Expired bool        `json:"expired"`
}

func (req eventRequest) draft() (fixture.Draft, error) {
	t, err := fixture.ParseEventType(req.Type)
	if err != nil {
		return fixture.Draft{}, err
	}
	clip, err := highlight.Normalize(req.ClipURL)
	if err != nil {
		return fixture.Draft{}, err
	}
	return fixture.NewDraft(req.TeamRoleID, t, req.PlayerID, req.SecondaryPlayerID, clip)
}

func (req submitRequest) drafts() ([]fixture.Draft, error) {
	drafts := make([]fixture.Draft, 0, len(req.Events))
	for i, e := range req.Events {
		d, err := e.draft()
		if err != nil {
			return nil, fmt.Errorf("event %d: %w", i+1, err)
		}
		drafts = append(drafts, d)
	}
	return drafts, nil
}

func idParam(w http.ResponseWriter, r *http.Request, name, what string) (uuid.UUID, bool) {
	id, err := uuid.Parse(chi.URLParam(r, name))
	if err != nil {
		httputil.BadRequest(w, "Invalid "+what+" ID", err)
		return uuid.Nil, false
	}
	return id, true
}

func decode(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := httputil.DecodeJSON(r, v); err != nil {
		httputil.BadRequest(w, "Invalid request body", err)
		return false
	}
	return true
}

// respond answers htmx requests by asking the page to refresh its
// scoreboard, everything else with JSON.
func respond(w http.ResponseWriter, r *http.Request, status int, v any) {
	if r.Header.Get("HX-Request") != "" {
		w.Header().Set("HX-Trigger", "eventsRecorded")
		w.WriteHeader(http.StatusNoContent)
		return
	}
	httputil.JSON(w, status, v)
}

func wantsHTML(r *http.Request) bool {
	return r.Header.Get("HX-Request") != "" || strings.Contains(r.Header.Get("Accept"), "text/html")
}

func (app *application) index(w http.ResponseWriter, r *http.Request) {
	fixtures, err := app.fixtures.GetFixturesForUser(r.Context())
	if err != nil {
		httputil.InternalServerError(w, "Failed to get fixtures", err)
		return
	}
	views.Render(w, r, views.Index(fixtures))
}

func (app *application) createTeam(w http.ResponseWriter, r *http.Request) {
	var req createTeamRequest
	if !decode(w, r, &req) {
		return
	}
	team, err := app.teams.CreateTeam(r.Context(), req.Name, req.Color, req.Players)
	if err != nil {
		httputil.Error(w, "Failed to create team", err)
		return
	}
	httputil.JSON(w, http.StatusCreated, team)
}

func (app *application) getTeam(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, r, "id", "team")
	if !ok {
		return
	}
	team, err := app.teams.GetTeam(r.Context(), id)
	if err != nil {
		httputil.Error(w, "Failed to get team", err)
		return
	}
	httputil.JSON(w, http.StatusOK, team)
}

func (app *application) addPlayers(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, r, "id", "team")
	if !ok {
		return
	}
	var req addPlayersRequest
	if !decode(w, r, &req) {
		return
	}
	team, err := app.teams.AddPlayers(r.Context(), id, req.Players)
	if err != nil {
		httputil.Error(w, "Failed to add players", err)
		return
	}
	httputil.JSON(w, http.StatusOK, team)
}

func (app *application) removePlayer(w http.ResponseWriter, r *http.Request) {
	teamID, ok := idParam(w, r, "id", "team")
	if !ok {
		return
	}
	playerID, ok := idParam(w, r, "playerID", "player")
	if !ok {
		return
	}
	if err := app.teams.RemovePlayer(r.Context(), teamID, playerID); err != nil {
		httputil.Error(w, "Failed to remove player", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (app *application) createFixture(w http.ResponseWriter, r *http.Request) {
	var req createFixtureRequest
	if !decode(w, r, &req) {
		return
	}
	f, err := app.fixtures.CreateFixture(r.Context(), req.Title, req.ScheduledAt)
	if err != nil {
		httputil.Error(w, "Failed to create fixture", err)
		return
	}
	if r.Header.Get("HX-Request") != "" {
		w.Header().Set("HX-Redirect", fmt.Sprintf("/fixtures/%s", f.ID))
		w.WriteHeader(http.StatusOK)
		return
	}
	httputil.JSON(w, http.StatusCreated, f)
}

func (app *application) getFixture(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, r, "id", "fixture")
	if !ok {
		return
	}
	data, err := app.fixtures.GetFixture(r.Context(), id)
	if err != nil {
		httputil.Error(w, "Failed to get fixture", err)
		return
	}
	if !wantsHTML(r) {
		httputil.JSON(w, http.StatusOK, data)
		return
	}

	board := views.PrepareScoreboard(data)
	if r.Header.Get("HX-Request") != "" {
		views.Render(w, r, views.ScoreboardPanel(board))
		return
	}
	c, _, err := app.resumeClock(r, id)
	if err != nil {
		httputil.InternalServerError(w, "Failed to load clock", err)
		return
	}
	views.Render(w, r, views.FixturePage(board, c.State()))
}

func (app *application) deleteFixture(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, r, "id", "fixture")
	if !ok {
		return
	}
	if err := app.fixtures.DeleteFixture(r.Context(), id); err != nil {
		httputil.Error(w, "Failed to delete fixture", err)
		return
	}
	if r.Header.Get("HX-Request") != "" {
		w.Header().Set("HX-Redirect", "/")
		w.WriteHeader(http.StatusOK)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (app *application) setupFixture(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, r, "id", "fixture")
	if !ok {
		return
	}
	var req setupRequest
	if !decode(w, r, &req) {
		return
	}
	f, err := app.fixtures.SetupFixture(r.Context(), id, fixture.RoleAssignment{
		Home:    req.HomeTeamID,
		Away:    req.AwayTeamID,
		Waiting: req.WaitingTeamID,
	})
	if err != nil {
		httputil.Error(w, "Failed to set up fixture", err)
		return
	}
	respond(w, r, http.StatusOK, f)
}

func (app *application) startFixture(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, r, "id", "fixture")
	if !ok {
		return
	}
	f, match, err := app.fixtures.StartFixture(r.Context(), id)
	if err != nil {
		httputil.Error(w, "Failed to start fixture", err)
		return
	}
	respond(w, r, http.StatusOK, map[string]any{"fixture": f, "match": match})
}

func (app *application) endFixture(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, r, "id", "fixture")
	if !ok {
		return
	}
	f, err := app.fixtures.EndFixture(r.Context(), id)
	if err != nil {
		httputil.Error(w, "Failed to end fixture", err)
		return
	}
	respond(w, r, http.StatusOK, f)
}

func (app *application) submitEvents(w http.ResponseWriter, r *http.Request) {
	matchID, ok := idParam(w, r, "id", "match")
	if !ok {
		return
	}
	var req submitRequest
	if !decode(w, r, &req) {
		return
	}
	drafts, err := req.drafts()
	if err != nil {
		httputil.Error(w, "Invalid events", err)
		return
	}

	expired, err := app.clockExpired(r, matchID)
	if err != nil {
		httputil.Error(w, "Failed to load clock", err)
		return
	}

	res, err := app.fixtures.SubmitEvents(r.Context(), matchID, drafts, expired)
	if err != nil {
		httputil.Error(w, "Failed to submit events", err)
		return
	}
	out := submitResponse{SubmitResult: res}
	if app.cfg.AutoRotate && res.Decision.HasWinner() {
		rotation, err := app.rotateOnWinner(r, matchID, expired)
		if err != nil {
			httputil.Error(w, "Failed to rotate teams", err)
			return
		}
		out.Rotation = rotation
	}
	respond(w, r, http.StatusCreated, out)
}

// rotateOnWinner re-evaluates the match and rotates if it still has a
// winner.
func (app *application) rotateOnWinner(r *http.Request, matchID uuid.UUID, clockExpired bool) (*service.RotateResult, error) {
	eval, err := app.fixtures.EvaluateMatch(r.Context(), matchID, clockExpired)
	if err != nil {
		return nil, err
	}
	winner, loser, ok := eval.WinnerRoleIDs()
	if !ok {
		return nil, nil
	}
	return app.fixtures.RotateTeams(r.Context(), matchID, winner, loser)
}

func (app *application) evaluateMatch(w http.ResponseWriter, r *http.Request) {
	matchID, ok := idParam(w, r, "id", "match")
	if !ok {
		return
	}
	expired, err := app.clockExpired(r, matchID)
	if err != nil {
		httputil.Error(w, "Failed to load clock", err)
		return
	}
	eval, err := app.fixtures.EvaluateMatch(r.Context(), matchID, expired)
	if err != nil {
		httputil.Error(w, "Failed to evaluate match", err)
		return
	}
	if r.Header.Get("HX-Request") != "" {
		views.Render(w, r, views.DecisionBanner(eval.Decision))
		return
	}
	httputil.JSON(w, http.StatusOK, eval)
}

func (app *application) rotateTeams(w http.ResponseWriter, r *http.Request) {
	matchID, ok := idParam(w, r, "id", "match")
	if !ok {
		return
	}
	var req rotateRequest
	if !decode(w, r, &req) {
		return
	}
	res, err := app.fixtures.RotateTeams(r.Context(), matchID, req.WinningRoleID, req.LosingRoleID)
	if err != nil {
		httputil.Error(w, "Failed to rotate teams", err)
		return
	}
	respond(w, r, http.StatusOK, res)
}

func (app *application) clockState(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, r, "id", "fixture")
	if !ok {
		return
	}
	c, _, err := app.resumeClock(r, id)
	if err != nil {
		httputil.InternalServerError(w, "Failed to load clock", err)
		return
	}
	s := c.State()
	httputil.JSON(w, http.StatusOK, clockResponse{State: s, Display: s.String(), Expired: c.Expired()})
}

// clockExpired reports whether the fixture's persisted clock, recovered to
// now, has reached its limit. Clients cannot declare expiry themselves.
func (app *application) clockExpired(r *http.Request, matchID uuid.UUID) (bool, error) {
	fixtureID, err := app.fixtures.MatchFixtureID(r.Context(), matchID)
	if err != nil {
		return false, err
	}
	c, _, err := app.resumeClock(r, fixtureID)
	if err != nil {
		return false, err
	}
	return c.Expired(), nil
}

func (app *application) resumeClock(r *http.Request, fixtureID uuid.UUID) (*clock.Clock, bool, error) {
	return clock.Resume(r.Context(), app.clocks, service.ClockKey(fixtureID), app.cfg.Clock(), time.Now())
}
