package main

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"net/url"
	"slices"
	"time"

	"github.com/AdamBeresnev/kickabout/internal/clock"
	"github.com/AdamBeresnev/kickabout/internal/fixture"
	"github.com/AdamBeresnev/kickabout/internal/httputil"
	"github.com/AdamBeresnev/kickabout/internal/service"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

const (
	viewerSendBuf = 32
	writeDeadline = 5 * time.Second
	pongWait      = 60 * time.Second
	pingInterval  = 30 * time.Second
)

type clockCommand struct {
	Cmd     string `json:"cmd"`
	Seconds int    `json:"seconds"`
}

type clockMessage struct {
	Type     string            `json:"type"`
	State    *clock.State      `json:"state,omitempty"`
	Display  string            `json:"display,omitempty"`
	Decision *fixture.Decision `json:"decision,omitempty"`
	ReadOnly bool              `json:"read_only,omitempty"`
	Error    string            `json:"error,omitempty"`
}

func stateMessage(s clock.State) clockMessage {
	return clockMessage{Type: "state", State: &s, Display: s.String()}
}

func (app *application) upgrader() websocket.Upgrader {
	return websocket.Upgrader{
		CheckOrigin: func(r *http.Request) bool {
			origin := r.Header.Get("Origin")
			if origin == "" {
				return true
			}
			u, err := url.Parse(origin)
			if err != nil {
				return false
			}
			return u.Host == r.Host || slices.Contains(app.cfg.CORSOrigins, origin)
		},
	}
}

// clockFeed gives one viewer its own match clock. The clock is resumed from
// the persisted snapshot, ticks while the connection is open and stops when
// the viewer goes away. Only viewers who may manage the fixture can control
// the clock or persist it; everyone else watches.
func (app *application) clockFeed(w http.ResponseWriter, r *http.Request) {
	fixtureID, ok := idParam(w, r, "id", "fixture")
	if !ok {
		return
	}
	if _, err := app.fixtures.CurrentMatch(r.Context(), fixtureID); err != nil {
		httputil.Error(w, "Failed to open clock", err)
		return
	}
	err := app.fixtures.CanManage(r.Context(), fixtureID)
	if err != nil && !errors.Is(err, fixture.ErrForbidden) {
		httputil.Error(w, "Failed to open clock", err)
		return
	}
	canManage := err == nil

	c, limitReached, err := app.resumeClock(r, fixtureID)
	if err != nil {
		httputil.InternalServerError(w, "Failed to load clock", err)
		return
	}

	upgrader := app.upgrader()
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		slog.Warn("clock websocket upgrade failed", "error", err)
		return
	}

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()

	v := &viewer{app: app, fixtureID: fixtureID, canManage: canManage, send: make(chan clockMessage, viewerSendBuf)}
	opts := []clock.RunnerOption{
		clock.OnTick(func(s clock.State) { v.push(stateMessage(s)) }),
		clock.OnLimit(func(clock.State) { v.limitReached(ctx) }),
	}
	if app.clockInterval > 0 {
		opts = append(opts, clock.WithInterval(app.clockInterval))
	}
	if !canManage {
		opts = append(opts, clock.ReadOnly())
	}
	key := service.ClockKey(fixtureID)
	v.runner = clock.NewRunner(c, app.clocks, key, opts...)

	// Rotation, end and delete reach this viewer through the hub. A closed
	// fixture ends the connection.
	leave := app.hub.Join(key, v.runner, func(s clock.State) {
		v.push(clockMessage{Type: "reset", State: &s, Display: s.String()})
	}, cancel)
	defer leave()

	go func() {
		if err := v.runner.Run(ctx); err != nil && ctx.Err() == nil {
			slog.Warn("clock runner stopped", "fixture_id", fixtureID, "error", err)
		}
	}()
	go v.writePump(ctx, conn)

	hello := stateMessage(v.runner.State())
	hello.ReadOnly = !canManage
	v.push(hello)
	if limitReached {
		v.limitReached(ctx)
	}
	v.readPump(ctx, conn)
}

type viewer struct {
	app       *application
	fixtureID uuid.UUID
	canManage bool
	runner    *clock.Runner
	send      chan clockMessage
}

func (v *viewer) push(msg clockMessage) {
	select {
	case v.send <- msg:
	default:
		slog.Warn("dropping clock message for slow viewer", "fixture_id", v.fixtureID, "type", msg.Type)
	}
}

// limitReached evaluates the current match at clock expiry and, with
// auto-rotate on, rotates a decided match. The rotation resets every open
// clock of the fixture, this one included.
func (v *viewer) limitReached(ctx context.Context) {
	matchID, err := v.app.fixtures.CurrentMatch(ctx, v.fixtureID)
	if err != nil {
		slog.Warn("clock expired without a current match", "fixture_id", v.fixtureID, "error", err)
		return
	}
	eval, err := v.app.fixtures.EvaluateMatch(ctx, matchID, true)
	if err != nil {
		slog.Error("failed to evaluate match at clock expiry", "match_id", matchID, "error", err)
		return
	}
	v.push(clockMessage{Type: "decision", Decision: &eval.Decision})

	if !v.app.cfg.AutoRotate || !v.canManage {
		return
	}
	winner, loser, ok := eval.WinnerRoleIDs()
	if !ok {
		return
	}
	if _, err := v.app.fixtures.RotateTeams(ctx, matchID, winner, loser); err != nil {
		slog.Warn("failed to rotate at clock expiry", "match_id", matchID, "error", err)
	}
}

func (v *viewer) apply(ctx context.Context, cmd clockCommand) (clock.State, error) {
	if !v.canManage {
		return v.runner.State(), errReadOnly
	}
	switch cmd.Cmd {
	case "start":
		return v.runner.Start(ctx)
	case "pause":
		return v.runner.Pause(ctx)
	case "adjust":
		return v.runner.Adjust(ctx, time.Duration(cmd.Seconds)*time.Second)
	case "overtime":
		return v.runner.EnterOvertime(ctx)
	case "reset":
		return v.runner.Reset(ctx)
	}
	return v.runner.State(), errUnknownCommand
}

var (
	errUnknownCommand = errors.New("unknown clock command")
	errReadOnly       = errors.New("only the fixture owner can control the clock")
)

// readPump handles viewer commands until the connection drops.
func (v *viewer) readPump(ctx context.Context, conn *websocket.Conn) {
	conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, raw, err := conn.ReadMessage()
		if err != nil {
			return
		}
		var cmd clockCommand
		if err := json.Unmarshal(raw, &cmd); err != nil {
			v.push(clockMessage{Type: "error", Error: "invalid command"})
			continue
		}
		s, err := v.apply(ctx, cmd)
		if err != nil {
			v.push(clockMessage{Type: "error", Error: err.Error(), State: &s, Display: s.String()})
			continue
		}
		v.push(stateMessage(s))
	}
}

// writePump owns writes to the connection and closes it on exit.
func (v *viewer) writePump(ctx context.Context, conn *websocket.Conn) {
	ticker := time.NewTicker(pingInterval)
	defer func() {
		ticker.Stop()
		conn.Close()
	}()

	for {
		select {
		case msg := <-v.send:
			conn.SetWriteDeadline(time.Now().Add(writeDeadline))
			if err := conn.WriteJSON(msg); err != nil {
				slog.Warn("clock websocket write failed", "fixture_id", v.fixtureID, "error", err)
				return
			}
		case <-ctx.Done():
			conn.SetWriteDeadline(time.Now().Add(writeDeadline))
			conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
			return
		case <-ticker.C:
			conn.SetWriteDeadline(time.Now().Add(writeDeadline))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
