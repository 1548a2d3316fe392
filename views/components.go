package views

import (
	"context"
	"fmt"
	"io"

	"github.com/AdamBeresnev/kickabout/internal/clock"
	"github.com/AdamBeresnev/kickabout/internal/fixture"
	"github.com/AdamBeresnev/kickabout/internal/highlight"
	"github.com/a-h/templ"
	"github.com/google/uuid"
)

var esc = templ.EscapeString[string]

func page(title string, body templ.Component) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		if _, err := fmt.Fprintf(w, `<!DOCTYPE html><html lang="en"><head><meta charset="utf-8"><title>%s</title>`+
			`<script src="https://unpkg.com/htmx.org@2.0.4"></script><link rel="stylesheet" href="/static/app.css"></head><body>`, esc(title)); err != nil {
			return err
		}
		if user := GetUser(ctx); user != nil {
			fmt.Fprintf(w, `<header><span>%s</span><form method="post" action="/logout"><button>Log out</button></form></header>`, esc(user.DisplayName()))
		}
		if err := body.Render(ctx, w); err != nil {
			return err
		}
		_, err := io.WriteString(w, `</body></html>`)
		return err
	})
}

func LoginPage() templ.Component {
	return page("Log in", templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		_, err := io.WriteString(w, `<main class="login"><h1>Kickabout</h1>`+
			`<a href="/auth/discord">Log in with Discord</a><a href="/auth/google">Log in with Google</a>`+
			`<form method="post" action="/auth/guest"><button>Continue as guest</button></form></main>`)
		return err
	}))
}

func Index(fixtures []fixture.Fixture) templ.Component {
	return page("Fixtures", templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		io.WriteString(w, `<main><h1>Your fixtures</h1><ul class="fixtures">`)
		for _, f := range fixtures {
			fmt.Fprintf(w, `<li><a href="/fixtures/%s">%s</a> <time>%s</time> <span class="status">%s</span></li>`,
				f.ID, esc(f.Title), f.ScheduledAt.Format("Mon 2 Jan 15:04"), esc(string(f.Status)))
		}
		_, err := io.WriteString(w, `</ul></main>`)
		return err
	}))
}

func FixturePage(board Scoreboard, state clock.State) templ.Component {
	return page(board.Title, templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		fmt.Fprintf(w, `<main><h1>%s</h1>`, esc(board.Title))
		if err := ClockPanel(board.FixtureID, state).Render(ctx, w); err != nil {
			return err
		}
		if err := ScoreboardPanel(board).Render(ctx, w); err != nil {
			return err
		}
		_, err := fmt.Fprintf(w, `</main>%s`, clockScript(board.FixtureID))
		return err
	}))
}

// ScoreboardPanel refreshes itself whenever the page sees an events-recorded
// trigger.
func ScoreboardPanel(board Scoreboard) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		fmt.Fprintf(w, `<section id="scoreboard" hx-get="/fixtures/%s" hx-trigger="eventsRecorded from:body" hx-swap="outerHTML">`, board.FixtureID)
		fmt.Fprintf(w, `<p class="status">%s`, esc(string(board.Status)))
		if board.MatchID != nil {
			fmt.Fprintf(w, ` &middot; match %d`, board.Sequence)
		}
		io.WriteString(w, `</p><div class="teams">`)
		for _, t := range board.Teams {
			fmt.Fprintf(w, `<div class="team %s" style="--team-color:%s"><h2>%s</h2><p class="goals">%d</p><ul>`,
				esc(string(t.Role)), esc(t.Color), esc(t.Name), t.Goals)
			for _, p := range t.Players {
				fmt.Fprintf(w, `<li data-player="%s">%s <small>%dG %dA %dS</small></li>`,
					p.ID, esc(p.Name), p.Tally.Goals, p.Tally.Assists, p.Tally.Saves)
			}
			io.WriteString(w, `</ul></div>`)
		}
		io.WriteString(w, `</div><ol class="feed">`)
		for _, item := range board.Feed {
			fmt.Fprintf(w, `<li class="%s"><strong>%s</strong> %s`, esc(string(item.Type)), esc(item.Team), esc(item.Player))
			if item.Secondary != "" {
				fmt.Fprintf(w, ` (assist %s)`, esc(item.Secondary))
			}
			writeEmbed(w, item)
			io.WriteString(w, `</li>`)
		}
		io.WriteString(w, `</ol>`)
		if len(board.History) > 0 {
			io.WriteString(w, `<table class="history"><tr><th>#</th><th>Home</th><th></th><th>Away</th><th>Winner</th></tr>`)
			for _, h := range board.History {
				fmt.Fprintf(w, `<tr><td>%d</td><td>%s</td><td>%d&ndash;%d</td><td>%s</td><td>%s</td></tr>`,
					h.Sequence, esc(h.Home), h.Score.Home, h.Score.Away, esc(h.Away), esc(h.Winner))
			}
			io.WriteString(w, `</table>`)
		}
		_, err := io.WriteString(w, `</section>`)
		return err
	})
}

func ClockPanel(fixtureID uuid.UUID, s clock.State) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		running := "stopped"
		if s.Running {
			running = "running"
		}
		_, err := fmt.Fprintf(w, `<section id="clock" data-fixture="%s" class="%s %s"><span class="display">%s</span>`+
			`<button data-cmd="start">Start</button><button data-cmd="pause">Pause</button>`+
			`<button data-cmd="adjust" data-seconds="-10">-10s</button><button data-cmd="adjust" data-seconds="10">+10s</button>`+
			`<button data-cmd="overtime">Overtime</button></section>`,
			fixtureID, running, esc(string(s.Mode)), esc(s.String()))
		return err
	})
}

func DecisionBanner(d fixture.Decision) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		var text string
		switch d.Outcome {
		case fixture.OutcomeWinner:
			text = fmt.Sprintf("%s wins", d.Winner)
		case fixture.OutcomeTieBreak:
			text = "Level at full time: tie-break needed"
		default:
			return nil
		}
		_, err := fmt.Fprintf(w, `<div class="decision %s">%s</div>`, esc(string(d.Outcome)), esc(text))
		return err
	})
}

func writeEmbed(w io.Writer, item FeedItem) {
	switch item.Embed.Type {
	case highlight.EmbedTypeYouTube:
		fmt.Fprintf(w, `<iframe src="%s" allowfullscreen loading="lazy"></iframe>`, esc(item.Embed.URL))
	case highlight.EmbedTypeVideo:
		fmt.Fprintf(w, `<video src="%s" controls preload="none"></video>`, esc(item.Embed.URL))
	case highlight.EmbedTypeLink:
		fmt.Fprintf(w, ` <a href="%s" rel="noopener" target="_blank">clip</a>`, esc(item.Embed.URL))
	}
}

func clockScript(fixtureID uuid.UUID) string {
	return fmt.Sprintf(`<script>
(() => {
  const panel = document.getElementById("clock");
  const proto = location.protocol === "https:" ? "wss" : "ws";
  const ws = new WebSocket(proto + "://" + location.host + "/fixtures/%s/clock/ws");
  ws.onmessage = (msg) => {
    const s = JSON.parse(msg.data);
    if (s.type === "decision" || s.type === "reset") htmx.trigger(document.body, "eventsRecorded");
    if (s.read_only) panel.querySelectorAll("[data-cmd]").forEach((b) => b.remove());
    if (!s.state) return;
    panel.querySelector(".display").textContent = s.display;
    panel.className = (s.state.running ? "running " : "stopped ") + s.state.mode;
  };
  panel.addEventListener("click", (ev) => {
    const cmd = ev.target.dataset.cmd;
    if (!cmd) return;
    ws.send(JSON.stringify({cmd: cmd, seconds: Number(ev.target.dataset.seconds || 0)}));
  });
})();
</script>`, fixtureID)
}
