package main

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/PPNORP/HANGNIMAL/internal/viewmodel"
)

// homeHandler performs the initial non-mutating state fetch and renders
// the full page. A failure here binds the no-game sentinel alongside the
// error text rather than leaving the page unspecified.
func (app *App) homeHandler(c *gin.Context) {
	ctx := c.Request.Context()
	sess := app.getOrCreateSession(c)
	seq := app.nextSeq(sess)

	snap, err := app.Upstream.State(ctx, sess.Jar)
	if err != nil {
		logWarn("Initial state fetch failed for session %s: %v", sess.ID, err)
		app.applyBind(sess, seq, bindNoGame())
		app.renderPage(c, app.boundState(sess), ErrorPrefix+err.Error())
		return
	}

	state := bindSnapshot(snap, time.Now())
	app.applyBind(sess, seq, state)
	app.renderPage(c, app.boundState(sess), "")
}

// startHandler begins a new upstream game. Always allowed; a successful
// bind re-enables controls a prior terminal state had disabled, since
// every bind rebuilds the whole UI state from its snapshot.
func (app *App) startHandler(c *gin.Context) {
	ctx := c.Request.Context()
	sess := app.getOrCreateSession(c)
	seq := app.nextSeq(sess)

	snap, err := app.Upstream.Start(ctx, sess.Jar)
	if err != nil {
		app.renderError(c, sess, err)
		return
	}
	app.applyBind(sess, seq, bindSnapshot(snap, time.Now()))
	app.renderGame(c, app.boundState(sess), "")
}

// resetHandler discards the upstream game and binds the no-game sentinel.
// Whatever body the reset returned is never bound.
func (app *App) resetHandler(c *gin.Context) {
	ctx := c.Request.Context()
	sess := app.getOrCreateSession(c)
	seq := app.nextSeq(sess)

	if err := app.Upstream.Reset(ctx, sess.Jar); err != nil {
		app.renderError(c, sess, err)
		return
	}
	app.applyBind(sess, seq, bindNoGame())
	app.renderGame(c, app.boundState(sess), "")
}

// guessHandler submits a guess. The input field is re-rendered empty on
// every response, so a slow request never leaves stale text behind.
// Whitespace-only input is a silent no-op: no upstream request at all.
func (app *App) guessHandler(c *gin.Context) {
	ctx := c.Request.Context()
	sess := app.getOrCreateSession(c)

	guess := normalizeGuess(c.PostForm("guess"))
	if guess == "" {
		app.renderGame(c, app.boundState(sess), "")
		return
	}

	seq := app.nextSeq(sess)
	snap, err := app.Upstream.Guess(ctx, sess.Jar, guess)
	if err != nil {
		app.renderError(c, sess, err)
		return
	}
	app.applyBind(sess, seq, bindSnapshot(snap, time.Now()))
	app.renderGame(c, app.boundState(sess), "")
}

// hintHandler asks the server to reveal a letter. The hint button is
// disabled once the displayed budget is exhausted, so a request only
// arrives here while the control was live.
func (app *App) hintHandler(c *gin.Context) {
	ctx := c.Request.Context()
	sess := app.getOrCreateSession(c)
	seq := app.nextSeq(sess)

	snap, err := app.Upstream.HintLetter(ctx, sess.Jar)
	if err != nil {
		app.renderError(c, sess, err)
		return
	}
	app.applyBind(sess, seq, bindSnapshot(snap, time.Now()))
	app.renderGame(c, app.boundState(sess), "")
}

// imageFailedHandler records an out-of-band thumbnail load failure. Only
// the image panel is downgraded; the bound game state stays as it was.
func (app *App) imageFailedHandler(c *gin.Context) {
	sess := app.getOrCreateSession(c)
	state := app.failBoundImage(sess)
	c.HTML(http.StatusOK, "image-panel", gin.H{"ui": state})
}

// gameStateHandler re-renders the currently bound state without touching
// the upstream.
func (app *App) gameStateHandler(c *gin.Context) {
	sess := app.getOrCreateSession(c)
	app.renderGame(c, app.boundState(sess), "")
}

// healthzHandler returns a JSON health check with client stats.
func (app *App) healthzHandler(c *gin.Context) {
	uptime := time.Since(app.StartTime)
	app.SessionMutex.RLock()
	sessionCount := len(app.Sessions)
	app.SessionMutex.RUnlock()
	c.JSON(http.StatusOK, gin.H{
		"status":    "ok",
		"env":       map[bool]string{true: "production", false: "development"}[app.IsProduction],
		"upstream":  app.Upstream.baseURL,
		"sessions":  sessionCount,
		"uptime":    formatUptime(uptime),
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})
}

// renderError surfaces a gateway failure on the message line, prefixed
// and bounded, without mutating the bound state.
func (app *App) renderError(c *gin.Context, sess *clientSession, err error) {
	logWarn("Session %s action failed (%s): %v", sess.ID, errorKind(err), err)
	app.renderGame(c, app.boundState(sess), ErrorPrefix+err.Error())
}

// renderGame renders the game fragment for HTMX requests and the full
// page otherwise, as submitting without scripting falls back to a plain
// form post.
func (app *App) renderGame(c *gin.Context, state viewmodel.UiState, alert string) {
	if c.GetHeader("HX-Request") == "true" {
		c.HTML(http.StatusOK, "game-content", gin.H{
			"ui":    state,
			"alert": alert,
		})
		return
	}
	app.renderPage(c, state, alert)
}

func (app *App) renderPage(c *gin.Context, state viewmodel.UiState, alert string) {
	c.HTML(http.StatusOK, "index.html", gin.H{
		"title": "Hangnimal - Animal Hangman",
		"ui":    state,
		"alert": alert,
	})
}
