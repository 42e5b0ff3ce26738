package main

import (
	"net/http"
	"net/http/cookiejar"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/samber/lo"

	"github.com/PPNORP/HANGNIMAL/internal/viewmodel"
)

// clientSession binds one browser to one upstream game session. The jar
// carries the upstream's session cookie; Bound is the single currently
// displayed UI state, always replaced whole, never merged.
type clientSession struct {
	ID             string
	Jar            *cookiejar.Jar
	Bound          viewmodel.UiState
	Seq            uint64 // latest issued request sequence number
	LastAccessTime time.Time
}

// getOrCreateSession retrieves the session ID from the cookie or creates
// a new one, then returns the session it names.
func (app *App) getOrCreateSession(c *gin.Context) *clientSession {
	sessionID, err := c.Cookie(SessionCookieName)
	if err != nil || len(sessionID) < 10 {
		sessionID = uuid.NewString()
		c.SetSameSite(http.SameSiteStrictMode)
		secure := app.IsProduction
		c.SetCookie(SessionCookieName, sessionID, int(app.CookieMaxAge.Seconds()), "/", "", secure, true)
		logInfo("Created new session: %s", sessionID)
	}
	return app.getClientSession(sessionID)
}

// getClientSession retrieves or creates the clientSession for an ID. A
// session missing from memory is restored from its persisted upstream
// cookie binding when one exists, so a restart does not orphan upstream
// games.
func (app *App) getClientSession(sessionID string) *clientSession {
	app.SessionMutex.RLock()
	sess, exists := app.Sessions[sessionID]
	app.SessionMutex.RUnlock()
	if exists {
		app.SessionMutex.Lock()
		sess.LastAccessTime = time.Now()
		app.SessionMutex.Unlock()
		return sess
	}

	sess = app.newClientSession(sessionID)
	if err := app.restoreSessionBinding(sess); err == nil {
		logInfo("Restored upstream binding for session: %s", sessionID)
	}

	app.SessionMutex.Lock()
	// Another request may have raced us here; keep the first one in.
	if existing, ok := app.Sessions[sessionID]; ok {
		app.SessionMutex.Unlock()
		return existing
	}
	app.Sessions[sessionID] = sess
	app.SessionMutex.Unlock()
	return sess
}

func (app *App) newClientSession(sessionID string) *clientSession {
	jar, err := cookiejar.New(nil)
	if err != nil {
		// cookiejar.New with nil options cannot fail today; guard anyway.
		logWarn("Failed to create cookie jar for session %s: %v", sessionID, err)
	}
	return &clientSession{
		ID:             sessionID,
		Jar:            jar,
		Bound:          bindNoGame(),
		LastAccessTime: time.Now(),
	}
}

// nextSeq issues the next request sequence number for a session. The
// number tags the response so arrivals from superseded requests can be
// recognized and dropped.
func (app *App) nextSeq(sess *clientSession) uint64 {
	app.SessionMutex.Lock()
	defer app.SessionMutex.Unlock()
	sess.Seq++
	return sess.Seq
}

// applyBind installs a freshly bound UI state for the request tagged seq.
// It reports false, leaving the bound state untouched, when a newer
// request has been issued since: the visible state must reflect the most
// recently issued action, not the most recently arrived response.
func (app *App) applyBind(sess *clientSession, seq uint64, state viewmodel.UiState) bool {
	app.SessionMutex.Lock()
	if seq < sess.Seq {
		app.SessionMutex.Unlock()
		logInfo("Discarding stale response for session %s (seq %d < %d)", sess.ID, seq, sess.Seq)
		return false
	}
	sess.Bound = state
	sess.LastAccessTime = time.Now()
	app.SessionMutex.Unlock()

	if err := app.saveSessionBinding(sess); err != nil {
		logWarn("Failed to persist session binding for %s: %v", sess.ID, err)
	}
	return true
}

// boundState returns a copy of the session's currently bound UI state.
func (app *App) boundState(sess *clientSession) viewmodel.UiState {
	app.SessionMutex.RLock()
	defer app.SessionMutex.RUnlock()
	return sess.Bound
}

// failBoundImage downgrades the image panel of the bound state and
// returns the result. Image load failures arrive out of band, so this
// deliberately bypasses the sequence check: whichever state is bound at
// arrival time gets its image panel downgraded, nothing else changes.
func (app *App) failBoundImage(sess *clientSession) viewmodel.UiState {
	app.SessionMutex.Lock()
	defer app.SessionMutex.Unlock()
	sess.Bound = markImageFailed(sess.Bound)
	sess.LastAccessTime = time.Now()
	return sess.Bound
}

// sweepSessions drops in-memory sessions idle past maxAge.
func (app *App) sweepSessions(maxAge time.Duration) int {
	cutoff := time.Now().Add(-maxAge)
	app.SessionMutex.Lock()
	defer app.SessionMutex.Unlock()
	before := len(app.Sessions)
	app.Sessions = lo.OmitBy(app.Sessions, func(_ string, sess *clientSession) bool {
		return sess.LastAccessTime.Before(cutoff)
	})
	removed := before - len(app.Sessions)
	if removed > 0 {
		logInfo("Swept %d idle client sessions", removed)
	}
	return removed
}
