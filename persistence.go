package main

import (
	"encoding/json"
	"net/http"
	"os"
	"path/filepath"
	"time"
)

// sessionBinding is the on-disk record tying a client session to its
// upstream game session. Only the upstream cookies are client-side
// bookkeeping; the game itself lives on the server.
type sessionBinding struct {
	SessionID string        `json:"sessionId"`
	Cookies   []savedCookie `json:"cookies"`
	SavedAt   time.Time     `json:"savedAt"`
}

type savedCookie struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

// saveSessionBinding persists a session's upstream cookies to disk.
func (app *App) saveSessionBinding(sess *clientSession) error {
	if sess.ID == "" || len(sess.ID) < 10 {
		logWarn("Skipping save for invalid session ID: %s", sess.ID)
		return nil
	}
	if sess.Jar == nil || app.UpstreamURL == nil {
		return nil
	}

	if err := os.MkdirAll(app.SessionDir, 0755); err != nil {
		logWarn("Failed to create sessions directory: %v", err)
		return err
	}

	binding := sessionBinding{
		SessionID: sess.ID,
		SavedAt:   time.Now(),
	}
	for _, c := range sess.Jar.Cookies(app.UpstreamURL) {
		binding.Cookies = append(binding.Cookies, savedCookie{Name: c.Name, Value: c.Value})
	}

	data, err := json.MarshalIndent(binding, "", "  ")
	if err != nil {
		logWarn("Failed to marshal session binding for %s: %v", sess.ID, err)
		return err
	}

	bindingFile := filepath.Join(app.SessionDir, sess.ID+".json")
	if err := os.WriteFile(bindingFile, data, 0644); err != nil {
		logWarn("Failed to write session binding %s: %v", bindingFile, err)
		return err
	}
	return nil
}

// restoreSessionBinding loads a persisted upstream cookie binding into a
// session's jar. Stale or corrupted binding files are removed.
func (app *App) restoreSessionBinding(sess *clientSession) error {
	if sess.ID == "" || len(sess.ID) < 10 {
		return os.ErrNotExist
	}
	if sess.Jar == nil || app.UpstreamURL == nil {
		return os.ErrNotExist
	}

	bindingFile := filepath.Join(app.SessionDir, sess.ID+".json")
	info, err := os.Stat(bindingFile)
	if err != nil {
		return err
	}

	fileAge := time.Since(info.ModTime())
	if fileAge > app.SessionTimeout {
		logInfo("Session binding too old (%v, max %v), removing: %s", fileAge, app.SessionTimeout, bindingFile)
		os.Remove(bindingFile)
		return os.ErrNotExist
	}

	data, err := os.ReadFile(bindingFile)
	if err != nil {
		logWarn("Failed to read session binding %s: %v", bindingFile, err)
		return err
	}

	var binding sessionBinding
	if err := json.Unmarshal(data, &binding); err != nil {
		logWarn("Session binding %s is corrupted, removing: %v", bindingFile, err)
		os.Remove(bindingFile)
		return os.ErrNotExist
	}
	if binding.SessionID != sess.ID {
		logWarn("Session binding %s names a different session (%s), removing", bindingFile, binding.SessionID)
		os.Remove(bindingFile)
		return os.ErrNotExist
	}

	cookies := make([]*http.Cookie, 0, len(binding.Cookies))
	for _, c := range binding.Cookies {
		cookies = append(cookies, &http.Cookie{Name: c.Name, Value: c.Value})
	}
	sess.Jar.SetCookies(app.UpstreamURL, cookies)
	return nil
}

// cleanupSessionBindings removes binding files older than maxAge.
func (app *App) cleanupSessionBindings(maxAge time.Duration) error {
	entries, err := os.ReadDir(app.SessionDir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		logWarn("Failed to read sessions directory: %v", err)
		return err
	}

	cutoff := time.Now().Add(-maxAge)
	removedCount := 0
	errorCount := 0

	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			logWarn("Failed to stat session binding %s: %v", entry.Name(), err)
			errorCount++
			continue
		}
		if info.ModTime().Before(cutoff) {
			bindingFile := filepath.Join(app.SessionDir, entry.Name())
			if err := os.Remove(bindingFile); err != nil {
				logWarn("Failed to remove old session binding %s: %v", bindingFile, err)
				errorCount++
			} else {
				removedCount++
			}
		}
	}

	if removedCount > 0 || errorCount > 0 {
		logInfo("Session binding cleanup: removed %d files, %d errors", removedCount, errorCount)
	}
	return nil
}
