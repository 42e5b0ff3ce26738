package main

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

func newTestJar(t *testing.T) *cookiejar.Jar {
	t.Helper()
	jar, err := cookiejar.New(nil)
	if err != nil {
		t.Fatalf("cookiejar.New: %v", err)
	}
	return jar
}

func newTestUpstream(t *testing.T, handler http.HandlerFunc) (*Upstream, *httptest.Server) {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)
	return NewUpstream(server.URL, 5*time.Second), server
}

// TestStateParsesSnapshot checks a healthy /api/state round trip.
func TestStateParsesSnapshot(t *testing.T) {
	upstream, _ := newTestUpstream(t, func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet || r.URL.Path != UpstreamStatePath {
			t.Errorf("unexpected request: %s %s", r.Method, r.URL.Path)
		}
		w.Header().Set("Content-Type", "application/json")
		io.WriteString(w, `{"status":"playing","stage":2,"life":7,"length":3,"masked":"c _ t","wrong":["x"],"hint_letters_used":1,"hint_letters_max":2}`)
	})

	snap, err := upstream.State(context.Background(), newTestJar(t))
	if err != nil {
		t.Fatalf("State: %v", err)
	}
	if snap.Status != "playing" {
		t.Errorf("status = %q, want playing", snap.Status)
	}
	if snap.Life == nil || *snap.Life != 7 {
		t.Errorf("life = %v, want 7", snap.Life)
	}
	if snap.Masked != "c _ t" {
		t.Errorf("masked = %q", snap.Masked)
	}
	if len(snap.Wrong) != 1 || snap.Wrong[0] != "x" {
		t.Errorf("wrong = %v", snap.Wrong)
	}
	if snap.HintLettersUsed == nil || *snap.HintLettersUsed != 1 {
		t.Errorf("hint_letters_used = %v, want 1", snap.HintLettersUsed)
	}
}

// TestGuessSendsJSONPayload checks the guess body shape and headers.
func TestGuessSendsJSONPayload(t *testing.T) {
	var gotBody map[string]string
	var gotContentType string
	upstream, _ := newTestUpstream(t, func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != UpstreamGuessPath {
			t.Errorf("unexpected request: %s %s", r.Method, r.URL.Path)
		}
		gotContentType = r.Header.Get("Content-Type")
		if err := json.NewDecoder(r.Body).Decode(&gotBody); err != nil {
			t.Errorf("decode guess body: %v", err)
		}
		io.WriteString(w, `{"status":"playing"}`)
	})

	if _, err := upstream.Guess(context.Background(), newTestJar(t), "a"); err != nil {
		t.Fatalf("Guess: %v", err)
	}
	if gotContentType != "application/json" {
		t.Errorf("Content-Type = %q, want application/json", gotContentType)
	}
	if gotBody["guess"] != "a" {
		t.Errorf("guess payload = %v, want {guess: a}", gotBody)
	}
}

// TestStartSendsEmptyObject checks the non-guess mutations carry {}.
func TestStartSendsEmptyObject(t *testing.T) {
	var rawBody string
	upstream, _ := newTestUpstream(t, func(w http.ResponseWriter, r *http.Request) {
		b, _ := io.ReadAll(r.Body)
		rawBody = string(b)
		io.WriteString(w, `{"status":"playing"}`)
	})

	if _, err := upstream.Start(context.Background(), newTestJar(t)); err != nil {
		t.Fatalf("Start: %v", err)
	}
	if rawBody != "{}" {
		t.Errorf("start body = %q, want {}", rawBody)
	}
}

// TestNon2xxPrefersBodyFields checks error message resolution order:
// message field, then error field, then generic status line.
func TestNon2xxPrefersBodyFields(t *testing.T) {
	tests := []struct {
		name string
		body string
		want string
	}{
		{"message field", `{"message":"hint limit reached"}`, "hint limit reached"},
		{"error field", `{"error":"no_game"}`, "no_game"},
		{"message wins over error", `{"message":"boom","error":"other"}`, "boom"},
		{"non-JSON body", `<html>502 Bad Gateway</html>`, "game server returned status 502"},
		{"empty JSON", `{}`, "game server returned status 502"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			upstream, _ := newTestUpstream(t, func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusBadGateway)
				io.WriteString(w, tt.body)
			})
			_, err := upstream.State(context.Background(), newTestJar(t))
			if err == nil {
				t.Fatalf("State succeeded, want error")
			}
			if errorKind(err) != ErrKindHTTP {
				t.Errorf("kind = %q, want %q", errorKind(err), ErrKindHTTP)
			}
			if err.Error() != tt.want {
				t.Errorf("message = %q, want %q", err.Error(), tt.want)
			}
		})
	}
}

// TestMalformedBodyBoundedExcerpt checks a 2xx non-JSON body becomes a
// malformed-response error quoting at most ResponseExcerptLimit chars.
func TestMalformedBodyBoundedExcerpt(t *testing.T) {
	longBody := "<!doctype html>" + strings.Repeat("junk ", 100)
	upstream, _ := newTestUpstream(t, func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, longBody)
	})

	_, err := upstream.State(context.Background(), newTestJar(t))
	if err == nil {
		t.Fatalf("State succeeded on malformed body")
	}
	if errorKind(err) != ErrKindMalformed {
		t.Errorf("kind = %q, want %q", errorKind(err), ErrKindMalformed)
	}
	msg := err.Error()
	if !strings.Contains(msg, longBody[:ResponseExcerptLimit]) {
		t.Errorf("message lacks raw body excerpt: %q", msg)
	}
	if strings.Contains(msg, longBody) {
		t.Errorf("message quotes the full raw body, want bounded excerpt")
	}
}

// TestResetIgnoresBody checks reset succeeds whatever the server sent
// back, JSON or not.
func TestResetIgnoresBody(t *testing.T) {
	for _, body := range []string{`{"ok":true}`, `RESET DONE`, ``} {
		upstream, _ := newTestUpstream(t, func(w http.ResponseWriter, r *http.Request) {
			if r.URL.Path != UpstreamResetPath {
				t.Errorf("unexpected path: %s", r.URL.Path)
			}
			io.WriteString(w, body)
		})
		if err := upstream.Reset(context.Background(), newTestJar(t)); err != nil {
			t.Errorf("Reset with body %q: %v", body, err)
		}
	}
}

// TestResetReportsHTTPFailure checks reset still surfaces transport
// failures.
func TestResetReportsHTTPFailure(t *testing.T) {
	upstream, _ := newTestUpstream(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		io.WriteString(w, `{"message":"session store down"}`)
	})
	err := upstream.Reset(context.Background(), newTestJar(t))
	if err == nil {
		t.Fatalf("Reset succeeded, want error")
	}
	if err.Error() != "session store down" {
		t.Errorf("message = %q", err.Error())
	}
}

// TestUnreachableUpstream checks connection failures come back as
// transport errors.
func TestUnreachableUpstream(t *testing.T) {
	upstream := NewUpstream("http://127.0.0.1:1", 500*time.Millisecond)
	_, err := upstream.State(context.Background(), newTestJar(t))
	if err == nil {
		t.Fatalf("State succeeded against closed port")
	}
	if errorKind(err) != ErrKindTransport {
		t.Errorf("kind = %q, want %q", errorKind(err), ErrKindTransport)
	}
}

// TestJarCarriesUpstreamSession checks the cookie set by one call is
// replayed on the next, which is how the upstream keeps the game.
func TestJarCarriesUpstreamSession(t *testing.T) {
	var sawCookie string
	upstream, _ := newTestUpstream(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case UpstreamStartPath:
			http.SetCookie(w, &http.Cookie{Name: "session", Value: "game-42", Path: "/"})
			io.WriteString(w, `{"status":"playing"}`)
		case UpstreamStatePath:
			if c, err := r.Cookie("session"); err == nil {
				sawCookie = c.Value
			}
			io.WriteString(w, `{"status":"playing"}`)
		}
	})

	jar := newTestJar(t)
	if _, err := upstream.Start(context.Background(), jar); err != nil {
		t.Fatalf("Start: %v", err)
	}
	if _, err := upstream.State(context.Background(), jar); err != nil {
		t.Fatalf("State: %v", err)
	}
	if sawCookie != "game-42" {
		t.Errorf("upstream session cookie not replayed, got %q", sawCookie)
	}
}
