package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// Upstream error kinds
const (
	ErrKindTransport = "transport" // request never produced a response
	ErrKindHTTP      = "http"      // non-2xx status from the upstream
	ErrKindMalformed = "malformed" // 2xx body that is not valid JSON
)

// upstreamError is the single failure shape every gateway call reduces to.
type upstreamError struct {
	Kind    string
	Status  int
	Message string
}

func (e *upstreamError) Error() string {
	return e.Message
}

// errorKind extracts the upstream error kind, or "" for foreign errors.
func errorKind(err error) string {
	if ue, ok := err.(*upstreamError); ok {
		return ue.Kind
	}
	return ""
}

// upstreamBody mirrors the optional diagnostic fields a non-2xx upstream
// response may carry.
type upstreamBody struct {
	Message string `json:"message"`
	Error   string `json:"error"`
}

// Upstream issues the game API calls. Each call performs exactly one
// request and yields exactly one Snapshot or exactly one error; there is
// no retry and no backoff here. The cookie jar is supplied per call
// because every client session owns its own upstream session.
type Upstream struct {
	baseURL   string
	timeout   time.Duration
	transport http.RoundTripper
}

// NewUpstream builds a gateway for the game API at baseURL.
func NewUpstream(baseURL string, timeout time.Duration) *Upstream {
	return &Upstream{
		baseURL: strings.TrimRight(baseURL, "/"),
		timeout: timeout,
	}
}

// State fetches the current Snapshot without mutating anything.
func (u *Upstream) State(ctx context.Context, jar http.CookieJar) (*Snapshot, error) {
	return u.fetchSnapshot(ctx, jar, http.MethodGet, UpstreamStatePath, nil)
}

// Start begins a fresh game and returns its first Snapshot.
func (u *Upstream) Start(ctx context.Context, jar http.CookieJar) (*Snapshot, error) {
	return u.fetchSnapshot(ctx, jar, http.MethodPost, UpstreamStartPath, emptyPayload())
}

// Reset discards the upstream game. Whatever body the server returns is
// ignored; callers bind the no-game sentinel instead.
func (u *Upstream) Reset(ctx context.Context, jar http.CookieJar) error {
	_, err := u.do(ctx, jar, http.MethodPost, UpstreamResetPath, emptyPayload())
	return err
}

// Guess submits an already normalized guess and returns the updated
// Snapshot.
func (u *Upstream) Guess(ctx context.Context, jar http.CookieJar, guess string) (*Snapshot, error) {
	payload, err := json.Marshal(map[string]string{"guess": guess})
	if err != nil {
		return nil, &upstreamError{Kind: ErrKindTransport, Message: fmt.Sprintf("encode guess: %v", err)}
	}
	return u.fetchSnapshot(ctx, jar, http.MethodPost, UpstreamGuessPath, payload)
}

// HintLetter asks the server to reveal one letter and returns the updated
// Snapshot.
func (u *Upstream) HintLetter(ctx context.Context, jar http.CookieJar) (*Snapshot, error) {
	return u.fetchSnapshot(ctx, jar, http.MethodPost, UpstreamHintPath, emptyPayload())
}

// fetchSnapshot performs a request and parses the body as a Snapshot.
// The body is always read as text first; a body that fails to parse is a
// distinct error carrying a bounded excerpt of the raw text.
func (u *Upstream) fetchSnapshot(ctx context.Context, jar http.CookieJar, method, path string, payload []byte) (*Snapshot, error) {
	raw, err := u.do(ctx, jar, method, path, payload)
	if err != nil {
		return nil, err
	}
	var snap Snapshot
	if err := json.Unmarshal(raw, &snap); err != nil {
		return nil, &upstreamError{
			Kind:    ErrKindMalformed,
			Message: "unexpected response from game server: " + excerpt(raw),
		}
	}
	return &snap, nil
}

// do issues one request and returns the raw body of a 2xx response. A
// non-2xx response becomes an error whose message prefers the body's
// message or error field over a generic status line.
func (u *Upstream) do(ctx context.Context, jar http.CookieJar, method, path string, payload []byte) ([]byte, error) {
	var body io.Reader
	if payload != nil {
		body = bytes.NewReader(payload)
	}
	req, err := http.NewRequestWithContext(ctx, method, u.baseURL+path, body)
	if err != nil {
		return nil, &upstreamError{Kind: ErrKindTransport, Message: fmt.Sprintf("build request: %v", err)}
	}
	req.Header.Set("Content-Type", "application/json")

	client := &http.Client{
		Jar:       jar,
		Timeout:   u.timeout,
		Transport: u.transport,
	}
	resp, err := client.Do(req)
	if err != nil {
		return nil, &upstreamError{Kind: ErrKindTransport, Message: fmt.Sprintf("game server unreachable: %v", err)}
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &upstreamError{Kind: ErrKindTransport, Message: fmt.Sprintf("read response: %v", err)}
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &upstreamError{
			Kind:    ErrKindHTTP,
			Status:  resp.StatusCode,
			Message: httpErrorMessage(resp.StatusCode, raw),
		}
	}
	return raw, nil
}

// httpErrorMessage resolves a non-2xx body to a display message: the
// embedded message field wins, then the error field, then a generic
// status line.
func httpErrorMessage(status int, raw []byte) string {
	var parsed upstreamBody
	if err := json.Unmarshal(raw, &parsed); err == nil {
		if parsed.Message != "" {
			return parsed.Message
		}
		if parsed.Error != "" {
			return parsed.Error
		}
	}
	return fmt.Sprintf("game server returned status %d", status)
}

// excerpt truncates a raw body for diagnostics so error messages stay
// bounded no matter what the server sent.
func excerpt(raw []byte) string {
	s := strings.TrimSpace(string(raw))
	if len(s) > ResponseExcerptLimit {
		s = s[:ResponseExcerptLimit]
	}
	return s
}

func emptyPayload() []byte {
	return []byte("{}")
}
