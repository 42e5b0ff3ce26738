package main

// Upstream game API paths
const (
	UpstreamStatePath = "/api/state"
	UpstreamStartPath = "/api/start"
	UpstreamResetPath = "/api/reset"
	UpstreamGuessPath = "/api/guess"
	UpstreamHintPath  = "/api/hint_letter"
)

// Snapshot status constants
const (
	StatusNoGame = "no_game"
	StatusFailed = "failed"
)

// Session configuration constants
const (
	SessionCookieName = "session_id"
)

// Route constants
const (
	RouteHome        = "/"
	RouteStart       = "/start"
	RouteReset       = "/reset"
	RouteGuess       = "/guess"
	RouteHint        = "/hint"
	RouteImageFailed = "/image-failed"
	RouteGameState   = "/game-state"
)

// Display constants
const (
	Placeholder           = "-"
	DefaultMaskedDisplay  = "_ _ _ _" // shown before any word length is known
	HintLettersMaxDefault = 2
	ErrorPrefix           = "Error: "
	NoGameMessage         = `No game in progress. Press "Start" to play.`
)

// Image panel notes
const (
	ImageNoteLoaded = "Thumbnail shown."
	ImageNoteNone   = "No thumbnail for this word."
	ImageNoteFailed = "Thumbnail failed to load."
)

// ResponseExcerptLimit bounds how much of a malformed upstream body is
// quoted back in an error message.
const ResponseExcerptLimit = 160

// Context key constants
const (
	requestIDKey contextKey = "request_id"
)
