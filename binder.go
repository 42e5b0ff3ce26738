package main

import (
	"encoding/json"
	"strconv"
	"strings"
	"time"

	"github.com/samber/lo"

	"github.com/PPNORP/HANGNIMAL/internal/viewmodel"
)

// bindSnapshot maps an upstream Snapshot to the full presentation state.
// It is a total function of its arguments: binding the same snapshot with
// the same timestamp twice yields identical output, and no prior UI state
// leaks in. A nil snapshot and status "no_game" both produce the no-game
// sentinel rendering.
func bindSnapshot(snap *Snapshot, now time.Time) viewmodel.UiState {
	if snap == nil || snap.Status == StatusNoGame {
		return bindNoGame()
	}

	failed := snap.Terminal()
	used := 0
	if snap.HintLettersUsed != nil {
		used = *snap.HintLettersUsed
	}
	max := HintLettersMaxDefault
	if snap.HintLettersMax != nil {
		max = *snap.HintLettersMax
	}

	masked := snap.Masked
	if masked == "" {
		masked = DefaultMaskedDisplay
	}

	// Chips are rebuilt from scratch on every bind, in arrival order.
	// Duplicates are kept; deduplication is the server's business.
	chips := lo.Map(snap.Wrong, func(letter string, _ int) viewmodel.Chip {
		return viewmodel.Chip{Letter: letter}
	})

	imageURL, imageNote := bindImage(snap.Img, now)

	return viewmodel.UiState{
		Stage:  displayStage(snap.Stage),
		Life:   displayInt(snap.Life),
		Length: displayInt(snap.Length),
		Masked: masked,

		Chips:       chips,
		HintCounter: strconv.Itoa(used) + "/" + strconv.Itoa(max),

		ControlsDisabled: failed,
		HintDisabled:     failed || used >= max,
		FocusGuess:       !failed,

		Message: snap.Message,

		ImageURL:  imageURL,
		ImageNote: imageNote,

		LastWordEN:  displayString(snap.LastEN),
		LastWordTH:  displayString(snap.LastTH),
		LastAboutEN: displayString(snap.LastAboutEN),
		LastAboutTH: displayString(snap.LastAboutTH),

		Terminal: failed,
	}
}

// bindNoGame is the fully specified "no active game" rendering: every
// slot shows the placeholder, the chip list is empty, the image is
// cleared and all controls are disabled.
func bindNoGame() viewmodel.UiState {
	return viewmodel.UiState{
		Stage:  Placeholder,
		Life:   Placeholder,
		Length: Placeholder,
		Masked: DefaultMaskedDisplay,

		Chips:       []viewmodel.Chip{},
		HintCounter: "0/" + strconv.Itoa(HintLettersMaxDefault),

		ControlsDisabled: true,
		HintDisabled:     true,
		FocusGuess:       false,

		Message: NoGameMessage,

		ImageURL:  "",
		ImageNote: ImageNoteNone,

		LastWordEN:  Placeholder,
		LastWordTH:  Placeholder,
		LastAboutEN: Placeholder,
		LastAboutTH: Placeholder,

		NoGame:   true,
		Terminal: false,
	}
}

// bindImage builds the image panel state: no URL clears the panel, a URL
// gets a cache-defeating timestamp so the browser does not serve a stale
// thumbnail for a repeated word.
func bindImage(rawURL string, now time.Time) (string, string) {
	if rawURL == "" {
		return "", ImageNoteNone
	}
	return cacheBustURL(rawURL, now), ImageNoteLoaded
}

// cacheBustURL appends a timestamp query parameter, honoring any query
// string already present.
func cacheBustURL(rawURL string, now time.Time) string {
	sep := "?"
	if strings.Contains(rawURL, "?") {
		sep = "&"
	}
	return rawURL + sep + "t=" + strconv.FormatInt(now.UnixMilli(), 10)
}

// markImageFailed downgrades only the image panel of a bound state. The
// load failure arrives out of band, possibly after later binds; the rest
// of the state is left untouched.
func markImageFailed(state viewmodel.UiState) viewmodel.UiState {
	state.ImageURL = ""
	state.ImageNote = ImageNoteFailed
	return state
}

// displayStage renders the stage label, which the server may send as a
// number or a string.
func displayStage(stage any) string {
	switch v := stage.(type) {
	case nil:
		return Placeholder
	case string:
		return displayString(v)
	case json.Number:
		return v.String()
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	case int:
		return strconv.Itoa(v)
	default:
		return Placeholder
	}
}

// displayInt renders an optional integer slot.
func displayInt(n *int) string {
	if n == nil {
		return Placeholder
	}
	return strconv.Itoa(*n)
}

// displayString renders an optional string slot.
func displayString(s string) string {
	if s == "" {
		return Placeholder
	}
	return s
}

// normalizeGuess trims and lowercases a guess string before it is sent
// upstream.
func normalizeGuess(input string) string {
	return strings.ToLower(strings.TrimSpace(input))
}
