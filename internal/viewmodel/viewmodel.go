// Package viewmodel holds the pure presentation state rendered by the
// templates. A UiState is produced from a single upstream Snapshot and
// carries no behavior; applying it to the page is a separate step.
package viewmodel

// Chip is one incorrectly guessed letter, rendered as a discrete token.
type Chip struct {
	Letter string
}

// UiState is the full presentation state for the game page. Every field
// is already formatted for display; absent upstream values arrive here
// as the placeholder symbol, never as an empty slot.
type UiState struct {
	Stage  string
	Life   string
	Length string
	Masked string

	Chips       []Chip
	HintCounter string

	ControlsDisabled bool // guess input, guess button and hint button as a group
	HintDisabled     bool // hint button only, budget exhausted or group disabled
	FocusGuess       bool

	Message string

	ImageURL  string
	ImageNote string

	LastWordEN  string
	LastWordTH  string
	LastAboutEN string
	LastAboutTH string

	NoGame   bool
	Terminal bool
}
