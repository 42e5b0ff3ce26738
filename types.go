package main

type contextKey string

// Snapshot is the complete game state as reported by the upstream server.
// Scalar fields the server may omit are pointers so absence survives
// decoding; Stage is untyped because the server has sent it both as a
// number and as a round label.
type Snapshot struct {
	Status          string   `json:"status"`
	Stage           any      `json:"stage,omitempty"`
	Length          *int     `json:"length,omitempty"`
	Life            *int     `json:"life,omitempty"`
	Masked          string   `json:"masked,omitempty"`
	Wrong           []string `json:"wrong,omitempty"`
	HintLettersUsed *int     `json:"hint_letters_used,omitempty"`
	HintLettersMax  *int     `json:"hint_letters_max,omitempty"`
	Img             string   `json:"img,omitempty"`
	Message         string   `json:"message,omitempty"`
	LastEN          string   `json:"last_en,omitempty"`
	LastTH          string   `json:"last_th,omitempty"`
	LastAboutEN     string   `json:"last_about_en,omitempty"`
	LastAboutTH     string   `json:"last_about_th,omitempty"`
}

// Terminal reports whether no further mutating action is permitted
// until the game is restarted.
func (s *Snapshot) Terminal() bool {
	return s != nil && s.Status == StatusFailed
}
