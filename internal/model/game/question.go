package game

// Question is a single round item: prompt, canonical answer, distractors
// and ordered hints. Immutable once issued to a session; consumed exactly
// once per round unless explicitly re-asked.
type Question struct {
	ID         string   `json:"id"`
	Topic      string   `json:"topic,omitempty"`
	Prompt     string   `json:"prompt"`
	Options    []string `json:"options,omitempty"`
	Answer     string   `json:"answer"`
	Difficulty float64  `json:"difficulty"`
	Hints      []string `json:"hints,omitempty"`
}
