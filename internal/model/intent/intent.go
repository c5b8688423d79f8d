package intent

// Type is the closed set of voice-turn meanings the orchestrator
// dispatches on. Anything unrecognized degrades to TypeOther.
type Type string

const (
	TypeStartGame Type = "start_game"
	TypeJoinGame  Type = "join_game"
	TypeAnswer    Type = "answer"
	TypeSpot      Type = "spot"
	TypeQuestion  Type = "question"
	TypeHint      Type = "hint"
	TypeRepeat    Type = "repeat"
	TypeNext      Type = "next"
	TypePause     Type = "pause"
	TypeResume    Type = "resume"
	TypeScore     Type = "score"
	TypeQuit      Type = "quit"
	TypeOther     Type = "other"
)

// ParseType maps a classifier label to a known Type.
func ParseType(raw string) (Type, bool) {
	switch Type(raw) {
	case TypeStartGame, TypeJoinGame, TypeAnswer, TypeSpot, TypeQuestion,
		TypeHint, TypeRepeat, TypeNext, TypePause, TypeResume,
		TypeScore, TypeQuit, TypeOther:
		return Type(raw), true
	}
	return "", false
}

// Parameter keys extracted by rules or the classifier.
const (
	ParamGame   = "game"
	ParamAnswer = "answer"
	ParamLetter = "letter"
	ParamItem   = "item"
	ParamGuess  = "guess"
)

// Intent is the classified meaning of one transcribed voice turn.
// Transient: not persisted beyond the orchestration call, except that
// confirmed actions leave an audit entry in session history.
type Intent struct {
	Type       Type              `json:"type"`
	Confidence float64           `json:"confidence"`
	Params     map[string]string `json:"params,omitempty"`
	Transcript string            `json:"transcript"`
}

// Param returns the named parameter or empty.
func (i Intent) Param(key string) string {
	if i.Params == nil {
		return ""
	}
	return i.Params[key]
}
