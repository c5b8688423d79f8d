package intent

import (
	"regexp"
	"strings"

	"github.com/TrueV1sion/ai-roadtrip-storyteller-sub004/internal/model/game"
	intentmodel "github.com/TrueV1sion/ai-roadtrip-storyteller-sub004/internal/model/intent"
)

// Context carries the session facts the rules may consult.
type Context struct {
	Kind   game.Kind
	Status game.Status
}

// ruleConfidence is assigned to any transcript matched by a fast rule.
const ruleConfidence = 0.8

// letterConfidence applies to deterministic single-letter selections.
const letterConfidence = 0.9

// questionBiasConfidence is the weaker score for the question-shape bias.
const questionBiasConfidence = 0.6

type rule struct {
	pattern *regexp.Regexp
	typ     intentmodel.Type
	param   string
}

// Rules are evaluated in order; the first match wins. Capture group 1,
// when present, becomes the rule's parameter.
var rules = []rule{
	{regexp.MustCompile(`(?i)\blet'?s play (trivia|twenty questions|bingo)\b`), intentmodel.TypeStartGame, intentmodel.ParamGame},
	{regexp.MustCompile(`(?i)\b(?:let'?s play|start) a? ?game\b`), intentmodel.TypeStartGame, ""},
	{regexp.MustCompile(`(?i)\b(?:count me in|i (?:want|wanna) to? ?play|let me join)\b`), intentmodel.TypeJoinGame, ""},
	{regexp.MustCompile(`(?i)\bthe answer is (.+?)[.!?]?$`), intentmodel.TypeAnswer, intentmodel.ParamAnswer},
	{regexp.MustCompile(`(?i)\b(?:my answer is|i(?:'ll| will)? go with|i choose) (.+?)[.!?]?$`), intentmodel.TypeAnswer, intentmodel.ParamAnswer},
	{regexp.MustCompile(`(?i)\bis it (?:a|an|the)? ?(.+?)\??$`), intentmodel.TypeQuestion, intentmodel.ParamGuess},
	{regexp.MustCompile(`(?i)\bi (?:see|spot|found) (?:a|an|the)? ?(.+?)[.!?]?$`), intentmodel.TypeSpot, intentmodel.ParamItem},
	{regexp.MustCompile(`(?i)\b(?:give me a |can i (?:get|have) a |i need a )?hint\b`), intentmodel.TypeHint, ""},
	{regexp.MustCompile(`(?i)\b(?:say that again|repeat (?:that|the question)|what was the question)\b`), intentmodel.TypeRepeat, ""},
	{regexp.MustCompile(`(?i)\b(?:next question|another one|ask me another|keep them coming)\b`), intentmodel.TypeNext, ""},
	{regexp.MustCompile(`(?i)\b(?:pause|hold on|wait a (?:sec(?:ond)?|minute)|take a break)\b`), intentmodel.TypePause, ""},
	{regexp.MustCompile(`(?i)\b(?:resume|unpause|keep going|let'?s continue|back to the game)\b`), intentmodel.TypeResume, ""},
	{regexp.MustCompile(`(?i)\b(?:what'?s the score|how many points|who'?s winning|score check)\b`), intentmodel.TypeScore, ""},
	{regexp.MustCompile(`(?i)\b(?:stop playing|quit|end the game|i'?m done|give up)\b`), intentmodel.TypeQuit, ""},
}

var letterAnswer = regexp.MustCompile(`(?i)^\s*([abcd])\s*[.!?]*\s*$`)

// Auxiliary verbs that open a yes/no question, biasing twenty-questions.
var auxiliaries = map[string]struct{}{
	"is": {}, "are": {}, "was": {}, "were": {}, "do": {}, "does": {},
	"did": {}, "can": {}, "could": {}, "will": {}, "would": {},
	"has": {}, "have": {}, "had": {},
}

var gameAliases = map[string]game.Kind{
	"trivia":           game.KindTrivia,
	"twenty questions": game.KindTwentyQuestions,
	"bingo":            game.KindBingo,
}

// Analyze runs the ordered rule list against the transcript and returns
// the first matching intent. Unmatched transcripts come back as TypeOther
// with zero confidence so the caller can escalate to the classifier.
func Analyze(transcript string, ctx Context) intentmodel.Intent {
	trimmed := strings.TrimSpace(transcript)
	if trimmed == "" {
		return other(transcript, 0)
	}

	// Single letters map deterministically to answer selection.
	if m := letterAnswer.FindStringSubmatch(trimmed); m != nil {
		return intentmodel.Intent{
			Type:       intentmodel.TypeAnswer,
			Confidence: letterConfidence,
			Params:     map[string]string{intentmodel.ParamLetter: strings.ToLower(m[1])},
			Transcript: transcript,
		}
	}

	for _, r := range rules {
		m := r.pattern.FindStringSubmatch(trimmed)
		if m == nil {
			continue
		}
		result := intentmodel.Intent{
			Type:       r.typ,
			Confidence: ruleConfidence,
			Transcript: transcript,
		}
		if r.param != "" && len(m) > 1 {
			value := strings.TrimSpace(m[1])
			if r.param == intentmodel.ParamGame {
				value = strings.ToLower(value)
				if kind, ok := gameAliases[value]; ok {
					value = string(kind)
				}
			}
			result.Params = map[string]string{r.param: value}
		}
		return result
	}

	if looksLikeQuestion(trimmed) {
		// In a twenty-questions session a yes/no-shaped utterance is the
		// expected move, so the bias carries rule-level confidence there.
		confidence := questionBiasConfidence
		if ctx.Kind == game.KindTwentyQuestions {
			confidence = ruleConfidence
		}
		return intentmodel.Intent{
			Type:       intentmodel.TypeQuestion,
			Confidence: confidence,
			Params:     map[string]string{intentmodel.ParamGuess: strings.TrimSuffix(trimmed, "?")},
			Transcript: transcript,
		}
	}

	return other(transcript, 0)
}

// looksLikeQuestion biases "?"-terminated or auxiliary-verb-initial
// transcripts toward the twenty-questions intent.
func looksLikeQuestion(trimmed string) bool {
	if strings.HasSuffix(trimmed, "?") {
		return true
	}
	first := strings.ToLower(trimmed)
	if idx := strings.IndexAny(first, " \t"); idx > 0 {
		first = first[:idx]
	}
	_, ok := auxiliaries[first]
	return ok
}

func other(transcript string, confidence float64) intentmodel.Intent {
	return intentmodel.Intent{
		Type:       intentmodel.TypeOther,
		Confidence: confidence,
		Transcript: transcript,
	}
}
