package match

import "strings"

// MatchType identifies which strategy produced the result.
const (
	MatchLetter  = "letter"
	MatchOverlap = "overlap"
)

// letterConfidence is assigned to positional letter/phonetic selections.
const letterConfidence = 0.9

// ClarifyBelow is the confidence under which the caller should ask for
// clarification. The matcher itself never asks; that is the
// orchestrator's decision.
const ClarifyBelow = 0.5

// Result is the outcome of matching a transcript against an option set.
type Result struct {
	BestMatch  string  `json:"bestMatch"`
	Index      int     `json:"index"`
	Confidence float64 `json:"confidence"`
	MatchType  string  `json:"matchType"`
}

// letterForms maps spoken letter shapes to option positions 0..3.
var letterForms = map[string]int{
	"a": 0, "ay": 0, "eh": 0,
	"b": 1, "be": 1, "bee": 1,
	"c": 2, "see": 2, "sea": 2,
	"d": 3, "dee": 3, "de": 3,
}

// prefixes stripped before the positional letter check, so "option b"
// and "letter c" resolve the same as a bare letter.
var letterPrefixes = []string{"option", "letter", "answer", "choice"}

// Match maps a transcript to one of a finite option set. Letter and
// phonetic forms resolve positionally with fixed confidence; otherwise
// the option with the highest token overlap wins, ties broken by the
// earliest option index. Deterministic for identical inputs.
func Match(transcript string, options []string) Result {
	if len(options) == 0 {
		return Result{Index: -1, MatchType: MatchOverlap}
	}

	if idx, ok := letterIndex(transcript); ok && idx < len(options) {
		return Result{
			BestMatch:  options[idx],
			Index:      idx,
			Confidence: letterConfidence,
			MatchType:  MatchLetter,
		}
	}

	words := tokenize(transcript)
	bestIdx := 0
	bestScore := -1.0
	for i, option := range options {
		score := overlap(words, tokenize(option))
		if score > bestScore {
			bestScore = score
			bestIdx = i
		}
	}
	if bestScore < 0 {
		bestScore = 0
	}
	return Result{
		BestMatch:  options[bestIdx],
		Index:      bestIdx,
		Confidence: bestScore,
		MatchType:  MatchOverlap,
	}
}

// letterIndex resolves "b", "bee", "option c" style utterances.
func letterIndex(transcript string) (int, bool) {
	cleaned := strings.ToLower(strings.TrimSpace(transcript))
	cleaned = strings.Trim(cleaned, ".!?,")
	fields := strings.Fields(cleaned)
	if len(fields) == 2 {
		for _, prefix := range letterPrefixes {
			if fields[0] == prefix {
				fields = fields[1:]
				break
			}
		}
	}
	if len(fields) != 1 {
		return 0, false
	}
	idx, ok := letterForms[fields[0]]
	return idx, ok
}

// overlap is the fraction of option tokens present in the transcript.
func overlap(transcript map[string]struct{}, option map[string]struct{}) float64 {
	if len(option) == 0 {
		return 0
	}
	hits := 0
	for word := range option {
		if _, ok := transcript[word]; ok {
			hits++
		}
	}
	return float64(hits) / float64(len(option))
}

func tokenize(text string) map[string]struct{} {
	tokens := make(map[string]struct{})
	for _, field := range strings.Fields(strings.ToLower(text)) {
		word := strings.Trim(field, ".,!?;:'\"")
		if word != "" {
			tokens[word] = struct{}{}
		}
	}
	return tokens
}
