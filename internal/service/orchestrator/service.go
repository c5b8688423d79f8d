// Package orchestrator is the entry point for a voice turn: it loads the
// session, consults the intent analyzer, routes to the store,
// coordinator, matcher and difficulty engine, and returns a structured
// response plus broadcast events for the other participants.
package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/TrueV1sion/ai-roadtrip-storyteller-sub004/internal/analysis/difficulty"
	analysis "github.com/TrueV1sion/ai-roadtrip-storyteller-sub004/internal/analysis/intent"
	"github.com/TrueV1sion/ai-roadtrip-storyteller-sub004/internal/analysis/match"
	"github.com/TrueV1sion/ai-roadtrip-storyteller-sub004/internal/model/game"
	intentmodel "github.com/TrueV1sion/ai-roadtrip-storyteller-sub004/internal/model/intent"
	"github.com/TrueV1sion/ai-roadtrip-storyteller-sub004/internal/service/broadcast"
	"github.com/TrueV1sion/ai-roadtrip-storyteller-sub004/internal/service/coordinator"
	intentsvc "github.com/TrueV1sion/ai-roadtrip-storyteller-sub004/internal/service/intent"
	"github.com/TrueV1sion/ai-roadtrip-storyteller-sub004/internal/service/question"
	"github.com/TrueV1sion/ai-roadtrip-storyteller-sub004/internal/service/session"
)

// DefaultClarifyThreshold: intents below this confidence yield a
// clarification prompt without mutating state.
const DefaultClarifyThreshold = 0.7

// defaultBoardSize for bingo sessions.
const defaultBoardSize = 5

// maxQuestions before a twenty-questions round is lost.
const maxQuestions = 20

// answerPoints is the base award for a correct individual answer.
const answerPoints = 10

// errAlreadySpotted aborts the spot mutator so a repeat call on a found
// square scores nothing.
var errAlreadySpotted = errors.New("square already spotted")

// Config tunes the orchestrator.
type Config struct {
	ClarifyThreshold float64
	BoardSize        int
}

// Service routes classified voice turns to the game components.
type Service struct {
	store            session.Store
	coord            *coordinator.Coordinator
	intents          *intentsvc.Service
	questions        *question.Provider
	pub              broadcast.Publisher
	clarifyThreshold float64
	boardSize        int
	log              zerolog.Logger
	now              func() time.Time
}

// New wires the orchestrator.
func New(store session.Store, coord *coordinator.Coordinator, intents *intentsvc.Service,
	questions *question.Provider, pub broadcast.Publisher, cfg Config, log zerolog.Logger) *Service {
	threshold := cfg.ClarifyThreshold
	if threshold <= 0 {
		threshold = DefaultClarifyThreshold
	}
	boardSize := cfg.BoardSize
	if boardSize <= 0 {
		boardSize = defaultBoardSize
	}
	return &Service{
		store:            store,
		coord:            coord,
		intents:          intents,
		questions:        questions,
		pub:              pub,
		clarifyThreshold: threshold,
		boardSize:        boardSize,
		log:              log.With().Str("component", "orchestrator").Logger(),
		now:              time.Now,
	}
}

// Request is one voice turn from a participant.
type Request struct {
	SessionID  string  `json:"sessionId"`
	PlayerID   string  `json:"playerId"`
	Transcript string  `json:"transcript"`
	Confidence float64 `json:"confidence"`
	Clarity    float64 `json:"clarity"`
}

// Response is the structured result returned to the speaking client;
// other participants learn about the turn through broadcast events.
type Response struct {
	Reply              string             `json:"reply"`
	Intent             intentmodel.Intent `json:"intent"`
	NeedsClarification bool               `json:"needsClarification,omitempty"`
	Session            *game.Session      `json:"session,omitempty"`
	Details            map[string]any     `json:"details,omitempty"`
}

// StartSession creates and activates a session: first question issued,
// board laid out for bingo, turn timer running for multiplayer.
func (s *Service) StartSession(ctx context.Context, kind game.Kind, players []string) (*game.Session, error) {
	created, err := s.store.Create(ctx, "", kind, players)
	if err != nil {
		return nil, err
	}

	sess, err := s.store.Update(ctx, created.ID, func(sess *game.Session) error {
		return s.activate(ctx, sess)
	})
	if err != nil {
		return nil, err
	}

	if len(sess.TurnOrder) > 0 {
		s.coord.StartTurnTimer(sess.ID)
	}
	s.publish(ctx, sess.ID, broadcast.EventGameStarted, map[string]any{
		"kind":    string(sess.Kind),
		"players": players,
	})
	return sess, nil
}

// activate transitions idle → active and provisions round material.
func (s *Service) activate(ctx context.Context, sess *game.Session) error {
	if !sess.Status.CanTransition(game.StatusActive) {
		return game.ErrSessionFinished
	}
	sess.Status = game.StatusActive

	switch sess.Kind {
	case game.KindBingo:
		labelCount := s.boardSize * s.boardSize
		if s.boardSize%2 == 1 {
			labelCount--
		}
		board, err := game.NewBoard(s.boardSize, s.questions.BoardLabels(labelCount))
		if err != nil {
			return err
		}
		sess.Board = board
	case game.KindFreeForm:
		// No round material; free-form sessions just converse.
	default:
		q, err := s.questions.Next(ctx, sess.Kind, "", 0.4)
		if err != nil {
			return err
		}
		sess.Question = q
	}
	return nil
}

// Join adds a participant to a running session.
func (s *Service) Join(ctx context.Context, sessionID, playerID string) (*game.Session, error) {
	sess, err := s.store.Update(ctx, sessionID, func(sess *game.Session) error {
		if sess.Status.Terminal() {
			return game.ErrSessionFinished
		}
		sess.AddPlayer(playerID, s.now())
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.publish(ctx, sessionID, broadcast.EventPlayerJoined, map[string]any{
		"playerId": playerID,
	})
	return sess, nil
}

// Snapshot returns the session with per-player ranks.
func (s *Service) Snapshot(ctx context.Context, sessionID string) (*game.Session, map[string]int, error) {
	sess, err := s.store.Get(ctx, sessionID)
	if err != nil {
		return nil, nil, err
	}
	ranks := make(map[string]int, len(sess.Participants))
	for _, p := range sess.Participants {
		ranks[p.PlayerID] = sess.Rank(p.PlayerID)
	}
	return sess, ranks, nil
}

// Handle processes one voice turn end to end.
func (s *Service) Handle(ctx context.Context, req Request) (*Response, error) {
	sess, err := s.store.Get(ctx, req.SessionID)
	if err != nil {
		return nil, err
	}

	iv := s.intents.Analyze(ctx, req.Transcript, analysis.Context{
		Kind:   sess.Kind,
		Status: sess.Status,
	})

	if iv.Confidence < s.clarifyThreshold {
		return s.clarify(iv, sess), nil
	}

	switch iv.Type {
	case intentmodel.TypeStartGame:
		return s.handleStart(ctx, sess, req, iv)
	case intentmodel.TypeJoinGame:
		joined, err := s.Join(ctx, sess.ID, req.PlayerID)
		if err != nil {
			return nil, err
		}
		return reply(iv, joined, fmt.Sprintf("Welcome aboard, %s!", req.PlayerID)), nil
	case intentmodel.TypeAnswer:
		return s.handleAnswer(ctx, sess, req, iv)
	case intentmodel.TypeSpot:
		return s.handleSpot(ctx, sess, req, iv)
	case intentmodel.TypeQuestion:
		return s.handleGuess(ctx, sess, req, iv)
	case intentmodel.TypeHint:
		return s.handleHint(ctx, sess, req, iv)
	case intentmodel.TypeRepeat:
		return s.handleRepeat(sess, iv), nil
	case intentmodel.TypeNext:
		return s.handleNext(ctx, sess, req, iv)
	case intentmodel.TypePause:
		return s.pauseWith(ctx, sess.ID, req.PlayerID, iv)
	case intentmodel.TypeResume:
		return s.resumeWith(ctx, sess.ID, req.PlayerID, iv)
	case intentmodel.TypeScore:
		return s.handleScore(sess, iv), nil
	case intentmodel.TypeQuit:
		return s.handleQuit(ctx, sess, req, iv)
	case intentmodel.TypeOther:
		return s.clarify(iv, sess), nil
	default:
		return s.clarify(iv, sess), nil
	}
}

// HandleConflict resolves simultaneous voice inputs to one canonical
// turn, then handles it. Discarded inputs get no retries.
func (s *Service) HandleConflict(ctx context.Context, sessionID string, inputs []coordinator.VoiceInput) (*Response, error) {
	selected, ok := s.coord.SelectVoice(ctx, sessionID, inputs)
	if !ok {
		return nil, game.ErrAmbiguousInput
	}
	return s.Handle(ctx, Request{
		SessionID:  sessionID,
		PlayerID:   selected.PlayerID,
		Transcript: selected.Transcript,
		Confidence: selected.Confidence,
		Clarity:    selected.Clarity,
	})
}

// ScoreBatch ranks a simultaneous answer batch through the coordinator.
func (s *Service) ScoreBatch(ctx context.Context, sessionID string, batch []coordinator.AnswerSubmission) ([]coordinator.AnswerOutcome, error) {
	return s.coord.ScoreRound(ctx, sessionID, batch)
}

func (s *Service) handleStart(ctx context.Context, sess *game.Session, req Request, iv intentmodel.Intent) (*Response, error) {
	if sess.Status == game.StatusActive {
		return reply(iv, sess, "We're already in the middle of a game. Say \"what's the score\" to check standings."), nil
	}
	if sess.Status == game.StatusPaused {
		return s.resumeWith(ctx, sess.ID, req.PlayerID, iv)
	}

	updated, err := s.store.Update(ctx, sess.ID, func(sess *game.Session) error {
		if raw := iv.Param(intentmodel.ParamGame); raw != "" {
			if kind, ok := game.ParseKind(raw); ok {
				sess.Kind = kind
			}
		}
		if err := s.activate(ctx, sess); err != nil {
			return err
		}
		sess.Record(req.PlayerID, string(iv.Type), req.Transcript, s.now())
		return nil
	})
	if err != nil {
		return nil, err
	}

	if len(updated.TurnOrder) > 0 {
		s.coord.StartTurnTimer(updated.ID)
	}
	s.publish(ctx, updated.ID, broadcast.EventGameStarted, map[string]any{
		"kind": string(updated.Kind),
	})
	return reply(iv, updated, s.openingLine(updated)), nil
}

func (s *Service) handleAnswer(ctx context.Context, sess *game.Session, req Request, iv intentmodel.Intent) (*Response, error) {
	if sess.Status != game.StatusActive {
		return nil, game.ErrSessionFinished
	}
	if sess.Question == nil {
		return reply(iv, sess, "There's no question on the table. Say \"next question\" for a fresh one."), nil
	}
	if !s.coord.IsPlayerTurn(sess, req.PlayerID) {
		return nil, game.ErrNotPlayerTurn
	}

	spoken := iv.Param(intentmodel.ParamAnswer)
	if spoken == "" {
		spoken = req.Transcript
	}
	result := match.Match(spoken, sess.Question.Options)
	if len(sess.Question.Options) > 0 && result.Confidence < match.ClarifyBelow {
		out := s.clarify(iv, sess)
		out.Reply = fmt.Sprintf("I didn't catch which option you meant. The choices are %s.",
			strings.Join(sess.Question.Options, ", "))
		return out, nil
	}

	chosen := result.BestMatch
	if len(sess.Question.Options) == 0 {
		chosen = spoken
	}
	correct := strings.EqualFold(strings.TrimSpace(chosen), strings.TrimSpace(sess.Question.Answer))
	answerText := sess.Question.Answer
	questionID := sess.Question.ID
	responseMillis := int64(0)

	var rec difficulty.Recommendation
	updated, err := s.store.Update(ctx, sess.ID, func(sess *game.Session) error {
		// The verdict above was computed against the question read before
		// the lock; a concurrent turn may have consumed it in between.
		if sess.Question == nil || sess.Question.ID != questionID {
			return game.ErrConflictingUpdate
		}
		player, ok := sess.Player(req.PlayerID)
		if !ok {
			sess.AddPlayer(req.PlayerID, s.now())
			player, _ = sess.Player(req.PlayerID)
		}
		responseMillis = s.now().Sub(sess.LastUpdate).Milliseconds()
		player.RecordAnswer(correct, responseMillis, s.now())
		if correct {
			player.Score += answerPoints
		}

		prev := player.Difficulty
		rec = difficulty.Optimal(player.Recent, difficulty.Context{
			Kind:          sess.Kind,
			PreviousScore: prev,
			HasPrevious:   player.HasDifficulty,
			Engagement: difficulty.Engagement{
				VoiceInteractions: len(sess.History),
				CompletionRatio:   1,
				HintsUsed:         sess.HintsRevealed,
				MultiplayerCount:  len(sess.Participants) - 1,
				SessionMinutes:    s.now().Sub(sess.CreatedAt).Minutes(),
			},
		})
		player.Difficulty = rec.Score
		player.HasDifficulty = true

		sess.Question = nil
		sess.HintsRevealed = 0
		sess.AdvanceRound()
		if len(sess.TurnOrder) > 0 {
			sess.CurrentTurnIdx++
		}
		sess.Record(req.PlayerID, string(iv.Type), req.Transcript, s.now())

		next, err := s.questions.Next(ctx, sess.Kind, "", rec.Score)
		if err != nil {
			return err
		}
		sess.Question = next
		return nil
	})
	if err != nil {
		return nil, err
	}

	if len(updated.TurnOrder) > 0 && !updated.IsPaused {
		s.coord.StartTurnTimer(updated.ID)
	}
	s.publish(ctx, updated.ID, broadcast.EventAnswerResults, map[string]any{
		"round": updated.Round,
		"results": []map[string]any{{
			"playerId": req.PlayerID,
			"correct":  correct,
			"rank":     0,
			"points":   pointsIf(correct),
		}},
	})
	s.publish(ctx, updated.ID, broadcast.EventNextQuestion, map[string]any{
		"prompt":  updated.Question.Prompt,
		"options": updated.Question.Options,
		"level":   string(rec.Level),
	})

	out := reply(iv, updated, s.answerLine(correct, answerText, updated))
	out.Details = map[string]any{
		"correct":         correct,
		"matched":         chosen,
		"matchConfidence": result.Confidence,
		"difficulty":      rec.Score,
		"level":           string(rec.Level),
		"reasoning":       rec.Reasoning,
	}
	return out, nil
}

func (s *Service) handleSpot(ctx context.Context, sess *game.Session, req Request, iv intentmodel.Intent) (*Response, error) {
	if sess.Kind != game.KindBingo || sess.Board == nil {
		return reply(iv, sess, "We're not playing a spotting game right now."), nil
	}
	if sess.Status != game.StatusActive {
		return nil, game.ErrSessionFinished
	}

	item := iv.Param(intentmodel.ParamItem)
	if item == "" {
		item = req.Transcript
	}

	var square *game.Square
	var wins []string
	updated, err := s.store.Update(ctx, sess.ID, func(sess *game.Session) error {
		marked, fresh := sess.Board.Mark(item, req.PlayerID, s.now())
		if marked == nil {
			return game.ErrAmbiguousInput
		}
		if !fresh {
			square = marked
			return errAlreadySpotted
		}
		square = marked
		sess.AddPlayer(req.PlayerID, s.now())
		sess.ApplyScore(req.PlayerID, answerPoints, true, s.now())
		sess.Record(req.PlayerID, string(iv.Type), req.Transcript, s.now())

		wins = coordinator.CheckPatterns(sess.Board, true)
		if len(wins) > 0 {
			sess.Status = game.StatusWon
		}
		return nil
	})
	if err != nil {
		if errors.Is(err, errAlreadySpotted) {
			return reply(iv, sess, fmt.Sprintf("\"%s\" is already marked. Find something new!", square.Label)), nil
		}
		if errors.Is(err, game.ErrAmbiguousInput) {
			out := s.clarify(iv, sess)
			out.Reply = fmt.Sprintf("\"%s\" isn't on the board. Keep your eyes peeled!", item)
			return out, nil
		}
		return nil, err
	}

	s.publish(ctx, updated.ID, broadcast.EventSquareFound, map[string]any{
		"label":    square.Label,
		"playerId": req.PlayerID,
	})
	if len(wins) > 0 {
		s.coord.CancelTurnTimer(updated.ID)
		s.publish(ctx, updated.ID, broadcast.EventBoardWon, map[string]any{
			"playerId": req.PlayerID,
			"patterns": wins,
		})
		out := reply(iv, updated, fmt.Sprintf("BINGO! %s completed %s. What a game!", req.PlayerID, strings.Join(wins, " and ")))
		out.Details = map[string]any{"patterns": wins}
		return out, nil
	}
	return reply(iv, updated, fmt.Sprintf("Nice spot! \"%s\" is marked.", square.Label)), nil
}

func (s *Service) handleGuess(ctx context.Context, sess *game.Session, req Request, iv intentmodel.Intent) (*Response, error) {
	if sess.Kind != game.KindTwentyQuestions || sess.Question == nil {
		return s.clarify(iv, sess), nil
	}
	if sess.Status != game.StatusActive {
		return nil, game.ErrSessionFinished
	}
	if !s.coord.IsPlayerTurn(sess, req.PlayerID) {
		return nil, game.ErrNotPlayerTurn
	}

	guess := iv.Param(intentmodel.ParamGuess)
	result := match.Match(guess, []string{sess.Question.Answer})
	won := result.Confidence >= match.ClarifyBelow
	var lost bool

	updated, err := s.store.Update(ctx, sess.ID, func(sess *game.Session) error {
		sess.QuestionsAsked++
		sess.Record(req.PlayerID, string(iv.Type), req.Transcript, s.now())
		player, ok := sess.Player(req.PlayerID)
		if !ok {
			sess.AddPlayer(req.PlayerID, s.now())
			player, _ = sess.Player(req.PlayerID)
		}
		switch {
		case won:
			player.RecordAnswer(true, 0, s.now())
			player.Score += answerPoints + maxQuestions - sess.QuestionsAsked
			sess.Status = game.StatusWon
		case sess.QuestionsAsked >= maxQuestions:
			lost = true
			sess.Status = game.StatusLost
		default:
			if len(sess.TurnOrder) > 0 {
				sess.CurrentTurnIdx++
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	switch {
	case won:
		s.coord.CancelTurnTimer(updated.ID)
		s.publish(ctx, updated.ID, broadcast.EventGameOver, map[string]any{
			"winner": req.PlayerID,
			"answer": updated.Question.Answer,
		})
		return reply(iv, updated, fmt.Sprintf("You got it! It was the %s. %d questions used.",
			updated.Question.Answer, updated.QuestionsAsked)), nil
	case lost:
		s.coord.CancelTurnTimer(updated.ID)
		s.publish(ctx, updated.ID, broadcast.EventGameOver, map[string]any{
			"answer": updated.Question.Answer,
		})
		return reply(iv, updated, fmt.Sprintf("That's %d questions! It was the %s. Better luck next round.",
			maxQuestions, updated.Question.Answer)), nil
	default:
		if len(updated.TurnOrder) > 0 && !updated.IsPaused {
			s.coord.StartTurnTimer(updated.ID)
		}
		remaining := maxQuestions - updated.QuestionsAsked
		return reply(iv, updated, fmt.Sprintf("Not quite. %d questions left.", remaining)), nil
	}
}

func (s *Service) handleHint(ctx context.Context, sess *game.Session, req Request, iv intentmodel.Intent) (*Response, error) {
	if sess.Question == nil || len(sess.Question.Hints) == 0 {
		return reply(iv, sess, "No hints for this one, sorry."), nil
	}
	if sess.HintsRevealed >= len(sess.Question.Hints) {
		return reply(iv, sess, "You've heard every hint I have."), nil
	}

	var hint string
	updated, err := s.store.Update(ctx, sess.ID, func(sess *game.Session) error {
		if sess.Question == nil || sess.HintsRevealed >= len(sess.Question.Hints) {
			return game.ErrAmbiguousInput
		}
		hint = sess.Question.Hints[sess.HintsRevealed]
		sess.HintsRevealed++
		sess.Record(req.PlayerID, string(iv.Type), req.Transcript, s.now())
		return nil
	})
	if err != nil {
		return nil, err
	}
	return reply(iv, updated, "Here's a hint: "+hint), nil
}

func (s *Service) handleRepeat(sess *game.Session, iv intentmodel.Intent) *Response {
	if sess.Question == nil {
		return reply(iv, sess, "There's nothing to repeat right now.")
	}
	return reply(iv, sess, s.questionLine(sess))
}

func (s *Service) handleNext(ctx context.Context, sess *game.Session, req Request, iv intentmodel.Intent) (*Response, error) {
	if sess.Status != game.StatusActive {
		return nil, game.ErrSessionFinished
	}

	score := 0.4
	if player, ok := sess.Player(req.PlayerID); ok && player.HasDifficulty {
		score = player.Difficulty
	}

	updated, err := s.store.Update(ctx, sess.ID, func(sess *game.Session) error {
		next, err := s.questions.Next(ctx, sess.Kind, "", score)
		if err != nil {
			return err
		}
		sess.Question = next
		sess.HintsRevealed = 0
		sess.AdvanceRound()
		sess.Record(req.PlayerID, string(iv.Type), req.Transcript, s.now())
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.publish(ctx, updated.ID, broadcast.EventNextQuestion, map[string]any{
		"prompt":  updated.Question.Prompt,
		"options": updated.Question.Options,
	})
	return reply(iv, updated, s.questionLine(updated)), nil
}

// Pause blocks turn timers but not score reads.
func (s *Service) Pause(ctx context.Context, sessionID, playerID string) (*game.Session, error) {
	sess, err := s.store.Update(ctx, sessionID, func(sess *game.Session) error {
		if !sess.Status.CanTransition(game.StatusPaused) {
			return game.ErrSessionFinished
		}
		sess.Status = game.StatusPaused
		sess.IsPaused = true
		sess.Record(playerID, string(intentmodel.TypePause), "", s.now())
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.coord.CancelTurnTimer(sessionID)
	s.publish(ctx, sessionID, broadcast.EventGamePaused, map[string]any{"by": playerID})
	return sess, nil
}

// Resume reschedules a fresh full-duration timer; elapsed time from
// before the pause does not carry over.
func (s *Service) Resume(ctx context.Context, sessionID, playerID string) (*game.Session, error) {
	sess, err := s.store.Update(ctx, sessionID, func(sess *game.Session) error {
		if !sess.Status.CanTransition(game.StatusActive) {
			return game.ErrSessionFinished
		}
		sess.Status = game.StatusActive
		sess.IsPaused = false
		sess.Record(playerID, string(intentmodel.TypeResume), "", s.now())
		return nil
	})
	if err != nil {
		return nil, err
	}
	if len(sess.TurnOrder) > 0 {
		s.coord.StartTurnTimer(sessionID)
	}
	s.publish(ctx, sessionID, broadcast.EventGameResumed, map[string]any{"by": playerID})
	return sess, nil
}

func (s *Service) pauseWith(ctx context.Context, sessionID, playerID string, iv intentmodel.Intent) (*Response, error) {
	sess, err := s.Pause(ctx, sessionID, playerID)
	if err != nil {
		return nil, err
	}
	return reply(iv, sess, "Game paused. Say \"resume\" whenever you're ready."), nil
}

func (s *Service) resumeWith(ctx context.Context, sessionID, playerID string, iv intentmodel.Intent) (*Response, error) {
	sess, err := s.Resume(ctx, sessionID, playerID)
	if err != nil {
		return nil, err
	}
	return reply(iv, sess, "Back in the game! "+s.questionLine(sess)), nil
}

func (s *Service) handleScore(sess *game.Session, iv intentmodel.Intent) *Response {
	if len(sess.Participants) == 0 {
		return reply(iv, sess, "Nobody is on the scoreboard yet.")
	}
	parts := make([]string, 0, len(sess.Participants))
	for _, p := range sess.Participants {
		parts = append(parts, fmt.Sprintf("%s has %d points (rank %d)", p.PlayerID, p.Score, sess.Rank(p.PlayerID)))
	}
	return reply(iv, sess, strings.Join(parts, ", ")+".")
}

func (s *Service) handleQuit(ctx context.Context, sess *game.Session, req Request, iv intentmodel.Intent) (*Response, error) {
	updated, err := s.store.Update(ctx, sess.ID, func(sess *game.Session) error {
		if sess.Status.Terminal() {
			return game.ErrSessionFinished
		}
		sess.Status = game.StatusAbandoned
		sess.Record(req.PlayerID, string(iv.Type), req.Transcript, s.now())
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.coord.CancelTurnTimer(updated.ID)
	s.publish(ctx, updated.ID, broadcast.EventSessionEnded, map[string]any{"by": req.PlayerID})
	return reply(iv, updated, "Thanks for playing! Say \"let's play\" any time to start another round."), nil
}

// clarify asks the speaker to rephrase; no state changes.
func (s *Service) clarify(iv intentmodel.Intent, sess *game.Session) *Response {
	line := "Sorry, I didn't quite catch that. Could you say it again?"
	if sess.Question != nil && len(sess.Question.Options) > 0 {
		line = fmt.Sprintf("Sorry, I didn't catch that. You can answer with a letter, like \"A\" for %s.",
			sess.Question.Options[0])
	}
	return &Response{
		Reply:              line,
		Intent:             iv,
		NeedsClarification: true,
	}
}

func (s *Service) openingLine(sess *game.Session) string {
	switch sess.Kind {
	case game.KindBingo:
		return "Road-trip bingo is on! Call out what you see, like \"I see a water tower\"."
	case game.KindTwentyQuestions:
		return "I'm thinking of something... You have twenty questions. " + s.questionLine(sess)
	default:
		return "Let's play! " + s.questionLine(sess)
	}
}

func (s *Service) questionLine(sess *game.Session) string {
	if sess.Question == nil {
		return "Say \"next question\" when you're ready."
	}
	if len(sess.Question.Options) == 0 {
		return sess.Question.Prompt
	}
	letters := []string{"A", "B", "C", "D"}
	parts := make([]string, 0, len(sess.Question.Options))
	for i, option := range sess.Question.Options {
		if i < len(letters) {
			parts = append(parts, letters[i]+": "+option)
		}
	}
	return sess.Question.Prompt + " " + strings.Join(parts, ", ") + "."
}

func (s *Service) answerLine(correct bool, answer string, sess *game.Session) string {
	if correct {
		return fmt.Sprintf("Correct! It was %s. %s", answer, s.questionLine(sess))
	}
	return fmt.Sprintf("Not this time, it was %s. %s", answer, s.questionLine(sess))
}

func (s *Service) publish(ctx context.Context, sessionID, eventType string, data map[string]any) {
	if err := s.pub.Publish(ctx, sessionID, broadcast.New(eventType, sessionID, data)); err != nil {
		s.log.Warn().Str("session", sessionID).Str("event", eventType).Err(err).Msg("broadcast failed")
	}
}

func pointsIf(correct bool) int {
	if correct {
		return answerPoints
	}
	return 0
}

func reply(iv intentmodel.Intent, sess *game.Session, line string) *Response {
	return &Response{Reply: line, Intent: iv, Session: sess}
}
