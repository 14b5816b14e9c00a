package quiz

import (
	"fmt"
	"math/rand"
	"strings"

	"carpet-quiz-service/internal/domain"
)

// Phase is the session's position in the quiz state machine.
type Phase uint8

const (
	// PhaseModeSelect means no quiz run has been started yet.
	PhaseModeSelect Phase = iota
	// PhaseAwaitingPrimary waits for the hotel-name answer.
	PhaseAwaitingPrimary
	// PhaseAwaitingSecondary waits for the area-type answer (two-step mode).
	PhaseAwaitingSecondary
	// PhaseAnswered shows the result of the current question.
	PhaseAnswered
	// PhaseComplete means every queued question has been answered.
	PhaseComplete
)

func (p Phase) String() string {
	switch p {
	case PhaseModeSelect:
		return "modeSelect"
	case PhaseAwaitingPrimary:
		return "awaitingPrimary"
	case PhaseAwaitingSecondary:
		return "awaitingSecondary"
	case PhaseAnswered:
		return "answered"
	case PhaseComplete:
		return "complete"
	}
	return "unknown"
}

// Answer is the feedback for one submitted answer step.
type Answer struct {
	Correct      bool   `json:"correct"`
	CorrectLabel string `json:"correctLabel"`
	// Final marks the question as fully answered; in two-step mode the
	// primary step alone is not final.
	Final bool `json:"final"`
	// Scored is true when the finished question awarded a point. Two-step
	// questions score only if both steps were correct.
	Scored      bool   `json:"scored"`
	Score       int    `json:"score"`
	Description string `json:"description,omitempty"`
}

// Session is a single player's quiz run. It is single-owner: exactly one
// goroutine drives its transitions, so it carries no lock of its own.
type Session struct {
	catalog domain.Catalog
	rnd     *rand.Rand

	cfg   domain.SessionConfig
	queue []domain.QuizItem
	index int
	score int
	phase Phase

	primaryCorrect bool
	options        []string
}

// NewSession creates an idle session over an immutable catalog. The random
// source feeds queue sampling and distractor generation; tests pass a
// seeded one for deterministic runs.
func NewSession(catalog domain.Catalog, rnd *rand.Rand) *Session {
	if rnd == nil {
		rnd = rand.New(rand.NewSource(rand.Int63()))
	}
	return &Session{catalog: catalog, rnd: rnd, phase: PhaseModeSelect}
}

// Start begins a fresh run: it validates the config, samples the question
// queue without replacement, and resets index and score. The config is
// rejected before any session state is touched.
func (s *Session) Start(cfg domain.SessionConfig) error {
	if cfg.Questions < 1 {
		return fmt.Errorf("%w: question count %d", domain.ErrInvalidConfig, cfg.Questions)
	}
	if !cfg.Mode.Valid() {
		return fmt.Errorf("%w: mode %q", domain.ErrInvalidConfig, cfg.Mode)
	}

	count := cfg.Questions
	if count > s.catalog.Len() {
		count = s.catalog.Len()
	}
	if count == 0 {
		return domain.ErrCatalogEmpty
	}
	queue := make([]domain.QuizItem, 0, count)
	for _, i := range s.rnd.Perm(s.catalog.Len())[:count] {
		queue = append(queue, s.catalog.Items[i])
	}

	s.cfg = cfg
	s.queue = queue
	s.index = 0
	s.score = 0
	s.phase = PhaseAwaitingPrimary
	s.primaryCorrect = false
	s.options = nil
	return nil
}

// Restart is Start under a different name: it discards the current run and
// begins a new one. Process-lifetime session bests are untouched.
func (s *Session) Restart(cfg domain.SessionConfig) error {
	return s.Start(cfg)
}

// SubmitPrimary answers the hotel-name step. In simple mode it finalizes
// the question and may award the point; in two-step mode it records the
// partial result and moves on to the area-type step without scoring.
func (s *Session) SubmitPrimary(answer string) (Answer, error) {
	if s.phase != PhaseAwaitingPrimary {
		return Answer{}, fmt.Errorf("%w: submitPrimary in %s", domain.ErrInvalidTransition, s.phase)
	}

	item := s.queue[s.index]
	correct := matches(answer, item.PrimaryLabel)

	if s.cfg.Mode == domain.ModeTwoStep {
		s.primaryCorrect = correct
		s.phase = PhaseAwaitingSecondary
		s.options = nil
		return Answer{
			Correct:      correct,
			CorrectLabel: item.PrimaryLabel,
			Score:        s.score,
		}, nil
	}

	if correct {
		s.score++
	}
	s.phase = PhaseAnswered
	return Answer{
		Correct:      correct,
		CorrectLabel: item.PrimaryLabel,
		Final:        true,
		Scored:       correct,
		Score:        s.score,
		Description:  item.Description,
	}, nil
}

// SubmitSecondary answers the area-type step. The question scores only if
// the primary and secondary answers were both correct.
func (s *Session) SubmitSecondary(answer string) (Answer, error) {
	if s.phase != PhaseAwaitingSecondary {
		return Answer{}, fmt.Errorf("%w: submitSecondary in %s", domain.ErrInvalidTransition, s.phase)
	}

	item := s.queue[s.index]
	correct := matches(answer, item.SecondaryLabel)
	scored := correct && s.primaryCorrect
	if scored {
		s.score++
	}
	s.phase = PhaseAnswered
	return Answer{
		Correct:      correct,
		CorrectLabel: item.SecondaryLabel,
		Final:        true,
		Scored:       scored,
		Score:        s.score,
		Description:  item.Description,
	}, nil
}

// Advance moves past an answered question. It is valid only from
// PhaseAnswered; from anywhere else it fails without mutating anything.
// Passing the last question transitions the session to PhaseComplete.
func (s *Session) Advance() error {
	if s.phase != PhaseAnswered {
		return fmt.Errorf("%w: advance in %s", domain.ErrInvalidTransition, s.phase)
	}

	s.index++
	s.primaryCorrect = false
	s.options = nil
	if s.index == len(s.queue) {
		s.phase = PhaseComplete
	} else {
		s.phase = PhaseAwaitingPrimary
	}
	return nil
}

// CurrentOptions returns the multiple-choice set for the active sub-step,
// generating it lazily and caching it until the sub-step advances.
func (s *Session) CurrentOptions(n int) ([]string, error) {
	switch s.phase {
	case PhaseAwaitingPrimary:
		if s.options == nil {
			s.options = Options(s.queue[s.index], s.catalog, n, s.rnd)
		}
	case PhaseAwaitingSecondary:
		if s.options == nil {
			s.options = TypeOptions()
		}
	default:
		return nil, fmt.Errorf("%w: options in %s", domain.ErrInvalidTransition, s.phase)
	}
	return s.options, nil
}

// Item returns the active question's item.
func (s *Session) Item() (domain.QuizItem, bool) {
	if s.index < len(s.queue) && s.phase != PhaseModeSelect {
		return s.queue[s.index], true
	}
	return domain.QuizItem{}, false
}

func (s *Session) Config() domain.SessionConfig { return s.cfg }
func (s *Session) Phase() Phase                 { return s.phase }
func (s *Session) Index() int                   { return s.index }
func (s *Session) Len() int                     { return len(s.queue) }
func (s *Session) Score() int                   { return s.score }

// matches compares a submitted answer to the ground truth: trimmed and
// case-insensitive, so free-text input is forgiving of casing.
func matches(answer, label string) bool {
	return strings.EqualFold(strings.TrimSpace(answer), label)
}
