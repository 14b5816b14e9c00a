package app

import (
	"context"
	"fmt"
	"math/rand"
	"time"

	"carpet-quiz-service/internal/domain"
	"carpet-quiz-service/internal/quiz"
)

// SessionRepository abstracts how player sessions are stored (in-memory,
// Redis-tracked, etc).
type SessionRepository interface {
	Put(playerID string, session *quiz.Session)
	Get(playerID string) (*quiz.Session, bool)
	Delete(playerID string)
}

// CatalogRepository loads the quiz catalog (from cache/backing store).
type CatalogRepository interface {
	GetCatalog(ctx context.Context) (domain.Catalog, error)
}

// Scoreboard is the best-effort shared leaderboard. Both calls degrade
// instead of failing; neither may ever interrupt quiz play.
type Scoreboard interface {
	Fetch(ctx context.Context) domain.LeaderboardDocument
	Submit(ctx context.Context, name string, score int, cfg domain.SessionConfig) bool
}

// QuestionView describes the active question for transports.
type QuestionView struct {
	Index     int      `json:"index"`
	Total     int      `json:"total"`
	Score     int      `json:"score"`
	Step      string   `json:"step"`
	ImagePath string   `json:"imagePath"`
	Options   []string `json:"options"`
}

// Completion summarizes a finished run, including the process-lifetime
// best for the run's category.
type Completion struct {
	Score int `json:"score"`
	Total int `json:"total"`
	Best  int `json:"best"`
}

// QuizService contains the core quiz use cases.
type QuizService struct {
	sessions    SessionRepository
	catalogs    CatalogRepository
	board       Scoreboard
	bests       *quiz.SessionBests
	newRand     func() *rand.Rand
	optionCount int
}

// ServiceOption tweaks a QuizService.
type ServiceOption func(*QuizService)

// WithRandFactory injects the random source for new sessions; tests pass
// seeded generators for deterministic queues and distractors.
func WithRandFactory(factory func() *rand.Rand) ServiceOption {
	return func(s *QuizService) { s.newRand = factory }
}

// WithOptionCount overrides how many multiple-choice options are shown.
func WithOptionCount(n int) ServiceOption {
	return func(s *QuizService) {
		if n > 0 {
			s.optionCount = n
		}
	}
}

func NewQuizService(sessions SessionRepository, catalogs CatalogRepository, board Scoreboard, opts ...ServiceOption) *QuizService {
	s := &QuizService{
		sessions:    sessions,
		catalogs:    catalogs,
		board:       board,
		bests:       quiz.NewSessionBests(),
		optionCount: quiz.DefaultOptionCount,
		newRand: func() *rand.Rand {
			return rand.New(rand.NewSource(time.Now().UnixNano()))
		},
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// StartSession begins (or restarts) a player's quiz run and returns the
// first question. An invalid config is rejected before any state changes.
func (s *QuizService) StartSession(ctx context.Context, playerID string, cfg domain.SessionConfig) (QuestionView, error) {
	session, ok := s.sessions.Get(playerID)
	if !ok {
		catalog, err := s.catalogs.GetCatalog(ctx)
		if err != nil {
			return QuestionView{}, fmt.Errorf("load catalog: %w", err)
		}
		session = quiz.NewSession(catalog, s.newRand())
	}
	if err := session.Start(cfg); err != nil {
		return QuestionView{}, err
	}
	s.sessions.Put(playerID, session)
	return s.questionView(session)
}

// Question returns the active question for a player mid-run.
func (s *QuizService) Question(_ context.Context, playerID string) (QuestionView, error) {
	session, ok := s.sessions.Get(playerID)
	if !ok {
		return QuestionView{}, domain.ErrSessionNotFound
	}
	return s.questionView(session)
}

// SubmitAnswer routes an answer to the active sub-step. The returned
// feedback says whether the question is finalized; in two-step mode a
// primary answer is followed by the secondary question.
func (s *QuizService) SubmitAnswer(_ context.Context, playerID, answer string) (quiz.Answer, error) {
	session, ok := s.sessions.Get(playerID)
	if !ok {
		return quiz.Answer{}, domain.ErrSessionNotFound
	}
	if session.Phase() == quiz.PhaseAwaitingSecondary {
		return session.SubmitSecondary(answer)
	}
	return session.SubmitPrimary(answer)
}

// Advance moves past an answered question. When the run completes it
// records the score into the session-best table and returns the summary;
// otherwise it returns the next question.
func (s *QuizService) Advance(_ context.Context, playerID string) (*QuestionView, *Completion, error) {
	session, ok := s.sessions.Get(playerID)
	if !ok {
		return nil, nil, domain.ErrSessionNotFound
	}
	if err := session.Advance(); err != nil {
		return nil, nil, err
	}

	if session.Phase() == quiz.PhaseComplete {
		best := s.bests.Record(session.Config().CategoryKey(), session.Score())
		return nil, &Completion{
			Score: session.Score(),
			Total: session.Len(),
			Best:  best,
		}, nil
	}

	view, err := s.questionView(session)
	if err != nil {
		return nil, nil, err
	}
	return &view, nil, nil
}

// Restart discards the current run and starts a fresh one. Session bests
// are process-lifetime and survive.
func (s *QuizService) Restart(ctx context.Context, playerID string, cfg domain.SessionConfig) (QuestionView, error) {
	return s.StartSession(ctx, playerID, cfg)
}

// Leaderboard serves the (possibly cached) shared scoreboard for display.
func (s *QuizService) Leaderboard(ctx context.Context) domain.LeaderboardDocument {
	return s.board.Fetch(ctx)
}

// SubmitScore pushes a completed run onto the shared leaderboard. The
// returned flag is false when the score was not recorded; the player's
// session score is unaffected either way.
func (s *QuizService) SubmitScore(ctx context.Context, playerID, name string) (bool, error) {
	session, ok := s.sessions.Get(playerID)
	if !ok {
		return false, domain.ErrSessionNotFound
	}
	if session.Phase() != quiz.PhaseComplete {
		return false, fmt.Errorf("%w: submitScore in %s", domain.ErrInvalidTransition, session.Phase())
	}
	return s.board.Submit(ctx, name, session.Score(), session.Config()), nil
}

// Best returns the process-lifetime best score for a category.
func (s *QuizService) Best(categoryKey string) (int, bool) {
	return s.bests.Best(categoryKey)
}

// EndSession drops a player's session, e.g. when the connection closes.
func (s *QuizService) EndSession(playerID string) {
	s.sessions.Delete(playerID)
}

func (s *QuizService) questionView(session *quiz.Session) (QuestionView, error) {
	options, err := session.CurrentOptions(s.optionCount)
	if err != nil {
		return QuestionView{}, err
	}
	item, _ := session.Item()

	step := "primary"
	if session.Phase() == quiz.PhaseAwaitingSecondary {
		step = "secondary"
	}
	return QuestionView{
		Index:     session.Index(),
		Total:     session.Len(),
		Score:     session.Score(),
		Step:      step,
		ImagePath: item.ImagePath,
		Options:   options,
	}, nil
}
