package service

import (
	"context"
	"fmt"
	"log"
	"sync"

	"practice-service/internal/auth"
	"practice-service/internal/models"
	"practice-service/internal/repository"
	"practice-service/internal/selection"
	"practice-service/internal/session"
	"practice-service/internal/snapshot"
)

// AnswerFeedback is what the client sees right after an answer is graded and
// recorded: the outcome plus the session's updated counters.
type AnswerFeedback struct {
	IsCorrect     bool                `json:"is_correct"`
	CorrectOption int                 `json:"correct_option"`
	XPEarned      int                 `json:"xp_earned"`
	Stats         models.SessionStats `json:"stats"`
	HasNext       bool                `json:"has_next"`
}

// ControllerState is the full view-facing state of one user's controller.
// Question carries the current question's text resolved to the session's
// configured language, ready to render.
type ControllerState struct {
	Session         *models.PracticeSession `json:"session"`
	Summary         *models.SessionSummary  `json:"summary"`
	Error           string                  `json:"error,omitempty"`
	CurrentQuestion *models.QuestionState   `json:"current_question"`
	Question        *models.QuestionView    `json:"question,omitempty"`
	HasNext         bool                    `json:"has_next"`
	Answered        int                     `json:"answered"`
	Total           int                     `json:"total"`
}

// PracticeService runs one session controller per user. It fetches decks and
// questions, grades submitted answers, and persists summaries; the controller
// itself never touches the network or the database.
type PracticeService struct {
	DeckRepo     *repository.DeckRepository
	QuestionRepo *repository.QuestionRepository
	SummaryRepo  *repository.SummaryRepository
	codec        *snapshot.Codec

	mu          sync.Mutex
	controllers map[string]*session.Controller
}

func NewPracticeService(
	deckRepo *repository.DeckRepository,
	questionRepo *repository.QuestionRepository,
	summaryRepo *repository.SummaryRepository,
	codec *snapshot.Codec,
) *PracticeService {
	return &PracticeService{
		DeckRepo:     deckRepo,
		QuestionRepo: questionRepo,
		SummaryRepo:  summaryRepo,
		codec:        codec,
		controllers:  make(map[string]*session.Controller),
	}
}

// Controller returns the user's session controller, creating it on first use.
func (s *PracticeService) Controller(userID string) *session.Controller {
	s.mu.Lock()
	defer s.mu.Unlock()
	ctrl, ok := s.controllers[userID]
	if !ok {
		ctrl = session.NewController(auth.StaticIdentity{ID: userID}, s.codec)
		s.controllers[userID] = ctrl
	}
	return ctrl
}

// StartSession loads the deck, selects questions per the config, and starts a
// session for the user.
func (s *PracticeService) StartSession(ctx context.Context, userID, deckID string, config models.SessionConfig) (*models.PracticeSession, error) {
	deck, err := s.DeckRepo.FindByID(ctx, deckID)
	if err != nil {
		return nil, fmt.Errorf("failed to load deck %s: %w", deckID, err)
	}
	questions, err := s.QuestionRepo.FindByDeck(ctx, deckID)
	if err != nil {
		return nil, fmt.Errorf("failed to load questions for deck %s: %w", deckID, err)
	}
	questions = selection.Apply(questions, config)

	ctrl := s.Controller(userID)
	ctrl.Start(ctx, deck.ID, deck.Name, deck.Category, questions, config)
	if err := ctrl.Err(); err != nil {
		return nil, err
	}
	return ctrl.Session(), nil
}

// SubmitAnswer grades the selected option against the current question and
// records the outcome. Grading happens here, before the controller sees the
// answer; the controller only consumes the graded outcome.
func (s *PracticeService) SubmitAnswer(ctx context.Context, userID string, selected int) (*AnswerFeedback, error) {
	ctrl := s.Controller(userID)
	if ctrl.Status() != models.StatusActive {
		return nil, fmt.Errorf("no active session for user %s", userID)
	}
	q := ctrl.CurrentQuestion()
	if q == nil {
		return nil, fmt.Errorf("no current question")
	}
	if q.Answered() {
		return nil, fmt.Errorf("current question already answered")
	}
	if !q.Question.HasOption(selected) {
		return nil, fmt.Errorf("option %d out of range", selected)
	}

	outcome := grade(&q.Question, selected)
	ctrl.RecordAnswer(ctx, selected, outcome)

	return &AnswerFeedback{
		IsCorrect:     outcome.IsCorrect,
		CorrectOption: outcome.CorrectOption,
		XPEarned:      outcome.XPEarned,
		Stats:         ctrl.Stats(),
		HasNext:       ctrl.HasNext(),
	}, nil
}

// grade resolves one selected option into an answer outcome.
func grade(q *models.Question, selected int) models.AnswerOutcome {
	isCorrect := selected == q.CorrectOption
	xp := 0
	if isCorrect {
		xp = q.XP()
	}
	return models.AnswerOutcome{
		IsCorrect:     isCorrect,
		XPEarned:      xp,
		CorrectOption: q.CorrectOption,
	}
}

// NextQuestion advances the session. When the advance completes the session,
// the produced summary is persisted and returned; otherwise nil.
func (s *PracticeService) NextQuestion(ctx context.Context, userID string) (*models.SessionSummary, error) {
	ctrl := s.Controller(userID)
	if ctrl.Status() != models.StatusActive {
		return nil, fmt.Errorf("no active session for user %s", userID)
	}
	wasLast := !ctrl.HasNext()
	ctrl.NextQuestion(ctx)
	if !wasLast {
		return nil, nil
	}
	summary := ctrl.Summary()
	if summary != nil {
		s.persistSummary(ctx, summary)
	}
	return summary, nil
}

// PauseSession suspends the user's active session.
func (s *PracticeService) PauseSession(ctx context.Context, userID string) {
	s.Controller(userID).Pause(ctx)
}

// ResumeSession reactivates the user's paused session.
func (s *PracticeService) ResumeSession(ctx context.Context, userID string) {
	s.Controller(userID).Resume(ctx)
}

// EndSession completes the session, persists its summary, and returns it.
func (s *PracticeService) EndSession(ctx context.Context, userID string) (*models.SessionSummary, error) {
	summary, err := s.Controller(userID).End(ctx)
	if err != nil {
		return nil, err
	}
	s.persistSummary(ctx, summary)
	return summary, nil
}

func (s *PracticeService) persistSummary(ctx context.Context, summary *models.SessionSummary) {
	if s.SummaryRepo == nil {
		return
	}
	if err := s.SummaryRepo.Create(ctx, summary); err != nil {
		// The summary is already in memory for the client; losing the
		// history record is not worth failing the request over.
		log.Printf("[SESSION] failed to persist summary for session %s: %v", summary.SessionID, err)
	}
}

// AbandonSession terminates the session without a summary.
func (s *PracticeService) AbandonSession(ctx context.Context, userID string) {
	s.Controller(userID).Abandon(ctx)
}

// ResetSession clears the user's controller state.
func (s *PracticeService) ResetSession(ctx context.Context, userID string) {
	s.Controller(userID).Reset(ctx)
}

// CheckRecoverable reports whether the user has a snapshot worth offering to
// restore.
func (s *PracticeService) CheckRecoverable(ctx context.Context, userID string) bool {
	return s.Controller(userID).CheckRecoverable(ctx)
}

// RecoverSession restores the user's session from their snapshot.
func (s *PracticeService) RecoverSession(ctx context.Context, userID string) (*models.PracticeSession, bool) {
	ctrl := s.Controller(userID)
	if !ctrl.Recover(ctx) {
		return nil, false
	}
	return ctrl.Session(), true
}

// DismissRecovery discards the user's snapshot without restoring it.
func (s *PracticeService) DismissRecovery(ctx context.Context, userID string) {
	s.Controller(userID).DismissRecovery(ctx)
}

// State returns the full view-facing controller state for the user.
func (s *PracticeService) State(userID string) *ControllerState {
	ctrl := s.Controller(userID)
	answered, total := ctrl.Progress()
	state := &ControllerState{
		Session:         ctrl.Session(),
		Summary:         ctrl.Summary(),
		CurrentQuestion: ctrl.CurrentQuestion(),
		HasNext:         ctrl.HasNext(),
		Answered:        answered,
		Total:           total,
	}
	if state.Session != nil && state.CurrentQuestion != nil {
		view := state.CurrentQuestion.Question.View(state.Session.Config.Language)
		state.Question = &view
	}
	if err := ctrl.Err(); err != nil {
		state.Error = err.Error()
	}
	return state
}

// Summaries lists the user's persisted session summaries, newest first.
func (s *PracticeService) Summaries(ctx context.Context, userID string) ([]models.SessionSummary, error) {
	return s.SummaryRepo.FindByUser(ctx, userID)
}
