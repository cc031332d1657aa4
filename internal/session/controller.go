package session

import (
	"context"
	"errors"
	"log"
	"math"
	"sync"
	"time"

	"practice-service/internal/models"
	"practice-service/internal/snapshot"

	"github.com/google/uuid"
)

// Identity supplies the current user to the controller. It is read at Start
// and again when recovering a snapshot.
type Identity interface {
	UserID() string
	IsAuthenticated() bool
}

var (
	// ErrNotAuthenticated is recorded when Start is called without an
	// authenticated user.
	ErrNotAuthenticated = errors.New("session: not authenticated")
	// ErrNoQuestions is recorded when Start is called with an empty deck.
	ErrNoQuestions = errors.New("session: no questions to practice")
	// ErrNoSession is returned by End when no session exists. This is a
	// contract violation by the caller, not an expected runtime condition.
	ErrNoSession = errors.New("session: no session to end")
)

// Controller owns at most one practice session and is its sole mutator. It
// runs the session through start, answer, advance, pause/resume, and end,
// and writes a snapshot after every mutation so a crashed client can pick up
// where it left off.
//
// Operations called in an illegal state are logged no-ops; only End fails
// loudly. Setup failures are held in err for the caller to display.
//
// The controller is served over HTTP, so the same user's requests can land
// concurrently; mu keeps every mutation and read of the session serialized.
type Controller struct {
	identity Identity
	codec    *snapshot.Codec
	now      func() time.Time

	mu      sync.Mutex
	sess    *models.PracticeSession
	summary *models.SessionSummary
	err     error
}

func NewController(identity Identity, codec *snapshot.Codec) *Controller {
	return &Controller{
		identity: identity,
		codec:    codec,
		now:      time.Now,
	}
}

// Session returns a copy of the live session, or nil when none exists.
// Callers get a copy so they can read it while the controller keeps mutating.
func (c *Controller) Session() *models.PracticeSession {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.sess.Clone()
}

// Status returns the live session's status, or "" when none exists.
func (c *Controller) Status() models.SessionStatus {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.sess == nil {
		return ""
	}
	return c.sess.Status
}

// Stats returns the live session's running counters.
func (c *Controller) Stats() models.SessionStats {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.sess == nil {
		return models.SessionStats{}
	}
	return c.sess.Stats
}

// Summary returns the summary of the last completed session, or nil.
func (c *Controller) Summary() *models.SessionSummary {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.summary
}

// Err returns the recoverable setup error from the last Start, or nil.
func (c *Controller) Err() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.err
}

// CurrentQuestion returns a copy of the question state at the current index,
// or nil.
func (c *Controller) CurrentQuestion() *models.QuestionState {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.sess == nil {
		return nil
	}
	q := c.sess.Current()
	if q == nil {
		return nil
	}
	state := *q
	return &state
}

// HasNext reports whether a question follows the current one.
func (c *Controller) HasNext() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.sess != nil && c.sess.HasNext()
}

// Progress returns answered and total question counts.
func (c *Controller) Progress() (answered, total int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.sess == nil {
		return 0, 0
	}
	return c.sess.Stats.Answered, len(c.sess.Questions)
}

// Start begins a new session over the given questions, replacing any prior
// session. On a setup failure (unauthenticated caller, empty question set)
// it records the error and leaves all state untouched.
func (c *Controller) Start(ctx context.Context, deckID, deckName, category string, questions []models.Question, config models.SessionConfig) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.identity == nil || !c.identity.IsAuthenticated() {
		c.err = ErrNotAuthenticated
		return
	}
	if len(questions) == 0 {
		c.err = ErrNoQuestions
		return
	}

	now := c.now()
	states := make([]models.QuestionState, len(questions))
	for i, q := range questions {
		states[i] = models.QuestionState{Question: q}
	}
	firstStarted := now
	states[0].StartedAt = &firstStarted

	c.sess = &models.PracticeSession{
		ID:        uuid.NewString(),
		DeckID:    deckID,
		DeckName:  deckName,
		Category:  category,
		UserID:    c.identity.UserID(),
		Config:    config,
		Questions: states,
		Status:    models.StatusActive,
		Phase:     models.PhaseQuestion,
		Stats:     models.SessionStats{Remaining: len(questions)},
		StartedAt: now,
	}
	c.summary = nil
	c.err = nil
	c.codec.Save(ctx, c.sess)
}

// RecordAnswer writes a graded outcome onto the current question and folds it
// into the session stats. The outcome comes from the grading layer; the
// controller never grades or performs network calls itself.
func (c *Controller) RecordAnswer(ctx context.Context, selected int, outcome models.AnswerOutcome) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.sess == nil || c.sess.Status != models.StatusActive {
		log.Printf("[SESSION] answer ignored: no active session")
		return
	}
	q := c.sess.Current()
	if q == nil {
		log.Printf("[SESSION] answer ignored: current index %d out of range", c.sess.CurrentIndex)
		return
	}
	if q.Answered() {
		log.Printf("[SESSION] answer ignored: question %d already answered", c.sess.CurrentIndex)
		return
	}

	now := c.now()
	started := now
	if q.StartedAt != nil {
		started = *q.StartedAt
	} else {
		log.Printf("[SESSION] question %d answered without a start timestamp", c.sess.CurrentIndex)
	}
	elapsed := now.Sub(started).Milliseconds()

	sel := selected
	isCorrect := outcome.IsCorrect
	correctOpt := outcome.CorrectOption
	q.SelectedOption = &sel
	q.IsCorrect = &isCorrect
	q.CorrectOption = &correctOpt
	q.XPEarned = outcome.XPEarned
	q.TimeTakenMs = &elapsed
	q.AnsweredAt = &now

	c.sess.Stats = foldStats(c.sess.Stats, outcome.IsCorrect, outcome.XPEarned, elapsed)
	c.sess.Phase = models.PhaseFeedback
	c.codec.Save(ctx, c.sess)
}

// NextQuestion advances to the next question, or ends the session when the
// current question was the last one.
func (c *Controller) NextQuestion(ctx context.Context) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.sess == nil || c.sess.Status != models.StatusActive {
		log.Printf("[SESSION] advance ignored: no active session")
		return
	}
	if !c.sess.HasNext() {
		if _, err := c.end(ctx); err != nil {
			log.Printf("[SESSION] end after last question failed: %v", err)
		}
		return
	}

	c.sess.CurrentIndex++
	now := c.now()
	c.sess.Current().StartedAt = &now
	c.sess.Phase = models.PhaseQuestion
	c.codec.Save(ctx, c.sess)
}

// Pause suspends an active session.
func (c *Controller) Pause(ctx context.Context) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.sess == nil || c.sess.Status != models.StatusActive {
		log.Printf("[SESSION] pause ignored: no active session")
		return
	}
	now := c.now()
	c.sess.Status = models.StatusPaused
	c.sess.PausedAt = &now
	c.codec.Save(ctx, c.sess)
}

// Resume reactivates a paused session. An unanswered current question gets a
// fresh start timestamp so the paused interval does not count against it.
func (c *Controller) Resume(ctx context.Context) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.sess == nil || c.sess.Status != models.StatusPaused {
		log.Printf("[SESSION] resume ignored: no paused session")
		return
	}
	if q := c.sess.Current(); q != nil && !q.Answered() {
		now := c.now()
		q.StartedAt = &now
	}
	c.sess.Status = models.StatusActive
	c.sess.PausedAt = nil
	c.codec.Save(ctx, c.sess)
}

// End completes the session and returns its summary. Calling End again
// without an intervening Start returns the stored summary unchanged. With no
// session at all it returns ErrNoSession.
func (c *Controller) End(ctx context.Context) (*models.SessionSummary, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.end(ctx)
}

// end does the work of End; callers hold mu.
func (c *Controller) end(ctx context.Context) (*models.SessionSummary, error) {
	if c.sess == nil {
		return nil, ErrNoSession
	}
	if c.sess.Status == models.StatusCompleted && c.summary != nil {
		return c.summary, nil
	}

	now := c.now()
	results := make([]models.QuestionResult, 0, c.sess.Stats.Answered)
	for i := range c.sess.Questions {
		q := &c.sess.Questions[i]
		if !q.Answered() {
			continue
		}
		// The authoritative correct option was stored at answer time;
		// the definition is only a fallback.
		correctOpt := q.Question.CorrectOption
		if q.CorrectOption != nil {
			correctOpt = *q.CorrectOption
		}
		elapsedSec := 0
		if q.TimeTakenMs != nil {
			elapsedSec = roundMsToSeconds(*q.TimeTakenMs)
		}
		results = append(results, models.QuestionResult{
			Index:          i,
			Question:       q.Question,
			SelectedOption: *q.SelectedOption,
			CorrectOption:  correctOpt,
			IsCorrect:      *q.IsCorrect,
			XPEarned:       q.XPEarned,
			TimeSeconds:    elapsedSec,
		})
	}

	c.sess.Status = models.StatusCompleted
	c.sess.EndedAt = &now
	c.summary = &models.SessionSummary{
		SessionID:       c.sess.ID,
		DeckID:          c.sess.DeckID,
		DeckName:        c.sess.DeckName,
		Category:        c.sess.Category,
		UserID:          c.sess.UserID,
		Stats:           c.sess.Stats,
		Results:         results,
		DurationSeconds: int(math.Round(now.Sub(c.sess.StartedAt).Seconds())),
		StartedAt:       c.sess.StartedAt,
		EndedAt:         now,
	}
	c.codec.Clear(ctx, c.sess.UserID)
	return c.summary, nil
}

// Abandon terminates the session without producing a summary. Safe to call
// with no session; the snapshot is cleared either way.
func (c *Controller) Abandon(ctx context.Context) {
	c.mu.Lock()
	defer c.mu.Unlock()
	userID := c.identity.UserID()
	if c.sess != nil {
		now := c.now()
		c.sess.Status = models.StatusAbandoned
		c.sess.EndedAt = &now
		userID = c.sess.UserID
	}
	c.codec.Clear(ctx, userID)
}

// Reset clears session, summary, and error state.
func (c *Controller) Reset(ctx context.Context) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.sess = nil
	c.summary = nil
	c.err = nil
	c.codec.Clear(ctx, c.identity.UserID())
}

// CheckRecoverable reports whether a valid snapshot exists for the current
// user.
func (c *Controller) CheckRecoverable(ctx context.Context) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.codec.Load(ctx, c.identity.UserID()) != nil
}

// Recover restores the session from the stored snapshot. The snapshot must
// belong to the current user; on a mismatch it is discarded and Recover
// reports false without touching controller state. On success the in-progress
// question's timer restarts, the session is forced active, and a fresh
// snapshot is written.
func (c *Controller) Recover(ctx context.Context) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	userID := c.identity.UserID()
	snap := c.codec.Load(ctx, userID)
	if snap == nil {
		return false
	}
	if snap.Session.UserID != userID {
		log.Printf("[SESSION] discarding snapshot owned by %s, current user %s", snap.Session.UserID, userID)
		c.codec.Clear(ctx, userID)
		return false
	}

	sess := snap.Session
	if q := sess.Current(); q != nil && !q.Answered() {
		now := c.now()
		q.StartedAt = &now
	}
	sess.Status = models.StatusActive
	sess.PausedAt = nil

	c.sess = sess
	c.summary = nil
	c.err = nil
	c.codec.Save(ctx, sess)
	return true
}

// DismissRecovery throws away any stored snapshot without restoring it.
func (c *Controller) DismissRecovery(ctx context.Context) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.codec.Clear(ctx, c.identity.UserID())
}
