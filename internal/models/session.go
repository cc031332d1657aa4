package models

import "time"

type SessionStatus string

const (
	StatusActive    SessionStatus = "active"
	StatusPaused    SessionStatus = "paused"
	StatusCompleted SessionStatus = "completed"
	StatusAbandoned SessionStatus = "abandoned"
)

// SessionPhase distinguishes "answering the current question" from "showing
// feedback for the just-answered question".
type SessionPhase string

const (
	PhaseQuestion SessionPhase = "question"
	PhaseFeedback SessionPhase = "feedback"
)

// SessionConfig holds the caller-chosen constraints for a practice session.
type SessionConfig struct {
	QuestionCount    int    `bson:"question_count" json:"question_count"`
	Language         string `bson:"language" json:"language"`
	Randomize        bool   `bson:"randomize" json:"randomize"`
	TimeLimitSeconds *int   `bson:"time_limit_seconds,omitempty" json:"time_limit_seconds,omitempty"`
}

// QuestionState wraps an immutable question definition with the mutable
// per-item record for one session.
//
// Invariant: AnsweredAt is non-nil if and only if SelectedOption and
// IsCorrect are non-nil.
type QuestionState struct {
	Question       Question   `bson:"question" json:"question"`
	SelectedOption *int       `bson:"selected_option,omitempty" json:"selected_option,omitempty"`
	IsCorrect      *bool      `bson:"is_correct,omitempty" json:"is_correct,omitempty"`
	CorrectOption  *int       `bson:"correct_option,omitempty" json:"correct_option,omitempty"`
	XPEarned       int        `bson:"xp_earned" json:"xp_earned"`
	TimeTakenMs    *int64     `bson:"time_taken_ms,omitempty" json:"time_taken_ms,omitempty"`
	StartedAt      *time.Time `bson:"started_at,omitempty" json:"started_at,omitempty"`
	AnsweredAt     *time.Time `bson:"answered_at,omitempty" json:"answered_at,omitempty"`
}

// Answered reports whether this question has been answered.
func (q *QuestionState) Answered() bool {
	return q.AnsweredAt != nil
}

// SessionStats holds running counters derived from answered questions.
//
// Invariant: Answered + Remaining equals the session's question count.
type SessionStats struct {
	Answered           int `bson:"answered" json:"answered"`
	Remaining          int `bson:"remaining" json:"remaining"`
	Correct            int `bson:"correct" json:"correct"`
	Incorrect          int `bson:"incorrect" json:"incorrect"`
	Accuracy           int `bson:"accuracy" json:"accuracy"`
	TotalTimeSeconds   int `bson:"total_time_seconds" json:"total_time_seconds"`
	AverageTimeSeconds int `bson:"average_time_seconds" json:"average_time_seconds"`
	XPEarned           int `bson:"xp_earned" json:"xp_earned"`
}

// PracticeSession is the root aggregate for one run-through of a deck.
type PracticeSession struct {
	ID           string          `bson:"_id,omitempty" json:"id"`
	DeckID       string          `bson:"deck_id" json:"deck_id"`
	DeckName     string          `bson:"deck_name" json:"deck_name"`
	Category     string          `bson:"category" json:"category"`
	UserID       string          `bson:"user_id" json:"user_id"`
	Config       SessionConfig   `bson:"config" json:"config"`
	Questions    []QuestionState `bson:"questions" json:"questions"`
	CurrentIndex int             `bson:"current_index" json:"current_index"`
	Status       SessionStatus   `bson:"status" json:"status"`
	Phase        SessionPhase    `bson:"phase" json:"phase"`
	Stats        SessionStats    `bson:"stats" json:"stats"`
	StartedAt    time.Time       `bson:"started_at" json:"started_at"`
	PausedAt     *time.Time      `bson:"paused_at,omitempty" json:"paused_at,omitempty"`
	EndedAt      *time.Time      `bson:"ended_at,omitempty" json:"ended_at,omitempty"`
}

// Clone returns a copy whose question states are independent of the
// original. Question definitions are shared; they never change after the
// session starts.
func (s *PracticeSession) Clone() *PracticeSession {
	if s == nil {
		return nil
	}
	out := *s
	out.Questions = make([]QuestionState, len(s.Questions))
	copy(out.Questions, s.Questions)
	return &out
}

// Current returns the question state at the current index, or nil when the
// index is out of range.
func (s *PracticeSession) Current() *QuestionState {
	if s.CurrentIndex < 0 || s.CurrentIndex >= len(s.Questions) {
		return nil
	}
	return &s.Questions[s.CurrentIndex]
}

// HasNext reports whether a question follows the current one.
func (s *PracticeSession) HasNext() bool {
	return s.CurrentIndex+1 < len(s.Questions)
}

// InProgress reports whether the session can still be resumed or recovered.
func (s *PracticeSession) InProgress() bool {
	return s.Status == StatusActive || s.Status == StatusPaused
}
