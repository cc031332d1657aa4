package models

import "time"

// QuestionResult is the summary-ready record of one answered question,
// distinct from the live QuestionState.
type QuestionResult struct {
	Index          int      `bson:"index" json:"index"`
	Question       Question `bson:"question" json:"question"`
	SelectedOption int      `bson:"selected_option" json:"selected_option"`
	CorrectOption  int      `bson:"correct_option" json:"correct_option"`
	IsCorrect      bool     `bson:"is_correct" json:"is_correct"`
	XPEarned       int      `bson:"xp_earned" json:"xp_earned"`
	TimeSeconds    int      `bson:"time_seconds" json:"time_seconds"`
}

// SessionSummary is built once when a session completes and never mutated
// afterwards.
type SessionSummary struct {
	SessionID       string           `bson:"session_id" json:"session_id"`
	DeckID          string           `bson:"deck_id" json:"deck_id"`
	DeckName        string           `bson:"deck_name" json:"deck_name"`
	Category        string           `bson:"category" json:"category"`
	UserID          string           `bson:"user_id" json:"user_id"`
	Stats           SessionStats     `bson:"stats" json:"stats"`
	Results         []QuestionResult `bson:"results" json:"results"`
	DurationSeconds int              `bson:"duration_seconds" json:"duration_seconds"`
	StartedAt       time.Time        `bson:"started_at" json:"started_at"`
	EndedAt         time.Time        `bson:"ended_at" json:"ended_at"`
}
