package models

// AnswerOutcome is the graded result of one submitted answer. It is produced
// by the grading layer and consumed by the session controller; the controller
// never grades answers itself.
type AnswerOutcome struct {
	IsCorrect     bool `json:"is_correct"`
	XPEarned      int  `json:"xp_earned"`
	CorrectOption int  `json:"correct_option"`
}
