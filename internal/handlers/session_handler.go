package handlers

import (
	"context"
	"errors"
	"net/http"

	"practice-service/internal/models"
	"practice-service/internal/service"
	"practice-service/internal/session"

	"github.com/gin-gonic/gin"
)

type SessionHandler struct {
	Service *service.PracticeService
}

func NewSessionHandler(s *service.PracticeService) *SessionHandler {
	return &SessionHandler{Service: s}
}

func userID(c *gin.Context) string {
	return c.GetString("userID")
}

// StartSession starts a new practice session over a deck.
func (h *SessionHandler) StartSession(c *gin.Context) {
	var req struct {
		DeckID string               `json:"deck_id" binding:"required"`
		Config models.SessionConfig `json:"config"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Invalid request format",
			"details": err.Error(),
		})
		return
	}

	sess, err := h.Service.StartSession(context.Background(), userID(c), req.DeckID, req.Config)
	if err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, session.ErrNoQuestions) {
			status = http.StatusUnprocessableEntity
		}
		if errors.Is(err, session.ErrNotAuthenticated) {
			status = http.StatusUnauthorized
		}
		c.JSON(status, gin.H{"error": "Failed to start session", "details": err.Error()})
		return
	}
	c.JSON(http.StatusCreated, sess)
}

// SubmitAnswer grades and records an answer for the current question.
func (h *SessionHandler) SubmitAnswer(c *gin.Context) {
	var req struct {
		SelectedOption *int `json:"selected_option" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Invalid request format",
			"details": err.Error(),
		})
		return
	}

	feedback, err := h.Service.SubmitAnswer(context.Background(), userID(c), *req.SelectedOption)
	if err != nil {
		c.JSON(http.StatusConflict, gin.H{"error": "Failed to submit answer", "details": err.Error()})
		return
	}
	c.JSON(http.StatusOK, feedback)
}

// NextQuestion advances the session. When the advance completes the session
// the response carries the summary instead of a question.
func (h *SessionHandler) NextQuestion(c *gin.Context) {
	summary, err := h.Service.NextQuestion(context.Background(), userID(c))
	if err != nil {
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
		return
	}
	if summary != nil {
		c.JSON(http.StatusOK, gin.H{"completed": true, "summary": summary})
		return
	}
	state := h.Service.State(userID(c))
	c.JSON(http.StatusOK, gin.H{
		"completed": false,
		"question":  state.Question,
		"has_next":  state.HasNext,
	})
}

// PauseSession suspends the active session.
func (h *SessionHandler) PauseSession(c *gin.Context) {
	h.Service.PauseSession(context.Background(), userID(c))
	c.JSON(http.StatusOK, h.Service.State(userID(c)))
}

// ResumeSession reactivates a paused session.
func (h *SessionHandler) ResumeSession(c *gin.Context) {
	h.Service.ResumeSession(context.Background(), userID(c))
	c.JSON(http.StatusOK, h.Service.State(userID(c)))
}

// EndSession completes the session and returns its summary.
func (h *SessionHandler) EndSession(c *gin.Context) {
	summary, err := h.Service.EndSession(context.Background(), userID(c))
	if err != nil {
		c.JSON(http.StatusConflict, gin.H{"error": "Failed to end session", "details": err.Error()})
		return
	}
	c.JSON(http.StatusOK, summary)
}

// AbandonSession terminates the session without a summary.
func (h *SessionHandler) AbandonSession(c *gin.Context) {
	h.Service.AbandonSession(context.Background(), userID(c))
	c.JSON(http.StatusOK, gin.H{"message": "Session abandoned"})
}

// ResetSession clears all controller state for the user.
func (h *SessionHandler) ResetSession(c *gin.Context) {
	h.Service.ResetSession(context.Background(), userID(c))
	c.JSON(http.StatusOK, gin.H{"message": "Session reset"})
}

// GetState returns the full controller state for the view layer.
func (h *SessionHandler) GetState(c *gin.Context) {
	c.JSON(http.StatusOK, h.Service.State(userID(c)))
}

// CheckRecoverable reports whether a snapshot can be restored.
func (h *SessionHandler) CheckRecoverable(c *gin.Context) {
	recoverable := h.Service.CheckRecoverable(context.Background(), userID(c))
	c.JSON(http.StatusOK, gin.H{"recoverable": recoverable})
}

// RecoverSession restores the session from its snapshot.
func (h *SessionHandler) RecoverSession(c *gin.Context) {
	sess, ok := h.Service.RecoverSession(context.Background(), userID(c))
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "Nothing to recover"})
		return
	}
	c.JSON(http.StatusOK, sess)
}

// DismissRecovery discards the stored snapshot.
func (h *SessionHandler) DismissRecovery(c *gin.Context) {
	h.Service.DismissRecovery(context.Background(), userID(c))
	c.JSON(http.StatusOK, gin.H{"message": "Recovery dismissed"})
}

// GetSummaries lists the user's completed session summaries.
func (h *SessionHandler) GetSummaries(c *gin.Context) {
	summaries, err := h.Service.Summaries(context.Background(), userID(c))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, summaries)
}
