package handlers

import (
	"context"
	"net/http"
	"strconv"

	"practice-service/internal/models"
	"practice-service/internal/service"

	"github.com/gin-gonic/gin"
)

type DeckHandler struct {
	Service *service.DeckService
}

func NewDeckHandler(s *service.DeckService) *DeckHandler {
	return &DeckHandler{Service: s}
}

func (h *DeckHandler) ListDecks(c *gin.Context) {
	decks, err := h.Service.ListDecks(context.Background())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, decks)
}

func (h *DeckHandler) GetDeck(c *gin.Context) {
	id := c.Param("id")
	deck, err := h.Service.GetDeck(context.Background(), id)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Deck not found"})
		return
	}
	c.JSON(http.StatusOK, deck)
}

// GetDeckQuestions previews a deck's questions with count/randomize applied
// via query parameters.
func (h *DeckHandler) GetDeckQuestions(c *gin.Context) {
	id := c.Param("id")
	config := models.SessionConfig{
		Language: c.DefaultQuery("lang", models.DefaultLanguage),
	}
	if count, err := strconv.Atoi(c.Query("count")); err == nil {
		config.QuestionCount = count
	}
	config.Randomize = c.Query("randomize") == "true"

	questions, err := h.Service.GetDeckQuestions(context.Background(), id, config)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	views := make([]models.QuestionView, len(questions))
	for i := range questions {
		views[i] = questions[i].View(config.Language)
	}
	c.JSON(http.StatusOK, views)
}

func (h *DeckHandler) CreateDeck(c *gin.Context) {
	var deck models.Deck
	if err := c.ShouldBindJSON(&deck); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if err := h.Service.CreateDeck(context.Background(), &deck); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusCreated, deck)
}

func (h *DeckHandler) CreateQuestion(c *gin.Context) {
	var question models.Question
	if err := c.ShouldBindJSON(&question); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if err := h.Service.CreateQuestion(context.Background(), &question); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusCreated, question)
}
