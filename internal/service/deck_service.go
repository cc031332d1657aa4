package service

import (
	"context"

	"practice-service/internal/models"
	"practice-service/internal/repository"
	"practice-service/internal/selection"
)

type DeckService struct {
	DeckRepo     *repository.DeckRepository
	QuestionRepo *repository.QuestionRepository
}

func NewDeckService(deckRepo *repository.DeckRepository, questionRepo *repository.QuestionRepository) *DeckService {
	return &DeckService{DeckRepo: deckRepo, QuestionRepo: questionRepo}
}

func (s *DeckService) ListDecks(ctx context.Context) ([]models.Deck, error) {
	return s.DeckRepo.FindAll(ctx)
}

func (s *DeckService) GetDeck(ctx context.Context, id string) (*models.Deck, error) {
	return s.DeckRepo.FindByID(ctx, id)
}

// GetDeckQuestions returns a deck's questions with the selection config
// applied, for previewing a session without starting one.
func (s *DeckService) GetDeckQuestions(ctx context.Context, deckID string, config models.SessionConfig) ([]models.Question, error) {
	questions, err := s.QuestionRepo.FindByDeck(ctx, deckID)
	if err != nil {
		return nil, err
	}
	return selection.Apply(questions, config), nil
}

func (s *DeckService) CreateDeck(ctx context.Context, deck *models.Deck) error {
	return s.DeckRepo.Create(ctx, deck)
}

func (s *DeckService) CreateQuestion(ctx context.Context, question *models.Question) error {
	return s.QuestionRepo.Create(ctx, question)
}
