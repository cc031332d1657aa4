package repository

import (
	"context"

	"practice-service/internal/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

type DeckRepository struct {
	Col *mongo.Collection
}

func NewDeckRepository(db *mongo.Database) *DeckRepository {
	return &DeckRepository{Col: db.Collection("decks")}
}

func (r *DeckRepository) FindAll(ctx context.Context) ([]models.Deck, error) {
	cur, err := r.Col.Find(ctx, bson.M{"status": bson.M{"$ne": "deleted"}})
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)
	var decks []models.Deck
	for cur.Next(ctx) {
		var d models.Deck
		if err := cur.Decode(&d); err != nil {
			return nil, err
		}
		decks = append(decks, d)
	}
	return decks, nil
}

func (r *DeckRepository) FindByID(ctx context.Context, id string) (*models.Deck, error) {
	objID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, err // invalid id format
	}
	var deck models.Deck
	err = r.Col.FindOne(ctx, bson.M{"_id": objID}).Decode(&deck)
	if err != nil {
		return nil, err
	}
	return &deck, nil
}

func (r *DeckRepository) Create(ctx context.Context, deck *models.Deck) error {
	_, err := r.Col.InsertOne(ctx, deck)
	return err
}

func (r *DeckRepository) Delete(ctx context.Context, id string) error {
	objID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return err
	}
	_, err = r.Col.UpdateOne(ctx, bson.M{"_id": objID}, bson.M{"$set": bson.M{"status": "deleted"}})
	return err
}
