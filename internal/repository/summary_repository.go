package repository

import (
	"context"

	"practice-service/internal/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type SummaryRepository struct {
	Col *mongo.Collection
}

func NewSummaryRepository(db *mongo.Database) *SummaryRepository {
	return &SummaryRepository{Col: db.Collection("summaries")}
}

func (r *SummaryRepository) Create(ctx context.Context, summary *models.SessionSummary) error {
	_, err := r.Col.InsertOne(ctx, summary)
	return err
}

func (r *SummaryRepository) FindBySession(ctx context.Context, sessionID string) (*models.SessionSummary, error) {
	var summary models.SessionSummary
	err := r.Col.FindOne(ctx, bson.M{"session_id": sessionID}).Decode(&summary)
	if err != nil {
		return nil, err
	}
	return &summary, nil
}

func (r *SummaryRepository) FindByUser(ctx context.Context, userID string) ([]models.SessionSummary, error) {
	opts := options.Find().SetSort(bson.D{{Key: "ended_at", Value: -1}})
	cur, err := r.Col.Find(ctx, bson.M{"user_id": userID}, opts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)
	var summaries []models.SessionSummary
	for cur.Next(ctx) {
		var s models.SessionSummary
		if err := cur.Decode(&s); err != nil {
			return nil, err
		}
		summaries = append(summaries, s)
	}
	return summaries, nil
}
