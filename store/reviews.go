package store

import (
	"context"
	"errors"

	"EstateMarket/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type MongoReviewStore struct {
	collection *mongo.Collection
}

func NewMongoReviewStore(collection *mongo.Collection) *MongoReviewStore {
	return &MongoReviewStore{collection: collection}
}

func (s *MongoReviewStore) Create(ctx context.Context, review *models.Review) error {
	if review.ID.IsZero() {
		review.ID = primitive.NewObjectID()
	}
	_, err := s.collection.InsertOne(ctx, review)
	return err
}

func (s *MongoReviewStore) FindByID(ctx context.Context, id primitive.ObjectID) (models.Review, error) {
	var review models.Review
	err := s.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&review)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return models.Review{}, ErrNotFound
	}
	return review, err
}

func (s *MongoReviewStore) List(ctx context.Context, q ReviewQuery) ([]models.Review, error) {
	filter := bson.M{}
	if !q.PropertyID.IsZero() {
		filter["propertyId"] = q.PropertyID
	}
	if q.ReviewerEmail != "" {
		filter["email"] = q.ReviewerEmail
	}
	opts := options.Find().SetSort(bson.D{{Key: "date", Value: -1}})
	if q.Limit > 0 {
		opts.SetLimit(int64(q.Limit))
	}

	cursor, err := s.collection.Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	reviews := []models.Review{}
	if err := cursor.All(ctx, &reviews); err != nil {
		return nil, err
	}
	return reviews, nil
}

func (s *MongoReviewStore) Delete(ctx context.Context, id primitive.ObjectID) error {
	res, err := s.collection.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return err
	}
	if res.DeletedCount == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *MongoReviewStore) DeleteByReviewer(ctx context.Context, email string) (int64, error) {
	res, err := s.collection.DeleteMany(ctx, bson.M{"email": email})
	if err != nil {
		return 0, err
	}
	return res.DeletedCount, nil
}
