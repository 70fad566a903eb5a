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

type MongoWishlistStore struct {
	collection *mongo.Collection
}

func NewMongoWishlistStore(collection *mongo.Collection) *MongoWishlistStore {
	return &MongoWishlistStore{collection: collection}
}

// Create relies on the unique (userEmail, propertyId) index to reject
// duplicates.
func (s *MongoWishlistStore) Create(ctx context.Context, entry *models.WishlistEntry) error {
	if entry.ID.IsZero() {
		entry.ID = primitive.NewObjectID()
	}
	_, err := s.collection.InsertOne(ctx, entry)
	if mongo.IsDuplicateKeyError(err) {
		return ErrDuplicate
	}
	return err
}

func (s *MongoWishlistStore) FindByID(ctx context.Context, id primitive.ObjectID) (models.WishlistEntry, error) {
	var entry models.WishlistEntry
	err := s.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&entry)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return models.WishlistEntry{}, ErrNotFound
	}
	return entry, err
}

func (s *MongoWishlistStore) ListByUser(ctx context.Context, email string) ([]models.WishlistEntry, error) {
	cursor, err := s.collection.Find(ctx, bson.M{"userEmail": email},
		options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}}))
	if err != nil {
		return nil, err
	}
	entries := []models.WishlistEntry{}
	if err := cursor.All(ctx, &entries); err != nil {
		return nil, err
	}
	return entries, nil
}

func (s *MongoWishlistStore) Delete(ctx context.Context, id primitive.ObjectID) error {
	res, err := s.collection.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return err
	}
	if res.DeletedCount == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *MongoWishlistStore) DeleteByUserAndProperty(ctx context.Context, email string, propertyID primitive.ObjectID) (int64, error) {
	return s.deleteMany(ctx, bson.M{"userEmail": email, "propertyId": propertyID})
}

func (s *MongoWishlistStore) DeleteByProperty(ctx context.Context, propertyID primitive.ObjectID) (int64, error) {
	return s.deleteMany(ctx, bson.M{"propertyId": propertyID})
}

func (s *MongoWishlistStore) DeleteByUser(ctx context.Context, email string) (int64, error) {
	return s.deleteMany(ctx, bson.M{"userEmail": email})
}

func (s *MongoWishlistStore) deleteMany(ctx context.Context, filter bson.M) (int64, error) {
	res, err := s.collection.DeleteMany(ctx, filter)
	if err != nil {
		return 0, err
	}
	return res.DeletedCount, nil
}
