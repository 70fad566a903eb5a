package store

import (
	"context"
	"errors"
	"time"

	"EstateMarket/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type MongoOfferStore struct {
	collection *mongo.Collection
}

func NewMongoOfferStore(collection *mongo.Collection) *MongoOfferStore {
	return &MongoOfferStore{collection: collection}
}

func (s *MongoOfferStore) Create(ctx context.Context, offer *models.Offer) error {
	if offer.ID.IsZero() {
		offer.ID = primitive.NewObjectID()
	}
	_, err := s.collection.InsertOne(ctx, offer)
	if mongo.IsDuplicateKeyError(err) {
		return ErrDuplicate
	}
	return err
}

func (s *MongoOfferStore) FindByID(ctx context.Context, id primitive.ObjectID) (models.Offer, error) {
	var offer models.Offer
	err := s.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&offer)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return models.Offer{}, ErrNotFound
	}
	return offer, err
}

func offerFilter(q OfferQuery) bson.M {
	filter := bson.M{}
	if q.BuyerEmail != "" {
		filter["buyerEmail"] = q.BuyerEmail
	}
	if q.AgentEmail != "" {
		filter["agentEmail"] = q.AgentEmail
	}
	if !q.PropertyID.IsZero() {
		filter["propertyId"] = q.PropertyID
	}
	if len(q.Statuses) > 0 {
		filter["status"] = bson.M{"$in": q.Statuses}
	}
	return filter
}

func (s *MongoOfferStore) List(ctx context.Context, q OfferQuery) ([]models.Offer, error) {
	cursor, err := s.collection.Find(ctx, offerFilter(q),
		options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}}))
	if err != nil {
		return nil, err
	}
	offers := []models.Offer{}
	if err := cursor.All(ctx, &offers); err != nil {
		return nil, err
	}
	return offers, nil
}

func (s *MongoOfferStore) ChangeStatus(ctx context.Context, id primitive.ObjectID, change models.StatusChange) (models.Offer, error) {
	set := bson.M{"status": change.To, "updatedAt": time.Now().UTC()}
	if change.TransactionID != "" {
		set["transactionId"] = change.TransactionID
	}
	if change.PaidAt != nil {
		set["paidAt"] = *change.PaidAt
	}

	var offer models.Offer
	err := s.collection.FindOneAndUpdate(ctx,
		bson.M{"_id": id, "status": change.From},
		bson.M{"$set": set},
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(&offer)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return models.Offer{}, missOrConflict(ctx, s.collection, id)
	}
	return offer, err
}

func (s *MongoOfferStore) SetPaymentIntent(ctx context.Context, id primitive.ObjectID, intentID string) error {
	res, err := s.collection.UpdateOne(ctx,
		bson.M{"_id": id, "status": models.OfferAccepted},
		bson.M{"$set": bson.M{"paymentIntentId": intentID, "updatedAt": time.Now().UTC()}},
	)
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return missOrConflict(ctx, s.collection, id)
	}
	return nil
}

func (s *MongoOfferStore) RejectMatching(ctx context.Context, q OfferQuery, except primitive.ObjectID) (int64, error) {
	if len(q.Statuses) == 0 {
		return 0, errors.New("reject matching offers: statuses are required")
	}
	filter := offerFilter(q)
	if !except.IsZero() {
		filter["_id"] = bson.M{"$ne": except}
	}
	res, err := s.collection.UpdateMany(ctx, filter,
		bson.M{"$set": bson.M{"status": models.OfferRejected, "updatedAt": time.Now().UTC()}})
	if err != nil {
		return 0, err
	}
	return res.ModifiedCount, nil
}
