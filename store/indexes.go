package store

import (
	"context"
	"fmt"

	"EstateMarket/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// Mongo bundles the collection-backed stores.
type Mongo struct {
	Users      *MongoUserStore
	Properties *MongoPropertyStore
	Wishlist   *MongoWishlistStore
	Offers     *MongoOfferStore
	Reviews    *MongoReviewStore
}

type CollectionNames struct {
	Users      string
	Properties string
	Wishlist   string
	Offers     string
	Reviews    string
}

func NewMongo(db *mongo.Database, names CollectionNames) *Mongo {
	return &Mongo{
		Users:      NewMongoUserStore(db.Collection(names.Users)),
		Properties: NewMongoPropertyStore(db.Collection(names.Properties)),
		Wishlist:   NewMongoWishlistStore(db.Collection(names.Wishlist)),
		Offers:     NewMongoOfferStore(db.Collection(names.Offers)),
		Reviews:    NewMongoReviewStore(db.Collection(names.Reviews)),
	}
}

func (m *Mongo) EnsureIndexes(ctx context.Context) error {
	// One active offer per buyer and listing. $in in a partial filter needs
	// MongoDB 6.0 or newer.
	activeOfferPerBuyer := options.Index().
		SetName("active_offer_per_buyer").
		SetUnique(true).
		SetPartialFilterExpression(bson.M{
			"status": bson.M{"$in": bson.A{models.OfferPending, models.OfferAccepted}},
		})

	plan := []struct {
		collection *mongo.Collection
		models     []mongo.IndexModel
	}{
		{m.Users.collection, []mongo.IndexModel{
			{Keys: bson.D{{Key: "email", Value: 1}}, Options: options.Index().SetUnique(true)},
		}},
		{m.Properties.collection, []mongo.IndexModel{
			{Keys: bson.D{{Key: "agentEmail", Value: 1}}},
			{Keys: bson.D{{Key: "status", Value: 1}, {Key: "isAdvertised", Value: 1}}},
		}},
		{m.Wishlist.collection, []mongo.IndexModel{
			{Keys: bson.D{{Key: "userEmail", Value: 1}, {Key: "propertyId", Value: 1}}, Options: options.Index().SetUnique(true)},
			{Keys: bson.D{{Key: "propertyId", Value: 1}}},
		}},
		{m.Offers.collection, []mongo.IndexModel{
			{Keys: bson.D{{Key: "propertyId", Value: 1}, {Key: "status", Value: 1}}},
			{Keys: bson.D{{Key: "buyerEmail", Value: 1}}},
			{Keys: bson.D{{Key: "buyerEmail", Value: 1}, {Key: "propertyId", Value: 1}}, Options: activeOfferPerBuyer},
			{Keys: bson.D{{Key: "agentEmail", Value: 1}}},
		}},
		{m.Reviews.collection, []mongo.IndexModel{
			{Keys: bson.D{{Key: "propertyId", Value: 1}}},
			{Keys: bson.D{{Key: "email", Value: 1}}},
			{Keys: bson.D{{Key: "date", Value: -1}}},
		}},
	}

	for _, step := range plan {
		if _, err := step.collection.Indexes().CreateMany(ctx, step.models); err != nil {
			return fmt.Errorf("create indexes on %s: %w", step.collection.Name(), err)
		}
	}
	return nil
}

var (
	_ UserStore     = (*MongoUserStore)(nil)
	_ PropertyStore = (*MongoPropertyStore)(nil)
	_ WishlistStore = (*MongoWishlistStore)(nil)
	_ OfferStore    = (*MongoOfferStore)(nil)
	_ ReviewStore   = (*MongoReviewStore)(nil)
)
