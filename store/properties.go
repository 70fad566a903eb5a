package store

import (
	"context"
	"errors"
	"regexp"
	"time"

	"EstateMarket/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type MongoPropertyStore struct {
	collection *mongo.Collection
}

func NewMongoPropertyStore(collection *mongo.Collection) *MongoPropertyStore {
	return &MongoPropertyStore{collection: collection}
}

func (s *MongoPropertyStore) Create(ctx context.Context, property *models.Property) error {
	if property.ID.IsZero() {
		property.ID = primitive.NewObjectID()
	}
	_, err := s.collection.InsertOne(ctx, property)
	return err
}

func (s *MongoPropertyStore) FindByID(ctx context.Context, id primitive.ObjectID) (models.Property, error) {
	var property models.Property
	err := s.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&property)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return models.Property{}, ErrNotFound
	}
	return property, err
}

func (s *MongoPropertyStore) List(ctx context.Context, q PropertyQuery) ([]models.Property, error) {
	query := bson.M{}
	if q.Status != "" {
		query["status"] = q.Status
	}
	if q.AgentEmail != "" {
		query["agentEmail"] = q.AgentEmail
	}
	if q.Advertised != nil {
		query["isAdvertised"] = *q.Advertised
	}
	if q.Location != "" {
		query["location"] = bson.M{"$regex": regexp.QuoteMeta(q.Location), "$options": "i"}
	}

	opts := options.Find()
	switch q.Sort {
	case models.SortPriceAsc:
		opts.SetSort(bson.D{{Key: "price.min", Value: 1}, {Key: "_id", Value: 1}})
	case models.SortPriceDesc:
		opts.SetSort(bson.D{{Key: "price.max", Value: -1}, {Key: "_id", Value: 1}})
	default:
		opts.SetSort(bson.D{{Key: "createdAt", Value: -1}, {Key: "_id", Value: -1}})
	}
	if q.Skip > 0 {
		opts.SetSkip(int64(q.Skip))
	}
	if q.Limit > 0 {
		opts.SetLimit(int64(q.Limit))
	}

	cursor, err := s.collection.Find(ctx, query, opts)
	if err != nil {
		return nil, err
	}
	properties := []models.Property{}
	if err := cursor.All(ctx, &properties); err != nil {
		return nil, err
	}
	return properties, nil
}

func (s *MongoPropertyStore) UpdateDetails(ctx context.Context, id primitive.ObjectID, req models.PropertyRequest) (models.Property, error) {
	updateDoc := bson.M{
		"title":     req.Title,
		"location":  req.Location,
		"imageUrl":  req.ImageURL,
		"price":     req.Price,
		"updatedAt": time.Now().UTC(),
	}
	filter := bson.M{"_id": id, "status": bson.M{"$ne": models.PropertyRejected}, "sold": false}
	return s.updateOne(ctx, id, filter, bson.M{"$set": updateDoc})
}

func (s *MongoPropertyStore) TransitionStatus(ctx context.Context, id primitive.ObjectID, from, to models.PropertyStatus) (models.Property, error) {
	set := bson.M{
		"status":    to,
		"verified":  to == models.PropertyVerified,
		"updatedAt": time.Now().UTC(),
	}
	if to == models.PropertyRejected {
		set["isAdvertised"] = false
	}
	return s.updateOne(ctx, id, bson.M{"_id": id, "status": from}, bson.M{"$set": set})
}

func (s *MongoPropertyStore) SetAdvertised(ctx context.Context, id primitive.ObjectID, advertised bool) (models.Property, error) {
	filter := bson.M{"_id": id, "status": models.PropertyVerified, "sold": false}
	return s.updateOne(ctx, id, filter, bson.M{"$set": bson.M{"isAdvertised": advertised, "updatedAt": time.Now().UTC()}})
}

func (s *MongoPropertyStore) ClaimOffer(ctx context.Context, id, offerID primitive.ObjectID) (models.Property, error) {
	filter := bson.M{
		"_id":  id,
		"sold": false,
		"$or": bson.A{
			bson.M{"acceptedOfferId": nil},
			bson.M{"acceptedOfferId": offerID},
		},
	}
	return s.updateOne(ctx, id, filter, bson.M{"$set": bson.M{"acceptedOfferId": offerID, "updatedAt": time.Now().UTC()}})
}

func (s *MongoPropertyStore) ReleaseOffer(ctx context.Context, id, offerID primitive.ObjectID) error {
	_, err := s.collection.UpdateOne(ctx,
		bson.M{"_id": id, "acceptedOfferId": offerID},
		bson.M{"$unset": bson.M{"acceptedOfferId": ""}, "$set": bson.M{"updatedAt": time.Now().UTC()}},
	)
	return err
}

func (s *MongoPropertyStore) MarkSold(ctx context.Context, id primitive.ObjectID, sale models.Sale) (models.Property, error) {
	filter := bson.M{
		"_id": id,
		"$or": bson.A{
			bson.M{"sold": false},
			bson.M{"transactionId": sale.TransactionID},
		},
	}
	update := bson.M{"$set": bson.M{
		"sold":          true,
		"isAdvertised":  false,
		"buyerEmail":    sale.BuyerEmail,
		"soldPrice":     sale.SoldPrice,
		"transactionId": sale.TransactionID,
		"soldAt":        sale.SoldAt,
		"updatedAt":     time.Now().UTC(),
	}}
	return s.updateOne(ctx, id, filter, update)
}

func (s *MongoPropertyStore) Delete(ctx context.Context, id primitive.ObjectID) error {
	res, err := s.collection.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return err
	}
	if res.DeletedCount == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *MongoPropertyStore) updateOne(ctx context.Context, id primitive.ObjectID, filter, update bson.M) (models.Property, error) {
	var property models.Property
	err := s.collection.FindOneAndUpdate(ctx, filter, update,
		options.FindOneAndUpdate().SetReturnDocument(options.After)).Decode(&property)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return models.Property{}, missOrConflict(ctx, s.collection, id)
	}
	return property, err
}

// missOrConflict tells a missing document apart from a failed state guard.
func missOrConflict(ctx context.Context, collection *mongo.Collection, id primitive.ObjectID) error {
	count, err := collection.CountDocuments(ctx, bson.M{"_id": id})
	if err != nil {
		return err
	}
	if count == 0 {
		return ErrNotFound
	}
	return ErrConflict
}
