// Package store persists marketplace records. Status transitions are written
// as compare-and-set updates so concurrent requests cannot both win.
package store

import (
	"context"
	"errors"

	"EstateMarket/models"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

var (
	ErrNotFound  = errors.New("record not found")
	ErrDuplicate = errors.New("duplicate record")
	// ErrConflict means the record exists but no longer matches the
	// expected state.
	ErrConflict = errors.New("record state changed")
)

type UserUpdate struct {
	Name  *string
	Image *string
	Role  *models.Role
	Fraud *bool
}

type UserStore interface {
	Create(ctx context.Context, user *models.User) error
	FindByID(ctx context.Context, id primitive.ObjectID) (models.User, error)
	FindByEmail(ctx context.Context, email string) (models.User, error)
	List(ctx context.Context) ([]models.User, error)
	Update(ctx context.Context, id primitive.ObjectID, update UserUpdate) (models.User, error)
	Delete(ctx context.Context, id primitive.ObjectID) error
}

type PropertyQuery struct {
	Status     models.PropertyStatus
	AgentEmail string
	Advertised *bool
	Location   string
	Sort       string
	Skip       int
	Limit      int
}

type PropertyStore interface {
	Create(ctx context.Context, property *models.Property) error
	FindByID(ctx context.Context, id primitive.ObjectID) (models.Property, error)
	List(ctx context.Context, q PropertyQuery) ([]models.Property, error)
	UpdateDetails(ctx context.Context, id primitive.ObjectID, req models.PropertyRequest) (models.Property, error)
	TransitionStatus(ctx context.Context, id primitive.ObjectID, from, to models.PropertyStatus) (models.Property, error)
	// SetAdvertised only matches verified, unsold listings.
	SetAdvertised(ctx context.Context, id primitive.ObjectID, advertised bool) (models.Property, error)
	// ClaimOffer records offerID as the listing's accepted offer. It only
	// matches unsold listings with no claim or the same claim, so at most one
	// offer per listing can be accepted.
	ClaimOffer(ctx context.Context, id, offerID primitive.ObjectID) (models.Property, error)
	// ReleaseOffer drops the claim if it is still held by offerID.
	ReleaseOffer(ctx context.Context, id, offerID primitive.ObjectID) error
	// MarkSold is idempotent for the same transaction id.
	MarkSold(ctx context.Context, id primitive.ObjectID, sale models.Sale) (models.Property, error)
	Delete(ctx context.Context, id primitive.ObjectID) error
}

type WishlistStore interface {
	Create(ctx context.Context, entry *models.WishlistEntry) error
	FindByID(ctx context.Context, id primitive.ObjectID) (models.WishlistEntry, error)
	ListByUser(ctx context.Context, email string) ([]models.WishlistEntry, error)
	Delete(ctx context.Context, id primitive.ObjectID) error
	DeleteByUserAndProperty(ctx context.Context, email string, propertyID primitive.ObjectID) (int64, error)
	DeleteByProperty(ctx context.Context, propertyID primitive.ObjectID) (int64, error)
	DeleteByUser(ctx context.Context, email string) (int64, error)
}

type OfferQuery struct {
	BuyerEmail string
	AgentEmail string
	PropertyID primitive.ObjectID
	Statuses   []models.OfferStatus
}

type OfferStore interface {
	// Create returns ErrDuplicate when the buyer already holds an active
	// offer on the listing.
	Create(ctx context.Context, offer *models.Offer) error
	FindByID(ctx context.Context, id primitive.ObjectID) (models.Offer, error)
	List(ctx context.Context, q OfferQuery) ([]models.Offer, error)
	ChangeStatus(ctx context.Context, id primitive.ObjectID, change models.StatusChange) (models.Offer, error)
	// SetPaymentIntent only matches accepted offers.
	SetPaymentIntent(ctx context.Context, id primitive.ObjectID, intentID string) error
	// RejectMatching moves every offer matching q (Statuses is required) to
	// rejected, skipping except.
	RejectMatching(ctx context.Context, q OfferQuery, except primitive.ObjectID) (int64, error)
}

type ReviewQuery struct {
	PropertyID    primitive.ObjectID
	ReviewerEmail string
	Limit         int
}

type ReviewStore interface {
	Create(ctx context.Context, review *models.Review) error
	FindByID(ctx context.Context, id primitive.ObjectID) (models.Review, error)
	List(ctx context.Context, q ReviewQuery) ([]models.Review, error)
	Delete(ctx context.Context, id primitive.ObjectID) error
	DeleteByReviewer(ctx context.Context, email string) (int64, error)
}
