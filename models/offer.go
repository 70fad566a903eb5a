package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type OfferStatus string

const (
	OfferPending  OfferStatus = "pending"
	OfferAccepted OfferStatus = "accepted"
	OfferRejected OfferStatus = "rejected"
	OfferBought   OfferStatus = "bought"
)

var offerTransitions = map[OfferStatus][]OfferStatus{
	OfferPending:  {OfferAccepted, OfferRejected},
	OfferAccepted: {OfferBought},
}

func (s OfferStatus) CanTransitionTo(next OfferStatus) bool {
	for _, allowed := range offerTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// Active offers still hold a claim on the property.
func (s OfferStatus) Active() bool {
	return s == OfferPending || s == OfferAccepted
}

type Offer struct {
	ID              primitive.ObjectID  `json:"_id" bson:"_id,omitempty"`
	PropertyID      primitive.ObjectID  `json:"propertyId" bson:"propertyId"`
	WishlistID      *primitive.ObjectID `json:"wishlistId,omitempty" bson:"wishlistId,omitempty"`
	Title           string              `json:"title" bson:"title"`
	Location        string              `json:"location" bson:"location"`
	PropertyImage   string              `json:"PropertyImage" bson:"propertyImage"`
	AgentName       string              `json:"agentName" bson:"agentName"`
	AgentEmail      string              `json:"agentEmail" bson:"agentEmail"`
	BuyerName       string              `json:"buyerName" bson:"buyerName"`
	BuyerEmail      string              `json:"buyerEmail" bson:"buyerEmail"`
	BuyerImage      string              `json:"buyerImage,omitempty" bson:"buyerImage"`
	OfferAmount     float64             `json:"offerAmount" bson:"offerAmount"`
	MinPrice        float64             `json:"minPrice" bson:"minPrice"`
	MaxPrice        float64             `json:"maxPrice" bson:"maxPrice"`
	BuyingDate      time.Time           `json:"buyingDate" bson:"buyingDate"`
	Status          OfferStatus         `json:"status" bson:"status"`
	PaymentIntentID string              `json:"paymentIntentId,omitempty" bson:"paymentIntentId,omitempty"`
	TransactionID   string              `json:"transactionId,omitempty" bson:"transactionId,omitempty"`
	PaidAt          *time.Time          `json:"paidAt,omitempty" bson:"paidAt,omitempty"`
	CreatedAt       time.Time           `json:"createdAt" bson:"createdAt"`
	UpdatedAt       time.Time           `json:"updatedAt" bson:"updatedAt"`
}

// AmountInCents is what the card processor is asked to charge.
func (o Offer) AmountInCents() int64 {
	return int64(o.OfferAmount*100 + 0.5)
}

type OfferRequest struct {
	PropertyID  string  `json:"propertyId" validate:"required"`
	WishlistID  string  `json:"wishlistId"`
	OfferAmount float64 `json:"offerAmount" validate:"gt=0"`
	BuyingDate  string  `json:"buyingDate" validate:"required,datetime=2006-01-02"`
}

// AcceptOfferRequest is the optional body of an accept call. When set,
// PropertyID must match the offer's listing.
type AcceptOfferRequest struct {
	PropertyID string `json:"propertyId"`
}

// StatusChange is the payload for a compare-and-set on an offer.
type StatusChange struct {
	From          OfferStatus
	To            OfferStatus
	TransactionID string
	PaidAt        *time.Time
}
