package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type PropertyStatus string

const (
	PropertyPending  PropertyStatus = "pending"
	PropertyVerified PropertyStatus = "verified"
	PropertyRejected PropertyStatus = "rejected"
)

// CanTransitionTo encodes the verification gate: only pending listings move,
// and both outcomes are terminal.
func (s PropertyStatus) CanTransitionTo(next PropertyStatus) bool {
	return s == PropertyPending && (next == PropertyVerified || next == PropertyRejected)
}

type PriceRange struct {
	Min float64 `json:"min" bson:"min" validate:"gt=0"`
	Max float64 `json:"max" bson:"max" validate:"gtefield=Min"`
}

func (p PriceRange) Contains(amount float64) bool {
	return amount >= p.Min && amount <= p.Max
}

type Property struct {
	ID              primitive.ObjectID  `json:"_id" bson:"_id,omitempty"`
	Title           string              `json:"title" bson:"title"`
	Location        string              `json:"location" bson:"location"`
	ImageURL        string              `json:"imageUrl" bson:"imageUrl"`
	Price           PriceRange          `json:"price" bson:"price"`
	AgentName       string              `json:"agentName" bson:"agentName"`
	AgentEmail      string              `json:"agentEmail" bson:"agentEmail"`
	AgentImage      string              `json:"agentImage,omitempty" bson:"agentImage"`
	Status          PropertyStatus      `json:"status" bson:"status"`
	Verified        bool                `json:"verified" bson:"verified"`
	IsAdvertised    bool                `json:"isAdvertised" bson:"isAdvertised"`
	Sold            bool                `json:"sold" bson:"sold"`
	// AcceptedOfferID is claimed atomically when an agent accepts an offer.
	AcceptedOfferID *primitive.ObjectID `json:"acceptedOfferId,omitempty" bson:"acceptedOfferId,omitempty"`
	BuyerEmail      string              `json:"buyerEmail,omitempty" bson:"buyerEmail,omitempty"`
	SoldPrice       float64             `json:"soldPrice,omitempty" bson:"soldPrice,omitempty"`
	TransactionID   string              `json:"transactionId,omitempty" bson:"transactionId,omitempty"`
	SoldAt          *time.Time          `json:"soldAt,omitempty" bson:"soldAt,omitempty"`
	CreatedAt       time.Time           `json:"createdAt" bson:"createdAt"`
	UpdatedAt       time.Time           `json:"updatedAt" bson:"updatedAt"`
}

// Offerable reports whether buyers may wishlist or bid on the listing.
func (p Property) Offerable() bool {
	return p.Status == PropertyVerified && !p.Sold
}

type PropertyRequest struct {
	Title    string     `json:"title" validate:"required,max=200"`
	Location string     `json:"location" validate:"required,max=200"`
	ImageURL string     `json:"imageUrl" validate:"required,url"`
	Price    PriceRange `json:"price"`
}

// PropertyFilter drives the public listing query.
type PropertyFilter struct {
	Location string
	Sort     string
	Page     int
	Limit    int
}

const (
	SortPriceAsc  = "asc"
	SortPriceDesc = "desc"
)

// Sale carries what the payment step writes onto a property.
type Sale struct {
	BuyerEmail    string
	SoldPrice     float64
	TransactionID string
	SoldAt        time.Time
}
