package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type WishlistEntry struct {
	ID         primitive.ObjectID `json:"_id" bson:"_id,omitempty"`
	PropertyID primitive.ObjectID `json:"propertyId" bson:"propertyId"`
	Title      string             `json:"title" bson:"title"`
	ImageURL   string             `json:"imageUrl" bson:"imageUrl"`
	Location   string             `json:"location" bson:"location"`
	Price      PriceRange         `json:"price" bson:"price"`
	Status     PropertyStatus     `json:"status" bson:"status"`
	AgentName  string             `json:"agentName" bson:"agentName"`
	AgentEmail string             `json:"agentEmail" bson:"agentEmail"`
	AgentImage string             `json:"agentImage,omitempty" bson:"agentImage"`
	UserEmail  string             `json:"userEmail" bson:"userEmail"`
	CreatedAt  time.Time          `json:"createdAt" bson:"createdAt"`
}

func NewWishlistEntry(p Property, userEmail string, now time.Time) WishlistEntry {
	return WishlistEntry{
		PropertyID: p.ID,
		Title:      p.Title,
		ImageURL:   p.ImageURL,
		Location:   p.Location,
		Price:      p.Price,
		Status:     p.Status,
		AgentName:  p.AgentName,
		AgentEmail: p.AgentEmail,
		AgentImage: p.AgentImage,
		UserEmail:  userEmail,
		CreatedAt:  now,
	}
}

type WishlistRequest struct {
	PropertyID string `json:"propertyId" validate:"required"`
}
