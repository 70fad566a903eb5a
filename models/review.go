package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type Review struct {
	ID            primitive.ObjectID `json:"_id" bson:"_id,omitempty"`
	PropertyID    primitive.ObjectID `json:"propertyId" bson:"propertyId"`
	PropertyTitle string             `json:"propertyTitle" bson:"propertyTitle"`
	AgentName     string             `json:"agentName" bson:"agentName"`
	AgentEmail    string             `json:"agentEmail" bson:"agentEmail"`
	Reviewer      string             `json:"reviewer" bson:"reviewer"`
	ReviewerEmail string             `json:"email" bson:"email"`
	ReviewerImage string             `json:"reviewerImage,omitempty" bson:"reviewerImage"`
	Comment       string             `json:"comment" bson:"comment"`
	Rating        int                `json:"rating" bson:"rating"`
	Date          time.Time          `json:"date" bson:"date"`
}

type ReviewRequest struct {
	PropertyID string `json:"propertyId" validate:"required"`
	Comment    string `json:"comment" validate:"required,max=2000"`
	Rating     int    `json:"rating" validate:"omitempty,min=1,max=5"`
}

const DefaultReviewRating = 5
