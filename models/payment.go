package models

type PaymentIntentRequest struct {
	OfferID       string `json:"offerId" validate:"required"`
	PropertyID    string `json:"propertyId"`
	AmountInCents int64  `json:"amountInCents" validate:"gte=0"`
}

type PaymentIntentResponse struct {
	ClientSecret    string `json:"clientSecret"`
	PaymentIntentID string `json:"paymentIntentId"`
	AmountInCents   int64  `json:"amountInCents"`
}

type PayRequest struct {
	OfferID       string `json:"offerId" validate:"required"`
	TransactionID string `json:"transactionId" validate:"required"`
}

type PaymentResult struct {
	Offer    Offer    `json:"offer"`
	Property Property `json:"property"`
	Replayed bool     `json:"replayed"`
}
