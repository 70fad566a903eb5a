// Package payment talks to the card processor that charges buyers for
// accepted offers.
package payment

import (
	"context"
	"errors"
)

var ErrIntentNotFound = errors.New("payment intent not found")

const StatusSucceeded = "succeeded"

// Metadata keys written on every intent so confirmation can tie a charge
// back to its offer.
const (
	MetaOfferID    = "offer_id"
	MetaPropertyID = "property_id"
	MetaBuyerEmail = "buyer_email"
)

type IntentParams struct {
	AmountInCents  int64
	Currency       string
	OfferID        string
	PropertyID     string
	BuyerEmail     string
	IdempotencyKey string
}

type Intent struct {
	ID            string
	ClientSecret  string
	Status        string
	AmountInCents int64
	Currency      string
	Metadata      map[string]string
}

func (i Intent) Succeeded() bool {
	return i.Status == StatusSucceeded
}

type Gateway interface {
	CreateIntent(ctx context.Context, params IntentParams) (Intent, error)
	GetIntent(ctx context.Context, id string) (Intent, error)
}
