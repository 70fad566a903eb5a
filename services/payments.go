package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"EstateMarket/models"
	"EstateMarket/payment"
	"EstateMarket/store"
	"EstateMarket/utils"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type PaymentService struct {
	gateway    payment.Gateway
	currency   string
	offers     store.OfferStore
	properties store.PropertyStore
	cache      *utils.Cache
	logger     *slog.Logger
	now        func() time.Time
}

func NewPaymentService(
	gateway payment.Gateway,
	currency string,
	offers store.OfferStore,
	properties store.PropertyStore,
	cache *utils.Cache,
	logger *slog.Logger,
) *PaymentService {
	if currency == "" {
		currency = "usd"
	}
	return &PaymentService{
		gateway:    gateway,
		currency:   strings.ToLower(currency),
		offers:     offers,
		properties: properties,
		cache:      cache,
		logger:     resolveLogger(logger),
		now:        time.Now,
	}
}

// CreateIntent opens a card payment for the caller's accepted offer. The
// charged amount always comes from the stored offer.
func (s *PaymentService) CreateIntent(ctx context.Context, sess Session, req models.PaymentIntentRequest) (models.PaymentIntentResponse, error) {
	if err := sess.require(models.RoleUser); err != nil {
		return models.PaymentIntentResponse{}, err
	}
	offer, err := s.buyerOffer(ctx, sess, req.OfferID)
	if err != nil {
		return models.PaymentIntentResponse{}, err
	}
	if req.PropertyID != "" && req.PropertyID != offer.PropertyID.Hex() {
		return models.PaymentIntentResponse{}, fmt.Errorf("%w: offer does not belong to this property", ErrInvalidInput)
	}
	if offer.Status != models.OfferAccepted {
		return models.PaymentIntentResponse{}, fmt.Errorf("%w: offer is %s", ErrInvalidTransition, offer.Status)
	}
	amount := offer.AmountInCents()
	if req.AmountInCents != 0 && req.AmountInCents != amount {
		return models.PaymentIntentResponse{}, ErrAmountMismatch
	}

	intent, err := s.gateway.CreateIntent(ctx, payment.IntentParams{
		AmountInCents:  amount,
		Currency:       s.currency,
		OfferID:        offer.ID.Hex(),
		PropertyID:     offer.PropertyID.Hex(),
		BuyerEmail:     offer.BuyerEmail,
		IdempotencyKey: fmt.Sprintf("offer-%s-%d", offer.ID.Hex(), amount),
	})
	if err != nil {
		return models.PaymentIntentResponse{}, fmt.Errorf("create payment intent: %w", err)
	}
	if err := s.offers.SetPaymentIntent(ctx, offer.ID, intent.ID); err != nil {
		if errors.Is(err, store.ErrConflict) {
			return models.PaymentIntentResponse{}, fmt.Errorf("%w: offer is no longer accepted", ErrInvalidTransition)
		}
		return models.PaymentIntentResponse{}, translate(err, ErrOfferNotFound)
	}

	s.logger.Info("payment intent created",
		"event", "payment_intent_created",
		"module", "services/payments",
		"offer_id", offer.ID.Hex(),
		"intent_id", intent.ID,
		"amount_cents", amount,
	)
	return models.PaymentIntentResponse{
		ClientSecret:    intent.ClientSecret,
		PaymentIntentID: intent.ID,
		AmountInCents:   amount,
	}, nil
}

// Confirm finalizes a purchase once the processor reports the intent as
// succeeded. Repeating the call with the same transaction id returns the
// stored result and re-applies the sale marker on the listing.
func (s *PaymentService) Confirm(ctx context.Context, sess Session, propertyID primitive.ObjectID, req models.PayRequest) (models.PaymentResult, error) {
	if err := sess.require(models.RoleUser); err != nil {
		return models.PaymentResult{}, err
	}
	offer, err := s.buyerOffer(ctx, sess, req.OfferID)
	if err != nil {
		return models.PaymentResult{}, err
	}
	if offer.PropertyID != propertyID {
		return models.PaymentResult{}, fmt.Errorf("%w: offer does not belong to this property", ErrInvalidInput)
	}

	switch offer.Status {
	case models.OfferBought:
		return s.replay(ctx, offer, req.TransactionID)
	case models.OfferAccepted:
	default:
		return models.PaymentResult{}, fmt.Errorf("%w: offer is %s", ErrInvalidTransition, offer.Status)
	}

	if err := s.verifyIntent(ctx, offer, req.TransactionID); err != nil {
		return models.PaymentResult{}, err
	}

	paidAt := s.now().UTC()
	bought, err := s.offers.ChangeStatus(ctx, offer.ID, models.StatusChange{
		From:          models.OfferAccepted,
		To:            models.OfferBought,
		TransactionID: req.TransactionID,
		PaidAt:        &paidAt,
	})
	if errors.Is(err, store.ErrConflict) {
		// A concurrent confirmation won the race.
		current, findErr := s.offers.FindByID(ctx, offer.ID)
		if findErr != nil {
			return models.PaymentResult{}, translate(findErr, ErrOfferNotFound)
		}
		if current.Status == models.OfferBought {
			return s.replay(ctx, current, req.TransactionID)
		}
		return models.PaymentResult{}, fmt.Errorf("%w: offer is %s", ErrInvalidTransition, current.Status)
	}
	if err != nil {
		return models.PaymentResult{}, translate(err, ErrOfferNotFound)
	}

	property, err := s.markSold(ctx, bought)
	if err != nil {
		return models.PaymentResult{}, err
	}
	s.logger.Info("payment confirmed",
		"event", "payment_confirmed",
		"module", "services/payments",
		"offer_id", bought.ID.Hex(),
		"property_id", property.ID.Hex(),
		"transaction_id", req.TransactionID,
	)
	return models.PaymentResult{Offer: bought, Property: property}, nil
}

func (s *PaymentService) replay(ctx context.Context, offer models.Offer, transactionID string) (models.PaymentResult, error) {
	if offer.TransactionID != transactionID {
		return models.PaymentResult{}, ErrTransactionConflict
	}
	property, err := s.markSold(ctx, offer)
	if err != nil {
		return models.PaymentResult{}, err
	}
	s.logger.Info("payment confirmation replayed",
		"event", "payment_replayed",
		"module", "services/payments",
		"offer_id", offer.ID.Hex(),
		"transaction_id", transactionID,
	)
	return models.PaymentResult{Offer: offer, Property: property, Replayed: true}, nil
}

func (s *PaymentService) verifyIntent(ctx context.Context, offer models.Offer, transactionID string) error {
	intent, err := s.gateway.GetIntent(ctx, transactionID)
	if errors.Is(err, payment.ErrIntentNotFound) {
		return fmt.Errorf("%w: unknown transaction", ErrPaymentIncomplete)
	}
	if err != nil {
		return fmt.Errorf("retrieve payment intent: %w", err)
	}
	switch {
	case !intent.Succeeded():
		return fmt.Errorf("%w: intent status is %s", ErrPaymentIncomplete, intent.Status)
	case intent.Metadata[payment.MetaOfferID] != offer.ID.Hex():
		return fmt.Errorf("%w: transaction belongs to another offer", ErrPaymentIncomplete)
	case intent.AmountInCents != offer.AmountInCents():
		return fmt.Errorf("%w: charged amount does not match the offer", ErrPaymentIncomplete)
	case !strings.EqualFold(intent.Currency, s.currency):
		return fmt.Errorf("%w: charged currency %s, expected %s", ErrPaymentIncomplete, intent.Currency, s.currency)
	}
	return nil
}

func (s *PaymentService) markSold(ctx context.Context, offer models.Offer) (models.Property, error) {
	soldAt := s.now().UTC()
	if offer.PaidAt != nil {
		soldAt = *offer.PaidAt
	}
	property, err := s.properties.MarkSold(ctx, offer.PropertyID, models.Sale{
		BuyerEmail:    offer.BuyerEmail,
		SoldPrice:     offer.OfferAmount,
		TransactionID: offer.TransactionID,
		SoldAt:        soldAt,
	})
	if err != nil {
		s.logger.Error("marking property sold failed",
			"event", "mark_sold_failed",
			"module", "services/payments",
			"offer_id", offer.ID.Hex(),
			"property_id", offer.PropertyID.Hex(),
			"error", err.Error(),
		)
		if errors.Is(err, store.ErrConflict) {
			return models.Property{}, ErrTransactionConflict
		}
		return models.Property{}, translate(err, ErrPropertyNotFound)
	}
	if err := s.cache.InvalidatePrefix(ctx, listingCachePrefix); err != nil {
		s.logger.Warn("listing cache invalidation failed", "event", "cache_invalidate_failed", "module", "services/payments", "error", err.Error())
	}
	return property, nil
}

func (s *PaymentService) buyerOffer(ctx context.Context, sess Session, rawID string) (models.Offer, error) {
	id, ok := utils.ParseObjectID(rawID)
	if !ok {
		return models.Offer{}, fmt.Errorf("%w: invalid offer id", ErrInvalidInput)
	}
	offer, err := s.offers.FindByID(ctx, id)
	if err != nil {
		return models.Offer{}, translate(err, ErrOfferNotFound)
	}
	if offer.BuyerEmail != sess.Email {
		return models.Offer{}, ErrForbidden
	}
	return offer, nil
}
