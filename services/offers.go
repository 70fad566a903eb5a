package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"EstateMarket/models"
	"EstateMarket/store"
	"EstateMarket/utils"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// OfferRangeError carries the bounds an offer amount fell outside of.
type OfferRangeError struct {
	Min float64
	Max float64
}

func (e *OfferRangeError) Error() string {
	return fmt.Sprintf("Offer must be between %s - %s", formatAmount(e.Min), formatAmount(e.Max))
}

func (e *OfferRangeError) Is(target error) bool {
	return target == ErrOfferOutOfRange
}

func formatAmount(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

type OfferService struct {
	offers     store.OfferStore
	properties store.PropertyStore
	wishlist   store.WishlistStore
	users      store.UserStore
	logger     *slog.Logger
	now        func() time.Time
}

func NewOfferService(
	offers store.OfferStore,
	properties store.PropertyStore,
	wishlist store.WishlistStore,
	users store.UserStore,
	logger *slog.Logger,
) *OfferService {
	return &OfferService{
		offers:     offers,
		properties: properties,
		wishlist:   wishlist,
		users:      users,
		logger:     resolveLogger(logger),
		now:        time.Now,
	}
}

// Create records a pending offer from the calling buyer. The listing is
// re-read so the price range check never trusts client data.
func (s *OfferService) Create(ctx context.Context, sess Session, req models.OfferRequest) (models.Offer, error) {
	if err := sess.require(models.RoleUser); err != nil {
		return models.Offer{}, err
	}
	propertyID, ok := utils.ParseObjectID(req.PropertyID)
	if !ok {
		return models.Offer{}, fmt.Errorf("%w: invalid property id", ErrInvalidInput)
	}
	buyingDate, err := time.Parse(time.DateOnly, req.BuyingDate)
	if err != nil {
		return models.Offer{}, fmt.Errorf("%w: buying date must be YYYY-MM-DD", ErrInvalidInput)
	}

	buyer, err := s.users.FindByEmail(ctx, sess.Email)
	if err != nil {
		return models.Offer{}, translate(err, ErrUserNotFound)
	}
	if buyer.Fraud {
		return models.Offer{}, ErrFraudulentUser
	}
	property, err := s.properties.FindByID(ctx, propertyID)
	if err != nil {
		return models.Offer{}, translate(err, ErrPropertyNotFound)
	}
	if !property.Offerable() {
		return models.Offer{}, ErrPropertyUnavailable
	}
	if !property.Price.Contains(req.OfferAmount) {
		return models.Offer{}, &OfferRangeError{Min: property.Price.Min, Max: property.Price.Max}
	}

	if property.AcceptedOfferID != nil {
		return models.Offer{}, ErrPropertyCommitted
	}
	existing, err := s.offers.List(ctx, store.OfferQuery{PropertyID: propertyID})
	if err != nil {
		return models.Offer{}, fmt.Errorf("list active offers: %w", err)
	}
	for _, other := range existing {
		if !other.Status.Active() {
			continue
		}
		if other.Status == models.OfferAccepted {
			return models.Offer{}, ErrPropertyCommitted
		}
		if other.BuyerEmail == sess.Email {
			return models.Offer{}, ErrDuplicateOffer
		}
	}

	now := s.now().UTC()
	offer := models.Offer{
		PropertyID:    property.ID,
		Title:         property.Title,
		Location:      property.Location,
		PropertyImage: property.ImageURL,
		AgentName:     property.AgentName,
		AgentEmail:    property.AgentEmail,
		BuyerName:     buyer.Name,
		BuyerEmail:    buyer.Email,
		BuyerImage:    buyer.Image,
		OfferAmount:   req.OfferAmount,
		MinPrice:      property.Price.Min,
		MaxPrice:      property.Price.Max,
		BuyingDate:    buyingDate,
		Status:        models.OfferPending,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	if wishlistID, ok := utils.ParseObjectID(req.WishlistID); ok {
		offer.WishlistID = &wishlistID
	}
	if err := s.offers.Create(ctx, &offer); err != nil {
		if errors.Is(err, store.ErrDuplicate) {
			return models.Offer{}, ErrDuplicateOffer
		}
		return models.Offer{}, fmt.Errorf("create offer: %w", err)
	}
	s.consumeWishlist(ctx, sess, offer)

	s.logger.Info("offer submitted",
		"event", "offer_submitted",
		"module", "services/offers",
		"offer_id", offer.ID.Hex(),
		"property_id", property.ID.Hex(),
		"buyer_email", offer.BuyerEmail,
		"amount", offer.OfferAmount,
	)
	return offer, nil
}

// consumeWishlist drops the entry the offer was made from. A failure here
// leaves a stale entry behind, which is logged rather than failing the offer.
func (s *OfferService) consumeWishlist(ctx context.Context, sess Session, offer models.Offer) {
	if offer.WishlistID != nil {
		entry, err := s.wishlist.FindByID(ctx, *offer.WishlistID)
		if err == nil && entry.UserEmail == sess.Email && entry.PropertyID == offer.PropertyID {
			if err := s.wishlist.Delete(ctx, entry.ID); err == nil || errors.Is(err, store.ErrNotFound) {
				return
			}
		}
	}
	if _, err := s.wishlist.DeleteByUserAndProperty(ctx, sess.Email, offer.PropertyID); err != nil {
		s.logger.Warn("wishlist cleanup failed",
			"event", "wishlist_cleanup_failed",
			"module", "services/offers",
			"offer_id", offer.ID.Hex(),
			"error", err.Error(),
		)
	}
}

func (s *OfferService) ListForBuyer(ctx context.Context, sess Session, email string) ([]models.Offer, error) {
	if !sess.Authenticated() {
		return nil, ErrUnauthenticated
	}
	email = utils.NormalizeEmail(email)
	if email == "" {
		email = sess.Email
	}
	if !sess.OwnsOrAdmin(email) {
		return nil, ErrForbidden
	}
	return s.offers.List(ctx, store.OfferQuery{BuyerEmail: email})
}

func (s *OfferService) ListForAgent(ctx context.Context, sess Session, email string) ([]models.Offer, error) {
	email, err := s.agentScope(sess, email)
	if err != nil {
		return nil, err
	}
	return s.offers.List(ctx, store.OfferQuery{AgentEmail: email})
}

func (s *OfferService) ListSold(ctx context.Context, sess Session, email string) ([]models.Offer, error) {
	email, err := s.agentScope(sess, email)
	if err != nil {
		return nil, err
	}
	return s.offers.List(ctx, store.OfferQuery{
		AgentEmail: email,
		Statuses:   []models.OfferStatus{models.OfferBought},
	})
}

func (s *OfferService) agentScope(sess Session, email string) (string, error) {
	if err := sess.require(models.RoleAgent, models.RoleAdmin); err != nil {
		return "", err
	}
	email = utils.NormalizeEmail(email)
	if email == "" {
		email = sess.Email
	}
	if !sess.OwnsOrAdmin(email) {
		return "", ErrForbidden
	}
	return email, nil
}

// Accept moves a pending offer to accepted and rejects every other pending
// offer on the same listing. The listing claim is taken first, so concurrent
// accepts on one listing leave a single winner.
func (s *OfferService) Accept(ctx context.Context, sess Session, id primitive.ObjectID, req models.AcceptOfferRequest) (models.Offer, error) {
	offer, err := s.decidable(ctx, sess, id, models.OfferAccepted)
	if err != nil {
		return models.Offer{}, err
	}
	if req.PropertyID != "" {
		propertyID, ok := utils.ParseObjectID(req.PropertyID)
		if !ok || propertyID != offer.PropertyID {
			return models.Offer{}, fmt.Errorf("%w: offer does not belong to this property", ErrInvalidInput)
		}
	}
	property, err := s.properties.FindByID(ctx, offer.PropertyID)
	if err != nil {
		return models.Offer{}, translate(err, ErrPropertyNotFound)
	}
	if property.Sold {
		return models.Offer{}, ErrPropertySold
	}

	if _, err := s.properties.ClaimOffer(ctx, offer.PropertyID, id); err != nil {
		if errors.Is(err, store.ErrConflict) {
			return models.Offer{}, ErrPropertyCommitted
		}
		return models.Offer{}, translate(err, ErrPropertyNotFound)
	}
	accepted, err := s.change(ctx, id, models.StatusChange{From: models.OfferPending, To: models.OfferAccepted})
	if err != nil {
		s.releaseClaim(ctx, offer)
		return models.Offer{}, err
	}
	rejected, err := s.offers.RejectMatching(ctx, store.OfferQuery{
		PropertyID: offer.PropertyID,
		Statuses:   []models.OfferStatus{models.OfferPending},
	}, id)
	if err != nil {
		return models.Offer{}, fmt.Errorf("reject competing offers: %w", err)
	}
	s.logger.Info("offer accepted",
		"event", "offer_accepted",
		"module", "services/offers",
		"offer_id", id.Hex(),
		"property_id", offer.PropertyID.Hex(),
		"competing_rejected", rejected,
	)
	return accepted, nil
}

// releaseClaim gives the listing back after a failed accept. A concurrent
// accept of the same offer may have won, in which case the claim stays.
func (s *OfferService) releaseClaim(ctx context.Context, offer models.Offer) {
	current, err := s.offers.FindByID(ctx, offer.ID)
	if err == nil && current.Status == models.OfferAccepted {
		return
	}
	if err := s.properties.ReleaseOffer(ctx, offer.PropertyID, offer.ID); err != nil {
		s.logger.Warn("listing claim release failed",
			"event", "offer_claim_release_failed",
			"module", "services/offers",
			"offer_id", offer.ID.Hex(),
			"property_id", offer.PropertyID.Hex(),
			"error", err.Error(),
		)
	}
}

func (s *OfferService) Reject(ctx context.Context, sess Session, id primitive.ObjectID) (models.Offer, error) {
	if _, err := s.decidable(ctx, sess, id, models.OfferRejected); err != nil {
		return models.Offer{}, err
	}
	rejected, err := s.change(ctx, id, models.StatusChange{From: models.OfferPending, To: models.OfferRejected})
	if err != nil {
		return models.Offer{}, err
	}
	s.logger.Info("offer rejected",
		"event", "offer_rejected",
		"module", "services/offers",
		"offer_id", id.Hex(),
	)
	return rejected, nil
}

func (s *OfferService) decidable(ctx context.Context, sess Session, id primitive.ObjectID, to models.OfferStatus) (models.Offer, error) {
	if err := sess.require(models.RoleAgent); err != nil {
		return models.Offer{}, err
	}
	offer, err := s.offers.FindByID(ctx, id)
	if err != nil {
		return models.Offer{}, translate(err, ErrOfferNotFound)
	}
	if offer.AgentEmail != sess.Email {
		return models.Offer{}, ErrForbidden
	}
	if !offer.Status.CanTransitionTo(to) {
		return models.Offer{}, fmt.Errorf("%w: offer is %s", ErrInvalidTransition, offer.Status)
	}
	return offer, nil
}

func (s *OfferService) change(ctx context.Context, id primitive.ObjectID, change models.StatusChange) (models.Offer, error) {
	offer, err := s.offers.ChangeStatus(ctx, id, change)
	switch {
	case errors.Is(err, store.ErrConflict):
		return models.Offer{}, fmt.Errorf("%w: offer is no longer %s", ErrInvalidTransition, change.From)
	case err != nil:
		return models.Offer{}, translate(err, ErrOfferNotFound)
	}
	return offer, nil
}
