package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"EstateMarket/models"
	"EstateMarket/store"
	"EstateMarket/utils"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

const (
	listingCachePrefix = "properties"
	defaultPageLimit   = 20
	maxPageLimit       = 100
)

type PropertyService struct {
	properties store.PropertyStore
	wishlist   store.WishlistStore
	offers     store.OfferStore
	users      store.UserStore
	cache      *utils.Cache
	logger     *slog.Logger
	now        func() time.Time
}

func NewPropertyService(
	properties store.PropertyStore,
	wishlist store.WishlistStore,
	offers store.OfferStore,
	users store.UserStore,
	cache *utils.Cache,
	logger *slog.Logger,
) *PropertyService {
	return &PropertyService{
		properties: properties,
		wishlist:   wishlist,
		offers:     offers,
		users:      users,
		cache:      cache,
		logger:     resolveLogger(logger),
		now:        time.Now,
	}
}

// Add lists a new property for the calling agent. It starts pending and stays
// out of public listings until an admin verifies it.
func (s *PropertyService) Add(ctx context.Context, sess Session, req models.PropertyRequest) (models.Property, error) {
	if err := sess.require(models.RoleAgent); err != nil {
		return models.Property{}, err
	}
	if req.Price.Min <= 0 || req.Price.Max < req.Price.Min {
		return models.Property{}, fmt.Errorf("%w: price range must satisfy 0 < min <= max", ErrInvalidInput)
	}
	agent, err := s.users.FindByEmail(ctx, sess.Email)
	if err != nil {
		return models.Property{}, translate(err, ErrUserNotFound)
	}
	if agent.Fraud {
		return models.Property{}, ErrFraudulentUser
	}

	now := s.now().UTC()
	property := models.Property{
		Title:      strings.TrimSpace(req.Title),
		Location:   strings.TrimSpace(req.Location),
		ImageURL:   strings.TrimSpace(req.ImageURL),
		Price:      req.Price,
		AgentName:  agent.Name,
		AgentEmail: agent.Email,
		AgentImage: agent.Image,
		Status:     models.PropertyPending,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	if err := s.properties.Create(ctx, &property); err != nil {
		return models.Property{}, fmt.Errorf("create property: %w", err)
	}
	s.logger.Info("property added",
		"event", "property_added",
		"module", "services/properties",
		"property_id", property.ID.Hex(),
		"agent_email", property.AgentEmail,
	)
	return property, nil
}

// Get returns a property for the detail page. Listings that are not verified
// are only visible to admins and the owning agent.
func (s *PropertyService) Get(ctx context.Context, sess Session, id primitive.ObjectID) (models.Property, error) {
	property, err := s.find(ctx, id)
	if err != nil {
		return models.Property{}, err
	}
	if property.Status != models.PropertyVerified && !sess.OwnsOrAdmin(property.AgentEmail) {
		return models.Property{}, ErrPropertyNotFound
	}
	return property, nil
}

func (s *PropertyService) GetForEdit(ctx context.Context, sess Session, id primitive.ObjectID) (models.Property, error) {
	if err := sess.require(models.RoleAgent, models.RoleAdmin); err != nil {
		return models.Property{}, err
	}
	property, err := s.find(ctx, id)
	if err != nil {
		return models.Property{}, err
	}
	if !sess.OwnsOrAdmin(property.AgentEmail) {
		return models.Property{}, ErrForbidden
	}
	return property, nil
}

func (s *PropertyService) ListPublic(ctx context.Context, filter models.PropertyFilter) ([]models.Property, error) {
	filter = normalizeFilter(filter)
	key := utils.GenerateQueryCacheKey(listingCachePrefix, map[string]string{
		"scope":    "public",
		"location": strings.ToLower(filter.Location),
		"sort":     filter.Sort,
		"page":     strconv.Itoa(filter.Page),
		"limit":    strconv.Itoa(filter.Limit),
	})

	return s.cachedList(ctx, key, store.PropertyQuery{
		Status:   models.PropertyVerified,
		Location: filter.Location,
		Sort:     filter.Sort,
		Skip:     (filter.Page - 1) * filter.Limit,
		Limit:    filter.Limit,
	})
}

func (s *PropertyService) ListAdvertised(ctx context.Context) ([]models.Property, error) {
	advertised := true
	key := utils.GenerateQueryCacheKey(listingCachePrefix, map[string]string{"scope": "advertised"})
	return s.cachedList(ctx, key, store.PropertyQuery{
		Status:     models.PropertyVerified,
		Advertised: &advertised,
	})
}

func (s *PropertyService) ListAll(ctx context.Context, sess Session) ([]models.Property, error) {
	if err := sess.require(models.RoleAdmin); err != nil {
		return nil, err
	}
	return s.properties.List(ctx, store.PropertyQuery{})
}

func (s *PropertyService) ListByAgent(ctx context.Context, sess Session, agentEmail string) ([]models.Property, error) {
	if err := sess.require(models.RoleAgent, models.RoleAdmin); err != nil {
		return nil, err
	}
	agentEmail = utils.NormalizeEmail(agentEmail)
	if agentEmail == "" {
		agentEmail = sess.Email
	}
	if !sess.OwnsOrAdmin(agentEmail) {
		return nil, ErrForbidden
	}
	return s.properties.List(ctx, store.PropertyQuery{AgentEmail: agentEmail})
}

func (s *PropertyService) Update(ctx context.Context, sess Session, id primitive.ObjectID, req models.PropertyRequest) (models.Property, error) {
	if err := sess.require(models.RoleAgent); err != nil {
		return models.Property{}, err
	}
	if req.Price.Min <= 0 || req.Price.Max < req.Price.Min {
		return models.Property{}, fmt.Errorf("%w: price range must satisfy 0 < min <= max", ErrInvalidInput)
	}
	property, err := s.find(ctx, id)
	if err != nil {
		return models.Property{}, err
	}
	if property.AgentEmail != sess.Email {
		return models.Property{}, ErrForbidden
	}
	if err := editable(property); err != nil {
		return models.Property{}, err
	}

	req.Title = strings.TrimSpace(req.Title)
	req.Location = strings.TrimSpace(req.Location)
	req.ImageURL = strings.TrimSpace(req.ImageURL)
	updated, err := s.properties.UpdateDetails(ctx, id, req)
	if errors.Is(err, store.ErrConflict) {
		// Rejected or sold between the read and the write.
		current, findErr := s.find(ctx, id)
		if findErr != nil {
			return models.Property{}, findErr
		}
		if err := editable(current); err != nil {
			return models.Property{}, err
		}
	}
	if err != nil {
		return models.Property{}, translate(err, ErrPropertyNotFound)
	}
	s.invalidateListings(ctx)
	return updated, nil
}

func editable(p models.Property) error {
	if p.Status == models.PropertyRejected {
		return ErrPropertyRejected
	}
	if p.Sold {
		return ErrPropertySold
	}
	return nil
}

// Delete removes a listing. Agents may delete their own listings unless an
// admin rejected them; admins may delete any listing.
func (s *PropertyService) Delete(ctx context.Context, sess Session, id primitive.ObjectID) error {
	if err := sess.require(models.RoleAgent, models.RoleAdmin); err != nil {
		return err
	}
	property, err := s.find(ctx, id)
	if err != nil {
		return err
	}
	if sess.Role == models.RoleAgent {
		if property.AgentEmail != sess.Email {
			return ErrForbidden
		}
		if property.Status == models.PropertyRejected {
			return ErrPropertyRejected
		}
		checkouts, err := s.openCheckouts(ctx, property.ID)
		if err != nil {
			return err
		}
		if len(checkouts) > 0 {
			return ErrCheckoutInProgress
		}
	}
	return s.purge(ctx, property)
}

// PurgeAgentListings removes every listing of an agent with the same cascade
// as Delete. It returns how many listings were removed.
func (s *PropertyService) PurgeAgentListings(ctx context.Context, agentEmail string) (int, error) {
	properties, err := s.properties.List(ctx, store.PropertyQuery{AgentEmail: agentEmail})
	if err != nil {
		return 0, fmt.Errorf("list agent properties: %w", err)
	}
	removed := 0
	for _, property := range properties {
		if err := s.purge(ctx, property); err != nil && !errors.Is(err, ErrPropertyNotFound) {
			return removed, err
		}
		removed++
	}
	return removed, nil
}

// openCheckouts returns accepted offers whose buyer already opened a payment.
func (s *PropertyService) openCheckouts(ctx context.Context, propertyID primitive.ObjectID) ([]models.Offer, error) {
	accepted, err := s.offers.List(ctx, store.OfferQuery{
		PropertyID: propertyID,
		Statuses:   []models.OfferStatus{models.OfferAccepted},
	})
	if err != nil {
		return nil, fmt.Errorf("list accepted offers: %w", err)
	}
	var open []models.Offer
	for _, offer := range accepted {
		if offer.PaymentIntentID != "" {
			open = append(open, offer)
		}
	}
	return open, nil
}

// purge deletes a listing and closes everything that points at it. Admin
// removals go through even mid-checkout; those payments are logged so the
// charge can be refunded.
func (s *PropertyService) purge(ctx context.Context, property models.Property) error {
	checkouts, err := s.openCheckouts(ctx, property.ID)
	if err != nil {
		return err
	}
	if err := s.properties.Delete(ctx, property.ID); err != nil {
		return translate(err, ErrPropertyNotFound)
	}
	wishlisted, err := s.wishlist.DeleteByProperty(ctx, property.ID)
	if err != nil {
		return fmt.Errorf("remove wishlist entries: %w", err)
	}
	rejected, err := s.offers.RejectMatching(ctx, store.OfferQuery{
		PropertyID: property.ID,
		Statuses:   []models.OfferStatus{models.OfferPending, models.OfferAccepted},
	}, primitive.NilObjectID)
	if err != nil {
		return fmt.Errorf("reject open offers: %w", err)
	}
	for _, offer := range checkouts {
		s.logger.Warn("offer with open payment rejected",
			"event", "checkout_interrupted",
			"module", "services/properties",
			"property_id", property.ID.Hex(),
			"offer_id", offer.ID.Hex(),
			"intent_id", offer.PaymentIntentID,
			"buyer_email", offer.BuyerEmail,
		)
	}
	s.invalidateListings(ctx)
	s.logger.Info("property removed",
		"event", "property_removed",
		"module", "services/properties",
		"property_id", property.ID.Hex(),
		"agent_email", property.AgentEmail,
		"wishlist_removed", wishlisted,
		"offers_rejected", rejected,
	)
	return nil
}

func (s *PropertyService) Verify(ctx context.Context, sess Session, id primitive.ObjectID) (models.Property, error) {
	return s.transition(ctx, sess, id, models.PropertyVerified)
}

func (s *PropertyService) Reject(ctx context.Context, sess Session, id primitive.ObjectID) (models.Property, error) {
	return s.transition(ctx, sess, id, models.PropertyRejected)
}

func (s *PropertyService) transition(ctx context.Context, sess Session, id primitive.ObjectID, to models.PropertyStatus) (models.Property, error) {
	if err := sess.require(models.RoleAdmin); err != nil {
		return models.Property{}, err
	}
	property, err := s.find(ctx, id)
	if err != nil {
		return models.Property{}, err
	}
	if !property.Status.CanTransitionTo(to) {
		return models.Property{}, fmt.Errorf("%w: property is %s", ErrInvalidTransition, property.Status)
	}
	updated, err := s.properties.TransitionStatus(ctx, id, property.Status, to)
	if errors.Is(err, store.ErrConflict) {
		return models.Property{}, fmt.Errorf("%w: property changed concurrently", ErrInvalidTransition)
	}
	if err != nil {
		return models.Property{}, translate(err, ErrPropertyNotFound)
	}
	s.invalidateListings(ctx)
	s.logger.Info("property status changed",
		"event", "property_status_changed",
		"module", "services/properties",
		"property_id", id.Hex(),
		"from", property.Status,
		"to", to,
	)
	return updated, nil
}

func (s *PropertyService) Advertise(ctx context.Context, sess Session, id primitive.ObjectID) (models.Property, error) {
	if err := sess.require(models.RoleAdmin); err != nil {
		return models.Property{}, err
	}
	property, err := s.find(ctx, id)
	if err != nil {
		return models.Property{}, err
	}
	if property.Sold {
		return models.Property{}, ErrPropertySold
	}
	if property.Status != models.PropertyVerified {
		return models.Property{}, fmt.Errorf("%w: only verified properties can be advertised", ErrInvalidTransition)
	}
	if property.IsAdvertised {
		return property, nil
	}
	updated, err := s.properties.SetAdvertised(ctx, id, true)
	if errors.Is(err, store.ErrConflict) {
		return models.Property{}, fmt.Errorf("%w: property changed concurrently", ErrInvalidTransition)
	}
	if err != nil {
		return models.Property{}, translate(err, ErrPropertyNotFound)
	}
	s.invalidateListings(ctx)
	return updated, nil
}

func (s *PropertyService) find(ctx context.Context, id primitive.ObjectID) (models.Property, error) {
	property, err := s.properties.FindByID(ctx, id)
	if err != nil {
		return models.Property{}, translate(err, ErrPropertyNotFound)
	}
	return property, nil
}

func (s *PropertyService) cachedList(ctx context.Context, key string, q store.PropertyQuery) ([]models.Property, error) {
	var cached []models.Property
	hit, err := s.cache.GetCached(ctx, key, &cached)
	if err != nil {
		s.logger.Warn("listing cache read failed", "event", "cache_read_failed", "module", "services/properties", "key", key, "error", err.Error())
	}
	if hit && err == nil {
		return cached, nil
	}

	properties, err := s.properties.List(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("list properties: %w", err)
	}
	if err := s.cache.SetCached(ctx, key, properties); err != nil {
		s.logger.Warn("listing cache write failed", "event", "cache_write_failed", "module", "services/properties", "key", key, "error", err.Error())
	}
	return properties, nil
}

func (s *PropertyService) invalidateListings(ctx context.Context) {
	if err := s.cache.InvalidatePrefix(ctx, listingCachePrefix); err != nil {
		s.logger.Warn("listing cache invalidation failed", "event", "cache_invalidate_failed", "module", "services/properties", "error", err.Error())
	}
}

func normalizeFilter(f models.PropertyFilter) models.PropertyFilter {
	f.Location = strings.TrimSpace(f.Location)
	if f.Sort != models.SortPriceAsc && f.Sort != models.SortPriceDesc {
		f.Sort = ""
	}
	if f.Page < 1 {
		f.Page = 1
	}
	if f.Limit < 1 {
		f.Limit = defaultPageLimit
	}
	if f.Limit > maxPageLimit {
		f.Limit = maxPageLimit
	}
	return f
}

// translate maps a store miss to the caller's domain error and leaves other
// errors untouched.
func translate(err error, notFound error) error {
	switch {
	case errors.Is(err, store.ErrNotFound):
		return notFound
	default:
		return err
	}
}
