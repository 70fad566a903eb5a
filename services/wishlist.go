package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"EstateMarket/models"
	"EstateMarket/store"
	"EstateMarket/utils"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type WishlistService struct {
	wishlist   store.WishlistStore
	properties store.PropertyStore
	logger     *slog.Logger
	now        func() time.Time
}

func NewWishlistService(wishlist store.WishlistStore, properties store.PropertyStore, logger *slog.Logger) *WishlistService {
	return &WishlistService{
		wishlist:   wishlist,
		properties: properties,
		logger:     resolveLogger(logger),
		now:        time.Now,
	}
}

// WishlistItem is an entry together with the live listing it points at.
type WishlistItem struct {
	models.WishlistEntry
	CurrentPrice models.PriceRange `json:"currentPrice"`
	Offerable    bool              `json:"offerable"`
}

func (s *WishlistService) Add(ctx context.Context, sess Session, propertyID primitive.ObjectID) (models.WishlistEntry, error) {
	if err := sess.require(models.RoleUser); err != nil {
		return models.WishlistEntry{}, err
	}
	property, err := s.properties.FindByID(ctx, propertyID)
	if err != nil {
		return models.WishlistEntry{}, translate(err, ErrPropertyNotFound)
	}
	if !property.Offerable() {
		return models.WishlistEntry{}, ErrPropertyUnavailable
	}

	entry := models.NewWishlistEntry(property, sess.Email, s.now().UTC())
	if err := s.wishlist.Create(ctx, &entry); err != nil {
		if errors.Is(err, store.ErrDuplicate) {
			return models.WishlistEntry{}, ErrAlreadyWishlisted
		}
		return models.WishlistEntry{}, fmt.Errorf("create wishlist entry: %w", err)
	}
	s.logger.Info("property wishlisted",
		"event", "wishlist_added",
		"module", "services/wishlist",
		"property_id", propertyID.Hex(),
		"user_email", sess.Email,
	)
	return entry, nil
}

func (s *WishlistService) List(ctx context.Context, sess Session, email string) ([]models.WishlistEntry, error) {
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
	return s.wishlist.ListByUser(ctx, email)
}

func (s *WishlistService) Get(ctx context.Context, sess Session, id primitive.ObjectID) (WishlistItem, error) {
	entry, err := s.owned(ctx, sess, id)
	if err != nil {
		return WishlistItem{}, err
	}
	item := WishlistItem{WishlistEntry: entry, CurrentPrice: entry.Price}
	property, err := s.properties.FindByID(ctx, entry.PropertyID)
	switch {
	case errors.Is(err, store.ErrNotFound):
		// Listing is gone; the entry is shown but cannot become an offer.
	case err != nil:
		return WishlistItem{}, fmt.Errorf("load wishlisted property: %w", err)
	default:
		item.CurrentPrice = property.Price
		item.Offerable = property.Offerable()
	}
	return item, nil
}

func (s *WishlistService) Remove(ctx context.Context, sess Session, id primitive.ObjectID) error {
	if _, err := s.owned(ctx, sess, id); err != nil {
		return err
	}
	if err := s.wishlist.Delete(ctx, id); err != nil {
		return translate(err, ErrWishlistNotFound)
	}
	return nil
}

func (s *WishlistService) owned(ctx context.Context, sess Session, id primitive.ObjectID) (models.WishlistEntry, error) {
	if !sess.Authenticated() {
		return models.WishlistEntry{}, ErrUnauthenticated
	}
	entry, err := s.wishlist.FindByID(ctx, id)
	if err != nil {
		return models.WishlistEntry{}, translate(err, ErrWishlistNotFound)
	}
	if !sess.OwnsOrAdmin(entry.UserEmail) {
		return models.WishlistEntry{}, ErrForbidden
	}
	return entry, nil
}
