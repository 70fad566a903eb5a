// Package memory holds map-backed stores with the same guards as the Mongo
// ones. Tests and local runs without a database use it.
package memory

import (
	"context"
	"errors"
	"sort"
	"strings"
	"sync"
	"time"

	"EstateMarket/models"
	"EstateMarket/store"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type Store struct {
	Users      *Users
	Properties *Properties
	Wishlist   *Wishlist
	Offers     *Offers
	Reviews    *Reviews
}

func New() *Store {
	return &Store{
		Users:      &Users{items: map[primitive.ObjectID]models.User{}},
		Properties: &Properties{items: map[primitive.ObjectID]models.Property{}},
		Wishlist:   &Wishlist{items: map[primitive.ObjectID]models.WishlistEntry{}},
		Offers:     &Offers{items: map[primitive.ObjectID]models.Offer{}},
		Reviews:    &Reviews{items: map[primitive.ObjectID]models.Review{}},
	}
}

type Users struct {
	mu    sync.RWMutex
	items map[primitive.ObjectID]models.User
}

func (s *Users) Create(_ context.Context, user *models.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, existing := range s.items {
		if existing.Email == user.Email {
			return store.ErrDuplicate
		}
	}
	if user.ID.IsZero() {
		user.ID = primitive.NewObjectID()
	}
	s.items[user.ID] = *user
	return nil
}

func (s *Users) FindByID(_ context.Context, id primitive.ObjectID) (models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	user, ok := s.items[id]
	if !ok {
		return models.User{}, store.ErrNotFound
	}
	return user, nil
}

func (s *Users) FindByEmail(_ context.Context, email string) (models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, user := range s.items {
		if user.Email == email {
			return user, nil
		}
	}
	return models.User{}, store.ErrNotFound
}

func (s *Users) List(_ context.Context) ([]models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	users := make([]models.User, 0, len(s.items))
	for _, user := range s.items {
		users = append(users, user)
	}
	sort.Slice(users, func(i, j int) bool { return users[i].CreatedAt.After(users[j].CreatedAt) })
	return users, nil
}

func (s *Users) Update(_ context.Context, id primitive.ObjectID, update store.UserUpdate) (models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	user, ok := s.items[id]
	if !ok {
		return models.User{}, store.ErrNotFound
	}
	if update.Name != nil {
		user.Name = *update.Name
	}
	if update.Image != nil {
		user.Image = *update.Image
	}
	if update.Role != nil {
		user.Role = *update.Role
	}
	if update.Fraud != nil {
		user.Fraud = *update.Fraud
	}
	user.UpdatedAt = time.Now().UTC()
	s.items[id] = user
	return user, nil
}

func (s *Users) Delete(_ context.Context, id primitive.ObjectID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.items[id]; !ok {
		return store.ErrNotFound
	}
	delete(s.items, id)
	return nil
}

type Properties struct {
	mu    sync.RWMutex
	items map[primitive.ObjectID]models.Property
}

func (s *Properties) Create(_ context.Context, property *models.Property) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if property.ID.IsZero() {
		property.ID = primitive.NewObjectID()
	}
	s.items[property.ID] = *property
	return nil
}

func (s *Properties) FindByID(_ context.Context, id primitive.ObjectID) (models.Property, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	property, ok := s.items[id]
	if !ok {
		return models.Property{}, store.ErrNotFound
	}
	return property, nil
}

func (s *Properties) List(_ context.Context, q store.PropertyQuery) ([]models.Property, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	location := strings.ToLower(q.Location)
	out := []models.Property{}
	for _, p := range s.items {
		if q.Status != "" && p.Status != q.Status {
			continue
		}
		if q.AgentEmail != "" && p.AgentEmail != q.AgentEmail {
			continue
		}
		if q.Advertised != nil && p.IsAdvertised != *q.Advertised {
			continue
		}
		if location != "" && !strings.Contains(strings.ToLower(p.Location), location) {
			continue
		}
		out = append(out, p)
	}

	sort.Slice(out, func(i, j int) bool {
		switch q.Sort {
		case models.SortPriceAsc:
			if out[i].Price.Min != out[j].Price.Min {
				return out[i].Price.Min < out[j].Price.Min
			}
		case models.SortPriceDesc:
			if out[i].Price.Max != out[j].Price.Max {
				return out[i].Price.Max > out[j].Price.Max
			}
		default:
			if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
				return out[i].CreatedAt.After(out[j].CreatedAt)
			}
		}
		return out[i].ID.Hex() < out[j].ID.Hex()
	})

	if q.Skip > 0 {
		if q.Skip >= len(out) {
			return []models.Property{}, nil
		}
		out = out[q.Skip:]
	}
	if q.Limit > 0 && len(out) > q.Limit {
		out = out[:q.Limit]
	}
	return out, nil
}

func (s *Properties) UpdateDetails(_ context.Context, id primitive.ObjectID, req models.PropertyRequest) (models.Property, error) {
	return s.mutate(id, func(p *models.Property) bool {
		if p.Status == models.PropertyRejected || p.Sold {
			return false
		}
		p.Title = req.Title
		p.Location = req.Location
		p.ImageURL = req.ImageURL
		p.Price = req.Price
		return true
	})
}

func (s *Properties) TransitionStatus(_ context.Context, id primitive.ObjectID, from, to models.PropertyStatus) (models.Property, error) {
	return s.mutate(id, func(p *models.Property) bool {
		if p.Status != from {
			return false
		}
		p.Status = to
		p.Verified = to == models.PropertyVerified
		if to == models.PropertyRejected {
			p.IsAdvertised = false
		}
		return true
	})
}

func (s *Properties) SetAdvertised(_ context.Context, id primitive.ObjectID, advertised bool) (models.Property, error) {
	return s.mutate(id, func(p *models.Property) bool {
		if p.Status != models.PropertyVerified || p.Sold {
			return false
		}
		p.IsAdvertised = advertised
		return true
	})
}

func (s *Properties) ClaimOffer(_ context.Context, id, offerID primitive.ObjectID) (models.Property, error) {
	return s.mutate(id, func(p *models.Property) bool {
		if p.Sold || (p.AcceptedOfferID != nil && *p.AcceptedOfferID != offerID) {
			return false
		}
		claimed := offerID
		p.AcceptedOfferID = &claimed
		return true
	})
}

func (s *Properties) ReleaseOffer(_ context.Context, id, offerID primitive.ObjectID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	property, ok := s.items[id]
	if !ok || property.AcceptedOfferID == nil || *property.AcceptedOfferID != offerID {
		return nil
	}
	property.AcceptedOfferID = nil
	property.UpdatedAt = time.Now().UTC()
	s.items[id] = property
	return nil
}

func (s *Properties) MarkSold(_ context.Context, id primitive.ObjectID, sale models.Sale) (models.Property, error) {
	return s.mutate(id, func(p *models.Property) bool {
		if p.Sold && p.TransactionID != sale.TransactionID {
			return false
		}
		soldAt := sale.SoldAt
		p.Sold = true
		p.IsAdvertised = false
		p.BuyerEmail = sale.BuyerEmail
		p.SoldPrice = sale.SoldPrice
		p.TransactionID = sale.TransactionID
		p.SoldAt = &soldAt
		return true
	})
}

func (s *Properties) Delete(_ context.Context, id primitive.ObjectID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.items[id]; !ok {
		return store.ErrNotFound
	}
	delete(s.items, id)
	return nil
}

func (s *Properties) mutate(id primitive.ObjectID, apply func(*models.Property) bool) (models.Property, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	property, ok := s.items[id]
	if !ok {
		return models.Property{}, store.ErrNotFound
	}
	if !apply(&property) {
		return models.Property{}, store.ErrConflict
	}
	property.UpdatedAt = time.Now().UTC()
	s.items[id] = property
	return property, nil
}

type Wishlist struct {
	mu    sync.RWMutex
	items map[primitive.ObjectID]models.WishlistEntry
}

func (s *Wishlist) Create(_ context.Context, entry *models.WishlistEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, existing := range s.items {
		if existing.UserEmail == entry.UserEmail && existing.PropertyID == entry.PropertyID {
			return store.ErrDuplicate
		}
	}
	if entry.ID.IsZero() {
		entry.ID = primitive.NewObjectID()
	}
	s.items[entry.ID] = *entry
	return nil
}

func (s *Wishlist) FindByID(_ context.Context, id primitive.ObjectID) (models.WishlistEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	entry, ok := s.items[id]
	if !ok {
		return models.WishlistEntry{}, store.ErrNotFound
	}
	return entry, nil
}

func (s *Wishlist) ListByUser(_ context.Context, email string) ([]models.WishlistEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := []models.WishlistEntry{}
	for _, entry := range s.items {
		if entry.UserEmail == email {
			out = append(out, entry)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (s *Wishlist) Delete(_ context.Context, id primitive.ObjectID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.items[id]; !ok {
		return store.ErrNotFound
	}
	delete(s.items, id)
	return nil
}

func (s *Wishlist) DeleteByUserAndProperty(_ context.Context, email string, propertyID primitive.ObjectID) (int64, error) {
	return s.deleteWhere(func(e models.WishlistEntry) bool {
		return e.UserEmail == email && e.PropertyID == propertyID
	}), nil
}

func (s *Wishlist) DeleteByProperty(_ context.Context, propertyID primitive.ObjectID) (int64, error) {
	return s.deleteWhere(func(e models.WishlistEntry) bool { return e.PropertyID == propertyID }), nil
}

func (s *Wishlist) DeleteByUser(_ context.Context, email string) (int64, error) {
	return s.deleteWhere(func(e models.WishlistEntry) bool { return e.UserEmail == email }), nil
}

func (s *Wishlist) deleteWhere(match func(models.WishlistEntry) bool) int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	var n int64
	for id, entry := range s.items {
		if match(entry) {
			delete(s.items, id)
			n++
		}
	}
	return n
}

type Offers struct {
	mu    sync.RWMutex
	items map[primitive.ObjectID]models.Offer
}

func (s *Offers) Create(_ context.Context, offer *models.Offer) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if offer.Status.Active() {
		for _, existing := range s.items {
			if existing.Status.Active() && existing.BuyerEmail == offer.BuyerEmail && existing.PropertyID == offer.PropertyID {
				return store.ErrDuplicate
			}
		}
	}
	if offer.ID.IsZero() {
		offer.ID = primitive.NewObjectID()
	}
	s.items[offer.ID] = *offer
	return nil
}

func (s *Offers) FindByID(_ context.Context, id primitive.ObjectID) (models.Offer, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	offer, ok := s.items[id]
	if !ok {
		return models.Offer{}, store.ErrNotFound
	}
	return offer, nil
}

func offerMatches(o models.Offer, q store.OfferQuery) bool {
	if q.BuyerEmail != "" && o.BuyerEmail != q.BuyerEmail {
		return false
	}
	if q.AgentEmail != "" && o.AgentEmail != q.AgentEmail {
		return false
	}
	if !q.PropertyID.IsZero() && o.PropertyID != q.PropertyID {
		return false
	}
	if len(q.Statuses) > 0 {
		for _, status := range q.Statuses {
			if o.Status == status {
				return true
			}
		}
		return false
	}
	return true
}

func (s *Offers) List(_ context.Context, q store.OfferQuery) ([]models.Offer, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := []models.Offer{}
	for _, offer := range s.items {
		if offerMatches(offer, q) {
			out = append(out, offer)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (s *Offers) ChangeStatus(_ context.Context, id primitive.ObjectID, change models.StatusChange) (models.Offer, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	offer, ok := s.items[id]
	if !ok {
		return models.Offer{}, store.ErrNotFound
	}
	if offer.Status != change.From {
		return models.Offer{}, store.ErrConflict
	}
	offer.Status = change.To
	if change.TransactionID != "" {
		offer.TransactionID = change.TransactionID
	}
	if change.PaidAt != nil {
		paidAt := *change.PaidAt
		offer.PaidAt = &paidAt
	}
	offer.UpdatedAt = time.Now().UTC()
	s.items[id] = offer
	return offer, nil
}

func (s *Offers) SetPaymentIntent(_ context.Context, id primitive.ObjectID, intentID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	offer, ok := s.items[id]
	if !ok {
		return store.ErrNotFound
	}
	if offer.Status != models.OfferAccepted {
		return store.ErrConflict
	}
	offer.PaymentIntentID = intentID
	offer.UpdatedAt = time.Now().UTC()
	s.items[id] = offer
	return nil
}

func (s *Offers) RejectMatching(_ context.Context, q store.OfferQuery, except primitive.ObjectID) (int64, error) {
	if len(q.Statuses) == 0 {
		return 0, errors.New("reject matching offers: statuses are required")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	var n int64
	for id, offer := range s.items {
		if id == except || !offerMatches(offer, q) {
			continue
		}
		offer.Status = models.OfferRejected
		offer.UpdatedAt = time.Now().UTC()
		s.items[id] = offer
		n++
	}
	return n, nil
}

type Reviews struct {
	mu    sync.RWMutex
	items map[primitive.ObjectID]models.Review
}

func (s *Reviews) Create(_ context.Context, review *models.Review) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if review.ID.IsZero() {
		review.ID = primitive.NewObjectID()
	}
	s.items[review.ID] = *review
	return nil
}

func (s *Reviews) FindByID(_ context.Context, id primitive.ObjectID) (models.Review, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	review, ok := s.items[id]
	if !ok {
		return models.Review{}, store.ErrNotFound
	}
	return review, nil
}

func (s *Reviews) List(_ context.Context, q store.ReviewQuery) ([]models.Review, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := []models.Review{}
	for _, review := range s.items {
		if !q.PropertyID.IsZero() && review.PropertyID != q.PropertyID {
			continue
		}
		if q.ReviewerEmail != "" && review.ReviewerEmail != q.ReviewerEmail {
			continue
		}
		out = append(out, review)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Date.After(out[j].Date) })
	if q.Limit > 0 && len(out) > q.Limit {
		out = out[:q.Limit]
	}
	return out, nil
}

func (s *Reviews) Delete(_ context.Context, id primitive.ObjectID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.items[id]; !ok {
		return store.ErrNotFound
	}
	delete(s.items, id)
	return nil
}

func (s *Reviews) DeleteByReviewer(_ context.Context, email string) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var n int64
	for id, review := range s.items {
		if review.ReviewerEmail == email {
			delete(s.items, id)
			n++
		}
	}
	return n, nil
}

var (
	_ store.UserStore     = (*Users)(nil)
	_ store.PropertyStore = (*Properties)(nil)
	_ store.WishlistStore = (*Wishlist)(nil)
	_ store.OfferStore    = (*Offers)(nil)
	_ store.ReviewStore   = (*Reviews)(nil)
)
