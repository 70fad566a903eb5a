package services

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"EstateMarket/models"
	"EstateMarket/payment"
	"EstateMarket/store"
	"EstateMarket/store/memory"
	"EstateMarket/utils"

	"github.com/alicebob/miniredis/v2"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type fakeGateway struct {
	mu      sync.Mutex
	intents map[string]payment.Intent
	byKey   map[string]string
}

func newFakeGateway() *fakeGateway {
	return &fakeGateway{intents: map[string]payment.Intent{}, byKey: map[string]string{}}
}

func (g *fakeGateway) CreateIntent(_ context.Context, p payment.IntentParams) (payment.Intent, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if id, ok := g.byKey[p.IdempotencyKey]; ok {
		return g.intents[id], nil
	}
	id := fmt.Sprintf("pi_test_%d", len(g.intents)+1)
	intent := payment.Intent{
		ID:            id,
		ClientSecret:  id + "_secret",
		Status:        "requires_payment_method",
		AmountInCents: p.AmountInCents,
		Currency:      p.Currency,
		Metadata: map[string]string{
			payment.MetaOfferID:    p.OfferID,
			payment.MetaPropertyID: p.PropertyID,
			payment.MetaBuyerEmail: p.BuyerEmail,
		},
	}
	g.intents[id] = intent
	g.byKey[p.IdempotencyKey] = id
	return intent, nil
}

func (g *fakeGateway) GetIntent(_ context.Context, id string) (payment.Intent, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	intent, ok := g.intents[id]
	if !ok {
		return payment.Intent{}, payment.ErrIntentNotFound
	}
	return intent, nil
}

// succeed simulates the buyer completing card checkout.
func (g *fakeGateway) succeed(id string) {
	g.mu.Lock()
	defer g.mu.Unlock()
	intent := g.intents[id]
	intent.Status = payment.StatusSucceeded
	g.intents[id] = intent
}

// addIntent registers an extra succeeded intent for an offer, as if the buyer
// had paid twice through different checkouts.
func (g *fakeGateway) addIntent(id string, offer models.Offer, currency string) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.intents[id] = payment.Intent{
		ID:            id,
		Status:        payment.StatusSucceeded,
		AmountInCents: offer.AmountInCents(),
		Currency:      currency,
		Metadata:      map[string]string{payment.MetaOfferID: offer.ID.Hex()},
	}
}

// barrier holds the first parties callers until all of them arrive, which
// lines up concurrent requests right after their reads. Later callers pass
// straight through.
type barrier struct {
	mu      sync.Mutex
	parties int
	arrived int
	release chan struct{}
}

func newBarrier(parties int) *barrier {
	return &barrier{parties: parties, release: make(chan struct{})}
}

func (b *barrier) wait() {
	if b == nil {
		return
	}
	b.mu.Lock()
	if b.arrived >= b.parties {
		b.mu.Unlock()
		return
	}
	b.arrived++
	if b.arrived == b.parties {
		close(b.release)
	}
	b.mu.Unlock()
	select {
	case <-b.release:
	case <-time.After(2 * time.Second):
	}
}

type gatedOffers struct {
	*memory.Offers
	afterFind *barrier
	afterList *barrier
}

func (g *gatedOffers) FindByID(ctx context.Context, id primitive.ObjectID) (models.Offer, error) {
	offer, err := g.Offers.FindByID(ctx, id)
	g.afterFind.wait()
	return offer, err
}

func (g *gatedOffers) List(ctx context.Context, q store.OfferQuery) ([]models.Offer, error) {
	offers, err := g.Offers.List(ctx, q)
	g.afterList.wait()
	return offers, err
}

type gatedProperties struct {
	*memory.Properties
	afterFind *barrier
}

func (g *gatedProperties) FindByID(ctx context.Context, id primitive.ObjectID) (models.Property, error) {
	property, err := g.Properties.FindByID(ctx, id)
	g.afterFind.wait()
	return property, err
}

// concurrently runs each call on its own goroutine and collects the errors.
func concurrently(calls ...func() error) []error {
	errs := make([]error, len(calls))
	var wg sync.WaitGroup
	for i, call := range calls {
		wg.Add(1)
		go func(i int, call func() error) {
			defer wg.Done()
			errs[i] = call()
		}(i, call)
	}
	wg.Wait()
	return errs
}

type fixture struct {
	ctx        context.Context
	store      *memory.Store
	gateway    *fakeGateway
	tokens     *utils.JWTManager
	properties *PropertyService
	wishlist   *WishlistService
	offers     *OfferService
	payments   *PaymentService
	reviews    *ReviewService
	users      *UserService

	admin  Session
	agent  Session
	buyer  Session
	buyer2 Session
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	return newFixtureWithCache(t, nil)
}

func newFixtureWithRedis(t *testing.T) (*fixture, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := utils.NewRedisClient(mr.Addr(), "", 0)
	t.Cleanup(func() { _ = client.Close() })
	return newFixtureWithCache(t, utils.NewCache(client, time.Minute)), mr
}

func newFixtureWithCache(t *testing.T, cache *utils.Cache) *fixture {
	t.Helper()
	tokens, err := utils.NewJWTManager("test-secret", time.Hour)
	if err != nil {
		t.Fatalf("jwt manager: %v", err)
	}
	st := memory.New()
	gateway := newFakeGateway()

	properties := NewPropertyService(st.Properties, st.Wishlist, st.Offers, st.Users, cache, nil)
	f := &fixture{
		ctx:        context.Background(),
		store:      st,
		gateway:    gateway,
		tokens:     tokens,
		properties: properties,
		wishlist:   NewWishlistService(st.Wishlist, st.Properties, nil),
		offers:     NewOfferService(st.Offers, st.Properties, st.Wishlist, st.Users, nil),
		payments:   NewPaymentService(gateway, "usd", st.Offers, st.Properties, cache, nil),
		reviews:    NewReviewService(st.Reviews, st.Properties, st.Users, nil),
		users:      NewUserService(st.Users, st.Wishlist, st.Offers, st.Reviews, properties, tokens, nil),
	}
	f.admin = f.seedUser(t, "admin@example.com", "Admin", models.RoleAdmin)
	f.agent = f.seedUser(t, "agent@example.com", "Agent Smith", models.RoleAgent)
	f.buyer = f.seedUser(t, "buyer@example.com", "Bea Buyer", models.RoleUser)
	f.buyer2 = f.seedUser(t, "buyer2@example.com", "Ben Buyer", models.RoleUser)
	return f
}

func (f *fixture) seedUser(t *testing.T, email, name string, role models.Role) Session {
	t.Helper()
	user := models.User{Email: email, Name: name, Role: role, CreatedAt: time.Now().UTC()}
	if err := f.store.Users.Create(f.ctx, &user); err != nil {
		t.Fatalf("seed user %s: %v", email, err)
	}
	return Session{UserID: user.ID, Email: user.Email, Role: user.Role}
}

func propertyRequest(title string, min, max float64) models.PropertyRequest {
	return models.PropertyRequest{
		Title:    title,
		Location: "Dhaka, Gulshan",
		ImageURL: "https://images.example.com/house.jpg",
		Price:    models.PriceRange{Min: min, Max: max},
	}
}

func (f *fixture) verifiedProperty(t *testing.T, min, max float64) models.Property {
	t.Helper()
	added, err := f.properties.Add(f.ctx, f.agent, propertyRequest("Lake View Villa", min, max))
	if err != nil {
		t.Fatalf("add property: %v", err)
	}
	verified, err := f.properties.Verify(f.ctx, f.admin, added.ID)
	if err != nil {
		t.Fatalf("verify property: %v", err)
	}
	return verified
}

func (f *fixture) offer(t *testing.T, buyer Session, property models.Property, amount float64) models.Offer {
	t.Helper()
	offer, err := f.offers.Create(f.ctx, buyer, models.OfferRequest{
		PropertyID:  property.ID.Hex(),
		OfferAmount: amount,
		BuyingDate:  "2026-12-01",
	})
	if err != nil {
		t.Fatalf("create offer: %v", err)
	}
	return offer
}

func (f *fixture) acceptedOffer(t *testing.T, amount float64) (models.Property, models.Offer) {
	t.Helper()
	property := f.verifiedProperty(t, 100000, 200000)
	offer := f.offer(t, f.buyer, property, amount)
	accepted, err := f.offers.Accept(f.ctx, f.agent, offer.ID, models.AcceptOfferRequest{})
	if err != nil {
		t.Fatalf("accept offer: %v", err)
	}
	return property, accepted
}
