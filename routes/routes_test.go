package routes

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"EstateMarket/handlers"
	"EstateMarket/models"
	"EstateMarket/payment"
	"EstateMarket/services"
	"EstateMarket/store/memory"
	"EstateMarket/utils"

	"github.com/labstack/echo/v4"
)

type stubGateway struct {
	mu      sync.Mutex
	intents map[string]payment.Intent
}

func (g *stubGateway) CreateIntent(_ context.Context, p payment.IntentParams) (payment.Intent, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	id := "pi_" + p.OfferID
	intent := payment.Intent{
		ID:            id,
		ClientSecret:  id + "_secret",
		Status:        "requires_confirmation",
		AmountInCents: p.AmountInCents,
		Currency:      p.Currency,
		Metadata:      map[string]string{payment.MetaOfferID: p.OfferID},
	}
	g.intents[id] = intent
	return intent, nil
}

func (g *stubGateway) GetIntent(_ context.Context, id string) (payment.Intent, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	intent, ok := g.intents[id]
	if !ok {
		return payment.Intent{}, payment.ErrIntentNotFound
	}
	return intent, nil
}

func (g *stubGateway) complete(id string) {
	g.mu.Lock()
	defer g.mu.Unlock()
	intent := g.intents[id]
	intent.Status = payment.StatusSucceeded
	g.intents[id] = intent
}

type testApp struct {
	t       *testing.T
	e       *echo.Echo
	store   *memory.Store
	tokens  *utils.JWTManager
	gateway *stubGateway
}

func newTestApp(t *testing.T) *testApp {
	t.Helper()
	tokens, err := utils.NewJWTManager("routes-secret", time.Hour)
	if err != nil {
		t.Fatalf("jwt manager: %v", err)
	}
	st := memory.New()
	gateway := &stubGateway{intents: map[string]payment.Intent{}}

	propertyService := services.NewPropertyService(st.Properties, st.Wishlist, st.Offers, st.Users, nil, nil)
	e := echo.New()
	e.Validator = utils.NewRequestValidator()
	RegisterRoutes(e, Controllers{
		Properties: handlers.NewPropertyController(propertyService, nil),
		Wishlist:   handlers.NewWishlistController(services.NewWishlistService(st.Wishlist, st.Properties, nil), nil),
		Offers:     handlers.NewOfferController(services.NewOfferService(st.Offers, st.Properties, st.Wishlist, st.Users, nil), nil),
		Payments:   handlers.NewPaymentController(services.NewPaymentService(gateway, "usd", st.Offers, st.Properties, nil, nil), nil),
		Reviews:    handlers.NewReviewController(services.NewReviewService(st.Reviews, st.Properties, st.Users, nil), nil),
		Users:      handlers.NewUserController(services.NewUserService(st.Users, st.Wishlist, st.Offers, st.Reviews, propertyService, tokens, nil), nil),
		Health: handlers.NewHealthController(map[string]handlers.Pinger{
			"mongo": func(context.Context) error { return nil },
		}),
	}, tokens, st.Users)
	return &testApp{t: t, e: e, store: st, tokens: tokens, gateway: gateway}
}

// login seeds a user directly and returns a bearer token for it.
func (a *testApp) login(email string, role models.Role) string {
	a.t.Helper()
	_, token := a.seed(email, role)
	return token
}

func (a *testApp) seed(email string, role models.Role) (models.User, string) {
	a.t.Helper()
	user := models.User{Email: email, Name: strings.Split(email, "@")[0], Role: role}
	if err := a.store.Users.Create(context.Background(), &user); err != nil {
		a.t.Fatalf("seed user: %v", err)
	}
	token, err := a.tokens.GenerateJWT(user.ID, user.Email, user.Role)
	if err != nil {
		a.t.Fatalf("token: %v", err)
	}
	return user, token
}

func (a *testApp) do(method, path, token string, body interface{}) *httptest.ResponseRecorder {
	a.t.Helper()
	var reader *strings.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			a.t.Fatalf("marshal body: %v", err)
		}
		reader = strings.NewReader(string(data))
	} else {
		reader = strings.NewReader("")
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	if token != "" {
		req.Header.Set(echo.HeaderAuthorization, "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	a.e.ServeHTTP(rec, req)
	return rec
}

func decode(t *testing.T, rec *httptest.ResponseRecorder, dest interface{}) {
	t.Helper()
	if err := json.Unmarshal(rec.Body.Bytes(), dest); err != nil {
		t.Fatalf("decode %q: %v", rec.Body.String(), err)
	}
}

func errorMessage(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	var body map[string]string
	decode(t, rec, &body)
	return body["error"]
}

func expectStatus(t *testing.T, rec *httptest.ResponseRecorder, want int) {
	t.Helper()
	if rec.Code != want {
		t.Fatalf("expected status %d, got %d: %s", want, rec.Code, rec.Body.String())
	}
}

func TestRegisterLoginAndRoleLookup(t *testing.T) {
	app := newTestApp(t)

	rec := app.do(http.MethodPost, "/auth/register", "", map[string]string{
		"email": "jane@example.com", "password": "hunter22", "name": "Jane",
	})
	expectStatus(t, rec, http.StatusCreated)

	rec = app.do(http.MethodPost, "/auth/register", "", map[string]string{
		"email": "jane@example.com", "password": "hunter22", "name": "Jane",
	})
	expectStatus(t, rec, http.StatusConflict)

	rec = app.do(http.MethodPost, "/auth/login", "", map[string]string{"email": "jane@example.com", "password": "nope"})
	expectStatus(t, rec, http.StatusUnauthorized)

	rec = app.do(http.MethodPost, "/auth/login", "", map[string]string{"email": "jane@example.com", "password": "hunter22"})
	expectStatus(t, rec, http.StatusOK)
	var login models.LoginResponse
	decode(t, rec, &login)
	if login.Token == "" {
		t.Fatalf("expected a token")
	}
	if strings.Contains(rec.Body.String(), "password") {
		t.Fatalf("password hash leaked in response: %s", rec.Body.String())
	}

	rec = app.do(http.MethodGet, "/users/jane@example.com/role", login.Token, nil)
	expectStatus(t, rec, http.StatusOK)
	var role models.RoleResponse
	decode(t, rec, &role)
	if role.Role != models.RoleUser {
		t.Fatalf("expected user role, got %s", role.Role)
	}

	rec = app.do(http.MethodGet, "/dashboard/menu", login.Token, nil)
	expectStatus(t, rec, http.StatusOK)
	if !strings.Contains(rec.Body.String(), "/dashboard/wishLists") {
		t.Fatalf("expected user menu, got %s", rec.Body.String())
	}
}

func TestRegisterValidation(t *testing.T) {
	app := newTestApp(t)
	rec := app.do(http.MethodPost, "/auth/register", "", map[string]string{"email": "not-an-email", "password": "x"})
	expectStatus(t, rec, http.StatusBadRequest)
	if errorMessage(t, rec) == "" {
		t.Fatalf("expected a validation message")
	}
}

func TestPropertyEndpointsEnforceRoles(t *testing.T) {
	app := newTestApp(t)
	buyer := app.login("buyer@example.com", models.RoleUser)
	agent := app.login("agent@example.com", models.RoleAgent)

	body := map[string]interface{}{
		"title": "Lake House", "location": "Sylhet", "imageUrl": "https://img.example.com/a.jpg",
		"price": map[string]float64{"min": 100000, "max": 200000},
	}
	expectStatus(t, app.do(http.MethodPost, "/addProperty", "", body), http.StatusUnauthorized)
	expectStatus(t, app.do(http.MethodPost, "/addProperty", buyer, body), http.StatusForbidden)
	expectStatus(t, app.do(http.MethodGet, "/properties", agent, nil), http.StatusForbidden)

	bad := map[string]interface{}{"title": "No price", "location": "Sylhet", "imageUrl": "https://img.example.com/a.jpg"}
	expectStatus(t, app.do(http.MethodPost, "/addProperty", agent, bad), http.StatusBadRequest)

	expectStatus(t, app.do(http.MethodGet, "/properties/not-an-id", "", nil), http.StatusBadRequest)
}

func TestMarketplaceFlow(t *testing.T) {
	app := newTestApp(t)
	admin := app.login("admin@example.com", models.RoleAdmin)
	agent := app.login("agent@example.com", models.RoleAgent)
	buyer := app.login("buyer@example.com", models.RoleUser)

	rec := app.do(http.MethodPost, "/addProperty", agent, map[string]interface{}{
		"title": "Lake House", "location": "Sylhet", "imageUrl": "https://img.example.com/a.jpg",
		"price": map[string]float64{"min": 100000, "max": 200000},
	})
	expectStatus(t, rec, http.StatusCreated)
	var property models.Property
	decode(t, rec, &property)

	rec = app.do(http.MethodGet, "/allProperties", "", nil)
	expectStatus(t, rec, http.StatusOK)
	if strings.TrimSpace(rec.Body.String()) != "[]" {
		t.Fatalf("expected pending listing to be hidden, got %s", rec.Body.String())
	}

	expectStatus(t, app.do(http.MethodPatch, "/properties/verify/"+property.ID.Hex(), admin, nil), http.StatusOK)
	expectStatus(t, app.do(http.MethodPatch, "/properties/reject/"+property.ID.Hex(), admin, nil), http.StatusConflict)

	rec = app.do(http.MethodGet, "/allProperties?location=syl&sort=asc", "", nil)
	expectStatus(t, rec, http.StatusOK)
	var listed []models.Property
	decode(t, rec, &listed)
	if len(listed) != 1 {
		t.Fatalf("expected verified listing to be public, got %d", len(listed))
	}

	expectStatus(t, app.do(http.MethodPost, "/wishlist", buyer, map[string]string{"propertyId": property.ID.Hex()}), http.StatusCreated)
	rec = app.do(http.MethodPost, "/wishlist", buyer, map[string]string{"propertyId": property.ID.Hex()})
	expectStatus(t, rec, http.StatusConflict)
	if msg := errorMessage(t, rec); msg != "property already added to wishlist" {
		t.Fatalf("unexpected wishlist conflict message %q", msg)
	}

	rec = app.do(http.MethodPost, "/offers", buyer, map[string]interface{}{
		"propertyId": property.ID.Hex(), "offerAmount": 50000, "buyingDate": "2026-12-01",
	})
	expectStatus(t, rec, http.StatusUnprocessableEntity)
	if msg := errorMessage(t, rec); msg != "Offer must be between 100000 - 200000" {
		t.Fatalf("unexpected range message %q", msg)
	}

	rec = app.do(http.MethodPost, "/offers", buyer, map[string]interface{}{
		"propertyId": property.ID.Hex(), "offerAmount": 150000, "buyingDate": "2026-12-01",
	})
	expectStatus(t, rec, http.StatusCreated)
	var offer models.Offer
	decode(t, rec, &offer)

	rec = app.do(http.MethodGet, "/wishlist", buyer, nil)
	expectStatus(t, rec, http.StatusOK)
	if strings.TrimSpace(rec.Body.String()) != "[]" {
		t.Fatalf("expected wishlist entry consumed by the offer, got %s", rec.Body.String())
	}

	expectStatus(t, app.do(http.MethodPatch, "/offers/accept/"+offer.ID.Hex(), buyer, nil), http.StatusForbidden)
	expectStatus(t, app.do(http.MethodPatch, "/offers/accept/"+offer.ID.Hex(), agent, nil), http.StatusOK)
	expectStatus(t, app.do(http.MethodPatch, "/offers/reject/"+offer.ID.Hex(), agent, nil), http.StatusConflict)

	rec = app.do(http.MethodPost, "/create-payment-intent", buyer, map[string]string{"offerId": offer.ID.Hex()})
	expectStatus(t, rec, http.StatusOK)
	var intent models.PaymentIntentResponse
	decode(t, rec, &intent)
	if intent.AmountInCents != 15000000 {
		t.Fatalf("expected server-computed amount, got %d", intent.AmountInCents)
	}

	payPath := fmt.Sprintf("/property/%s/pay", property.ID.Hex())
	pay := map[string]string{"offerId": offer.ID.Hex(), "transactionId": intent.PaymentIntentID}
	expectStatus(t, app.do(http.MethodPut, payPath, buyer, pay), http.StatusPaymentRequired)

	app.gateway.complete(intent.PaymentIntentID)
	rec = app.do(http.MethodPut, payPath, buyer, pay)
	expectStatus(t, rec, http.StatusOK)
	var result models.PaymentResult
	decode(t, rec, &result)
	if result.Offer.Status != models.OfferBought || !result.Property.Sold {
		t.Fatalf("expected bought offer and sold property, got %s / %v", result.Offer.Status, result.Property.Sold)
	}

	rec = app.do(http.MethodPut, payPath, buyer, pay)
	expectStatus(t, rec, http.StatusOK)
	decode(t, rec, &result)
	if !result.Replayed {
		t.Fatalf("expected replayed confirmation")
	}

	rec = app.do(http.MethodGet, "/sold-properties?agentEmail=agent@example.com", agent, nil)
	expectStatus(t, rec, http.StatusOK)
	var sold []models.Offer
	decode(t, rec, &sold)
	if len(sold) != 1 || sold[0].TransactionID != intent.PaymentIntentID {
		t.Fatalf("expected one sold record with the transaction id, got %+v", sold)
	}

	expectStatus(t, app.do(http.MethodPut, "/property/"+property.ID.Hex(), agent, map[string]interface{}{
		"title": "Lake House", "location": "Sylhet", "imageUrl": "https://img.example.com/a.jpg",
		"price": map[string]float64{"min": 1, "max": 2},
	}), http.StatusConflict)
}

func TestDemotedAdminLosesAccessImmediately(t *testing.T) {
	app := newTestApp(t)
	root := app.login("root@example.com", models.RoleAdmin)
	deputy, deputyToken := app.seed("deputy@example.com", models.RoleAdmin)
	target, _ := app.seed("target@example.com", models.RoleUser)

	expectStatus(t, app.do(http.MethodGet, "/users", deputyToken, nil), http.StatusOK)

	rec := app.do(http.MethodPatch, "/users/"+deputy.ID.Hex()+"/role", root, map[string]string{"role": "user"})
	expectStatus(t, rec, http.StatusOK)

	rec = app.do(http.MethodDelete, "/users/"+target.ID.Hex(), deputyToken, nil)
	expectStatus(t, rec, http.StatusForbidden)
	if _, err := app.store.Users.FindByID(context.Background(), target.ID); err != nil {
		t.Fatalf("expected target to survive, got %v", err)
	}

	expectStatus(t, app.do(http.MethodDelete, "/users/"+deputy.ID.Hex(), root, nil), http.StatusOK)
	rec = app.do(http.MethodGet, "/users/me", deputyToken, nil)
	expectStatus(t, rec, http.StatusUnauthorized)
	if msg := errorMessage(t, rec); msg != "User no longer exists" {
		t.Fatalf("unexpected message %q", msg)
	}
}

func TestHealthCheck(t *testing.T) {
	app := newTestApp(t)
	rec := app.do(http.MethodGet, "/health", "", nil)
	expectStatus(t, rec, http.StatusOK)
	if !strings.Contains(rec.Body.String(), `"mongo":"ok"`) {
		t.Fatalf("expected dependency report, got %s", rec.Body.String())
	}
}
