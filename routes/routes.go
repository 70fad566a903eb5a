package routes

import (
	"EstateMarket/handlers"
	"EstateMarket/middleware"
	"EstateMarket/models"
	"EstateMarket/store"
	"EstateMarket/utils"

	"github.com/labstack/echo/v4"
)

type Controllers struct {
	Properties *handlers.PropertyController
	Wishlist   *handlers.WishlistController
	Offers     *handlers.OfferController
	Payments   *handlers.PaymentController
	Reviews    *handlers.ReviewController
	Users      *handlers.UserController
	Health     *handlers.HealthController
}

// RegisterRoutes wires every endpoint. users backs the per-request session
// lookup behind bearer tokens.
func RegisterRoutes(e *echo.Echo, ctl Controllers, tokens *utils.JWTManager, users store.UserStore) {
	auth := middleware.JWTMiddleware(tokens, users)
	optional := middleware.OptionalJWT(tokens, users)
	admin := middleware.RequireRole(models.RoleAdmin)
	agent := middleware.RequireRole(models.RoleAgent)
	buyer := middleware.RequireRole(models.RoleUser)

	e.GET("/health", ctl.Health.HealthCheck)

	e.POST("/auth/register", ctl.Users.Register)
	e.POST("/auth/login", ctl.Users.Login)

	// Public catalog
	e.GET("/allProperties", ctl.Properties.ListProperties)
	e.GET("/properties/advertised", ctl.Properties.ListAdvertised)
	e.GET("/properties/:id", ctl.Properties.GetProperty, optional)
	e.GET("/reviews", ctl.Reviews.GetPropertyReviews)
	e.GET("/reviews/latest", ctl.Reviews.GetLatestReviews)

	e.GET("/dashboard/menu", handlers.DashboardMenu, auth)

	e.POST("/addProperty", ctl.Properties.CreateProperty, auth, agent)
	e.GET("/myAddedProperty", ctl.Properties.MyAddedProperties, auth)
	e.GET("/property/:id", ctl.Properties.GetPropertyForEdit, auth)
	e.PUT("/property/:id", ctl.Properties.UpdateProperty, auth, agent)
	e.DELETE("/property/:id", ctl.Properties.DeleteProperty, auth)

	e.GET("/properties", ctl.Properties.ListAllProperties, auth, admin)
	e.PATCH("/properties/verify/:id", ctl.Properties.VerifyProperty, auth, admin)
	e.PATCH("/properties/reject/:id", ctl.Properties.RejectProperty, auth, admin)
	e.PATCH("/properties/advertise/:id", ctl.Properties.AdvertiseProperty, auth, admin)

	e.POST("/wishlist", ctl.Wishlist.AddToWishlist, auth, buyer)
	e.GET("/wishlist", ctl.Wishlist.GetWishlist, auth)
	e.GET("/wishlistProperty/:id", ctl.Wishlist.GetWishlistProperty, auth)
	e.DELETE("/wishlist/:id", ctl.Wishlist.RemoveFromWishlist, auth)

	e.POST("/offers", ctl.Offers.CreateOffer, auth, buyer)
	e.GET("/offers", ctl.Offers.GetBuyerOffers, auth)
	e.GET("/offers/agent", ctl.Offers.GetAgentOffers, auth)
	e.PATCH("/offers/accept/:id", ctl.Offers.AcceptOffer, auth, agent)
	e.PATCH("/offers/reject/:id", ctl.Offers.RejectOffer, auth, agent)
	e.GET("/sold-properties", ctl.Offers.GetSoldProperties, auth)

	e.POST("/create-payment-intent", ctl.Payments.CreatePaymentIntent, auth, buyer)
	e.PUT("/property/:id/pay", ctl.Payments.ConfirmPayment, auth, buyer)

	e.POST("/reviews", ctl.Reviews.CreateReview, auth, buyer)
	e.GET("/myReviews", ctl.Reviews.GetMyReviews, auth)
	e.GET("/allReviews", ctl.Reviews.GetAllReviews, auth, admin)
	e.DELETE("/reviews/:id", ctl.Reviews.DeleteReview, auth)

	e.GET("/users/:email/role", ctl.Users.GetRole, auth)
	e.GET("/users/me", ctl.Users.GetProfile, auth)
	e.PATCH("/users/me", ctl.Users.UpdateProfile, auth)

	e.GET("/users", ctl.Users.GetAllUsers, auth, admin)
	e.GET("/users/:id", ctl.Users.GetUser, auth, admin)
	e.PATCH("/users/:id", ctl.Users.UpdateUser, auth, admin)
	e.PATCH("/users/:id/role", ctl.Users.UpdateRole, auth, admin)
	e.PATCH("/users/:id/fraud", ctl.Users.MarkFraud, auth, admin)
	e.DELETE("/users/:id", ctl.Users.DeleteUser, auth, admin)
}
