package services

import "errors"

var (
	ErrUnauthenticated = errors.New("authentication required")
	ErrForbidden       = errors.New("you are not allowed to perform this action")
	ErrInvalidInput    = errors.New("invalid input")

	ErrUserNotFound       = errors.New("user not found")
	ErrEmailTaken         = errors.New("user with this email already exists")
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrFraudulentUser     = errors.New("account is flagged as fraud")

	ErrPropertyNotFound    = errors.New("property not found")
	ErrPropertyRejected    = errors.New("rejected properties cannot be changed")
	ErrPropertySold        = errors.New("property is already sold")
	ErrPropertyUnavailable = errors.New("property is not open for offers")
	ErrCheckoutInProgress  = errors.New("a buyer is paying for this property")

	ErrWishlistNotFound  = errors.New("wishlist entry not found")
	ErrAlreadyWishlisted = errors.New("property already added to wishlist")

	ErrOfferNotFound     = errors.New("offer not found")
	ErrOfferOutOfRange   = errors.New("offer amount is outside the property price range")
	ErrDuplicateOffer    = errors.New("you already have an active offer for this property")
	ErrPropertyCommitted = errors.New("property already has an accepted offer")

	ErrInvalidTransition = errors.New("invalid status transition")

	ErrAmountMismatch      = errors.New("payment amount does not match the accepted offer")
	ErrPaymentIncomplete   = errors.New("payment has not completed")
	ErrTransactionConflict = errors.New("offer was already paid with a different transaction")

	ErrReviewNotFound = errors.New("review not found")
)
