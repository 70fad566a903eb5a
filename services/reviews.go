package services

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"EstateMarket/models"
	"EstateMarket/store"
	"EstateMarket/utils"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

const (
	defaultLatestReviews = 6
	maxLatestReviews     = 50
)

type ReviewService struct {
	reviews    store.ReviewStore
	properties store.PropertyStore
	users      store.UserStore
	logger     *slog.Logger
	now        func() time.Time
}

func NewReviewService(reviews store.ReviewStore, properties store.PropertyStore, users store.UserStore, logger *slog.Logger) *ReviewService {
	return &ReviewService{
		reviews:    reviews,
		properties: properties,
		users:      users,
		logger:     resolveLogger(logger),
		now:        time.Now,
	}
}

func (s *ReviewService) Create(ctx context.Context, sess Session, req models.ReviewRequest) (models.Review, error) {
	if err := sess.require(models.RoleUser); err != nil {
		return models.Review{}, err
	}
	propertyID, ok := utils.ParseObjectID(req.PropertyID)
	if !ok {
		return models.Review{}, fmt.Errorf("%w: invalid property id", ErrInvalidInput)
	}
	comment := strings.TrimSpace(req.Comment)
	if comment == "" {
		return models.Review{}, fmt.Errorf("%w: comment is required", ErrInvalidInput)
	}
	property, err := s.properties.FindByID(ctx, propertyID)
	if err != nil {
		return models.Review{}, translate(err, ErrPropertyNotFound)
	}
	if property.Status != models.PropertyVerified {
		return models.Review{}, ErrPropertyNotFound
	}
	reviewer, err := s.users.FindByEmail(ctx, sess.Email)
	if err != nil {
		return models.Review{}, translate(err, ErrUserNotFound)
	}

	rating := req.Rating
	if rating == 0 {
		rating = models.DefaultReviewRating
	}
	review := models.Review{
		PropertyID:    property.ID,
		PropertyTitle: property.Title,
		AgentName:     property.AgentName,
		AgentEmail:    property.AgentEmail,
		Reviewer:      reviewer.Name,
		ReviewerEmail: reviewer.Email,
		ReviewerImage: reviewer.Image,
		Comment:       comment,
		Rating:        rating,
		Date:          s.now().UTC(),
	}
	if err := s.reviews.Create(ctx, &review); err != nil {
		return models.Review{}, fmt.Errorf("create review: %w", err)
	}
	s.logger.Info("review posted",
		"event", "review_posted",
		"module", "services/reviews",
		"review_id", review.ID.Hex(),
		"property_id", property.ID.Hex(),
	)
	return review, nil
}

func (s *ReviewService) ListByProperty(ctx context.Context, propertyID primitive.ObjectID) ([]models.Review, error) {
	return s.reviews.List(ctx, store.ReviewQuery{PropertyID: propertyID})
}

func (s *ReviewService) Latest(ctx context.Context, limit int) ([]models.Review, error) {
	if limit < 1 {
		limit = defaultLatestReviews
	}
	if limit > maxLatestReviews {
		limit = maxLatestReviews
	}
	return s.reviews.List(ctx, store.ReviewQuery{Limit: limit})
}

func (s *ReviewService) ListMine(ctx context.Context, sess Session, email string) ([]models.Review, error) {
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
	return s.reviews.List(ctx, store.ReviewQuery{ReviewerEmail: email})
}

func (s *ReviewService) ListAll(ctx context.Context, sess Session) ([]models.Review, error) {
	if err := sess.require(models.RoleAdmin); err != nil {
		return nil, err
	}
	return s.reviews.List(ctx, store.ReviewQuery{})
}

// Delete removes a review. Only its author or an admin may do so.
func (s *ReviewService) Delete(ctx context.Context, sess Session, id primitive.ObjectID) error {
	if !sess.Authenticated() {
		return ErrUnauthenticated
	}
	review, err := s.reviews.FindByID(ctx, id)
	if err != nil {
		return translate(err, ErrReviewNotFound)
	}
	if !sess.OwnsOrAdmin(review.ReviewerEmail) {
		return ErrForbidden
	}
	if err := s.reviews.Delete(ctx, id); err != nil {
		return translate(err, ErrReviewNotFound)
	}
	s.logger.Info("review deleted",
		"event", "review_deleted",
		"module", "services/reviews",
		"review_id", id.Hex(),
		"by", sess.Email,
	)
	return nil
}
