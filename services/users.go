package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"EstateMarket/models"
	"EstateMarket/store"
	"EstateMarket/utils"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type UserService struct {
	users    store.UserStore
	wishlist store.WishlistStore
	offers   store.OfferStore
	reviews  store.ReviewStore
	listings *PropertyService
	tokens   *utils.JWTManager
	logger   *slog.Logger
	now      func() time.Time
}

func NewUserService(
	users store.UserStore,
	wishlist store.WishlistStore,
	offers store.OfferStore,
	reviews store.ReviewStore,
	listings *PropertyService,
	tokens *utils.JWTManager,
	logger *slog.Logger,
) *UserService {
	return &UserService{
		users:    users,
		wishlist: wishlist,
		offers:   offers,
		reviews:  reviews,
		listings: listings,
		tokens:   tokens,
		logger:   resolveLogger(logger),
		now:      time.Now,
	}
}

func (s *UserService) Register(ctx context.Context, req models.RegisterRequest) (models.LoginResponse, error) {
	email := utils.NormalizeEmail(req.Email)
	if email == "" || len(req.Password) < 6 || strings.TrimSpace(req.Name) == "" {
		return models.LoginResponse{}, fmt.Errorf("%w: email, name and a password of at least 6 characters are required", ErrInvalidInput)
	}
	if _, err := s.users.FindByEmail(ctx, email); err == nil {
		return models.LoginResponse{}, ErrEmailTaken
	} else if !errors.Is(err, store.ErrNotFound) {
		return models.LoginResponse{}, fmt.Errorf("lookup user: %w", err)
	}

	hashed, err := utils.HashPassword(req.Password)
	if err != nil {
		return models.LoginResponse{}, fmt.Errorf("hash password: %w", err)
	}
	now := s.now().UTC()
	user := models.User{
		Email:     email,
		Password:  hashed,
		Name:      strings.TrimSpace(req.Name),
		Image:     strings.TrimSpace(req.Image),
		Role:      models.RoleUser,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.users.Create(ctx, &user); err != nil {
		if errors.Is(err, store.ErrDuplicate) {
			return models.LoginResponse{}, ErrEmailTaken
		}
		return models.LoginResponse{}, fmt.Errorf("create user: %w", err)
	}
	s.logger.Info("user registered", "event", "user_registered", "module", "services/users", "user_id", user.ID.Hex())
	return s.issue(user)
}

func (s *UserService) Login(ctx context.Context, req models.LoginRequest) (models.LoginResponse, error) {
	user, err := s.users.FindByEmail(ctx, utils.NormalizeEmail(req.Email))
	if errors.Is(err, store.ErrNotFound) {
		return models.LoginResponse{}, ErrInvalidCredentials
	}
	if err != nil {
		return models.LoginResponse{}, fmt.Errorf("lookup user: %w", err)
	}
	if err := utils.CheckPassword(user.Password, req.Password); err != nil {
		return models.LoginResponse{}, ErrInvalidCredentials
	}
	return s.issue(user)
}

func (s *UserService) issue(user models.User) (models.LoginResponse, error) {
	token, err := s.tokens.GenerateJWT(user.ID, user.Email, user.Role)
	if err != nil {
		return models.LoginResponse{}, fmt.Errorf("generate token: %w", err)
	}
	user.Password = ""
	return models.LoginResponse{Token: token, User: user}, nil
}

// GetRole answers the dashboard's role lookup for the caller or, for admins,
// any user.
func (s *UserService) GetRole(ctx context.Context, sess Session, email string) (models.RoleResponse, error) {
	email = utils.NormalizeEmail(email)
	if !sess.OwnsOrAdmin(email) {
		if !sess.Authenticated() {
			return models.RoleResponse{}, ErrUnauthenticated
		}
		return models.RoleResponse{}, ErrForbidden
	}
	user, err := s.users.FindByEmail(ctx, email)
	if err != nil {
		return models.RoleResponse{}, translate(err, ErrUserNotFound)
	}
	return models.RoleResponse{Email: user.Email, Role: user.Role}, nil
}

func (s *UserService) Me(ctx context.Context, sess Session) (models.User, error) {
	if !sess.Authenticated() {
		return models.User{}, ErrUnauthenticated
	}
	user, err := s.users.FindByID(ctx, sess.UserID)
	if err != nil {
		return models.User{}, translate(err, ErrUserNotFound)
	}
	return user, nil
}

func (s *UserService) UpdateMe(ctx context.Context, sess Session, req models.UpdateUserRequest) (models.User, error) {
	if !sess.Authenticated() {
		return models.User{}, ErrUnauthenticated
	}
	return s.updateProfile(ctx, sess.UserID, req)
}

func (s *UserService) List(ctx context.Context, sess Session) ([]models.User, error) {
	if err := sess.require(models.RoleAdmin); err != nil {
		return nil, err
	}
	return s.users.List(ctx)
}

func (s *UserService) Get(ctx context.Context, sess Session, id primitive.ObjectID) (models.User, error) {
	if err := sess.require(models.RoleAdmin); err != nil {
		return models.User{}, err
	}
	user, err := s.users.FindByID(ctx, id)
	if err != nil {
		return models.User{}, translate(err, ErrUserNotFound)
	}
	return user, nil
}

func (s *UserService) Update(ctx context.Context, sess Session, id primitive.ObjectID, req models.UpdateUserRequest) (models.User, error) {
	if err := sess.require(models.RoleAdmin); err != nil {
		return models.User{}, err
	}
	return s.updateProfile(ctx, id, req)
}

func (s *UserService) updateProfile(ctx context.Context, id primitive.ObjectID, req models.UpdateUserRequest) (models.User, error) {
	var update store.UserUpdate
	if name := strings.TrimSpace(req.Name); name != "" {
		update.Name = &name
	}
	if image := strings.TrimSpace(req.Image); image != "" {
		update.Image = &image
	}
	user, err := s.users.Update(ctx, id, update)
	if err != nil {
		return models.User{}, translate(err, ErrUserNotFound)
	}
	return user, nil
}

// SetRole changes a user's role. Fraud-flagged users keep the role they had.
func (s *UserService) SetRole(ctx context.Context, sess Session, id primitive.ObjectID, raw string) (models.User, error) {
	if err := sess.require(models.RoleAdmin); err != nil {
		return models.User{}, err
	}
	role, err := models.ParseRole(raw)
	if err != nil || !role.Assignable() {
		return models.User{}, fmt.Errorf("%w: role must be user, agent or admin", ErrInvalidInput)
	}
	if id == sess.UserID {
		return models.User{}, fmt.Errorf("%w: admins cannot change their own role", ErrForbidden)
	}
	target, err := s.users.FindByID(ctx, id)
	if err != nil {
		return models.User{}, translate(err, ErrUserNotFound)
	}
	if target.Fraud {
		return models.User{}, ErrFraudulentUser
	}
	user, err := s.users.Update(ctx, id, store.UserUpdate{Role: &role})
	if err != nil {
		return models.User{}, translate(err, ErrUserNotFound)
	}
	s.logger.Info("user role changed",
		"event", "user_role_changed",
		"module", "services/users",
		"user_id", id.Hex(),
		"from", target.Role,
		"to", role,
	)
	return user, nil
}

// MarkFraud flags a user and removes every listing they published.
func (s *UserService) MarkFraud(ctx context.Context, sess Session, id primitive.ObjectID) (models.User, error) {
	if err := sess.require(models.RoleAdmin); err != nil {
		return models.User{}, err
	}
	target, err := s.users.FindByID(ctx, id)
	if err != nil {
		return models.User{}, translate(err, ErrUserNotFound)
	}
	if target.Role == models.RoleAdmin {
		return models.User{}, fmt.Errorf("%w: admins cannot be marked as fraud", ErrForbidden)
	}
	fraud := true
	user, err := s.users.Update(ctx, id, store.UserUpdate{Fraud: &fraud})
	if err != nil {
		return models.User{}, translate(err, ErrUserNotFound)
	}
	removed, err := s.listings.PurgeAgentListings(ctx, user.Email)
	if err != nil {
		return models.User{}, fmt.Errorf("remove fraud listings: %w", err)
	}
	s.logger.Warn("user marked as fraud",
		"event", "user_marked_fraud",
		"module", "services/users",
		"user_id", id.Hex(),
		"listings_removed", removed,
	)
	return user, nil
}

// Delete removes a user together with everything they own: listings,
// wishlist entries, reviews, and pending offers they made as a buyer.
func (s *UserService) Delete(ctx context.Context, sess Session, id primitive.ObjectID) error {
	if err := sess.require(models.RoleAdmin); err != nil {
		return err
	}
	if id == sess.UserID {
		return fmt.Errorf("%w: admins cannot delete themselves", ErrForbidden)
	}
	target, err := s.users.FindByID(ctx, id)
	if err != nil {
		return translate(err, ErrUserNotFound)
	}

	listings, err := s.listings.PurgeAgentListings(ctx, target.Email)
	if err != nil {
		return fmt.Errorf("remove listings: %w", err)
	}
	wishlisted, err := s.wishlist.DeleteByUser(ctx, target.Email)
	if err != nil {
		return fmt.Errorf("remove wishlist: %w", err)
	}
	offers, err := s.offers.RejectMatching(ctx, store.OfferQuery{
		BuyerEmail: target.Email,
		Statuses:   []models.OfferStatus{models.OfferPending},
	}, primitive.NilObjectID)
	if err != nil {
		return fmt.Errorf("reject pending offers: %w", err)
	}
	reviews, err := s.reviews.DeleteByReviewer(ctx, target.Email)
	if err != nil {
		return fmt.Errorf("remove reviews: %w", err)
	}
	if err := s.users.Delete(ctx, id); err != nil {
		return translate(err, ErrUserNotFound)
	}
	s.logger.Info("user deleted",
		"event", "user_deleted",
		"module", "services/users",
		"user_id", id.Hex(),
		"listings_removed", listings,
		"wishlist_removed", wishlisted,
		"offers_rejected", offers,
		"reviews_removed", reviews,
	)
	return nil
}
