package services

import (
	"context"
	"net/mail"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"golang.org/x/crypto/bcrypt"

	"github.com/coolwednesday/bookstore-go-app/internal/apperr"
	"github.com/coolwednesday/bookstore-go-app/internal/models"
)

// UserService handles registration, login and token resolution. Sessions are
// opaque tokens stored server side with an expiry.
type UserService struct {
	users      UserStore
	bcryptCost int
	sessionTTL time.Duration
}

// NewUserService creates a new user service
func NewUserService(users UserStore, bcryptCost int, sessionTTL time.Duration) *UserService {
	return &UserService{users: users, bcryptCost: bcryptCost, sessionTTL: sessionTTL}
}

// Register creates an account with the USER role.
func (s *UserService) Register(ctx context.Context, req models.RegisterRequest) (*models.User, error) {
	if _, err := mail.ParseAddress(req.Email); err != nil {
		return nil, apperr.InvalidArgument("invalid email address %q", req.Email)
	}
	if len(req.Password) < 6 {
		return nil, apperr.InvalidArgument("password must be at least 6 characters")
	}
	if req.Password != req.RepeatPassword {
		return nil, apperr.InvalidArgument("passwords do not match")
	}

	existing, err := s.users.FindByEmail(ctx, req.Email)
	if err != nil {
		return nil, apperr.Storage("failed to check email", err)
	}
	if existing != nil {
		return nil, apperr.AlreadyExists("user with email %s already exists", req.Email)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), s.bcryptCost)
	if err != nil {
		return nil, apperr.Storage("failed to hash password", err)
	}

	user := &models.User{
		Email:           req.Email,
		PasswordHash:    string(hash),
		FirstName:       req.FirstName,
		LastName:        req.LastName,
		ShippingAddress: req.ShippingAddress,
	}

	id, err := s.users.Insert(ctx, user, models.RoleUser)
	if err != nil {
		// two concurrent registrations can pass the FindByEmail check
		if isDuplicateEntry(err) {
			return nil, apperr.AlreadyExists("user with email %s already exists", req.Email)
		}
		return nil, apperr.Storage("failed to create user", err)
	}

	created, err := s.users.FindByID(ctx, id)
	if err != nil {
		return nil, apperr.Storage("failed to load user", err)
	}
	if created == nil {
		return nil, apperr.Storage("failed to load user", nil)
	}

	log.Info().Int64("user_id", created.ID).Str("email", created.Email).Msg("User registered")
	return created, nil
}

// Login verifies credentials and issues a session token.
func (s *UserService) Login(ctx context.Context, req models.LoginRequest) (string, error) {
	user, err := s.users.FindByEmail(ctx, req.Email)
	if err != nil {
		return "", apperr.Storage("failed to load user", err)
	}
	if user == nil {
		return "", apperr.Unauthenticated("invalid email or password")
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)); err != nil {
		return "", apperr.Unauthenticated("invalid email or password")
	}

	session := models.Session{
		Token:     uuid.New().String(),
		UserID:    user.ID,
		ExpiresAt: time.Now().Add(s.sessionTTL),
	}
	if err := s.users.CreateSession(ctx, session); err != nil {
		return "", apperr.Storage("failed to create session", err)
	}

	log.Info().Int64("user_id", user.ID).Msg("User logged in")
	return session.Token, nil
}

// Authenticate resolves a session token to its user.
func (s *UserService) Authenticate(ctx context.Context, token string) (*models.User, error) {
	if token == "" {
		return nil, apperr.Unauthenticated("missing session token")
	}

	user, err := s.users.FindSessionUser(ctx, token)
	if err != nil {
		return nil, apperr.Storage("failed to resolve session", err)
	}
	if user == nil {
		return nil, apperr.Unauthenticated("invalid or expired session token")
	}
	return user, nil
}
