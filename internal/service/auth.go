package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/crypto/bcrypt"

	"github.com/morabagipravin/task-manager-api/internal/apperrors"
	"github.com/morabagipravin/task-manager-api/internal/auth"
	"github.com/morabagipravin/task-manager-api/internal/config"
	"github.com/morabagipravin/task-manager-api/internal/models"
	"github.com/morabagipravin/task-manager-api/internal/repository"
	"github.com/morabagipravin/task-manager-api/internal/storage"
)

const minPasswordLength = 6

// AuthService handles registration, authentication, and token issuance.
type AuthService struct {
	repo     *repository.Repository
	files    *storage.FileStore
	log      *logrus.Logger
	secret   []byte
	tokenTTL time.Duration
}

// NewAuthService initializes a new auth service
func NewAuthService(repo *repository.Repository, files *storage.FileStore, log *logrus.Logger, cfg *config.Config) *AuthService {
	return &AuthService{
		repo:     repo,
		files:    files,
		log:      log,
		secret:   []byte(cfg.JWTSecret),
		tokenTTL: cfg.TokenTTL,
	}
}

// ProfileUpdate is the closed set of updatable profile fields.
type ProfileUpdate struct {
	Username *string
	Email    *string
	Password *string
}

// Register creates a new user with a hashed password and mints a token.
func (s *AuthService) Register(ctx context.Context, username, email, password string) (*models.User, string, error) {
	username = strings.TrimSpace(username)
	email = strings.TrimSpace(email)
	if username == "" || email == "" || password == "" {
		return nil, "", apperrors.Validation("username, email, and password are required")
	}
	if len(password) < minPasswordLength {
		return nil, "", apperrors.Validation("password must be at least 6 characters long")
	}

	exists, err := s.repo.UserExists(ctx, email, username)
	if err != nil {
		return nil, "", err
	}
	if exists {
		return nil, "", apperrors.ErrUserExists
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, "", apperrors.Storagef("failed to hash password: %v", err)
	}

	user := &models.User{
		Username:     username,
		Email:        email,
		PasswordHash: string(hashedPassword),
	}
	if err := s.repo.CreateUser(ctx, user); err != nil {
		return nil, "", err
	}

	token, err := auth.GenerateToken(user.ID, s.secret, s.tokenTTL)
	if err != nil {
		return nil, "", apperrors.Storagef("failed to generate token: %v", err)
	}

	s.log.Infof("User registered: %s", user.Email)
	return user, token, nil
}

// Login authenticates a user by email or username. A missing user and a wrong
// password are indistinguishable to the caller.
func (s *AuthService) Login(ctx context.Context, identifier, password string) (*models.User, string, error) {
	identifier = strings.TrimSpace(identifier)
	if identifier == "" || password == "" {
		return nil, "", apperrors.Validation("email/username and password are required")
	}

	user, err := s.repo.FindUserByLogin(ctx, identifier)
	if err != nil {
		if errors.Is(err, apperrors.ErrUserNotFound) {
			return nil, "", apperrors.ErrInvalidCredentials
		}
		return nil, "", err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return nil, "", apperrors.ErrInvalidCredentials
	}

	token, err := auth.GenerateToken(user.ID, s.secret, s.tokenTTL)
	if err != nil {
		return nil, "", apperrors.Storagef("failed to generate token: %v", err)
	}

	s.log.Infof("User logged in: %s", user.Email)
	return user, token, nil
}

// VerifyToken checks signature and expiry and returns the claims. Pure, no
// store access.
func (s *AuthService) VerifyToken(tokenString string) (*auth.Claims, error) {
	return auth.ParseToken(tokenString, s.secret)
}

// RefreshToken mints a new token for an already-authenticated caller. The
// prior token stays valid until it expires.
func (s *AuthService) RefreshToken(userID int64) (string, error) {
	token, err := auth.GenerateToken(userID, s.secret, s.tokenTTL)
	if err != nil {
		return "", apperrors.Storagef("failed to generate token: %v", err)
	}
	return token, nil
}

// GetUser retrieves a user by id.
func (s *AuthService) GetUser(ctx context.Context, userID int64) (*models.User, error) {
	return s.repo.FindUserByID(ctx, userID)
}

// UpdateProfile applies the supplied profile fields, re-hashing the password
// when present.
func (s *AuthService) UpdateProfile(ctx context.Context, userID int64, upd ProfileUpdate) (*models.User, error) {
	repoUpd := repository.UserUpdate{}

	if upd.Username != nil {
		username := strings.TrimSpace(*upd.Username)
		if username == "" {
			return nil, apperrors.Validation("username cannot be empty")
		}
		repoUpd.Username = &username
	}
	if upd.Email != nil {
		email := strings.TrimSpace(*upd.Email)
		if email == "" {
			return nil, apperrors.Validation("email cannot be empty")
		}
		repoUpd.Email = &email
	}
	if upd.Password != nil {
		if len(*upd.Password) < minPasswordLength {
			return nil, apperrors.Validation("password must be at least 6 characters long")
		}
		hashedPassword, err := bcrypt.GenerateFromPassword([]byte(*upd.Password), bcrypt.DefaultCost)
		if err != nil {
			return nil, apperrors.Storagef("failed to hash password: %v", err)
		}
		hash := string(hashedPassword)
		repoUpd.PasswordHash = &hash
	}

	if repoUpd.Empty() {
		return nil, apperrors.Validation("no fields to update")
	}

	updated, err := s.repo.UpdateUser(ctx, userID, repoUpd)
	if err != nil {
		return nil, err
	}
	if !updated {
		return nil, apperrors.ErrUserNotFound
	}

	s.log.Infof("Profile updated for user %d", userID)
	return s.repo.FindUserByID(ctx, userID)
}

// DeleteAccount hard-deletes the user; owned tasks cascade in the database
// and their attachment files are removed best-effort.
func (s *AuthService) DeleteAccount(ctx context.Context, userID int64) error {
	lists, err := s.repo.AttachmentsByUser(ctx, userID)
	if err != nil {
		return err
	}
	for _, list := range lists {
		s.files.Remove(list)
	}

	deleted, err := s.repo.DeleteUser(ctx, userID)
	if err != nil {
		return err
	}
	if !deleted {
		return apperrors.ErrUserNotFound
	}

	s.log.Infof("Account deleted for user %d", userID)
	return nil
}
