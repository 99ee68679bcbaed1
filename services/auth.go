package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"storefront/models"
	"storefront/repository"
	"storefront/utils"
)

type AuthService struct {
	store  repository.Store
	hasher *utils.PasswordHasher
	tokens *utils.TokenManager
	logger *slog.Logger
	now    func() time.Time
}

func NewAuthService(store repository.Store, hasher *utils.PasswordHasher, tokens *utils.TokenManager, logger *slog.Logger) *AuthService {
	return &AuthService{store: store, hasher: hasher, tokens: tokens, logger: logger, now: time.Now}
}

// Register creates an account. Accounts default to the shopkeeper role.
func (s *AuthService) Register(ctx context.Context, req models.RegisterReq) (*models.Account, error) {
	email := models.NormalizeEmail(req.Email)
	if email == "" {
		return nil, validationError("email is required")
	}
	if len(req.Password) < 6 {
		return nil, validationError("password must be at least 6 characters")
	}
	role := req.Role
	if role == "" {
		role = models.RoleShopkeeper
	}
	if !role.Valid() {
		return nil, validationError("invalid role, must be shopkeeper or customer")
	}

	hash, err := s.hasher.Hash(req.Password)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	acct := &models.Account{
		ID:           uuid.NewString(),
		Email:        email,
		PasswordHash: hash,
		Role:         role,
		CreatedAt:    s.now().UTC(),
		ProductIDs:   []string{},
		SaleIDs:      []string{},
		Cart:         []models.CartItem{},
	}
	if err := s.store.CreateAccount(ctx, acct); err != nil {
		if errors.Is(err, models.ErrConflict) {
			return nil, fmt.Errorf("%w: user already exists", models.ErrConflict)
		}
		return nil, err
	}

	s.logger.InfoContext(ctx, "account_registered", "account_id", acct.ID, "role", acct.Role)
	return acct, nil
}

// Login verifies the credentials and issues a session token.
func (s *AuthService) Login(ctx context.Context, req models.LoginReq) (string, *models.Account, error) {
	invalid := fmt.Errorf("%w: invalid email or password", models.ErrUnauthorized)

	acct, err := s.store.AccountByEmail(ctx, models.NormalizeEmail(req.Email))
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			return "", nil, invalid
		}
		return "", nil, err
	}
	if !s.hasher.Verify(req.Password, acct.PasswordHash) {
		s.logger.InfoContext(ctx, "login_rejected", "account_id", acct.ID)
		return "", nil, invalid
	}

	token, err := s.tokens.GenerateJWTToken(models.Identity{AccountID: acct.ID, Role: acct.Role})
	if err != nil {
		return "", nil, fmt.Errorf("sign token: %w", err)
	}
	return token, acct, nil
}

func (s *AuthService) Me(ctx context.Context, id models.Identity) (*models.Account, error) {
	return s.store.AccountByID(ctx, id.AccountID)
}
