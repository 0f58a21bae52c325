package auth

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/danielharo/rentably-backend/internal/users"
	"github.com/danielharo/rentably-backend/pkg/config"
	"github.com/danielharo/rentably-backend/pkg/db/models"
	"github.com/danielharo/rentably-backend/pkg/enums"
	pkgerrors "github.com/danielharo/rentably-backend/pkg/errors"
	"github.com/danielharo/rentably-backend/pkg/security"
)

// RegisterVendorRequest contains the payload for onboarding a vendor with
// its owner account.
type RegisterVendorRequest struct {
	FullName   string `json:"full_name" validate:"required"`
	Email      string `json:"email" validate:"required,email"`
	Password   string `json:"password" validate:"required,min=8"`
	VendorName string `json:"vendor_name" validate:"required"`
}

// RegisterCustomerRequest contains the payload for a customer signup.
type RegisterCustomerRequest struct {
	FullName string `json:"full_name" validate:"required"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=8"`
}

// RegisterService handles the onboarding transactions.
type RegisterService interface {
	RegisterVendor(ctx context.Context, req RegisterVendorRequest) error
	RegisterCustomer(ctx context.Context, req RegisterCustomerRequest) error
}

type registerUserRepository interface {
	FindByEmail(ctx context.Context, email string) (*models.User, error)
	Create(ctx context.Context, dto users.CreateUserDTO) (*models.User, error)
	CreateVendor(ctx context.Context, vendor *models.Vendor) error
	UpdateVendor(ctx context.Context, id uuid.UUID, vendorID uuid.UUID) error
}

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// RegisterServiceParams packages the dependencies for the registration flow.
type RegisterServiceParams struct {
	TxRunner        txRunner
	UserRepoFactory func(tx *gorm.DB) registerUserRepository
	PasswordConfig  config.PasswordConfig
}

type registerService struct {
	tx          txRunner
	userRepoFor func(tx *gorm.DB) registerUserRepository
	passwordCfg config.PasswordConfig
}

// NewRegisterService builds a registration service with the provided dependencies.
func NewRegisterService(params RegisterServiceParams) (RegisterService, error) {
	if params.TxRunner == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "transaction runner required")
	}
	userRepoFor := params.UserRepoFactory
	if userRepoFor == nil {
		userRepoFor = func(tx *gorm.DB) registerUserRepository {
			return users.NewRepository(tx)
		}
	}
	return &registerService{
		tx:          params.TxRunner,
		userRepoFor: userRepoFor,
		passwordCfg: params.PasswordConfig,
	}, nil
}

func (s *registerService) RegisterVendor(ctx context.Context, req RegisterVendorRequest) error {
	email, err := normalizeEmail(req.Email)
	if err != nil {
		return err
	}
	vendorName := strings.TrimSpace(req.VendorName)
	if vendorName == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "vendor name is required")
	}

	passwordHash, err := security.HashPassword(req.Password, s.passwordCfg)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "hash password")
	}

	return s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		userRepo := s.userRepoFor(tx)

		if err := ensureEmailFree(ctx, userRepo, email); err != nil {
			return err
		}

		user, err := userRepo.Create(ctx, users.CreateUserDTO{
			Email:        email,
			PasswordHash: passwordHash,
			FullName:     strings.TrimSpace(req.FullName),
			Role:         enums.UserRoleVendor,
		})
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "create user")
		}

		vendor := &models.Vendor{
			Name:        vendorName,
			OwnerUserID: user.ID,
		}
		if err := userRepo.CreateVendor(ctx, vendor); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "create vendor")
		}
		if err := userRepo.UpdateVendor(ctx, user.ID, vendor.ID); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "associate vendor with user")
		}
		return nil
	})
}

func (s *registerService) RegisterCustomer(ctx context.Context, req RegisterCustomerRequest) error {
	email, err := normalizeEmail(req.Email)
	if err != nil {
		return err
	}

	passwordHash, err := security.HashPassword(req.Password, s.passwordCfg)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "hash password")
	}

	return s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		userRepo := s.userRepoFor(tx)

		if err := ensureEmailFree(ctx, userRepo, email); err != nil {
			return err
		}

		_, err := userRepo.Create(ctx, users.CreateUserDTO{
			Email:        email,
			PasswordHash: passwordHash,
			FullName:     strings.TrimSpace(req.FullName),
			Role:         enums.UserRoleCustomer,
		})
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "create user")
		}
		return nil
	})
}

func normalizeEmail(email string) (string, error) {
	normalized := strings.ToLower(strings.TrimSpace(email))
	if normalized == "" {
		return "", pkgerrors.New(pkgerrors.CodeValidation, "email is required")
	}
	return normalized, nil
}

func ensureEmailFree(ctx context.Context, repo registerUserRepository, email string) error {
	if _, err := repo.FindByEmail(ctx, email); err == nil {
		return pkgerrors.New(pkgerrors.CodeConflict, "email already registered")
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "check user email")
	}
	return nil
}
