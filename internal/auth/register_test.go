package auth

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/danielharo/rentably-backend/internal/users"
	"github.com/danielharo/rentably-backend/pkg/config"
	"github.com/danielharo/rentably-backend/pkg/db/models"
	"github.com/danielharo/rentably-backend/pkg/enums"
	pkgerrors "github.com/danielharo/rentably-backend/pkg/errors"
)

type stubTxRunner struct{}

func (stubTxRunner) WithTx(_ context.Context, fn func(tx *gorm.DB) error) error {
	return fn(nil)
}

type stubRegisterRepo struct {
	byEmail       map[string]*models.User
	createdUser   *models.User
	createdVendor *models.Vendor
	linkedVendor  uuid.UUID
}

func newStubRegisterRepo() *stubRegisterRepo {
	return &stubRegisterRepo{byEmail: map[string]*models.User{}}
}

func (s *stubRegisterRepo) FindByEmail(_ context.Context, email string) (*models.User, error) {
	if user, ok := s.byEmail[email]; ok {
		return user, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (s *stubRegisterRepo) Create(_ context.Context, dto users.CreateUserDTO) (*models.User, error) {
	user := dto.ToModel()
	user.ID = uuid.New()
	s.byEmail[dto.Email] = user
	s.createdUser = user
	return user, nil
}

func (s *stubRegisterRepo) CreateVendor(_ context.Context, vendor *models.Vendor) error {
	vendor.ID = uuid.New()
	s.createdVendor = vendor
	return nil
}

func (s *stubRegisterRepo) UpdateVendor(_ context.Context, _ uuid.UUID, vendorID uuid.UUID) error {
	s.linkedVendor = vendorID
	return nil
}

func newRegisterSetup(t *testing.T) (RegisterService, *stubRegisterRepo) {
	t.Helper()
	repo := newStubRegisterRepo()
	svc, err := NewRegisterService(RegisterServiceParams{
		TxRunner: stubTxRunner{},
		UserRepoFactory: func(tx *gorm.DB) registerUserRepository {
			return repo
		},
		PasswordConfig: config.PasswordConfig{},
	})
	if err != nil {
		t.Fatalf("new register service: %v", err)
	}
	return svc, repo
}

func TestRegisterVendorCreatesUserAndVendor(t *testing.T) {
	svc, repo := newRegisterSetup(t)

	err := svc.RegisterVendor(context.Background(), RegisterVendorRequest{
		FullName:   "Jamie Rivera",
		Email:      "  Jamie@Example.com ",
		Password:   "Secret123!",
		VendorName: "Rivera Rentals",
	})
	if err != nil {
		t.Fatalf("register vendor failed: %v", err)
	}

	if repo.createdUser == nil {
		t.Fatal("expected user to be created")
	}
	if repo.createdUser.Email != "jamie@example.com" {
		t.Fatalf("email not normalized: %s", repo.createdUser.Email)
	}
	if repo.createdUser.Role != enums.UserRoleVendor {
		t.Fatalf("expected vendor role, got %s", repo.createdUser.Role)
	}
	if repo.createdUser.PasswordHash == "Secret123!" {
		t.Fatal("password stored in plain text")
	}
	if repo.createdVendor == nil {
		t.Fatal("expected vendor to be created")
	}
	if repo.createdVendor.OwnerUserID != repo.createdUser.ID {
		t.Fatal("vendor owner mismatch")
	}
	if repo.linkedVendor != repo.createdVendor.ID {
		t.Fatal("user not linked to vendor")
	}
}

func TestRegisterVendorRejectsDuplicateEmail(t *testing.T) {
	svc, repo := newRegisterSetup(t)
	repo.byEmail["taken@example.com"] = &models.User{ID: uuid.New(), Email: "taken@example.com"}

	err := svc.RegisterVendor(context.Background(), RegisterVendorRequest{
		FullName:   "Jamie",
		Email:      "taken@example.com",
		Password:   "Secret123!",
		VendorName: "Rentals",
	})
	if err == nil || pkgerrors.As(err).Code() != pkgerrors.CodeConflict {
		t.Fatalf("expected CONFLICT, got %v", err)
	}
}

func TestRegisterVendorValidation(t *testing.T) {
	svc, _ := newRegisterSetup(t)

	err := svc.RegisterVendor(context.Background(), RegisterVendorRequest{
		FullName: "Jamie", Email: "", Password: "Secret123!", VendorName: "Rentals",
	})
	if err == nil || pkgerrors.As(err).Code() != pkgerrors.CodeValidation {
		t.Fatalf("expected VALIDATION_ERROR, got %v", err)
	}

	err = svc.RegisterVendor(context.Background(), RegisterVendorRequest{
		FullName: "Jamie", Email: "a@b.com", Password: "Secret123!", VendorName: "   ",
	})
	if err == nil || pkgerrors.As(err).Code() != pkgerrors.CodeValidation {
		t.Fatalf("expected VALIDATION_ERROR, got %v", err)
	}
}

func TestRegisterCustomerCreatesCustomerRole(t *testing.T) {
	svc, repo := newRegisterSetup(t)

	err := svc.RegisterCustomer(context.Background(), RegisterCustomerRequest{
		FullName: "Casey Customer",
		Email:    "casey@example.com",
		Password: "Secret123!",
	})
	if err != nil {
		t.Fatalf("register customer failed: %v", err)
	}
	if repo.createdUser == nil || repo.createdUser.Role != enums.UserRoleCustomer {
		t.Fatal("expected customer user")
	}
	if repo.createdVendor != nil {
		t.Fatal("customer signup must not create a vendor")
	}
}
