package products

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/danielharo/rentably-backend/pkg/db/models"
	"github.com/danielharo/rentably-backend/pkg/enums"
	pkgerrors "github.com/danielharo/rentably-backend/pkg/errors"
	"github.com/danielharo/rentably-backend/pkg/pagination"
)

// ListResult is one page of products plus the cursor for the next page.
type ListResult struct {
	Items  []models.Product `json:"items"`
	Cursor string           `json:"cursor,omitempty"`
}

// Service manages the vendor catalog of products and rentable variants.
type Service interface {
	CreateProduct(ctx context.Context, input ProductInput) (*models.Product, error)
	GetProduct(ctx context.Context, id uuid.UUID) (*models.Product, error)
	UpdateProduct(ctx context.Context, actor Actor, id uuid.UUID, input ProductInput) error
	DeleteProduct(ctx context.Context, actor Actor, id uuid.UUID) error
	ListForVendor(ctx context.Context, actor Actor, params pagination.Params) (*ListResult, error)
	// Browse lists rentable products for the public catalog.
	Browse(ctx context.Context, params pagination.Params) (*ListResult, error)

	CreateVariant(ctx context.Context, input VariantInput) (*models.ProductVariant, error)
	UpdateVariant(ctx context.Context, actor Actor, id uuid.UUID, input VariantUpdateInput) error
	DeleteVariant(ctx context.Context, actor Actor, id uuid.UUID) error
	GetVariant(ctx context.Context, id uuid.UUID) (*models.ProductVariant, error)
}

// Actor identifies who is performing an operation.
type Actor struct {
	UserID   uuid.UUID
	VendorID uuid.UUID
	Role     enums.UserRole
}

// ProductInput creates or updates a product.
type ProductInput struct {
	Actor       Actor
	Title       string
	Description *string
	IsRentable  bool
}

// VariantInput creates a variant under a product.
type VariantInput struct {
	Actor          Actor
	ProductID      uuid.UUID
	SKU            string
	Attributes     map[string]string
	Quantity       int
	UnitPriceCents int64
}

// VariantUpdateInput edits variant stock and pricing.
type VariantUpdateInput struct {
	Quantity       *int
	UnitPriceCents *int64
	Attributes     map[string]string
}

type service struct {
	repo Repository
}

// NewService builds the catalog service.
func NewService(repo Repository) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("products repository required")
	}
	return &service{repo: repo}, nil
}

func (s *service) CreateProduct(ctx context.Context, input ProductInput) (*models.Product, error) {
	if err := requireVendorActor(input.Actor); err != nil {
		return nil, err
	}
	title := strings.TrimSpace(input.Title)
	if title == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "title required")
	}

	product := &models.Product{
		VendorID:    input.Actor.VendorID,
		Title:       title,
		Description: input.Description,
		IsRentable:  input.IsRentable,
	}
	if err := s.repo.CreateProduct(ctx, product); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create product")
	}
	return product, nil
}

func (s *service) GetProduct(ctx context.Context, id uuid.UUID) (*models.Product, error) {
	product, err := s.repo.FindProduct(ctx, id)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "product not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load product")
	}
	return product, nil
}

func (s *service) UpdateProduct(ctx context.Context, actor Actor, id uuid.UUID, input ProductInput) error {
	if err := requireVendorActor(actor); err != nil {
		return err
	}
	product, err := s.GetProduct(ctx, id)
	if err != nil {
		return err
	}
	if err := authorizeVendor(actor, product.VendorID); err != nil {
		return err
	}

	title := strings.TrimSpace(input.Title)
	if title == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "title required")
	}
	updates := map[string]any{
		"title":       title,
		"description": input.Description,
		"is_rentable": input.IsRentable,
	}
	if err := s.repo.UpdateProduct(ctx, id, updates); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update product")
	}
	return nil
}

func (s *service) DeleteProduct(ctx context.Context, actor Actor, id uuid.UUID) error {
	if err := requireVendorActor(actor); err != nil {
		return err
	}
	product, err := s.GetProduct(ctx, id)
	if err != nil {
		return err
	}
	if err := authorizeVendor(actor, product.VendorID); err != nil {
		return err
	}
	if err := s.repo.DeleteProduct(ctx, id); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "delete product")
	}
	return nil
}

func (s *service) ListForVendor(ctx context.Context, actor Actor, params pagination.Params) (*ListResult, error) {
	if err := requireVendorActor(actor); err != nil {
		return nil, err
	}
	query, err := listQueryFrom(params)
	if err != nil {
		return nil, err
	}
	products, next, err := s.repo.ListByVendor(ctx, actor.VendorID, query)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list products")
	}
	return newListResult(products, next), nil
}

func (s *service) Browse(ctx context.Context, params pagination.Params) (*ListResult, error) {
	query, err := listQueryFrom(params)
	if err != nil {
		return nil, err
	}
	products, next, err := s.repo.ListRentable(ctx, query)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "browse products")
	}
	return newListResult(products, next), nil
}

func listQueryFrom(params pagination.Params) (listQuery, error) {
	query := listQuery{Limit: params.Limit}
	if params.Cursor != "" {
		cursor, err := pagination.ParseCursor(params.Cursor)
		if err != nil {
			return listQuery{}, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid cursor")
		}
		query.Cursor = cursor
	}
	return query, nil
}

func newListResult(items []models.Product, next *pagination.Cursor) *ListResult {
	result := &ListResult{Items: items}
	if next != nil {
		result.Cursor = pagination.EncodeCursor(*next)
	}
	return result
}

func (s *service) CreateVariant(ctx context.Context, input VariantInput) (*models.ProductVariant, error) {
	if err := requireVendorActor(input.Actor); err != nil {
		return nil, err
	}
	sku := strings.TrimSpace(input.SKU)
	if sku == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "sku required")
	}
	if input.Quantity < 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "quantity must not be negative")
	}
	if input.UnitPriceCents < 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "unit price must not be negative")
	}

	product, err := s.GetProduct(ctx, input.ProductID)
	if err != nil {
		return nil, err
	}
	if err := authorizeVendor(input.Actor, product.VendorID); err != nil {
		return nil, err
	}

	variant := &models.ProductVariant{
		ProductID:      product.ID,
		VendorID:       product.VendorID,
		SKU:            sku,
		Attributes:     input.Attributes,
		Quantity:       input.Quantity,
		UnitPriceCents: input.UnitPriceCents,
	}
	if err := s.repo.CreateVariant(ctx, variant); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create variant")
	}
	return variant, nil
}

func (s *service) UpdateVariant(ctx context.Context, actor Actor, id uuid.UUID, input VariantUpdateInput) error {
	if err := requireVendorActor(actor); err != nil {
		return err
	}
	variant, err := s.GetVariant(ctx, id)
	if err != nil {
		return err
	}
	if err := authorizeVendor(actor, variant.VendorID); err != nil {
		return err
	}

	updates := map[string]any{}
	if input.Quantity != nil {
		if *input.Quantity < 0 {
			return pkgerrors.New(pkgerrors.CodeValidation, "quantity must not be negative")
		}
		updates["quantity"] = *input.Quantity
	}
	if input.UnitPriceCents != nil {
		if *input.UnitPriceCents < 0 {
			return pkgerrors.New(pkgerrors.CodeValidation, "unit price must not be negative")
		}
		updates["unit_price_cents"] = *input.UnitPriceCents
	}
	if input.Attributes != nil {
		updates["attributes"] = input.Attributes
	}
	if len(updates) == 0 {
		return pkgerrors.New(pkgerrors.CodeValidation, "no fields to update")
	}
	if err := s.repo.UpdateVariant(ctx, id, updates); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update variant")
	}
	return nil
}

func (s *service) DeleteVariant(ctx context.Context, actor Actor, id uuid.UUID) error {
	if err := requireVendorActor(actor); err != nil {
		return err
	}
	variant, err := s.GetVariant(ctx, id)
	if err != nil {
		return err
	}
	if err := authorizeVendor(actor, variant.VendorID); err != nil {
		return err
	}
	if err := s.repo.DeleteVariant(ctx, id); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "delete variant")
	}
	return nil
}

func (s *service) GetVariant(ctx context.Context, id uuid.UUID) (*models.ProductVariant, error) {
	variant, err := s.repo.FindVariant(ctx, id)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "variant not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load variant")
	}
	return variant, nil
}

func requireVendorActor(actor Actor) error {
	if actor.UserID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeUnauthorized, "user identity missing")
	}
	if actor.Role != enums.UserRoleVendor && actor.Role != enums.UserRoleAdmin {
		return pkgerrors.New(pkgerrors.CodeUnauthorized, "vendor role required")
	}
	if actor.Role == enums.UserRoleVendor && actor.VendorID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeForbidden, "vendor context missing")
	}
	return nil
}

func authorizeVendor(actor Actor, ownerID uuid.UUID) error {
	if actor.Role == enums.UserRoleAdmin {
		return nil
	}
	if actor.VendorID != ownerID {
		return pkgerrors.New(pkgerrors.CodeNotFound, "product not found")
	}
	return nil
}
