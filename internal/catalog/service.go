package catalog

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	pkgerrors "github.com/freshlane/marketplace-backend/pkg/errors"
	"github.com/freshlane/marketplace-backend/pkg/enums"
	"github.com/freshlane/marketplace-backend/pkg/db/models"
	"github.com/freshlane/marketplace-backend/pkg/pagination"
)

// Service exposes catalog management for admins and sellers.
type Service interface {
	CreateProduct(ctx context.Context, input CreateProductInput) (*ProductDTO, error)
	UpdateProduct(ctx context.Context, productID uuid.UUID, input UpdateProductInput) (*ProductDTO, error)
	DeactivateProduct(ctx context.Context, productID uuid.UUID) error
	GetProduct(ctx context.Context, productID uuid.UUID) (*ProductDTO, error)
	ListProducts(ctx context.Context, input ListProductsInput) (*ListProductsResult, error)

	CreateOffer(ctx context.Context, sellerID uuid.UUID, input CreateOfferInput) (*OfferDTO, error)
	UpdateOffer(ctx context.Context, sellerID, offerID uuid.UUID, input UpdateOfferInput) (*OfferDTO, error)
	ListSellerOffers(ctx context.Context, sellerID uuid.UUID) ([]OfferDTO, error)
}

// CreateProductInput holds the validated payload to create a catalog product.
// LegacyPricePaise is the static display price shown when no seller offer is
// currently sellable.
type CreateProductInput struct {
	Name             string
	SKU              *string
	Category         string
	Subcategory      *string
	Unit             enums.ProductUnit
	Description      *string
	ImageURL         *string
	GSTRate          decimal.Decimal
	HSNCode          *string
	LegacyPricePaise *int64
	IsActive         bool
}

// UpdateProductInput holds optional mutation values for a product.
type UpdateProductInput struct {
	Name             *string
	SKU              *string
	Category         *string
	Subcategory      *string
	Unit             *enums.ProductUnit
	Description      *string
	ImageURL         *string
	GSTRate          *decimal.Decimal
	HSNCode          *string
	LegacyPricePaise *int64
	IsActive         *bool
}

// ListProductsInput drives the public browse query.
type ListProductsInput struct {
	Limit       int
	Cursor      string
	Category    string
	Subcategory string
	Query       string
}

// ListProductsResult is one browse page.
type ListProductsResult struct {
	Products   []ProductDTO `json:"products"`
	NextCursor string       `json:"next_cursor,omitempty"`
}

// CreateOfferInput holds the payload for a seller listing a product.
type CreateOfferInput struct {
	ProductID       uuid.UUID
	PricePaise      int64
	UnitValue       decimal.Decimal
	UnitMeasure     string
	Stock           int
	MinOrderQty     int
	MaxOrderQty     int
	DeliveryDays    int
	DiscountPercent decimal.Decimal
}

// UpdateOfferInput holds optional mutation values for an offer. Stock here is
// an absolute restock value set by the seller, not a delta.
type UpdateOfferInput struct {
	PricePaise      *int64
	Stock           *int
	IsActive        *bool
	MinOrderQty     *int
	MaxOrderQty     *int
	DeliveryDays    *int
	DiscountPercent *decimal.Decimal
}

type eligibilityChecker interface {
	IsEligibleToSell(ctx context.Context, sellerID uuid.UUID) (bool, error)
}

type service struct {
	repo        *Repository
	eligibility eligibilityChecker
}

// NewService constructs a catalog service instance.
func NewService(repo *Repository, eligibility eligibilityChecker) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("catalog repository required")
	}
	if eligibility == nil {
		return nil, fmt.Errorf("eligibility checker required")
	}
	return &service{repo: repo, eligibility: eligibility}, nil
}

// CreateProduct inserts an admin catalog entry.
func (s *service) CreateProduct(ctx context.Context, input CreateProductInput) (*ProductDTO, error) {
	if strings.TrimSpace(input.Name) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "name is required")
	}
	if strings.TrimSpace(input.Category) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "category is required")
	}
	if !input.Unit.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid unit")
	}
	if input.GSTRate.IsNegative() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "gst_rate cannot be negative")
	}
	if input.LegacyPricePaise != nil && *input.LegacyPricePaise <= 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "legacy_price_paise must be positive")
	}

	product := &models.Product{
		Name:             strings.TrimSpace(input.Name),
		SKU:              input.SKU,
		Category:         input.Category,
		Subcategory:      input.Subcategory,
		Unit:             input.Unit,
		Description:      input.Description,
		ImageURL:         input.ImageURL,
		GSTRate:          input.GSTRate,
		HSNCode:          input.HSNCode,
		LegacyPricePaise: input.LegacyPricePaise,
		IsActive:         input.IsActive,
	}

	created, err := s.repo.CreateProduct(ctx, product)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: insert product")
	}
	return toProductDTO(created), nil
}

// UpdateProduct applies the provided fields to an existing product.
func (s *service) UpdateProduct(ctx context.Context, productID uuid.UUID, input UpdateProductInput) (*ProductDTO, error) {
	product, err := s.repo.FindProduct(ctx, productID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "product not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: load product")
	}

	if input.Name != nil {
		if strings.TrimSpace(*input.Name) == "" {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "name cannot be empty")
		}
		product.Name = strings.TrimSpace(*input.Name)
	}
	if input.SKU != nil {
		product.SKU = input.SKU
	}
	if input.Category != nil {
		product.Category = *input.Category
	}
	if input.Subcategory != nil {
		product.Subcategory = input.Subcategory
	}
	if input.Unit != nil {
		if !input.Unit.IsValid() {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid unit")
		}
		product.Unit = *input.Unit
	}
	if input.Description != nil {
		product.Description = input.Description
	}
	if input.ImageURL != nil {
		product.ImageURL = input.ImageURL
	}
	if input.GSTRate != nil {
		if input.GSTRate.IsNegative() {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "gst_rate cannot be negative")
		}
		product.GSTRate = *input.GSTRate
	}
	if input.HSNCode != nil {
		product.HSNCode = input.HSNCode
	}
	if input.LegacyPricePaise != nil {
		if *input.LegacyPricePaise <= 0 {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "legacy_price_paise must be positive")
		}
		product.LegacyPricePaise = input.LegacyPricePaise
	}
	if input.IsActive != nil {
		product.IsActive = *input.IsActive
	}

	updated, err := s.repo.UpdateProduct(ctx, product)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: update product")
	}
	return toProductDTO(updated), nil
}

// DeactivateProduct soft-removes a product from the public catalog.
func (s *service) DeactivateProduct(ctx context.Context, productID uuid.UUID) error {
	product, err := s.repo.FindProduct(ctx, productID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return pkgerrors.New(pkgerrors.CodeNotFound, "product not found")
		}
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: load product")
	}
	if !product.IsActive {
		return nil
	}
	product.IsActive = false
	if _, err := s.repo.UpdateProduct(ctx, product); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: deactivate product")
	}
	return nil
}

// GetProduct loads a single product.
func (s *service) GetProduct(ctx context.Context, productID uuid.UUID) (*ProductDTO, error) {
	product, err := s.repo.FindProduct(ctx, productID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "product not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: load product")
	}
	return toProductDTO(product), nil
}

// ListProducts returns one cursor page of active products.
func (s *service) ListProducts(ctx context.Context, input ListProductsInput) (*ListProductsResult, error) {
	page, err := s.repo.ListProducts(ctx, pagination.Params{Limit: input.Limit, Cursor: input.Cursor}, ProductListFilters{
		Category:    input.Category,
		Subcategory: input.Subcategory,
		Query:       input.Query,
	})
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: list products")
	}

	out := make([]ProductDTO, 0, len(page.Products))
	for i := range page.Products {
		out = append(out, *toProductDTO(&page.Products[i]))
	}
	return &ListProductsResult{Products: out, NextCursor: page.NextCursor}, nil
}

// CreateOffer lists a product for a seller after an eligibility check.
func (s *service) CreateOffer(ctx context.Context, sellerID uuid.UUID, input CreateOfferInput) (*OfferDTO, error) {
	if err := s.ensureEligible(ctx, sellerID); err != nil {
		return nil, err
	}
	if input.PricePaise <= 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "price_paise must be positive")
	}
	if input.Stock < 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "stock cannot be negative")
	}
	if input.MaxOrderQty > 0 && input.MaxOrderQty < input.MinOrderQty {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "max_order_qty cannot be below min_order_qty")
	}

	product, err := s.repo.FindProduct(ctx, input.ProductID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "product not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: load product")
	}
	if !product.IsActive {
		return nil, pkgerrors.New(pkgerrors.CodeConflict, "product is not active")
	}

	minQty := input.MinOrderQty
	if minQty <= 0 {
		minQty = 1
	}
	unitValue := input.UnitValue
	if unitValue.IsZero() {
		unitValue = decimal.NewFromInt(1)
	}

	offer := &models.SellerOffer{
		SellerID:        sellerID,
		ProductID:       input.ProductID,
		PricePaise:      input.PricePaise,
		UnitValue:       unitValue,
		UnitMeasure:     input.UnitMeasure,
		Stock:           input.Stock,
		IsActive:        true,
		MinOrderQty:     minQty,
		MaxOrderQty:     input.MaxOrderQty,
		DeliveryDays:    input.DeliveryDays,
		DiscountPercent: input.DiscountPercent,
	}
	created, err := s.repo.CreateOffer(ctx, offer)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: insert offer")
	}
	return toOfferDTO(created), nil
}

// UpdateOffer applies mutations to the seller's own offer.
func (s *service) UpdateOffer(ctx context.Context, sellerID, offerID uuid.UUID, input UpdateOfferInput) (*OfferDTO, error) {
	offer, err := s.repo.FindOffer(ctx, offerID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "offer not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: load offer")
	}
	if offer.SellerID != sellerID {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "offer belongs to another seller")
	}

	updates := map[string]any{"updated_at": time.Now().UTC()}
	if input.PricePaise != nil {
		if *input.PricePaise <= 0 {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "price_paise must be positive")
		}
		updates["price_paise"] = *input.PricePaise
	}
	if input.Stock != nil {
		if *input.Stock < 0 {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "stock cannot be negative")
		}
		updates["stock"] = *input.Stock
	}
	if input.IsActive != nil {
		updates["is_active"] = *input.IsActive
	}
	if input.MinOrderQty != nil {
		updates["min_order_qty"] = *input.MinOrderQty
	}
	if input.MaxOrderQty != nil {
		updates["max_order_qty"] = *input.MaxOrderQty
	}
	if input.DeliveryDays != nil {
		updates["delivery_days"] = *input.DeliveryDays
	}
	if input.DiscountPercent != nil {
		updates["discount_percent"] = *input.DiscountPercent
	}

	if err := s.repo.UpdateOffer(ctx, offerID, updates); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: update offer")
	}

	fresh, err := s.repo.FindOffer(ctx, offerID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: reload offer")
	}
	return toOfferDTO(fresh), nil
}

// ListSellerOffers returns the seller's offers, newest first.
func (s *service) ListSellerOffers(ctx context.Context, sellerID uuid.UUID) ([]OfferDTO, error) {
	rows, err := s.repo.ListOffersBySeller(ctx, sellerID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: list seller offers")
	}
	out := make([]OfferDTO, 0, len(rows))
	for i := range rows {
		out = append(out, *toOfferDTO(&rows[i]))
	}
	return out, nil
}

func (s *service) ensureEligible(ctx context.Context, sellerID uuid.UUID) error {
	ok, err := s.eligibility.IsEligibleToSell(ctx, sellerID)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "eligibility check")
	}
	if !ok {
		return pkgerrors.New(pkgerrors.CodeForbidden, "seller is not eligible to sell")
	}
	return nil
}
