package catalog

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/freshlane/marketplace-backend/pkg/db/models"
	"github.com/freshlane/marketplace-backend/pkg/pagination"
)

// Repository wires together catalog persistence for products and seller offers.
type Repository struct {
	db *gorm.DB
}

// NewRepository builds a repository tied to the provided GORM DB.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// WithTx returns a repository bound to the provided transaction.
func (r *Repository) WithTx(tx *gorm.DB) *Repository {
	return &Repository{db: tx}
}

// FindProduct loads a product without associations.
func (r *Repository) FindProduct(ctx context.Context, id uuid.UUID) (*models.Product, error) {
	var product models.Product
	if err := r.db.WithContext(ctx).First(&product, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &product, nil
}

// CreateProduct inserts a new catalog entry.
func (r *Repository) CreateProduct(ctx context.Context, product *models.Product) (*models.Product, error) {
	if product.ID == uuid.Nil {
		product.ID = uuid.New()
	}
	if err := r.db.WithContext(ctx).Create(product).Error; err != nil {
		return nil, err
	}
	return product, nil
}

// UpdateProduct saves edits to an existing catalog entry.
func (r *Repository) UpdateProduct(ctx context.Context, product *models.Product) (*models.Product, error) {
	if err := r.db.WithContext(ctx).Save(product).Error; err != nil {
		return nil, err
	}
	return product, nil
}

// FindOffer loads a seller offer by id.
func (r *Repository) FindOffer(ctx context.Context, id uuid.UUID) (*models.SellerOffer, error) {
	var offer models.SellerOffer
	if err := r.db.WithContext(ctx).First(&offer, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &offer, nil
}

// CreateOffer inserts a seller offer.
func (r *Repository) CreateOffer(ctx context.Context, offer *models.SellerOffer) (*models.SellerOffer, error) {
	if offer.ID == uuid.Nil {
		offer.ID = uuid.New()
	}
	if err := r.db.WithContext(ctx).Create(offer).Error; err != nil {
		return nil, err
	}
	return offer, nil
}

// UpdateOffer applies the provided column updates to an offer.
func (r *Repository) UpdateOffer(ctx context.Context, id uuid.UUID, updates map[string]any) error {
	return r.db.WithContext(ctx).
		Model(&models.SellerOffer{}).
		Where("id = ?", id).
		Updates(updates).
		Error
}

// ListOffersBySeller returns all offers owned by a seller, newest first.
func (r *Repository) ListOffersBySeller(ctx context.Context, sellerID uuid.UUID) ([]models.SellerOffer, error) {
	var rows []models.SellerOffer
	err := r.db.WithContext(ctx).
		Where("seller_id = ?", sellerID).
		Order("created_at DESC").
		Find(&rows).
		Error
	return rows, err
}

// ListOffersByProduct returns every offer referencing the product, cheapest
// first with a stable tie-break on creation time then id.
func (r *Repository) ListOffersByProduct(ctx context.Context, productID uuid.UUID) ([]models.SellerOffer, error) {
	var rows []models.SellerOffer
	err := r.db.WithContext(ctx).
		Where("product_id = ?", productID).
		Order("price_paise ASC").
		Order("created_at ASC").
		Order("id ASC").
		Find(&rows).
		Error
	return rows, err
}

// ListOffersByProducts batches ListOffersByProduct for browse pages.
func (r *Repository) ListOffersByProducts(ctx context.Context, productIDs []uuid.UUID) ([]models.SellerOffer, error) {
	if len(productIDs) == 0 {
		return nil, nil
	}
	var rows []models.SellerOffer
	err := r.db.WithContext(ctx).
		Where("product_id IN ?", productIDs).
		Order("price_paise ASC").
		Order("created_at ASC").
		Order("id ASC").
		Find(&rows).
		Error
	return rows, err
}

// ProductListFilters narrow the public browse query.
type ProductListFilters struct {
	Category    string
	Subcategory string
	Query       string
}

// ProductListResult carries one page of products plus the next cursor.
type ProductListResult struct {
	Products   []models.Product
	NextCursor string
}

// ListProducts returns a cursor page of active products.
func (r *Repository) ListProducts(ctx context.Context, params pagination.Params, filters ProductListFilters) (*ProductListResult, error) {
	pageSize := pagination.NormalizeLimit(params.Limit)
	limitWithBuffer := pagination.LimitWithBuffer(params.Limit)
	if limitWithBuffer <= pageSize {
		limitWithBuffer = pageSize + 1
	}

	cursor, err := pagination.ParseCursor(params.Cursor)
	if err != nil {
		return nil, err
	}

	qb := r.db.WithContext(ctx).
		Model(&models.Product{}).
		Where("is_active = ?", true)

	if filters.Category != "" {
		qb = qb.Where("category = ?", filters.Category)
	}
	if filters.Subcategory != "" {
		qb = qb.Where("subcategory = ?", filters.Subcategory)
	}
	if search := strings.TrimSpace(filters.Query); search != "" {
		pattern := "%" + strings.ToLower(search) + "%"
		qb = qb.Where("LOWER(name) LIKE ?", pattern)
	}

	if cursor != nil {
		qb = qb.Where("(created_at < ?) OR (created_at = ? AND id < ?)", cursor.CreatedAt, cursor.CreatedAt, cursor.ID)
	}

	var rows []models.Product
	if err := qb.Order("created_at DESC").Order("id DESC").Limit(limitWithBuffer).Find(&rows).Error; err != nil {
		return nil, err
	}

	nextCursor := ""
	if len(rows) > pageSize {
		rows = rows[:pageSize]
		last := rows[len(rows)-1]
		nextCursor = pagination.EncodeCursor(pagination.Cursor{CreatedAt: last.CreatedAt, ID: last.ID})
	}

	return &ProductListResult{Products: rows, NextCursor: nextCursor}, nil
}

// DeactivateOffer turns an offer off instead of deleting it.
func (r *Repository) DeactivateOffer(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).
		Model(&models.SellerOffer{}).
		Where("id = ?", id).
		Updates(map[string]any{"is_active": false, "updated_at": time.Now().UTC()}).
		Error
}
