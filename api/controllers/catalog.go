package controllers

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/freshlane/marketplace-backend/api/responses"
	"github.com/freshlane/marketplace-backend/api/validators"
	catalogsvc "github.com/freshlane/marketplace-backend/internal/catalog"
	"github.com/freshlane/marketplace-backend/pkg/enums"
	pkgerrors "github.com/freshlane/marketplace-backend/pkg/errors"
	"github.com/freshlane/marketplace-backend/pkg/logger"
	"github.com/freshlane/marketplace-backend/pkg/pagination"
)

// ListProducts handles the public catalog browse.
func ListProducts(svc catalogsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		limit, err := validators.ParseQueryInt(r, "limit", pagination.DefaultLimit, 1, pagination.MaxLimit)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		result, err := svc.ListProducts(r.Context(), catalogsvc.ListProductsInput{
			Limit:       limit,
			Cursor:      r.URL.Query().Get("cursor"),
			Category:    r.URL.Query().Get("category"),
			Subcategory: r.URL.Query().Get("subcategory"),
			Query:       r.URL.Query().Get("q"),
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, result)
	}
}

// GetProduct returns one catalog product.
func GetProduct(svc catalogsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		productID, err := uuid.Parse(chi.URLParam(r, "id"))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid product id"))
			return
		}
		product, err := svc.GetProduct(r.Context(), productID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, product)
	}
}

type createProductRequest struct {
	Name             string  `json:"name" validate:"required"`
	SKU              *string `json:"sku,omitempty"`
	Category         string  `json:"category" validate:"required"`
	Subcategory      *string `json:"subcategory,omitempty"`
	Unit             string  `json:"unit" validate:"required"`
	Description      *string `json:"description,omitempty"`
	ImageURL         *string `json:"image_url,omitempty"`
	GSTRate          *string `json:"gst_rate,omitempty"`
	HSNCode          *string `json:"hsn_code,omitempty"`
	LegacyPricePaise *int64  `json:"legacy_price_paise,omitempty" validate:"omitempty,min=1"`
	IsActive         *bool   `json:"is_active,omitempty"`
}

func (p createProductRequest) toInput() (catalogsvc.CreateProductInput, error) {
	unit, err := enums.ParseProductUnit(p.Unit)
	if err != nil {
		return catalogsvc.CreateProductInput{}, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid unit")
	}
	gst := decimal.Zero
	if p.GSTRate != nil {
		gst, err = decimal.NewFromString(*p.GSTRate)
		if err != nil {
			return catalogsvc.CreateProductInput{}, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid gst_rate")
		}
	}
	active := true
	if p.IsActive != nil {
		active = *p.IsActive
	}
	return catalogsvc.CreateProductInput{
		Name:             p.Name,
		SKU:              p.SKU,
		Category:         p.Category,
		Subcategory:      p.Subcategory,
		Unit:             unit,
		Description:      p.Description,
		ImageURL:         p.ImageURL,
		GSTRate:          gst,
		HSNCode:          p.HSNCode,
		LegacyPricePaise: p.LegacyPricePaise,
		IsActive:         active,
	}, nil
}

// AdminCreateProduct handles admin catalog creation.
func AdminCreateProduct(svc catalogsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var payload createProductRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		input, err := payload.toInput()
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		product, err := svc.CreateProduct(r.Context(), input)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, product)
	}
}

type updateProductRequest struct {
	Name             *string `json:"name,omitempty"`
	SKU              *string `json:"sku,omitempty"`
	Category         *string `json:"category,omitempty"`
	Subcategory      *string `json:"subcategory,omitempty"`
	Unit             *string `json:"unit,omitempty"`
	Description      *string `json:"description,omitempty"`
	ImageURL         *string `json:"image_url,omitempty"`
	GSTRate          *string `json:"gst_rate,omitempty"`
	HSNCode          *string `json:"hsn_code,omitempty"`
	LegacyPricePaise *int64  `json:"legacy_price_paise,omitempty" validate:"omitempty,min=1"`
	IsActive         *bool   `json:"is_active,omitempty"`
}

// AdminUpdateProduct handles admin catalog edits.
func AdminUpdateProduct(svc catalogsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		productID, err := uuid.Parse(chi.URLParam(r, "id"))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid product id"))
			return
		}

		var payload updateProductRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		input := catalogsvc.UpdateProductInput{
			Name:             payload.Name,
			SKU:              payload.SKU,
			Category:         payload.Category,
			Subcategory:      payload.Subcategory,
			Description:      payload.Description,
			ImageURL:         payload.ImageURL,
			HSNCode:          payload.HSNCode,
			LegacyPricePaise: payload.LegacyPricePaise,
			IsActive:         payload.IsActive,
		}
		if payload.Unit != nil {
			unit, err := enums.ParseProductUnit(*payload.Unit)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid unit"))
				return
			}
			input.Unit = &unit
		}
		if payload.GSTRate != nil {
			gst, err := decimal.NewFromString(*payload.GSTRate)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid gst_rate"))
				return
			}
			input.GSTRate = &gst
		}

		product, err := svc.UpdateProduct(r.Context(), productID, input)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, product)
	}
}

// AdminDeleteProduct deactivates a product.
func AdminDeleteProduct(svc catalogsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		productID, err := uuid.Parse(chi.URLParam(r, "id"))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid product id"))
			return
		}
		if err := svc.DeactivateProduct(r.Context(), productID); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]string{"status": "deactivated"})
	}
}

// ListSellerOffers returns the seller's own offers.
func ListSellerOffers(svc catalogsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sellerID, err := parseSellerIDQuery(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		offers, err := svc.ListSellerOffers(r.Context(), sellerID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, offers)
	}
}

type createOfferRequest struct {
	SellerID        string  `json:"seller_id" validate:"required,uuid"`
	ProductID       string  `json:"product_id" validate:"required,uuid"`
	PricePaise      int64   `json:"price_paise" validate:"required,min=1"`
	UnitValue       *string `json:"unit_value,omitempty"`
	UnitMeasure     string  `json:"unit_measure,omitempty"`
	Stock           int     `json:"stock" validate:"min=0"`
	MinOrderQty     int     `json:"min_order_qty,omitempty" validate:"omitempty,min=1"`
	MaxOrderQty     int     `json:"max_order_qty,omitempty" validate:"omitempty,min=0"`
	DeliveryDays    int     `json:"delivery_days,omitempty" validate:"omitempty,min=0"`
	DiscountPercent *string `json:"discount_percent,omitempty"`
}

// CreateSellerOffer lists a product for a seller.
func CreateSellerOffer(svc catalogsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var payload createOfferRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		sellerID, _ := uuid.Parse(payload.SellerID)
		productID, _ := uuid.Parse(payload.ProductID)

		input := catalogsvc.CreateOfferInput{
			ProductID:    productID,
			PricePaise:   payload.PricePaise,
			UnitMeasure:  payload.UnitMeasure,
			Stock:        payload.Stock,
			MinOrderQty:  payload.MinOrderQty,
			MaxOrderQty:  payload.MaxOrderQty,
			DeliveryDays: payload.DeliveryDays,
		}
		if payload.UnitValue != nil {
			value, err := decimal.NewFromString(*payload.UnitValue)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid unit_value"))
				return
			}
			input.UnitValue = value
		}
		if payload.DiscountPercent != nil {
			value, err := decimal.NewFromString(*payload.DiscountPercent)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid discount_percent"))
				return
			}
			input.DiscountPercent = value
		}

		offer, err := svc.CreateOffer(r.Context(), sellerID, input)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, offer)
	}
}

type updateOfferRequest struct {
	SellerID        string  `json:"seller_id" validate:"required,uuid"`
	PricePaise      *int64  `json:"price_paise,omitempty" validate:"omitempty,min=1"`
	Stock           *int    `json:"stock,omitempty" validate:"omitempty,min=0"`
	IsActive        *bool   `json:"is_active,omitempty"`
	MinOrderQty     *int    `json:"min_order_qty,omitempty" validate:"omitempty,min=1"`
	MaxOrderQty     *int    `json:"max_order_qty,omitempty" validate:"omitempty,min=0"`
	DeliveryDays    *int    `json:"delivery_days,omitempty" validate:"omitempty,min=0"`
	DiscountPercent *string `json:"discount_percent,omitempty"`
}

// UpdateSellerOffer edits a seller's own offer.
func UpdateSellerOffer(svc catalogsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		offerID, err := uuid.Parse(chi.URLParam(r, "id"))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid offer id"))
			return
		}

		var payload updateOfferRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		sellerID, _ := uuid.Parse(payload.SellerID)

		input := catalogsvc.UpdateOfferInput{
			PricePaise:   payload.PricePaise,
			Stock:        payload.Stock,
			IsActive:     payload.IsActive,
			MinOrderQty:  payload.MinOrderQty,
			MaxOrderQty:  payload.MaxOrderQty,
			DeliveryDays: payload.DeliveryDays,
		}
		if payload.DiscountPercent != nil {
			value, err := decimal.NewFromString(*payload.DiscountPercent)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid discount_percent"))
				return
			}
			input.DiscountPercent = &value
		}

		offer, err := svc.UpdateOffer(r.Context(), sellerID, offerID, input)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, offer)
	}
}

func parseSellerIDQuery(r *http.Request) (uuid.UUID, error) {
	raw := strings.TrimSpace(r.URL.Query().Get("seller_id"))
	if raw == "" {
		return uuid.Nil, pkgerrors.New(pkgerrors.CodeValidation, "seller_id is required")
	}
	sellerID, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid seller_id")
	}
	return sellerID, nil
}
