package controllers

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/freshlane/marketplace-backend/api/responses"
	pricingsvc "github.com/freshlane/marketplace-backend/internal/pricing"
	pkgerrors "github.com/freshlane/marketplace-backend/pkg/errors"
	"github.com/freshlane/marketplace-backend/pkg/logger"
	"github.com/freshlane/marketplace-backend/pkg/pagination"
)

// GetProductPrice returns the aggregated buyer-facing quote for one product.
func GetProductPrice(svc pricingsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		productID, err := uuid.Parse(chi.URLParam(r, "id"))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid product id"))
			return
		}
		quote, err := svc.QuoteProduct(r.Context(), productID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, quote)
	}
}

// GetProductPrices returns quotes for a batch of products, keyed by product
// id. Browse pages use it to price a whole listing in one round trip.
func GetProductPrices(svc pricingsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		raw := strings.TrimSpace(r.URL.Query().Get("ids"))
		if raw == "" {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "ids query parameter is required"))
			return
		}

		parts := strings.Split(raw, ",")
		if len(parts) > pagination.MaxLimit {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "too many product ids"))
			return
		}
		productIDs := make([]uuid.UUID, 0, len(parts))
		for _, part := range parts {
			productID, err := uuid.Parse(strings.TrimSpace(part))
			if err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid product id"))
				return
			}
			productIDs = append(productIDs, productID)
		}

		quotes, err := svc.QuoteProducts(r.Context(), productIDs)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, quotes)
	}
}

// GetSellerPriceInsights compares a seller's offers against the market.
func GetSellerPriceInsights(svc pricingsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sellerID, err := uuid.Parse(chi.URLParam(r, "sellerId"))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid seller id"))
			return
		}

		insights, err := svc.SellerInsights(r.Context(), sellerID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		// Optional product filter narrows the response to one listing.
		if raw := r.URL.Query().Get("product_id"); raw != "" {
			productID, err := uuid.Parse(raw)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid product_id"))
				return
			}
			filtered := insights[:0]
			for _, insight := range insights {
				if insight.ProductID == productID {
					filtered = append(filtered, insight)
				}
			}
			insights = filtered
		}

		responses.WriteSuccess(w, insights)
	}
}
