package controllers

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/freshlane/marketplace-backend/api/responses"
	"github.com/freshlane/marketplace-backend/api/validators"
	qualitysvc "github.com/freshlane/marketplace-backend/internal/quality"
	"github.com/freshlane/marketplace-backend/pkg/enums"
	pkgerrors "github.com/freshlane/marketplace-backend/pkg/errors"
	"github.com/freshlane/marketplace-backend/pkg/logger"
)

type createComplaintRequest struct {
	OrderID     string `json:"order_id" validate:"required,uuid"`
	SellerID    string `json:"seller_id" validate:"required,uuid"`
	ProductID   string `json:"product_id" validate:"required,uuid"`
	IssueType   string `json:"issue_type" validate:"required"`
	Description string `json:"description" validate:"required"`
}

// CreateComplaint files a quality complaint against a delivered order.
func CreateComplaint(svc qualitysvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var payload createComplaintRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		issueType, err := enums.ParseComplaintIssueType(payload.IssueType)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid issue_type"))
			return
		}
		orderID, _ := uuid.Parse(payload.OrderID)
		sellerID, _ := uuid.Parse(payload.SellerID)
		productID, _ := uuid.Parse(payload.ProductID)

		complaint, err := svc.RecordComplaint(r.Context(), qualitysvc.RecordInput{
			OrderID:     orderID,
			SellerID:    sellerID,
			ProductID:   productID,
			IssueType:   issueType,
			Description: payload.Description,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, complaint)
	}
}

type resolveComplaintRequest struct {
	Status      string  `json:"status" validate:"required"`
	Resolution  *string `json:"resolution,omitempty"`
	RefundPaise *int64  `json:"refund_paise,omitempty" validate:"omitempty,min=1"`
}

// ResolveComplaint advances a complaint through triage.
func ResolveComplaint(svc qualitysvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		complaintID, err := uuid.Parse(chi.URLParam(r, "id"))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid complaint id"))
			return
		}
		var payload resolveComplaintRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		status, err := enums.ParseComplaintStatus(payload.Status)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid status"))
			return
		}

		complaint, err := svc.ResolveComplaint(r.Context(), complaintID, qualitysvc.ResolveInput{
			Status:      status,
			Resolution:  payload.Resolution,
			RefundPaise: payload.RefundPaise,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, complaint)
	}
}

// GetOrderNet reports an order's total after refunds.
func GetOrderNet(svc qualitysvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		orderID, err := uuid.Parse(chi.URLParam(r, "id"))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid order id"))
			return
		}
		net, err := svc.OrderNet(r.Context(), orderID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, net)
	}
}
