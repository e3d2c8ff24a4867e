package pricing

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/freshlane/marketplace-backend/pkg/db/models"
	pkgerrors "github.com/freshlane/marketplace-backend/pkg/errors"
)

// Insight position bands relative to the market average.
var (
	highBand = decimal.NewFromFloat(1.15)
	lowBand  = decimal.NewFromFloat(0.85)

	hundred = decimal.NewFromInt(100)
)

// OfferQuote is one seller's offer with the buyer-facing price applied.
type OfferQuote struct {
	OfferID         uuid.UUID       `json:"offer_id"`
	SellerID        uuid.UUID       `json:"seller_id"`
	SellerPaise     int64           `json:"seller_price_paise"`
	DisplayPaise    int64           `json:"display_price_paise"`
	CommissionRate  decimal.Decimal `json:"commission_rate"`
	Stock           int             `json:"stock"`
	DeliveryDays    int             `json:"delivery_days"`
	DiscountPercent decimal.Decimal `json:"discount_percent"`
}

// ProductQuote aggregates every sellable offer for a product. When nothing
// is currently sellable, InStock is false, BestOffer is nil and PricePaise
// falls back to the product's legacy display price so the catalog page can
// still show something.
type ProductQuote struct {
	ProductID        uuid.UUID    `json:"product_id"`
	InStock          bool         `json:"in_stock"`
	PricePaise       int64        `json:"price_paise"`
	BestOffer        *OfferQuote  `json:"best_offer,omitempty"`
	Offers           []OfferQuote `json:"offers"`
	DeliveryFeePaise int64        `json:"delivery_fee_paise"`
}

// InsightPosition classifies an offer price against the market average.
type InsightPosition string

const (
	PositionCompetitive InsightPosition = "competitive"
	PositionHigh        InsightPosition = "above_market"
	PositionLow         InsightPosition = "below_market"
	PositionNoMarket    InsightPosition = "no_comparison"
)

// OfferInsight compares one of a seller's offers with the rest of the market
// for the same product. Rank counts from 1 for the cheapest price among the
// seller's own offer and its competitors.
type OfferInsight struct {
	OfferID          uuid.UUID       `json:"offer_id"`
	ProductID        uuid.UUID       `json:"product_id"`
	PricePaise       int64           `json:"price_paise"`
	MarketMinPaise   int64           `json:"market_min_paise"`
	MarketMaxPaise   int64           `json:"market_max_paise"`
	MarketAvgPaise   int64           `json:"market_avg_paise"`
	CompetitorCount  int             `json:"competitor_count"`
	Rank             int             `json:"rank"`
	Position         InsightPosition `json:"position"`
	SuggestedPaise   int64           `json:"suggested_price_paise,omitempty"`
}

type offerReader interface {
	FindProduct(ctx context.Context, id uuid.UUID) (*models.Product, error)
	FindOffer(ctx context.Context, id uuid.UUID) (*models.SellerOffer, error)
	ListOffersByProduct(ctx context.Context, productID uuid.UUID) ([]models.SellerOffer, error)
	ListOffersBySeller(ctx context.Context, sellerID uuid.UUID) ([]models.SellerOffer, error)
}

type rateResolver interface {
	RateForSeller(ctx context.Context, sellerID uuid.UUID) (decimal.Decimal, error)
	DeliveryFeePaise(ctx context.Context) (int64, error)
}

type eligibilityChecker interface {
	IsEligibleToSell(ctx context.Context, sellerID uuid.UUID) (bool, error)
}

// Service computes buyer-facing prices and seller pricing insights.
type Service interface {
	QuoteProduct(ctx context.Context, productID uuid.UUID) (*ProductQuote, error)
	QuoteProducts(ctx context.Context, productIDs []uuid.UUID) (map[uuid.UUID]*ProductQuote, error)
	QuoteOffer(ctx context.Context, offerID uuid.UUID) (*OfferQuote, error)
	SellerInsights(ctx context.Context, sellerID uuid.UUID) ([]OfferInsight, error)
}

type service struct {
	offers      offerReader
	rates       rateResolver
	eligibility eligibilityChecker
}

// NewService constructs a pricing service instance.
func NewService(offers offerReader, rates rateResolver, eligibility eligibilityChecker) (Service, error) {
	if offers == nil {
		return nil, fmt.Errorf("offer reader required")
	}
	if rates == nil {
		return nil, fmt.Errorf("rate resolver required")
	}
	if eligibility == nil {
		return nil, fmt.Errorf("eligibility checker required")
	}
	return &service{offers: offers, rates: rates, eligibility: eligibility}, nil
}

// DisplayPrice applies the commission percentage to a seller price and
// rounds half up to whole paise.
func DisplayPrice(sellerPaise int64, rate decimal.Decimal) int64 {
	multiplier := decimal.NewFromInt(1).Add(rate.Div(hundred))
	return decimal.NewFromInt(sellerPaise).Mul(multiplier).Round(0).IntPart()
}

// QuoteProduct returns every sellable offer for a product with display
// prices, cheapest first. Ties on display price break by offer age then id
// so the winner is stable across requests.
func (s *service) QuoteProduct(ctx context.Context, productID uuid.UUID) (*ProductQuote, error) {
	product, err := s.offers.FindProduct(ctx, productID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "product not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: load product")
	}

	rows, err := s.offers.ListOffersByProduct(ctx, productID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: list offers")
	}

	deliveryFee, err := s.rates.DeliveryFeePaise(ctx)
	if err != nil {
		return nil, err
	}

	quotes := make([]OfferQuote, 0, len(rows))
	sellable := make([]models.SellerOffer, 0, len(rows))
	for i := range rows {
		offer := rows[i]
		if !offer.IsActive || offer.Stock <= 0 {
			continue
		}
		ok, err := s.eligibility.IsEligibleToSell(ctx, offer.SellerID)
		if err != nil {
			return nil, err
		}
		if !ok {
			continue
		}
		rate, err := s.rates.RateForSeller(ctx, offer.SellerID)
		if err != nil {
			return nil, err
		}
		quotes = append(quotes, OfferQuote{
			OfferID:         offer.ID,
			SellerID:        offer.SellerID,
			SellerPaise:     offer.PricePaise,
			DisplayPaise:    DisplayPrice(offer.PricePaise, rate),
			CommissionRate:  rate,
			Stock:           offer.Stock,
			DeliveryDays:    offer.DeliveryDays,
			DiscountPercent: offer.DiscountPercent,
		})
		sellable = append(sellable, offer)
	}

	sort.SliceStable(quotes, func(i, j int) bool {
		if quotes[i].DisplayPaise != quotes[j].DisplayPaise {
			return quotes[i].DisplayPaise < quotes[j].DisplayPaise
		}
		if !sellable[i].CreatedAt.Equal(sellable[j].CreatedAt) {
			return sellable[i].CreatedAt.Before(sellable[j].CreatedAt)
		}
		return sellable[i].ID.String() < sellable[j].ID.String()
	})

	quote := &ProductQuote{
		ProductID:        productID,
		Offers:           quotes,
		DeliveryFeePaise: deliveryFee,
	}
	if len(quotes) > 0 {
		best := quotes[0]
		quote.BestOffer = &best
		quote.InStock = true
		quote.PricePaise = best.DisplayPaise
	} else if product.LegacyPricePaise != nil {
		quote.PricePaise = *product.LegacyPricePaise
	}
	return quote, nil
}

// QuoteProducts prices a batch of products for browse pages. Duplicate ids
// collapse to one lookup; the result map carries an entry per distinct id.
func (s *service) QuoteProducts(ctx context.Context, productIDs []uuid.UUID) (map[uuid.UUID]*ProductQuote, error) {
	if len(productIDs) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "at least one product id is required")
	}

	quotes := make(map[uuid.UUID]*ProductQuote, len(productIDs))
	for _, productID := range productIDs {
		if _, done := quotes[productID]; done {
			continue
		}
		quote, err := s.QuoteProduct(ctx, productID)
		if err != nil {
			return nil, err
		}
		quotes[productID] = quote
	}
	return quotes, nil
}

// QuoteOffer prices a single offer for display.
func (s *service) QuoteOffer(ctx context.Context, offerID uuid.UUID) (*OfferQuote, error) {
	offer, err := s.offers.FindOffer(ctx, offerID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "offer not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: load offer")
	}
	if !offer.IsActive {
		return nil, pkgerrors.New(pkgerrors.CodeConflict, "offer is not active")
	}

	rate, err := s.rates.RateForSeller(ctx, offer.SellerID)
	if err != nil {
		return nil, err
	}
	return &OfferQuote{
		OfferID:         offer.ID,
		SellerID:        offer.SellerID,
		SellerPaise:     offer.PricePaise,
		DisplayPaise:    DisplayPrice(offer.PricePaise, rate),
		CommissionRate:  rate,
		Stock:           offer.Stock,
		DeliveryDays:    offer.DeliveryDays,
		DiscountPercent: offer.DiscountPercent,
	}, nil
}

// SellerInsights compares each of the seller's active offers against other
// sellers' active offers for the same product. Comparison happens on raw
// seller prices so commission changes do not move anyone's position.
func (s *service) SellerInsights(ctx context.Context, sellerID uuid.UUID) ([]OfferInsight, error) {
	mine, err := s.offers.ListOffersBySeller(ctx, sellerID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: list seller offers")
	}

	insights := make([]OfferInsight, 0, len(mine))
	for i := range mine {
		offer := mine[i]
		if !offer.IsActive {
			continue
		}

		market, err := s.offers.ListOffersByProduct(ctx, offer.ProductID)
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: list market offers")
		}

		var sum, minPaise, maxPaise int64
		var count, cheaper int
		for j := range market {
			other := market[j]
			if other.ID == offer.ID || !other.IsActive || other.SellerID == sellerID {
				continue
			}
			sum += other.PricePaise
			if count == 0 || other.PricePaise < minPaise {
				minPaise = other.PricePaise
			}
			if other.PricePaise > maxPaise {
				maxPaise = other.PricePaise
			}
			if other.PricePaise < offer.PricePaise {
				cheaper++
			}
			count++
		}

		insight := OfferInsight{
			OfferID:    offer.ID,
			ProductID:  offer.ProductID,
			PricePaise: offer.PricePaise,
			Rank:       1,
		}
		if count == 0 {
			insight.Position = PositionNoMarket
			insights = append(insights, insight)
			continue
		}

		avg := decimal.NewFromInt(sum).Div(decimal.NewFromInt(int64(count)))
		insight.MarketMinPaise = minPaise
		insight.MarketMaxPaise = maxPaise
		insight.MarketAvgPaise = avg.Round(0).IntPart()
		insight.CompetitorCount = count
		insight.Rank = cheaper + 1

		price := decimal.NewFromInt(offer.PricePaise)
		switch {
		case price.GreaterThan(avg.Mul(highBand)):
			insight.Position = PositionHigh
			insight.SuggestedPaise = avg.Round(0).IntPart()
		case price.LessThan(avg.Mul(lowBand)):
			insight.Position = PositionLow
			insight.SuggestedPaise = avg.Round(0).IntPart()
		default:
			insight.Position = PositionCompetitive
		}
		insights = append(insights, insight)
	}
	return insights, nil
}
