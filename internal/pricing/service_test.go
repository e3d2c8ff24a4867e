package pricing

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/freshlane/marketplace-backend/pkg/db/models"
	pkgerrors "github.com/freshlane/marketplace-backend/pkg/errors"
)

type fakeOffers struct {
	products   map[uuid.UUID]*models.Product
	byID       map[uuid.UUID]*models.SellerOffer
	byProduct  map[uuid.UUID][]models.SellerOffer
	bySeller   map[uuid.UUID][]models.SellerOffer
}

func (f *fakeOffers) FindProduct(_ context.Context, id uuid.UUID) (*models.Product, error) {
	product, ok := f.products[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return product, nil
}

func (f *fakeOffers) FindOffer(_ context.Context, id uuid.UUID) (*models.SellerOffer, error) {
	offer, ok := f.byID[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return offer, nil
}

func (f *fakeOffers) ListOffersByProduct(_ context.Context, productID uuid.UUID) ([]models.SellerOffer, error) {
	return f.byProduct[productID], nil
}

func (f *fakeOffers) ListOffersBySeller(_ context.Context, sellerID uuid.UUID) ([]models.SellerOffer, error) {
	return f.bySeller[sellerID], nil
}

type fakeRates struct {
	flat     decimal.Decimal
	perSeller map[uuid.UUID]decimal.Decimal
	fee      int64
}

func (f *fakeRates) RateForSeller(_ context.Context, sellerID uuid.UUID) (decimal.Decimal, error) {
	if rate, ok := f.perSeller[sellerID]; ok {
		return rate, nil
	}
	return f.flat, nil
}

func (f *fakeRates) DeliveryFeePaise(_ context.Context) (int64, error) {
	return f.fee, nil
}

type fakeEligibility struct {
	blocked map[uuid.UUID]bool
}

func (f *fakeEligibility) IsEligibleToSell(_ context.Context, sellerID uuid.UUID) (bool, error) {
	return !f.blocked[sellerID], nil
}

func newPricingService(t *testing.T, offers *fakeOffers, rates *fakeRates, elig *fakeEligibility) Service {
	t.Helper()

	if offers.byID == nil {
		offers.byID = map[uuid.UUID]*models.SellerOffer{}
	}
	if offers.products == nil {
		offers.products = map[uuid.UUID]*models.Product{}
		// Register a bare product row for every product that has offers so
		// quote tests do not trip the existence check.
		for productID := range offers.byProduct {
			offers.products[productID] = &models.Product{ID: productID, IsActive: true}
		}
	}
	svc, err := NewService(offers, rates, elig)
	if err != nil {
		t.Fatalf("new service: %v", err)
	}
	return svc
}

func TestDisplayPrice(t *testing.T) {
	cases := []struct {
		name   string
		paise  int64
		rate   decimal.Decimal
		want   int64
	}{
		{"flat ten percent", 10000, decimal.NewFromInt(10), 11000},
		{"rounds half up", 999, decimal.NewFromInt(10), 1099},
		{"zero rate", 4500, decimal.Zero, 4500},
		{"fractional rate", 10000, decimal.RequireFromString("12.5"), 11250},
		{"zero price", 0, decimal.NewFromInt(10), 0},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := DisplayPrice(tc.paise, tc.rate); got != tc.want {
				t.Fatalf("DisplayPrice(%d, %s) = %d, want %d", tc.paise, tc.rate, got, tc.want)
			}
		})
	}
}

func TestQuoteProductFiltersAndSorts(t *testing.T) {
	productID := uuid.New()
	suspended := uuid.New()
	base := time.Date(2026, 3, 2, 10, 0, 0, 0, time.UTC)

	cheap := models.SellerOffer{ID: uuid.New(), SellerID: uuid.New(), ProductID: productID, PricePaise: 4000, Stock: 5, IsActive: true, CreatedAt: base}
	pricier := models.SellerOffer{ID: uuid.New(), SellerID: uuid.New(), ProductID: productID, PricePaise: 4200, Stock: 5, IsActive: true, CreatedAt: base}
	outOfStock := models.SellerOffer{ID: uuid.New(), SellerID: uuid.New(), ProductID: productID, PricePaise: 3000, Stock: 0, IsActive: true, CreatedAt: base}
	inactive := models.SellerOffer{ID: uuid.New(), SellerID: uuid.New(), ProductID: productID, PricePaise: 3100, Stock: 5, IsActive: false, CreatedAt: base}
	blocked := models.SellerOffer{ID: uuid.New(), SellerID: suspended, ProductID: productID, PricePaise: 3200, Stock: 5, IsActive: true, CreatedAt: base}

	svc := newPricingService(t,
		&fakeOffers{byProduct: map[uuid.UUID][]models.SellerOffer{
			productID: {outOfStock, inactive, blocked, cheap, pricier},
		}},
		&fakeRates{flat: decimal.NewFromInt(10), fee: 3000},
		&fakeEligibility{blocked: map[uuid.UUID]bool{suspended: true}},
	)

	quote, err := svc.QuoteProduct(context.Background(), productID)
	if err != nil {
		t.Fatalf("quote product: %v", err)
	}
	if len(quote.Offers) != 2 {
		t.Fatalf("expected 2 sellable offers, got %d", len(quote.Offers))
	}
	if quote.BestOffer == nil || quote.BestOffer.OfferID != cheap.ID {
		t.Fatalf("best offer = %+v, want %s", quote.BestOffer, cheap.ID)
	}
	if quote.BestOffer.DisplayPaise != 4400 {
		t.Fatalf("best display price = %d, want 4400", quote.BestOffer.DisplayPaise)
	}
	if quote.BestOffer.SellerPaise != 4000 {
		t.Fatalf("best seller price = %d, want 4000", quote.BestOffer.SellerPaise)
	}
	if !quote.InStock || quote.PricePaise != 4400 {
		t.Fatalf("headline = in_stock=%v price=%d, want in stock at 4400", quote.InStock, quote.PricePaise)
	}
	if quote.DeliveryFeePaise != 3000 {
		t.Fatalf("delivery fee = %d, want 3000", quote.DeliveryFeePaise)
	}
}

func TestQuoteProductTieBreaksByAgeThenID(t *testing.T) {
	productID := uuid.New()
	early := time.Date(2026, 3, 2, 10, 0, 0, 0, time.UTC)
	late := early.Add(time.Hour)

	older := models.SellerOffer{ID: uuid.New(), SellerID: uuid.New(), ProductID: productID, PricePaise: 4000, Stock: 5, IsActive: true, CreatedAt: early}
	newer := models.SellerOffer{ID: uuid.New(), SellerID: uuid.New(), ProductID: productID, PricePaise: 4000, Stock: 5, IsActive: true, CreatedAt: late}

	svc := newPricingService(t,
		&fakeOffers{byProduct: map[uuid.UUID][]models.SellerOffer{productID: {newer, older}}},
		&fakeRates{flat: decimal.NewFromInt(10), fee: 3000},
		&fakeEligibility{},
	)

	quote, err := svc.QuoteProduct(context.Background(), productID)
	if err != nil {
		t.Fatalf("quote product: %v", err)
	}
	if quote.BestOffer.OfferID != older.ID {
		t.Fatalf("tie must break toward the older offer")
	}
}

func TestQuoteProductFallsBackToLegacyPrice(t *testing.T) {
	productID := uuid.New()
	legacy := int64(9900)
	svc := newPricingService(t,
		&fakeOffers{products: map[uuid.UUID]*models.Product{
			productID: {ID: productID, IsActive: true, LegacyPricePaise: &legacy},
		}},
		&fakeRates{flat: decimal.NewFromInt(10), fee: 3000},
		&fakeEligibility{},
	)

	quote, err := svc.QuoteProduct(context.Background(), productID)
	if err != nil {
		t.Fatalf("quote product: %v", err)
	}
	if quote.InStock {
		t.Fatal("product with no sellable offers must not be in stock")
	}
	if quote.PricePaise != legacy {
		t.Fatalf("fallback price = %d, want legacy %d", quote.PricePaise, legacy)
	}
	if quote.BestOffer != nil {
		t.Fatalf("expected no best offer, got %+v", quote.BestOffer)
	}
	if len(quote.Offers) != 0 {
		t.Fatalf("expected no offers, got %d", len(quote.Offers))
	}
}

func TestQuoteProductWithoutLegacyPrice(t *testing.T) {
	productID := uuid.New()
	svc := newPricingService(t,
		&fakeOffers{products: map[uuid.UUID]*models.Product{
			productID: {ID: productID, IsActive: true},
		}},
		&fakeRates{flat: decimal.NewFromInt(10), fee: 3000},
		&fakeEligibility{},
	)

	quote, err := svc.QuoteProduct(context.Background(), productID)
	if err != nil {
		t.Fatalf("quote product: %v", err)
	}
	if quote.InStock || quote.PricePaise != 0 {
		t.Fatalf("quote = in_stock=%v price=%d, want out of stock with no price", quote.InStock, quote.PricePaise)
	}
}

func TestQuoteProductUnknownProduct(t *testing.T) {
	svc := newPricingService(t,
		&fakeOffers{},
		&fakeRates{flat: decimal.NewFromInt(10), fee: 3000},
		&fakeEligibility{},
	)

	_, err := svc.QuoteProduct(context.Background(), uuid.New())
	if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeNotFound {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestQuoteProductsBatch(t *testing.T) {
	productA := uuid.New()
	productB := uuid.New()
	base := time.Date(2026, 3, 2, 10, 0, 0, 0, time.UTC)

	offerA := models.SellerOffer{ID: uuid.New(), SellerID: uuid.New(), ProductID: productA, PricePaise: 4000, Stock: 5, IsActive: true, CreatedAt: base}

	svc := newPricingService(t,
		&fakeOffers{
			byProduct: map[uuid.UUID][]models.SellerOffer{productA: {offerA}},
			products: map[uuid.UUID]*models.Product{
				productA: {ID: productA, IsActive: true},
				productB: {ID: productB, IsActive: true},
			},
		},
		&fakeRates{flat: decimal.NewFromInt(10), fee: 3000},
		&fakeEligibility{},
	)

	quotes, err := svc.QuoteProducts(context.Background(), []uuid.UUID{productA, productB, productA})
	if err != nil {
		t.Fatalf("quote products: %v", err)
	}
	if len(quotes) != 2 {
		t.Fatalf("expected 2 quotes, got %d", len(quotes))
	}
	if quotes[productA].BestOffer == nil || quotes[productA].BestOffer.DisplayPaise != 4400 {
		t.Fatalf("product A quote = %+v", quotes[productA].BestOffer)
	}
	if quotes[productB].BestOffer != nil || quotes[productB].InStock {
		t.Fatalf("product B has no sellable offers, got %+v", quotes[productB])
	}

	_, err = svc.QuoteProducts(context.Background(), nil)
	if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeValidation {
		t.Fatalf("empty batch should fail validation, got %v", err)
	}
}

func TestQuoteOffer(t *testing.T) {
	sellerID := uuid.New()
	offer := &models.SellerOffer{ID: uuid.New(), SellerID: sellerID, ProductID: uuid.New(), PricePaise: 2000, Stock: 3, IsActive: true}

	svc := newPricingService(t,
		&fakeOffers{byID: map[uuid.UUID]*models.SellerOffer{offer.ID: offer}},
		&fakeRates{perSeller: map[uuid.UUID]decimal.Decimal{sellerID: decimal.NewFromInt(5)}},
		&fakeEligibility{},
	)

	quote, err := svc.QuoteOffer(context.Background(), offer.ID)
	if err != nil {
		t.Fatalf("quote offer: %v", err)
	}
	if quote.DisplayPaise != 2100 {
		t.Fatalf("display price = %d, want 2100", quote.DisplayPaise)
	}

	_, err = svc.QuoteOffer(context.Background(), uuid.New())
	if err == nil {
		t.Fatal("expected not found")
	}
	if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeNotFound {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestSellerInsightsPositions(t *testing.T) {
	sellerID := uuid.New()
	productHigh := uuid.New()
	productLow := uuid.New()
	productFair := uuid.New()
	productAlone := uuid.New()

	mine := []models.SellerOffer{
		{ID: uuid.New(), SellerID: sellerID, ProductID: productHigh, PricePaise: 12000, IsActive: true},
		{ID: uuid.New(), SellerID: sellerID, ProductID: productLow, PricePaise: 8000, IsActive: true},
		{ID: uuid.New(), SellerID: sellerID, ProductID: productFair, PricePaise: 10500, IsActive: true},
		{ID: uuid.New(), SellerID: sellerID, ProductID: productAlone, PricePaise: 9000, IsActive: true},
	}
	competitor := func(productID uuid.UUID, price int64) models.SellerOffer {
		return models.SellerOffer{ID: uuid.New(), SellerID: uuid.New(), ProductID: productID, PricePaise: price, IsActive: true}
	}

	offers := &fakeOffers{
		bySeller: map[uuid.UUID][]models.SellerOffer{sellerID: mine},
		byProduct: map[uuid.UUID][]models.SellerOffer{
			productHigh:  {mine[0], competitor(productHigh, 10000)},
			productLow:   {mine[1], competitor(productLow, 10000)},
			productFair:  {mine[2], competitor(productFair, 10000)},
			productAlone: {mine[3]},
		},
	}

	svc := newPricingService(t, offers, &fakeRates{flat: decimal.NewFromInt(10)}, &fakeEligibility{})

	insights, err := svc.SellerInsights(context.Background(), sellerID)
	if err != nil {
		t.Fatalf("seller insights: %v", err)
	}
	if len(insights) != 4 {
		t.Fatalf("expected 4 insights, got %d", len(insights))
	}

	byProduct := map[uuid.UUID]OfferInsight{}
	for _, ins := range insights {
		byProduct[ins.ProductID] = ins
	}

	if got := byProduct[productHigh]; got.Position != PositionHigh || got.SuggestedPaise != 10000 {
		t.Fatalf("high insight = %+v", got)
	}
	if got := byProduct[productHigh]; got.MarketMinPaise != 10000 || got.MarketMaxPaise != 10000 || got.Rank != 2 {
		t.Fatalf("high insight market band = %+v", got)
	}
	if got := byProduct[productLow]; got.Position != PositionLow || got.SuggestedPaise != 10000 || got.Rank != 1 {
		t.Fatalf("low insight = %+v", got)
	}
	if got := byProduct[productFair]; got.Position != PositionCompetitive || got.SuggestedPaise != 0 || got.Rank != 2 {
		t.Fatalf("fair insight = %+v", got)
	}
	if got := byProduct[productAlone]; got.Position != PositionNoMarket || got.CompetitorCount != 0 || got.Rank != 1 {
		t.Fatalf("alone insight = %+v", got)
	}
}

func TestSellerInsightsRankAmongCompetitors(t *testing.T) {
	sellerID := uuid.New()
	productID := uuid.New()
	mine := models.SellerOffer{ID: uuid.New(), SellerID: sellerID, ProductID: productID, PricePaise: 10000, IsActive: true}
	competitor := func(price int64) models.SellerOffer {
		return models.SellerOffer{ID: uuid.New(), SellerID: uuid.New(), ProductID: productID, PricePaise: price, IsActive: true}
	}

	offers := &fakeOffers{
		bySeller: map[uuid.UUID][]models.SellerOffer{sellerID: {mine}},
		byProduct: map[uuid.UUID][]models.SellerOffer{
			productID: {mine, competitor(9000), competitor(11000), competitor(13000)},
		},
	}
	svc := newPricingService(t, offers, &fakeRates{flat: decimal.NewFromInt(10)}, &fakeEligibility{})

	insights, err := svc.SellerInsights(context.Background(), sellerID)
	if err != nil {
		t.Fatalf("seller insights: %v", err)
	}
	if len(insights) != 1 {
		t.Fatalf("expected 1 insight, got %d", len(insights))
	}
	got := insights[0]
	if got.MarketMinPaise != 9000 || got.MarketMaxPaise != 13000 {
		t.Fatalf("market band = %+v", got)
	}
	if got.Rank != 2 {
		t.Fatalf("rank = %d, want 2", got.Rank)
	}
	if got.CompetitorCount != 3 {
		t.Fatalf("competitor count = %d, want 3", got.CompetitorCount)
	}
}

func TestSellerInsightsSkipsInactiveOffers(t *testing.T) {
	sellerID := uuid.New()
	offers := &fakeOffers{
		bySeller: map[uuid.UUID][]models.SellerOffer{
			sellerID: {{ID: uuid.New(), SellerID: sellerID, ProductID: uuid.New(), PricePaise: 1000, IsActive: false}},
		},
	}
	svc := newPricingService(t, offers, &fakeRates{flat: decimal.NewFromInt(10)}, &fakeEligibility{})

	insights, err := svc.SellerInsights(context.Background(), sellerID)
	if err != nil {
		t.Fatalf("seller insights: %v", err)
	}
	if len(insights) != 0 {
		t.Fatalf("expected no insights, got %d", len(insights))
	}
}
