package catalog

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/freshlane/marketplace-backend/pkg/enums"
	pkgerrors "github.com/freshlane/marketplace-backend/pkg/errors"
)

type stubEligibility struct {
	eligible bool
}

func (s *stubEligibility) IsEligibleToSell(context.Context, uuid.UUID) (bool, error) {
	return s.eligible, nil
}

func newTestCatalogService(t *testing.T, eligible bool) (Service, *Repository) {
	t.Helper()

	conn := setupCatalogTestDB(t)
	repo := NewRepository(conn)
	svc, err := NewService(repo, &stubEligibility{eligible: eligible})
	if err != nil {
		t.Fatalf("new service: %v", err)
	}
	return svc, repo
}

func TestCreateProductValidation(t *testing.T) {
	svc, _ := newTestCatalogService(t, true)
	ctx := context.Background()

	cases := []struct {
		name  string
		input CreateProductInput
	}{
		{"missing name", CreateProductInput{Category: "fruits", Unit: enums.ProductUnitWeight}},
		{"missing category", CreateProductInput{Name: "Mango", Unit: enums.ProductUnitWeight}},
		{"bad unit", CreateProductInput{Name: "Mango", Category: "fruits", Unit: "crate"}},
		{"negative gst", CreateProductInput{Name: "Mango", Category: "fruits", Unit: enums.ProductUnitWeight, GSTRate: decimal.NewFromInt(-1)}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := svc.CreateProduct(ctx, tc.input)
			if err == nil {
				t.Fatal("expected validation error")
			}
			if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeValidation {
				t.Fatalf("unexpected error: %v", err)
			}
		})
	}
}

func TestCreateAndUpdateProduct(t *testing.T) {
	svc, _ := newTestCatalogService(t, true)
	ctx := context.Background()

	created, err := svc.CreateProduct(ctx, CreateProductInput{
		Name:     "  Alphonso Mango  ",
		Category: "fruits",
		Unit:     enums.ProductUnitWeight,
		GSTRate:  decimal.NewFromInt(5),
		IsActive: true,
	})
	if err != nil {
		t.Fatalf("create product: %v", err)
	}
	if created.Name != "Alphonso Mango" {
		t.Fatalf("name = %q, want trimmed", created.Name)
	}

	newName := "Kesar Mango"
	updated, err := svc.UpdateProduct(ctx, created.ID, UpdateProductInput{Name: &newName})
	if err != nil {
		t.Fatalf("update product: %v", err)
	}
	if updated.Name != newName {
		t.Fatalf("name = %q, want %q", updated.Name, newName)
	}

	_, err = svc.UpdateProduct(ctx, uuid.New(), UpdateProductInput{Name: &newName})
	if err == nil {
		t.Fatal("expected not found")
	}
	if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeNotFound {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestProductLegacyPrice(t *testing.T) {
	svc, _ := newTestCatalogService(t, true)
	ctx := context.Background()

	legacy := int64(9900)
	created, err := svc.CreateProduct(ctx, CreateProductInput{
		Name:             "Basmati Rice",
		Category:         "staples",
		Unit:             enums.ProductUnitWeight,
		GSTRate:          decimal.NewFromInt(5),
		LegacyPricePaise: &legacy,
		IsActive:         true,
	})
	if err != nil {
		t.Fatalf("create product: %v", err)
	}
	if created.LegacyPricePaise == nil || *created.LegacyPricePaise != legacy {
		t.Fatalf("legacy price = %v, want %d", created.LegacyPricePaise, legacy)
	}

	loaded, err := svc.GetProduct(ctx, created.ID)
	if err != nil {
		t.Fatalf("get product: %v", err)
	}
	if loaded.LegacyPricePaise == nil || *loaded.LegacyPricePaise != legacy {
		t.Fatalf("loaded legacy price = %v, want %d", loaded.LegacyPricePaise, legacy)
	}

	raised := int64(10500)
	updated, err := svc.UpdateProduct(ctx, created.ID, UpdateProductInput{LegacyPricePaise: &raised})
	if err != nil {
		t.Fatalf("update product: %v", err)
	}
	if updated.LegacyPricePaise == nil || *updated.LegacyPricePaise != raised {
		t.Fatalf("updated legacy price = %v, want %d", updated.LegacyPricePaise, raised)
	}

	zero := int64(0)
	_, err = svc.UpdateProduct(ctx, created.ID, UpdateProductInput{LegacyPricePaise: &zero})
	if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeValidation {
		t.Fatalf("unexpected error for zero legacy price: %v", err)
	}
}

func TestCreateOfferRequiresEligibleSeller(t *testing.T) {
	svc, _ := newTestCatalogService(t, false)

	_, err := svc.CreateOffer(context.Background(), uuid.New(), CreateOfferInput{
		ProductID:  uuid.New(),
		PricePaise: 4500,
		Stock:      10,
	})
	if err == nil {
		t.Fatal("expected forbidden")
	}
	if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeForbidden {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestCreateOfferRequiresActiveProduct(t *testing.T) {
	svc, _ := newTestCatalogService(t, true)
	ctx := context.Background()

	product, err := svc.CreateProduct(ctx, CreateProductInput{
		Name:     "Mango",
		Category: "fruits",
		Unit:     enums.ProductUnitWeight,
		IsActive: false,
	})
	if err != nil {
		t.Fatalf("create product: %v", err)
	}

	_, err = svc.CreateOffer(ctx, uuid.New(), CreateOfferInput{
		ProductID:  product.ID,
		PricePaise: 4500,
		Stock:      10,
	})
	if err == nil {
		t.Fatal("expected conflict for inactive product")
	}
	if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeConflict {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestCreateOfferDefaults(t *testing.T) {
	svc, _ := newTestCatalogService(t, true)
	ctx := context.Background()

	product, err := svc.CreateProduct(ctx, CreateProductInput{
		Name:     "Mango",
		Category: "fruits",
		Unit:     enums.ProductUnitWeight,
		IsActive: true,
	})
	if err != nil {
		t.Fatalf("create product: %v", err)
	}

	offer, err := svc.CreateOffer(ctx, uuid.New(), CreateOfferInput{
		ProductID:  product.ID,
		PricePaise: 4500,
		Stock:      10,
	})
	if err != nil {
		t.Fatalf("create offer: %v", err)
	}
	if offer.MinOrderQty != 1 {
		t.Fatalf("min order qty = %d, want default 1", offer.MinOrderQty)
	}
	if !offer.UnitValue.Equal(decimal.NewFromInt(1)) {
		t.Fatalf("unit value = %s, want default 1", offer.UnitValue)
	}
	if !offer.IsActive {
		t.Fatal("new offer must be active")
	}
}

func TestUpdateOfferOwnership(t *testing.T) {
	svc, repo := newTestCatalogService(t, true)
	ctx := context.Background()

	product, err := svc.CreateProduct(ctx, CreateProductInput{
		Name:     "Mango",
		Category: "fruits",
		Unit:     enums.ProductUnitWeight,
		IsActive: true,
	})
	if err != nil {
		t.Fatalf("create product: %v", err)
	}
	owner := uuid.New()
	offer, err := svc.CreateOffer(ctx, owner, CreateOfferInput{
		ProductID:  product.ID,
		PricePaise: 4500,
		Stock:      10,
	})
	if err != nil {
		t.Fatalf("create offer: %v", err)
	}

	price := int64(4800)
	_, err = svc.UpdateOffer(ctx, uuid.New(), offer.ID, UpdateOfferInput{PricePaise: &price})
	if err == nil {
		t.Fatal("expected forbidden for foreign offer")
	}
	if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeForbidden {
		t.Fatalf("unexpected error: %v", err)
	}

	updated, err := svc.UpdateOffer(ctx, owner, offer.ID, UpdateOfferInput{PricePaise: &price})
	if err != nil {
		t.Fatalf("update offer: %v", err)
	}
	if updated.PricePaise != price {
		t.Fatalf("price = %d, want %d", updated.PricePaise, price)
	}

	fresh, err := repo.FindOffer(ctx, offer.ID)
	if err != nil {
		t.Fatalf("reload offer: %v", err)
	}
	if fresh.PricePaise != price {
		t.Fatalf("persisted price = %d, want %d", fresh.PricePaise, price)
	}
}

func TestListSellerOffersNewestFirst(t *testing.T) {
	svc, repo := newTestCatalogService(t, true)
	ctx := context.Background()
	sellerID := uuid.New()

	base := time.Date(2026, 2, 1, 8, 0, 0, 0, time.UTC)
	conn := repo.db
	product := newProduct(t, conn, "Mango", "fruits", base)
	older := newOffer(t, conn, product.ID, sellerID, 4000, base)
	newer := newOffer(t, conn, product.ID, sellerID, 4200, base.Add(time.Hour))

	rows, err := svc.ListSellerOffers(ctx, sellerID)
	if err != nil {
		t.Fatalf("list seller offers: %v", err)
	}
	if len(rows) != 2 {
		t.Fatalf("expected 2 offers, got %d", len(rows))
	}
	if rows[0].ID != newer.ID || rows[1].ID != older.ID {
		t.Fatalf("offers not newest first: %v then %v", rows[0].ID, rows[1].ID)
	}
}
