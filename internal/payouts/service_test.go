package payouts

import (
	"context"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/freshlane/marketplace-backend/internal/orders"
	"github.com/freshlane/marketplace-backend/pkg/db"
	"github.com/freshlane/marketplace-backend/pkg/db/models"
	"github.com/freshlane/marketplace-backend/pkg/enums"
	pkgerrors "github.com/freshlane/marketplace-backend/pkg/errors"
	"github.com/freshlane/marketplace-backend/pkg/logger"
	"github.com/freshlane/marketplace-backend/pkg/types"
)

type fixedRates struct {
	rate decimal.Decimal
}

func (f *fixedRates) RateForSeller(context.Context, uuid.UUID) (decimal.Decimal, error) {
	return f.rate, nil
}

type fakeSellers struct {
	ineligible map[uuid.UUID]bool
	bank       map[uuid.UUID]*types.BankDetails
	broken     map[uuid.UUID]error
}

func (f *fakeSellers) IsEligibleToSell(_ context.Context, sellerID uuid.UUID) (bool, error) {
	return !f.ineligible[sellerID], nil
}

func (f *fakeSellers) GetSeller(_ context.Context, sellerID uuid.UUID) (*models.Seller, error) {
	if err := f.broken[sellerID]; err != nil {
		return nil, err
	}
	bank, ok := f.bank[sellerID]
	if !ok {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "seller not found")
	}
	return &models.Seller{ID: sellerID, BankDetails: bank}, nil
}

type fakePenalties struct {
	bySeller map[uuid.UUID]int64
}

func (f *fakePenalties) SumPenalties(_ context.Context, sellerID uuid.UUID, _, _ time.Time) (int64, error) {
	return f.bySeller[sellerID], nil
}

func setupPayoutsTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	conn, err := gorm.Open(sqlite.Open("file:payouts_"+uuid.NewString()+"?mode=memory&cache=shared"), &gorm.Config{})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}

	stmts := []string{`
CREATE TABLE IF NOT EXISTS orders (
  id TEXT PRIMARY KEY,
  user_id TEXT NOT NULL,
  status TEXT NOT NULL DEFAULT 'pending',
  total_paise INTEGER NOT NULL,
  delivery_address TEXT,
  payment_method TEXT NOT NULL DEFAULT 'cod',
  payment_status TEXT NOT NULL DEFAULT 'pending',
  payout_status TEXT NOT NULL DEFAULT 'pending',
  delivered_at DATETIME,
  cancelled_at DATETIME,
  created_at DATETIME,
  updated_at DATETIME
);`, `
CREATE TABLE IF NOT EXISTS order_line_items (
  id TEXT PRIMARY KEY,
  order_id TEXT NOT NULL,
  product_id TEXT NOT NULL,
  seller_id TEXT NOT NULL,
  seller_offer_id TEXT,
  name TEXT NOT NULL,
  price_paise INTEGER NOT NULL,
  quantity INTEGER NOT NULL,
  created_at DATETIME
);`, `
CREATE TABLE IF NOT EXISTS payouts (
  id TEXT PRIMARY KEY,
  seller_id TEXT NOT NULL,
  period_start DATETIME NOT NULL,
  period_end DATETIME NOT NULL,
  order_ids TEXT,
  gross_paise INTEGER NOT NULL,
  commission_rate NUMERIC NOT NULL,
  commission_paise INTEGER NOT NULL,
  adjustments_paise INTEGER NOT NULL DEFAULT 0,
  net_paise INTEGER NOT NULL,
  status TEXT NOT NULL DEFAULT 'pending',
  bank_details TEXT,
  audit_notes TEXT,
  created_at DATETIME,
  updated_at DATETIME
);`}
	for _, ddl := range stmts {
		if err := conn.Exec(ddl).Error; err != nil {
			t.Fatalf("create schema: %v", err)
		}
	}
	return conn
}

type payoutsHarness struct {
	svc       Service
	repo      *Repository
	orderRepo *orders.Repository
	sellers   *fakeSellers
	penalties *fakePenalties
}

func newPayoutsHarness(t *testing.T) *payoutsHarness {
	t.Helper()

	conn := setupPayoutsTestDB(t)
	repo := NewRepository(conn)
	orderRepo := orders.NewRepository(conn)
	sellers := &fakeSellers{ineligible: map[uuid.UUID]bool{}, bank: map[uuid.UUID]*types.BankDetails{}}
	penalties := &fakePenalties{bySeller: map[uuid.UUID]int64{}}
	logg := logger.New(logger.Options{ServiceName: "payouts-test"})

	svc, err := NewService(repo, orderRepo, db.NewWithConn(conn), &fixedRates{rate: decimal.NewFromInt(10)}, sellers, penalties, logg)
	if err != nil {
		t.Fatalf("new service: %v", err)
	}
	return &payoutsHarness{svc: svc, repo: repo, orderRepo: orderRepo, sellers: sellers, penalties: penalties}
}

func (h *payoutsHarness) seedDelivered(t *testing.T, deliveredAt time.Time, items ...models.OrderLineItem) *models.Order {
	t.Helper()

	var total int64
	for _, item := range items {
		total += item.PricePaise * int64(item.Quantity)
	}
	order := &models.Order{
		UserID:        uuid.New(),
		Status:        enums.OrderStatusDelivered,
		TotalPaise:    total,
		PaymentMethod: enums.PaymentMethodCOD,
		PaymentStatus: enums.PaymentStatusPaid,
		PayoutStatus:  enums.OrderPayoutStatusPending,
		DeliveredAt:   &deliveredAt,
		Items:         items,
	}
	created, err := h.orderRepo.Create(context.Background(), order)
	if err != nil {
		t.Fatalf("seed order: %v", err)
	}
	return created
}

func lineItem(sellerID uuid.UUID, price int64, qty int) models.OrderLineItem {
	return models.OrderLineItem{
		ProductID:  uuid.New(),
		SellerID:   sellerID,
		Name:       "Spinach",
		PricePaise: price,
		Quantity:   qty,
	}
}

func weekWindow() (time.Time, time.Time) {
	start := time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC)
	return start, start.AddDate(0, 0, 7)
}

func TestGenerateGroupsOrdersPerSeller(t *testing.T) {
	h := newPayoutsHarness(t)
	ctx := context.Background()
	start, end := weekWindow()

	sellerA := uuid.New()
	sellerB := uuid.New()
	h.sellers.bank[sellerA] = &types.BankDetails{AccountHolder: "Asha Traders", AccountNumber: "0012345678", IFSC: "HDFC0000123", BankName: "HDFC"}
	h.penalties.bySeller[sellerA] = 1000

	// Seller A appears in two orders, seller B in one of them.
	first := h.seedDelivered(t, start.Add(24*time.Hour), lineItem(sellerA, 10000, 2))
	second := h.seedDelivered(t, start.Add(48*time.Hour), lineItem(sellerA, 5000, 2), lineItem(sellerB, 7500, 1))

	result, err := h.svc.Generate(ctx, start, end)
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	if result.OrderCount != 2 {
		t.Fatalf("order count = %d, want 2", result.OrderCount)
	}
	if len(result.Payouts) != 2 {
		t.Fatalf("payouts = %d, want 2", len(result.Payouts))
	}

	byseller := make(map[uuid.UUID]models.Payout, len(result.Payouts))
	for _, p := range result.Payouts {
		byseller[p.SellerID] = p
	}

	// Seller A: gross 30000, 10% commission 3000, penalty 1000 off the net.
	a, ok := byseller[sellerA]
	if !ok {
		t.Fatal("no payout for seller A")
	}
	if a.GrossPaise != 30000 || a.CommissionPaise != 3000 || a.AdjustmentsPaise != -1000 || a.NetPaise != 26000 {
		t.Fatalf("seller A amounts = gross %d commission %d adj %d net %d",
			a.GrossPaise, a.CommissionPaise, a.AdjustmentsPaise, a.NetPaise)
	}
	if a.Status != enums.PayoutStatusPending {
		t.Fatalf("seller A status = %s", a.Status)
	}
	if len(a.OrderIDs) != 2 {
		t.Fatalf("seller A order ids = %d, want 2", len(a.OrderIDs))
	}
	if a.BankDetails == nil || a.BankDetails.AccountHolder != "Asha Traders" {
		t.Fatal("seller A bank details not snapshotted")
	}

	// Seller B: single item, no penalties, no bank details on file.
	b, ok := byseller[sellerB]
	if !ok {
		t.Fatal("no payout for seller B")
	}
	if b.GrossPaise != 7500 || b.CommissionPaise != 750 || b.NetPaise != 6750 {
		t.Fatalf("seller B amounts = gross %d commission %d net %d", b.GrossPaise, b.CommissionPaise, b.NetPaise)
	}
	if b.BankDetails != nil {
		t.Fatal("seller B should have no bank details")
	}

	for _, id := range []uuid.UUID{first.ID, second.ID} {
		row, err := h.orderRepo.Find(ctx, id)
		if err != nil {
			t.Fatalf("reload order: %v", err)
		}
		if row.PayoutStatus != enums.OrderPayoutStatusProcessed {
			t.Fatalf("order %s payout status = %s, want processed", id, row.PayoutStatus)
		}
	}
}

func TestGenerateSettlesEachOrderOnce(t *testing.T) {
	h := newPayoutsHarness(t)
	ctx := context.Background()
	start, end := weekWindow()

	h.seedDelivered(t, start.Add(time.Hour), lineItem(uuid.New(), 10000, 1))

	first, err := h.svc.Generate(ctx, start, end)
	if err != nil {
		t.Fatalf("first run: %v", err)
	}
	if first.OrderCount != 1 {
		t.Fatalf("first run order count = %d", first.OrderCount)
	}

	second, err := h.svc.Generate(ctx, start, end)
	if err != nil {
		t.Fatalf("second run: %v", err)
	}
	if second.OrderCount != 0 || len(second.Payouts) != 0 {
		t.Fatalf("second run settled again: %d orders, %d payouts", second.OrderCount, len(second.Payouts))
	}

	var count int64
	if err := h.repo.db.Model(&models.Payout{}).Count(&count).Error; err != nil {
		t.Fatalf("count payouts: %v", err)
	}
	if count != 1 {
		t.Fatalf("payout rows = %d, want 1", count)
	}
}

func TestGenerateHoldsSuspendedSellers(t *testing.T) {
	h := newPayoutsHarness(t)
	ctx := context.Background()
	start, end := weekWindow()

	sellerID := uuid.New()
	h.sellers.ineligible[sellerID] = true
	h.seedDelivered(t, start.Add(time.Hour), lineItem(sellerID, 10000, 1))

	result, err := h.svc.Generate(ctx, start, end)
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	if len(result.Payouts) != 1 {
		t.Fatalf("payouts = %d, want 1", len(result.Payouts))
	}
	if result.Payouts[0].Status != enums.PayoutStatusOnHold {
		t.Fatalf("status = %s, want on_hold", result.Payouts[0].Status)
	}
}

func TestGenerateOmitsBankSnapshotForVanishedSeller(t *testing.T) {
	h := newPayoutsHarness(t)
	ctx := context.Background()
	start, end := weekWindow()

	h.seedDelivered(t, start.Add(time.Hour), lineItem(uuid.New(), 10000, 1))

	result, err := h.svc.Generate(ctx, start, end)
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	if len(result.Payouts) != 1 {
		t.Fatalf("payouts = %d, want 1", len(result.Payouts))
	}
	if result.Payouts[0].BankDetails != nil {
		t.Fatalf("expected no bank snapshot, got %+v", result.Payouts[0].BankDetails)
	}
}

func TestGenerateFailsWhenSellerLookupBreaks(t *testing.T) {
	h := newPayoutsHarness(t)
	ctx := context.Background()
	start, end := weekWindow()

	sellerID := uuid.New()
	h.sellers.broken = map[uuid.UUID]error{sellerID: fmt.Errorf("seller store offline")}
	order := h.seedDelivered(t, start.Add(time.Hour), lineItem(sellerID, 10000, 1))

	if _, err := h.svc.Generate(ctx, start, end); err == nil {
		t.Fatal("expected generate to fail when the seller lookup errors")
	}

	// The whole run rolled back: no payout row, order still settleable.
	var count int64
	if err := h.repo.db.Model(&models.Payout{}).Count(&count).Error; err != nil {
		t.Fatalf("count payouts: %v", err)
	}
	if count != 0 {
		t.Fatalf("payout rows = %d, want 0", count)
	}
	var row models.Order
	if err := h.repo.db.First(&row, "id = ?", order.ID).Error; err != nil {
		t.Fatalf("load order: %v", err)
	}
	if row.PayoutStatus != enums.OrderPayoutStatusPending {
		t.Fatalf("order payout status = %s, want pending", row.PayoutStatus)
	}
}

func TestGenerateClampsNegativeNet(t *testing.T) {
	h := newPayoutsHarness(t)
	ctx := context.Background()
	start, end := weekWindow()

	sellerID := uuid.New()
	h.penalties.bySeller[sellerID] = 500000
	h.seedDelivered(t, start.Add(time.Hour), lineItem(sellerID, 10000, 1))

	result, err := h.svc.Generate(ctx, start, end)
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	payout := result.Payouts[0]
	if payout.NetPaise != 0 {
		t.Fatalf("net = %d, want clamped to 0", payout.NetPaise)
	}
	if payout.AdjustmentsPaise != -500000 {
		t.Fatalf("adjustments = %d, want -500000", payout.AdjustmentsPaise)
	}
}

func TestGenerateRejectsInvertedPeriod(t *testing.T) {
	h := newPayoutsHarness(t)
	start, end := weekWindow()

	_, err := h.svc.Generate(context.Background(), end, start)
	if err == nil {
		t.Fatal("expected validation error")
	}
	if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeValidation {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestMarkStatusFlow(t *testing.T) {
	h := newPayoutsHarness(t)
	ctx := context.Background()
	start, end := weekWindow()

	h.seedDelivered(t, start.Add(time.Hour), lineItem(uuid.New(), 10000, 1))
	result, err := h.svc.Generate(ctx, start, end)
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	payoutID := result.Payouts[0].ID

	row, err := h.svc.MarkStatus(ctx, payoutID, enums.PayoutStatusProcessing, "bank file exported")
	if err != nil {
		t.Fatalf("mark processing: %v", err)
	}
	if row.Status != enums.PayoutStatusProcessing {
		t.Fatalf("status = %s, want processing", row.Status)
	}
	if row.AuditNotes == nil || !strings.Contains(*row.AuditNotes, "bank file exported") {
		t.Fatal("audit note not recorded")
	}

	row, err = h.svc.MarkStatus(ctx, payoutID, enums.PayoutStatusCompleted, "")
	if err != nil {
		t.Fatalf("mark completed: %v", err)
	}
	if row.Status != enums.PayoutStatusCompleted {
		t.Fatalf("status = %s, want completed", row.Status)
	}
}

func TestMarkStatusCompletedIsImmutable(t *testing.T) {
	h := newPayoutsHarness(t)
	ctx := context.Background()
	start, end := weekWindow()

	h.seedDelivered(t, start.Add(time.Hour), lineItem(uuid.New(), 10000, 1))
	result, err := h.svc.Generate(ctx, start, end)
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	payoutID := result.Payouts[0].ID

	if _, err := h.svc.MarkStatus(ctx, payoutID, enums.PayoutStatusCompleted, ""); err != nil {
		t.Fatalf("mark completed: %v", err)
	}

	// Moving off completed, or touching it without a note, is refused.
	for _, status := range []enums.PayoutStatus{enums.PayoutStatusPending, enums.PayoutStatusFailed} {
		_, err := h.svc.MarkStatus(ctx, payoutID, status, "retry")
		if err == nil {
			t.Fatalf("expected state conflict for %s", status)
		}
		if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeStateConflict {
			t.Fatalf("unexpected error: %v", err)
		}
	}
	if _, err := h.svc.MarkStatus(ctx, payoutID, enums.PayoutStatusCompleted, ""); err == nil {
		t.Fatal("expected state conflict for empty note on completed payout")
	}

	// Appending an audit note is the one allowed mutation.
	row, err := h.svc.MarkStatus(ctx, payoutID, enums.PayoutStatusCompleted, "reference UTR123")
	if err != nil {
		t.Fatalf("append note: %v", err)
	}
	if row.AuditNotes == nil || !strings.Contains(*row.AuditNotes, "UTR123") {
		t.Fatal("audit note not appended")
	}
	if row.Status != enums.PayoutStatusCompleted {
		t.Fatalf("status = %s, want completed", row.Status)
	}
}

func TestMarkStatusUnknownPayout(t *testing.T) {
	h := newPayoutsHarness(t)

	_, err := h.svc.MarkStatus(context.Background(), uuid.New(), enums.PayoutStatusProcessing, "")
	if err == nil {
		t.Fatal("expected not found")
	}
	if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeNotFound {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestListBySellerNewestFirst(t *testing.T) {
	h := newPayoutsHarness(t)
	ctx := context.Background()
	sellerID := uuid.New()

	start, end := weekWindow()
	h.seedDelivered(t, start.Add(time.Hour), lineItem(sellerID, 10000, 1))
	if _, err := h.svc.Generate(ctx, start, end); err != nil {
		t.Fatalf("first window: %v", err)
	}

	nextStart, nextEnd := end, end.AddDate(0, 0, 7)
	h.seedDelivered(t, nextStart.Add(time.Hour), lineItem(sellerID, 20000, 1))
	if _, err := h.svc.Generate(ctx, nextStart, nextEnd); err != nil {
		t.Fatalf("second window: %v", err)
	}

	rows, err := h.svc.ListBySeller(ctx, sellerID)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(rows) != 2 {
		t.Fatalf("rows = %d, want 2", len(rows))
	}
	if !rows[0].PeriodStart.After(rows[1].PeriodStart) {
		t.Fatalf("payouts not newest first: %v then %v", rows[0].PeriodStart, rows[1].PeriodStart)
	}
}
