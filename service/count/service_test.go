package count

import (
	"context"
	"errors"
	"os"
	"testing"

	"github.com/glebarez/sqlite"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"remanerp/core/alerts"
	countEntity "remanerp/model/entity/count"
	partEntity "remanerp/model/entity/part"
	stockEntity "remanerp/model/entity/stock"
	stockSvc "remanerp/service/stock"
)

func TestMain(m *testing.M) {
	os.Setenv("MOVEMENT_APPROVAL_THRESHOLD", "100000")
	os.Exit(m.Run())
}

type nopNotifier struct{}

func (nopNotifier) Notify(context.Context, alerts.Alert) {}

func setupDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	err = db.AutoMigrate(
		&partEntity.Part{},
		&stockEntity.Movement{},
		&countEntity.InventoryCount{},
		&countEntity.Item{},
	)
	if err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return db
}

func newTestService(t *testing.T, db *gorm.DB) *Service {
	t.Helper()
	stock, err := stockSvc.NewService(db, nopNotifier{})
	if err != nil {
		t.Fatalf("stock service: %v", err)
	}
	return NewService(db, stock)
}

func seedPart(t *testing.T, db *gorm.DB, orgID uint, code string, qty int64, cost string) *partEntity.Part {
	t.Helper()
	p := &partEntity.Part{OrgID: orgID, Code: code, Name: "part " + code, Quantity: qty,
		UnitCost: decimal.RequireFromString(cost), IsActive: true}
	if err := db.Create(p).Error; err != nil {
		t.Fatalf("seed part: %v", err)
	}
	return p
}

func TestCreateCountSnapshots(t *testing.T) {
	db := setupDB(t)
	svc := newTestService(t, db)
	ctx := context.Background()
	seedPart(t, db, 1, "VLV-001", 20, "3.50")
	seedPart(t, db, 1, "VLV-002", 7, "1.25")
	seedPart(t, db, 1, "GSK-001", 3, "0.80")
	inactive := seedPart(t, db, 1, "VLV-999", 5, "9.99")
	db.Model(inactive).Update("is_active", false)
	seedPart(t, db, 2, "VLV-003", 9, "2.00")

	c, err := svc.CreateCount(ctx, 1, 7, countEntity.TypePartial, map[string]interface{}{"code_prefix": "VLV"})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if c.Status != countEntity.StatusDraft || len(c.Items) != 2 {
		t.Fatalf("count = %s with %d items", c.Status, len(c.Items))
	}
	for _, item := range c.Items {
		if item.PartCode == "VLV-001" && item.ExpectedQuantity != 20 {
			t.Fatalf("snapshot expected = %d", item.ExpectedQuantity)
		}
	}

	// Later stock changes must not move the snapshot baseline.
	db.Model(&partEntity.Part{}).Where("code = ?", "VLV-001").Update("quantity", 99)
	fresh, err := svc.Get(ctx, 1, c.CountID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	for _, item := range fresh.Items {
		if item.PartCode == "VLV-001" && item.ExpectedQuantity != 20 {
			t.Fatalf("baseline moved to %d", item.ExpectedQuantity)
		}
	}
}

func TestCreateCountValidation(t *testing.T) {
	db := setupDB(t)
	svc := newTestService(t, db)
	ctx := context.Background()

	if _, err := svc.CreateCount(ctx, 1, 7, "annual", nil); !errors.Is(err, ErrInvalidCountType) {
		t.Fatalf("bad type: %v", err)
	}
	if _, err := svc.CreateCount(ctx, 1, 7, countEntity.TypeFull, nil); !errors.Is(err, ErrEmptySnapshot) {
		t.Fatalf("empty snapshot: %v", err)
	}
}

func TestUpdateItemRequiresInProgress(t *testing.T) {
	db := setupDB(t)
	svc := newTestService(t, db)
	ctx := context.Background()
	seedPart(t, db, 1, "VLV-010", 10, "2.00")

	c, err := svc.CreateCount(ctx, 1, 7, countEntity.TypeFull, nil)
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	itemID := c.Items[0].ItemID

	if _, err := svc.UpdateItem(ctx, 1, 8, itemID, 9); !errors.Is(err, ErrNotInProgress) {
		t.Fatalf("update on draft: %v", err)
	}
	if _, err := svc.Start(ctx, 1, 7, c.CountID); err != nil {
		t.Fatalf("start: %v", err)
	}
	if _, err := svc.Start(ctx, 1, 7, c.CountID); !errors.Is(err, ErrNotDraft) {
		t.Fatalf("double start: %v", err)
	}
	if _, err := svc.UpdateItem(ctx, 1, 8, itemID, -1); !errors.Is(err, ErrInvalidCounted) {
		t.Fatalf("negative counted: %v", err)
	}

	item, err := svc.UpdateItem(ctx, 1, 8, itemID, 9)
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if item.Difference != -1 || item.CountedQuantity == nil || *item.CountedQuantity != 9 {
		t.Fatalf("item = %+v", item)
	}
}

func TestProcessPostsAdjustments(t *testing.T) {
	db := setupDB(t)
	svc := newTestService(t, db)
	ctx := context.Background()
	p1 := seedPart(t, db, 1, "VLV-020", 20, "3.00")
	p2 := seedPart(t, db, 1, "VLV-021", 5, "1.00")
	p3 := seedPart(t, db, 1, "VLV-022", 4, "2.00")

	c, err := svc.CreateCount(ctx, 1, 7, countEntity.TypeFull, nil)
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if _, err := svc.Start(ctx, 1, 7, c.CountID); err != nil {
		t.Fatalf("start: %v", err)
	}

	counted := map[string]int64{"VLV-020": 18, "VLV-021": 5}
	for _, item := range c.Items {
		if qty, ok := counted[item.PartCode]; ok {
			if _, err := svc.UpdateItem(ctx, 1, 8, item.ItemID, qty); err != nil {
				t.Fatalf("update %s: %v", item.PartCode, err)
			}
		}
	}

	done, movements, err := svc.Process(ctx, 1, 9, c.CountID)
	if err != nil {
		t.Fatalf("process: %v", err)
	}
	if done.Status != countEntity.StatusCompleted || done.ProcessedBy == nil {
		t.Fatalf("count = %+v", done)
	}
	// Only the divergent counted line becomes a movement; system lines with
	// zero difference or no count are skipped.
	if len(movements) != 1 {
		t.Fatalf("movements = %d, want 1", len(movements))
	}
	m := movements[0]
	if m.Type != stockEntity.TypeAdjustment || m.Quantity != -2 {
		t.Fatalf("movement = %s %d", m.Type, m.Quantity)
	}

	var fresh partEntity.Part
	db.First(&fresh, p1.PartID)
	if fresh.Quantity != 18 {
		t.Fatalf("adjusted quantity = %d, want 18", fresh.Quantity)
	}
	fresh = partEntity.Part{}
	db.First(&fresh, p2.PartID)
	if fresh.Quantity != 5 {
		t.Fatalf("zero-diff part moved to %d", fresh.Quantity)
	}
	fresh = partEntity.Part{}
	db.First(&fresh, p3.PartID)
	if fresh.Quantity != 4 {
		t.Fatalf("uncounted part moved to %d", fresh.Quantity)
	}

	// Processing twice must not adjust twice.
	if _, _, err := svc.Process(ctx, 1, 9, c.CountID); !errors.Is(err, ErrAlreadyProcessed) {
		t.Fatalf("second process: %v", err)
	}
	fresh = partEntity.Part{}
	db.First(&fresh, p1.PartID)
	if fresh.Quantity != 18 {
		t.Fatalf("idempotency broken, quantity = %d", fresh.Quantity)
	}
}

func TestCancelCount(t *testing.T) {
	db := setupDB(t)
	svc := newTestService(t, db)
	ctx := context.Background()
	seedPart(t, db, 1, "VLV-030", 6, "1.00")

	c, err := svc.CreateCount(ctx, 1, 7, countEntity.TypeFull, nil)
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	cancelled, err := svc.CancelCount(ctx, 1, 7, c.CountID)
	if err != nil {
		t.Fatalf("cancel: %v", err)
	}
	if cancelled.Status != countEntity.StatusCancelled {
		t.Fatalf("status = %s", cancelled.Status)
	}
	if _, _, err := svc.Process(ctx, 1, 7, c.CountID); !errors.Is(err, ErrNotInProgress) {
		t.Fatalf("process cancelled: %v", err)
	}
	if _, err := svc.CancelCount(ctx, 1, 7, c.CountID); !errors.Is(err, ErrAlreadyProcessed) {
		t.Fatalf("double cancel: %v", err)
	}
}

func TestDivergenceReport(t *testing.T) {
	nine := int64(9)
	twelve := int64(12)
	four := int64(4)
	items := []countEntity.Item{
		{ExpectedQuantity: 10, CountedQuantity: &nine, Difference: -1, UnitCost: decimal.RequireFromString("3.50")},
		{ExpectedQuantity: 10, CountedQuantity: &twelve, Difference: 2, UnitCost: decimal.RequireFromString("1.25")},
		{ExpectedQuantity: 4, CountedQuantity: &four, Difference: 0, UnitCost: decimal.RequireFromString("9.00")},
		{ExpectedQuantity: 7, UnitCost: decimal.RequireFromString("2.00")},
	}

	d := DivergenceReport(items)
	if d.TotalItems != 4 || d.CountedItems != 3 || d.DivergentItems != 2 {
		t.Fatalf("report = %+v", d)
	}
	if d.UnitsUp != 2 || d.UnitsDown != 1 {
		t.Fatalf("units = up %d, down %d", d.UnitsUp, d.UnitsDown)
	}
	// -1*3.50 + 2*1.25 = -1.00
	if !d.FinancialImpact.Equal(decimal.RequireFromString("-1.00")) {
		t.Fatalf("impact = %s", d.FinancialImpact)
	}
}

func TestUpdateItemScopedToOrg(t *testing.T) {
	db := setupDB(t)
	svc := newTestService(t, db)
	ctx := context.Background()
	seedPart(t, db, 1, "VLV-040", 12, "2.00")

	c, err := svc.CreateCount(ctx, 1, 7, countEntity.TypeFull, nil)
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if _, err := svc.Start(ctx, 1, 7, c.CountID); err != nil {
		t.Fatalf("start: %v", err)
	}
	itemID := c.Items[0].ItemID

	if _, err := svc.UpdateItem(ctx, 2, 8, itemID, 9); !errors.Is(err, ErrCountNotFound) {
		t.Fatalf("cross-org update: %v", err)
	}

	item, err := svc.UpdateItem(ctx, 1, 8, itemID, 9)
	if err != nil {
		t.Fatalf("same-org update: %v", err)
	}
	if item.Difference != -3 {
		t.Fatalf("difference = %d, want -3", item.Difference)
	}
}
