package stock

import (
	"context"
	"errors"
	"os"
	"sync"
	"testing"

	"github.com/glebarez/sqlite"
	"gorm.io/gorm"

	"remanerp/core/alerts"
	partEntity "remanerp/model/entity/part"
	stockEntity "remanerp/model/entity/stock"
	partRepo "remanerp/model/repository/part"
)

func TestMain(m *testing.M) {
	os.Setenv("MOVEMENT_APPROVAL_THRESHOLD", "100")
	os.Setenv("LOW_STOCK_DEFAULT", "5")
	os.Exit(m.Run())
}

type recordingNotifier struct {
	mu    sync.Mutex
	fired []alerts.Alert
}

func (r *recordingNotifier) Notify(_ context.Context, a alerts.Alert) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.fired = append(r.fired, a)
}

func (r *recordingNotifier) byKind(kind string) []alerts.Alert {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []alerts.Alert
	for _, a := range r.fired {
		if a.Kind == kind {
			out = append(out, a)
		}
	}
	return out
}

func setupDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	if err := db.AutoMigrate(&partEntity.Part{}, &stockEntity.Movement{}); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return db
}

func seedPart(t *testing.T, db *gorm.DB, orgID uint, code string, qty int64) *partEntity.Part {
	t.Helper()
	p := &partEntity.Part{OrgID: orgID, Code: code, Name: "part " + code, Quantity: qty, IsActive: true}
	if err := db.Create(p).Error; err != nil {
		t.Fatalf("seed part: %v", err)
	}
	return p
}

func newTestService(t *testing.T, db *gorm.DB) (*Service, *recordingNotifier) {
	t.Helper()
	notifier := &recordingNotifier{}
	svc, err := NewService(db, notifier)
	if err != nil {
		t.Fatalf("new service: %v", err)
	}
	return svc, notifier
}

func TestRecordMovementEntryAndExit(t *testing.T) {
	db := setupDB(t)
	svc, _ := newTestService(t, db)
	ctx := context.Background()
	p := seedPart(t, db, 1, "BLK-001", 0)

	m, updated, err := svc.RecordMovement(ctx, 1, 7, MovementInput{PartID: p.PartID, Type: stockEntity.TypeEntry, Quantity: 30, Reason: "initial load"})
	if err != nil {
		t.Fatalf("entry: %v", err)
	}
	if m.PreviousQuantity != 0 || m.NewQuantity != 30 || m.Quantity != 30 {
		t.Fatalf("entry chain = (%d, %d, %d)", m.PreviousQuantity, m.Quantity, m.NewQuantity)
	}
	if updated.Quantity != 30 {
		t.Fatalf("part quantity = %d, want 30", updated.Quantity)
	}

	m, updated, err = svc.RecordMovement(ctx, 1, 7, MovementInput{PartID: p.PartID, Type: stockEntity.TypeExit, Quantity: 12, Reason: "order pick"})
	if err != nil {
		t.Fatalf("exit: %v", err)
	}
	if m.Quantity != -12 {
		t.Fatalf("exit should store signed quantity, got %d", m.Quantity)
	}
	if m.PreviousQuantity != 30 || m.NewQuantity != 18 {
		t.Fatalf("exit chain = (%d, %d)", m.PreviousQuantity, m.NewQuantity)
	}
	if updated.Quantity != 18 {
		t.Fatalf("part quantity = %d, want 18", updated.Quantity)
	}
}

func TestRecordMovementValidation(t *testing.T) {
	db := setupDB(t)
	svc, _ := newTestService(t, db)
	ctx := context.Background()
	p := seedPart(t, db, 1, "BLK-002", 10)

	if _, _, err := svc.RecordMovement(ctx, 1, 7, MovementInput{PartID: p.PartID, Type: "transfer", Quantity: 1}); !errors.Is(err, ErrInvalidType) {
		t.Fatalf("bad type: %v", err)
	}
	if _, _, err := svc.RecordMovement(ctx, 1, 7, MovementInput{PartID: p.PartID, Type: stockEntity.TypeEntry, Quantity: 0}); !errors.Is(err, ErrInvalidQuantity) {
		t.Fatalf("zero quantity: %v", err)
	}
	if _, _, err := svc.RecordMovement(ctx, 1, 7, MovementInput{PartID: 9999, Type: stockEntity.TypeEntry, Quantity: 1}); !errors.Is(err, ErrPartNotFound) {
		t.Fatalf("missing part: %v", err)
	}
	if _, _, err := svc.RecordMovement(ctx, 2, 7, MovementInput{PartID: p.PartID, Type: stockEntity.TypeEntry, Quantity: 1}); !errors.Is(err, ErrPartNotFound) {
		t.Fatalf("cross-org access should look like a missing part: %v", err)
	}
}

func TestRecordMovementInsufficientStock(t *testing.T) {
	db := setupDB(t)
	svc, _ := newTestService(t, db)
	ctx := context.Background()
	p := seedPart(t, db, 1, "BLK-003", 6)

	_, _, err := svc.RecordMovement(ctx, 1, 7, MovementInput{PartID: p.PartID, Type: stockEntity.TypeExit, Quantity: 10, Reason: "too much"})
	if !errors.Is(err, ErrInsufficientStock) {
		t.Fatalf("want ErrInsufficientStock, got %v", err)
	}

	var count int64
	db.Model(&stockEntity.Movement{}).Count(&count)
	if count != 0 {
		t.Fatalf("failed movement must not leave a ledger row, found %d", count)
	}
	var fresh partEntity.Part
	db.First(&fresh, p.PartID)
	if fresh.Quantity != 6 {
		t.Fatalf("quantity = %d, want 6 untouched", fresh.Quantity)
	}
}

func TestLedgerConservation(t *testing.T) {
	db := setupDB(t)
	svc, _ := newTestService(t, db)
	ctx := context.Background()
	p := seedPart(t, db, 1, "BLK-004", 0)

	steps := []MovementInput{
		{PartID: p.PartID, Type: stockEntity.TypeEntry, Quantity: 50},
		{PartID: p.PartID, Type: stockEntity.TypeExit, Quantity: 8},
		{PartID: p.PartID, Type: stockEntity.TypeAdjustment, Quantity: -3},
		{PartID: p.PartID, Type: stockEntity.TypeWriteOff, Quantity: 4},
		{PartID: p.PartID, Type: stockEntity.TypeEntry, Quantity: 11},
	}
	for i, in := range steps {
		if _, _, err := svc.RecordMovement(ctx, 1, 7, in); err != nil {
			t.Fatalf("step %d: %v", i, err)
		}
	}

	var rows []stockEntity.Movement
	if err := db.Where("part_id = ?", p.PartID).Order("movement_id ASC").Find(&rows).Error; err != nil {
		t.Fatalf("load ledger: %v", err)
	}
	var sum int64
	prev := int64(0)
	for i, m := range rows {
		if m.PreviousQuantity != prev {
			t.Fatalf("row %d breaks the chain: previous %d, want %d", i, m.PreviousQuantity, prev)
		}
		if m.NewQuantity != m.PreviousQuantity+m.Quantity {
			t.Fatalf("row %d: %d + %d != %d", i, m.PreviousQuantity, m.Quantity, m.NewQuantity)
		}
		prev = m.NewQuantity
		sum += m.Quantity
	}

	var fresh partEntity.Part
	db.First(&fresh, p.PartID)
	if fresh.Quantity != sum {
		t.Fatalf("part quantity %d != ledger sum %d", fresh.Quantity, sum)
	}
	if fresh.Quantity != 46 {
		t.Fatalf("final quantity = %d, want 46", fresh.Quantity)
	}
}

func TestApprovalGate(t *testing.T) {
	db := setupDB(t)
	svc, _ := newTestService(t, db)
	ctx := context.Background()
	p := seedPart(t, db, 1, "BLK-005", 10)

	// At or above the configured threshold the movement parks as pending.
	m, updated, err := svc.RecordMovement(ctx, 1, 7, MovementInput{PartID: p.PartID, Type: stockEntity.TypeEntry, Quantity: 150, Reason: "bulk receipt"})
	if err != nil {
		t.Fatalf("record: %v", err)
	}
	if m.ApprovalStatus != stockEntity.ApprovalPending || !m.RequiresApproval {
		t.Fatalf("status = %s", m.ApprovalStatus)
	}
	if updated.Quantity != 10 {
		t.Fatalf("pending movement must not touch stock, quantity = %d", updated.Quantity)
	}

	// Stock moves under the pending movement; approval recomputes the chain.
	if _, _, err := svc.RecordMovement(ctx, 1, 7, MovementInput{PartID: p.PartID, Type: stockEntity.TypeExit, Quantity: 4}); err != nil {
		t.Fatalf("interleaved exit: %v", err)
	}

	approved, err := svc.ApproveMovement(ctx, 1, 9, m.MovementID)
	if err != nil {
		t.Fatalf("approve: %v", err)
	}
	if approved.PreviousQuantity != 6 || approved.NewQuantity != 156 {
		t.Fatalf("approval chain = (%d, %d), want (6, 156)", approved.PreviousQuantity, approved.NewQuantity)
	}
	if approved.ApprovedBy == nil || *approved.ApprovedBy != 9 {
		t.Fatalf("approved_by not recorded")
	}

	var fresh partEntity.Part
	db.First(&fresh, p.PartID)
	if fresh.Quantity != 156 {
		t.Fatalf("quantity = %d, want 156", fresh.Quantity)
	}

	if _, err := svc.ApproveMovement(ctx, 1, 9, m.MovementID); !errors.Is(err, ErrNotPending) {
		t.Fatalf("double approve: %v", err)
	}
}

func TestExplicitApprovalFlag(t *testing.T) {
	db := setupDB(t)
	svc, notifier := newTestService(t, db)
	ctx := context.Background()
	p := seedPart(t, db, 1, "BLK-006", 10)

	m, _, err := svc.RecordMovement(ctx, 1, 7, MovementInput{PartID: p.PartID, Type: stockEntity.TypeWriteOff, Quantity: 2, RequiresApproval: true, Reason: "damage"})
	if err != nil {
		t.Fatalf("record: %v", err)
	}
	if m.ApprovalStatus != stockEntity.ApprovalPending {
		t.Fatalf("flagged movement should be pending, got %s", m.ApprovalStatus)
	}
	if len(notifier.byKind(alerts.KindMovementPending)) != 1 {
		t.Fatalf("expected one pending-approval alert")
	}

	rejected, err := svc.RejectMovement(ctx, 1, 9, m.MovementID)
	if err != nil {
		t.Fatalf("reject: %v", err)
	}
	if rejected.ApprovalStatus != stockEntity.ApprovalRejected {
		t.Fatalf("status = %s", rejected.ApprovalStatus)
	}
	var fresh partEntity.Part
	db.First(&fresh, p.PartID)
	if fresh.Quantity != 10 {
		t.Fatalf("rejected movement must not touch stock")
	}
	if _, err := svc.RejectMovement(ctx, 1, 9, m.MovementID); !errors.Is(err, ErrNotPending) {
		t.Fatalf("double reject: %v", err)
	}
}

func TestLowStockAlerts(t *testing.T) {
	db := setupDB(t)
	svc, notifier := newTestService(t, db)
	ctx := context.Background()
	p := seedPart(t, db, 1, "BLK-007", 10)
	db.Model(p).Update("low_stock_threshold", 5)

	if _, _, err := svc.RecordMovement(ctx, 1, 7, MovementInput{PartID: p.PartID, Type: stockEntity.TypeExit, Quantity: 6}); err != nil {
		t.Fatalf("exit to 4: %v", err)
	}
	if got := notifier.byKind(alerts.KindLowStock); len(got) != 1 || got[0].Quantity != 4 {
		t.Fatalf("low stock alerts = %+v", got)
	}

	// Already below threshold, no second low-stock alert.
	if _, _, err := svc.RecordMovement(ctx, 1, 7, MovementInput{PartID: p.PartID, Type: stockEntity.TypeExit, Quantity: 1}); err != nil {
		t.Fatalf("exit to 3: %v", err)
	}
	if got := notifier.byKind(alerts.KindLowStock); len(got) != 1 {
		t.Fatalf("repeated alerts below threshold: %d", len(got))
	}

	if _, _, err := svc.RecordMovement(ctx, 1, 7, MovementInput{PartID: p.PartID, Type: stockEntity.TypeExit, Quantity: 3}); err != nil {
		t.Fatalf("exit to 0: %v", err)
	}
	if got := notifier.byKind(alerts.KindOutOfStock); len(got) != 1 {
		t.Fatalf("out of stock alerts = %d", len(got))
	}
}

func TestCASUpdateDetectsStaleRead(t *testing.T) {
	db := setupDB(t)
	p := seedPart(t, db, 1, "BLK-008", 20)

	ok, err := partRepo.CASUpdateQuantity(db, 1, p.PartID, 20, 15)
	if err != nil || !ok {
		t.Fatalf("fresh CAS: ok=%v err=%v", ok, err)
	}
	// A second writer still holding the old quantity must lose.
	ok, err = partRepo.CASUpdateQuantity(db, 1, p.PartID, 20, 10)
	if err != nil {
		t.Fatalf("stale CAS err: %v", err)
	}
	if ok {
		t.Fatalf("stale CAS must not succeed")
	}
	var fresh partEntity.Part
	db.First(&fresh, p.PartID)
	if fresh.Quantity != 15 {
		t.Fatalf("quantity = %d, want 15", fresh.Quantity)
	}
}

func TestSearchFallsBackToSQL(t *testing.T) {
	db := setupDB(t)
	svc, _ := newTestService(t, db)
	ctx := context.Background()
	p := seedPart(t, db, 1, "BLK-009", 0)

	for _, reason := range []string{"crankshaft regrind batch", "order pick", "crankshaft scrap"} {
		if _, _, err := svc.RecordMovement(ctx, 1, 7, MovementInput{PartID: p.PartID, Type: stockEntity.TypeEntry, Quantity: 1, Reason: reason}); err != nil {
			t.Fatalf("record %q: %v", reason, err)
		}
	}

	rows, err := svc.SearchMovements(ctx, 1, "crankshaft", 10)
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	if len(rows) != 2 {
		t.Fatalf("matches = %d, want 2", len(rows))
	}
}

func TestLowStockScanCrossesOrgs(t *testing.T) {
	db := setupDB(t)
	svc, notifier := newTestService(t, db)

	seedPart(t, db, 1, "PST-001", 3)  // below fallback of 5
	seedPart(t, db, 2, "CRK-002", 0)  // out of stock in another org
	seedPart(t, db, 1, "VLV-003", 50) // healthy
	inactive := seedPart(t, db, 1, "OBS-004", 1)
	if err := db.Model(inactive).Update("is_active", false).Error; err != nil {
		t.Fatalf("deactivate: %v", err)
	}

	n, err := svc.LowStockScan(context.Background())
	if err != nil {
		t.Fatalf("scan: %v", err)
	}
	if n != 2 {
		t.Fatalf("flagged = %d, want 2", n)
	}
	if got := notifier.byKind(alerts.KindLowStock); len(got) != 1 || got[0].PartCode != "PST-001" {
		t.Fatalf("low stock alerts = %+v", got)
	}
	if got := notifier.byKind(alerts.KindOutOfStock); len(got) != 1 || got[0].OrgID != 2 {
		t.Fatalf("out of stock alerts = %+v", got)
	}
}
